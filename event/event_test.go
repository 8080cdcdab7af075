package event

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFieldsLastWriteWins(t *testing.T) {
	f := NewFields()
	f.Set("x", Int64Value(1))
	overwrote := f.Set("x", Int64Value(2))
	require.True(t, overwrote)
	require.Equal(t, 1, f.Len())
	v, ok := f.Get("x")
	require.True(t, ok)
	require.Equal(t, int64(2), v.Int64())
}

func TestFieldsPreservesInsertionOrder(t *testing.T) {
	f := NewFields()
	f.Set("b", StringValue("2"))
	f.Set("a", StringValue("1"))
	f.Set("b", StringValue("20"))
	pairs := f.Pairs()
	require.Len(t, pairs, 2)
	require.Equal(t, "b", pairs[0].Key)
	require.Equal(t, "a", pairs[1].Key)
	require.Equal(t, "20", pairs[0].Value.String())
}

func TestSDRejectsEmptyID(t *testing.T) {
	sd := NewSD()
	_, err := sd.Group("")
	require.ErrorIs(t, err, ErrEmptySDID)
}

func TestEventValidate(t *testing.T) {
	e := New(-1, "host")
	require.ErrorIs(t, e.Validate(), ErrMissingTimestamp)

	e = New(0, "")
	require.ErrorIs(t, e.Validate(), ErrMissingHostname)

	e = New(0, "host")
	require.NoError(t, e.Validate())
}

func TestExtraGroupIsReused(t *testing.T) {
	e := New(1, "host")
	e.Extra().Set("counter", Uint64Value(42))
	v, ok := e.Extra().Get("counter")
	require.True(t, ok)
	require.Equal(t, uint64(42), v.Uint64())
	require.Equal(t, 1, e.SD.Len())
}

func TestSchemaCoerce(t *testing.T) {
	s := Schema{"counter": FieldU64, "ratio": FieldF64}
	v, ok, err := s.Coerce("counter", "42")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, uint64(42), v.Uint64())

	_, ok, err = s.Coerce("unknown", "x")
	require.NoError(t, err)
	require.False(t, ok)

	_, ok, err = s.Coerce("counter", "notanumber")
	require.True(t, ok)
	require.Error(t, err)
}
