package log

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

type buf struct{ *bytes.Buffer }

func (buf) Close() error { return nil }

func TestLevelFiltering(t *testing.T) {
	b := &bytes.Buffer{}
	l := New(buf{b})
	require.NoError(t, l.SetLevel(WARN))
	l.Infof("should not appear")
	l.Warnf("should appear")
	out := b.String()
	require.NotContains(t, out, "should not appear")
	require.Contains(t, out, "should appear")
}

func TestLevelFromString(t *testing.T) {
	lvl, err := LevelFromString("warn")
	require.NoError(t, err)
	require.Equal(t, WARN, lvl)

	_, err = LevelFromString("bogus")
	require.Error(t, err)
}

func TestAddWriterFansOut(t *testing.T) {
	b1, b2 := &bytes.Buffer{}, &bytes.Buffer{}
	l := New(buf{b1})
	require.NoError(t, l.AddWriter(buf{b2}))
	l.Infof("hello")
	require.Contains(t, b1.String(), "hello")
	require.Contains(t, b2.String(), "hello")
}

func TestNewDiscardLogger(t *testing.T) {
	l := NewDiscardLogger()
	l.Infof("anything")
	require.Equal(t, INFO, l.GetLevel())
	_ = io.Discard
}
