package encoders

import (
	"testing"
	"time"

	"github.com/jasonmartens/flowgger/decoders"
	"github.com/jasonmartens/flowgger/event"
	"github.com/stretchr/testify/require"
)

type fixedClock struct{ t time.Time }

func (f fixedClock) Now() time.Time { return f.t }

func TestGELFRoundTrip(t *testing.T) {
	enc := NewGELFEncoder(nil)
	dec := decoders.NewGELFDecoder(fixedClock{time.Unix(1, 0)})

	ev := event.New(1480605816, "host01")
	ev.Msg = "hello world"
	ev.HasSeverity = true
	ev.Severity = 3
	ev.Extra().Set("count", event.Uint64Value(42))

	out, err := enc.Encode(ev)
	require.NoError(t, err)

	got, err := dec.Decode(out)
	require.NoError(t, err)
	require.Equal(t, ev.Hostname, got.Hostname)
	require.Equal(t, ev.Msg, got.Msg)
	require.Equal(t, ev.Timestamp, got.Timestamp)
	require.Equal(t, ev.Severity, got.Severity)
	f, ok := got.SD.Lookup(event.ExtraID)
	require.True(t, ok)
	v, ok := f.Get("count")
	require.True(t, ok)
	require.Equal(t, uint64(42), v.Uint64())
}

func TestLTSVRoundTrip(t *testing.T) {
	enc := NewLTSVEncoder(nil)
	schema := event.Schema{"counter": event.FieldU64}
	dec := decoders.NewLTSVDecoder(schema, fixedClock{time.Unix(1, 0)})

	ev := event.New(1480605816, "host01")
	ev.Msg = "hello"
	ev.Extra().Set("counter", event.Uint64Value(7))

	out, err := enc.Encode(ev)
	require.NoError(t, err)

	got, err := dec.Decode(out)
	require.NoError(t, err)
	require.Equal(t, ev.Hostname, got.Hostname)
	require.Equal(t, ev.Msg, got.Msg)
	require.Equal(t, ev.Timestamp, got.Timestamp)
	f, ok := got.SD.Lookup(event.ExtraID)
	require.True(t, ok)
	v, ok := f.Get("counter")
	require.True(t, ok)
	require.Equal(t, uint64(7), v.Uint64())
}

func TestRFC3164RoundTrip(t *testing.T) {
	enc := NewRFC3164Encoder(nil)
	dec := decoders.NewRFC3164Decoder(fixedClock{time.Date(2016, time.December, 2, 0, 0, 0, 0, time.UTC)})

	ev := event.New(time.Date(2016, time.October, 11, 22, 14, 15, 0, time.UTC).Unix(), "mymachine")
	ev.Appname = "su"
	ev.Procid = "123"
	ev.Msg = "'su root' failed"
	ev.HasFacility = true
	ev.Facility = 4
	ev.HasSeverity = true
	ev.Severity = 2

	out, err := enc.Encode(ev)
	require.NoError(t, err)

	got, err := dec.Decode(out)
	require.NoError(t, err)
	require.Equal(t, ev.Hostname, got.Hostname)
	require.Equal(t, ev.Appname, got.Appname)
	require.Equal(t, ev.Procid, got.Procid)
	require.Equal(t, ev.Msg, got.Msg)
	require.Equal(t, ev.Facility, got.Facility)
	require.Equal(t, ev.Severity, got.Severity)
}

func TestGELFEncodeMergesExtraHeaders(t *testing.T) {
	enc := NewGELFEncoder(ExtraHeaders{"site": "lab1"})
	ev := event.New(1, "h")
	ev.Msg = "m"

	out, err := enc.Encode(ev)
	require.NoError(t, err)

	dec := decoders.NewGELFDecoder(fixedClock{time.Unix(1, 0)})
	got, err := dec.Decode(out)
	require.NoError(t, err)
	f, ok := got.SD.Lookup(event.ExtraID)
	require.True(t, ok)
	v, ok := f.Get("site")
	require.True(t, ok)
	require.Equal(t, "lab1", v.String())
}

func TestCapnpRoundTrip(t *testing.T) {
	enc := NewCapnpEncoder(nil)
	dec := decoders.NewCapnpDecoder()

	ev := event.New(1480605816, "host01")
	ev.Appname = "app"
	ev.Msg = "hello"
	ev.HasSeverity = true
	ev.Severity = 6
	ev.Extra().Set("x", event.StringValue("1"))
	ev.Extra().Set("count", event.Uint64Value(9))

	out, err := enc.Encode(ev)
	require.NoError(t, err)

	got, err := dec.Decode(out)
	require.NoError(t, err)
	require.Equal(t, ev.Hostname, got.Hostname)
	require.Equal(t, ev.Appname, got.Appname)
	require.Equal(t, ev.Msg, got.Msg)
	require.Equal(t, ev.Severity, got.Severity)
	f, ok := got.SD.Lookup(event.ExtraID)
	require.True(t, ok)
	x, ok := f.Get("x")
	require.True(t, ok)
	require.Equal(t, "1", x.String())
	count, ok := f.Get("count")
	require.True(t, ok)
	require.Equal(t, uint64(9), count.Uint64())
}
