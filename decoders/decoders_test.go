package decoders

import (
	"testing"
	"time"

	"github.com/jasonmartens/flowgger/event"
	"github.com/stretchr/testify/require"
)

type fixedClock struct{ t time.Time }

func (f fixedClock) Now() time.Time { return f.t }

func TestRFC5424DecodeScenario(t *testing.T) {
	dec := NewRFC5424Decoder()
	ev, err := dec.Decode([]byte(`<13>1 2016-12-01T15:43:36Z host01 appname 69 MSGID [origin@123 x="1"] hello`))
	require.NoError(t, err)
	require.Equal(t, 1, ev.Facility)
	require.Equal(t, 5, ev.Severity)
	require.Equal(t, "host01", ev.Hostname)
	require.Equal(t, "appname", ev.Appname)
	require.Equal(t, "69", ev.Procid)
	require.Equal(t, "MSGID", ev.Msgid)
	require.Equal(t, "hello", ev.Msg)
	f, ok := ev.SD.Lookup("origin@123")
	require.True(t, ok)
	v, ok := f.Get("x")
	require.True(t, ok)
	require.Equal(t, "1", v.String())
}

func TestRFC5424MissingTimestampIsRequiredFieldMissing(t *testing.T) {
	dec := NewRFC5424Decoder()
	_, err := dec.Decode([]byte(`<13>1 - host01 - - - - hello`))
	require.ErrorIs(t, err, ErrRequiredFieldMissing)
}

func TestRFC5424EscapedQuotesInSD(t *testing.T) {
	dec := NewRFC5424Decoder()
	ev, err := dec.Decode([]byte(`<13>1 2016-12-01T15:43:36Z h a p m [id k="a\"b\\c\]d"] msg`))
	require.NoError(t, err)
	f, _ := ev.SD.Lookup("id")
	v, _ := f.Get("k")
	require.Equal(t, `a"b\c]d`, v.String())
}

func TestRFC3164DecodeWithPIDTag(t *testing.T) {
	dec := NewRFC3164Decoder(fixedClock{time.Date(2016, time.December, 2, 0, 0, 0, 0, time.UTC)})
	ev, err := dec.Decode([]byte(`<34>Oct 11 22:14:15 mymachine su[123]: 'su root' failed`))
	require.NoError(t, err)
	require.Equal(t, 4, ev.Facility)
	require.Equal(t, 2, ev.Severity)
	require.Equal(t, "mymachine", ev.Hostname)
	require.Equal(t, "su", ev.Appname)
	require.Equal(t, "123", ev.Procid)
	require.Equal(t, "'su root' failed", ev.Msg)
	// year inferred from the clock, landing in the past relative to Dec 2016
	parsed := time.Unix(ev.Timestamp, 0).UTC()
	require.Equal(t, 2016, parsed.Year())
}

func TestRFC3164MissingPRIDefaults(t *testing.T) {
	dec := NewRFC3164Decoder(fixedClock{time.Date(2016, time.October, 11, 0, 0, 0, 0, time.UTC)})
	ev, err := dec.Decode([]byte(`Oct 11 22:14:15 host app: hello`))
	require.NoError(t, err)
	require.Equal(t, 1, ev.Facility)
	require.Equal(t, 5, ev.Severity)
}

func TestGELFDecodeRequiredFields(t *testing.T) {
	dec := NewGELFDecoder(fixedClock{time.Unix(100, 0)})
	ev, err := dec.Decode([]byte(`{"version":"1.1","host":"h","short_message":"hi","_x":"1"}`))
	require.NoError(t, err)
	require.Equal(t, "h", ev.Hostname)
	require.Equal(t, "hi", ev.Msg)
	f, ok := ev.SD.Lookup(event.ExtraID)
	require.True(t, ok)
	v, ok := f.Get("x")
	require.True(t, ok)
	require.Equal(t, "1", v.String())
}

func TestGELFDecodeMissingRequiredField(t *testing.T) {
	dec := NewGELFDecoder(nil)
	_, err := dec.Decode([]byte(`{"version":"1.1","host":"h"}`))
	require.ErrorIs(t, err, ErrRequiredFieldMissing)
}

func TestGELFDecodeNumericExtra(t *testing.T) {
	dec := NewGELFDecoder(nil)
	ev, err := dec.Decode([]byte(`{"version":"1.1","host":"h","short_message":"m","_count":42,"_ratio":1.5}`))
	require.NoError(t, err)
	f, _ := ev.SD.Lookup(event.ExtraID)
	count, _ := f.Get("count")
	require.Equal(t, event.KindUint64, count.Kind())
	ratio, _ := f.Get("ratio")
	require.Equal(t, event.KindFloat64, ratio.Kind())
}

func TestLTSVDecodeWithSchema(t *testing.T) {
	schema := event.Schema{"counter": event.FieldU64}
	dec := NewLTSVDecoder(schema, nil)
	ev, err := dec.Decode([]byte("time:1480605816\thost:h\tcounter:42\tmessage:m"))
	require.NoError(t, err)
	require.Equal(t, int64(1480605816), ev.Timestamp)
	require.Equal(t, "h", ev.Hostname)
	require.Equal(t, "m", ev.Msg)
	f, ok := ev.SD.Lookup(event.ExtraID)
	require.True(t, ok)
	v, ok := f.Get("counter")
	require.True(t, ok)
	require.Equal(t, uint64(42), v.Uint64())
}

func TestLTSVDecodeMissingHost(t *testing.T) {
	dec := NewLTSVDecoder(nil, nil)
	_, err := dec.Decode([]byte("time:1\tmessage:m"))
	require.ErrorIs(t, err, ErrRequiredFieldMissing)
}

func TestLTSVDecodeSchemaCoercionFailure(t *testing.T) {
	schema := event.Schema{"counter": event.FieldU64}
	dec := NewLTSVDecoder(schema, nil)
	_, err := dec.Decode([]byte("host:h\tcounter:notanumber"))
	require.ErrorIs(t, err, ErrSchemaCoercion)
}
