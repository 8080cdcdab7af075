package encoders

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/jasonmartens/flowgger/event"
)

// GELFEncoder emits GELF 1.1 JSON, the inverse of decoders.GELFDecoder.
type GELFEncoder struct {
	Extra ExtraHeaders
}

func NewGELFEncoder(extra ExtraHeaders) *GELFEncoder {
	return &GELFEncoder{Extra: extra}
}

func (e *GELFEncoder) Encode(ev event.Event) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(`{"version":"1.1"`)
	fmt.Fprintf(&buf, `,"host":%s`, jsonString(ev.Hostname))
	fmt.Fprintf(&buf, `,"timestamp":%d`, ev.Timestamp)
	if ev.Msg != "" {
		fmt.Fprintf(&buf, `,"short_message":%s`, jsonString(ev.Msg))
	} else {
		buf.WriteString(`,"short_message":""`)
	}
	if ev.FullMsg != "" {
		fmt.Fprintf(&buf, `,"full_message":%s`, jsonString(ev.FullMsg))
	}
	if ev.HasSeverity {
		fmt.Fprintf(&buf, `,"level":%d`, ev.Severity)
	}

	if ev.SD != nil {
		if f, ok := ev.SD.Lookup(event.ExtraID); ok {
			for _, p := range f.Pairs() {
				writeGELFField(&buf, p.Key, p.Value)
			}
		}
	}
	for k, v := range e.Extra {
		writeGELFField(&buf, k, event.StringValue(v))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeGELFField(buf *bytes.Buffer, key string, v event.Value) {
	fmt.Fprintf(buf, `,"_%s":`, key)
	switch v.Kind() {
	case event.KindBool:
		if v.Bool() {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case event.KindInt64:
		fmt.Fprintf(buf, "%d", v.Int64())
	case event.KindUint64:
		fmt.Fprintf(buf, "%d", v.Uint64())
	case event.KindFloat64:
		fmt.Fprintf(buf, "%g", v.Float64())
	default:
		buf.WriteString(jsonString(v.String()))
	}
}

func jsonString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
