package decoders

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/jasonmartens/flowgger/event"
)

// LTSVDecoder parses tab-separated "key:value" pairs per the LTSV spec.
// Schema is optional; when present it is consulted to coerce non-reserved
// keys to a typed event.Value.
type LTSVDecoder struct {
	Schema event.Schema
	Clock  Clock
}

func NewLTSVDecoder(schema event.Schema, clock Clock) *LTSVDecoder {
	if clock == nil {
		clock = SystemClock{}
	}
	return &LTSVDecoder{Schema: schema, Clock: clock}
}

func (d *LTSVDecoder) Decode(frame []byte) (event.Event, error) {
	fields := strings.Split(string(frame), "\t")

	var ts int64
	hasTS := false
	var host string
	var level string
	hasLevel := false
	var msg string

	ev := event.Event{}
	ev.SD = event.NewSD()

	for _, field := range fields {
		if field == "" {
			continue
		}
		i := strings.IndexByte(field, ':')
		if i < 0 {
			return event.Event{}, fmt.Errorf("%w: malformed pair %q", ErrFrameInvalid, field)
		}
		key, val := field[:i], field[i+1:]
		switch key {
		case "time":
			n, err := strconv.ParseInt(val, 10, 64)
			if err != nil {
				return event.Event{}, fmt.Errorf("%w: time %q: %v", ErrFrameInvalid, val, err)
			}
			ts = n
			hasTS = true
		case "host":
			host = val
		case "level":
			level = val
			hasLevel = true
		case "message":
			msg = val
		default:
			extra, _ := ev.SD.Group(event.ExtraID)
			if d.Schema != nil {
				if v, ok, err := d.Schema.Coerce(key, val); ok {
					if err != nil {
						return event.Event{}, fmt.Errorf("%w: %v", ErrSchemaCoercion, err)
					}
					extra.Set(key, v)
					continue
				}
			}
			extra.Set(key, event.StringValue(val))
		}
	}

	if !hasTS {
		ts = d.Clock.Now().Unix()
	}
	if host == "" {
		return event.Event{}, fmt.Errorf("%w: host", ErrRequiredFieldMissing)
	}

	ev.Timestamp = ts
	ev.Hostname = host
	ev.Msg = msg
	if hasLevel {
		if n, err := strconv.Atoi(level); err == nil {
			ev.Severity = n
			ev.HasSeverity = true
		} else {
			extra, _ := ev.SD.Group(event.ExtraID)
			extra.Set("level", event.StringValue(level))
		}
	}
	return ev, nil
}
