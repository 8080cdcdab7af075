package decoders

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/jasonmartens/flowgger/event"
)

// GELFDecoder parses a single GELF 1.1 JSON object.
type GELFDecoder struct {
	Clock Clock
}

func NewGELFDecoder(clock Clock) *GELFDecoder {
	if clock == nil {
		clock = SystemClock{}
	}
	return &GELFDecoder{Clock: clock}
}

// gelfFacilityNames maps the handful of GELF facility strings the wire
// format commonly carries to the syslog facility numbers of spec §3.
// Anything else is preserved verbatim under "_extra".
var gelfFacilityNames = map[string]int{
	"kern": 0, "user": 1, "mail": 2, "daemon": 3, "auth": 4,
	"syslog": 5, "lpr": 6, "news": 7, "uucp": 8, "cron": 9,
	"authpriv": 10, "ftp": 11, "local0": 16, "local1": 17,
	"local2": 18, "local3": 19, "local4": 20, "local5": 21,
	"local6": 22, "local7": 23,
}

func (d *GELFDecoder) Decode(frame []byte) (event.Event, error) {
	dec := json.NewDecoder(bytes.NewReader(frame))
	dec.UseNumber()
	var raw map[string]json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		return event.Event{}, fmt.Errorf("%w: %v", ErrFrameInvalid, err)
	}

	version, err := stringField(raw, "version")
	if err != nil || version != "1.1" {
		return event.Event{}, fmt.Errorf("%w: version", ErrRequiredFieldMissing)
	}
	host, err := stringField(raw, "host")
	if err != nil || host == "" {
		return event.Event{}, fmt.Errorf("%w: host", ErrRequiredFieldMissing)
	}
	shortMsg, err := stringField(raw, "short_message")
	if err != nil {
		return event.Event{}, fmt.Errorf("%w: short_message", ErrRequiredFieldMissing)
	}

	ts := float64(d.Clock.Now().Unix())
	if tsRaw, ok := raw["timestamp"]; ok {
		var f float64
		if err := json.Unmarshal(tsRaw, &f); err != nil {
			return event.Event{}, fmt.Errorf("%w: timestamp", ErrFrameInvalid)
		}
		ts = f
	}

	ev := event.New(int64(ts), host)
	ev.Msg = shortMsg

	if fullMsg, err := stringField(raw, "full_message"); err == nil {
		ev.FullMsg = fullMsg
	}
	if lvlRaw, ok := raw["level"]; ok {
		var n json.Number
		if err := json.Unmarshal(lvlRaw, &n); err == nil {
			if lvl, err := n.Int64(); err == nil {
				ev.Severity = int(lvl)
				ev.HasSeverity = true
			}
		}
	}
	if fac, err := stringField(raw, "facility"); err == nil {
		if num, ok := gelfFacilityNames[strings.ToLower(fac)]; ok {
			ev.Facility = num
			ev.HasFacility = true
		} else {
			ev.Extra().Set("facility", event.StringValue(fac))
		}
	}

	for k, v := range raw {
		if !strings.HasPrefix(k, "_") {
			continue
		}
		name := strings.TrimPrefix(k, "_")
		val, err := jsonScalarToValue(v)
		if err != nil {
			return event.Event{}, fmt.Errorf("%w: field %q: %v", ErrFrameInvalid, k, err)
		}
		ev.Extra().Set(name, val)
	}

	return ev, nil
}

func stringField(raw map[string]json.RawMessage, key string) (string, error) {
	msg, ok := raw[key]
	if !ok {
		return "", ErrRequiredFieldMissing
	}
	var s string
	if err := json.Unmarshal(msg, &s); err != nil {
		return "", fmt.Errorf("%w: field %q is not a string", ErrFrameInvalid, key)
	}
	return s, nil
}

// jsonScalarToValue converts a raw JSON scalar to a typed event.Value,
// choosing u64/i64/f64 by range per spec §9.
func jsonScalarToValue(raw json.RawMessage) (event.Value, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" {
		return event.Value{}, fmt.Errorf("empty value")
	}
	switch trimmed[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return event.Value{}, err
		}
		return event.StringValue(s), nil
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return event.Value{}, err
		}
		return event.BoolValue(b), nil
	case 'n':
		return event.StringValue(""), nil
	default:
		var num json.Number
		if err := json.Unmarshal(raw, &num); err != nil {
			return event.Value{}, err
		}
		return numberToValue(num), nil
	}
}

func numberToValue(num json.Number) event.Value {
	s := num.String()
	if !strings.ContainsAny(s, ".eE") {
		if u, err := strconv.ParseUint(s, 10, 64); err == nil {
			return event.Uint64Value(u)
		}
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return event.Int64Value(i)
		}
	}
	if f, err := num.Float64(); err == nil {
		return event.Float64Value(f)
	}
	return event.StringValue(s)
}
