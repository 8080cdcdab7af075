package decoders

import (
	"fmt"
	"strings"
	"time"

	"github.com/gravwell/syslogparser/rfc5424"

	"github.com/jasonmartens/flowgger/event"
)

// RFC5424Decoder parses the syslog structured-data format of RFC 5424:
// "<PRI>1 TIMESTAMP HOST APP PROCID MSGID [SD-ELEMENT ...] MSG"
//
// Header cracking (PRI, version, timestamp, hostname, app-name, proc-id,
// msg-id, message body) is delegated to gravwell/syslogparser/rfc5424, the
// same library the teacher uses for exactly this in
// ingest/processors/syslogrouter.go's crackData. The upstream parser dumps
// structured data as one opaque "[id k=\"v\" ...]..." string rather than
// the ordered per-group typed map this decoder's Event model requires
// (needed, among other things, to satisfy the Cap'n Proto encoder's
// ordered-pairs requirement), so SD-ELEMENT parsing stays this package's
// own parseSDElements, fed from that raw string instead of re-implemented.
type RFC5424Decoder struct{}

func NewRFC5424Decoder() *RFC5424Decoder { return &RFC5424Decoder{} }

func (RFC5424Decoder) Decode(frame []byte) (event.Event, error) {
	p := rfc5424.NewParser(frame)
	if p == nil {
		return event.Event{}, fmt.Errorf("%w: rfc5424: parser rejected frame", ErrFrameInvalid)
	}
	if err := p.Parse(); err != nil {
		return event.Event{}, fmt.Errorf("%w: rfc5424: %v", ErrFrameInvalid, err)
	}
	parts := p.Dump()

	hostTok, _ := parts["hostname"].(string)
	if hostTok == "" || hostTok == "-" {
		return event.Event{}, fmt.Errorf("%w: hostname", ErrRequiredFieldMissing)
	}

	ts, ok := parts["timestamp"].(time.Time)
	if !ok || ts.IsZero() {
		return event.Event{}, fmt.Errorf("%w: timestamp", ErrRequiredFieldMissing)
	}

	facility, hasFacility := intField(parts, "facility")
	severity, hasSeverity := intField(parts, "severity")

	ev := event.New(ts.Unix(), hostTok)
	if hasFacility {
		ev.Facility = facility
		ev.HasFacility = true
	}
	if hasSeverity {
		ev.Severity = severity
		ev.HasSeverity = true
	}

	if appTok, _ := parts["app_name"].(string); appTok != "-" {
		ev.Appname = appTok
	}
	if procidTok, _ := parts["proc_id"].(string); procidTok != "-" {
		ev.Procid = procidTok
	}
	if msgidTok, _ := parts["msg_id"].(string); msgidTok != "-" {
		ev.Msgid = msgidTok
	}

	if sdRaw, _ := parts["structured_data"].(string); sdRaw != "" && sdRaw != "-" {
		sdGroups, _, err := parseSDElements(sdRaw)
		if err != nil {
			return event.Event{}, err
		}
		for _, g := range sdGroups {
			fields, ferr := ev.SD.Group(g.id)
			if ferr != nil {
				return event.Event{}, fmt.Errorf("%w: %v", ErrFrameInvalid, ferr)
			}
			for _, kv := range g.pairs {
				fields.Set(kv[0], event.StringValue(kv[1]))
			}
		}
	}

	msg, _ := parts["message"].(string)
	ev.Msg = strings.TrimPrefix(msg, " ")
	return ev, nil
}

type sdGroup struct {
	id    string
	pairs [][2]string
}

// parseSDElements parses one or more "[id k=\"v\" ...]" groups starting at
// the beginning of s, returning the remainder of s after the last group.
func parseSDElements(s string) ([]sdGroup, string, error) {
	var groups []sdGroup
	for len(s) > 0 && s[0] == '[' {
		g, rest, err := parseOneSDElement(s)
		if err != nil {
			return nil, "", err
		}
		groups = append(groups, g)
		s = rest
	}
	if len(groups) == 0 {
		return nil, "", fmt.Errorf("%w: expected structured data or '-'", ErrFrameInvalid)
	}
	return groups, s, nil
}

func parseOneSDElement(s string) (sdGroup, string, error) {
	// s[0] == '['
	i := 1
	idStart := i
	for i < len(s) && s[i] != ' ' && s[i] != ']' {
		i++
	}
	if i >= len(s) {
		return sdGroup{}, "", fmt.Errorf("%w: unterminated SD-ID", ErrFrameInvalid)
	}
	id := s[idStart:i]
	if id == "" {
		return sdGroup{}, "", fmt.Errorf("%w: empty SD-ID", ErrFrameInvalid)
	}
	g := sdGroup{id: id}
	for {
		for i < len(s) && s[i] == ' ' {
			i++
		}
		if i >= len(s) {
			return sdGroup{}, "", fmt.Errorf("%w: unterminated SD element", ErrFrameInvalid)
		}
		if s[i] == ']' {
			return g, s[i+1:], nil
		}
		keyStart := i
		for i < len(s) && s[i] != '=' {
			i++
		}
		if i >= len(s) {
			return sdGroup{}, "", fmt.Errorf("%w: malformed SD-PARAM", ErrFrameInvalid)
		}
		key := s[keyStart:i]
		i++ // '='
		if i >= len(s) || s[i] != '"' {
			return sdGroup{}, "", fmt.Errorf("%w: expected quoted value", ErrFrameInvalid)
		}
		i++
		var val strings.Builder
		for i < len(s) {
			c := s[i]
			if c == '\\' && i+1 < len(s) {
				n := s[i+1]
				if n == '\\' || n == '"' || n == ']' {
					val.WriteByte(n)
					i += 2
					continue
				}
			}
			if c == '"' {
				i++
				break
			}
			val.WriteByte(c)
			i++
		}
		g.pairs = append(g.pairs, [2]string{key, val.String()})
	}
}
