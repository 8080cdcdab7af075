package decoders

import (
	"fmt"
	"strings"
	"time"

	"github.com/gravwell/syslogparser/rfc3164"

	"github.com/jasonmartens/flowgger/event"
)

// RFC3164Decoder parses the legacy BSD syslog format:
// "<PRI>MMM dd HH:MM:SS HOST TAG: MSG"
//
// Header and content cracking (PRI, hostname, tag/pid, message body) is
// delegated to gravwell/syslogparser/rfc3164, the same library the teacher
// uses for exactly this in ingest/processors/syslogrouter.go's crackData.
// The year component of the timestamp is reconstructed separately using
// the injected Clock: the upstream parser has no clock-injection hook and
// always guesses the year off the wall clock at Parse() time, which this
// decoder's Clock-based year inference (and its tests) depend on being
// deterministic.
type RFC3164Decoder struct {
	Clock Clock
}

func NewRFC3164Decoder(clock Clock) *RFC3164Decoder {
	if clock == nil {
		clock = SystemClock{}
	}
	return &RFC3164Decoder{Clock: clock}
}

const rfc3164DefaultFacility = 1
const rfc3164DefaultSeverity = 5

func (d *RFC3164Decoder) Decode(frame []byte) (event.Event, error) {
	p := rfc3164.NewParser(frame)
	if p == nil {
		return event.Event{}, fmt.Errorf("%w: rfc3164: parser rejected frame", ErrFrameInvalid)
	}
	if err := p.Parse(); err != nil {
		return event.Event{}, fmt.Errorf("%w: rfc3164: %v", ErrFrameInvalid, err)
	}
	parts := p.Dump()

	hostTok, _ := parts["hostname"].(string)
	if hostTok == "" {
		return event.Event{}, fmt.Errorf("%w: hostname", ErrRequiredFieldMissing)
	}

	facility, hasFacility := intField(parts, "facility")
	severity, hasSeverity := intField(parts, "severity")
	if !hasFacility {
		facility = rfc3164DefaultFacility
	}
	if !hasSeverity {
		severity = rfc3164DefaultSeverity
	}

	tagTok, _ := parts["tag"].(string)
	content, _ := parts["content"].(string)

	now := d.Clock.Now()
	ts := inferYear(now, timeOfDay(parts))

	ev := event.New(ts.Unix(), hostTok)
	ev.Facility = facility
	ev.HasFacility = true
	ev.Severity = severity
	ev.HasSeverity = true
	ev.Msg = content

	if i := strings.IndexByte(tagTok, '['); i >= 0 && strings.HasSuffix(tagTok, "]") {
		ev.Appname = tagTok[:i]
		ev.Procid = tagTok[i+1 : len(tagTok)-1]
	} else {
		ev.Appname = tagTok
	}
	return ev, nil
}

// intField pulls an int out of a syslogparser.LogParts value that may have
// been stored as int or as a narrower/wider integer type depending on the
// library's internal representation.
func intField(parts map[string]interface{}, key string) (int, bool) {
	v, ok := parts[key]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case uint8:
		return int(n), true
	}
	return 0, false
}

// timeOfDay extracts the month/day/hour/minute/second the upstream parser
// recovered from the wire, discarding the year it guessed.
func timeOfDay(parts map[string]interface{}) time.Time {
	if t, ok := parts["timestamp"].(time.Time); ok {
		return t
	}
	return time.Time{}
}

// inferYear re-applies this decoder's own year-inference rule on top of
// the month/day/time-of-day the upstream parser recovered, using now (the
// injected Clock) instead of the upstream parser's wall-clock guess.
func inferYear(now, parsed time.Time) time.Time {
	ts := time.Date(now.Year(), parsed.Month(), parsed.Day(), parsed.Hour(), parsed.Minute(), parsed.Second(), 0, now.Location())
	// If the inferred date lands far in the future relative to "now" it's
	// almost certainly really from last year (e.g. a Dec 31 message
	// ingested just after midnight on Jan 1).
	if ts.After(now.Add(24 * time.Hour)) {
		ts = ts.AddDate(-1, 0, 0)
	}
	return ts
}
