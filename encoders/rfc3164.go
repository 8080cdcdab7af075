package encoders

import (
	"fmt"
	"time"

	"github.com/jasonmartens/flowgger/event"
)

// RFC3164Encoder emits the legacy BSD syslog wire format, the inverse of
// decoders.RFC3164Decoder: "<PRI>MMM dd HH:MM:SS HOST TAG: MSG". Extra
// headers have no home in this format and are appended as "k=v" tokens
// ahead of the message, matching how the teacher's relay augments tags it
// can't otherwise carry.
type RFC3164Encoder struct {
	Extra ExtraHeaders
}

func NewRFC3164Encoder(extra ExtraHeaders) *RFC3164Encoder {
	return &RFC3164Encoder{Extra: extra}
}

func (e *RFC3164Encoder) Encode(ev event.Event) ([]byte, error) {
	facility, severity := 1, 5
	if ev.HasFacility {
		facility = ev.Facility
	}
	if ev.HasSeverity {
		severity = ev.Severity
	}
	pri := facility*8 + severity

	ts := time.Unix(ev.Timestamp, 0).UTC().Format("Jan _2 15:04:05")

	tag := ev.Appname
	if tag == "" {
		tag = "-"
	}
	if ev.Procid != "" {
		tag = fmt.Sprintf("%s[%s]", tag, ev.Procid)
	}

	msg := ev.Msg
	for k, v := range e.Extra {
		msg = fmt.Sprintf("%s=%s %s", k, v, msg)
	}

	return []byte(fmt.Sprintf("<%d>%s %s %s: %s", pri, ts, ev.Hostname, tag, msg)), nil
}
