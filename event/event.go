package event

import "errors"

// Event is the canonical in-memory log record produced by decoders and
// consumed by encoders. It never touches the wire directly; framers and
// codecs translate at the edges.
type Event struct {
	Timestamp int64 // seconds since epoch

	Hostname string

	HasFacility bool
	Facility    int // [0..23]
	HasSeverity bool
	Severity    int // [0..7]

	Appname string
	Procid  string
	Msgid   string

	Msg     string
	FullMsg string

	SD *SD
}

var (
	ErrMissingTimestamp = errors.New("event: timestamp is required")
	ErrMissingHostname  = errors.New("event: hostname is required")
)

// New returns an Event with its required fields populated and its
// structured-data block initialized and ready for Group/Set calls.
func New(timestamp int64, hostname string) Event {
	return Event{
		Timestamp: timestamp,
		Hostname:  hostname,
		SD:        NewSD(),
	}
}

// Validate checks the invariants of spec §3/§8 that must hold before an
// event may be handed to the queue.
func (e Event) Validate() error {
	if e.Timestamp < 0 {
		return ErrMissingTimestamp
	}
	if e.Hostname == "" {
		return ErrMissingHostname
	}
	return nil
}

// Extra returns (creating if absent) the reserved "_extra" structured-data
// group used for encoder-side configured headers and decoder-side overflow
// fields.
func (e *Event) Extra() *Fields {
	if e.SD == nil {
		e.SD = NewSD()
	}
	f, err := e.SD.Group(ExtraID)
	if err != nil {
		// ExtraID is a compile-time constant and is never empty.
		panic(err)
	}
	return f
}
