// Package encoders implements the event-to-bytes serializers of spec §4.C:
// GELF-JSON, LTSV, Cap'n Proto, and RFC3164. Encoders are pure: they never
// mutate the event they're given, and configuration-time "extra" headers
// are merged into the output using each encoder's own convention.
package encoders

import "github.com/jasonmartens/flowgger/event"

// Encoder serializes one Event to bytes.
type Encoder interface {
	Encode(ev event.Event) ([]byte, error)
}

// ExtraHeaders are configuration-time key/value pairs merged into every
// encoded event under the encoder's own convention (GELF: underscore-
// prefixed top-level keys; LTSV: additional tab-delimited pairs; Cap'n
// Proto: additional entries in the "pairs" list).
type ExtraHeaders map[string]string
