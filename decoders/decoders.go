// Package decoders implements the frame-to-event parsers of spec §4.B:
// RFC5424, RFC3164, GELF-JSON, and LTSV. Every decoder is stateless and
// pure except for the "now" fallback some wire formats require, which is
// satisfied through an injected Clock rather than a direct time.Now call.
package decoders

import (
	"errors"
	"time"

	"github.com/jasonmartens/flowgger/event"
)

// Decoder turns one frame into a canonical Event.
type Decoder interface {
	Decode(frame []byte) (event.Event, error)
}

// Clock supplies "now" to decoders that need a fallback timestamp (RFC3164
// year inference, GELF's missing-timestamp case), keeping decoders
// deterministic in tests per spec §9.
type Clock interface {
	Now() time.Time
}

// SystemClock is the production Clock, backed by time.Now.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

var (
	// ErrFrameInvalid covers malformed input that doesn't match the
	// wire grammar at all.
	ErrFrameInvalid = errors.New("decoders: frame invalid")
	// ErrRequiredFieldMissing covers a well-formed frame missing a
	// field the format requires.
	ErrRequiredFieldMissing = errors.New("decoders: required field missing")
	// ErrSchemaCoercion covers a schema-declared field whose token
	// could not be coerced to the declared type.
	ErrSchemaCoercion = errors.New("decoders: schema coercion failed")
)
