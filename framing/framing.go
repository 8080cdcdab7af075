// Package framing implements the reader-side and writer-side frame
// delimiting strategies of spec §4.D. A ReadFramer pulls one frame at a
// time out of a byte stream; a WriteFramer wraps an already-encoded
// payload with whatever delimiter its wire format expects.
package framing

import (
	"errors"
)

var (
	// ErrFrameTooLarge is returned when a frame would exceed the
	// configured maximum size. The line and NUL framers have already
	// discarded the oversize frame's remaining bytes up to the next
	// delimiter; the octet-count and Cap'n Proto framers do not consume
	// the oversize payload.
	ErrFrameTooLarge = errors.New("framing: frame too large")
	// ErrFrameInvalid is returned when the stream does not match the
	// expected framing grammar (e.g. a non-digit octet-count prefix).
	ErrFrameInvalid = errors.New("framing: invalid frame")
)

// ReadFramer extracts frames from a byte stream. Next returns the frame
// owned by the framer's internal buffer: callers must not retain the slice
// past the following call to Next, per spec §3's Frame lifetime rule.
type ReadFramer interface {
	// Next returns the next frame, or io.EOF when the stream is
	// exhausted cleanly.
	Next() ([]byte, error)
}

// WriteFramer turns one encoded payload into the bytes that should be
// written to the output transport.
type WriteFramer interface {
	Frame(payload []byte) []byte
}
