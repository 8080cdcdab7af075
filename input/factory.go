package input

import (
	"fmt"
	"io"

	"github.com/jasonmartens/flowgger/decoders"
	"github.com/jasonmartens/flowgger/event"
	"github.com/jasonmartens/flowgger/framing"
)

// NewDecoder builds the decoder named by format, per §4.E's "each transport
// is parameterised by a decoder and a framer."
func NewDecoder(format string, schema event.Schema, clock decoders.Clock) (decoders.Decoder, error) {
	switch format {
	case "", "rfc5424":
		return decoders.NewRFC5424Decoder(), nil
	case "rfc3164":
		return decoders.NewRFC3164Decoder(clock), nil
	case "gelf":
		return decoders.NewGELFDecoder(clock), nil
	case "ltsv":
		return decoders.NewLTSVDecoder(schema, clock), nil
	case "capnp":
		return decoders.NewCapnpDecoder(), nil
	}
	return nil, fmt.Errorf("input: unknown decoder format %q", format)
}

// NewReadFramer builds the framer named by kind, wrapping r.
func NewReadFramer(kind string, r io.Reader, maxFrameSize int) (framing.ReadFramer, error) {
	switch kind {
	case "", "line":
		return framing.NewLineReadFramer(r, maxFrameSize), nil
	case "nul":
		return framing.NewNulReadFramer(r, maxFrameSize), nil
	case "syslog-octet-count":
		return framing.NewOctetCountReadFramer(r, maxFrameSize), nil
	case "capnp":
		return framing.NewCapnpReadFramer(r, maxFrameSize), nil
	}
	return nil, fmt.Errorf("input: unknown framing kind %q", kind)
}
