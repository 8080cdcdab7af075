package output

import (
	"fmt"

	"github.com/jasonmartens/flowgger/encoders"
	"github.com/jasonmartens/flowgger/framing"
)

// NewEncoder builds the encoder named by format, merging extra into the
// output under that encoder's own convention.
func NewEncoder(format string, extra encoders.ExtraHeaders) (encoders.Encoder, error) {
	switch format {
	case "", "gelf":
		return encoders.NewGELFEncoder(extra), nil
	case "ltsv":
		return encoders.NewLTSVEncoder(extra), nil
	case "rfc3164":
		return encoders.NewRFC3164Encoder(extra), nil
	case "capnp":
		return encoders.NewCapnpEncoder(extra), nil
	}
	return nil, fmt.Errorf("output: unknown encoder format %q", format)
}

// NewWriteFramer builds the write-side framer named by kind.
func NewWriteFramer(kind string) (framing.WriteFramer, error) {
	switch kind {
	case "", "line":
		return framing.LineWriteFramer{}, nil
	case "nul":
		return framing.NulWriteFramer{}, nil
	case "syslog-octet-count":
		return framing.OctetCountWriteFramer{}, nil
	case "capnp":
		return framing.CapnpWriteFramer{}, nil
	}
	return nil, fmt.Errorf("output: unknown framing kind %q", kind)
}
