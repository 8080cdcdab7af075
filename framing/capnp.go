package framing

import (
	"bufio"
	"encoding/binary"
	"io"
)

// CapnpReadFramer delimits Cap'n Proto messages on the standard
// stream-framing header: a little-endian uint32 holding (segmentCount-1)
// followed by one little-endian uint32 per segment giving that segment's
// size in words, the whole header padded to 8 bytes, followed by the
// segments themselves. Next returns the complete framed message
// (header + segments) unparsed; decoders.CapnpDecoder owns turning that
// into a message via capnp.Unmarshal.
type CapnpReadFramer struct {
	r   *bufio.Reader
	max int
}

func NewCapnpReadFramer(r io.Reader, max int) *CapnpReadFramer {
	return &CapnpReadFramer{r: bufio.NewReaderSize(r, 4096), max: max}
}

func (f *CapnpReadFramer) Next() ([]byte, error) {
	var hdr [4]byte
	if _, err := io.ReadFull(f.r, hdr[:]); err != nil {
		return nil, err
	}
	segCount := int(binary.LittleEndian.Uint32(hdr[:])) + 1
	if segCount <= 0 {
		return nil, ErrFrameInvalid
	}
	sizesLen := segCount * 4
	sizes := make([]byte, sizesLen)
	if _, err := io.ReadFull(f.r, sizes); err != nil {
		return nil, ErrFrameInvalid
	}
	total := 0
	for i := 0; i < segCount; i++ {
		words := int(binary.LittleEndian.Uint32(sizes[i*4 : i*4+4]))
		total += words * 8
	}
	headerLen := 4 + sizesLen
	if pad := headerLen % 8; pad != 0 {
		padBytes := make([]byte, 8-pad)
		if _, err := io.ReadFull(f.r, padBytes); err != nil {
			return nil, ErrFrameInvalid
		}
		headerLen += 8 - pad
	}
	if f.max > 0 && headerLen+total > f.max {
		return nil, ErrFrameTooLarge
	}
	frame := make([]byte, headerLen+total)
	copy(frame, hdr[:])
	copy(frame[4:], sizes)
	if _, err := io.ReadFull(f.r, frame[headerLen:]); err != nil {
		return nil, ErrFrameInvalid
	}
	return frame, nil
}

// CapnpWriteFramer is a pass-through: Cap'n Proto messages produced by
// encoders.CapnpEncoder already carry the standard stream-framing header
// via capnp.Message.Marshal, so there is no separate delimiter to add.
type CapnpWriteFramer struct{}

func (CapnpWriteFramer) Frame(payload []byte) []byte { return payload }
