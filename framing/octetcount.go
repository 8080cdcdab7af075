package framing

import (
	"bufio"
	"fmt"
	"io"
)

// OctetCountReadFramer implements RFC6587 octet-counted framing:
// "<len> <payload of len bytes>" where len is ASCII digits followed by a
// single space.
type OctetCountReadFramer struct {
	r   *bufio.Reader
	max int
}

func NewOctetCountReadFramer(r io.Reader, max int) *OctetCountReadFramer {
	return &OctetCountReadFramer{r: bufio.NewReaderSize(r, 4096), max: max}
}

func (f *OctetCountReadFramer) Next() ([]byte, error) {
	n, err := f.readLength()
	if err != nil {
		return nil, err
	}
	if n <= 0 || (f.max > 0 && n > f.max) {
		return nil, ErrFrameTooLarge
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(f.r, buf); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return nil, ErrFrameInvalid
		}
		return nil, err
	}
	return buf, nil
}

// readLength reads ASCII digits up to the delimiting space and parses them
// as the frame length. A length too large to represent is reported as
// FrameTooLarge without attempting to consume the (unknowable) payload.
func (f *OctetCountReadFramer) readLength() (int, error) {
	var digits []byte
	for {
		b, err := f.r.ReadByte()
		if err != nil {
			if len(digits) > 0 {
				return 0, ErrFrameInvalid
			}
			return 0, err
		}
		if b == ' ' {
			break
		}
		if b < '0' || b > '9' {
			return 0, ErrFrameInvalid
		}
		digits = append(digits, b)
		if len(digits) > 10 {
			// No legitimate frame length needs more than 10 digits;
			// further digits indicate either corruption or a
			// deliberately oversize declaration per spec §8 scenario 4.
			return 0, ErrFrameTooLarge
		}
	}
	if len(digits) == 0 {
		return 0, ErrFrameInvalid
	}
	var n int
	for _, d := range digits {
		n = n*10 + int(d-'0')
		if n < 0 {
			return 0, ErrFrameTooLarge
		}
	}
	return n, nil
}

// OctetCountWriteFramer prepends "<len> " to each payload.
type OctetCountWriteFramer struct{}

func (OctetCountWriteFramer) Frame(payload []byte) []byte {
	prefix := fmt.Sprintf("%d ", len(payload))
	out := make([]byte, 0, len(prefix)+len(payload))
	out = append(out, prefix...)
	out = append(out, payload...)
	return out
}
