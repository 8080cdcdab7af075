package framing

import (
	"bufio"
	"io"
)

// NulReadFramer frames on '\0', stripping the terminator.
type NulReadFramer struct {
	r       *bufio.Reader
	maxSize int
}

func NewNulReadFramer(r io.Reader, maxSize int) *NulReadFramer {
	return &NulReadFramer{r: bufio.NewReaderSize(r, 4096), maxSize: maxSize}
}

func (f *NulReadFramer) Next() ([]byte, error) {
	line, err := f.r.ReadBytes(0)
	if len(line) == 0 {
		return nil, err
	}
	if line[len(line)-1] == 0 {
		line = line[:len(line)-1]
	}
	if f.maxSize > 0 && len(line) > f.maxSize {
		return nil, ErrFrameTooLarge
	}
	if err != nil && err != io.EOF {
		return nil, err
	}
	return line, nil
}

// NulWriteFramer appends a NUL terminator to each payload.
type NulWriteFramer struct{}

func (NulWriteFramer) Frame(payload []byte) []byte {
	out := make([]byte, 0, len(payload)+1)
	out = append(out, payload...)
	out = append(out, 0)
	return out
}
