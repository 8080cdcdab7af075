package framing

import (
	"bufio"
	"io"
)

// LineReadFramer frames on '\n', stripping the trailing newline (and any
// preceding '\r') from the delivered frame, per spec §4.D.
type LineReadFramer struct {
	r       *bufio.Reader
	maxSize int
}

// NewLineReadFramer wraps r with line framing. maxSize bounds a single
// frame; 0 means "no limit other than bufio's default growth."
func NewLineReadFramer(r io.Reader, maxSize int) *LineReadFramer {
	return &LineReadFramer{r: bufio.NewReaderSize(r, 4096), maxSize: maxSize}
}

func (f *LineReadFramer) Next() ([]byte, error) {
	for {
		line, err := f.r.ReadBytes('\n')
		if len(line) == 0 {
			return nil, err
		}
		line = trimEOL(line)
		// ReadBytes already consumed through the trailing '\n' (or EOF),
		// so an oversize frame's remaining bytes are already dropped.
		if f.maxSize > 0 && len(line) > f.maxSize {
			return nil, ErrFrameTooLarge
		}
		if err != nil && err != io.EOF {
			return nil, err
		}
		return line, nil
	}
}

func trimEOL(b []byte) []byte {
	n := len(b)
	if n > 0 && b[n-1] == '\n' {
		n--
	}
	if n > 0 && b[n-1] == '\r' {
		n--
	}
	return b[:n]
}

// LineWriteFramer appends '\n' to each payload.
type LineWriteFramer struct{}

func (LineWriteFramer) Frame(payload []byte) []byte {
	out := make([]byte, 0, len(payload)+1)
	out = append(out, payload...)
	out = append(out, '\n')
	return out
}
