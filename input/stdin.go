package input

import (
	"context"
	"io"
	"os"

	"github.com/jasonmartens/flowgger/decoders"
	"github.com/jasonmartens/flowgger/framing"
	"github.com/jasonmartens/flowgger/log"
	"github.com/jasonmartens/flowgger/queue"
)

// Stdin reads frames from os.Stdin with blocking reads, grounded on the
// teacher's single-reader connection-handler loop shape.
type Stdin struct {
	Decoder decoders.Decoder
	Framer  func(io.Reader) framing.ReadFramer
	Logger  *log.Logger

	cancel context.CancelFunc
}

func NewStdin(dec decoders.Decoder, framerKind string, maxFrameSize int, lg *log.Logger) *Stdin {
	return &Stdin{
		Decoder: dec,
		Framer: func(r io.Reader) framing.ReadFramer {
			f, err := NewReadFramer(framerKind, r, maxFrameSize)
			if err != nil {
				lg.Fatalf("input/stdin: %v", err)
			}
			return f
		},
		Logger: lg,
	}
}

func (s *Stdin) Run(ctx context.Context, out queue.Enqueuer) error {
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	defer cancel()

	framer := s.Framer(os.Stdin)
	for {
		frame, err := framer.Next()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			s.Logger.Warnf("input/stdin: frame error: %v", err)
			continue
		}
		decodeAndEnqueue(ctx, s.Logger, s.Decoder, out, frame)
		select {
		case <-ctx.Done():
			return nil
		default:
		}
	}
}

func (s *Stdin) Shutdown(ctx context.Context) error {
	if s.cancel != nil {
		s.cancel()
	}
	return nil
}
