package output

import (
	"bufio"
	"context"
	"os"

	"github.com/jasonmartens/flowgger/encoders"
	"github.com/jasonmartens/flowgger/framing"
	"github.com/jasonmartens/flowgger/log"
	"github.com/jasonmartens/flowgger/queue"
)

// Stdout writes framed, encoded events directly to os.Stdout.
type Stdout struct {
	Encoder encoders.Encoder
	Framer  framing.WriteFramer
	Logger  *log.Logger

	w *bufio.Writer
}

func NewStdout(enc encoders.Encoder, framer framing.WriteFramer, lg *log.Logger) *Stdout {
	return &Stdout{Encoder: enc, Framer: framer, Logger: lg, w: bufio.NewWriter(os.Stdout)}
}

func (s *Stdout) Run(ctx context.Context, in queue.Dequeuer) error {
	for {
		ev, ok := in.Dequeue(ctx)
		if !ok {
			return nil
		}
		payload, err := s.Encoder.Encode(ev)
		if err != nil {
			s.Logger.Warnf("output/stdout: encode error: %v", err)
			continue
		}
		if _, err := s.w.Write(s.Framer.Frame(payload)); err != nil {
			s.Logger.Errorf("output/stdout: write error: %v", err)
		}
		s.w.Flush()
	}
}

func (s *Stdout) Shutdown(ctx context.Context) error {
	return s.w.Flush()
}
