// Package input implements the input transports of spec §4.E: stdin,
// file tailing, UDP, TCP, TLS, cooperative-pool TCP/TLS, and Redis.
// Every transport is parameterized by a decoders.Decoder and a
// framing.ReadFramer and drives frames into a queue.Enqueuer.
package input

import (
	"context"

	"github.com/jasonmartens/flowgger/decoders"
	"github.com/jasonmartens/flowgger/log"
	"github.com/jasonmartens/flowgger/queue"
)

// Input is the common contract every transport satisfies, grounded on the
// teacher's Run/Shutdown split for its listener goroutines.
type Input interface {
	// Run blocks, feeding events to out until ctx is cancelled or a fatal
	// error occurs. Per-connection/per-file errors are logged and do not
	// cause Run to return.
	Run(ctx context.Context, out queue.Enqueuer) error
	// Shutdown stops accepting new work and releases resources.
	Shutdown(ctx context.Context) error
}

// decodeAndEnqueue runs frame through dec, enqueues the valid event, logging and dropping decode errors
// rather than propagating them, per §4.E's "per-connection or per-file
// errors are logged and do not take the input down."
func decodeAndEnqueue(ctx context.Context, lg *log.Logger, dec decoders.Decoder, out queue.Enqueuer, frame []byte) {
	ev, err := dec.Decode(frame)
	if err != nil {
		lg.Warnf("input: decode error: %v", err)
		return
	}
	if err := ev.Validate(); err != nil {
		lg.Warnf("input: invalid event: %v", err)
		return
	}
	if err := out.Enqueue(ctx, ev); err != nil {
		lg.Debugf("input: enqueue stopped: %v", err)
	}
}

