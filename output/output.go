// Package output implements the output transports of spec §4.G: stdout,
// file (with rotation), TCP/TLS (with recovery), Kafka, and debug. Every
// transport drains a queue.Dequeuer, encodes with an encoders.Encoder,
// frames with a framing.WriteFramer, and delivers to its sink.
package output

import (
	"context"

	"github.com/jasonmartens/flowgger/queue"
)

// Output is the common contract every transport satisfies.
type Output interface {
	// Run blocks, draining events from in until ctx is cancelled.
	Run(ctx context.Context, in queue.Dequeuer) error
	// Shutdown flushes in-flight batches with a bounded deadline.
	Shutdown(ctx context.Context) error
}
