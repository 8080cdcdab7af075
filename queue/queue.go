// Package queue implements the bounded channel between inputs and the
// output of §4.F. A plain Go channel already blocks producers on a full
// queue and consumers on an empty one, so it is the back-pressure
// mechanism itself; no additional synchronization is layered on top.
package queue

import (
	"context"

	"github.com/jasonmartens/flowgger/event"
)

// Queue is a bounded multi-producer/multi-consumer channel of events.
type Queue struct {
	ch chan event.Event
}

// New returns a Queue with the given capacity. size <= 0 falls back to
// the default of 10000 used throughout §4.F's scenarios.
func New(size int) *Queue {
	if size <= 0 {
		size = 10000
	}
	return &Queue{ch: make(chan event.Event, size)}
}

// Enqueuer is the producer-side contract handed to input transports.
type Enqueuer interface {
	Enqueue(ctx context.Context, ev event.Event) error
}

// Dequeuer is the consumer-side contract handed to output transports.
type Dequeuer interface {
	Dequeue(ctx context.Context) (event.Event, bool)
}

// Enqueue blocks until ev is accepted or ctx is done, satisfying Enqueuer.
func (q *Queue) Enqueue(ctx context.Context, ev event.Event) error {
	select {
	case q.ch <- ev:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Dequeue blocks until an event is available, the channel is closed, or
// ctx is done, satisfying Dequeuer.
func (q *Queue) Dequeue(ctx context.Context) (event.Event, bool) {
	select {
	case ev, ok := <-q.ch:
		return ev, ok
	case <-ctx.Done():
		return event.Event{}, false
	}
}

// Len reports the number of events currently buffered, used by shutdown
// draining to decide when the queue is empty.
func (q *Queue) Len() int { return len(q.ch) }

// Close closes the underlying channel. Callers must ensure no further
// Enqueue calls occur afterwards.
func (q *Queue) Close() { close(q.ch) }

// Drain consumes and discards any events still buffered and returns how
// many it discarded. pipeline.Shutdown does not call it.
func (q *Queue) Drain() int {
	n := 0
	for {
		select {
		case _, ok := <-q.ch:
			if !ok {
				return n
			}
			n++
		default:
			return n
		}
	}
}
