// Package pipeline wires exactly one input and one output through a
// bounded queue, per §4.H, and supervises both with errgroup -- an
// upgrade over the teacher's sync.WaitGroup coordination in
// SimpleRelay/main.go that gives first-error propagation, an idiom also
// seen across the gravwell gwcli command trees.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jasonmartens/flowgger/config"
	"github.com/jasonmartens/flowgger/event"
	"github.com/jasonmartens/flowgger/input"
	"github.com/jasonmartens/flowgger/log"
	"github.com/jasonmartens/flowgger/output"
	"github.com/jasonmartens/flowgger/queue"
)

// drainDeadline bounds how long Shutdown waits for the queue to empty
// after the input has stopped producing, per §4.H.
const drainDeadline = 30 * time.Second

// Pipeline owns the single input, single output, and the queue between
// them for the lifetime of one process.
type Pipeline struct {
	in  input.Input
	out output.Output
	q   *queue.Queue
	lg  *log.Logger

	group  *errgroup.Group
	cancel context.CancelFunc
}

// New constructs the configured input and output and wires them to a
// freshly-built queue sized by cfg.Output.QueueSize.
func New(cfg *config.Config, schema event.Schema, lg *log.Logger) (*Pipeline, error) {
	in, err := input.Build(cfg.Input, schema, lg)
	if err != nil {
		return nil, fmt.Errorf("pipeline: build input: %w", err)
	}
	out, err := output.Build(cfg.Output, lg)
	if err != nil {
		return nil, fmt.Errorf("pipeline: build output: %w", err)
	}
	return &Pipeline{
		in:  in,
		out: out,
		q:   queue.New(cfg.Output.QueueSize),
		lg:  lg,
	}, nil
}

// Start launches the input and output goroutines. Either side's failure
// cancels the other via the shared errgroup context.
func (p *Pipeline) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	g, gctx := errgroup.WithContext(ctx)
	p.group = g

	g.Go(func() error {
		if err := p.in.Run(gctx, p.q); err != nil {
			p.lg.Errorf("pipeline: input exited: %v", err)
			return err
		}
		return nil
	})
	g.Go(func() error {
		if err := p.out.Run(gctx, p.q); err != nil {
			p.lg.Errorf("pipeline: output exited: %v", err)
			return err
		}
		return nil
	})
}

// Wait blocks until both the input and output goroutines have returned,
// propagating the first non-nil error either reports.
func (p *Pipeline) Wait() error {
	return p.group.Wait()
}

// Shutdown stops the input, drains whatever the queue still holds within
// drainDeadline, then closes the queue and waits for the output to
// finish flushing it, mirroring the teacher's close-inputs-then-wait
// shutdown order in main.go.
func (p *Pipeline) Shutdown(ctx context.Context) error {
	shutdownCtx, cancelShutdown := context.WithTimeout(ctx, drainDeadline)
	defer cancelShutdown()

	if err := p.in.Shutdown(shutdownCtx); err != nil {
		p.lg.Warnf("pipeline: input shutdown: %v", err)
	}

	drainCtx, cancelDrain := context.WithTimeout(ctx, drainDeadline)
	defer cancelDrain()
	p.waitForDrain(drainCtx)

	p.q.Close()

	if p.cancel != nil {
		defer p.cancel()
	}

	waitCtx, cancelWait := context.WithTimeout(ctx, drainDeadline)
	defer cancelWait()
	done := make(chan error, 1)
	go func() { done <- p.group.Wait() }()
	select {
	case err := <-done:
		return err
	case <-waitCtx.Done():
		return fmt.Errorf("pipeline: shutdown timed out waiting for output to drain")
	}
}

// waitForDrain polls the queue until it is empty or ctx expires, giving
// the output a chance to consume everything the input already enqueued
// before the queue channel is closed out from under it.
func (p *Pipeline) waitForDrain(ctx context.Context) {
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		if p.q.Len() == 0 {
			return
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			p.lg.Warnf("pipeline: drain deadline exceeded with %d events still queued", p.q.Len())
			return
		}
	}
}
