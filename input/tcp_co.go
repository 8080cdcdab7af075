package input

import (
	"context"
	"crypto/tls"
	"net"
	"sync"
	"time"

	"github.com/jasonmartens/flowgger/config"
	"github.com/jasonmartens/flowgger/decoders"
	"github.com/jasonmartens/flowgger/log"
	"github.com/jasonmartens/flowgger/queue"
)

// TCPCoPool is the tcp_co/tls_co variant of §4.E: connection handling is
// identical to TCP, but a fixed-size pool of worker goroutines serves an
// unbounded number of connections instead of one goroutine per connection.
// Go's goroutines are already M:N scheduled onto OS threads, so "cooperative"
// here means bounded concurrency rather than a literal user-space scheduler;
// the accept loop hands connections to whichever pool worker is free next.
type TCPCoPool struct {
	BindAddress  string
	Timeout      time.Duration
	Decoder      decoders.Decoder
	FramerKind   string
	MaxFrameSize int
	Threads      int
	Logger       *log.Logger

	tlsConfig *tls.Config

	ln     net.Listener
	wg     sync.WaitGroup
	conns  chan net.Conn
	cancel context.CancelFunc
}

func NewTCPCoPool(bindAddress string, timeout time.Duration, dec decoders.Decoder, framerKind string, maxFrameSize, threads int, lg *log.Logger) *TCPCoPool {
	if threads <= 0 {
		threads = 4
	}
	return &TCPCoPool{BindAddress: bindAddress, Timeout: timeout, Decoder: dec, FramerKind: framerKind, MaxFrameSize: maxFrameSize, Threads: threads, Logger: lg}
}

func NewTLSCoPool(bindAddress string, timeout time.Duration, dec decoders.Decoder, framerKind string, maxFrameSize, threads int, tc config.TlsConfig, lg *log.Logger) (*TCPCoPool, error) {
	tlsCfg, err := tc.BuildTLSConfig()
	if err != nil {
		return nil, err
	}
	p := NewTCPCoPool(bindAddress, timeout, dec, framerKind, maxFrameSize, threads, lg)
	p.tlsConfig = tlsCfg
	return p, nil
}

func (p *TCPCoPool) Run(ctx context.Context, out queue.Enqueuer) error {
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	defer cancel()

	var ln net.Listener
	var err error
	if p.tlsConfig != nil {
		ln, err = tls.Listen("tcp", p.BindAddress, p.tlsConfig)
	} else {
		ln, err = net.Listen("tcp", p.BindAddress)
	}
	if err != nil {
		return err
	}
	p.ln = ln
	p.conns = make(chan net.Conn, p.Threads)

	for i := 0; i < p.Threads; i++ {
		p.wg.Add(1)
		go p.worker(ctx, out)
	}

	go func() {
		<-ctx.Done()
		ln.Close()
		close(p.conns)
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				p.wg.Wait()
				return nil
			default:
				p.Logger.Warnf("input/tcp_co: accept error: %v", err)
				return err
			}
		}
		select {
		case p.conns <- conn:
		case <-ctx.Done():
			conn.Close()
		}
	}
}

// worker is the fixed-size pool slot: it serves connections from the
// shared channel one at a time, for as long as the pipeline runs.
func (p *TCPCoPool) worker(ctx context.Context, out queue.Enqueuer) {
	defer p.wg.Done()
	for conn := range p.conns {
		p.handleConn(ctx, conn, out)
	}
}

func (p *TCPCoPool) handleConn(ctx context.Context, conn net.Conn, out queue.Enqueuer) {
	defer conn.Close()

	framer, err := NewReadFramer(p.FramerKind, &deadlineReader{conn: conn, timeout: p.Timeout}, p.MaxFrameSize)
	if err != nil {
		p.Logger.Errorf("input/tcp_co: %v", err)
		return
	}

	for {
		frame, err := framer.Next()
		if err != nil {
			if err != errIdleTimeout {
				p.Logger.Debugf("input/tcp_co: connection from %s ended: %v", conn.RemoteAddr(), err)
			}
			return
		}
		decodeAndEnqueue(ctx, p.Logger, p.Decoder, out, frame)
		select {
		case <-ctx.Done():
			return
		default:
		}
	}
}

func (p *TCPCoPool) Shutdown(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}
	if p.ln != nil {
		p.ln.Close()
	}
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
