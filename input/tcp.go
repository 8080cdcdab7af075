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

// TCP accepts connections and spawns one worker per connection, grounded
// on the teacher's startSimpleListeners tp.TCP() branch and acceptor.
type TCP struct {
	BindAddress  string
	Timeout      time.Duration
	Decoder      decoders.Decoder
	FramerKind   string
	MaxFrameSize int
	Logger       *log.Logger

	tlsConfig *tls.Config // nil for plain TCP

	ln     net.Listener
	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// NewTCP builds a plain TCP input.
func NewTCP(bindAddress string, timeout time.Duration, dec decoders.Decoder, framerKind string, maxFrameSize int, lg *log.Logger) *TCP {
	return &TCP{BindAddress: bindAddress, Timeout: timeout, Decoder: dec, FramerKind: framerKind, MaxFrameSize: maxFrameSize, Logger: lg}
}

// NewTLS builds a TLS-terminated TCP input from the shared TlsConfig.
func NewTLS(bindAddress string, timeout time.Duration, dec decoders.Decoder, framerKind string, maxFrameSize int, tc config.TlsConfig, lg *log.Logger) (*TCP, error) {
	tlsCfg, err := tc.BuildTLSConfig()
	if err != nil {
		return nil, err
	}
	return &TCP{BindAddress: bindAddress, Timeout: timeout, Decoder: dec, FramerKind: framerKind, MaxFrameSize: maxFrameSize, Logger: lg, tlsConfig: tlsCfg}, nil
}

func (t *TCP) Run(ctx context.Context, out queue.Enqueuer) error {
	ctx, cancel := context.WithCancel(ctx)
	t.cancel = cancel
	defer cancel()

	var ln net.Listener
	var err error
	if t.tlsConfig != nil {
		ln, err = tls.Listen("tcp", t.BindAddress, t.tlsConfig)
	} else {
		ln, err = net.Listen("tcp", t.BindAddress)
	}
	if err != nil {
		return err
	}
	t.ln = ln

	go func() {
		<-ctx.Done()
		ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				t.wg.Wait()
				return nil
			default:
				t.Logger.Warnf("input/tcp: accept error: %v", err)
				return err
			}
		}
		t.wg.Add(1)
		go func() {
			defer t.wg.Done()
			t.handleConn(ctx, conn, out)
		}()
	}
}

func (t *TCP) handleConn(ctx context.Context, conn net.Conn, out queue.Enqueuer) {
	defer conn.Close()

	if ts, ok := conn.(interface{ Handshake() error }); ok && t.tlsConfig != nil {
		if err := ts.Handshake(); err != nil {
			t.Logger.Warnf("input/tcp: TLS handshake failed from %s: %v", conn.RemoteAddr(), err)
			return
		}
	}

	framer, err := NewReadFramer(t.FramerKind, &deadlineReader{conn: conn, timeout: t.Timeout}, t.MaxFrameSize)
	if err != nil {
		t.Logger.Errorf("input/tcp: %v", err)
		return
	}

	for {
		frame, err := framer.Next()
		if err != nil {
			if err != errIdleTimeout {
				t.Logger.Debugf("input/tcp: connection from %s ended: %v", conn.RemoteAddr(), err)
			}
			return
		}
		decodeAndEnqueue(ctx, t.Logger, t.Decoder, out, frame)
		select {
		case <-ctx.Done():
			return
		default:
		}
	}
}

func (t *TCP) Shutdown(ctx context.Context) error {
	if t.cancel != nil {
		t.cancel()
	}
	if t.ln != nil {
		t.ln.Close()
	}
	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
