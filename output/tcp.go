package output

import (
	"context"
	"crypto/tls"
	"net"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/jasonmartens/flowgger/config"
	"github.com/jasonmartens/flowgger/encoders"
	"github.com/jasonmartens/flowgger/framing"
	"github.com/jasonmartens/flowgger/log"
	"github.com/jasonmartens/flowgger/queue"
)

// endpoint tracks one configured address's recovery state, grounded on
// the teacher's dead/live endpoint bookkeeping in ingestConnection.go and
// the connect-with-backoff loop of startSimpleListeners.
type endpoint struct {
	addr string

	mtx           sync.Mutex
	conn          net.Conn
	dead          bool
	nextRetry     time.Time
	delay         time.Duration
	sinceSuccess  time.Time
}

// TCP round-robins live endpoints, writing framed+encoded events and
// running each dead endpoint through the recovery state machine of §4.G/
// §8 scenario 6: exponential backoff from recoveryDelayInit, capped at
// recoveryDelayMax, reset after recoveryProbeTime of sustained success.
type TCP struct {
	Encoder  encoders.Encoder
	Framer   framing.WriteFramer
	Logger   *log.Logger

	endpoints []*endpoint
	rrIndex   int
	rrMtx     sync.Mutex

	recoveryDelayInit time.Duration
	recoveryDelayMax  time.Duration
	recoveryProbeTime time.Duration

	tlsConfig *tls.Config
	limiter   *rate.Limiter

	async   bool
	writeCh chan []byte
	wg      sync.WaitGroup
}

// asyncWriteBufferSize and asyncWriteWorkers bound the slack between the
// dequeue/encode path and the blocking network write when tls_async is set,
// grounded on the outstanding-buffered-channel shape of the teacher's
// ingest/entryReader.go ackChan (make(chan ackCommand, cfg.OutstandingEntryCount)).
const (
	asyncWriteBufferSize = 256
	asyncWriteWorkers    = 4
)

func NewTCP(addrs []string, recoveryDelayInit, recoveryDelayMax, recoveryProbeTime time.Duration, rateLimitBps int64, enc encoders.Encoder, framer framing.WriteFramer, lg *log.Logger) *TCP {
	t := &TCP{
		Encoder: enc, Framer: framer, Logger: lg,
		recoveryDelayInit: recoveryDelayInit, recoveryDelayMax: recoveryDelayMax, recoveryProbeTime: recoveryProbeTime,
	}
	for _, a := range addrs {
		t.endpoints = append(t.endpoints, &endpoint{addr: a})
	}
	if rateLimitBps > 0 {
		t.limiter = rate.NewLimiter(rate.Limit(rateLimitBps), int(rateLimitBps))
	}
	return t
}

// NewTLS builds a TLS output. async selects the §4.G "tls_async" variant:
// writes are relayed through a pool of asyncWriteWorkers goroutines reading
// off a buffered channel (startAsyncWorkers), so Run's dequeue/encode loop
// no longer blocks directly on the underlying round-robin network write -
// only once the buffer itself fills does back-pressure reach the queue,
// same as the teacher's writeRelayRoutine decoupling entry delivery from
// the blocking connection write in ingest/muxer.go.
func NewTLS(addrs []string, recoveryDelayInit, recoveryDelayMax, recoveryProbeTime time.Duration, rateLimitBps int64, async bool, tc config.TlsConfig, enc encoders.Encoder, framer framing.WriteFramer, lg *log.Logger) (*TCP, error) {
	tlsCfg, err := tc.BuildTLSConfig()
	if err != nil {
		return nil, err
	}
	t := NewTCP(addrs, recoveryDelayInit, recoveryDelayMax, recoveryProbeTime, rateLimitBps, enc, framer, lg)
	t.tlsConfig = tlsCfg
	t.async = async
	return t, nil
}

func (t *TCP) Run(ctx context.Context, in queue.Dequeuer) error {
	if t.async {
		t.startAsyncWorkers(ctx)
	}
	for {
		ev, ok := in.Dequeue(ctx)
		if !ok {
			if t.async {
				close(t.writeCh)
				t.wg.Wait()
			}
			return t.Shutdown(context.Background())
		}
		payload, err := t.Encoder.Encode(ev)
		if err != nil {
			t.Logger.Warnf("output/tcp: encode error: %v", err)
			continue
		}
		framed := t.Framer.Frame(payload)

		if t.limiter != nil {
			if err := t.limiter.WaitN(ctx, len(framed)); err != nil {
				return nil
			}
		}

		if t.async {
			select {
			case t.writeCh <- framed:
			case <-ctx.Done():
				return nil
			}
			continue
		}
		t.writeRoundRobin(ctx, framed)
	}
}

// startAsyncWorkers spins up the writer pool backing the tls_async variant.
// Each worker pulls framed payloads off writeCh and performs the same
// blocking round-robin write the synchronous path does inline; only the
// caller (Run) is relieved from blocking on it directly.
func (t *TCP) startAsyncWorkers(ctx context.Context) {
	t.writeCh = make(chan []byte, asyncWriteBufferSize)
	for i := 0; i < asyncWriteWorkers; i++ {
		t.wg.Add(1)
		go func() {
			defer t.wg.Done()
			for framed := range t.writeCh {
				t.writeRoundRobin(ctx, framed)
			}
		}()
	}
}

// writeRoundRobin blocks until some live endpoint accepts framed, per
// §4.G's "if all endpoints are dead, writers block on reconnect; the
// queue back-pressures producers."
func (t *TCP) writeRoundRobin(ctx context.Context, framed []byte) {
	for {
		ep := t.nextLiveEndpoint()
		if ep == nil {
			select {
			case <-time.After(50 * time.Millisecond):
			case <-ctx.Done():
				return
			}
			continue
		}
		if err := t.writeTo(ep, framed); err != nil {
			t.markFailure(ep, err)
			continue
		}
		t.markSuccess(ep)
		return
	}
}

func (t *TCP) nextLiveEndpoint() *endpoint {
	t.rrMtx.Lock()
	defer t.rrMtx.Unlock()
	n := len(t.endpoints)
	now := time.Now()
	for i := 0; i < n; i++ {
		idx := (t.rrIndex + i) % n
		ep := t.endpoints[idx]
		ep.mtx.Lock()
		ready := !ep.dead || !now.Before(ep.nextRetry)
		ep.mtx.Unlock()
		if ready {
			t.rrIndex = (idx + 1) % n
			return ep
		}
	}
	return nil
}

func (t *TCP) writeTo(ep *endpoint, framed []byte) error {
	ep.mtx.Lock()
	defer ep.mtx.Unlock()
	if ep.conn == nil {
		conn, err := t.dial(ep.addr)
		if err != nil {
			return err
		}
		ep.conn = conn
	}
	_, err := ep.conn.Write(framed)
	if err != nil {
		ep.conn.Close()
		ep.conn = nil
	}
	return err
}

func (t *TCP) dial(addr string) (net.Conn, error) {
	if t.tlsConfig != nil {
		return tls.Dial("tcp", addr, t.tlsConfig)
	}
	return net.DialTimeout("tcp", addr, 5*time.Second)
}

func (t *TCP) markFailure(ep *endpoint, err error) {
	ep.mtx.Lock()
	defer ep.mtx.Unlock()
	ep.dead = true
	if ep.delay == 0 {
		ep.delay = t.recoveryDelayInit
	} else {
		ep.delay *= 2
		if ep.delay > t.recoveryDelayMax {
			ep.delay = t.recoveryDelayMax
		}
	}
	ep.nextRetry = time.Now().Add(ep.delay)
	ep.sinceSuccess = time.Time{}
	t.Logger.Warnf("output/tcp: %s failed (%v), retry in %v", ep.addr, err, ep.delay)
}

func (t *TCP) markSuccess(ep *endpoint) {
	ep.mtx.Lock()
	defer ep.mtx.Unlock()
	wasDead := ep.dead
	ep.dead = false
	if ep.sinceSuccess.IsZero() {
		ep.sinceSuccess = time.Now()
	}
	if time.Since(ep.sinceSuccess) >= t.recoveryProbeTime {
		// Zero makes the next failure start again at recoveryDelayInit.
		ep.delay = 0
	}
	if wasDead {
		t.Logger.Infof("output/tcp: %s recovered", ep.addr)
	}
}

func (t *TCP) Shutdown(ctx context.Context) error {
	for _, ep := range t.endpoints {
		ep.mtx.Lock()
		if ep.conn != nil {
			ep.conn.Close()
		}
		ep.mtx.Unlock()
	}
	return nil
}
