package input

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/jasonmartens/flowgger/config"
	"github.com/jasonmartens/flowgger/decoders"
	"github.com/jasonmartens/flowgger/event"
	"github.com/jasonmartens/flowgger/log"
	"github.com/jasonmartens/flowgger/queue"
	"github.com/stretchr/testify/require"
)

func TestUDPDecodesOneDatagramPerFrame(t *testing.T) {
	lg := log.NewDiscardLogger()
	u := NewUDP("127.0.0.1:0", decoders.NewRFC5424Decoder(), lg)

	q := queue.New(4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Exercise UDP's decode-per-datagram logic directly rather than
	// binding a real socket: each datagram is one frame, as UDP.Run
	// hands ReadFrom's result straight to decodeAndEnqueue.
	msg := []byte(`<13>1 2016-12-01T15:43:36Z host01 appname 69 MSGID [origin@123 x="1"] hello`)
	decodeAndEnqueue(ctx, lg, u.Decoder, q, msg)

	ev, ok := q.Dequeue(ctx)
	require.True(t, ok)
	require.Equal(t, "host01", ev.Hostname)
	require.Equal(t, "hello", ev.Msg)
}

func TestTCPAcceptsAndDecodesLineFramedConnections(t *testing.T) {
	lg := log.NewDiscardLogger()
	tr := NewTCP("127.0.0.1:0", 2*time.Second, decoders.NewRFC5424Decoder(), "line", 0, lg)

	q := queue.New(4)
	ctx, cancel := context.WithCancel(context.Background())

	runErr := make(chan error, 1)
	go func() { runErr <- tr.Run(ctx, q) }()

	var addr net.Addr
	require.Eventually(t, func() bool {
		if tr.ln == nil {
			return false
		}
		addr = tr.ln.Addr()
		return true
	}, time.Second, 5*time.Millisecond)

	conn, err := net.Dial("tcp", addr.String())
	require.NoError(t, err)
	_, err = conn.Write([]byte("<13>1 2016-12-01T15:43:36Z host01 appname 69 MSGID [origin@123 x=\"1\"] hello\n"))
	require.NoError(t, err)

	ev, ok := q.Dequeue(context.Background())
	require.True(t, ok)
	require.Equal(t, "host01", ev.Hostname)

	conn.Close()
	cancel()
	require.NoError(t, tr.Shutdown(context.Background()))
	<-runErr
}

func TestBuildReturnsErrorForUnknownType(t *testing.T) {
	lg := log.NewDiscardLogger()
	_, err := Build(config.InputConfig{Type: "bogus"}, event.Schema{}, lg)
	require.Error(t, err)
}
