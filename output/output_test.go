package output

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jasonmartens/flowgger/config"
	"github.com/jasonmartens/flowgger/encoders"
	"github.com/jasonmartens/flowgger/event"
	"github.com/jasonmartens/flowgger/framing"
	"github.com/jasonmartens/flowgger/log"
	"github.com/jasonmartens/flowgger/queue"
)

func testEvent() event.Event {
	ev := event.New(1480605816, "host01")
	ev.Msg = "hello world"
	return ev
}

func TestStdoutRunFlushesUntilQueueClosed(t *testing.T) {
	enc := encoders.NewGELFEncoder(nil)
	s := NewStdout(enc, framing.LineWriteFramer{}, log.NewDiscardLogger())

	q := queue.New(1)
	require.NoError(t, q.Enqueue(context.Background(), testEvent()))
	q.Close()

	require.NoError(t, s.Run(context.Background(), q))
	require.NoError(t, s.Shutdown(context.Background()))
}

func TestDebugCountsDeliveredEvents(t *testing.T) {
	enc := encoders.NewGELFEncoder(nil)
	d := NewDebug(enc, framing.LineWriteFramer{}, log.NewDiscardLogger())

	q := queue.New(2)
	require.NoError(t, q.Enqueue(context.Background(), testEvent()))
	require.NoError(t, q.Enqueue(context.Background(), testEvent()))
	q.Close()

	require.NoError(t, d.Run(context.Background(), q))
	require.Equal(t, uint64(2), d.count)
	require.NoError(t, d.Shutdown(context.Background()))
}

func TestFileRotatesBySize(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.log")
	enc := encoders.NewGELFEncoder(nil)
	f := NewFile(path, 0, 40, 2, "", enc, framing.LineWriteFramer{}, log.NewDiscardLogger())

	q := queue.New(8)
	for i := 0; i < 5; i++ {
		require.NoError(t, q.Enqueue(context.Background(), testEvent()))
	}
	q.Close()

	require.NoError(t, f.Run(context.Background(), q))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Greater(t, len(entries), 1)
}

func TestFileSeedsWrittenFromExistingSize(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.log")
	require.NoError(t, os.WriteFile(path, []byte(strings.Repeat("x", 100)), 0640))

	enc := encoders.NewGELFEncoder(nil)
	f := NewFile(path, 0, 1000, 2, "", enc, framing.LineWriteFramer{}, log.NewDiscardLogger())
	require.NoError(t, f.open())
	require.Equal(t, int64(100), f.written)
	require.NoError(t, f.Shutdown(context.Background()))
}

func TestStrftimeFormatsKnownDirectives(t *testing.T) {
	got := strftime("%Y%m%dT%H%M%SZ", time.Date(2026, 7, 30, 1, 2, 3, 0, time.UTC))
	require.Equal(t, "20260730T010203Z", got)
}

func TestTCPWritesToListener(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	received := make(chan []byte, 4)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		buf := make([]byte, 4096)
		for {
			n, err := conn.Read(buf)
			if n > 0 {
				got := make([]byte, n)
				copy(got, buf[:n])
				received <- got
			}
			if err != nil {
				return
			}
		}
	}()

	enc := encoders.NewGELFEncoder(nil)
	tr := NewTCP([]string{ln.Addr().String()}, 10*time.Millisecond, 100*time.Millisecond, time.Hour, 0, enc, framing.LineWriteFramer{}, log.NewDiscardLogger())

	q := queue.New(1)
	require.NoError(t, q.Enqueue(context.Background(), testEvent()))
	q.Close()

	require.NoError(t, tr.Run(context.Background(), q))

	select {
	case payload := <-received:
		require.Contains(t, string(payload), "host01")
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for tcp output to deliver payload")
	}
}

func TestTCPAsyncWritesToListener(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	received := make(chan []byte, 4)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		buf := make([]byte, 4096)
		for {
			n, err := conn.Read(buf)
			if n > 0 {
				got := make([]byte, n)
				copy(got, buf[:n])
				received <- got
			}
			if err != nil {
				return
			}
		}
	}()

	enc := encoders.NewGELFEncoder(nil)
	tr := NewTCP([]string{ln.Addr().String()}, 10*time.Millisecond, 100*time.Millisecond, time.Hour, 0, enc, framing.LineWriteFramer{}, log.NewDiscardLogger())
	tr.async = true

	q := queue.New(1)
	require.NoError(t, q.Enqueue(context.Background(), testEvent()))
	q.Close()

	require.NoError(t, tr.Run(context.Background(), q))

	select {
	case payload := <-received:
		require.Contains(t, string(payload), "host01")
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for async tcp output to deliver payload")
	}
}

func TestTCPMarkFailureAppliesExponentialBackoff(t *testing.T) {
	tr := NewTCP([]string{"127.0.0.1:1"}, 10*time.Millisecond, 40*time.Millisecond, time.Hour, 0, nil, nil, log.NewDiscardLogger())
	ep := tr.endpoints[0]

	tr.markFailure(ep, context.DeadlineExceeded)
	require.Equal(t, 10*time.Millisecond, ep.delay)

	tr.markFailure(ep, context.DeadlineExceeded)
	require.Equal(t, 20*time.Millisecond, ep.delay)

	tr.markFailure(ep, context.DeadlineExceeded)
	require.Equal(t, 40*time.Millisecond, ep.delay)

	tr.markFailure(ep, context.DeadlineExceeded)
	require.Equal(t, 40*time.Millisecond, ep.delay, "delay must cap at recoveryDelayMax")
}

func TestBuildReturnsErrorForUnknownOutputType(t *testing.T) {
	_, err := Build(config.OutputConfig{Type: "bogus"}, log.NewDiscardLogger())
	require.Error(t, err)
}
