package pipeline

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jasonmartens/flowgger/config"
	"github.com/jasonmartens/flowgger/log"
)

func freeUDPAddr(t *testing.T) string {
	t.Helper()
	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := conn.LocalAddr().String()
	require.NoError(t, conn.Close())
	return addr
}

func TestPipelineCarriesEventFromInputToOutput(t *testing.T) {
	addr := freeUDPAddr(t)

	cfg := &config.Config{
		Input: config.InputConfig{
			Type:        "udp",
			BindAddress: addr,
			Format:      "rfc5424",
		},
		Output: config.OutputConfig{
			Type:      "debug",
			QueueSize: 4,
		},
	}

	p, err := New(cfg, nil, log.NewDiscardLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	p.Start(ctx)

	conn, err := net.Dial("udp", addr)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool {
		_, err := conn.Write([]byte(`<34>1 2003-10-11T22:14:15.003Z mymachine su - ID47 - hello`))
		return err == nil
	}, time.Second, 10*time.Millisecond)

	time.Sleep(100 * time.Millisecond)

	err = p.Shutdown(context.Background())
	require.NoError(t, err)
}

func TestNewReturnsErrorForUnknownInputType(t *testing.T) {
	cfg := &config.Config{
		Input:  config.InputConfig{Type: "bogus"},
		Output: config.OutputConfig{Type: "stdout"},
	}
	_, err := New(cfg, nil, log.NewDiscardLogger())
	require.Error(t, err)
}

func TestNewReturnsErrorForUnknownOutputType(t *testing.T) {
	cfg := &config.Config{
		Input:  config.InputConfig{Type: "stdin"},
		Output: config.OutputConfig{Type: "bogus"},
	}
	_, err := New(cfg, nil, log.NewDiscardLogger())
	require.Error(t, err)
}
