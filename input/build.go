package input

import (
	"fmt"
	"time"

	"github.com/jasonmartens/flowgger/config"
	"github.com/jasonmartens/flowgger/decoders"
	"github.com/jasonmartens/flowgger/event"
	"github.com/jasonmartens/flowgger/log"
)

// Build constructs the configured input (exactly one, per §4.H) from cfg.
func Build(cfg config.InputConfig, schema event.Schema, lg *log.Logger) (Input, error) {
	return BuildWithClock(cfg, schema, nil, lg)
}

// BuildWithClock is Build with an injectable Clock for the RFC3164/GELF/LTSV
// "now" fallback; a nil clock means decoders.SystemClock, which is what
// Build passes.
func BuildWithClock(cfg config.InputConfig, schema event.Schema, clock decoders.Clock, lg *log.Logger) (Input, error) {
	if clock == nil {
		clock = decoders.SystemClock{}
	}
	dec, err := NewDecoder(cfg.Format, schema, clock)
	if err != nil {
		return nil, err
	}
	timeout := time.Duration(cfg.Timeout) * time.Second

	switch cfg.Type {
	case "stdin":
		return NewStdin(dec, cfg.Framing, cfg.MaxFrameSize, lg), nil
	case "file":
		return NewFile(cfg.Paths, dec, cfg.Framing, cfg.MaxFrameSize, lg), nil
	case "udp":
		return NewUDP(cfg.BindAddress, dec, lg), nil
	case "tcp":
		return NewTCP(cfg.BindAddress, timeout, dec, cfg.Framing, cfg.MaxFrameSize, lg), nil
	case "tls":
		return NewTLS(cfg.BindAddress, timeout, dec, cfg.Framing, cfg.MaxFrameSize, cfg.TlsConfig, lg)
	case "tcp_co":
		return NewTCPCoPool(cfg.BindAddress, timeout, dec, cfg.Framing, cfg.MaxFrameSize, cfg.TcpThreads, lg), nil
	case "tls_co":
		return NewTLSCoPool(cfg.BindAddress, timeout, dec, cfg.Framing, cfg.MaxFrameSize, cfg.TlsThreads, cfg.TlsConfig, lg)
	case "redis":
		return NewRedis(cfg.RedisAddress, cfg.RedisKey, cfg.RedisThreads, dec, lg), nil
	}
	return nil, fmt.Errorf("input: unknown type %q", cfg.Type)
}
