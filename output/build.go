package output

import (
	"fmt"
	"time"

	"github.com/jasonmartens/flowgger/config"
	"github.com/jasonmartens/flowgger/encoders"
	"github.com/jasonmartens/flowgger/log"
)

// Build constructs the single configured output per cfg.Type, mirroring
// input.Build's shape.
func Build(cfg config.OutputConfig, lg *log.Logger) (Output, error) {
	extra := encoders.ExtraHeaders(cfg.ExtraHeaders)
	enc, err := NewEncoder(cfg.Format, extra)
	if err != nil {
		return nil, err
	}
	framer, err := NewWriteFramer(cfg.Framing)
	if err != nil {
		return nil, err
	}

	switch cfg.Type {
	case "stdout":
		return NewStdout(enc, framer, lg), nil
	case "debug":
		return NewDebug(enc, framer, lg), nil
	case "file":
		return NewFile(cfg.FilePath, cfg.FileBufferSize, cfg.FileRotationSize, cfg.FileRotationMaxfiles, cfg.FileRotationTimeformat, enc, framer, lg), nil
	case "tcp":
		delayInit := time.Duration(cfg.RecoveryDelayInit) * time.Millisecond
		delayMax := time.Duration(cfg.RecoveryDelayMax) * time.Millisecond
		probeTime := time.Duration(cfg.RecoveryProbeTime) * time.Millisecond
		return NewTCP(cfg.Endpoints, delayInit, delayMax, probeTime, cfg.RateLimitBps, enc, framer, lg), nil
	case "tls":
		delayInit := time.Duration(cfg.RecoveryDelayInit) * time.Millisecond
		delayMax := time.Duration(cfg.RecoveryDelayMax) * time.Millisecond
		probeTime := time.Duration(cfg.RecoveryProbeTime) * time.Millisecond
		return NewTLS(cfg.Endpoints, delayInit, delayMax, probeTime, cfg.RateLimitBps, cfg.TlsAsync, cfg.TlsConfig, enc, framer, lg)
	case "kafka":
		return NewKafka(cfg.KafkaBrokers, cfg.KafkaTopic, cfg.KafkaAcks, cfg.KafkaCompression, cfg.KafkaCoalesce, cfg.KafkaThreads, cfg.KafkaRetries, enc, framer, lg)
	}
	return nil, fmt.Errorf("output: unknown type %q", cfg.Type)
}
