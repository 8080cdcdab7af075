package config

import (
	"errors"
	"fmt"
)

var (
	ErrNoInputType     = errors.New("config: input.type is required")
	ErrNoOutputType    = errors.New("config: output.type is required")
	ErrUnknownType     = errors.New("config: unknown type")
	ErrBufferExceedsRotation = errors.New("config: file_buffer_size must be <= file_rotation_size")
)

var validInputTypes = map[string]bool{
	"stdin": true, "file": true, "udp": true, "tcp": true, "tls": true,
	"tcp_co": true, "tls_co": true, "redis": true,
}

var validOutputTypes = map[string]bool{
	"stdout": true, "file": true, "tcp": true, "tls": true, "kafka": true, "debug": true,
}

// Verify surfaces every configuration error (§7) before the pipeline
// constructs anything, mirroring the teacher's verifyConfig pass.
func (c *Config) Verify() error {
	if c.Input.Type == "" {
		return ErrNoInputType
	}
	if !validInputTypes[c.Input.Type] {
		return fmt.Errorf("%w: input type %q", ErrUnknownType, c.Input.Type)
	}
	if c.Output.Type == "" {
		return ErrNoOutputType
	}
	if !validOutputTypes[c.Output.Type] {
		return fmt.Errorf("%w: output type %q", ErrUnknownType, c.Output.Type)
	}

	switch c.Input.Type {
	case "file":
		if len(c.Input.Paths) == 0 {
			return errors.New("config: input.paths is required for type=file")
		}
	case "udp", "tcp", "tls", "tcp_co", "tls_co":
		if c.Input.BindAddress == "" {
			return errors.New("config: input.bind_address is required for type=" + c.Input.Type)
		}
		if (c.Input.Type == "tls" || c.Input.Type == "tls_co") && (c.Input.CertFile == "" || c.Input.KeyFile == "") {
			return errors.New("config: input.cert_file and key_file are required for type=" + c.Input.Type)
		}
	case "redis":
		if c.Input.RedisAddress == "" || c.Input.RedisKey == "" {
			return errors.New("config: input.redis_address and redis_key are required for type=redis")
		}
	}

	switch c.Output.Type {
	case "file":
		if c.Output.FilePath == "" {
			return errors.New("config: output.file_path is required for type=file")
		}
		if c.Output.FileRotationSize > 0 && int64(c.Output.FileBufferSize) > c.Output.FileRotationSize {
			return ErrBufferExceedsRotation
		}
	case "tcp", "tls":
		if len(c.Output.Endpoints) == 0 {
			return errors.New("config: output.endpoints is required for type=" + c.Output.Type)
		}
		if c.Output.Type == "tls" && (c.Output.CertFile == "" && c.Output.CAFile == "") {
			return errors.New("config: output.cert_file or ca_file is required for type=tls")
		}
	case "kafka":
		if len(c.Output.KafkaBrokers) == 0 {
			return errors.New("config: output.kafka_brokers is required for type=kafka")
		}
		if c.Output.KafkaTopic == "" {
			return errors.New("config: output.kafka_topic is required for type=kafka")
		}
		switch c.Output.KafkaAcks {
		case "", "0", "1", "all":
		default:
			return fmt.Errorf("config: invalid output.kafka_acks %q", c.Output.KafkaAcks)
		}
		switch c.Output.KafkaCompression {
		case "", "none", "gzip", "snappy":
		default:
			return fmt.Errorf("config: invalid output.kafka_compression %q", c.Output.KafkaCompression)
		}
	}
	return nil
}
