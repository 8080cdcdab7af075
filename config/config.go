// Package config loads and validates the flowgger TOML configuration,
// mirroring the teacher's size-ceiling-then-decode-then-Verify shape from
// ingest/config/loader.go.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// maxConfigSize bounds how much of a config file we'll ever read into
// memory, matching the teacher's MAX_CONFIG_SIZE sanity ceiling.
const maxConfigSize = 4 * 1024 * 1024

const (
	DefaultQueueSize  = 10000
	DefaultRecoveryDelayInit = 500
	DefaultRecoveryDelayMax  = 30000
	DefaultRecoveryProbeTime = 60000
	DefaultKafkaRetries     = 3
	DefaultKafkaCoalesce    = 1
	DefaultFileRotationMaxfiles = 10
	DefaultFileRotationTimeformat = "%Y%m%dT%H%M%SZ"
)

// TlsConfig is the shared TLS sub-object embedded by every TLS-capable
// input and output, per the "shared configuration sub-object" design note.
type TlsConfig struct {
	CertFile      string `toml:"cert_file"`
	KeyFile       string `toml:"key_file"`
	CAFile        string `toml:"ca_file"`
	VerifyPeer    bool   `toml:"verify_peer"`
	CipherList    []string `toml:"cipher_list"`
	Compatibility string `toml:"compatibility"` // modern|intermediate|old
}

// InputConfig holds the recognised keys for every input `type`; only the
// keys relevant to the selected type are consulted.
type InputConfig struct {
	Type string `toml:"type"`

	// file
	Paths         []string `toml:"paths"`
	FileThreads   int      `toml:"file_threads"`

	// udp / tcp / tls / tcp_co / tls_co
	BindAddress string `toml:"bind_address"`
	Timeout     int    `toml:"timeout"` // seconds
	TcpThreads  int    `toml:"tcp_threads"`
	TlsThreads  int    `toml:"tls_threads"`

	// redis
	RedisAddress string `toml:"redis_address"`
	RedisKey     string `toml:"redis_key"`
	RedisThreads int    `toml:"redis_threads"`

	// decoder/framer selection
	Format  string `toml:"format"`  // rfc5424|rfc3164|gelf|ltsv
	Framing string `toml:"framing"` // line|nul|syslog-octet-count|capnp
	MaxFrameSize int `toml:"max_frame_size"`

	TlsConfig
}

// OutputConfig holds the recognised keys for every output `type`.
type OutputConfig struct {
	Type string `toml:"type"`

	Format  string `toml:"format"`
	Framing string `toml:"framing"`

	QueueSize int `toml:"queuesize"`

	// file
	FilePath              string `toml:"file_path"`
	FileBufferSize        int    `toml:"file_buffer_size"`
	FileRotationSize      int64  `toml:"file_rotation_size"`
	FileRotationMaxfiles  int    `toml:"file_rotation_maxfiles"`
	FileRotationTimeformat string `toml:"file_rotation_timeformat"`

	// tcp / tls
	Endpoints           []string `toml:"endpoints"`
	TlsAsync            bool     `toml:"tls_async"`
	RecoveryDelayInit   int      `toml:"recovery_delay_init"`
	RecoveryDelayMax    int      `toml:"recovery_delay_max"`
	RecoveryProbeTime   int      `toml:"recovery_probe_time"`
	RateLimitBps        int64    `toml:"rate_limit_bps"`

	// kafka
	KafkaBrokers  []string `toml:"kafka_brokers"`
	KafkaTopic    string   `toml:"kafka_topic"`
	KafkaAcks     string   `toml:"kafka_acks"` // "0","1","all"
	KafkaCompression string `toml:"kafka_compression"` // none|gzip|snappy
	KafkaCoalesce int      `toml:"kafka_coalesce"`
	KafkaThreads  int      `toml:"kafka_threads"`
	KafkaRetries  int      `toml:"kafka_retries"`

	ExtraHeaders map[string]string `toml:"extra_headers"`

	TlsConfig
}

// Config is the top-level document: exactly one [input] table and one
// [output] table, per §4.H's "constructs exactly one input and one output."
type Config struct {
	LogLevel string `toml:"log_level"`
	LogFile  string `toml:"log_file"`

	Input  InputConfig  `toml:"input"`
	Output OutputConfig `toml:"output"`
}

// Load reads path (bounded by maxConfigSize), decodes it as TOML, logs
// unknown keys at warn via the supplied warn func, applies defaults, and
// runs Verify before returning.
func Load(path string, warn func(format string, args ...interface{})) (*Config, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("config: stat %s: %w", path, err)
	}
	if fi.Size() > maxConfigSize {
		return nil, fmt.Errorf("config: %s exceeds max config size of %d bytes", path, maxConfigSize)
	}

	var c Config
	md, err := toml.DecodeFile(path, &c)
	if err != nil {
		return nil, fmt.Errorf("config: decode %s: %w", path, err)
	}
	if warn != nil {
		for _, k := range md.Undecoded() {
			warn("config: unknown key %q in %s", k.String(), path)
		}
	}

	applyDefaults(&c)

	if err := c.Verify(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &c, nil
}

func applyDefaults(c *Config) {
	if c.Output.QueueSize == 0 {
		c.Output.QueueSize = DefaultQueueSize
	}
	if c.Output.RecoveryDelayInit == 0 {
		c.Output.RecoveryDelayInit = DefaultRecoveryDelayInit
	}
	if c.Output.RecoveryDelayMax == 0 {
		c.Output.RecoveryDelayMax = DefaultRecoveryDelayMax
	}
	if c.Output.RecoveryProbeTime == 0 {
		c.Output.RecoveryProbeTime = DefaultRecoveryProbeTime
	}
	if c.Output.KafkaRetries == 0 {
		c.Output.KafkaRetries = DefaultKafkaRetries
	}
	if c.Output.KafkaCoalesce == 0 {
		c.Output.KafkaCoalesce = DefaultKafkaCoalesce
	}
	if c.Output.FileRotationMaxfiles == 0 {
		c.Output.FileRotationMaxfiles = DefaultFileRotationMaxfiles
	}
	if c.Output.FileRotationTimeformat == "" {
		c.Output.FileRotationTimeformat = DefaultFileRotationTimeformat
	}
	if c.Input.FileThreads == 0 {
		c.Input.FileThreads = 1
	}
	if c.Input.TcpThreads == 0 {
		c.Input.TcpThreads = 4
	}
	if c.Input.TlsThreads == 0 {
		c.Input.TlsThreads = 4
	}
	if c.Input.RedisThreads == 0 {
		c.Input.RedisThreads = 1
	}
	if c.Output.KafkaThreads == 0 {
		c.Output.KafkaThreads = 1
	}
}
