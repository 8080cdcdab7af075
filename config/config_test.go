package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "flowgger.toml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0644))
	return p
}

func TestLoadAppliesDefaultsAndVerifies(t *testing.T) {
	p := writeTemp(t, `
log_level = "info"

[input]
type = "tcp"
bind_address = "127.0.0.1:6514"
format = "rfc5424"
framing = "line"

[output]
type = "stdout"
format = "gelf"
framing = "line"
`)
	var warned []string
	c, err := Load(p, func(format string, args ...interface{}) {
		warned = append(warned, format)
	})
	require.NoError(t, err)
	require.Equal(t, DefaultQueueSize, c.Output.QueueSize)
	require.Equal(t, 4, c.Input.TcpThreads)
	require.Empty(t, warned)
}

func TestLoadWarnsOnUnknownKey(t *testing.T) {
	p := writeTemp(t, `
unexpected_top_level_key = "x"

[input]
type = "stdin"
format = "ltsv"
framing = "line"

[output]
type = "stdout"
format = "ltsv"
framing = "line"
`)
	var warned []string
	_, err := Load(p, func(format string, args ...interface{}) {
		warned = append(warned, format)
	})
	require.NoError(t, err)
	require.NotEmpty(t, warned)
}

func TestVerifyRejectsMissingInputType(t *testing.T) {
	c := &Config{Output: OutputConfig{Type: "stdout"}}
	require.ErrorIs(t, c.Verify(), ErrNoInputType)
}

func TestVerifyRejectsBufferExceedingRotation(t *testing.T) {
	c := &Config{
		Input:  InputConfig{Type: "stdin"},
		Output: OutputConfig{Type: "file", FilePath: "/tmp/out.log", FileBufferSize: 100, FileRotationSize: 50},
	}
	require.ErrorIs(t, c.Verify(), ErrBufferExceedsRotation)
}

func TestVerifyRejectsUnknownOutputType(t *testing.T) {
	c := &Config{Input: InputConfig{Type: "stdin"}, Output: OutputConfig{Type: "bogus"}}
	require.ErrorIs(t, c.Verify(), ErrUnknownType)
}
