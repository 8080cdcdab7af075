package framing

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLineFramerRoundTrip(t *testing.T) {
	wf := LineWriteFramer{}
	framed := wf.Frame([]byte("hello world"))
	require.Equal(t, "hello world\n", string(framed))

	rf := NewLineReadFramer(bytes.NewReader(framed), 0)
	frame, err := rf.Next()
	require.NoError(t, err)
	require.Equal(t, "hello world", string(frame))
}

func TestLineFramerOversize(t *testing.T) {
	rf := NewLineReadFramer(bytes.NewReader([]byte("toolong\nshort\n")), 5)
	_, err := rf.Next()
	require.ErrorIs(t, err, ErrFrameTooLarge)
	frame, err := rf.Next()
	require.NoError(t, err)
	require.Equal(t, "short", string(frame))
}

func TestOctetCountFramerScenario(t *testing.T) {
	rf := NewOctetCountReadFramer(bytes.NewReader([]byte("11 hello world")), 0)
	frame, err := rf.Next()
	require.NoError(t, err)
	require.Equal(t, "hello world", string(frame))
}

func TestOctetCountFramerTooLarge(t *testing.T) {
	rf := NewOctetCountReadFramer(bytes.NewReader([]byte("99999999999999999 x")), 1<<20)
	_, err := rf.Next()
	require.ErrorIs(t, err, ErrFrameTooLarge)
}

func TestOctetCountFramerInvalidPrefix(t *testing.T) {
	rf := NewOctetCountReadFramer(bytes.NewReader([]byte("abc hello")), 0)
	_, err := rf.Next()
	require.ErrorIs(t, err, ErrFrameInvalid)
}

func TestOctetCountRoundTrip(t *testing.T) {
	wf := OctetCountWriteFramer{}
	framed := wf.Frame([]byte("hello world"))
	rf := NewOctetCountReadFramer(bytes.NewReader(framed), 0)
	frame, err := rf.Next()
	require.NoError(t, err)
	require.Equal(t, "hello world", string(frame))
}

func TestNulFramerRoundTrip(t *testing.T) {
	wf := NulWriteFramer{}
	framed := wf.Frame([]byte("payload"))
	rf := NewNulReadFramer(bytes.NewReader(framed), 0)
	frame, err := rf.Next()
	require.NoError(t, err)
	require.Equal(t, "payload", string(frame))
}

func TestMultipleFramesSequential(t *testing.T) {
	rf := NewLineReadFramer(bytes.NewReader([]byte("a\nb\nc\n")), 0)
	var got []string
	for {
		f, err := rf.Next()
		if err == io.EOF {
			break
		}
		require.NoError(t, err)
		got = append(got, string(f))
	}
	require.Equal(t, []string{"a", "b", "c"}, got)
}
