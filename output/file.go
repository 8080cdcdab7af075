package output

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dchest/safefile"
	"github.com/gosimple/slug"

	"github.com/jasonmartens/flowgger/encoders"
	"github.com/jasonmartens/flowgger/framing"
	"github.com/jasonmartens/flowgger/log"
	"github.com/jasonmartens/flowgger/queue"
)

// File appends encoded, framed events to a path with optional buffering
// and size- or time-based rotation, per §4.G. Rotation state belongs
// solely to this output's writer goroutine, per §5's ownership rule.
type File struct {
	Path               string
	BufferSize         int
	RotationSize       int64
	RotationMaxfiles   int
	RotationTimeformat string
	Encoder            encoders.Encoder
	Framer             framing.WriteFramer
	Logger             *log.Logger

	mtx        sync.Mutex
	fh         *os.File
	w          *bufio.Writer
	written    int64
	timeBucket string
}

func NewFile(path string, bufferSize int, rotationSize int64, rotationMaxfiles int, rotationTimeformat string, enc encoders.Encoder, framer framing.WriteFramer, lg *log.Logger) *File {
	if bufferSize <= 0 {
		bufferSize = 4096
	}
	return &File{
		Path: path, BufferSize: bufferSize, RotationSize: rotationSize,
		RotationMaxfiles: rotationMaxfiles, RotationTimeformat: rotationTimeformat,
		Encoder: enc, Framer: framer, Logger: lg,
	}
}

func (f *File) Run(ctx context.Context, in queue.Dequeuer) error {
	if err := f.open(); err != nil {
		return fmt.Errorf("output/file: %w", err)
	}

	for {
		ev, ok := in.Dequeue(ctx)
		if !ok {
			return f.Shutdown(context.Background())
		}
		payload, err := f.Encoder.Encode(ev)
		if err != nil {
			f.Logger.Warnf("output/file: encode error: %v", err)
			continue
		}
		framed := f.Framer.Frame(payload)

		f.mtx.Lock()
		if f.RotationSize > 0 && f.written+int64(len(framed)) > f.RotationSize {
			if err := f.rotateBySize(); err != nil {
				f.Logger.Errorf("output/file: rotate: %v", err)
			}
		} else if f.RotationTimeformat != "" {
			bucket := strftime(f.RotationTimeformat, time.Now().UTC())
			if f.timeBucket != "" && bucket != f.timeBucket {
				if err := f.rotateByTime(bucket); err != nil {
					f.Logger.Errorf("output/file: rotate: %v", err)
				}
			}
			f.timeBucket = bucket
		}
		n, err := f.w.Write(framed)
		if err != nil {
			f.Logger.Errorf("output/file: write error: %v", err)
		} else {
			f.written += int64(n)
		}
		f.w.Flush()
		f.mtx.Unlock()
	}
}

func (f *File) open() error {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	fh, err := os.OpenFile(f.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0640)
	if err != nil {
		return err
	}
	fi, err := fh.Stat()
	if err != nil {
		fh.Close()
		return err
	}
	f.fh = fh
	f.w = bufio.NewWriterSize(fh, f.BufferSize)
	f.written = fi.Size()
	if f.RotationTimeformat != "" {
		f.timeBucket = strftime(f.RotationTimeformat, time.Now().UTC())
	}
	return nil
}

// rotateBySize renames the current file to <path>.<seq> and opens a fresh
// one, evicting the oldest retained file beyond RotationMaxfiles.
func (f *File) rotateBySize() error {
	f.w.Flush()
	f.fh.Close()

	seq := nextSequence(f.Path)
	rotated := fmt.Sprintf("%s.%d", f.Path, seq)
	if err := os.Rename(f.Path, rotated); err != nil {
		return err
	}
	f.evictOldSequences()

	fh, err := os.OpenFile(f.Path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0640)
	if err != nil {
		return err
	}
	f.fh = fh
	f.w = bufio.NewWriterSize(fh, f.BufferSize)
	f.written = 0
	return nil
}

// rotateByTime closes the current file and opens a new one whose name
// carries the computed timestamp bucket (passed through slug.Make). safefile
// atomically creates the new file empty; events are then appended to it
// directly at its final name.
func (f *File) rotateByTime(bucket string) error {
	f.w.Flush()
	f.fh.Close()

	safeBucket := slug.Make(bucket)
	newPath := fmt.Sprintf("%s.%s", f.Path, safeBucket)

	sf, err := safefile.Create(newPath, 0640)
	if err != nil {
		return err
	}
	if err := sf.Close(); err != nil {
		return err
	}

	fh, err := os.OpenFile(newPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0640)
	if err != nil {
		return err
	}
	f.fh = fh
	f.w = bufio.NewWriterSize(fh, f.BufferSize)
	f.written = 0
	return nil
}

func nextSequence(path string) int {
	dir := filepath.Dir(path)
	base := filepath.Base(path)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 1
	}
	max := 0
	prefix := base + "."
	for _, e := range entries {
		name := e.Name()
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		if n, err := strconv.Atoi(strings.TrimPrefix(name, prefix)); err == nil && n > max {
			max = n
		}
	}
	return max + 1
}

// evictOldSequences removes the oldest rotated files beyond RotationMaxfiles.
func (f *File) evictOldSequences() {
	if f.RotationMaxfiles <= 0 {
		return
	}
	dir := filepath.Dir(f.Path)
	base := filepath.Base(f.Path)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return
	}
	prefix := base + "."
	var seqs []int
	for _, e := range entries {
		name := e.Name()
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		if n, err := strconv.Atoi(strings.TrimPrefix(name, prefix)); err == nil {
			seqs = append(seqs, n)
		}
	}
	sort.Ints(seqs)
	for len(seqs) > f.RotationMaxfiles {
		os.Remove(filepath.Join(dir, fmt.Sprintf("%s.%d", base, seqs[0])))
		seqs = seqs[1:]
	}
}

func (f *File) Shutdown(ctx context.Context) error {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	if f.w != nil {
		f.w.Flush()
	}
	if f.fh != nil {
		return f.fh.Close()
	}
	return nil
}

// strftime supports the small subset of strftime directives spec.md §4.G
// names (`%Y%m%dT%H%M%SZ`); anything else passes through literally.
func strftime(format string, t time.Time) string {
	var b strings.Builder
	for i := 0; i < len(format); i++ {
		if format[i] != '%' || i+1 >= len(format) {
			b.WriteByte(format[i])
			continue
		}
		i++
		switch format[i] {
		case 'Y':
			fmt.Fprintf(&b, "%04d", t.Year())
		case 'm':
			fmt.Fprintf(&b, "%02d", int(t.Month()))
		case 'd':
			fmt.Fprintf(&b, "%02d", t.Day())
		case 'H':
			fmt.Fprintf(&b, "%02d", t.Hour())
		case 'M':
			fmt.Fprintf(&b, "%02d", t.Minute())
		case 'S':
			fmt.Fprintf(&b, "%02d", t.Second())
		case 'Z':
			b.WriteString("Z")
		case '%':
			b.WriteByte('%')
		default:
			b.WriteByte('%')
			b.WriteByte(format[i])
		}
	}
	return b.String()
}
