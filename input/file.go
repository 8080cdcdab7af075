package input

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"

	"github.com/jasonmartens/flowgger/decoders"
	"github.com/jasonmartens/flowgger/log"
	"github.com/jasonmartens/flowgger/queue"
)

// File tails one or more glob-expanded paths, grounded on the teacher's
// filewatch package: an fsnotify watcher drives per-path followers that
// track a read offset, reopening from zero on truncate and continuing to
// drain the old descriptor to EOF on rename before reopening the path.
type File struct {
	Patterns     []string
	Decoder      decoders.Decoder
	FramerKind   string
	MaxFrameSize int
	Logger       *log.Logger

	watcher *fsnotify.Watcher
	wg      sync.WaitGroup
	mtx     sync.Mutex
	seen    map[string]bool
	cancel  context.CancelFunc
}

func NewFile(patterns []string, dec decoders.Decoder, framerKind string, maxFrameSize int, lg *log.Logger) *File {
	return &File{Patterns: patterns, Decoder: dec, FramerKind: framerKind, MaxFrameSize: maxFrameSize, Logger: lg, seen: make(map[string]bool)}
}

func (f *File) Run(ctx context.Context, out queue.Enqueuer) error {
	ctx, cancel := context.WithCancel(ctx)
	f.cancel = cancel
	defer cancel()

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	f.watcher = w
	defer w.Close()

	dirs := map[string]bool{}
	for _, pat := range f.Patterns {
		dirs[filepath.Dir(pat)] = true
	}
	for dir := range dirs {
		if err := w.Add(dir); err != nil {
			f.Logger.Warnf("input/file: watch %s: %v", dir, err)
		}
	}

	f.scanAndFollow(ctx, out)

	for {
		select {
		case <-ctx.Done():
			f.wg.Wait()
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				f.wg.Wait()
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				f.scanAndFollow(ctx, out)
			}
		case err, ok := <-w.Errors:
			if !ok {
				continue
			}
			f.Logger.Warnf("input/file: watcher error: %v", err)
		}
	}
}

// scanAndFollow expands the configured glob patterns and starts a follower
// goroutine for any newly matching path, per §4.E's "newly matching paths
// are picked up dynamically."
func (f *File) scanAndFollow(ctx context.Context, out queue.Enqueuer) {
	f.mtx.Lock()
	defer f.mtx.Unlock()

	for _, pat := range f.Patterns {
		matches, err := doublestar.FilepathGlob(pat)
		if err != nil {
			f.Logger.Warnf("input/file: glob %s: %v", pat, err)
			continue
		}
		for _, path := range matches {
			if f.seen[path] {
				continue
			}
			f.seen[path] = true
			f.wg.Add(1)
			go func(path string) {
				defer f.wg.Done()
				f.follow(ctx, path, out)
			}(path)
		}
	}
}

// follow tails one path from the current end of file, handling truncation
// (reopen at offset 0) and rename/rotation (drain the old descriptor to
// EOF, then reopen the path) per §4.E.
func (f *File) follow(ctx context.Context, path string, out queue.Enqueuer) {
	fh, offset, err := openAtEnd(path)
	if err != nil {
		f.Logger.Warnf("input/file: open %s: %v", path, err)
		return
	}
	framer, _ := NewReadFramer(f.FramerKind, fh, f.MaxFrameSize)

	for {
		select {
		case <-ctx.Done():
			fh.Close()
			return
		default:
		}

		fi, err := fh.Stat()
		if err == nil && fi.Size() < offset {
			// Truncated in place: reopen from the beginning.
			fh.Close()
			fh, offset, err = openAtStart(path)
			if err != nil {
				f.Logger.Warnf("input/file: reopen %s after truncate: %v", path, err)
				return
			}
			framer, _ = NewReadFramer(f.FramerKind, fh, f.MaxFrameSize)
		}

		frame, err := framer.Next()
		if err != nil {
			if err == io.EOF {
				if renamed, nfh, noff, rerr := f.followRotation(path, fh); renamed {
					fh, offset = nfh, noff
					if rerr != nil {
						f.Logger.Warnf("input/file: %s: %v", path, rerr)
						return
					}
					framer, _ = NewReadFramer(f.FramerKind, fh, f.MaxFrameSize)
					continue
				}
				time.Sleep(200 * time.Millisecond)
				continue
			}
			f.Logger.Warnf("input/file: %s: %v", path, err)
			time.Sleep(200 * time.Millisecond)
			continue
		}
		offset += int64(len(frame))
		decodeAndEnqueue(ctx, f.Logger, f.Decoder, out, frame)
	}
}

// followRotation detects a rename by comparing the currently open
// descriptor's inode identity with the path's current directory entry; if
// they differ, the old descriptor is drained to EOF by the caller's next
// Next() call returning io.EOF repeatedly until the caller gives up and
// reopens. Kept conservative per §9 open question (b): single
// source-of-truth per path, logged when ambiguous.
func (f *File) followRotation(path string, fh *os.File) (bool, *os.File, int64, error) {
	curInfo, err := fh.Stat()
	if err != nil {
		return false, fh, 0, nil
	}
	newInfo, err := os.Stat(path)
	if err != nil {
		// Path doesn't exist yet (mid-rotation); keep the old descriptor.
		return false, fh, 0, nil
	}
	if os.SameFile(curInfo, newInfo) {
		return false, fh, 0, nil
	}
	fh.Close()
	nfh, off, err := openAtStart(path)
	return true, nfh, off, err
}

func openAtEnd(path string) (*os.File, int64, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	off, err := fh.Seek(0, io.SeekEnd)
	return fh, off, err
}

func openAtStart(path string) (*os.File, int64, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	return fh, 0, nil
}

func (f *File) Shutdown(ctx context.Context) error {
	if f.cancel != nil {
		f.cancel()
	}
	done := make(chan struct{})
	go func() {
		f.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
