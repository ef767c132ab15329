package source

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/edsrzf/mmap-go"
	"github.com/fsnotify/fsnotify"
)

// FileSource tails a growing file on disk (spec.md §1: "file ... growth
// detection"). Each Load call mmaps the newly-appended region instead of
// issuing a plain read, then copies it into the buffer and unmaps —
// mmap-go is used as a zero-copy window onto the appended bytes rather
// than held open across calls, since the file's length (and therefore a
// live mapping's validity) changes between calls.
type FileSource struct {
	buffer

	f       *os.File
	watcher *fsnotify.Watcher
	offset  int64
	follow  bool
}

// OpenFile opens path for reading. When follow is true, Load blocks on
// an fsnotify watch instead of returning io.EOF once the on-disk content
// is exhausted, the way `tail -f` does.
func OpenFile(path string, follow bool) (*FileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	s := &FileSource{f: f, follow: follow}
	if follow {
		w, err := fsnotify.NewWatcher()
		if err != nil {
			f.Close()
			return nil, err
		}
		if err := w.Add(path); err != nil {
			w.Close()
			f.Close()
			return nil, err
		}
		s.watcher = w
	}
	return s, nil
}

func (s *FileSource) Load(ctx context.Context) (ReloadInfo, error) {
	for {
		info, err := s.f.Stat()
		if err != nil {
			return ReloadInfo{}, err
		}
		size := info.Size()
		if size > s.offset {
			n, err := s.mapAppended(size)
			if err != nil {
				return ReloadInfo{}, err
			}
			return ReloadInfo{Loaded: n}, nil
		}
		if !s.follow {
			return ReloadInfo{}, io.EOF
		}
		if err := s.waitForGrowth(ctx); err != nil {
			return ReloadInfo{}, err
		}
	}
}

func (s *FileSource) mapAppended(newSize int64) (int, error) {
	// mmap offsets must be page-aligned: map from the page boundary at or
	// below s.offset and skip the bytes before s.offset.
	lead := s.offset % int64(os.Getpagesize())
	m, err := mmap.MapRegion(s.f, int(newSize-s.offset+lead), mmap.RDONLY, 0, s.offset-lead)
	if err != nil {
		return 0, fmt.Errorf("source: mmap appended region: %w", err)
	}
	defer m.Unmap()
	s.append(m[lead:])
	n := len(m) - int(lead)
	s.offset = newSize
	return n, nil
}

func (s *FileSource) waitForGrowth(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case _, ok := <-s.watcher.Events:
		if !ok {
			return ErrSourceClosed
		}
		return nil
	case err, ok := <-s.watcher.Errors:
		if !ok {
			return ErrSourceClosed
		}
		return err
	}
}

func (s *FileSource) Close() error {
	if s.watcher != nil {
		s.watcher.Close()
	}
	return s.f.Close()
}
