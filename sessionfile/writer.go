// Package sessionfile implements the append-only session file writer,
// its row/byte chunk index, and the column-aware exporter (spec.md
// §4.7).
package sessionfile

import (
	"bufio"
	"os"
	"sync"

	"github.com/esrlabs/chipmunk-core/internal/errs"
	"github.com/esrlabs/chipmunk-core/msgrec"
	"github.com/rs/zerolog"
)

// MinBufferSize is the smallest buffered-writer size the spec allows
// (spec.md §4.7: "buffered writer (>= 10 MiB buffer)").
const MinBufferSize = 10 * 1024 * 1024

// Writer is the single append-only sink every source's rendered
// messages are written through. Its methods lock an internal mutex, so
// concurrent Write calls from multiple goroutines are safe; each line
// is written whole.
type Writer struct {
	log *zerolog.Logger

	mu   sync.Mutex
	f    *os.File
	w    *bufio.Writer
	size int64

	index     *ChunkIndex
	bufSize   int
	chunkSize int

	// bySource counts bytes written per source_id, for statistics
	// (spec.md §4.7: "source_id used only for later statistics").
	bySource map[uint16]int64
}

// Option configures Open.
type Option func(*Writer)

// WithLogger attaches a logger; nil leaves the Writer silent
// (zerolog.Nop()), matching the teacher's Options.Logger convention.
func WithLogger(l *zerolog.Logger) Option {
	return func(w *Writer) {
		if l != nil {
			w.log = l
		}
	}
}

// WithBufferSize overrides the buffered-writer size; values below
// MinBufferSize are raised to it.
func WithBufferSize(n int) Option {
	return func(w *Writer) { w.bufSize = n }
}

// WithChunkSize sets the rows-per-chunk grouping used by the Writer's
// ChunkIndex (config.Config.ChunkSize, spec.md §3); <= 0 leaves the
// ChunkIndex default in place.
func WithChunkSize(n int) Option {
	return func(w *Writer) { w.chunkSize = n }
}

func Open(path string, opts ...Option) (*Writer, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return nil, errs.Wrap(errs.KindIo, "open session file", err)
	}
	nop := zerolog.Nop()
	w := &Writer{f: f, log: &nop, bySource: make(map[uint16]int64)}
	for _, opt := range opts {
		opt(w)
	}
	if w.bufSize < MinBufferSize {
		w.bufSize = MinBufferSize
	}
	w.index = NewChunkIndex(w.chunkSize)
	w.w = bufio.NewWriterSize(f, w.bufSize)
	return w, nil
}

// Write renders m and appends it to the session file, attributing the
// written bytes to sourceID for statistics. The rendered line is
// followed by a single '\n'.
func (w *Writer) Write(sourceID uint16, m msgrec.Message, opt msgrec.RenderOptions) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	line := m.Render(nil, opt)
	line = append(line, '\n')
	n, err := w.w.Write(line)
	if err != nil {
		return n, errs.Wrap(errs.KindIo, "write session file", err)
	}
	w.size += int64(n)
	w.bySource[sourceID] += int64(n)
	return n, nil
}

// WriteText appends a pre-rendered line (e.g. SDE echo, or a raw text
// source's line) verbatim plus a trailing newline.
func (w *Writer) WriteText(sourceID uint16, text string) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	n, err := w.w.WriteString(text)
	if err == nil {
		var m int
		m, err = w.w.WriteString("\n")
		n += m
	}
	if err != nil {
		return n, errs.Wrap(errs.KindIo, "write session file", err)
	}
	w.size += int64(n)
	w.bySource[sourceID] += int64(n)
	return n, nil
}

// Flush pushes buffered bytes to the underlying file (spec.md §4.7:
// "Flush is explicit").
func (w *Writer) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.w.Flush(); err != nil {
		return errs.Wrap(errs.KindIo, "flush session file", err)
	}
	return nil
}

// Len returns the total bytes written so far (flushed or not).
func (w *Writer) Len() int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.size
}

// BytesBySource returns a snapshot of per-source byte counts.
func (w *Writer) BytesBySource() map[uint16]int64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make(map[uint16]int64, len(w.bySource))
	for k, v := range w.bySource {
		out[k] = v
	}
	return out
}

// UpdateSession flushes pending writes then rescans the file from the
// chunk index's current high-water mark for newline sentinels, growing
// the row<->byte chunk index to cover every newly appended row
// (spec.md §4.7). It returns the new total row count.
func (w *Writer) UpdateSession() (int, error) {
	if err := w.Flush(); err != nil {
		return 0, err
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	from := w.index.scannedUpTo
	if _, err := w.f.Seek(from, 0); err != nil {
		return 0, errs.Wrap(errs.KindIo, "seek session file", err)
	}
	return w.index.scan(w.f, from)
}

// Index exposes the chunk index for grab/export lookups.
func (w *Writer) Index() *ChunkIndex { return w.index }

// Close flushes and closes the underlying file.
func (w *Writer) Close() error {
	if err := w.Flush(); err != nil {
		return err
	}
	return w.f.Close()
}

// ReopenForRead reopens the file read-only for a grab/export reader,
// matching spec.md §5's "one writer, many readers via re-open for
// grabs".
func (w *Writer) ReopenForRead() (*os.File, error) {
	w.mu.Lock()
	path := w.f.Name()
	w.mu.Unlock()
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.Wrap(errs.KindIo, "reopen session file for read", err)
	}
	return f, nil
}
