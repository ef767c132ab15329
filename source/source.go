// Package source implements the ByteSource capability (spec.md §1, §4.1):
// a pull-based, cancel-safe supplier of bytes that a producer.Producer
// drives one Load call at a time. The shape mirrors bgpfix's
// pipe.Direction.Write contract (consume what you can, buffer the
// remainder) turned inside-out: here the source itself owns the growing
// buffer and the caller only ever sees CurrentSlice/Consume.
package source

import (
	"context"
	"errors"
	"io"
	"time"
)

// ReloadInfo reports what a successful Load call added to the source's
// buffer (spec.md §4.1: "Load grows the internal buffer").
type ReloadInfo struct {
	Loaded    int
	Skipped   int        // bytes the source itself discarded (e.g. pcap non-data frames)
	Timestamp *time.Time // per-chunk timestamp hint, e.g. a pcap frame's capture time
}

// ErrSourceClosed is returned by a following FileSource's Load when its
// file watcher is closed while Load waits for the file to grow.
var ErrSourceClosed = errors.New("source: closed")

// ErrNotWritable is returned by Income on a source with no SDE support.
var ErrNotWritable = errors.New("source: not writable")

// ByteSource is the single producer-facing capability every concrete
// source (file, pcap, socket, serial, process) implements.
//
// Load blocks until either more bytes are available, the underlying
// stream ends (io.EOF), or ctx is cancelled. It must be safe to call
// repeatedly after a transient error. CurrentSlice/Consume operate on
// the same buffer Load just grew; Consume(n) must be called with n in
// [0, len(CurrentSlice())] before the next Load.
type ByteSource interface {
	Load(ctx context.Context) (ReloadInfo, error)
	CurrentSlice() []byte
	Consume(n int)
	io.Closer
}

// SdeRequest is a Send-Data-Event request directed at a writable source
// (serial port, process stdin) while it is being consumed for reading
// (spec.md §4.1, grounded on original_source's producer SDE channel).
type SdeRequest struct {
	WriteText  string
	WriteBytes []byte
}

// SdeResponse reports how many bytes the source wrote.
type SdeResponse struct {
	Bytes int
}

// Writable is implemented by sources that accept SdeRequest while being
// read from. The producer checks for this via a type assertion.
type Writable interface {
	Income(ctx context.Context, req SdeRequest) (SdeResponse, error)
}

// buffer is the shared growing-slice bookkeeping every ByteSource
// implementation embeds: bytes already yielded to the caller are
// dropped from the front on Consume, the rest stays in place.
type buffer struct {
	data []byte
}

func (b *buffer) CurrentSlice() []byte { return b.data }

func (b *buffer) Consume(n int) {
	if n <= 0 {
		return
	}
	if n >= len(b.data) {
		b.data = b.data[:0]
		return
	}
	b.data = append(b.data[:0], b.data[n:]...)
}

func (b *buffer) append(p []byte) {
	b.data = append(b.data, p...)
}
