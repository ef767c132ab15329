// Package producer implements the cancel-safe pull engine that turns a
// source.ByteSource plus a parser.Parser into a stream of StreamItem
// batches (spec.md §4.1). The shape is read_next_segment() from
// original_source's sources/src/producer/tests/cancel_safety.rs: a
// single async (here: context-aware) call that is safe to abandon via
// ctx cancellation at any blocking point without losing already-loaded
// bytes or silently double-delivering a parsed record.
package producer

import (
	"context"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/esrlabs/chipmunk-core/internal/errs"
	"github.com/esrlabs/chipmunk-core/msgrec"
	"github.com/esrlabs/chipmunk-core/parser"
	"github.com/esrlabs/chipmunk-core/source"
)

// InitialParseErrorLimit bounds how many consecutive parse hiccups a
// Producer tolerates before it has ever produced one successful record.
// Past that point a malformed byte source looks indistinguishable from
// garbage input and the Producer gives up rather than spin forever
// (spec.md §4.1).
const InitialParseErrorLimit = 16

// StreamItem is one unit handed back by ReadNextSegment: either a
// decoded record (Message/Attachment/Skipped) or the terminal Done
// marker. ConsumedBytes is the number of source bytes this item
// accounted for, mirroring the (usize, MessageStreamItem) pairs the
// original producer's read_next_segment returns.
type StreamItem struct {
	ConsumedBytes int
	Message       *msgrec.Message
	Attachment    *msgrec.Attachment
	Skipped       bool
	Done          bool
}

// SdeCall is one pending Send-Data-Event request, delivered to the
// Producer's read loop over the sde channel passed to New; Resp must be
// written to exactly once.
type SdeCall struct {
	Req  source.SdeRequest
	Resp chan<- SdeResult
}

// SdeResult is the outcome of serving an SdeCall.
type SdeResult struct {
	Response source.SdeResponse
	Err      error
}

// Producer pulls bytes from a single source.ByteSource, feeds them to a
// parser.Parser, and yields StreamItem batches. Not safe for concurrent
// use: exactly one goroutine should call ReadNextSegment at a time,
// matching the single-writer discipline the rest of the ingestion core
// (session.State) relies on.
type Producer struct {
	parser parser.Parser
	src    source.ByteSource
	sde    <-chan SdeCall

	buf       []byte
	tsHint    *time.Time // timestamp of the most recent Load, passed to Parse
	exhausted bool
	done      bool

	everSucceeded bool
	hiccups       int

	// loaderOnce launches the single long-lived goroutine that calls
	// p.src.Load; loaderStart/loaderDone hand load requests to it and
	// results back one at a time, so loadMore never spawns a fresh
	// goroutine per call (and never races two in-flight Load calls
	// against the source's shared buffer). loaderStop/closeOnce let
	// Close terminate that goroutine when the Producer is torn down
	// before the source itself ever reports a terminal error.
	loaderOnce  sync.Once
	loaderStart chan struct{}
	loaderDone  chan loadResult
	loaderStop  chan struct{}
	closeOnce   sync.Once
}

type loadResult struct {
	info source.ReloadInfo
	err  error
}

// New builds a Producer. sde may be nil when the source has no
// write-back channel wired up.
func New(p parser.Parser, src source.ByteSource, sde <-chan SdeCall) *Producer {
	return &Producer{parser: p, src: src, sde: sde, loaderStop: make(chan struct{})}
}

// Close stops the Producer's background loader goroutine, if one was
// ever started. It does not close the underlying source; the caller
// still owns that via source.ByteSource.Close.
func (p *Producer) Close() error {
	p.closeOnce.Do(func() { close(p.loaderStop) })
	return nil
}

// ReadNextSegment pulls the next batch of StreamItem. It returns (nil,
// nil) once the Done item has already been delivered by a prior call —
// the same "None after Done" contract original_source's cancel-safety
// tests assert (read_idx 3 -> Done, read_idx 4 -> None).
//
// ReadNextSegment is cancel-safe: ctx cancellation while waiting on
// source.Load or the sde channel returns ctx.Err() immediately, with no
// bytes consumed and no SdeCall served, so the caller may retry.
func (p *Producer) ReadNextSegment(ctx context.Context) ([]StreamItem, error) {
	if p.done {
		return nil, nil
	}

	for {
		item, produced, needMore, err := p.tryParseOne()
		if err != nil {
			return nil, err
		}
		if produced {
			return []StreamItem{item}, nil
		}

		if p.exhausted {
			p.done = true
			return []StreamItem{{Done: true}}, nil
		}

		if !needMore {
			// A Parse error dropped pe.Skip bytes but left the rest of
			// the buffer intact (spec.md §4.1: "drop one byte... Loop").
			// Retry parsing in place instead of blocking on new I/O.
			continue
		}

		if err := p.loadMore(ctx); err != nil {
			if errors.Is(err, io.EOF) {
				p.exhausted = true
				continue
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			return nil, errs.Wrap(errs.KindIo, "source load failed", err)
		}
	}
}

// tryParseOne attempts exactly one Parse call against the buffered
// bytes. produced is true only when a StreamItem was yielded.
// needMore is true only when the buffer is empty or the parser
// reported ErrIncomplete; a recoverable Parse error leaves needMore
// false so the caller retries against the remaining buffer instead of
// reloading. err is non-nil only for an unrecoverable condition (the
// parser signalling explicit EOF with nothing buffered is handled by
// the caller via p.exhausted, not here).
func (p *Producer) tryParseOne() (item StreamItem, produced, needMore bool, err error) {
	if len(p.buf) == 0 {
		return StreamItem{}, false, true, nil
	}

	rest, yield, perr := p.parser.Parse(p.buf, p.tsHint)
	consumed := len(p.buf) - len(rest)
	p.buf = rest

	switch {
	case perr == nil:
		p.everSucceeded = true
		p.hiccups = 0
		return StreamItem{
			ConsumedBytes: consumed,
			Message:       yield.Message,
			Attachment:    yield.Attachment,
			Skipped:       yield.Skipped,
		}, true, false, nil

	case errors.Is(perr, parser.ErrIncomplete):
		return StreamItem{}, false, true, nil

	case errors.Is(perr, parser.ErrEOF):
		p.exhausted = true
		return StreamItem{}, false, false, nil

	default:
		var pe *parser.ParseError
		if !errors.As(perr, &pe) {
			return StreamItem{}, false, false, errs.Wrap(errs.KindParseUnrecoverable, "parser returned an unrecognized error", perr)
		}
		p.hiccups++
		if !p.everSucceeded && p.hiccups > InitialParseErrorLimit {
			return StreamItem{}, false, false, errs.Wrap(errs.KindParseUnrecoverable, "too many parse errors before first successful record", perr)
		}
		// rest already reflects pe.Skip bytes dropped; retry immediately.
		return StreamItem{}, false, false, nil
	}
}

// startLoader launches the Producer's single long-lived loader
// goroutine. It runs once per Producer: each loaderStart signal drives
// exactly one p.src.Load call, whose result is delivered on loaderDone
// before the goroutine waits for the next signal. loaderStop lets
// Close end the goroutine even mid-wait; loaderDone is buffered by one
// so a Load result already in flight when Close happens is never lost
// to a blocked send.
func (p *Producer) startLoader() {
	p.loaderOnce.Do(func() {
		p.loaderStart = make(chan struct{})
		p.loaderDone = make(chan loadResult, 1)
		go func() {
			for {
				select {
				case <-p.loaderStop:
					return
				case <-p.loaderStart:
				}
				info, err := p.src.Load(context.Background())
				select {
				case p.loaderDone <- loadResult{info: info, err: err}:
				case <-p.loaderStop:
					return
				}
				if err != nil {
					return
				}
			}
		}()
		select {
		case p.loaderStart <- struct{}{}:
		case <-p.loaderStop:
		}
	})
}

// loadMore blocks, cancel-safely, until the source has more bytes, the
// source signals end of stream, or an SdeCall arrives and is served.
// The actual p.src.Load call runs on the Producer's one persistent
// loader goroutine (started lazily by startLoader): cancelling ctx
// here abandons only this call's wait on loaderDone, never the
// in-flight Load itself, so a second call can never race the loader
// goroutine against the source's shared buffer the way a fresh
// goroutine per call would. An already-cancelled ctx is checked before
// entering the select so a pre-cancelled call always observes ctx.Err,
// even if a load result happens to be ready at the same instant.
func (p *Producer) loadMore(ctx context.Context) error {
	p.startLoader()

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case call, ok := <-p.sde:
			if !ok {
				p.sde = nil
				continue
			}
			resp, err := p.serveSde(ctx, call)
			call.Resp <- SdeResult{Response: resp, Err: err}
			continue

		case r := <-p.loaderDone:
			if r.err != nil {
				return r.err
			}
			p.tsHint = r.info.Timestamp
			p.buf = append(p.buf, p.src.CurrentSlice()...)
			p.src.Consume(len(p.src.CurrentSlice()))
			// The buffer this Load produced is fully drained now;
			// only kick off the next one once that is true.
			select {
			case p.loaderStart <- struct{}{}:
			case <-p.loaderStop:
			}
			return nil
		}
	}
}

func (p *Producer) serveSde(ctx context.Context, call SdeCall) (source.SdeResponse, error) {
	w, ok := p.src.(source.Writable)
	if !ok {
		return source.SdeResponse{}, source.ErrNotWritable
	}
	return w.Income(ctx, call.Req)
}
