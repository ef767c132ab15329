// Package parser defines the Parser contract shared by the plain-text,
// DLT, SOME/IP and DLT-FT implementations (spec.md §4.4).
//
// A Parser is pure: it never owns a buffer of its own, never blocks, and
// never retains the slice it was given past the call. This mirrors the
// teacher's msg.Msg.FromBytes/Parse style (bgpfix/msg/msg.go) where a
// wire parser returns (consumed, error) against a caller-owned buffer.
package parser

import (
	"errors"
	"time"

	"github.com/esrlabs/chipmunk-core/msgrec"
)

// Yield is what a successful Parse call produced, if anything.
type Yield struct {
	// Message is set when the parser produced a record.
	Message *msgrec.Message

	// Attachment is set when an embedded scanner (DLT-FT) finalized a
	// file reconstruction alongside the message.
	Attachment *msgrec.Attachment

	// Skipped is true for an intentional non-error skip: the parser
	// consumed bytes (e.g. a filtered-out message) but produced nothing.
	Skipped bool
}

// Sentinel parse errors (spec.md §4.4, §7).
var (
	// ErrIncomplete means the buffer holds a partial record; the caller
	// must load more bytes and retry with the same (unconsumed) data.
	ErrIncomplete = errors.New("parser: incomplete")

	// ErrEOF means the parser recognizes the stream as exhausted
	// (e.g. an explicit end-of-stream marker). Distinct from the
	// ByteSource returning io.EOF-shaped "no more bytes".
	ErrEOF = errors.New("parser: eof")
)

// ParseError wraps a malformed-input error with the count of bytes the
// caller should still treat as consumed before retrying (spec.md §4.1:
// "drop one byte... heuristic").
type ParseError struct {
	Err     error
	Skip    int // bytes to drop before retrying; 0 means "drop one byte"
	Hiccup  bool
}

func (e *ParseError) Error() string { return e.Err.Error() }
func (e *ParseError) Unwrap() error { return e.Err }

// NewParseError builds a recoverable parse error that asks the producer
// to skip n bytes (at least 1) before retrying.
func NewParseError(err error, skip int) *ParseError {
	if skip < 1 {
		skip = 1
	}
	return &ParseError{Err: err, Skip: skip, Hiccup: true}
}

// Parser is implemented by text.Parser, dlt.Parser, someip.Parser and
// dltft.Parser (which wraps dlt.Parser with an FtScanner).
//
// Parse attempts to consume one record from the front of buf. tsHint, if
// non-nil, is a per-chunk timestamp supplied by the ByteSource (e.g. a
// pcap frame timestamp) the parser may use when the wire format carries
// no timestamp of its own.
//
// Results:
//   - (rest, yield, nil): a record (or intentional skip) was consumed;
//     rest is the remaining unconsumed slice.
//   - (buf, Yield{}, ErrIncomplete): not enough data; buf is returned
//     unchanged, the caller must load more and retry with the grown slice.
//   - (buf, Yield{}, ErrEOF): the parser declares the stream finished.
//   - (rest, Yield{}, *ParseError): malformed input; rest already
//     reflects ParseError.Skip bytes dropped from the front of buf.
type Parser interface {
	Parse(buf []byte, tsHint *time.Time) (rest []byte, yield Yield, err error)
}

// Func adapts a plain function to the Parser interface.
type Func func(buf []byte, tsHint *time.Time) ([]byte, Yield, error)

func (f Func) Parse(buf []byte, tsHint *time.Time) ([]byte, Yield, error) {
	return f(buf, tsHint)
}
