// Package errs provides the NativeError kinds surfaced by the ingestion core.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies a NativeError for callers that need to branch on it
// without parsing the message (see spec §7).
type Kind int

const (
	KindIo Kind = iota
	KindConfiguration
	KindParseHiccup
	KindParseUnrecoverable
	KindIncomplete
	KindChannelError
	KindCancelled
	KindGrabber
)

func (k Kind) String() string {
	switch k {
	case KindIo:
		return "Io"
	case KindConfiguration:
		return "Configuration"
	case KindParseHiccup:
		return "Parse(hiccup)"
	case KindParseUnrecoverable:
		return "Parse(unrecoverable)"
	case KindIncomplete:
		return "Incomplete"
	case KindChannelError:
		return "ChannelError"
	case KindCancelled:
		return "Cancelled"
	case KindGrabber:
		return "Grabber"
	default:
		return "Unknown"
	}
}

// Severity mirrors the teacher's log-level style for notifications.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

// NativeError is the error type every package-level API surfaces.
type NativeError struct {
	Severity Severity
	Kind     Kind
	Message  string
	Wrapped  error
}

func New(kind Kind, msg string) *NativeError {
	return &NativeError{Severity: SeverityError, Kind: kind, Message: msg}
}

func Wrap(kind Kind, msg string, err error) *NativeError {
	return &NativeError{Severity: SeverityError, Kind: kind, Message: msg, Wrapped: err}
}

func (e *NativeError) Error() string {
	if e.Wrapped != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Wrapped)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *NativeError) Unwrap() error {
	return e.Wrapped
}

// Is lets callers match a Kind via errors.Is(err, errs.KindOf(errs.KindCancelled))
// by comparing against a sentinel built from the kind alone.
func (e *NativeError) Is(target error) bool {
	var other *NativeError
	if errors.As(target, &other) && other.Wrapped == nil && other.Message == "" {
		return e.Kind == other.Kind
	}
	return false
}

// KindOf is a convenience sentinel for errors.Is(err, errs.KindOf(errs.KindCancelled)).
func KindOf(k Kind) *NativeError {
	return &NativeError{Kind: k}
}

var (
	ErrChannelClosed = New(KindChannelError, "command channel closed")
	ErrCancelled     = New(KindCancelled, "operation cancelled")
)
