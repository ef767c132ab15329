// Package msgrec defines the Message value-type produced by every parser
// in package parser, plus the Attachment reconstructed from DLT
// File-Transfer sequences (see spec.md §3).
package msgrec

import "time"

// Category is the top-level DLT message class.
type Category byte

const (
	CategoryLog Category = iota
	CategoryTrace
	CategoryNetwork
	CategoryControl
)

//go:generate go run github.com/dmarkham/enumer -type Category -trimprefix Category
func (c Category) String() string {
	switch c {
	case CategoryLog:
		return "LOG"
	case CategoryTrace:
		return "TRACE"
	case CategoryNetwork:
		return "NW_TRACE"
	case CategoryControl:
		return "CONTROL"
	default:
		return "UNKNOWN"
	}
}

// LogLevel is the DLT sub-level for CategoryLog messages.
type LogLevel byte

const (
	LogFatal LogLevel = iota + 1
	LogError
	LogWarn
	LogInfo
	LogDebug
	LogVerbose
)

func (l LogLevel) String() string {
	switch l {
	case LogFatal:
		return "FATAL"
	case LogError:
		return "ERROR"
	case LogWarn:
		return "WARN"
	case LogInfo:
		return "INFO"
	case LogDebug:
		return "DEBUG"
	case LogVerbose:
		return "VERBOSE"
	default:
		return "UNKNOWN"
	}
}

// Type bundles the message Category with its sub-level, mirroring the
// "message type (Log/Trace/Network/Control + sub-level)" field from
// spec.md §3.
type Type struct {
	Category Category
	SubType  byte
}

// String renders the session-file message-type column (spec.md §6): Log
// messages render their LogLevel name, every other category renders its
// Category name alone.
func (t Type) String() string {
	if t.Category == CategoryLog {
		return LogLevel(t.SubType).String()
	}
	return t.Category.String()
}

// PayloadKind discriminates the three payload shapes a DLT message can
// carry (spec.md §3).
type PayloadKind byte

const (
	PayloadVerbose PayloadKind = iota
	PayloadNonVerbose
	PayloadControl
)

// Payload is a closed union over Verbose/NonVerbose/Control contents.
// Only the field matching Kind is meaningful.
type Payload struct {
	Kind PayloadKind

	// Verbose
	Args []Argument

	// NonVerbose
	MessageID uint32
	Raw       []byte // NonVerbose/Control trailing bytes

	// Control
	ServiceID uint32
}

// Message is the unit parsers yield (spec.md §3). It is a value-type:
// copying a Message copies everything needed to render it stand-alone.
type Message struct {
	StorageTimestamp time.Time
	ECUID            string
	SessionID        uint32
	Counter          uint8
	Timestamp        uint32 // monotonic DLT timestamp, 0.1ms ticks
	AppID            string
	ContextID        string
	Type             Type
	Payload          Payload

	// SourceID attributes the message to the source.SourceID that
	// produced it, so the Session State can demultiplex (spec.md §3).
	SourceID uint16

	// raw holds the original wire bytes when the parser kept them
	// (needed for AsStoredBytes round-trips, spec.md §6).
	raw []byte
}

// WithRaw attaches the verbatim wire bytes this Message was parsed from.
func (m Message) WithRaw(b []byte) Message {
	m.raw = b
	return m
}

// Raw returns the verbatim wire bytes, if the parser retained them.
func (m Message) Raw() []byte { return m.raw }

// Clone makes a Message independent of any buffer its Payload/raw slices
// reference, for callers that must retain a Message past the producer's
// next pull (producer contract: messages handed to the Collector must
// survive further source.load() calls).
func (m Message) Clone() Message {
	out := m
	if m.raw != nil {
		out.raw = append([]byte(nil), m.raw...)
	}
	if m.Payload.Args != nil {
		out.Payload.Args = append([]Argument(nil), m.Payload.Args...)
	}
	if m.Payload.Raw != nil {
		out.Payload.Raw = append([]byte(nil), m.Payload.Raw...)
	}
	return out
}
