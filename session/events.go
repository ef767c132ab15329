package session

import "github.com/google/uuid"

// EventKind discriminates the host callback bus union (spec.md §6).
type EventKind int

const (
	EventSessionDestroyed EventKind = iota
	EventStreamUpdated
	EventIndexedMapUpdated
	EventSearchUpdated
	EventOperationStarted
	EventOperationDone
	EventProgress
	EventNotification
	EventLoadingDone
	EventLoadingCancelled
	EventLoadingErrors
	EventLoadingError
)

// Severity mirrors errs.Severity for Notification events without
// importing the errs package's error-specific machinery into the event
// bus payload.
type Severity int

const (
	SeverityInfo Severity = iota
	SeverityWarning
	SeverityError
)

// Event is one item on the host callback bus (spec.md §6). Only the
// fields relevant to Kind are populated; zero values elsewhere.
type Event struct {
	Kind EventKind

	// SessionDestroyed
	Err error

	// StreamUpdated / IndexedMapUpdated / SearchUpdated
	Len uint64

	// OperationStarted / OperationDone / Progress
	Operation uuid.UUID
	Result    error
	Ticks     uint64
	Total     uint64

	// Notification
	Severity Severity
	Content  string
	Line     *uint64

	// LoadingErrors
	Errs []error
}

// Bus is the outbound callback channel a session.State emits Events on.
// Sized like the teacher's pipe.Pipe.evch (a small bounded buffer, not
// truly unbounded) so a slow host can't make the state loop allocate
// without limit; State.emit drops the oldest-blocking risk by using a
// non-blocking send with a logged warning instead of stalling the
// command loop (spec.md §5: "bounded by the channel capacity to the
// host").
type Bus chan Event

func NewBus(capacity int) Bus {
	if capacity <= 0 {
		capacity = 64
	}
	return make(Bus, capacity)
}
