package session

import (
	"context"
	"fmt"

	"github.com/esrlabs/chipmunk-core/internal/errs"
	"github.com/google/uuid"
	"github.com/puzpuzpuz/xsync/v3"
)

// Tracker owns the Uuid -> cancellation mapping for every externally
// visible operation (observe, search, export, grab), so CloseSession can
// cancel them all without the State loop itself blocking on any one of
// them (spec.md §4.2 "Operation tracking").
//
// Tracker is safe for concurrent use: xsync.MapOf (the teacher's
// concurrent-map library, bgpfix-bgpfix's pipe.Pipe.KV) gives lock-free
// reads across many operation goroutines registering/looking themselves
// up at once.
type Tracker struct {
	tokens *xsync.MapOf[uuid.UUID, context.CancelFunc]
	stats  *xsync.MapOf[uuid.UUID, OperationStats]
}

// OperationStats is the bookkeeping kept per tracked operation.
type OperationStats struct {
	Kind string
}

func NewTracker() *Tracker {
	return &Tracker{
		tokens: xsync.NewMapOf[uuid.UUID, context.CancelFunc](),
		stats:  xsync.NewMapOf[uuid.UUID, OperationStats](),
	}
}

// Start registers a new operation, deriving a cancellable context from
// parent, and returns its id plus that context. Cancel, Cancel-all, or
// the returned context's natural completion all end the operation.
func (t *Tracker) Start(parent context.Context, kind string) (uuid.UUID, context.Context) {
	id := uuid.New()
	ctx, cancel := context.WithCancel(parent)
	t.tokens.Store(id, cancel)
	t.stats.Store(id, OperationStats{Kind: kind})
	return id, ctx
}

// Done unregisters an operation once it has finished on its own,
// without cancelling it.
func (t *Tracker) Done(id uuid.UUID) {
	t.tokens.Delete(id)
	t.stats.Delete(id)
}

// Cancel cancels and unregisters a single operation by id.
func (t *Tracker) Cancel(id uuid.UUID) error {
	cancel, ok := t.tokens.LoadAndDelete(id)
	if !ok {
		return errs.New(errs.KindConfiguration, fmt.Sprintf("tracker: unknown operation %s", id))
	}
	t.stats.Delete(id)
	cancel()
	return nil
}

// CancelAll cancels and unregisters every tracked operation
// (spec.md §4.2: "close_session asks the tracker to cancel-all").
func (t *Tracker) CancelAll() {
	t.tokens.Range(func(id uuid.UUID, cancel context.CancelFunc) bool {
		cancel()
		t.tokens.Delete(id)
		t.stats.Delete(id)
		return true
	})
}

// Len reports how many operations are currently tracked.
func (t *Tracker) Len() int {
	return t.tokens.Size()
}
