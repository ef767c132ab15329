package session

import (
	"fmt"
	"sync"

	"github.com/esrlabs/chipmunk-core/indexmap"
	"github.com/esrlabs/chipmunk-core/internal/errs"
	"github.com/esrlabs/chipmunk-core/search"
	"github.com/esrlabs/chipmunk-core/sessionfile"
	"github.com/rs/zerolog"
)

// cmdQueueSize approximates spec.md §4.2's "unbounded command queue":
// Go has no native unbounded channel, and the teacher's own queues
// (pipe.Pipe.evch, Direction.In/Out) are all bounded buffers sized
// generously for their workload. A State command is a closure that
// completes in microseconds (at most one indexmap/search-holder
// mutation), so a large bound behaves as unbounded in practice; a
// caller that manages to fill it is almost certainly deadlocked some
// other way.
const cmdQueueSize = 4096

// State is the single-writer session actor (spec.md §4.2). Every field
// below is owned exclusively by the goroutine running loop(); all
// access from the outside happens through Api, never directly.
type State struct {
	log *zerolog.Logger

	indexMap   *indexmap.Map
	mode       IndexingMode
	breadcrumb BreadcrumbParams
	streamLen  uint64

	searchHolder *search.RegularSearchHolder
	valuesHolder *search.ValuesSearchHolder

	writer  *sessionfile.Writer
	sources map[uint16]SourceDescriptor
	catalog *ObserveCatalog
	tracker *Tracker

	bus   Bus
	debug bool

	cmds     chan func(*State)
	done     chan struct{}
	closeErr error
	wg       sync.WaitGroup
}

// Options configures NewState.
type Options struct {
	Logger     *zerolog.Logger
	Writer     *sessionfile.Writer
	Bus        Bus
	Breadcrumb BreadcrumbParams
}

// NewState builds a State and starts its loop goroutine immediately,
// mirroring the teacher's Pipe.Start() pattern of launching long-lived
// handler goroutines as soon as the owning object is usable. It returns
// the Api handle callers should use instead of touching State directly.
func NewState(opts Options) *Api {
	nop := zerolog.Nop()
	log := opts.Logger
	if log == nil {
		log = &nop
	}
	bus := opts.Bus
	if bus == nil {
		bus = NewBus(0)
	}
	s := &State{
		log:        log,
		indexMap:   indexmap.New(),
		breadcrumb: opts.Breadcrumb,
		writer:     opts.Writer,
		sources:    make(map[uint16]SourceDescriptor),
		catalog:    &ObserveCatalog{},
		tracker:    NewTracker(),
		bus:        bus,
		cmds:       make(chan func(*State), cmdQueueSize),
		done:       make(chan struct{}),
	}
	s.wg.Add(1)
	go s.loop()
	return &Api{state: s}
}

func (s *State) loop() {
	defer s.wg.Done()
	defer func() {
		if r := recover(); r != nil {
			// spec.md §4.2: "a state-loop panic is upgraded to a
			// session-destroyed callback event" rather than crashing the
			// process.
			err := fmt.Errorf("session: state loop panicked: %v", r)
			s.closeErr = err
			s.emit(Event{Kind: EventSessionDestroyed, Err: err})
		}
		close(s.done)
	}()

	for cmd := range s.cmds {
		cmd(s)
	}
}

// emit sends ev on the bus without blocking the command loop; a full
// bus drops the event and logs a warning rather than stalling every
// other command behind a slow host (spec.md §5's bounded-channel
// suspension point, made non-blocking on the producer side since the
// State loop itself must never suspend on it).
func (s *State) emit(ev Event) {
	select {
	case s.bus <- ev:
	default:
		s.log.Warn().Int("kind", int(ev.Kind)).Msg("session: callback bus full, dropping event")
	}
}

// stop closes the command channel, letting loop() drain and exit.
func (s *State) stop() {
	close(s.cmds)
	<-s.done
}

// Api is the external handle to a State: every method sends a closure
// onto the command queue and blocks for its one-shot reply, matching
// spec.md §4.2's "all queries and mutations flow through an unbounded
// command queue; responses return on per-request one-shot channels".
type Api struct {
	state *State
}

// Result is the value+error pair returned on a command's one-shot
// channel.
type Result[T any] struct {
	Value T
	Err   error
}

// call enqueues fn and blocks for its result. If the command queue has
// already been closed (Shutdown completed), call returns
// errs.ErrChannelClosed without running fn, matching spec.md §7's
// ChannelError policy.
func call[T any](a *Api, fn func(*State) (T, error)) (T, error) {
	respCh := make(chan Result[T], 1)

	select {
	case <-a.state.done:
		var zero T
		return zero, errs.ErrChannelClosed
	default:
	}

	select {
	case a.state.cmds <- func(s *State) {
		v, err := fn(s)
		respCh <- Result[T]{Value: v, Err: err}
	}:
	case <-a.state.done:
		var zero T
		return zero, errs.ErrChannelClosed
	}

	select {
	case res := <-respCh:
		return res.Value, res.Err
	case <-a.state.done:
		var zero T
		return zero, errs.ErrChannelClosed
	}
}

// Tracker exposes the operation tracker for callers that need to start
// a long-running, independently cancellable task (search scan, export)
// outside the command queue itself.
func (a *Api) Tracker() *Tracker { return a.state.tracker }

// Bus returns the callback event channel (spec.md §6).
func (a *Api) Bus() Bus { return a.state.bus }
