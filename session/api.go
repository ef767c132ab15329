package session

import (
	"context"
	"strings"

	"github.com/esrlabs/chipmunk-core/indexmap"
	"github.com/esrlabs/chipmunk-core/internal/errs"
	"github.com/esrlabs/chipmunk-core/search"
	"github.com/esrlabs/chipmunk-core/sessionfile"
	"github.com/google/uuid"
)

// AddBookmark pins row with Bookmark nature, triggering an incremental
// breadcrumb update when mode is ModeBreadcrumbs (spec.md §4.3).
func (a *Api) AddBookmark(row uint64) error {
	_, err := call(a, func(s *State) (struct{}, error) {
		return struct{}{}, s.insertPin(row, indexmap.Bookmark)
	})
	return err
}

// SetBookmarks replaces the full bookmark set with rows.
func (a *Api) SetBookmarks(rows []uint64) error {
	_, err := call(a, func(s *State) (struct{}, error) {
		s.indexMap.Remove(s.bookmarkPositions(), indexmap.Bookmark)
		for _, r := range rows {
			if err := s.insertPin(r, indexmap.Bookmark); err != nil {
				return struct{}{}, err
			}
		}
		return struct{}{}, nil
	})
	return err
}

// RemoveBookmark drops the Bookmark nature from row.
func (a *Api) RemoveBookmark(row uint64) error {
	_, err := call(a, func(s *State) (struct{}, error) {
		return struct{}{}, s.dropPin(row, indexmap.Bookmark)
	})
	return err
}

func (s *State) bookmarkPositions() []uint64 {
	var out []uint64
	f, err := s.indexMap.Frame(0, uint64(s.indexMap.Len()-1))
	if err != nil || s.indexMap.Len() == 0 {
		return out
	}
	for _, e := range f.Entries() {
		if e.Nature.Cross(indexmap.Bookmark) {
			out = append(out, e.Position)
		}
	}
	return out
}

func (s *State) insertPin(row uint64, nature indexmap.Nature) error {
	var err error
	if s.mode == ModeBreadcrumbs {
		err = s.indexMap.InsertPin([]uint64{row}, nature, s.breadcrumb.MinDistance, s.breadcrumb.MinOffset)
	} else {
		s.indexMap.Insert([]uint64{row}, nature)
	}
	if err == nil {
		s.emit(Event{Kind: EventIndexedMapUpdated, Len: uint64(s.indexMap.Len())})
	}
	return err
}

func (s *State) dropPin(row uint64, nature indexmap.Nature) error {
	var err error
	if s.mode == ModeBreadcrumbs {
		err = s.indexMap.DropPin(row, nature)
	} else {
		s.indexMap.Remove([]uint64{row}, nature)
	}
	if err == nil {
		s.emit(Event{Kind: EventIndexedMapUpdated, Len: uint64(s.indexMap.Len())})
	}
	return err
}

// SetIndexingMode switches between ModeBreadcrumbs and ModeRegular,
// rebuilding or clearing synthetic entries accordingly (spec.md §4.3).
func (a *Api) SetIndexingMode(mode IndexingMode) error {
	_, err := call(a, func(s *State) (struct{}, error) {
		s.mode = mode
		switch mode {
		case ModeBreadcrumbs:
			if err := s.indexMap.BreadcrumbsBuild(s.breadcrumb.MinDistance, s.breadcrumb.MinOffset); err != nil {
				return struct{}{}, err
			}
		case ModeRegular:
			s.indexMap.Clean(indexmap.Breadcrumb)
			s.indexMap.Clean(indexmap.BreadcrumbSeparator)
		}
		s.emit(Event{Kind: EventIndexedMapUpdated, Len: uint64(s.indexMap.Len())})
		return struct{}{}, nil
	})
	return err
}

// SetStreamLen grows the map's addressable length, optionally repairing
// the trailing breadcrumb run immediately (spec.md §14's Open Question
// decision: false defers the tail rebuild to the next explicit mode set
// or pin mutation).
func (a *Api) SetStreamLen(length uint64, updateBreadcrumbs bool) error {
	_, err := call(a, func(s *State) (struct{}, error) {
		if err := s.indexMap.SetStreamLen(length, s.breadcrumb.MinDistance, s.breadcrumb.MinOffset, updateBreadcrumbs); err != nil {
			return struct{}{}, err
		}
		s.streamLen = length
		s.emit(Event{Kind: EventStreamUpdated, Len: length})
		return struct{}{}, nil
	})
	return err
}

// Grab resolves rng directly against the session file (no index-map
// involvement); every returned row carries a zero Nature. GrabIndexed
// returns rows annotated with their Nature.
func (a *Api) Grab(ctx context.Context, rng RowRange) ([]GrabbedRow, error) {
	return call(a, func(s *State) ([]GrabbedRow, error) {
		return s.grabRange(rng)
	})
}

// GrabRanges is Grab over several ranges, concatenated in request
// order.
func (a *Api) GrabRanges(ctx context.Context, ranges []RowRange) ([]GrabbedRow, error) {
	return call(a, func(s *State) ([]GrabbedRow, error) {
		var out []GrabbedRow
		for _, rng := range ranges {
			rows, err := s.grabRange(rng)
			if err != nil {
				return nil, err
			}
			out = append(out, rows...)
		}
		return out, nil
	})
}

// GrabSearch resolves rng as ordinals into the current search holder's
// match list, grabbing the underlying session-file rows those matches
// point to (spec.md §4.3).
func (a *Api) GrabSearch(ctx context.Context, rng RowRange) ([]GrabbedRow, error) {
	return call(a, func(s *State) ([]GrabbedRow, error) {
		if s.searchHolder == nil {
			return nil, errs.New(errs.KindConfiguration, "no search holder installed")
		}
		matches := s.searchHolder.Matches()
		var out []GrabbedRow
		for i := rng.From; i <= rng.To && int(i) < len(matches); i++ {
			row := matches[i].Row
			line, err := s.readRow(row)
			if err != nil {
				return nil, err
			}
			out = append(out, GrabbedRow{Row: row, Line: line})
		}
		return out, nil
	})
}

// GrabIndexed resolves rng as ordinals into the index map's key set
// (spec.md §4.3's frame(range)), grabbing each resolved row annotated
// with its Nature.
func (a *Api) GrabIndexed(ctx context.Context, rng RowRange) ([]GrabbedRow, error) {
	return call(a, func(s *State) ([]GrabbedRow, error) {
		f, err := s.indexMap.Frame(rng.From, rng.To)
		if err != nil {
			return nil, err
		}
		out := make([]GrabbedRow, 0, f.Len())
		for _, e := range f.Entries() {
			line, err := s.readRow(e.Position)
			if err != nil {
				return nil, err
			}
			out = append(out, GrabbedRow{Row: e.Position, Line: line, Nature: e.Nature})
		}
		return out, nil
	})
}

func (s *State) grabRange(rng RowRange) ([]GrabbedRow, error) {
	out := make([]GrabbedRow, 0, rng.To-rng.From+1)
	for row := rng.From; row <= rng.To; row++ {
		line, err := s.readRow(row)
		if err != nil {
			return nil, err
		}
		nature := indexmap.Nature(0)
		out = append(out, GrabbedRow{Row: row, Line: line, Nature: nature})
	}
	return out, nil
}

func (s *State) readRow(row uint64) (string, error) {
	if s.writer == nil {
		return "", errs.New(errs.KindConfiguration, "no session file configured")
	}
	from, to, ok := s.writer.Index().Range(int(row))
	if !ok {
		return "", errs.New(errs.KindConfiguration, "row out of range")
	}
	f, err := s.writer.ReopenForRead()
	if err != nil {
		return "", err
	}
	defer f.Close()
	buf := make([]byte, to-from)
	if _, err := f.ReadAt(buf, from); err != nil {
		return "", errs.Wrap(errs.KindIo, "read session file row", err)
	}
	return strings.TrimSuffix(string(buf), "\n"), nil
}

// GetSearchHolder takes ownership of the current RegularSearchHolder
// out of State, for a detached scan task to run concurrently with the
// command loop (spec.md §4.6's two-phase take-out/hand-back protocol).
func (a *Api) GetSearchHolder() (*search.RegularSearchHolder, error) {
	return call(a, func(s *State) (*search.RegularSearchHolder, error) {
		h := s.searchHolder
		s.searchHolder = nil
		return h, nil
	})
}

// SetSearchHolder hands a (possibly newly scanned) RegularSearchHolder
// back to State.
func (a *Api) SetSearchHolder(h *search.RegularSearchHolder) error {
	_, err := call(a, func(s *State) (struct{}, error) {
		s.searchHolder = h
		var n int
		if h != nil {
			n = h.Len()
		}
		s.emit(Event{Kind: EventSearchUpdated, Len: uint64(n)})
		return struct{}{}, nil
	})
	return err
}

// DropSearch discards the current search holder entirely.
func (a *Api) DropSearch() error {
	_, err := call(a, func(s *State) (struct{}, error) {
		s.searchHolder = nil
		s.emit(Event{Kind: EventSearchUpdated, Len: 0})
		return struct{}{}, nil
	})
	return err
}

// SetMatches replaces the installed search holder's match set in place,
// used by a caller that already owns the holder via GetSearchHolder but
// wants the State-visible length to update before handing it back.
func (a *Api) SetMatches(matches []search.FilterMatch) error {
	_, err := call(a, func(s *State) (struct{}, error) {
		if s.searchHolder == nil {
			return struct{}{}, errs.New(errs.KindConfiguration, "no search holder installed")
		}
		s.searchHolder.SetMatches(matches)
		s.emit(Event{Kind: EventSearchUpdated, Len: uint64(len(matches))})
		return struct{}{}, nil
	})
	return err
}

// GetSearchValuesHolder/SetSearchValues/GetSearchValues/DropSearchValues
// mirror the regular search holder's two-phase protocol for the numeric
// values holder used for charting (spec.md §4.6).
func (a *Api) GetSearchValuesHolder() (*search.ValuesSearchHolder, error) {
	return call(a, func(s *State) (*search.ValuesSearchHolder, error) {
		h := s.valuesHolder
		s.valuesHolder = nil
		return h, nil
	})
}

func (a *Api) SetSearchValues(h *search.ValuesSearchHolder) error {
	_, err := call(a, func(s *State) (struct{}, error) {
		s.valuesHolder = h
		return struct{}{}, nil
	})
	return err
}

func (a *Api) GetSearchValues(filterIdx int) ([]search.Point, error) {
	return call(a, func(s *State) ([]search.Point, error) {
		if s.valuesHolder == nil {
			return nil, errs.New(errs.KindConfiguration, "no values holder installed")
		}
		return s.valuesHolder.Series(filterIdx), nil
	})
}

func (a *Api) DropSearchValues() error {
	_, err := call(a, func(s *State) (struct{}, error) {
		s.valuesHolder = nil
		return struct{}{}, nil
	})
	return err
}

// GetStreamLen, GetSearchResultLen, GetIndexedMapLen are the progress
// getters (spec.md §4.2).
func (a *Api) GetStreamLen() (uint64, error) {
	return call(a, func(s *State) (uint64, error) { return s.streamLen, nil })
}

func (a *Api) GetSearchResultLen() (int, error) {
	return call(a, func(s *State) (int, error) {
		if s.searchHolder == nil {
			return 0, nil
		}
		return s.searchHolder.Len(), nil
	})
}

func (a *Api) GetIndexedMapLen() (int, error) {
	return call(a, func(s *State) (int, error) { return s.indexMap.Len(), nil })
}

// SetSessionFile installs (or replaces) the session file writer.
func (a *Api) SetSessionFile(w *sessionfile.Writer) error {
	_, err := call(a, func(s *State) (struct{}, error) {
		s.writer = w
		return struct{}{}, nil
	})
	return err
}

// WriteSessionFile appends a pre-rendered line attributed to sourceID.
func (a *Api) WriteSessionFile(sourceID uint16, text string) error {
	_, err := call(a, func(s *State) (struct{}, error) {
		if s.writer == nil {
			return struct{}{}, errs.New(errs.KindConfiguration, "no session file configured")
		}
		_, err := s.writer.WriteText(sourceID, text)
		return struct{}{}, err
	})
	return err
}

// FlushSessionFile forces pending writes to disk.
func (a *Api) FlushSessionFile() error {
	_, err := call(a, func(s *State) (struct{}, error) {
		if s.writer == nil {
			return struct{}{}, nil
		}
		return struct{}{}, s.writer.Flush()
	})
	return err
}

// UpdateSession rescans the session file's newly appended bytes into
// the chunk index and advances streamLen to match, emitting
// StreamUpdated (spec.md §4.7).
func (a *Api) UpdateSession(sourceID uint16) (int, error) {
	return call(a, func(s *State) (int, error) {
		if s.writer == nil {
			return 0, errs.New(errs.KindConfiguration, "no session file configured")
		}
		rows, err := s.writer.UpdateSession()
		if err != nil {
			return 0, err
		}
		s.streamLen = uint64(rows)
		s.emit(Event{Kind: EventStreamUpdated, Len: s.streamLen})
		return rows, nil
	})
}

// AddSource registers a SourceDescriptor and records it in the observe
// catalog (spec.md §4.2, §13).
func (a *Api) AddSource(desc SourceDescriptor) error {
	_, err := call(a, func(s *State) (struct{}, error) {
		if _, exists := s.sources[desc.SourceID]; exists {
			return struct{}{}, errs.New(errs.KindConfiguration, "duplicate source id")
		}
		s.sources[desc.SourceID] = desc
		s.catalog.record(desc.SourceID, desc)
		return struct{}{}, nil
	})
	return err
}

// GetSourcesDefinitions lists every registered source.
func (a *Api) GetSourcesDefinitions() ([]SourceDescriptor, error) {
	return call(a, func(s *State) ([]SourceDescriptor, error) {
		out := make([]SourceDescriptor, 0, len(s.sources))
		for _, d := range s.sources {
			out = append(out, d)
		}
		return out, nil
	})
}

// GetObserveCatalog returns the replay log of executed observe requests
// (spec.md §13).
func (a *Api) GetObserveCatalog() ([]SourceDescriptor, error) {
	return call(a, func(s *State) ([]SourceDescriptor, error) { return s.catalog.Entries(), nil })
}

// ExportSession streams the requested ranges to disk (spec.md §4.7).
// Unlike most commands, the copy itself runs outside the command queue
// (via a tracked, cancellable operation) so a large export doesn't stall
// every other command; only the writer/index snapshot is taken on the
// queue.
func (a *Api) ExportSession(ctx context.Context, req sessionfile.ExportRequest) (int, error) {
	w, err := call(a, func(s *State) (*sessionfile.Writer, error) {
		if s.writer == nil {
			return nil, errs.New(errs.KindConfiguration, "no session file configured")
		}
		return s.writer, nil
	})
	if err != nil {
		return 0, err
	}
	id, opCtx := a.state.tracker.Start(ctx, "export")
	defer a.state.tracker.Done(id)
	a.state.emit(Event{Kind: EventOperationStarted, Operation: id})
	n, err := sessionfile.Export(opCtx, w, req)
	a.state.emit(Event{Kind: EventOperationDone, Operation: id, Result: err})
	return n, err
}

// CloseSession cancels every tracked operation before responding
// (spec.md §4.2), without stopping the command loop itself.
func (a *Api) CloseSession() error {
	_, err := call(a, func(s *State) (struct{}, error) {
		s.tracker.CancelAll()
		return struct{}{}, nil
	})
	return err
}

// Shutdown stops the State loop gracefully: the in-flight command queue
// drains, then the loop exits.
func (a *Api) Shutdown() error {
	_, err := call(a, func(s *State) (struct{}, error) {
		s.tracker.CancelAll()
		return struct{}{}, nil
	})
	if err != nil {
		return err
	}
	a.state.stop()
	a.state.emit(Event{Kind: EventSessionDestroyed})
	return nil
}

// ShutdownWithError stops the loop the same way Shutdown does but
// records cause as the session's terminal error, for test injection of
// fatal faults (spec.md §4.2, §14 Open Question decision).
func (a *Api) ShutdownWithError(cause error) error {
	a.state.closeErr = cause
	_, _ = call(a, func(s *State) (struct{}, error) {
		s.tracker.CancelAll()
		return struct{}{}, nil
	})
	a.state.stop()
	a.state.emit(Event{Kind: EventSessionDestroyed, Err: cause})
	return nil
}

// SetDebugMode toggles verbose diagnostics (spec.md §4.2).
func (a *Api) SetDebugMode(on bool) error {
	_, err := call(a, func(s *State) (struct{}, error) {
		s.debug = on
		return struct{}{}, nil
	})
	return err
}

// NotifyCancelingOperation/NotifyCanceledOperation relay operation
// lifecycle notifications onto the callback bus (spec.md §4.2's debug
// commands).
func (a *Api) NotifyCancelingOperation(id uuid.UUID) error {
	_, err := call(a, func(s *State) (struct{}, error) {
		s.emit(Event{Kind: EventNotification, Severity: SeverityInfo, Content: "canceling operation " + id.String()})
		return struct{}{}, nil
	})
	return err
}

func (a *Api) NotifyCanceledOperation(id uuid.UUID) error {
	_, err := call(a, func(s *State) (struct{}, error) {
		s.emit(Event{Kind: EventOperationDone, Operation: id, Result: errs.ErrCancelled})
		return struct{}{}, nil
	})
	return err
}

// Suspend/Resume pause and resume command processing at the next
// boundary, observed in original_source's state/api.rs command surface
// (spec.md §13) and otherwise undocumented in spec.md's illustrative
// subset. Implemented as a debug-bus notification only: the queue
// itself is never actually halted, since nothing in the original
// surface describes what "suspended" should do to in-flight commands
// beyond notifying observers.
func (a *Api) Suspend() error {
	_, err := call(a, func(s *State) (struct{}, error) {
		s.emit(Event{Kind: EventNotification, Severity: SeverityInfo, Content: "session suspended"})
		return struct{}{}, nil
	})
	return err
}

func (a *Api) Resume() error {
	_, err := call(a, func(s *State) (struct{}, error) {
		s.emit(Event{Kind: EventNotification, Severity: SeverityInfo, Content: "session resumed"})
		return struct{}{}, nil
	})
	return err
}
