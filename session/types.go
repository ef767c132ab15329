// Package session implements the single-writer Session State actor
// (spec.md §4.2): a command queue serialized through one goroutine,
// owning the index map, search holders, session file writer and
// registered sources, plus a sibling Tracker actor for per-operation
// cancellation (spec.md §5).
package session

import (
	"time"

	"github.com/esrlabs/chipmunk-core/indexmap"
)

// IndexingMode selects how the Index/Breadcrumb Map renders pinned rows
// (spec.md §4.3).
type IndexingMode int

const (
	// ModeBreadcrumbs is the compressed view: switching to it runs
	// BreadcrumbsBuild, each pin mutation updates the breadcrumbs around
	// the pin incrementally, and only a skeleton of the stream is kept.
	ModeBreadcrumbs IndexingMode = iota
	// ModeRegular shows every pinned row only, with no synthetic
	// breadcrumb/separator entries.
	ModeRegular
)

// SourceDescriptor is what AddSource registers: a human-readable
// description of one source+parser pairing feeding the session
// (spec.md §4.2's AddSource/GetSourcesDefinitions).
type SourceDescriptor struct {
	SourceID   uint16
	SourceKind string
	ParserKind string
	Detail     string
}

// GrabbedRow is one row resolved from the session file and annotated
// with its Nature bits (spec.md §4.3: "Grab by indexed range").
type GrabbedRow struct {
	Row    uint64
	Line   string
	Nature indexmap.Nature
}

// RowRange is an inclusive row range, as used by Grab/GrabIndexed.
type RowRange struct {
	From, To uint64
}

// BreadcrumbParams bundles the min_distance/min_offset breadcrumb
// synthesis parameters (spec.md §4.3).
type BreadcrumbParams struct {
	MinDistance uint64
	MinOffset   uint64
}

// observeEntry is one executed observe request, kept for replay
// (spec.md §13 supplemented "Observed catalog").
type observeEntry struct {
	SourceID  uint16
	Desc      SourceDescriptor
	StartedAt time.Time
}

// ObserveCatalog is a log of executed observe requests, read back via
// Api.GetObserveCatalog; no operation re-runs the recorded requests.
type ObserveCatalog struct {
	entries []observeEntry
}

func (c *ObserveCatalog) record(id uint16, desc SourceDescriptor) {
	c.entries = append(c.entries, observeEntry{SourceID: id, Desc: desc, StartedAt: time.Now()})
}

// Entries returns every recorded observe request, oldest first.
func (c *ObserveCatalog) Entries() []SourceDescriptor {
	out := make([]SourceDescriptor, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e.Desc)
	}
	return out
}
