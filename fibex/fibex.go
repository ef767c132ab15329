// Package fibex models the FIBEX metadata dictionary capability
// (spec.md §3): an immutable, shared, read-only lookup from
// (context-id, application-id, frame-id) — or frame-id alone — to a
// Frame description used to reconstruct DLT non-verbose arguments.
//
// The XML reader that produces a Dictionary is treated as an external,
// opaque collaborator (spec.md §1): this package only defines the
// capability's shape and a trivial in-memory implementation, built once
// at load time and shared read-only as a plain *Dictionary pointer by
// every Producer that needs it (spec.md §9); no reference-counting
// wrapper is provided.
package fibex

import "github.com/esrlabs/chipmunk-core/msgrec"

// Signal describes one PDU field, enough to reconstruct a non-verbose
// DLT argument (spec.md §4.4).
type Signal struct {
	Name string
	Kind msgrec.ArgKind
	Unit string
}

// PDU is one Protocol Data Unit carried by a Frame.
type PDU struct {
	Name    string
	Signals []Signal
}

// Frame is the metadata FIBEX associates with a DLT non-verbose message
// id, optionally scoped to an (app, context) pair.
type Frame struct {
	ShortName string
	PDUs      []PDU

	AppID     string
	ContextID string
	HasInfo   bool
}

type key struct {
	ctx, app string
	frameID  uint32
}

// Dictionary is the read-only capability a loaded FIBEX description
// provides. It is safe for concurrent use by many producers at once: it
// is never mutated after Build returns.
type Dictionary struct {
	byTriple map[key]Frame
	byFrame  map[uint32]Frame
}

// Build constructs an immutable Dictionary. The external FIBEX XML
// reader (out of scope here, spec.md §1) is expected to call this once
// with every Frame it decoded.
func Build(frames map[uint32]Frame, triples map[struct {
	Ctx, App string
	FrameID  uint32
}]Frame) *Dictionary {
	d := &Dictionary{
		byFrame:  make(map[uint32]Frame, len(frames)),
		byTriple: make(map[key]Frame, len(triples)),
	}
	for id, f := range frames {
		d.byFrame[id] = f
	}
	for k, f := range triples {
		d.byTriple[key{ctx: k.Ctx, app: k.App, frameID: k.FrameID}] = f
	}
	return d
}

// Lookup resolves a non-verbose message by the full triple first, then
// by frame id alone (spec.md §3).
func (d *Dictionary) Lookup(ctxID, appID string, frameID uint32) (Frame, bool) {
	if d == nil {
		return Frame{}, false
	}
	if f, ok := d.byTriple[key{ctx: ctxID, app: appID, frameID: frameID}]; ok {
		return f, true
	}
	f, ok := d.byFrame[frameID]
	return f, ok
}

// Empty returns a Dictionary with no entries, used when no FIBEX
// description was configured for a source.
func Empty() *Dictionary {
	return &Dictionary{byFrame: map[uint32]Frame{}, byTriple: map[key]Frame{}}
}
