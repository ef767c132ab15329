// Package registry is the initialization-time component registry
// (spec.md §9: "Global state is confined to an initialization-time
// component registry... constructed once at startup and never
// re-bound"). It maps a source/parser kind name to the factory that
// builds it, so cmd/chipmunk-ingest and any embedding host can resolve
// an observe request's source_desc/parser_desc strings into concrete
// source.ByteSource / parser.Parser values without a switch statement
// scattered across the codebase.
package registry

import (
	"context"
	"fmt"
	"sync"

	"github.com/esrlabs/chipmunk-core/parser"
	"github.com/esrlabs/chipmunk-core/source"
)

// SourceFactory builds a source.ByteSource from a raw configuration
// blob (typically config.SourceConfig.Detail, left as any here so this
// package doesn't need to import config).
type SourceFactory func(ctx context.Context, detail map[string]any) (source.ByteSource, error)

// ParserFactory builds a parser.Parser from a raw configuration blob.
type ParserFactory func(detail map[string]any) (parser.Parser, error)

// Registry holds every known source and parser factory, keyed by kind
// name (Default registers "file", "pcap", "serial", "process" / "text",
// "dlt", "someip", "dltft"). Safe for concurrent reads after Freeze; Register
// calls before Freeze are expected to run single-threaded at process
// startup, matching spec.md §9's "constructed once at startup".
type Registry struct {
	mu      sync.RWMutex
	sources map[string]SourceFactory
	parsers map[string]ParserFactory
	frozen  bool
}

func New() *Registry {
	return &Registry{
		sources: make(map[string]SourceFactory),
		parsers: make(map[string]ParserFactory),
	}
}

// RegisterSource adds a named source factory. Panics if called after
// Freeze, since the whole point of freezing is that nothing re-binds
// global state afterward.
func (r *Registry) RegisterSource(kind string, f SourceFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		panic("registry: RegisterSource after Freeze")
	}
	r.sources[kind] = f
}

// RegisterParser adds a named parser factory.
func (r *Registry) RegisterParser(kind string, f ParserFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frozen {
		panic("registry: RegisterParser after Freeze")
	}
	r.parsers[kind] = f
}

// Freeze marks the registry read-only. Calling it is optional but
// recommended once startup registration is done.
func (r *Registry) Freeze() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.frozen = true
}

// BuildSource resolves kind and invokes its factory.
func (r *Registry) BuildSource(ctx context.Context, kind string, detail map[string]any) (source.ByteSource, error) {
	r.mu.RLock()
	f, ok := r.sources[kind]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("registry: unknown source kind %q", kind)
	}
	return f(ctx, detail)
}

// BuildParser resolves kind and invokes its factory.
func (r *Registry) BuildParser(kind string, detail map[string]any) (parser.Parser, error) {
	r.mu.RLock()
	f, ok := r.parsers[kind]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("registry: unknown parser kind %q", kind)
	}
	return f(detail)
}

// SourceKinds and ParserKinds list every registered kind name, for a
// CLI's --help or a config validator.
func (r *Registry) SourceKinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.sources))
	for k := range r.sources {
		out = append(out, k)
	}
	return out
}

func (r *Registry) ParserKinds() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.parsers))
	for k := range r.parsers {
		out = append(out, k)
	}
	return out
}
