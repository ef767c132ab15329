// Package search implements the search pipeline (spec.md §4.6): filter
// compilation, the regular match holder, the numeric values holder used
// for charting, and the scaled-distribution bucketing the UI minimap
// renders from.
package search

import (
	"fmt"
	"regexp"
	"strings"
)

// Filter is one uncompiled search predicate, as the host hands it in
// (spec.md §4.6).
type Filter struct {
	Value      string
	IgnoreCase bool
	WholeWord  bool
	IsRegex    bool
}

// Compiled is a Filter reduced to either a literal substring check or a
// compiled regular expression. Literal matching is kept as its own path
// rather than always going through regexp: it is the common case (plain
// text search) and avoids regexp overhead on the hot per-line loop.
type Compiled struct {
	Source  Filter
	literal string // non-empty (or explicitly empty-literal) when Regex == nil
	regex   *regexp.Regexp
}

// Compile turns a Filter into a Compiled matcher. Ambiguous regex
// patterns are rejected here rather than surfacing a panic from the
// first Match call (spec.md §4.6: "ambiguous patterns are rejected at
// compile time").
func Compile(f Filter) (*Compiled, error) {
	if !f.IsRegex {
		lit := f.Value
		if f.WholeWord {
			lit = f.Value // whole-word literal matching falls back to regex below
		} else {
			if f.IgnoreCase {
				lit = strings.ToLower(lit)
			}
			return &Compiled{Source: f, literal: lit}, nil
		}
	}

	pattern := f.Value
	if f.WholeWord {
		pattern = `\b(?:` + pattern + `)\b`
	}
	if f.IgnoreCase {
		pattern = `(?i)` + pattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("search: invalid filter %q: %w", f.Value, err)
	}
	return &Compiled{Source: f, regex: re}, nil
}

// Match reports whether line satisfies the filter, and the capture
// groups (nil for a literal match) for callers that need them (the
// values holder).
func (c *Compiled) Match(line string) (bool, []string) {
	if c.regex != nil {
		loc := c.regex.FindStringSubmatch(line)
		return loc != nil, loc
	}
	haystack := line
	if c.Source.IgnoreCase {
		haystack = strings.ToLower(haystack)
	}
	return strings.Contains(haystack, c.literal), nil
}

// CompileAll compiles every filter, stopping at the first error.
func CompileAll(filters []Filter) ([]*Compiled, error) {
	out := make([]*Compiled, 0, len(filters))
	for _, f := range filters {
		c, err := Compile(f)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}
