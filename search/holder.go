package search

import "sort"

// FilterMatch is one matched row plus the bitset of which compiled
// filters matched it (spec.md §4.6). Bit i of FilterIdxs corresponds to
// filters[i] at compile time; sessions are limited to 64 simultaneous
// search filters by this representation, well past any UI's filter list.
type FilterMatch struct {
	Row        uint64
	FilterIdxs uint64
}

// RegularSearchHolder owns the compiled filters for one search and
// accumulates matches in row order as the State loop (or a detached
// scan task) feeds it lines. Exactly one RegularSearchHolder is live per
// session at a time; GetSearchHolder/SetSearchHolder move ownership of
// this value in and out of session.State without locking (spec.md
// §4.6).
type RegularSearchHolder struct {
	filters []*Compiled
	matches []FilterMatch
}

func NewRegularSearchHolder(filters []*Compiled) *RegularSearchHolder {
	return &RegularSearchHolder{filters: filters}
}

func (h *RegularSearchHolder) Filters() []*Compiled { return h.filters }

// Scan evaluates every filter against line and, if any matched, appends
// a FilterMatch for row. Scan must be called with strictly increasing
// row values; the holder does not sort after the fact.
func (h *RegularSearchHolder) Scan(row uint64, line string) {
	var mask uint64
	for i, f := range h.filters {
		if i >= 64 {
			break
		}
		if ok, _ := f.Match(line); ok {
			mask |= 1 << uint(i)
		}
	}
	if mask != 0 {
		h.matches = append(h.matches, FilterMatch{Row: row, FilterIdxs: mask})
	}
}

func (h *RegularSearchHolder) Matches() []FilterMatch { return h.matches }

// SetMatches replaces the holder's match set in place. matches must
// already be in row-ascending order; NearestPosition's binary search
// assumes it and the holder does not re-sort.
func (h *RegularSearchHolder) SetMatches(matches []FilterMatch) {
	h.matches = matches
}

func (h *RegularSearchHolder) Len() int { return len(h.matches) }

// NearestPosition returns the match closest to pos by absolute row
// distance, ties resolving upward (spec.md §4.6). ok is false when the
// holder has no matches at all.
func (h *RegularSearchHolder) NearestPosition(pos uint64) (FilterMatch, bool) {
	if len(h.matches) == 0 {
		return FilterMatch{}, false
	}
	// idx is the first match with Row >= pos (lower bound).
	idx := sort.Search(len(h.matches), func(i int) bool {
		return h.matches[i].Row >= pos
	})
	switch {
	case idx == 0:
		return h.matches[0], true
	case idx == len(h.matches):
		return h.matches[idx-1], true
	default:
		before, after := h.matches[idx-1], h.matches[idx]
		distBefore := pos - before.Row
		distAfter := after.Row - pos
		if distAfter <= distBefore {
			return after, true
		}
		return before, true
	}
}
