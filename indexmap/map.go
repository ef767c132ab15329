package indexmap

import (
	"fmt"

	"github.com/google/btree"
)

// entry is one ordered (position, Nature) pair. Mutating Nature through
// a pointer already held by the tree is safe: the ordering key (Pos)
// never changes after insertion.
type entry struct {
	pos    uint64
	nature Nature
}

func less(a, b *entry) bool { return a.pos < b.pos }

// Map is the sorted position -> Nature index (spec.md §4.3). It is
// backed by a google/btree.BTreeG rather than a hand-rolled sorted
// slice: ordered range scans and nth-key lookups (Map.frame, the
// breadcrumb walk) are exactly what a B-tree gives for free, mirroring
// what the original used Rust's BTreeMap for.
type Map struct {
	tree      *btree.BTreeG[*entry]
	streamLen uint64
}

func New() *Map {
	return &Map{tree: btree.NewG(32, less)}
}

func (m *Map) get(pos uint64) (*entry, bool) {
	return m.tree.Get(&entry{pos: pos})
}

// Insert ORs nature into every position, creating entries that don't
// exist yet (map.rs's insert()).
func (m *Map) Insert(positions []uint64, nature Nature) {
	for _, pos := range positions {
		if e, ok := m.get(pos); ok {
			e.nature.Include(nature)
		} else {
			m.tree.ReplaceOrInsert(&entry{pos: pos, nature: nature})
		}
	}
}

// InsertRange is Insert over [from, to] inclusive.
func (m *Map) InsertRange(from, to uint64, nature Nature) {
	if to < from {
		return
	}
	positions := make([]uint64, 0, to-from+1)
	for p := from; p <= to; p++ {
		positions = append(positions, p)
	}
	m.Insert(positions, nature)
}

// Remove clears nature's bits from every position, dropping the entry
// entirely once empty.
func (m *Map) Remove(positions []uint64, nature Nature) {
	for _, pos := range positions {
		e, ok := m.get(pos)
		if !ok {
			continue
		}
		e.nature.Exclude(nature)
		if e.nature.IsEmpty() {
			m.tree.Delete(e)
		}
	}
}

func (m *Map) removeRange(from, to uint64, nature Nature) {
	if to < from {
		return
	}
	positions := make([]uint64, 0, to-from+1)
	for p := from; p <= to; p++ {
		positions = append(positions, p)
	}
	m.Remove(positions, nature)
}

// removeIf drops nature from position only if it is position's exact
// (and only) nature value (map.rs's remove_if, used by
// breadcrumbsRebuildBetween to clear a plain breadcrumb edge before
// recomputing it).
func (m *Map) removeIf(position uint64, nature Nature) {
	if e, ok := m.get(position); ok && e.nature == nature {
		m.tree.Delete(e)
	}
}

func (m *Map) Len() int      { return m.tree.Len() }
func (m *Map) IsEmpty() bool { return m.Len() == 0 }

// keys returns every indexed position in ascending order.
func (m *Map) keys() []uint64 {
	keys := make([]uint64, 0, m.tree.Len())
	m.tree.Ascend(func(e *entry) bool {
		keys = append(keys, e.pos)
		return true
	})
	return keys
}

// Clean drops nature from every entry, removing entries left empty
// (map.rs's clean(), used before a BreadcrumbsBuild rebuild).
func (m *Map) Clean(nature Nature) {
	var toDrop []*entry
	m.tree.Ascend(func(e *entry) bool {
		e.nature.Exclude(nature)
		if e.nature.IsEmpty() {
			toDrop = append(toDrop, e)
		}
		return true
	})
	for _, e := range toDrop {
		m.tree.Delete(e)
	}
}

// breadcrumbsInsertBetween fills the gap (range.start, range.end) with
// breadcrumb markers, placing a single BreadcrumbSeparator in the middle
// when the gap is wide enough that a UI shouldn't render every position
// (map.rs's breadcrumbs_insert_between).
func (m *Map) breadcrumbsInsertBetween(start, end, minDistance, minOffset uint64) error {
	if end >= m.streamLen {
		return fmt.Errorf("indexmap: out of range position %d, stream len %d", end, m.streamLen)
	}
	distance := end - start
	if distance <= 1 {
		if _, ok := m.get(start); !ok {
			m.Insert([]uint64{start}, Breadcrumb)
		}
		if _, ok := m.get(end); !ok {
			m.Insert([]uint64{end}, Breadcrumb)
		}
		return nil
	}

	movedStart, offsetStart := start, satSub(minOffset, 1)
	if _, ok := m.get(start); ok {
		movedStart, offsetStart = start+1, minOffset
	}
	movedEnd, offsetEnd := end, satSub(minOffset, 1)
	if _, ok := m.get(end); ok {
		movedEnd, offsetEnd = end-1, minOffset
	}
	middle := (movedEnd-movedStart)/2 + movedStart

	if distance <= minDistance+2 {
		m.InsertRange(movedStart, movedEnd, Breadcrumb)
		return nil
	}
	m.InsertRange(movedStart, satAdd(start, offsetStart), Breadcrumb)
	m.Insert([]uint64{middle}, BreadcrumbSeparator)
	m.InsertRange(satSub(end, offsetEnd), movedEnd, Breadcrumb)
	return nil
}

func satSub(a, b uint64) uint64 {
	if b > a {
		return 0
	}
	return a - b
}

func satAdd(a, b uint64) uint64 { return a + b }

// BreadcrumbsBuild recomputes every breadcrumb and separator from
// scratch across the whole indexed range (map.rs's breadcrumbs_build,
// used the first time a session gets any pins).
func (m *Map) BreadcrumbsBuild(minDistance, minOffset uint64) error {
	m.Clean(Breadcrumb)
	m.Clean(BreadcrumbSeparator)
	if m.streamLen == 0 || m.IsEmpty() {
		return nil
	}
	keys := m.keys()
	if len(keys) == 0 {
		return nil
	}
	if err := m.breadcrumbsInsertBetween(0, keys[0], minDistance, minOffset); err != nil {
		return err
	}
	for i := 0; i+1 < len(keys); i++ {
		from, to := keys[i], keys[i+1]
		if from >= to {
			return fmt.Errorf("indexmap: map is broken, prev %d >= next %d", from, to)
		}
		if err := m.breadcrumbsInsertBetween(from, to, minDistance, minOffset); err != nil {
			return err
		}
	}
	last := keys[len(keys)-1]
	return m.breadcrumbsInsertBetween(last, m.streamLen-1, minDistance, minOffset)
}

// InsertPin marks positions with a user nature (Search/Bookmark/
// Selection), keeping surrounding breadcrumbs consistent (map.rs's
// breadcrumbs_insert_and_update). Breadcrumb/BreadcrumbSeparator may not
// be inserted this way.
func (m *Map) InsertPin(positions []uint64, nature Nature, minDistance, minOffset uint64) error {
	if m.streamLen == 0 {
		return nil
	}
	if nature.IsBreadcrumb() || nature.IsSeparator() {
		return fmt.Errorf("indexmap: cannot insert Breadcrumb/BreadcrumbSeparator via InsertPin")
	}
	for _, position := range positions {
		if e, ok := m.get(position); ok {
			if e.nature.IsSeparator() {
				m.tree.Delete(e)
			} else {
				e.nature.Reassign(nature)
				continue
			}
		}
		m.tree.ReplaceOrInsert(&entry{pos: position, nature: nature})

		if before, ok, err := m.breadcrumbsDropBefore(position); err != nil {
			return err
		} else if ok {
			if err := m.breadcrumbsRebuildBetween(before, position, minDistance, minOffset); err != nil {
				return err
			}
		} else if position > 0 {
			if err := m.breadcrumbsInsertBetween(0, position, minDistance, minOffset); err != nil {
				return err
			}
		}

		if after, ok, err := m.breadcrumbsDropAfter(position); err != nil {
			return err
		} else if ok {
			if err := m.breadcrumbsRebuildBetween(position, after, minDistance, minOffset); err != nil {
				return err
			}
		} else if position < m.streamLen-1 {
			if err := m.breadcrumbsInsertBetween(position, m.streamLen-1, minDistance, minOffset); err != nil {
				return err
			}
		}
	}
	return nil
}

// DropPin clears nature from position, demoting it to a plain breadcrumb
// (or leaving remaining pin bits in place) once that nature is gone
// (map.rs's breadcrumbs_drop_and_update).
func (m *Map) DropPin(position uint64, nature Nature) error {
	if m.streamLen == 0 {
		return nil
	}
	e, ok := m.get(position)
	if !ok {
		return fmt.Errorf("indexmap: no index at position %d", position)
	}
	if !e.nature.Contains(nature) {
		return fmt.Errorf("indexmap: index at %d does not include nature %v", position, nature)
	}
	if e.nature.Cross(Breadcrumb.Union(BreadcrumbSeparator)) {
		return fmt.Errorf("indexmap: cannot drop Breadcrumb/BreadcrumbSeparator via DropPin")
	}
	if !e.nature.ReplaceIfEmpty(nature, Breadcrumb) {
		e.nature.SetIfCross(Expanded, Breadcrumb)
	}
	return nil
}

// breadcrumbsRebuildBetween recomputes the breadcrumb run between from
// and to, preserving any already-expanded breadcrumbs at the edges by
// temporarily lifting them out and reinserting after the rebuild
// (map.rs's breadcrumbs_rebuild_between).
func (m *Map) breadcrumbsRebuildBetween(from, to, minDistance, minOffset uint64) error {
	m.removeIf(from, Breadcrumb)
	m.removeIf(to, Breadcrumb)

	fromShifted := from
	var expandedBefore []uint64
	for offset := uint64(0); offset < minOffset; offset++ {
		if from < offset {
			break
		}
		pos := from - offset
		e, ok := m.get(pos)
		if !ok {
			continue
		}
		if e.nature == Breadcrumb.Union(Expanded) {
			expandedBefore = append(expandedBefore, pos)
			fromShifted = pos
		} else {
			break
		}
	}

	toShifted := to
	var expandedAfter []uint64
	for offset := uint64(0); offset < minOffset; offset++ {
		if to+offset >= m.streamLen {
			break
		}
		pos := to + offset
		e, ok := m.get(pos)
		if !ok {
			continue
		}
		if e.nature == Breadcrumb.Union(Expanded) {
			expandedAfter = append(expandedAfter, pos)
			toShifted = pos
		} else {
			break
		}
	}

	expanded := append(append([]uint64{}, expandedBefore...), expandedAfter...)
	for _, pos := range expanded {
		if e, ok := m.get(pos); ok {
			m.tree.Delete(e)
		}
	}
	if err := m.breadcrumbsInsertBetween(fromShifted, toShifted, minDistance, minOffset); err != nil {
		return err
	}
	for _, pos := range expanded {
		if e, ok := m.get(pos); ok {
			e.nature.Include(Expanded)
		}
	}
	return nil
}

// Expand grows a breadcrumb separator's visible neighborhood by offset
// positions, converting the newly-revealed breadcrumb positions into
// Breadcrumb|Expanded, and clears the separator entirely once it has
// been fully consumed by its neighbors (map.rs's breadcrumbs_expand).
func (m *Map) Expand(separator, offset uint64, above bool) error {
	sepEntry, ok := m.get(separator)
	if !ok {
		return fmt.Errorf("indexmap: no index at separator %d", separator)
	}
	if !sepEntry.nature.IsSeparator() {
		return fmt.Errorf("indexmap: position %d is not a BreadcrumbSeparator", separator)
	}

	before, after, err := m.aroundIndexes(separator)
	if err != nil {
		return err
	}

	selfCheck := false
	if above && before != nil {
		if before.pos != separator-1 {
			min := minU64(separator-1, before.pos+offset)
			m.InsertRange(before.pos+1, min, Breadcrumb.Union(Expanded))
			selfCheck = min == separator-1
		}
	} else if !above && after != nil {
		if after.pos != separator+1 {
			lower := uint64(0)
			if after.pos >= offset {
				lower = after.pos - offset
			}
			max := maxU64(separator+1, lower)
			m.InsertRange(max, after.pos-1, Breadcrumb.Union(Expanded))
			selfCheck = max == separator+1
		}
	}

	if selfCheck {
		before, after, err = m.aroundIndexes(separator)
		if err != nil {
			return err
		}
		clear := true
		switch {
		case before != nil && after != nil:
			clear = after.pos-1 == separator && separator == before.pos+1
		case before != nil:
			clear = separator == before.pos+1
		case after != nil:
			clear = after.pos-1 == separator
		}
		if clear {
			m.Remove([]uint64{separator}, BreadcrumbSeparator)
			m.Insert([]uint64{separator}, Breadcrumb.Union(Expanded))
		}
	}
	return nil
}

func minU64(a, b uint64) uint64 {
	if a < b {
		return a
	}
	return b
}

func maxU64(a, b uint64) uint64 {
	if a > b {
		return a
	}
	return b
}

// breadcrumbsDropBefore walks backward from position, dropping
// unpinned/unexpanded breadcrumb entries until it finds a surviving
// anchor, returning that anchor's position (map.rs's
// breadcrumbs_drop_before).
func (m *Map) breadcrumbsDropBefore(from uint64) (uint64, bool, error) {
	keys := m.keys()
	idx, err := positionIndex(keys, from)
	if err != nil {
		return 0, false, err
	}
	cursor := idx
	var toDrop []uint64
	var before uint64
	found := false
	for cursor > 0 {
		cursor--
		e, ok := m.get(keys[cursor])
		if !ok {
			continue
		}
		if !e.nature.IsPinned() && !e.nature.IsExpanded() {
			toDrop = append(toDrop, keys[cursor])
		} else {
			before, found = keys[cursor], true
			break
		}
	}
	for _, pos := range toDrop {
		if e, ok := m.get(pos); ok {
			m.tree.Delete(e)
		}
	}
	return before, found, nil
}

// breadcrumbsDropAfter is breadcrumbsDropBefore's mirror, walking
// forward (map.rs's breadcrumbs_drop_after).
func (m *Map) breadcrumbsDropAfter(from uint64) (uint64, bool, error) {
	keys := m.keys()
	idx, err := positionIndex(keys, from)
	if err != nil {
		return 0, false, err
	}
	cursor := idx
	var toDrop []uint64
	var after uint64
	found := false
	for {
		cursor++
		if cursor >= len(keys) {
			break
		}
		e, ok := m.get(keys[cursor])
		if !ok {
			continue
		}
		if !e.nature.IsPinned() && !e.nature.IsExpanded() {
			toDrop = append(toDrop, keys[cursor])
		} else {
			after, found = keys[cursor], true
			break
		}
	}
	for _, pos := range toDrop {
		if e, ok := m.get(pos); ok {
			m.tree.Delete(e)
		}
	}
	return after, found, nil
}

func positionIndex(keys []uint64, position uint64) (int, error) {
	for i, k := range keys {
		if k == position {
			return i, nil
		}
	}
	return 0, fmt.Errorf("indexmap: position %d not present, map len %d", position, len(keys))
}

func (m *Map) aroundIndexes(position uint64) (before, after *entry, err error) {
	keys := m.keys()
	idx, err := positionIndex(keys, position)
	if err != nil {
		return nil, nil, err
	}
	if idx > 0 {
		before, _ = m.get(keys[idx-1])
	}
	if idx < len(keys)-1 {
		after, _ = m.get(keys[idx+1])
	}
	return before, after, nil
}

// findByNature scans from the key at fromIdx, walking down (toward
// higher positions) or up, for the first entry crossing filter
// (map.rs's find_by_nature).
func (m *Map) findByNature(fromIdx int, filter Nature, walkDown bool) (*entry, error) {
	keys := m.keys()
	if fromIdx >= len(keys) {
		return nil, fmt.Errorf("indexmap: from-key-index %d out of range, len %d", fromIdx, len(keys))
	}
	cursor := fromIdx
	if walkDown {
		for cursor < len(keys) {
			if e, ok := m.get(keys[cursor]); ok && filter.Cross(e.nature) {
				return e, nil
			}
			cursor++
		}
		return nil, nil
	}
	for {
		if e, ok := m.get(keys[cursor]); ok && filter.Cross(e.nature) {
			return e, nil
		}
		if cursor == 0 {
			break
		}
		cursor--
	}
	return nil, nil
}

// SetStreamLen updates the total addressable length; when
// updateBreadcrumbs is set, it extends or rebuilds the trailing
// breadcrumb run so the map still spans [0, len) (map.rs's
// set_stream_len).
func (m *Map) SetStreamLen(length, minDistance, minOffset uint64, updateBreadcrumbs bool) error {
	m.streamLen = length
	if length == 0 {
		m.tree.Clear(false)
		return nil
	}
	if !updateBreadcrumbs {
		return nil
	}
	keys := m.keys()
	if len(keys) == 0 {
		return nil
	}
	last := keys[len(keys)-1]
	lastEntry, _ := m.get(last)
	if lastEntry.nature.IsPinned() {
		return m.breadcrumbsInsertBetween(last, m.streamLen-1, minDistance, minOffset)
	}
	found, err := m.findByNature(len(keys)-1, Search.Union(Bookmark).Union(Expanded), false)
	if err != nil {
		return err
	}
	if found == nil {
		return nil
	}
	from := found.pos
	to := m.streamLen - 1
	if from+1 < m.streamLen {
		m.removeRange(from+1, to, Breadcrumb.Union(BreadcrumbSeparator))
	}
	return m.breadcrumbsRebuildBetween(from, to, minDistance, minOffset)
}

// Frame returns the [fromIdx, toIdx] (by key-ordinal, not position)
// window of indexed entries as a Frame the renderer can zip against
// grabbed rows (map.rs's frame()).
func (m *Map) Frame(fromIdx, toIdx uint64) (*Frame, error) {
	if toIdx >= uint64(m.Len()) {
		return nil, fmt.Errorf("indexmap: out of range, map len %d, requested [%d,%d]", m.Len(), fromIdx, toIdx)
	}
	keys := m.keys()
	fromPos, toPos := keys[fromIdx], keys[toIdx]

	f := NewFrame()
	m.tree.AscendRange(&entry{pos: fromPos}, &entry{pos: toPos + 1}, func(e *entry) bool {
		f.insert(e.pos, e.nature)
		return true
	})
	return f, nil
}
