package indexmap

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInsertAndRemove(t *testing.T) {
	m := New()
	m.Insert([]uint64{3, 7}, Search)
	require.Equal(t, 2, m.Len())

	m.Insert([]uint64{7}, Bookmark)
	e, ok := m.get(7)
	require.True(t, ok)
	require.True(t, e.nature.Contains(Search.Union(Bookmark)))

	m.Remove([]uint64{7}, Search)
	e, ok = m.get(7)
	require.True(t, ok)
	require.Equal(t, Bookmark, e.nature)

	m.Remove([]uint64{7}, Bookmark)
	_, ok = m.get(7)
	require.False(t, ok)
	require.Equal(t, 1, m.Len())
}

func TestInsertRange(t *testing.T) {
	m := New()
	m.InsertRange(2, 5, Selection)
	require.Equal(t, 4, m.Len())
	for p := uint64(2); p <= 5; p++ {
		e, ok := m.get(p)
		require.True(t, ok)
		require.True(t, e.nature.Cross(Selection))
	}
}

func TestBreadcrumbsBuildSpansStream(t *testing.T) {
	m := New()
	require.NoError(t, m.SetStreamLen(100, 3, 1, false))
	m.Insert([]uint64{50}, Search)

	require.NoError(t, m.BreadcrumbsBuild(3, 1))
	require.Greater(t, m.Len(), 1)

	first, ok := m.get(0)
	require.True(t, ok)
	require.True(t, first.nature.IsBreadcrumb() || first.nature.IsSeparator())

	pinned, ok := m.get(50)
	require.True(t, ok)
	require.True(t, pinned.nature.Cross(Search))
}

func TestInsertPinAndDropPin(t *testing.T) {
	m := New()
	require.NoError(t, m.SetStreamLen(20, 2, 1, false))
	require.NoError(t, m.BreadcrumbsBuild(2, 1))

	require.NoError(t, m.InsertPin([]uint64{10}, Bookmark, 2, 1))
	e, ok := m.get(10)
	require.True(t, ok)
	require.True(t, e.nature.Cross(Bookmark))

	require.NoError(t, m.DropPin(10, Bookmark))
	e, ok = m.get(10)
	require.True(t, ok)
	require.True(t, e.nature.IsBreadcrumb())
	require.False(t, e.nature.Cross(Bookmark))
}

func TestFrameOrdersAndRanges(t *testing.T) {
	m := New()
	m.Insert([]uint64{1, 2, 3, 10}, Search)

	f, err := m.Frame(0, 3)
	require.NoError(t, err)
	require.Equal(t, 4, f.Len())

	ranges := f.Ranges()
	require.Equal(t, []Range{{From: 1, To: 3}, {From: 10, To: 10}}, ranges)
}

func TestCleanDropsOnlyGivenNature(t *testing.T) {
	m := New()
	m.Insert([]uint64{1}, Search.Union(Breadcrumb))
	m.Insert([]uint64{2}, Breadcrumb)

	m.Clean(Breadcrumb)
	e, ok := m.get(1)
	require.True(t, ok)
	require.Equal(t, Search, e.nature)

	_, ok = m.get(2)
	require.False(t, ok)
}
