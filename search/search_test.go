package search

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCompileLiteralAndRegex(t *testing.T) {
	lit, err := Compile(Filter{Value: "ERROR"})
	require.NoError(t, err)
	ok, _ := lit.Match("2024 ERROR something failed")
	require.True(t, ok)

	re, err := Compile(Filter{Value: `lat=(\d+\.\d+)`, IsRegex: true})
	require.NoError(t, err)
	ok, groups := re.Match("gps lat=12.5 lon=3.2")
	require.True(t, ok)
	require.Equal(t, "12.5", groups[1])
}

func TestCompileRejectsInvalidRegex(t *testing.T) {
	_, err := Compile(Filter{Value: "(unterminated", IsRegex: true})
	require.Error(t, err)
}

func TestRegularSearchHolderScanAndNearest(t *testing.T) {
	filters, err := CompileAll([]Filter{{Value: "ERROR"}, {Value: "WARN"}})
	require.NoError(t, err)
	h := NewRegularSearchHolder(filters)

	lines := map[uint64]string{
		1: "INFO starting",
		3: "ERROR disk full",
		5: "WARN low memory",
		9: "ERROR WARN both",
	}
	for _, row := range []uint64{1, 3, 5, 9} {
		h.Scan(row, lines[row])
	}
	require.Equal(t, 3, h.Len())

	m, ok := h.NearestPosition(4)
	require.True(t, ok)
	require.Equal(t, uint64(5), m.Row) // tie between 3 and 5 resolves upward

	m, ok = h.NearestPosition(100)
	require.True(t, ok)
	require.Equal(t, uint64(9), m.Row)
	require.Equal(t, uint64(0b11), m.FilterIdxs)
}

func TestValuesSearchHolderExtractsNumbers(t *testing.T) {
	filters, err := CompileAll([]Filter{{Value: `temp=(\d+\.\d+)`, IsRegex: true}})
	require.NoError(t, err)
	h := NewValuesSearchHolder(filters)
	h.Scan(1, "sensor temp=21.5 ok")
	h.Scan(2, "sensor temp=22.0 ok")

	series := h.Series(0)
	require.Len(t, series, 2)
	require.Equal(t, 21.5, series[0].Value)
	require.Equal(t, 22.0, series[1].Value)
}

func TestScaledDistributionBucketsByRow(t *testing.T) {
	matches := []FilterMatch{
		{Row: 0, FilterIdxs: 1},
		{Row: 1, FilterIdxs: 1},
		{Row: 8, FilterIdxs: 2},
		{Row: 9, FilterIdxs: 2},
	}
	buckets := ScaledDistribution(matches, 2, 0, 9)
	require.Len(t, buckets, 2)
	require.Equal(t, 2, buckets[0].Count)
	require.Equal(t, uint64(1), buckets[0].FilterMask)
	require.Equal(t, 2, buckets[1].Count)
	require.Equal(t, uint64(2), buckets[1].FilterMask)
}
