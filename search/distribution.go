package search

// Bucket is one cell of a scaled distribution: how many matches fell in
// this bucket's row range, and the union of which filters matched
// within it (spec.md §4.6).
type Bucket struct {
	Count      int
	FilterMask uint64
}

// ScaledDistribution buckets matches into datasetLen equal-width buckets
// spanning [from, to] (inclusive row range), regardless of time — a
// plain equal-width partition over row position, not over wall-clock
// time (spec.md §4.6). Matches outside [from, to] are ignored. When the
// range is empty (to < from) or datasetLen <= 0, ScaledDistribution
// returns nil.
func ScaledDistribution(matches []FilterMatch, datasetLen int, from, to uint64) []Bucket {
	if datasetLen <= 0 || to < from {
		return nil
	}
	buckets := make([]Bucket, datasetLen)
	span := to - from + 1
	width := span / uint64(datasetLen)
	if width == 0 {
		width = 1
	}
	for _, m := range matches {
		if m.Row < from || m.Row > to {
			continue
		}
		idx := int((m.Row - from) / width)
		if idx >= datasetLen {
			idx = datasetLen - 1
		}
		buckets[idx].Count++
		buckets[idx].FilterMask |= m.FilterIdxs
	}
	return buckets
}

// GetSearchMap is a legacy compatibility wrapper over ScaledDistribution
// defaulting datasetLen to the full result length over the rows from
// the first to the last match (matches closer together than the bucket
// width share a bucket, so some buckets may stay empty), matching spec.md's Open Question decision to keep
// both GetSearchMap and GetScaledMap rather than pick one.
func GetSearchMap(matches []FilterMatch) []Bucket {
	if len(matches) == 0 {
		return nil
	}
	return ScaledDistribution(matches, len(matches), matches[0].Row, matches[len(matches)-1].Row)
}
