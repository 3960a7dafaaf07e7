// Package byteset implements a sorted, disjoint set of half-open byte-offset intervals into the
// original source text, used to mark formatting-disabled regions (e.g. a user's "// clang-format
// off"-style directive).
package byteset

import "sort"

// Interval is a half-open byte range [Begin, End) over the original source.
type Interval struct {
	Begin, End int
}

// Set is a sorted, disjoint collection of [Interval]s.
type Set struct {
	intervals []Interval
}

// New builds a Set from the given intervals, merging overlapping or adjacent ones and sorting by
// Begin. Intervals with Begin >= End are discarded as empty.
func New(intervals ...Interval) *Set {
	s := &Set{}
	s.intervals = make([]Interval, 0, len(intervals))
	for _, iv := range intervals {
		if iv.Begin < iv.End {
			s.intervals = append(s.intervals, iv)
		}
	}
	sort.Slice(s.intervals, func(i, j int) bool { return s.intervals[i].Begin < s.intervals[j].Begin })

	merged := s.intervals[:0]
	for _, iv := range s.intervals {
		if len(merged) > 0 && iv.Begin <= merged[len(merged)-1].End {
			if iv.End > merged[len(merged)-1].End {
				merged[len(merged)-1].End = iv.End
			}
			continue
		}
		merged = append(merged, iv)
	}
	s.intervals = merged
	return s
}

// Empty reports whether the set contains no intervals.
func (s *Set) Empty() bool {
	return s == nil || len(s.intervals) == 0
}

// Contains reports whether offset falls within any interval of the set.
func (s *Set) Contains(offset int) bool {
	if s.Empty() {
		return false
	}
	i := sort.Search(len(s.intervals), func(i int) bool { return s.intervals[i].End > offset })
	return i < len(s.intervals) && s.intervals[i].Begin <= offset
}

// Overlaps reports whether [begin, end) intersects any interval of the set.
func (s *Set) Overlaps(begin, end int) bool {
	if s.Empty() || begin >= end {
		return false
	}
	i := sort.Search(len(s.intervals), func(i int) bool { return s.intervals[i].End > begin })
	return i < len(s.intervals) && s.intervals[i].Begin < end
}

// FullyCovers reports whether [begin, end) is entirely contained within a single interval of the
// set.
func (s *Set) FullyCovers(begin, end int) bool {
	if s.Empty() || begin >= end {
		return false
	}
	i := sort.Search(len(s.intervals), func(i int) bool { return s.intervals[i].End > begin })
	return i < len(s.intervals) && s.intervals[i].Begin <= begin && s.intervals[i].End >= end
}
