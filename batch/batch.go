// Package batch produces the query sub-batch schedule for capped range
// search: contiguous index ranges of geometrically increasing size.
//
// Small initial batches let the adaptive radius converge on a workable
// threshold before large batches commit to expensive scans.
package batch

import "iter"

const (
	// InitialSize is the size of the first range.
	InitialSize = 32

	// MaxSize caps the growth of subsequent ranges.
	MaxSize = 20000
)

// Range is a half-open interval of query row indices.
type Range struct {
	Start int
	End   int
}

// Len returns the number of indices covered by the range.
func (r Range) Len() int { return r.End - r.Start }

// Ranges returns a lazy, finite sequence of contiguous ranges covering
// [0, n) exactly once, in order, with no gaps or overlaps. The first
// range has InitialSize elements; each subsequent range doubles until
// MaxSize, after which the size is held constant. The final range may be
// shorter to reach n exactly. Re-ranging the sequence replays it from
// InitialSize.
func Ranges(n int) iter.Seq[Range] {
	return func(yield func(Range) bool) {
		size := InitialSize
		for start := 0; start < n; {
			end := start + size
			if end > n {
				end = n
			}
			if !yield(Range{Start: start, End: end}) {
				return
			}
			start = end
			if size < MaxSize {
				size *= 2
			}
		}
	}
}
