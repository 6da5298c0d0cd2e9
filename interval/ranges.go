package interval

import (
	"sort"

	"github.com/grailbio/base/log"
)

// Ranges is an interval-union: a sorted, merged set of disjoint half-open
// [start, end) ranges.  It is represented the same way bedunion.go
// represented chromosome interval sets -- a flat, increasing []PosType where
// interval k occupies elements [2k] and [2k+1] -- since that reuses
// sort.Search directly and keeps inversion a one-pass operation.
type Ranges struct {
	endpoints []PosType
}

// Entry is a single materialized [Start, End) range.
type Entry struct {
	Start PosType
	End   PosType
}

// Len returns the number of disjoint ranges.
func (r *Ranges) Len() int {
	return len(r.endpoints) / 2
}

// At returns the k'th disjoint range, in increasing order.
func (r *Ranges) At(k int) Entry {
	return Entry{Start: r.endpoints[2*k], End: r.endpoints[2*k+1]}
}

// List materializes every disjoint range, in increasing order.
func (r *Ranges) List() []Entry {
	out := make([]Entry, r.Len())
	for k := range out {
		out[k] = r.At(k)
	}
	return out
}

// Contains reports whether pos falls inside one of the ranges.
func (r *Ranges) Contains(pos PosType) bool {
	return SearchPosTypes(r.endpoints, pos+1).Contained()
}

// Intersects reports whether [start, end) overlaps any range in r.
func (r *Ranges) Intersects(start, end PosType) bool {
	if end <= start {
		return false
	}
	idx := SearchPosTypes(r.endpoints, start+1)
	return idx.Contained() || (!idx.Finished(r.endpoints) && r.endpoints[idx] < end)
}

// Scanner returns a UnionScanner over r's ranges, for in-order
// iteration.
func (r *Ranges) Scanner() UnionScanner {
	return NewUnionScanner(r.endpoints)
}

// Invert returns the complement of r within [lo, hi).
func (r *Ranges) Invert(lo, hi PosType) Ranges {
	var b RangesBuilder
	prev := lo
	for _, e := range r.List() {
		if e.Start > prev {
			b.Add(prev, e.Start)
		}
		if e.End > prev {
			prev = e.End
		}
	}
	if hi > prev {
		b.Add(prev, hi)
	}
	return b.Build()
}

// RangesBuilder accumulates [start, end) ranges, sorted by Start, merging
// touching/overlapping ones as it goes -- the same incremental-merge
// algorithm bedunion.go's scanBEDUnion used while reading a sorted BED file,
// minus the file I/O.
type RangesBuilder struct {
	endpoints    []PosType
	havePending  bool
	pendingStart PosType
	pendingEnd   PosType
}

// Add appends a new range.  Ranges must be added in nondecreasing Start
// order; it panics otherwise.
func (b *RangesBuilder) Add(start, end PosType) {
	if end <= start {
		return
	}
	if !b.havePending {
		b.pendingStart, b.pendingEnd = start, end
		b.havePending = true
		return
	}
	if start > b.pendingEnd {
		b.endpoints = append(b.endpoints, b.pendingStart, b.pendingEnd)
		b.pendingStart, b.pendingEnd = start, end
		return
	}
	if start < b.pendingStart {
		log.Panicf("interval.RangesBuilder.Add: unsorted input (start %d < previous %d)", start, b.pendingStart)
	}
	if end > b.pendingEnd {
		b.pendingEnd = end
	}
}

// Build finalizes the builder into an immutable Ranges.  The builder may
// continue to be used afterwards; Build takes a fresh snapshot each time.
func (b *RangesBuilder) Build() Ranges {
	endpoints := append([]PosType{}, b.endpoints...)
	if b.havePending {
		endpoints = append(endpoints, b.pendingStart, b.pendingEnd)
	}
	return Ranges{endpoints: endpoints}
}

// NewRanges builds a Ranges directly from a slice of entries, which need not
// be pre-sorted or pre-merged.
func NewRanges(entries []Entry) Ranges {
	sorted := append([]Entry{}, entries...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Start != sorted[j].Start {
			return sorted[i].Start < sorted[j].Start
		}
		return sorted[i].End < sorted[j].End
	})
	var b RangesBuilder
	for _, e := range sorted {
		b.Add(e.Start, e.End)
	}
	return b.Build()
}
