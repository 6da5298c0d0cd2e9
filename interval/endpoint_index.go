package interval

import (
	"math"
	"sort"
)

// An interval-union is stored as a sorted []PosType of interval
// endpoints: interval k occupies elements [2k] and [2k+1].  This file
// holds the endpoint coordinate type and the two access paths over that
// representation: point lookup via SearchPosTypes/EndpointIndex, and
// in-order iteration via UnionScanner (package dust's fast-replay cursor
// over its masked ranges).

// PosType is the type used to represent interval coordinates.  int32 is
// wide enough for any single contig this toolkit processes.
type PosType int32

// PosTypeMax is the maximum value that can be represented by a PosType.
const PosTypeMax = math.MaxInt32

// EndpointIndex represents the result of SearchPosTypes(endpoints,
// pos+1).  NOTE THE "+1"!  This is necessary to get SearchPosTypes to
// line up with our usual left-closed right-open intervals.
type EndpointIndex uint32

// SearchPosTypes returns the index of x in a[], or the position where x
// would be inserted if x isn't in a (this could be len(a)).  It's exactly
// the same as sort.SearchInts(), except for PosType.
func SearchPosTypes(a []PosType, x PosType) EndpointIndex {
	return EndpointIndex(sort.Search(len(a), func(i int) bool { return a[i] >= x }))
}

// Contained returns whether we're inside an interval.
func (ei EndpointIndex) Contained() bool {
	return ei&1 != 0
}

// Finished returns whether we're past all the intervals.
func (ei EndpointIndex) Finished(endpoints []PosType) bool {
	return ei >= EndpointIndex(len(endpoints))
}

// UnionScanner iterates over an interval-union in position order.
// Invariants:
//   endpointIdx == SearchPosTypes(endpoints, pos+1)
//   pos is either contained in an interval, or is PosTypeMax
type UnionScanner struct {
	endpoints   []PosType
	pos         PosType
	endpointIdx EndpointIndex
}

// NewUnionScanner returns a UnionScanner initialized to the first
// interval.
func NewUnionScanner(endpoints []PosType) UnionScanner {
	startPos := PosType(PosTypeMax)
	startEndpointIdx := EndpointIndex(0)
	// May as well make this not crash when there are no intervals.
	if len(endpoints) >= 1 {
		startPos = endpoints[0]
		startEndpointIdx = 1
	}
	return UnionScanner{
		endpoints:   endpoints,
		pos:         startPos,
		endpointIdx: startEndpointIdx,
	}
}

// Pos returns the next position to be iterated over, or PosTypeMax if
// there aren't any.
func (us *UnionScanner) Pos() PosType {
	return us.pos
}

// Scan is written so that the following loop can be used to iterate over
// all within-interval positions up to (and not including) limit:
//   for us.Scan(&start, &end, limit) {
//     for pos := start; pos < end; pos++ {
//       // ...do stuff with pos...
//     }
//   }
func (us *UnionScanner) Scan(start *PosType, end *PosType, limit PosType) bool {
	if us.pos >= limit {
		return false
	}
	*start = us.pos
	intervalEnd := us.endpoints[us.endpointIdx]
	if intervalEnd > limit {
		us.pos = limit
		*end = limit
		return true
	}
	*end = intervalEnd
	us.endpointIdx++
	if us.endpointIdx.Finished(us.endpoints) {
		us.pos = PosTypeMax
	} else {
		us.pos = us.endpoints[us.endpointIdx]
		us.endpointIdx++
	}
	return true
}
