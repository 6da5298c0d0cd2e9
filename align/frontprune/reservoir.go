// Copyright 2019 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package frontprune

// Reservoir is the caller-owned front storage.  It grows monotonically to
// the high-water mark of a pipeline and is reused across EdistInplace
// calls on the same goroutine; generations address it by absolute
// antidiagonal so that once the left trim has advanced far enough the
// live window shifts down in place instead of reallocating.
type Reservoir struct {
	space  []frontValue
	offset int
}

// NewReservoir returns an empty reservoir.
func NewReservoir() *Reservoir { return &Reservoir{} }

// reset prepares the reservoir for a fresh alignment.
func (r *Reservoir) reset() { r.offset = 0 }

// allocate makes room for a generation of the given valid width starting
// at absolute antidiagonal trimleft, shifting the live window down when
// the trim has advanced by more than max(valid, minSizeForShift) slots.
func (r *Reservoir) allocate(minSizeForShift, trimleft, valid int) {
	if need := trimleft - r.offset + valid; need >= len(r.space) {
		newSize := len(r.space)*6/5 + 255
		if newSize <= need {
			newSize = need + 255
		}
		space := make([]frontValue, newSize)
		copy(space, r.space)
		r.space = space
	}
	shiftLimit := valid
	if minSizeForShift > shiftLimit {
		shiftLimit = minSizeForShift
	}
	if trimleft-r.offset > shiftLimit {
		copy(r.space, r.space[trimleft-r.offset:trimleft-r.offset+valid])
		r.offset = trimleft
	}
}

// at returns the front stored at absolute antidiagonal abs.
func (r *Reservoir) at(abs int) *frontValue {
	return &r.space[abs-r.offset]
}

// SpaceBytes returns the reservoir's current footprint, for trim
// statistics.
func (r *Reservoir) SpaceBytes() int {
	return len(r.space) * frontValueBytes
}
