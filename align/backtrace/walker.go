// Copyright 2019 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package backtrace

import (
	"github.com/grailbio/base/log"
	"github.com/grailbio/ltrharvest/align/eoplist"
	"github.com/grailbio/ltrharvest/align/frontprune"
)

type pathStep uint8

const (
	stepMismatch pathStep = iota
	stepDeletion
	stepInsertion
)

type stackElem struct {
	diagonal     int
	scoreSum     int
	distance     int
	globalOffset int
	trimleft     int
	lcsSum       int
	pathLength   int
	row          int
	lcs          int
	bits         uint8
	step         pathStep
}

type pathElem struct {
	step pathStep
	lcs  int
}

// Walker owns the DFS stack and path storage for polished backtracing.
// Both grow to the pipeline's high-water mark and are reused across
// calls, so reconstruction is allocation-free on the hot path.
type Walker struct {
	stack []stackElem
	path  []pathElem
}

// NewWalker returns an empty walker.
func NewWalker() *Walker { return &Walker{} }

type polishedSearch struct {
	trace           *frontprune.Trace
	walker          *Walker
	ulen, vlen      int
	matchScore      int
	differenceScore int
	onPolsizeSuffix bool
}

func (ps *polishedSearch) push(matchScore, diagonal, scoreSum, row, distance,
	globalOffset, trimleft, lcsSum int, step pathStep, pathLength int) {
	trimleft -= ps.trace.GenerationTrimleftDiff(distance + 1)
	baseDiagonal := trimleft - distance
	localOffset := diagonal - baseDiagonal
	if localOffset < 0 || localOffset >= ps.trace.GenerationValid(distance) {
		log.Panicf("backtrace: diagonal %d outside generation %d", diagonal, distance)
	}
	globalOffset -= ps.trace.GenerationValid(distance)
	bits, lcs := ps.trace.BackrefAt(globalOffset + localOffset)
	ps.walker.stack = append(ps.walker.stack, stackElem{
		diagonal:     diagonal,
		distance:     distance,
		bits:         bits,
		row:          row,
		lcs:          lcs,
		trimleft:     trimleft,
		globalOffset: globalOffset,
		lcsSum:       lcsSum + lcs,
		scoreSum:     scoreSum + lcs*matchScore,
		pathLength:   pathLength + 1,
		step:         step,
	})
}

// step expands one popped element into its admissible predecessors.  On
// the polish-size suffix every branch whose running score stays
// non-negative is explored; past it the walk is greedy.
func (ps *polishedSearch) step(e *stackElem) {
	if e.bits&frontprune.BackrefInsertion != 0 &&
		(!ps.onPolsizeSuffix || e.scoreSum >= ps.differenceScore) {
		ps.push(ps.matchScore, e.diagonal-1, e.scoreSum-ps.differenceScore,
			e.row-e.lcs, e.distance-1, e.globalOffset, e.trimleft,
			e.lcsSum, stepInsertion, e.pathLength)
		if !ps.onPolsizeSuffix {
			return
		}
	}
	if e.bits&frontprune.BackrefDeletion != 0 &&
		(!ps.onPolsizeSuffix || e.scoreSum >= ps.differenceScore) {
		ps.push(ps.matchScore, e.diagonal+1, e.scoreSum-ps.differenceScore,
			e.row-e.lcs-1, e.distance-1, e.globalOffset, e.trimleft,
			e.lcsSum, stepDeletion, e.pathLength)
		if !ps.onPolsizeSuffix {
			return
		}
	}
	if e.bits&frontprune.BackrefMismatch != 0 &&
		(!ps.onPolsizeSuffix || e.scoreSum >= ps.differenceScore) {
		ps.push(ps.matchScore, e.diagonal, e.scoreSum-ps.differenceScore,
			e.row-e.lcs-1, e.distance-1, e.globalOffset, e.trimleft,
			e.lcsSum, stepMismatch, e.pathLength)
	}
}

// Polished reconstructs an alignment ending at pp whose polish-size
// suffix keeps a non-negative running score (+matchScore per match,
// -differenceScore per difference), appending it to eops in forward
// order.  The walker's stack is reused across calls.
func Polished(eops *eoplist.List, w *Walker, trace *frontprune.Trace,
	pp *frontprune.PolishedPoint, polSize, matchScore, differenceScore int,
	useq, vseq []byte) {
	if trace.NumGenerations() == 0 {
		log.Panicf("backtrace: empty trace")
	}
	if useq != nil && vseq != nil {
		eops.SetSequences(useq, vseq)
	}
	eops.SetPolishingMetadata(matchScore, differenceScore, polSize)
	firstIndex := eops.Length()
	localOffset := polishedPointOffset(trace, pp)
	remaining := trace.ValidTotalFronts(pp.Distance, trace.NumGenerations())
	globalOffset := trace.NumBackrefs() - remaining

	ps := &polishedSearch{
		trace:           trace,
		walker:          w,
		ulen:            pp.Row,
		vlen:            pp.AlignedLen - pp.Row,
		matchScore:      matchScore,
		differenceScore: differenceScore,
		onPolsizeSuffix: true,
	}
	w.stack = w.stack[:0]
	if need := pp.Distance + 1; need > cap(w.path) {
		w.path = make([]pathElem, need)
	}
	w.path = w.path[:pp.Distance+1]

	bits, lcs := trace.BackrefAt(globalOffset + localOffset)
	lastLcs := lcs
	w.stack = append(w.stack, stackElem{
		diagonal:     pp.AlignedLen - 2*pp.Row,
		distance:     pp.Distance,
		bits:         bits,
		row:          pp.Row,
		lcs:          lcs,
		scoreSum:     lcs * matchScore,
		globalOffset: globalOffset,
		trimleft:     pp.Trimleft,
		lcsSum:       lcs,
		pathLength:   0,
	})
	var top stackElem
	for len(w.stack) > 0 {
		top = w.stack[len(w.stack)-1]
		w.stack = w.stack[:len(w.stack)-1]
		if ps.onPolsizeSuffix && top.lcsSum+top.pathLength >= polSize {
			ps.onPolsizeSuffix = false
		}
		if top.pathLength > 0 {
			w.path[top.pathLength-1] = pathElem{step: top.step, lcs: top.lcs}
		}
		if top.bits == 0 {
			break
		}
		checkDiagonalRun(useq, vseq, top.diagonal, top.row-top.lcs, top.row)
		ps.step(&top)
	}
	if top.bits != 0 {
		log.Panicf("backtrace: polished search exhausted without reaching the origin")
	}

	// The path runs endpoint to origin; emit it then flip to forward
	// order.
	if lastLcs > 0 {
		eops.Match(lastLcs)
	}
	for idx := 0; idx < top.pathLength; idx++ {
		switch w.path[idx].step {
		case stepDeletion:
			eops.Deletion()
		case stepInsertion:
			eops.Insertion()
		default:
			eops.Mismatch()
		}
		if w.path[idx].lcs > 0 {
			eops.Match(w.path[idx].lcs)
		}
	}
	eops.ReverseSuffixFrom(firstIndex)
}
