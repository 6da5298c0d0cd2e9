// Copyright 2019 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package backtrace reconstructs edit scripts from the front generations
// the aligner recorded.  The directed mode greedily follows one optimal
// path; the polished mode searches the recorded predecessors for a path
// whose polish-size suffix keeps a non-negative running score.  Both
// translate backreference bits and local match counts into a forward
// eoplist.List.
package backtrace

import (
	"github.com/grailbio/base/log"
	"github.com/grailbio/ltrharvest/align/eoplist"
	"github.com/grailbio/ltrharvest/align/frontprune"
)

// polishedPointOffset locates pp inside its generation's valid range.
func polishedPointOffset(trace *frontprune.Trace, pp *frontprune.PolishedPoint) int {
	ppDiagonal := pp.AlignedLen - 2*pp.Row
	baseDiagonal := pp.Trimleft - pp.Distance
	if ppDiagonal < baseDiagonal ||
		ppDiagonal >= baseDiagonal+trace.GenerationValid(pp.Distance) {
		log.Panicf("backtrace: polished point diagonal %d outside generation %d",
			ppDiagonal, pp.Distance)
	}
	return ppDiagonal - baseDiagonal
}

// checkDiagonalRun verifies a recorded match run residue by residue when
// sequence handles are available.
func checkDiagonalRun(useq, vseq []byte, diagonal, firstRow, nextRow int) {
	if useq == nil || vseq == nil {
		return
	}
	for row := firstRow; row < nextRow; row++ {
		if useq[row] != vseq[row+diagonal] {
			log.Panicf("backtrace: recorded match run disagrees at u[%d]=%c v[%d]=%c",
				row, useq[row], row+diagonal, vseq[row+diagonal])
		}
	}
}

// Directed follows the preferred edit operation from each recorded front
// greedily (mismatch over insertion over deletion, sticky across steps)
// and appends the alignment ending at pp to eops in forward order.  Used
// when the caller needs some optimal alignment, not a polished one.
func Directed(eops *eoplist.List, trace *frontprune.Trace,
	pp *frontprune.PolishedPoint, useq, vseq []byte) {
	if trace.NumGenerations() == 0 {
		log.Panicf("backtrace: empty trace")
	}
	if useq != nil && vseq != nil {
		eops.SetSequences(useq, vseq)
	}
	firstIndex := eops.Length()
	localOffset := polishedPointOffset(trace, pp)
	remaining := trace.ValidTotalFronts(pp.Distance, trace.NumGenerations())
	globalOffset := trace.NumBackrefs() - remaining

	distance := pp.Distance
	diagonal := pp.AlignedLen - 2*pp.Row
	bits, lcs := trace.BackrefAt(globalOffset + localOffset)
	row := pp.Row
	trimleft := pp.Trimleft
	preferred := frontprune.BackrefMismatch
	ulen, vlen := row, row+diagonal

	for distance > 0 {
		if lcs > 0 {
			eops.Match(lcs)
			checkDiagonalRun(useq, vseq, diagonal, row-lcs, row)
		}
		var nextRowAdd int
		if bits&preferred == 0 {
			switch {
			case bits&frontprune.BackrefMismatch != 0:
				preferred = frontprune.BackrefMismatch
			case bits&frontprune.BackrefInsertion != 0:
				preferred = frontprune.BackrefInsertion
			default:
				preferred = frontprune.BackrefDeletion
			}
		}
		switch preferred {
		case frontprune.BackrefMismatch:
			eops.Mismatch()
			nextRowAdd = 1
		case frontprune.BackrefInsertion:
			if diagonal <= -ulen {
				log.Panicf("backtrace: insertion below diagonal band")
			}
			eops.Insertion()
			diagonal--
			nextRowAdd = 0
		default:
			if diagonal >= vlen {
				log.Panicf("backtrace: deletion above diagonal band")
			}
			eops.Deletion()
			diagonal++
			nextRowAdd = 1
		}
		trimleft -= trace.GenerationTrimleftDiff(distance)
		distance--
		baseDiagonal := trimleft - distance
		localOffset = diagonal - baseDiagonal
		globalOffset -= trace.GenerationValid(distance)
		row -= lcs + nextRowAdd
		bits, lcs = trace.BackrefAt(globalOffset + localOffset)
	}
	if globalOffset+localOffset != 0 || bits != 0 {
		log.Panicf("backtrace: directed walk did not reach the origin")
	}
	if lcs > 0 {
		eops.Match(lcs)
	}
	eops.ReverseSuffixFrom(firstIndex)
}
