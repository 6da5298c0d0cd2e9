// Copyright 2019 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package frontprune implements the banded front-pruning edit-distance
// aligner.  For increasing distance it evolves a wavefront of fronts on
// consecutive antidiagonals, walks match runs along each diagonal,
// trims fronts that fall behind the best aligned length or whose match
// history degrades, and records every front so align/backtrace can
// reconstruct an edit script.  Polished endpoints are detected through an
// align/polish lattice as the wavefront advances.
package frontprune

import (
	"math"
	"math/bits"

	"github.com/grailbio/ltrharvest/align/polish"
	"github.com/grailbio/ltrharvest/align/seqio"
)

// frontValue is one cell of the wavefront: the u row reached on its
// antidiagonal, the match run walked after the edit step, the recent
// match history, the union of optimal predecessor steps, and the maximum
// number of mismatches on any optimal path to it.
type frontValue struct {
	historyBits   uint64
	row           uint32
	localMatches  uint32
	maxMismatches uint32
	historySize   uint8
	backref       uint8
}

const frontValueBytes = 24

// TrimmingStrategy selects when the per-generation trim rule applies.
type TrimmingStrategy int

const (
	// TrimAlways applies the trim rule every generation.
	TrimAlways TrimmingStrategy = iota
	// TrimOnNewPolishedPoint applies the trim rule in the generation right
	// after the polished point advanced and again once the polished point is
	// more than 30 generations old; in between it skips trimming.
	TrimOnNewPolishedPoint
	// TrimNever disables trimming.
	TrimNever
)

// MinMatchPercent and MaxAlignedLenDiff defaults disable pruning.
const (
	MinMatchPercentDefault   = 1
	MaxAlignedLenDiffDefault = math.MaxUint32
)

// PolishedPoint is the best alignment endpoint found so far.  Monotone:
// once set it is only replaced by a strictly greater AlignedLen.
type PolishedPoint struct {
	AlignedLen    int
	Row           int
	Distance      int
	Trimleft      int
	MaxMismatches int
}

// Options parameterize one EdistInplace call.
type Options struct {
	TrimStrategy TrimmingStrategy
	// MaxHistory is the match-history size in bits; 0 selects 64.
	MaxHistory int
	// MinMatchPercent is the minimum percentage of matches in a front's
	// history for it to survive trimming; 0 selects the permissive
	// default.
	MinMatchPercent int
	// MaxAlignedLenDiff is how far a front's aligned length may lag the
	// generation's best before it is trimmed; 0 selects the permissive
	// default.
	MaxAlignedLenDiff int
	// SeedLength seeds the initial match history: the aligner extends an
	// exact seed match of this length.
	SeedLength int
	// Stats accumulates trimming statistics when non-nil.
	Stats *TrimStats
}

type aligner struct {
	res        *Reservoir
	best       *PolishedPoint
	trace      *Trace
	lattice    *polish.Lattice
	stats      *TrimStats
	useq, vseq *seqio.View
	ulen, vlen int

	maxHistory         int
	maxHistoryMask     uint64
	minMatchPercent128 int
	mid                int // absolute antidiagonal whose diagonal is 0
}

func (a *aligner) diagonal(abs int) int { return abs - a.mid }

func (a *aligner) updateHistory(fv *frontValue) {
	if int(fv.historySize) < a.maxHistory {
		fv.historySize++
	}
	fv.historyBits <<= 1
}

// addMatches walks the front along its diagonal while the sequences
// agree, extending the match history by the run length.
func (a *aligner) addMatches(fv *frontValue, abs int) {
	lcs := seqio.Lcp(a.useq, int(fv.row), a.vseq, int(fv.row)+a.diagonal(abs))
	fv.localMatches = uint32(lcs)
	if lcs > 0 {
		matchMask := ^uint64(0)
		if lcs < 64 {
			matchMask = uint64(1)<<uint(lcs) - 1
		}
		fv.historyBits = fv.historyBits<<uint(lcs) | matchMask
		if int(fv.historySize) < a.maxHistory {
			size := int(fv.historySize) + lcs
			if size > a.maxHistory {
				size = a.maxHistory
			}
			fv.historySize = uint8(size)
		}
		fv.row += uint32(lcs)
	}
	if a.stats != nil {
		a.stats.addMatchLength(lcs)
	}
}

func (a *aligner) alignedLen(fv *frontValue, abs int) int {
	return 2*int(fv.row) + a.diagonal(abs)
}

// firstGeneration seeds the single distance-0 front from the exact seed
// match.
func (a *aligner) firstGeneration(seedLength int) int {
	fv := a.res.at(0)
	fv.row = 0
	if seedLength >= 64 {
		fv.historyBits = ^uint64(0)
	} else {
		fv.historyBits = uint64(1)<<uint(seedLength) - 1
	}
	size := seedLength
	if size > a.maxHistory {
		size = a.maxHistory
	}
	fv.historySize = uint8(size)
	fv.backref = 0
	fv.maxMismatches = 0
	a.addMatches(fv, 0)
	return 2 * int(fv.row)
}

// secondGeneration fans the origin front out to the three distance-1
// fronts.
func (a *aligner) secondGeneration(low int) int {
	origin := *a.res.at(low)
	*a.res.at(low + 1) = origin
	*a.res.at(low + 2) = origin

	fv := a.res.at(low)
	fv.row++
	fv.backref = BackrefDeletion
	a.updateHistory(fv)
	a.addMatches(fv, low)
	maxAlignedLen := a.alignedLen(fv, low)

	fv = a.res.at(low + 1)
	fv.row++
	fv.backref = BackrefMismatch
	fv.maxMismatches++
	a.updateHistory(fv)
	a.addMatches(fv, low+1)
	if al := a.alignedLen(fv, low+1); al > maxAlignedLen {
		maxAlignedLen = al
	}

	fv = a.res.at(low + 2)
	fv.backref = BackrefInsertion
	a.updateHistory(fv)
	a.addMatches(fv, low+2)
	if al := a.alignedLen(fv, low+2); al > maxAlignedLen {
		maxAlignedLen = al
	}
	return maxAlignedLen
}

// nextGeneration evolves the wavefront in place from distance d-1 to d.
// The previous generation's fronts still occupy [low, high-2]; each new
// front is the best of its diagonal, upper, and lower parents, with ties
// accumulating backreference bits.
func (a *aligner) nextGeneration(low, high int) int {
	insertionValue := *a.res.at(low) // previous diagonal one above: deletion parent
	bestfront := insertionValue
	bestfront.row++
	a.updateHistory(&bestfront)
	bestfront.backref = BackrefDeletion
	*a.res.at(low) = bestfront
	a.addMatches(a.res.at(low), low)
	maxAlignedLen := a.alignedLen(a.res.at(low), low)

	replacementValue := *a.res.at(low + 1)
	if bestfront.row < replacementValue.row+1 {
		bestfront = replacementValue
		bestfront.backref = BackrefDeletion
		bestfront.row++
		a.updateHistory(&bestfront)
	} else {
		bestfront.backref = BackrefMismatch
		bestfront.maxMismatches++
		if bestfront.row == replacementValue.row+1 {
			bestfront.backref |= BackrefDeletion
			if bestfront.maxMismatches < replacementValue.maxMismatches {
				bestfront.maxMismatches = replacementValue.maxMismatches
			}
		}
	}
	*a.res.at(low + 1) = bestfront
	a.addMatches(a.res.at(low+1), low+1)
	if al := a.alignedLen(a.res.at(low+1), low+1); al > maxAlignedLen {
		maxAlignedLen = al
	}

	for abs := low + 2; abs <= high; abs++ {
		bestfront = insertionValue
		bestfront.backref = BackrefInsertion
		if abs <= high-1 {
			if bestfront.row < replacementValue.row+1 {
				bestfront = replacementValue
				bestfront.backref = BackrefMismatch
				bestfront.maxMismatches++
				bestfront.row++
			} else if bestfront.row == replacementValue.row+1 {
				bestfront.backref |= BackrefMismatch
				if bestfront.maxMismatches < replacementValue.maxMismatches+1 {
					bestfront.maxMismatches = replacementValue.maxMismatches + 1
				}
			}
		}
		if abs <= high-2 {
			prev := a.res.at(abs)
			if bestfront.row < prev.row+1 {
				bestfront = *prev
				bestfront.backref = BackrefDeletion
				bestfront.row++
			} else if bestfront.row == prev.row+1 {
				bestfront.backref |= BackrefDeletion
			}
		}
		a.updateHistory(&bestfront)
		if abs < high {
			insertionValue = replacementValue
			replacementValue = *a.res.at(abs)
		}
		*a.res.at(abs) = bestfront
		a.addMatches(a.res.at(abs), abs)
		if al := a.alignedLen(a.res.at(abs), abs); al > maxAlignedLen {
			maxAlignedLen = al
		}
	}
	return maxAlignedLen
}

// trimThisEntry applies the two trim criteria to one front.
func (a *aligner) trimThisEntry(fv *frontValue, abs, minLenFromMaxDiff int) bool {
	if a.alignedLen(fv, abs) < minLenFromMaxDiff {
		return true
	}
	matchCount := bits.OnesCount64(fv.historyBits & a.maxHistoryMask)
	return matchCount < int(fv.historySize)*a.minMatchPercent128>>7
}

// trimFront counts how many fronts to drop walking from one end of the
// valid range toward the other.
func (a *aligner) trimFront(upward bool, distance, minLenFromMaxDiff, from, stop int, strategy TrimmingStrategy) int {
	if strategy == TrimNever ||
		(strategy == TrimOnNewPolishedPoint && a.best != nil &&
			a.best.Distance+1 < distance && a.best.Distance+30 >= distance) {
		return 0
	}
	step := 1
	if !upward {
		step = -1
	}
	abs := from
	for ; abs != stop; abs += step {
		fv := a.res.at(abs)
		if int(fv.row) <= a.ulen && int(fv.row)+a.diagonal(abs) <= a.vlen &&
			!a.trimThisEntry(fv, abs, minLenFromMaxDiff) {
			break
		}
	}
	if upward {
		return abs - from
	}
	return from - abs
}

// updateTraceAndPolished records the surviving generation and advances
// the best polished point.
func (a *aligner) updateTraceAndPolished(distance, trimleft, low, high int) {
	for abs := low; abs <= high; abs++ {
		fv := a.res.at(abs)
		alignedLen := a.alignedLen(fv, abs)
		inBounds := int(fv.row) <= a.ulen && int(fv.row)+a.diagonal(abs) <= a.vlen
		if a.best != nil && inBounds && alignedLen > a.best.AlignedLen {
			polished := true
			if a.lattice != nil {
				filled := fv.historyBits
				if polSize := a.lattice.PolSize(); int(fv.historySize) < polSize {
					shift := uint(polSize - int(fv.historySize))
					fillBits := uint64(1)<<shift - 1
					filled |= fillBits << fv.historySize
				}
				polished = a.lattice.IsPolished(filled)
			}
			if polished {
				a.best.AlignedLen = alignedLen
				a.best.Row = int(fv.row)
				a.best.Distance = distance
				a.best.Trimleft = trimleft
				a.best.MaxMismatches = int(fv.maxMismatches)
			}
		}
		if a.trace != nil {
			a.trace.AddBackref(fv.backref, fv.localMatches)
		}
	}
}

// EdistInplace aligns the two views with unit edit distance, pruning the
// wavefront per opts.  The reservoir, best point, and trace are owned by
// the caller and reused across calls; best and trace may be nil.  On
// success the returned distance is at most ulen+vlen; when the wavefront
// dies out or the distance leaves the band, ulen+vlen+1 comes back and
// the caller treats it as "no alignment".
func EdistInplace(res *Reservoir, best *PolishedPoint, trace *Trace,
	lattice *polish.Lattice, opts Options, useq, vseq *seqio.View) int {
	ulen, vlen := useq.Len(), vseq.Len()
	sumSeqLength := ulen + vlen
	minSizeForShift := sumSeqLength / 1000

	maxHistory := opts.MaxHistory
	if maxHistory == 0 {
		maxHistory = 64
	}
	minMatchPercent := opts.MinMatchPercent
	if minMatchPercent == 0 {
		minMatchPercent = MinMatchPercentDefault
	}
	maxAlignedLenDiff := opts.MaxAlignedLenDiff
	if maxAlignedLenDiff == 0 {
		maxAlignedLenDiff = MaxAlignedLenDiffDefault
	}
	// Pre-scale so the percentage check is an integer compare after a
	// right shift by 7.
	minMatchPercent128 := minMatchPercent * 128 / 100
	if minMatchPercent*128%100 != 0 {
		minMatchPercent128++
	}
	maxHistoryMask := ^uint64(0)
	if maxHistory < 64 {
		maxHistoryMask = uint64(1)<<uint(maxHistory) - 1
	}

	a := &aligner{
		res:                res,
		best:               best,
		trace:              trace,
		lattice:            lattice,
		stats:              opts.Stats,
		useq:               useq,
		vseq:               vseq,
		ulen:               ulen,
		vlen:               vlen,
		maxHistory:         maxHistory,
		maxHistoryMask:     maxHistoryMask,
		minMatchPercent128: minMatchPercent128,
	}
	res.reset()
	if trace != nil {
		trace.Reset()
	}

	trimleft := 0
	maxValid, sumValid := 0, 0
	diedOut := false
	distance := 0
	for valid := 1; ; distance, valid = distance+1, valid+2 {
		a.mid = distance
		sumValid += valid
		if valid > maxValid {
			maxValid = valid
		}
		res.allocate(minSizeForShift, trimleft, valid)

		var maxAlignedLen int
		switch {
		case distance == 0:
			maxAlignedLen = a.firstGeneration(opts.SeedLength)
		case valid == 3:
			maxAlignedLen = a.secondGeneration(trimleft)
		default:
			maxAlignedLen = a.nextGeneration(trimleft, trimleft+valid-1)
		}

		minLenFromMaxDiff := 0
		if maxAlignedLen >= maxAlignedLenDiff {
			minLenFromMaxDiff = maxAlignedLen - maxAlignedLenDiff
		}
		trim := a.trimFront(true, distance, minLenFromMaxDiff,
			trimleft, trimleft+valid, opts.TrimStrategy)
		if trim > 0 {
			trimleft += trim
			valid -= trim
		}
		if valid > 0 {
			trim = a.trimFront(false, distance, minLenFromMaxDiff,
				trimleft+valid-1, trimleft-1, opts.TrimStrategy)
			if trim > 0 {
				valid -= trim
			}
		}
		if valid == 0 {
			diedOut = true
			break
		}
		if trace != nil {
			trace.AddGeneration(trimleft, valid)
		}
		a.updateTraceAndPolished(distance, trimleft, trimleft, trimleft+valid-1)

		if diff := vlen - ulen; diff <= distance && -diff <= distance {
			end := distance + diff
			if end >= trimleft && end <= trimleft+valid-1 &&
				int(res.at(end).row) == ulen {
				break
			}
		}
		if distance >= sumSeqLength {
			diedOut = true
			break
		}
	}
	if a.stats != nil {
		a.stats.add(diedOut, sumValid, maxValid, distance, res.SpaceBytes())
	}
	if diedOut {
		return sumSeqLength + 1
	}
	return distance
}
