// Copyright 2019 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package polish decides whether an alignment endpoint is "polished": the
// running score of its recent match history never goes negative.  The
// decision is precomputed into a lattice of 2^cutDepth entries so the
// front aligner answers it with two table loads instead of an O(history)
// walk.
package polish

import (
	"github.com/grailbio/base/log"
)

// maxCutDepth bounds the lattice size; a deeper cut would need a table
// larger than 2^15 entries for no measurable gain.
const maxCutDepth = 15

type value struct {
	scoreSum    int16
	diffFromMax int16
}

// Lattice is the read-only polishing table.  Build it once per
// configuration with New or NewWithBias.
type Lattice struct {
	cutDepth uint
	mask     uint64
	values   []value

	// MatchScore and DifferenceScore are the per-step contributions of a
	// match and of a mismatch/indel to the running history score.
	MatchScore      int
	DifferenceScore int
}

// New returns a lattice for the given error percentage and history size
// with a neutral match-score bias.
func New(errorPercentage float64, historySize uint) *Lattice {
	return NewWithBias(errorPercentage, 1.0, historySize)
}

// NewWithBias returns a lattice whose match score is scaled by
// matchScoreBias.  historySize 0 selects the maximum cut depth.
func NewWithBias(errorPercentage, matchScoreBias float64, historySize uint) *Lattice {
	cutDepth := uint(maxCutDepth)
	if historySize != 0 && historySize/2 < cutDepth {
		cutDepth = historySize / 2
	}
	matchScore := int(20.0 * errorPercentage * matchScoreBias)
	if matchScore > 1000 {
		log.Panicf("polish: match score %d exceeds 1000 (error percentage %f, bias %f)",
			matchScore, errorPercentage, matchScoreBias)
	}
	l := &Lattice{
		cutDepth:        cutDepth,
		mask:            uint64(1)<<cutDepth - 1,
		values:          make([]value, 1<<cutDepth),
		MatchScore:      matchScore,
		DifferenceScore: 1000 - matchScore,
	}
	// Fill every d-bit prefix: walk its bits most significant first,
	// tracking the running score and the maximum over proper prefixes.
	for prefix := range l.values {
		score, maxScore := 0, 0
		for bit := int(cutDepth) - 1; bit >= 0; bit-- {
			if score > maxScore {
				maxScore = score
			}
			if prefix>>uint(bit)&1 == 1 {
				score += l.MatchScore
			} else {
				score -= l.DifferenceScore
			}
		}
		l.values[prefix] = value{
			scoreSum:    int16(score),
			diffFromMax: int16(score - maxScore),
		}
	}
	return l
}

// CutDepth returns the lattice's cut depth d; histories of 2d bits are
// judged.
func (l *Lattice) CutDepth() uint { return l.cutDepth }

// PolSize returns the number of history bits the polishing test reads.
func (l *Lattice) PolSize() int { return int(2 * l.cutDepth) }

// MaxValue returns the all-matches history of PolSize bits.
func (l *Lattice) MaxValue() uint64 {
	return uint64(1)<<(2*l.cutDepth) - 1
}

// IsPolished reports whether the 2d-bit match history (bit 0 most recent,
// set bits are matches) keeps a non-negative running score over every
// suffix of recent steps.
func (l *Lattice) IsPolished(history uint64) bool {
	lo := l.values[history&l.mask]
	if lo.diffFromMax < 0 {
		return false
	}
	hi := l.values[(history>>l.cutDepth)&l.mask]
	return int(lo.scoreSum)+int(hi.diffFromMax) >= 0
}

// IsPolishedBruteForce recomputes the polishing decision by walking the
// history bit by bit.  It exists to cross-check IsPolished in tests.
func (l *Lattice) IsPolishedBruteForce(history uint64) bool {
	sum := 0
	for idx := uint(0); idx < 2*l.cutDepth; idx++ {
		if history>>idx&1 == 1 {
			sum += l.MatchScore
		} else {
			sum -= l.DifferenceScore
		}
		if sum < 0 {
			return false
		}
	}
	return true
}
