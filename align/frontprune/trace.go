// Copyright 2019 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package frontprune

import "github.com/grailbio/base/log"

// Backreference bits.  A front stores the union of all optimal
// predecessor steps so that backtracing can recover any optimal path.
const (
	BackrefMismatch  = uint8(1)
	BackrefInsertion = uint8(1 << 1)
	BackrefDeletion  = uint8(1 << 2)
)

// backref is one recorded front: the predecessor bits and the length of
// the match run walked after the edit step.
type backref struct {
	bits uint8
	lcs  uint32
}

// generation describes one recorded wavefront: how far its left trim
// advanced past the previous generation's, and how many antidiagonals
// stayed valid.
type generation struct {
	trimleftDiff uint16
	valid        uint16
}

const maxGenerationValue = 1<<16 - 1

// Trace stores every front value the aligner emits, generation by
// generation.  A (distance, diagonal) pair maps to a backref through the
// cumulative valid widths of the generation table.  The reconstruction
// pass in align/backtrace consumes it.
type Trace struct {
	backrefs         []backref
	gens             []generation
	previousTrimleft int
}

// NewTrace returns an empty trace.
func NewTrace() *Trace { return &Trace{} }

// Reset empties the trace for reuse, keeping its storage.
func (t *Trace) Reset() {
	t.backrefs = t.backrefs[:0]
	t.gens = t.gens[:0]
	t.previousTrimleft = 0
}

// AddGeneration appends a generation header.
func (t *Trace) AddGeneration(trimleft, valid int) {
	var diff int
	if len(t.gens) > 0 {
		if trimleft < t.previousTrimleft {
			log.Panicf("frontprune: trimleft decreased from %d to %d",
				t.previousTrimleft, trimleft)
		}
		diff = trimleft - t.previousTrimleft
	}
	if diff > maxGenerationValue || valid > maxGenerationValue {
		log.Panicf("frontprune: generation header out of range: diff=%d valid=%d",
			diff, valid)
	}
	t.previousTrimleft = trimleft
	t.gens = append(t.gens, generation{trimleftDiff: uint16(diff), valid: uint16(valid)})
}

// AddBackref appends one front's backreference bits and local match
// count.
func (t *Trace) AddBackref(bits uint8, lcs uint32) {
	t.backrefs = append(t.backrefs, backref{bits: bits, lcs: lcs})
}

// NumGenerations returns the number of recorded generations.
func (t *Trace) NumGenerations() int { return len(t.gens) }

// GenerationValid returns the valid width of generation d.
func (t *Trace) GenerationValid(d int) int { return int(t.gens[d].valid) }

// GenerationTrimleftDiff returns generation d's trim-left delta from
// generation d-1.
func (t *Trace) GenerationTrimleftDiff(d int) int { return int(t.gens[d].trimleftDiff) }

// NumBackrefs returns the number of recorded fronts.
func (t *Trace) NumBackrefs() int { return len(t.backrefs) }

// BackrefAt returns the i'th recorded front.
func (t *Trace) BackrefAt(i int) (bits uint8, lcs int) {
	return t.backrefs[i].bits, int(t.backrefs[i].lcs)
}

// ValidTotalFronts sums the valid widths of generations [start, end).
func (t *Trace) ValidTotalFronts(start, end int) int {
	total := 0
	for d := start; d < end; d++ {
		total += int(t.gens[d].valid)
	}
	return total
}
