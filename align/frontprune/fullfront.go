// Copyright 2019 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package frontprune

// FullFrontEdist runs the wavefront without pruning or history tracking
// over plain byte sequences, recording every front.  The trace/CIGAR
// transcoder re-aligns each tracepoint segment with it; tests use it as
// the unpruned reference.
type FullFrontEdist struct {
	space []frontValue
	trace *Trace
}

// NewFullFrontEdist returns a reusable full-front aligner.
func NewFullFrontEdist() *FullFrontEdist {
	return &FullFrontEdist{trace: NewTrace()}
}

// Trace returns the fronts of the most recent Distance call.  Generation
// d occupies the 2d+1 backrefs preceding those of generation d+1; the
// final generation ends at NumBackrefs.
func (f *FullFrontEdist) Trace() *Trace { return f.trace }

func fullAddMatches(fv *frontValue, diagonal int, useq, vseq []byte) {
	upos, vpos := int(fv.row), int(fv.row)+diagonal
	for upos < len(useq) && vpos < len(vseq) &&
		useq[upos] == vseq[vpos] && !isSpecial(useq[upos]) {
		upos++
		vpos++
	}
	fv.localMatches = uint32(upos - int(fv.row))
	fv.row = uint32(upos)
}

func isSpecial(c byte) bool { return c == 'N' || c == 'n' || c == 0 }

func fullSecondGeneration(base []frontValue, mid int, useq, vseq []byte) {
	base[1] = base[0]
	base[2] = base[0]
	base[0].row++
	base[0].backref = BackrefDeletion
	fullAddMatches(&base[0], 0-mid, useq, vseq)
	base[1].row++
	base[1].backref = BackrefMismatch
	fullAddMatches(&base[1], 1-mid, useq, vseq)
	base[2].backref = BackrefInsertion
	fullAddMatches(&base[2], 2-mid, useq, vseq)
}

func fullNextGeneration(base []frontValue, mid, high int, useq, vseq []byte) {
	insertionValue := base[0]
	bestfront := insertionValue
	bestfront.row++
	bestfront.backref = BackrefDeletion
	base[0] = bestfront
	fullAddMatches(&base[0], 0-mid, useq, vseq)

	replacementValue := base[1]
	if bestfront.row < replacementValue.row+1 {
		bestfront = replacementValue
		bestfront.backref = BackrefDeletion
		bestfront.row++
	} else {
		bestfront.backref = BackrefMismatch
		if bestfront.row == replacementValue.row+1 {
			bestfront.backref |= BackrefDeletion
		}
	}
	base[1] = bestfront
	fullAddMatches(&base[1], 1-mid, useq, vseq)

	for abs := 2; abs <= high; abs++ {
		bestfront = insertionValue
		bestfront.backref = BackrefInsertion
		if abs <= high-1 {
			if bestfront.row < replacementValue.row+1 {
				bestfront = replacementValue
				bestfront.backref = BackrefMismatch
				bestfront.row++
			} else if bestfront.row == replacementValue.row+1 {
				bestfront.backref |= BackrefMismatch
			}
		}
		if abs <= high-2 {
			if bestfront.row < base[abs].row+1 {
				bestfront = base[abs]
				bestfront.backref = BackrefDeletion
				bestfront.row++
			} else if bestfront.row == base[abs].row+1 {
				bestfront.backref |= BackrefDeletion
			}
		}
		if abs < high {
			insertionValue = replacementValue
			replacementValue = base[abs]
		}
		base[abs] = bestfront
		fullAddMatches(&base[abs], abs-mid, useq, vseq)
	}
}

// Distance computes the unit edit distance of useq and vseq with a full
// (unpruned) wavefront, recording every front into Trace().
func (f *FullFrontEdist) Distance(useq, vseq []byte) int {
	ulen, vlen := len(useq), len(vseq)
	sumSeqLength := ulen + vlen
	f.trace.Reset()
	distance := 0
	for ; distance <= sumSeqLength; distance++ {
		if need := 2*distance + 1; need > len(f.space) {
			newSize := len(f.space)*6/5 + 32
			if newSize < need {
				newSize = need
			}
			space := make([]frontValue, newSize)
			copy(space, f.space)
			f.space = space
		}
		base := f.space
		if distance == 0 {
			base[0] = frontValue{}
			fullAddMatches(&base[0], 0, useq, vseq)
		} else if distance == 1 {
			fullSecondGeneration(base, 1, useq, vseq)
		} else {
			fullNextGeneration(base, distance, 2*distance, useq, vseq)
		}
		for abs := 0; abs <= 2*distance; abs++ {
			f.trace.AddBackref(base[abs].backref, base[abs].localMatches)
		}
		if diff := vlen - ulen; diff <= distance && -diff <= distance {
			if int(base[distance+diff].row) == ulen {
				break
			}
		}
	}
	return distance
}
