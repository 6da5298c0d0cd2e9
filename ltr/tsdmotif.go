// Copyright 2019 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package ltr

// This file refines X-drop borders: TSDs and/or the palindromic motif
// are searched in the vicinity of the borders, and the hit minimizing
// the total deviation from the X-drop boundaries wins.

// absDiff returns |a - b|.
func absDiff(a, b int) int {
	if a > b {
		return a - b
	}
	return b - a
}

// searchBestTSDAndMotifAtBorders walks every TSD-candidate repeat and
// every trim (back, forward) of it, accepting hits whose flanking motif
// stays within the allowed mismatches, and keeps the hit closest to the
// X-drop borders.
func (f *Finder) searchBestTSDAndMotifAtBorders(repeats []Repeat, c *Candidate,
	mmLeft, mmRight *int) {
	if len(repeats) > 0 {
		c.TSD = true
	}
	c.MotifNearTSD = false

	oldLeft5 := c.LeftLTR5
	oldRight3 := c.RightLTR3
	diffFromOld1, diffFromOld2 := 0, 0
	motif := f.opts.Motif
	for _, rep := range repeats {
		// motifPos1 is the first position after the left repeat,
		// motifPos2 two positions before the right repeat.
		motifPos1 := rep.Pos1 + rep.Len
		motifPos2 := rep.Pos1 + rep.Offset - 2
		for back := 0; back < rep.Len-f.opts.MinTSD+1; back++ {
			for forward := 0; forward < rep.Len-f.opts.MinTSD+1-back; forward++ {
				tmpLeft, tmpRight := 0, 0
				if f.provider.CharAt(motifPos1-back) != motif.FirstLeft {
					tmpLeft++
				}
				if f.provider.CharAt(motifPos1+1-back) != motif.SecondLeft {
					tmpLeft++
				}
				if f.provider.CharAt(motifPos2+forward) != motif.FirstRight {
					tmpRight++
				}
				if f.provider.CharAt(motifPos2+1+forward) != motif.SecondRight {
					tmpRight++
				}
				if tmpLeft > motif.AllowedMismatches || tmpRight > motif.AllowedMismatches {
					continue
				}
				tsdLen := rep.Len - back - forward
				if tsdLen > f.opts.MaxTSD {
					continue
				}
				newLeft5 := motifPos1 - back
				newRight3 := motifPos2 + 1 + forward
				if !c.MotifNearTSD {
					*mmLeft = tmpLeft
					*mmRight = tmpRight
					c.MotifNearTSD = true
					c.LeftLTR5 = newLeft5
					c.RightLTR3 = newRight3
					c.LenLeftTSD = tsdLen
					c.LenRightTSD = tsdLen
					diffFromOld1 = absDiff(oldLeft5, newLeft5)
					diffFromOld2 = absDiff(oldRight3, newRight3)
					continue
				}
				diffFromNew1 := absDiff(oldLeft5, newLeft5)
				diffFromNew2 := absDiff(oldRight3, newRight3)
				if diffFromNew1+diffFromNew2 < diffFromOld1+diffFromOld2 {
					*mmLeft = tmpLeft
					*mmRight = tmpRight
					c.LeftLTR5 = newLeft5
					c.RightLTR3 = newRight3
					c.LenLeftTSD = tsdLen
					c.LenRightTSD = tsdLen
					diffFromOld1 = diffFromNew1
					diffFromOld2 = diffFromNew2
				}
			}
		}
	}
}

// searchMotifOnlyBorders searches the motif alone at the 5' border of
// the left LTR and the 3' border of the right LTR.
func (f *Finder) searchMotifOnlyBorders(c *Candidate,
	startLeft, endLeft, startRight, endRight int, mmLeft, mmRight *int) {
	motif := f.opts.Motif
	motif1, motif2 := false, false
	bestMismatches := 0
	oldLeft5 := c.LeftLTR5
	oldRight3 := c.RightLTR3
	diffFromOld := 0

	for idx := startLeft; idx < endLeft; idx++ {
		tmp := 0
		if f.provider.CharAt(idx) != motif.FirstLeft {
			tmp++
		}
		if f.provider.CharAt(idx+1) != motif.SecondLeft {
			tmp++
		}
		if tmp+*mmLeft > motif.AllowedMismatches {
			continue
		}
		if !motif1 {
			bestMismatches = tmp
			c.LeftLTR5 = idx
			motif1 = true
			diffFromOld = absDiff(oldLeft5, idx)
		} else if diff := absDiff(oldLeft5, idx); diff < diffFromOld {
			bestMismatches = tmp
			c.LeftLTR5 = idx
			diffFromOld = diff
		}
	}
	*mmLeft += bestMismatches

	bestMismatches = 0
	diffFromOld = 0
	for idx := startRight + 1; idx <= endRight; idx++ {
		tmp := 0
		if f.provider.CharAt(idx) != motif.SecondRight {
			tmp++
		}
		if f.provider.CharAt(idx-1) != motif.FirstRight {
			tmp++
		}
		if tmp+*mmRight > motif.AllowedMismatches {
			continue
		}
		if !motif2 {
			bestMismatches = tmp
			c.RightLTR3 = idx
			motif2 = true
			diffFromOld = absDiff(oldRight3, idx)
		} else if diff := absDiff(oldRight3, idx); diff < diffFromOld {
			bestMismatches = tmp
			c.RightLTR3 = idx
			diffFromOld = diff
		}
	}
	*mmRight += bestMismatches

	c.MotifNearTSD = motif1 && motif2
}

// searchMotifOnlyInside searches the motif at the 3' border of the left
// LTR and the 5' border of the right LTR.
func (f *Finder) searchMotifOnlyInside(c *Candidate, mmLeft, mmRight *int) {
	motif := f.opts.Motif
	vicinity := f.opts.Vicinity

	startLeft := c.LeftLTR3 - vicinity
	if startLeft < c.LeftLTR5+2 {
		startLeft = c.LeftLTR5 + 2
	}
	endLeft := c.LeftLTR3 + vicinity
	if endLeft > c.RightLTR5-1 {
		endLeft = c.RightLTR5 - 1
	}
	startRight := c.RightLTR5 - vicinity
	if startRight < c.LeftLTR3+1 {
		startRight = c.LeftLTR3 + 1
	}
	endRight := c.RightLTR5 + vicinity
	if endRight > c.RightLTR3-2 {
		endRight = c.RightLTR3 - 2
	}

	motif1, motif2 := false, false
	bestMismatches := 0
	oldLeft3 := c.LeftLTR3
	oldRight5 := c.RightLTR5
	diffFromOld := 0

	for idx := startLeft + 1; idx <= endLeft; idx++ {
		tmp := 0
		if f.provider.CharAt(idx) != motif.SecondRight {
			tmp++
		}
		if f.provider.CharAt(idx-1) != motif.FirstRight {
			tmp++
		}
		if tmp+*mmLeft > motif.AllowedMismatches {
			continue
		}
		if !motif1 {
			bestMismatches = tmp
			c.LeftLTR3 = idx
			motif1 = true
			diffFromOld = absDiff(oldLeft3, idx)
		} else if diff := absDiff(oldLeft3, idx); diff < diffFromOld {
			bestMismatches = tmp
			c.LeftLTR3 = idx
			diffFromOld = diff
		}
	}
	*mmLeft += bestMismatches

	bestMismatches = 0
	diffFromOld = 0
	for idx := startRight; idx < endRight; idx++ {
		tmp := 0
		if f.provider.CharAt(idx) != motif.FirstLeft {
			tmp++
		}
		if f.provider.CharAt(idx+1) != motif.SecondLeft {
			tmp++
		}
		if tmp+*mmRight > motif.AllowedMismatches {
			continue
		}
		if !motif2 {
			bestMismatches = tmp
			c.RightLTR5 = idx
			motif2 = true
			diffFromOld = absDiff(oldRight5, idx)
		} else if diff := absDiff(oldRight5, idx); diff < diffFromOld {
			bestMismatches = tmp
			c.RightLTR5 = idx
			diffFromOld = diff
		}
	}
	*mmRight += bestMismatches

	c.MotifFarTSD = motif1 && motif2
}

// extract copies provider residues [from, to] inclusive.
func (f *Finder) extract(from, to int) []byte {
	out := make([]byte, 0, to-from+1)
	for pos := from; pos <= to; pos++ {
		out = append(out, f.provider.CharAt(pos))
	}
	return out
}

// findCorrectBoundaries refines the candidate's borders: first the outer
// pair (left 5', right 3') via TSD and/or motif, then, when a motif is
// configured, the inner pair.
func (f *Finder) findCorrectBoundaries(c *Candidate) {
	mmLeft, mmRight := 0, 0

	seqStart := f.provider.SequenceStart(c.Contig)
	seqEnd := seqStart + f.provider.SequenceLength(c.Contig) - 1
	vicinity := f.opts.Vicinity

	startLeft := c.LeftLTR5 - vicinity
	if startLeft < seqStart {
		startLeft = seqStart
	}
	endLeft := c.LeftLTR5 + vicinity
	if endLeft > c.LeftLTR3-2 { // -2 because of a possible motif
		endLeft = c.LeftLTR3 - 2
	}
	startRight := c.RightLTR3 - vicinity
	if startRight < c.RightLTR5+2 {
		startRight = c.RightLTR5 + 2
	}
	endRight := c.RightLTR3 + vicinity
	if endRight > seqEnd {
		endRight = seqEnd
	}

	if f.opts.MinTSD > 1 {
		db := f.extract(startLeft, endLeft)
		query := f.extract(startRight, endRight)
		repeats := matchingSubstrings(db, query, f.opts.MinTSD, startLeft, startRight)
		f.searchBestTSDAndMotifAtBorders(repeats, c, &mmLeft, &mmRight)
	} else {
		f.searchMotifOnlyBorders(c, startLeft, endLeft, startRight, endRight,
			&mmLeft, &mmRight)
	}
	if f.opts.Motif.Constrained() {
		f.searchMotifOnlyInside(c, &mmLeft, &mmRight)
	}
}
