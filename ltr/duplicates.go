// Copyright 2019 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package ltr

// RemoveDuplicates marks later candidates with the same outer boundaries
// as skipped.  Exact duplicates occur when different seeds extend to the
// same borders.
func RemoveDuplicates(candidates []Candidate) {
	for i := range candidates {
		if candidates[i].Skipped {
			continue
		}
		for j := i + 1; j < len(candidates); j++ {
			if candidates[j].Skipped {
				continue
			}
			if candidates[i].LeftLTR5 == candidates[j].LeftLTR5 &&
				candidates[i].RightLTR3 == candidates[j].RightLTR3 {
				candidates[j].Skipped = true
			}
		}
	}
}

// RemoveOverlaps resolves overlapping candidates.  With noOverlap every
// member of an overlapping cluster drops out; otherwise the
// lower-similarity candidate drops, ties keeping the earlier one.
func RemoveOverlaps(candidates []Candidate, noOverlap bool) {
	for i := range candidates {
		if candidates[i].Skipped {
			continue
		}
		start := candidates[i].LeftLTR5
		end := candidates[i].RightLTR3
		for j := i + 1; j < len(candidates); j++ {
			if candidates[j].Skipped {
				continue
			}
			if end < candidates[j].LeftLTR5 || candidates[j].RightLTR3 < start {
				continue
			}
			if noOverlap {
				// The whole cluster drops; keep widening the window so
				// chained overlaps drop too.
				if candidates[j].LeftLTR5 < start {
					start = candidates[j].LeftLTR5
				}
				if candidates[j].RightLTR3 > end {
					end = candidates[j].RightLTR3
				}
				candidates[i].Skipped = true
				candidates[j].Skipped = true
			} else if candidates[i].Similarity >= candidates[j].Similarity {
				candidates[j].Skipped = true
			} else {
				candidates[i].Skipped = true
				break
			}
		}
	}
}

// Surviving returns the candidates not marked skipped, in input order.
func Surviving(candidates []Candidate) []Candidate {
	var out []Candidate
	for _, c := range candidates {
		if !c.Skipped {
			out = append(out, c)
		}
	}
	return out
}
