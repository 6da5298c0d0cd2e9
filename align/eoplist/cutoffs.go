// Copyright 2019 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package eoplist

// CutoffMode selects how far leading/terminal indels and introns are
// trimmed off a script.
type CutoffMode int

const (
	// CutoffMinimal stops trimming at the first match.
	CutoffMinimal CutoffMode = iota
	// CutoffRelaxed stops trimming after the first matching stretch.
	CutoffRelaxed
	// CutoffStrict stops trimming after a matching stretch whose genomic
	// length reaches the configured minimum exon length.
	CutoffStrict
)

// Cutoffs holds the amounts trimmed from one end of a script: residues of
// the genomic (u) and reference (v) sequences, and encoded operations.
type Cutoffs struct {
	Genomic   int
	Reference int
	Eops      int
}

const codonLength = 3

// genomicStep returns how many genomic residues one step of t consumes.
func genomicStep(t Type, protein bool) int {
	switch t {
	case TypeMatch, TypeMismatch:
		if protein {
			return codonLength
		}
		return 1
	case TypeMismatchWith1Gap:
		return 2
	case TypeMismatchWith2Gaps:
		return 1
	case TypeDeletion:
		if protein {
			return codonLength
		}
		return 1
	case TypeDeletionWith1Gap:
		return 2
	case TypeDeletionWith2Gaps:
		return 1
	case TypeIntron, TypeIntronWith1BaseLeft, TypeIntronWith2BasesLeft:
		return 1
	}
	return 0
}

// referenceStep returns how many reference residues one step of t
// consumes.
func referenceStep(t Type) int {
	switch t {
	case TypeMatch, TypeMismatch, TypeMismatchWith1Gap, TypeMismatchWith2Gaps,
		TypeInsertion:
		return 1
	}
	return 0
}

// cutoffWalk shares the traversal between the three modes.  ops are
// visited front to back; the walk trims indels and introns until the
// mode's stop condition fires.
func cutoffWalk(ops []Op, protein bool, mode CutoffMode, minExonLen int) Cutoffs {
	var c Cutoffs
	// Running matching-stretch state for the relaxed and strict modes.
	exonGenomic := 0
	exonReference := 0
	exonEops := 0
	for _, eop := range ops {
		t := DecodeType(eop, protein)
		length := DecodeLength(eop, protein)
		switch t {
		case TypeMatch, TypeMismatch, TypeMismatchWith1Gap, TypeMismatchWith2Gaps:
			if mode == CutoffMinimal {
				return c
			}
			gen := length * genomicStep(t, protein)
			if mode == CutoffStrict && exonGenomic+gen >= minExonLen {
				// The stretch is long enough; rewind it out of the cutoffs.
				c.Genomic -= exonGenomic
				c.Reference -= exonReference
				c.Eops -= exonEops
				return c
			}
			c.Genomic += gen
			c.Reference += length * referenceStep(t)
			c.Eops++
			exonGenomic += gen
			exonReference += length * referenceStep(t)
			exonEops++
			if mode == CutoffRelaxed {
				// The first matching stretch ends at the next indel/intron;
				// handled below by returning on the stretch boundary.
				continue
			}
		default:
			if mode == CutoffRelaxed && exonEops > 0 {
				// First matching stretch complete: keep it.
				c.Genomic -= exonGenomic
				c.Reference -= exonReference
				c.Eops -= exonEops
				return c
			}
			c.Genomic += length * genomicStep(t, protein)
			c.Reference += length * referenceStep(t)
			c.Eops++
			exonGenomic = 0
			exonReference = 0
			exonEops = 0
		}
	}
	// The walk consumed the whole script without the stop condition
	// firing; keep any trailing matching stretch.
	c.Genomic -= exonGenomic
	c.Reference -= exonReference
	c.Eops -= exonEops
	return c
}

// LeadingCutoffs computes the cutoffs at the front of the script.
func (l *List) LeadingCutoffs(mode CutoffMode, minExonLen int) Cutoffs {
	return cutoffWalk(l.ops, l.protein, mode, minExonLen)
}

// TerminalCutoffs computes the cutoffs at the back of the script.
func (l *List) TerminalCutoffs(mode CutoffMode, minExonLen int) Cutoffs {
	reversed := make([]Op, len(l.ops))
	for i, op := range l.ops {
		reversed[len(l.ops)-1-i] = op
	}
	return cutoffWalk(reversed, l.protein, mode, minExonLen)
}
