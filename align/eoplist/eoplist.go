// Copyright 2019 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package eoplist implements the compact edit-operation encoding shared by
// the aligner and its consumers.  An Op packs a variant tag and a run
// length into 16 bits; a List is an ordered script of Ops plus cached
// indel counts, optional sequence handles, and optional polishing
// metadata.  The cigar string is the canonical external form.
package eoplist

import (
	"github.com/grailbio/base/log"
)

// Op is one encoded edit operation.  The two most significant bits hold
// the variant tag; tag 00 with nonzero low bits is a run of matches whose
// length occupies the remaining 14 bits.  Protein scripts use two further
// tag bits and shrink the run-length field to 12 bits.
type Op uint16

// MaxRunDNA and MaxRunProtein are the per-variant maximum run lengths.
const (
	MaxRunDNA     = 1<<14 - 1
	MaxRunProtein = 1<<12 - 1
)

const (
	opDeletion  Op = 1 << 14 // 01|00, with length bits: intron
	opInsertion Op = 1 << 15 // 10|00
	opMismatch  Op = 3 << 14 // 11|00

	opMismatchWith1Gap  Op = 13 << 12 // 11|01
	opMismatchWith2Gaps Op = 14 << 12 // 11|10
	opDeletionWith1Gap  Op = 5 << 12  // 01|01, with length bits: intron, 1 base left
	opDeletionWith2Gaps Op = 6 << 12  // 01|10, with length bits: intron, 2 bases left

	opDummy Op = 15 << 12 // 11|11, patched to match or mismatch later
)

// Type enumerates the decoded edit-operation variants.
type Type int

const (
	TypeMatch Type = iota
	TypeIntron
	TypeIntronWith1BaseLeft
	TypeIntronWith2BasesLeft
	TypeMismatch
	TypeDeletion
	TypeInsertion
	TypeMismatchWith1Gap
	TypeMismatchWith2Gaps
	TypeDeletionWith1Gap
	TypeDeletionWith2Gaps
	TypeDummy
)

func (t Type) String() string {
	switch t {
	case TypeMatch:
		return "match"
	case TypeIntron:
		return "intron"
	case TypeIntronWith1BaseLeft:
		return "intron(1)"
	case TypeIntronWith2BasesLeft:
		return "intron(2)"
	case TypeMismatch:
		return "mismatch"
	case TypeDeletion:
		return "deletion"
	case TypeInsertion:
		return "insertion"
	case TypeMismatchWith1Gap:
		return "mismatch(1)"
	case TypeMismatchWith2Gaps:
		return "mismatch(2)"
	case TypeDeletionWith1Gap:
		return "deletion(1)"
	case TypeDeletionWith2Gaps:
		return "deletion(2)"
	}
	return "dummy"
}

func maxRun(protein bool) Op {
	if protein {
		return MaxRunProtein
	}
	return MaxRunDNA
}

// DecodeType returns the variant of eop under the given alphabet.
func DecodeType(eop Op, protein bool) Type {
	maxlen := maxRun(protein)
	if eop&maxlen != 0 {
		switch eop &^ maxlen {
		case 0:
			return TypeMatch
		case opDeletion:
			return TypeIntron
		case opDeletionWith1Gap:
			return TypeIntronWith1BaseLeft
		case opDeletionWith2Gaps:
			return TypeIntronWith2BasesLeft
		}
		log.Panicf("eoplist: illegal edit operation %#x", uint16(eop))
	}
	switch eop {
	case opMismatch:
		return TypeMismatch
	case opDeletion:
		return TypeDeletion
	case opInsertion:
		return TypeInsertion
	case opMismatchWith1Gap:
		return TypeMismatchWith1Gap
	case opMismatchWith2Gaps:
		return TypeMismatchWith2Gaps
	case opDeletionWith1Gap:
		return TypeDeletionWith1Gap
	case opDeletionWith2Gaps:
		return TypeDeletionWith2Gaps
	case opDummy:
		return TypeDummy
	}
	log.Panicf("eoplist: illegal edit operation %#x", uint16(eop))
	return TypeMismatch
}

// DecodeLength returns the run length of eop (1 for the single-step
// variants).
func DecodeLength(eop Op, protein bool) int {
	if l := eop & maxRun(protein); l != 0 {
		return int(l)
	}
	return 1
}

func setLength(eop Op, length int, protein bool) Op {
	maxlen := maxRun(protein)
	if length <= 0 || Op(length) > maxlen {
		log.Panicf("eoplist: run length %d out of range", length)
	}
	return (eop &^ maxlen) | Op(length)
}

// SeedRegion renders a seed inside alignment dumps: Offset and Len are in
// u coordinates.
type SeedRegion struct {
	Offset int
	Len    int
}

// PolishingMetadata records the polishing parameters an alignment was
// produced under, for consumers that re-verify endpoint polishing.
type PolishingMetadata struct {
	MatchScore      int
	DifferenceScore int
	PolSize         int
}

// List is an ordered edit-operation script.  Deletion and insertion
// counts are maintained as operations append.  A protein list uses the
// shrunken run-length field and admits the frame-shift variants.
type List struct {
	ops        []Op
	protein    bool
	deletions  int
	insertions int
	dummyIndex int

	useq, vseq []byte
	seed       *SeedRegion
	pol        *PolishingMetadata
}

// NewList returns an empty DNA edit-op list.
func NewList() *List { return &List{dummyIndex: -1} }

// NewProteinList returns an empty protein edit-op list.
func NewProteinList() *List { return &List{protein: true, dummyIndex: -1} }

// Reset empties the list for reuse, dropping sequence handles and
// metadata but keeping the underlying storage.
func (l *List) Reset() {
	l.ops = l.ops[:0]
	l.deletions = 0
	l.insertions = 0
	l.dummyIndex = -1
	l.useq = nil
	l.vseq = nil
	l.seed = nil
	l.pol = nil
}

// Protein reports whether the list carries protein edit operations.
func (l *List) Protein() bool { return l.protein }

// Length returns the number of encoded operations (not alignment
// columns).
func (l *List) Length() int { return len(l.ops) }

// DeletionCount returns the number of deletion steps appended so far.
func (l *List) DeletionCount() int { return l.deletions }

// InsertionCount returns the number of insertion steps appended so far.
func (l *List) InsertionCount() int { return l.insertions }

// SetSequences attaches the two aligned sequences for consumers that
// render or verify the alignment.
func (l *List) SetSequences(useq, vseq []byte) {
	l.useq = useq
	l.vseq = vseq
}

// Sequences returns the attached sequence handles, nil when unset.
func (l *List) Sequences() (useq, vseq []byte) { return l.useq, l.vseq }

// SetSeedRegion records the seed to display in alignment dumps.
func (l *List) SetSeedRegion(offset, length int) {
	l.seed = &SeedRegion{Offset: offset, Len: length}
}

// Seed returns the recorded seed region, nil when unset.
func (l *List) Seed() *SeedRegion { return l.seed }

// SetPolishingMetadata attaches the polishing parameters.
func (l *List) SetPolishingMetadata(matchScore, differenceScore, polSize int) {
	l.pol = &PolishingMetadata{
		MatchScore:      matchScore,
		DifferenceScore: differenceScore,
		PolSize:         polSize,
	}
}

// Polishing returns the attached polishing metadata, nil when unset.
func (l *List) Polishing() *PolishingMetadata { return l.pol }

// At returns the i'th encoded operation.
func (l *List) At(i int) Op { return l.ops[i] }

// Match appends a run of length matches, coalescing into a trailing match
// run that has room left.  Runs longer than the maximum split into
// consecutive records.
func (l *List) Match(length int) {
	if length <= 0 {
		log.Panicf("eoplist: match run length %d", length)
	}
	maxlen := int(maxRun(l.protein))
	if n := len(l.ops); n > 0 && l.dummyIndex != n-1 {
		last := l.ops[n-1]
		if DecodeType(last, l.protein) == TypeMatch {
			if room := maxlen - DecodeLength(last, l.protein); room > 0 {
				take := length
				if take > room {
					take = room
				}
				l.ops[n-1] = setLength(last, DecodeLength(last, l.protein)+take, l.protein)
				length -= take
			}
		}
	}
	for length > maxlen {
		l.ops = append(l.ops, Op(maxlen))
		length -= maxlen
	}
	if length > 0 {
		l.ops = append(l.ops, Op(length))
	}
}

// Mismatch appends a single mismatch.
func (l *List) Mismatch() { l.ops = append(l.ops, opMismatch) }

// Deletion appends a single deletion (consumes one u residue).
func (l *List) Deletion() {
	l.ops = append(l.ops, opDeletion)
	l.deletions++
}

// Insertion appends a single insertion (consumes one v residue).
func (l *List) Insertion() {
	l.ops = append(l.ops, opInsertion)
	l.insertions++
}

// Intron appends an intron run of the given genomic length.
func (l *List) Intron(length int) {
	l.appendRun(opDeletion, length)
}

// IntronWith1BaseLeft appends an intron starting after two bases of a
// codon.  Protein lists only.
func (l *List) IntronWith1BaseLeft(length int) {
	l.mustProtein()
	l.appendRun(opDeletionWith1Gap, length)
}

// IntronWith2BasesLeft appends an intron starting after one base of a
// codon.  Protein lists only.
func (l *List) IntronWith2BasesLeft(length int) {
	l.mustProtein()
	l.appendRun(opDeletionWith2Gaps, length)
}

// MismatchWith1Gap appends a mismatch aligning a codon against two bases.
func (l *List) MismatchWith1Gap() {
	l.ops = append(l.ops, opMismatchWith1Gap)
}

// MismatchWith2Gaps appends a mismatch aligning a codon against one base.
// Protein lists only.
func (l *List) MismatchWith2Gaps() {
	l.mustProtein()
	l.ops = append(l.ops, opMismatchWith2Gaps)
}

// DeletionWith1Gap appends a deletion of two codon bases.  Protein lists
// only.
func (l *List) DeletionWith1Gap() {
	l.mustProtein()
	l.ops = append(l.ops, opDeletionWith1Gap)
	l.deletions++
}

// DeletionWith2Gaps appends a deletion of one codon base.  Protein lists
// only.
func (l *List) DeletionWith2Gaps() {
	l.mustProtein()
	l.ops = append(l.ops, opDeletionWith2Gaps)
	l.deletions++
}

func (l *List) mustProtein() {
	if !l.protein {
		log.Panicf("eoplist: protein edit operation on a DNA list")
	}
}

func (l *List) appendRun(tag Op, length int) {
	if length <= 0 {
		log.Panicf("eoplist: run length %d", length)
	}
	maxlen := int(maxRun(l.protein))
	for length > maxlen {
		l.ops = append(l.ops, tag|Op(maxlen))
		length -= maxlen
	}
	l.ops = append(l.ops, tag|Op(length))
}

// AddDummy reserves a placeholder operation that must be patched via
// SetDummy before the list is consumable.  At most one dummy is live at a
// time.
func (l *List) AddDummy() {
	if l.dummyIndex != -1 {
		log.Panicf("eoplist: dummy already present at index %d", l.dummyIndex)
	}
	l.ops = append(l.ops, opDummy)
	l.dummyIndex = len(l.ops) - 1
}

// SetDummy patches the live dummy to a one-residue match or a mismatch.
func (l *List) SetDummy(match bool) {
	if l.dummyIndex == -1 {
		log.Panicf("eoplist: no dummy to set")
	}
	if match {
		l.ops[l.dummyIndex] = setLength(0, 1, l.protein)
	} else {
		l.ops[l.dummyIndex] = opMismatch
	}
	l.dummyIndex = -1
}

// ContainsDummy reports whether an unpatched dummy remains; such a list
// is not yet consumable.
func (l *List) ContainsDummy() bool { return l.dummyIndex != -1 }

// ReverseSuffixFrom reverses the operations at indices [first, Length()).
// Fronts emit operations in reverse chronological order; the aligner
// calls this once per reconstructed segment.
func (l *List) ReverseSuffixFrom(first int) {
	if first+1 >= len(l.ops) {
		return
	}
	for i, j := first, len(l.ops)-1; i < j; i, j = i+1, j-1 {
		l.ops[i], l.ops[j] = l.ops[j], l.ops[i]
	}
	if l.dummyIndex >= first {
		l.dummyIndex = first + (len(l.ops) - 1 - l.dummyIndex)
	}
}

// Append concatenates other's operations after l's.
func (l *List) Append(other *List) {
	l.concatCheck(other)
	l.ops = append(l.ops, other.ops...)
	l.deletions += other.deletions
	l.insertions += other.insertions
}

// Prepend inserts other's operations before l's.
func (l *List) Prepend(other *List) {
	l.concatCheck(other)
	ops := make([]Op, 0, len(l.ops)+len(other.ops))
	ops = append(ops, other.ops...)
	ops = append(ops, l.ops...)
	l.ops = ops
	if l.dummyIndex != -1 {
		l.dummyIndex += other.Length()
	}
	l.deletions += other.deletions
	l.insertions += other.insertions
}

func (l *List) concatCheck(other *List) {
	if l.protein != other.protein {
		log.Panicf("eoplist: cannot concatenate protein and DNA lists")
	}
	if other.ContainsDummy() {
		log.Panicf("eoplist: cannot concatenate a list containing a dummy")
	}
}

// Equal reports whether the two lists encode the same script.
func (l *List) Equal(other *List) bool {
	if l.protein != other.protein || len(l.ops) != len(other.ops) {
		return false
	}
	for i, op := range l.ops {
		if other.ops[i] != op {
			return false
		}
	}
	return true
}

// LastIsIntron reports whether the trailing operation is one of the
// intron variants.
func (l *List) LastIsIntron() bool {
	if len(l.ops) == 0 {
		return false
	}
	switch DecodeType(l.ops[len(l.ops)-1], l.protein) {
	case TypeIntron, TypeIntronWith1BaseLeft, TypeIntronWith2BasesLeft:
		return true
	}
	return false
}

func isIntronType(t Type) bool {
	return t == TypeIntron || t == TypeIntronWith1BaseLeft ||
		t == TypeIntronWith2BasesLeft
}

// ContainsNoZeroBaseExons reports whether no insertion stretch is
// enclosed by introns on both sides.  A list with a live dummy is not
// consumable and reports false.
func (l *List) ContainsNoZeroBaseExons() bool {
	if l.ContainsDummy() {
		return false
	}
	return containsNoZeroBaseExons(l.ops, l.protein)
}

func containsNoZeroBaseExons(ops []Op, protein bool) bool {
	for i := 1; i+1 < len(ops); i++ {
		if DecodeType(ops[i], protein) != TypeInsertion {
			continue
		}
		if !isIntronType(DecodeType(ops[i-1], protein)) {
			continue
		}
		for j := i + 1; j < len(ops); j++ {
			t := DecodeType(ops[j], protein)
			if isIntronType(t) {
				return false
			}
			if t != TypeInsertion {
				break
			}
		}
	}
	return true
}

// RemoveZeroBaseExons moves every insertion stretch that sits between two
// introns past the right intron, so that no exon has genomic length zero.
// It returns the number of repaired stretches.
func (l *List) RemoveZeroBaseExons() int {
	repaired := 0
	ops := l.ops
	for i := 1; i+1 < len(ops); i++ {
		if DecodeType(ops[i], l.protein) != TypeInsertion ||
			!isIntronType(DecodeType(ops[i-1], l.protein)) {
			continue
		}
		for j := i + 1; j < len(ops); j++ {
			t := DecodeType(ops[j], l.protein)
			if isIntronType(t) {
				// Swap the insertion stretch past the complete intron.
				for j < len(ops) {
					ops[i], ops[j] = ops[j], ops[i]
					i++
					j++
					if j >= len(ops) || !isIntronType(DecodeType(ops[j], l.protein)) {
						break
					}
				}
				repaired++
				break
			}
			if t != TypeInsertion {
				break
			}
		}
	}
	return repaired
}
