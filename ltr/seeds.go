// Copyright 2019 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package ltr

import (
	"github.com/grailbio/ltrharvest/align/seqio"
	"github.com/grailbio/ltrharvest/biosimd"
)

// Repeat is one maximal exact seed pair: the left copy starts at Pos1,
// the right copy Offset residues further.
type Repeat struct {
	Pos1   int
	Offset int
	Len    int
	Contig int
}

// SeedMatch is what a repeat enumerator emits.
type SeedMatch struct {
	Len        int
	Pos1       int
	Pos2       int
	SameContig bool
	Contig     int
}

// SeedEnumerator produces all maximal exact self-matches of at least
// minLen residues.  Production setups plug in a suffix-array based
// enumerator; KmerSeedEnumerator serves moderate inputs.
type SeedEnumerator interface {
	EnumerateSeeds(minLen int, emit func(SeedMatch)) error
}

// seedStore filters enumerated matches into seed repeats the way the
// pipeline consumes them: same contig, length within the LTR maximum,
// offset within the distance window.
func seedStore(repeats *[]Repeat, opts *Options) func(SeedMatch) {
	return func(m SeedMatch) {
		if !m.SameContig {
			return
		}
		pos1, pos2 := m.Pos1, m.Pos2
		if pos1 > pos2 {
			pos1, pos2 = pos2, pos1
		}
		offset := pos2 - pos1
		if m.Len > opts.MaxLTRLen || offset < opts.MinDistance || offset > opts.MaxDistance {
			return
		}
		*repeats = append(*repeats, Repeat{
			Pos1:   pos1,
			Offset: offset,
			Len:    m.Len,
			Contig: m.Contig,
		})
	}
}

func residueOK(c byte) bool {
	return c != seqio.Separator && !biosimd.IsWildcard(c)
}

// KmerSeedEnumerator finds maximal self-matches by anchoring on exact
// k-mers of the minimum length and extending each anchor pair outward.
type KmerSeedEnumerator struct {
	Provider seqio.Provider
}

// EnumerateSeeds emits every maximal exact self-match of at least minLen
// residues, each pair once.  Matches never span separators or wildcards.
func (e *KmerSeedEnumerator) EnumerateSeeds(minLen int, emit func(SeedMatch)) error {
	p := e.Provider
	n := p.Len()
	data := make([]byte, n)
	for i := 0; i < n; i++ {
		data[i] = p.CharAt(i)
	}
	anchors := make(map[string][]int)
	for i := 0; i+minLen <= n; i++ {
		ok := true
		for j := i; j < i+minLen; j++ {
			if !residueOK(data[j]) {
				ok = false
				break
			}
		}
		if !ok {
			continue
		}
		anchors[string(data[i:i+minLen])] = append(anchors[string(data[i:i+minLen])], i)
	}
	contigOf := func(pos int) (int, bool) {
		for c := 0; c < p.NumSequences(); c++ {
			start := p.SequenceStart(c)
			if pos >= start && pos < start+p.SequenceLength(c) {
				return c, true
			}
		}
		return 0, false
	}
	for _, positions := range anchors {
		for a := 0; a < len(positions); a++ {
			for b := a + 1; b < len(positions); b++ {
				p1, p2 := positions[a], positions[b]
				// Left-maximality: only report each maximal pair once,
				// from its leftmost anchor.
				if p1 > 0 && p2 > 0 && data[p1-1] == data[p2-1] &&
					residueOK(data[p1-1]) {
					continue
				}
				length := minLen
				for p1+length < n && p2+length < n &&
					data[p1+length] == data[p2+length] &&
					residueOK(data[p1+length]) {
					length++
				}
				c1, ok1 := contigOf(p1)
				c2, ok2 := contigOf(p2)
				if !ok1 || !ok2 {
					continue
				}
				emit(SeedMatch{
					Len:        length,
					Pos1:       p1,
					Pos2:       p2,
					SameContig: c1 == c2,
					Contig:     c1,
				})
			}
		}
	}
	return nil
}

// matchingSubstrings finds maximal common substrings of at least minLen
// residues between two short stretches, for the TSD search.  Positions in
// the returned repeats are absolute: offset1/offset2 locate the
// stretches in provider coordinates.
func matchingSubstrings(db, query []byte, minLen, offset1, offset2 int) []Repeat {
	var repeats []Repeat
	if minLen <= 0 || len(db) < minLen || len(query) < minLen {
		return repeats
	}
	anchors := make(map[string][]int)
	for i := 0; i+minLen <= len(db); i++ {
		ok := true
		for j := i; j < i+minLen; j++ {
			if !residueOK(db[j]) {
				ok = false
				break
			}
		}
		if ok {
			anchors[string(db[i:i+minLen])] = append(anchors[string(db[i:i+minLen])], i)
		}
	}
	for qi := 0; qi+minLen <= len(query); qi++ {
		for _, di := range anchors[string(query[qi:qi+minLen])] {
			if di > 0 && qi > 0 && db[di-1] == query[qi-1] && residueOK(db[di-1]) {
				continue
			}
			length := minLen
			for di+length < len(db) && qi+length < len(query) &&
				db[di+length] == query[qi+length] &&
				residueOK(db[di+length]) {
				length++
			}
			repeats = append(repeats, Repeat{
				Pos1:   offset1 + di,
				Offset: offset2 + qi - (offset1 + di),
				Len:    length,
			})
		}
	}
	return repeats
}
