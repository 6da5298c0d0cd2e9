// Copyright 2019 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package seqio

import "github.com/pkg/errors"

// MultiSeq is the in-memory Provider: the concatenation of one or more
// sequences with a Separator byte between consecutive ones.  It backs the
// CLI tools and tests; production callers plug in their own indexed
// provider.
type MultiSeq struct {
	data   []byte
	starts []int // per-contig start position in data
	lens   []int
}

// NewMultiSeq concatenates seqs into a provider.
func NewMultiSeq(seqs ...[]byte) *MultiSeq {
	m := &MultiSeq{}
	for i, s := range seqs {
		if i > 0 {
			m.data = append(m.data, Separator)
		}
		m.starts = append(m.starts, len(m.data))
		m.lens = append(m.lens, len(s))
		m.data = append(m.data, s...)
	}
	return m
}

// Len returns the total concatenated length, separators included.
func (m *MultiSeq) Len() int { return len(m.data) }

// CharAt returns the byte at absolute position pos.
func (m *MultiSeq) CharAt(pos int) byte { return m.data[pos] }

// NumSequences returns the number of contigs.
func (m *MultiSeq) NumSequences() int { return len(m.starts) }

// SequenceStart returns the absolute start position of contig.
func (m *MultiSeq) SequenceStart(contig int) int { return m.starts[contig] }

// SequenceLength returns the length of contig.
func (m *MultiSeq) SequenceLength(contig int) int { return m.lens[contig] }

// ContigOf returns the contig containing absolute position pos, or an
// error when pos addresses a separator or lies outside the data.
func (m *MultiSeq) ContigOf(pos int) (int, error) {
	for i, start := range m.starts {
		if pos >= start && pos < start+m.lens[i] {
			return i, nil
		}
	}
	return 0, errors.Errorf("seqio: position %d not inside any contig", pos)
}

type multiSeqReader struct {
	m       *MultiSeq
	pos     int
	forward bool
}

func (r *multiSeqReader) Next() byte {
	c := r.m.data[r.pos]
	if r.forward {
		r.pos++
	} else {
		r.pos--
	}
	return c
}

// ReaderAt returns a cursor emitting residues starting at pos, moving
// right when forward is true and left otherwise.
func (m *MultiSeq) ReaderAt(pos int, forward bool) Reader {
	return &multiSeqReader{m: m, pos: pos, forward: forward}
}
