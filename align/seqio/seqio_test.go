// Copyright 2019 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package seqio

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func viewString(t *testing.T, v *View) string {
	out := make([]byte, v.Len())
	for i := range out {
		out[i] = v.CharAt(i)
	}
	return string(out)
}

func TestViewDirections(t *testing.T) {
	seq := []byte("ACGTNACC")
	tests := []struct {
		dir      Direction
		rightExt bool
		start    int
		length   int
		want     string
	}{
		{Forward, true, 0, 8, "ACGTNACC"},
		{Forward, true, 2, 4, "GTNA"},
		// Left extension reads the window right to left.
		{Forward, false, 2, 4, "ANTG"},
		// Reverse coordinates mirror the sequence.
		{Reverse, true, 0, 8, "CCANTGCA"},
		{ReverseComplement, true, 0, 8, "GGTNACGT"},
		{Complement, true, 0, 8, "TGCANTGG"},
		// Wildcards come back verbatim under complementation.
		{Complement, true, 4, 1, "N"},
	}
	for _, test := range tests {
		v, err := NewBytesView(seq, test.dir, test.rightExt, test.start, test.length)
		require.NoError(t, err, "dir=%v rightExt=%v", test.dir, test.rightExt)
		assert.Equal(t, test.want, viewString(t, v),
			"dir=%v rightExt=%v start=%d", test.dir, test.rightExt, test.start)
	}
}

func TestViewBounds(t *testing.T) {
	seq := []byte("ACGT")
	_, err := NewBytesView(seq, Forward, true, 2, 3)
	assert.Error(t, err)
	_, err = NewBytesView(seq, Forward, true, -1, 2)
	assert.Error(t, err)
	_, err = NewReaderView(nil, Forward, -1)
	assert.Error(t, err)
}

func TestTwoBitView(t *testing.T) {
	seq := []byte("ACGTACGTACGTACGTACGTACGTACGTACGTACG") // 35 nt, crosses a word
	packed := PackTwoBit(seq)
	v, err := NewTwoBitView(packed, len(seq), Forward, true, 0, len(seq))
	require.NoError(t, err)
	assert.Equal(t, string(seq), viewString(t, v))

	rc, err := NewTwoBitView(packed, len(seq), ReverseComplement, true, 0, len(seq))
	require.NoError(t, err)
	bv, err := NewBytesView(seq, ReverseComplement, true, 0, len(seq))
	require.NoError(t, err)
	assert.Equal(t, viewString(t, bv), viewString(t, rc))
}

func TestReaderView(t *testing.T) {
	m := NewMultiSeq([]byte("ACGTACGTACGTACGTACGT"))
	v, err := NewReaderView(m.ReaderAt(4, true), Forward, 10)
	require.NoError(t, err)
	// Access indices out of order; the cache decodes monotonically.
	assert.Equal(t, byte('A'), v.CharAt(0))
	assert.Equal(t, byte('T'), v.CharAt(7))
	assert.Equal(t, byte('C'), v.CharAt(1))
}

func TestLcp(t *testing.T) {
	u, err := NewBytesView([]byte("ACGTACGT"), Forward, true, 0, 8)
	require.NoError(t, err)
	v, err := NewBytesView([]byte("ACGTTCGT"), Forward, true, 0, 8)
	require.NoError(t, err)
	assert.Equal(t, 4, Lcp(u, 0, v, 0))
	assert.Equal(t, 3, Lcp(u, 5, v, 5))
	assert.Equal(t, 8, Lcp(u, 0, u, 0))

	// Wildcards never match, not even each other.
	w1, err := NewBytesView([]byte("ACNT"), Forward, true, 0, 4)
	require.NoError(t, err)
	w2, err := NewBytesView([]byte("ACNT"), Forward, true, 0, 4)
	require.NoError(t, err)
	assert.Equal(t, 2, Lcp(w1, 0, w2, 0))
}

// Lcp of the mirrored suffix on the reversed views is at least the Lcp of
// the forward prefix; the reversed run can continue past the forward start.
func TestLcpSymmetry(t *testing.T) {
	us := []byte("ACGTAGGTCA")
	vs := []byte("ACGTACGTGG")
	n, m := len(us), len(vs)
	uf, err := NewBytesView(us, Forward, true, 0, n)
	require.NoError(t, err)
	vf, err := NewBytesView(vs, Forward, true, 0, m)
	require.NoError(t, err)
	ur, err := NewBytesView(us, Reverse, true, 0, n)
	require.NoError(t, err)
	vr, err := NewBytesView(vs, Reverse, true, 0, m)
	require.NoError(t, err)
	for i := 0; i < n; i++ {
		for j := 0; j < m; j++ {
			k := Lcp(uf, i, vf, j)
			if k == 0 {
				continue
			}
			got := Lcp(ur, n-i-k, vr, m-j-k)
			assert.GreaterOrEqual(t, got, k, "i=%d j=%d k=%d", i, j, k)
		}
	}
}

func TestMultiSeq(t *testing.T) {
	m := NewMultiSeq([]byte("ACGT"), []byte("GGCC"))
	assert.Equal(t, 2, m.NumSequences())
	assert.Equal(t, 9, m.Len())
	assert.Equal(t, 0, m.SequenceStart(0))
	assert.Equal(t, 5, m.SequenceStart(1))
	assert.Equal(t, Separator, m.CharAt(4))
	contig, err := m.ContigOf(6)
	require.NoError(t, err)
	assert.Equal(t, 1, contig)
	_, err = m.ContigOf(4)
	assert.Error(t, err)

	r := m.ReaderAt(3, false)
	assert.Equal(t, byte('T'), r.Next())
	assert.Equal(t, byte('G'), r.Next())
}
