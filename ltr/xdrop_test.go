// Copyright 2019 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package ltr

import (
	"testing"

	"github.com/grailbio/ltrharvest/align/seqio"
	"github.com/stretchr/testify/assert"
)

func TestScoreNormalization(t *testing.T) {
	p := Scores{Match: 2, Mismatch: -2, Insertion: -3, Deletion: -3}.params()
	assert.Equal(t, 1, p.halfMatch)
	assert.Equal(t, 4, p.gcd)
	assert.Equal(t, 1, p.distMis)
	assert.Equal(t, 1, p.distIns)
	assert.Equal(t, 1, p.distDel)
	assert.Equal(t, 1, p.scale)

	// An odd match score doubles everything, the cutoff scale included.
	p = Scores{Match: 3, Mismatch: -1, Insertion: -2, Deletion: -2}.params()
	assert.Equal(t, 3, p.halfMatch)
	assert.Equal(t, 2, p.scale)

	p = Scores{Match: 2, Mismatch: -1, Insertion: -2, Deletion: -2}.params()
	assert.Equal(t, 1, p.halfMatch)
	assert.Equal(t, 3, p.gcd)
	assert.Equal(t, 1, p.distMis)
	assert.Equal(t, 1, p.distIns)
	assert.Equal(t, 1, p.distDel)
}

func TestXDropRightExactPrefix(t *testing.T) {
	// Two copies of ACGTAC, then diverging tails.
	src := seqio.NewMultiSeq([]byte("ACGTACGGGG" + "ACGTACTTTT"))
	sc := Scores{Match: 2, Mismatch: -2, Insertion: -3, Deletion: -3}
	best := EvalXDropRight(src, sc, 0, 10, 10, 10, 5)
	assert.GreaterOrEqual(t, best.IValue, 6)
	assert.GreaterOrEqual(t, best.Score, 12)
}

func TestXDropLeftExactSuffix(t *testing.T) {
	src := seqio.NewMultiSeq([]byte("GGGGACGTAC" + "TTTTACGTAC"))
	sc := Scores{Match: 2, Mismatch: -2, Insertion: -3, Deletion: -3}
	best := EvalXDropLeft(src, sc, 10, 20, 10, 10, 5)
	assert.GreaterOrEqual(t, best.IValue, 6)
	assert.GreaterOrEqual(t, best.Score, 12)
}

func TestXDropStopsAtDissimilarity(t *testing.T) {
	src := seqio.NewMultiSeq([]byte("ACGTGGGGGGGGGG" + "ACGTCCCCCCCCCC"))
	sc := Scores{Match: 2, Mismatch: -2, Insertion: -3, Deletion: -3}
	best := EvalXDropRight(src, sc, 0, 14, 14, 14, 5)
	assert.Equal(t, 4, best.IValue)
	assert.Equal(t, 4, best.JValue)
	assert.Equal(t, 8, best.Score)
}

func TestXDropStopsAtSeparator(t *testing.T) {
	src := seqio.NewMultiSeq([]byte("ACGTACGT"), []byte("ACGTACGT"))
	sc := Scores{Match: 2, Mismatch: -2, Insertion: -3, Deletion: -3}
	// The u extension would run into the separator at position 8.
	best := EvalXDropRight(src, sc, 4, 13, 10, 4, 5)
	assert.LessOrEqual(t, best.IValue, 4)
}

func TestXDropWholeSequences(t *testing.T) {
	src := seqio.NewMultiSeq([]byte("ACGTACGT" + "ACGTACGT"))
	sc := Scores{Match: 2, Mismatch: -2, Insertion: -3, Deletion: -3}
	best := EvalXDropRight(src, sc, 0, 8, 8, 8, 5)
	assert.Equal(t, 8, best.IValue)
	assert.Equal(t, 8, best.JValue)
	assert.Equal(t, 16, best.Score)
}
