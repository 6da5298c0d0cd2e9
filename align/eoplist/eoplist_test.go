// Copyright 2019 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package eoplist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMatchCoalescing(t *testing.T) {
	l := NewList()
	l.Match(4)
	l.Match(3)
	assert.Equal(t, 1, l.Length())
	assert.Equal(t, 7, DecodeLength(l.At(0), false))

	// Runs longer than the field split into max-length records.
	l.Match(MaxRunDNA)
	assert.Equal(t, 2, l.Length())
	assert.Equal(t, MaxRunDNA, DecodeLength(l.At(0), false))
	assert.Equal(t, 7, DecodeLength(l.At(1), false))
}

func TestCounts(t *testing.T) {
	l := NewList()
	l.Match(2)
	l.Deletion()
	l.Insertion()
	l.Insertion()
	l.Mismatch()
	assert.Equal(t, 1, l.DeletionCount())
	assert.Equal(t, 2, l.InsertionCount())
	assert.Equal(t, 5, l.Length())
}

func TestProteinRunLimit(t *testing.T) {
	l := NewProteinList()
	l.Match(MaxRunProtein + 10)
	assert.Equal(t, 2, l.Length())
	assert.Equal(t, MaxRunProtein, DecodeLength(l.At(0), true))
	assert.Equal(t, 10, DecodeLength(l.At(1), true))
}

func TestDummy(t *testing.T) {
	l := NewProteinList()
	l.Match(2)
	l.AddDummy()
	assert.True(t, l.ContainsDummy())
	assert.False(t, l.ContainsNoZeroBaseExons())

	// A match appended after the dummy must not coalesce into it.
	l.Match(1)
	assert.Equal(t, 3, l.Length())

	l.SetDummy(true)
	assert.False(t, l.ContainsDummy())
	assert.Equal(t, TypeMatch, DecodeType(l.At(1), true))
	assert.Equal(t, 1, DecodeLength(l.At(1), true))
}

func TestReverseSuffixFrom(t *testing.T) {
	l := NewList()
	l.Mismatch()
	l.Deletion()
	l.Match(3)
	l.Insertion()
	l.ReverseSuffixFrom(1)
	assert.Equal(t, TypeMismatch, DecodeType(l.At(0), false))
	assert.Equal(t, TypeInsertion, DecodeType(l.At(1), false))
	assert.Equal(t, TypeMatch, DecodeType(l.At(2), false))
	assert.Equal(t, TypeDeletion, DecodeType(l.At(3), false))
}

func TestPrependAppend(t *testing.T) {
	a := NewList()
	a.Match(2)
	a.Deletion()
	b := NewList()
	b.Insertion()
	b.Match(1)

	a.Append(b)
	assert.Equal(t, "2=1D1I1=", a.CigarString(true))
	assert.Equal(t, 1, a.DeletionCount())
	assert.Equal(t, 1, a.InsertionCount())

	c := NewList()
	c.Mismatch()
	a.Prepend(c)
	assert.Equal(t, "1X2=1D1I1=", a.CigarString(true))
}

func TestZeroBaseExons(t *testing.T) {
	l := NewList()
	l.Match(5)
	l.Intron(20)
	l.Insertion()
	l.Insertion()
	l.Intron(30)
	l.Match(5)
	assert.False(t, l.ContainsNoZeroBaseExons())

	repaired := l.RemoveZeroBaseExons()
	assert.Equal(t, 1, repaired)
	assert.True(t, l.ContainsNoZeroBaseExons())
	// The insertions moved past the right intron.
	assert.Equal(t, TypeIntron, DecodeType(l.At(1), false))
	assert.Equal(t, TypeIntron, DecodeType(l.At(2), false))
	assert.Equal(t, TypeInsertion, DecodeType(l.At(3), false))
	assert.Equal(t, TypeInsertion, DecodeType(l.At(4), false))
}

func TestLastIsIntron(t *testing.T) {
	l := NewList()
	assert.False(t, l.LastIsIntron())
	l.Match(1)
	assert.False(t, l.LastIsIntron())
	l.Intron(10)
	assert.True(t, l.LastIsIntron())
}

func TestReset(t *testing.T) {
	l := NewList()
	l.Match(3)
	l.Deletion()
	l.SetSequences([]byte("AAAA"), []byte("AAA"))
	l.Reset()
	assert.Equal(t, 0, l.Length())
	assert.Equal(t, 0, l.DeletionCount())
	u, v := l.Sequences()
	assert.Nil(t, u)
	assert.Nil(t, v)
}

func TestMetadata(t *testing.T) {
	l := NewList()
	require.Nil(t, l.Polishing())
	l.SetPolishingMetadata(160, 840, 30)
	require.NotNil(t, l.Polishing())
	assert.Equal(t, 160, l.Polishing().MatchScore)

	require.Nil(t, l.Seed())
	l.SetSeedRegion(10, 30)
	assert.Equal(t, 30, l.Seed().Len)
}
