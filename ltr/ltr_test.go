// Copyright 2019 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package ltr

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/grailbio/ltrharvest/align/seqio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randSeq(rng *rand.Rand, n int) string {
	var sb strings.Builder
	for i := 0; i < n; i++ {
		sb.WriteByte("ACGT"[rng.Intn(4)])
	}
	return sb.String()
}

func TestParseMotif(t *testing.T) {
	m, err := ParseMotif("tgca", 1)
	require.NoError(t, err)
	assert.Equal(t, byte('T'), m.FirstLeft)
	assert.Equal(t, byte('A'), m.SecondRight)
	assert.True(t, m.Constrained())

	_, err = ParseMotif("tgc", 1)
	assert.Error(t, err)
	_, err = ParseMotif("tgcc", 1)
	assert.Error(t, err, "non-palindromic motif accepted")
	_, err = ParseMotif("txca", 1)
	assert.Error(t, err)
}

func TestOptionsValidate(t *testing.T) {
	opts := DefaultOptions()
	require.NoError(t, opts.validate())

	bad := DefaultOptions()
	bad.MinTSD = 30
	bad.MaxTSD = 20
	assert.Error(t, bad.validate())

	bad = DefaultOptions()
	bad.MinLTRLen = 2000
	assert.Error(t, bad.validate())

	bad = DefaultOptions()
	bad.NoOverlap = true
	assert.Error(t, bad.validate())
}

func TestKmerSeedEnumerator(t *testing.T) {
	repeat := "ACGTAGGCTA"
	seq := "TTTT" + repeat + "CCCC" + repeat + "GGGG"
	enum := &KmerSeedEnumerator{Provider: seqio.NewMultiSeq([]byte(seq))}
	var matches []SeedMatch
	require.NoError(t, enum.EnumerateSeeds(10, func(m SeedMatch) {
		matches = append(matches, m)
	}))
	require.Len(t, matches, 1)
	assert.Equal(t, 4, matches[0].Pos1)
	assert.Equal(t, 18, matches[0].Pos2)
	assert.Equal(t, 10, matches[0].Len)
	assert.True(t, matches[0].SameContig)
}

func TestMatchingSubstrings(t *testing.T) {
	db := []byte("GGGGACAGTCGG")
	query := []byte("TTACAGTCTTTT")
	reps := matchingSubstrings(db, query, 4, 100, 200)
	require.NotEmpty(t, reps)
	found := false
	for _, r := range reps {
		if r.Pos1 == 104 && r.Len == 6 {
			found = true
			assert.Equal(t, 202-104, r.Offset)
		}
	}
	assert.True(t, found, "maximal ACAGTC match missing: %v", reps)
}

// syntheticLTR builds
//
//	bg1 + tsd + ltr + "TTTT" + mid + "GGGG" + ltr + tsd + bg2
//
// with bg1 forced to end in C and bg2 to start with C.  The four-residue
// junction walls mismatch the opposite flank on every path within the
// X-drop cutoff, so extension stops exactly at the planted borders.
func syntheticLTR(rng *rand.Rand, tsd string, ltrSeq string, bg1Len, midLen, bg2Len int) (string, int, int) {
	bg1 := randSeq(rng, bg1Len-4) + "CCCC"
	mid := randSeq(rng, midLen)
	bg2 := "CCCC" + randSeq(rng, bg2Len-4)
	seq := bg1 + tsd + ltrSeq + "TTTT" + mid + "GGGG" + ltrSeq + tsd + bg2
	left5 := len(bg1) + len(tsd)
	right5 := left5 + len(ltrSeq) + 4 + len(mid) + 4
	return seq, left5, right5
}

func TestFinderSingleLTRPair(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	ltrSeq := "A" + randSeq(rng, 198) + "G"
	// 200 + 4 + 4792 + 4 = 5000 residues between the two 5' borders.
	seq, left5, right5 := syntheticLTR(rng, "", ltrSeq, 500, 4792, 500)

	opts := DefaultOptions()
	opts.MinTSD = 1 // no TSD search
	require.NoError(t, opts.validate())

	provider := seqio.NewMultiSeq([]byte(seq))
	finder, err := NewFinder(opts, provider, nil)
	require.NoError(t, err)
	candidates, err := finder.Find(&KmerSeedEnumerator{Provider: provider})
	require.NoError(t, err)

	surviving := Surviving(candidates)
	require.Len(t, surviving, 1)
	c := surviving[0]
	assert.GreaterOrEqual(t, c.Similarity, 99.0)
	assert.True(t, c.LengthOK)
	assert.Equal(t, 5000, right5-left5)
	assert.Equal(t, left5, c.LeftLTR5)
	assert.Equal(t, right5, c.RightLTR5)
	assert.Equal(t, 200, c.LeftLen())
	assert.Equal(t, 200, c.RightLen())
}

func TestFinderTSD(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	ltrSeq := "TG" + randSeq(rng, 196) + "CA"
	seq, left5, right5 := syntheticLTR(rng, "ACAGTC", ltrSeq, 400, 3000, 400)

	opts := DefaultOptions()
	opts.MinTSD = 4
	opts.MaxTSD = 20
	provider := seqio.NewMultiSeq([]byte(seq))
	finder, err := NewFinder(opts, provider, nil)
	require.NoError(t, err)
	candidates, err := finder.Find(&KmerSeedEnumerator{Provider: provider})
	require.NoError(t, err)

	surviving := Surviving(candidates)
	require.Len(t, surviving, 1)
	c := surviving[0]
	assert.True(t, c.TSD)
	assert.GreaterOrEqual(t, c.LenLeftTSD, opts.MinTSD)
	assert.LessOrEqual(t, c.LenLeftTSD, opts.MaxTSD)
	assert.Equal(t, left5, c.LeftLTR5)
	assert.Equal(t, right5+len(ltrSeq)-1, c.RightLTR3)
}

func TestFinderTSDAndMotif(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	ltrSeq := "TG" + randSeq(rng, 196) + "CA"
	seq, left5, right5 := syntheticLTR(rng, "ACAGTC", ltrSeq, 400, 3000, 400)

	opts := DefaultOptions()
	motif, err := ParseMotif("tgca", 0)
	require.NoError(t, err)
	opts.Motif = motif
	provider := seqio.NewMultiSeq([]byte(seq))
	finder, err := NewFinder(opts, provider, nil)
	require.NoError(t, err)
	candidates, err := finder.Find(&KmerSeedEnumerator{Provider: provider})
	require.NoError(t, err)

	surviving := Surviving(candidates)
	require.Len(t, surviving, 1)
	c := surviving[0]
	assert.True(t, c.TSD)
	assert.True(t, c.MotifNearTSD)
	assert.True(t, c.MotifFarTSD)
	assert.Equal(t, left5, c.LeftLTR5)
	assert.Equal(t, left5+len(ltrSeq)-1, c.LeftLTR3)
	assert.Equal(t, right5, c.RightLTR5)
}

func TestFinderSimilarityThreshold(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	left := randSeq(rng, 200)
	// Keep the first 60 residues exact so a seed still fires, then
	// mutate every third residue: similarity lands well below 85%.
	right := []byte(left)
	for i := 60; i < len(right); i += 3 {
		right[i] = map[byte]byte{'A': 'C', 'C': 'G', 'G': 'T', 'T': 'A'}[right[i]]
	}
	bg1, mid, bg2 := randSeq(rng, 300), randSeq(rng, 3000), randSeq(rng, 300)
	seq := bg1 + left + mid + string(right) + bg2

	opts := DefaultOptions()
	opts.MinTSD = 1
	provider := seqio.NewMultiSeq([]byte(seq))
	finder, err := NewFinder(opts, provider, nil)
	require.NoError(t, err)
	candidates, err := finder.Find(&KmerSeedEnumerator{Provider: provider})
	require.NoError(t, err)
	assert.Empty(t, Surviving(candidates))
}

func TestRemoveDuplicates(t *testing.T) {
	candidates := []Candidate{
		{LeftLTR5: 100, RightLTR3: 900, Similarity: 95},
		{LeftLTR5: 100, RightLTR3: 900, Similarity: 97},
		{LeftLTR5: 2000, RightLTR3: 2900, Similarity: 90},
	}
	RemoveDuplicates(candidates)
	surviving := Surviving(candidates)
	require.Len(t, surviving, 2)
	// No two survivors share the same outer borders.
	seen := map[[2]int]bool{}
	for _, c := range surviving {
		key := [2]int{c.LeftLTR5, c.RightLTR3}
		assert.False(t, seen[key])
		seen[key] = true
	}
}

func TestRemoveOverlapsBest(t *testing.T) {
	candidates := []Candidate{
		{LeftLTR5: 100, RightLTR3: 900, Similarity: 95},
		{LeftLTR5: 800, RightLTR3: 1700, Similarity: 99},
		{LeftLTR5: 5000, RightLTR3: 5900, Similarity: 90},
	}
	RemoveOverlaps(candidates, false)
	surviving := Surviving(candidates)
	require.Len(t, surviving, 2)
	assert.Equal(t, 99.0, surviving[0].Similarity)
	assert.Equal(t, 90.0, surviving[1].Similarity)
}

func TestRemoveOverlapsTieKeepsEarlier(t *testing.T) {
	candidates := []Candidate{
		{LeftLTR5: 100, RightLTR3: 900, Similarity: 95},
		{LeftLTR5: 800, RightLTR3: 1700, Similarity: 95},
	}
	RemoveOverlaps(candidates, false)
	surviving := Surviving(candidates)
	require.Len(t, surviving, 1)
	assert.Equal(t, 100, surviving[0].LeftLTR5)
}

func TestRemoveOverlapsNone(t *testing.T) {
	candidates := []Candidate{
		{LeftLTR5: 100, RightLTR3: 900, Similarity: 95},
		{LeftLTR5: 800, RightLTR3: 1700, Similarity: 99},
		{LeftLTR5: 5000, RightLTR3: 5900, Similarity: 90},
	}
	RemoveOverlaps(candidates, true)
	surviving := Surviving(candidates)
	require.Len(t, surviving, 1)
	// Survivors are pairwise disjoint (trivially, one candidate).
	assert.Equal(t, 5000, surviving[0].LeftLTR5)
}

func TestSeedStoreFilters(t *testing.T) {
	opts := DefaultOptions()
	var repeats []Repeat
	store := seedStore(&repeats, &opts)
	store(SeedMatch{Len: 50, Pos1: 100, Pos2: 5100, SameContig: true})    // kept
	store(SeedMatch{Len: 50, Pos1: 100, Pos2: 300, SameContig: true})     // too close
	store(SeedMatch{Len: 50, Pos1: 100, Pos2: 50100, SameContig: true})   // too far
	store(SeedMatch{Len: 5000, Pos1: 100, Pos2: 5100, SameContig: true})  // too long
	store(SeedMatch{Len: 50, Pos1: 100, Pos2: 5100, SameContig: false})   // cross-contig
	store(SeedMatch{Len: 50, Pos1: 5100, Pos2: 100, SameContig: true})    // swapped, kept
	require.Len(t, repeats, 2)
	assert.Equal(t, 100, repeats[0].Pos1)
	assert.Equal(t, 5000, repeats[0].Offset)
	assert.Equal(t, 100, repeats[1].Pos1)
}
