// Copyright 2019 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package ltr implements the LTR retrotransposon finder: seed pairs from
// a repeat enumerator are extended with an arbitrary-score X-drop
// wavefront, refined against TSDs and border motifs, filtered on length,
// distance, and similarity, and cleaned of duplicates and overlaps.
package ltr

import (
	"github.com/grailbio/ltrharvest/biosimd"
	"github.com/pkg/errors"
)

// motifUnconstrained disables the motif search: any number of allowed
// mismatches of 4 or more means no motif constraint.
const motifUnconstrained = 4

// Motif is the palindromic 4-residue border motif (e.g. "TGCA"): the
// left LTR starts with the first two residues, the right LTR ends with
// the last two.
type Motif struct {
	FirstLeft   byte
	SecondLeft  byte
	FirstRight  byte
	SecondRight byte
	// AllowedMismatches below 4 turns the motif search on.
	AllowedMismatches int
}

// Constrained reports whether the motif participates in border
// correction.
func (m Motif) Constrained() bool {
	return m.AllowedMismatches < motifUnconstrained
}

// ParseMotif validates and splits a 4-residue palindromic motif string.
func ParseMotif(s string, allowedMismatches int) (Motif, error) {
	if len(s) != 4 {
		return Motif{}, errors.Errorf("ltr: motif %q must have length 4", s)
	}
	up := make([]byte, 4)
	for i := 0; i < 4; i++ {
		c := s[i]
		if c >= 'a' && c <= 'z' {
			c -= 32
		}
		switch c {
		case 'A', 'C', 'G', 'T':
		default:
			return Motif{}, errors.Errorf("ltr: illegal nucleotide %q in motif %q", s[i], s)
		}
		up[i] = c
	}
	if biosimd.Complement(up[0]) != up[3] || biosimd.Complement(up[1]) != up[2] {
		return Motif{}, errors.Errorf("ltr: motif %q not palindromic", s)
	}
	return Motif{
		FirstLeft:         up[0],
		SecondLeft:        up[1],
		FirstRight:        up[2],
		SecondRight:       up[3],
		AllowedMismatches: allowedMismatches,
	}, nil
}

// Options parameterize a Finder run.
type Options struct {
	// SeedLength is the minimal exact seed length.
	SeedLength int
	// MinLTRLen and MaxLTRLen bound each LTR's length.
	MinLTRLen int
	MaxLTRLen int
	// MinDistance and MaxDistance bound the distance between the two
	// LTRs' 5' borders.
	MinDistance int
	MaxDistance int
	// SimilarityThreshold drops candidate pairs below this percentage.
	SimilarityThreshold float64
	// XDropScore is the X-drop extension cutoff.
	XDropScore int
	// Scores are the arbitrary extension scores.
	Scores Scores
	// MinTSD and MaxTSD bound the target-site duplication length;
	// MinTSD of at most 1 disables the TSD search.
	MinTSD int
	MaxTSD int
	// Motif is the optional palindromic border motif.
	Motif Motif
	// Vicinity is how far around an X-drop border the TSD/motif search
	// may wander.
	Vicinity int
	// NoOverlap drops every pair of overlapping candidates;
	// BestOfOverlap keeps the higher-similarity one.
	NoOverlap     bool
	BestOfOverlap bool
}

// DefaultOptions returns the usual parameterization.
func DefaultOptions() Options {
	return Options{
		SeedLength:          30,
		MinLTRLen:           100,
		MaxLTRLen:           1000,
		MinDistance:         1000,
		MaxDistance:         15000,
		SimilarityThreshold: 85.0,
		XDropScore:          5,
		Scores:              Scores{Match: 2, Mismatch: -2, Insertion: -3, Deletion: -3},
		MinTSD:              4,
		MaxTSD:              20,
		Motif:               Motif{AllowedMismatches: motifUnconstrained},
		Vicinity:            60,
		BestOfOverlap:       true,
	}
}

func (o *Options) validate() error {
	if o.SeedLength <= 0 {
		return errors.Errorf("ltr: seed length %d must be positive", o.SeedLength)
	}
	if o.MinLTRLen > o.MaxLTRLen {
		return errors.Errorf("ltr: minimal LTR length %d exceeds maximal %d",
			o.MinLTRLen, o.MaxLTRLen)
	}
	if o.MinDistance > o.MaxDistance {
		return errors.Errorf("ltr: minimal distance %d exceeds maximal %d",
			o.MinDistance, o.MaxDistance)
	}
	if o.MinTSD > o.MaxTSD {
		return errors.Errorf("ltr: minimal TSD length %d exceeds maximal %d",
			o.MinTSD, o.MaxTSD)
	}
	if o.Scores.Match <= 0 {
		return errors.Errorf("ltr: match score %d must be positive", o.Scores.Match)
	}
	if o.Scores.Mismatch >= 0 || o.Scores.Insertion >= 0 || o.Scores.Deletion >= 0 {
		return errors.New("ltr: mismatch and indel scores must be negative")
	}
	if o.NoOverlap && o.BestOfOverlap {
		return errors.New("ltr: no-overlap and best-of-overlap exclude each other")
	}
	return nil
}

// Candidate is one predicted LTR pair.  Positions are absolute provider
// coordinates; both borders are inclusive.
type Candidate struct {
	Contig      int
	LeftLTR5    int
	LeftLTR3    int
	RightLTR5   int
	RightLTR3   int
	LenLeftTSD  int
	LenRightTSD int
	Similarity  float64

	TSD          bool
	MotifNearTSD bool
	MotifFarTSD  bool
	LengthOK     bool
	Skipped      bool
}

// LeftLen returns the left LTR's length.
func (c *Candidate) LeftLen() int { return c.LeftLTR3 - c.LeftLTR5 + 1 }

// RightLen returns the right LTR's length.
func (c *Candidate) RightLen() int { return c.RightLTR3 - c.RightLTR5 + 1 }
