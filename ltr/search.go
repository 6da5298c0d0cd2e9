// Copyright 2019 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package ltr

import (
	"github.com/grailbio/base/log"
	"github.com/grailbio/ltrharvest/align/seqio"
	"github.com/grailbio/ltrharvest/util"
	"github.com/pkg/errors"
)

// EditDistanceOracle scores candidate LTR similarity.  The default is
// the greedy unit edit distance.
type EditDistanceOracle interface {
	Distance(u, v []byte) int
}

type unitEditDistanceOracle struct{}

func (unitEditDistanceOracle) Distance(u, v []byte) int {
	return util.UnitEditDistance(u, v)
}

// Finder runs the LTR pipeline over one provider.
type Finder struct {
	opts     Options
	provider seqio.Provider
	oracle   EditDistanceOracle
}

// NewFinder validates opts and returns a finder.  A nil oracle selects
// the greedy unit edit distance.
func NewFinder(opts Options, provider seqio.Provider, oracle EditDistanceOracle) (*Finder, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if oracle == nil {
		oracle = unitEditDistanceOracle{}
	}
	return &Finder{opts: opts, provider: provider, oracle: oracle}, nil
}

// CollectSeeds runs the enumerator and keeps the seed pairs satisfying
// the same-contig and distance constraints.
func (f *Finder) CollectSeeds(enum SeedEnumerator) ([]Repeat, error) {
	var repeats []Repeat
	if err := enum.EnumerateSeeds(f.opts.SeedLength, seedStore(&repeats, &f.opts)); err != nil {
		return nil, errors.Wrap(err, "ltr: seed enumeration")
	}
	return repeats, nil
}

// checkLengthAndDistance verifies the candidate against the LTR length
// and distance window.
func (f *Finder) checkLengthAndDistance(c *Candidate) bool {
	ulen := c.LeftLen()
	vlen := c.RightLen()
	dist := c.RightLTR5 - c.LeftLTR5
	if ulen > f.opts.MaxLTRLen || vlen > f.opts.MaxLTRLen ||
		ulen < f.opts.MinLTRLen || vlen < f.opts.MinLTRLen ||
		dist > f.opts.MaxDistance || dist < f.opts.MinDistance ||
		c.LeftLTR3 >= c.RightLTR5 {
		c.LengthOK = false
		c.Similarity = 0.0
		return false
	}
	c.LengthOK = true
	return true
}

// extendSeed runs the two X-drop extensions and returns the raw
// candidate borders.
func (f *Finder) extendSeed(rep Repeat) Candidate {
	totalLength := f.provider.Len()
	aliLen := f.opts.MaxLTRLen - rep.Len
	if aliLen < 0 {
		aliLen = 0
	}
	pos2 := rep.Pos1 + rep.Offset

	uLeft, vLeft := aliLen, aliLen
	if rep.Pos1 < uLeft {
		uLeft = rep.Pos1
	}
	if pos2 < vLeft {
		vLeft = pos2
	}
	bestLeft := EvalXDropLeft(f.provider, f.opts.Scores,
		rep.Pos1, pos2, uLeft, vLeft, f.opts.XDropScore)

	uRight, vRight := aliLen, aliLen
	if rest := totalLength - (rep.Pos1 + rep.Len); rest < uRight {
		uRight = rest
	}
	if rest := totalLength - (pos2 + rep.Len); rest < vRight {
		vRight = rest
	}
	bestRight := EvalXDropRight(f.provider, f.opts.Scores,
		rep.Pos1+rep.Len, pos2+rep.Len, uRight, vRight, f.opts.XDropScore)

	return Candidate{
		Contig:    rep.Contig,
		LeftLTR5:  rep.Pos1 - bestLeft.IValue,
		RightLTR5: pos2 - bestLeft.JValue,
		LeftLTR3:  rep.Pos1 + rep.Len - 1 + bestRight.IValue,
		RightLTR3: pos2 + rep.Len - 1 + bestRight.JValue,
	}
}

// Run applies the filter cascade to every seed.  Seeds that fail the
// TSD/motif, length/distance or similarity filter are left out of the
// result; the returned candidates include the duplicate and overlap losers,
// marked skipped, and Surviving extracts the survivors.
func (f *Finder) Run(seeds []Repeat) []Candidate {
	var candidates []Candidate
	for _, rep := range seeds {
		c := f.extendSeed(rep)

		if f.opts.Motif.Constrained() || f.opts.MinTSD > 1 {
			f.findCorrectBoundaries(&c)
			keep := c.TSD &&
				(!f.opts.Motif.Constrained() || (c.MotifNearTSD && c.MotifFarTSD))
			if !keep && f.opts.MinTSD <= 1 && c.MotifNearTSD && c.MotifFarTSD {
				keep = true
			}
			if !keep {
				log.Debug.Printf("ltr: seed at %d dropped: no TSD/motif near borders",
					rep.Pos1)
				continue
			}
		}
		if !f.checkLengthAndDistance(&c) {
			log.Debug.Printf("ltr: seed at %d dropped: length/distance constraints",
				rep.Pos1)
			continue
		}

		useq := f.extract(c.LeftLTR5, c.LeftLTR3)
		vseq := f.extract(c.RightLTR5, c.RightLTR3)
		edist := f.oracle.Distance(useq, vseq)
		maxLen := len(useq)
		if len(vseq) > maxLen {
			maxLen = len(vseq)
		}
		c.Similarity = 100.0 * (1.0 - float64(edist)/float64(maxLen))
		if c.Similarity < f.opts.SimilarityThreshold {
			continue
		}
		candidates = append(candidates, c)
	}
	RemoveDuplicates(candidates)
	if f.opts.NoOverlap || f.opts.BestOfOverlap {
		RemoveOverlaps(candidates, f.opts.NoOverlap)
	}
	return candidates
}

// Find is the whole pipeline: enumerate seeds, extend, refine, filter.
func (f *Finder) Find(enum SeedEnumerator) ([]Candidate, error) {
	seeds, err := f.CollectSeeds(enum)
	if err != nil {
		return nil, err
	}
	log.Debug.Printf("ltr: %d seed pairs of minimal length %d",
		len(seeds), f.opts.SeedLength)
	return f.Run(seeds), nil
}
