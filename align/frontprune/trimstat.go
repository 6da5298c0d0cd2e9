// Copyright 2019 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package frontprune

// TrimStats accumulates observational counters over a pipeline's
// alignments: how much of each full wavefront the trimming discarded, the
// distribution of match-run lengths, and the reservoir high-water mark.
// It never changes alignment output.
type TrimStats struct {
	// DiedOut counts alignments whose wavefront emptied before reaching
	// an endpoint.
	DiedOut int
	// Alignments counts completed alignments.
	Alignments int
	// TrimmedPercent histograms, per completed alignment, the percentage
	// of the untrimmed front count that pruning discarded.
	TrimmedPercent [101]int
	// MatchLength histograms match-run lengths, capped at 100.
	MatchLength [101]int
	// MaxValid is the widest valid range seen.
	MaxValid int
	// SumMeanValid sums each alignment's mean valid width.
	SumMeanValid float64
	// SpaceBytesTotal sums the reservoir footprint over completed
	// alignments.
	SpaceBytesTotal int
}

func (s *TrimStats) addMatchLength(length int) {
	if length > 100 {
		length = 100
	}
	s.MatchLength[length]++
}

func (s *TrimStats) add(diedOut bool, sumValid, maxValid, distance, spaceBytes int) {
	if maxValid > s.MaxValid {
		s.MaxValid = maxValid
	}
	if diedOut {
		s.DiedOut++
		return
	}
	s.Alignments++
	fullFronts := (distance + 1) * (distance + 1)
	percent := 100 * (fullFronts - sumValid) / fullFronts
	s.TrimmedPercent[percent]++
	s.SumMeanValid += float64(sumValid) / float64(distance+1)
	s.SpaceBytesTotal += spaceBytes
}
