// Copyright 2019 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package backtrace

import (
	"strconv"
	"strings"

	"github.com/grailbio/base/log"
	"github.com/grailbio/ltrharvest/align/eoplist"
	"github.com/grailbio/ltrharvest/align/frontprune"
	"github.com/pkg/errors"
)

// FromFullFront decodes the unpruned trace of a FullFrontEdist run into
// eops, appending the alignment in forward order.  distance must be the
// value the Distance call returned.
func FromFullFront(eops *eoplist.List, trace *frontprune.Trace, distance int,
	useq, vseq []byte) {
	ulen, vlen := len(useq), len(vseq)
	if trace.NumBackrefs() < 2*distance+1 {
		log.Panicf("backtrace: trace holds %d fronts, need %d",
			trace.NumBackrefs(), 2*distance+1)
	}
	firstIndex := eops.Length()
	base := trace.NumBackrefs() - (2*distance + 1)
	diagonal := vlen - ulen
	bits, lcs := trace.BackrefAt(base + distance + diagonal)
	row := ulen
	preferred := frontprune.BackrefMismatch
	for distance > 0 {
		if lcs > 0 {
			eops.Match(lcs)
			checkDiagonalRun(useq, vseq, diagonal, row-lcs, row)
		}
		var nextRowAdd int
		if bits&preferred == 0 {
			switch {
			case bits&frontprune.BackrefMismatch != 0:
				preferred = frontprune.BackrefMismatch
			case bits&frontprune.BackrefInsertion != 0:
				preferred = frontprune.BackrefInsertion
			default:
				preferred = frontprune.BackrefDeletion
			}
		}
		switch preferred {
		case frontprune.BackrefMismatch:
			eops.Mismatch()
			nextRowAdd = 1
		case frontprune.BackrefInsertion:
			eops.Insertion()
			diagonal--
			nextRowAdd = 0
		default:
			eops.Deletion()
			diagonal++
			nextRowAdd = 1
		}
		distance--
		base -= 2*distance + 1
		row -= lcs + nextRowAdd
		bits, lcs = trace.BackrefAt(base + distance + diagonal)
	}
	if bits != 0 {
		log.Panicf("backtrace: full-front walk did not reach the origin")
	}
	if lcs > 0 {
		eops.Match(lcs)
	}
	eops.ReverseSuffixFrom(firstIndex)
}

// Transcoder converts external tracepoint representations into cigars by
// re-aligning every delta segment with an unpruned wavefront and
// concatenating the per-segment scripts.
type Transcoder struct {
	fet *frontprune.FullFrontEdist
}

// NewTranscoder returns a reusable transcoder.
func NewTranscoder() *Transcoder {
	return &Transcoder{fet: frontprune.NewFullFrontEdist()}
}

// ParseTrace parses a comma-separated tracepoint list, stopping at sep or
// the end of s.
func ParseTrace(s string, sep byte) ([]int, error) {
	var values []int
	for len(s) > 0 && s[0] != sep {
		end := 0
		for end < len(s) && s[end] != ',' && s[end] != sep {
			end++
		}
		value, err := strconv.Atoi(strings.TrimSpace(s[:end]))
		if err != nil {
			return nil, errors.Wrapf(err, "cannot read number from trace %q", s)
		}
		values = append(values, value)
		if end < len(s) && s[end] == ',' {
			end++
		}
		s = s[end:]
	}
	if len(values) == 0 {
		return nil, errors.New("empty trace")
	}
	return values, nil
}

// TraceToCigar re-aligns the trace's segments over useq and vseq and
// appends the concatenated script to eops.  Each trace value gives the
// v length of one segment (when dtrace is true the value is stored as
// delta minus that length); every segment covers delta u residues except
// a shorter final one.
func (tc *Transcoder) TraceToCigar(eops *eoplist.List, trace []int,
	dtrace bool, delta int, useq, vseq []byte) error {
	if len(trace) == 0 {
		return errors.New("empty trace")
	}
	eops.SetSequences(useq, vseq)
	offsetU, offsetV := 0, 0
	for _, value := range trace {
		alignedV := value
		if dtrace {
			alignedV = delta - value
			if alignedV < 0 {
				return errors.Errorf("negative segment length from dtrace value %d", value)
			}
		}
		if offsetU >= len(useq) {
			return errors.Errorf("trace overruns the %d u residues", len(useq))
		}
		alignedU := delta
		if rest := len(useq) - offsetU; alignedU > rest {
			alignedU = rest
		}
		if offsetV+alignedV > len(vseq) {
			return errors.Errorf("trace overruns the %d v residues", len(vseq))
		}
		distance := tc.fet.Distance(useq[offsetU:offsetU+alignedU],
			vseq[offsetV:offsetV+alignedV])
		FromFullFront(eops, tc.fet.Trace(), distance,
			useq[offsetU:offsetU+alignedU], vseq[offsetV:offsetV+alignedV])
		offsetU += alignedU
		offsetV += alignedV
	}
	return nil
}
