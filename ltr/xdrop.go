// Copyright 2019 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package ltr

import (
	"math"

	"github.com/grailbio/ltrharvest/align/seqio"
	"github.com/grailbio/ltrharvest/biosimd"
)

// Scores are the arbitrary X-drop extension scores: positive match,
// negative mismatch/indel.
type Scores struct {
	Match     int
	Mismatch  int
	Insertion int
	Deletion  int
}

// xdropParams normalize the scores into unit generation costs: every
// edit step advances the wavefront by its cost in gcd units, so the
// front at generation d holds exactly the cells reachable with score
// (i+j)*mat/2 - d*gcd.
type xdropParams struct {
	halfMatch int
	gcd       int
	distMis   int
	distIns   int
	distDel   int
	// allowedEmptyGenerations is how many consecutive all-dead
	// generations to tolerate before giving up: a cheaper edit class may
	// only become reachable a few generations later.
	allowedEmptyGenerations int
	// scale is 2 when the scores were doubled to make the match score
	// even; the X-drop cutoff scales along.
	scale int
}

func gcdInt(m, n int) int {
	if m < n {
		m, n = n, m
	}
	for n != 0 {
		m, n = n, m%n
	}
	return m
}

func (sc Scores) params() xdropParams {
	mat, mis, ins, del := sc.Match, sc.Mismatch, sc.Insertion, sc.Deletion
	scale := 1
	if mat%2 != 0 {
		mat, mis, ins, del = 2*mat, 2*mis, 2*ins, 2*del
		scale = 2
	}
	g := gcdInt(mat-mis, mat/2-ins)
	g = gcdInt(g, mat/2-del)
	p := xdropParams{
		halfMatch: mat / 2,
		gcd:       g,
		distMis:   (mat - mis) / g,
		distIns:   (mat/2 - ins) / g,
		distDel:   (mat/2 - del) / g,
		scale:     scale,
	}
	allowed := p.distMis
	if p.distIns > allowed {
		allowed = p.distIns
	}
	if p.distDel > allowed {
		allowed = p.distDel
	}
	p.allowedEmptyGenerations = allowed - 1
	return p
}

// XDropBest is the best extension endpoint: IValue and JValue residues
// consumed of the two sequences in the extension direction, and the
// score there (in the caller's score units).
type XDropBest struct {
	IValue int
	JValue int
	Score  int
}

const xdropMinusInf = math.MinInt32

// xdropSeq adapts a random-access source to the extension direction:
// right extensions read origin, origin+1, ...; left extensions read
// origin-1, origin-2, ...
type xdropSeq struct {
	src    seqio.Encoded
	origin int
	right  bool
}

func (s xdropSeq) at(i int) byte {
	if s.right {
		return s.src.CharAt(s.origin + i)
	}
	return s.src.CharAt(s.origin - 1 - i)
}

type xdropState struct {
	u, v       xdropSeq
	ulen, vlen int
	params     xdropParams
	// gens[d][k+d] holds the u length reached on diagonal k = i-j at
	// generation d, or xdropMinusInf.
	gens [][]int32
}

func (st *xdropState) get(d, k int) int {
	if d < 0 || k < -d || k > d {
		return xdropMinusInf
	}
	return int(st.gens[d][k+d])
}

// extend walks matches from (i, j).  A separator on either side
// truncates that sequence's remaining length; wildcards never match.
func (st *xdropState) extend(i, j int) (int, int) {
	for i < st.ulen && j < st.vlen {
		a := st.u.at(i)
		if a == seqio.Separator {
			st.ulen = i
			break
		}
		b := st.v.at(j)
		if b == seqio.Separator {
			st.vlen = j
			break
		}
		if a != b || biosimd.IsWildcard(a) {
			break
		}
		i++
		j++
	}
	return i, j
}

// evalXDrop extends a seed across the two sequences until every front in
// the current band scores below best minus the cutoff.
func evalXDrop(u, v xdropSeq, ulen, vlen int, sc Scores, dropScore int) XDropBest {
	st := &xdropState{u: u, v: v, ulen: ulen, vlen: vlen, params: sc.params()}
	p := st.params
	drop := dropScore * p.scale

	var best XDropBest
	i, j := st.extend(0, 0)
	score := p.halfMatch * (i + j)
	if score > best.Score {
		best = XDropBest{IValue: i, JValue: j, Score: score}
	}
	st.gens = append(st.gens, []int32{int32(i)})
	if i >= st.ulen && j >= st.vlen {
		best.Score /= p.scale
		return best
	}

	emptyRun := 0
	for d := 1; d <= st.ulen+st.vlen+p.distDel; d++ {
		row := make([]int32, 2*d+1)
		for idx := range row {
			row[idx] = xdropMinusInf
		}
		anyValid := false
		complete := false
		for k := -d; k <= d; k++ {
			i := xdropMinusInf
			if prev := st.get(d-p.distMis, k); prev != xdropMinusInf && prev+1 > i {
				i = prev + 1
			}
			if prev := st.get(d-p.distIns, k+1); prev != xdropMinusInf && prev > i {
				i = prev
			}
			if prev := st.get(d-p.distDel, k-1); prev != xdropMinusInf && prev+1 > i {
				i = prev + 1
			}
			if i == xdropMinusInf {
				continue
			}
			j := i - k
			if i > st.ulen || j < 0 || j > st.vlen {
				continue
			}
			i, j = st.extend(i, j)
			score := p.halfMatch*(i+j) - d*p.gcd
			if score > best.Score {
				best = XDropBest{IValue: i, JValue: j, Score: score}
			}
			if score < best.Score-drop {
				continue
			}
			row[k+d] = int32(i)
			anyValid = true
			if i >= st.ulen && j >= st.vlen {
				complete = true
			}
		}
		st.gens = append(st.gens, row)
		if complete {
			break
		}
		if !anyValid {
			emptyRun++
			if emptyRun > p.allowedEmptyGenerations {
				break
			}
		} else {
			emptyRun = 0
		}
	}
	best.Score /= p.scale
	return best
}

// EvalXDropRight extends to the right from the absolute positions uPos
// and vPos over src, at most ulen and vlen residues.
func EvalXDropRight(src seqio.Encoded, sc Scores, uPos, vPos, ulen, vlen, dropScore int) XDropBest {
	return evalXDrop(
		xdropSeq{src: src, origin: uPos, right: true},
		xdropSeq{src: src, origin: vPos, right: true},
		ulen, vlen, sc, dropScore)
}

// EvalXDropLeft extends to the left, reading backwards from uPos-1 and
// vPos-1.
func EvalXDropLeft(src seqio.Encoded, sc Scores, uPos, vPos, ulen, vlen, dropScore int) XDropBest {
	return evalXDrop(
		xdropSeq{src: src, origin: uPos},
		xdropSeq{src: src, origin: vPos},
		ulen, vlen, sc, dropScore)
}
