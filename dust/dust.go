// Copyright 2019 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package dust implements the streaming DUST low-complexity masker.  The
// masker scores triplet frequencies over a sliding window of the input
// and lowercases/wildcards every residue inside a window suffix whose
// mean pair count exceeds the threshold.  Residues buffer through a ring
// of windowsize+linker entries so masking decisions made while scanning
// ahead still apply to residues not yet emitted; output preserves input
// order, one residue per Next call.
package dust

import (
	"github.com/grailbio/ltrharvest/align/seqio"
	"github.com/grailbio/ltrharvest/circular"
	"github.com/grailbio/ltrharvest/interval"
	"github.com/pkg/errors"
)

const maxTripletValue = 63

// Options configure a Masker.  Zero values select the usual DUST
// parameters.
type Options struct {
	// WindowSize is the scoring window in residues (default 64).
	WindowSize int
	// Linker glues masked regions closer than this many residues
	// (default 1: no linking).
	Linker int
	// Threshold is the mean triplet pair count above which a window
	// suffix masks (default 2.0).
	Threshold float64
}

// Pair is one input or output element: the encoded value and the
// original byte.  A Val of seqio.Separator ends one sequence.
type Pair struct {
	Val  byte
	Orig byte
}

// Input feeds residues to the masker one at a time.
type Input interface {
	Next() (Pair, bool)
}

type entry struct {
	val        byte
	orig       byte
	maskLength int
	nextMask   int
	maxScore   float64
}

// tripletQueue is the FIFO of recent triplet codes, at most
// windowsize-2 long, with indexed access for the L-window shrink.
type tripletQueue struct {
	slots []byte
	head  int
	size  int
}

func newTripletQueue(capacity int) *tripletQueue {
	return &tripletQueue{slots: make([]byte, capacity)}
}

func (q *tripletQueue) push(t byte) {
	q.slots[(q.head+q.size)%len(q.slots)] = t
	q.size++
}

func (q *tripletQueue) popFront() byte {
	t := q.slots[q.head]
	q.head = (q.head + 1) % len(q.slots)
	q.size--
	return t
}

// at returns the i'th element counted from the front (oldest first).
func (q *tripletQueue) at(i int) byte {
	return q.slots[(q.head+i)%len(q.slots)]
}

func (q *tripletQueue) reset() {
	q.head = 0
	q.size = 0
}

// Masker holds the streaming state.  Phase 1 (scanning) runs until the
// input is exhausted; reopening the same masker on a fresh input of the
// same data replays the recorded masked ranges without rescanning.
type Masker struct {
	opts    Options
	bufSize int

	buf            circular.Buffer[entry]
	bufInitialized bool
	readPos        int // absolute position of the next emit
	insertPos      int // absolute position of the next insert
	remaining      int

	nuc1, nuc2 byte

	// Counter names follow Morgulis et al. 2006.
	rv, rw int
	cv, cw [maxTripletValue + 1]int
	lParam int
	wq     *tripletQueue

	totalLength   int
	currentLength int

	currentPosTotal int
	lastSeqStart    int

	maskLength      int
	nextMask        int
	currentIsMasked bool
	regionStart     int

	maskingDone bool
	ranges      interval.RangesBuilder
	built       interval.Ranges

	// Fast-replay cursor over the recorded masked ranges.
	replayScan  interval.UnionScanner
	replayStart interval.PosType
	replayEnd   interval.PosType
}

// New returns a masker.  WindowSize must hold at least one triplet.
func New(opts Options) (*Masker, error) {
	if opts.WindowSize == 0 {
		opts.WindowSize = 64
	}
	if opts.Linker == 0 {
		opts.Linker = 1
	}
	if opts.Threshold == 0 {
		opts.Threshold = 2.0
	}
	if opts.WindowSize < 3 {
		return nil, errors.Errorf("dust: window size %d holds no triplet", opts.WindowSize)
	}
	if opts.Linker < 1 {
		return nil, errors.Errorf("dust: linker %d must be at least 1", opts.Linker)
	}
	if opts.Threshold <= 0 {
		return nil, errors.Errorf("dust: threshold %g must be positive", opts.Threshold)
	}
	bufSize := opts.WindowSize + opts.Linker
	return &Masker{
		opts:    opts,
		bufSize: bufSize,
		buf:     circular.NewBuffer[entry](bufSize),
		wq:      newTripletQueue(opts.WindowSize),
	}, nil
}

func nucleotideValue(c byte) byte {
	switch c {
	case 'a', 'A':
		return 0
	case 'c', 'C':
		return 1
	case 'g', 'G':
		return 2
	case 't', 'T':
		return 3
	}
	return 0
}

func addTriplet(r *int, c *[maxTripletValue + 1]int, t byte) {
	*r += c[t]
	c[t]++
}

func remTriplet(r *int, c *[maxTripletValue + 1]int, t byte) {
	c[t]--
	*r -= c[t]
}

// findPerfect scans the suffixes of the current window for the
// highest-scoring one above the threshold that dominates every
// previously masked interval it overlaps, and records the mask (and,
// when linking, the glue distance) in the ring.
func (m *Masker) findPerfect() {
	r := m.rv
	ctmp := m.cv

	linkerOffset := 0
	if m.currentLength > m.opts.WindowSize {
		linkerOffset = m.opts.Linker
		if rest := m.currentLength - m.opts.WindowSize; rest < linkerOffset {
			linkerOffset = rest
		}
	}
	readPos := m.readPos
	if m.currentLength < m.bufSize {
		readPos = m.lastSeqStart
	}

	length := m.wq.size - m.lParam - 1
	var maxScore, scoreToBeat float64
	found := false
	bestIdx := 0
	for step := 0; step <= length; step++ {
		idx := length - step
		e := m.buf.At(readPos + idx + linkerOffset)
		if e.maxScore > scoreToBeat {
			scoreToBeat = e.maxScore
		}
		addTriplet(&r, &ctmp, m.wq.at(idx))
		newScore := float64(r) / float64(m.wq.size-idx-1)
		if newScore > m.opts.Threshold && newScore >= maxScore && newScore >= scoreToBeat {
			found = true
			maxScore = newScore
			bestIdx = idx
			e.maxScore = maxScore
		}
	}
	if !found {
		return
	}
	e := m.buf.At(readPos + bestIdx + linkerOffset)
	if ml := m.wq.size + 2 - bestIdx; ml > e.maskLength {
		e.maskLength = ml
	}
	if m.opts.Linker > 1 {
		linkLength := bestIdx + linkerOffset
		if m.opts.Linker < linkLength {
			linkLength = m.opts.Linker
		}
		if m.currentLength-1 < linkLength {
			linkLength = m.currentLength - 1
		}
		le := m.buf.At(readPos + bestIdx + linkerOffset - linkLength)
		if linkLength > le.nextMask {
			le.nextMask = linkLength
		}
	}
}

// shiftWindow reads one residue into the ring and advances the scan
// counters.  It returns false when the input is exhausted.
func (m *Masker) shiftWindow(in Input) bool {
	p, ok := in.Next()
	if !ok {
		return false
	}
	m.remaining++
	m.currentLength++
	m.totalLength++
	*m.buf.At(m.insertPos) = entry{val: p.Val, orig: p.Orig}
	m.insertPos++

	if m.maskingDone {
		return true
	}
	if p.Val == seqio.Separator {
		// Reset per-sequence state for the next sequence in the stream.
		m.lastSeqStart = m.insertPos
		m.nuc1, m.nuc2 = 0, 0
		m.rv, m.rw = 0, 0
		m.lParam = 0
		m.currentLength = 0
		m.cv = [maxTripletValue + 1]int{}
		m.cw = [maxTripletValue + 1]int{}
		m.wq.reset()
		return true
	}

	nuc := nucleotideValue(p.Orig)
	triplet := m.nuc1*16 + m.nuc2*4 + nuc
	m.nuc1, m.nuc2 = m.nuc2, nuc
	if m.currentLength <= 2 {
		return true
	}

	if m.wq.size >= m.opts.WindowSize-2 {
		s := m.wq.popFront()
		remTriplet(&m.rw, &m.cw, s)
		if m.lParam > m.wq.size {
			m.lParam--
			remTriplet(&m.rv, &m.cv, s)
		}
	}
	m.wq.push(triplet)
	m.lParam++
	addTriplet(&m.rw, &m.cw, triplet)
	addTriplet(&m.rv, &m.cv, triplet)
	if float64(m.cv[triplet]) > 2*m.opts.Threshold {
		// Shrink the L-window from its left end until its trailing
		// triplet equals the overrepresented one.
		for {
			s := m.wq.at(m.wq.size - m.lParam)
			remTriplet(&m.rv, &m.cv, s)
			m.lParam--
			if s == triplet {
				break
			}
		}
	}
	if float64(m.rw) > float64(m.lParam)*m.opts.Threshold {
		m.findPerfect()
	}
	return true
}

func lowercase(c byte) byte {
	if c >= 'A' && c <= 'Z' {
		return c + 32
	}
	return c
}

func (m *Masker) recordMasked(pos int) {
	if !m.currentIsMasked {
		m.regionStart = pos
	}
	m.currentIsMasked = true
}

func (m *Masker) flushRegion(pos int) {
	if m.currentIsMasked {
		m.ranges.Add(interval.PosType(m.regionStart), interval.PosType(pos))
		m.currentIsMasked = false
	}
}

// Next emits the next residue of the masked stream.  During the first
// pass it scans ahead through the ring; once the input is exhausted the
// masker switches to replay mode, and a subsequent Next call sequence
// over a fresh input of the same data applies the recorded ranges
// directly.  Each residue is emitted exactly once per pass, in input
// order.
func (m *Masker) Next(in Input) (Pair, bool) {
	if m.maskingDone {
		return m.replay(in)
	}
	if !m.bufInitialized {
		for i := 0; i < m.bufSize; i++ {
			if !m.shiftWindow(in) {
				break
			}
		}
		m.bufInitialized = true
	}
	if m.remaining == 0 {
		m.flushRegion(m.currentPosTotal)
		m.built = m.ranges.Build()
		m.maskingDone = true
		m.currentPosTotal = 0
		m.resetReplay()
		return Pair{}, false
	}
	m.remaining--
	e := m.buf.At(m.readPos)
	if e.maskLength > m.maskLength {
		m.maskLength = e.maskLength
	}
	if m.opts.Linker > 1 {
		if e.nextMask > m.nextMask {
			m.nextMask = e.nextMask
		}
		if m.maskLength > 0 && m.nextMask > m.maskLength {
			m.maskLength = m.nextMask
		}
		if m.nextMask > 0 {
			m.nextMask--
		}
	}
	p := Pair{Val: e.val, Orig: e.orig}
	if p.Val == seqio.Separator {
		// Masks never cross a separator: the pending mask ends here and
		// does not bleed into the next sequence.
		m.maskLength = 0
		m.nextMask = 0
		m.flushRegion(m.currentPosTotal)
	} else if m.maskLength > 0 {
		p.Orig = lowercase(p.Orig)
		p.Val = seqio.Wildcard
		m.recordMasked(m.currentPosTotal)
		m.maskLength--
	} else {
		m.flushRegion(m.currentPosTotal)
	}
	m.readPos++
	m.currentPosTotal++
	m.shiftWindow(in)
	return p, true
}

func (m *Masker) resetReplay() {
	m.replayScan = m.built.Scanner()
	m.replayStart, m.replayEnd = 0, 0
}

func (m *Masker) replay(in Input) (Pair, bool) {
	p, ok := in.Next()
	if !ok {
		m.resetReplay()
		m.currentPosTotal = 0
		return Pair{}, false
	}
	pos := interval.PosType(m.currentPosTotal)
	for pos >= m.replayEnd {
		if !m.replayScan.Scan(&m.replayStart, &m.replayEnd, interval.PosTypeMax) {
			m.replayStart, m.replayEnd = interval.PosTypeMax, interval.PosTypeMax
			break
		}
	}
	if pos >= m.replayStart && pos < m.replayEnd && p.Val != seqio.Separator {
		p.Orig = lowercase(p.Orig)
		p.Val = seqio.Wildcard
	}
	m.currentPosTotal++
	return p, true
}

// Done reports whether the scanning pass has finished.
func (m *Masker) Done() bool { return m.maskingDone }

// Ranges returns the masked regions, as half-open positions over the
// emitted stream (separators included in the numbering, never masked).
// Valid once Done.
func (m *Masker) Ranges() interval.Ranges { return m.built }
