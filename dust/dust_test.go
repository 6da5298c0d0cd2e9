// Copyright 2019 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package dust

import (
	"strings"
	"testing"

	"github.com/grailbio/ltrharvest/align/seqio"
	"github.com/grailbio/ltrharvest/interval"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sliceInput struct {
	pairs []Pair
	pos   int
}

func (s *sliceInput) Next() (Pair, bool) {
	if s.pos >= len(s.pairs) {
		return Pair{}, false
	}
	p := s.pairs[s.pos]
	s.pos++
	return p, true
}

func inputFromString(s string) *sliceInput {
	in := &sliceInput{}
	for i := 0; i < len(s); i++ {
		in.pairs = append(in.pairs, Pair{Val: s[i], Orig: s[i]})
	}
	return in
}

// inputFromSeqs joins sequences with separator pairs.
func inputFromSeqs(seqs ...string) *sliceInput {
	in := &sliceInput{}
	for i, s := range seqs {
		if i > 0 {
			in.pairs = append(in.pairs, Pair{Val: seqio.Separator, Orig: 0})
		}
		for j := 0; j < len(s); j++ {
			in.pairs = append(in.pairs, Pair{Val: s[j], Orig: s[j]})
		}
	}
	return in
}

func drain(t *testing.T, m *Masker, in Input) []Pair {
	var out []Pair
	for {
		p, ok := m.Next(in)
		if !ok {
			break
		}
		out = append(out, p)
	}
	return out
}

func origString(out []Pair) string {
	var sb strings.Builder
	for _, p := range out {
		if p.Val == seqio.Separator {
			sb.WriteByte('|')
		} else {
			sb.WriteByte(p.Orig)
		}
	}
	return sb.String()
}

func TestOptionsValidation(t *testing.T) {
	_, err := New(Options{WindowSize: 2})
	assert.Error(t, err)
	_, err = New(Options{Threshold: -1})
	assert.Error(t, err)
	_, err = New(Options{Linker: -3})
	assert.Error(t, err)
	m, err := New(Options{})
	require.NoError(t, err)
	assert.Equal(t, 64, m.opts.WindowSize)
}

func TestMasksPolyA(t *testing.T) {
	input := strings.Repeat("A", 20) + "CGTACGTA"
	m, err := New(Options{WindowSize: 64, Linker: 10, Threshold: 2.0})
	require.NoError(t, err)
	out := drain(t, m, inputFromString(input))
	require.Len(t, out, len(input))

	// The poly-A stretch is masked, the complex tail untouched.
	assert.Equal(t, strings.Repeat("a", 20)+"CGTACGTA", origString(out))
	for i := 0; i < 20; i++ {
		assert.Equal(t, seqio.Wildcard, out[i].Val, "position %d", i)
	}
	for i := 20; i < len(input); i++ {
		assert.Equal(t, input[i], out[i].Val, "position %d", i)
	}

	require.True(t, m.Done())
	ranges := m.Ranges()
	require.Equal(t, 1, ranges.Len())
	assert.Equal(t, interval.Entry{Start: 0, End: 20}, ranges.At(0))
}

func TestComplexSequenceUnmasked(t *testing.T) {
	input := "ACGTGCATTGCAGGACTTCAGCATCGTACGATCAGT"
	m, err := New(Options{})
	require.NoError(t, err)
	out := drain(t, m, inputFromString(input))
	assert.Equal(t, input, origString(out))
	ranges := m.Ranges()
	assert.Equal(t, 0, ranges.Len())
}

func TestOutputOrderAndCount(t *testing.T) {
	input := strings.Repeat("TATATATATA", 8) + "GGCATC"
	m, err := New(Options{})
	require.NoError(t, err)
	out := drain(t, m, inputFromString(input))
	require.Len(t, out, len(input))
	for i, p := range out {
		assert.Equal(t, input[i], byte(strings.ToUpper(string(p.Orig))[0]), "position %d", i)
	}
}

func TestIdempotence(t *testing.T) {
	input := strings.Repeat("A", 30) + "CGTACGATCA" + strings.Repeat("TG", 20)
	m1, err := New(Options{})
	require.NoError(t, err)
	first := drain(t, m1, inputFromString(input))

	m2, err := New(Options{})
	require.NoError(t, err)
	second := drain(t, m2, &sliceInput{pairs: first})

	assert.Equal(t, first, second)
}

func TestSeparatorResetsState(t *testing.T) {
	// The first sequence is low complexity, the second is not; state
	// must not leak across the separator.
	m, err := New(Options{WindowSize: 16, Threshold: 2.0})
	require.NoError(t, err)
	out := drain(t, m, inputFromSeqs(strings.Repeat("A", 30), "ACGTGCATCGAT"))
	require.Len(t, out, 30+1+12)
	assert.Equal(t, seqio.Separator, out[30].Val)
	for i := 31; i < len(out); i++ {
		assert.NotEqual(t, seqio.Wildcard, out[i].Val, "position %d", i)
	}
	// No recorded range crosses the separator at position 30.
	ranges := m.Ranges()
	for _, e := range ranges.List() {
		assert.False(t, e.Start <= 30 && e.End > 30, "range %v crosses the separator", e)
	}
}

func TestReplayMatchesFirstPass(t *testing.T) {
	input := strings.Repeat("A", 25) + "CGTACGATCG"
	m, err := New(Options{})
	require.NoError(t, err)
	first := drain(t, m, inputFromString(input))
	require.True(t, m.Done())

	// Reopening the masker on the same data replays the recorded ranges.
	second := drain(t, m, inputFromString(input))
	assert.Equal(t, first, second)
}

func TestLinkerGluesNearbyMasks(t *testing.T) {
	// Two low-complexity stretches separated by a short complex gap.
	input := strings.Repeat("A", 30) + "CGTAG" + strings.Repeat("A", 30)
	linked, err := New(Options{WindowSize: 64, Linker: 10, Threshold: 2.0})
	require.NoError(t, err)
	drain(t, linked, inputFromString(input))

	plain, err := New(Options{WindowSize: 64, Linker: 1, Threshold: 2.0})
	require.NoError(t, err)
	drain(t, plain, inputFromString(input))

	maskedCount := func(r interval.Ranges) int {
		total := 0
		for _, e := range r.List() {
			total += int(e.End - e.Start)
		}
		return total
	}
	assert.GreaterOrEqual(t, maskedCount(linked.Ranges()), maskedCount(plain.Ranges()))
}
