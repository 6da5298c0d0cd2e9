// Copyright 2019 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package eoplist

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// Script: 1D 1I 2= 1N(10) 5= ...
func cutoffFixture() *List {
	l := NewList()
	l.Deletion()
	l.Insertion()
	l.Match(2)
	l.Intron(10)
	l.Match(5)
	l.Mismatch()
	return l
}

func TestLeadingCutoffsMinimal(t *testing.T) {
	c := cutoffFixture().LeadingCutoffs(CutoffMinimal, 0)
	// Trims the leading deletion and insertion, stops at the first match.
	assert.Equal(t, Cutoffs{Genomic: 1, Reference: 1, Eops: 2}, c)
}

func TestLeadingCutoffsRelaxed(t *testing.T) {
	c := cutoffFixture().LeadingCutoffs(CutoffRelaxed, 0)
	// The first matching stretch (2=) survives; trimming stops there.
	assert.Equal(t, Cutoffs{Genomic: 1, Reference: 1, Eops: 2}, c)
}

func TestLeadingCutoffsStrict(t *testing.T) {
	// minExonLen 4: the 2= stretch is too short, so it is trimmed along
	// with the following intron; the 5= stretch satisfies the minimum.
	c := cutoffFixture().LeadingCutoffs(CutoffStrict, 4)
	assert.Equal(t, Cutoffs{Genomic: 1 + 2 + 10, Reference: 1 + 2, Eops: 4}, c)

	// minExonLen 2: the 2= stretch already satisfies the minimum.
	c = cutoffFixture().LeadingCutoffs(CutoffStrict, 2)
	assert.Equal(t, Cutoffs{Genomic: 1, Reference: 1, Eops: 2}, c)
}

func TestTerminalCutoffs(t *testing.T) {
	l := NewList()
	l.Match(4)
	l.Deletion()
	l.Deletion()
	c := l.TerminalCutoffs(CutoffMinimal, 0)
	assert.Equal(t, Cutoffs{Genomic: 2, Reference: 0, Eops: 2}, c)
}

func TestCutoffsAllIndels(t *testing.T) {
	l := NewList()
	l.Deletion()
	l.Insertion()
	c := l.LeadingCutoffs(CutoffMinimal, 0)
	assert.Equal(t, Cutoffs{Genomic: 1, Reference: 1, Eops: 2}, c)
	c = l.LeadingCutoffs(CutoffRelaxed, 0)
	assert.Equal(t, Cutoffs{Genomic: 1, Reference: 1, Eops: 2}, c)
}
