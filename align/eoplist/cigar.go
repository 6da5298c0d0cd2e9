// Copyright 2019 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package eoplist

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Cigar operation letters.  Every intron variant renders as IntronChar and
// parses back as a plain intron; the protein frame-shift variants have no
// letter and render as '?'.
const (
	DeletionChar    = 'D'
	InsertionChar   = 'I'
	MatchChar       = '='
	MismatchChar    = 'X'
	ReplacementChar = 'M'
	IntronChar      = 'N'
)

// CigarOp is one decoded cigar run.
type CigarOp struct {
	Type      Type
	Iteration int
}

// Reader is an independent cursor over a list's operations, merging
// consecutive single-step operations of equal type into one cigar run.
// A list can be read any number of times with separate readers.
type Reader struct {
	list    *List
	current int
	step    int
}

// NewReader returns a forward reader over l.
func NewReader(l *List) *Reader {
	return &Reader{list: l, current: 0, step: 1}
}

// NewReverseReader returns a reader that walks l back to front.
func NewReverseReader(l *List) *Reader {
	return &Reader{list: l, current: l.Length() - 1, step: -1}
}

func (r *Reader) done() bool {
	return r.current < 0 || r.current >= r.list.Length()
}

// Next decodes the next cigar run.  When distinguish is false, match and
// mismatch merge into replacement runs.  It returns false at the end of
// the list.
func (r *Reader) Next(co *CigarOp, distinguish bool) bool {
	if r.done() {
		return false
	}
	co.Type = DecodeType(r.list.At(r.current), r.list.protein)
	if !distinguish && co.Type == TypeMismatch {
		co.Type = TypeMatch
	}
	co.Iteration = DecodeLength(r.list.At(r.current), r.list.protein)
	r.current += r.step
	for !r.done() {
		t := DecodeType(r.list.At(r.current), r.list.protein)
		if !distinguish && t == TypeMismatch {
			t = TypeMatch
		}
		if t != co.Type {
			return true
		}
		co.Iteration += DecodeLength(r.list.At(r.current), r.list.protein)
		r.current += r.step
	}
	return true
}

func cigarChar(t Type, distinguish bool) byte {
	switch t {
	case TypeMatch:
		if distinguish {
			return MatchChar
		}
		return ReplacementChar
	case TypeMismatch:
		if distinguish {
			return MismatchChar
		}
		return ReplacementChar
	case TypeDeletion:
		return DeletionChar
	case TypeInsertion:
		return InsertionChar
	case TypeIntron, TypeIntronWith1BaseLeft, TypeIntronWith2BasesLeft:
		return IntronChar
	}
	return '?'
}

// CigarString renders the list as <count><letter> tokens.  distinguish
// selects '='/'X' over the merged 'M'.
func (l *List) CigarString(distinguish bool) string {
	var sb strings.Builder
	var co CigarOp
	reader := NewReader(l)
	for reader.Next(&co, distinguish) {
		sb.WriteString(strconv.Itoa(co.Iteration))
		sb.WriteByte(cigarChar(co.Type, distinguish))
	}
	return sb.String()
}

// FromCigar parses a cigar string into l, stopping at sep, a newline, or
// the end of s.  Parsed operations append to the current contents.
func (l *List) FromCigar(s string, sep byte) error {
	iteration := 0
	sawDigit := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == sep || c == '\n' {
			break
		}
		if c >= '0' && c <= '9' {
			iteration = iteration*10 + int(c-'0')
			sawDigit = true
			continue
		}
		if !sawDigit {
			return errors.Errorf("eoplist: cigar operation %q without a count", c)
		}
		switch c {
		case DeletionChar:
			for k := 0; k < iteration; k++ {
				l.Deletion()
			}
		case InsertionChar:
			for k := 0; k < iteration; k++ {
				l.Insertion()
			}
		case MatchChar, ReplacementChar:
			l.Match(iteration)
		case MismatchChar:
			for k := 0; k < iteration; k++ {
				l.Mismatch()
			}
		case IntronChar:
			l.Intron(iteration)
		default:
			return errors.Errorf("eoplist: illegal symbol %q in cigar string", c)
		}
		iteration = 0
		sawDigit = false
	}
	return nil
}
