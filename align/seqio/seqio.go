// Copyright 2019 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package seqio

import (
	"github.com/grailbio/ltrharvest/biosimd"
	"github.com/pkg/errors"
)

// Wildcard is the residue code that never matches any residue, itself
// included.
const Wildcard = byte('N')

// Separator terminates one sequence and starts the next inside a
// multi-sequence stream.  It is not a residue; views never contain it.
const Separator = byte(0x00)

// Direction selects one of the four canonical reading modes of a view.
type Direction uint8

const (
	Forward Direction = iota
	Reverse
	ReverseComplement
	Complement
)

// IsReverse reports whether the direction reads the source right to left.
func (d Direction) IsReverse() bool {
	return d == Reverse || d == ReverseComplement
}

// IsComplement reports whether residues are complemented on access.
func (d Direction) IsComplement() bool {
	return d == Complement || d == ReverseComplement
}

func (d Direction) String() string {
	switch d {
	case Forward:
		return "forward"
	case Reverse:
		return "reverse"
	case ReverseComplement:
		return "reverse-complement"
	default:
		return "complement"
	}
}

// Reader emits residues of an indexed sequence one at a time, already
// oriented by the provider.  It is the cursor type Provider.ReaderAt
// returns.
type Reader interface {
	Next() byte
}

// Encoded is the generic random-access sequence source.
type Encoded interface {
	Len() int
	CharAt(pos int) byte
}

// Provider is the indexed-sequence collaborator the LTR pipeline consumes.
// Positions are absolute over the concatenation of all sequences, with
// Separator bytes between consecutive sequences.
type Provider interface {
	Encoded
	NumSequences() int
	SequenceStart(contig int) int
	SequenceLength(contig int) int
	ReaderAt(pos int, forward bool) Reader
}

const readerCacheChunk = 16

// View is an immutable positional window of length Len() over a backing
// source.  Exactly one of the backing fields is set; CharAt dispatches on
// it.  Direction and complementation are fixed at construction.
type View struct {
	bytes   []byte
	twobit  []uint64
	reader  Reader
	cache   []byte
	encoded Encoded

	length          int
	offset          int
	totalLen        int
	readLeftToRight bool
	dirIsComplement bool
}

// Len returns the number of logical residues in the view.
func (v *View) Len() int { return v.length }

func extendOffset(rightExtension bool, dir Direction, start, length, totalLen int) (offset int, leftToRight bool) {
	leftToRight = rightExtension != dir.IsReverse()
	switch {
	case rightExtension && !dir.IsReverse():
		offset = start
	case rightExtension && dir.IsReverse():
		offset = totalLen - 1 - start
	case !rightExtension && !dir.IsReverse():
		offset = start + length - 1
	default:
		offset = totalLen - start - length
	}
	return offset, leftToRight
}

func checkBounds(dir Direction, start, length, totalLen int) error {
	if start < 0 || length < 0 {
		return errors.Errorf("seqio: negative view coordinates start=%d len=%d", start, length)
	}
	if dir.IsReverse() && totalLen < 0 {
		return errors.New("seqio: reverse view requires a known total length")
	}
	if totalLen >= 0 && start+length > totalLen {
		return errors.Errorf("seqio: view [%d,%d) exceeds source length %d", start, start+length, totalLen)
	}
	return nil
}

// NewBytesView returns a view over a flat encoded buffer.  start and
// length are in the view's direction coordinates; rightExtension selects
// whether logical index 0 sits at the left or the right end of the window.
func NewBytesView(seq []byte, dir Direction, rightExtension bool, start, length int) (*View, error) {
	if err := checkBounds(dir, start, length, len(seq)); err != nil {
		return nil, err
	}
	offset, l2r := extendOffset(rightExtension, dir, start, length, len(seq))
	return &View{
		bytes:           seq,
		length:          length,
		offset:          offset,
		totalLen:        len(seq),
		readLeftToRight: l2r,
		dirIsComplement: dir.IsComplement(),
	}, nil
}

// NewTwoBitView returns a view over a twobit-packed buffer holding
// totalLen residues.  Twobit sources cannot hold wildcards.
func NewTwoBitView(packed []uint64, totalLen int, dir Direction, rightExtension bool, start, length int) (*View, error) {
	if err := checkBounds(dir, start, length, totalLen); err != nil {
		return nil, err
	}
	if need := (totalLen + 31) / 32; len(packed) < need {
		return nil, errors.Errorf("seqio: twobit buffer holds %d words, need %d for %d residues",
			len(packed), need, totalLen)
	}
	offset, l2r := extendOffset(rightExtension, dir, start, length, totalLen)
	return &View{
		twobit:          packed,
		length:          length,
		offset:          offset,
		totalLen:        totalLen,
		readLeftToRight: l2r,
		dirIsComplement: dir.IsComplement(),
	}, nil
}

// NewEncodedView returns a view over a generic random-access source.
func NewEncodedView(src Encoded, dir Direction, rightExtension bool, start, length int) (*View, error) {
	if err := checkBounds(dir, start, length, src.Len()); err != nil {
		return nil, err
	}
	offset, l2r := extendOffset(rightExtension, dir, start, length, src.Len())
	return &View{
		encoded:         src,
		length:          length,
		offset:          offset,
		totalLen:        src.Len(),
		readLeftToRight: l2r,
		dirIsComplement: dir.IsComplement(),
	}, nil
}

// NewReaderView returns a view over a cursor already positioned at the
// view's logical index 0 and oriented in the view's reading direction.
// Residues are decoded on demand into a grow-on-demand cache, so random
// access at monotonically increasing indices stays cheap.
func NewReaderView(r Reader, dir Direction, length int) (*View, error) {
	if length < 0 {
		return nil, errors.Errorf("seqio: negative view length %d", length)
	}
	return &View{
		reader:          r,
		length:          length,
		totalLen:        -1,
		readLeftToRight: true,
		dirIsComplement: dir.IsComplement(),
	}, nil
}

// twoBitBase extracts the 2-bit code of residue pos, most significant
// pair first within each word.
func twoBitBase(packed []uint64, pos int) byte {
	return byte(packed[pos>>5]>>uint(2*(31-pos&31))) & 3
}

var twoBitToASCII = [4]byte{'A', 'C', 'G', 'T'}

// PackTwoBit packs ASCII residues into the twobit layout NewTwoBitView
// reads.  It panics on wildcards; twobit sources are only usable for
// wildcard-free stretches.
func PackTwoBit(seq []byte) []uint64 {
	packed := make([]uint64, (len(seq)+31)/32)
	for i, c := range seq {
		var code uint64
		switch c {
		case 'A', 'a':
			code = 0
		case 'C', 'c':
			code = 1
		case 'G', 'g':
			code = 2
		case 'T', 't':
			code = 3
		default:
			panic("seqio.PackTwoBit: wildcard in twobit source")
		}
		packed[i>>5] |= code << uint(2*(31-i&31))
	}
	return packed
}

func (v *View) readerCharAt(i int) byte {
	for i >= len(v.cache) {
		want := len(v.cache) + readerCacheChunk
		if want > v.length {
			want = v.length
		}
		for len(v.cache) < want {
			v.cache = append(v.cache, v.reader.Next())
		}
	}
	return v.cache[i]
}

// CharAt returns the logical residue at index i in [0, Len()).  Direction
// and complement transformations are applied; wildcards come back
// verbatim (never complemented).
func (v *View) CharAt(i int) byte {
	var cc byte
	switch {
	case v.twobit != nil:
		pos := v.offset + i
		if !v.readLeftToRight {
			pos = v.offset - i
		}
		code := twoBitBase(v.twobit, pos)
		if v.dirIsComplement {
			code = 3 - code
		}
		return twoBitToASCII[code]
	case v.reader != nil:
		cc = v.readerCharAt(i)
	default:
		pos := v.offset + i
		if !v.readLeftToRight {
			pos = v.offset - i
		}
		if v.bytes != nil {
			cc = v.bytes[pos]
		} else {
			cc = v.encoded.CharAt(pos)
		}
	}
	if v.dirIsComplement && !biosimd.IsWildcard(cc) {
		return biosimd.Complement(cc)
	}
	return cc
}

// symbolMatch reports whether the residues at upos/vpos exist and match.
// A wildcard on either side is never a match.
func symbolMatch(u *View, upos int, v *View, vpos int) bool {
	if upos >= u.length || vpos >= v.length {
		return false
	}
	cu := u.CharAt(upos)
	return !biosimd.IsWildcard(cu) && cu == v.CharAt(vpos)
}

// Lcp returns the length of the longest common prefix of the two logical
// substrings u[ustart:] and v[vstart:], stopping at the first wildcard or
// difference.
func Lcp(u *View, ustart int, v *View, vstart int) int {
	upos, vpos := ustart, vstart
	for symbolMatch(u, upos, v, vpos) {
		upos++
		vpos++
	}
	return upos - ustart
}
