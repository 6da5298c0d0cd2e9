// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package biosimd

// complementTable maps every byte to its IUPAC complement, following the
// same 256-entry "anything not recognized maps to the wildcard" convention
// biosimd's original revComp8Table used for .bam ASCII residues, extended
// with the lowercase letters align/seqio needs to preserve soft-masked case.
var complementTable = buildComplementTable()

func buildComplementTable() (t [256]byte) {
	for i := range t {
		t[i] = 'N'
	}
	pairs := [...][2]byte{
		{'A', 'T'}, {'C', 'G'}, {'G', 'C'}, {'T', 'A'},
		{'a', 't'}, {'c', 'g'}, {'g', 'c'}, {'t', 'a'},
		{'N', 'N'}, {'n', 'n'},
	}
	for _, p := range pairs {
		t[p[0]] = p[1]
	}
	return t
}

// Complement returns the IUPAC complement of a single ASCII residue byte.
// Bytes outside {A,C,G,T,N} (upper or lower case) complement to 'N'.
// Reverse-complement reads never materialize a buffer: seqio.View applies
// this per index under its direction flags.
func Complement(b byte) byte {
	return complementTable[b]
}

// isWildcardTable marks every residue treated as a wildcard: it never
// matches anything, including another wildcard at the same logical position.
var isWildcardTable = buildWildcardTable()

func buildWildcardTable() (t [256]bool) {
	t['N'] = true
	t['n'] = true
	return t
}

// IsWildcard reports whether b is the wildcard residue code.
func IsWildcard(b byte) bool {
	return isWildcardTable[b]
}
