// Copyright 2019 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package seqio provides the positional sequence views consumed by the
// aligner packages.  A View is an immutable window over a stretch of
// residues in some backing source (a flat byte buffer, a twobit-packed
// buffer, a lazily decoding Reader, or any Encoded sequence), read in one
// of the four canonical directions.  Residues are ASCII bytes; the
// wildcard residue never matches anything, including itself.
package seqio
