// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package biosimd provides ASCII lookup-table primitives -- complement and
// wildcard detection -- for the residue access layer in package
// align/seqio.
//
// See base/simd/doc.go for more comments on the overall table-driven design
// this package reuses.
package biosimd
