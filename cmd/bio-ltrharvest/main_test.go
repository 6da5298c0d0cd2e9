// Copyright 2019 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package main

import (
	"bufio"
	"bytes"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
)

func randSeq(rng *rand.Rand, n int) string {
	var sb strings.Builder
	for i := 0; i < n; i++ {
		sb.WriteByte("ACGT"[rng.Intn(4)])
	}
	return sb.String()
}

func TestRunFindsPlantedPair(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	ltrSeq := randSeq(rng, 200)
	tsd := "ACAGTC"
	seq := randSeq(rng, 400) + tsd + ltrSeq + randSeq(rng, 3000) +
		ltrSeq + tsd + randSeq(rng, 400)

	dir := t.TempDir()
	path := filepath.Join(dir, "in.fasta")
	assert.NoError(t, os.WriteFile(path, []byte(">chr\n"+seq+"\n"), 0644))

	var buf bytes.Buffer
	assert.NoError(t, run(path, bufio.NewWriter(&buf)))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	// Header plus exactly one candidate.
	expect.EQ(t, len(lines), 2)
	expect.True(t, strings.HasPrefix(lines[0], "# contig"))
	fields := strings.Split(lines[1], "\t")
	expect.EQ(t, len(fields), 8)
	expect.EQ(t, fields[0], "chr")
}

func TestBuildOptionsOverlapModes(t *testing.T) {
	for _, mode := range []string{"best", "no", "all"} {
		*overlaps = mode
		_, err := buildOptions()
		expect.NoError(t, err, "mode=%s", mode)
	}
	*overlaps = "bogus"
	_, err := buildOptions()
	expect.True(t, err != nil)
	*overlaps = "best"
}
