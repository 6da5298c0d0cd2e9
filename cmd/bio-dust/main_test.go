// Copyright 2019 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package main

import (
	"bufio"
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
)

func TestRun(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "in.fasta")
	fasta := ">poly\n" + strings.Repeat("A", 20) + "CGTACGTA\n>plain\nACGTGCATTGCAGG\n"
	assert.NoError(t, os.WriteFile(path, []byte(fasta), 0644))

	var buf bytes.Buffer
	assert.NoError(t, run(path, bufio.NewWriter(&buf)))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	expect.EQ(t, len(lines), 4)
	expect.EQ(t, lines[0], ">poly")
	expect.EQ(t, lines[1], strings.Repeat("a", 20)+"CGTACGTA")
	expect.EQ(t, lines[2], ">plain")
	expect.EQ(t, lines[3], "ACGTGCATTGCAGG")
}

func TestRunMissingFile(t *testing.T) {
	var buf bytes.Buffer
	err := run(filepath.Join(t.TempDir(), "nope.fasta"), bufio.NewWriter(&buf))
	expect.True(t, err != nil)
}

func TestReadFasta(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "in.fasta")
	assert.NoError(t, os.WriteFile(path, []byte(">a\nACGT\nACGT\n>b\nGG\n"), 0644))
	records, err := readFasta(path)
	assert.NoError(t, err)
	expect.EQ(t, len(records), 2)
	expect.EQ(t, string(records[0].seq), "ACGTACGT")
	expect.EQ(t, records[1].name, "b")

	assert.NoError(t, os.WriteFile(path, []byte("ACGT\n"), 0644))
	_, err = readFasta(path)
	expect.True(t, err != nil)
}
