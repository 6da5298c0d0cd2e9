// Copyright 2019 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package main

/*
bio-dust masks low-complexity stretches of the input sequences: masked
residues come out lowercased in the FASTA written to stdout.
*/

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/ltrharvest/align/seqio"
	"github.com/grailbio/ltrharvest/dust"
	"github.com/pkg/errors"
)

var (
	windowSize = flag.Int("window", 64, "Scoring window size in residues")
	linker     = flag.Int("linker", 1, "Mask-linking distance; 1 disables linking")
	threshold  = flag.Float64("threshold", 2.0, "Masking score threshold")
	lineWidth  = flag.Int("width", 60, "Output FASTA line width")
)

func bioDustUsage() {
	fmt.Printf("Usage: %s [OPTIONS] fastapath\n", os.Args[0])
	fmt.Printf("Other options:\n")
	flag.PrintDefaults()
}

type record struct {
	name string
	seq  []byte
}

func readFasta(path string) ([]record, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, path)
	}
	defer f.Close() // nolint: errcheck
	var records []record
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line[0] == '>' {
			records = append(records, record{name: line[1:]})
			continue
		}
		if len(records) == 0 {
			return nil, errors.Errorf("%s: sequence data before the first FASTA header", path)
		}
		records[len(records)-1].seq = append(records[len(records)-1].seq, []byte(line)...)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrap(err, path)
	}
	if len(records) == 0 {
		return nil, errors.Errorf("%s: no FASTA records", path)
	}
	return records, nil
}

type recordsInput struct {
	records []record
	rec     int
	pos     int
}

func (in *recordsInput) Next() (dust.Pair, bool) {
	for in.rec < len(in.records) {
		if in.pos < len(in.records[in.rec].seq) {
			c := in.records[in.rec].seq[in.pos]
			in.pos++
			return dust.Pair{Val: c, Orig: c}, true
		}
		in.rec++
		in.pos = 0
		if in.rec < len(in.records) {
			return dust.Pair{Val: seqio.Separator}, true
		}
	}
	return dust.Pair{}, false
}

func run(path string, out *bufio.Writer) error {
	records, err := readFasta(path)
	if err != nil {
		return err
	}
	masker, err := dust.New(dust.Options{
		WindowSize: *windowSize,
		Linker:     *linker,
		Threshold:  *threshold,
	})
	if err != nil {
		return err
	}
	in := &recordsInput{records: records}
	rec, col := 0, 0
	startRecord := func() error {
		if _, err := fmt.Fprintf(out, ">%s\n", records[rec].name); err != nil {
			return err
		}
		col = 0
		return nil
	}
	if err := startRecord(); err != nil {
		return err
	}
	for {
		p, ok := masker.Next(in)
		if !ok {
			break
		}
		if p.Val == seqio.Separator {
			if col != 0 {
				if err := out.WriteByte('\n'); err != nil {
					return err
				}
			}
			rec++
			if err := startRecord(); err != nil {
				return err
			}
			continue
		}
		if err := out.WriteByte(p.Orig); err != nil {
			return err
		}
		if col++; col == *lineWidth {
			if err := out.WriteByte('\n'); err != nil {
				return err
			}
			col = 0
		}
	}
	if col != 0 {
		if err := out.WriteByte('\n'); err != nil {
			return err
		}
	}
	maskedRanges := masker.Ranges()
	log.Printf("masked %d region(s) over %d record(s)", maskedRanges.Len(), len(records))
	return out.Flush()
}

func main() {
	flag.Usage = bioDustUsage
	shutdown := grail.Init()
	defer shutdown()

	if flag.NArg() != 1 {
		log.Fatalf("Exactly one positional argument (fastapath) expected")
	}
	out := bufio.NewWriter(os.Stdout)
	if err := run(flag.Arg(0), out); err != nil {
		log.Fatalf("bio-dust: %v", err)
	}
}
