// Copyright 2019 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package main

/*
bio-ltrharvest predicts LTR retrotransposon pairs in the input sequences
and writes one tab-separated candidate per line: contig, left LTR start
and end, right LTR start and end (contig-relative), TSD lengths, and
percent similarity.
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
	"github.com/grailbio/ltrharvest/ltr"
	"github.com/pkg/errors"
)

var (
	seed       = flag.Int("seed", 30, "Minimal exact seed length")
	minLenLTR  = flag.Int("minlenltr", 100, "Minimal LTR length")
	maxLenLTR  = flag.Int("maxlenltr", 1000, "Maximal LTR length")
	minDistLTR = flag.Int("mindistltr", 1000, "Minimal distance between LTR 5' borders")
	maxDistLTR = flag.Int("maxdistltr", 15000, "Maximal distance between LTR 5' borders")
	similar    = flag.Float64("similar", 85.0, "Minimal percent similarity of the two LTRs")
	xdrop      = flag.Int("xdrop", 5, "X-drop extension cutoff score")
	mat        = flag.Int("mat", 2, "Match score")
	mis        = flag.Int("mis", -2, "Mismatch score")
	ins        = flag.Int("ins", -3, "Insertion score")
	del        = flag.Int("del", -3, "Deletion score")
	minTSD     = flag.Int("mintsd", 4, "Minimal TSD length; 1 disables the TSD search")
	maxTSD     = flag.Int("maxtsd", 20, "Maximal TSD length")
	motif      = flag.String("motif", "", "Palindromic border motif (4 residues), empty for none")
	motifMis   = flag.Int("motifmis", 4, "Allowed motif mismatches; with -motif, 4 or more counts as 0")
	vicinity   = flag.Int("vic", 60, "Vicinity searched for TSDs and motifs around X-drop borders")
	overlaps   = flag.String("overlaps", "best", "Overlap handling: best, no, or all")
)

func bioLTRHarvestUsage() {
	fmt.Printf("Usage: %s [OPTIONS] fastapath\n", os.Args[0])
	fmt.Printf("Other options:\n")
	flag.PrintDefaults()
}

func readFasta(path string) (names []string, seqs [][]byte, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, errors.Wrap(err, path)
	}
	defer f.Close() // nolint: errcheck
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line[0] == '>' {
			names = append(names, line[1:])
			seqs = append(seqs, nil)
			continue
		}
		if len(seqs) == 0 {
			return nil, nil, errors.Errorf("%s: sequence data before the first FASTA header", path)
		}
		seqs[len(seqs)-1] = append(seqs[len(seqs)-1], []byte(strings.ToUpper(line))...)
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, errors.Wrap(err, path)
	}
	if len(seqs) == 0 {
		return nil, nil, errors.Errorf("%s: no FASTA records", path)
	}
	return names, seqs, nil
}

func buildOptions() (ltr.Options, error) {
	opts := ltr.DefaultOptions()
	opts.SeedLength = *seed
	opts.MinLTRLen = *minLenLTR
	opts.MaxLTRLen = *maxLenLTR
	opts.MinDistance = *minDistLTR
	opts.MaxDistance = *maxDistLTR
	opts.SimilarityThreshold = *similar
	opts.XDropScore = *xdrop
	opts.Scores = ltr.Scores{Match: *mat, Mismatch: *mis, Insertion: *ins, Deletion: *del}
	opts.MinTSD = *minTSD
	opts.MaxTSD = *maxTSD
	if *motif != "" {
		m, err := ltr.ParseMotif(*motif, *motifMis)
		if err != nil {
			return opts, err
		}
		if m.AllowedMismatches >= 4 {
			m.AllowedMismatches = 0
		}
		opts.Motif = m
	}
	opts.Vicinity = *vicinity
	switch *overlaps {
	case "best":
		opts.NoOverlap, opts.BestOfOverlap = false, true
	case "no":
		opts.NoOverlap, opts.BestOfOverlap = true, false
	case "all":
		opts.NoOverlap, opts.BestOfOverlap = false, false
	default:
		return opts, errors.Errorf("unknown -overlaps mode %q", *overlaps)
	}
	return opts, nil
}

func run(path string, out *bufio.Writer) error {
	names, seqs, err := readFasta(path)
	if err != nil {
		return err
	}
	opts, err := buildOptions()
	if err != nil {
		return err
	}
	provider := seqio.NewMultiSeq(seqs...)
	finder, err := ltr.NewFinder(opts, provider, nil)
	if err != nil {
		return err
	}
	candidates, err := finder.Find(&ltr.KmerSeedEnumerator{Provider: provider})
	if err != nil {
		return err
	}
	surviving := ltr.Surviving(candidates)
	if _, err := fmt.Fprintf(out, "# contig\tlLTR_start\tlLTR_end\trLTR_start\trLTR_end\tlTSD\trTSD\tsimilarity\n"); err != nil {
		return err
	}
	for _, c := range surviving {
		start := provider.SequenceStart(c.Contig)
		if _, err := fmt.Fprintf(out, "%s\t%d\t%d\t%d\t%d\t%d\t%d\t%.2f\n",
			names[c.Contig],
			c.LeftLTR5-start, c.LeftLTR3-start,
			c.RightLTR5-start, c.RightLTR3-start,
			c.LenLeftTSD, c.LenRightTSD, c.Similarity); err != nil {
			return err
		}
	}
	log.Printf("%d candidate(s) survive of %d predicted", len(surviving), len(candidates))
	return out.Flush()
}

func main() {
	flag.Usage = bioLTRHarvestUsage
	shutdown := grail.Init()
	defer shutdown()

	if flag.NArg() != 1 {
		log.Fatalf("Exactly one positional argument (fastapath) expected")
	}
	out := bufio.NewWriter(os.Stdout)
	if err := run(flag.Arg(0), out); err != nil {
		log.Fatalf("bio-ltrharvest: %v", err)
	}
}
