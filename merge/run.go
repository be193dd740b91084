// Copyright 2020 Grail Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package merge

import (
	"context"
	"fmt"
	"io"

	"github.com/grailbio/base/log"
	"github.com/grailbio/hapmerge/encoding/vcf"
	"github.com/grailbio/hapmerge/interval"
)

// newFilter builds the site filter requested by opts.BedPath or opts.Region.
// It returns nil if neither is set.
func newFilter(ctx context.Context, opts *Opts) (func(vcf.SiteKey) bool, error) {
	if opts.BedPath == "" && opts.Region == "" {
		return nil, nil
	}
	if opts.BedPath != "" && opts.Region != "" {
		return nil, fmt.Errorf("merge: bed and region restrictions can't be used together")
	}
	var (
		bedUnion interval.BEDUnion
		err      error
	)
	if opts.BedPath != "" {
		if bedUnion, err = interval.NewBEDUnionFromPath(ctx, opts.BedPath); err != nil {
			return nil, err
		}
	} else {
		var regionEntry interval.Entry
		if regionEntry, err = interval.ParseRegionString(opts.Region); err != nil {
			return nil, err
		}
		if bedUnion, err = interval.NewBEDUnionFromEntries([]interval.Entry{regionEntry}); err != nil {
			return nil, err
		}
	}
	return bedUnion.ContainsSite, nil
}

// Run loads the haploid VCFs at hap1Path and hap2Path (either may be
// vcf.StdinPath, not both), merges them, and writes the phased diploid VCF to
// out.  Data-level problems are reported through opts.Warn and never cause an
// error; failing to open or read an input does.
func Run(ctx context.Context, hap1Path, hap2Path string, out io.Writer, opts *Opts) (stats Stats, err error) {
	if opts == nil {
		opts = &DefaultOpts
	}
	if hap1Path == vcf.StdinPath && hap2Path == vcf.StdinPath {
		return stats, fmt.Errorf("merge: hap1 and hap2 can't both be read from standard input")
	}
	filter := opts.Filter
	if filter == nil {
		if filter, err = newFilter(ctx, opts); err != nil {
			return
		}
	}
	loadOpts := vcf.LoadOpts{Warn: opts.Warn, Stdin: opts.Stdin}
	var hap1, hap2 *vcf.HaplotypeMap
	if hap1, err = vcf.NewHaplotypeMapFromPath(ctx, hap1Path, &loadOpts); err != nil {
		return
	}
	if hap2, err = vcf.NewHaplotypeMapFromPath(ctx, hap2Path, &loadOpts); err != nil {
		return
	}

	var w *vcf.Writer
	if w, err = vcf.NewWriter(out, opts.Sample); err != nil {
		return
	}
	mergeOpts := *opts
	mergeOpts.Filter = filter
	if stats, err = Maps(hap1, hap2, &mergeOpts, w.Write); err != nil {
		return
	}
	if err = w.Flush(); err != nil {
		return
	}
	log.Printf("merged %d hap1 and %d hap2 site(s) into %d site(s); wrote %d "+
		"(%d hap1-only, %d hap2-only, %d homozygous, %d heterozygous), "+
		"skipped %d REF mismatch, %d ALT==REF, %d outside region",
		hap1.Len(), hap2.Len(), stats.Sites, stats.Written,
		stats.ByOutcome[Hap1Only], stats.ByOutcome[Hap2Only],
		stats.ByOutcome[Homozygous], stats.ByOutcome[Heterozygous],
		stats.ByOutcome[RefMismatch], stats.ByOutcome[AltIsRef], stats.ByOutcome[Filtered])
	return
}
