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
	"fmt"
	"io"

	"github.com/grailbio/base/log"
	"github.com/grailbio/hapmerge/encoding/vcf"
)

// Outcome classifies how a site was resolved.
type Outcome int

const (
	// Hap1Only: only haplotype 1 has a call.  GT=1|0.
	Hap1Only Outcome = iota
	// Hap2Only: only haplotype 2 has a call.  GT=0|1.
	Hap2Only
	// Homozygous: both haplotypes carry the same ALT.  GT=1|1.
	Homozygous
	// Heterozygous: the haplotypes carry different ALTs.  GT=1|2.
	Heterozygous
	// RefMismatch: the haplotypes disagree on REF.  The site is dropped.
	RefMismatch
	// AltIsRef: an ALT equals the REF in the heterozygous case.  The site is
	// dropped.  Well-formed input never gets here.
	AltIsRef
	// Filtered: the site is outside Opts.Filter.
	Filtered

	nOutcome
)

var outcomeNames = [nOutcome]string{
	Hap1Only:     "hap1-only",
	Hap2Only:     "hap2-only",
	Homozygous:   "homozygous",
	Heterozygous: "heterozygous",
	RefMismatch:  "ref-mismatch",
	AltIsRef:     "alt-is-ref",
	Filtered:     "filtered",
}

func (o Outcome) String() string {
	if o < 0 || o >= nOutcome {
		return "unknown"
	}
	return outcomeNames[o]
}

// Emitted returns true if sites with this outcome are written out.
func (o Outcome) Emitted() bool {
	return o <= Heterozygous
}

// Stats counts resolved sites by outcome.
type Stats struct {
	Sites     int // size of the union of both inputs' sites
	Written   int
	ByOutcome [nOutcome]int
}

// Opts defines the behavior of the merge.
type Opts struct {
	// Sample is the name of the output sample column.
	Sample string
	// Warn receives data-level warnings from loading and merging.  Defaults
	// to log.Error.Printf.
	Warn vcf.WarnFunc
	// Filter, if set, restricts output to the sites it returns true for.
	Filter func(vcf.SiteKey) bool
	// BedPath and Region restrict output to the given BED intervals or
	// region string.  At most one may be set.  They are only consulted by Run,
	// and only when Filter is nil.
	BedPath string
	Region  string
	// Stdin is read for an input path of vcf.StdinPath.  Defaults to os.Stdin.
	Stdin io.Reader
}

// DefaultOpts are the defaults for the commandline flags.
var DefaultOpts = Opts{
	Sample: vcf.DefaultSample,
}

// warnf logs at the caller's line, not warnf's.
func (o *Opts) warnf(format string, args ...interface{}) {
	if o.Warn != nil {
		o.Warn(format, args...)
		return
	}
	if log.At(log.Error) {
		log.Output(2, log.Error, fmt.Sprintf(format, args...))
	}
}

// Resolve computes the diploid call at key from the haplotype 1 and 2 records
// r1 and r2, either of which may be nil (not both).  When the returned outcome
// is not Emitted, site is meaningless.
//
//   hap1  hap2                      REF   ALT            GT
//   yes   no                        r1    r1.Alt         1|0
//   no    yes                       r2    r2.Alt         0|1
//   yes   yes, same REF, same ALT   REF   alt            1|1
//   yes   yes, same REF, diff ALT   REF   r1.Alt,r2.Alt  1|2
//   yes   yes, diff REF             dropped
func Resolve(key vcf.SiteKey, r1, r2 *vcf.Record) (site vcf.Site, outcome Outcome) {
	site.Key = key
	switch {
	case r1 != nil && r2 == nil:
		site.Ref = r1.Ref
		site.Alts = []string{r1.Alt}
		site.Genotype = vcf.Genotype{Hap1: 1, Hap2: 0}
		return site, Hap1Only
	case r1 == nil && r2 != nil:
		site.Ref = r2.Ref
		site.Alts = []string{r2.Alt}
		site.Genotype = vcf.Genotype{Hap1: 0, Hap2: 1}
		return site, Hap2Only
	case r1 == nil && r2 == nil:
		panic("merge.Resolve: no record at " + key.String())
	}
	if r1.Ref != r2.Ref {
		return site, RefMismatch
	}
	site.Ref = r1.Ref
	if r1.Alt == r2.Alt {
		site.Alts = []string{r1.Alt}
		site.Genotype = vcf.Genotype{Hap1: 1, Hap2: 1}
		return site, Homozygous
	}
	if r1.Alt == site.Ref || r2.Alt == site.Ref {
		return site, AltIsRef
	}
	site.Alts = []string{r1.Alt, r2.Alt}
	site.Genotype = vcf.Genotype{Hap1: 1, Hap2: 2}
	return site, Heterozygous
}

// Maps merges two haplotype maps.  emit is called once per written site, in
// increasing SiteKey order; an error from emit stops the merge and is
// returned.
func Maps(hap1, hap2 *vcf.HaplotypeMap, opts *Opts, emit func(*vcf.Site) error) (stats Stats, err error) {
	if opts == nil {
		opts = &DefaultOpts
	}
	idx := newSiteIndex(hap1, hap2)
	stats.Sites = idx.Len()
	idx.Do(func(key vcf.SiteKey) bool {
		if opts.Filter != nil && !opts.Filter(key) {
			stats.ByOutcome[Filtered]++
			return false
		}
		var r1, r2 *vcf.Record
		if r, ok := hap1.Get(key); ok {
			r1 = &r
		}
		if r, ok := hap2.Get(key); ok {
			r2 = &r
		}
		site, outcome := Resolve(key, r1, r2)
		stats.ByOutcome[outcome]++
		if !outcome.Emitted() {
			switch outcome {
			case RefMismatch:
				opts.warnf("REF mismatch at %v (hap1=%s, hap2=%s); skipping site", key, r1.Ref, r2.Ref)
			case AltIsRef:
				opts.warnf("unexpected REF ALT at %v; skipping", key)
			}
			return false
		}
		if err = emit(&site); err != nil {
			return true
		}
		stats.Written++
		return false
	})
	return
}
