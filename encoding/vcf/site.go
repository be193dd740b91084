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
package vcf

import (
	"strconv"
	"strings"
)

// SiteKey identifies a genomic site by chromosome name and 1-based position.
type SiteKey struct {
	Chrom string
	Pos   int
}

// Compare orders keys lexicographically by chromosome name, then numerically
// by position.  There is no karyotype-aware chromosome ordering: "chr10" sorts
// before "chr2".
func (k SiteKey) Compare(k2 SiteKey) int {
	if c := strings.Compare(k.Chrom, k2.Chrom); c != 0 {
		return c
	}
	switch {
	case k.Pos < k2.Pos:
		return -1
	case k.Pos > k2.Pos:
		return 1
	}
	return 0
}

// Less returns true if k sorts before k2.
func (k SiteKey) Less(k2 SiteKey) bool {
	return k.Compare(k2) < 0
}

// String renders the key as "chrom:pos".
func (k SiteKey) String() string {
	return k.Chrom + ":" + strconv.Itoa(k.Pos)
}

// Record is one parsed line of a haploid VCF.  Ref and Alt are uppercased, and
// Alt always holds exactly one allele.
type Record struct {
	Chrom string
	Pos   int
	Ref   string
	Alt   string
}

// Key returns the site the record was called at.
func (r *Record) Key() SiteKey {
	return SiteKey{Chrom: r.Chrom, Pos: r.Pos}
}

// Genotype is a phased diploid genotype.  Each field is an allele index: 0 is
// REF, 1 is the first ALT, 2 the second.
type Genotype struct {
	Hap1 int
	Hap2 int
}

// String renders the genotype in VCF GT syntax, e.g. "1|0".  The '|'
// separator marks the genotype as phased.
func (g Genotype) String() string {
	return strconv.Itoa(g.Hap1) + "|" + strconv.Itoa(g.Hap2)
}

// Site is a resolved diploid call.  Alts holds one or two alleles, indexed by
// Genotype starting at 1.
type Site struct {
	Key      SiteKey
	Ref      string
	Alts     []string
	Genotype Genotype
}
