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

/*
bio-merge-haploid merges two haploid VCFs, one per haplotype, into a single
phased diploid VCF.

Each input site keyed by (CHROM, POS) becomes one output line with a phased GT:
1|0 when only --hap1 has a call there, 0|1 when only --hap2 does, 1|1 when both
carry the same ALT and 1|2 when they carry different ones (ALT is then
"hap1,hap2").  Sites whose REF differs between the inputs are dropped with a
warning, as are repeated sites (first one wins).  Multiallelic input ALTs are
reduced to their first allele.  Warnings go to stderr; the exit status is 0
unless an input can't be read.

Output is sorted by chromosome name (plain string order), then position.

Sample usage:
bio-merge-haploid \
    --hap1 sample.hap1.vcf.gz \
    --hap2 sample.hap2.vcf.gz \
    --sample NA12878 > sample.diploid.vcf
*/
package main
