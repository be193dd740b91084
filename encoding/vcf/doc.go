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

// Package vcf reads haploid, single-sample-free VCF files into per-haplotype
// site maps and writes the minimal single-sample VCF produced by merging two
// of them.
//
// Only the first five columns (CHROM, POS, ID, REF, ALT) of the input are
// interpreted; QUAL, FILTER, INFO and any sample columns are ignored.  Output
// always carries placeholder QUAL/INFO values, FILTER=PASS and a lone GT
// FORMAT field.
package vcf
