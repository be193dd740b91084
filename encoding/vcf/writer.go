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
	"io"
	"strings"

	"github.com/grailbio/base/tsv"
)

const (
	// FileFormat is the VCF version written in the ##fileformat line.
	FileFormat = "VCFv4.2"
	// Source is the ##source tag of the output.
	Source = "merge_haploid_vcfs"
	// DefaultSample is the sample column name used when none is given.
	DefaultSample = "SAMPLE"

	gtFormatLine = `##FORMAT=<ID=GT,Number=1,Type=String,Description="Phased diploid genotype from two haploid callsets (hap1|hap2)">`
	columnHeader = "#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT"
)

// Writer emits a single-sample, GT-only VCF.
type Writer struct {
	tsvw *tsv.Writer
}

// NewWriter writes the VCF header, with sample as the name of the only sample
// column, and returns a Writer for the data lines.
func NewWriter(w io.Writer, sample string) (*Writer, error) {
	tsvw := tsv.NewWriter(w)
	for _, line := range []string{
		"##fileformat=" + FileFormat,
		"##source=" + Source,
		gtFormatLine,
	} {
		tsvw.WriteString(line)
		if err := tsvw.EndLine(); err != nil {
			return nil, err
		}
	}
	tsvw.WriteString(columnHeader)
	tsvw.WriteString(sample)
	if err := tsvw.EndLine(); err != nil {
		return nil, err
	}
	return &Writer{tsvw: tsvw}, nil
}

// Write appends one data line for site.  Sites must be written in sorted
// order for the output to be usable by position-sorted consumers; Writer does
// not check this.
func (w *Writer) Write(site *Site) error {
	tsvw := w.tsvw
	tsvw.WriteString(site.Key.Chrom)
	tsvw.WriteInt64(int64(site.Key.Pos))
	tsvw.WriteString(".") // ID
	tsvw.WriteString(site.Ref)
	tsvw.WriteString(strings.Join(site.Alts, ","))
	tsvw.WriteString(".")    // QUAL
	tsvw.WriteString("PASS") // FILTER
	tsvw.WriteString(".")    // INFO
	tsvw.WriteString("GT")   // FORMAT
	tsvw.WriteString(site.Genotype.String())
	return tsvw.EndLine()
}

// Flush writes any buffered data to the underlying io.Writer.
func (w *Writer) Flush() error {
	return w.tsvw.Flush()
}
