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
package merge_test

import (
	"bytes"
	"context"
	"fmt"
	"io/ioutil"
	"path/filepath"
	"strings"
	"testing"

	"github.com/grailbio/hapmerge/encoding/vcf"
	"github.com/grailbio/hapmerge/merge"
	"github.com/grailbio/testutil"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
	"github.com/stretchr/testify/require"
)

const header = "##fileformat=VCFv4.2\n" +
	"##source=merge_haploid_vcfs\n" +
	"##FORMAT=<ID=GT,Number=1,Type=String,Description=\"Phased diploid genotype from two haploid callsets (hap1|hap2)\">\n" +
	"#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT\tSAMPLE\n"

const (
	hap1VCF = "##fileformat=VCFv4.2\n" +
		"#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\n" +
		"chr1\t100\t.\tA\tT\t.\tPASS\t.\n" +
		"chr1\t200\t.\tC\tT\t.\tPASS\t.\n" +
		"chr2\t50\t.\tG\tA,C\t.\tPASS\t.\n" +
		"chr2\t60\t.\tG\tA\t.\tPASS\t.\n"
	hap2VCF = "##fileformat=VCFv4.2\n" +
		"chr1\t100\t.\tA\tG\n" +
		"chr2\t60\t.\tT\tA\n" +
		"chr2\t70\t.\tt\tc\n"
)

type warnings []string

func (w *warnings) warnf(format string, args ...interface{}) {
	*w = append(*w, fmt.Sprintf(format, args...))
}

func writeInputs(t *testing.T, dir string) (hap1Path, hap2Path string) {
	hap1Path = filepath.Join(dir, "hap1.vcf")
	hap2Path = filepath.Join(dir, "hap2.vcf")
	assert.NoError(t, ioutil.WriteFile(hap1Path, []byte(hap1VCF), 0644))
	assert.NoError(t, ioutil.WriteFile(hap2Path, []byte(hap2VCF), 0644))
	return
}

func TestRun(t *testing.T) {
	tmpdir, cleanup := testutil.TempDir(t, "", "")
	defer testutil.NoCleanupOnError(t, cleanup, tmpdir)
	hap1Path, hap2Path := writeInputs(t, tmpdir)
	ctx := context.Background()

	var (
		w   warnings
		out bytes.Buffer
	)
	opts := merge.DefaultOpts
	opts.Warn = w.warnf
	stats, err := merge.Run(ctx, hap1Path, hap2Path, &out, &opts)
	assert.NoError(t, err)
	expect.EQ(t, out.String(), header+
		"chr1\t100\t.\tA\tT,G\t.\tPASS\t.\tGT\t1|2\n"+
		"chr1\t200\t.\tC\tT\t.\tPASS\t.\tGT\t1|0\n"+
		"chr2\t50\t.\tG\tA\t.\tPASS\t.\tGT\t1|0\n"+
		"chr2\t70\t.\tT\tC\t.\tPASS\t.\tGT\t0|1\n")
	expect.EQ(t, []string(w), []string{
		"multiallelic ALT in haploid input at chr2:50; taking first",
		"REF mismatch at chr2:60 (hap1=G, hap2=T); skipping site",
	})
	expect.EQ(t, stats.Sites, 5)
	expect.EQ(t, stats.Written, 4)

	// Same inputs, same bytes.
	var again bytes.Buffer
	_, err = merge.Run(ctx, hap1Path, hap2Path, &again, &opts)
	assert.NoError(t, err)
	expect.EQ(t, again.String(), out.String())
}

func TestRunStdin(t *testing.T) {
	tmpdir, cleanup := testutil.TempDir(t, "", "")
	defer testutil.NoCleanupOnError(t, cleanup, tmpdir)
	_, hap2Path := writeInputs(t, tmpdir)

	var out bytes.Buffer
	opts := merge.DefaultOpts
	opts.Sample = "NA12878"
	opts.Stdin = strings.NewReader("chr1\t200\t.\tC\tT\n")
	opts.Warn = func(string, ...interface{}) {}
	_, err := merge.Run(context.Background(), vcf.StdinPath, hap2Path, &out, &opts)
	assert.NoError(t, err)
	lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	expect.EQ(t, lines[3], "#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT\tNA12878")
	expect.EQ(t, lines[4:], []string{
		"chr1\t100\t.\tA\tG\t.\tPASS\t.\tGT\t0|1",
		"chr1\t200\t.\tC\tT\t.\tPASS\t.\tGT\t1|0",
		"chr2\t60\t.\tT\tA\t.\tPASS\t.\tGT\t0|1",
		"chr2\t70\t.\tT\tC\t.\tPASS\t.\tGT\t0|1",
	})
}

func TestRunRestricted(t *testing.T) {
	tmpdir, cleanup := testutil.TempDir(t, "", "")
	defer testutil.NoCleanupOnError(t, cleanup, tmpdir)
	hap1Path, hap2Path := writeInputs(t, tmpdir)
	bedPath := filepath.Join(tmpdir, "regions.bed")
	// 0-based half-open: covers chr1:200 and chr2:61-70 (1-based).
	assert.NoError(t, ioutil.WriteFile(bedPath, []byte("chr1\t199\t200\nchr2\t60\t70\n"), 0644))

	tests := []struct {
		bedPath, region string
		want            []string
	}{
		{
			bedPath: bedPath,
			want: []string{
				"chr1\t200\t.\tC\tT\t.\tPASS\t.\tGT\t1|0",
				"chr2\t70\t.\tT\tC\t.\tPASS\t.\tGT\t0|1",
			},
		},
		{
			region: "chr1:150-250",
			want:   []string{"chr1\t200\t.\tC\tT\t.\tPASS\t.\tGT\t1|0"},
		},
		{
			region: "chr2",
			want: []string{
				"chr2\t50\t.\tG\tA\t.\tPASS\t.\tGT\t1|0",
				"chr2\t70\t.\tT\tC\t.\tPASS\t.\tGT\t0|1",
			},
		},
		{
			region: "chr3",
		},
	}
	for _, tt := range tests {
		var out bytes.Buffer
		opts := merge.DefaultOpts
		opts.BedPath = tt.bedPath
		opts.Region = tt.region
		opts.Warn = func(string, ...interface{}) {}
		_, err := merge.Run(context.Background(), hap1Path, hap2Path, &out, &opts)
		assert.NoError(t, err)
		lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
		var got []string
		if len(lines) > 4 {
			got = lines[4:]
		}
		expect.EQ(t, got, tt.want, "bed=%q region=%q", tt.bedPath, tt.region)
	}
}

func TestRunErrors(t *testing.T) {
	tmpdir, cleanup := testutil.TempDir(t, "", "")
	defer testutil.NoCleanupOnError(t, cleanup, tmpdir)
	hap1Path, hap2Path := writeInputs(t, tmpdir)
	ctx := context.Background()

	var out bytes.Buffer
	_, err := merge.Run(ctx, vcf.StdinPath, vcf.StdinPath, &out, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "standard input")

	_, err = merge.Run(ctx, hap1Path, filepath.Join(tmpdir, "missing.vcf"), &out, nil)
	require.Error(t, err)
	require.Contains(t, err.Error(), "missing.vcf")

	opts := merge.DefaultOpts
	opts.BedPath = filepath.Join(tmpdir, "some.bed")
	opts.Region = "chr1"
	_, err = merge.Run(ctx, hap1Path, hap2Path, &out, &opts)
	require.Error(t, err)
	require.Contains(t, err.Error(), "can't be used together")

	opts = merge.DefaultOpts
	opts.Region = "chr1:0-5"
	_, err = merge.Run(ctx, hap1Path, hap2Path, &out, &opts)
	require.Error(t, err)
	require.Contains(t, err.Error(), "out of range")
}
