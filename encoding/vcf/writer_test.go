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
package vcf_test

import (
	"bytes"
	"context"
	"io/ioutil"
	"path/filepath"
	"sort"
	"testing"

	"github.com/grailbio/hapmerge/encoding/vcf"
	"github.com/grailbio/testutil"
	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const wantHeader = "##fileformat=VCFv4.2\n" +
	"##source=merge_haploid_vcfs\n" +
	"##FORMAT=<ID=GT,Number=1,Type=String,Description=\"Phased diploid genotype from two haploid callsets (hap1|hap2)\">\n" +
	"#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT\tNA12878\n"

func TestSiteKeyOrder(t *testing.T) {
	keys := []vcf.SiteKey{
		{"chr2", 1},
		{"chr10", 5},
		{"chr1", 200},
		{"chrX", 3},
		{"chr1", 30},
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	assert.Equal(t, []vcf.SiteKey{
		{"chr1", 30},
		{"chr1", 200},
		{"chr10", 5},
		{"chr2", 1},
		{"chrX", 3},
	}, keys)
	assert.Equal(t, 0, vcf.SiteKey{"chr1", 7}.Compare(vcf.SiteKey{"chr1", 7}))
	assert.Equal(t, "chr1:7", vcf.SiteKey{"chr1", 7}.String())
}

func TestGenotypeString(t *testing.T) {
	assert.Equal(t, "1|0", vcf.Genotype{Hap1: 1}.String())
	assert.Equal(t, "0|1", vcf.Genotype{Hap2: 1}.String())
	assert.Equal(t, "1|2", vcf.Genotype{Hap1: 1, Hap2: 2}.String())
}

func TestWriter(t *testing.T) {
	var buf bytes.Buffer
	w, err := vcf.NewWriter(&buf, "NA12878")
	require.NoError(t, err)
	require.NoError(t, w.Write(&vcf.Site{
		Key:      vcf.SiteKey{"chr1", 100},
		Ref:      "A",
		Alts:     []string{"T", "G"},
		Genotype: vcf.Genotype{Hap1: 1, Hap2: 2},
	}))
	require.NoError(t, w.Write(&vcf.Site{
		Key:      vcf.SiteKey{"chr1", 200},
		Ref:      "C",
		Alts:     []string{"T"},
		Genotype: vcf.Genotype{Hap1: 1},
	}))
	require.NoError(t, w.Flush())
	assert.Equal(t, wantHeader+
		"chr1\t100\t.\tA\tT,G\t.\tPASS\t.\tGT\t1|2\n"+
		"chr1\t200\t.\tC\tT\t.\tPASS\t.\tGT\t1|0\n", buf.String())
}

func TestCreate(t *testing.T) {
	tmpdir, cleanup := testutil.TempDir(t, "", "")
	defer testutil.NoCleanupOnError(t, cleanup, tmpdir)
	ctx := context.Background()

	for _, name := range []string{"out.vcf", "out.vcf.gz"} {
		path := filepath.Join(tmpdir, name)
		out, err := vcf.Create(ctx, path)
		require.NoError(t, err)
		w, err := vcf.NewWriter(out.Writer(), "NA12878")
		require.NoError(t, err)
		require.NoError(t, w.Flush())
		require.NoError(t, out.Close(ctx))

		data, err := ioutil.ReadFile(path)
		require.NoError(t, err)
		if filepath.Ext(name) == ".gz" {
			gz, err := gzip.NewReader(bytes.NewReader(data))
			require.NoError(t, err)
			data, err = ioutil.ReadAll(gz)
			require.NoError(t, err)
		}
		assert.Equal(t, wantHeader, string(data), name)
	}
}
