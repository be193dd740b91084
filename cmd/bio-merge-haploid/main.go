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
package main

import (
	"context"

	"github.com/grailbio/base/cmdutil"
	"github.com/grailbio/base/log"
	"github.com/grailbio/hapmerge/encoding/vcf"
	"github.com/grailbio/hapmerge/merge"
	"v.io/x/lib/cmdline"
)

type mergeFlags struct {
	hap1, hap2 string
	sample     string
	out        string
	bedPath    string
	region     string
}

func newCmdRoot() *cmdline.Command {
	cmd := &cmdline.Command{
		Name:  "bio-merge-haploid",
		Short: "Merge two haploid VCFs into one phased diploid VCF",
		Long: `
bio-merge-haploid merges two haploid VCFs, one per haplotype, into a single
phased diploid VCF with one GT-only sample column, written to stdout (or
--out).  Inputs may be plain or gzipped (".gz" suffix); "-" reads stdin.`,
	}
	flags := &mergeFlags{}
	cmd.Flags.StringVar(&flags.hap1, "hap1", "", "Haploid VCF for haplotype 1 (vcf or vcf.gz, - for stdin); required")
	cmd.Flags.StringVar(&flags.hap2, "hap2", "", "Haploid VCF for haplotype 2 (vcf or vcf.gz, - for stdin); required")
	cmd.Flags.StringVar(&flags.sample, "sample", merge.DefaultOpts.Sample, "Sample name for the output VCF")
	cmd.Flags.StringVar(&flags.out, "out", "", "Output path; BGZF-compressed if it ends in .gz.  Defaults to stdout")
	cmd.Flags.StringVar(&flags.bedPath, "bed", "", "Only output sites inside the intervals of this BED file; this xor -region")
	cmd.Flags.StringVar(&flags.region, "region", "", "Only output sites inside this region. Format as <contig ID>:<1-based first pos>-<last pos>, <contig ID>:<1-based pos>, or just <contig ID>; this xor -bed")
	cmd.Runner = cmdutil.RunnerFunc(func(env *cmdline.Env, argv []string) error {
		if len(argv) != 0 {
			return env.UsageErrorf("unexpected arguments %v", argv)
		}
		return runMerge(env, flags)
	})
	return cmd
}

// lazyOutput creates the --out file on its first write.  Run writes nothing
// until both inputs are loaded, so an input error leaves an existing file
// untouched.
type lazyOutput struct {
	ctx  context.Context
	path string
	f    *vcf.OutputFile
}

func (o *lazyOutput) Write(p []byte) (int, error) {
	if o.f == nil {
		f, err := vcf.Create(o.ctx, o.path)
		if err != nil {
			return 0, err
		}
		o.f = f
	}
	return o.f.Writer().Write(p)
}

func (o *lazyOutput) Close() error {
	if o.f == nil {
		return nil
	}
	return o.f.Close(o.ctx)
}

func runMerge(env *cmdline.Env, flags *mergeFlags) (err error) {
	switch {
	case flags.hap1 == "":
		return env.UsageErrorf("--hap1 is required")
	case flags.hap2 == "":
		return env.UsageErrorf("--hap2 is required")
	case flags.hap1 == vcf.StdinPath && flags.hap2 == vcf.StdinPath:
		return env.UsageErrorf("--hap1 and --hap2 can't both be %q", vcf.StdinPath)
	case flags.bedPath != "" && flags.region != "":
		return env.UsageErrorf("--bed and --region can't be used together")
	}
	ctx := context.Background()
	out := env.Stdout
	if flags.out != "" && flags.out != "-" {
		outFile := &lazyOutput{ctx: ctx, path: flags.out}
		defer func() {
			if e := outFile.Close(); e != nil && err == nil {
				err = e
			}
		}()
		out = outFile
	}
	opts := merge.DefaultOpts
	opts.Sample = flags.sample
	opts.BedPath = flags.bedPath
	opts.Region = flags.region
	opts.Stdin = env.Stdin
	_, err = merge.Run(ctx, flags.hap1, flags.hap2, out, &opts)
	return err
}

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lmicroseconds | log.Lshortfile)
	cmdline.HideGlobalFlagsExcept()
	cmdline.Main(newCmdRoot())
}
