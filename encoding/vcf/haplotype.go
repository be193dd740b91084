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
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/fileio"
	"github.com/grailbio/base/log"
	gunsafe "github.com/grailbio/base/unsafe"
	"github.com/klauspost/compress/gzip"
)

// StdinPath is the path value that makes the loader read standard input.
const StdinPath = "-"

// maxLineLen bounds the length of a single VCF line.  bufio.Scanner does not
// grow past its configured maximum.
const maxLineLen = 64 << 20

// nLoadCols is the number of leading columns the loader looks at: CHROM, POS,
// ID, REF, ALT.
const nLoadCols = 5

// WarnFunc receives data-level diagnostics, e.g. duplicate or multiallelic
// sites.  It is never called for fatal conditions.
type WarnFunc func(format string, args ...interface{})

// LoadOpts defines the behavior of the haplotype loaders.
type LoadOpts struct {
	// Warn receives data-level warnings.  Defaults to log.Error.Printf.
	Warn WarnFunc
	// Stdin is read when the path is StdinPath.  Defaults to os.Stdin.
	Stdin io.Reader
}

// DefaultLoadOpts is used when a nil *LoadOpts is passed.
var DefaultLoadOpts = LoadOpts{}

// warnf logs at the caller's line, not warnf's.
func (o *LoadOpts) warnf(format string, args ...interface{}) {
	if o.Warn != nil {
		o.Warn(format, args...)
		return
	}
	if log.At(log.Error) {
		log.Output(2, log.Error, fmt.Sprintf(format, args...))
	}
}

// HaplotypeMap holds the calls of a single haplotype, at most one per site.
// It is read-only once returned by a loader.
type HaplotypeMap struct {
	path string
	recs map[SiteKey]Record
}

// Path returns the path the map was loaded from.
func (h *HaplotypeMap) Path() string { return h.path }

// Len returns the number of sites in the map.
func (h *HaplotypeMap) Len() int { return len(h.recs) }

// Get returns the record at key, if any.
func (h *HaplotypeMap) Get(key SiteKey) (Record, bool) {
	r, ok := h.recs[key]
	return r, ok
}

// Keys returns all sites of the map, sorted by SiteKey.Compare.
func (h *HaplotypeMap) Keys() []SiteKey {
	keys := make([]SiteKey, 0, len(h.recs))
	for k := range h.recs {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].Less(keys[j]) })
	return keys
}

// getColumns splits curLine on tabs into up to len(cols) columns, returning
// the number of columns saved.  The last saved column never contains the
// remainder of the line.
func getColumns(cols [][]byte, curLine []byte) int {
	for colIdx := range cols {
		tabPos := bytes.IndexByte(curLine, '\t')
		if tabPos == -1 {
			cols[colIdx] = curLine
			return colIdx + 1
		}
		cols[colIdx] = curLine[:tabPos]
		curLine = curLine[tabPos+1:]
	}
	return len(cols)
}

// NewHaplotypeMap loads the records of a haploid VCF from reader.  path is
// used only in diagnostics.
//
// Header and empty lines are skipped.  Lines with fewer than five columns,
// or with a POS that is not a positive integer, are dropped silently.  Lines
// whose ALT is "." or empty carry no variant and are dropped too.  A
// multiallelic ALT is reduced to its first allele, and of several lines at
// the same site only the first is kept; both cases are reported through
// opts.Warn.
func NewHaplotypeMap(reader io.Reader, path string, opts *LoadOpts) (*HaplotypeMap, error) {
	if opts == nil {
		opts = &DefaultLoadOpts
	}
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(nil, maxLineLen)

	h := &HaplotypeMap{
		path: path,
		recs: make(map[SiteKey]Record),
	}
	var (
		cols                         [nLoadCols][]byte
		nMalformed, nNoVariant, nDup int
	)
	for scanner.Scan() {
		curLine := scanner.Bytes()
		if len(curLine) == 0 || curLine[0] == '#' {
			continue
		}
		if getColumns(cols[:], curLine) < nLoadCols {
			nMalformed++
			continue
		}
		pos, err := strconv.Atoi(gunsafe.BytesToString(cols[1]))
		if err != nil || pos <= 0 {
			nMalformed++
			continue
		}
		alt := strings.ToUpper(string(cols[4]))
		if alt == "." || alt == "" {
			nNoVariant++
			continue
		}
		rec := Record{
			Chrom: string(cols[0]),
			Pos:   pos,
			Ref:   strings.ToUpper(string(cols[3])),
			Alt:   alt,
		}
		key := rec.Key()
		if commaPos := strings.IndexByte(alt, ','); commaPos != -1 {
			opts.warnf("multiallelic ALT in haploid input at %v; taking first", key)
			rec.Alt = alt[:commaPos]
		}
		if _, found := h.recs[key]; found {
			opts.warnf("duplicate site in %s at %v; keeping first", path, key)
			nDup++
			continue
		}
		h.recs[key] = rec
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.E(err, "reading", path)
	}
	log.Debug.Printf("%s: loaded %d site(s); dropped %d malformed, %d non-variant, %d duplicate line(s)",
		path, len(h.recs), nMalformed, nNoVariant, nDup)
	return h, nil
}

// NewHaplotypeMapFromPath is a wrapper for NewHaplotypeMap that takes a path
// instead of an io.Reader.  StdinPath reads opts.Stdin; otherwise the file is
// opened through grailbio/base/file and gunzipped if the path has a gzip
// suffix.
func NewHaplotypeMapFromPath(ctx context.Context, path string, opts *LoadOpts) (h *HaplotypeMap, err error) {
	if opts == nil {
		opts = &DefaultLoadOpts
	}
	if path == StdinPath {
		var stdin io.Reader = os.Stdin
		if opts.Stdin != nil {
			stdin = opts.Stdin
		}
		return NewHaplotypeMap(stdin, path, opts)
	}
	var infile file.File
	if infile, err = file.Open(ctx, path); err != nil {
		return nil, errors.E(err, "open", path)
	}
	defer func() {
		if cerr := infile.Close(ctx); cerr != nil && err == nil {
			err = cerr
		}
	}()
	reader := io.Reader(infile.Reader(ctx))
	switch fileio.DetermineType(path) {
	case fileio.Gzip:
		gz, gerr := gzip.NewReader(reader)
		if gerr != nil {
			return nil, errors.E(gerr, "gunzip", path)
		}
		defer gz.Close() // nolint: errcheck
		reader = gz
	}
	return NewHaplotypeMap(reader, path, opts)
}
