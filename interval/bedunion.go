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
package interval

import (
	"bufio"
	"context"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/grailbio/base/file"
	"github.com/grailbio/base/fileio"
	"github.com/grailbio/base/log"
	gunsafe "github.com/grailbio/base/unsafe"
	"github.com/grailbio/hapmerge/encoding/vcf"
	"github.com/klauspost/compress/gzip"
	"github.com/pkg/errors"
)

// PosType is BEDUnion's coordinate type.
type PosType int32

const posTypeMax = math.MaxInt32

// getTokens identifies up to the first len(tokens) tokens from curLine,
// returning the number of tokens saved.  Any (group of) characters <= ' ' is
// treated as a delimiter.
func getTokens(tokens [][]byte, curLine []byte) int {
	posEnd := 0
	lineLen := len(curLine)
	for tokenIdx := range tokens {
		pos := posEnd
		for ; pos != lineLen; pos++ {
			if curLine[pos] > ' ' {
				break
			}
		}
		if pos == lineLen {
			return tokenIdx
		}
		posEnd = pos
		for ; posEnd != lineLen; posEnd++ {
			if curLine[posEnd] <= ' ' {
				break
			}
		}
		tokens[tokenIdx] = curLine[pos:posEnd]
	}
	return len(tokens)
}

// searchPosType returns the index of x in a[], or the position where x would
// be inserted if x isn't in a (this could be len(a)).
func searchPosType(a []PosType, x PosType) int {
	return sort.Search(len(a), func(i int) bool { return a[i] >= x })
}

// fwdsearchPosType checks a[idx], then a[idx + 1], then a[idx + 3], then
// a[idx + 7], etc., and then uses binary search to finish the job.  It's
// usually a better choice than searchPosType when iterating.
func fwdsearchPosType(a []PosType, x PosType, idx int) int {
	nextIncr := 1
	startIdx := idx
	endIdx := len(a)
	for idx < endIdx {
		if a[idx] >= x {
			endIdx = idx
			break
		}
		startIdx = idx + 1
		idx += nextIncr
		nextIncr *= 2
	}
	for startIdx < endIdx {
		midIdx := int(uint(startIdx+endIdx) >> 1)
		if a[midIdx] >= x {
			endIdx = midIdx
		} else {
			startIdx = midIdx + 1
		}
	}
	return startIdx
}

// BEDUnion is a set of disjoint intervals per chromosome.  Each chromosome
// maps to a length-2N sequence, where the (0-based) start position of
// interval #k is in element [2k] and its end position in element [2k+1], in
// increasing order.  A position is covered iff the number of endpoints <= it
// is odd.
//
// Queries cache their last position, so a BEDUnion must not be shared between
// goroutines.
type BEDUnion struct {
	// nameMap is a chromosome-keyed map with disjoint-interval-set values.
	// Always initialized.
	nameMap map[string][]PosType
	// lastChrIntervals points to the disjoint-interval-set for the most recently
	// queried chromosome.
	lastChrIntervals []PosType
	// lastChrName is the name of the last queried chromosome.  If it's
	// nonempty, it must be in sync with lastChrIntervals.
	lastChrName string
	// lastPosPlus1 is 1 plus the last spot-queried position.
	lastPosPlus1 PosType
	// lastIdx is searchPosType(lastChrIntervals, lastPosPlus1).
	lastIdx int
	// isSequential is true if all queries since the last chromosome change have
	// been in order of nondecreasing position.
	isSequential bool
}

// ContainsByName checks whether the (0-based) interval [pos, pos+1) is
// contained within the BEDUnion.
func (u *BEDUnion) ContainsByName(chrName string, pos PosType) bool {
	posPlus1 := pos + 1
	if chrName != u.lastChrName {
		u.lastChrName = chrName
		u.lastChrIntervals = u.nameMap[chrName]
		if u.lastChrIntervals == nil {
			return false
		}
		u.lastIdx = searchPosType(u.lastChrIntervals, posPlus1)
		u.lastPosPlus1 = posPlus1
		u.isSequential = true
		return u.lastIdx&1 == 1
	}
	if u.lastChrIntervals == nil {
		return false
	}
	if u.isSequential {
		if posPlus1 >= u.lastPosPlus1 {
			u.lastIdx = fwdsearchPosType(u.lastChrIntervals, posPlus1, u.lastIdx)
			u.lastPosPlus1 = posPlus1
			return u.lastIdx&1 == 1
		}
		u.isSequential = false
	}
	return searchPosType(u.lastChrIntervals, posPlus1)&1 == 1
}

// ContainsSite checks whether the 1-based VCF site is covered.
func (u *BEDUnion) ContainsSite(key vcf.SiteKey) bool {
	if key.Pos <= 0 || key.Pos >= posTypeMax {
		return false
	}
	return u.ContainsByName(key.Chrom, PosType(key.Pos-1))
}

// NumChromosomes returns the number of chromosomes with at least one
// nonempty interval.
func (u *BEDUnion) NumChromosomes() int {
	n := 0
	for _, chrIntervals := range u.nameMap {
		if len(chrIntervals) != 0 {
			n++
		}
	}
	return n
}

// Entry represents a single interval, with 0-based coordinates.
type Entry struct {
	ChrName string
	Start0  PosType
	End     PosType
}

// NewBEDUnionFromEntries builds a BEDUnion from entries sorted by start
// within each chromosome, with each chromosome's entries contiguous.
// Touching or overlapping intervals are merged and empty ones dropped.
func NewBEDUnionFromEntries(entries []Entry) (bedUnion BEDUnion, err error) {
	bedUnion.nameMap = make(map[string][]PosType)
	prevChr := ""
	var prevStart, prevEnd PosType
	var chrIntervals []PosType
	flush := func() {
		if prevChr == "" {
			return
		}
		if prevEnd != -1 {
			chrIntervals = append(chrIntervals, prevStart, prevEnd)
		}
		bedUnion.nameMap[prevChr] = chrIntervals
	}
	for i, entry := range entries {
		if entry.Start0 < 0 {
			err = errors.Errorf("interval.NewBEDUnionFromEntries: negative start coordinate in entry %d", i)
			return
		}
		if entry.End < entry.Start0 || entry.End >= posTypeMax {
			err = errors.Errorf("interval.NewBEDUnionFromEntries: invalid coordinate pair [%d, %d) in entry %d", entry.Start0, entry.End, i)
			return
		}
		if entry.ChrName != prevChr {
			flush()
			prevChr = entry.ChrName
			if _, found := bedUnion.nameMap[prevChr]; found {
				err = errors.Errorf("interval.NewBEDUnionFromEntries: unsorted input (split chromosome %v)", prevChr)
				return
			}
			chrIntervals = []PosType{}
			// A 'mentioned' chromosome without any nonempty interval gets an
			// empty interval set.
			prevStart, prevEnd = -1, -1
		}
		if entry.End == entry.Start0 {
			continue
		}
		if prevEnd == -1 {
			prevStart, prevEnd = entry.Start0, entry.End
			continue
		}
		if entry.Start0 < prevStart {
			err = errors.Errorf("interval.NewBEDUnionFromEntries: unsorted input at entry %d", i)
			return
		}
		if entry.Start0 > prevEnd {
			chrIntervals = append(chrIntervals, prevStart, prevEnd)
			prevStart, prevEnd = entry.Start0, entry.End
		} else if entry.End > prevEnd {
			prevEnd = entry.End
		}
	}
	flush()
	return
}

// NewBEDUnion loads the intervals of a BED file sorted by start coordinate
// within each chromosome.  Only the first three columns are read.
func NewBEDUnion(reader io.Reader) (BEDUnion, error) {
	// Note that Scanner does not handle very long lines unless we specify an
	// adequate buffer size in advance; it does not auto-resize.
	// Shouldn't matter for BED files, though.
	scanner := bufio.NewScanner(reader)
	var (
		tokens  [3][]byte
		entries []Entry
		lineIdx int
	)
	for scanner.Scan() {
		lineIdx++
		curLine := scanner.Bytes()
		nToken := getTokens(tokens[:], curLine)
		if nToken == 0 || tokens[0][0] == '#' ||
			strings.HasPrefix(gunsafe.BytesToString(tokens[0]), "track") ||
			strings.HasPrefix(gunsafe.BytesToString(tokens[0]), "browser") {
			continue
		}
		if nToken != 3 {
			return BEDUnion{}, errors.Errorf("interval.NewBEDUnion: line %d has fewer tokens than expected", lineIdx)
		}
		start, err := strconv.Atoi(gunsafe.BytesToString(tokens[1]))
		if err != nil {
			return BEDUnion{}, errors.Wrapf(err, "interval.NewBEDUnion: line %d", lineIdx)
		}
		end, err := strconv.Atoi(gunsafe.BytesToString(tokens[2]))
		if err != nil {
			return BEDUnion{}, errors.Wrapf(err, "interval.NewBEDUnion: line %d", lineIdx)
		}
		if start < 0 || end < start || end >= posTypeMax {
			return BEDUnion{}, errors.Errorf("interval.NewBEDUnion: invalid coordinate pair on line %d", lineIdx)
		}
		// The chromosome name must be copied; tokens[0] refers to scanner
		// memory that will be overwritten.
		entries = append(entries, Entry{
			ChrName: string(tokens[0]),
			Start0:  PosType(start),
			End:     PosType(end),
		})
	}
	if err := scanner.Err(); err != nil {
		return BEDUnion{}, errors.Wrap(err, "interval.NewBEDUnion")
	}
	bedUnion, err := NewBEDUnionFromEntries(entries)
	if err != nil {
		return BEDUnion{}, err
	}
	log.Printf("BED loaded, %d interval line(s) on %d chromosome(s).", len(entries), bedUnion.NumChromosomes())
	return bedUnion, nil
}

// NewBEDUnionFromPath is a wrapper for NewBEDUnion that takes a path instead
// of an io.Reader.  Gzipped BED files are decompressed.
func NewBEDUnionFromPath(ctx context.Context, path string) (bedUnion BEDUnion, err error) {
	var infile file.File
	if infile, err = file.Open(ctx, path); err != nil {
		return
	}
	defer func() {
		if cerr := infile.Close(ctx); cerr != nil && err == nil {
			err = cerr
		}
	}()
	reader := io.Reader(infile.Reader(ctx))
	switch fileio.DetermineType(path) {
	case fileio.Gzip:
		if reader, err = gzip.NewReader(reader); err != nil {
			return
		}
	}
	return NewBEDUnion(reader)
}

// ParseRegionString parses a region string of one of the forms
//   [contig ID]:[1-based first pos]-[last pos]
//   [contig ID]:[1-based pos]
//   [contig ID]
// returning a contig ID and 0-based interval boundaries.  The interval
// [0, posTypeMax - 1] is returned if there is no positional restriction.
func ParseRegionString(region string) (result Entry, err error) {
	if len(region) == 0 {
		err = errors.New("interval.ParseRegionString: empty region string")
		return
	}
	colonPos := strings.LastIndexByte(region, ':')
	if colonPos == -1 {
		result.ChrName = region
		result.End = posTypeMax - 1
		return
	}
	if colonPos == 0 {
		err = errors.New("interval.ParseRegionString: empty contig ID")
		return
	}
	result.ChrName = region[:colonPos]
	rangeStr := strings.Replace(region[colonPos+1:], ",", "", -1)
	dashPos := strings.IndexByte(rangeStr, '-')
	if dashPos == -1 {
		var pos1 int
		if pos1, err = strconv.Atoi(rangeStr); err != nil {
			err = errors.Wrapf(err, "interval.ParseRegionString: %v", region)
			return
		}
		if pos1 <= 0 || pos1 >= posTypeMax {
			err = errors.Errorf("interval.ParseRegionString: position %v in region string out of range", rangeStr)
			return
		}
		result.Start0 = PosType(pos1 - 1)
		result.End = PosType(pos1)
		return
	}
	var start1, end int
	if start1, err = strconv.Atoi(rangeStr[:dashPos]); err != nil {
		err = errors.Wrapf(err, "interval.ParseRegionString: %v", region)
		return
	}
	if start1 <= 0 {
		err = errors.Errorf("interval.ParseRegionString: position %v in region string out of range", rangeStr[:dashPos])
		return
	}
	if end, err = strconv.Atoi(rangeStr[dashPos+1:]); err != nil {
		err = errors.Wrapf(err, "interval.ParseRegionString: %v", region)
		return
	}
	// [start1, end] is closed and 1-based, i.e. [start1 - 1, end) 0-based.
	if end < start1 || end >= posTypeMax {
		err = errors.Errorf("interval.ParseRegionString: invalid range string %v", rangeStr)
		return
	}
	result.Start0 = PosType(start1 - 1)
	result.End = PosType(end)
	return
}
