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
	"github.com/biogo/store/llrb"
	"github.com/grailbio/hapmerge/encoding/vcf"
)

type siteKey vcf.SiteKey

// Compare compares two siteKey objects for use in llrb.
func (k siteKey) Compare(c2 llrb.Comparable) int {
	return vcf.SiteKey(k).Compare(vcf.SiteKey(c2.(siteKey)))
}

// siteIndex is the sorted union of the sites of several haplotype maps.
type siteIndex struct {
	byKey llrb.Tree
}

func newSiteIndex(haps ...*vcf.HaplotypeMap) *siteIndex {
	idx := &siteIndex{}
	for _, h := range haps {
		for _, k := range h.Keys() {
			idx.byKey.Insert(siteKey(k))
		}
	}
	return idx
}

// Len returns the number of distinct sites.
func (idx *siteIndex) Len() int {
	return idx.byKey.Len()
}

// Do calls fn on every site in increasing order, stopping early if fn returns
// true.  It returns true if fn stopped the iteration.
func (idx *siteIndex) Do(fn func(vcf.SiteKey) bool) bool {
	return idx.byKey.Do(func(c llrb.Comparable) bool {
		return fn(vcf.SiteKey(c.(siteKey)))
	})
}
