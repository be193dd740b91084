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
	"context"
	"io"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/fileio"
	"github.com/grailbio/hts/bgzf"
)

// OutputFile is a VCF destination created by Create.
type OutputFile struct {
	path  string
	f     file.File
	bgzfw *bgzf.Writer
	w     io.Writer
}

// Create creates path for writing.  If path has a gzip suffix (e.g.
// ".vcf.gz"), the output is BGZF-compressed so that it can be tabix-indexed.
func Create(ctx context.Context, path string) (*OutputFile, error) {
	f, err := file.Create(ctx, path)
	if err != nil {
		return nil, errors.E(err, "create", path)
	}
	out := &OutputFile{path: path, f: f, w: f.Writer(ctx)}
	if fileio.DetermineType(path) == fileio.Gzip {
		out.bgzfw = bgzf.NewWriter(out.w, 1)
		out.w = out.bgzfw
	}
	return out, nil
}

// Writer returns the destination for the (uncompressed) VCF text.
func (o *OutputFile) Writer() io.Writer {
	return o.w
}

// Close finishes compression, if any, and closes the file.  It returns the
// first error encountered.
func (o *OutputFile) Close(ctx context.Context) (err error) {
	if o.bgzfw != nil {
		if err = o.bgzfw.Close(); err != nil {
			err = errors.E(err, "bgzf close", o.path)
		}
	}
	if e := o.f.Close(ctx); e != nil && err == nil {
		err = errors.E(e, "close", o.path)
	}
	return
}
