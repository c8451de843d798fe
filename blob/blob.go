// Copyright (c) 2020 Siemens AG
//
// Permission is hereby granted, free of charge, to any person obtaining a copy of
// this software and associated documentation files (the "Software"), to deal in
// the Software without restriction, including without limitation the rights to
// use, copy, modify, merge, publish, distribute, sublicense, and/or sell copies of
// the Software, and to permit persons to whom the Software is furnished to do so,
// subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY, FITNESS
// FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE AUTHORS OR
// COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER LIABILITY, WHETHER
// IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM, OUT OF OR IN
// CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE SOFTWARE.
//
// Author(s): Jonas Plum

package blob

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/afero"

	"github.com/forensicanalysis/mobileforensics/errdefs"
	"github.com/forensicanalysis/mobileforensics/query"
	"github.com/forensicanalysis/mobileforensics/structured"
)

// Querier runs statements against databases of an extraction.
type Querier interface {
	Query(ctx context.Context, dbPath string, stmt query.Statement) ([]query.Row, error)
}

// Blob is a binary field with its detected type.
type Blob struct {
	Data []byte    `json:"-"`
	Type MediaType `json:"type"`
	Size int       `json:"size"`
}

// New classifies data.
func New(data []byte) Blob {
	return Blob{Data: data, Type: Classify(data), Size: len(data)}
}

// Extractor reads blob columns from databases.
type Extractor struct {
	q Querier
}

// NewExtractor creates an Extractor on top of q, usually a *query.Engine.
func NewExtractor(q Querier) *Extractor {
	return &Extractor{q: q}
}

// ExtractBlob returns the first column of the first row whose first column
// is not NULL. It returns nil without error if there is no such row.
func (x *Extractor) ExtractBlob(ctx context.Context, dbPath string, stmt query.Statement) ([]byte, error) {
	rows, err := x.q.Query(ctx, dbPath, stmt)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		if b, ok, err := cell(dbPath, row); err != nil {
			return nil, err
		} else if ok {
			return b, nil
		}
	}
	return nil, nil
}

// ExtractBlobs returns the first column of all rows. NULL cells are skipped.
func (x *Extractor) ExtractBlobs(ctx context.Context, dbPath string, stmt query.Statement) ([][]byte, error) {
	rows, err := x.q.Query(ctx, dbPath, stmt)
	if err != nil {
		return nil, err
	}
	var blobs [][]byte
	for _, row := range rows {
		b, ok, err := cell(dbPath, row)
		if err != nil {
			return nil, err
		}
		if ok {
			blobs = append(blobs, b)
		}
	}
	return blobs, nil
}

func cell(dbPath string, row query.Row) ([]byte, bool, error) {
	if len(row) == 0 {
		return nil, false, errdefs.New(errdefs.ErrQuery, "extract blob", dbPath, errors.New("statement returns no columns"))
	}
	switch v := row[0].(type) {
	case nil:
		return nil, false, nil
	case []byte:
		return v, true, nil
	case string:
		return []byte(v), true, nil
	default:
		return nil, false, errdefs.New(errdefs.ErrParse, "extract blob", dbPath, errors.Errorf("column holds %T, not a blob", v))
	}
}

// Save writes data to destPath on fs and returns the final path. With
// autoExtension the extension of destPath is replaced by the one of the
// detected media type. The file is written to a temporary name first, so
// destPath is either complete or absent.
func Save(fs afero.Fs, data []byte, destPath string, autoExtension bool) (string, error) {
	if autoExtension {
		destPath = strings.TrimSuffix(destPath, filepath.Ext(destPath)) + Classify(data).Extension()
	}

	dir := filepath.Dir(destPath)
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return "", errdefs.Wrap(errdefs.ErrIO, "save blob", destPath, err)
	}
	tmp, err := afero.TempFile(fs, dir, "."+filepath.Base(destPath)+".*")
	if err != nil {
		return "", errdefs.Wrap(errdefs.ErrIO, "save blob", destPath, err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = fs.Remove(tmp.Name())
		return "", errdefs.Wrap(errdefs.ErrIO, "save blob", destPath, err)
	}
	if err := tmp.Close(); err != nil {
		_ = fs.Remove(tmp.Name())
		return "", errdefs.Wrap(errdefs.ErrIO, "save blob", destPath, err)
	}
	if err := fs.Rename(tmp.Name(), destPath); err != nil {
		_ = fs.Remove(tmp.Name())
		return "", errdefs.Wrap(errdefs.ErrIO, "save blob", destPath, err)
	}
	return destPath, nil
}

// ParseBlobAsPlist decodes a blob holding a property list. Binary plists are
// recognized by their magic, other blobs are tried as XML or OpenStep plists.
// OpenStep blobs must hold a dictionary or an array, as any bare word is a
// valid OpenStep string.
func ParseBlobAsPlist(data []byte) (structured.Value, error) {
	v, format, err := structured.ParsePlistFormat(data)
	if err != nil {
		return structured.Value{}, err
	}
	switch format {
	case structured.OpenStepPlist, structured.GNUStepPlist:
		if k := v.Kind(); k != structured.Dict && k != structured.List {
			return structured.Value{}, errdefs.New(errdefs.ErrParse, "parse blob", "", errors.Errorf("%s plist holds a %s, not a container", format, k))
		}
	}
	return v, nil
}
