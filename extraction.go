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

package mobileforensics

import (
	"context"
	"log/slog"
	"sync"

	"github.com/spf13/afero"

	"github.com/forensicanalysis/mobileforensics/archive"
	"github.com/forensicanalysis/mobileforensics/blob"
	"github.com/forensicanalysis/mobileforensics/credentials"
	"github.com/forensicanalysis/mobileforensics/detect"
	"github.com/forensicanalysis/mobileforensics/forensicpath"
	"github.com/forensicanalysis/mobileforensics/query"
	"github.com/forensicanalysis/mobileforensics/structured"
)

// Extraction is an opened device extraction. Logical paths passed to its
// methods are relative to the file system root of the device and are
// prefixed with the detected path prefix.
type Extraction struct {
	archive *archive.Archive
	engine  *query.Engine
	blobs   *blob.Extractor
	opts    Options
	logger  *slog.Logger

	formatMu sync.Mutex
	format   *detect.Format
}

// Open opens the extraction zip at path. opts may be nil.
func Open(path string, opts *Options) (*Extraction, error) {
	o, err := opts.complete()
	if err != nil {
		return nil, err
	}

	a, err := archive.Open(path,
		archive.WithFs(o.Fs),
		archive.WithWorkers(o.Workers),
		archive.WithLogger(o.Logger),
	)
	if err != nil {
		return nil, err
	}
	return newExtraction(a, o), nil
}

func newExtraction(a *archive.Archive, o Options) *Extraction {
	engine := query.NewEngine(a, query.WithTempDir(o.TempDir), query.WithLogger(o.Logger))
	return &Extraction{
		archive: a,
		engine:  engine,
		blobs:   blob.NewExtractor(engine),
		opts:    o,
		logger:  o.Logger.With("component", "extraction"),
	}
}

// Archive returns the underlying archive.
func (e *Extraction) Archive() *archive.Archive {
	return e.archive
}

// Engine returns the query engine bound to the archive.
func (e *Extraction) Engine() *query.Engine {
	return e.engine
}

// Fs returns the file system extracted files and blobs are written to.
func (e *Extraction) Fs() afero.Fs {
	return e.opts.Fs
}

// Format returns the detected acquisition layout. The detection runs once and
// its result is kept for the lifetime of the handle. A handle whose entries
// cannot be listed reports Unknown without keeping it.
func (e *Extraction) Format() detect.Format {
	e.formatMu.Lock()
	defer e.formatMu.Unlock()
	if e.format != nil {
		return *e.format
	}

	names, err := e.archive.Names()
	if err != nil {
		e.logger.Warn("layout detection without entries", "error", err)
		return detect.Unknown
	}
	f := detect.Detect(names,
		detect.WithSampleSize(e.opts.SampleSize),
		detect.WithLogger(e.opts.Logger),
	)
	e.format = &f
	return f
}

// Path returns the logical path together with its prefixed archive path.
func (e *Extraction) Path(logical string) forensicpath.Path {
	return forensicpath.New(e.Format().Prefix, logical)
}

// Normalize returns the archive path of a logical path.
func (e *Extraction) Normalize(logical string) string {
	return forensicpath.Normalize(e.Format().Prefix, logical)
}

// Has reports whether the logical path exists in the extraction.
func (e *Extraction) Has(logical string) bool {
	return e.archive.Has(e.Normalize(logical))
}

// Read returns the content of the file at the logical path.
func (e *Extraction) Read(logical string) ([]byte, error) {
	return e.archive.Read(e.Normalize(logical))
}

// List returns the entries below the logical directory.
func (e *Extraction) List(logical string) ([]archive.Entry, error) {
	return e.archive.List(e.Normalize(logical))
}

// Extract writes the file at the logical path below destDir.
func (e *Extraction) Extract(ctx context.Context, logical, destDir string) (archive.Extracted, error) {
	return e.archive.Extract(ctx, e.Normalize(logical), destDir)
}

// ReadPlist reads and decodes the property list at the logical path.
func (e *Extraction) ReadPlist(logical string) (structured.Value, error) {
	b, err := e.Read(logical)
	if err != nil {
		return structured.Value{}, err
	}
	return structured.ParsePlist(b)
}

// ReadXML reads and decodes the XML document at the logical path.
func (e *Extraction) ReadXML(logical string) (*structured.Document, error) {
	b, err := e.Read(logical)
	if err != nil {
		return nil, err
	}
	return structured.ParseXML(b)
}

// Query runs stmt against the database at the logical path.
func (e *Extraction) Query(ctx context.Context, logical string, stmt query.Statement) ([]query.Row, error) {
	return e.engine.Query(ctx, e.Normalize(logical), stmt)
}

// QueryDict runs stmt against the database at the logical path and returns
// the rows as column name maps.
func (e *Extraction) QueryDict(ctx context.Context, logical string, stmt query.Statement) ([]query.Dict, error) {
	return e.engine.QueryDict(ctx, e.Normalize(logical), stmt)
}

// QueryResult is like Query but includes the column names.
func (e *Extraction) QueryResult(ctx context.Context, logical string, stmt query.Statement) (*query.Result, error) {
	return e.engine.QueryResult(ctx, e.Normalize(logical), stmt)
}

// QueryEncrypted runs stmt against the SQLCipher database at the logical path.
func (e *Extraction) QueryEncrypted(ctx context.Context, logical string, key query.Key, stmt query.Statement) ([]query.Row, error) {
	return e.engine.QueryEncrypted(ctx, e.Normalize(logical), key, stmt)
}

// QueryEncryptedDict is QueryEncrypted returning column name maps.
func (e *Extraction) QueryEncryptedDict(ctx context.Context, logical string, key query.Key, stmt query.Statement) ([]query.Dict, error) {
	return e.engine.QueryEncryptedDict(ctx, e.Normalize(logical), key, stmt)
}

// QueryEncryptedResult is QueryEncrypted including the column names.
func (e *Extraction) QueryEncryptedResult(ctx context.Context, logical string, key query.Key, stmt query.Statement) (*query.Result, error) {
	return e.engine.QueryEncryptedResult(ctx, e.Normalize(logical), key, stmt)
}

// DecryptToPlainFile writes a decrypted copy of the SQLCipher database at
// the logical path to destPath.
func (e *Extraction) DecryptToPlainFile(ctx context.Context, logical string, key query.Key, destPath string) (string, error) {
	return e.engine.DecryptToPlainFile(ctx, e.Normalize(logical), key, destPath)
}

// Tables lists the tables of the database at the logical path.
func (e *Extraction) Tables(ctx context.Context, logical string) ([]string, error) {
	return e.engine.Tables(ctx, e.Normalize(logical))
}

// ExtractBlob returns the first non NULL value of the first column.
func (e *Extraction) ExtractBlob(ctx context.Context, logical string, stmt query.Statement) ([]byte, error) {
	return e.blobs.ExtractBlob(ctx, e.Normalize(logical), stmt)
}

// ExtractBlobs returns all non NULL values of the first column.
func (e *Extraction) ExtractBlobs(ctx context.Context, logical string, stmt query.Statement) ([][]byte, error) {
	return e.blobs.ExtractBlobs(ctx, e.Normalize(logical), stmt)
}

// SaveBlob writes data to destPath on the configured file system.
func (e *Extraction) SaveBlob(data []byte, destPath string, autoExtension bool) (string, error) {
	return blob.Save(e.opts.Fs, data, destPath, autoExtension)
}

// Keychain inventories the iOS keychain database at the logical path.
func (e *Extraction) Keychain(ctx context.Context, logical string) (*credentials.KeychainInventory, error) {
	return credentials.ParseIOSKeychain(ctx, e.engine, e.Normalize(logical))
}

// Locksettings summarizes the Android locksettings database at the logical path.
func (e *Extraction) Locksettings(ctx context.Context, logical string) (*credentials.LockSettingsSummary, error) {
	return credentials.ParseAndroidLocksettings(ctx, e.engine, e.Normalize(logical))
}

// Keystore classifies the files below the Android keystore directory at the
// logical path.
func (e *Extraction) Keystore(logical string) (*credentials.KeystoreInventory, error) {
	return credentials.IdentifyAndroidKeystoreFiles(e.archive, e.Normalize(logical))
}

// Close closes the archive. Repeated calls are no-ops.
func (e *Extraction) Close() error {
	return e.archive.Close()
}
