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

// Package archive provides read access to zip based device extractions.
//
// An Archive exclusively owns the underlying container file. It indexes the
// zip central directory once on Open, so entry lookups are map accesses and
// reads of different entries can run in parallel.
package archive

import (
	"archive/zip"
	"bytes"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zstd"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/spf13/afero/zipfs"

	"github.com/forensicanalysis/mobileforensics/errdefs"
)

// Entry describes a single member of the archive.
type Entry struct {
	Name           string    `json:"name"`
	Size           int64     `json:"size"`
	CompressedSize int64     `json:"compressed_size"`
	CRC32          uint32    `json:"crc32"`
	Modified       time.Time `json:"modified"`
	IsDir          bool      `json:"is_dir"`
}

// Archive is an open zip extraction.
type Archive struct {
	path    string
	file    *os.File
	reader  *zip.Reader
	files   []*zip.File
	index   map[string]*zip.File
	dest    afero.Fs
	workers int
	logger  *slog.Logger

	closeOnce sync.Once
	closeErr  error
	mu        sync.RWMutex
	closed    bool
}

// Open opens the zip file at path.
func Open(path string, opts ...Option) (*Archive, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	f, err := os.Open(path) // #nosec
	if err != nil {
		return nil, errdefs.Wrap(errdefs.ErrArchiveOpen, "open", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close() // nolint:errcheck
		return nil, errdefs.Wrap(errdefs.ErrArchiveOpen, "open", path, err)
	}
	if info.IsDir() {
		f.Close() // nolint:errcheck
		return nil, errdefs.New(errdefs.ErrArchiveOpen, "open", path, errors.New("is a directory"))
	}

	a, err := newArchive(f, info.Size(), o)
	if err != nil {
		f.Close() // nolint:errcheck
		return nil, errdefs.Wrap(errdefs.ErrArchiveOpen, "open", path, err)
	}
	a.path = path
	a.file = f

	a.logger.Info("opened archive", "path", path, "entries", len(a.files))
	return a, nil
}

// New creates an Archive from an in-memory or otherwise provided zip. The
// returned Archive does not own r.
func New(r io.ReaderAt, size int64, opts ...Option) (*Archive, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	a, err := newArchive(r, size, o)
	if err != nil {
		return nil, errdefs.Wrap(errdefs.ErrArchiveOpen, "open", "", err)
	}
	return a, nil
}

func newArchive(r io.ReaderAt, size int64, o options) (*Archive, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, err
	}
	zr.RegisterDecompressor(zip.Deflate, func(r io.Reader) io.ReadCloser {
		return flate.NewReader(r)
	})
	zr.RegisterDecompressor(zstd.ZipMethodWinZip, zstd.ZipDecompressor())

	a := &Archive{
		reader:  zr,
		files:   zr.File,
		index:   make(map[string]*zip.File, len(zr.File)),
		dest:    o.fs,
		workers: o.workers,
		logger:  o.logger,
	}
	for _, f := range zr.File {
		name := cleanName(f.Name)
		if _, ok := a.index[name]; !ok {
			a.index[name] = f
		}
	}
	return a, nil
}

// cleanName converts windows separators and strips a leading "./" or "/".
func cleanName(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = strings.TrimPrefix(name, "./")
	return strings.TrimLeft(name, "/")
}

// Path returns the file system path the archive was opened from.
func (a *Archive) Path() string {
	return a.path
}

func (a *Archive) checkOpen() error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return errdefs.ErrArchiveClosed
	}
	return nil
}

// Entries lists all entries in archive order.
func (a *Archive) Entries() ([]Entry, error) {
	if err := a.checkOpen(); err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(a.files))
	for _, f := range a.files {
		entries = append(entries, toEntry(f))
	}
	return entries, nil
}

// Names lists all entry names in archive order.
func (a *Archive) Names() ([]string, error) {
	if err := a.checkOpen(); err != nil {
		return nil, err
	}
	names := make([]string, 0, len(a.files))
	for _, f := range a.files {
		names = append(names, cleanName(f.Name))
	}
	return names, nil
}

// List returns the entries below the directory prefix dir, sorted by name.
// An empty dir lists everything.
func (a *Archive) List(dir string) ([]Entry, error) {
	if err := a.checkOpen(); err != nil {
		return nil, err
	}
	dir = cleanName(dir)
	if dir != "" && !strings.HasSuffix(dir, "/") {
		dir += "/"
	}
	var entries []Entry
	for name, f := range a.index {
		if strings.HasPrefix(name, dir) && name != dir {
			entries = append(entries, toEntry(f))
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return entries, nil
}

// Has reports whether the archive contains an entry called name.
func (a *Archive) Has(name string) bool {
	if a.checkOpen() != nil {
		return false
	}
	_, ok := a.index[cleanName(name)]
	return ok
}

// Stat returns the entry called name.
func (a *Archive) Stat(name string) (Entry, error) {
	f, err := a.lookup("stat", name)
	if err != nil {
		return Entry{}, err
	}
	return toEntry(f), nil
}

func (a *Archive) lookup(op, name string) (*zip.File, error) {
	if err := a.checkOpen(); err != nil {
		return nil, err
	}
	f, ok := a.index[cleanName(name)]
	if !ok {
		return nil, errdefs.New(errdefs.ErrEntryNotFound, op, name, nil)
	}
	return f, nil
}

// OpenEntry opens the entry called name for streaming.
func (a *Archive) OpenEntry(name string) (io.ReadCloser, error) {
	f, err := a.lookup("open", name)
	if err != nil {
		return nil, err
	}
	if f.FileInfo().IsDir() {
		return nil, errdefs.New(errdefs.ErrIO, "open", name, errors.New("is a directory"))
	}
	rc, err := f.Open()
	if err != nil {
		return nil, errdefs.Wrap(errdefs.ErrIO, "open", name, err)
	}
	return rc, nil
}

// Read returns the complete content of the entry called name.
func (a *Archive) Read(name string) ([]byte, error) {
	rc, err := a.OpenEntry(name)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	buf := &bytes.Buffer{}
	if size := a.index[cleanName(name)].UncompressedSize64; size > 0 && size < 1<<30 {
		buf.Grow(int(size))
	}
	if _, err := io.Copy(buf, rc); err != nil {
		return nil, errdefs.Wrap(errdefs.ErrIO, "read", name, err)
	}
	return buf.Bytes(), nil
}

// Fs returns a read-only afero view of the archive.
func (a *Archive) Fs() afero.Fs {
	return zipfs.New(a.reader)
}

// Close releases the underlying file. Repeated calls are no-ops.
func (a *Archive) Close() error {
	a.closeOnce.Do(func() {
		a.mu.Lock()
		a.closed = true
		a.mu.Unlock()
		if a.file != nil {
			a.closeErr = a.file.Close()
			a.logger.Debug("closed archive", "path", a.path)
		}
	})
	return a.closeErr
}

func toEntry(f *zip.File) Entry {
	return Entry{
		Name:           cleanName(f.Name),
		Size:           int64(f.UncompressedSize64),
		CompressedSize: int64(f.CompressedSize64),
		CRC32:          f.CRC32,
		Modified:       f.Modified,
		IsDir:          f.FileInfo().IsDir(),
	}
}
