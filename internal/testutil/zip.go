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

// Package testutil builds archive and database fixtures for tests.
package testutil

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// File is a single zip member. Names ending in "/" become directory entries.
type File struct {
	Name string
	Data []byte
}

// ZipBytes builds a zip archive in memory, keeping the order of files.
func ZipBytes(t testing.TB, files ...File) []byte {
	t.Helper()
	buf := &bytes.Buffer{}
	w := zip.NewWriter(buf)
	for _, f := range files {
		hdr := &zip.FileHeader{
			Name:     f.Name,
			Method:   zip.Deflate,
			Modified: time.Date(2021, 3, 4, 5, 6, 7, 0, time.UTC),
		}
		if len(f.Name) > 0 && f.Name[len(f.Name)-1] == '/' {
			hdr.Method = zip.Store
		}
		fw, err := w.CreateHeader(hdr)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write(f.Data); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// Zip writes a zip archive into a temporary directory and returns its path.
func Zip(t testing.TB, files ...File) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "extraction.zip")
	if err := os.WriteFile(p, ZipBytes(t, files...), 0o600); err != nil {
		t.Fatal(err)
	}
	return p
}

// Names creates empty files for the given names.
func Names(names ...string) []File {
	files := make([]File, 0, len(names))
	for _, name := range names {
		files = append(files, File{Name: name})
	}
	return files
}
