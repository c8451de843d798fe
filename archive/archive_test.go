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

package archive

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forensicanalysis/mobileforensics/errdefs"
	"github.com/forensicanalysis/mobileforensics/internal/testutil"
)

func fixture(t *testing.T) *Archive {
	t.Helper()
	p := testutil.Zip(t,
		testutil.File{Name: "Dump/"},
		testutil.File{Name: "Dump/private/var/mobile/a.txt", Data: []byte("hello")},
		testutil.File{Name: "Dump/private/var/mobile/b.bin", Data: bytes.Repeat([]byte{1, 2, 3}, 1000)},
	)
	a, err := Open(p)
	require.NoError(t, err)
	t.Cleanup(func() { a.Close() })
	return a
}

func TestOpen(t *testing.T) {
	garbage := filepath.Join(t.TempDir(), "garbage.zip")
	require.NoError(t, os.WriteFile(garbage, []byte("not a zip"), 0o600))

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"valid", testutil.Zip(t, testutil.Names("a.txt")...), false},
		{"missing", filepath.Join(t.TempDir(), "missing.zip"), true},
		{"corrupt", garbage, true},
		{"directory", t.TempDir(), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := Open(tt.path)
			if tt.wantErr {
				assert.True(t, errors.Is(err, errdefs.ErrArchiveOpen), err)
				return
			}
			require.NoError(t, err)
			assert.NoError(t, a.Close())
		})
	}
}

func TestArchive_Read(t *testing.T) {
	a := fixture(t)

	tests := []struct {
		name    string
		entry   string
		want    []byte
		wantErr error
	}{
		{"file", "Dump/private/var/mobile/a.txt", []byte("hello"), nil},
		{"leading slash", "/Dump/private/var/mobile/a.txt", []byte("hello"), nil},
		{"large", "Dump/private/var/mobile/b.bin", bytes.Repeat([]byte{1, 2, 3}, 1000), nil},
		{"missing", "Dump/private/var/mobile/c.txt", nil, errdefs.ErrEntryNotFound},
		{"directory", "Dump/", nil, errdefs.ErrIO},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := a.Read(tt.entry)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestArchive_Entries(t *testing.T) {
	a := fixture(t)

	names, err := a.Names()
	require.NoError(t, err)
	assert.Equal(t, []string{"Dump/", "Dump/private/var/mobile/a.txt", "Dump/private/var/mobile/b.bin"}, names)

	entries, err := a.Entries()
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.True(t, entries[0].IsDir)
	assert.Equal(t, int64(5), entries[1].Size)

	listed, err := a.List("Dump/private")
	require.NoError(t, err)
	assert.Len(t, listed, 2)

	e, err := a.Stat("Dump/private/var/mobile/b.bin")
	require.NoError(t, err)
	assert.Equal(t, int64(3000), e.Size)
	assert.True(t, a.Has("Dump/private/var/mobile/a.txt"))
	assert.False(t, a.Has("Dump/private/var/mobile/c.txt"))
}

func TestArchive_Close(t *testing.T) {
	a := fixture(t)
	assert.NoError(t, a.Close())
	assert.NoError(t, a.Close())

	_, err := a.Read("Dump/private/var/mobile/a.txt")
	assert.True(t, errors.Is(err, errdefs.ErrArchiveClosed))
	assert.True(t, errors.Is(err, errdefs.ErrIO))

	_, err = a.Entries()
	assert.True(t, errors.Is(err, errdefs.ErrIO))
	assert.False(t, a.Has("Dump/private/var/mobile/a.txt"))
}

func TestArchive_ConcurrentRead(t *testing.T) {
	a := fixture(t)

	var wg sync.WaitGroup
	errs := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			name := "Dump/private/var/mobile/a.txt"
			if i%2 == 0 {
				name = "Dump/private/var/mobile/b.bin"
			}
			if _, err := a.Read(name); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}

func TestArchive_Extract(t *testing.T) {
	fs := afero.NewMemMapFs()
	p := testutil.Zip(t, testutil.File{Name: "a/b.txt", Data: []byte("content")})
	a, err := Open(p, WithFs(fs))
	require.NoError(t, err)
	defer a.Close()

	x, err := a.Extract(context.Background(), "a/b.txt", "/out")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("/out", "a", "b.txt"), x.Path)
	assert.Equal(t, "sha256:ed7002b439e9ac845f22357d822bac1444730fbdb6016d3ec9432297b9ec9f73", x.Digest.String())

	got, err := afero.ReadFile(fs, x.Path)
	require.NoError(t, err)
	assert.Equal(t, []byte("content"), got)

	files, err := afero.ReadDir(fs, filepath.Join("/out", "a"))
	require.NoError(t, err)
	assert.Len(t, files, 1, "no temporary files left")
}

func TestArchive_ExtractAll(t *testing.T) {
	fs := afero.NewMemMapFs()
	p := testutil.Zip(t,
		testutil.File{Name: "x/"},
		testutil.File{Name: "x/1.txt", Data: []byte("1")},
		testutil.File{Name: "x/y/2.txt", Data: []byte("2")},
	)
	a, err := Open(p, WithFs(fs), WithWorkers(2))
	require.NoError(t, err)
	defer a.Close()

	extracted, err := a.ExtractAll(context.Background(), "/dest")
	require.NoError(t, err)
	assert.Len(t, extracted, 3)

	ok, err := afero.Exists(fs, filepath.Join("/dest", "x", "y", "2.txt"))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestArchive_ExtractAllDuplicates(t *testing.T) {
	fs := afero.NewMemMapFs()
	p := testutil.Zip(t,
		testutil.File{Name: "a.txt", Data: []byte("first")},
		testutil.File{Name: "b.txt", Data: []byte("b")},
		testutil.File{Name: "./a.txt", Data: []byte("second")},
	)
	a, err := Open(p, WithFs(fs), WithWorkers(4))
	require.NoError(t, err)
	defer a.Close()

	extracted, err := a.ExtractAll(context.Background(), "/dest")
	require.NoError(t, err)
	require.Len(t, extracted, 2)
	assert.Equal(t, "a.txt", extracted[0].Entry.Name)
	assert.Equal(t, "b.txt", extracted[1].Entry.Name)

	b, err := afero.ReadFile(fs, filepath.Join("/dest", "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "first", string(b))

	want, err := a.Read("a.txt")
	require.NoError(t, err)
	assert.Equal(t, want, b)
}

func TestArchive_ExtractTraversal(t *testing.T) {
	fs := afero.NewMemMapFs()
	p := testutil.Zip(t,
		testutil.File{Name: "../evil.txt", Data: []byte("x")},
		testutil.File{Name: "/etc/evil.txt", Data: []byte("x")},
	)
	a, err := Open(p, WithFs(fs))
	require.NoError(t, err)
	defer a.Close()

	for _, name := range []string{"../evil.txt", "etc/evil.txt"} {
		_, err := a.Extract(context.Background(), name, "/dest")
		assert.True(t, errors.Is(err, errdefs.ErrIO), name)
	}
	ok, _ := afero.Exists(fs, "/evil.txt")
	assert.False(t, ok)
}

func TestArchive_ExtractCanceled(t *testing.T) {
	fs := afero.NewMemMapFs()
	p := testutil.Zip(t, testutil.File{Name: "a.txt", Data: []byte("content")})
	a, err := Open(p, WithFs(fs))
	require.NoError(t, err)
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = a.Extract(ctx, "a.txt", "/dest")
	assert.ErrorIs(t, err, context.Canceled)

	ok, _ := afero.Exists(fs, filepath.Join("/dest", "a.txt"))
	assert.False(t, ok)
}

func TestArchive_Fs(t *testing.T) {
	a := fixture(t)
	got, err := afero.ReadFile(a.Fs(), "Dump/private/var/mobile/a.txt")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), got)
}
