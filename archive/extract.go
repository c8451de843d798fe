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
	"context"
	"crypto/sha256"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/opencontainers/go-digest"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"

	"github.com/forensicanalysis/mobileforensics/errdefs"
)

// Extracted describes an entry written to disk.
type Extracted struct {
	Entry  Entry         `json:"entry"`
	Path   string        `json:"path"`
	Digest digest.Digest `json:"digest"`
}

// Extract writes the entry called name below destDir. The file is written to
// a temporary name and renamed when complete, so the destination either holds
// the full content or does not exist.
func (a *Archive) Extract(ctx context.Context, name, destDir string) (Extracted, error) {
	f, err := a.lookup("extract", name)
	if err != nil {
		return Extracted{}, err
	}
	entry := toEntry(f)

	target, err := safeJoin(destDir, strings.ReplaceAll(f.Name, "\\", "/"))
	if err != nil {
		return Extracted{}, errdefs.Wrap(errdefs.ErrIO, "extract", name, err)
	}

	if entry.IsDir {
		if err := a.dest.MkdirAll(target, 0o755); err != nil {
			return Extracted{}, errdefs.Wrap(errdefs.ErrIO, "extract", name, err)
		}
		return Extracted{Entry: entry, Path: target}, nil
	}

	dgst, err := a.writeEntry(ctx, name, target)
	if err != nil {
		return Extracted{}, err
	}
	return Extracted{Entry: entry, Path: target, Digest: dgst}, nil
}

func (a *Archive) writeEntry(ctx context.Context, name, target string) (digest.Digest, error) {
	if err := a.dest.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", errdefs.Wrap(errdefs.ErrIO, "extract", name, err)
	}

	src, err := a.OpenEntry(name)
	if err != nil {
		return "", err
	}
	defer src.Close()

	tmp, err := afero.TempFile(a.dest, filepath.Dir(target), "."+filepath.Base(target)+".*")
	if err != nil {
		return "", errdefs.Wrap(errdefs.ErrIO, "extract", name, err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tmp.Close()
			_ = a.dest.Remove(tmp.Name())
		}
	}()

	h := sha256.New()
	if _, err := copyWithContext(ctx, io.MultiWriter(tmp, h), src); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		return "", errdefs.Wrap(errdefs.ErrIO, "extract", name, err)
	}
	if err := tmp.Close(); err != nil {
		return "", errdefs.Wrap(errdefs.ErrIO, "extract", name, err)
	}
	if err := a.dest.Rename(tmp.Name(), target); err != nil {
		return "", errdefs.Wrap(errdefs.ErrIO, "extract", name, err)
	}
	committed = true

	return digest.NewDigest(digest.SHA256, h), nil
}

// ExtractAll writes every entry below destDir using a bounded number of
// workers. On failure, entries completed before the error stay on disk.
// Entries that repeat an earlier name are skipped, so every path holds the
// entry that Read returns for it.
func (a *Archive) ExtractAll(ctx context.Context, destDir string) ([]Extracted, error) {
	if err := a.checkOpen(); err != nil {
		return nil, err
	}

	var names []string
	for _, f := range a.files {
		name := cleanName(f.Name)
		if a.index[name] != f {
			a.logger.Warn("skipping duplicate entry", "name", f.Name)
			continue
		}
		names = append(names, name)
	}

	results := make([]Extracted, len(names))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(a.workers)
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			x, err := a.Extract(ctx, name, destDir)
			if err != nil {
				return err
			}
			results[i] = x
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	a.logger.Info("extracted archive", "path", a.path, "dest", destDir, "entries", len(results))
	return results, nil
}

// safeJoin joins an entry name to dir and rejects names that would escape it.
func safeJoin(dir, name string) (string, error) {
	name = strings.TrimPrefix(name, "./")
	if name == "" {
		return "", errors.New("empty entry name")
	}
	if path.IsAbs(name) || filepath.IsAbs(name) || filepath.VolumeName(name) != "" {
		return "", errors.Errorf("absolute entry name %q", name)
	}
	for _, part := range strings.Split(name, "/") {
		if part == ".." {
			return "", errors.Errorf("entry name %q escapes destination", name)
		}
	}
	return filepath.Join(dir, filepath.FromSlash(name)), nil
}

func copyWithContext(ctx context.Context, dst io.Writer, src io.Reader) (int64, error) {
	buf := make([]byte, 32*1024)
	var written int64
	for {
		if err := ctx.Err(); err != nil {
			return written, err
		}
		nr, er := src.Read(buf)
		if nr > 0 {
			nw, ew := dst.Write(buf[:nr])
			written += int64(nw)
			if ew != nil {
				return written, ew
			}
			if nw != nr {
				return written, io.ErrShortWrite
			}
		}
		if er == io.EOF {
			return written, nil
		}
		if er != nil {
			return written, er
		}
	}
}
