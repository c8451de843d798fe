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

package query

import (
	"context"
	"io"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/forensicanalysis/mobileforensics/errdefs"
)

// sidecars are copied next to the database when the archive contains them.
// Live iOS databases keep recent transactions in the write ahead log.
var sidecars = []string{"-wal", "-journal"}

// materialize copies the database entry and its sidecars into a new private
// directory. The returned cleanup function removes the directory and must be
// called on every path.
func (e *Engine) materialize(ctx context.Context, entry string) (Session, func(), error) {
	dir := filepath.Join(e.opts.tempDir, "mobileforensics-"+uuid.New().String())
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return Session{}, func() {}, errdefs.Wrap(errdefs.ErrIO, "materialize", entry, err)
	}

	s := Session{Entry: entry, Dir: dir, Path: filepath.Join(dir, dbName(entry)), Started: time.Now()}
	e.sessions.add(s)
	cleanup := func() {
		if err := os.RemoveAll(dir); err != nil {
			e.opts.logger.Error("could not remove temporary database", "dir", dir, "error", err)
		}
		e.sessions.remove(dir)
	}

	if err := e.copyEntry(ctx, entry, s.Path, true); err != nil {
		cleanup()
		return Session{}, func() {}, err
	}
	for _, suffix := range sidecars {
		if err := e.copyEntry(ctx, entry+suffix, s.Path+suffix, false); err != nil {
			cleanup()
			return Session{}, func() {}, err
		}
	}

	e.opts.logger.Debug("materialized database", "entry", entry, "path", s.Path)
	if e.opts.onMaterialize != nil {
		e.opts.onMaterialize(entry, s.Path)
	}
	return s, cleanup, nil
}

func dbName(entry string) string {
	name := path.Base(entry)
	if name == "." || name == "/" || name == "" {
		return "database.sqlite"
	}
	return name
}

func (e *Engine) copyEntry(ctx context.Context, entry, dest string, required bool) error {
	src, err := e.src.OpenEntry(entry)
	if err != nil {
		if !required && errors.Is(err, errdefs.ErrEntryNotFound) {
			return nil
		}
		return err
	}
	defer src.Close()

	f, err := os.OpenFile(dest, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return errdefs.Wrap(errdefs.ErrIO, "materialize", entry, err)
	}
	if err := copyWithContext(ctx, f, src); err != nil {
		f.Close() // nolint:errcheck
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return errdefs.Wrap(errdefs.ErrIO, "materialize", entry, err)
	}
	return errdefs.Wrap(errdefs.ErrIO, "materialize", entry, f.Close())
}

func copyWithContext(ctx context.Context, dst io.Writer, src io.Reader) error {
	buf := make([]byte, 64*1024)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		nr, er := src.Read(buf)
		if nr > 0 {
			nw, ew := dst.Write(buf[:nr])
			if ew != nil {
				return ew
			}
			if nw != nr {
				return io.ErrShortWrite
			}
		}
		if er == io.EOF {
			return nil
		}
		if er != nil {
			return er
		}
	}
}
