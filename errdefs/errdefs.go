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

// Package errdefs defines the error kinds shared by all mobileforensics
// packages. Every failure that leaves the engine is classified as exactly one
// of the kinds below, so callers can decide between skipping an artifact and
// aborting a run with errors.Is.
package errdefs

import (
	"fmt"

	"github.com/pkg/errors"
)

// Error kinds. ErrQuery covers SQL failures outside the schema class, e.g.
// syntax errors or wrong parameter counts.
var (
	ErrArchiveOpen       = errors.New("archive open error")
	ErrEntryNotFound     = errors.New("entry not found")
	ErrParse             = errors.New("parse error")
	ErrSchemaMismatch    = errors.New("schema mismatch")
	ErrDecryption        = errors.New("decryption error")
	ErrMissingCapability = errors.New("missing capability")
	ErrIO                = errors.New("io error")
	ErrQuery             = errors.New("query error")
)

// ErrArchiveClosed is returned for reads on a closed archive. It is of kind ErrIO.
var ErrArchiveClosed = New(ErrIO, "read", "", errors.New("archive is closed"))

// Error is a classified failure.
type Error struct {
	Kind error  // one of the Err* kinds
	Op   string // operation, e.g. "query" or "read"
	Path string // archive entry or file path, may be empty
	Err  error  // underlying cause, may be nil
}

// New creates a classified error.
func New(kind error, op, path string, err error) *Error {
	return &Error{Kind: kind, Op: op, Path: path, Err: err}
}

// Wrap classifies err with kind. A nil err stays nil.
func Wrap(kind error, op, path string, err error) error {
	if err == nil {
		return nil
	}
	return New(kind, op, path, err)
}

func (e *Error) Error() string {
	msg := e.Op
	if e.Path != "" {
		msg += " " + e.Path
	}
	if msg != "" {
		msg += ": "
	}
	msg += e.Kind.Error()
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %s", msg, e.Err)
	}
	return msg
}

// Is reports whether target is the kind of e.
func (e *Error) Is(target error) bool {
	return target == e.Kind
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Kind returns the kind of err or nil if err is not classified.
func Kind(err error) error {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return nil
}
