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

import "github.com/forensicanalysis/mobileforensics/errdefs"

// Error kinds, see package errdefs.
var (
	ErrArchiveOpen       = errdefs.ErrArchiveOpen
	ErrEntryNotFound     = errdefs.ErrEntryNotFound
	ErrParse             = errdefs.ErrParse
	ErrSchemaMismatch    = errdefs.ErrSchemaMismatch
	ErrDecryption        = errdefs.ErrDecryption
	ErrMissingCapability = errdefs.ErrMissingCapability
	ErrIO                = errdefs.ErrIO
	ErrQuery             = errdefs.ErrQuery
	ErrArchiveClosed     = errdefs.ErrArchiveClosed
)

// ErrorKind returns the kind of err or nil if err is not classified.
func ErrorKind(err error) error {
	return errdefs.Kind(err)
}
