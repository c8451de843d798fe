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
	"strings"

	"github.com/forensicanalysis/mobileforensics/errdefs"
)

// schemaErrors mark failures caused by a database layout that differs from
// the one the statement expects. Only these trigger a fallback statement.
var schemaErrors = []string{
	"no such table",
	"no such column",
	"has no column named",
}

var notADatabase = []string{
	"file is not a database",
	"file is encrypted or is not a database",
}

// classify assigns an error kind to a backend failure.
func classify(ctx context.Context, op, entry string, encrypted bool, err error) error {
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if kind := errdefs.Kind(err); kind != nil {
		return err
	}

	msg := strings.ToLower(err.Error())
	switch {
	case containsAny(msg, schemaErrors):
		return errdefs.New(errdefs.ErrSchemaMismatch, op, entry, err)
	case containsAny(msg, notADatabase) && encrypted:
		return errdefs.New(errdefs.ErrDecryption, op, entry, err)
	case containsAny(msg, notADatabase):
		return errdefs.New(errdefs.ErrParse, op, entry, err)
	case strings.Contains(msg, "unable to open") || strings.Contains(msg, "disk i/o error"):
		return errdefs.New(errdefs.ErrIO, op, entry, err)
	default:
		return errdefs.New(errdefs.ErrQuery, op, entry, err)
	}
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
