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
	"log/slog"
	"os"
)

type options struct {
	tempDir       string
	logger        *slog.Logger
	onMaterialize func(entry, path string)
}

// Option configures an Engine.
type Option func(*options)

// WithTempDir sets the directory below which databases are materialized.
// It defaults to os.TempDir().
func WithTempDir(dir string) Option {
	return func(o *options) {
		if dir != "" {
			o.tempDir = dir
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger.With("component", "query")
		}
	}
}

// OnMaterialize registers a function that is called with the archive entry
// and the temporary file path whenever a database is materialized.
func OnMaterialize(fn func(entry, path string)) Option {
	return func(o *options) {
		o.onMaterialize = fn
	}
}

func defaultOptions() options {
	return options{
		tempDir: os.TempDir(),
		logger:  slog.Default().With("component", "query"),
	}
}
