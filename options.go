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
	"log/slog"
	"os"
	"runtime"

	"github.com/imdario/mergo"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
)

// DefaultSampleSize is the number of entries inspected by the layout detection.
const DefaultSampleSize = 100

// Options configure an Extraction. Zero fields are replaced by defaults.
type Options struct {
	// Logger receives the log output of all components.
	Logger *slog.Logger
	// TempDir is the base directory for materialized databases.
	TempDir string
	// SampleSize is the number of entries used for layout detection.
	SampleSize int
	// Workers limits parallel extraction.
	Workers int
	// Fs is the file system extracted entries and blobs are written to.
	Fs afero.Fs
}

func defaultOptions() Options {
	return Options{
		TempDir:    os.TempDir(),
		SampleSize: DefaultSampleSize,
		Workers:    runtime.NumCPU(),
	}
}

func (o *Options) complete() (Options, error) {
	opts := Options{}
	if o != nil {
		opts = *o
	}
	if err := mergo.Merge(&opts, defaultOptions()); err != nil {
		return opts, errors.Wrap(err, "could not merge options")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	return opts, nil
}
