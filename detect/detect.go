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

// Package detect identifies the acquisition tool and operating system of an
// extraction from its directory layout.
//
// Detection only looks at entry names. The root directories of the first
// entries are matched against the signatures below in order; the first
// matching rule wins:
//
//	1. Cellebrite Android  Dump/ or extra/ (prefix Dump/), legacy fs/ (prefix fs/)
//	2. Cellebrite iOS      filesystem1/ or filesystem/ (prefix is the folder)
//	3. GrayKey Android     at least 3 of apex/ bootstrap-apex/ cache/ data/ data-mirror/ efs/ system/
//	4. GrayKey iOS         at least 2 of private/ System/ Library/ Applications/ var/
//
// If no rule matches, a deep scan runs. An extraction wrapped in a single
// top-level folder is unwrapped and matched again. Otherwise all entry names
// are searched for well known system paths, which yields the operating system
// and prefix but no tool. Detection never fails; unrecognized layouts resolve
// to Unknown.
package detect

import (
	"log/slog"
	"strings"

	"github.com/scylladb/go-set/strset"
)

const defaultSampleSize = 100

var (
	grayKeyAndroidRoots = strset.New("apex/", "bootstrap-apex/", "cache/", "data/", "data-mirror/", "efs/", "system/")
	grayKeyIOSRoots     = strset.New("private/", "System/", "Library/", "Applications/", "var/")
)

type rule struct {
	tool  Tool
	os    OS
	match func(roots *strset.Set) (prefix string, ok bool)
}

var rules = []rule{
	{Cellebrite, Android, func(roots *strset.Set) (string, bool) {
		if roots.HasAny("Dump/", "extra/") {
			return "Dump/", true
		}
		if roots.Has("fs/") {
			return "fs/", true
		}
		return "", false
	}},
	{Cellebrite, IOS, func(roots *strset.Set) (string, bool) {
		for _, root := range []string{"filesystem1/", "filesystem/"} {
			if roots.Has(root) {
				return root, true
			}
		}
		return "", false
	}},
	{GrayKey, Android, func(roots *strset.Set) (string, bool) {
		return "", strset.Intersection(roots, grayKeyAndroidRoots).Size() >= 3
	}},
	{GrayKey, IOS, func(roots *strset.Set) (string, bool) {
		return "", strset.Intersection(roots, grayKeyIOSRoots).Size() >= 2
	}},
}

// markers are searched in all entry names during the deep scan. The prefix is
// everything in front of the marker.
var markers = []struct {
	os     OS
	marker string
}{
	{IOS, "private/var/mobile/"},
	{Android, "data/system/packages.xml"},
	{Android, "system/build.prop"},
}

type options struct {
	sampleSize int
	logger     *slog.Logger
}

// Option configures detection.
type Option func(*options)

// WithSampleSize sets the number of leading entries whose root directories
// are matched against the signatures.
func WithSampleSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.sampleSize = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger.With("component", "detect")
		}
	}
}

// Detect determines the format from entry names given in archive order.
func Detect(names []string, opts ...Option) Format {
	o := options{sampleSize: defaultSampleSize, logger: slog.Default().With("component", "detect")}
	for _, opt := range opts {
		opt(&o)
	}

	sample := names
	if len(sample) > o.sampleSize {
		sample = sample[:o.sampleSize]
	}

	if f, ok := matchRules(roots(sample)); ok {
		return report(o.logger, f)
	}
	if f, ok := unwrap(sample); ok {
		return report(o.logger, f)
	}
	if f, ok := scanMarkers(names); ok {
		o.logger.Debug("detected format from marker paths", "format", f.Name(), "prefix", f.Prefix)
		return f
	}
	o.logger.Debug("unknown format", "entries", len(names))
	return Unknown
}

func report(logger *slog.Logger, f Format) Format {
	if len(f.Ambiguous) > 0 {
		logger.Warn("ambiguous format", "format", f.Name(), "prefix", f.Prefix, "also_matched", f.Ambiguous)
	} else {
		logger.Debug("detected format", "format", f.Name(), "prefix", f.Prefix)
	}
	return f
}

// roots returns the root level directories of names, with a trailing slash.
func roots(names []string) *strset.Set {
	s := strset.New()
	for _, name := range names {
		name = strings.TrimLeft(name, "/")
		if i := strings.Index(name, "/"); i > 0 {
			s.Add(name[:i+1])
		}
	}
	return s
}

func matchRules(roots *strset.Set) (Format, bool) {
	var (
		found Format
		ok    bool
	)
	for _, r := range rules {
		prefix, match := r.match(roots)
		if !match {
			continue
		}
		if !ok {
			found, ok = Format{Tool: r.tool, OS: r.os, Prefix: prefix}, true
			continue
		}
		found.Ambiguous = append(found.Ambiguous, Format{Tool: r.tool, OS: r.os}.Name())
	}
	return found, ok
}

// unwrap matches the rules below a single top level folder that contains all
// sampled entries.
func unwrap(sample []string) (Format, bool) {
	top := roots(sample)
	if top.Size() != 1 {
		return Format{}, false
	}
	wrapper := top.List()[0]

	var inner []string
	for _, name := range sample {
		name = strings.TrimLeft(name, "/")
		if !strings.HasPrefix(name, wrapper) {
			return Format{}, false
		}
		inner = append(inner, strings.TrimPrefix(name, wrapper))
	}

	f, ok := matchRules(roots(inner))
	if !ok {
		return Format{}, false
	}
	f.Prefix = wrapper + f.Prefix
	return f, true
}

func scanMarkers(names []string) (Format, bool) {
	for _, m := range markers {
		for _, name := range names {
			name = strings.TrimLeft(name, "/")
			i := strings.Index(name, m.marker)
			for i > 0 && name[i-1] != '/' {
				next := strings.Index(name[i+1:], m.marker)
				if next < 0 {
					i = -1
					break
				}
				i += next + 1
			}
			if i >= 0 {
				return Format{OS: m.os, Prefix: name[:i]}, true
			}
		}
	}
	return Format{}, false
}
