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

// Package forensicpath combines a detected layout prefix with logical
// forensic paths like "private/var/mobile/Library/SMS/sms.db".
package forensicpath

// Path is a logical path and its location inside a specific extraction.
type Path struct {
	Logical    string `json:"logical"`
	Normalized string `json:"normalized"`
}

// Normalize returns prefix + logical.
func Normalize(prefix, logical string) string {
	return prefix + logical
}

// New creates a Path for logical below prefix.
func New(prefix, logical string) Path {
	return Path{Logical: logical, Normalized: Normalize(prefix, logical)}
}

func (p Path) String() string {
	return p.Normalized
}
