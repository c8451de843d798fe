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

package detect

import "strings"

// Tool is the acquisition tool that produced an extraction.
type Tool int

// Tools.
const (
	UnknownTool Tool = iota
	Cellebrite
	GrayKey
)

func (t Tool) String() string {
	switch t {
	case Cellebrite:
		return "cellebrite"
	case GrayKey:
		return "graykey"
	default:
		return "unknown"
	}
}

// MarshalText renders the tool name.
func (t Tool) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

// OS is the operating system of the extracted device.
type OS int

// Operating systems.
const (
	UnknownOS OS = iota
	IOS
	Android
)

func (o OS) String() string {
	switch o {
	case IOS:
		return "ios"
	case Android:
		return "android"
	default:
		return "unknown"
	}
}

// MarshalText renders the os name.
func (o OS) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// Format is the detected layout of an extraction.
type Format struct {
	Tool   Tool   `json:"tool"`
	OS     OS     `json:"os"`
	Prefix string `json:"prefix"`
	// Ambiguous lists the names of further layouts whose signature matched
	// but lost against the first matching rule.
	Ambiguous []string `json:"ambiguous,omitempty"`
}

// Unknown is the result for extractions that match no layout.
var Unknown = Format{}

// Name returns the layout name, e.g. "cellebrite_ios" or "unknown".
func (f Format) Name() string {
	if f.Tool == UnknownTool && f.OS == UnknownOS {
		return "unknown"
	}
	return f.Tool.String() + "_" + f.OS.String()
}

// IsUnknown reports whether neither tool nor os could be determined.
func (f Format) IsUnknown() bool {
	return f.Tool == UnknownTool && f.OS == UnknownOS
}

func (f Format) String() string {
	if f.Prefix == "" {
		return f.Name()
	}
	return f.Name() + " (" + strings.TrimSuffix(f.Prefix, "/") + ")"
}
