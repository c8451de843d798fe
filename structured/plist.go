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

package structured

import (
	"bytes"

	"github.com/pkg/errors"
	"howett.net/plist"

	"github.com/forensicanalysis/mobileforensics/errdefs"
)

// PlistFormat is the encoding of a property list.
type PlistFormat int

// Property list encodings.
const (
	InvalidPlist  PlistFormat = PlistFormat(plist.InvalidFormat)
	OpenStepPlist PlistFormat = PlistFormat(plist.OpenStepFormat)
	GNUStepPlist  PlistFormat = PlistFormat(plist.GNUStepFormat)
	XMLPlist      PlistFormat = PlistFormat(plist.XMLFormat)
	BinaryPlist   PlistFormat = PlistFormat(plist.BinaryFormat)
)

func (f PlistFormat) String() string {
	if name, ok := plist.FormatNames[int(f)]; ok {
		return name
	}
	return "Invalid"
}

var binaryMagic = []byte("bplist")

// ParsePlist decodes a binary, XML or OpenStep property list.
func ParsePlist(data []byte) (Value, error) {
	v, _, err := ParsePlistFormat(data)
	return v, err
}

// ParsePlistFormat decodes a property list and reports its encoding.
func ParsePlistFormat(data []byte) (Value, PlistFormat, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return Value{}, InvalidPlist, errdefs.New(errdefs.ErrParse, "parse plist", "", errors.New("empty input"))
	}

	var raw interface{}
	format, err := plist.Unmarshal(data, &raw)
	if err != nil {
		return Value{}, InvalidPlist, errdefs.Wrap(errdefs.ErrParse, "parse plist", "", err)
	}
	if bytes.HasPrefix(data, binaryMagic) && format != plist.BinaryFormat {
		return Value{}, InvalidPlist, errdefs.New(errdefs.ErrParse, "parse plist", "", errors.New("corrupt binary plist"))
	}

	v, err := FromInterface(raw)
	if err != nil {
		return Value{}, InvalidPlist, errdefs.Wrap(errdefs.ErrParse, "parse plist", "", err)
	}
	return v, PlistFormat(format), nil
}

// EncodePlist encodes v in the given format.
func EncodePlist(v Value, format PlistFormat) ([]byte, error) {
	var in interface{} = v.Interface()
	if v.kind == UID {
		in = plist.UID(v.u)
	}
	b, err := plist.Marshal(in, int(format))
	if err != nil {
		return nil, errors.Wrap(err, "encode plist")
	}
	return b, nil
}
