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

// Package blob classifies binary fields by their leading magic bytes and
// stores them with a matching file extension.
package blob

import "bytes"

// MediaType is the content type of a blob.
type MediaType int

// Media types.
const (
	Unknown MediaType = iota
	JPEG
	PNG
	GIF
	BMP
	ICO
	TIFF
	BinaryPlist
)

var mediaTypes = [...]struct {
	name      string
	extension string
	mime      string
}{
	Unknown:     {"unknown", ".bin", "application/octet-stream"},
	JPEG:        {"jpeg", ".jpg", "image/jpeg"},
	PNG:         {"png", ".png", "image/png"},
	GIF:         {"gif", ".gif", "image/gif"},
	BMP:         {"bmp", ".bmp", "image/bmp"},
	ICO:         {"ico", ".ico", "image/x-icon"},
	TIFF:        {"tiff", ".tiff", "image/tiff"},
	BinaryPlist: {"bplist", ".plist", "application/x-bplist"},
}

func (m MediaType) info() int {
	if m < 0 || int(m) >= len(mediaTypes) {
		return int(Unknown)
	}
	return int(m)
}

func (m MediaType) String() string { return mediaTypes[m.info()].name }

// Extension returns the file extension including the dot.
func (m MediaType) Extension() string { return mediaTypes[m.info()].extension }

// MIME returns the mime type.
func (m MediaType) MIME() string { return mediaTypes[m.info()].mime }

// MarshalText renders the media type name.
func (m MediaType) MarshalText() ([]byte, error) { return []byte(m.String()), nil }

var signatures = []struct {
	magic []byte
	media MediaType
}{
	{[]byte{0xFF, 0xD8, 0xFF}, JPEG},
	{[]byte{0x89, 0x50, 0x4E, 0x47}, PNG},
	{[]byte("GIF87a"), GIF},
	{[]byte("GIF89a"), GIF},
	{[]byte{0x42, 0x4D}, BMP},
	{[]byte{0x00, 0x00, 0x01, 0x00}, ICO},
	{[]byte{0x49, 0x49, 0x2A, 0x00}, TIFF},
	{[]byte{0x4D, 0x4D, 0x00, 0x2A}, TIFF},
	{[]byte("bplist"), BinaryPlist},
}

// Classify returns the media type of data based on its content only.
func Classify(data []byte) MediaType {
	for _, sig := range signatures {
		if bytes.HasPrefix(data, sig.magic) {
			return sig.media
		}
	}
	return Unknown
}
