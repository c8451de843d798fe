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

// Package credentials inventories OS credential stores without decrypting
// them.
//
// The iOS keychain, Android lock settings and Android keystore hold secrets
// that are protected by the Secure Enclave or Gatekeeper. This package only
// reports their structure and plaintext metadata. Payloads that are
// encrypted on the device are marked Opaque and never decoded.
package credentials

import (
	"context"
	"unicode/utf8"

	"github.com/forensicanalysis/mobileforensics/archive"
	"github.com/forensicanalysis/mobileforensics/query"
)

// Querier runs statements against databases of an extraction, usually a
// *query.Engine.
type Querier interface {
	QueryResult(ctx context.Context, dbPath string, stmt query.Statement) (*query.Result, error)
}

// Lister enumerates entries below a directory, usually an *archive.Archive.
type Lister interface {
	List(dir string) ([]archive.Entry, error)
}

// Field is a single column value. Opaque fields hold device encrypted or
// otherwise binary content; only their size is reported.
type Field struct {
	Text   string `json:"text,omitempty"`
	Opaque bool   `json:"opaque,omitempty"`
	Null   bool   `json:"null,omitempty"`
	Size   int    `json:"size,omitempty"`
}

func (f Field) String() string {
	switch {
	case f.Null:
		return "<null>"
	case f.Opaque:
		return "<opaque>"
	default:
		return f.Text
	}
}

// opaque marks a payload without inspecting it.
func opaque(size int) Field {
	return Field{Opaque: true, Size: size}
}

// textField renders a cell. Binary cells are only shown when they are
// printable UTF-8.
func textField(v interface{}) Field {
	switch v := v.(type) {
	case nil:
		return Field{Null: true}
	case []byte:
		if printable(v) {
			return Field{Text: string(v), Size: len(v)}
		}
		return opaque(len(v))
	case string:
		return Field{Text: v, Size: len(v)}
	default:
		return Field{Text: formatCell(v)}
	}
}

func printable(b []byte) bool {
	if len(b) == 0 || !utf8.Valid(b) {
		return false
	}
	for _, r := range string(b) {
		if r < 0x20 && r != '\t' && r != '\n' && r != '\r' {
			return false
		}
		if r == utf8.RuneError || r == 0x7f {
			return false
		}
	}
	return true
}
