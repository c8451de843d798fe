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
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// backend executes statements against a materialized database file.
type backend interface {
	// query runs a single statement. A nil key opens the database as plain
	// SQLite.
	query(ctx context.Context, path string, key *Key, sql string, args []interface{}) (*Result, error)
	// export writes a decrypted copy of the database to dest.
	export(ctx context.Context, path string, key Key, dest string) error
}

// keyDSN returns the data source name that opens path with key k. The driver
// applies the key before the first read and wraps it in double quotes, so raw
// keys in the x'...' form stay raw keys.
func keyDSN(path string, k Key) string {
	return path + "?_pragma_key=" + url.QueryEscape(strings.ReplaceAll(k.Passphrase, `"`, `""`))
}

func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// normalize converts bound parameters into the types both backends accept.
func normalize(args []interface{}) ([]interface{}, error) {
	out := make([]interface{}, len(args))
	for i, arg := range args {
		switch v := arg.(type) {
		case nil, int64, float64, string, []byte, bool:
			out[i] = v
		case int:
			out[i] = int64(v)
		case int32:
			out[i] = int64(v)
		case uint32:
			out[i] = int64(v)
		case float32:
			out[i] = float64(v)
		case time.Time:
			out[i] = v.UTC().Format(time.RFC3339Nano)
		default:
			return nil, errors.Errorf("unsupported parameter %d of type %T", i+1, arg)
		}
	}
	return out, nil
}
