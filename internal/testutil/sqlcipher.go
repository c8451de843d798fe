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

//go:build sqlcipher

package testutil

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"testing"

	_ "github.com/mutecomm/go-sqlcipher/v4" // sqlite3 driver
)

// SQLite creates a database at path and runs the statements on it. The
// returned bytes are the database file content.
func SQLite(t testing.TB, path string, stmts ...string) []byte {
	t.Helper()
	return create(t, path, "", stmts)
}

// SQLCipher creates a SQLCipher 4 database encrypted with passphrase.
func SQLCipher(t testing.TB, path, passphrase string, stmts ...string) []byte {
	t.Helper()
	return create(t, path, passphrase, stmts)
}

// SQLCipherVersion creates a database in the given SQLCipher compatibility
// mode. It changes process wide defaults and must not run in parallel with
// other encrypted database access.
func SQLCipherVersion(t testing.TB, path, passphrase string, version int, stmts ...string) []byte {
	t.Helper()
	setDefaultCompatibility(t, version)
	defer setDefaultCompatibility(t, 4)
	return create(t, path, passphrase, stmts)
}

func setDefaultCompatibility(t testing.TB, version int) {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	if _, err := db.Exec(fmt.Sprintf("PRAGMA cipher_default_compatibility = %d", version)); err != nil {
		t.Fatal(err)
	}
}

func create(t testing.TB, path, passphrase string, stmts []string) []byte {
	t.Helper()
	ctx := context.Background()
	dsn := path
	if passphrase != "" {
		dsn += "?_pragma_key=" + url.QueryEscape(strings.ReplaceAll(passphrase, `"`, `""`))
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		t.Fatal(err)
	}

	conn, err := db.Conn(ctx)
	if err != nil {
		t.Fatal(err)
	}
	for _, stmt := range stmts {
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			conn.Close()
			t.Fatalf("%s: %s", stmt, err)
		}
	}
	if err := conn.Close(); err != nil {
		t.Fatal(err)
	}
	if err := db.Close(); err != nil {
		t.Fatal(err)
	}
	return readFile(t, path)
}
