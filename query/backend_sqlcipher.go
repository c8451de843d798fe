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

package query

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "github.com/mutecomm/go-sqlcipher/v4" // sqlite3 driver with SQLCipher
	"github.com/pkg/errors"

	"github.com/forensicanalysis/mobileforensics/errdefs"
)

// With the sqlcipher build tag, go-sqlcipher serves plain and encrypted
// databases. It bundles its own SQLite, which collides with crawshaw.io/sqlite
// at link time, so both are never built together.

const timestampFormat = "2006-01-02 15:04:05.999999999-07:00"

func newBackend() backend {
	return sqlcipherBackend{}
}

func probeEncryption() error {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return err
	}
	defer db.Close()

	var version string
	if err := db.QueryRow("PRAGMA cipher_version").Scan(&version); err != nil {
		return errors.Wrap(err, "sqlcipher not available")
	}
	if version == "" {
		return errors.New("sqlcipher not available")
	}
	return nil
}

type sqlcipherBackend struct{}

// defaultCipherVersion is the compatibility mode of the bundled SQLCipher.
const defaultCipherVersion = 4

// compatibility guards the process wide SQLCipher defaults. The driver reads
// the schema while opening a connection, so the key and the compatibility mode
// must be in place before the connection exists.
var compatibility sync.Mutex

func (sqlcipherBackend) open(ctx context.Context, path string, key *Key) (*sql.DB, *sql.Conn, error) {
	dsn := path
	if key != nil {
		compatibility.Lock()
		defer compatibility.Unlock()

		dsn = keyDSN(path, *key)
		if key.CipherVersion != 0 && key.CipherVersion != defaultCipherVersion {
			if err := setDefaultCompatibility(ctx, key.CipherVersion); err != nil {
				return nil, nil, errdefs.Wrap(errdefs.ErrDecryption, "unlock", "", err)
			}
			defer setDefaultCompatibility(context.Background(), defaultCipherVersion) // nolint:errcheck
		}
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, nil, err
	}
	conn, err := db.Conn(ctx)
	if err != nil {
		db.Close() // nolint:errcheck
		return nil, nil, err
	}
	if key != nil {
		if err := verifyKey(ctx, conn); err != nil {
			conn.Close() // nolint:errcheck
			db.Close()   // nolint:errcheck
			return nil, nil, err
		}
	}
	return db, conn, nil
}

func setDefaultCompatibility(ctx context.Context, version int) error {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return err
	}
	defer db.Close()
	_, err = db.ExecContext(ctx, fmt.Sprintf("PRAGMA cipher_default_compatibility = %d", version))
	return err
}

// verifyKey reads the schema, which fails unless the key decrypts the first page.
func verifyKey(ctx context.Context, conn *sql.Conn) error {
	var n int64
	if err := conn.QueryRowContext(ctx, "SELECT count(*) FROM sqlite_master").Scan(&n); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return errdefs.Wrap(errdefs.ErrDecryption, "unlock", "", err)
	}
	return nil
}

func (b sqlcipherBackend) query(ctx context.Context, path string, key *Key, query string, args []interface{}) (*Result, error) {
	db, conn, err := b.open(ctx, path, key)
	if err != nil {
		return nil, err
	}
	defer db.Close()
	defer conn.Close()

	rows, err := conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	result := &Result{Columns: columns}
	for rows.Next() {
		cells := make([]interface{}, len(columns))
		dest := make([]interface{}, len(columns))
		for i := range cells {
			dest[i] = &cells[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		row := make(Row, len(columns))
		for i, cell := range cells {
			row[i] = cellValue(cell)
		}
		result.Rows = append(result.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// cellValue maps driver values onto the cell types of the plain backend.
func cellValue(v interface{}) interface{} {
	switch v := v.(type) {
	case []byte:
		b := make([]byte, len(v))
		copy(b, v)
		return b
	case time.Time:
		return v.Format(timestampFormat)
	case bool:
		if v {
			return int64(1)
		}
		return int64(0)
	default:
		return v
	}
}

func (b sqlcipherBackend) export(ctx context.Context, path string, key Key, dest string) error {
	db, conn, err := b.open(ctx, path, &key)
	if err != nil {
		return err
	}
	defer db.Close()
	defer conn.Close()

	stmts := []string{
		"ATTACH DATABASE " + quote(dest) + " AS plaintext KEY ''",
		"SELECT sqlcipher_export('plaintext')",
		"DETACH DATABASE plaintext",
	}
	for _, stmt := range stmts {
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
