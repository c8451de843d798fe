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

//go:build !sqlcipher

package query

import (
	"context"
	"strings"

	"crawshaw.io/sqlite"
	"github.com/pkg/errors"

	"github.com/forensicanalysis/mobileforensics/errdefs"
)

// Without the sqlcipher build tag, plain databases are read with
// crawshaw.io/sqlite and encryption is unavailable.

func newBackend() backend {
	return sqliteBackend{}
}

func probeEncryption() error {
	return errors.New("built without sqlcipher support, rebuild with -tags sqlcipher")
}

type sqliteBackend struct{}

func (sqliteBackend) query(ctx context.Context, path string, key *Key, query string, args []interface{}) (*Result, error) {
	if key != nil {
		return nil, errdefs.New(errdefs.ErrMissingCapability, "query", path, probeEncryption())
	}

	conn, err := sqlite.OpenConn(path, sqlite.SQLITE_OPEN_READWRITE|sqlite.SQLITE_OPEN_NOMUTEX)
	if err != nil {
		return nil, err
	}
	defer conn.Close()
	conn.SetInterrupt(ctx.Done())

	stmt, trailing, err := conn.PrepareTransient(query)
	if err != nil {
		return nil, err
	}
	defer stmt.Finalize() // nolint:errcheck

	if trailing > 0 && strings.Trim(query[len(query)-trailing:], "; \t\r\n") != "" {
		return nil, errors.New("only a single statement can be executed")
	}
	if err := bind(stmt, args); err != nil {
		return nil, err
	}

	result := &Result{Columns: make([]string, stmt.ColumnCount())}
	for i := range result.Columns {
		result.Columns[i] = stmt.ColumnName(i)
	}

	for {
		if hasRow, err := stmt.Step(); err != nil {
			return nil, err
		} else if !hasRow {
			break
		}
		row := make(Row, len(result.Columns))
		for i := range row {
			row[i] = column(stmt, i)
		}
		result.Rows = append(result.Rows, row)
	}
	return result, nil
}

func bind(stmt *sqlite.Stmt, args []interface{}) error {
	if count := stmt.BindParamCount(); count != len(args) {
		return errors.Errorf("statement expects %d parameters, got %d", count, len(args))
	}
	for i, arg := range args {
		param := i + 1
		switch v := arg.(type) {
		case nil:
			stmt.BindNull(param)
		case int64:
			stmt.BindInt64(param, v)
		case float64:
			stmt.BindFloat(param, v)
		case string:
			stmt.BindText(param, v)
		case []byte:
			stmt.BindBytes(param, v)
		case bool:
			stmt.BindBool(param, v)
		}
	}
	return nil
}

func column(stmt *sqlite.Stmt, i int) interface{} {
	switch stmt.ColumnType(i) {
	case sqlite.SQLITE_INTEGER:
		return stmt.ColumnInt64(i)
	case sqlite.SQLITE_FLOAT:
		return stmt.ColumnFloat(i)
	case sqlite.SQLITE_TEXT:
		return stmt.ColumnText(i)
	case sqlite.SQLITE_BLOB:
		b := make([]byte, stmt.ColumnLen(i))
		stmt.ColumnBytes(i, b)
		return b
	default:
		return nil
	}
}

func (sqliteBackend) export(_ context.Context, path string, _ Key, _ string) error {
	return errdefs.New(errdefs.ErrMissingCapability, "decrypt", path, probeEncryption())
}
