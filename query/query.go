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

// Package query runs SQL against SQLite and SQLCipher databases stored inside
// an extraction.
//
// Every call copies the database entry, together with its write ahead log
// and rollback journal if present, into a new private temporary directory,
// runs a single statement and removes the directory again before returning.
// This happens on success, on error and on cancellation. Calls never share
// temporary files, so an Engine can be used from many goroutines.
//
// A Statement may carry a fallback for databases whose layout differs
// between OS versions. The fallback only runs when the primary statement
// fails because a table or column does not exist.
//
// Encrypted databases require the sqlcipher build tag. Without it, encrypted
// calls fail with errdefs.ErrMissingCapability.
package query

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/forensicanalysis/mobileforensics/errdefs"
)

// Source provides the database entries, usually an *archive.Archive.
type Source interface {
	OpenEntry(name string) (io.ReadCloser, error)
}

// Row holds the cells of a result row. Cells are int64, float64, string,
// []byte or nil.
type Row []interface{}

// Dict maps column names to cells.
type Dict map[string]interface{}

// Result is the outcome of a statement.
type Result struct {
	Columns []string `json:"columns"`
	Rows    []Row    `json:"rows"`
}

// Dicts converts the rows into column name maps. For duplicate column names
// the last column wins.
func (r *Result) Dicts() []Dict {
	dicts := make([]Dict, 0, len(r.Rows))
	for _, row := range r.Rows {
		d := make(Dict, len(r.Columns))
		for i, column := range r.Columns {
			d[column] = row[i]
		}
		dicts = append(dicts, d)
	}
	return dicts
}

// Statement is a single SQL statement with positional parameters.
type Statement struct {
	SQL  string
	Args []interface{}
	// Fallback runs with the same Args if SQL fails with a schema mismatch.
	Fallback string
}

// Key unlocks a SQLCipher database.
type Key struct {
	// Passphrase is the key material. Raw keys can be given as x'hex'.
	Passphrase string
	// CipherVersion selects the SQLCipher compatibility mode 1 to 4. Zero
	// uses the library default.
	CipherVersion int
}

func (k Key) validate() error {
	if k.Passphrase == "" {
		return errors.New("empty key")
	}
	if k.CipherVersion < 0 || k.CipherVersion > 4 {
		return errors.Errorf("unsupported cipher version %d", k.CipherVersion)
	}
	return nil
}

var capability struct {
	once sync.Once
	err  error
}

// EncryptionSupported reports whether SQLCipher databases can be opened. The
// check runs once per process.
func EncryptionSupported() error {
	capability.once.Do(func() {
		if err := probeEncryption(); err != nil {
			capability.err = errdefs.New(errdefs.ErrMissingCapability, "probe", "sqlcipher", err)
		}
	})
	return capability.err
}

// Engine executes statements against databases of a Source.
type Engine struct {
	src      Source
	backend  backend
	opts     options
	sessions *sessionMap
}

// NewEngine creates an Engine for src.
func NewEngine(src Source, opts ...Option) *Engine {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Engine{src: src, backend: newBackend(), opts: o, sessions: newSessionMap()}
}

// Active lists the databases that are currently materialized.
func (e *Engine) Active() []Session {
	return e.sessions.all()
}

// Query runs stmt against the plain SQLite database dbPath.
func (e *Engine) Query(ctx context.Context, dbPath string, stmt Statement) ([]Row, error) {
	res, err := e.QueryResult(ctx, dbPath, stmt)
	if err != nil {
		return nil, err
	}
	return res.Rows, nil
}

// QueryDict runs stmt and returns the rows as column name maps.
func (e *Engine) QueryDict(ctx context.Context, dbPath string, stmt Statement) ([]Dict, error) {
	res, err := e.QueryResult(ctx, dbPath, stmt)
	if err != nil {
		return nil, err
	}
	return res.Dicts(), nil
}

// QueryResult runs stmt and returns rows and column names.
func (e *Engine) QueryResult(ctx context.Context, dbPath string, stmt Statement) (*Result, error) {
	return e.run(ctx, "query", dbPath, nil, stmt)
}

// QueryEncrypted runs stmt against the SQLCipher database dbPath.
func (e *Engine) QueryEncrypted(ctx context.Context, dbPath string, key Key, stmt Statement) ([]Row, error) {
	res, err := e.QueryEncryptedResult(ctx, dbPath, key, stmt)
	if err != nil {
		return nil, err
	}
	return res.Rows, nil
}

// QueryEncryptedDict runs stmt against an encrypted database and returns the
// rows as column name maps.
func (e *Engine) QueryEncryptedDict(ctx context.Context, dbPath string, key Key, stmt Statement) ([]Dict, error) {
	res, err := e.QueryEncryptedResult(ctx, dbPath, key, stmt)
	if err != nil {
		return nil, err
	}
	return res.Dicts(), nil
}

// QueryEncryptedResult runs stmt against an encrypted database and returns
// rows and column names.
func (e *Engine) QueryEncryptedResult(ctx context.Context, dbPath string, key Key, stmt Statement) (*Result, error) {
	if err := checkKey("query", dbPath, key); err != nil {
		return nil, err
	}
	return e.run(ctx, "query", dbPath, &key, stmt)
}

// Tables lists the tables of the plain database dbPath.
func (e *Engine) Tables(ctx context.Context, dbPath string) ([]string, error) {
	rows, err := e.Query(ctx, dbPath, Statement{SQL: "SELECT name FROM sqlite_master WHERE type = 'table' ORDER BY name"})
	if err != nil {
		return nil, err
	}
	tables := make([]string, 0, len(rows))
	for _, row := range rows {
		if name, ok := row[0].(string); ok {
			tables = append(tables, name)
		}
	}
	return tables, nil
}

func checkKey(op, dbPath string, key Key) error {
	if err := EncryptionSupported(); err != nil {
		return err
	}
	if err := key.validate(); err != nil {
		return errdefs.New(errdefs.ErrDecryption, op, dbPath, err)
	}
	return nil
}

func (e *Engine) run(ctx context.Context, op, dbPath string, key *Key, stmt Statement) (*Result, error) {
	args, err := normalize(stmt.Args)
	if err != nil {
		return nil, errdefs.New(errdefs.ErrQuery, op, dbPath, err)
	}

	session, cleanup, err := e.materialize(ctx, dbPath)
	defer cleanup()
	if err != nil {
		return nil, err
	}

	res, err := e.backend.query(ctx, session.Path, key, stmt.SQL, args)
	err = classify(ctx, op, dbPath, key != nil, err)
	if errors.Is(err, errdefs.ErrSchemaMismatch) && stmt.Fallback != "" {
		e.opts.logger.Debug("running fallback statement", "entry", dbPath, "error", err)
		res, err = e.backend.query(ctx, session.Path, key, stmt.Fallback, args)
		err = classify(ctx, op, dbPath, key != nil, err)
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

// DecryptToPlainFile writes a decrypted copy of the SQLCipher database dbPath
// to destPath and returns destPath. The destination is written completely or
// not at all.
func (e *Engine) DecryptToPlainFile(ctx context.Context, dbPath string, key Key, destPath string) (string, error) {
	if err := checkKey("decrypt", dbPath, key); err != nil {
		return "", err
	}

	session, cleanup, err := e.materialize(ctx, dbPath)
	defer cleanup()
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(destPath), 0o755); err != nil {
		return "", errdefs.Wrap(errdefs.ErrIO, "decrypt", destPath, err)
	}
	tmp := filepath.Join(filepath.Dir(destPath), "."+filepath.Base(destPath)+"."+uuid.New().String())
	defer os.Remove(tmp) // nolint:errcheck

	if err := e.backend.export(ctx, session.Path, key, tmp); err != nil {
		return "", classify(ctx, "decrypt", dbPath, true, err)
	}
	if err := os.Rename(tmp, destPath); err != nil {
		return "", errdefs.Wrap(errdefs.ErrIO, "decrypt", destPath, err)
	}

	e.opts.logger.Info("decrypted database", "entry", dbPath, "dest", destPath)
	return destPath, nil
}
