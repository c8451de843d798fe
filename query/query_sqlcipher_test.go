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
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forensicanalysis/mobileforensics/errdefs"
	"github.com/forensicanalysis/mobileforensics/internal/testutil"
)

func newEncryptedEngine(t *testing.T) (*Engine, string) {
	t.Helper()
	db := testutil.SQLCipher(t, filepath.Join(t.TempDir(), "msgstore.db"), "correct-key",
		"CREATE TABLE messages (id INTEGER PRIMARY KEY, body TEXT)",
		"INSERT INTO messages (body) VALUES ('hello')",
		"INSERT INTO messages (body) VALUES ('world')",
	)
	tempDir := t.TempDir()
	a := openArchive(t, testutil.File{Name: "data/msgstore.db", Data: db})
	return NewEngine(a, WithTempDir(tempDir)), tempDir
}

func TestEngine_QueryEncrypted(t *testing.T) {
	e, tempDir := newEncryptedEngine(t)
	ctx := context.Background()
	stmt := Statement{SQL: "SELECT body FROM messages ORDER BY id"}

	require.NoError(t, EncryptionSupported())

	tests := []struct {
		name    string
		key     Key
		want    []Row
		wantErr error
	}{
		{"correct key", Key{Passphrase: "correct-key"}, []Row{{"hello"}, {"world"}}, nil},
		{"correct key v4", Key{Passphrase: "correct-key", CipherVersion: 4}, []Row{{"hello"}, {"world"}}, nil},
		{"wrong key", Key{Passphrase: "wrong-key"}, nil, errdefs.ErrDecryption},
		{"wrong cipher version", Key{Passphrase: "correct-key", CipherVersion: 3}, nil, errdefs.ErrDecryption},
		{"unsupported cipher version", Key{Passphrase: "correct-key", CipherVersion: 9}, nil, errdefs.ErrDecryption},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.QueryEncrypted(ctx, "data/msgstore.db", tt.key, stmt)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
			assertEmptyDir(t, tempDir)
		})
	}
}

func TestEngine_QueryEncrypted_KeyDecides(t *testing.T) {
	e, tempDir := newEncryptedEngine(t)
	ctx := context.Background()
	stmt := Statement{SQL: "SELECT count(*) FROM messages"}

	rows, err := e.QueryEncrypted(ctx, "data/msgstore.db", Key{Passphrase: "correct-key"}, stmt)
	require.NoError(t, err)
	assert.Equal(t, []Row{{int64(2)}}, rows)

	_, err = e.QueryEncrypted(ctx, "data/msgstore.db", Key{Passphrase: "wrong-key"}, stmt)
	assert.True(t, errors.Is(err, errdefs.ErrDecryption), "got %v", err)

	rows, err = e.QueryEncrypted(ctx, "data/msgstore.db", Key{Passphrase: "correct-key"}, stmt)
	require.NoError(t, err)
	assert.Equal(t, []Row{{int64(2)}}, rows)
	assertEmptyDir(t, tempDir)
}

func TestEngine_QueryEncrypted_CipherVersion(t *testing.T) {
	db := testutil.SQLCipherVersion(t, filepath.Join(t.TempDir(), "legacy.db"), "correct-key", 3,
		"CREATE TABLE messages (id INTEGER PRIMARY KEY, body TEXT)",
		"INSERT INTO messages (body) VALUES ('legacy')",
	)
	tempDir := t.TempDir()
	e := NewEngine(openArchive(t, testutil.File{Name: "data/legacy.db", Data: db}), WithTempDir(tempDir))
	ctx := context.Background()
	stmt := Statement{SQL: "SELECT body FROM messages"}

	tests := []struct {
		name    string
		key     Key
		want    []Row
		wantErr error
	}{
		{"version 3", Key{Passphrase: "correct-key", CipherVersion: 3}, []Row{{"legacy"}}, nil},
		{"default version", Key{Passphrase: "correct-key"}, nil, errdefs.ErrDecryption},
		{"version 3 again", Key{Passphrase: "correct-key", CipherVersion: 3}, []Row{{"legacy"}}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := e.QueryEncrypted(ctx, "data/legacy.db", tt.key, stmt)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
			assertEmptyDir(t, tempDir)
		})
	}
}

func TestEngine_QueryEncryptedDict(t *testing.T) {
	e, _ := newEncryptedEngine(t)
	got, err := e.QueryEncryptedDict(context.Background(), "data/msgstore.db", Key{Passphrase: "correct-key"}, Statement{
		SQL:      "SELECT id, text FROM messages WHERE id = ?",
		Args:     []interface{}{1},
		Fallback: "SELECT id, body FROM messages WHERE id = ?",
	})
	require.NoError(t, err)
	assert.Equal(t, []Dict{{"id": int64(1), "body": "hello"}}, got)
}

func TestEngine_DecryptToPlainFile(t *testing.T) {
	e, tempDir := newEncryptedEngine(t)
	ctx := context.Background()
	outDir := t.TempDir()
	dest := filepath.Join(outDir, "msgstore.plain.db")

	_, err := e.DecryptToPlainFile(ctx, "data/msgstore.db", Key{Passphrase: "wrong-key"}, dest)
	assert.True(t, errors.Is(err, errdefs.ErrDecryption), err)
	assertEmptyDir(t, tempDir)
	assertEmptyDir(t, outDir)

	got, err := e.DecryptToPlainFile(ctx, "data/msgstore.db", Key{Passphrase: "correct-key"}, dest)
	require.NoError(t, err)
	assert.Equal(t, dest, got)
	assertEmptyDir(t, tempDir)

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	pe := NewEngine(openArchive(t, testutil.File{Name: "plain.db", Data: data}), WithTempDir(tempDir))
	rows, err := pe.Query(ctx, "plain.db", Statement{SQL: "SELECT count(*) FROM messages"})
	require.NoError(t, err)
	assert.Equal(t, []Row{{int64(2)}}, rows)
}

func TestEngine_PlainWithSQLCipher(t *testing.T) {
	e, tempDir := newTestEngine(t)
	rows, err := e.Query(context.Background(), "data/apps.db", Statement{SQL: "SELECT count(*) FROM apps"})
	require.NoError(t, err)
	assert.Equal(t, []Row{{int64(3)}}, rows)
	assertEmptyDir(t, tempDir)
}
