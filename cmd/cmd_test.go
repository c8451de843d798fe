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

package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forensicanalysis/mobileforensics/internal/testutil"
)

func setup(t *testing.T) string {
	t.Helper()
	color.NoColor = true

	dir := t.TempDir()
	msgstore := testutil.SQLite(t, filepath.Join(dir, "msgstore.db"),
		"CREATE TABLE messages (_id INTEGER PRIMARY KEY, key_remote_jid TEXT, data TEXT, thumb BLOB)",
		"INSERT INTO messages VALUES (1, 'alice@s.whatsapp.net', 'hi', x'FFD8FFE000104A464946')",
		"INSERT INTO messages VALUES (2, 'bob@s.whatsapp.net', NULL, NULL)",
	)
	locksettings := testutil.SQLite(t, filepath.Join(dir, "locksettings.db"),
		"CREATE TABLE locksettings (_id INTEGER PRIMARY KEY, name TEXT, user INTEGER, value TEXT)",
		"INSERT INTO locksettings (name, user, value) VALUES ('lockscreen.password_type', 0, '196608')",
	)
	return testutil.Zip(t,
		testutil.File{Name: "Dump/data/data/com.whatsapp/databases/msgstore.db", Data: msgstore},
		testutil.File{Name: "Dump/data/system/locksettings.db", Data: locksettings},
		testutil.File{Name: "Dump/data/system/packages.xml", Data: []byte(`<packages><package name="com.whatsapp" /><package name="org.telegram.messenger" /></packages>`)},
		testutil.File{Name: "Dump/data/misc/keystore/user_0/.masterkey", Data: []byte{1}},
		testutil.File{Name: "Dump/data/misc/keystore/user_0/1000_USRPKEY_wifi", Data: []byte{2}},
		testutil.File{Name: "Dump/data/misc/gatekeeper/gatekeeper.password.key", Data: []byte{3}},
		testutil.File{Name: "Dump/data/data/com.android.settings/shared_prefs/prefs.plist", Data: []byte(`<?xml version="1.0" encoding="UTF-8"?>
<plist version="1.0"><dict><key>Accounts</key><array><dict><key>Name</key><string>alice</string></dict></array></dict></plist>`)},
		testutil.File{Name: "extra/device_info.txt", Data: []byte("Model: Pixel 4")},
	)
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	out := &bytes.Buffer{}
	root := Root()
	root.SetOut(out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(append([]string{"--temp-dir", t.TempDir()}, args...))
	err := root.Execute()
	return out.String(), err
}

func Test_detectCommand(t *testing.T) {
	extraction := setup(t)

	out, err := run(t, "detect", extraction)
	require.NoError(t, err)
	assert.Equal(t, "cellebrite_android\ntool:   cellebrite\nos:     android\nprefix: \"Dump/\"\n", out)

	out, err = run(t, "detect", "--json", extraction)
	require.NoError(t, err)
	assert.Equal(t, `{"os":"android","prefix":"Dump/","tool":"cellebrite"}`+"\n", out)

	_, err = run(t, "detect", filepath.Join(t.TempDir(), "missing.zip"))
	assert.Error(t, err)
}

func Test_lsCommand(t *testing.T) {
	extraction := setup(t)

	out, err := run(t, "ls", extraction, "data/system")
	require.NoError(t, err)
	assert.Equal(t, "Dump/data/system/locksettings.db\nDump/data/system/packages.xml\n", out)
}

func Test_extractCommand(t *testing.T) {
	extraction := setup(t)

	tests := []struct {
		mode string
		want string
	}{
		{"folder", filepath.Join("Dump", "data", "system", "packages.xml")},
		{"compact", "Dump_data_system_packages.xml"},
		{"basename", "packages.xml"},
	}
	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			dest := t.TempDir()
			out, err := run(t, "extract", "--mode", tt.mode, extraction, dest, "data/system/packages.xml")
			require.NoError(t, err)
			assert.Contains(t, out, "Dump/data/system/packages.xml")

			b, err := os.ReadFile(filepath.Join(dest, tt.want))
			require.NoError(t, err)
			assert.True(t, strings.HasPrefix(string(b), "<packages>"))
		})
	}
}

func Test_plistCommand(t *testing.T) {
	extraction := setup(t)
	prefs := "data/data/com.android.settings/shared_prefs/prefs.plist"

	out, err := run(t, "plist", extraction, prefs)
	require.NoError(t, err)
	assert.Equal(t, `{"Accounts":[{"Name":"alice"}]}`+"\n", out)

	out, err = run(t, "plist", "--path", "Accounts.0.Name", extraction, prefs)
	require.NoError(t, err)
	assert.Equal(t, `"alice"`+"\n", out)

	out, err = run(t, "plist", "--flat", extraction, prefs)
	require.NoError(t, err)
	assert.Equal(t, `{"Accounts.0.Name":"alice"}`+"\n", out)

	_, err = run(t, "plist", "--path", "Missing", extraction, prefs)
	assert.Error(t, err)
}

func Test_xmlCommand(t *testing.T) {
	extraction := setup(t)

	out, err := run(t, "xml", "--find", "//package", extraction, "data/system/packages.xml")
	require.NoError(t, err)

	var nodes []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &nodes))
	require.Len(t, nodes, 2)
	assert.Equal(t, "package", nodes[0]["tag"])
}

func Test_queryCommand(t *testing.T) {
	extraction := setup(t)
	db := "data/data/com.whatsapp/databases/msgstore.db"

	out, err := run(t, "query", extraction, db, "SELECT _id, data FROM messages ORDER BY _id")
	require.NoError(t, err)
	assert.Equal(t, `{"columns":["_id","data"],"rows":[[1,"hi"],[2,null]]}`+"\n", out)

	out, err = run(t, "query", "--fallback", "SELECT _id FROM messages ORDER BY _id", extraction, db, "SELECT _id FROM message ORDER BY _id")
	require.NoError(t, err)
	assert.Equal(t, `{"columns":["_id"],"rows":[[1],[2]]}`+"\n", out)

	out, err = run(t, "query", "--tables", extraction, db)
	require.NoError(t, err)
	assert.Equal(t, `["messages"]`+"\n", out)

	_, err = run(t, "query", extraction, db, "SELECT * FROM message")
	assert.Error(t, err)
}

func Test_blobsCommand(t *testing.T) {
	extraction := setup(t)
	dest := t.TempDir()

	out, err := run(t, "blobs", extraction, "data/data/com.whatsapp/databases/msgstore.db", "SELECT thumb FROM messages", dest)
	require.NoError(t, err)

	var saved []map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(out), &saved))
	require.Len(t, saved, 1)
	assert.Equal(t, "jpeg", saved[0]["type"])
	assert.Equal(t, filepath.Join(dest, "Dump_data_data_com.whatsapp_databases_msgstore_0.jpg"), saved[0]["path"])
	_, err = os.Stat(saved[0]["path"].(string))
	assert.NoError(t, err)
}

func Test_credentialCommands(t *testing.T) {
	extraction := setup(t)

	out, err := run(t, "locksettings", extraction)
	require.NoError(t, err)
	assert.Contains(t, out, `"password_type":"pin"`)

	out, err = run(t, "keystore", extraction)
	require.NoError(t, err)
	assert.Contains(t, out, `"master_key":1`)
	assert.Contains(t, out, `"alias":"wifi"`)

	_, err = run(t, "keychain", extraction)
	assert.Error(t, err)
}

func TestKeysFile_Lookup(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys.yml")
	require.NoError(t, os.WriteFile(path, []byte(`keys:
  - path: /data/data/com.example.app/databases/secure.db
    passphrase: secret
    cipher_version: 3
`), 0o600))

	keys, err := loadKeys(path)
	require.NoError(t, err)

	key, ok := keys.Lookup("data/data/com.example.app/databases/secure.db")
	assert.True(t, ok)
	assert.Equal(t, "secret", key.Passphrase)
	assert.Equal(t, 3, key.CipherVersion)

	_, ok = keys.Lookup("data/data/com.example.app/databases/other.db")
	assert.False(t, ok)

	require.NoError(t, os.WriteFile(path, []byte("keys:\n  - passphrase: secret\n"), 0o600))
	_, err = loadKeys(path)
	assert.Error(t, err)
}
