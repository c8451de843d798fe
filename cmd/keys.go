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
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/forensicanalysis/mobileforensics/query"
)

// KeyConfig assigns a SQLCipher key to a database.
type KeyConfig struct {
	Path          string `yaml:"path"`
	Passphrase    string `yaml:"passphrase"`
	CipherVersion int    `yaml:"cipher_version"`
}

// KeysFile is the content of a keys file:
//     keys:
//       - path: data/data/com.example.app/databases/secure.db
//         passphrase: x'2DD29CA851E7B56E4697B0E1F08507293D761A05CE4D1B628663F411A8086D99'
//         cipher_version: 3
type KeysFile struct {
	Keys []KeyConfig `yaml:"keys"`
}

func loadKeys(path string) (*KeysFile, error) {
	b, err := os.ReadFile(path) // #nosec
	if err != nil {
		return nil, errors.Wrap(err, "could not read keys file")
	}
	keys := &KeysFile{}
	if err := yaml.Unmarshal(b, keys); err != nil {
		return nil, errors.Wrapf(err, "could not parse keys file %s", path)
	}
	for _, k := range keys.Keys {
		if k.Path == "" {
			return nil, errors.Errorf("key without path in %s", path)
		}
	}
	return keys, nil
}

// Lookup returns the key for the logical database path.
func (k *KeysFile) Lookup(logical string) (query.Key, bool) {
	logical = strings.TrimLeft(logical, "/")
	for _, c := range k.Keys {
		if strings.TrimLeft(c.Path, "/") == logical {
			return query.Key{Passphrase: c.Passphrase, CipherVersion: c.CipherVersion}, true
		}
	}
	return query.Key{}, false
}

func addKeyFlags(cmd *cobra.Command) {
	cmd.Flags().String("key", "", "SQLCipher passphrase, raw keys as x'hex'")
	cmd.Flags().Int("cipher-version", 0, "SQLCipher compatibility version 1 to 4")
	cmd.Flags().String("keys", "", "YAML file with keys per database")
}

// keyFromFlags returns the key for the logical database path from the
// command line flags or the keys file.
func keyFromFlags(cmd *cobra.Command, logical string) (query.Key, bool, error) {
	passphrase, _ := cmd.Flags().GetString("key")
	cipherVersion, _ := cmd.Flags().GetInt("cipher-version")
	if passphrase != "" {
		return query.Key{Passphrase: passphrase, CipherVersion: cipherVersion}, true, nil
	}

	keysPath, _ := cmd.Flags().GetString("keys")
	if keysPath == "" {
		return query.Key{}, false, nil
	}
	keys, err := loadKeys(keysPath)
	if err != nil {
		return query.Key{}, false, err
	}
	key, ok := keys.Lookup(logical)
	if ok && cipherVersion != 0 {
		key.CipherVersion = cipherVersion
	}
	return key, ok, nil
}
