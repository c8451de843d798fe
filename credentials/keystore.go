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

package credentials

import (
	"path"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// KeystoreFileKind classifies files of the Android keystore and gatekeeper.
type KeystoreFileKind string

// Keystore file kinds.
const (
	MasterKey         KeystoreFileKind = "master_key"
	GatekeeperKey     KeystoreFileKind = "gatekeeper_key"
	LegacyLockKey     KeystoreFileKind = "legacy_lock_key"
	KeyEntry          KeystoreFileKind = "key_entry"
	Keystore2Database KeystoreFileKind = "keystore2_database"
	OtherFile         KeystoreFileKind = "other"
)

// perUserRange is the uid range reserved for each Android user.
const perUserRange = 100000

var (
	userDirPattern  = regexp.MustCompile(`^user_(\d+)$`)
	keyEntryPattern = regexp.MustCompile(`^\.?(\d+)_(chr_)?([A-Z]+(?:_[A-Z]+)*?)_(.+)$`)
	legacyLockKeys  = map[string]bool{"password.key": true, "gesture.key": true, "pattern.key": true}
)

// KeystoreFile is a classified keystore file. User and UID are -1 when
// unknown.
type KeystoreFile struct {
	Path       string           `json:"path"`
	Kind       KeystoreFileKind `json:"kind"`
	User       int64            `json:"user"`
	UID        int64            `json:"uid"`
	EntryType  string           `json:"entry_type,omitempty"`
	Alias      string           `json:"alias,omitempty"`
	Attributes bool             `json:"attributes,omitempty"`
	Size       int64            `json:"size"`
}

// KeystoreInventory lists the keystore files below a directory.
type KeystoreInventory struct {
	Dir    string                   `json:"dir"`
	Files  []KeystoreFile           `json:"files"`
	Counts map[KeystoreFileKind]int `json:"counts"`
}

// Users returns the sorted ids of users that own at least one file.
func (k *KeystoreInventory) Users() []int64 {
	seen := map[int64]bool{}
	var users []int64
	for _, f := range k.Files {
		if f.User >= 0 && !seen[f.User] {
			seen[f.User] = true
			users = append(users, f.User)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i] < users[j] })
	return users
}

// IdentifyAndroidKeystoreFiles classifies all files below keystoreDir by
// their names. File contents are never read.
func IdentifyAndroidKeystoreFiles(l Lister, keystoreDir string) (*KeystoreInventory, error) {
	entries, err := l.List(keystoreDir)
	if err != nil {
		return nil, err
	}

	inv := &KeystoreInventory{Dir: keystoreDir, Counts: map[KeystoreFileKind]int{}}
	for _, entry := range entries {
		if entry.IsDir {
			continue
		}
		f := classifyKeystoreFile(entry.Name)
		f.Size = entry.Size
		inv.Files = append(inv.Files, f)
		inv.Counts[f.Kind]++
	}
	return inv, nil
}

func classifyKeystoreFile(name string) KeystoreFile {
	f := KeystoreFile{Path: name, Kind: OtherFile, User: userFromPath(name), UID: -1}
	base := path.Base(name)

	switch {
	case base == ".masterkey":
		f.Kind = MasterKey
	case strings.HasPrefix(base, "gatekeeper.") && strings.HasSuffix(base, ".key"):
		f.Kind = GatekeeperKey
	case legacyLockKeys[base]:
		f.Kind = LegacyLockKey
	case base == "persistent.sqlite":
		f.Kind = Keystore2Database
	default:
		m := keyEntryPattern.FindStringSubmatch(base)
		if m == nil {
			break
		}
		uid, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			break
		}
		f.Kind = KeyEntry
		f.UID = uid
		f.Attributes = m[2] != ""
		f.EntryType = m[3]
		f.Alias = m[4]
		if f.User < 0 {
			f.User = uid / perUserRange
		}
	}
	return f
}

// userFromPath returns n for the closest user_<n> directory in name.
func userFromPath(name string) int64 {
	dirs := strings.Split(path.Dir(name), "/")
	for i := len(dirs) - 1; i >= 0; i-- {
		if m := userDirPattern.FindStringSubmatch(dirs[i]); m != nil {
			if n, err := strconv.ParseInt(m[1], 10, 64); err == nil {
				return n
			}
		}
	}
	return -1
}
