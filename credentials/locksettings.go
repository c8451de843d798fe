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
	"context"
	"sort"
	"strconv"
	"strings"

	"github.com/forensicanalysis/mobileforensics/query"
)

// PasswordType is the kind of lock screen credential.
type PasswordType string

// Password types.
const (
	PasswordNone     PasswordType = "none"
	PasswordPattern  PasswordType = "pattern"
	PasswordPIN      PasswordType = "pin"
	PasswordPassword PasswordType = "password"
	PasswordUnknown  PasswordType = "unknown"
)

const passwordTypeSetting = "lockscreen.password_type"

var passwordTypes = map[int64]PasswordType{
	0:      PasswordNone,
	131072: PasswordPattern,
	196608: PasswordPIN,
	262144: PasswordPassword,
	327680: PasswordPassword,
	393216: PasswordPassword,
}

// PasswordTypeFromCode maps a lockscreen.password_type value.
func PasswordTypeFromCode(code int64) PasswordType {
	if t, ok := passwordTypes[code]; ok {
		return t
	}
	return PasswordUnknown
}

// UserLockSettings are the lock settings of one Android user.
type UserLockSettings struct {
	User         int64             `json:"user"`
	PasswordType PasswordType      `json:"password_type"`
	PasswordCode *int64            `json:"password_code,omitempty"`
	Settings     map[string]string `json:"settings"`
}

// LockSettingsSummary is the content overview of locksettings.db.
type LockSettingsSummary struct {
	Path  string                      `json:"path"`
	Users map[int64]*UserLockSettings `json:"users"`
}

// UserIDs returns the sorted user ids.
func (s *LockSettingsSummary) UserIDs() []int64 {
	ids := make([]int64, 0, len(s.Users))
	for id := range s.Users {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// ParseAndroidLocksettings reads the settings of all users from the Android
// locksettings database dbPath.
func ParseAndroidLocksettings(ctx context.Context, q Querier, dbPath string) (*LockSettingsSummary, error) {
	res, err := q.QueryResult(ctx, dbPath, query.Statement{SQL: "SELECT name, user, value FROM locksettings"})
	if err != nil {
		return nil, err
	}

	summary := &LockSettingsSummary{Path: dbPath, Users: map[int64]*UserLockSettings{}}
	for _, row := range res.Rows {
		name := textField(row[0]).Text
		user, _ := cellInt(row[1])
		value := textField(row[2])

		u, ok := summary.Users[user]
		if !ok {
			u = &UserLockSettings{User: user, PasswordType: PasswordNone, Settings: map[string]string{}}
			summary.Users[user] = u
		}
		u.Settings[name] = value.Text

		if name == passwordTypeSetting {
			code, err := strconv.ParseInt(strings.TrimSpace(value.Text), 10, 64)
			if err != nil {
				u.PasswordType = PasswordUnknown
				continue
			}
			u.PasswordCode = &code
			u.PasswordType = PasswordTypeFromCode(code)
		}
	}
	return summary, nil
}
