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
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/forensicanalysis/mobileforensics/errdefs"
	"github.com/forensicanalysis/mobileforensics/query"
)

// appleEpoch is the start of Apple absolute time, 2001-01-01 UTC.
const appleEpoch = 978307200

// KeychainTable describes one of the keychain item tables.
type KeychainTable struct {
	Name  string `json:"name"`
	Class string `json:"class"`
}

// KeychainTables are the item tables of keychain-2.db.
var KeychainTables = []KeychainTable{
	{"genp", "generic_password"},
	{"inet", "internet_password"},
	{"cert", "certificate"},
	{"keys", "key"},
}

// payloadColumns hold device encrypted secrets and are always opaque. All
// other columns are metadata like acct, svce, agrp or pdmn and are shown as
// text when printable.
var payloadColumns = map[string]bool{
	"data": true, "v_data": true, "v_pk": true, "priv": true,
}

var protectionClasses = map[string]string{
	"ak":   "WhenUnlocked",
	"ck":   "AfterFirstUnlock",
	"dk":   "Always",
	"aku":  "WhenUnlockedThisDeviceOnly",
	"cku":  "AfterFirstUnlockThisDeviceOnly",
	"dku":  "AlwaysThisDeviceOnly",
	"akpu": "WhenPasscodeSetThisDeviceOnly",
}

// ProtectionClass returns the data protection class name for a pdmn code.
func ProtectionClass(code string) string {
	if name, ok := protectionClasses[code]; ok {
		return name
	}
	return "Unknown"
}

// KeychainItem is a row of a keychain table.
type KeychainItem struct {
	Table          string           `json:"table"`
	Class          string           `json:"class"`
	RowID          int64            `json:"rowid"`
	Synchronizable bool             `json:"synchronizable"`
	Protection     string           `json:"protection,omitempty"`
	Created        time.Time        `json:"created,omitempty"`
	Modified       time.Time        `json:"modified,omitempty"`
	Fields         map[string]Field `json:"fields"`
}

// Field returns the column called name.
func (i KeychainItem) Field(name string) Field {
	return i.Fields[name]
}

// KeychainTableSummary holds the counts of a keychain table.
type KeychainTableSummary struct {
	KeychainTable
	Present        bool `json:"present"`
	Count          int  `json:"count"`
	Synchronizable int  `json:"synchronizable"`
}

// KeychainInventory is the content overview of an iOS keychain database.
type KeychainInventory struct {
	Path           string                 `json:"path"`
	Tables         []KeychainTableSummary `json:"tables"`
	Items          []KeychainItem         `json:"items"`
	Total          int                    `json:"total"`
	Synchronizable int                    `json:"synchronizable"`
}

// Table returns the summary of the named table.
func (k *KeychainInventory) Table(name string) (KeychainTableSummary, bool) {
	for _, t := range k.Tables {
		if t.Name == name {
			return t, true
		}
	}
	return KeychainTableSummary{}, false
}

// ParseIOSKeychain inventories the keychain database dbPath. Tables that do
// not exist are reported with Present set to false.
func ParseIOSKeychain(ctx context.Context, q Querier, dbPath string) (*KeychainInventory, error) {
	inv := &KeychainInventory{Path: dbPath}
	for _, table := range KeychainTables {
		summary := KeychainTableSummary{KeychainTable: table}
		res, err := q.QueryResult(ctx, dbPath, query.Statement{SQL: "SELECT rowid AS rowid, * FROM " + table.Name})
		switch {
		case errors.Is(err, errdefs.ErrSchemaMismatch):
			inv.Tables = append(inv.Tables, summary)
			continue
		case err != nil:
			return nil, err
		}

		summary.Present = true
		for _, row := range res.Rows {
			item := keychainItem(table, res.Columns, row)
			summary.Count++
			if item.Synchronizable {
				summary.Synchronizable++
			}
			inv.Items = append(inv.Items, item)
		}
		inv.Total += summary.Count
		inv.Synchronizable += summary.Synchronizable
		inv.Tables = append(inv.Tables, summary)
	}
	return inv, nil
}

func keychainItem(table KeychainTable, columns []string, row query.Row) KeychainItem {
	item := KeychainItem{Table: table.Name, Class: table.Class, Fields: map[string]Field{}}
	for i, column := range columns {
		name := strings.ToLower(column)
		if _, seen := item.Fields[name]; seen {
			continue
		}
		cell := row[i]

		if payloadColumns[name] {
			item.Fields[name] = payloadField(cell)
		} else {
			item.Fields[name] = textField(cell)
		}

		switch name {
		case "rowid":
			item.RowID, _ = cell.(int64)
		case "sync":
			n, _ := cellInt(cell)
			item.Synchronizable = n != 0
		case "pdmn":
			if f := item.Fields[name]; !f.Opaque && !f.Null {
				item.Protection = ProtectionClass(f.Text)
			}
		case "cdat":
			item.Created = appleTime(cell)
		case "mdat":
			item.Modified = appleTime(cell)
		}
	}
	return item
}

func payloadField(v interface{}) Field {
	switch v := v.(type) {
	case nil:
		return Field{Null: true}
	case []byte:
		return opaque(len(v))
	case string:
		return opaque(len(v))
	default:
		return opaque(0)
	}
}

func cellInt(v interface{}) (int64, bool) {
	switch v := v.(type) {
	case int64:
		return v, true
	case float64:
		return int64(v), true
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		return n, err == nil
	case []byte:
		n, err := strconv.ParseInt(strings.TrimSpace(string(v)), 10, 64)
		return n, err == nil
	}
	return 0, false
}

// appleTime converts seconds since 2001-01-01 into a time.
func appleTime(v interface{}) time.Time {
	var secs float64
	switch v := v.(type) {
	case float64:
		secs = v
	case int64:
		secs = float64(v)
	default:
		return time.Time{}
	}
	whole := int64(secs)
	frac := secs - float64(whole)
	return time.Unix(appleEpoch+whole, int64(frac*1e9)).UTC()
}

func formatCell(v interface{}) string {
	switch v := v.(type) {
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}
