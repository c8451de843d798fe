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

package mobileforensics

import (
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/forensicanalysis/mobileforensics/credentials"
	"github.com/forensicanalysis/mobileforensics/detect"
	"github.com/forensicanalysis/mobileforensics/query"
)

type artifact struct {
	AppName     string
	InstallDate time.Time
	Tags        []string
	Note        *string
	Flags       map[string]bool `json:"flags"`
	hidden      string
}

func TestRecord(t *testing.T) {
	installed := time.Date(2021, 3, 4, 5, 6, 7, 0, time.UTC)
	tests := []struct {
		name string
		in   interface{}
		want interface{}
	}{
		{"Nil", nil, nil},
		{"Scalar", int64(3), int64(3)},
		{"Struct", artifact{AppName: "WhatsApp", InstallDate: installed, hidden: "x"},
			map[string]interface{}{"app_name": "WhatsApp", "install_date": installed}},
		{"Pointer", &artifact{AppName: "Signal", Tags: []string{"messenger"}, Flags: map[string]bool{"system": false}},
			map[string]interface{}{"app_name": "Signal", "install_date": time.Time{}, "tags": []interface{}{"messenger"}, "flags": map[string]interface{}{"system": false}}},
		{"Dict keeps keys", []query.Dict{{"ZNAME": "a", "ZDATA": nil}},
			[]interface{}{map[string]interface{}{"ZNAME": "a"}}},
		{"Format", detect.Format{Tool: detect.GrayKey, OS: detect.IOS},
			map[string]interface{}{"tool": detect.GrayKey, "os": detect.IOS}},
		{"Embedded", credentials.KeychainTableSummary{KeychainTable: credentials.KeychainTable{Name: "genp", Class: "generic_password"}, Count: 2},
			map[string]interface{}{"name": "genp", "class": "generic_password", "present": false, "count": 2, "synchronizable": 0}},
		{"Int keys", map[int64]string{10: "pin"}, map[string]interface{}{"10": "pin"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Record(tt.in); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Record() = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func Test_isEmptyValue(t *testing.T) {
	var emptyPointer *int
	tests := []struct {
		name string
		v    reflect.Value
		want bool
	}{
		{"List", reflect.ValueOf([]string{}), true},
		{"Pointer", reflect.ValueOf(emptyPointer), true},
		{"String", reflect.ValueOf("a"), false},
		{"Zero int", reflect.ValueOf(0), false},
		{"Invalid", reflect.ValueOf(nil), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, isEmptyValue(tt.v))
		})
	}
}
