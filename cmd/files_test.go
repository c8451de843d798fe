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
	"strings"
	"testing"
)

func TestNormalizeFilePath(t *testing.T) {
	longFileName := strings.Repeat("long_file_name_", 6)

	pathTests := []struct {
		name              string
		srcPath           string
		normalizedSrcPath string
	}{
		{"Android path", `Dump/data/data/com.whatsapp/databases/msgstore.db`, `Dump_data_data_com.whatsapp_databases_msgstore.db`},
		{"iOS path", `/filesystem1/private/var/mobile/Library/SMS/sms.db`, `filesystem1_private_var_mobile_Library_SMS_sms.db`},
		{
			"Long path",
			`filesystem1/private/var/mobile/Containers/Shared/AppGroup/group.net.whatsapp.WhatsApp.shared/ChatStorage.sqlite`,
			`file_priv_var_mobi_Cont_Shar_AppG_grou_ChatStorage.sqlite`,
		},
		{"Long name", `a/` + longFileName + `.db`, `a_long.db`},
	}

	for _, pt := range pathTests {
		t.Run(pt.name, func(t *testing.T) {
			got := normalizeFilePath(pt.srcPath)

			if got != pt.normalizedSrcPath {
				t.Fatalf("need %v, got %v", pt.normalizedSrcPath, got)
			}
		})
	}
}

func Test_last(t *testing.T) {
	type args struct {
		s string
		n int
	}
	tests := []struct {
		name string
		args args
		want string
	}{
		{"long", args{"abcdef", 2}, "ef"},
		{"short", args{"abc", 4}, "abc"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := last(tt.args.s, tt.args.n); got != tt.want {
				t.Errorf("last() = %v, want %v", got, tt.want)
			}
		})
	}
}

func Test_destinationPath(t *testing.T) {
	tests := []struct {
		mode string
		want string
	}{
		{"folder", "Dump/data/system/packages.xml"},
		{"compact", "Dump_data_system_packages.xml"},
		{"basename", "packages.xml"},
	}
	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			if got := destinationPath("Dump/data/system/packages.xml", tt.mode); got != tt.want {
				t.Errorf("destinationPath() = %v, want %v", got, tt.want)
			}
		})
	}
}
