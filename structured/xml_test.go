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

package structured

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forensicanalysis/mobileforensics/errdefs"
)

const packagesXML = `<?xml version='1.0' encoding='utf-8' standalone='yes' ?>
<packages>
    <version sdkVersion="30" databaseVersion="3" />
    <package name="com.whatsapp" codePath="/data/app/com.whatsapp-1" userId="10123">
        <perms>
            <item name="android.permission.CAMERA" granted="true" />
        </perms>
    </package>
    <package name="com.android.chrome" userId="10045" />
</packages>`

func TestParseXML(t *testing.T) {
	doc, err := ParseXML([]byte(packagesXML))
	require.NoError(t, err)
	assert.Equal(t, "packages", doc.Root.Tag)
	require.Len(t, doc.Root.Children, 3)

	version := doc.Root.Child("version")
	require.NotNil(t, version)
	sdk, ok := version.Attr("sdkVersion")
	assert.True(t, ok)
	assert.Equal(t, "30", sdk)

	packages, err := doc.Find("//package")
	require.NoError(t, err)
	require.Len(t, packages, 2)
	name, _ := packages[1].Attr("name")
	assert.Equal(t, "com.android.chrome", name)

	found, err := doc.Find("./packages/package[@name='com.whatsapp']/perms/item")
	require.NoError(t, err)
	require.Len(t, found, 1)
	granted, _ := found[0].Attr("granted")
	assert.Equal(t, "true", granted)

	count := 0
	doc.Root.Walk(func(*Node) bool { count++; return true })
	assert.Equal(t, 6, count)
}

func TestParseXML_Namespace(t *testing.T) {
	doc, err := ParseXML([]byte(`<manifest xmlns:android="http://schemas.android.com/apk/res/android" android:versionCode="7"><uses-permission android:name="x"/> text </manifest>`))
	require.NoError(t, err)
	code, ok := doc.Root.Attr("android:versionCode")
	assert.True(t, ok)
	assert.Equal(t, "7", code)
	_, ok = doc.Root.Attr("other:versionCode")
	assert.False(t, ok)
	assert.Equal(t, "android:name", doc.Root.Children[0].Attrs[0].Space+":"+doc.Root.Children[0].Attrs[0].Key)
}

func TestParseXML_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"empty", ""},
		{"unclosed", "<a><b></a>"},
		{"no root", "<?xml version='1.0'?>"},
		{"abx", "ABX\x00\x01\x02"},
		{"garbage", "<<<>>>"},
		{"two roots", "<a/><b/>"},
		{"text after root", "<a/>trailing"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseXML([]byte(tt.data))
			assert.True(t, errors.Is(err, errdefs.ErrParse), err)
		})
	}
}

func TestDocument_FindInvalidPath(t *testing.T) {
	doc, err := ParseXML([]byte("<a/>"))
	require.NoError(t, err)
	_, err = doc.Find("[")
	assert.Error(t, err)
}
