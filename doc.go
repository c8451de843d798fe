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

// Package mobileforensics reads and interprets zip based mobile device
// extractions as produced by Cellebrite and GrayKey for iOS and Android.
//
// The Extraction handle
//
// An Extraction owns exactly one open archive. The acquisition layout is
// detected once per handle and every logical path passed to the handle is
// prefixed with the detected path prefix before it is resolved:
//     ex, err := mobileforensics.Open("extraction.zip", nil)
//     ...
//     defer ex.Close()
//     fmt.Println(ex.Format().Name()) // e.g. cellebrite_ios
//     prefs, err := ex.ReadPlist("private/var/mobile/Library/Preferences/com.apple.springboard.plist")
//
// Supported layouts
//
// The root folders of the first entries decide the layout:
//     cellebrite_android  Dump/ or extra/ (prefix Dump/), legacy fs/ (prefix fs/)
//     cellebrite_ios      filesystem1/ or filesystem/ (prefix is that folder)
//     graykey_android     three or more of apex/ bootstrap-apex/ cache/ data/ data-mirror/ efs/ system/
//     graykey_ios         two or more of private/ System/ Library/ Applications/ var/
//
// Databases
//
// SQLite databases are copied into a private temporary directory for every
// query and removed again before the call returns. Encrypted SQLCipher
// databases require a build with the sqlcipher tag:
//     go build -tags sqlcipher ./...
// The encrypted database tests only run in that build:
//     go test -tags sqlcipher ./...
//
// Credential stores
//
// Keychain, locksettings and keystore artifacts are inventoried without any
// attempt to decrypt protected material. Encrypted payloads are reported as
// opaque fields.
package mobileforensics
