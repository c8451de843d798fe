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

// Package mobileforensics implements the mobileforensics command line tool
// with various subcommands that can be used to inspect mobile device
// extractions.
//     detect        Detect acquisition tool and operating system
//     ls            List files in the extraction
//     extract       Extract files from the extraction
//     plist         Decode a property list
//     xml           Decode an XML document
//     query         Run a SQL statement against a database
//     decrypt       Write a decrypted copy of a SQLCipher database
//     blobs         Save the blobs of the first result column
//     keychain      Inventory the iOS keychain
//     locksettings  Summarize the Android lock screen settings
//     keystore      Classify the Android keystore files
//
// Usage
//
// Detect the layout
//     mobileforensics detect extraction.zip
// Read files and databases by their path on the device
//     mobileforensics plist extraction.zip private/var/mobile/Library/Preferences/com.apple.springboard.plist
//     mobileforensics query extraction.zip private/var/mobile/Library/SMS/sms.db 'SELECT * FROM message'
//     mobileforensics query --keys keys.yml extraction.zip data/data/com.example.app/databases/secure.db 'SELECT * FROM t'
// Inventory credential stores
//     mobileforensics keychain extraction.zip
//     mobileforensics locksettings extraction.zip
package main

import (
	"os"

	"github.com/fatih/color"

	"github.com/forensicanalysis/mobileforensics/cmd"
)

func main() {
	if err := cmd.Root().Execute(); err != nil {
		color.Red("Error: %v\n", err)
		os.Exit(1)
	}
}
