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
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/forensicanalysis/mobileforensics/blob"
	"github.com/forensicanalysis/mobileforensics/query"
)

// Query is the mobileforensics query commandline subcommand
func Query() *cobra.Command {
	var fallback string
	var tables bool
	queryCmd := &cobra.Command{
		Use:   "query <extraction> <logical db path> [sql]",
		Short: "Run a SQL statement against a database",
		Args:  cobra.RangeArgs(2, 3), //nolint:gomnd
		RunE: func(cmd *cobra.Command, args []string) error {
			ex, err := openExtraction(cmd, args[0])
			if err != nil {
				return err
			}
			defer ex.Close()
			db := args[1]

			if tables {
				names, err := ex.Tables(commandContext(cmd), db)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), names)
			}
			if len(args) != 3 { //nolint:gomnd
				return errors.New("requires a sql statement")
			}

			stmt := query.Statement{SQL: args[2], Fallback: fallback}
			key, encrypted, err := keyFromFlags(cmd, db)
			if err != nil {
				return err
			}

			var result *query.Result
			if encrypted {
				result, err = ex.QueryEncryptedResult(commandContext(cmd), db, key, stmt)
			} else {
				result, err = ex.QueryResult(commandContext(cmd), db, stmt)
			}
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), result)
		},
	}
	queryCmd.Flags().StringVar(&fallback, "fallback", "", "statement used if a table or column does not exist")
	queryCmd.Flags().BoolVar(&tables, "tables", false, "list the tables of the database")
	addKeyFlags(queryCmd)
	return queryCmd
}

// Decrypt is the mobileforensics decrypt commandline subcommand
func Decrypt() *cobra.Command {
	decryptCmd := &cobra.Command{
		Use:   "decrypt <extraction> <logical db path> <dest>",
		Short: "Write a decrypted copy of a SQLCipher database",
		Args:  requireExtraction(3), //nolint:gomnd
		RunE: func(cmd *cobra.Command, args []string) error {
			ex, err := openExtraction(cmd, args[0])
			if err != nil {
				return err
			}
			defer ex.Close()

			key, ok, err := keyFromFlags(cmd, args[1])
			if err != nil {
				return err
			}
			if !ok {
				return errors.Errorf("no key for %s", args[1])
			}
			p, err := ex.DecryptToPlainFile(commandContext(cmd), args[1], key, args[2])
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), p)
			return err
		},
	}
	addKeyFlags(decryptCmd)
	return decryptCmd
}

type savedBlob struct {
	Path string         `json:"path"`
	Type blob.MediaType `json:"type"`
	Size int            `json:"size"`
}

// Blobs is the mobileforensics blobs commandline subcommand
func Blobs() *cobra.Command {
	var fallback string
	var keepExtension bool
	blobsCmd := &cobra.Command{
		Use:   "blobs <extraction> <logical db path> <sql> <dest dir>",
		Short: "Save the blobs of the first result column",
		Args:  requireExtraction(4), //nolint:gomnd
		RunE: func(cmd *cobra.Command, args []string) error {
			ex, err := openExtraction(cmd, args[0])
			if err != nil {
				return err
			}
			defer ex.Close()
			db, dest := args[1], args[3]

			blobs, err := ex.ExtractBlobs(commandContext(cmd), db, query.Statement{SQL: args[2], Fallback: fallback})
			if err != nil {
				return err
			}

			base := strings.TrimSuffix(normalizeFilePath(ex.Normalize(db)), filepath.Ext(db))
			var saved []savedBlob
			for i, data := range blobs {
				name := filepath.Join(dest, base+"_"+strconv.Itoa(i)+".bin")
				p, err := ex.SaveBlob(data, name, !keepExtension)
				if err != nil {
					return err
				}
				saved = append(saved, savedBlob{Path: p, Type: blob.Classify(data), Size: len(data)})
			}
			return printJSON(cmd.OutOrStdout(), saved)
		},
	}
	blobsCmd.Flags().StringVar(&fallback, "fallback", "", "statement used if a table or column does not exist")
	blobsCmd.Flags().BoolVar(&keepExtension, "keep-extension", false, "always save as .bin")
	return blobsCmd
}
