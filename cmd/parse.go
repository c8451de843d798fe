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

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/forensicanalysis/mobileforensics/structured"
)

// Plist is the mobileforensics plist commandline subcommand
func Plist() *cobra.Command {
	var lookup string
	var flat bool
	plistCmd := &cobra.Command{
		Use:   "plist <extraction> <logical path>",
		Short: "Decode a property list",
		Args:  requireExtraction(2), //nolint:gomnd
		RunE: func(cmd *cobra.Command, args []string) error {
			ex, err := openExtraction(cmd, args[0])
			if err != nil {
				return err
			}
			defer ex.Close()

			v, err := ex.ReadPlist(args[1])
			if err != nil {
				return err
			}

			switch {
			case lookup != "":
				result := v.Lookup(lookup)
				if !result.Exists() {
					return errors.Errorf("%s not found", lookup)
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), result.Raw)
				return err
			case flat:
				return printJSON(cmd.OutOrStdout(), structured.Flatten(v))
			default:
				return printJSON(cmd.OutOrStdout(), v)
			}
		},
	}
	plistCmd.Flags().StringVar(&lookup, "path", "", "print only the value at this path, e.g. 'Accounts.0.Name'")
	plistCmd.Flags().BoolVar(&flat, "flat", false, "print dotted keys")
	return plistCmd
}

// XML is the mobileforensics xml commandline subcommand
func XML() *cobra.Command {
	var find string
	xmlCmd := &cobra.Command{
		Use:   "xml <extraction> <logical path>",
		Short: "Decode an XML document",
		Args:  requireExtraction(2), //nolint:gomnd
		RunE: func(cmd *cobra.Command, args []string) error {
			ex, err := openExtraction(cmd, args[0])
			if err != nil {
				return err
			}
			defer ex.Close()

			doc, err := ex.ReadXML(args[1])
			if err != nil {
				return err
			}
			if find == "" {
				return printJSON(cmd.OutOrStdout(), doc.Root)
			}
			nodes, err := doc.Find(find)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), nodes)
		},
	}
	xmlCmd.Flags().StringVar(&find, "find", "", "print only matching elements, e.g. '//package[@name]'")
	return xmlCmd
}
