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
	"github.com/spf13/cobra"
)

// Keychain is the mobileforensics keychain commandline subcommand
func Keychain() *cobra.Command {
	var summary bool
	keychainCmd := &cobra.Command{
		Use:   "keychain <extraction> [logical db path]",
		Short: "Inventory the iOS keychain",
		Args:  cobra.RangeArgs(1, 2), //nolint:gomnd
		RunE: func(cmd *cobra.Command, args []string) error {
			ex, err := openExtraction(cmd, args[0])
			if err != nil {
				return err
			}
			defer ex.Close()

			db := "private/var/Keychains/keychain-2.db"
			if len(args) == 2 {
				db = args[1]
			}
			inventory, err := ex.Keychain(commandContext(cmd), db)
			if err != nil {
				return err
			}
			if summary {
				inventory.Items = nil
			}
			return printJSON(cmd.OutOrStdout(), inventory)
		},
	}
	keychainCmd.Flags().BoolVar(&summary, "summary", false, "print only the table counts")
	return keychainCmd
}

// Locksettings is the mobileforensics locksettings commandline subcommand
func Locksettings() *cobra.Command {
	return &cobra.Command{
		Use:   "locksettings <extraction> [logical db path]",
		Short: "Summarize the Android lock screen settings",
		Args:  cobra.RangeArgs(1, 2), //nolint:gomnd
		RunE: func(cmd *cobra.Command, args []string) error {
			ex, err := openExtraction(cmd, args[0])
			if err != nil {
				return err
			}
			defer ex.Close()

			db := "data/system/locksettings.db"
			if len(args) == 2 {
				db = args[1]
			}
			settings, err := ex.Locksettings(commandContext(cmd), db)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), settings)
		},
	}
}

// Keystore is the mobileforensics keystore commandline subcommand
func Keystore() *cobra.Command {
	return &cobra.Command{
		Use:   "keystore <extraction> [logical dir]",
		Short: "Classify the Android keystore files",
		Args:  cobra.RangeArgs(1, 2), //nolint:gomnd
		RunE: func(cmd *cobra.Command, args []string) error {
			ex, err := openExtraction(cmd, args[0])
			if err != nil {
				return err
			}
			defer ex.Close()

			dir := "data/misc/keystore"
			if len(args) == 2 {
				dir = args[1]
			}
			inventory, err := ex.Keystore(dir)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), inventory)
		},
	}
}
