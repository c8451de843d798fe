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

// Package cmd provides the subcommands of the mobileforensics command line
// tool.
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/forensicanalysis/mobileforensics"
	"github.com/forensicanalysis/mobileforensics/detect"
)

// Root returns the mobileforensics command with all subcommands.
func Root() *cobra.Command {
	var tempDir string
	var verbose bool
	rootCmd := &cobra.Command{
		Use:           "mobileforensics",
		Short:         "Inspect mobile device extractions",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelWarn
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
		},
	}
	rootCmd.PersistentFlags().StringVar(&tempDir, "temp-dir", "", "directory for temporary database copies")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.AddCommand(
		Detect(), Ls(), Extract(), Plist(), XML(), Query(), Decrypt(), Blobs(),
		Keychain(), Locksettings(), Keystore(),
	)
	return rootCmd
}

// Detect is the mobileforensics detect commandline subcommand
func Detect() *cobra.Command {
	var asJSON bool
	detectCmd := &cobra.Command{
		Use:   "detect <extraction>",
		Short: "Detect acquisition tool and operating system",
		Args:  requireOneExtraction,
		RunE: func(cmd *cobra.Command, args []string) error {
			ex, err := openExtraction(cmd, args[0])
			if err != nil {
				return err
			}
			defer ex.Close()

			f := ex.Format()
			if asJSON {
				return printJSON(cmd.OutOrStdout(), f)
			}
			printFormat(cmd.OutOrStdout(), f)
			return nil
		},
	}
	detectCmd.Flags().BoolVar(&asJSON, "json", false, "print the result as json")
	return detectCmd
}

func printFormat(w io.Writer, f detect.Format) {
	name := color.New(color.FgGreen, color.Bold)
	if f.IsUnknown() {
		name = color.New(color.FgYellow, color.Bold)
	}
	cyan := color.New(color.FgCyan)

	name.Fprintln(w, f.Name()) // nolint:errcheck
	cyan.Fprint(w, "tool:   ") // nolint:errcheck
	fmt.Fprintln(w, f.Tool)
	cyan.Fprint(w, "os:     ") // nolint:errcheck
	fmt.Fprintln(w, f.OS)
	cyan.Fprint(w, "prefix: ") // nolint:errcheck
	fmt.Fprintf(w, "%q\n", f.Prefix)
	if len(f.Ambiguous) > 0 {
		color.New(color.FgYellow).Fprintf(w, "also matches: %s\n", strings.Join(f.Ambiguous, ", ")) // nolint:errcheck
	}
}

func openExtraction(cmd *cobra.Command, path string) (*mobileforensics.Extraction, error) {
	tempDir, _ := cmd.Flags().GetString("temp-dir")
	return mobileforensics.Open(path, &mobileforensics.Options{
		Logger:  slog.Default(),
		TempDir: tempDir,
	})
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func printJSON(w io.Writer, v interface{}) error {
	b, err := json.Marshal(mobileforensics.Record(v))
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "%s\n", b)
	return err
}

func requireOneExtraction(cmd *cobra.Command, args []string) error {
	return requireExtraction(1)(cmd, args)
}

// requireExtraction checks for n arguments of which the first is an existing
// extraction.
func requireExtraction(n int) cobra.PositionalArgs {
	return func(_ *cobra.Command, args []string) error {
		if len(args) != n {
			return errors.Errorf("accepts %d arg(s), received %d", n, len(args))
		}
		if _, err := os.Stat(args[0]); os.IsNotExist(err) {
			return errors.Wrap(os.ErrNotExist, args[0])
		}
		return nil
	}
}
