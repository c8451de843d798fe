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
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/forensicanalysis/mobileforensics/blob"
)

// Ls is the mobileforensics ls commandline subcommand
func Ls() *cobra.Command {
	var long bool
	lsCmd := &cobra.Command{
		Use:   "ls <extraction> [logical dir]",
		Short: "List files in the extraction",
		Args:  cobra.RangeArgs(1, 2), //nolint:gomnd
		RunE: func(cmd *cobra.Command, args []string) error {
			ex, err := openExtraction(cmd, args[0])
			if err != nil {
				return err
			}
			defer ex.Close()

			dir := ""
			if len(args) == 2 {
				dir = args[1]
			}
			entries, err := ex.List(dir)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, entry := range entries {
				if entry.IsDir {
					continue
				}
				if long {
					fmt.Fprintf(out, "%10d  %s  %s\n", entry.Size, entry.Modified.UTC().Format("2006-01-02 15:04:05"), entry.Name)
					continue
				}
				fmt.Fprintln(out, entry.Name)
			}
			return nil
		},
	}
	lsCmd.Flags().BoolVarP(&long, "long", "l", false, "print size and modification time")
	return lsCmd
}

// Extract is the mobileforensics extract commandline subcommand
func Extract() *cobra.Command {
	var mode string
	extractCmd := &cobra.Command{
		Use:   "extract <extraction> <dest> [logical path]...",
		Short: "Extract files from the extraction",
		Args:  cobra.MinimumNArgs(2), //nolint:gomnd
		RunE: func(cmd *cobra.Command, args []string) error {
			ex, err := openExtraction(cmd, args[0])
			if err != nil {
				return err
			}
			defer ex.Close()
			dest := args[1]
			out := cmd.OutOrStdout()

			if len(args) == 2 && mode == "folder" {
				extracted, err := ex.Archive().ExtractAll(commandContext(cmd), dest)
				for _, e := range extracted {
					fmt.Fprintf(out, "extract '%s' to '%s' %s\n", e.Entry.Name, e.Path, e.Digest)
				}
				return err
			}

			var names []string
			if len(args) == 2 {
				names, err = ex.Archive().Names()
				if err != nil {
					return err
				}
			}
			for _, logical := range args[2:] {
				names = append(names, ex.Normalize(logical))
			}

			for _, name := range names {
				if strings.HasSuffix(name, "/") {
					continue
				}
				if mode == "folder" {
					e, err := ex.Archive().Extract(commandContext(cmd), name, dest)
					if err != nil {
						return err
					}
					fmt.Fprintf(out, "extract '%s' to '%s' %s\n", e.Entry.Name, e.Path, e.Digest)
					continue
				}

				data, err := ex.Archive().Read(name)
				if err != nil {
					return err
				}
				p, err := blob.Save(ex.Fs(), data, filepath.Join(dest, destinationPath(name, mode)), false)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "extract '%s' to '%s'\n", name, p)
			}
			return nil
		},
	}

	usage := `define the export filename and folder structure. can be one of:
folder (e.g. 'filesystem1/private/var/mobile/Containers/Shared/AppGroup/group.net.whatsapp.WhatsApp.shared/ChatStorage.sqlite')
compact (e.g. 'file_priv_var_mobi_Cont_Shar_AppG_grou_ChatStorage.sqlite')
basename (e.g. 'ChatStorage.sqlite')
`
	extractCmd.Flags().StringVar(&mode, "mode", "folder", usage)
	return extractCmd
}

func destinationPath(fullPath string, mode string) string {
	switch mode {
	case "basename":
		return path.Base(fullPath)
	case "compact":
		return normalizeFilePath(fullPath)
	default:
		return strings.TrimLeft(fullPath, "/")
	}
}

func first(s string, n int) string {
	if len(s) < n {
		n = len(s)
	}
	return s[:n]
}

func last(s string, n int) string {
	if len(s) < n {
		n = len(s)
	}
	return s[len(s)-n:]
}

func splitExt(filePath string) (nameOnly, ext string) {
	ext = path.Ext(filePath)
	nameOnly = filePath[:len(filePath)-len(ext)]
	return nameOnly, ext
}

// normalizeFilePath flattens an entry path into a single file name of at
// most 64 characters.
func normalizeFilePath(filePath string) string {
	maxLength := 64
	maxSegmentLength := 4
	filePath = strings.TrimLeft(filePath, "/")
	pathSegments := strings.Split(filePath, "/")
	normalizedFilePath := strings.Join(pathSegments, "_")

	// get first 4 letters of every directory, while longer than maxLength
	for i := 0; i < len(pathSegments)-1 && len(normalizedFilePath) > maxLength; i++ {
		pathSegments[i] = first(pathSegments[i], maxSegmentLength)
		normalizedFilePath = strings.Join(pathSegments, "_")
	}

	if len(normalizedFilePath) > maxLength {
		nameOnly, ext := splitExt(pathSegments[len(pathSegments)-1])
		pathSegments[len(pathSegments)-1] = first(nameOnly, maxSegmentLength) + ext
		normalizedFilePath = strings.Join(pathSegments, "_")
	}

	return last(normalizedFilePath, maxLength)
}
