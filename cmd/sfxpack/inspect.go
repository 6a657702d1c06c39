// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/sfxpack/sfxpack/internal/archive"
)

func newInspectCommand(app *App, rootFlags *rootFlagValues) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <archive>",
		Short: "List the entries of a sidecar archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := archive.List(args[0])
			if err != nil {
				return asServiceError(err, rootFlags.verbose)
			}
			printEntries(app.stdout, args[0], entries)
			return nil
		},
	}
}

func printEntries(w io.Writer, path string, entries []archive.ListedEntry) {
	fmt.Fprintln(w, TitleStyle.Render(path))
	fmt.Fprintln(w)

	var files int
	var total, compressed int64
	for _, e := range entries {
		if e.IsDirectory {
			fmt.Fprintf(w, "  %10s  %s\n", "", SubtitleStyle.Render(e.Name))
			continue
		}
		files++
		total += e.Size
		compressed += e.CompressedSize
		fmt.Fprintf(w, "  %10s  %s\n", humanize.IBytes(uint64(e.Size)), e.Name)
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s %d files, %s (%s compressed)\n",
		CmdStyle.Render("total:"), files,
		humanize.IBytes(uint64(total)),
		humanize.IBytes(uint64(compressed)),
	)
}
