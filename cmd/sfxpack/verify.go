// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sfxpack/sfxpack/internal/builder"
	"github.com/sfxpack/sfxpack/internal/issue"
	"github.com/sfxpack/sfxpack/pkg/checksum"
)

func newVerifyCommand(app *App, rootFlags *rootFlagValues) *cobra.Command {
	return &cobra.Command{
		Use:   "verify [dir]",
		Short: "Verify the checksums of a build output directory",
		Long: `Verify the checksums of a build output directory.

Every file listed in checksums.txt is hashed and compared. Build manifests
found in the directory are summarized.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			return asServiceError(runVerify(app, dir), rootFlags.verbose)
		},
	}
}

func runVerify(app *App, dir string) error {
	verified, err := checksum.VerifyDir(dir)
	for _, name := range verified {
		fmt.Fprintf(app.stdout, "%s %s\n", SuccessStyle.Render("✓"), name)
	}
	if err != nil {
		var mismatch *checksum.MismatchError
		if errors.As(err, &mismatch) {
			fmt.Fprintf(app.stdout, "%s %s\n", ErrorStyle.Render("✗"), filepath.Base(mismatch.Filename))
		}
		return issue.WrapWithContext(err, "verify build outputs", dir)
	}

	manifests, globErr := filepath.Glob(filepath.Join(dir, "*"+builder.ManifestSuffix))
	if globErr != nil {
		return globErr
	}
	for _, path := range manifests {
		m, readErr := builder.ReadManifest(path)
		if readErr != nil {
			fmt.Fprintf(app.stderr, "%s %v\n", WarningStyle.Render("!"), readErr)
			continue
		}
		fmt.Fprintf(app.stdout, "%s %s %s for %s, %d entries, built %s (%s)\n",
			CmdStyle.Render("→"),
			m.App, m.Version, m.Target, len(m.Entries), m.FinishedAt,
			SubtitleStyle.Render(m.BuildID),
		)
		for _, name := range []string{m.Executable.Name, m.Archive.Name} {
			if !fileExists(filepath.Join(dir, name)) {
				return issue.WrapWithContext(fmt.Errorf("missing %s: %w", name, os.ErrNotExist), "verify build manifest", path)
			}
		}
	}
	return nil
}

// fileExists checks if a file exists and is not a directory.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
