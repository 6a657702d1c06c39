// SPDX-License-Identifier: MPL-2.0

// Package cmd contains all CLI commands for sfxpack.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/sfxpack/sfxpack/internal/issue"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"
)

// NewRootCommand creates the sfxpack command tree bound to app.
func NewRootCommand(app *App) *cobra.Command {
	flags := &rootFlagValues{}

	rootCmd := &cobra.Command{
		Use:   "sfxpack",
		Short: "Build self-extracting installers",
		Long: TitleStyle.Render("sfxpack") + SubtitleStyle.Render(" - Build self-extracting installers") + `

sfxpack bundles files and folders into a ZIP archive and compiles a small
native extractor that ships next to it. Running the extractor asks where
to install and unpacks the archive there.

` + SubtitleStyle.Render("Examples:") + `
  sfxpack build --name Demo --version 1.0.0 --file readme.txt --folder assets
  sfxpack build --request package.yaml --watch
  sfxpack inspect Demo-1.0.0_archive.zip
  sfxpack verify ./dist
  sfxpack config init`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&flags.verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&flags.configPath, "config", "", "config file (default is <config dir>/sfxpack/config.cue)")

	rootCmd.AddCommand(
		newBuildCommand(app, flags),
		newInspectCommand(app, flags),
		newVerifyCommand(app, flags),
		newExtractCommand(app, flags),
		newConfigCommand(app, flags),
	)
	return rootCmd
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the CLI and exits with the classified exit code. It is
// called by main.main().
func Execute() {
	app := NewApp(Dependencies{})
	rootCmd := NewRootCommand(app)

	err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
		fang.WithErrorHandler(func(w io.Writer, _ fang.Styles, err error) {
			var svcErr *ServiceError
			if errors.As(err, &svcErr) {
				renderServiceError(w, svcErr)
				return
			}
			fmt.Fprintln(w, ErrorStyle.Render("Error:"), err)
		}),
	)
	if err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(ExitFailure)
	}
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}
