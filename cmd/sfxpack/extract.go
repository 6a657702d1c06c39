// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/sfxpack/sfxpack/internal/issue"
	"github.com/sfxpack/sfxpack/pkg/dirselect"
	"github.com/sfxpack/sfxpack/pkg/extractor"
	"github.com/sfxpack/sfxpack/pkg/request"
)

type extractFlagValues struct {
	to       string
	noDialog bool
}

func newExtractCommand(app *App, rootFlags *rootFlagValues) *cobra.Command {
	flags := &extractFlagValues{}

	cmd := &cobra.Command{
		Use:   "extract <archive>",
		Short: "Extract a sidecar archive the way the generated installer does",
		Long: `Extract a sidecar archive the way the generated installer does.

Without --to the target directory is chosen through the same chain as the
installer: a native folder dialog, then a console prompt, then a default
location.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return asServiceError(runExtract(cmd, app, rootFlags, flags, args[0]), rootFlags.verbose)
		},
	}

	cmd.Flags().StringVar(&flags.to, "to", "", "target directory (skips the selection chain)")
	cmd.Flags().BoolVar(&flags.noDialog, "no-dialog", false, "never show the native folder dialog")
	return cmd
}

func runExtract(cmd *cobra.Command, app *App, rootFlags *rootFlagValues, flags *extractFlagValues, archivePath string) error {
	ctx := cmd.Context()
	cfg, err := app.loadConfig(ctx, rootFlags)
	if err != nil {
		return err
	}
	logger := app.newLogger(cfg.UI.Verbose)

	engine := &extractor.Engine{
		Tools:           app.Tools,
		Logger:          logger,
		FallbackTimeout: cfg.Extractor.FallbackTimeout,
	}
	located, err := engine.Locate(extractor.Request{ArchivePath: archivePath})
	if err != nil {
		return issue.WrapWithContext(err, "extract archive", archivePath)
	}

	appName := strings.TrimSuffix(filepath.Base(located), request.SidecarSuffix+"."+request.ArchiveExt)
	selection := dirselect.Select(ctx, app.Selector, dirselect.Options{
		AppName:       appName,
		DialogTimeout: cfg.Extractor.DialogTimeout,
		PromptTimeout: cfg.Extractor.PromptTimeout,
		Roots:         cfg.Extractor.DefaultRoots,
		Preset:        flags.to,
		NoDialog:      flags.noDialog,
	})
	logger.Debug("target directory selected", "path", selection.Path, "tier", selection.Tier)

	outcome, err := engine.Run(ctx, extractor.Request{
		ArchivePath: located,
		AppName:     appName,
		TargetDir:   selection.Path,
	})
	if err != nil {
		return issue.WrapWithContext(err, "extract archive", located)
	}

	fmt.Fprintf(app.stdout, "%s Extracted %d files (%s) into %s\n",
		SuccessStyle.Render("✓"),
		outcome.ExtractedCount,
		humanize.IBytes(uint64(outcome.TotalBytes)),
		CmdStyle.Render(outcome.TargetDirectory),
	)
	if outcome.Tier != extractor.TierInProcess {
		fmt.Fprintf(app.stdout, "  %s %s\n", SubtitleStyle.Render("via"), outcome.Tier)
	}
	return nil
}
