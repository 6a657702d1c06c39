// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/sfxpack/sfxpack/internal/builder"
	"github.com/sfxpack/sfxpack/internal/config"
	"github.com/sfxpack/sfxpack/pkg/platform"
	"github.com/sfxpack/sfxpack/pkg/request"
)

type buildFlagValues struct {
	name        string
	version     string
	files       []string
	folders     []string
	outputDir   string
	outputName  string
	noVersion   bool
	target      string
	exclude     []string
	requestPath string
	dryRun      bool
	watch       bool
}

func newBuildCommand(app *App, rootFlags *rootFlagValues) *cobra.Command {
	flags := &buildFlagValues{}

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Build a self-extracting installer",
		Long: `Build a self-extracting installer.

The inputs come from flags, from a request file (--request, YAML, TOML or
JSON by extension) or both; flags override values from the file. The
output directory receives the executable, its sidecar archive and, unless
disabled in the configuration, checksums.txt and a build manifest.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if flags.watch && flags.dryRun {
				return &ExitError{Code: ExitUsage, Err: errors.New("--watch and --dry-run cannot be used together")}
			}
			return asServiceError(runBuild(cmd, app, rootFlags, flags), rootFlags.verbose)
		},
	}

	bindBuildFlags(cmd, flags)
	return cmd
}

func bindBuildFlags(cmd *cobra.Command, flags *buildFlagValues) {
	f := cmd.Flags()
	f.StringVar(&flags.name, "name", "", "application name")
	f.StringVar(&flags.version, "version", "", "application version")
	f.StringArrayVar(&flags.files, "file", nil, "file to add at the archive root (repeatable)")
	f.StringArrayVar(&flags.folders, "folder", nil, "folder to add recursively (repeatable)")
	f.StringVarP(&flags.outputDir, "output-dir", "o", "", "directory receiving the build outputs")
	f.StringVar(&flags.outputName, "output-name", "", "base name of the outputs instead of <name>-<version>")
	f.BoolVar(&flags.noVersion, "no-version", false, "leave the version out of output names")
	f.StringVar(&flags.target, "target", "", "target platform as <os>/<arch>")
	f.StringArrayVar(&flags.exclude, "exclude", nil, "doublestar pattern of archive entries to leave out (repeatable)")
	f.StringVarP(&flags.requestPath, "request", "r", "", "request file (.yaml, .yml, .toml or .json)")
	f.BoolVar(&flags.dryRun, "dry-run", false, "show what would be built without building")
	f.BoolVarP(&flags.watch, "watch", "w", false, "rebuild when the inputs change")
}

func runBuild(cmd *cobra.Command, app *App, rootFlags *rootFlagValues, flags *buildFlagValues) error {
	ctx := cmd.Context()
	cfg, err := app.loadConfig(ctx, rootFlags)
	if err != nil {
		return err
	}
	logger := app.newLogger(cfg.UI.Verbose)
	b := app.newBuilder(cfg, logger)

	req, err := requestFromFlags(cmd, flags, cfg)
	if err != nil {
		return err
	}

	switch {
	case flags.dryRun:
		plan, planErr := b.Plan(req)
		if planErr != nil {
			return planErr
		}
		printPlan(app.stdout, plan)
		return nil
	case flags.watch:
		var extra []string
		if flags.requestPath != "" {
			extra = append(extra, flags.requestPath)
		}
		return runWatch(ctx, app, b, req, extra, func() (request.PackageRequest, error) {
			return requestFromFlags(cmd, flags, cfg)
		})
	}

	res, err := b.Build(ctx, req)
	if err != nil {
		return err
	}
	printResult(app.stdout, res)
	return nil
}

// requestFromFlags layers configuration defaults, the request file and the
// explicitly set flags, in that order. The result is not validated.
func requestFromFlags(cmd *cobra.Command, flags *buildFlagValues, cfg *config.Config) (request.PackageRequest, error) {
	req := request.PackageRequest{
		OutputDir:      cfg.Build.OutputDir,
		IncludeVersion: cfg.Build.IncludeVersion,
		Target:         platform.ID(cfg.Build.Target),
	}

	if flags.requestPath != "" {
		loaded, err := request.LoadFile(flags.requestPath)
		if err != nil {
			return request.PackageRequest{}, err
		}
		req = loaded
	}

	changed := cmd.Flags().Changed
	if changed("name") {
		req.AppName = flags.name
	}
	if changed("version") {
		req.Version = flags.version
	}
	if changed("file") {
		req.Files = flags.files
	}
	if changed("folder") {
		req.Folders = flags.folders
	}
	if changed("output-dir") {
		req.OutputDir = flags.outputDir
	}
	if changed("output-name") {
		req.OutputName = flags.outputName
	}
	if changed("no-version") {
		req.IncludeVersion = !flags.noVersion
	}
	if changed("target") {
		target, err := platform.ParseID(flags.target)
		if err != nil {
			return request.PackageRequest{}, &request.ConfigurationError{Field: "target", Problem: err.Error()}
		}
		req.Target = target
	}
	if changed("exclude") {
		req.Exclude = flags.exclude
	}
	return req, nil
}

func printPlan(w io.Writer, plan *builder.Plan) {
	fmt.Fprintln(w, TitleStyle.Render("Dry run")+SubtitleStyle.Render(" - nothing was written"))
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s: %s\n", CmdStyle.Render("executable"), plan.ExecutablePath)
	fmt.Fprintf(w, "%s: %s\n", CmdStyle.Render("archive"), plan.SidecarPath)
	if plan.ManifestPath != "" {
		fmt.Fprintf(w, "%s: %s\n", CmdStyle.Render("checksums"), plan.ChecksumsPath)
		fmt.Fprintf(w, "%s: %s\n", CmdStyle.Render("manifest"), plan.ManifestPath)
	}
	fmt.Fprintf(w, "%s: %s\n", CmdStyle.Render("target"), plan.Request.TargetPlatform())
	fmt.Fprintln(w)
	fmt.Fprintf(w, "%s (%d):\n", CmdStyle.Render("entries"), len(plan.Entries))
	for _, e := range plan.Entries {
		fmt.Fprintf(w, "  %s %s\n", e.RelativeName, SubtitleStyle.Render("<- "+e.SourcePath))
	}
	for _, warning := range plan.Warnings {
		fmt.Fprintf(w, "%s %s\n", WarningStyle.Render("!"), warning)
	}
}

func printResult(w io.Writer, res *builder.Result) {
	fmt.Fprintf(w, "%s Built %s\n", SuccessStyle.Render("✓"), CmdStyle.Render(filepath.Base(res.ExecutablePath)))
	fmt.Fprintf(w, "  %s %s (%d entries, %s, %s uncompressed)\n",
		SubtitleStyle.Render("archive"),
		filepath.Base(res.SidecarPath),
		len(res.Entries),
		humanize.IBytes(uint64(res.ArchiveSize)),
		humanize.IBytes(uint64(res.ContentBytes)),
	)
	if res.ManifestPath != "" {
		fmt.Fprintf(w, "  %s %s\n", SubtitleStyle.Render("manifest"), filepath.Base(res.ManifestPath))
	}
	fmt.Fprintf(w, "  %s %s\n", SubtitleStyle.Render("build id"), res.BuildID)
}

// buildOnce runs one build and reports it; used by watch mode.
func buildOnce(ctx context.Context, app *App, b *builder.Builder, req request.PackageRequest) error {
	res, err := b.Build(ctx, req)
	if err != nil {
		return err
	}
	printResult(app.stdout, res)
	return nil
}
