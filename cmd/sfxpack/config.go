// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/sfxpack/sfxpack/internal/config"
)

// newConfigCommand creates the `sfxpack config` command tree.
func newConfigCommand(app *App, rootFlags *rootFlagValues) *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage sfxpack configuration",
		Long: `Manage sfxpack configuration.

Configuration is stored in:
  - Linux: ~/.config/sfxpack/config.cue
  - macOS: ~/Library/Application Support/sfxpack/config.cue
  - Windows: %APPDATA%\sfxpack\config.cue

Every key can also be set through SFXPACK_* environment variables, for
example SFXPACK_BUILD_TARGET=linux/amd64.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return asServiceError(showConfig(cmd.Context(), app, rootFlags), rootFlags.verbose)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return asServiceError(initConfig(app), rootFlags.verbose)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			return asServiceError(showConfigPath(app), rootFlags.verbose)
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output the effective configuration as CUE",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := app.loadConfig(cmd.Context(), rootFlags)
			if err != nil {
				return asServiceError(err, rootFlags.verbose)
			}
			fmt.Fprint(app.stdout, config.GenerateCUE(cfg))
			return nil
		},
	})

	return cfgCmd
}

func showConfig(ctx context.Context, app *App, rootFlags *rootFlagValues) error {
	cfg, err := app.loadConfig(ctx, rootFlags)
	if err != nil {
		return err
	}
	w := app.stdout

	keyStyle := CmdStyle
	valueStyle := SuccessStyle

	fmt.Fprintln(w, TitleStyle.Render("Current Configuration"))
	fmt.Fprintln(w)
	if path := activeConfigPath(rootFlags); path != "" {
		fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("Config file"), path)
	} else {
		fmt.Fprintf(w, "%s: %s\n", keyStyle.Render("Config file"), SubtitleStyle.Render("(using defaults)"))
	}

	section := func(name string, rows ...[2]string) {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "%s:\n", keyStyle.Render(name))
		for _, row := range rows {
			fmt.Fprintf(w, "  %s: %s\n", row[0], valueStyle.Render(row[1]))
		}
	}
	list := func(values []string) string {
		if len(values) == 0 {
			return SubtitleStyle.Render("(none)")
		}
		return strings.Join(values, ", ")
	}
	duration := func(d time.Duration) string { return d.String() }
	orBinary := func(v string) string {
		if v == "" {
			return SubtitleStyle.Render("(from this sfxpack binary)")
		}
		return v
	}

	section("build",
		[2]string{"target", cfg.Build.Target},
		[2]string{"output_dir", cfg.Build.OutputDir},
		[2]string{"include_version", fmt.Sprint(cfg.Build.IncludeVersion)},
		[2]string{"manifest", fmt.Sprint(cfg.Build.Manifest)},
		[2]string{"exclude", list(cfg.Build.Exclude)},
	)
	section("compiler",
		[2]string{"go_binary", cfg.Compiler.GoBinary},
		[2]string{"runtime_module", orBinary(cfg.Compiler.RuntimeModule)},
		[2]string{"runtime_version", orBinary(cfg.Compiler.RuntimeVersion)},
		[2]string{"runtime_module_dir", cfg.Compiler.RuntimeModuleDir},
		[2]string{"ldflags", cfg.Compiler.LDFlags},
		[2]string{"trimpath", fmt.Sprint(cfg.Compiler.TrimPath)},
	)
	section("extractor",
		[2]string{"prompt_timeout", duration(cfg.Extractor.PromptTimeout)},
		[2]string{"dialog_timeout", duration(cfg.Extractor.DialogTimeout)},
		[2]string{"fallback_timeout", duration(cfg.Extractor.FallbackTimeout)},
		[2]string{"default_roots", list(cfg.Extractor.DefaultRoots)},
	)
	section("ui",
		[2]string{"verbose", fmt.Sprint(cfg.UI.Verbose)},
	)
	return nil
}

func initConfig(app *App) error {
	path, created, err := config.CreateDefaultConfig("")
	if err != nil {
		return fmt.Errorf("failed to create config: %w", err)
	}
	if !created {
		fmt.Fprintf(app.stdout, "%s Configuration already exists at %s\n", WarningStyle.Render("!"), path)
		return nil
	}
	fmt.Fprintf(app.stdout, "%s Created default configuration at %s\n", SuccessStyle.Render("✓"), path)
	return nil
}

func showConfigPath(app *App) error {
	cfgDir, err := config.ConfigDir()
	if err != nil {
		return err
	}
	cfgPath, err := config.FilePath(cfgDir)
	if err != nil {
		return err
	}

	fmt.Fprintf(app.stdout, "Config directory: %s\n", cfgDir)
	fmt.Fprintf(app.stdout, "Config file: %s\n", cfgPath)
	return nil
}

// activeConfigPath returns the config file that Load reads, or "" when only
// defaults and environment apply.
func activeConfigPath(rootFlags *rootFlagValues) string {
	if rootFlags.configPath != "" {
		return rootFlags.configPath
	}
	path, err := config.FilePath("")
	if err == nil && fileExists(path) {
		return path
	}
	if local := config.ConfigFileName + "." + config.ConfigFileExt; fileExists(local) {
		return local
	}
	return ""
}
