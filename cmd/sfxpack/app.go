// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"io"
	"os"

	"github.com/charmbracelet/log"

	"github.com/sfxpack/sfxpack/internal/builder"
	"github.com/sfxpack/sfxpack/internal/compiler"
	"github.com/sfxpack/sfxpack/internal/config"
	"github.com/sfxpack/sfxpack/pkg/dirselect"
	"github.com/sfxpack/sfxpack/pkg/extractor"
)

type (
	// App wires CLI services and shared dependencies. It is the composition
	// root for the CLI layer: every command handler receives an App and
	// reaches the build pipeline, extractor and configuration through it.
	App struct {
		Config   ConfigProvider
		Compiler compiler.Compiler
		Tools    extractor.Tools
		Selector dirselect.Env
		stdout   io.Writer
		stderr   io.Writer
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config ConfigProvider
		// Compiler overrides the Go toolchain configured in config.cue.
		Compiler compiler.Compiler
		Tools    extractor.Tools
		Selector dirselect.Env
		Stdout   io.Writer
		Stderr   io.Writer
	}

	// ConfigProvider loads configuration using explicit options.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
	}

	// rootFlagValues holds the persistent flags shared by all commands.
	rootFlagValues struct {
		verbose    bool
		configPath string
	}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) *App {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.Tools == nil {
		deps.Tools = extractor.ExecTools{}
	}
	if deps.Selector == nil {
		deps.Selector = dirselect.NewSystemEnv()
	}

	return &App{
		Config:   deps.Config,
		Compiler: deps.Compiler,
		Tools:    deps.Tools,
		Selector: deps.Selector,
		stdout:   deps.Stdout,
		stderr:   deps.Stderr,
	}
}

// loadConfig loads the configuration named by the root flags. The verbose
// flag wins over ui.verbose only when set.
func (a *App) loadConfig(ctx context.Context, flags *rootFlagValues) (*config.Config, error) {
	cfg, err := a.Config.Load(ctx, config.LoadOptions{ConfigFilePath: flags.configPath})
	if err != nil {
		return nil, err
	}
	if flags.verbose {
		cfg.UI.Verbose = true
	}
	return cfg, nil
}

// newLogger builds the progress logger written to stderr.
func (a *App) newLogger(verbose bool) *log.Logger {
	logger := log.NewWithOptions(a.stderr, log.Options{Prefix: "sfxpack"})
	if verbose {
		logger.SetLevel(log.DebugLevel)
	}
	return logger
}

// newBuilder returns a Builder for cfg.
func (a *App) newBuilder(cfg *config.Config, logger *log.Logger) *builder.Builder {
	b := builder.New(cfg, logger)
	b.Compiler = a.Compiler
	return b
}
