// SPDX-License-Identifier: MPL-2.0

package sfxrun

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"github.com/sfxpack/sfxpack/pkg/chain"
	"github.com/sfxpack/sfxpack/pkg/dirselect"
	"github.com/sfxpack/sfxpack/pkg/extractor"
)

// Exit codes returned by Main.
const (
	ExitOK               = 0
	ExitExtractionFailed = 1
	ExitArchiveNotFound  = 2
)

type (
	// Options are the values compiled into a generated program.
	Options struct {
		AppName string
		// ArchiveName is the sidecar filename expected beside the executable.
		ArchiveName     string
		PromptTimeout   time.Duration
		DialogTimeout   time.Duration
		FallbackTimeout time.Duration
		// DefaultRoots overrides the directories probed when no choice is made.
		DefaultRoots []string
	}

	// Runtime is the set of host bindings used by Run.
	Runtime struct {
		Stdin  io.Reader
		Stdout io.Writer
		Stderr io.Writer
		// Environ supplies SFX_* variables. nil reads the process environment.
		Environ        map[string]string
		ExecutablePath string
		WorkingDir     string
		// Interactive enables the closing pause. Main sets it when stdin and
		// stdout are terminals.
		Interactive bool
		Selector    dirselect.Env
		Tools       extractor.Tools
	}
)

// Main runs the extractor against the real host and returns the process exit
// code.
func Main(opts Options) int {
	exe, err := os.Executable()
	if err != nil {
		exe = os.Args[0]
	}
	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}

	rt := Runtime{
		Stdin:          os.Stdin,
		Stdout:         os.Stdout,
		Stderr:         os.Stderr,
		ExecutablePath: exe,
		WorkingDir:     cwd,
		Interactive:    dirselect.IsInteractive(os.Stdin, os.Stdout),
		Selector:       dirselect.NewSystemEnv(),
		Tools:          extractor.ExecTools{},
	}
	return Run(context.Background(), opts, rt)
}

// Run locates the archive, picks a target directory and extracts into it.
func Run(ctx context.Context, opts Options, rt Runtime) int {
	stderr := rt.Stderr
	if stderr == nil {
		stderr = io.Discard
	}
	stdout := rt.Stdout
	if stdout == nil {
		stdout = io.Discard
	}

	logger := log.NewWithOptions(stderr, log.Options{Prefix: "sfx"})

	cfg, err := LoadEnv(rt.Environ)
	if err != nil {
		logger.Warn("ignoring environment overrides", "err", err)
	}
	if cfg.Debug {
		logger.SetLevel(log.DebugLevel)
	}
	opts = cfg.apply(opts)

	engine := &extractor.Engine{
		Tools:           rt.Tools,
		Logger:          logger,
		FallbackTimeout: opts.FallbackTimeout,
	}
	req := extractor.Request{
		ExpectedName:   opts.ArchiveName,
		ExecutablePath: rt.ExecutablePath,
		WorkingDir:     rt.WorkingDir,
		AppName:        opts.AppName,
	}

	archivePath, err := engine.Locate(req)
	if err != nil {
		logger.Error("archive not found", "expected", opts.ArchiveName)
		finish(stdout, rt, cfg, renderSummary(opts.AppName, nil, err))
		return ExitArchiveNotFound
	}
	req.ArchivePath = archivePath

	selector := rt.Selector
	if selector == nil {
		selector = dirselect.NewSystemEnv()
	}
	choice := dirselect.Select(ctx, selector, dirselect.Options{
		AppName:       opts.AppName,
		DialogTimeout: opts.DialogTimeout,
		PromptTimeout: opts.PromptTimeout,
		Roots:         opts.DefaultRoots,
		Preset:        cfg.TargetDir,
		NoDialog:      cfg.NoDialog,
		Observer: func(e chain.TraceEntry) {
			if !e.Done {
				logger.Debug("directory tier skipped", "tier", e.Step, "reason", e.Reason)
			}
		},
	})
	logger.Info("extracting", "target", choice.Path, "chosen_by", choice.Tier)
	req.TargetDir = choice.Path

	outcome, err := engine.Run(ctx, req)
	finish(stdout, rt, cfg, renderSummary(opts.AppName, outcome, err))

	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, extractor.ErrArchiveNotFound):
		return ExitArchiveNotFound
	default:
		return ExitExtractionFailed
	}
}

func finish(stdout io.Writer, rt Runtime, cfg EnvConfig, summary string) {
	_, _ = fmt.Fprintln(stdout, summary)
	if !rt.Interactive || cfg.NoPause || rt.Stdin == nil {
		return
	}
	_, _ = fmt.Fprint(stdout, "Press Enter to exit...")
	_, _ = bufio.NewReader(rt.Stdin).ReadString('\n')
}
