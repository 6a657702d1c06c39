// SPDX-License-Identifier: MPL-2.0

// Package compiler turns a synthesized bootstrap program into a native
// executable.
package compiler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/sfxpack/sfxpack/internal/bootstrap"
	"github.com/sfxpack/sfxpack/pkg/platform"
)

// ErrCompile is the sentinel wrapped by CompileError.
var ErrCompile = errors.New("compile failed")

type (
	// Compiler builds an executable from generated source.
	Compiler interface {
		Compile(ctx context.Context, req CompileRequest) error
	}

	// CompileRequest describes one compilation.
	CompileRequest struct {
		Source     *bootstrap.Source
		Platform   platform.ID
		OutputPath string
		// WorkDir receives the source files. It must exist.
		WorkDir string
	}

	// CompileError reports a failed compilation with the toolchain's
	// combined output, verbatim.
	CompileError struct {
		Platform platform.ID
		Output   string
		Err      error
	}

	// GoToolchain compiles with the go command.
	GoToolchain struct {
		// GoBinary is the go command. Empty means "go" from PATH.
		GoBinary string
		// LDFlags replaces the default "-s -w".
		LDFlags  string
		TrimPath bool
		// Env is appended to the process environment.
		Env    []string
		Logger *log.Logger
	}
)

// Error implements the error interface.
func (e *CompileError) Error() string {
	msg := fmt.Sprintf("compile for %s failed", e.Platform)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if out := strings.TrimSpace(e.Output); out != "" {
		msg += "\n" + out
	}
	return msg
}

// Unwrap returns the sentinel and the cause.
func (e *CompileError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrCompile}
	}
	return []error{ErrCompile, e.Err}
}

// NewGoToolchain returns a toolchain with the default release flags.
func NewGoToolchain() *GoToolchain {
	return &GoToolchain{LDFlags: "-s -w", TrimPath: true}
}

// Compile implements Compiler.
func (g *GoToolchain) Compile(ctx context.Context, req CompileRequest) error {
	if req.Source == nil {
		return &CompileError{Platform: req.Platform, Err: errors.New("no source")}
	}
	if err := req.Platform.Validate(); err != nil {
		return &CompileError{Platform: req.Platform, Err: err}
	}

	for _, name := range req.Source.Names() {
		if err := os.WriteFile(filepath.Join(req.WorkDir, name), req.Source.Files[name], 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", name, err)
		}
	}

	output, err := filepath.Abs(req.OutputPath)
	if err != nil {
		return err
	}

	args := g.Args(output)
	logger := g.logger()
	logger.Info("compiling", "target", req.Platform, "output", output)
	logger.Debug("go command", "args", args)

	var combined bytes.Buffer
	cmd := exec.CommandContext(ctx, g.binary(), args...)
	cmd.Dir = req.WorkDir
	cmd.Stdout = &combined
	cmd.Stderr = &combined
	cmd.Env = append(os.Environ(),
		"GOOS="+req.Platform.OS(),
		"GOARCH="+req.Platform.Arch(),
		"CGO_ENABLED=0",
		"GOFLAGS=-mod=mod",
	)
	cmd.Env = append(cmd.Env, g.Env...)

	if runErr := cmd.Run(); runErr != nil {
		return &CompileError{Platform: req.Platform, Output: combined.String(), Err: runErr}
	}

	info, statErr := os.Stat(output)
	if statErr != nil || !info.Mode().IsRegular() {
		return &CompileError{
			Platform: req.Platform,
			Output:   combined.String(),
			Err:      fmt.Errorf("compiler exited cleanly but produced no file at %s", output),
		}
	}
	return nil
}

// Args returns the go command line used to build into output.
func (g *GoToolchain) Args(output string) []string {
	args := []string{"build"}
	if g.TrimPath {
		args = append(args, "-trimpath")
	}
	if g.LDFlags != "" {
		args = append(args, "-ldflags", g.LDFlags)
	}
	return append(args, "-o", output, ".")
}

func (g *GoToolchain) binary() string {
	if g.GoBinary != "" {
		return g.GoBinary
	}
	return "go"
}

func (g *GoToolchain) logger() *log.Logger {
	if g.Logger != nil {
		return g.Logger
	}
	return log.New(io.Discard)
}
