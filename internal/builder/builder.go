// SPDX-License-Identifier: MPL-2.0

package builder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/u-root/u-root/pkg/cp"

	"github.com/sfxpack/sfxpack/internal/archive"
	"github.com/sfxpack/sfxpack/internal/bootstrap"
	"github.com/sfxpack/sfxpack/internal/compiler"
	"github.com/sfxpack/sfxpack/internal/config"
	"github.com/sfxpack/sfxpack/internal/issue"
	"github.com/sfxpack/sfxpack/pkg/checksum"
	"github.com/sfxpack/sfxpack/pkg/request"
)

type (
	// Builder turns package requests into installers.
	Builder struct {
		// Compiler builds the bootstrap program. nil uses the Go toolchain
		// configured by Config.Compiler.
		Compiler compiler.Compiler
		Logger   *log.Logger
		// Config supplies build defaults. nil means config.DefaultConfig().
		Config *config.Config
		// Now is the clock used for manifest timestamps.
		Now func() time.Time
		// Runtime reports the runtime module this binary was released as.
		// nil means bootstrap.CurrentRuntime.
		Runtime func() (bootstrap.ModuleRef, bool)
	}

	// Plan is what a build would produce, computed without writing anything.
	Plan struct {
		Request        request.PackageRequest
		Entries        []archive.Entry
		ExecutablePath string
		SidecarPath    string
		// ChecksumsPath and ManifestPath are empty when manifests are disabled.
		ChecksumsPath string
		ManifestPath  string
		// Runtime is the module the bootstrap program is compiled against.
		Runtime  bootstrap.ModuleRef
		Warnings []string
	}

	// Result describes a finished build.
	Result struct {
		BuildID        string
		Request        request.PackageRequest
		ExecutablePath string
		SidecarPath    string
		ChecksumsPath  string
		ManifestPath   string
		Entries        []archive.Entry
		// ArchiveSize is the compressed size of the sidecar.
		ArchiveSize  int64
		ContentBytes int64
		Duration     time.Duration
	}
)

// New returns a Builder using cfg and logger with the configured Go toolchain.
func New(cfg *config.Config, logger *log.Logger) *Builder {
	return &Builder{Config: cfg, Logger: logger}
}

// Plan validates req and resolves its archive entries and output paths.
func (b *Builder) Plan(req request.PackageRequest) (*Plan, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	cfg := b.config()

	runtimeRef, err := b.moduleRef()
	if err != nil {
		return nil, err
	}

	outputDir := req.OutputDir
	if outputDir == "" {
		outputDir = "."
	}

	entries, err := archive.Plan(archive.Options{
		Files:   req.Files,
		Folders: req.Folders,
		Exclude: slices.Concat(cfg.Build.Exclude, req.Exclude),
		Logger:  b.logger(),
	})
	if err != nil {
		return nil, &archive.WriteError{Path: req.SidecarName(), Err: err}
	}

	plan := &Plan{
		Request:        req,
		Entries:        entries,
		ExecutablePath: filepath.Join(outputDir, req.ExecutableName()),
		SidecarPath:    filepath.Join(outputDir, req.SidecarName()),
		Runtime:        runtimeRef,
		Warnings:       req.Warnings(),
	}
	if cfg.Build.Manifest {
		plan.ChecksumsPath = filepath.Join(outputDir, checksum.FileName)
		plan.ManifestPath = filepath.Join(outputDir, req.DerivedName()+ManifestSuffix)
	}
	return plan, nil
}

// Build runs the whole pipeline for req. The first failing stage aborts the
// build and its error is returned as is: a joined set of
// *request.ConfigurationError, an *archive.WriteError, a
// *compiler.CompileError or the I/O error of the failing step. Outputs
// written by earlier stages of a failed build are removed.
func (b *Builder) Build(ctx context.Context, req request.PackageRequest) (_ *Result, err error) {
	started := b.now()
	logger := b.logger()

	plan, err := b.Plan(req)
	if err != nil {
		return nil, err
	}
	for _, w := range plan.Warnings {
		logger.Warn(w)
	}

	if err := os.MkdirAll(filepath.Dir(plan.ExecutablePath), 0o755); err != nil {
		return nil, err
	}

	ws, err := NewWorkspace()
	if err != nil {
		return nil, err
	}
	defer func() {
		if relErr := ws.Release(); relErr != nil {
			logger.Warn("failed to release workspace", "dir", ws.Dir, "error", relErr)
		}
	}()

	var produced []string
	defer func() {
		if err == nil {
			return
		}
		for _, path := range produced {
			if rmErr := os.Remove(path); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
				logger.Warn("failed to remove partial output", "path", path, "error", rmErr)
			}
		}
	}()

	logger.Info("building archive", "name", req.SidecarName(), "entries", len(plan.Entries))
	arc, err := archive.Write(ctx, plan.Entries, ws.Path(req.SidecarName()), logger)
	if err != nil {
		return nil, err
	}

	src, err := bootstrap.Synthesize(b.bootstrapSpec(req), plan.Runtime)
	if err != nil {
		return nil, err
	}
	srcDir, err := ws.SourceDir()
	if err != nil {
		return nil, err
	}

	logger.Info("compiling extractor", "target", req.TargetPlatform(), "output", plan.ExecutablePath)
	produced = append(produced, plan.ExecutablePath)
	err = b.compiler().Compile(ctx, compiler.CompileRequest{
		Source:     src,
		Platform:   req.TargetPlatform(),
		OutputPath: plan.ExecutablePath,
		WorkDir:    srcDir,
	})
	if err != nil {
		return nil, err
	}

	produced = append(produced, plan.SidecarPath)
	if err = cp.Copy(arc.Path, plan.SidecarPath); err != nil {
		return nil, err
	}

	res := &Result{
		BuildID:        uuid.NewString(),
		Request:        req,
		ExecutablePath: plan.ExecutablePath,
		SidecarPath:    plan.SidecarPath,
		Entries:        arc.Entries,
		ArchiveSize:    arc.Size,
		ContentBytes:   arc.ContentBytes,
	}

	if plan.ManifestPath != "" {
		produced = append(produced, plan.ManifestPath)
		if err = b.writeRecords(res, plan, started); err != nil {
			return nil, err
		}
	}

	res.Duration = b.now().Sub(started)
	logger.Info("build complete",
		"executable", plan.ExecutablePath,
		"archive", plan.SidecarPath,
		"size", humanize.IBytes(uint64(res.ArchiveSize)),
	)
	return res, nil
}

// writeRecords writes checksums.txt and the manifest for a finished build.
func (b *Builder) writeRecords(res *Result, plan *Plan, started time.Time) error {
	exe, err := checksum.Compute(res.ExecutablePath)
	if err != nil {
		return err
	}
	sidecar, err := checksum.Compute(res.SidecarPath)
	if err != nil {
		return err
	}

	if err := mergeChecksums(plan.ChecksumsPath, exe, sidecar); err != nil {
		return err
	}
	res.ChecksumsPath = plan.ChecksumsPath

	if err := WriteManifest(plan.ManifestPath, newManifest(res, exe, sidecar, started, b.now())); err != nil {
		return err
	}
	res.ManifestPath = plan.ManifestPath
	return nil
}

// mergeChecksums rewrites the checksum list at path, replacing the lines of
// the given files and keeping the lines of other builds in the same
// directory.
func mergeChecksums(path string, updated ...checksum.Entry) (err error) {
	var entries []checksum.Entry
	if existing, openErr := os.Open(path); openErr == nil {
		entries, _ = checksum.Parse(existing) // an unreadable list is replaced
		_ = existing.Close()                  // read-only handle
	}
	for _, u := range updated {
		entries = slices.DeleteFunc(entries, func(e checksum.Entry) bool { return e.Filename == u.Filename })
	}
	entries = append(entries, updated...)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to write checksums: %w", err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()
	return checksum.Write(f, entries)
}

func (b *Builder) bootstrapSpec(req request.PackageRequest) bootstrap.Spec {
	ext := b.config().Extractor
	return bootstrap.Spec{
		AppDisplayName:     req.AppName,
		ArchiveSidecarName: req.SidecarName(),
		PromptTimeout:      ext.PromptTimeout,
		DialogTimeout:      ext.DialogTimeout,
		FallbackTimeout:    ext.FallbackTimeout,
		DefaultRoots:       ext.DefaultRoots,
	}
}

// moduleRef resolves the runtime module. A local checkout or an explicit
// version wins; otherwise the version this binary was released as is used.
func (b *Builder) moduleRef() (bootstrap.ModuleRef, error) {
	c := b.config().Compiler
	ref := bootstrap.ModuleRef{
		Path:    c.RuntimeModule,
		Version: c.RuntimeVersion,
		Dir:     c.RuntimeModuleDir,
	}
	if ref.Dir != "" || ref.Version != "" {
		return ref, nil
	}

	current := bootstrap.CurrentRuntime
	if b.Runtime != nil {
		current = b.Runtime
	}
	released, ok := current()
	if !ok {
		return ref, issue.NewErrorContext().
			WithOperation("resolve the runtime module").
			WithSuggestion("Set compiler.runtime_module_dir to the sfxpack checkout this binary was built from").
			WithSuggestion("Or set compiler.runtime_version to a published release").
			Wrap(&request.ConfigurationError{
				Field:   "compiler.runtime_module_dir",
				Problem: "required for development builds of sfxpack",
			}).
			BuildError()
	}
	if ref.Path != "" && ref.Path != released.Path {
		return ref, &request.ConfigurationError{
			Field:   "compiler.runtime_version",
			Problem: fmt.Sprintf("must be set when compiler.runtime_module is %s", ref.Path),
		}
	}
	return released, nil
}

func (b *Builder) compiler() compiler.Compiler {
	if b.Compiler != nil {
		return b.Compiler
	}
	c := b.config().Compiler
	return &compiler.GoToolchain{
		GoBinary: c.GoBinary,
		LDFlags:  c.LDFlags,
		TrimPath: c.TrimPath,
		Logger:   b.logger(),
	}
}

func (b *Builder) config() *config.Config {
	if b.Config == nil {
		return config.DefaultConfig()
	}
	return b.Config
}

func (b *Builder) logger() *log.Logger {
	if b.Logger == nil {
		return log.New(io.Discard)
	}
	return b.Logger
}

func (b *Builder) now() time.Time {
	if b.Now == nil {
		return time.Now()
	}
	return b.Now()
}
