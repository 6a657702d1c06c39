// SPDX-License-Identifier: MPL-2.0

package extractor

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"

	"github.com/sfxpack/sfxpack/pkg/chain"
)

// Tier names reported in Outcome.Tier.
const (
	TierInProcess = "inprocess"
	TierExternal  = "external"
)

// DefaultFallbackTimeout bounds each fallback utility run.
const DefaultFallbackTimeout = 60 * time.Second

type (
	// Engine extracts sidecar archives.
	Engine struct {
		Tools  Tools
		Logger *log.Logger
		// FallbackTimeout bounds each external utility. Zero means
		// DefaultFallbackTimeout.
		FallbackTimeout time.Duration
		// GOOS selects the fallback utilities. Empty means the host.
		GOOS string
	}

	// Request describes one extraction run.
	Request struct {
		// ExpectedName is the sidecar filename compiled into the executable.
		ExpectedName   string
		ExecutablePath string
		WorkingDir     string
		AppName        string
		TargetDir      string
		// ArchivePath skips resolution when set.
		ArchivePath string
	}

	// Outcome reports what an extraction run did.
	Outcome struct {
		TargetDirectory string
		ArchivePath     string
		ExtractedCount  int
		TotalBytes      int64
		Succeeded       bool
		ErrorDetail     string
		Tier            string
		Trace           chain.Trace
		Verification    Verification
	}

	tally struct {
		files int
		bytes int64
	}
)

// Locate finds the archive for req without extracting it.
func (e *Engine) Locate(req Request) (string, error) {
	if req.ArchivePath != "" {
		if isRegularFile(req.ArchivePath) {
			return req.ArchivePath, nil
		}
		return "", &ArchiveNotFoundError{Tried: []string{req.ArchivePath}}
	}

	exeDir := filepath.Dir(req.ExecutablePath)
	exeStem := strings.TrimSuffix(filepath.Base(req.ExecutablePath), filepath.Ext(req.ExecutablePath))
	if req.ExecutablePath == "" {
		exeDir, exeStem = req.WorkingDir, ""
	}

	candidates := Candidates(exeDir, req.WorkingDir, req.ExpectedName, exeStem, req.AppName)
	if path, ok := Resolve(candidates, isRegularFile); ok {
		return path, nil
	}
	if path, ok := loneSidecar(exeDir); ok {
		return path, nil
	}
	return "", &ArchiveNotFoundError{Tried: append(candidates, filepath.Join(exeDir, "*_archive.zip"))}
}

// Run locates, stages and extracts the archive into req.TargetDir. The
// returned Outcome is never nil. On terminal failure the archive is copied
// into the target directory and an *ExtractionFailedError is returned.
func (e *Engine) Run(ctx context.Context, req Request) (*Outcome, error) {
	logger := e.logger()
	outcome := &Outcome{TargetDirectory: req.TargetDir}

	archivePath, err := e.Locate(req)
	if err != nil {
		outcome.ErrorDetail = err.Error()
		return outcome, err
	}
	outcome.ArchivePath = archivePath
	logger.Info("found archive", "path", archivePath)

	st, err := stage(archivePath)
	if err != nil {
		outcome.ErrorDetail = err.Error()
		return outcome, &ExtractionFailedError{Target: req.TargetDir, Err: err}
	}
	defer st.Release()

	// Taken before any tier runs so fallback counts exclude existing files.
	baseline, _ := Verify(req.TargetDir)

	steps := []chain.Step[tally]{
		{Name: TierInProcess, Try: func(context.Context) chain.Attempt[tally] {
			files, n, err := extractZip(st.archive, req.TargetDir, logger)
			if err != nil {
				return chain.Skip[tally](err)
			}
			return chain.Succeed(tally{files: files, bytes: n})
		}},
		{Name: TierExternal, Try: func(ctx context.Context) chain.Attempt[tally] {
			return e.tryExternal(ctx, st.archive, req.TargetDir)
		}},
	}

	observe := func(entry chain.TraceEntry) {
		if !entry.Done {
			logger.Warn("extraction tier failed", "tier", entry.Step, "err", entry.Reason)
		}
	}

	result, tier, trace, err := chain.Run(ctx, steps, observe)
	outcome.Trace = trace
	if err != nil {
		failure := &ExtractionFailedError{Target: req.TargetDir, Err: err}
		if copyPath, deliverErr := st.deliver(req.TargetDir); deliverErr != nil {
			failure.Err = errors.Join(err, deliverErr)
			logger.Error("could not copy the archive for manual extraction", "err", deliverErr)
		} else {
			failure.ArchiveCopy = copyPath
			logger.Error("extraction failed; extract the archive manually",
				"archive", copyPath,
				"target", req.TargetDir,
			)
		}
		outcome.ErrorDetail = failure.Error()
		return outcome, failure
	}

	outcome.Tier = tier
	outcome.Succeeded = true
	outcome.ExtractedCount = result.files
	outcome.TotalBytes = result.bytes

	v, verifyErr := Verify(req.TargetDir)
	if verifyErr != nil {
		logger.Warn("could not verify target directory", "err", verifyErr)
	}
	outcome.Verification = v
	if tier == TierExternal {
		t := e.externalTally(st.archive, baseline, v)
		outcome.ExtractedCount = t.files
		outcome.TotalBytes = t.bytes
	}

	logger.Info("extraction complete",
		"tier", tier,
		"files", outcome.ExtractedCount,
		"size", humanize.IBytes(uint64(outcome.TotalBytes)),
		"items", v.Items,
	)
	return outcome, nil
}

func (e *Engine) tryExternal(ctx context.Context, archive, target string) chain.Attempt[tally] {
	if e.Tools == nil {
		return chain.Skipf[tally]("no extraction utilities configured")
	}
	timeout := e.FallbackTimeout
	if timeout <= 0 {
		timeout = DefaultFallbackTimeout
	}
	goos := e.GOOS
	if goos == "" {
		goos = runtime.GOOS
	}

	if err := os.MkdirAll(target, 0o755); err != nil {
		return chain.Skip[tally](err)
	}

	var errs []error
	for _, c := range FallbackCommands(goos, archive, target) {
		e.logger().Info("trying fallback extraction", "tool", c.Name)
		runCtx, cancel := context.WithTimeout(ctx, timeout)
		output, err := e.Tools.Run(runCtx, c.Name, c.Args...)
		cancel()
		if err == nil {
			return chain.Succeed(tally{})
		}
		toolErr := &ToolError{Tool: c.Name, Output: strings.TrimSpace(string(output)), Err: err}
		e.logger().Debug("fallback utility failed", "tool", c.Name, "output", toolErr.Output)
		errs = append(errs, toolErr)
	}
	return chain.Skip[tally](errors.Join(errs...))
}

// externalTally reports what a fallback utility extracted. Utilities print no
// counts, so the archive's own directory is read; when it cannot be, the
// growth of the target since before the run is used.
func (e *Engine) externalTally(archive string, before, after Verification) tally {
	t, err := archiveTally(archive)
	if err == nil {
		return t
	}
	e.logger().Debug("could not read archive entries, counting target growth", "err", err)
	return tally{
		files: max(after.Files-before.Files, 0),
		bytes: max(after.Bytes-before.Bytes, 0),
	}
}

func (e *Engine) logger() *log.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return log.New(io.Discard)
}
