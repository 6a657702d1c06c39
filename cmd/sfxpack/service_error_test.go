// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"testing"

	"github.com/sfxpack/sfxpack/internal/archive"
	"github.com/sfxpack/sfxpack/internal/compiler"
	"github.com/sfxpack/sfxpack/internal/issue"
	"github.com/sfxpack/sfxpack/pkg/checksum"
	"github.com/sfxpack/sfxpack/pkg/extractor"
	"github.com/sfxpack/sfxpack/pkg/request"
	"github.com/sfxpack/sfxpack/pkg/sfxrun"
)

func TestNewServiceError_PanicsOnNilErr(t *testing.T) {
	t.Parallel()

	defer func() {
		if r := recover(); r == nil {
			t.Fatal("expected panic on nil Err, got none")
		}
	}()

	newServiceError(nil, 0, "")
}

func TestServiceError_ErrorAndUnwrap(t *testing.T) {
	t.Parallel()

	underlying := errors.New("underlying error")
	svcErr := newServiceError(underlying, 0, "")

	if svcErr.Error() != "underlying error" {
		t.Errorf("Error() = %q, want %q", svcErr.Error(), "underlying error")
	}
	if !errors.Is(svcErr, underlying) {
		t.Error("errors.Is should find underlying error via Unwrap")
	}
}

func TestClassifyError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		wantID   issue.Id
		wantCode int
	}{
		{"configuration", &request.ConfigurationError{Field: "version", Problem: "must not be empty"}, issue.InvalidRequestId, ExitUsage},
		{"runtime module", &request.ConfigurationError{Field: "compiler.runtime_module_dir", Problem: "required"}, issue.RuntimeModuleUnavailableId, ExitUsage},
		{"unsupported request", &request.UnsupportedFormatError{Path: "x.ini"}, issue.RequestFileUnsupportedId, ExitUsage},
		{"missing input", &archive.WriteError{Path: "a.zip", Entry: "x", Err: os.ErrNotExist}, issue.FileNotFoundId, ExitFailure},
		{"archive write", &archive.WriteError{Path: "a.zip", Err: errors.New("disk full")}, issue.ArchiveWriteFailedId, ExitFailure},
		{"compile", &compiler.CompileError{Platform: "linux/amd64", Output: "boom"}, issue.CompileFailedId, ExitFailure},
		{"no go", &compiler.CompileError{Err: exec.ErrNotFound}, issue.GoToolchainNotFoundId, ExitFailure},
		{"checksum", &checksum.MismatchError{Filename: "a"}, issue.ChecksumMismatchId, ExitVerifyFailed},
		{"archive not found", &extractor.ArchiveNotFoundError{Tried: []string{"a"}}, issue.ArchiveNotFoundId, sfxrun.ExitArchiveNotFound},
		{"extraction failed", &extractor.ExtractionFailedError{Target: "t", Err: errors.New("x")}, issue.ExtractionFailedId, ExitFailure},
		{"permission", fmt.Errorf("open: %w", os.ErrPermission), issue.PermissionDeniedId, ExitFailure},
		{"unknown", errors.New("something else"), 0, ExitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			id, code, styled := classifyError(tt.err, false)
			if id != tt.wantID {
				t.Errorf("issue id = %d, want %d", id, tt.wantID)
			}
			if code != tt.wantCode {
				t.Errorf("exit code = %d, want %d", code, tt.wantCode)
			}
			if !strings.Contains(styled, tt.err.Error()) {
				t.Errorf("styled message %q does not contain the error", styled)
			}
		})
	}
}

func TestAsServiceError(t *testing.T) {
	t.Parallel()

	if asServiceError(nil, false) != nil {
		t.Error("asServiceError(nil) != nil")
	}

	preset := &ExitError{Code: 7}
	if got := asServiceError(preset, false); got != preset {
		t.Errorf("ExitError was rewrapped: %v", got)
	}
}

func TestRenderServiceError(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	renderServiceError(&buf, nil)
	if buf.Len() != 0 {
		t.Errorf("expected no output for nil ServiceError, got %q", buf.String())
	}

	renderServiceError(&buf, newServiceError(errors.New("x"), issue.CompileFailedId, "styled output\n"))
	out := buf.String()
	if !strings.HasPrefix(out, "styled output\n") {
		t.Errorf("output does not start with the styled message: %q", out)
	}
	if len(out) <= len("styled output\n") {
		t.Error("issue catalog entry was not rendered")
	}
}
