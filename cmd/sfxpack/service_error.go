// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/sfxpack/sfxpack/internal/archive"
	"github.com/sfxpack/sfxpack/internal/compiler"
	"github.com/sfxpack/sfxpack/internal/config"
	"github.com/sfxpack/sfxpack/internal/issue"
	"github.com/sfxpack/sfxpack/pkg/checksum"
	"github.com/sfxpack/sfxpack/pkg/extractor"
	"github.com/sfxpack/sfxpack/pkg/request"
	"github.com/sfxpack/sfxpack/pkg/sfxrun"
)

// ServiceError is an error that carries optional rendering information for
// the CLI layer. Always create via newServiceError.
type ServiceError struct {
	// Err is the underlying error (must not be nil).
	Err error
	// IssueID is the optional issue catalog ID for rendering help text.
	IssueID issue.Id
	// StyledMessage is the optional pre-rendered styled error text.
	StyledMessage string
}

// newServiceError creates a ServiceError with a nil-Err panic guard.
func newServiceError(err error, issueID issue.Id, styledMessage string) *ServiceError {
	if err == nil {
		panic("ServiceError: Err must not be nil")
	}
	return &ServiceError{
		Err:           err,
		IssueID:       issueID,
		StyledMessage: styledMessage,
	}
}

// Error implements the error interface.
func (e *ServiceError) Error() string { return e.Err.Error() }

// Unwrap returns the underlying error for errors.Is/As chains.
func (e *ServiceError) Unwrap() error { return e.Err }

// classifyError maps pipeline failures to issue catalog IDs and exit codes
// and returns the styled message printed before the catalog entry.
func classifyError(err error, verbose bool) (issueID issue.Id, code int, styledMsg string) {
	code = ExitFailure

	var unsupported *request.UnsupportedFormatError
	var reqErr *request.ConfigurationError
	var ae *issue.ActionableError
	switch {
	case errors.As(err, &unsupported):
		issueID, code = issue.RequestFileUnsupportedId, ExitUsage
	case errors.As(err, &reqErr) && strings.HasPrefix(reqErr.Field, "compiler."):
		issueID, code = issue.RuntimeModuleUnavailableId, ExitUsage
	case errors.Is(err, request.ErrInvalidRequest):
		issueID, code = issue.InvalidRequestId, ExitUsage
	case errors.Is(err, config.ErrInvalidConfig),
		errors.As(err, &ae) && strings.HasSuffix(ae.Operation, "configuration"):
		issueID, code = issue.ConfigLoadFailedId, ExitUsage
	case errors.Is(err, exec.ErrNotFound):
		issueID = issue.GoToolchainNotFoundId
	case errors.Is(err, compiler.ErrCompile):
		issueID = issue.CompileFailedId
	case errors.Is(err, checksum.ErrMismatch):
		issueID, code = issue.ChecksumMismatchId, ExitVerifyFailed
	case errors.Is(err, extractor.ErrArchiveNotFound):
		issueID, code = issue.ArchiveNotFoundId, sfxrun.ExitArchiveNotFound
	case errors.Is(err, extractor.ErrExtractionFailed):
		issueID = issue.ExtractionFailedId
	case errors.Is(err, os.ErrPermission):
		issueID = issue.PermissionDeniedId
	case errors.Is(err, archive.ErrArchiveWrite):
		issueID = issue.ArchiveWriteFailedId
		if errors.Is(err, os.ErrNotExist) {
			issueID = issue.FileNotFoundId
		}
	case errors.Is(err, os.ErrNotExist):
		issueID = issue.FileNotFoundId
	}

	return issueID, code, fmt.Sprintf("\n%s %s\n", ErrorStyle.Render("Error:"), formatErrorForDisplay(err, verbose))
}

// asServiceError classifies err into an ExitError carrying a ServiceError.
func asServiceError(err error, verbose bool) error {
	if err == nil {
		return nil
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return err
	}
	id, code, styled := classifyError(err, verbose)
	return &ExitError{Code: code, Err: newServiceError(err, id, styled)}
}

// renderServiceError prints any styled message first, then the optional
// issue help section.
func renderServiceError(stderr io.Writer, svcErr *ServiceError) {
	if svcErr == nil {
		return
	}

	if svcErr.StyledMessage != "" {
		fmt.Fprint(stderr, svcErr.StyledMessage)
	}

	if svcErr.IssueID == 0 {
		return
	}

	if catalogEntry := issue.Get(svcErr.IssueID); catalogEntry != nil {
		rendered, renderErr := catalogEntry.Render("dark")
		if renderErr != nil {
			log.Warn("failed to render issue catalog entry", "issueID", svcErr.IssueID, "error", renderErr)
		} else {
			fmt.Fprint(stderr, rendered)
		}
	}
}
