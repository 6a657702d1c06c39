// SPDX-License-Identifier: MPL-2.0

package extractor

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrArchiveNotFound is the sentinel wrapped by ArchiveNotFoundError.
	ErrArchiveNotFound = errors.New("archive not found")
	// ErrExtractionFailed is the sentinel wrapped by ExtractionFailedError.
	ErrExtractionFailed = errors.New("extraction failed")
	// ErrUnsafePath is returned for archive entries that would land outside
	// the target directory.
	ErrUnsafePath = errors.New("unsafe archive entry path")
	// ErrToolNotFound is returned by Tools when a utility is not installed.
	ErrToolNotFound = errors.New("extraction utility not found")
)

type (
	// ArchiveNotFoundError lists every location that was probed.
	ArchiveNotFoundError struct {
		Tried []string
	}

	// ExtractionFailedError reports that no tier could extract the archive.
	ExtractionFailedError struct {
		// ArchiveCopy is where the archive was delivered for manual
		// extraction. Empty if the delivery copy failed too.
		ArchiveCopy string
		Target      string
		Err         error
	}

	// UnsafePathError names an entry rejected by the path check.
	UnsafePathError struct {
		Entry string
	}

	// ToolError carries the captured output of a failed utility run.
	ToolError struct {
		Tool   string
		Output string
		Err    error
	}
)

// Error implements the error interface.
func (e *ArchiveNotFoundError) Error() string {
	return fmt.Sprintf("archive not found; tried %s", strings.Join(e.Tried, ", "))
}

// Unwrap returns ErrArchiveNotFound.
func (e *ArchiveNotFoundError) Unwrap() error { return ErrArchiveNotFound }

// Error implements the error interface.
func (e *ExtractionFailedError) Error() string {
	if e.ArchiveCopy != "" {
		return fmt.Sprintf("extraction into %s failed, archive copied to %s: %v", e.Target, e.ArchiveCopy, e.Err)
	}
	return fmt.Sprintf("extraction into %s failed: %v", e.Target, e.Err)
}

// Unwrap returns the sentinel and the cause.
func (e *ExtractionFailedError) Unwrap() []error { return []error{ErrExtractionFailed, e.Err} }

// Error implements the error interface.
func (e *UnsafePathError) Error() string {
	return fmt.Sprintf("entry %q escapes the target directory", e.Entry)
}

// Unwrap returns ErrUnsafePath.
func (e *UnsafePathError) Unwrap() error { return ErrUnsafePath }

// Error implements the error interface.
func (e *ToolError) Error() string {
	if e.Output == "" {
		return fmt.Sprintf("%s: %v", e.Tool, e.Err)
	}
	return fmt.Sprintf("%s: %v: %s", e.Tool, e.Err, e.Output)
}

// Unwrap returns the underlying error.
func (e *ToolError) Unwrap() error { return e.Err }
