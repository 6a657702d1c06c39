// SPDX-License-Identifier: MPL-2.0

package platform

import (
	"errors"
	"fmt"
	"runtime"
	"slices"
	"strings"
)

// DefaultTarget is the platform installers are built for when nothing else
// is configured. Self-extracting installers are overwhelmingly shipped to
// Windows desktops.
const DefaultTarget ID = "windows/amd64"

var (
	// ErrInvalidTarget is the sentinel wrapped by InvalidTargetError.
	ErrInvalidTarget = errors.New("invalid target platform")

	supportedOS   = []string{Windows, Darwin, Linux, "freebsd"}
	supportedArch = []string{"amd64", "arm64", "386", "arm"}
)

type (
	// ID identifies a compilation target as "<goos>/<goarch>", e.g. "windows/amd64".
	ID string

	// InvalidTargetError is returned when an ID is malformed or names an
	// unsupported OS or architecture. It wraps ErrInvalidTarget.
	InvalidTargetError struct {
		Value  ID
		Reason string
	}
)

// Error implements the error interface.
func (e *InvalidTargetError) Error() string {
	return fmt.Sprintf("invalid target platform %q: %s", string(e.Value), e.Reason)
}

// Unwrap returns ErrInvalidTarget for errors.Is() compatibility.
func (e *InvalidTargetError) Unwrap() error { return ErrInvalidTarget }

// Host returns the ID of the platform the current process runs on.
func Host() ID {
	return ID(runtime.GOOS + "/" + runtime.GOARCH)
}

// ParseID parses and validates a target string. An empty string yields DefaultTarget.
func ParseID(s string) (ID, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if s == "" {
		return DefaultTarget, nil
	}
	id := ID(s)
	if err := id.Validate(); err != nil {
		return "", err
	}
	return id, nil
}

// Validate reports whether the ID names a supported target.
func (id ID) Validate() error {
	goos, goarch, ok := strings.Cut(string(id), "/")
	if !ok || goos == "" || goarch == "" {
		return &InvalidTargetError{Value: id, Reason: `expected "<os>/<arch>"`}
	}
	if !slices.Contains(supportedOS, goos) {
		return &InvalidTargetError{Value: id, Reason: fmt.Sprintf("unsupported os %q", goos)}
	}
	if !slices.Contains(supportedArch, goarch) {
		return &InvalidTargetError{Value: id, Reason: fmt.Sprintf("unsupported arch %q", goarch)}
	}
	return nil
}

// OS returns the GOOS part of the ID.
func (id ID) OS() string {
	goos, _, _ := strings.Cut(string(id), "/")
	return goos
}

// Arch returns the GOARCH part of the ID.
func (id ID) Arch() string {
	_, goarch, _ := strings.Cut(string(id), "/")
	return goarch
}

// ExecutableSuffix returns ".exe" for Windows targets and "" otherwise.
func (id ID) ExecutableSuffix() string {
	if id.OS() == Windows {
		return ".exe"
	}
	return ""
}

// String implements fmt.Stringer.
func (id ID) String() string { return string(id) }
