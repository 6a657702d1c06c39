// SPDX-License-Identifier: MPL-2.0

package request

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"github.com/sfxpack/sfxpack/pkg/platform"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/mod/semver"
)

const (
	// SidecarSuffix is appended to the derived name to form the archive filename.
	SidecarSuffix = "_archive"
	// ArchiveExt is the extension of the sidecar archive.
	ArchiveExt = "zip"
)

// ErrInvalidRequest is the sentinel wrapped by ConfigurationError.
var ErrInvalidRequest = errors.New("invalid package request")

type (
	// PackageRequest describes one installer build. Construct it with New or by
	// filling the fields and calling Validate; treat it as immutable afterwards.
	PackageRequest struct {
		AppName        string
		Version        string
		OutputDir      string
		IncludeVersion bool
		// Files are added at the archive root under their base names.
		Files []string
		// Folders are added recursively under their base names.
		Folders []string
		// OutputName overrides the derived name when non-empty.
		OutputName string
		Target     platform.ID
		// Exclude holds doublestar patterns matched against archive entry names.
		Exclude []string
	}

	// ConfigurationError reports a malformed or missing request field.
	// It wraps ErrInvalidRequest for errors.Is() compatibility.
	ConfigurationError struct {
		Field   string
		Problem string
	}
)

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid package request: %s: %s", e.Field, e.Problem)
}

// Unwrap returns ErrInvalidRequest.
func (e *ConfigurationError) Unwrap() error { return ErrInvalidRequest }

// New builds a request for appName/version with version-suffixed naming,
// the current directory as output and the default target, then validates it.
func New(appName, version string, files, folders []string) (PackageRequest, error) {
	req := PackageRequest{
		AppName:        appName,
		Version:        version,
		OutputDir:      ".",
		IncludeVersion: true,
		Files:          slices.Clone(files),
		Folders:        slices.Clone(folders),
		Target:         platform.DefaultTarget,
	}
	return req, req.Validate()
}

// Validate checks the request. All problems are reported, joined; each one
// is a *ConfigurationError.
func (r PackageRequest) Validate() error {
	var errs []error
	bad := func(field, problem string) {
		errs = append(errs, &ConfigurationError{Field: field, Problem: problem})
	}

	if strings.TrimSpace(r.AppName) == "" {
		bad("app_name", "must not be empty")
	}
	if strings.TrimSpace(r.Version) == "" {
		bad("version", "must not be empty")
	}
	if len(r.Files) == 0 && len(r.Folders) == 0 {
		bad("files/folders", "at least one file or folder is required")
	}
	for i, f := range r.Files {
		if strings.TrimSpace(f) == "" {
			bad(fmt.Sprintf("files[%d]", i), "must not be empty")
		}
	}
	for i, f := range r.Folders {
		if strings.TrimSpace(f) == "" {
			bad(fmt.Sprintf("folders[%d]", i), "must not be empty")
		}
	}
	if r.Target != "" {
		if err := r.Target.Validate(); err != nil {
			bad("target", err.Error())
		}
	}
	for i, pat := range r.Exclude {
		if !doublestar.ValidatePattern(pat) {
			bad(fmt.Sprintf("exclude[%d]", i), fmt.Sprintf("invalid pattern %q", pat))
		}
	}

	if len(errs) == 0 {
		name := r.DerivedName()
		switch {
		case strings.ContainsAny(name, `/\:*?"<>|`):
			bad("output_name", fmt.Sprintf("%q contains characters not allowed in file names", name))
		case r.target().OS() == platform.Windows && platform.IsWindowsReservedName(name):
			bad("output_name", fmt.Sprintf("%q is a reserved name on Windows", name))
		}
	}

	return errors.Join(errs...)
}

// Warnings lists non-fatal problems: listed paths that do not currently exist
// and versions that are not semantic versions.
func (r PackageRequest) Warnings() []string {
	var warnings []string
	for _, p := range slices.Concat(r.Files, r.Folders) {
		if _, err := os.Stat(p); err != nil {
			warnings = append(warnings, fmt.Sprintf("%s does not exist yet; the build will fail when it is archived", p))
		}
	}
	v := r.Version
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if r.Version != "" && !semver.IsValid(v) {
		warnings = append(warnings, fmt.Sprintf("version %q is not a semantic version", r.Version))
	}
	return warnings
}

// DerivedName is the base name shared by the executable and the sidecar.
func (r PackageRequest) DerivedName() string {
	if name := strings.TrimSpace(r.OutputName); name != "" {
		return name
	}
	name := strings.TrimSpace(r.AppName)
	if r.IncludeVersion {
		name += "-" + strings.TrimSpace(r.Version)
	}
	return name
}

// SidecarName is the exact filename compiled into the extractor and used for
// the shipped archive.
func (r PackageRequest) SidecarName() string {
	return r.DerivedName() + SidecarSuffix + "." + ArchiveExt
}

// ExecutableName is the derived name plus the target's executable suffix.
func (r PackageRequest) ExecutableName() string {
	return r.DerivedName() + r.target().ExecutableSuffix()
}

// TargetPlatform returns the target, defaulting to platform.DefaultTarget.
func (r PackageRequest) TargetPlatform() platform.ID {
	return r.target()
}

func (r PackageRequest) target() platform.ID {
	if r.Target == "" {
		return platform.DefaultTarget
	}
	return r.Target
}
