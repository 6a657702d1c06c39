// SPDX-License-Identifier: MPL-2.0

package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/sfxpack/sfxpack/pkg/dirselect"
	"github.com/sfxpack/sfxpack/pkg/extractor"
	"github.com/sfxpack/sfxpack/pkg/platform"
)

// ErrInvalidConfig is the sentinel error wrapped by InvalidConfigError.
var ErrInvalidConfig = errors.New("invalid config")

type (
	// InvalidConfigError is returned when a Config has invalid fields.
	// It wraps ErrInvalidConfig for errors.Is() compatibility and collects
	// field-level validation errors.
	InvalidConfigError struct {
		FieldErrors []error
	}

	// Config holds the application configuration.
	Config struct {
		Build     BuildConfig     `json:"build" mapstructure:"build"`
		Compiler  CompilerConfig  `json:"compiler" mapstructure:"compiler"`
		Extractor ExtractorConfig `json:"extractor" mapstructure:"extractor"`
		UI        UIConfig        `json:"ui" mapstructure:"ui"`
	}

	// BuildConfig holds defaults for package requests.
	BuildConfig struct {
		// Target is the default "<os>/<arch>" of built executables.
		Target         string `json:"target" mapstructure:"target"`
		OutputDir      string `json:"output_dir" mapstructure:"output_dir"`
		IncludeVersion bool   `json:"include_version" mapstructure:"include_version"`
		// Manifest enables checksums.txt and the build manifest.
		Manifest bool     `json:"manifest" mapstructure:"manifest"`
		Exclude  []string `json:"exclude" mapstructure:"exclude"`
	}

	// CompilerConfig configures the Go toolchain used for bootstrap programs.
	CompilerConfig struct {
		GoBinary       string `json:"go_binary" mapstructure:"go_binary"`
		RuntimeModule  string `json:"runtime_module" mapstructure:"runtime_module"`
		RuntimeVersion string `json:"runtime_version" mapstructure:"runtime_version"`
		// RuntimeModuleDir points the generated go.mod at a local checkout.
		RuntimeModuleDir string `json:"runtime_module_dir" mapstructure:"runtime_module_dir"`
		LDFlags          string `json:"ldflags" mapstructure:"ldflags"`
		TrimPath         bool   `json:"trimpath" mapstructure:"trimpath"`
	}

	// ExtractorConfig holds the tunables compiled into generated programs.
	ExtractorConfig struct {
		PromptTimeout   time.Duration `json:"prompt_timeout" mapstructure:"prompt_timeout"`
		DialogTimeout   time.Duration `json:"dialog_timeout" mapstructure:"dialog_timeout"`
		FallbackTimeout time.Duration `json:"fallback_timeout" mapstructure:"fallback_timeout"`
		DefaultRoots    []string      `json:"default_roots" mapstructure:"default_roots"`
	}

	// UIConfig configures the user interface.
	UIConfig struct {
		Verbose bool `json:"verbose" mapstructure:"verbose"`
	}
)

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Build: BuildConfig{
			Target:         string(platform.DefaultTarget),
			OutputDir:      ".",
			IncludeVersion: true,
			Manifest:       true,
		},
		Compiler: CompilerConfig{
			GoBinary: "go",
			LDFlags:  "-s -w",
			TrimPath: true,
		},
		Extractor: ExtractorConfig{
			PromptTimeout:   dirselect.DefaultPromptTimeout,
			DialogTimeout:   dirselect.DefaultDialogTimeout,
			FallbackTimeout: extractor.DefaultFallbackTimeout,
		},
	}
}

// Error implements the error interface.
func (e *InvalidConfigError) Error() string {
	msgs := make([]string, len(e.FieldErrors))
	for i, err := range e.FieldErrors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("invalid config: %s", strings.Join(msgs, "; "))
}

// Unwrap returns ErrInvalidConfig for errors.Is() compatibility.
func (e *InvalidConfigError) Unwrap() error { return ErrInvalidConfig }

// Validate checks constraints the CUE schema cannot express.
func (c *Config) Validate() error {
	var errs []error

	if _, err := platform.ParseID(c.Build.Target); err != nil {
		errs = append(errs, fmt.Errorf("build.target: %w", err))
	}
	for i, pattern := range c.Build.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			errs = append(errs, fmt.Errorf("build.exclude[%d]: invalid pattern %q", i, pattern))
		}
	}
	for _, d := range []struct {
		key   string
		value time.Duration
	}{
		{"extractor.prompt_timeout", c.Extractor.PromptTimeout},
		{"extractor.dialog_timeout", c.Extractor.DialogTimeout},
		{"extractor.fallback_timeout", c.Extractor.FallbackTimeout},
	} {
		if d.value < 0 {
			errs = append(errs, fmt.Errorf("%s: must not be negative", d.key))
		}
	}

	if len(errs) > 0 {
		return &InvalidConfigError{FieldErrors: errs}
	}
	return nil
}
