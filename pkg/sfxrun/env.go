// SPDX-License-Identifier: MPL-2.0

package sfxrun

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// EnvConfig holds the SFX_* overrides read at start-up.
type EnvConfig struct {
	TargetDir       string        `env:"SFX_TARGET_DIR"`
	NoDialog        bool          `env:"SFX_NO_DIALOG"`
	PromptTimeout   time.Duration `env:"SFX_PROMPT_TIMEOUT"`
	DialogTimeout   time.Duration `env:"SFX_DIALOG_TIMEOUT"`
	FallbackTimeout time.Duration `env:"SFX_FALLBACK_TIMEOUT"`
	NoPause         bool          `env:"SFX_NO_PAUSE"`
	Debug           bool          `env:"SFX_DEBUG"`
}

// LoadEnv parses the overrides from environ. A nil map reads the process
// environment.
func LoadEnv(environ map[string]string) (EnvConfig, error) {
	var cfg EnvConfig
	opts := env.Options{}
	if environ != nil {
		opts.Environment = environ
	}
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return EnvConfig{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// apply overlays non-zero overrides onto opts.
func (c EnvConfig) apply(opts Options) Options {
	if c.PromptTimeout > 0 {
		opts.PromptTimeout = c.PromptTimeout
	}
	if c.DialogTimeout > 0 {
		opts.DialogTimeout = c.DialogTimeout
	}
	if c.FallbackTimeout > 0 {
		opts.FallbackTimeout = c.FallbackTimeout
	}
	return opts
}
