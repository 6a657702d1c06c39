// SPDX-License-Identifier: MPL-2.0

package dirselect

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"time"

	"github.com/sfxpack/sfxpack/pkg/chain"
)

// Tier names reported in Result.Tier.
const (
	TierPreset  = "preset"
	TierDialog  = "dialog"
	TierPrompt  = "prompt"
	TierDefault = "default"
)

const (
	// DefaultDialogTimeout bounds the native folder dialog.
	DefaultDialogTimeout = 5 * time.Minute
	// DefaultPromptTimeout bounds the text prompt.
	DefaultPromptTimeout = 2 * time.Minute
)

var (
	// ErrUnavailable is returned by Env.Dialog when no dialog helper can run
	// on this host.
	ErrUnavailable = errors.New("folder dialog unavailable")
	// ErrCancelled is returned when the user dismissed a dialog or prompt.
	ErrCancelled = errors.New("selection cancelled")
	// ErrEmptySelection is the skip reason for a tier that produced no path.
	ErrEmptySelection = errors.New("empty selection")
)

type (
	// Env is the set of host capabilities the chain needs.
	Env interface {
		// Dialog shows a native folder picker and returns the chosen path.
		Dialog(ctx context.Context, title string) (string, error)
		// Prompt asks for a path on the console and returns the raw line.
		Prompt(ctx context.Context, req PromptRequest) (string, error)
		// IsDir reports whether path is an existing directory.
		IsDir(path string) bool
		// HomeDir returns the user's home directory.
		HomeDir() (string, error)
		// GOOS names the host operating system.
		GOOS() string
	}

	// PromptRequest is what the prompt tier shows the user.
	PromptRequest struct {
		Title    string
		Examples []string
		// Rendered is the styled prompt text for line-based consoles.
		Rendered string
	}

	// Options tunes Select.
	Options struct {
		AppName       string
		DialogTimeout time.Duration
		PromptTimeout time.Duration
		// Roots overrides the default-tier candidates. Empty means
		// DefaultRoots for the host.
		Roots []string
		// Preset, when non-empty, is used as-is and no tier runs.
		Preset string
		// NoDialog skips the dialog tier.
		NoDialog bool
		// Observer is notified after each tier.
		Observer chain.Observer
	}

	// Result is the chosen directory and how it was chosen.
	Result struct {
		Path  string
		Tier  string
		Trace chain.Trace
	}
)

// Select runs the strategy chain and returns a non-empty directory path.
func Select(ctx context.Context, env Env, opts Options) Result {
	if preset := CleanInput(opts.Preset, env); preset != "" {
		return Result{Path: preset, Tier: TierPreset}
	}

	if opts.DialogTimeout <= 0 {
		opts.DialogTimeout = DefaultDialogTimeout
	}
	if opts.PromptTimeout <= 0 {
		opts.PromptTimeout = DefaultPromptTimeout
	}

	home, homeErr := env.HomeDir()
	if homeErr != nil {
		home = ""
	}
	roots := opts.Roots
	if len(roots) == 0 {
		roots = DefaultRoots(home, env.GOOS())
	}

	steps := []chain.Step[string]{
		{Name: TierDialog, Try: func(ctx context.Context) chain.Attempt[string] {
			if opts.NoDialog {
				return chain.Skip[string](ErrUnavailable)
			}
			return tryDialog(ctx, env, opts)
		}},
		{Name: TierPrompt, Try: func(ctx context.Context) chain.Attempt[string] {
			return tryPrompt(ctx, env, opts, roots)
		}},
		{Name: TierDefault, Try: func(context.Context) chain.Attempt[string] {
			return chain.Succeed(pickDefault(env, roots, home))
		}},
	}

	path, tier, trace, err := chain.Run(ctx, steps, opts.Observer)
	if err != nil {
		// The default tier always answers Done.
		return Result{Path: desktop(home), Tier: TierDefault, Trace: trace}
	}
	return Result{Path: path, Tier: tier, Trace: trace}
}

func tryDialog(ctx context.Context, env Env, opts Options) chain.Attempt[string] {
	ctx, cancel := context.WithTimeout(ctx, opts.DialogTimeout)
	defer cancel()

	title := "Select where to extract"
	if opts.AppName != "" {
		title = "Select where to extract " + opts.AppName
	}
	path, err := env.Dialog(ctx, title)
	if err != nil {
		return chain.Skip[string](err)
	}
	if path = CleanInput(path, env); path == "" {
		return chain.Skip[string](ErrEmptySelection)
	}
	return chain.Succeed(path)
}

func tryPrompt(ctx context.Context, env Env, opts Options, roots []string) chain.Attempt[string] {
	ctx, cancel := context.WithTimeout(ctx, opts.PromptTimeout)
	defer cancel()

	req := PromptRequest{
		Title:    "Where should the files be extracted?",
		Examples: roots,
	}
	if opts.AppName != "" {
		req.Title = "Where should " + opts.AppName + " be extracted?"
	}
	req.Rendered = RenderPrompt(req)

	line, err := env.Prompt(ctx, req)
	if err != nil {
		return chain.Skip[string](err)
	}
	path := CleanInput(line, env)
	if path == "" {
		return chain.Skip[string](ErrEmptySelection)
	}
	return chain.Succeed(path)
}

func pickDefault(env Env, roots []string, home string) string {
	for _, root := range roots {
		if root != "" && env.IsDir(root) {
			return root
		}
	}
	return desktop(home)
}

// DefaultRoots lists the well-known extraction locations probed by the
// default tier, in priority order.
func DefaultRoots(home, goos string) []string {
	roots := []string{desktop(home)}
	if home != "" {
		roots = append(roots, filepath.Join(home, "Games"))
	}
	if goos == "windows" {
		roots = append(roots,
			`C:\Games`,
			`D:\Games`,
			`C:\Program Files (x86)\Steam\steamapps\common`,
		)
	}
	return roots
}

func desktop(home string) string {
	if home == "" {
		return filepath.Join(".", "Desktop")
	}
	return filepath.Join(home, "Desktop")
}

// CleanInput normalizes a user-supplied path: surrounding whitespace and
// quotes are removed and a leading ~ is expanded. Any other non-empty text is
// accepted unchanged.
func CleanInput(s string, env Env) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') || (s[0] == '\'' && s[len(s)-1] == '\'') {
			s = strings.TrimSpace(s[1 : len(s)-1])
		}
	}
	if s == "~" || strings.HasPrefix(s, "~/") || strings.HasPrefix(s, `~\`) {
		if home, err := env.HomeDir(); err == nil && home != "" {
			s = filepath.Join(home, s[1:])
		}
	}
	return s
}
