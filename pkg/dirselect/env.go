// SPDX-License-Identifier: MPL-2.0

package dirselect

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"golang.org/x/term"
)

type (
	// SystemEnv is the Env backed by the running host.
	SystemEnv struct {
		In  io.Reader
		Out io.Writer
		// Interactive selects the form prompt instead of a plain line read.
		Interactive bool

		getenv    func(string) string
		lookPath  func(string) (string, error)
		runDialog func(context.Context, dialogCommand) (string, error)
		goos      string
	}

	// dialogCommand is one way of opening a folder picker.
	dialogCommand struct {
		name string
		args []string
	}
)

// NewSystemEnv returns an Env reading from stdin and writing to stderr.
func NewSystemEnv() *SystemEnv {
	return &SystemEnv{
		In:          os.Stdin,
		Out:         os.Stderr,
		Interactive: IsInteractive(os.Stdin, os.Stderr),
	}
}

// IsInteractive reports whether both in and out are terminals.
func IsInteractive(in, out *os.File) bool {
	if in == nil || out == nil {
		return false
	}
	return term.IsTerminal(int(in.Fd())) && term.IsTerminal(int(out.Fd()))
}

// Dialog runs the native folder pickers in turn. A picker that breaks hands
// over to the next one; a choice or a cancellation ends the search.
func (e *SystemEnv) Dialog(ctx context.Context, title string) (string, error) {
	commands, err := dialogCommands(e.hostOS(), title, e.env)
	if err != nil {
		return "", err
	}

	run := runDialog
	if e.runDialog != nil {
		run = e.runDialog
	}

	var errs []error
	for _, c := range commands {
		if _, lookErr := e.look(c.name); lookErr != nil {
			continue
		}
		path, err := run(ctx, c)
		if err == nil || errors.Is(err, ErrCancelled) || errors.Is(err, ErrEmptySelection) || ctx.Err() != nil {
			return path, err
		}
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return "", errors.Join(errs...)
	}
	return "", ErrUnavailable
}

// Prompt asks for a path on the console.
func (e *SystemEnv) Prompt(ctx context.Context, req PromptRequest) (string, error) {
	out := e.Out
	if out == nil {
		out = io.Discard
	}
	if e.Interactive {
		return formPrompt(ctx, req, out)
	}
	if e.In == nil {
		return "", ErrUnavailable
	}
	if _, err := io.WriteString(out, req.Rendered); err != nil {
		return "", err
	}
	return readLine(ctx, e.In)
}

// IsDir reports whether path is an existing directory.
func (e *SystemEnv) IsDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// HomeDir returns the user's home directory.
func (e *SystemEnv) HomeDir() (string, error) {
	return os.UserHomeDir()
}

// GOOS names the host operating system.
func (e *SystemEnv) GOOS() string { return e.hostOS() }

func (e *SystemEnv) hostOS() string {
	if e.goos != "" {
		return e.goos
	}
	return runtime.GOOS
}

func (e *SystemEnv) env(key string) string {
	if e.getenv != nil {
		return e.getenv(key)
	}
	return os.Getenv(key)
}

func (e *SystemEnv) look(name string) (string, error) {
	if e.lookPath != nil {
		return e.lookPath(name)
	}
	return exec.LookPath(name)
}

// dialogCommands lists the picker commands to try on goos, in order.
func dialogCommands(goos, title string, getenv func(string) string) ([]dialogCommand, error) {
	switch goos {
	case "windows":
		script := strings.Join([]string{
			"Add-Type -AssemblyName System.Windows.Forms",
			"$d = New-Object System.Windows.Forms.FolderBrowserDialog",
			"$d.Description = '" + strings.ReplaceAll(title, "'", "''") + "'",
			"$d.ShowNewFolderButton = $true",
			"if ($d.ShowDialog() -eq [System.Windows.Forms.DialogResult]::OK) { $d.SelectedPath } else { exit 1 }",
		}, "; ")
		return []dialogCommand{
			{name: "powershell", args: []string{"-NoProfile", "-NonInteractive", "-STA", "-Command", script}},
		}, nil
	case "darwin":
		quoted := strings.ReplaceAll(strings.ReplaceAll(title, `\`, `\\`), `"`, `\"`)
		return []dialogCommand{
			{name: "osascript", args: []string{"-e", `POSIX path of (choose folder with prompt "` + quoted + `")`}},
		}, nil
	default:
		if getenv("DISPLAY") == "" && getenv("WAYLAND_DISPLAY") == "" {
			return nil, fmt.Errorf("%w: no graphical session", ErrUnavailable)
		}
		return []dialogCommand{
			{name: "zenity", args: []string{"--file-selection", "--directory", "--title=" + title}},
			{name: "kdialog", args: []string{"--getexistingdirectory", ".", "--title", title}},
		}, nil
	}
}

func runDialog(ctx context.Context, c dialogCommand) (string, error) {
	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, c.name, c.args...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
			return "", ErrCancelled
		}
		return "", fmt.Errorf("%s failed: %w: %s", c.name, err, strings.TrimSpace(stderr.String()))
	}

	path := strings.TrimSpace(stdout.String())
	if path == "" {
		return "", ErrEmptySelection
	}
	return path, nil
}

func timeUntil(t time.Time) time.Duration {
	d := time.Until(t)
	if d <= 0 {
		return time.Millisecond
	}
	return d
}
