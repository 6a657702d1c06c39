// SPDX-License-Identifier: MPL-2.0

package dirselect

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/sfxpack/sfxpack/pkg/chain"
)

type fakeEnv struct {
	dialogPath string
	dialogErr  error
	promptLine string
	promptErr  error
	dirs       map[string]bool
	home       string
	homeErr    error
	goos       string

	dialogCalls int
	promptCalls int
	lastPrompt  PromptRequest
}

func (f *fakeEnv) Dialog(ctx context.Context, _ string) (string, error) {
	f.dialogCalls++
	if _, ok := ctx.Deadline(); !ok {
		return "", errors.New("dialog called without a deadline")
	}
	return f.dialogPath, f.dialogErr
}

func (f *fakeEnv) Prompt(_ context.Context, req PromptRequest) (string, error) {
	f.promptCalls++
	f.lastPrompt = req
	return f.promptLine, f.promptErr
}

func (f *fakeEnv) IsDir(path string) bool { return f.dirs[path] }

func (f *fakeEnv) HomeDir() (string, error) { return f.home, f.homeErr }

func (f *fakeEnv) GOOS() string {
	if f.goos == "" {
		return "linux"
	}
	return f.goos
}

func TestSelect(t *testing.T) {
	t.Parallel()

	home := filepath.Join(string(filepath.Separator), "home", "player")

	tests := []struct {
		name     string
		env      *fakeEnv
		opts     Options
		wantPath string
		wantTier string
	}{
		{
			name:     "dialog selection wins",
			env:      &fakeEnv{dialogPath: "/srv/games", home: home},
			wantPath: "/srv/games",
			wantTier: TierDialog,
		},
		{
			name:     "dialog unavailable falls through to prompt",
			env:      &fakeEnv{dialogErr: ErrUnavailable, promptLine: `  "/opt/my game"  `, home: home},
			wantPath: "/opt/my game",
			wantTier: TierPrompt,
		},
		{
			name:     "prompt expands home",
			env:      &fakeEnv{dialogErr: ErrCancelled, promptLine: "~/Apps", home: home},
			wantPath: filepath.Join(home, "Apps"),
			wantTier: TierPrompt,
		},
		{
			name:     "prompt text is accepted unconditionally",
			env:      &fakeEnv{dialogErr: ErrUnavailable, promptLine: "not/a/real/dir", home: home},
			wantPath: "not/a/real/dir",
			wantTier: TierPrompt,
		},
		{
			name:     "dialog unavailable and empty prompt give the desktop",
			env:      &fakeEnv{dialogErr: ErrUnavailable, promptLine: "   ", home: home},
			wantPath: filepath.Join(home, "Desktop"),
			wantTier: TierDefault,
		},
		{
			name: "first existing root wins",
			env: &fakeEnv{
				dialogErr: ErrUnavailable,
				promptErr: context.DeadlineExceeded,
				home:      home,
				dirs:      map[string]bool{filepath.Join(home, "Games"): true},
			},
			wantPath: filepath.Join(home, "Games"),
			wantTier: TierDefault,
		},
		{
			name: "windows roots are probed",
			env: &fakeEnv{
				dialogErr: ErrUnavailable,
				home:      home,
				goos:      "windows",
				dirs:      map[string]bool{`D:\Games`: true},
			},
			wantPath: `D:\Games`,
			wantTier: TierDefault,
		},
		{
			name:     "unknown home still yields a path",
			env:      &fakeEnv{dialogErr: ErrUnavailable, homeErr: errors.New("no home")},
			wantPath: filepath.Join(".", "Desktop"),
			wantTier: TierDefault,
		},
		{
			name:     "custom roots",
			env:      &fakeEnv{dialogErr: ErrUnavailable, home: home, dirs: map[string]bool{"/b": true}},
			opts:     Options{Roots: []string{"/a", "/b"}},
			wantPath: "/b",
			wantTier: TierDefault,
		},
		{
			name:     "preset short-circuits",
			env:      &fakeEnv{dialogPath: "/never", home: home},
			opts:     Options{Preset: "/preset"},
			wantPath: "/preset",
			wantTier: TierPreset,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			res := Select(context.Background(), tt.env, tt.opts)
			if res.Path != tt.wantPath {
				t.Errorf("Path = %q, want %q", res.Path, tt.wantPath)
			}
			if res.Tier != tt.wantTier {
				t.Errorf("Tier = %q, want %q", res.Tier, tt.wantTier)
			}
			if res.Path == "" {
				t.Error("Select() returned an empty path")
			}
		})
	}
}

func TestSelectTrace(t *testing.T) {
	t.Parallel()

	env := &fakeEnv{dialogErr: ErrUnavailable, promptLine: "", home: "/h"}
	var observed []string
	res := Select(context.Background(), env, Options{
		AppName:  "Demo",
		Observer: func(e chain.TraceEntry) { observed = append(observed, e.Step) },
	})

	want := []string{TierDialog, TierPrompt, TierDefault}
	if !slices.Equal(observed, want) {
		t.Errorf("observed %v, want %v", observed, want)
	}
	if len(res.Trace) != 3 {
		t.Fatalf("trace has %d entries, want 3", len(res.Trace))
	}
	if !errors.Is(res.Trace[0].Reason, ErrUnavailable) {
		t.Errorf("dialog reason = %v, want ErrUnavailable", res.Trace[0].Reason)
	}
	if !errors.Is(res.Trace[1].Reason, ErrEmptySelection) {
		t.Errorf("prompt reason = %v, want ErrEmptySelection", res.Trace[1].Reason)
	}
	if env.lastPrompt.Title != "Where should Demo be extracted?" {
		t.Errorf("prompt title = %q", env.lastPrompt.Title)
	}
	if env.lastPrompt.Rendered == "" || len(env.lastPrompt.Examples) == 0 {
		t.Error("prompt request should carry rendered text and examples")
	}
}

func TestSelectNoDialog(t *testing.T) {
	t.Parallel()

	env := &fakeEnv{dialogPath: "/from/dialog", promptLine: "/from/prompt", home: "/h"}
	res := Select(context.Background(), env, Options{NoDialog: true})
	if env.dialogCalls != 0 {
		t.Errorf("dialog called %d times, want 0", env.dialogCalls)
	}
	if res.Path != "/from/prompt" {
		t.Errorf("Path = %q, want /from/prompt", res.Path)
	}
}

func TestDefaultRoots(t *testing.T) {
	t.Parallel()

	linux := DefaultRoots("/home/u", "linux")
	if want := []string{filepath.Join("/home/u", "Desktop"), filepath.Join("/home/u", "Games")}; !slices.Equal(linux, want) {
		t.Errorf("linux roots = %v, want %v", linux, want)
	}

	windows := DefaultRoots("/home/u", "windows")
	if len(windows) != 5 || windows[2] != `C:\Games` {
		t.Errorf("windows roots = %v", windows)
	}

	if noHome := DefaultRoots("", "linux"); len(noHome) != 1 || noHome[0] != filepath.Join(".", "Desktop") {
		t.Errorf("roots without home = %v", noHome)
	}
}

func TestDialogCommands(t *testing.T) {
	t.Parallel()

	noDisplay := func(string) string { return "" }
	if _, err := dialogCommands("linux", "x", noDisplay); !errors.Is(err, ErrUnavailable) {
		t.Errorf("headless linux error = %v, want ErrUnavailable", err)
	}

	wayland := func(k string) string {
		if k == "WAYLAND_DISPLAY" {
			return "wayland-0"
		}
		return ""
	}
	cmds, err := dialogCommands("linux", "Pick", wayland)
	if err != nil {
		t.Fatal(err)
	}
	if len(cmds) != 2 || cmds[0].name != "zenity" || cmds[1].name != "kdialog" {
		t.Errorf("linux commands = %+v", cmds)
	}

	cmds, err = dialogCommands("windows", "It's mine", noDisplay)
	if err != nil || len(cmds) != 1 || cmds[0].name != "powershell" {
		t.Fatalf("windows commands = %+v, %v", cmds, err)
	}
	if script := cmds[0].args[len(cmds[0].args)-1]; !strings.Contains(script, "'It''s mine'") {
		t.Errorf("title not escaped in %q", script)
	}

	cmds, err = dialogCommands("darwin", `say "hi"`, noDisplay)
	if err != nil || cmds[0].name != "osascript" || !strings.Contains(cmds[0].args[1], `say \"hi\"`) {
		t.Errorf("darwin commands = %+v, %v", cmds, err)
	}
}

func TestSystemEnvDialogUnavailable(t *testing.T) {
	t.Parallel()

	env := &SystemEnv{
		goos:     "linux",
		getenv:   func(string) string { return ":0" },
		lookPath: func(string) (string, error) { return "", errors.New("not found") },
	}
	if _, err := env.Dialog(context.Background(), "x"); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Dialog() error = %v, want ErrUnavailable", err)
	}
}

func TestSystemEnvDialogFallsThrough(t *testing.T) {
	t.Parallel()

	broken := errors.New("zenity failed: exit status 255: cannot open display")
	tests := []struct {
		name      string
		results   map[string]error
		wantPath  string
		wantErr   error
		wantCalls []string
	}{
		{
			name:      "broken picker hands over",
			results:   map[string]error{"zenity": broken},
			wantPath:  "/picked/by/kdialog",
			wantCalls: []string{"zenity", "kdialog"},
		},
		{
			name:      "cancel ends the search",
			results:   map[string]error{"zenity": ErrCancelled},
			wantErr:   ErrCancelled,
			wantCalls: []string{"zenity"},
		},
		{
			name:      "every picker broken",
			results:   map[string]error{"zenity": broken, "kdialog": errors.New("kdialog crashed")},
			wantErr:   broken,
			wantCalls: []string{"zenity", "kdialog"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var calls []string
			env := &SystemEnv{
				goos:     "linux",
				getenv:   func(string) string { return ":0" },
				lookPath: func(name string) (string, error) { return "/usr/bin/" + name, nil },
				runDialog: func(_ context.Context, c dialogCommand) (string, error) {
					calls = append(calls, c.name)
					if err := tt.results[c.name]; err != nil {
						return "", err
					}
					return "/picked/by/" + c.name, nil
				},
			}

			path, err := env.Dialog(context.Background(), "Pick")
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("Dialog() error = %v, want %v", err, tt.wantErr)
				}
				if errors.Is(err, ErrUnavailable) {
					t.Error("a picker ran, so the dialog was not unavailable")
				}
			} else if err != nil || path != tt.wantPath {
				t.Errorf("Dialog() = %q, %v; want %q", path, err, tt.wantPath)
			}
			if !slices.Equal(calls, tt.wantCalls) {
				t.Errorf("pickers run = %v, want %v", calls, tt.wantCalls)
			}
		})
	}
}

func TestIsInteractive(t *testing.T) {
	t.Parallel()

	f, err := os.CreateTemp(t.TempDir(), "stdin")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if IsInteractive(f, f) {
		t.Error("IsInteractive() = true for a regular file")
	}
	if IsInteractive(nil, os.Stderr) {
		t.Error("IsInteractive() = true without stdin")
	}
}

func TestSystemEnvPromptLine(t *testing.T) {
	t.Parallel()

	var out strings.Builder
	env := &SystemEnv{In: strings.NewReader("/data/games\r\nignored\n"), Out: &out}
	line, err := env.Prompt(context.Background(), PromptRequest{Rendered: "where? "})
	if err != nil {
		t.Fatalf("Prompt() error = %v", err)
	}
	if line != "/data/games" {
		t.Errorf("Prompt() = %q, want /data/games", line)
	}
	if out.String() != "where? " {
		t.Errorf("rendered prompt = %q", out.String())
	}
}

func TestSystemEnvPromptTimeout(t *testing.T) {
	t.Parallel()

	r, w := io.Pipe()
	t.Cleanup(func() { _ = w.Close() })

	env := &SystemEnv{In: r, Out: io.Discard}
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := env.Prompt(ctx, PromptRequest{}); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Prompt() error = %v, want DeadlineExceeded", err)
	}
}

func TestRenderPrompt(t *testing.T) {
	t.Parallel()

	text := RenderPrompt(PromptRequest{Title: "Where?", Examples: []string{"/one", "/two"}})
	for _, want := range []string{"Where?", "/one", "/two", "> "} {
		if !strings.Contains(text, want) {
			t.Errorf("rendered prompt missing %q:\n%s", want, text)
		}
	}
}
