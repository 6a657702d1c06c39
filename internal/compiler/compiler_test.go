// SPDX-License-Identifier: MPL-2.0

package compiler

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"testing"

	"github.com/sfxpack/sfxpack/internal/bootstrap"
	"github.com/sfxpack/sfxpack/pkg/platform"
)

// fakeGo writes a shell script standing in for the go command.
func fakeGo(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake go binary is a shell script")
	}
	path := filepath.Join(t.TempDir(), "go")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func source(t *testing.T) *bootstrap.Source {
	t.Helper()
	src, err := bootstrap.Synthesize(bootstrap.Spec{AppDisplayName: "Demo", ArchiveSidecarName: "Demo_archive.zip"}, bootstrap.ModuleRef{})
	if err != nil {
		t.Fatal(err)
	}
	return src
}

func TestArgs(t *testing.T) {
	t.Parallel()

	g := NewGoToolchain()
	want := []string{"build", "-trimpath", "-ldflags", "-s -w", "-o", "/out/app", "."}
	if got := g.Args("/out/app"); !slices.Equal(got, want) {
		t.Errorf("Args() = %v, want %v", got, want)
	}

	bare := &GoToolchain{}
	if got := bare.Args("x"); !slices.Equal(got, []string{"build", "-o", "x", "."}) {
		t.Errorf("Args() = %v", got)
	}
}

func TestCompile(t *testing.T) {
	t.Parallel()

	t.Run("success writes sources and runs go", func(t *testing.T) {
		t.Parallel()

		// The script records its environment and creates the output named by -o.
		script := `out=""
while [ $# -gt 0 ]; do
  if [ "$1" = "-o" ]; then out="$2"; fi
  shift
done
echo "$GOOS/$GOARCH $CGO_ENABLED $GOFLAGS" > env.txt
printf 'binary' > "$out"`
		g := NewGoToolchain()
		g.GoBinary = fakeGo(t, script)

		work := t.TempDir()
		out := filepath.Join(t.TempDir(), "Demo.exe")
		err := g.Compile(context.Background(), CompileRequest{
			Source:     source(t),
			Platform:   platform.ID("windows/amd64"),
			OutputPath: out,
			WorkDir:    work,
		})
		if err != nil {
			t.Fatalf("Compile() error = %v", err)
		}

		for _, name := range []string{"main.go", "go.mod"} {
			if _, err := os.Stat(filepath.Join(work, name)); err != nil {
				t.Errorf("%s not written: %v", name, err)
			}
		}
		env, err := os.ReadFile(filepath.Join(work, "env.txt"))
		if err != nil {
			t.Fatal(err)
		}
		if got := strings.TrimSpace(string(env)); got != "windows/amd64 0 -mod=mod" {
			t.Errorf("compiler environment = %q", got)
		}
	})

	t.Run("failure keeps output verbatim", func(t *testing.T) {
		t.Parallel()

		g := NewGoToolchain()
		g.GoBinary = fakeGo(t, `echo "./main.go:5:2: undefined: nope" >&2; exit 1`)

		err := g.Compile(context.Background(), CompileRequest{
			Source:     source(t),
			Platform:   platform.ID("linux/amd64"),
			OutputPath: filepath.Join(t.TempDir(), "app"),
			WorkDir:    t.TempDir(),
		})
		if !errors.Is(err, ErrCompile) {
			t.Fatalf("Compile() error = %v, want ErrCompile", err)
		}
		var compileErr *CompileError
		if !errors.As(err, &compileErr) {
			t.Fatalf("error is %T", err)
		}
		if compileErr.Output != "./main.go:5:2: undefined: nope\n" {
			t.Errorf("Output = %q", compileErr.Output)
		}
		if compileErr.Platform != "linux/amd64" {
			t.Errorf("Platform = %q", compileErr.Platform)
		}
	})

	t.Run("clean exit without output file", func(t *testing.T) {
		t.Parallel()

		g := NewGoToolchain()
		g.GoBinary = fakeGo(t, "exit 0")

		err := g.Compile(context.Background(), CompileRequest{
			Source:     source(t),
			Platform:   platform.ID("linux/arm64"),
			OutputPath: filepath.Join(t.TempDir(), "app"),
			WorkDir:    t.TempDir(),
		})
		if !errors.Is(err, ErrCompile) {
			t.Errorf("Compile() error = %v, want ErrCompile", err)
		}
	})

	t.Run("invalid platform", func(t *testing.T) {
		t.Parallel()

		err := NewGoToolchain().Compile(context.Background(), CompileRequest{
			Source:   source(t),
			Platform: platform.ID("plan9/mips"),
			WorkDir:  t.TempDir(),
		})
		if !errors.Is(err, ErrCompile) || !errors.Is(err, platform.ErrInvalidTarget) {
			t.Errorf("Compile() error = %v", err)
		}
	})
}
