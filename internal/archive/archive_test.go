// SPDX-License-Identifier: MPL-2.0

package archive

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/klauspost/compress/zip"
)

// writeTree creates files under root from a map of slash-separated relative
// paths to contents.
func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

// readArchive returns the archive's file entries keyed by name.
func readArchive(t *testing.T, path string) map[string]string {
	t.Helper()
	zr, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("failed to open archive: %v", err)
	}
	defer zr.Close()

	out := map[string]string{}
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatal(err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatal(err)
		}
		out[f.Name] = string(data)
	}
	return out
}

func TestBuild(t *testing.T) {
	t.Parallel()

	t.Run("files are flattened and folders keep structure", func(t *testing.T) {
		t.Parallel()

		src := t.TempDir()
		writeTree(t, src, map[string]string{
			"docs/readme.txt":      "read me",
			"assets/a.png":         "png bytes",
			"assets/sub/b.txt":     "nested",
			"assets/sub/deep/c.md": "deeper",
		})

		var progress bytes.Buffer
		dest := filepath.Join(t.TempDir(), "out_archive.zip")
		a, err := Build(context.Background(), Options{
			Files:   []string{filepath.Join(src, "docs", "readme.txt")},
			Folders: []string{filepath.Join(src, "assets")},
			Logger:  log.New(&progress),
		}, dest)
		if err != nil {
			t.Fatalf("Build() error = %v", err)
		}

		got := readArchive(t, dest)
		want := map[string]string{
			"readme.txt":           "read me",
			"assets/a.png":         "png bytes",
			"assets/sub/b.txt":     "nested",
			"assets/sub/deep/c.md": "deeper",
		}
		if len(got) != len(want) {
			t.Fatalf("archive has %d entries, want %d: %v", len(got), len(want), got)
		}
		for name, content := range want {
			if got[name] != content {
				t.Errorf("entry %q = %q, want %q", name, got[name], content)
			}
		}
		if len(a.Entries) != 4 {
			t.Errorf("Archive.Entries has %d entries, want 4", len(a.Entries))
		}
		if a.Size <= 0 || a.ContentBytes != int64(len("read me")+len("png bytes")+len("nested")+len("deeper")) {
			t.Errorf("unexpected sizes: %+v", a)
		}
		for name := range want {
			if !strings.Contains(progress.String(), name) {
				t.Errorf("progress output does not mention %q", name)
			}
		}
	})

	t.Run("entry count equals resolvable files", func(t *testing.T) {
		t.Parallel()

		src := t.TempDir()
		tree := map[string]string{"one.txt": "1", "two.txt": "2"}
		for i := range 12 {
			tree[filepath.ToSlash(filepath.Join("lib", string(rune('a'+i%3)), string(rune('a'+i))+".bin"))] = strings.Repeat("x", i)
		}
		writeTree(t, src, tree)
		if err := os.MkdirAll(filepath.Join(src, "lib", "empty"), 0o755); err != nil {
			t.Fatal(err)
		}

		dest := filepath.Join(t.TempDir(), "count.zip")
		a, err := Build(context.Background(), Options{
			Files:   []string{filepath.Join(src, "one.txt"), filepath.Join(src, "two.txt")},
			Folders: []string{filepath.Join(src, "lib")},
		}, dest)
		if err != nil {
			t.Fatalf("Build() error = %v", err)
		}

		zr, err := zip.OpenReader(dest)
		if err != nil {
			t.Fatal(err)
		}
		defer zr.Close()
		if len(zr.File) != len(tree) || len(a.Entries) != len(tree) {
			t.Errorf("archive has %d entries (plan %d), want %d", len(zr.File), len(a.Entries), len(tree))
		}
		for _, f := range zr.File {
			if f.Method != zip.Deflate {
				t.Errorf("entry %s uses method %d, want deflate", f.Name, f.Method)
			}
		}
	})

	t.Run("missing file is attempted and fails the build", func(t *testing.T) {
		t.Parallel()

		src := t.TempDir()
		writeTree(t, src, map[string]string{"present.txt": "here"})

		var progress bytes.Buffer
		dest := filepath.Join(t.TempDir(), "missing.zip")
		_, err := Build(context.Background(), Options{
			Files:  []string{filepath.Join(src, "present.txt"), filepath.Join(src, "absent.txt")},
			Logger: log.New(&progress),
		}, dest)

		if !errors.Is(err, ErrArchiveWrite) {
			t.Fatalf("Build() error = %v, want ErrArchiveWrite", err)
		}
		if !errors.Is(err, os.ErrNotExist) {
			t.Errorf("Build() error should wrap the not-exist cause, got %v", err)
		}
		var writeErr *WriteError
		if !errors.As(err, &writeErr) || writeErr.Entry != "absent.txt" {
			t.Errorf("expected WriteError naming absent.txt, got %v", err)
		}
		if !strings.Contains(progress.String(), "adding anyway") {
			t.Errorf("expected a warning for the missing path, got %q", progress.String())
		}
		if _, statErr := os.Stat(dest); !os.IsNotExist(statErr) {
			t.Error("partial archive should be removed after a failed build")
		}
	})

	t.Run("unwritable destination", func(t *testing.T) {
		t.Parallel()

		src := t.TempDir()
		writeTree(t, src, map[string]string{"a.txt": "a"})

		dest := filepath.Join(t.TempDir(), "no", "such", "dir", "out.zip")
		_, err := Build(context.Background(), Options{Files: []string{filepath.Join(src, "a.txt")}}, dest)
		if !errors.Is(err, ErrArchiveWrite) {
			t.Errorf("Build() error = %v, want ErrArchiveWrite", err)
		}
	})

	t.Run("cancelled context stops the write", func(t *testing.T) {
		t.Parallel()

		src := t.TempDir()
		writeTree(t, src, map[string]string{"a.txt": "a"})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := Build(ctx, Options{Files: []string{filepath.Join(src, "a.txt")}}, filepath.Join(t.TempDir(), "c.zip"))
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Build() error = %v, want context.Canceled", err)
		}
	})
}

func TestPlan(t *testing.T) {
	t.Parallel()

	t.Run("collisions are last-write-wins", func(t *testing.T) {
		t.Parallel()

		src := t.TempDir()
		writeTree(t, src, map[string]string{
			"top/config.ini":   "first",
			"other/config.ini": "second",
		})

		entries, err := Plan(Options{Files: []string{
			filepath.Join(src, "top", "config.ini"),
			filepath.Join(src, "other", "config.ini"),
		}})
		if err != nil {
			t.Fatal(err)
		}
		if len(entries) != 1 {
			t.Fatalf("Plan() returned %d entries, want 1", len(entries))
		}
		if want := filepath.Join(src, "other", "config.ini"); entries[0].SourcePath != want {
			t.Errorf("SourcePath = %q, want %q", entries[0].SourcePath, want)
		}
	})

	t.Run("exclude patterns", func(t *testing.T) {
		t.Parallel()

		src := t.TempDir()
		writeTree(t, src, map[string]string{
			"game/data.pak":     "d",
			"game/.git/HEAD":    "ref",
			"game/logs/run.log": "l",
			"game/bin/game.exe": "e",
			"game/bin/game.pdb": "p",
		})

		entries, err := Plan(Options{
			Folders: []string{filepath.Join(src, "game")},
			Exclude: []string{"**/.git/**", "**/*.pdb", "game/logs/**"},
		})
		if err != nil {
			t.Fatal(err)
		}
		var names []string
		for _, e := range entries {
			names = append(names, e.RelativeName)
		}
		slices.Sort(names)
		want := []string{"game/bin/game.exe", "game/data.pak"}
		if !slices.Equal(names, want) {
			t.Errorf("planned %v, want %v", names, want)
		}
	})

	t.Run("missing folder is planned as a single entry", func(t *testing.T) {
		t.Parallel()

		entries, err := Plan(Options{Folders: []string{filepath.Join(t.TempDir(), "gone")}})
		if err != nil {
			t.Fatal(err)
		}
		if len(entries) != 1 || entries[0].RelativeName != "gone" {
			t.Errorf("Plan() = %+v, want one entry named gone", entries)
		}
	})
}

func TestList(t *testing.T) {
	t.Parallel()

	src := t.TempDir()
	writeTree(t, src, map[string]string{"b.txt": "bbbb", "dir/a.txt": "a"})

	dest := filepath.Join(t.TempDir(), "list.zip")
	if _, err := Build(context.Background(), Options{
		Files:   []string{filepath.Join(src, "b.txt")},
		Folders: []string{filepath.Join(src, "dir")},
	}, dest); err != nil {
		t.Fatal(err)
	}

	listed, err := List(dest)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(listed) != 2 {
		t.Fatalf("List() returned %d entries, want 2", len(listed))
	}
	if listed[0].Name != "b.txt" || listed[0].Size != 4 {
		t.Errorf("first entry = %+v, want b.txt of 4 bytes", listed[0])
	}
	if listed[1].Name != "dir/a.txt" {
		t.Errorf("second entry = %+v, want dir/a.txt", listed[1])
	}

	if _, err := List(filepath.Join(t.TempDir(), "nope.zip")); err == nil {
		t.Error("List() of a missing archive should fail")
	}
}
