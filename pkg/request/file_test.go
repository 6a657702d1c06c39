// SPDX-License-Identifier: MPL-2.0

package request

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFile(t *testing.T) {
	t.Parallel()

	contents := map[string]string{
		"req.yaml": `app_name: Demo
version: 1.0.0
files: [readme.txt]
folders: [assets]
output_dir: dist
target: linux/amd64
`,
		"req.toml": `app_name = "Demo"
version = "1.0.0"
files = ["readme.txt"]
folders = ["assets"]
output_dir = "dist"
target = "linux/amd64"
`,
		"req.json": `{"app_name":"Demo","version":"1.0.0","files":["readme.txt"],"folders":["assets"],"output_dir":"dist","target":"linux/amd64"}`,
	}

	for name, body := range contents {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			dir := t.TempDir()
			path := filepath.Join(dir, name)
			if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
				t.Fatal(err)
			}

			req, err := LoadFile(path)
			if err != nil {
				t.Fatalf("LoadFile() error = %v", err)
			}
			if req.AppName != "Demo" || req.Version != "1.0.0" {
				t.Errorf("unexpected identity: %+v", req)
			}
			if !req.IncludeVersion {
				t.Error("include_version should default to true")
			}
			if want := filepath.Join(dir, "readme.txt"); len(req.Files) != 1 || req.Files[0] != want {
				t.Errorf("Files = %v, want [%s]", req.Files, want)
			}
			if want := filepath.Join(dir, "assets"); len(req.Folders) != 1 || req.Folders[0] != want {
				t.Errorf("Folders = %v, want [%s]", req.Folders, want)
			}
			if want := filepath.Join(dir, "dist"); req.OutputDir != want {
				t.Errorf("OutputDir = %q, want %q", req.OutputDir, want)
			}
			if req.Target != "linux/amd64" {
				t.Errorf("Target = %q", req.Target)
			}
			if err := req.Validate(); err != nil {
				t.Errorf("loaded request should validate: %v", err)
			}
		})
	}

	t.Run("include_version false is honored", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "req.yml")
		body := "app_name: Demo\nversion: 1.0.0\ninclude_version: false\nfiles: [a]\n"
		if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
			t.Fatal(err)
		}
		req, err := LoadFile(path)
		if err != nil {
			t.Fatal(err)
		}
		if req.IncludeVersion || req.DerivedName() != "Demo" {
			t.Errorf("DerivedName() = %q, want Demo", req.DerivedName())
		}
	})

	t.Run("unknown extension", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "req.ini")
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
		_, err := LoadFile(path)
		var formatErr *UnsupportedFormatError
		if !errors.As(err, &formatErr) {
			t.Errorf("LoadFile() error = %v, want UnsupportedFormatError", err)
		}
	})

	t.Run("unknown yaml key is rejected", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "req.yaml")
		if err := os.WriteFile(path, []byte("app_nmae: Demo\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadFile(path); err == nil {
			t.Error("LoadFile() should reject unknown keys")
		}
	})
}
