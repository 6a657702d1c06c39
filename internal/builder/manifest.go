// SPDX-License-Identifier: MPL-2.0

package builder

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/sfxpack/sfxpack/internal/archive"
	"github.com/sfxpack/sfxpack/pkg/checksum"
)

// ManifestSuffix is appended to the derived name to form the manifest filename.
const ManifestSuffix = ".manifest.yaml"

type (
	// Manifest records what a build produced.
	Manifest struct {
		BuildID      string          `yaml:"build_id"`
		App          string          `yaml:"app"`
		Version      string          `yaml:"version"`
		Target       string          `yaml:"target"`
		StartedAt    string          `yaml:"started_at"`
		FinishedAt   string          `yaml:"finished_at"`
		Executable   ManifestFile    `yaml:"executable"`
		Archive      ManifestFile    `yaml:"archive"`
		ContentBytes int64           `yaml:"content_bytes"`
		Entries      []ManifestEntry `yaml:"entries"`
	}

	// ManifestFile describes one shipped file.
	ManifestFile struct {
		Name   string `yaml:"name"`
		Size   int64  `yaml:"size"`
		SHA256 string `yaml:"sha256"`
	}

	// ManifestEntry is one archive entry and where it came from.
	ManifestEntry struct {
		Name   string `yaml:"name"`
		Source string `yaml:"source"`
	}
)

func newManifest(res *Result, executable, sidecar checksum.Entry, started, finished time.Time) *Manifest {
	m := &Manifest{
		BuildID:      res.BuildID,
		App:          res.Request.AppName,
		Version:      res.Request.Version,
		Target:       res.Request.TargetPlatform().String(),
		StartedAt:    started.UTC().Format(time.RFC3339),
		FinishedAt:   finished.UTC().Format(time.RFC3339),
		Executable:   ManifestFile{Name: executable.Filename, Size: fileSize(res.ExecutablePath), SHA256: executable.Hash},
		Archive:      ManifestFile{Name: sidecar.Filename, Size: res.ArchiveSize, SHA256: sidecar.Hash},
		ContentBytes: res.ContentBytes,
	}
	m.Entries = manifestEntries(res.Entries)
	return m
}

func manifestEntries(entries []archive.Entry) []ManifestEntry {
	out := make([]ManifestEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, ManifestEntry{Name: e.RelativeName, Source: e.SourcePath})
	}
	return out
}

// WriteManifest writes m as YAML to path.
func WriteManifest(path string, m *Manifest) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("failed to encode manifest: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

// ReadManifest loads a manifest written by a previous build.
func ReadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s: %w", path, err)
	}
	return &m, nil
}

func fileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}
