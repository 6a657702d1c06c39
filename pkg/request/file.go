// SPDX-License-Identifier: MPL-2.0

package request

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sfxpack/sfxpack/pkg/platform"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v2"
)

// maxRequestFileBytes bounds request files; they only ever hold a handful of paths.
const maxRequestFileBytes = 1 << 20

type (
	// File is the on-disk shape of a request file. IncludeVersion is a pointer
	// so that an absent key keeps the default (true).
	File struct {
		AppName        string   `yaml:"app_name" toml:"app_name" json:"app_name"`
		Version        string   `yaml:"version" toml:"version" json:"version"`
		OutputDir      string   `yaml:"output_dir" toml:"output_dir" json:"output_dir"`
		IncludeVersion *bool    `yaml:"include_version" toml:"include_version" json:"include_version"`
		Files          []string `yaml:"files" toml:"files" json:"files"`
		Folders        []string `yaml:"folders" toml:"folders" json:"folders"`
		OutputName     string   `yaml:"output_name" toml:"output_name" json:"output_name"`
		Target         string   `yaml:"target" toml:"target" json:"target"`
		Exclude        []string `yaml:"exclude" toml:"exclude" json:"exclude"`
	}

	// UnsupportedFormatError is returned for request files with an unknown extension.
	UnsupportedFormatError struct {
		Path string
	}
)

// Error implements the error interface.
func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported request file format %q (use .yaml, .yml, .toml or .json)", filepath.Ext(e.Path))
}

// LoadFile reads a request file. Relative paths inside the file are resolved
// against the file's directory. The result is not validated, so callers can
// apply flag overrides first.
func LoadFile(path string) (PackageRequest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return PackageRequest{}, fmt.Errorf("failed to read request file: %w", err)
	}
	if len(data) > maxRequestFileBytes {
		return PackageRequest{}, fmt.Errorf("request file %s is larger than %d bytes", path, maxRequestFileBytes)
	}

	var f File
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.UnmarshalStrict(data, &f)
	case ".toml":
		err = toml.Unmarshal(data, &f)
	case ".json":
		err = json.Unmarshal(data, &f)
	default:
		return PackageRequest{}, &UnsupportedFormatError{Path: path}
	}
	if err != nil {
		return PackageRequest{}, fmt.Errorf("failed to parse request file %s: %w", path, err)
	}

	return f.toRequest(filepath.Dir(path))
}

func (f File) toRequest(baseDir string) (PackageRequest, error) {
	target, err := platform.ParseID(f.Target)
	if err != nil {
		return PackageRequest{}, &ConfigurationError{Field: "target", Problem: err.Error()}
	}

	includeVersion := true
	if f.IncludeVersion != nil {
		includeVersion = *f.IncludeVersion
	}

	outputDir := f.OutputDir
	if outputDir == "" {
		outputDir = "."
	}

	return PackageRequest{
		AppName:        f.AppName,
		Version:        f.Version,
		OutputDir:      resolve(baseDir, outputDir),
		IncludeVersion: includeVersion,
		Files:          resolveAll(baseDir, f.Files),
		Folders:        resolveAll(baseDir, f.Folders),
		OutputName:     f.OutputName,
		Target:         target,
		Exclude:        f.Exclude,
	}, nil
}

func resolveAll(baseDir string, paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		out = append(out, resolve(baseDir, p))
	}
	return out
}

func resolve(baseDir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(baseDir, filepath.FromSlash(p))
}
