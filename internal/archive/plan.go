// SPDX-License-Identifier: MPL-2.0

package archive

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/log"
)

// Plan resolves files and folders into archive entries.
//
// Files keep only their base name. Folders are walked and every regular file
// below them becomes "<folder base>/<relative path>". Missing paths are
// warned about and planned as plain files so that Write fails on them.
// Entries whose names collide are resolved last-write-wins: the later source
// replaces the earlier one in place.
func Plan(opts Options) ([]Entry, error) {
	logger := loggerOrDiscard(opts.Logger)
	p := &planner{byName: map[string]int{}, exclude: opts.Exclude}

	for _, file := range opts.Files {
		if _, err := os.Stat(file); err != nil {
			logger.Warn("path does not exist, adding anyway", "path", file)
		}
		p.add(Entry{RelativeName: filepath.Base(filepath.Clean(file)), SourcePath: file}, logger)
	}

	for _, folder := range opts.Folders {
		info, err := os.Stat(folder)
		if err != nil {
			logger.Warn("path does not exist, adding anyway", "path", folder)
			p.add(Entry{RelativeName: filepath.Base(filepath.Clean(folder)), SourcePath: folder}, logger)
			continue
		}
		if !info.IsDir() {
			logger.Warn("folder is a regular file, adding it at the archive root", "path", folder)
			p.add(Entry{RelativeName: filepath.Base(filepath.Clean(folder)), SourcePath: folder}, logger)
			continue
		}
		if err := p.walk(folder, logger); err != nil {
			return nil, err
		}
	}

	return p.entries, nil
}

type planner struct {
	entries []Entry
	byName  map[string]int
	exclude []string
}

func (p *planner) walk(folder string, logger *log.Logger) error {
	root := filepath.Clean(folder)
	base := filepath.Base(root)

	return filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return fmt.Errorf("failed to walk %s: %w", path, walkErr)
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return fmt.Errorf("failed to get relative path: %w", err)
		}
		name := filepath.ToSlash(filepath.Join(base, rel))

		// Symlinks are followed; sockets, devices and dangling links are skipped.
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			logger.Debug("skipping non-regular file", "path", path)
			return nil
		}

		p.add(Entry{RelativeName: name, SourcePath: path}, logger)
		return nil
	})
}

func (p *planner) add(entry Entry, logger *log.Logger) {
	for _, pattern := range p.exclude {
		if matched, _ := doublestar.Match(pattern, entry.RelativeName); matched {
			logger.Debug("excluded", "name", entry.RelativeName, "pattern", pattern)
			return
		}
	}

	if idx, ok := p.byName[entry.RelativeName]; ok {
		logger.Warn("duplicate entry name, later source wins",
			"name", entry.RelativeName,
			"replaced", p.entries[idx].SourcePath,
			"source", entry.SourcePath,
		)
		p.entries[idx] = entry
		return
	}
	p.byName[entry.RelativeName] = len(p.entries)
	p.entries = append(p.entries, entry)
}
