// SPDX-License-Identifier: MPL-2.0

package extractor

import (
	"os"
	"path/filepath"
	"strings"
)

// AlternateNames returns the fallback archive names guessed when the
// expected sidecar is missing.
func AlternateNames(exeStem, appName string) []string {
	var names []string
	if exeStem != "" {
		names = append(names, exeStem+"_archive.zip")
	}
	if appName != "" {
		names = append(names, appName+"_archive.zip")
	}
	names = append(names, "archive.zip")
	if appName != "" {
		names = append(names, appName+".zip")
	}
	return names
}

// Candidates lists, in probe order, every path where the archive may live:
// the expected name beside the executable and in the working directory, then
// the alternate names in both. Duplicates are dropped.
func Candidates(exeDir, cwd, expected, exeStem, appName string) []string {
	dirs := []string{exeDir}
	if cwd != "" && filepath.Clean(cwd) != filepath.Clean(exeDir) {
		dirs = append(dirs, cwd)
	}

	seen := map[string]bool{}
	var out []string
	add := func(dir, name string) {
		if name == "" {
			return
		}
		p := filepath.Join(dir, name)
		if seen[p] {
			return
		}
		seen[p] = true
		out = append(out, p)
	}

	for _, dir := range dirs {
		add(dir, expected)
	}
	for _, dir := range dirs {
		for _, name := range AlternateNames(exeStem, appName) {
			add(dir, name)
		}
	}
	return out
}

// Resolve returns the first candidate for which isFile reports true.
func Resolve(candidates []string, isFile func(string) bool) (string, bool) {
	for _, c := range candidates {
		if isFile(c) {
			return c, true
		}
	}
	return "", false
}

// loneSidecar returns the only "*_archive.zip" file in dir, if there is
// exactly one.
func loneSidecar(dir string) (string, bool) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", false
	}
	var found string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(strings.ToLower(e.Name()), "_archive.zip") {
			continue
		}
		if found != "" {
			return "", false
		}
		found = filepath.Join(dir, e.Name())
	}
	return found, found != ""
}

func isRegularFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
