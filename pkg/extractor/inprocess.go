// SPDX-License-Identifier: MPL-2.0

package extractor

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/klauspost/compress/zip"
)

// extractZip unpacks archivePath into target and returns the number of files
// written and their total size.
func extractZip(archivePath, target string, logger *log.Logger) (files int, written int64, err error) {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to open archive: %w", err)
	}
	defer func() {
		if closeErr := zr.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	root, err := filepath.Abs(target)
	if err != nil {
		return 0, 0, err
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return 0, 0, fmt.Errorf("failed to create target directory: %w", err)
	}

	for _, f := range zr.File {
		dest, err := safeJoin(root, f.Name)
		if err != nil {
			return files, written, err
		}

		if f.FileInfo().IsDir() || strings.HasSuffix(f.Name, "/") {
			if err := os.MkdirAll(dest, 0o755); err != nil {
				return files, written, fmt.Errorf("failed to create %s: %w", f.Name, err)
			}
			continue
		}

		n, err := extractFile(f, dest)
		if err != nil {
			return files, written, fmt.Errorf("failed to extract %s: %w", f.Name, err)
		}
		files++
		written += n
		logger.Info("extracted", "name", f.Name, "bytes", n)
	}
	return files, written, nil
}

func extractFile(f *zip.File, dest string) (_ int64, err error) {
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return 0, err
	}

	rc, err := f.Open()
	if err != nil {
		return 0, err
	}
	defer rc.Close()

	mode := f.Mode().Perm()
	if mode == 0 {
		mode = 0o644
	}
	out, err := os.OpenFile(dest, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return 0, err
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	return io.Copy(out, rc)
}

// safeJoin resolves an entry name below root, rejecting absolute names and
// names that climb out of root.
func safeJoin(root, name string) (string, error) {
	clean := filepath.FromSlash(strings.ReplaceAll(name, `\`, "/"))
	if filepath.IsAbs(clean) || filepath.VolumeName(clean) != "" {
		return "", &UnsafePathError{Entry: name}
	}
	dest := filepath.Join(root, clean)
	rel, err := filepath.Rel(root, dest)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", &UnsafePathError{Entry: name}
	}
	return dest, nil
}
