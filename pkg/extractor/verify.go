// SPDX-License-Identifier: MPL-2.0

package extractor

import (
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"
)

// Verification summarizes the target directory after extraction. It is
// advisory: it counts what is there, it does not compare against the archive.
type Verification struct {
	// Items counts files and directories below the target.
	Items int
	Files int
	Bytes int64
}

// Verify walks target and tallies its contents.
func Verify(target string) (Verification, error) {
	var v Verification
	err := filepath.WalkDir(target, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == target {
			return nil
		}
		v.Items++
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.Mode().IsRegular() {
			v.Files++
			v.Bytes += info.Size()
		}
		return nil
	})
	return v, err
}

// archiveTally counts the file entries of the ZIP at path and their
// uncompressed size.
func archiveTally(path string) (_ tally, err error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return tally{}, err
	}
	defer func() {
		if closeErr := zr.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	var t tally
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || strings.HasSuffix(f.Name, "/") {
			continue
		}
		t.files++
		t.bytes += int64(f.UncompressedSize64)
	}
	return t, nil
}
