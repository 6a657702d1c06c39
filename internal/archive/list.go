// SPDX-License-Identifier: MPL-2.0

package archive

import (
	stdzip "archive/zip"
	"fmt"
	"sort"

	"github.com/mholt/archiver"
)

// ListedEntry describes one entry of an existing archive.
type ListedEntry struct {
	Name           string
	Size           int64
	CompressedSize int64
	IsDirectory    bool
}

// List enumerates the entries of the ZIP archive at path, sorted by name.
func List(path string) ([]ListedEntry, error) {
	var listed []ListedEntry

	z := archiver.NewZip()
	err := z.Walk(path, func(f archiver.File) error {
		entry := ListedEntry{
			Name:        f.Name(),
			Size:        f.Size(),
			IsDirectory: f.IsDir(),
		}
		if header, ok := f.Header.(stdzip.FileHeader); ok {
			entry.Name = header.Name
			entry.CompressedSize = int64(header.CompressedSize64)
		}
		listed = append(listed, entry)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list archive %s: %w", path, err)
	}

	sort.Slice(listed, func(i, j int) bool { return listed[i].Name < listed[j].Name })
	return listed, nil
}
