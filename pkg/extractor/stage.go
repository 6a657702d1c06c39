// SPDX-License-Identifier: MPL-2.0

package extractor

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/u-root/u-root/pkg/cp"
)

// staging is a private copy of the archive. Release removes it.
type staging struct {
	dir     string
	archive string
}

func stage(archivePath string) (*staging, error) {
	dir, err := os.MkdirTemp("", "sfx-stage-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create staging directory: %w", err)
	}
	s := &staging{dir: dir, archive: filepath.Join(dir, filepath.Base(archivePath))}
	if err := cp.Copy(archivePath, s.archive); err != nil {
		s.Release()
		return nil, fmt.Errorf("failed to stage %s: %w", archivePath, err)
	}
	return s, nil
}

// Release removes the staging directory. It is safe to call more than once.
func (s *staging) Release() {
	if s == nil || s.dir == "" {
		return
	}
	_ = os.RemoveAll(s.dir) // best-effort temp cleanup
	s.dir = ""
}

// deliver copies the staged archive into target for manual extraction.
func (s *staging) deliver(target string) (string, error) {
	if err := os.MkdirAll(target, 0o755); err != nil {
		return "", err
	}
	dest := filepath.Join(target, filepath.Base(s.archive))
	if err := cp.Copy(s.archive, dest); err != nil {
		return "", err
	}
	return dest, nil
}
