// SPDX-License-Identifier: MPL-2.0

package builder

import (
	"fmt"
	"os"
	"path/filepath"
)

const sourceDirName = "src"

// Workspace is the scratch directory of one build.
type Workspace struct {
	Dir string
}

// NewWorkspace creates a fresh workspace under the system temp directory.
func NewWorkspace() (*Workspace, error) {
	dir, err := os.MkdirTemp("", "sfxpack-build-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create build workspace: %w", err)
	}
	return &Workspace{Dir: dir}, nil
}

// Path joins name onto the workspace directory.
func (w *Workspace) Path(name string) string {
	return filepath.Join(w.Dir, name)
}

// SourceDir creates and returns the directory that receives generated sources.
func (w *Workspace) SourceDir() (string, error) {
	dir := w.Path(sourceDirName)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create source directory: %w", err)
	}
	return dir, nil
}

// Release removes the workspace and everything in it. It is safe to call
// more than once.
func (w *Workspace) Release() error {
	if w == nil || w.Dir == "" {
		return nil
	}
	if err := os.RemoveAll(w.Dir); err != nil {
		return fmt.Errorf("failed to remove build workspace %s: %w", w.Dir, err)
	}
	return nil
}
