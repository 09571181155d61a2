package batch

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// WorkDir is the private scratch directory of one run.
type WorkDir struct {
	path string
}

// NewWorkDir creates <parent>/searchable-pdf-<uuid>. An empty parent means
// the system temp directory.
func NewWorkDir(parent string) (*WorkDir, error) {
	if parent == "" {
		parent = os.TempDir()
	}
	path := filepath.Join(parent, "searchable-pdf-"+uuid.NewString())
	if err := os.MkdirAll(path, 0o700); err != nil {
		return nil, fmt.Errorf("create work dir: %w", err)
	}
	return &WorkDir{path: path}, nil
}

func (w *WorkDir) Path() string { return w.path }

// Clear removes everything inside the directory so no file from an earlier
// job can be taken for current output.
func (w *WorkDir) Clear() error {
	entries, err := os.ReadDir(w.path)
	if err != nil {
		return fmt.Errorf("clear work dir: %w", err)
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(w.path, e.Name())); err != nil {
			return fmt.Errorf("clear work dir: %w", err)
		}
	}
	return nil
}

// Remove deletes the directory and its contents.
func (w *WorkDir) Remove() error {
	return os.RemoveAll(w.path)
}
