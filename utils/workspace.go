package utils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// EnsureDir creates a directory (and parents) if it does not exist
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}
	return nil
}

// RemoveDir recursively removes a directory. Removing an absent directory is
// not an error.
func RemoveDir(dir string) error {
	return os.RemoveAll(dir)
}

// Workspace is a uniquely named scratch directory exclusively owned by one
// merge job. All intermediate files for the job live inside it.
type Workspace struct {
	JobID string
	Dir   string

	releaseOnce sync.Once
}

// AcquireWorkspace creates a fresh job directory under the shared temp root
func AcquireWorkspace(root string) (*Workspace, error) {
	jobID := uuid.New().String()
	dir := filepath.Join(root, jobID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create workspace %s: %w", dir, err)
	}
	return &Workspace{JobID: jobID, Dir: dir}, nil
}

// Path joins path elements onto the workspace directory
func (w *Workspace) Path(elem ...string) string {
	return filepath.Join(append([]string{w.Dir}, elem...)...)
}

// Release removes the workspace directory with everything in it. Safe to call
// more than once.
func (w *Workspace) Release() {
	w.releaseOnce.Do(func() {
		_ = os.RemoveAll(w.Dir)
	})
}

// FileExists checks if a file exists
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// CopyFile copies src to dst, replacing dst if it exists
func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return fmt.Errorf("failed to copy to %s: %w", dst, err)
	}

	return out.Close()
}
