// Package selfdelete removes release tooling, including the running executable, from disk.
package selfdelete

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

var ErrNotAFile = fmt.Errorf("refusing to self-delete something that is not a file")

// Executable returns the path of the running executable with symlinks resolved.
func Executable() (string, error) {
	path, err := os.Executable()
	if err != nil {
		return "", err
	}

	return filepath.EvalSymlinks(path)
}

// Remove deletes the file at path. Directories are refused with ErrNotAFile.
// If path is the running executable on a platform that locks it, the removal is
// deferred to a detached process that waits for this one to exit.
func Remove(ctx context.Context, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	info, err := os.Lstat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("%s: %w", path, ErrNotAFile)
	}

	return remove(path)
}
