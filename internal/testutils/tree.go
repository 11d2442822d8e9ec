// Package testutils contains helpers to build and inspect directory trees in tests.
package testutils

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"
)

// WriteTree materialises tree inside a fresh temporary directory and returns its path.
// Entries with fs.ModeDir set become directories, everything else a regular file.
// A zero permission defaults to 0o755 for directories and 0o644 for files.
func WriteTree(t *testing.T, tree fstest.MapFS) string {
	t.Helper()

	root := t.TempDir()
	for name, file := range tree {
		dest := filepath.Join(root, filepath.FromSlash(name))
		perm := file.Mode.Perm()

		if file.Mode.IsDir() {
			if perm == 0 {
				perm = 0o755
			}
			require.NoError(t, os.MkdirAll(dest, perm))
			continue
		}

		if perm == 0 {
			perm = 0o644
		}
		require.NoError(t, os.MkdirAll(filepath.Dir(dest), 0o755))
		require.NoError(t, os.WriteFile(dest, file.Data, perm))
	}

	return root
}

// ListTree returns the sorted, slash separated paths of all files and directories below root.
// Directories carry a trailing slash so they can be told apart from files.
func ListTree(t *testing.T, root string) []string {
	t.Helper()

	paths := []string{}
	err := fs.WalkDir(os.DirFS(root), ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == "." {
			return nil
		}

		if d.IsDir() {
			path += "/"
		}
		paths = append(paths, path)

		return nil
	})
	require.NoError(t, err)
	sort.Strings(paths)

	return paths
}
