//go:build !windows

package selfdelete

import "os"

// remove unlinks path right away, a running executable keeps working until it exits.
func remove(path string) error {
	return os.Remove(path)
}
