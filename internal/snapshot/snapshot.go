// Package snapshot captures the file state of a tree so two states can be compared.
package snapshot

import (
	"io/fs"
	"sort"
	"time"
)

type fileInfo struct {
	modTime time.Time
	size    int64
	mode    fs.FileMode
}

// Snapshot maps slash separated paths of regular files to their metadata.
type Snapshot struct {
	files map[string]fileInfo
}

// Take walks filesystem and records metadata of every regular file, ignoring directories.
func Take(filesystem fs.FS) (*Snapshot, error) {
	s := &Snapshot{files: make(map[string]fileInfo)}
	err := fs.WalkDir(filesystem, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if !d.Type().IsRegular() {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		s.files[path] = fileInfo{
			modTime: info.ModTime(),
			size:    info.Size(),
			mode:    info.Mode(),
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return s, nil
}

// Len returns the number of recorded files.
func (s *Snapshot) Len() int {
	return len(s.files)
}

// Size returns the sum of all recorded file sizes.
func (s *Snapshot) Size() (total int64) {
	for _, info := range s.files {
		total += info.size
	}
	return
}

// Changes is the result of comparing two snapshots.
type Changes struct {
	Removed      []string
	Added        []string
	Changed      []string
	RemovedBytes int64
}

// HasChanged reports whether anything differs between the compared snapshots.
func (c Changes) HasChanged() bool {
	return len(c.Removed) > 0 || len(c.Added) > 0 || len(c.Changed) > 0
}

// Diff compares after against before. A file counts as changed when its
// modification time, size or mode differ. All path lists are sorted.
func Diff(before, after *Snapshot) Changes {
	var c Changes
	for path, info := range before.files {
		next, ok := after.files[path]
		if !ok {
			c.Removed = append(c.Removed, path)
			c.RemovedBytes += info.size
			continue
		}

		if !info.modTime.Equal(next.modTime) ||
			info.size != next.size ||
			info.mode != next.mode {
			c.Changed = append(c.Changed, path)
		}
	}
	for path := range after.files {
		if _, ok := before.files[path]; !ok {
			c.Added = append(c.Added, path)
		}
	}

	sort.Strings(c.Removed)
	sort.Strings(c.Added)
	sort.Strings(c.Changed)

	return c
}
