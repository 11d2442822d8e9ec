package release

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Storage persists release artifacts like the rendered README or the archive.
type Storage interface {
	Store(ctx context.Context, name string, content io.Reader) error
}

// FileStorage persists to a local file system.
type FileStorage struct {
	baseDir string
}

// NewFileStorage returns an initialized FileStorage.
func NewFileStorage(baseDir string) *FileStorage {
	return &FileStorage{baseDir}
}

var ErrEmptyName = fmt.Errorf("name must not be empty")

// Path returns the destination path of name.
func (s *FileStorage) Path(name string) string {
	// Making the name absolute before cleaning removes parent directory references and prevents path traversal.
	return filepath.Join(s.baseDir, filepath.Clean("/"+name))
}

// Store implements Storage.
// Content is written to a temporary file next to the destination which is renamed
// once all content was copied, readers never see a partially written artifact.
func (s *FileStorage) Store(ctx context.Context, name string, content io.Reader) (err error) {
	if strings.TrimSpace(name) == "" {
		return ErrEmptyName
	}

	destPath := s.Path(name)
	err = os.MkdirAll(filepath.Dir(destPath), 0o755)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(destPath), "."+filepath.Base(destPath)+".*")
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	_, err = io.Copy(tmp, content)
	if err != nil {
		return err
	}
	if err = ctx.Err(); err != nil {
		return err
	}
	if err = tmp.Chmod(0o644); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), destPath)
}
