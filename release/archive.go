package release

import (
	"archive/zip"
	"context"
	"io"
	"io/fs"

	"github.com/klingtnet/modprep/slug"
	"golang.org/x/sync/errgroup"
)

// ArchiveName returns the file name of the release archive for name and version.
func ArchiveName(slugifier *slug.Slugifier, name, version string) string {
	base := slugifier.Slugify(name)
	if v := slugifier.Slugify(version); v != "" {
		base += "-" + v
	}
	return base + ".zip"
}

// Archiver packs a prepared mod directory into a zip archive.
type Archiver struct {
	stor Storage
}

// NewArchiver returns an Archiver storing archives in stor.
func NewArchiver(stor Storage) *Archiver {
	return &Archiver{stor: stor}
}

// Pack writes all regular files of srcFS for which skip returns false into the archive name.
// skip receives slash separated paths relative to srcFS and may be nil.
// It returns the number of archived files.
func (a *Archiver) Pack(ctx context.Context, srcFS fs.FS, name string, skip func(path string) bool) (int, error) {
	var files int
	pr, pw := io.Pipe()
	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		n, err := writeZip(ctx, pw, srcFS, skip)
		files = n
		pw.CloseWithError(err)
		return err
	})
	eg.Go(func() error {
		defer pr.Close()
		return a.stor.Store(ctx, name, pr)
	})

	return files, eg.Wait()
}

func writeZip(ctx context.Context, w io.Writer, srcFS fs.FS, skip func(path string) bool) (int, error) {
	var files int
	zw := zip.NewWriter(w)
	err := fs.WalkDir(srcFS, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !d.Type().IsRegular() || (skip != nil && skip(path)) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		header, err := zip.FileInfoHeader(info)
		if err != nil {
			return err
		}
		// WalkDir paths are already slash separated, as required by the zip format.
		header.Name = path
		header.Method = zip.Deflate

		dest, err := zw.CreateHeader(header)
		if err != nil {
			return err
		}
		src, err := srcFS.Open(path)
		if err != nil {
			return err
		}
		defer src.Close()

		_, err = io.Copy(dest, src)
		files++
		return err
	})
	if err != nil {
		return files, err
	}

	return files, zw.Close()
}
