package release

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"path/filepath"

	"github.com/yuin/goldmark"
	emoji "github.com/yuin/goldmark-emoji"
	"github.com/yuin/goldmark/extension"
)

//go:embed templates/readme.gohtml
var templateFS embed.FS

// ReadmeNames are the README file names looked up in the mod directory, in order.
var ReadmeNames = []string{"README.md", "Readme.md", "readme.md"}

var ErrNoReadme = fmt.Errorf("no README found")

// DefaultMarkdown returns the markdown converter used for READMEs.
func DefaultMarkdown() goldmark.Markdown {
	return goldmark.New(goldmark.WithExtensions(extension.GFM, emoji.Emoji, extension.Footnote))
}

// readmeData is passed to the README page template.
type readmeData struct {
	Title, Version string
	Content        template.HTML
}

// ReadmeRenderer converts a markdown README into a standalone HTML page.
type ReadmeRenderer struct {
	md   goldmark.Markdown
	page *template.Template
	stor Storage
}

// NewReadmeRenderer returns a ReadmeRenderer storing its output in stor.
func NewReadmeRenderer(md goldmark.Markdown, stor Storage) *ReadmeRenderer {
	return &ReadmeRenderer{
		md:   md,
		page: template.Must(template.ParseFS(templateFS, "templates/readme.gohtml")),
		stor: stor,
	}
}

// ReplaceExtension replaces the extension of path with ext.
// The given path remains unchanged if it does not end with a file extension.
// Note that ext is expected to start with a dot.
func ReplaceExtension(path, ext string) string {
	actual := filepath.Ext(path)
	if actual != "" {
		return path[:len(path)-len(actual)] + ext
	}

	return path
}

// Render converts the first README of ReadmeNames found in srcFS and stores it as HTML
// next to the source, e.g. README.md becomes README.html. It returns the stored name.
func (r *ReadmeRenderer) Render(ctx context.Context, srcFS fs.FS, title, version string) (string, error) {
	var (
		name string
		src  []byte
		err  error
	)
	for _, name = range ReadmeNames {
		src, err = fs.ReadFile(srcFS, name)
		if err == nil || !errors.Is(err, fs.ErrNotExist) {
			break
		}
	}
	if errors.Is(err, fs.ErrNotExist) {
		return "", ErrNoReadme
	}
	if err != nil {
		return "", err
	}

	content := bytes.NewBuffer(nil)
	err = r.md.Convert(src, content)
	if err != nil {
		return "", err
	}

	page := bytes.NewBuffer(make([]byte, 0, content.Len()+1024))
	err = r.page.ExecuteTemplate(page, "readme.gohtml", readmeData{
		Title:   title,
		Version: version,
		Content: template.HTML(content.String()),
	})
	if err != nil {
		return "", err
	}

	dest := ReplaceExtension(name, ".html")
	return dest, r.stor.Store(ctx, dest, page)
}
