package release

import (
	"context"
	"errors"
	"os"
	"path"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/klingtnet/modprep/internal"
	"github.com/klingtnet/modprep/internal/snapshot"
	"github.com/klingtnet/modprep/selfdelete"
	"github.com/klingtnet/modprep/slug"
)

// Summary describes the outcome of a preparation run.
type Summary struct {
	Report *Report
	// DebugReplacements is the number of DebugMode lines switched off.
	DebugReplacements int
	// Readme is the path of the rendered README, empty if none was rendered.
	Readme string
	// Archive is the path of the created archive, empty if none was created.
	Archive string
	// FreedBytes is the size of all regular files removed by the cleanup.
	FreedBytes int64
	// SelfDeleted is the path of the removed executable, empty if self-delete was off or failed.
	SelfDeleted string
}

// Preparer runs all release preparation steps for a mod directory.
type Preparer struct {
	config    *Config
	root      string
	matcher   *Matcher
	slugifier *slug.Slugifier
	logger    *zap.Logger
	// executable locates the running binary.
	executable func() (string, error)
}

// New returns a Preparer for config, which must have been validated.
func New(config *Config, logger *zap.Logger) (*Preparer, error) {
	root, err := filepath.Abs(config.Dir)
	if err != nil {
		return nil, err
	}
	matcher, err := NewMatcher(config.Patterns)
	if err != nil {
		return nil, err
	}

	return &Preparer{
		config:     config,
		root:       root,
		matcher:    matcher,
		slugifier:  slug.NewSlugifier('-'),
		logger:     logger,
		executable: selfdelete.Executable,
	}, nil
}

// Matcher returns the matcher built from the configured patterns.
func (p *Preparer) Matcher() *Matcher {
	return p.matcher
}

// Run renders the README, disables debug mode, cleans the tree, packs the archive and
// deletes the executable, each step only if configured.  Only errors that make the
// result unusable are returned, everything else is logged and recorded in the summary.
func (p *Preparer) Run(ctx context.Context) (*Summary, error) {
	summary := &Summary{}
	p.logger.Info("starting cleanup", zap.String("dir", p.root), zap.Strings("patterns", p.matcher.Patterns()), zap.Bool("dry_run", p.config.DryRun))

	if p.config.RenderReadme {
		err := p.renderReadme(ctx, summary)
		if err != nil {
			return summary, err
		}
	}

	if p.config.DisableDebug {
		p.disableDebug(summary)
	}

	before, err := snapshot.Take(os.DirFS(p.root))
	if err != nil {
		p.logger.Warn("could not measure directory before cleanup", zap.Error(err))
	}

	summary.Report, err = NewCleaner(p.root, p.matcher, p.config.Concurrency, p.config.DryRun, p.logger).Run(ctx)
	if err != nil {
		return summary, err
	}

	if before != nil && !p.config.DryRun {
		after, err := snapshot.Take(os.DirFS(p.root))
		if err != nil {
			p.logger.Warn("could not measure directory after cleanup", zap.Error(err))
		} else {
			summary.FreedBytes = snapshot.Diff(before, after).RemovedBytes
		}
	}

	var selfPath string
	if p.config.ArchiveDir != "" || p.config.SelfDelete {
		selfPath = p.selfPath()
	}

	if p.config.ArchiveDir != "" {
		err := p.pack(ctx, selfPath, summary)
		if err != nil {
			return summary, err
		}
	}

	if p.config.SelfDelete {
		p.selfDelete(ctx, selfPath, summary)
	}

	p.logger.Info("cleanup completed")

	return summary, nil
}

func (p *Preparer) renderReadme(ctx context.Context, summary *Summary) error {
	if p.config.DryRun {
		p.logger.Info("would render README", zap.String("dir", p.root))
		return nil
	}

	title := internal.TitleCase(p.config.Name)
	if title == "" {
		title = filepath.Base(p.root)
	}

	renderer := NewReadmeRenderer(DefaultMarkdown(), NewFileStorage(p.root))
	name, err := renderer.Render(ctx, os.DirFS(p.root), title, p.config.Version)
	if errors.Is(err, ErrNoReadme) {
		p.logger.Warn("no README to render", zap.String("dir", p.root))
		return nil
	}
	if err != nil {
		return err
	}

	summary.Readme = filepath.Join(p.root, filepath.FromSlash(name))
	p.logger.Info("rendered README", zap.String("path", summary.Readme))

	return nil
}

func (p *Preparer) disableDebug(summary *Summary) {
	script := filepath.Join(p.root, filepath.FromSlash(p.config.DebugScript))

	var (
		count int
		err   error
	)
	if p.config.DryRun {
		count, err = CountLine(script, DebugModeEnabled)
	} else {
		count, err = DisableDebugMode(script)
	}
	switch {
	case errors.Is(err, ErrScriptNotFound):
		p.logger.Warn("debug script not found", zap.String("path", script))
	case err != nil:
		p.logger.Error("error disabling debug mode", zap.String("path", script), zap.Error(err))
	default:
		summary.DebugReplacements = count
		p.logger.Info("disabled debug mode", zap.String("path", script), zap.Int("replacements", count), zap.Bool("dry_run", p.config.DryRun))
	}
}

// selfPath returns the file removed by self-delete and excluded from the archive.
func (p *Preparer) selfPath() string {
	if p.config.SelfPath != "" {
		exe, err := filepath.Abs(p.config.SelfPath)
		if err == nil {
			return exe
		}
	}

	exe, err := p.executable()
	if err != nil {
		p.logger.Warn("could not locate executable", zap.Error(err))
		return ""
	}

	return exe
}

// relInRoot returns path relative to the root in slash form, or false if it lies outside.
func (p *Preparer) relInRoot(target string) (string, bool) {
	if target == "" {
		return "", false
	}
	rel, err := filepath.Rel(p.root, target)
	if err != nil || !filepath.IsLocal(rel) {
		return "", false
	}

	return filepath.ToSlash(rel), true
}

func (p *Preparer) pack(ctx context.Context, selfPath string, summary *Summary) error {
	archiveDir, err := filepath.Abs(p.config.ArchiveDir)
	if err != nil {
		return err
	}
	name := ArchiveName(p.slugifier, p.config.Name, p.config.Version)
	stor := NewFileStorage(archiveDir)
	dest := stor.Path(name)

	if p.config.DryRun {
		p.logger.Info("would create archive", zap.String("path", dest))
		return nil
	}

	selfRel, selfInRoot := p.relInRoot(selfPath)
	destRel, destInRoot := p.relInRoot(dest)
	skip := func(rel string) bool {
		if selfInRoot && rel == selfRel {
			return true
		}
		// FileStorage writes to a hidden temporary file next to dest while the walk is running.
		return destInRoot && path.Dir(rel) == path.Dir(destRel) &&
			(rel == destRel || strings.HasPrefix(path.Base(rel), "."+name+"."))
	}

	files, err := NewArchiver(stor).Pack(ctx, os.DirFS(p.root), name, skip)
	if err != nil {
		return err
	}

	summary.Archive = dest
	p.logger.Info("created archive", zap.String("path", dest), zap.Int("files", files))

	return nil
}

func (p *Preparer) selfDelete(ctx context.Context, exe string, summary *Summary) {
	if exe == "" {
		return
	}
	if p.config.DryRun {
		p.logger.Info("would delete self", zap.String("path", exe))
		return
	}

	err := selfdelete.Remove(ctx, exe)
	if err != nil {
		p.logger.Error("error deleting self", zap.String("path", exe), zap.Error(err))
		return
	}

	summary.SelfDeleted = exe
	p.logger.Info("deleted self", zap.String("path", exe))
}
