package release

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"sync"

	"github.com/klingtnet/modprep/internal/distribute"
	"go.uber.org/zap"
)

// Match is a directory entry whose name matched a pattern.
type Match struct {
	// Path is slash separated and relative to the cleaned root.
	Path    string
	IsDir   bool
	Pattern string
}

// Plan lists what a cleanup will touch.
type Plan struct {
	Matches []Match
	// Dirs are all directories that are not removed by a match, in post-order.
	// The root is not included.
	Dirs []string
	// Prunable are the directories of Dirs that are empty once all matches are removed, in post-order.
	Prunable []string
	// Unreadable are the directories whose entries could not be listed, in walk order.
	// They are neither cleaned nor pruned.
	Unreadable []string
}

// Failure records a removal that did not succeed.
type Failure struct {
	Path string
	Err  error
}

// Report lists what a cleanup did, or would do in dry-run mode.
// All lists are sorted except Pruned which is in removal order.
type Report struct {
	Removed  []Match
	Pruned   []string
	Failures []Failure
}

// Cleaner removes entries matching a set of patterns from a directory tree
// and prunes directories that are empty afterwards.
type Cleaner struct {
	root        string
	matcher     *Matcher
	concurrency int
	dryRun      bool
	logger      *zap.Logger
}

// NewCleaner returns a Cleaner for the tree below root.
// Removals are spread across concurrency workers, a concurrency of one removes matches in walk order.
func NewCleaner(root string, matcher *Matcher, concurrency int, dryRun bool, logger *zap.Logger) *Cleaner {
	return &Cleaner{
		root:        root,
		matcher:     matcher,
		concurrency: concurrency,
		dryRun:      dryRun,
		logger:      logger,
	}
}

func (c *Cleaner) osPath(p string) string {
	return filepath.Join(c.root, filepath.FromSlash(p))
}

// Plan walks the tree and collects matching entries.
// Matching directories are not descended into and symlinks are never followed.
// Only an unreadable root is an error, other walk errors are logged and skipped.
func (c *Cleaner) Plan(ctx context.Context) (*Plan, error) {
	plan := &Plan{}
	// remaining counts the entries of a directory that survive the cleanup.
	remaining := make(map[string]int)
	var preOrder []string

	err := fs.WalkDir(os.DirFS(c.root), ".", func(p string, d fs.DirEntry, err error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err != nil {
			if p == "." {
				return err
			}
			c.logger.Warn("skipping unreadable entry", zap.String("path", c.osPath(p)), zap.Error(err))
			plan.Unreadable = append(plan.Unreadable, p)
			// Unknown content, never prune it.
			remaining[p]++
			return nil
		}
		if p == "." {
			return nil
		}

		pattern, ok := c.matcher.Match(d.Name())
		if ok {
			plan.Matches = append(plan.Matches, Match{Path: p, IsDir: d.IsDir(), Pattern: pattern})
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		remaining[path.Dir(p)]++
		if d.IsDir() {
			preOrder = append(preOrder, p)
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	// Reversing a pre-order walk puts every directory after all of its descendants.
	for i := len(preOrder) - 1; i >= 0; i-- {
		dir := preOrder[i]
		plan.Dirs = append(plan.Dirs, dir)
		if remaining[dir] == 0 {
			plan.Prunable = append(plan.Prunable, dir)
			remaining[path.Dir(dir)]--
		}
	}

	return plan, nil
}

// Run plans the cleanup, removes all matches and prunes empty directories.
// Failed removals are logged, recorded in the report and do not stop the run.
func (c *Cleaner) Run(ctx context.Context) (*Report, error) {
	plan, err := c.Plan(ctx)
	if err != nil {
		return nil, err
	}

	if c.dryRun {
		return c.dryRunReport(plan), nil
	}

	report := &Report{}
	defer sortReport(report)

	var mu sync.Mutex
	err = distribute.OneToN(
		ctx,
		distribute.Slice(plan.Matches),
		func(ctx context.Context, m Match) error {
			err := c.remove(m)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				report.Removed = append(report.Removed, m)
			case errors.Is(err, fs.ErrNotExist):
				c.logger.Debug("already gone", zap.String("path", c.osPath(m.Path)))
			default:
				report.Failures = append(report.Failures, Failure{Path: m.Path, Err: err})
			}

			return nil
		},
		c.concurrency,
	)
	if err != nil {
		return report, err
	}

	unreadable := make(map[string]bool, len(plan.Unreadable))
	for _, dir := range plan.Unreadable {
		unreadable[dir] = true
	}
	for _, dir := range plan.Dirs {
		if ctx.Err() != nil {
			return report, ctx.Err()
		}
		if unreadable[dir] {
			continue
		}
		c.prune(dir, report)
	}

	return report, nil
}

func (c *Cleaner) remove(m Match) error {
	p := c.osPath(m.Path)
	if m.IsDir {
		err := os.RemoveAll(p)
		if err != nil {
			c.logger.Error("error removing directory", zap.String("path", p), zap.Error(err))
			return err
		}
		c.logger.Info("removed directory", zap.String("path", p), zap.String("pattern", m.Pattern))
		return nil
	}

	err := os.Remove(p)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			c.logger.Error("error removing file", zap.String("path", p), zap.Error(err))
		}
		return err
	}
	c.logger.Info("removed file", zap.String("path", p), zap.String("pattern", m.Pattern))

	return nil
}

// prune removes dir if it has no entries left.
func (c *Cleaner) prune(dir string, report *Report) {
	p := c.osPath(dir)
	entries, err := os.ReadDir(p)
	if err != nil {
		c.logger.Error("error removing empty directory", zap.String("path", p), zap.Error(err))
		report.Failures = append(report.Failures, Failure{Path: dir, Err: err})
		return
	}
	if len(entries) > 0 {
		return
	}

	err = os.Remove(p)
	if err != nil {
		c.logger.Error("error removing empty directory", zap.String("path", p), zap.Error(err))
		report.Failures = append(report.Failures, Failure{Path: dir, Err: err})
		return
	}
	c.logger.Info("removed empty directory", zap.String("path", p))
	report.Pruned = append(report.Pruned, dir)
}

func (c *Cleaner) dryRunReport(plan *Plan) *Report {
	report := &Report{
		Removed: append([]Match(nil), plan.Matches...),
		Pruned:  append([]string(nil), plan.Prunable...),
	}
	for _, m := range plan.Matches {
		c.logger.Info("would remove", zap.String("path", c.osPath(m.Path)), zap.Bool("dir", m.IsDir), zap.String("pattern", m.Pattern))
	}
	for _, dir := range plan.Prunable {
		c.logger.Info("would remove empty directory", zap.String("path", c.osPath(dir)))
	}
	sortReport(report)

	return report
}

func sortReport(report *Report) {
	sort.Slice(report.Removed, func(i, j int) bool { return report.Removed[i].Path < report.Removed[j].Path })
	sort.Slice(report.Failures, func(i, j int) bool { return report.Failures[i].Path < report.Failures[j].Path })
}
