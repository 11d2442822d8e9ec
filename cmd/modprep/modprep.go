// Package main implements the CLI for modprep, a release preparation tool for game mods.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/klingtnet/modprep/release"
)

const (
	InternalError = iota + 1
	BadArgument
	RemovalFailed
)

func run(c *cli.Context) error {
	config, err := loadConfig(c)
	if err != nil {
		return err
	}

	logger, err := newLogger(c)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	preparer, err := release.New(config, logger)
	if err != nil {
		return cli.Exit(fmt.Sprintf("bad config: %s", err.Error()), BadArgument)
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	summary, err := preparer.Run(ctx)
	if err != nil {
		return cli.Exit(fmt.Sprintf("preparing release failed: %s", err.Error()), InternalError)
	}

	report := summary.Report
	logger.Info("summary",
		zap.Int("removed", len(report.Removed)),
		zap.Int("pruned", len(report.Pruned)),
		zap.Int("failed", len(report.Failures)),
		zap.Int("debug_replacements", summary.DebugReplacements),
		zap.String("freed", humanize.Bytes(uint64(summary.FreedBytes))),
	)

	if len(report.Failures) > 0 && c.Bool("strict") {
		return cli.Exit(fmt.Sprintf("%d removals failed", len(report.Failures)), RemovalFailed)
	}

	return nil
}

func listPatterns(c *cli.Context) error {
	config, err := loadConfig(c)
	if err != nil {
		return err
	}

	matcher, err := release.NewMatcher(config.Patterns)
	if err != nil {
		return cli.Exit(fmt.Sprintf("bad config: %s", err.Error()), BadArgument)
	}
	for _, pattern := range matcher.Patterns() {
		fmt.Fprintln(c.App.Writer, pattern)
	}

	return nil
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "modprep",
		Usage: "prepare a mod directory for release",
		Description: "Removes version control metadata, docs and debug helpers from a mod directory, " +
			"prunes empty directories and optionally disables debug mode, renders the README, " +
			"packs an archive and deletes itself. Flags overwrite config file settings.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Usage: "JSON or YAML config file",
			},
			&cli.StringFlag{
				Name:  "dir",
				Usage: "mod directory to prepare (default: current directory)",
			},
			&cli.StringSliceFlag{
				Name:  "pattern",
				Usage: "glob pattern of names to remove, replaces the configured patterns, repeatable",
			},
			&cli.BoolFlag{
				Name:  "disable-debug",
				Usage: "switch 'DebugMode = true' to false in the debug script",
			},
			&cli.StringFlag{
				Name:  "debug-script",
				Usage: "configuration script holding DebugMode, relative to the mod directory",
			},
			&cli.BoolFlag{
				Name:  "render-readme",
				Usage: "render README.md to README.html before markdown files are removed",
			},
			&cli.StringFlag{
				Name:  "archive",
				Usage: "folder to store a zip archive of the prepared mod in",
			},
			&cli.StringFlag{
				Name:  "name",
				Usage: "mod name, used for the README title and archive name",
			},
			&cli.StringFlag{
				Name:  "version",
				Usage: "mod version, appended to the archive name",
			},
			&cli.BoolFlag{
				Name:  "self-delete",
				Usage: "delete the executable after the run",
			},
			&cli.StringFlag{
				Name:  "self",
				Usage: "file to delete instead of the executable when self-deleting",
			},
			&cli.IntFlag{
				Name:  "concurrency",
				Usage: "number of parallel removals",
				Value: 1,
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "only report what would be done",
			},
			&cli.BoolFlag{
				Name:  "strict",
				Usage: "exit with a non-zero code if any removal failed",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "enable debug logging",
			},
			&cli.StringFlag{
				Name:  "log-format",
				Usage: "console or json",
				Value: "console",
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "patterns",
				Usage:  "print the effective removal patterns",
				Action: listPatterns,
			},
		},
		Action: run,
	}
}

func main() {
	err := newApp().RunContext(context.Background(), os.Args)
	if err != nil {
		log.Fatal(err)
	}
}
