package main

import (
	"fmt"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/klingtnet/modprep/release"
)

func flagOverride(config *release.Config, c *cli.Context) {
	if c.String("dir") != "" {
		config.Dir = c.String("dir")
	}
	if c.IsSet("pattern") {
		config.Patterns = c.StringSlice("pattern")
	}
	if c.String("debug-script") != "" {
		config.DebugScript = c.String("debug-script")
	}
	if c.String("archive") != "" {
		config.ArchiveDir = c.String("archive")
	}
	if c.String("name") != "" {
		config.Name = c.String("name")
	}
	if c.String("version") != "" {
		config.Version = c.String("version")
	}
	if c.String("self") != "" {
		config.SelfPath = c.String("self")
	}
	if c.IsSet("disable-debug") {
		config.DisableDebug = c.Bool("disable-debug")
	}
	if c.IsSet("render-readme") {
		config.RenderReadme = c.Bool("render-readme")
	}
	if c.IsSet("self-delete") {
		config.SelfDelete = c.Bool("self-delete")
	}
	if c.IsSet("concurrency") {
		config.Concurrency = c.Int("concurrency")
	}
	config.DryRun = c.Bool("dry-run")
}

// loadConfig reads the optional config file, applies flag overrides and validates the result.
func loadConfig(c *cli.Context) (config *release.Config, err error) {
	if path := c.String("config"); path != "" {
		config, err = release.ParseConfigFile(path)
		if err != nil {
			return nil, cli.Exit(fmt.Sprintf("parsing config %q failed: %s", path, err.Error()), BadArgument)
		}
	} else {
		config = release.DefaultConfig()
	}
	flagOverride(config, c)

	err = config.Validate()
	if err != nil {
		return nil, cli.Exit(fmt.Sprintf("bad config: %s", err.Error()), BadArgument)
	}

	return config, nil
}

func newLogger(c *cli.Context) (*zap.Logger, error) {
	var config zap.Config
	switch format := c.String("log-format"); format {
	case "console":
		config = zap.NewDevelopmentConfig()
		config.DisableCaller = true
		config.DisableStacktrace = true
		config.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
	case "json":
		config = zap.NewProductionConfig()
	default:
		return nil, cli.Exit(fmt.Sprintf("unknown log format %q", format), BadArgument)
	}

	config.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	if c.Bool("verbose") {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}

	logger, err := config.Build()
	if err != nil {
		return nil, cli.Exit(fmt.Sprintf("failed to initialize logger: %s", err.Error()), InternalError)
	}

	return logger, nil
}
