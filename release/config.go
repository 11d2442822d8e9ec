// Package release prepares a mod directory for distribution.
package release

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultPatterns are removed from a mod directory unless configured otherwise.
var DefaultPatterns = []string{
	".git*",
	"*.gitignore",
	"*.gitattributes",
	"*.gitmodules",
	"*.md",
	"*.json",
	"AFUtilsDebug.lua",
	"nexusmods",
}

// DefaultDebugScript is the configuration script that holds the DebugMode flag, relative to the mod directory.
const DefaultDebugScript = "Scripts/config.lua"

var (
	ErrNoPatterns         = fmt.Errorf("at least one pattern is required")
	ErrBadConcurrency     = fmt.Errorf("concurrency must be greater than zero")
	ErrNotADirectory      = fmt.Errorf("not a directory")
	ErrDebugScriptUnset   = fmt.Errorf("debug script must be set to disable debug mode")
	ErrDebugScriptOutside = fmt.Errorf("debug script must be a relative path inside the mod directory")
	ErrNameUnset          = fmt.Errorf("name must be set to create an archive")
	ErrUnsupportedFormat  = fmt.Errorf("unsupported config format")
)

type Config struct {
	// Name of the mod, used for the README title and the archive name.
	Name    string `json:"name" yaml:"name"`
	Version string `json:"version" yaml:"version"`
	// Dir is the mod directory to prepare.
	Dir          string   `json:"dir" yaml:"dir"`
	Patterns     []string `json:"patterns" yaml:"patterns"`
	DebugScript  string   `json:"debug_script" yaml:"debug_script"`
	DisableDebug bool     `json:"disable_debug" yaml:"disable_debug"`
	RenderReadme bool     `json:"render_readme" yaml:"render_readme"`
	// ArchiveDir enables packing the prepared directory into a zip archive stored there.
	ArchiveDir string `json:"archive_dir" yaml:"archive_dir"`
	SelfDelete bool   `json:"self_delete" yaml:"self_delete"`
	// SelfPath overrides the file removed by SelfDelete, defaults to the running executable.
	SelfPath    string `json:"self_path" yaml:"self_path"`
	Concurrency int    `json:"concurrency" yaml:"concurrency"`
	DryRun      bool   `json:"-" yaml:"-"`
}

// DefaultConfig returns the configuration used when no config file is given.
// It processes the current working directory with DefaultPatterns.
func DefaultConfig() *Config {
	return &Config{
		Dir:         ".",
		Patterns:    append([]string(nil), DefaultPatterns...),
		DebugScript: DefaultDebugScript,
		Concurrency: 1,
	}
}

// ParseConfigFile reads a JSON or YAML config file, the format is chosen by file extension.
// Settings missing from the file keep their DefaultConfig values.
func ParseConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return parseConfig(data, json.Unmarshal)
	case ".yaml", ".yml":
		return parseConfig(data, yaml.Unmarshal)
	default:
		return nil, fmt.Errorf("%q: %w", filepath.Ext(path), ErrUnsupportedFormat)
	}
}

func parseConfig(data []byte, unmarshal func([]byte, any) error) (config *Config, err error) {
	config = DefaultConfig()
	err = unmarshal(data, config)
	return
}

// Validate checks that the config describes a runnable preparation.
func (c *Config) Validate() error {
	info, err := os.Stat(c.Dir)
	if err != nil {
		return fmt.Errorf("mod directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("mod directory %q: %w", c.Dir, ErrNotADirectory)
	}

	_, err = NewMatcher(c.Patterns)
	if err != nil {
		return err
	}

	if c.Concurrency < 1 {
		return ErrBadConcurrency
	}

	if c.DisableDebug {
		if c.DebugScript == "" {
			return ErrDebugScriptUnset
		}
		if !filepath.IsLocal(filepath.FromSlash(c.DebugScript)) {
			return fmt.Errorf("%q: %w", c.DebugScript, ErrDebugScriptOutside)
		}
	}

	if c.ArchiveDir != "" && strings.TrimSpace(c.Name) == "" {
		return ErrNameUnset
	}

	return nil
}
