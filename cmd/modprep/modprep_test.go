package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"

	"github.com/klingtnet/modprep/internal/testutils"
	"github.com/klingtnet/modprep/release"
)

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()

	out := bytes.NewBuffer(nil)
	app := newApp()
	app.Writer = out
	app.ErrWriter = out
	// Keep cli.Exit errors from terminating the test binary.
	app.ExitErrHandler = func(*cli.Context, error) {}

	err := app.Run(append([]string{"modprep"}, args...))
	return out.String(), err
}

func exitCode(t *testing.T, err error) int {
	t.Helper()

	var exitErr cli.ExitCoder
	require.True(t, errors.As(err, &exitErr), "expected an exit error, got %v", err)
	return exitErr.ExitCode()
}

func TestPatternsCommand(t *testing.T) {
	out, err := runApp(t, "patterns")
	require.NoError(t, err)
	require.Equal(t, strings.Join(release.DefaultPatterns, "\n")+"\n", out)

	out, err = runApp(t, "--pattern", "*.txt", "--pattern", "build", "patterns")
	require.NoError(t, err)
	require.Equal(t, "*.txt\nbuild\n", out)
}

func TestRun(t *testing.T) {
	root := testutils.WriteTree(t, fstest.MapFS{
		".git/HEAD":          &fstest.MapFile{Data: []byte("ref")},
		"README.md":          &fstest.MapFile{Data: []byte("# Mod")},
		"Scripts/config.lua": &fstest.MapFile{Data: []byte("DebugMode = true\n")},
		"Scripts/main.lua":   &fstest.MapFile{Data: []byte("print('hi')")},
		"docs/guide.md":      &fstest.MapFile{Data: []byte("guide")},
	})

	_, err := runApp(t, "--dir", root, "--disable-debug", "--render-readme", "--name", "my mod")
	require.NoError(t, err)
	require.Equal(t, []string{
		"README.html",
		"Scripts/",
		"Scripts/config.lua",
		"Scripts/main.lua",
	}, testutils.ListTree(t, root))

	data, err := os.ReadFile(filepath.Join(root, "Scripts", "config.lua"))
	require.NoError(t, err)
	require.Equal(t, "DebugMode = false\n", string(data))
}

func TestRunWithConfigFile(t *testing.T) {
	root := testutils.WriteTree(t, fstest.MapFS{
		"notes.txt": &fstest.MapFile{Data: []byte("x")},
		"main.lua":  &fstest.MapFile{Data: []byte("x")},
	})
	configPath := filepath.Join(t.TempDir(), "modprep.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("dir: "+root+"\npatterns: ['*.txt']\n"), 0o600))

	_, err := runApp(t, "--config", configPath, "--dry-run")
	require.NoError(t, err)
	require.Equal(t, []string{"main.lua", "notes.txt"}, testutils.ListTree(t, root))

	_, err = runApp(t, "--config", configPath)
	require.NoError(t, err)
	require.Equal(t, []string{"main.lua"}, testutils.ListTree(t, root))
}

func TestRunArchive(t *testing.T) {
	root := testutils.WriteTree(t, fstest.MapFS{
		"README.md": &fstest.MapFile{Data: []byte("# Mod")},
		"main.lua":  &fstest.MapFile{Data: []byte("x")},
	})
	archiveDir := t.TempDir()

	_, err := runApp(t, "--dir", root, "--archive", archiveDir, "--name", "my mod", "--version", "1.2.0")
	require.NoError(t, err)
	require.Equal(t, []string{"my-mod-1.2.0.zip"}, testutils.ListTree(t, archiveDir))
}

func TestRunStrict(t *testing.T) {
	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission based failures need a non-root unix user")
	}

	root := testutils.WriteTree(t, fstest.MapFS{
		"locked/notes.md": &fstest.MapFile{Data: []byte("x")},
		"main.lua":        &fstest.MapFile{Data: []byte("x")},
	})
	locked := filepath.Join(root, "locked")
	require.NoError(t, os.Chmod(locked, 0o555))
	t.Cleanup(func() { os.Chmod(locked, 0o755) })

	_, err := runApp(t, "--dir", root, "--strict")
	require.Equal(t, RemovalFailed, exitCode(t, err))

	_, err = runApp(t, "--dir", root)
	require.NoError(t, err, "failed removals are only logged without --strict")
	require.Equal(t, []string{"locked/", "locked/notes.md", "main.lua"}, testutils.ListTree(t, root))
}

func TestConcurrencyDefault(t *testing.T) {
	out, err := runApp(t, "--help")
	require.NoError(t, err)
	require.Regexp(t, `--concurrency value\s+number of parallel removals \(default: 1\)`, out)
}

func TestRunBadArguments(t *testing.T) {
	zeroConcurrency := filepath.Join(t.TempDir(), "modprep.yaml")
	require.NoError(t, os.WriteFile(zeroConcurrency, []byte("dir: "+t.TempDir()+"\nconcurrency: 0\n"), 0o600))

	tCases := []struct {
		name string
		args []string
	}{
		{"missing dir", []string{"--dir", filepath.Join(t.TempDir(), "missing")}},
		{"bad pattern", []string{"--dir", t.TempDir(), "--pattern", "["}},
		{"bad concurrency", []string{"--dir", t.TempDir(), "--concurrency", "0"}},
		{"bad concurrency in config", []string{"--config", zeroConcurrency}},
		{"missing config", []string{"--config", filepath.Join(t.TempDir(), "missing.json")}},
		{"bad log format", []string{"--dir", t.TempDir(), "--log-format", "xml"}},
		{"archive without name", []string{"--dir", t.TempDir(), "--archive", t.TempDir()}},
	}
	for _, tCase := range tCases {
		t.Run(tCase.name, func(t *testing.T) {
			_, err := runApp(t, tCase.args...)
			require.Equal(t, BadArgument, exitCode(t, err))
		})
	}
}
