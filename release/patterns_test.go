package release

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewMatcher(t *testing.T) {
	t.Run("no patterns", func(t *testing.T) {
		_, err := NewMatcher(nil)
		require.ErrorIs(t, err, ErrNoPatterns)
	})

	t.Run("bad pattern", func(t *testing.T) {
		_, err := NewMatcher([]string{"*.md", "["})
		require.ErrorIs(t, err, filepath.ErrBadPattern)
	})

	t.Run("duplicates are collapsed", func(t *testing.T) {
		m, err := NewMatcher([]string{"*.md", "*.json", "*.md"})
		require.NoError(t, err)
		require.Equal(t, []string{"*.md", "*.json"}, m.Patterns())
	})
}

func TestMatcherDefaultPatterns(t *testing.T) {
	m, err := NewMatcher(DefaultPatterns)
	require.NoError(t, err)

	tCases := []struct {
		name    string
		pattern string
		match   bool
	}{
		{".git", ".git*", true},
		{".github", ".git*", true},
		{".gitignore", ".git*", true},
		{"lib.gitmodules", "*.gitmodules", true},
		{"README.md", "*.md", true},
		{"mod.json", "*.json", true},
		{"AFUtilsDebug.lua", "AFUtilsDebug.lua", true},
		{"nexusmods", "nexusmods", true},
		{"main.lua", "", false},
		{"README.MD", "", false},
		{"afutilsdebug.lua", "", false},
		{"nexusmods.txt", "", false},
		{"json", "", false},
	}
	for _, tCase := range tCases {
		t.Run(tCase.name, func(t *testing.T) {
			pattern, ok := m.Match(tCase.name)
			require.Equal(t, tCase.match, ok)
			require.Equal(t, tCase.pattern, pattern)
		})
	}
}
