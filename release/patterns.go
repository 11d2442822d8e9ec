package release

import (
	"fmt"
	"path/filepath"
)

// Matcher matches single path elements against a list of glob patterns.
type Matcher struct {
	patterns []string
}

// NewMatcher validates patterns and returns a Matcher for them.
// Duplicate patterns are dropped, the order of first occurrence is kept.
// Malformed patterns result in an error wrapping filepath.ErrBadPattern.
func NewMatcher(patterns []string) (*Matcher, error) {
	if len(patterns) == 0 {
		return nil, ErrNoPatterns
	}

	seen := make(map[string]bool, len(patterns))
	m := &Matcher{patterns: make([]string, 0, len(patterns))}
	for _, pattern := range patterns {
		if seen[pattern] {
			continue
		}
		seen[pattern] = true

		// Matching against a non-empty name forces filepath.Match to parse the whole pattern.
		if _, err := filepath.Match(pattern, "x"); err != nil {
			return nil, fmt.Errorf("pattern %q: %w", pattern, err)
		}
		m.patterns = append(m.patterns, pattern)
	}

	return m, nil
}

// Match returns the first pattern matching name, which must be a base name without separators.
func (m *Matcher) Match(name string) (string, bool) {
	for _, pattern := range m.patterns {
		// Errors are impossible, patterns were validated in NewMatcher.
		if ok, _ := filepath.Match(pattern, name); ok {
			return pattern, true
		}
	}

	return "", false
}

// Patterns returns the effective pattern list.
func (m *Matcher) Patterns() []string {
	return append([]string(nil), m.patterns...)
}
