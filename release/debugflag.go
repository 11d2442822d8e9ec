package release

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

const (
	DebugModeEnabled  = "DebugMode = true"
	DebugModeDisabled = "DebugMode = false"
)

var (
	ErrScriptNotFound = fmt.Errorf("script not found")
	ErrEmptyLine      = fmt.Errorf("line to replace must not be blank")
)

// replaceLines replaces every line of data whose trimmed content equals old.
// Leading indentation and the line ending, LF or CRLF, are kept.
func replaceLines(data, old, new string) (string, int) {
	var (
		sb    strings.Builder
		count int
	)
	sb.Grow(len(data))

	for _, line := range strings.SplitAfter(data, "\n") {
		body, ending := line, ""
		if strings.HasSuffix(body, "\n") {
			body, ending = body[:len(body)-1], "\n"
		}
		if strings.HasSuffix(body, "\r") {
			body, ending = body[:len(body)-1], "\r"+ending
		}

		if strings.TrimSpace(body) != old {
			sb.WriteString(line)
			continue
		}

		indent := body[:len(body)-len(strings.TrimLeft(body, " \t"))]
		sb.WriteString(indent)
		sb.WriteString(new)
		sb.WriteString(ending)
		count++
	}

	return sb.String(), count
}

// ReplaceLine replaces all lines of the file at path that read old, ignoring surrounding whitespace, with new.
// It returns the number of replaced lines. The file is only rewritten if at least one line matched.
func ReplaceLine(path, old, new string) (int, error) {
	return replaceLineInFile(path, old, new, true)
}

// CountLine returns how many lines ReplaceLine would replace without modifying the file.
func CountLine(path, old string) (int, error) {
	return replaceLineInFile(path, old, old, false)
}

func replaceLineInFile(path, old, new string, write bool) (int, error) {
	old = strings.TrimSpace(old)
	if old == "" {
		return 0, ErrEmptyLine
	}

	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, fmt.Errorf("%w: %s", ErrScriptNotFound, path)
	}
	if err != nil {
		return 0, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}

	replaced, count := replaceLines(string(data), old, new)
	if count == 0 || !write {
		return count, nil
	}

	return count, os.WriteFile(path, []byte(replaced), info.Mode().Perm())
}

// DisableDebugMode switches the DebugMode assignment of a configuration script from true to false.
func DisableDebugMode(path string) (int, error) {
	return ReplaceLine(path, DebugModeEnabled, DebugModeDisabled)
}
