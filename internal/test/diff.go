package test

import (
	"strings"

	"github.com/kylelemons/godebug/diff"
)

const (
	colorReset = "\033[0m"
	colorRed   = "\033[31m"
	colorGreen = "\033[32m"
	colorDim   = "\033[37m"
)

// Diff renders a line-by-line diff of two strings. Lines only in "old" are
// prefixed with "-", lines only in "new" with "+", and shared lines with " ".
func Diff(old string, new string, color bool) string {
	text := diff.Diff(old, new)
	if !color {
		return text
	}

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		switch {
		case strings.HasPrefix(line, "-"):
			lines[i] = colorRed + line + colorReset
		case strings.HasPrefix(line, "+"):
			lines[i] = colorGreen + line + colorReset
		default:
			lines[i] = colorDim + line + colorReset
		}
	}
	return strings.Join(lines, "\n")
}
