package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// AlignFooter returns a single line with `left` at the start and `right`
// pushed to the right edge of `width` columns. Widths are measured with
// lipgloss so styled segments don't count their escape sequences. When the
// terminal is too narrow a single space separates the two parts.
func AlignFooter(left, right string, width int) string {
	spaces := width - lipgloss.Width(left) - lipgloss.Width(right)
	if spaces < 1 {
		spaces = 1
	}
	return left + strings.Repeat(" ", spaces) + right
}
