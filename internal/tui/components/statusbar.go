package components

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
)

// StatusBar manages the bottom status bar: branch, stash and submodule
// counts, the most recent message or error, and the last refresh time.
type StatusBar struct {
	branch      string
	stashes     int
	submodules  int
	dirtySubs   int
	message     string
	errMsg      string
	progress    string
	lastRefresh time.Time
}

// NewStatusBar creates a new status bar.
func NewStatusBar() *StatusBar {
	return &StatusBar{}
}

// SetBranch updates the branch name.
func (s *StatusBar) SetBranch(name string) { s.branch = name }

// SetStashCount updates the stash entry count.
func (s *StatusBar) SetStashCount(n int) { s.stashes = n }

// SetSubmoduleCounts updates the submodule totals; dirty counts the
// ones whose checkout differs from the superproject index.
func (s *StatusBar) SetSubmoduleCounts(total, dirty int) {
	s.submodules = total
	s.dirtySubs = dirty
}

// SetMessage sets a transient informational message, clearing any
// error.
func (s *StatusBar) SetMessage(msg string) {
	s.message = msg
	s.errMsg = ""
}

// SetError sets an error message; it wins over the info message.
func (s *StatusBar) SetError(msg string) { s.errMsg = msg }

// SetProgress shows an in-flight operation, or clears it with "".
func (s *StatusBar) SetProgress(p string) { s.progress = p }

// SetLastRefresh updates the refresh timestamp.
func (s *StatusBar) SetLastRefresh(t time.Time) { s.lastRefresh = t }

// Render draws the bar.
func (s *StatusBar) Render(width int, faint, errStyle lipgloss.Style) string {
	left := "h: help"
	if s.branch != "" {
		left = "on " + s.branch
	}
	if s.stashes > 0 {
		left += fmt.Sprintf("  stashes: %d", s.stashes)
	}
	if s.submodules > 0 {
		left += fmt.Sprintf("  submodules: %d", s.submodules)
		if s.dirtySubs > 0 {
			left += fmt.Sprintf(" (%d dirty)", s.dirtySubs)
		}
	}
	switch {
	case s.errMsg != "":
		left += "  " + errStyle.Render(s.errMsg)
	case s.progress != "":
		left += "  " + s.progress
	case s.message != "":
		left += "  " + s.message
	}

	right := ""
	if !s.lastRefresh.IsZero() {
		right = faint.Render("refreshed: " + s.lastRefresh.Format("15:04:05"))
	}
	rightW := lipgloss.Width(right)
	if rightW >= width {
		return ansi.Truncate(right, width, "…")
	}
	avail := width - rightW - 1
	leftR := ansi.Truncate(faint.Render(left), avail, "…")
	gap := width - lipgloss.Width(leftR) - rightW
	if gap < 1 {
		gap = 1
	}
	return leftR + strings.Repeat(" ", gap) + right
}
