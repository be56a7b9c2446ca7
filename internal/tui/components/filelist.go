package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/interpretive-systems/gitscope/internal/gitx"
)

// FileList manages the left pane file list.
type FileList struct {
	files    []gitx.FileChange
	selected int
	offset   int
}

// NewFileList creates a new file list.
func NewFileList() *FileList {
	return &FileList{}
}

// SetFiles replaces the file list, keeping the selection on the same
// path when it still exists.
func (f *FileList) SetFiles(files []gitx.FileChange) {
	var keep string
	if sel := f.SelectedFile(); sel != nil {
		keep = sel.Path
	}
	f.files = files
	f.selected = 0
	for i, fc := range files {
		if fc.Path == keep {
			f.selected = i
			break
		}
	}
}

// Files returns the current file list.
func (f *FileList) Files() []gitx.FileChange {
	return f.files
}

// SelectedFile returns the currently selected file, or nil.
func (f *FileList) SelectedFile() *gitx.FileChange {
	if f.selected < 0 || f.selected >= len(f.files) {
		return nil
	}
	return &f.files[f.selected]
}

// MoveSelection moves the selection by delta, clamped. Returns true
// when the selection changed.
func (f *FileList) MoveSelection(delta int) bool {
	if len(f.files) == 0 {
		return false
	}
	next := f.selected + delta
	if next < 0 {
		next = 0
	}
	if next >= len(f.files) {
		next = len(f.files) - 1
	}
	changed := next != f.selected
	f.selected = next
	return changed
}

// GoToTop selects the first file.
func (f *FileList) GoToTop() bool {
	if len(f.files) == 0 || f.selected == 0 {
		return false
	}
	f.selected = 0
	return true
}

// GoToBottom selects the last file.
func (f *FileList) GoToBottom() bool {
	if len(f.files) == 0 || f.selected == len(f.files)-1 {
		return false
	}
	f.selected = len(f.files) - 1
	return true
}

// Render draws the list into a width x height box.
func (f *FileList) Render(width, height int, selStyle, faint lipgloss.Style) []string {
	if height <= 0 {
		return nil
	}
	// Keep the selection visible.
	if f.selected < f.offset {
		f.offset = f.selected
	}
	if f.selected >= f.offset+height {
		f.offset = f.selected - height + 1
	}

	lines := make([]string, 0, height)
	for i := f.offset; i < len(f.files) && len(lines) < height; i++ {
		fc := f.files[i]
		line := fmt.Sprintf("%s %s", marker(fc), fc.Path)
		line = ansi.Truncate(line, width, "…")
		if i == f.selected {
			line = selStyle.Render(padTo(line, width))
		}
		lines = append(lines, line)
	}
	if len(f.files) == 0 {
		lines = append(lines, faint.Render("(no changes)"))
	}
	for len(lines) < height {
		lines = append(lines, "")
	}
	return lines
}

func marker(fc gitx.FileChange) string {
	switch {
	case fc.Untracked:
		return "?"
	case fc.Deleted:
		return "D"
	case fc.Renamed:
		return "R"
	case fc.Staged && !fc.Unstaged:
		return "S"
	default:
		return "M"
	}
}

func padTo(s string, width int) string {
	if w := ansi.StringWidth(s); w < width {
		return s + strings.Repeat(" ", width-w)
	}
	return s
}
