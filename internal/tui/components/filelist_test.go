package components

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/interpretive-systems/gitscope/internal/gitx"
)

func TestFileList_SetFilesKeepsSelectionByPath(t *testing.T) {
	fl := NewFileList()
	fl.SetFiles([]gitx.FileChange{
		{Path: "a.txt"}, {Path: "b.txt"}, {Path: "c.txt"},
	})
	fl.MoveSelection(1)

	// A refresh reorders and removes entries; the selection follows
	// the path, not the index.
	fl.SetFiles([]gitx.FileChange{
		{Path: "c.txt"}, {Path: "b.txt"},
	})
	if sel := fl.SelectedFile(); sel == nil || sel.Path != "b.txt" {
		t.Fatalf("expected selection to stay on b.txt, got %+v", sel)
	}

	// Path gone: selection falls back to the top.
	fl.SetFiles([]gitx.FileChange{{Path: "z.txt"}})
	if sel := fl.SelectedFile(); sel == nil || sel.Path != "z.txt" {
		t.Fatalf("expected fallback to first file, got %+v", sel)
	}
}

func TestFileList_MoveSelectionClamps(t *testing.T) {
	fl := NewFileList()
	if fl.MoveSelection(1) {
		t.Fatal("empty list must not move")
	}
	fl.SetFiles([]gitx.FileChange{{Path: "a"}, {Path: "b"}})

	if fl.MoveSelection(-1) {
		t.Fatal("already at top")
	}
	if !fl.MoveSelection(5) {
		t.Fatal("expected clamped move to bottom")
	}
	if sel := fl.SelectedFile(); sel.Path != "b" {
		t.Fatalf("expected b, got %+v", sel)
	}
	if !fl.GoToTop() || fl.GoToTop() {
		t.Fatal("GoToTop should change once then be a no-op")
	}
	if !fl.GoToBottom() || fl.GoToBottom() {
		t.Fatal("GoToBottom should change once then be a no-op")
	}
}

func TestFileList_RenderMarkersAndScrolling(t *testing.T) {
	fl := NewFileList()
	fl.SetFiles([]gitx.FileChange{
		{Path: "untracked.txt", Untracked: true},
		{Path: "deleted.txt", Deleted: true, Unstaged: true},
		{Path: "staged.txt", Staged: true},
		{Path: "edited.txt", Unstaged: true},
	})

	none := lipgloss.NewStyle()
	lines := fl.Render(30, 4, none, none)
	joined := strings.Join(lines, "\n")
	for _, want := range []string{"? untracked.txt", "D deleted.txt", "S staged.txt", "M edited.txt"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("expected %q in:\n%s", want, joined)
		}
	}

	// Selection below the window scrolls the list.
	fl.GoToBottom()
	lines = fl.Render(30, 2, none, none)
	joined = ansi.Strip(strings.Join(lines, "\n"))
	if !strings.Contains(joined, "edited.txt") {
		t.Fatalf("expected scrolled view to show selection, got:\n%s", joined)
	}
	if strings.Contains(joined, "untracked.txt") {
		t.Fatalf("expected top entries scrolled out, got:\n%s", joined)
	}
}

func TestFileList_RenderEmpty(t *testing.T) {
	fl := NewFileList()
	none := lipgloss.NewStyle()
	lines := fl.Render(20, 3, none, none)
	if len(lines) != 3 {
		t.Fatalf("expected padded box, got %d lines", len(lines))
	}
	if !strings.Contains(lines[0], "(no changes)") {
		t.Fatalf("expected placeholder, got %q", lines[0])
	}
}

func TestStatusBar_PrecedenceAndLayout(t *testing.T) {
	sb := NewStatusBar()
	none := lipgloss.NewStyle()

	out := ansi.Strip(sb.Render(60, none, none))
	if !strings.Contains(out, "h: help") {
		t.Fatalf("expected hint on empty bar, got %q", out)
	}

	sb.SetBranch("main")
	sb.SetStashCount(2)
	sb.SetSubmoduleCounts(3, 1)
	sb.SetMessage("stage done")
	out = ansi.Strip(sb.Render(80, none, none))
	for _, want := range []string{"on main", "stashes: 2", "submodules: 3 (1 dirty)", "stage done"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in %q", want, out)
		}
	}

	// Progress beats the message, errors beat both.
	sb.SetProgress("fetch…")
	out = ansi.Strip(sb.Render(80, none, none))
	if !strings.Contains(out, "fetch…") || strings.Contains(out, "stage done") {
		t.Fatalf("expected progress to win, got %q", out)
	}
	sb.SetError("push: credentials rejected")
	out = ansi.Strip(sb.Render(80, none, none))
	if !strings.Contains(out, "credentials rejected") {
		t.Fatalf("expected error to win, got %q", out)
	}

	// A new message clears the error.
	sb.SetProgress("")
	sb.SetMessage("pushed main to origin")
	out = ansi.Strip(sb.Render(80, none, none))
	if strings.Contains(out, "credentials rejected") {
		t.Fatalf("expected error cleared, got %q", out)
	}
}
