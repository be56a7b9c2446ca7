// Package diffview turns unified diff text into rows suitable for
// side-by-side or inline terminal rendering.
package diffview

import (
	"bufio"
	"strings"
)

// RowKind represents the semantic type of a rendered row.
type RowKind int

const (
	RowContext RowKind = iota
	RowAdd
	RowDel
	RowReplace
	RowHunk
	RowMeta
	RowBinary
)

// Row is a single visual row. For RowHunk, RowMeta and RowBinary the
// text lives in Meta; otherwise Left/Right hold the old/new line.
type Row struct {
	Left  string
	Right string
	Kind  RowKind
	Meta  string
}

// Stats summarizes a parsed diff.
type Stats struct {
	Added   int
	Deleted int
	Hunks   int
	Binary  bool
}

// BuildRowsFromUnified parses a unified diff into rows. Within each
// hunk, deletions are paired with subsequent additions as replacements;
// leftovers render left-only or right-only.
func BuildRowsFromUnified(unified string) []Row {
	rows, _ := Parse(unified)
	return rows
}

// Parse is BuildRowsFromUnified plus summary statistics.
func Parse(unified string) ([]Row, Stats) {
	s := bufio.NewScanner(strings.NewReader(unified))
	s.Buffer(make([]byte, 0, 64*1024), 10*1024*1024) // allow very long lines

	var stats Stats
	rows := make([]Row, 0, 256)
	pendingDel := make([]string, 0)

	flushPending := func() {
		for _, dl := range pendingDel {
			rows = append(rows, Row{Left: stripMarker(dl), Kind: RowDel})
		}
		pendingDel = pendingDel[:0]
	}

	inHunk := false
	for s.Scan() {
		line := s.Text()
		switch {
		case strings.HasPrefix(line, "@@ "):
			flushPending()
			rows = append(rows, Row{Kind: RowHunk, Meta: line})
			stats.Hunks++
			inHunk = true
			continue
		case strings.HasPrefix(line, "Binary files "):
			flushPending()
			rows = append(rows, Row{Kind: RowBinary, Meta: line})
			stats.Binary = true
			inHunk = false
			continue
		case isMetaLine(line):
			flushPending()
			rows = append(rows, Row{Kind: RowMeta, Meta: line})
			inHunk = false
			continue
		}
		if !inHunk {
			continue
		}
		if line == "" {
			// Blank line inside a hunk is context.
			flushPending()
			rows = append(rows, Row{Kind: RowContext})
			continue
		}
		switch line[0] {
		case ' ':
			flushPending()
			t := stripMarker(line)
			rows = append(rows, Row{Left: t, Right: t, Kind: RowContext})
		case '-':
			pendingDel = append(pendingDel, line)
			stats.Deleted++
		case '+':
			stats.Added++
			if len(pendingDel) > 0 {
				dl := pendingDel[0]
				pendingDel = pendingDel[1:]
				rows = append(rows, Row{Left: stripMarker(dl), Right: stripMarker(line), Kind: RowReplace})
			} else {
				rows = append(rows, Row{Right: stripMarker(line), Kind: RowAdd})
			}
		case '\\':
			// "\ No newline at end of file"
			flushPending()
			rows = append(rows, Row{Kind: RowMeta, Meta: line})
		}
	}
	flushPending()
	return rows, stats
}

func isMetaLine(line string) bool {
	for _, p := range []string{
		"diff --git ", "index ", "--- ", "+++ ",
		"new file mode", "deleted file mode", "old mode", "new mode",
		"rename from", "rename to", "similarity index",
	} {
		if strings.HasPrefix(line, p) {
			return true
		}
	}
	return false
}

func stripMarker(s string) string {
	if s == "" {
		return s
	}
	switch s[0] {
	case ' ', '+', '-':
		return s[1:]
	}
	return s
}
