package gitx

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Stashes lists the stash reflog, newest first. go-git does not model
// the stash, but its reflog is a plain file: one line per entry,
// oldest first, "<old> <new> <ident> <ts> <tz>\t<message>".
func (r *Repo) Stashes(ctx context.Context) ([]Stash, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(filepath.Join(r.gitDir, "logs", "refs", "stash"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("stash reflog: %w", err)
	}
	defer f.Close()

	var entries []Stash
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 4096), 1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if line == "" {
			continue
		}
		hash, msg, ok := parseStashLine(line)
		if !ok {
			continue
		}
		entries = append(entries, Stash{Hash: hash, Message: msg})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("stash reflog: %w", err)
	}
	// Reverse so index 0 is stash@{0}, the most recent entry.
	out := make([]Stash, 0, len(entries))
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		e.Index = len(out)
		out = append(out, e)
	}
	return out, nil
}

func parseStashLine(line string) (hash, message string, ok bool) {
	head, msg, found := strings.Cut(line, "\t")
	if found {
		message = strings.TrimSpace(msg)
	}
	fields := strings.Fields(head)
	if len(fields) < 2 {
		return "", "", false
	}
	return fields[1], message, true
}
