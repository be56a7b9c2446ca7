package gitx

import (
	"context"
	"fmt"
	"os/exec"
)

// Diff returns unified diff text for a single file. staged diffs the
// index against HEAD; otherwise the working tree against HEAD, with
// untracked files shown against /dev/null.
//
// go-git has no worktree diff, so this is the one query that shells
// out to the git executable. The command inherits ctx, so a superseded
// job kills the child process instead of waiting on it.
func (r *Repo) Diff(ctx context.Context, path string, staged bool) (string, error) {
	var args []string
	switch {
	case staged:
		args = []string{"-C", r.root, "diff", "--no-color", "--text", "--cached", "--", path}
	case r.tracked(ctx, path):
		args = []string{"-C", r.root, "diff", "--no-color", "--text", "HEAD", "--", path}
	default:
		args = []string{"-C", r.root, "diff", "--no-color", "--text", "--no-index", "/dev/null", path}
	}
	cmd := exec.CommandContext(ctx, "git", args...)
	b, err := cmd.CombinedOutput()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		// --no-index exits 1 when the file differs; output is still
		// the diff we want.
		if len(b) == 0 {
			return "", fmt.Errorf("git diff: %w", err)
		}
	}
	return string(b), nil
}

func (r *Repo) tracked(ctx context.Context, path string) bool {
	cmd := exec.CommandContext(ctx, "git", "-C", r.root, "ls-files", "--error-unmatch", "--", path)
	return cmd.Run() == nil
}
