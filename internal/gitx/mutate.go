package gitx

import (
	"errors"
	"fmt"
	"strings"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
)

// Mutations issued by the consumer. These touch the index or HEAD and
// must run under the engine's exclusive scope; the methods themselves
// stay oblivious to locking.

// Stage adds the given paths to the index. Deletions are staged too.
func (r *Repo) Stage(paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	wt, err := r.repo.Worktree()
	if err != nil {
		return fmt.Errorf("worktree: %w", err)
	}
	for _, p := range paths {
		if _, err := wt.Add(p); err != nil {
			return fmt.Errorf("stage %s: %w", p, err)
		}
	}
	return nil
}

// Unstage restores the given paths in the index to their HEAD state,
// leaving the working tree alone.
func (r *Repo) Unstage(paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	wt, err := r.repo.Worktree()
	if err != nil {
		return fmt.Errorf("worktree: %w", err)
	}
	if err := wt.Restore(&git.RestoreOptions{Staged: true, Files: paths}); err != nil {
		return fmt.Errorf("unstage: %w", err)
	}
	return nil
}

// Commit records the index as a new commit. Author identity comes
// from git config, as with the CLI.
func (r *Repo) Commit(message string) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", errors.New("empty commit message")
	}
	wt, err := r.repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("worktree: %w", err)
	}
	hash, err := wt.Commit(message, &git.CommitOptions{})
	if err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return hash.String(), nil
}

// Checkout switches HEAD to the named local branch.
func (r *Repo) Checkout(branch string) error {
	wt, err := r.repo.Worktree()
	if err != nil {
		return fmt.Errorf("worktree: %w", err)
	}
	err = wt.Checkout(&git.CheckoutOptions{Branch: plumbing.NewBranchReferenceName(branch)})
	if err != nil {
		return fmt.Errorf("checkout %s: %w", branch, err)
	}
	return nil
}

// LastCommitSummary returns short hash and subject of the last commit.
func (r *Repo) LastCommitSummary() (string, error) {
	c, err := r.headCommit()
	if err != nil {
		return "", fmt.Errorf("head commit: %w", err)
	}
	h := c.Hash.String()
	if len(h) > 7 {
		h = h[:7]
	}
	return h + " " + summaryLine(c.Message), nil
}
