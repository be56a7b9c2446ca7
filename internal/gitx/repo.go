// Package gitx is the repository backend: blocking git operations,
// one group per job kind, built on go-git with a thin git-CLI path
// where go-git has no equivalent (worktree diff text).
package gitx

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"golang.org/x/sync/errgroup"
)

// Repo wraps one opened repository handle. Read queries are safe to
// run concurrently; write operations (fetch, push, mutations) are not
// reentrant and are serialized by the caller.
type Repo struct {
	repo   *git.Repository
	root   string
	gitDir string
}

// Open resolves the repository containing path (walking up like
// `git rev-parse`) and returns a handle on it.
func Open(path string) (*Repo, error) {
	if path == "" {
		path = "."
	}
	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("worktree: %w", err)
	}
	root := wt.Filesystem.Root()
	gd, err := resolveGitDir(root)
	if err != nil {
		return nil, err
	}
	return &Repo{repo: repo, root: root, gitDir: gd}, nil
}

// Root returns the worktree root.
func (r *Repo) Root() string { return r.root }

// GitDir returns the resolved .git directory.
func (r *Repo) GitDir() string { return r.gitDir }

// resolveGitDir handles both a .git directory and the gitdir-file
// indirection used by linked worktrees and submodules.
func resolveGitDir(root string) (string, error) {
	dotGit := filepath.Join(root, git.GitDirName)
	fi, err := os.Stat(dotGit)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", dotGit, err)
	}
	if fi.IsDir() {
		return dotGit, nil
	}
	b, err := os.ReadFile(dotGit)
	if err != nil {
		return "", fmt.Errorf("read gitdir file: %w", err)
	}
	line := strings.TrimSpace(string(b))
	const prefix = "gitdir:"
	if !strings.HasPrefix(line, prefix) {
		return "", fmt.Errorf("malformed gitdir file %s", dotGit)
	}
	dir := strings.TrimSpace(strings.TrimPrefix(line, prefix))
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(root, dir)
	}
	return dir, nil
}

// Status lists files changed relative to HEAD and the index, combining
// staged, unstaged and untracked state per path.
func (r *Repo) Status(ctx context.Context) ([]FileChange, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	wt, err := r.repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("worktree: %w", err)
	}
	st, err := wt.Status()
	if err != nil {
		return nil, fmt.Errorf("status: %w", err)
	}

	out := make([]FileChange, 0, len(st))
	for path, fs := range st {
		fc := FileChange{Path: path}
		switch fs.Staging {
		case git.Unmodified, git.Untracked:
		case git.Deleted:
			fc.Staged = true
			fc.Deleted = true
		case git.Renamed:
			fc.Staged = true
			fc.Renamed = true
		default:
			fc.Staged = true
		}
		switch fs.Worktree {
		case git.Unmodified:
		case git.Untracked:
			fc.Untracked = true
		case git.Deleted:
			fc.Unstaged = true
			fc.Deleted = true
		default:
			fc.Unstaged = true
		}
		if !fc.Staged && !fc.Unstaged && !fc.Untracked {
			continue
		}
		out = append(out, fc)
	}
	// Stable order for a deterministic UI.
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

// Log walks history from opts.Rev (HEAD when empty), applying the
// author filter and limit. The walk checks ctx between commits, so a
// superseded job on a huge history winds down quickly.
func (r *Repo) Log(ctx context.Context, opts LogOptions, progress func(float64)) ([]Commit, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultLogLimit
	}
	from, err := r.resolve(opts.Rev)
	if err != nil {
		return nil, err
	}
	iter, err := r.repo.Log(&git.LogOptions{From: from})
	if err != nil {
		return nil, fmt.Errorf("log: %w", err)
	}
	defer iter.Close()

	author := strings.ToLower(opts.Author)
	out := make([]Commit, 0, limit)
	for len(out) < limit {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		c, err := iter.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("log walk: %w", err)
		}
		if author != "" &&
			!strings.Contains(strings.ToLower(c.Author.Name), author) &&
			!strings.Contains(strings.ToLower(c.Author.Email), author) {
			continue
		}
		out = append(out, Commit{
			Hash:    c.Hash.String(),
			Author:  c.Author.Name,
			Email:   c.Author.Email,
			When:    c.Author.When,
			Summary: summaryLine(c.Message),
		})
		if progress != nil {
			progress(float64(len(out)) / float64(limit))
		}
	}
	if progress != nil {
		progress(1)
	}
	return out, nil
}

// Blame attributes every line of path at HEAD. go-git computes blame
// in one call, so cancellation is honored only at call granularity.
func (r *Repo) Blame(ctx context.Context, path string, progress func(float64)) ([]BlameLine, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if progress != nil {
		progress(-1)
	}
	commit, err := r.headCommit()
	if err != nil {
		return nil, fmt.Errorf("head commit: %w", err)
	}
	br, err := git.Blame(commit, path)
	if err != nil {
		return nil, fmt.Errorf("blame %s: %w", path, err)
	}
	out := make([]BlameLine, 0, len(br.Lines))
	for i, ln := range br.Lines {
		out = append(out, BlameLine{
			Hash:   ln.Hash.String(),
			Author: ln.AuthorName,
			When:   ln.Date,
			Number: i + 1,
			Text:   ln.Text,
		})
	}
	if progress != nil {
		progress(1)
	}
	return out, nil
}

// Branches lists local branches, marking the one HEAD points at.
func (r *Repo) Branches(ctx context.Context) ([]Ref, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var headName string
	if head, err := r.repo.Head(); err == nil && head.Name().IsBranch() {
		headName = head.Name().Short()
	}
	iter, err := r.repo.Branches()
	if err != nil {
		return nil, fmt.Errorf("branches: %w", err)
	}
	var out []Ref
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		out = append(out, Ref{
			Name: ref.Name().Short(),
			Hash: ref.Hash().String(),
			Kind: RefBranch,
			Head: ref.Name().Short() == headName,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("branches: %w", err)
	}
	sortRefs(out)
	return out, nil
}

// Tags lists tags, resolving annotated tags to their target commit.
func (r *Repo) Tags(ctx context.Context) ([]Ref, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	iter, err := r.repo.Tags()
	if err != nil {
		return nil, fmt.Errorf("tags: %w", err)
	}
	var out []Ref
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		hash := ref.Hash()
		if tag, terr := r.repo.TagObject(hash); terr == nil {
			hash = tag.Target
		}
		out = append(out, Ref{
			Name: ref.Name().Short(),
			Hash: hash.String(),
			Kind: RefTag,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("tags: %w", err)
	}
	sortRefs(out)
	return out, nil
}

// Remotes lists configured remotes with their URLs.
func (r *Repo) Remotes(ctx context.Context) ([]Remote, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rs, err := r.repo.Remotes()
	if err != nil {
		return nil, fmt.Errorf("remotes: %w", err)
	}
	out := make([]Remote, 0, len(rs))
	for _, rem := range rs {
		cfg := rem.Config()
		urls := make([]string, len(cfg.URLs))
		copy(urls, cfg.URLs)
		out = append(out, Remote{Name: cfg.Name, URLs: urls})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Refs gathers branches, remote branches and tags in one shot. The
// three listings are independent reads, so they run concurrently.
func (r *Repo) Refs(ctx context.Context) ([]Ref, error) {
	var branches, remotes, tags []Ref
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		branches, err = r.Branches(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		remotes, err = r.remoteBranches(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		tags, err = r.Tags(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	out := make([]Ref, 0, len(branches)+len(remotes)+len(tags))
	out = append(out, branches...)
	out = append(out, remotes...)
	out = append(out, tags...)
	return out, nil
}

func (r *Repo) remoteBranches(ctx context.Context) ([]Ref, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	iter, err := r.repo.References()
	if err != nil {
		return nil, fmt.Errorf("references: %w", err)
	}
	var out []Ref
	err = iter.ForEach(func(ref *plumbing.Reference) error {
		if !ref.Name().IsRemote() {
			return nil
		}
		out = append(out, Ref{
			Name: ref.Name().Short(),
			Hash: ref.Hash().String(),
			Kind: RefRemoteBranch,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("references: %w", err)
	}
	sortRefs(out)
	return out, nil
}

// Head returns the short name of the checked-out branch, or the
// abbreviated hash when detached.
func (r *Repo) Head() (string, error) {
	head, err := r.repo.Head()
	if err != nil {
		return "", fmt.Errorf("head: %w", err)
	}
	if head.Name().IsBranch() {
		return head.Name().Short(), nil
	}
	h := head.Hash().String()
	if len(h) > 8 {
		h = h[:8]
	}
	return h, nil
}

func (r *Repo) resolve(rev string) (plumbing.Hash, error) {
	if rev == "" {
		head, err := r.repo.Head()
		if err != nil {
			return plumbing.ZeroHash, fmt.Errorf("head: %w", err)
		}
		return head.Hash(), nil
	}
	h, err := r.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("resolve %q: %w", rev, err)
	}
	return *h, nil
}

func sortRefs(refs []Ref) {
	sort.Slice(refs, func(i, j int) bool { return refs[i].Name < refs[j].Name })
}

func summaryLine(msg string) string {
	if i := strings.IndexByte(msg, '\n'); i >= 0 {
		msg = msg[:i]
	}
	return strings.TrimSpace(msg)
}

// headCommit is a small helper shared by blame and diff.
func (r *Repo) headCommit() (*object.Commit, error) {
	head, err := r.repo.Head()
	if err != nil {
		return nil, err
	}
	return r.repo.CommitObject(head.Hash())
}
