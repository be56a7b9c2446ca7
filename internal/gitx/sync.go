package gitx

import (
	"context"
	"errors"
	"fmt"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
)

// CredentialsFunc supplies a username/password pair for a remote.
// Returning empty strings means "try without explicit auth" (ssh
// agent, credential-less http).
type CredentialsFunc func(remote string) (username, password string, err error)

// progressWriter adapts go-git's sideband progress stream to a plain
// callback. go-git reports raw server messages, not a ratio, so the
// fraction is always indeterminate.
type progressWriter struct {
	fn func(float64)
}

func (w progressWriter) Write(p []byte) (int, error) {
	if w.fn != nil {
		w.fn(-1)
	}
	return len(p), nil
}

// Fetch updates remote-tracking refs from the given remote ("origin"
// when empty).
func (r *Repo) Fetch(ctx context.Context, remote string, creds CredentialsFunc, progress func(float64)) (SyncResult, error) {
	if remote == "" {
		remote = git.DefaultRemoteName
	}
	auth, err := r.auth(remote, creds)
	if err != nil {
		return SyncResult{}, err
	}
	err = r.repo.FetchContext(ctx, &git.FetchOptions{
		RemoteName: remote,
		Auth:       auth,
		Progress:   progressWriter{progress},
	})
	res := SyncResult{Remote: remote}
	switch {
	case err == nil:
		res.Detail = "fetched " + remote
	case errors.Is(err, git.NoErrAlreadyUpToDate):
		res.UpToDate = true
		res.Detail = remote + " already up to date"
	default:
		return SyncResult{}, mapTransportErr(err, "fetch "+remote)
	}
	if progress != nil {
		progress(1)
	}
	return res, nil
}

// Push uploads branch (the current branch when empty) to the given
// remote.
func (r *Repo) Push(ctx context.Context, remote, branch string, creds CredentialsFunc, progress func(float64)) (SyncResult, error) {
	if remote == "" {
		remote = git.DefaultRemoteName
	}
	if branch == "" {
		head, err := r.Head()
		if err != nil {
			return SyncResult{}, err
		}
		branch = head
	}
	auth, err := r.auth(remote, creds)
	if err != nil {
		return SyncResult{}, err
	}
	spec := config.RefSpec(fmt.Sprintf("refs/heads/%s:refs/heads/%s", branch, branch))
	err = r.repo.PushContext(ctx, &git.PushOptions{
		RemoteName: remote,
		RefSpecs:   []config.RefSpec{spec},
		Auth:       auth,
		Progress:   progressWriter{progress},
	})
	res := SyncResult{Remote: remote, Branch: branch}
	switch {
	case err == nil:
		res.Detail = fmt.Sprintf("pushed %s to %s", branch, remote)
	case errors.Is(err, git.NoErrAlreadyUpToDate):
		res.UpToDate = true
		res.Detail = fmt.Sprintf("%s/%s already up to date", remote, branch)
	default:
		return SyncResult{}, mapTransportErr(err, "push "+remote)
	}
	if progress != nil {
		progress(1)
	}
	return res, nil
}

// auth invokes the credentials callback synchronously and maps the
// answer onto go-git's auth method. A nil callback or an empty answer
// falls back to the transport's defaults.
func (r *Repo) auth(remote string, creds CredentialsFunc) (transport.AuthMethod, error) {
	if creds == nil {
		return nil, nil
	}
	user, pass, err := creds(remote)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCredentialsRequired, err)
	}
	if user == "" && pass == "" {
		return nil, nil
	}
	return &githttp.BasicAuth{Username: user, Password: pass}, nil
}

// mapTransportErr folds go-git transport errors into the package
// sentinels so the engine can classify them.
func mapTransportErr(err error, op string) error {
	switch {
	case errors.Is(err, transport.ErrAuthenticationRequired):
		return fmt.Errorf("%s: %w", op, ErrCredentialsRequired)
	case errors.Is(err, transport.ErrAuthorizationFailed):
		return fmt.Errorf("%s: %w", op, ErrCredentialsRejected)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
