package gitx

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// withOrigin wires a bare repository as "origin" so fetch and push run
// over the local file transport, no network involved.
func withOrigin(t *testing.T, dir string) string {
	t.Helper()
	// Pin the initial branch so clones of the bare repo land on main
	// regardless of the host's init.defaultBranch.
	bare := filepath.Join(t.TempDir(), "origin.git")
	mustRun(t, dir, "git", "init", "-q", "--bare", "-b", "main", bare)
	mustRun(t, dir, "git", "remote", "add", "origin", bare)
	return bare
}

func TestPushAndFetch_LocalRemote(t *testing.T) {
	dir := initRepo(t)
	ctx := context.Background()

	write(t, filepath.Join(dir, "f.txt"), "x\n")
	mustRun(t, dir, "git", "add", ".")
	mustRun(t, dir, "git", "commit", "-q", "-m", "init")
	bare := withOrigin(t, dir)

	repo, err := Open(dir)
	require.NoError(t, err)

	res, err := repo.Push(ctx, "origin", "main", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "origin", res.Remote)
	assert.Equal(t, "main", res.Branch)
	assert.False(t, res.UpToDate)

	// Nothing new: both directions report up to date instead of
	// erroring.
	res, err = repo.Push(ctx, "origin", "main", nil, nil)
	require.NoError(t, err)
	assert.True(t, res.UpToDate)

	res, err = repo.Fetch(ctx, "origin", nil, nil)
	require.NoError(t, err)
	assert.True(t, res.UpToDate)

	// Land a commit on the remote from a second clone, then fetch it.
	other := t.TempDir()
	mustRun(t, other, "git", "clone", "-q", bare, ".")
	mustRun(t, other, "git", "config", "user.email", "test@example.com")
	mustRun(t, other, "git", "config", "user.name", "Test User")
	write(t, filepath.Join(other, "g.txt"), "y\n")
	mustRun(t, other, "git", "add", ".")
	mustRun(t, other, "git", "commit", "-q", "-m", "remote work")
	mustRun(t, other, "git", "push", "-q", "origin", "main")

	res, err = repo.Fetch(ctx, "origin", nil, nil)
	require.NoError(t, err)
	assert.False(t, res.UpToDate)

	refs, err := repo.Refs(ctx)
	require.NoError(t, err)
	var sawRemote bool
	for _, r := range refs {
		if r.Name == "origin/main" && r.Kind == RefRemoteBranch {
			sawRemote = true
		}
	}
	assert.True(t, sawRemote, "fetch must update remote-tracking refs, got %v", refs)
}

func TestPush_DefaultsToHeadBranch(t *testing.T) {
	dir := initRepo(t)
	write(t, filepath.Join(dir, "f.txt"), "x\n")
	mustRun(t, dir, "git", "add", ".")
	mustRun(t, dir, "git", "commit", "-q", "-m", "init")
	withOrigin(t, dir)

	repo, err := Open(dir)
	require.NoError(t, err)
	res, err := repo.Push(context.Background(), "origin", "", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "main", res.Branch)
}

func TestFetch_UnknownRemote(t *testing.T) {
	dir := initRepo(t)
	write(t, filepath.Join(dir, "f.txt"), "x\n")
	mustRun(t, dir, "git", "add", ".")
	mustRun(t, dir, "git", "commit", "-q", "-m", "init")

	repo, err := Open(dir)
	require.NoError(t, err)
	_, err = repo.Fetch(context.Background(), "nowhere", nil, nil)
	assert.Error(t, err)
}

func TestAuth_CredentialsCallback(t *testing.T) {
	dir := initRepo(t)
	repo, err := Open(dir)
	require.NoError(t, err)

	// nil callback and empty answers mean transport defaults.
	m, err := repo.auth("origin", nil)
	require.NoError(t, err)
	assert.Nil(t, m)

	m, err = repo.auth("origin", func(string) (string, string, error) {
		return "", "", nil
	})
	require.NoError(t, err)
	assert.Nil(t, m)

	m, err = repo.auth("origin", func(string) (string, string, error) {
		return "user", "token", nil
	})
	require.NoError(t, err)
	assert.NotNil(t, m)

	// A failing callback is a credentials problem, not a backend one.
	_, err = repo.auth("origin", func(string) (string, string, error) {
		return "", "", errors.New("no keychain")
	})
	assert.ErrorIs(t, err, ErrCredentialsRequired)
}

func TestMapTransportErr(t *testing.T) {
	assert.ErrorIs(t,
		mapTransportErr(transport.ErrAuthenticationRequired, "fetch origin"),
		ErrCredentialsRequired)
	assert.ErrorIs(t,
		mapTransportErr(transport.ErrAuthorizationFailed, "push origin"),
		ErrCredentialsRejected)

	plain := errors.New("connection reset")
	err := mapTransportErr(plain, "fetch origin")
	assert.ErrorIs(t, err, plain)
	assert.NotErrorIs(t, err, ErrCredentialsRequired)
}
