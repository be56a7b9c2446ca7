package engine

import (
	"context"

	"github.com/interpretive-systems/gitscope/internal/gitx"
)

// ProgressFunc reports partial progress of a long-running backend
// call. fraction is in [0,1]; a negative value means indeterminate.
// Alias, not a defined type: backend methods declare plain func
// parameters and still satisfy Backend.
type ProgressFunc = func(fraction float64)

// CredentialsFunc supplies credentials when a remote asks for
// authentication. It is invoked synchronously from the worker, which
// blocks on the answer. Alias of the backend's own callback type for
// the same reason as ProgressFunc.
type CredentialsFunc = gitx.CredentialsFunc

// Backend abstracts the blocking repository operations the engine
// schedules, one method per query kind.
//
// Calls must honor ctx cancellation at whatever granularity the
// underlying operation allows; cancellation is advisory and a call may
// still run to completion, in which case the engine drops its result.
// Write-side operations (fetch, push) are assumed non-reentrant per
// repository handle; the engine serializes them, implementations need
// not.
type Backend interface {
	Status(ctx context.Context) ([]gitx.FileChange, error)
	Diff(ctx context.Context, path string, staged bool) (string, error)
	Blame(ctx context.Context, path string, progress ProgressFunc) ([]gitx.BlameLine, error)
	Log(ctx context.Context, opts gitx.LogOptions, progress ProgressFunc) ([]gitx.Commit, error)
	Tags(ctx context.Context) ([]gitx.Ref, error)
	Branches(ctx context.Context) ([]gitx.Ref, error)
	Remotes(ctx context.Context) ([]gitx.Remote, error)
	Stashes(ctx context.Context) ([]gitx.Stash, error)
	Submodules(ctx context.Context) ([]gitx.Submodule, error)
	Fetch(ctx context.Context, remote string, creds CredentialsFunc, progress ProgressFunc) (gitx.SyncResult, error)
	Push(ctx context.Context, remote, branch string, creds CredentialsFunc, progress ProgressFunc) (gitx.SyncResult, error)
}
