package gitx

import (
	"errors"
	"time"
)

// Sentinel errors surfaced by network operations. The query engine maps
// these onto its own error kinds.
var (
	ErrCredentialsRequired = errors.New("credentials required")
	ErrCredentialsRejected = errors.New("credentials rejected")
)

// FileChange represents a changed file in the repo.
type FileChange struct {
	Path      string
	Staged    bool
	Unstaged  bool
	Untracked bool
	Deleted   bool
	Renamed   bool
}

// Commit is one entry of the revision log.
type Commit struct {
	Hash    string
	Author  string
	Email   string
	When    time.Time
	Summary string
}

// BlameLine attributes a single line of a file to the commit that
// last touched it.
type BlameLine struct {
	Hash   string
	Author string
	When   time.Time
	Number int
	Text   string
}

// RefKind distinguishes the namespaces a Ref can live in.
type RefKind uint8

const (
	RefBranch RefKind = iota
	RefRemoteBranch
	RefTag
)

// Ref is a named pointer into the object graph.
type Ref struct {
	Name string // short name: main, origin/main, v1.2
	Hash string
	Kind RefKind
	Head bool // true for the currently checked-out branch
}

// Remote is a configured remote with its fetch/push URLs.
type Remote struct {
	Name string
	URLs []string
}

// Stash is one entry of the stash reflog, newest first (index 0 is
// stash@{0}).
type Stash struct {
	Index   int
	Hash    string
	Message string
}

// Submodule is one registered submodule with its checked-out state.
type Submodule struct {
	Path  string
	URL   string
	Hash  string // currently checked-out commit
	Clean bool   // checkout matches the superproject index
}

// LogOptions narrows a revision walk.
type LogOptions struct {
	Rev    string // revision to walk from; empty means HEAD
	Author string // substring match against author name or email
	Limit  int    // maximum commits returned; <=0 means DefaultLogLimit
}

// DefaultLogLimit bounds a revision walk when the caller does not say
// otherwise. One page of history is plenty for an interactive view.
const DefaultLogLimit = 300

// SyncResult summarizes a fetch or push.
type SyncResult struct {
	Remote   string
	Branch   string // push only
	UpToDate bool
	Detail   string
}
