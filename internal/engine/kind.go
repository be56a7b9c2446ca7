package engine

import (
	json "github.com/goccy/go-json"
)

// Kind identifies one category of repository query or network operation
// managed by the engine. The set is closed: kinds double as the cache
// and single-flight keys, so arbitrary job types are deliberately not
// supported.
type Kind uint8

const (
	KindStatus Kind = iota
	KindDiff
	KindBlame
	KindLog
	KindTags
	KindBranches
	KindRemotes
	KindStashes
	KindSubmodules
	KindFetch
	KindPush
	kindCount
)

var kindNames = [kindCount]string{
	KindStatus:     "status",
	KindDiff:       "diff",
	KindBlame:      "blame",
	KindLog:        "log",
	KindTags:       "tags",
	KindBranches:   "branches",
	KindRemotes:    "remotes",
	KindStashes:    "stashes",
	KindSubmodules: "submodules",
	KindFetch:      "fetch",
	KindPush:       "push",
}

func (k Kind) String() string {
	if k >= kindCount {
		return "unknown"
	}
	return kindNames[k]
}

// Kinds returns every valid kind, in declaration order.
func Kinds() []Kind {
	out := make([]Kind, 0, kindCount)
	for k := Kind(0); k < kindCount; k++ {
		out = append(out, k)
	}
	return out
}

// network reports whether the kind talks to a remote and therefore
// runs under the network timeout.
func (k Kind) network() bool {
	return k == KindFetch || k == KindPush
}

// exclusive reports whether the kind needs the repository handle to
// itself for the duration of the call.
func (k Kind) exclusive() bool {
	return k == KindFetch || k == KindPush
}

// refreshable reports whether an invalidation wave should re-issue the
// kind. Network operations are initiated only by the user; a filesystem
// event must never trigger a push.
func (k Kind) refreshable() bool {
	return !k.network()
}

// Params carries the per-request arguments of a job. Which fields are
// meaningful depends on the kind; unused fields stay zero and drop out
// of the fingerprint.
type Params struct {
	Path   string `json:"path,omitempty"`   // diff, blame
	Staged bool   `json:"staged,omitempty"` // diff
	Rev    string `json:"rev,omitempty"`    // log
	Author string `json:"author,omitempty"` // log
	Limit  int    `json:"limit,omitempty"`  // log
	Remote string `json:"remote,omitempty"` // fetch, push
	Branch string `json:"branch,omitempty"` // push
}

// Fingerprint returns a stable cache-key representation of the params.
func (p Params) Fingerprint() string {
	b, err := json.Marshal(p)
	if err != nil {
		// Params is a plain value struct; Marshal cannot fail on it.
		return "{}"
	}
	return string(b)
}

// Request asks the engine to run one job. Immutable after creation.
type Request struct {
	Kind        Kind
	Params      Params
	RequestedAt uint64 // generation observed when the request was made
}
