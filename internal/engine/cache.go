package engine

import (
	"sync"
	"time"
)

// Entry is one committed query result.
type Entry struct {
	Kind        Kind
	Fingerprint string
	Payload     any
	Generation  uint64 // repo-state generation at job completion
	CompletedAt time.Time
}

type cacheKey struct {
	kind Kind
	fp   string
}

// cache stores the last good result per (kind, params fingerprint) and
// the freshest entry per kind. There is no eviction: parameter spaces
// are bounded by what the UI can have on screen.
//
// Writes are guarded by the monotonic rule: a commit carrying an older
// generation than the stored entry is dropped, so a slow stale job can
// never clobber a fresher result. Reads take only a brief RLock and
// return copies, so the consumer always sees the last committed entry
// while a refresh is in flight.
type cache struct {
	mu      sync.RWMutex
	entries map[cacheKey]Entry
	latest  map[Kind]Entry
}

func newCache() *cache {
	return &cache{
		entries: make(map[cacheKey]Entry),
		latest:  make(map[Kind]Entry),
	}
}

// get returns the committed entry for the exact (kind, fingerprint)
// key.
func (c *cache) get(kind Kind, fp string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[cacheKey{kind, fp}]
	return e, ok
}

// getLatest returns the freshest committed entry for the kind,
// whatever its parameters were.
func (c *cache) getLatest(kind Kind) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.latest[kind]
	return e, ok
}

// commit stores a result unless an entry with a newer generation is
// already present under the same key. Equal generations overwrite:
// both results describe the same repository snapshot. Returns false
// when the write was dropped as stale.
func (c *cache) commit(kind Kind, fp string, gen uint64, payload any) bool {
	e := Entry{
		Kind:        kind,
		Fingerprint: fp,
		Payload:     payload,
		Generation:  gen,
		CompletedAt: time.Now(),
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	key := cacheKey{kind, fp}
	if prev, ok := c.entries[key]; ok && gen < prev.Generation {
		return false
	}
	c.entries[key] = e
	if prev, ok := c.latest[kind]; !ok || gen >= prev.Generation {
		c.latest[kind] = e
	}
	return true
}

// kinds lists every kind with at least one committed entry.
func (c *cache) kinds() []Kind {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Kind, 0, len(c.latest))
	for k := Kind(0); k < kindCount; k++ {
		if _, ok := c.latest[k]; ok {
			out = append(out, k)
		}
	}
	return out
}
