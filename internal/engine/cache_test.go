package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestCache_CommitAndGet(t *testing.T) {
	c := newCache()

	_, ok := c.get(KindStatus, "{}")
	assert.False(t, ok)

	require.True(t, c.commit(KindStatus, "{}", 5, "payload"))
	e, ok := c.get(KindStatus, "{}")
	require.True(t, ok)
	assert.Equal(t, uint64(5), e.Generation)
	assert.Equal(t, "payload", e.Payload)
	assert.False(t, e.CompletedAt.IsZero())
}

func TestCache_MonotonicWrite(t *testing.T) {
	c := newCache()

	require.True(t, c.commit(KindStatus, "{}", 5, "fresh"))
	// A slow job from an older snapshot must not clobber.
	assert.False(t, c.commit(KindStatus, "{}", 3, "stale"))

	e, ok := c.get(KindStatus, "{}")
	require.True(t, ok)
	assert.Equal(t, "fresh", e.Payload)
	assert.Equal(t, uint64(5), e.Generation)

	// Equal generation: same snapshot, last writer wins.
	assert.True(t, c.commit(KindStatus, "{}", 5, "rewrite"))
	e, _ = c.get(KindStatus, "{}")
	assert.Equal(t, "rewrite", e.Payload)
}

func TestCache_LatestTracksFreshestPerKind(t *testing.T) {
	c := newCache()

	require.True(t, c.commit(KindDiff, `{"path":"a"}`, 1, "diff-a"))
	require.True(t, c.commit(KindDiff, `{"path":"b"}`, 2, "diff-b"))

	e, ok := c.getLatest(KindDiff)
	require.True(t, ok)
	assert.Equal(t, "diff-b", e.Payload)

	// An older commit must neither land on its key nor steal the
	// latest pointer.
	require.False(t, c.commit(KindDiff, `{"path":"b"}`, 1, "old-b"))
	// Same-generation write on another key is fine, but latest stays
	// with the fresher generation.
	require.True(t, c.commit(KindDiff, `{"path":"a"}`, 1, "old-a"))
	e, _ = c.getLatest(KindDiff)
	assert.Equal(t, "diff-b", e.Payload)
}

func TestCache_Kinds(t *testing.T) {
	c := newCache()
	assert.Empty(t, c.kinds())

	c.commit(KindStatus, "{}", 1, nil)
	c.commit(KindLog, "{}", 1, nil)
	assert.Equal(t, []Kind{KindStatus, KindLog}, c.kinds())
}

// Property: whatever interleaving of commits happens, the stored
// generation for a key never decreases and the stored payload always
// belongs to a commit with the stored generation.
func TestCache_MonotonicProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		c := newCache()
		type state struct {
			gen     uint64
			payload int
			set     bool
		}
		model := map[cacheKey]state{}

		steps := rapid.IntRange(1, 50).Draw(t, "steps")
		for i := 0; i < steps; i++ {
			kind := Kind(rapid.IntRange(0, int(kindCount)-1).Draw(t, "kind"))
			fp := rapid.SampledFrom([]string{"a", "b", "c"}).Draw(t, "fp")
			gen := rapid.Uint64Range(0, 10).Draw(t, "gen")

			key := cacheKey{kind, fp}
			prev := model[key]
			accepted := c.commit(kind, fp, gen, i)

			if prev.set && gen < prev.gen {
				if accepted {
					t.Fatalf("accepted stale commit gen=%d over gen=%d", gen, prev.gen)
				}
				continue
			}
			if !accepted {
				t.Fatalf("rejected fresh commit gen=%d over gen=%d", gen, prev.gen)
			}
			model[key] = state{gen: gen, payload: i, set: true}
		}

		for key, want := range model {
			e, ok := c.get(key.kind, key.fp)
			if !ok {
				t.Fatalf("missing entry for %v", key)
			}
			if e.Generation != want.gen || e.Payload.(int) != want.payload {
				t.Fatalf("entry %v: got (gen=%d,p=%v) want (gen=%d,p=%d)",
					key, e.Generation, e.Payload, want.gen, want.payload)
			}
		}
	})
}
