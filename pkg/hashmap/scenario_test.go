// Scenario tests transcribe the literal end-to-end walkthroughs this
// table's behaviour is specified against: fill-and-resize, below-half
// stability, overwrite-by-key, full-traversal sum, remove-by-index, and a
// compaction round-trip.
package hashmap_test

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/openaddr/actormap/pkg/hashmap"
)

// Scenario 1: lazily-initialised growth from 0 to 100 entries crosses two
// 8x resizes (8 -> 64 -> 512).
func Test_Scenario_FillToHundred_ResizesTwice(t *testing.T) {
	t.Parallel()
	m := newIntMap()

	for i := 0; i < 100; i++ {
		m.Put(entry{key: i, val: i})
	}
	require.Equal(t, 100, m.Size())

	for i := 0; i < 100; i++ {
		got, _, found := m.Get(entry{key: i})
		require.True(t, found)
		require.Equal(t, i, got.val)
	}
	_, _, found := m.Get(entry{key: 100})
	require.False(t, found)
}

// Scenario 2: staying below the load-factor ceiling after the first lazy
// init to size 8 triggers no resize; crossing it resizes once, 8x.
func Test_Scenario_BelowHalfThenOneResize(t *testing.T) {
	t.Parallel()
	m := newIntMap()

	for i := 0; i < 4; i++ {
		m.Put(entry{key: i, val: i})
	}
	require.Equal(t, 4, m.Size())

	m.Put(entry{key: 4, val: 4})
	require.Equal(t, 5, m.Size())

	for i := 0; i <= 4; i++ {
		_, _, found := m.Get(entry{key: i})
		require.True(t, found)
	}
}

// Scenario 3: put-of-existing-key returns the prior entry, and a
// subsequent get sees the new one.
func Test_Scenario_PutOfExistingKeyReturnsPrior(t *testing.T) {
	t.Parallel()
	m := newIntMap()

	prior, hadPrior := m.Put(entry{key: 1, val: 42})
	require.False(t, hadPrior)
	require.Zero(t, prior)

	prior, hadPrior = m.Put(entry{key: 1, val: 99})
	require.True(t, hadPrior)
	require.Equal(t, 42, prior.val)

	got, _, found := m.Get(entry{key: 1})
	require.True(t, found)
	require.Equal(t, 99, got.val)
}

// Scenario 4: iterating 100 entries with keys 0..99 sums their values to
// 4950 and visits exactly 100 entries.
func Test_Scenario_IterateAndSum(t *testing.T) {
	t.Parallel()
	m := newIntMap()
	for i := 0; i < 100; i++ {
		m.Put(entry{key: i, val: i})
	}

	sum, count := 0, 0
	idx := hashmap.Begin
	for {
		e, next, ok := m.Next(idx)
		if !ok {
			break
		}
		sum += e.val
		count++
		idx = next
	}
	require.Equal(t, 100, count)
	require.Equal(t, 4950, sum)
}

// Scenario 5: removing by index returns the original entry, a subsequent
// get misses, and size drops by one.
func Test_Scenario_RemoveAtByIndex(t *testing.T) {
	t.Parallel()
	m := newIntMap()
	for i := 0; i < 100; i++ {
		m.Put(entry{key: i, val: i})
	}

	_, idx, found := m.Get(entry{key: 20})
	require.True(t, found)

	removed, found := m.RemoveAt(idx)
	require.True(t, found)
	require.Equal(t, 20, removed.val)

	_, _, found = m.Get(entry{key: 20})
	require.False(t, found)
	require.Equal(t, 99, m.Size())
}

// Scenario 6: fill past a resize, delete ~30% at random, run a full
// needs-optimize / optimize-item / finish-optimize pass, and verify every
// remaining key is still retrievable with no leftover tombstone debt.
func Test_Scenario_FillDeleteThenCompact(t *testing.T) {
	t.Parallel()
	m := hashmap.New[entry](entryHash, entryEqual)

	const n = 5000
	for i := 0; i < n; i++ {
		m.Put(entry{key: i, val: i})
	}

	rng := rand.New(rand.NewPCG(1, 1))
	removed := map[int]bool{}
	for i := 0; i < n; i++ {
		if rng.Float64() < 0.30 {
			m.Remove(entry{key: i})
			removed[i] = true
		}
	}

	needs := m.NeedsOptimize()
	optimized := 0
	idx := hashmap.Begin
	for {
		e, next, ok := m.Next(idx)
		if !ok {
			break
		}
		if needs {
			optimized += m.OptimizeItem(e, next)
		}
		idx = next
	}
	require.True(t, needs, "the deletions should make a compaction pass due")
	m.FinishOptimize(optimized)
	// With the tombstone counter reset, no further pass is due.
	require.False(t, m.NeedsOptimize())

	for i := 0; i < n; i++ {
		got, _, found := m.Get(entry{key: i})
		if removed[i] {
			require.False(t, found, "key %d should have stayed removed", i)
			continue
		}
		require.True(t, found, "key %d should still be retrievable after compaction", i)
		require.Equal(t, i, got.val)
	}
}
