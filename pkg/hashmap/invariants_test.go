package hashmap

import (
	"math/rand/v2"
	"testing"
)

type invEntry struct{ key, val int }

func invHash(e invEntry) uint64   { return uint64(e.key) }
func invEqual(a, b invEntry) bool { return a.key == b.key }

// checkInvariants walks the whole bucket array (white-box; this file is
// in-package) and re-derives count/bitmap coherence and probe
// reachability from scratch, independent of the code paths under test.
func checkInvariants(t *testing.T, m *Map[invEntry]) {
	t.Helper()

	if m.size != 0 {
		if m.size < 8 || m.size&(m.size-1) != 0 {
			t.Fatalf("size %d is not 0 or a power of two >= 8", m.size)
		}
	}
	if m.count*2 > m.size && m.size != 0 {
		t.Fatalf("load factor violated: count=%d size=%d", m.count, m.size)
	}

	liveCount := 0
	for i := 0; i < m.size; i++ {
		isLive := m.buckets[i].state == slotLive
		bit := m.live.Test(i)
		if isLive != bit {
			t.Fatalf("bitmap coherence violated at index %d: live=%v bit=%v", i, isLive, bit)
		}
		if isLive {
			liveCount++
		}
	}
	if liveCount != m.count {
		t.Fatalf("count coherence violated: count=%d but %d buckets are live", m.count, liveCount)
	}

	sizeU := uint64(m.size)
	for i := 0; i < m.size; i++ {
		if m.buckets[i].state != slotLive {
			continue
		}
		h0 := m.hash(m.buckets[i].entry) & (sizeU - 1)
		reached := false
		for step := 0; step < m.size; step++ {
			idx := int((h0 + func(s int) uint64 { u := uint64(s); return (u + u*u) / 2 }(step)) & (sizeU - 1))
			if idx == i {
				reached = true
				break
			}
			if m.buckets[idx].state == slotEmpty {
				break
			}
		}
		if !reached {
			t.Fatalf("probe reachability violated: entry at index %d unreachable from its home bucket", i)
		}
	}
}

func Test_Invariants_HoldAfterRandomOpSequence(t *testing.T) {
	t.Parallel()
	m := New[invEntry](invHash, invEqual)
	rng := rand.New(rand.NewPCG(7, 7))

	for op := 0; op < 5000; op++ {
		key := rng.IntN(500)
		switch rng.IntN(3) {
		case 0:
			m.Put(invEntry{key: key, val: key})
		case 1:
			m.Get(invEntry{key: key})
		case 2:
			m.Remove(invEntry{key: key})
		}
		if op%200 == 0 {
			checkInvariants(t, m)
		}
	}
	checkInvariants(t, m)
}

func Test_Invariants_HoldAfterCompactionPass(t *testing.T) {
	t.Parallel()
	m := New[invEntry](invHash, invEqual, WithCapacity[invEntry](4096))
	for i := 0; i < 3500; i++ {
		m.Put(invEntry{key: i, val: i})
	}
	for i := 0; i < 3500; i += 2 {
		m.Remove(invEntry{key: i})
	}
	checkInvariants(t, m)

	m.Sweep(func(invEntry) bool { return true }, nil)
	checkInvariants(t, m)
}
