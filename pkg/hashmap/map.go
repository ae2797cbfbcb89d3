package hashmap

import (
	"fmt"
	"unsafe"

	"github.com/openaddr/actormap/internal/bitmap"
	"github.com/openaddr/actormap/internal/compact"
	"github.com/openaddr/actormap/internal/probe"
)

type slotState uint8

const (
	slotEmpty slotState = iota
	slotTombstone
	slotLive
)

type bucket[E any] struct {
	state slotState
	entry E
}

// Map is an open-addressed, quadratic-probing hash table keyed by
// comparing whole entries with an [Equaler]: the key lives inside the
// entry itself, the way an object is keyed by its own address. Use
// [UintptrMap] instead when the key is not otherwise part of the stored
// value.
//
// A zero Map is not usable; construct one with [New].
type Map[E any] struct {
	hash  Hasher[E]
	equal Equaler[E]
	alloc Allocator
	onDel Destroyer[E]

	count         int
	size          int
	deletedCount  int
	optimizeShift int
	buckets       []bucket[E]
	live          bitmap.Bitmap
}

// New constructs an empty Map. hash and equal must be pure and total; see
// [Hasher] and [Equaler].
func New[E any](hash Hasher[E], equal Equaler[E], opts ...Option[E]) *Map[E] {
	o := resolveOptions(opts)
	m := &Map[E]{
		hash:          hash,
		equal:         equal,
		alloc:         o.allocator,
		onDel:         o.destroyer,
		optimizeShift: compact.InitialShift,
	}
	if o.capacity > 0 {
		m.initSize(compact.NextSize(o.capacity))
	}
	return m
}

func (m *Map[E]) initSize(size int) {
	if m.alloc != nil {
		var zero bucket[E]
		need := int(unsafe.Sizeof(zero))*size + bitmap.NumWords(size)*8
		if err := m.alloc.Reserve(need); err != nil {
			panic(fmt.Errorf("hashmap: allocation failed: %w", err))
		}
	}
	m.buckets = make([]bucket[E], size)
	m.live = bitmap.New(size)
	m.size = size
	m.count = 0
	m.deletedCount = 0
	m.optimizeShift = compact.InitialShift
}

// search walks key's probe sequence. foundIdx is the bucket index holding
// a live match (-1 if none). insertIdx is where a subsequent Put/PutAt
// should write: the first tombstone seen, or the terminating empty bucket.
func (m *Map[E]) search(key E) (foundIdx, insertIdx int, found bool) {
	if m.size == 0 {
		return -1, -1, false
	}
	sizeU := uint64(m.size)
	h0 := m.hash(key) & (sizeU - 1)
	tombstone := -1

	for i := 0; i < m.size; i++ {
		idx := probe.Index(h0, i, sizeU)
		b := &m.buckets[idx]
		switch b.state {
		case slotEmpty:
			if tombstone >= 0 {
				return -1, tombstone, false
			}
			return -1, int(idx), false
		case slotTombstone:
			if tombstone < 0 {
				tombstone = int(idx)
			}
		case slotLive:
			if m.equal(b.entry, key) {
				return int(idx), int(idx), true
			}
		}
	}
	// Walked a full period without an empty bucket or a match: the load
	// invariant (count*2 <= size) guarantees a tombstone was seen.
	return -1, tombstone, false
}

// Get looks up key. On a hit, index is the bucket holding the entry; on a
// miss, index is the slot a subsequent Put/PutAt would use.
func (m *Map[E]) Get(key E) (entry E, index uint64, found bool) {
	if m.size == 0 {
		return entry, Begin, false
	}
	foundIdx, insertIdx, ok := m.search(key)
	if ok {
		return m.buckets[foundIdx].entry, uint64(foundIdx), true
	}
	return entry, uint64(insertIdx), false
}

// Put inserts entry, lazily sizing the map on first use. If an entry with
// the same key was already present, it is overwritten and returned.
func (m *Map[E]) Put(entry E) (prior E, hadPrior bool) {
	if m.size == 0 {
		m.initSize(compact.GrowSize(0))
	}
	foundIdx, insertIdx, found := m.search(entry)
	if found {
		prior = m.buckets[foundIdx].entry
		m.buckets[foundIdx].entry = entry
		return prior, true
	}
	m.insertNew(insertIdx, entry)
	return prior, false
}

// PutAt inserts entry at a previously-obtained index, skipping a second
// probe. index must come from a prior [Map.Get] miss on the same key, or be
// [Begin], in which case PutAt behaves exactly like [Map.Put].
func (m *Map[E]) PutAt(entry E, index uint64) (prior E, hadPrior bool) {
	if index == Begin {
		return m.Put(entry)
	}
	if m.size == 0 {
		m.initSize(compact.GrowSize(0))
	}
	idx := int(index)
	if idx < 0 || idx >= m.size {
		panic(fmt.Errorf("hashmap: PutAt index %d out of range for size %d", idx, m.size))
	}
	if m.buckets[idx].state == slotLive {
		prior = m.buckets[idx].entry
		m.buckets[idx].entry = entry
		return prior, true
	}
	m.insertNew(idx, entry)
	return prior, false
}

func (m *Map[E]) insertNew(idx int, entry E) {
	m.buckets[idx] = bucket[E]{state: slotLive, entry: entry}
	m.live.Set(idx)
	m.count++
	if m.count*2 > m.size {
		m.resize()
	}
}

func (m *Map[E]) resize() {
	old := m.buckets
	m.initSize(compact.GrowSize(m.size))
	for i := range old {
		if old[i].state == slotLive {
			m.Put(old[i].entry)
		}
	}
}

// Remove deletes the entry matching key, leaving a tombstone so other
// keys' probe chains through this bucket remain intact.
func (m *Map[E]) Remove(key E) (entry E, found bool) {
	if m.size == 0 {
		return entry, false
	}
	idx, _, ok := m.search(key)
	if !ok {
		return entry, false
	}
	return m.removeAt(idx)
}

// RemoveAt removes the entry at index, if any, without a full lookup. It is
// safe to call during a [Map.Next] traversal.
func (m *Map[E]) RemoveAt(index uint64) (entry E, found bool) {
	idx := int(index)
	if idx < 0 || idx >= m.size || m.buckets[idx].state != slotLive {
		return entry, false
	}
	return m.removeAt(idx)
}

func (m *Map[E]) removeAt(idx int) (E, bool) {
	e := m.buckets[idx].entry
	var zero E
	m.buckets[idx] = bucket[E]{state: slotTombstone, entry: zero}
	m.live.Clear(idx)
	m.count--
	m.deletedCount++
	return e, true
}

// ClearAt removes the entry at index like [Map.RemoveAt], but installs an
// empty bucket instead of a tombstone. It is exposed only for parity with
// the aggressive relocation discipline (see [Map.OptimizeItem]); calling it
// on a bucket another key's probe chain depends on can make that key
// unreachable. Prefer [Map.RemoveAt] unless you have proven that cannot
// happen.
func (m *Map[E]) ClearAt(index uint64) (entry E, found bool) {
	idx := int(index)
	if idx < 0 || idx >= m.size || m.buckets[idx].state != slotLive {
		return entry, false
	}
	e := m.buckets[idx].entry
	var zero E
	m.buckets[idx] = bucket[E]{state: slotEmpty, entry: zero}
	m.live.Clear(idx)
	m.count--
	return e, true
}

// Next is a stateless forward iterator: pass [Begin] (or a previously
// returned index) and it returns the next live entry and its index, using
// the bitmap to skip runs of empty/tombstone buckets a machine word at a
// time. On exhaustion it returns index == size of the table and ok == false.
func (m *Map[E]) Next(index uint64) (entry E, nextIndex uint64, ok bool) {
	if m.size == 0 {
		return entry, 0, false
	}
	start := 0
	if index != Begin {
		start = int(index) + 1
	}
	next := m.live.NextSet(start)
	if next < 0 {
		return entry, uint64(m.size), false
	}
	return m.buckets[next].entry, uint64(next), true
}

// Size returns the number of live entries.
func (m *Map[E]) Size() int { return m.count }

// NeedsOptimize reports whether a compaction pass is currently worthwhile.
func (m *Map[E]) NeedsOptimize() bool {
	return compact.NeedsOptimize(m.size, m.count, m.deletedCount, m.optimizeShift)
}

// OptimizeItem relocates entry (currently at oldIndex) earlier in its probe
// chain if a tombstone sits between its home bucket and oldIndex. It
// returns 1 if the entry moved, 0 if it was already optimal. The vacated
// bucket becomes a tombstone (the conservative discipline; see DESIGN.md).
func (m *Map[E]) OptimizeItem(entry E, oldIndex uint64) int {
	if m.size == 0 {
		return 0
	}
	sizeU := uint64(m.size)
	h0 := m.hash(entry) & (sizeU - 1)

	for i := 0; i < m.size; i++ {
		idx := probe.Index(h0, i, sizeU)
		if idx == oldIndex {
			return 0
		}
		if m.buckets[idx].state == slotTombstone {
			m.buckets[idx] = bucket[E]{state: slotLive, entry: entry}
			m.live.Set(int(idx))
			var zero E
			m.buckets[oldIndex] = bucket[E]{state: slotTombstone, entry: zero}
			m.live.Clear(int(oldIndex))
			return 1
		}
	}
	return 0
}

// FinishOptimize resets the tombstone counter and adapts the compaction
// trigger threshold based on how much work the just-completed pass did.
func (m *Map[E]) FinishOptimize(numOptimized int) {
	m.deletedCount = 0
	m.optimizeShift = compact.AdjustShift(m.optimizeShift, numOptimized, m.count, m.size)
}

// Sweep runs the standard iterate-keep-or-remove-and-opportunistically-
// compact pass: for each live entry, keep reports whether to retain it; if
// not, the entry is removed and handed to dispose (which may be nil).
// Surviving entries are relocated toward their ideal probe position when a
// compaction pass is due. This is the pattern a GC tracer drives against
// the map once per collection cycle.
func (m *Map[E]) Sweep(keep func(E) bool, dispose func(E)) {
	needs := m.NeedsOptimize()
	optimized := 0
	i := Begin
	for {
		e, idx, ok := m.Next(i)
		if !ok {
			break
		}
		if keep(e) {
			if needs {
				optimized += m.OptimizeItem(e, idx)
			}
		} else {
			m.RemoveAt(idx)
			if dispose != nil {
				dispose(e)
			}
		}
		i = idx
	}
	if needs {
		m.FinishOptimize(optimized)
	}
}

// GetOrPut returns the entry matching key if present; otherwise it calls
// newFn, inserts the result, and returns it with inserted set to true.
func (m *Map[E]) GetOrPut(key E, newFn func() E) (entry E, inserted bool) {
	if e, _, found := m.Get(key); found {
		return e, false
	}
	e := newFn()
	m.Put(e)
	return e, true
}

// Close runs the configured [Destroyer] (if any) on every live entry and
// releases the table, leaving the Map observably empty and ready for reuse.
func (m *Map[E]) Close() {
	if m.onDel != nil {
		i := Begin
		for {
			e, idx, ok := m.Next(i)
			if !ok {
				break
			}
			m.onDel(e)
			i = idx
		}
	}
	m.buckets = nil
	m.live = bitmap.Bitmap{}
	m.size = 0
	m.count = 0
	m.deletedCount = 0
	m.optimizeShift = compact.InitialShift
}
