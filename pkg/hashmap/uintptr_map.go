package hashmap

import (
	"fmt"
	"unsafe"

	"github.com/openaddr/actormap/internal/bitmap"
	"github.com/openaddr/actormap/internal/compact"
	"github.com/openaddr/actormap/internal/probe"
)

type uintptrBucket[E any] struct {
	state slotState
	key   uintptr
	entry E
}

// UintptrMap is the uintptr-keyed sibling of [Map]: each bucket stores an
// explicit key alongside the entry, rather than extracting the key from
// the entry via an [Equaler]. This matches callers such as a GC tracer
// keying by an object's runtime address.
//
// A zero UintptrMap is not usable; construct one with [NewUintptrMap].
type UintptrMap[E any] struct {
	hash  func(uintptr) uint64
	alloc Allocator
	onDel func(uintptr, E)

	count         int
	size          int
	deletedCount  int
	optimizeShift int
	buckets       []uintptrBucket[E]
	live          bitmap.Bitmap
}

// UintptrOption configures a [UintptrMap] at construction time.
type UintptrOption[E any] func(*uintptrOptions[E])

type uintptrOptions[E any] struct {
	capacity  int
	allocator Allocator
	destroyer func(uintptr, E)
}

// WithUintptrCapacity requests the table pre-size for at least n entries.
func WithUintptrCapacity[E any](n int) UintptrOption[E] {
	return func(o *uintptrOptions[E]) { o.capacity = n }
}

// WithUintptrAllocator installs an [Allocator] consulted before every
// bucket/bitmap allocation, including resizes.
func WithUintptrAllocator[E any](a Allocator) UintptrOption[E] {
	return func(o *uintptrOptions[E]) { o.allocator = a }
}

// WithUintptrDestroyer installs a destructor invoked once per live entry
// when the table is closed.
func WithUintptrDestroyer[E any](d func(uintptr, E)) UintptrOption[E] {
	return func(o *uintptrOptions[E]) { o.destroyer = d }
}

// NewUintptrMap constructs an empty UintptrMap. hash must be pure and
// total.
func NewUintptrMap[E any](hash func(uintptr) uint64, opts ...UintptrOption[E]) *UintptrMap[E] {
	var o uintptrOptions[E]
	for _, apply := range opts {
		apply(&o)
	}
	m := &UintptrMap[E]{
		hash:          hash,
		alloc:         o.allocator,
		onDel:         o.destroyer,
		optimizeShift: compact.InitialShift,
	}
	if o.capacity > 0 {
		m.initSize(compact.NextSize(o.capacity))
	}
	return m
}

func (m *UintptrMap[E]) initSize(size int) {
	if m.alloc != nil {
		var zero uintptrBucket[E]
		need := int(unsafe.Sizeof(zero))*size + bitmap.NumWords(size)*8
		if err := m.alloc.Reserve(need); err != nil {
			panic(fmt.Errorf("hashmap: allocation failed: %w", err))
		}
	}
	m.buckets = make([]uintptrBucket[E], size)
	m.live = bitmap.New(size)
	m.size = size
	m.count = 0
	m.deletedCount = 0
	m.optimizeShift = compact.InitialShift
}

func (m *UintptrMap[E]) search(key uintptr) (foundIdx, insertIdx int, found bool) {
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
			if b.key == key {
				return int(idx), int(idx), true
			}
		}
	}
	return -1, tombstone, false
}

// Get looks up key. On a hit, index is the bucket holding the entry; on a
// miss, index is the slot a subsequent Put/PutAt would use.
func (m *UintptrMap[E]) Get(key uintptr) (entry E, index uint64, found bool) {
	if m.size == 0 {
		return entry, Begin, false
	}
	foundIdx, insertIdx, ok := m.search(key)
	if ok {
		return m.buckets[foundIdx].entry, uint64(foundIdx), true
	}
	return entry, uint64(insertIdx), false
}

// Put inserts entry under key, lazily sizing the map on first use. If key
// was already present, the old entry is overwritten and returned.
func (m *UintptrMap[E]) Put(key uintptr, entry E) (prior E, hadPrior bool) {
	if m.size == 0 {
		m.initSize(compact.GrowSize(0))
	}
	foundIdx, insertIdx, found := m.search(key)
	if found {
		prior = m.buckets[foundIdx].entry
		m.buckets[foundIdx].entry = entry
		return prior, true
	}
	m.insertNew(insertIdx, key, entry)
	return prior, false
}

// PutAt inserts entry under key at a previously-obtained index, skipping a
// second probe. index must come from a prior [UintptrMap.Get] miss on the
// same key, or be [Begin], in which case PutAt behaves like
// [UintptrMap.Put].
func (m *UintptrMap[E]) PutAt(key uintptr, entry E, index uint64) (prior E, hadPrior bool) {
	if index == Begin {
		return m.Put(key, entry)
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
	m.insertNew(idx, key, entry)
	return prior, false
}

func (m *UintptrMap[E]) insertNew(idx int, key uintptr, entry E) {
	m.buckets[idx] = uintptrBucket[E]{state: slotLive, key: key, entry: entry}
	m.live.Set(idx)
	m.count++
	if m.count*2 > m.size {
		m.resize()
	}
}

func (m *UintptrMap[E]) resize() {
	old := m.buckets
	m.initSize(compact.GrowSize(m.size))
	for i := range old {
		if old[i].state == slotLive {
			m.Put(old[i].key, old[i].entry)
		}
	}
}

// Remove deletes the entry stored under key, leaving a tombstone.
func (m *UintptrMap[E]) Remove(key uintptr) (entry E, found bool) {
	if m.size == 0 {
		return entry, false
	}
	idx, _, ok := m.search(key)
	if !ok {
		return entry, false
	}
	return m.removeAt(idx)
}

// RemoveAt removes the entry at index, if any. Safe during a [UintptrMap.Next]
// traversal.
func (m *UintptrMap[E]) RemoveAt(index uint64) (entry E, found bool) {
	idx := int(index)
	if idx < 0 || idx >= m.size || m.buckets[idx].state != slotLive {
		return entry, false
	}
	return m.removeAt(idx)
}

func (m *UintptrMap[E]) removeAt(idx int) (E, bool) {
	e := m.buckets[idx].entry
	var zero E
	m.buckets[idx] = uintptrBucket[E]{state: slotTombstone, entry: zero}
	m.live.Clear(idx)
	m.count--
	m.deletedCount++
	return e, true
}

// ClearAt removes the entry at index like [UintptrMap.RemoveAt], but
// installs an empty bucket instead of a tombstone. See the warning on
// [Map.ClearAt]; the same caveat applies here.
func (m *UintptrMap[E]) ClearAt(index uint64) (entry E, found bool) {
	idx := int(index)
	if idx < 0 || idx >= m.size || m.buckets[idx].state != slotLive {
		return entry, false
	}
	e := m.buckets[idx].entry
	var zero E
	m.buckets[idx] = uintptrBucket[E]{state: slotEmpty, entry: zero}
	m.live.Clear(idx)
	m.count--
	return e, true
}

// Next is a stateless forward iterator; see [Map.Next].
func (m *UintptrMap[E]) Next(index uint64) (entry E, key uintptr, nextIndex uint64, ok bool) {
	if m.size == 0 {
		return entry, 0, 0, false
	}
	start := 0
	if index != Begin {
		start = int(index) + 1
	}
	next := m.live.NextSet(start)
	if next < 0 {
		return entry, 0, uint64(m.size), false
	}
	b := m.buckets[next]
	return b.entry, b.key, uint64(next), true
}

// Size returns the number of live entries.
func (m *UintptrMap[E]) Size() int { return m.count }

// NeedsOptimize reports whether a compaction pass is currently worthwhile.
func (m *UintptrMap[E]) NeedsOptimize() bool {
	return compact.NeedsOptimize(m.size, m.count, m.deletedCount, m.optimizeShift)
}

// OptimizeItem relocates the entry (currently at oldIndex, stored under
// key) earlier in its probe chain if a tombstone sits between its home
// bucket and oldIndex. Returns 1 if moved, 0 if already optimal.
func (m *UintptrMap[E]) OptimizeItem(key uintptr, entry E, oldIndex uint64) int {
	if m.size == 0 {
		return 0
	}
	sizeU := uint64(m.size)
	h0 := m.hash(key) & (sizeU - 1)

	for i := 0; i < m.size; i++ {
		idx := probe.Index(h0, i, sizeU)
		if idx == oldIndex {
			return 0
		}
		if m.buckets[idx].state == slotTombstone {
			m.buckets[idx] = uintptrBucket[E]{state: slotLive, key: key, entry: entry}
			m.live.Set(int(idx))
			var zero E
			m.buckets[oldIndex] = uintptrBucket[E]{state: slotTombstone, entry: zero}
			m.live.Clear(int(oldIndex))
			return 1
		}
	}
	return 0
}

// FinishOptimize resets the tombstone counter and adapts the compaction
// trigger threshold based on the yield of the just-completed pass.
func (m *UintptrMap[E]) FinishOptimize(numOptimized int) {
	m.deletedCount = 0
	m.optimizeShift = compact.AdjustShift(m.optimizeShift, numOptimized, m.count, m.size)
}

// Sweep runs the standard iterate-keep-or-remove-and-opportunistically-
// compact pass, mirroring the GC tracer's sweep over an object/actor map.
func (m *UintptrMap[E]) Sweep(keep func(uintptr, E) bool, dispose func(uintptr, E)) {
	needs := m.NeedsOptimize()
	optimized := 0
	i := Begin
	for {
		e, key, idx, ok := m.Next(i)
		if !ok {
			break
		}
		if keep(key, e) {
			if needs {
				optimized += m.OptimizeItem(key, e, idx)
			}
		} else {
			m.RemoveAt(idx)
			if dispose != nil {
				dispose(key, e)
			}
		}
		i = idx
	}
	if needs {
		m.FinishOptimize(optimized)
	}
}

// GetOrPut returns the entry stored under key if present; otherwise it
// calls newFn, inserts the result under key, and returns it with inserted
// set to true. Grounded on the hashmapalt get_or_put convenience of the GC
// object/actor maps; on a miss this implementation probes twice (a Get,
// then a Put).
func (m *UintptrMap[E]) GetOrPut(key uintptr, newFn func() E) (entry E, inserted bool) {
	if e, _, found := m.Get(key); found {
		return e, false
	}
	e := newFn()
	m.Put(key, e)
	return e, true
}

// Close runs the configured destructor (if any) on every live entry and
// releases the table, leaving the UintptrMap observably empty.
func (m *UintptrMap[E]) Close() {
	if m.onDel != nil {
		i := Begin
		for {
			e, key, idx, ok := m.Next(i)
			if !ok {
				break
			}
			m.onDel(key, e)
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
