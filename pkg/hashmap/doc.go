// Package hashmap provides an open-addressed, quadratic-probing hash table
// specialised for the access pattern of a concurrent garbage-collected
// actor runtime: lazy compaction instead of eager rehashing, and an
// index-stable API that lets a caller iterate and mutate in one pass (the
// pattern a GC tracer needs when sweeping a map of live objects).
//
// Two variants are provided. [Map] is keyed by comparing full entries with
// a caller-supplied [Equaler] (the key lives inside the entry, as with an
// object keyed by its own address). [UintptrMap] stores an explicit
// uintptr key alongside each entry, for callers whose key is not otherwise
// part of the stored value.
//
// # Basic Usage
//
//	m := hashmap.New[*Actor](actorHash, actorEqual)
//	prior, hadPrior := m.Put(actor)
//	found, idx, ok := m.Get(lookupKey)
//
// # Concurrency
//
// hashmap has no internal locking. Each map instance is single-owner;
// concurrent mutation from multiple goroutines is undefined behaviour. The
// intended deployment is per-actor ownership, with the owning goroutine (or
// its scheduler) providing exclusion.
//
// # Compaction
//
// Deletions leave tombstones rather than empties, to preserve probe
// reachability for other keys. [Map.Sweep] (and the lower-level
// [Map.NeedsOptimize]/[Map.OptimizeItem]/[Map.FinishOptimize] trio it
// wraps) lets a caller opportunistically relocate entries earlier in their
// probe chain while iterating, reclaiming tombstones without a full
// rehash.
package hashmap
