// Package hashfn provides default [hashmap.Hasher]/key-hash implementations
// for the common key shapes a caller of pkg/hashmap reaches for: byte
// slices, strings, and raw pointer-sized addresses.
package hashfn

import (
	"unsafe"

	"github.com/cespare/xxhash/v2"
)

// Bytes hashes b with xxhash. Suitable as a key hash for byte-slice keyed
// tables; not cryptographically secure.
func Bytes(b []byte) uint64 {
	return xxhash.Sum64(b)
}

// String hashes s with xxhash.
func String(s string) uint64 {
	return xxhash.Sum64String(s)
}

// Ptr mixes a pointer's bit pattern into a well-distributed hash, grounded
// on the pointer-identity hash the original runtime uses to key its
// object/actor maps by address. Addresses from a bump/pool allocator tend
// to share low bits (alignment) and high bits (same arena); this mixes
// across the whole word rather than relying on the low bits alone.
func Ptr(p unsafe.Pointer) uint64 {
	return Uintptr(uintptr(p))
}

// Uintptr mixes a raw address value the same way Ptr does, for callers
// that already carry the address as a uintptr (as [hashmap.UintptrMap]
// keys do).
func Uintptr(addr uintptr) uint64 {
	x := uint64(addr)
	// SplitMix64 finalizer: cheap, branch-free, good avalanche.
	x ^= x >> 30
	x *= 0xbf58476d1ce4e5b9
	x ^= x >> 27
	x *= 0x94d049bb133111eb
	x ^= x >> 31
	return x
}
