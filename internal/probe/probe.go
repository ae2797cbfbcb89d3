// Package probe implements the triangular probe sequence shared by both
// map variants: on power-of-two table sizes, triangular offsets form a
// full-period permutation of the bucket indices, guaranteeing every bucket
// is eventually visited without the secondary clustering linear probing
// suffers from.
package probe

// Offset returns the i-th triangular number T(i) = (i + i^2) / 2.
func Offset(i int) uint64 {
	u := uint64(i)
	return (u + u*u) / 2
}

// Index returns the bucket visited on the i-th probe (i=0 is the home
// bucket) starting from h0, for a power-of-two table of the given size.
func Index(h0 uint64, i int, size uint64) uint64 {
	return (h0 + Offset(i)) & (size - 1)
}
