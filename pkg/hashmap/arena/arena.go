// Package arena provides a bump-budget [hashmap.Allocator] for callers
// that want to cap the total bucket/bitmap storage a table (or a family of
// tables, sharing one Arena) may claim, instead of letting each resize
// allocate freely from the Go heap.
package arena

import "github.com/openaddr/actormap/pkg/hashmap"

// Arena is a fixed-budget allocator. It does not itself hand out memory
// (Go's allocator and garbage collector still own the actual bucket/bitmap
// slices); it only accounts for how much has been claimed against a fixed
// ceiling, the way a bump allocator tracks its offset against its backing
// buffer's length.
type Arena struct {
	budget    int
	allocated int
}

// New returns an Arena with the given byte budget.
func New(budget int) *Arena {
	return &Arena{budget: budget}
}

// Reserve implements [hashmap.Allocator]. It returns
// [hashmap.ErrArenaExhausted] once cumulative reservations would exceed the
// arena's budget.
func (a *Arena) Reserve(n int) error {
	if a.allocated+n > a.budget {
		return hashmap.ErrArenaExhausted
	}
	a.allocated += n
	return nil
}

// Used reports how many bytes have been reserved so far.
func (a *Arena) Used() int { return a.allocated }

// Remaining reports how much budget is left.
func (a *Arena) Remaining() int { return a.budget - a.allocated }

// Reset clears all reservations, returning the full budget.
func (a *Arena) Reset() { a.allocated = 0 }
