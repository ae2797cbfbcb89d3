package hashmap

// Hasher hashes an entry (or, for [UintptrMap], a bare key). It must be
// pure and total: the same input always yields the same output. The output
// is reduced modulo the (power-of-two) table size; cryptographic quality
// is not required.
type Hasher[E any] func(e E) uint64

// Equaler reports whether two entries share the same key component. It
// must be pure and total.
type Equaler[E any] func(a, b E) bool

// Destroyer is invoked exactly once per live entry when a map is closed.
type Destroyer[E any] func(e E)

// Allocator gates how much backing storage a table may claim before it
// allocates its bucket array and bitmap. This is the Go-idiomatic
// narrowing of the paired alloc/sized-free functions the table this
// package generalises takes as external collaborators: Go's garbage
// collector reclaims a bucket array's backing store once the table drops
// its last reference, so there is no sized-deallocator call to make — only
// a budget to enforce up front. The default (nil) Allocator imposes no
// budget.
type Allocator interface {
	// Reserve accounts for n additional bytes of bucket/bitmap storage
	// about to be allocated. An error here is treated as allocation
	// failure, a fatal condition the table does not attempt to recover
	// from.
	Reserve(n int) error
}

type options[E any] struct {
	capacity  int
	allocator Allocator
	destroyer Destroyer[E]
}

// Option configures a [Map] or [UintptrMap] at construction time.
type Option[E any] func(*options[E])

// WithCapacity requests the table pre-size for at least n entries instead
// of lazily growing from the first Put.
func WithCapacity[E any](n int) Option[E] {
	return func(o *options[E]) { o.capacity = n }
}

// WithAllocator installs an [Allocator] that is consulted before every
// bucket/bitmap allocation, including resizes.
func WithAllocator[E any](a Allocator) Option[E] {
	return func(o *options[E]) { o.allocator = a }
}

// WithDestroyer installs a [Destroyer] invoked once per live entry when the
// table is closed.
func WithDestroyer[E any](d Destroyer[E]) Option[E] {
	return func(o *options[E]) { o.destroyer = d }
}

func resolveOptions[E any](opts []Option[E]) options[E] {
	var o options[E]
	for _, apply := range opts {
		apply(&o)
	}
	return o
}
