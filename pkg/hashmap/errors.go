package hashmap

import "errors"

// Error classification codes.
//
// The table itself recognises no recoverable error of its own (programmer
// errors like an out-of-range PutAt index are reported via panic, not these
// values); these are surfaced by the collaborators a caller plugs in, such
// as an [Allocator].
var (
	// ErrArenaExhausted is returned by the bundled arena allocator once its
	// fixed budget is used up.
	ErrArenaExhausted = errors.New("hashmap: arena exhausted")

	// ErrIndexOutOfRange is available to callers at a program boundary that
	// report a user-supplied index as out of range instead of letting the
	// library's assertion panic escape. The table itself never returns it,
	// and the bundled CLI and benchmark tools take no index input.
	ErrIndexOutOfRange = errors.New("hashmap: index out of range")
)
