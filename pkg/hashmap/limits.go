package hashmap

// Begin is the sentinel iteration cursor meaning "no prior index", and also
// the sentinel value returned as an index when an operation has none to
// report (BEGIN and UNKNOWN share the same all-ones encoding).
//
// The growth factor, compaction trigger thresholds, and adaptive shift
// clamp range are not duplicated here; both [Map] and [UintptrMap] share
// that arithmetic from internal/compact.
const Begin = ^uint64(0)
