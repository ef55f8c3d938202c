// Package rank implements the deterministic ranking/selection algorithm shared
// by every "select the best candidate(s)" capability, plus the companion drift
// validator that re-derives the expected ordering and diffs it against a
// caller-asserted list.
//
// Determinism is the whole point: identical input always yields identical
// ordering and selection. Ordering never depends on map iteration order or
// wall-clock time, and ties are broken by ascending identifier so the order is
// total.
package rank
