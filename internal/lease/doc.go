// Package lease implements the lease arbitration engine: token-based mutual
// exclusion with expiry takeover, evaluated as two capabilities per turn.
//
// PolicyEvaluate derives boolean state flags from a caller-supplied lease
// snapshot and the caller's serialized view of "now". DecisionCompute maps
// those flags deterministically to one of the lease actions. The engine holds
// no lease state of its own: the caller owns the lease record and the engine
// is the concurrency-control contract the rest of the system relies on.
//
// A lease is replaced atomically by the caller on a granted decision, never
// partially updated. When a grant rides on an expired lease the decision
// carries resume_from_ledger_required: the new owner must replay durable
// state rather than trust in-memory continuity, because the previous owner's
// uncommitted effects are not assumed visible.
package lease
