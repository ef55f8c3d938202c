// Package ledger implements idempotent work-order event application: an
// append-only event log with duplicate suppression.
//
// The engine itself is pure decision logic. The caller supplies the proposed
// event plus the ledger's current view (the stored event under the same
// idempotency key, if any); the engine classifies and decides, and the caller
// applies the decision against the durable append collaborator. Event IDs are
// content-addressed, assigned exactly once, and never reused: a duplicate
// idempotency-key submission resolves to the existing ID and appends nothing.
//
// Conflicting writes - the same idempotency key with different content - are
// refused, never reconciled. The "no silent conflict merge" guarantee is a
// validated output flag, so a forwarded bundle proves it held.
package ledger
