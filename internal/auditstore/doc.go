// Package auditstore provides durable storage for the work-order ledger.
// SQLite with WAL mode, configured for a single writer.
//
// The store is deliberately dumb: it persists events the ledger engine has
// already decided and answers lookups. The append-only and idempotency rules
// live in the engine; the UNIQUE constraints here are a backstop, not the
// policy. All multi-row reads use deterministic ordering
// (ORDER BY seq ASC, event_id COLLATE BINARY ASC) so replays are stable.
package auditstore
