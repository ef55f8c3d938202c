// Package harness provides the conformance testing framework for the policy
// kernel.
//
// Scenarios are YAML files describing a sequence of engine turns (lease,
// quota, ledger) interleaved with deterministic clock advances. The harness
// drives the real engines through the two-phase wiring protocol against a
// fresh in-memory audit store, records every outcome as a trace event, and
// evaluates the scenario's expect clauses and assertions.
//
// Determinism is the whole point: the clock, lease tokens and envelope IDs
// all come from fixed generators, so the same scenario produces a
// byte-identical canonical-JSON trace on every run. Golden files under
// testdata/golden are the source of truth for expected traces; regenerate
// with:
//
//	go test ./internal/harness -update
package harness
