// Package wiring implements the two-phase turn orchestration protocol shared
// by every engine integration.
//
// One turn composes two capability calls - a policy/compute step (A) and a
// decision/validate step (B) - into a single outcome, with fail-closed gates
// between every step:
//
//	Start -> (Disabled | NoInput)
//	      -> BuildEnvelope -> CallA -> (Refused | WrongVariant->Refused)
//	      -> CallB -> (Refused | WrongVariant->Refused)
//	      -> CheckStatus -> (Refused | Forwarded)
//
// Disabled or empty turns never reach the capability layer: that is both an
// optimization and a privacy/cost boundary. The wiring layer - not the
// engine - clamps every requested budget to the operator-configured ceiling.
//
// Nothing in this protocol retries. Every failure is classified once,
// surfaced once, and the protocol stops: no partial bundles, no best-effort
// forwarding.
package wiring
