package wiring

import "github.com/halcyonlabs/halcyon/internal/contract"

// OutcomeKind classifies the terminal state of one turn.
type OutcomeKind string

const (
	// OutcomeNotInvokedDisabled: the engine's enable flag was off; no
	// capability call was made.
	OutcomeNotInvokedDisabled OutcomeKind = "NotInvokedDisabled"

	// OutcomeNotInvokedNoInput: the turn carried no meaningful input; no
	// capability call was made.
	OutcomeNotInvokedNoInput OutcomeKind = "NotInvokedNoInput"

	// OutcomeRefused: a gate failed; the refusal carries the classification.
	OutcomeRefused OutcomeKind = "Refused"

	// OutcomeForwarded: both calls succeeded and the bundle's cross-record
	// invariants held.
	OutcomeForwarded OutcomeKind = "Forwarded"
)

// Outcome is the result of one orchestrated turn. Exactly one of Refusal and
// Bundle is meaningful, selected by Kind.
type Outcome[Bundle any] struct {
	Kind    OutcomeKind
	Refusal *contract.Refuse
	Bundle  Bundle
}

func notInvokedDisabled[B any]() Outcome[B] {
	return Outcome[B]{Kind: OutcomeNotInvokedDisabled}
}

func notInvokedNoInput[B any]() Outcome[B] {
	return Outcome[B]{Kind: OutcomeNotInvokedNoInput}
}

func refused[B any](r contract.Refuse) Outcome[B] {
	return Outcome[B]{Kind: OutcomeRefused, Refusal: &r}
}

func forwarded[B any](bundle B) Outcome[B] {
	return Outcome[B]{Kind: OutcomeForwarded, Bundle: bundle}
}
