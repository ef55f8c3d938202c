package ledger

import (
	"fmt"

	"github.com/halcyonlabs/halcyon/internal/contract"
)

// Decision is the decision step's verdict on one proposed append. EventID is
// the assigned identity for Appended, the existing identity for
// DuplicateNoOp, and empty for Denied.
type Decision struct {
	Action                Action               `json:"action"`
	EventID               string               `json:"event_id,omitempty"`
	DenialReason          *contract.ReasonCode `json:"denial_reason,omitempty"`
	NoSilentConflictMerge bool                 `json:"no_silent_conflict_merge"`
}

// NewDecision validates a decision against the policy report it was computed
// from. Every action is pinned to the policy flag that permits it.
func NewDecision(action Action, eventID string, denial *contract.ReasonCode, policy PolicyReport) (Decision, error) {
	if !action.Valid() {
		return Decision{}, fmt.Errorf("unknown action %q", action)
	}
	if !policy.NoSilentConflictMerge {
		return Decision{}, fmt.Errorf("invariant flag dropped before decision")
	}
	switch action {
	case ActionAppended:
		if !policy.AppendEligible {
			return Decision{}, fmt.Errorf("Appended without append_eligible")
		}
		if eventID != policy.ProposedEventID {
			return Decision{}, fmt.Errorf("Appended must carry the proposed event id")
		}
		if denial != nil {
			return Decision{}, fmt.Errorf("Appended cannot carry a denial reason")
		}
	case ActionDuplicateNoOp:
		if !policy.IdempotencyDuplicate {
			return Decision{}, fmt.Errorf("DuplicateNoOp without idempotency_duplicate")
		}
		if eventID != policy.ExistingEventID {
			return Decision{}, fmt.Errorf("DuplicateNoOp must carry the existing event id")
		}
		if denial != nil {
			return Decision{}, fmt.Errorf("DuplicateNoOp cannot carry a denial reason")
		}
	case ActionDenied:
		if eventID != "" {
			return Decision{}, fmt.Errorf("Denied cannot assign an event id")
		}
		if denial == nil {
			return Decision{}, fmt.Errorf("Denied requires a denial reason")
		}
		if err := denial.Validate(); err != nil {
			return Decision{}, err
		}
	}
	return Decision{
		Action:                action,
		EventID:               eventID,
		DenialReason:          denial,
		NoSilentConflictMerge: true,
	}, nil
}

func (*Decision) ledgerResponse() {}

// computeDecision maps a validated policy report to its verdict. Hard
// violations are ordered before the idempotency outcomes, matching the
// policy step's evaluation order.
func computeDecision(policy PolicyReport) (*Decision, error) {
	var (
		action  Action
		eventID string
		denial  *contract.ReasonCode
	)
	switch {
	case policy.AppendOnlyViolation:
		action, denial = ActionDenied, &reasonAppendOnly
	case policy.TenantScopeMismatch:
		action, denial = ActionDenied, &reasonTenantScope
	case policy.IdempotencyDuplicate:
		action, eventID = ActionDuplicateNoOp, policy.ExistingEventID
	case policy.PayloadConflict:
		action, denial = ActionDenied, &reasonPayloadConflict
	default:
		action, eventID = ActionAppended, policy.ProposedEventID
	}

	d, err := NewDecision(action, eventID, denial, policy)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
