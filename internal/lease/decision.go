package lease

import (
	"fmt"

	"github.com/halcyonlabs/halcyon/internal/contract"
)

// Decision is the decision step's Ok record. DenialReason is set exactly when
// the action is a denial or conflict; granted and released decisions carry no
// reason code.
type Decision struct {
	Action                   Action               `json:"action"`
	ResumeFromLedgerRequired bool                 `json:"resume_from_ledger_required"`
	DenialReason             *contract.ReasonCode `json:"denial_reason,omitempty"`
}

func (*Decision) leaseResponse() {}

// NewDecision validates the decision against the policy report it was
// computed from. A granted decision cannot exist without grant eligibility,
// and a resume marker cannot exist without an expired lease.
func NewDecision(action Action, resume bool, denial *contract.ReasonCode, policy PolicyReport) (*Decision, error) {
	if !action.Valid() {
		return nil, fmt.Errorf("unknown action %q", action)
	}
	switch action {
	case ActionLeaseGranted, ActionLeaseReleased:
		if denial != nil {
			return nil, fmt.Errorf("%s must not carry a denial reason", action)
		}
	case ActionLeaseDenied, ActionLeaseConflict:
		if denial == nil {
			return nil, fmt.Errorf("%s requires a denial reason", action)
		}
		if err := denial.Validate(); err != nil {
			return nil, err
		}
	}
	if action == ActionLeaseGranted && !policy.GrantEligible {
		return nil, fmt.Errorf("LeaseGranted without grant eligibility")
	}
	if resume {
		if action != ActionLeaseGranted {
			return nil, fmt.Errorf("resume_from_ledger_required on non-granted action %s", action)
		}
		if !policy.LeaseExpired || !policy.GrantEligible {
			return nil, fmt.Errorf("resume_from_ledger_required without expired eligible lease")
		}
	}
	return &Decision{Action: action, ResumeFromLedgerRequired: resume, DenialReason: denial}, nil
}

// computeDecision maps the policy flags to an action. Deterministic and
// ordered: authorization checks run before TTL checks, so a token mismatch
// denies with a not-authorized reason regardless of the requested TTL.
func computeDecision(policy PolicyReport) (*Decision, error) {
	switch policy.Op {
	case OpAcquire:
		if !policy.TTLInBounds {
			return NewDecision(ActionLeaseDenied, false, &reasonTTLOutOfBounds, policy)
		}
		if !policy.GrantEligible {
			return NewDecision(ActionLeaseDenied, false, &reasonForeignLease, policy)
		}
		resume := policy.LeaseExpired && policy.GrantEligible
		return NewDecision(ActionLeaseGranted, resume, nil, policy)

	case OpRenew:
		if !policy.LeaseExists {
			return NewDecision(ActionLeaseDenied, false, &reasonNoLease, policy)
		}
		if !policy.OwnerMatch || !policy.TokenMatch {
			return NewDecision(ActionLeaseDenied, false, &reasonNotAuthorized, policy)
		}
		if policy.LeaseExpired {
			// The holder lost continuity; the lease must be re-acquired, not
			// renewed, so durable state gets replayed.
			return NewDecision(ActionLeaseConflict, false, &reasonLeaseExpired, policy)
		}
		if !policy.TTLInBounds {
			return NewDecision(ActionLeaseDenied, false, &reasonTTLOutOfBounds, policy)
		}
		return NewDecision(ActionLeaseGranted, false, nil, policy)

	case OpRelease:
		if !policy.LeaseExists {
			return NewDecision(ActionLeaseDenied, false, &reasonNoLease, policy)
		}
		if !policy.OwnerMatch || !policy.TokenMatch {
			return NewDecision(ActionLeaseDenied, false, &reasonNotAuthorized, policy)
		}
		return NewDecision(ActionLeaseReleased, false, nil, policy)

	default:
		return nil, fmt.Errorf("unknown op %q", policy.Op)
	}
}
