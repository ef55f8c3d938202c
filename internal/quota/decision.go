package quota

import (
	"fmt"

	"github.com/halcyonlabs/halcyon/internal/contract"
)

// Decision is the decision step's Ok record. WaitMs is present exactly when
// the action is Wait; a Wait without a wait time cannot be constructed, so it
// is never observable.
type Decision struct {
	Action       Action               `json:"action"`
	WaitMs       *int64               `json:"wait_ms,omitempty"`
	DenialReason *contract.ReasonCode `json:"denial_reason,omitempty"`
}

func (*Decision) quotaResponse() {}

// NewDecision validates the decision against its policy report.
func NewDecision(action Action, waitMs *int64, denial *contract.ReasonCode, policy PolicyReport) (*Decision, error) {
	if !action.Valid() {
		return nil, fmt.Errorf("unknown action %q", action)
	}
	switch action {
	case ActionAllow:
		if !policy.AllowEligible {
			return nil, fmt.Errorf("Allow without allow_eligible")
		}
		if waitMs != nil || denial != nil {
			return nil, fmt.Errorf("Allow carries no wait or denial fields")
		}
	case ActionWait:
		if !policy.WaitPermitted {
			return nil, fmt.Errorf("Wait without wait_permitted")
		}
		if waitMs == nil || *waitMs <= 0 {
			return nil, fmt.Errorf("Wait requires a positive wait_ms")
		}
		if denial != nil {
			return nil, fmt.Errorf("Wait carries no denial reason")
		}
	case ActionRefuse:
		if denial == nil {
			return nil, fmt.Errorf("Refuse requires a denial reason")
		}
		if err := denial.Validate(); err != nil {
			return nil, err
		}
		if waitMs != nil {
			return nil, fmt.Errorf("Refuse carries no wait_ms")
		}
	}
	return &Decision{Action: action, WaitMs: waitMs, DenialReason: denial}, nil
}

// computeDecision deterministically maps the policy flags to an action.
func computeDecision(policy PolicyReport) (*Decision, error) {
	switch {
	case policy.AllowEligible:
		return NewDecision(ActionAllow, nil, nil, policy)
	case policy.WaitPermitted:
		return NewDecision(ActionWait, policy.SuggestedWaitMs, nil, policy)
	case policy.PolicyBlocked:
		return NewDecision(ActionRefuse, nil, &reasonPolicyBlocked, policy)
	default:
		return NewDecision(ActionRefuse, nil, &reasonBudgetSpent, policy)
	}
}
