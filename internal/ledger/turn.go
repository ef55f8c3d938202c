package ledger

import (
	"fmt"

	"github.com/halcyonlabs/halcyon/internal/contract"
	"github.com/halcyonlabs/halcyon/internal/wiring"
)

// TurnInput is the caller-side input for one ledger append turn.
type TurnInput struct {
	Proposed         Event
	SubmittedEventID string
	LedgerTenantID   string
	Existing         *StoredEvent
}

// Bundle is the forwarded outcome of a ledger turn.
type Bundle struct {
	Policy   PolicyReport
	Decision Decision
}

// NewBundle validates the end-to-end invariants at construction:
//   - the no-silent-merge flag held through the whole turn;
//   - every action is still backed by the policy flag that permits it;
//   - the event ID the caller will act on matches the policy's assignment.
func NewBundle(policy PolicyReport, decision Decision) (Bundle, error) {
	if !policy.NoSilentConflictMerge || !decision.NoSilentConflictMerge {
		return Bundle{}, fmt.Errorf("invariant flag dropped between steps")
	}
	switch decision.Action {
	case ActionAppended:
		if !policy.AppendEligible {
			return Bundle{}, fmt.Errorf("Appended forwarded without append_eligible")
		}
		if decision.EventID != policy.ProposedEventID {
			return Bundle{}, fmt.Errorf("Appended forwarded with a foreign event id")
		}
	case ActionDuplicateNoOp:
		if !policy.IdempotencyDuplicate {
			return Bundle{}, fmt.Errorf("DuplicateNoOp forwarded without idempotency_duplicate")
		}
		if decision.EventID != policy.ExistingEventID {
			return Bundle{}, fmt.Errorf("DuplicateNoOp forwarded with a foreign event id")
		}
	case ActionDenied:
		if decision.DenialReason == nil {
			return Bundle{}, fmt.Errorf("Denied forwarded without a reason")
		}
	default:
		return Bundle{}, fmt.Errorf("unknown action %q", decision.Action)
	}
	return Bundle{Policy: policy, Decision: decision}, nil
}

// NewTurn builds the wiring turn for one ledger proposal against the engine.
func NewTurn(eng *Engine, in TurnInput) wiring.Turn[PolicyReport, Decision, Bundle] {
	return wiring.Turn[PolicyReport, Decision, Bundle]{
		CapabilityID: CapabilityTurn,
		HasInput:     in.Proposed.WorkOrderID != "" || in.Proposed.IdempotencyKey != "",
		CallA: func(env contract.Envelope) (PolicyReport, *contract.Refuse, error) {
			resp := eng.Run(&PolicyEvaluateRequest{
				Envelope:         env,
				Proposed:         in.Proposed,
				SubmittedEventID: in.SubmittedEventID,
				LedgerTenantID:   in.LedgerTenantID,
				Existing:         in.Existing,
			})
			switch v := resp.(type) {
			case *PolicyReport:
				return *v, nil, nil
			case *Refused:
				return PolicyReport{}, &v.Refuse, nil
			default:
				return PolicyReport{}, nil, fmt.Errorf("unexpected response variant %T", resp)
			}
		},
		CallB: func(env contract.Envelope, policy PolicyReport) (Decision, *contract.Refuse, error) {
			resp := eng.Run(&DecisionComputeRequest{Envelope: env, Policy: policy})
			switch v := resp.(type) {
			case *Decision:
				return *v, nil, nil
			case *Refused:
				return Decision{}, &v.Refuse, nil
			default:
				return Decision{}, nil, fmt.Errorf("unexpected response variant %T", resp)
			}
		},
		StatusOK:  func(Decision) bool { return true },
		NewBundle: NewBundle,
	}
}

// RunTurn executes one ledger turn through the two-phase wiring protocol.
func RunTurn(cfg wiring.Config, eng *Engine, req wiring.Request, in TurnInput) wiring.Outcome[Bundle] {
	return wiring.Run(cfg, req, NewTurn(eng, in))
}
