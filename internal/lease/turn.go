package lease

import (
	"fmt"

	"github.com/halcyonlabs/halcyon/internal/contract"
	"github.com/halcyonlabs/halcyon/internal/wiring"
)

// TurnInput is the caller-side input for one lease turn.
type TurnInput struct {
	Op             Op
	WorkOrderID    string
	RequesterID    string
	RequestToken   string
	RequestedTTLMs int64
	NowMs          int64
	Current        *Record
}

// Bundle is the forwarded outcome of a lease turn: the policy report and the
// decision computed from it. Construction validates the cross-record
// invariants, so a bundle that exists is safe to forward.
type Bundle struct {
	Policy   PolicyReport
	Decision Decision
}

// NewBundle validates cross-record invariants between the two steps:
//   - a granted decision requires the policy step's grant eligibility;
//   - a resume-from-ledger marker requires the policy step's expired flag.
func NewBundle(policy PolicyReport, decision Decision) (Bundle, error) {
	if decision.Action == ActionLeaseGranted && !policy.GrantEligible {
		return Bundle{}, fmt.Errorf("LeaseGranted forwarded without grant_eligible")
	}
	if decision.ResumeFromLedgerRequired && !policy.LeaseExpired {
		return Bundle{}, fmt.Errorf("resume_from_ledger_required forwarded without lease_expired")
	}
	return Bundle{Policy: policy, Decision: decision}, nil
}

// NewTurn builds the wiring turn for one lease request against the engine.
// The decision request forwards the policy step's output verbatim.
func NewTurn(eng *Engine, in TurnInput) wiring.Turn[PolicyReport, Decision, Bundle] {
	return wiring.Turn[PolicyReport, Decision, Bundle]{
		CapabilityID: CapabilityTurn,
		HasInput:     in.WorkOrderID != "" && in.Op != "",
		CallA: func(env contract.Envelope) (PolicyReport, *contract.Refuse, error) {
			resp := eng.Run(&PolicyEvaluateRequest{
				Envelope:       env,
				Op:             in.Op,
				WorkOrderID:    in.WorkOrderID,
				RequesterID:    in.RequesterID,
				RequestToken:   in.RequestToken,
				RequestedTTLMs: in.RequestedTTLMs,
				NowMs:          in.NowMs,
				Current:        in.Current,
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
		// The lease decision has no separate validation status; a decision
		// record that exists already passed construction.
		StatusOK:  func(Decision) bool { return true },
		NewBundle: NewBundle,
	}
}

// RunTurn executes one lease turn through the two-phase wiring protocol.
func RunTurn(cfg wiring.Config, eng *Engine, req wiring.Request, in TurnInput) wiring.Outcome[Bundle] {
	return wiring.Run(cfg, req, NewTurn(eng, in))
}
