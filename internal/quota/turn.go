package quota

import (
	"fmt"

	"github.com/halcyonlabs/halcyon/internal/contract"
	"github.com/halcyonlabs/halcyon/internal/wiring"
)

// TurnInput is the caller-side input for one quota admission turn.
type TurnInput struct {
	Kind         OperationKind
	CapabilityID string
	ToolName     string
	Usage        UsageSnapshot
}

// Bundle is the forwarded outcome of a quota turn.
type Bundle struct {
	Policy   PolicyReport
	Decision Decision
}

// NewBundle validates the end-to-end invariants at construction:
//   - both self-attesting flags held through the whole turn;
//   - an Allow decision requires allow eligibility;
//   - a Wait decision carries its wait time.
func NewBundle(policy PolicyReport, decision Decision) (Bundle, error) {
	if !policy.NoAuthorityGrant || !policy.NoGateOrderChange {
		return Bundle{}, fmt.Errorf("invariant flags dropped between steps")
	}
	if decision.Action == ActionAllow && !policy.AllowEligible {
		return Bundle{}, fmt.Errorf("Allow forwarded without allow_eligible")
	}
	if decision.Action == ActionWait && (decision.WaitMs == nil || *decision.WaitMs <= 0) {
		return Bundle{}, fmt.Errorf("Wait forwarded without wait_ms")
	}
	return Bundle{Policy: policy, Decision: decision}, nil
}

// NewTurn builds the wiring turn for one quota request against the engine.
func NewTurn(eng *Engine, in TurnInput) wiring.Turn[PolicyReport, Decision, Bundle] {
	return wiring.Turn[PolicyReport, Decision, Bundle]{
		CapabilityID: CapabilityTurn,
		HasInput:     in.Kind != "" && (in.CapabilityID != "" || in.ToolName != ""),
		CallA: func(env contract.Envelope) (PolicyReport, *contract.Refuse, error) {
			resp := eng.Run(&PolicyEvaluateRequest{
				Envelope:     env,
				Kind:         in.Kind,
				CapabilityID: in.CapabilityID,
				ToolName:     in.ToolName,
				Usage:        in.Usage,
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

// RunTurn executes one quota turn through the two-phase wiring protocol.
func RunTurn(cfg wiring.Config, eng *Engine, req wiring.Request, in TurnInput) wiring.Outcome[Bundle] {
	return wiring.Run(cfg, req, NewTurn(eng, in))
}
