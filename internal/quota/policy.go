package quota

import "fmt"

// PolicyReport is the policy step's Ok record.
//
// NoAuthorityGrant and NoGateOrderChange are self-attesting invariant flags:
// the quota engine only throttles, it never grants execution rights, and it
// never reorders other safety gates in the caller's pipeline. Construction
// fails if either flag is false, so the record's existence proves both.
type PolicyReport struct {
	Kind              OperationKind `json:"kind"`
	Target            string        `json:"target"` // capability ID or tool name
	Cause             ThrottleCause `json:"throttle_cause"`
	AllowEligible     bool          `json:"allow_eligible"`
	WaitPermitted     bool          `json:"wait_permitted"`
	PolicyBlocked     bool          `json:"policy_blocked"`
	SuggestedWaitMs   *int64        `json:"suggested_wait_ms,omitempty"`
	NoAuthorityGrant  bool          `json:"no_authority_grant"`
	NoGateOrderChange bool          `json:"no_gate_order_change"`
}

func (*PolicyReport) quotaResponse() {}

// NewPolicyReport validates the flag set before it can exist.
//
// Consistency rules:
//   - both self-attesting invariant flags must be true;
//   - wait_permitted and policy_blocked are mutually exclusive;
//   - an allow-eligible request has cause None and no wait hint;
//   - a wait-permitted report must carry a positive wait hint.
func NewPolicyReport(r PolicyReport) (*PolicyReport, error) {
	if !r.Kind.Valid() {
		return nil, fmt.Errorf("unknown operation kind %q", r.Kind)
	}
	if !r.Cause.Valid() {
		return nil, fmt.Errorf("unknown throttle cause %q", r.Cause)
	}
	if !r.NoAuthorityGrant {
		return nil, fmt.Errorf("no_authority_grant must hold")
	}
	if !r.NoGateOrderChange {
		return nil, fmt.Errorf("no_gate_order_change must hold")
	}
	if r.WaitPermitted && r.PolicyBlocked {
		return nil, fmt.Errorf("wait_permitted and policy_blocked are mutually exclusive")
	}
	if r.AllowEligible {
		if r.Cause != CauseNone {
			return nil, fmt.Errorf("allow_eligible with throttle cause %s", r.Cause)
		}
		if r.WaitPermitted || r.PolicyBlocked {
			return nil, fmt.Errorf("allow_eligible with throttle flags set")
		}
	}
	if r.WaitPermitted && (r.SuggestedWaitMs == nil || *r.SuggestedWaitMs <= 0) {
		return nil, fmt.Errorf("wait_permitted requires a positive suggested_wait_ms")
	}
	return &r, nil
}

// evaluatePolicy classifies the request against the usage snapshot.
// Check order is fixed: policy block, rate limit, budget, then allow.
func evaluatePolicy(req *PolicyEvaluateRequest) (*PolicyReport, error) {
	target := req.CapabilityID
	if req.Kind == OpKindTool {
		target = req.ToolName
	}
	r := PolicyReport{
		Kind:              req.Kind,
		Target:            target,
		NoAuthorityGrant:  true,
		NoGateOrderChange: true,
	}

	switch {
	case req.Usage.PolicyBlocked:
		r.Cause = CausePolicy
		r.PolicyBlocked = true

	case req.Usage.RequestsInWindow >= req.Usage.WindowLimit:
		r.Cause = CauseRateLimit
		r.WaitPermitted = true
		wait := req.Usage.WindowResetMs
		if wait <= 0 {
			wait = DefaultWaitMs
		}
		r.SuggestedWaitMs = &wait

	case req.Usage.SpentBudgetUnits >= req.Usage.BudgetLimitUnits:
		// Budgets do not replenish within a window, so waiting is pointless.
		r.Cause = CauseBudget

	default:
		r.Cause = CauseNone
		r.AllowEligible = true
	}

	return NewPolicyReport(r)
}
