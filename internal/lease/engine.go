package lease

import (
	"fmt"

	"github.com/halcyonlabs/halcyon/internal/contract"
)

// Reason codes in the lease namespace.
var (
	reasonSchemaInvalid = contract.MustReasonCode(contract.ReasonBaseLease+1, contract.ReasonInputSchemaInvalid)
	reasonNotAuthorized = contract.MustReasonCode(contract.ReasonBaseLease+2, contract.ReasonNotAuthorized)
	reasonTTLOutOfBounds = contract.MustReasonCode(contract.ReasonBaseLease+3, contract.ReasonTTLOutOfBounds)
	reasonNoLease       = contract.MustReasonCode(contract.ReasonBaseLease+4, contract.ReasonNotAuthorized)
	reasonForeignLease  = contract.MustReasonCode(contract.ReasonBaseLease+5, contract.ReasonNotAuthorized)
	reasonLeaseExpired  = contract.MustReasonCode(contract.ReasonBaseLease+6, contract.ReasonNotAuthorized)
	reasonInternal      = contract.MustReasonCode(contract.ReasonBaseLease+7, contract.ReasonInternalPipelineError)
)

// DefaultLimits are the engine's envelope budget ceilings.
var DefaultLimits = contract.EnvelopeLimits{MaxCandidates: 16, MaxDiagnostics: 8}

// Engine is the lease arbitration engine. Stateless: every call is a pure
// function of its request.
type Engine struct {
	limits contract.EnvelopeLimits
}

// NewEngine creates a lease engine with the given envelope limits.
func NewEngine(limits contract.EnvelopeLimits) *Engine {
	return &Engine{limits: limits}
}

// Run is the engine's single synchronous entry point.
func (e *Engine) Run(req Request) Response {
	switch r := req.(type) {
	case *PolicyEvaluateRequest:
		return e.policyEvaluate(r)
	case *DecisionComputeRequest:
		return e.decisionCompute(r)
	default:
		return refuse(CapabilityPolicyEvaluate, reasonInternal, fmt.Sprintf("unknown request type %T", req))
	}
}

func (e *Engine) policyEvaluate(req *PolicyEvaluateRequest) Response {
	if err := req.Envelope.Validate(ContractVersion, e.limits); err != nil {
		return refuse(CapabilityPolicyEvaluate, reasonSchemaInvalid, err.Error())
	}
	if !req.Op.Valid() {
		return refuse(CapabilityPolicyEvaluate, reasonSchemaInvalid, fmt.Sprintf("unknown op %q", req.Op))
	}
	if err := contract.CheckIdentifier("work_order_id", req.WorkOrderID); err != nil {
		return refuse(CapabilityPolicyEvaluate, reasonSchemaInvalid, err.Error())
	}
	if err := contract.CheckIdentifier("requester_id", req.RequesterID); err != nil {
		return refuse(CapabilityPolicyEvaluate, reasonSchemaInvalid, err.Error())
	}
	if req.NowMs <= 0 {
		return refuse(CapabilityPolicyEvaluate, reasonSchemaInvalid, "now_ms must be positive")
	}
	if req.Current != nil {
		if err := req.Current.Validate(); err != nil {
			return refuse(CapabilityPolicyEvaluate, reasonSchemaInvalid, err.Error())
		}
		if req.Current.WorkOrderID != req.WorkOrderID {
			return refuse(CapabilityPolicyEvaluate, reasonSchemaInvalid, "snapshot work_order_id does not match request")
		}
	}

	report, err := evaluatePolicy(req)
	if err != nil {
		return refuse(CapabilityPolicyEvaluate, reasonInternal, err.Error())
	}
	return report
}

func (e *Engine) decisionCompute(req *DecisionComputeRequest) Response {
	if err := req.Envelope.Validate(ContractVersion, e.limits); err != nil {
		return refuse(CapabilityDecisionCompute, reasonSchemaInvalid, err.Error())
	}
	// Re-validate the forwarded report: the decision step never trusts that
	// the caller preserved the policy step's output.
	if _, err := NewPolicyReport(req.Policy); err != nil {
		return refuse(CapabilityDecisionCompute, reasonSchemaInvalid, err.Error())
	}

	decision, err := computeDecision(req.Policy)
	if err != nil {
		return refuse(CapabilityDecisionCompute, reasonInternal, err.Error())
	}
	return decision
}

func refuse(capability string, reason contract.ReasonCode, message string) *Refused {
	r, err := contract.NewRefuse(capability, reason, contract.ClipMessage(message))
	if err != nil {
		r = contract.MustRefuse(capability, reasonInternal, "refusal construction failed")
	}
	return &Refused{Refuse: r}
}
