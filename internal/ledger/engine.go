package ledger

import (
	"fmt"

	"github.com/halcyonlabs/halcyon/internal/contract"
)

// Reason codes in the ledger namespace.
var (
	reasonSchemaInvalid   = contract.MustReasonCode(contract.ReasonBaseLedger+1, contract.ReasonInputSchemaInvalid)
	reasonAppendOnly      = contract.MustReasonCode(contract.ReasonBaseLedger+2, contract.ReasonValidationFailed)
	reasonTenantScope     = contract.MustReasonCode(contract.ReasonBaseLedger+3, contract.ReasonNotAuthorized)
	reasonPayloadConflict = contract.MustReasonCode(contract.ReasonBaseLedger+4, contract.ReasonValidationFailed)
	reasonInternal        = contract.MustReasonCode(contract.ReasonBaseLedger+5, contract.ReasonInternalPipelineError)
)

// DefaultLimits are the engine's envelope budget ceilings.
var DefaultLimits = contract.EnvelopeLimits{MaxCandidates: 16, MaxDiagnostics: 8}

// Engine is the work-order ledger engine. It decides appends; it never
// touches the durable log itself.
type Engine struct {
	limits contract.EnvelopeLimits
}

// NewEngine creates a ledger engine with the given envelope limits.
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
	if err := req.Proposed.Validate(); err != nil {
		return refuse(CapabilityPolicyEvaluate, reasonSchemaInvalid, err.Error())
	}
	if err := contract.CheckIdentifier("ledger_tenant_id", req.LedgerTenantID); err != nil {
		return refuse(CapabilityPolicyEvaluate, reasonSchemaInvalid, err.Error())
	}
	if req.Existing != nil {
		if req.Existing.EventID == "" || req.Existing.PayloadHash == "" {
			return refuse(CapabilityPolicyEvaluate, reasonSchemaInvalid, "existing event is missing its assigned identity")
		}
		if req.Existing.IdempotencyKey != req.Proposed.IdempotencyKey {
			return refuse(CapabilityPolicyEvaluate, reasonSchemaInvalid, "existing event does not hold the proposal's idempotency key")
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
