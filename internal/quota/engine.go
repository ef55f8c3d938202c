package quota

import (
	"fmt"

	"github.com/halcyonlabs/halcyon/internal/contract"
)

// Reason codes in the quota namespace.
var (
	reasonSchemaInvalid = contract.MustReasonCode(contract.ReasonBaseQuota+1, contract.ReasonInputSchemaInvalid)
	reasonPolicyBlocked = contract.MustReasonCode(contract.ReasonBaseQuota+2, contract.ReasonNotAuthorized)
	reasonBudgetSpent   = contract.MustReasonCode(contract.ReasonBaseQuota+3, contract.ReasonBudgetExceeded)
	reasonInternal      = contract.MustReasonCode(contract.ReasonBaseQuota+4, contract.ReasonInternalPipelineError)
)

// DefaultLimits are the engine's envelope budget ceilings.
var DefaultLimits = contract.EnvelopeLimits{MaxCandidates: 16, MaxDiagnostics: 8}

// Engine is the quota admission engine. Stateless by design.
type Engine struct {
	limits contract.EnvelopeLimits
}

// NewEngine creates a quota engine with the given envelope limits.
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
	if !req.Kind.Valid() {
		return refuse(CapabilityPolicyEvaluate, reasonSchemaInvalid, fmt.Sprintf("unknown operation kind %q", req.Kind))
	}

	// capability_id and tool_name are mutually exclusive, selected by kind.
	switch req.Kind {
	case OpKindCapability:
		if req.ToolName != "" {
			return refuse(CapabilityPolicyEvaluate, reasonSchemaInvalid, "tool_name must be empty for capability admission")
		}
		if err := contract.CheckIdentifier("capability_id", req.CapabilityID); err != nil {
			return refuse(CapabilityPolicyEvaluate, reasonSchemaInvalid, err.Error())
		}
	case OpKindTool:
		if req.CapabilityID != "" {
			return refuse(CapabilityPolicyEvaluate, reasonSchemaInvalid, "capability_id must be empty for tool admission")
		}
		if err := contract.CheckIdentifier("tool_name", req.ToolName); err != nil {
			return refuse(CapabilityPolicyEvaluate, reasonSchemaInvalid, err.Error())
		}
	}

	if err := req.Usage.Validate(); err != nil {
		return refuse(CapabilityPolicyEvaluate, reasonSchemaInvalid, err.Error())
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
