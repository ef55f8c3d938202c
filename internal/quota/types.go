package quota

import (
	"fmt"

	"github.com/halcyonlabs/halcyon/internal/contract"
)

// ContractVersion is the engine's compiled schema version.
const ContractVersion = "quota/v1"

// Capability identifiers.
const (
	CapabilityPolicyEvaluate  = "quota.policy_evaluate"
	CapabilityDecisionCompute = "quota.decision_compute"
	CapabilityTurn            = "quota.turn"
)

// DefaultWaitMs is the fallback wait hint when the usage snapshot carries no
// window-reset horizon. Policy tuning value.
const DefaultWaitMs int64 = 1_000

// OperationKind classifies what is being admitted.
type OperationKind string

const (
	// OpKindCapability admits an engine capability call; CapabilityID must be
	// set and ToolName empty.
	OpKindCapability OperationKind = "capability"

	// OpKindTool admits an external tool call; ToolName must be set and
	// CapabilityID empty.
	OpKindTool OperationKind = "tool"
)

// Valid reports whether the kind belongs to the closed set.
func (k OperationKind) Valid() bool {
	return k == OpKindCapability || k == OpKindTool
}

// ThrottleCause classifies why admission is being throttled.
type ThrottleCause string

const (
	CauseNone      ThrottleCause = "None"
	CauseRateLimit ThrottleCause = "RateLimit"
	CauseBudget    ThrottleCause = "Budget"
	CausePolicy    ThrottleCause = "Policy"
)

// Valid reports whether the cause belongs to the closed set.
func (c ThrottleCause) Valid() bool {
	switch c {
	case CauseNone, CauseRateLimit, CauseBudget, CausePolicy:
		return true
	}
	return false
}

// Action is the decision step's verdict.
type Action string

const (
	ActionAllow  Action = "Allow"
	ActionWait   Action = "Wait"
	ActionRefuse Action = "Refuse"
)

// Valid reports whether the action belongs to the closed set.
func (a Action) Valid() bool {
	return a == ActionAllow || a == ActionWait || a == ActionRefuse
}

// UsageSnapshot is the caller's serialized view of current consumption.
// The engine never reads counters itself; ordering guarantees come from the
// caller presenting one consistent snapshot per call.
type UsageSnapshot struct {
	RequestsInWindow int64 `json:"requests_in_window"`
	WindowLimit      int64 `json:"window_limit"`
	WindowResetMs    int64 `json:"window_reset_ms"`
	SpentBudgetUnits int64 `json:"spent_budget_units"`
	BudgetLimitUnits int64 `json:"budget_limit_units"`
	PolicyBlocked    bool  `json:"policy_blocked"`
}

// Validate checks the snapshot's field constraints.
func (u UsageSnapshot) Validate() error {
	if u.RequestsInWindow < 0 || u.SpentBudgetUnits < 0 || u.WindowResetMs < 0 {
		return &contract.FieldError{Field: "usage", Message: "counters must be non-negative"}
	}
	if u.WindowLimit <= 0 {
		return &contract.FieldError{Field: "window_limit", Message: fmt.Sprintf("must be positive, got %d", u.WindowLimit)}
	}
	if u.BudgetLimitUnits <= 0 {
		return &contract.FieldError{Field: "budget_limit_units", Message: fmt.Sprintf("must be positive, got %d", u.BudgetLimitUnits)}
	}
	return nil
}

// Request is the sealed union of quota capability requests.
type Request interface {
	quotaRequest() // sealed
}

// PolicyEvaluateRequest asks the policy step to classify the request.
// CapabilityID and ToolName are mutually exclusive, selected by Kind.
type PolicyEvaluateRequest struct {
	Envelope     contract.Envelope
	Kind         OperationKind
	CapabilityID string
	ToolName     string
	Usage        UsageSnapshot
}

func (*PolicyEvaluateRequest) quotaRequest() {}

// DecisionComputeRequest forwards the policy report for decision mapping.
type DecisionComputeRequest struct {
	Envelope contract.Envelope
	Policy   PolicyReport
}

func (*DecisionComputeRequest) quotaRequest() {}

// Response is the sealed union of quota capability responses.
type Response interface {
	quotaResponse() // sealed
}

// Refused wraps the uniform refusal shape as a quota response variant.
type Refused struct {
	contract.Refuse
}

func (*Refused) quotaResponse() {}
