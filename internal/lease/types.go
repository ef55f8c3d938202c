package lease

import (
	"fmt"

	"github.com/halcyonlabs/halcyon/internal/contract"
)

// ContractVersion is the engine's compiled schema version. Envelopes carrying
// any other version are refused at intake.
const ContractVersion = "lease/v1"

// Capability identifiers.
const (
	CapabilityPolicyEvaluate  = "lease.policy_evaluate"
	CapabilityDecisionCompute = "lease.decision_compute"
	CapabilityTurn            = "lease.turn"
)

// TTL bounds for acquire and renew requests, in milliseconds.
// Policy tuning values, not physical constants.
const (
	MinTTLMs int64 = 1_000
	MaxTTLMs int64 = 300_000
)

// Op is a lease operation.
type Op string

const (
	OpAcquire Op = "Acquire"
	OpRenew   Op = "Renew"
	OpRelease Op = "Release"
)

// Valid reports whether the op belongs to the closed set.
func (o Op) Valid() bool {
	return o == OpAcquire || o == OpRenew || o == OpRelease
}

// Record is the caller-owned lease record. At most one non-expired lease
// exists per work order at any time; the caller replaces the record
// atomically on a granted decision.
type Record struct {
	WorkOrderID string `json:"work_order_id"`
	OwnerID     string `json:"owner_id"`
	Token       string `json:"token"`
	ExpiresAtMs int64  `json:"expires_at_ms"`
}

// Validate checks field constraints on a lease record.
func (r Record) Validate() error {
	if err := contract.CheckIdentifier("work_order_id", r.WorkOrderID); err != nil {
		return err
	}
	if err := contract.CheckIdentifier("owner_id", r.OwnerID); err != nil {
		return err
	}
	if err := contract.CheckIdentifier("token", r.Token); err != nil {
		return err
	}
	if r.ExpiresAtMs <= 0 {
		return &contract.FieldError{Field: "expires_at_ms", Message: fmt.Sprintf("must be positive, got %d", r.ExpiresAtMs)}
	}
	return nil
}

// Action is the decision step's verdict.
type Action string

const (
	ActionLeaseGranted  Action = "LeaseGranted"
	ActionLeaseDenied   Action = "LeaseDenied"
	ActionLeaseReleased Action = "LeaseReleased"
	ActionLeaseConflict Action = "LeaseConflict"
)

// Valid reports whether the action belongs to the closed set.
func (a Action) Valid() bool {
	switch a {
	case ActionLeaseGranted, ActionLeaseDenied, ActionLeaseReleased, ActionLeaseConflict:
		return true
	}
	return false
}

// Request is the sealed union of lease capability requests.
type Request interface {
	leaseRequest() // sealed
}

// PolicyEvaluateRequest asks the policy step to derive lease-state flags.
// Current is nil when no lease exists for the work order. NowMs is the
// caller's single serialized view of "now" for the whole turn.
type PolicyEvaluateRequest struct {
	Envelope       contract.Envelope
	Op             Op
	WorkOrderID    string
	RequesterID    string
	RequestToken   string
	RequestedTTLMs int64
	NowMs          int64
	Current        *Record
}

func (*PolicyEvaluateRequest) leaseRequest() {}

// DecisionComputeRequest asks the decision step to map policy flags to an
// action. Policy is forwarded verbatim from the policy step's output, never
// re-derived.
type DecisionComputeRequest struct {
	Envelope contract.Envelope
	Policy   PolicyReport
}

func (*DecisionComputeRequest) leaseRequest() {}

// Response is the sealed union of lease capability responses.
type Response interface {
	leaseResponse() // sealed
}

// Refused wraps the uniform refusal shape as a lease response variant.
type Refused struct {
	contract.Refuse
}

func (*Refused) leaseResponse() {}
