package ledger

import (
	"context"

	"github.com/halcyonlabs/halcyon/internal/contract"
)

// ContractVersion is the engine's compiled schema version.
const ContractVersion = "ledger/v1"

// Capability identifiers.
const (
	CapabilityPolicyEvaluate  = "ledger.policy_evaluate"
	CapabilityDecisionCompute = "ledger.decision_compute"
	CapabilityTurn            = "ledger.turn"
)

// Event is one proposed work-order event. Event IDs are never part of the
// proposal; the engine assigns them content-addressed.
type Event struct {
	WorkOrderID    string          `json:"work_order_id"`
	TenantID       string          `json:"tenant_id"`
	EventType      string          `json:"event_type"`
	IdempotencyKey string          `json:"idempotency_key"`
	Payload        contract.Object `json:"payload"`
}

// Validate checks the proposal's field constraints. An empty payload object is
// legal; a nil one is not, so the content hash is always well defined.
func (e Event) Validate() error {
	if err := contract.CheckIdentifier("work_order_id", e.WorkOrderID); err != nil {
		return err
	}
	if err := contract.CheckIdentifier("tenant_id", e.TenantID); err != nil {
		return err
	}
	if err := contract.CheckIdentifier("event_type", e.EventType); err != nil {
		return err
	}
	if err := contract.CheckIdentifier("idempotency_key", e.IdempotencyKey); err != nil {
		return err
	}
	if e.Payload == nil {
		return &contract.FieldError{Field: "payload", Message: "must be an object, use an empty one for payload-free events"}
	}
	return nil
}

// StoredEvent is an event as it exists in the durable log: the proposal plus
// its assigned identity. Seq is the store's append order and is only
// meaningful within one ledger.
type StoredEvent struct {
	Event
	EventID     string `json:"event_id"`
	PayloadHash string `json:"payload_hash"`
	Seq         int64  `json:"seq"`
}

// AppendLog is the durable collaborator the application layer writes through.
// Append persists a decided event and returns it with its sequence number
// assigned. ByIdempotencyKey returns nil when no event holds the key.
type AppendLog interface {
	Append(ctx context.Context, ev StoredEvent) (StoredEvent, error)
	ByIdempotencyKey(ctx context.Context, tenantID, key string) (*StoredEvent, error)
}

// Action is the decision step's verdict.
type Action string

const (
	// ActionAppended admits the event into the log under its new ID.
	ActionAppended Action = "Appended"

	// ActionDuplicateNoOp resolves a byte-identical resubmission to the
	// existing event ID without writing anything.
	ActionDuplicateNoOp Action = "DuplicateNoOp"

	// ActionDenied rejects the proposal; nothing is written.
	ActionDenied Action = "Denied"
)

// Valid reports whether the action belongs to the closed set.
func (a Action) Valid() bool {
	return a == ActionAppended || a == ActionDuplicateNoOp || a == ActionDenied
}

// Request is the sealed union of ledger capability requests.
type Request interface {
	ledgerRequest() // sealed
}

// PolicyEvaluateRequest asks the policy step to classify a proposed append
// against the ledger's current view. Existing is the stored event already
// holding the proposal's idempotency key, or nil. SubmittedEventID must be
// empty; a caller supplying one is trying to address an existing row, which
// the append-only rule forbids.
type PolicyEvaluateRequest struct {
	Envelope         contract.Envelope
	Proposed         Event
	SubmittedEventID string
	LedgerTenantID   string
	Existing         *StoredEvent
}

func (*PolicyEvaluateRequest) ledgerRequest() {}

// DecisionComputeRequest forwards the policy report for decision mapping.
type DecisionComputeRequest struct {
	Envelope contract.Envelope
	Policy   PolicyReport
}

func (*DecisionComputeRequest) ledgerRequest() {}

// Response is the sealed union of ledger capability responses.
type Response interface {
	ledgerResponse() // sealed
}

// Refused wraps the uniform refusal shape as a ledger response variant.
type Refused struct {
	contract.Refuse
}

func (*Refused) ledgerResponse() {}
