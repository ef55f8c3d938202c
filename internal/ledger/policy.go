package ledger

import (
	"fmt"

	"github.com/halcyonlabs/halcyon/internal/contract"
)

// PolicyReport is the policy step's classification of one proposed append.
// The two hard violations are evaluated first; when either is set the
// idempotency flags stay false regardless of what the key lookup found, so
// the denial never leaks log contents.
//
// NoSilentConflictMerge is self-attesting: the policy step never reconciles
// a conflicting payload into the existing event, and a report claiming
// otherwise cannot be constructed.
type PolicyReport struct {
	WorkOrderID    string `json:"work_order_id"`
	TenantID       string `json:"tenant_id"`
	IdempotencyKey string `json:"idempotency_key"`

	// Identity assigned to the proposal, computed before classification so
	// the decision step never hashes anything itself.
	ProposedEventID     string `json:"proposed_event_id"`
	ProposedPayloadHash string `json:"proposed_payload_hash"`

	AppendOnlyViolation  bool   `json:"append_only_violation"`
	TenantScopeMismatch  bool   `json:"tenant_scope_mismatch"`
	IdempotencyDuplicate bool   `json:"idempotency_duplicate"`
	PayloadConflict      bool   `json:"payload_conflict"`
	ExistingEventID      string `json:"existing_event_id,omitempty"`

	AppendEligible        bool `json:"append_eligible"`
	NoSilentConflictMerge bool `json:"no_silent_conflict_merge"`
}

// NewPolicyReport validates internal consistency. Reports arrive here both
// freshly computed and forwarded from outside the engine, so every invariant
// the decision step relies on is re-checked.
func NewPolicyReport(r PolicyReport) (PolicyReport, error) {
	if !r.NoSilentConflictMerge {
		return PolicyReport{}, fmt.Errorf("a conflict-merging report cannot exist")
	}
	if r.WorkOrderID == "" || r.TenantID == "" || r.IdempotencyKey == "" {
		return PolicyReport{}, fmt.Errorf("report is missing event identity fields")
	}
	if r.ProposedEventID == "" || r.ProposedPayloadHash == "" {
		return PolicyReport{}, fmt.Errorf("report is missing the proposed content identity")
	}
	if r.IdempotencyDuplicate && r.PayloadConflict {
		return PolicyReport{}, fmt.Errorf("duplicate and conflict are mutually exclusive")
	}
	if (r.IdempotencyDuplicate || r.PayloadConflict) && r.ExistingEventID == "" {
		return PolicyReport{}, fmt.Errorf("duplicate/conflict without the existing event id")
	}
	if (r.AppendOnlyViolation || r.TenantScopeMismatch) && (r.IdempotencyDuplicate || r.PayloadConflict) {
		return PolicyReport{}, fmt.Errorf("hard violations preempt the idempotency check")
	}
	anyFlag := r.AppendOnlyViolation || r.TenantScopeMismatch || r.IdempotencyDuplicate || r.PayloadConflict
	if r.AppendEligible == anyFlag {
		return PolicyReport{}, fmt.Errorf("append_eligible must be the negation of all classification flags")
	}
	return r, nil
}

func (*PolicyReport) ledgerResponse() {}

// evaluatePolicy classifies one proposed append. The caller has already
// validated the envelope and the proposal's fields.
func evaluatePolicy(req *PolicyEvaluateRequest) (*PolicyReport, error) {
	eventID, err := contract.WorkOrderEventID(
		req.Proposed.WorkOrderID, req.Proposed.TenantID,
		req.Proposed.EventType, req.Proposed.IdempotencyKey,
		req.Proposed.Payload,
	)
	if err != nil {
		return nil, err
	}
	payloadHash, err := contract.PayloadHash(req.Proposed.Payload)
	if err != nil {
		return nil, err
	}

	r := PolicyReport{
		WorkOrderID:           req.Proposed.WorkOrderID,
		TenantID:              req.Proposed.TenantID,
		IdempotencyKey:        req.Proposed.IdempotencyKey,
		ProposedEventID:       eventID,
		ProposedPayloadHash:   payloadHash,
		NoSilentConflictMerge: true,
	}

	r.AppendOnlyViolation = req.SubmittedEventID != ""
	r.TenantScopeMismatch = req.Proposed.TenantID != req.LedgerTenantID ||
		(req.Existing != nil && req.Existing.TenantID != req.Proposed.TenantID)

	if !r.AppendOnlyViolation && !r.TenantScopeMismatch && req.Existing != nil {
		r.ExistingEventID = req.Existing.EventID
		// Content addressing does the comparison: identical tuples hash to
		// the same event ID, so anything else under the key is a conflict
		// even when only the event type differs.
		if req.Existing.EventID == eventID {
			r.IdempotencyDuplicate = true
		} else {
			r.PayloadConflict = true
		}
	}

	r.AppendEligible = !r.AppendOnlyViolation && !r.TenantScopeMismatch &&
		!r.IdempotencyDuplicate && !r.PayloadConflict

	validated, err := NewPolicyReport(r)
	if err != nil {
		return nil, err
	}
	return &validated, nil
}
