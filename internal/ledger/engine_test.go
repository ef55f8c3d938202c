package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halcyonlabs/halcyon/internal/contract"
)

func validEnvelope() contract.Envelope {
	return contract.Envelope{
		CorrelationID:  1,
		TurnID:         1,
		SchemaVersion:  ContractVersion,
		MaxCandidates:  4,
		MaxDiagnostics: 4,
	}
}

func proposal() Event {
	return Event{
		WorkOrderID:    "wo-7",
		TenantID:       "tenant-a",
		EventType:      "step_completed",
		IdempotencyKey: "step-3-attempt-1",
		Payload:        contract.Object{"step": contract.Int(3)},
	}
}

func storedFor(t *testing.T, ev Event, seq int64) *StoredEvent {
	t.Helper()
	id, err := contract.WorkOrderEventID(ev.WorkOrderID, ev.TenantID, ev.EventType, ev.IdempotencyKey, ev.Payload)
	require.NoError(t, err)
	hash, err := contract.PayloadHash(ev.Payload)
	require.NoError(t, err)
	return &StoredEvent{Event: ev, EventID: id, PayloadHash: hash, Seq: seq}
}

func policyRequest() *PolicyEvaluateRequest {
	return &PolicyEvaluateRequest{
		Envelope:       validEnvelope(),
		Proposed:       proposal(),
		LedgerTenantID: "tenant-a",
	}
}

func mustPolicy(t *testing.T, eng *Engine, req *PolicyEvaluateRequest) PolicyReport {
	t.Helper()
	resp := eng.Run(req)
	report, ok := resp.(*PolicyReport)
	require.True(t, ok, "expected PolicyReport, got %T: %+v", resp, resp)
	return *report
}

func mustDecision(t *testing.T, eng *Engine, policy PolicyReport) Decision {
	t.Helper()
	resp := eng.Run(&DecisionComputeRequest{Envelope: validEnvelope(), Policy: policy})
	d, ok := resp.(*Decision)
	require.True(t, ok, "expected Decision, got %T: %+v", resp, resp)
	return *d
}

func TestPolicyEvaluate_FreshKeyIsAppendEligible(t *testing.T) {
	eng := NewEngine(DefaultLimits)
	r := mustPolicy(t, eng, policyRequest())

	assert.True(t, r.AppendEligible)
	assert.True(t, r.NoSilentConflictMerge)
	assert.NotEmpty(t, r.ProposedEventID)
	assert.Empty(t, r.ExistingEventID)
}

func TestPolicyEvaluate_EventIDIsDeterministic(t *testing.T) {
	eng := NewEngine(DefaultLimits)
	first := mustPolicy(t, eng, policyRequest())
	second := mustPolicy(t, eng, policyRequest())
	assert.Equal(t, first.ProposedEventID, second.ProposedEventID)

	changed := policyRequest()
	changed.Proposed.Payload = contract.Object{"step": contract.Int(4)}
	third := mustPolicy(t, eng, changed)
	assert.NotEqual(t, first.ProposedEventID, third.ProposedEventID)
}

func TestPolicyEvaluate_DuplicateKeyIdenticalContent(t *testing.T) {
	eng := NewEngine(DefaultLimits)
	req := policyRequest()
	req.Existing = storedFor(t, proposal(), 1)

	r := mustPolicy(t, eng, req)
	assert.True(t, r.IdempotencyDuplicate)
	assert.False(t, r.PayloadConflict)
	assert.False(t, r.AppendEligible)
	assert.Equal(t, req.Existing.EventID, r.ExistingEventID)
	assert.Equal(t, req.Existing.EventID, r.ProposedEventID)
}

func TestPolicyEvaluate_SameKeyDifferentPayloadIsConflict(t *testing.T) {
	eng := NewEngine(DefaultLimits)
	prior := proposal()
	prior.Payload = contract.Object{"step": contract.Int(2)}

	req := policyRequest()
	req.Existing = storedFor(t, prior, 1)

	r := mustPolicy(t, eng, req)
	assert.True(t, r.PayloadConflict)
	assert.False(t, r.IdempotencyDuplicate)
	assert.False(t, r.AppendEligible)
}

func TestPolicyEvaluate_SameKeyDifferentEventTypeIsConflict(t *testing.T) {
	eng := NewEngine(DefaultLimits)
	prior := proposal()
	prior.EventType = "step_failed"

	req := policyRequest()
	req.Existing = storedFor(t, prior, 1)

	r := mustPolicy(t, eng, req)
	assert.True(t, r.PayloadConflict, "identical payload under a different event type is still a conflicting write")
}

func TestPolicyEvaluate_HardViolationsPreemptIdempotency(t *testing.T) {
	eng := NewEngine(DefaultLimits)

	req := policyRequest()
	req.SubmittedEventID = "deadbeef"
	req.Existing = storedFor(t, proposal(), 1)
	r := mustPolicy(t, eng, req)
	assert.True(t, r.AppendOnlyViolation)
	assert.False(t, r.IdempotencyDuplicate, "hard denial must not leak the idempotency outcome")
	assert.False(t, r.PayloadConflict)

	req = policyRequest()
	req.LedgerTenantID = "tenant-b"
	req.Existing = storedFor(t, proposal(), 1)
	r = mustPolicy(t, eng, req)
	assert.True(t, r.TenantScopeMismatch)
	assert.False(t, r.IdempotencyDuplicate)
}

func TestPolicyEvaluate_ExistingKeyMismatchRefused(t *testing.T) {
	eng := NewEngine(DefaultLimits)
	prior := proposal()
	prior.IdempotencyKey = "some-other-key"

	req := policyRequest()
	req.Existing = storedFor(t, prior, 1)

	resp := eng.Run(req)
	refused, ok := resp.(*Refused)
	require.True(t, ok)
	assert.Equal(t, contract.ReasonInputSchemaInvalid, refused.Reason.Class)
}

func TestPolicyEvaluate_NilPayloadRefused(t *testing.T) {
	eng := NewEngine(DefaultLimits)
	req := policyRequest()
	req.Proposed.Payload = nil

	resp := eng.Run(req)
	_, ok := resp.(*Refused)
	require.True(t, ok)
}

func TestDecision_Mapping(t *testing.T) {
	eng := NewEngine(DefaultLimits)

	d := mustDecision(t, eng, mustPolicy(t, eng, policyRequest()))
	assert.Equal(t, ActionAppended, d.Action)
	assert.NotEmpty(t, d.EventID)
	assert.Nil(t, d.DenialReason)

	req := policyRequest()
	req.Existing = storedFor(t, proposal(), 1)
	d = mustDecision(t, eng, mustPolicy(t, eng, req))
	assert.Equal(t, ActionDuplicateNoOp, d.Action)
	assert.Equal(t, req.Existing.EventID, d.EventID)

	req = policyRequest()
	prior := proposal()
	prior.Payload = contract.Object{"step": contract.Int(9)}
	req.Existing = storedFor(t, prior, 1)
	d = mustDecision(t, eng, mustPolicy(t, eng, req))
	assert.Equal(t, ActionDenied, d.Action)
	assert.Empty(t, d.EventID)
	require.NotNil(t, d.DenialReason)
	assert.Equal(t, contract.ReasonValidationFailed, d.DenialReason.Class)

	req = policyRequest()
	req.SubmittedEventID = "deadbeef"
	d = mustDecision(t, eng, mustPolicy(t, eng, req))
	assert.Equal(t, ActionDenied, d.Action)
	require.NotNil(t, d.DenialReason)
	assert.Equal(t, contract.ReasonValidationFailed, d.DenialReason.Class)

	req = policyRequest()
	req.LedgerTenantID = "tenant-b"
	d = mustDecision(t, eng, mustPolicy(t, eng, req))
	assert.Equal(t, ActionDenied, d.Action)
	require.NotNil(t, d.DenialReason)
	assert.Equal(t, contract.ReasonNotAuthorized, d.DenialReason.Class)
}

func TestNewPolicyReport_ConflictMergeUnconstructible(t *testing.T) {
	eng := NewEngine(DefaultLimits)
	r := mustPolicy(t, eng, policyRequest())

	bad := r
	bad.NoSilentConflictMerge = false
	_, err := NewPolicyReport(bad)
	require.Error(t, err)

	bad = r
	bad.IdempotencyDuplicate = true
	bad.PayloadConflict = true
	bad.ExistingEventID = "x"
	bad.AppendEligible = false
	_, err = NewPolicyReport(bad)
	require.Error(t, err, "duplicate and conflict cannot both hold")
}

func TestDecisionCompute_RejectsTamperedPolicy(t *testing.T) {
	eng := NewEngine(DefaultLimits)
	policy := mustPolicy(t, eng, policyRequest())
	policy.AppendEligible = false // no flag explains the ineligibility

	resp := eng.Run(&DecisionComputeRequest{Envelope: validEnvelope(), Policy: policy})
	refused, ok := resp.(*Refused)
	require.True(t, ok)
	assert.Equal(t, contract.ReasonInputSchemaInvalid, refused.Reason.Class)
}
