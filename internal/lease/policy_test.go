package lease

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

func liveLease() *Record {
	return &Record{WorkOrderID: "wo-1", OwnerID: "owner-a", Token: "tok-a", ExpiresAtMs: 10_000}
}

func policyRequest(op Op) *PolicyEvaluateRequest {
	return &PolicyEvaluateRequest{
		Envelope:       validEnvelope(),
		Op:             op,
		WorkOrderID:    "wo-1",
		RequesterID:    "owner-a",
		RequestToken:   "tok-a",
		RequestedTTLMs: 30_000,
		NowMs:          5_000,
		Current:        liveLease(),
	}
}

func mustPolicy(t *testing.T, eng *Engine, req *PolicyEvaluateRequest) PolicyReport {
	t.Helper()
	resp := eng.Run(req)
	report, ok := resp.(*PolicyReport)
	require.True(t, ok, "expected PolicyReport, got %T: %+v", resp, resp)
	return *report
}

func TestPolicyEvaluate_AcquireNoLease(t *testing.T) {
	eng := NewEngine(DefaultLimits)
	req := policyRequest(OpAcquire)
	req.Current = nil

	r := mustPolicy(t, eng, req)
	assert.False(t, r.LeaseExists)
	assert.False(t, r.LeaseExpired)
	assert.True(t, r.GrantEligible)
}

func TestPolicyEvaluate_AcquireExpiredForeignLease(t *testing.T) {
	eng := NewEngine(DefaultLimits)
	req := policyRequest(OpAcquire)
	req.RequesterID = "owner-b"
	req.RequestToken = "tok-b"
	req.NowMs = 10_000 // now == expires_at counts as expired

	r := mustPolicy(t, eng, req)
	assert.True(t, r.LeaseExists)
	assert.True(t, r.LeaseExpired)
	assert.False(t, r.OwnerMatch)
	assert.False(t, r.TokenMatch)
	assert.True(t, r.GrantEligible, "expired lease is up for takeover")
}

func TestPolicyEvaluate_AcquireLiveForeignLease(t *testing.T) {
	eng := NewEngine(DefaultLimits)
	req := policyRequest(OpAcquire)
	req.RequesterID = "owner-b"
	req.RequestToken = "tok-b"

	r := mustPolicy(t, eng, req)
	assert.True(t, r.LeaseExists)
	assert.False(t, r.LeaseExpired)
	assert.False(t, r.GrantEligible)
}

func TestPolicyEvaluate_AcquireOwnLiveLease(t *testing.T) {
	eng := NewEngine(DefaultLimits)
	r := mustPolicy(t, eng, policyRequest(OpAcquire))
	assert.True(t, r.OwnerMatch)
	assert.True(t, r.GrantEligible, "the holder may re-acquire its own lease")
}

func TestPolicyEvaluate_RenewFlags(t *testing.T) {
	eng := NewEngine(DefaultLimits)

	r := mustPolicy(t, eng, policyRequest(OpRenew))
	assert.True(t, r.GrantEligible)

	req := policyRequest(OpRenew)
	req.RequestToken = "tok-wrong"
	r = mustPolicy(t, eng, req)
	assert.False(t, r.TokenMatch)
	assert.False(t, r.GrantEligible)

	req = policyRequest(OpRenew)
	req.NowMs = 20_000
	r = mustPolicy(t, eng, req)
	assert.True(t, r.LeaseExpired)
	assert.False(t, r.GrantEligible, "expired leases cannot be renewed")
}

func TestPolicyEvaluate_TTLBounds(t *testing.T) {
	eng := NewEngine(DefaultLimits)

	req := policyRequest(OpAcquire)
	req.RequestedTTLMs = MinTTLMs - 1
	r := mustPolicy(t, eng, req)
	assert.False(t, r.TTLInBounds)

	req.RequestedTTLMs = MaxTTLMs
	r = mustPolicy(t, eng, req)
	assert.True(t, r.TTLInBounds)

	// Release carries no TTL; the flag is vacuously true.
	rel := policyRequest(OpRelease)
	rel.RequestedTTLMs = 0
	r = mustPolicy(t, eng, rel)
	assert.True(t, r.TTLInBounds)
}

func TestPolicyEvaluate_IntakeValidation(t *testing.T) {
	eng := NewEngine(DefaultLimits)

	cases := []struct {
		name string
		mut  func(*PolicyEvaluateRequest)
	}{
		{"wrong schema version", func(r *PolicyEvaluateRequest) { r.Envelope.SchemaVersion = "lease/v0" }},
		{"zero correlation id", func(r *PolicyEvaluateRequest) { r.Envelope.CorrelationID = 0 }},
		{"unknown op", func(r *PolicyEvaluateRequest) { r.Op = Op("Steal") }},
		{"empty work order", func(r *PolicyEvaluateRequest) { r.WorkOrderID = "" }},
		{"empty requester", func(r *PolicyEvaluateRequest) { r.RequesterID = "" }},
		{"zero now", func(r *PolicyEvaluateRequest) { r.NowMs = 0 }},
		{"snapshot for other work order", func(r *PolicyEvaluateRequest) { r.Current.WorkOrderID = "wo-2" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := policyRequest(OpAcquire)
			tc.mut(req)
			resp := eng.Run(req)
			refused, ok := resp.(*Refused)
			require.True(t, ok, "expected refusal, got %T", resp)
			assert.Equal(t, contract.ReasonInputSchemaInvalid, refused.Reason.Class)
			assert.Equal(t, CapabilityPolicyEvaluate, refused.CapabilityID)
		})
	}
}

func TestNewPolicyReport_RejectsInconsistentFlags(t *testing.T) {
	_, err := NewPolicyReport(PolicyReport{
		Op:          OpAcquire,
		LeaseExists: false,
		OwnerMatch:  true, // cannot own a lease that does not exist
	})
	require.Error(t, err)

	_, err = NewPolicyReport(PolicyReport{
		Op:            OpRenew,
		LeaseExists:   true,
		OwnerMatch:    false,
		GrantEligible: true, // eligibility contradicts the owner mismatch
	})
	require.Error(t, err)
}
