package ledger

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halcyonlabs/halcyon/internal/contract"
	"github.com/halcyonlabs/halcyon/internal/wiring"
)

// memLog is a minimal in-memory AppendLog for exercising the apply path
// without a database.
type memLog struct {
	events []StoredEvent
}

func (m *memLog) Append(_ context.Context, ev StoredEvent) (StoredEvent, error) {
	for _, have := range m.events {
		if have.TenantID == ev.TenantID && have.IdempotencyKey == ev.IdempotencyKey {
			return StoredEvent{}, fmt.Errorf("idempotency key %q already held", ev.IdempotencyKey)
		}
	}
	ev.Seq = int64(len(m.events) + 1)
	m.events = append(m.events, ev)
	return ev, nil
}

func (m *memLog) ByIdempotencyKey(_ context.Context, tenantID, key string) (*StoredEvent, error) {
	for _, have := range m.events {
		if have.TenantID == tenantID && have.IdempotencyKey == key {
			ev := have
			return &ev, nil
		}
	}
	return nil, nil
}

func applyConfig() wiring.Config {
	return wiring.Config{
		Enabled:         true,
		ContractVersion: ContractVersion,
		MaxCandidates:   16,
		MaxDiagnostics:  8,
	}
}

func applyRequest() wiring.Request {
	return wiring.Request{CorrelationID: 3, TurnID: 1, MaxCandidates: 4, MaxDiagnostics: 4}
}

func TestApply_AppendThenDuplicateThenConflict(t *testing.T) {
	log := &memLog{}
	applier := &Applier{Engine: NewEngine(DefaultLimits), Log: log}

	// First submission appends.
	res, err := applier.Apply(context.Background(), applyConfig(), applyRequest(), proposal(), "tenant-a")
	require.NoError(t, err)
	require.Equal(t, wiring.OutcomeForwarded, res.Outcome.Kind)
	assert.Equal(t, ActionAppended, res.Outcome.Bundle.Decision.Action)
	require.NotNil(t, res.Stored)
	assert.Equal(t, int64(1), res.Stored.Seq)
	firstID := res.Stored.EventID

	// Byte-identical resubmission is a no-op resolving to the same ID.
	res, err = applier.Apply(context.Background(), applyConfig(), applyRequest(), proposal(), "tenant-a")
	require.NoError(t, err)
	assert.Equal(t, ActionDuplicateNoOp, res.Outcome.Bundle.Decision.Action)
	require.NotNil(t, res.Stored)
	assert.Equal(t, firstID, res.Stored.EventID)
	assert.Len(t, log.events, 1)

	// Same key, different content is refused, never merged.
	conflicting := proposal()
	conflicting.Payload = contract.Object{"step": contract.Int(99)}
	res, err = applier.Apply(context.Background(), applyConfig(), applyRequest(), conflicting, "tenant-a")
	require.NoError(t, err)
	assert.Equal(t, ActionDenied, res.Outcome.Bundle.Decision.Action)
	assert.Nil(t, res.Stored)
	assert.Len(t, log.events, 1, "a denied proposal writes nothing")
}

func TestApply_TenantMismatchWritesNothing(t *testing.T) {
	log := &memLog{}
	applier := &Applier{Engine: NewEngine(DefaultLimits), Log: log}

	res, err := applier.Apply(context.Background(), applyConfig(), applyRequest(), proposal(), "tenant-b")
	require.NoError(t, err)
	assert.Equal(t, ActionDenied, res.Outcome.Bundle.Decision.Action)
	assert.Empty(t, log.events)
}

func TestApply_DisabledNeverTouchesTheLog(t *testing.T) {
	log := &memLog{}
	applier := &Applier{Engine: NewEngine(DefaultLimits), Log: log}

	cfg := applyConfig()
	cfg.Enabled = false
	res, err := applier.Apply(context.Background(), cfg, applyRequest(), proposal(), "tenant-a")
	require.NoError(t, err)
	assert.Equal(t, wiring.OutcomeNotInvokedDisabled, res.Outcome.Kind)
	assert.Empty(t, log.events)
}

func TestNewBundle_ForeignEventIDCannotForward(t *testing.T) {
	eng := NewEngine(DefaultLimits)
	policy := mustPolicy(t, eng, policyRequest())

	_, err := NewBundle(policy, Decision{
		Action:                ActionAppended,
		EventID:               "not-the-assigned-id",
		NoSilentConflictMerge: true,
	})
	require.Error(t, err)
}
