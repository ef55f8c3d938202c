package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/halcyonlabs/halcyon/internal/auditstore"
	"github.com/halcyonlabs/halcyon/internal/contract"
	"github.com/halcyonlabs/halcyon/internal/ledger"
	"github.com/halcyonlabs/halcyon/internal/lease"
	"github.com/halcyonlabs/halcyon/internal/profile"
	"github.com/halcyonlabs/halcyon/internal/quota"
	"github.com/halcyonlabs/halcyon/internal/testutil"
	"github.com/halcyonlabs/halcyon/internal/wiring"
)

// defaultProfilesCUE enables all three engines with the standard budgets.
// Scenarios override it via profiles_cue.
const defaultProfilesCUE = `
profiles: {
	lease: {
		enabled:          true
		contract_version: "lease/v1"
		max_candidates:   16
		max_diagnostics:  8
	}
	quota: {
		enabled:          true
		contract_version: "quota/v1"
		max_candidates:   16
		max_diagnostics:  8
	}
	ledger: {
		enabled:          true
		contract_version: "ledger/v1"
		max_candidates:   16
		max_diagnostics:  8
	}
}
`

// defaultTenantID scopes scenario ledgers that don't name a tenant.
const defaultTenantID = "tenant-a"

// Harness executes one scenario against real engines with deterministic
// helpers. Each scenario gets a fresh in-memory audit store.
type Harness struct {
	clock   *testutil.Clock
	tokens  testutil.TokenGenerator
	store   *auditstore.Store
	configs map[string]wiring.Config

	leaseEng *lease.Engine
	quotaEng *quota.Engine
	applier  *ledger.Applier

	// Current lease records by work order, maintained from forwarded
	// decisions. The engines never hold state; the harness plays the role
	// of the serializing caller.
	leases map[string]*lease.Record

	tenantID string
	seq      int64
}

// Run executes a scenario and returns its result.
//
// Execution flow:
//  1. Compile engine profiles (scenario's inline CUE or defaults)
//  2. Open a fresh in-memory audit store
//  3. Execute steps in order, recording one trace event each
//  4. Evaluate assertions against the trace and the store
func Run(scenario *Scenario) (*Result, error) {
	src := scenario.ProfilesCUE
	if src == "" {
		src = defaultProfilesCUE
	}
	profiles, err := profile.LoadString(src)
	if err != nil {
		return nil, fmt.Errorf("compile profiles: %w", err)
	}
	configs := make(map[string]wiring.Config, len(profiles))
	for _, p := range profiles {
		configs[p.Name] = p.WiringConfig()
	}
	for _, name := range []string{"lease", "quota", "ledger"} {
		if _, ok := configs[name]; !ok {
			return nil, fmt.Errorf("profiles: engine %q is not configured", name)
		}
	}

	st, err := auditstore.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	tenantID := scenario.TenantID
	if tenantID == "" {
		tenantID = defaultTenantID
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil)) // quiet in tests
	h := &Harness{
		clock:    testutil.NewClock(scenario.StartMs),
		tokens:   testutil.NewSequenceTokenGenerator("lease"),
		store:    st,
		configs:  configs,
		leaseEng: lease.NewEngine(lease.DefaultLimits),
		quotaEng: quota.NewEngine(quota.DefaultLimits),
		leases:   make(map[string]*lease.Record),
		tenantID: tenantID,
	}
	h.applier = &ledger.Applier{
		Engine: ledger.NewEngine(ledger.DefaultLimits),
		Log:    st,
		Logger: logger,
	}

	ctx := context.Background()
	result := NewResult()
	for i, step := range scenario.Steps {
		if err := h.executeStep(ctx, step, result); err != nil {
			return nil, fmt.Errorf("steps[%d]: %w", i, err)
		}
	}

	for i, assertion := range scenario.Assertions {
		if msg := h.evaluateAssertion(ctx, result, &assertion); msg != "" {
			result.AddError(fmt.Sprintf("assertions[%d]: %s", i, msg))
		}
	}
	return result, nil
}

func (h *Harness) executeStep(ctx context.Context, step Step, result *Result) error {
	h.seq++

	var ev TraceEvent
	var err error
	switch {
	case step.AdvanceMs != 0:
		now := h.clock.Advance(step.AdvanceMs)
		ev = TraceEvent{Seq: h.seq, Engine: "clock", Op: "advance", NowMs: &now}
	case step.Lease != nil:
		ev = h.executeLease(step.Lease)
	case step.Quota != nil:
		ev = h.executeQuota(step.Quota)
	case step.Ledger != nil:
		ev, err = h.executeLedger(ctx, step.Ledger)
		if err != nil {
			return err
		}
	}

	result.Trace = append(result.Trace, ev)
	if step.Expect != nil {
		checkExpect(result, h.seq, step.Expect, ev)
	}
	return nil
}

func (h *Harness) request() wiring.Request {
	return wiring.Request{
		CorrelationID:  1,
		TurnID:         contract.TurnID(h.seq),
		MaxCandidates:  4,
		MaxDiagnostics: 4,
	}
}

func (h *Harness) executeLease(step *LeaseStep) TraceEvent {
	op := map[string]lease.Op{
		"acquire": lease.OpAcquire,
		"renew":   lease.OpRenew,
		"release": lease.OpRelease,
	}[step.Op]

	current := h.leases[step.WorkOrderID]
	token := step.Token
	if token == "" && op != lease.OpAcquire && current != nil {
		token = current.Token
	}

	now := h.clock.NowMs()
	out := lease.RunTurn(h.configs["lease"], h.leaseEng, h.request(), lease.TurnInput{
		Op:             op,
		WorkOrderID:    step.WorkOrderID,
		RequesterID:    step.RequesterID,
		RequestToken:   token,
		RequestedTTLMs: step.TTLMs,
		NowMs:          now,
		Current:        current,
	})

	ev := TraceEvent{Seq: h.seq, Engine: "lease", Op: step.Op, Outcome: string(out.Kind)}
	if out.Kind == wiring.OutcomeRefused {
		ev.ReasonID = out.Refusal.Reason.ID
		return ev
	}
	if out.Kind != wiring.OutcomeForwarded {
		return ev
	}

	decision := out.Bundle.Decision
	ev.Action = string(decision.Action)
	ev.Resume = decision.ResumeFromLedgerRequired
	if decision.DenialReason != nil {
		ev.ReasonID = decision.DenialReason.ID
	}

	// Apply the decision to the harness-held record, the way a serializing
	// caller would.
	switch decision.Action {
	case lease.ActionLeaseGranted:
		expires := now + step.TTLMs
		switch op {
		case lease.OpAcquire:
			h.leases[step.WorkOrderID] = &lease.Record{
				WorkOrderID: step.WorkOrderID,
				OwnerID:     step.RequesterID,
				Token:       h.tokens.Token(),
				ExpiresAtMs: expires,
			}
		case lease.OpRenew:
			current.ExpiresAtMs = expires
		}
		ev.ExpiresAtMs = &expires
	case lease.ActionLeaseReleased:
		delete(h.leases, step.WorkOrderID)
	}
	return ev
}

func (h *Harness) executeQuota(step *QuotaStep) TraceEvent {
	kind := quota.OpKindCapability
	if step.Kind == "tool" {
		kind = quota.OpKindTool
	}

	out := quota.RunTurn(h.configs["quota"], h.quotaEng, h.request(), quota.TurnInput{
		Kind:         kind,
		CapabilityID: step.CapabilityID,
		ToolName:     step.ToolName,
		Usage: quota.UsageSnapshot{
			RequestsInWindow: step.RequestsInWindow,
			WindowLimit:      step.WindowLimit,
			WindowResetMs:    step.WindowResetMs,
			SpentBudgetUnits: step.SpentBudgetUnits,
			BudgetLimitUnits: step.BudgetLimitUnits,
			PolicyBlocked:    step.PolicyBlocked,
		},
	})

	ev := TraceEvent{Seq: h.seq, Engine: "quota", Op: "admit", Outcome: string(out.Kind)}
	if out.Kind == wiring.OutcomeRefused {
		ev.ReasonID = out.Refusal.Reason.ID
		return ev
	}
	if out.Kind != wiring.OutcomeForwarded {
		return ev
	}

	decision := out.Bundle.Decision
	ev.Action = string(decision.Action)
	ev.WaitMs = decision.WaitMs
	if decision.DenialReason != nil {
		ev.ReasonID = decision.DenialReason.ID
	}
	return ev
}

func (h *Harness) executeLedger(ctx context.Context, step *LedgerStep) (TraceEvent, error) {
	tenantID := step.TenantID
	if tenantID == "" {
		tenantID = h.tenantID
	}

	payload, err := convertPayload(step.Payload)
	if err != nil {
		return TraceEvent{}, fmt.Errorf("ledger payload: %w", err)
	}

	res, err := h.applier.Apply(ctx, h.configs["ledger"], h.request(), ledger.Event{
		WorkOrderID:    step.WorkOrderID,
		TenantID:       tenantID,
		EventType:      step.EventType,
		IdempotencyKey: step.IdempotencyKey,
		Payload:        payload,
	}, h.tenantID)
	if err != nil {
		return TraceEvent{}, err
	}

	out := res.Outcome
	ev := TraceEvent{Seq: h.seq, Engine: "ledger", Op: "append", Outcome: string(out.Kind)}
	if out.Kind == wiring.OutcomeRefused {
		ev.ReasonID = out.Refusal.Reason.ID
		return ev, nil
	}
	if out.Kind != wiring.OutcomeForwarded {
		return ev, nil
	}

	decision := out.Bundle.Decision
	ev.Action = string(decision.Action)
	if decision.DenialReason != nil {
		ev.ReasonID = decision.DenialReason.ID
	}
	if res.Stored != nil {
		seq := res.Stored.Seq
		ev.EventSeq = &seq
	}
	return ev, nil
}

// convertPayload converts a YAML map to a contract payload object. Floats
// and nulls are rejected the same way the wire codec rejects them.
func convertPayload(m map[string]any) (contract.Object, error) {
	v, err := contract.ValueFromAny(m)
	if err != nil {
		return nil, err
	}
	obj, ok := v.(contract.Object)
	if !ok {
		return nil, fmt.Errorf("payload must be an object, got %T", v)
	}
	return obj, nil
}

func checkExpect(result *Result, seq int64, expect *ExpectClause, ev TraceEvent) {
	if ev.Outcome != expect.Outcome {
		result.AddError(fmt.Sprintf("step %d: expected outcome %s, got %s", seq, expect.Outcome, ev.Outcome))
	}
	if expect.Action != "" && ev.Action != expect.Action {
		result.AddError(fmt.Sprintf("step %d: expected action %s, got %s", seq, expect.Action, ev.Action))
	}
}
