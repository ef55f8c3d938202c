package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadTestScenario(t *testing.T, name string) *Scenario {
	t.Helper()
	scenario, err := LoadScenario(filepath.Join("testdata", name+".yaml"))
	require.NoError(t, err)
	return scenario
}

func TestRun_LeaseLifecycle(t *testing.T) {
	scenario := loadTestScenario(t, "lease-lifecycle")

	result, err := RunWithGolden(t, scenario)
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.True(t, result.Pass)
	assert.Empty(t, result.Errors)
	assert.Len(t, result.Trace, 9)

	// The takeover of the expired lease carries the resume marker; the
	// original grant does not.
	assert.False(t, result.Trace[0].Resume)
	assert.True(t, result.Trace[6].Resume)
}

func TestRun_QuotaThrottle(t *testing.T) {
	scenario := loadTestScenario(t, "quota-throttle")

	result, err := RunWithGolden(t, scenario)
	require.NoError(t, err)

	assert.True(t, result.Pass)
	assert.Empty(t, result.Errors)

	// The snapshot's reset hint wins when present; the fallback applies
	// when it is absent.
	require.NotNil(t, result.Trace[1].WaitMs)
	assert.Equal(t, int64(4000), *result.Trace[1].WaitMs)
	require.NotNil(t, result.Trace[2].WaitMs)
	assert.Equal(t, int64(1000), *result.Trace[2].WaitMs)
}

func TestRun_LedgerIdempotency(t *testing.T) {
	scenario := loadTestScenario(t, "ledger-idempotency")

	result, err := RunWithGolden(t, scenario)
	require.NoError(t, err)

	assert.True(t, result.Pass)
	assert.Empty(t, result.Errors)

	// The duplicate retry resolves to the first append's stored event.
	require.NotNil(t, result.Trace[0].EventSeq)
	require.NotNil(t, result.Trace[1].EventSeq)
	assert.Equal(t, *result.Trace[0].EventSeq, *result.Trace[1].EventSeq)

	// Denials never reach the store.
	assert.Nil(t, result.Trace[2].EventSeq)
	assert.Nil(t, result.Trace[3].EventSeq)
}

func TestRun_FailedExpectMarksResultFailed(t *testing.T) {
	scenario := &Scenario{
		Name:        "expect-mismatch",
		Description: "An expect clause that contradicts the engine fails the run",
		Steps: []Step{
			{
				Quota: &QuotaStep{
					Kind:             "capability",
					CapabilityID:     "vision.extract",
					RequestsInWindow: 0,
					WindowLimit:      10,
					SpentBudgetUnits: 0,
					BudgetLimitUnits: 100,
				},
				Expect: &ExpectClause{Outcome: "Forwarded", Action: "Refuse"},
			},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "expected action Refuse")
}

func TestRun_DisabledEngineNeverForwards(t *testing.T) {
	scenario := &Scenario{
		Name:        "disabled-lease",
		Description: "A disabled lease profile yields NotInvokedDisabled for every lease step",
		ProfilesCUE: `
profiles: {
	lease: {
		enabled:          false
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
`,
		Steps: []Step{
			{
				Lease:  &LeaseStep{Op: "acquire", WorkOrderID: "wo-1", RequesterID: "agent-a", TTLMs: 10_000},
				Expect: &ExpectClause{Outcome: "NotInvokedDisabled"},
			},
		},
	}

	result, err := Run(scenario)
	require.NoError(t, err)

	assert.True(t, result.Pass)
	require.Len(t, result.Trace, 1)
	assert.Equal(t, "NotInvokedDisabled", result.Trace[0].Outcome)
	assert.Empty(t, result.Trace[0].Action)
}

func TestRun_MissingEngineProfileFails(t *testing.T) {
	scenario := &Scenario{
		Name:        "missing-profile",
		Description: "Profiles that omit an engine are rejected before any step runs",
		ProfilesCUE: `
profiles: {
	lease: {
		enabled:          true
		contract_version: "lease/v1"
		max_candidates:   16
		max_diagnostics:  8
	}
}
`,
		Steps: []Step{
			{Lease: &LeaseStep{Op: "acquire", WorkOrderID: "wo-1", RequesterID: "agent-a", TTLMs: 10_000}},
		},
	}

	_, err := Run(scenario)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not configured")
}

func TestRun_LedgerTraceIsDeterministic(t *testing.T) {
	scenario := loadTestScenario(t, "ledger-idempotency")

	first, err := Run(scenario)
	require.NoError(t, err)
	second, err := Run(scenario)
	require.NoError(t, err)

	a, err := snapshot(scenario.Name, first)
	require.NoError(t, err)
	b, err := snapshot(scenario.Name, second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}
