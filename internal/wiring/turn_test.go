package wiring

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halcyonlabs/halcyon/internal/contract"
)

type fakeAOut struct {
	Eligible bool
}

type fakeBOut struct {
	Granted  bool
	StatusOK bool
}

type fakeBundle struct {
	A fakeAOut
	B fakeBOut
}

func testConfig() Config {
	return Config{
		Enabled:         true,
		ContractVersion: "fake/v1",
		MaxCandidates:   20,
		MaxDiagnostics:  8,
	}
}

func testRequest() Request {
	return Request{CorrelationID: 11, TurnID: 1, MaxCandidates: 10, MaxDiagnostics: 4}
}

// happyTurn returns a turn whose two calls succeed and record how they were
// invoked.
func happyTurn(calls *[]contract.Envelope) Turn[fakeAOut, fakeBOut, fakeBundle] {
	return Turn[fakeAOut, fakeBOut, fakeBundle]{
		CapabilityID: "fake.turn",
		HasInput:     true,
		CallA: func(env contract.Envelope) (fakeAOut, *contract.Refuse, error) {
			*calls = append(*calls, env)
			return fakeAOut{Eligible: true}, nil, nil
		},
		CallB: func(env contract.Envelope, a fakeAOut) (fakeBOut, *contract.Refuse, error) {
			*calls = append(*calls, env)
			return fakeBOut{Granted: a.Eligible, StatusOK: true}, nil, nil
		},
		StatusOK: func(b fakeBOut) bool { return b.StatusOK },
		NewBundle: func(a fakeAOut, b fakeBOut) (fakeBundle, error) {
			if b.Granted && !a.Eligible {
				return fakeBundle{}, errors.New("granted without eligibility")
			}
			return fakeBundle{A: a, B: b}, nil
		},
	}
}

func TestRun_DisabledNeverCallsEngine(t *testing.T) {
	var calls []contract.Envelope
	cfg := testConfig()
	cfg.Enabled = false

	out := Run(cfg, testRequest(), happyTurn(&calls))
	assert.Equal(t, OutcomeNotInvokedDisabled, out.Kind)
	assert.Empty(t, calls)
}

func TestRun_NoInputNeverCallsEngine(t *testing.T) {
	var calls []contract.Envelope
	turn := happyTurn(&calls)
	turn.HasInput = false

	out := Run(testConfig(), testRequest(), turn)
	assert.Equal(t, OutcomeNotInvokedNoInput, out.Kind)
	assert.Empty(t, calls)
}

func TestRun_ClampsRequestedBudgets(t *testing.T) {
	var calls []contract.Envelope
	req := testRequest()
	req.MaxCandidates = 100 // above the configured ceiling of 20
	req.MaxDiagnostics = 3  // below the ceiling, passes through

	out := Run(testConfig(), req, happyTurn(&calls))
	require.Equal(t, OutcomeForwarded, out.Kind)
	require.Len(t, calls, 2)
	assert.Equal(t, 20, calls[0].MaxCandidates)
	assert.Equal(t, 3, calls[0].MaxDiagnostics)
	assert.Equal(t, calls[0], calls[1], "both capabilities see the same bounded envelope")
}

func TestRun_InvalidRequestedBudgetRefuses(t *testing.T) {
	var calls []contract.Envelope
	req := testRequest()
	req.MaxCandidates = 0

	out := Run(testConfig(), req, happyTurn(&calls))
	require.Equal(t, OutcomeRefused, out.Kind)
	assert.Equal(t, contract.ReasonInputSchemaInvalid, out.Refusal.Reason.Class)
	assert.Empty(t, calls, "invalid envelopes never reach the engine")
}

func TestRun_CapabilityARefusePropagatesVerbatim(t *testing.T) {
	var calls []contract.Envelope
	turn := happyTurn(&calls)
	engineRefuse := contract.MustRefuse("fake.policy_evaluate",
		contract.MustReasonCode(999, contract.ReasonNotAuthorized), "denied upstream")
	turn.CallA = func(contract.Envelope) (fakeAOut, *contract.Refuse, error) {
		return fakeAOut{}, &engineRefuse, nil
	}

	out := Run(testConfig(), testRequest(), turn)
	require.Equal(t, OutcomeRefused, out.Kind)
	assert.Equal(t, engineRefuse, *out.Refusal)
}

func TestRun_WrongVariantSynthesizesPipelineError(t *testing.T) {
	var calls []contract.Envelope
	turn := happyTurn(&calls)
	turn.CallA = func(contract.Envelope) (fakeAOut, *contract.Refuse, error) {
		return fakeAOut{}, nil, errors.New("unexpected response variant")
	}

	out := Run(testConfig(), testRequest(), turn)
	require.Equal(t, OutcomeRefused, out.Kind)
	assert.Equal(t, contract.ReasonInternalPipelineError, out.Refusal.Reason.Class)
	assert.Equal(t, "fake.turn", out.Refusal.CapabilityID)
}

func TestRun_CapabilityBRefuseStopsTurn(t *testing.T) {
	var calls []contract.Envelope
	turn := happyTurn(&calls)
	engineRefuse := contract.MustRefuse("fake.decision_compute",
		contract.MustReasonCode(998, contract.ReasonBudgetExceeded), "budget spent")
	turn.CallB = func(contract.Envelope, fakeAOut) (fakeBOut, *contract.Refuse, error) {
		return fakeBOut{}, &engineRefuse, nil
	}

	out := Run(testConfig(), testRequest(), turn)
	require.Equal(t, OutcomeRefused, out.Kind)
	assert.Equal(t, engineRefuse, *out.Refusal)
}

func TestRun_StatusNotOkRefusesValidationFailed(t *testing.T) {
	var calls []contract.Envelope
	turn := happyTurn(&calls)
	turn.CallB = func(env contract.Envelope, a fakeAOut) (fakeBOut, *contract.Refuse, error) {
		return fakeBOut{Granted: false, StatusOK: false}, nil, nil
	}

	out := Run(testConfig(), testRequest(), turn)
	require.Equal(t, OutcomeRefused, out.Kind)
	assert.Equal(t, contract.ReasonValidationFailed, out.Refusal.Reason.Class)
}

func TestRun_BundleInvariantViolationCannotForward(t *testing.T) {
	var calls []contract.Envelope
	turn := happyTurn(&calls)
	turn.CallA = func(env contract.Envelope) (fakeAOut, *contract.Refuse, error) {
		calls = append(calls, env)
		return fakeAOut{Eligible: false}, nil, nil
	}
	turn.CallB = func(env contract.Envelope, a fakeAOut) (fakeBOut, *contract.Refuse, error) {
		// Misbehaving engine: grants despite ineligibility.
		return fakeBOut{Granted: true, StatusOK: true}, nil, nil
	}

	out := Run(testConfig(), testRequest(), turn)
	require.Equal(t, OutcomeRefused, out.Kind)
	assert.Equal(t, contract.ReasonInternalPipelineError, out.Refusal.Reason.Class)
}

func TestRun_HappyPathForwardsBundle(t *testing.T) {
	var calls []contract.Envelope
	out := Run(testConfig(), testRequest(), happyTurn(&calls))
	require.Equal(t, OutcomeForwarded, out.Kind)
	assert.Nil(t, out.Refusal)
	assert.True(t, out.Bundle.A.Eligible)
	assert.True(t, out.Bundle.B.Granted)
}

func TestClipMessage(t *testing.T) {
	assert.Equal(t, "unspecified failure", contract.ClipMessage(""))
	assert.Equal(t, "a?b", contract.ClipMessage("a\nb"))
	long := contract.ClipMessage(string(make([]byte, 1000)))
	assert.LessOrEqual(t, len(long), contract.MaxMessageLen)
}
