package wiring

import (
	"fmt"

	"github.com/halcyonlabs/halcyon/internal/contract"
)

// Config is the per-engine wiring configuration, constructed once at startup.
// There is no hot reload: a changed ceiling means a new Config and a new
// wiring component.
type Config struct {
	// Enabled gates the whole turn. When false the engine is never called.
	Enabled bool

	// ContractVersion is the engine's compiled schema version; envelopes must
	// match it exactly.
	ContractVersion string

	// MaxCandidates and MaxDiagnostics are the operator-controlled budget
	// ceilings. Requested budgets are clamped to these before the envelope
	// is built.
	MaxCandidates  int
	MaxDiagnostics int
}

// Request carries the caller's identifiers and requested budgets for one turn.
type Request struct {
	CorrelationID  contract.CorrelationID
	TurnID         contract.TurnID
	MaxCandidates  int
	MaxDiagnostics int
}

// Turn describes one engine integration: the two capability calls and the
// contract checks between them. AOut and BOut are the engines' Ok record
// types; Bundle is the cross-validated forwarding record.
//
// CallA and CallB return exactly one of: an Ok record, a refusal to propagate
// verbatim, or an error for a wrong response variant. A wrong variant is a
// defensive check against a misbehaving engine implementation, not a
// normal-path outcome.
type Turn[AOut, BOut, Bundle any] struct {
	// CapabilityID names the turn for refusal routing (e.g. "lease.turn").
	CapabilityID string

	// HasInput reports whether the turn carries meaningful input. False
	// terminates the turn before any engine call.
	HasInput bool

	// CallA invokes the policy/compute capability.
	CallA func(contract.Envelope) (AOut, *contract.Refuse, error)

	// CallB invokes the decision/validate capability. Its request must be
	// built by forwarding A's output fields, never by re-deriving them.
	CallB func(contract.Envelope, AOut) (BOut, *contract.Refuse, error)

	// StatusOK reports whether B's own validation status is Ok.
	StatusOK func(BOut) bool

	// NewBundle constructs the forwarding bundle and validates cross-record
	// invariants. A violation is a construction-time failure: the bundle
	// cannot exist, so it cannot be forwarded.
	NewBundle func(AOut, BOut) (Bundle, error)
}

// Wiring-layer reason codes. Engine-origin refusals pass through untouched;
// these cover failures the wiring layer itself detects.
var (
	ReasonEnvelopeInvalid = contract.MustReasonCode(contract.ReasonBaseWiring+1, contract.ReasonInputSchemaInvalid)
	ReasonWrongVariant    = contract.MustReasonCode(contract.ReasonBaseWiring+2, contract.ReasonInternalPipelineError)
	ReasonStatusNotOk     = contract.MustReasonCode(contract.ReasonBaseWiring+3, contract.ReasonValidationFailed)
	ReasonBundleViolation = contract.MustReasonCode(contract.ReasonBaseWiring+4, contract.ReasonInternalPipelineError)
)

// Run executes one turn through the two-phase protocol.
//
// Step order is fixed: enable gate, input gate, bounded envelope, call A,
// variant gate, call B, variant gate, status gate, bundle construction.
// The first failing gate terminates the turn.
func Run[AOut, BOut, Bundle any](cfg Config, req Request, t Turn[AOut, BOut, Bundle]) Outcome[Bundle] {
	if !cfg.Enabled {
		return notInvokedDisabled[Bundle]()
	}
	if !t.HasInput {
		return notInvokedNoInput[Bundle]()
	}

	env := contract.Envelope{
		CorrelationID:  req.CorrelationID,
		TurnID:         req.TurnID,
		SchemaVersion:  cfg.ContractVersion,
		MaxCandidates:  min(req.MaxCandidates, cfg.MaxCandidates),
		MaxDiagnostics: min(req.MaxDiagnostics, cfg.MaxDiagnostics),
	}
	limits := contract.EnvelopeLimits{MaxCandidates: cfg.MaxCandidates, MaxDiagnostics: cfg.MaxDiagnostics}
	if err := env.Validate(cfg.ContractVersion, limits); err != nil {
		return refuseWith[Bundle](t.CapabilityID, ReasonEnvelopeInvalid, err.Error())
	}

	aOut, aRefuse, err := t.CallA(env)
	if err != nil {
		return refuseWith[Bundle](t.CapabilityID, ReasonWrongVariant, fmt.Sprintf("capability A: %v", err))
	}
	if aRefuse != nil {
		return refused[Bundle](*aRefuse)
	}

	bOut, bRefuse, err := t.CallB(env, aOut)
	if err != nil {
		return refuseWith[Bundle](t.CapabilityID, ReasonWrongVariant, fmt.Sprintf("capability B: %v", err))
	}
	if bRefuse != nil {
		return refused[Bundle](*bRefuse)
	}

	if !t.StatusOK(bOut) {
		return refuseWith[Bundle](t.CapabilityID, ReasonStatusNotOk, "decision step reported validation failure")
	}

	bundle, err := t.NewBundle(aOut, bOut)
	if err != nil {
		return refuseWith[Bundle](t.CapabilityID, ReasonBundleViolation, fmt.Sprintf("bundle invariant: %v", err))
	}
	return forwarded(bundle)
}

func refuseWith[B any](capabilityID string, reason contract.ReasonCode, message string) Outcome[B] {
	r, err := contract.NewRefuse(capabilityID, reason, contract.ClipMessage(message))
	if err != nil {
		// The capability ID failed contract validation. Fall back to a
		// fixed, known-valid refusal rather than panicking in the
		// orchestration path.
		r = contract.MustRefuse("wiring.turn", ReasonBundleViolation, "refusal construction failed")
	}
	return refused[B](r)
}
