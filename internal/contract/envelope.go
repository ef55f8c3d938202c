package contract

import "fmt"

// Envelope is the validated wrapper carried by every capability request.
// It holds tracing identifiers plus per-request budget caps. Each cap is
// bounded to an engine-specific [1, N] range; the wiring layer clamps caps to
// the operator ceiling before the envelope is built, so an out-of-range cap
// here means a misbehaving caller, not an over-eager one.
type Envelope struct {
	CorrelationID  CorrelationID `json:"correlation_id"`
	TurnID         TurnID        `json:"turn_id"`
	SchemaVersion  string        `json:"schema_version"`
	MaxCandidates  int           `json:"max_candidates"`
	MaxDiagnostics int           `json:"max_diagnostics"`
}

// EnvelopeLimits holds the engine-specific upper bounds for envelope budgets.
type EnvelopeLimits struct {
	MaxCandidates  int
	MaxDiagnostics int
}

// Validate checks the envelope against the engine's compiled contract version
// and budget bounds. A schema-version mismatch is a hard validation failure,
// never silently coerced.
func (e Envelope) Validate(contractVersion string, limits EnvelopeLimits) error {
	if err := e.CorrelationID.Validate(); err != nil {
		return err
	}
	if err := e.TurnID.Validate(); err != nil {
		return err
	}
	if e.SchemaVersion == "" {
		return &FieldError{Field: "schema_version", Message: "must not be empty"}
	}
	if e.SchemaVersion != contractVersion {
		return &FieldError{
			Field:   "schema_version",
			Message: fmt.Sprintf("got %q, engine contract is %q", e.SchemaVersion, contractVersion),
		}
	}
	if err := checkBudget("max_candidates", e.MaxCandidates, limits.MaxCandidates); err != nil {
		return err
	}
	return checkBudget("max_diagnostics", e.MaxDiagnostics, limits.MaxDiagnostics)
}

func checkBudget(field string, got, max int) error {
	if got < 1 || got > max {
		return &FieldError{Field: field, Message: fmt.Sprintf("must be in [1,%d], got %d", max, got)}
	}
	return nil
}
