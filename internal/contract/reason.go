package contract

import "fmt"

// ReasonClass categorizes a refusal. The taxonomy is closed: engines pick
// reason IDs from their own namespace block but every ID maps to exactly one
// of these classes.
type ReasonClass string

const (
	// ReasonInputSchemaInvalid indicates the request failed intake validation.
	ReasonInputSchemaInvalid ReasonClass = "INPUT_SCHEMA_INVALID"

	// ReasonUpstreamInputMissing indicates the turn carried no usable input
	// (empty candidate list, empty transcript, absent snapshot).
	ReasonUpstreamInputMissing ReasonClass = "UPSTREAM_INPUT_MISSING"

	// ReasonBudgetExceeded indicates a requested budget cap was out of bounds.
	ReasonBudgetExceeded ReasonClass = "BUDGET_EXCEEDED"

	// ReasonNotAuthorized indicates an ownership or token check failed.
	ReasonNotAuthorized ReasonClass = "NOT_AUTHORIZED"

	// ReasonValidationFailed indicates drift detected between pipeline stages.
	ReasonValidationFailed ReasonClass = "VALIDATION_FAILED"

	// ReasonOfflineOnlyRequired indicates the request needs an offline-only path.
	ReasonOfflineOnlyRequired ReasonClass = "OFFLINE_ONLY_REQUIRED"

	// ReasonInternalPipelineError indicates a contract-construction or
	// wrong-variant bug, never a normal-path outcome.
	ReasonInternalPipelineError ReasonClass = "INTERNAL_PIPELINE_ERROR"

	// Domain-specific denial classes.
	ReasonSecretNotFound ReasonClass = "SECRET_NOT_FOUND"
	ReasonTTLOutOfBounds ReasonClass = "TTL_OUT_OF_BOUNDS"
	ReasonRotationFailed ReasonClass = "ROTATION_FAILED"
)

// Valid reports whether the class belongs to the closed taxonomy.
func (c ReasonClass) Valid() bool {
	switch c {
	case ReasonInputSchemaInvalid, ReasonUpstreamInputMissing, ReasonBudgetExceeded,
		ReasonNotAuthorized, ReasonValidationFailed, ReasonOfflineOnlyRequired,
		ReasonInternalPipelineError, ReasonSecretNotFound, ReasonTTLOutOfBounds,
		ReasonRotationFailed:
		return true
	}
	return false
}

// Per-engine reason ID namespace bases. Each engine assigns IDs as base+offset
// so a bare ID in a log line routes to the owning engine without a lookup.
const (
	ReasonBaseWiring   int64 = 100
	ReasonBaseLease    int64 = 1000
	ReasonBaseQuota    int64 = 2000
	ReasonBaseLedger   int64 = 3000
	ReasonBaseDevice   int64 = 4000
	ReasonBasePlayback int64 = 5000
)

// ReasonCode pairs an opaque positive ID with its class. A zero ID signals a
// construction bug, not a domain outcome, so NewReasonCode rejects it.
type ReasonCode struct {
	ID    int64       `json:"id"`
	Class ReasonClass `json:"class"`
}

// NewReasonCode constructs a validated reason code.
func NewReasonCode(id int64, class ReasonClass) (ReasonCode, error) {
	if id <= 0 {
		return ReasonCode{}, &FieldError{Field: "reason_code_id", Message: fmt.Sprintf("must be positive, got %d", id)}
	}
	if !class.Valid() {
		return ReasonCode{}, &FieldError{Field: "reason_class", Message: fmt.Sprintf("unknown class %q", class)}
	}
	return ReasonCode{ID: id, Class: class}, nil
}

// MustReasonCode constructs a reason code from compile-time constants.
// Panics on invalid input; reserved for package-level declarations where an
// invalid code is a programming error caught by any test run.
func MustReasonCode(id int64, class ReasonClass) ReasonCode {
	rc, err := NewReasonCode(id, class)
	if err != nil {
		panic(err)
	}
	return rc
}

// Validate reports an error if the code was built without a constructor.
func (rc ReasonCode) Validate() error {
	if rc.ID <= 0 {
		return &FieldError{Field: "reason_code_id", Message: fmt.Sprintf("must be positive, got %d", rc.ID)}
	}
	if !rc.Class.Valid() {
		return &FieldError{Field: "reason_class", Message: fmt.Sprintf("unknown class %q", rc.Class)}
	}
	return nil
}
