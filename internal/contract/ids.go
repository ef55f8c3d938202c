package contract

import "fmt"

// CorrelationID identifies a request chain across engines and turns.
// Opaque positive integer; zero is never valid.
type CorrelationID int64

// TurnID identifies one logical turn within a correlation chain.
// Opaque positive integer; zero is never valid.
type TurnID int64

// Validate reports an error if the correlation ID is not positive.
func (id CorrelationID) Validate() error {
	if id <= 0 {
		return &FieldError{Field: "correlation_id", Message: fmt.Sprintf("must be positive, got %d", id)}
	}
	return nil
}

// Validate reports an error if the turn ID is not positive.
func (id TurnID) Validate() error {
	if id <= 0 {
		return &FieldError{Field: "turn_id", Message: fmt.Sprintf("must be positive, got %d", id)}
	}
	return nil
}

// FieldError describes a single failed field constraint.
// The contract kernel reports the first violation and stops (fail-closed).
type FieldError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}
