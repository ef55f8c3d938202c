package device

import (
	"errors"
	"fmt"
)

// TransitionError represents an error detected while applying an event.
//
// Transition errors include:
//   - Not booted: any event before Boot
//   - Already booted: a second Boot
//   - No devices: Boot with an empty device list and nothing to select
//   - Invalid device: a device record failed validation
type TransitionError struct {
	// Code identifies the error category.
	Code TransitionErrorCode

	// Message is a human-readable description.
	Message string

	// State is the machine state when the event arrived.
	State State

	// DeviceID identifies the offending device, when one is involved.
	DeviceID string
}

// TransitionErrorCode categorizes transition errors.
type TransitionErrorCode string

const (
	// ErrCodeNotBooted indicates an event arrived before Boot.
	ErrCodeNotBooted TransitionErrorCode = "NOT_BOOTED"

	// ErrCodeAlreadyBooted indicates a second Boot event.
	ErrCodeAlreadyBooted TransitionErrorCode = "ALREADY_BOOTED"

	// ErrCodeInvalidDevice indicates a device record failed validation.
	ErrCodeInvalidDevice TransitionErrorCode = "INVALID_DEVICE"
)

// Error implements the error interface.
func (e *TransitionError) Error() string {
	if e.DeviceID != "" {
		return fmt.Sprintf("%s: %s (state=%s, device=%s)", e.Code, e.Message, e.State, e.DeviceID)
	}
	return fmt.Sprintf("%s: %s (state=%s)", e.Code, e.Message, e.State)
}

// IsNotBooted returns true if the error is a not-booted error.
// Uses errors.As to handle wrapped errors.
func IsNotBooted(err error) bool {
	var te *TransitionError
	if errors.As(err, &te) {
		return te.Code == ErrCodeNotBooted
	}
	return false
}
