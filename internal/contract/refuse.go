package contract

// Refuse is the uniform failure response shape shared by every engine.
// It always carries a capability identifier, a reason code, and a short ASCII
// message - sufficient to log and to route without inspecting internals.
type Refuse struct {
	CapabilityID string     `json:"capability_id"`
	Reason       ReasonCode `json:"reason"`
	Message      string     `json:"message"`
}

// NewRefuse constructs a validated refusal.
func NewRefuse(capabilityID string, reason ReasonCode, message string) (Refuse, error) {
	if err := CheckIdentifier("capability_id", capabilityID); err != nil {
		return Refuse{}, err
	}
	if err := reason.Validate(); err != nil {
		return Refuse{}, err
	}
	if err := CheckMessage("message", message); err != nil {
		return Refuse{}, err
	}
	return Refuse{CapabilityID: capabilityID, Reason: reason, Message: message}, nil
}

// MustRefuse constructs a refusal from known-valid constants.
// Panics on invalid input; reserved for call sites with literal arguments.
func MustRefuse(capabilityID string, reason ReasonCode, message string) Refuse {
	r, err := NewRefuse(capabilityID, reason, message)
	if err != nil {
		panic(err)
	}
	return r
}
