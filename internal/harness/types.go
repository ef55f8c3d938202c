package harness

import "github.com/halcyonlabs/halcyon/internal/contract"

// TraceEvent is one recorded step outcome. Optional fields stay nil/zero and
// are omitted from the canonical serialization, so traces carry only what the
// step actually produced.
type TraceEvent struct {
	Seq     int64  `json:"seq"`
	Engine  string `json:"engine"` // lease | quota | ledger | clock
	Op      string `json:"op"`
	Outcome string `json:"outcome,omitempty"`
	Action  string `json:"action,omitempty"`

	// ReasonID carries the refusal or denial reason, when one applies.
	ReasonID int64 `json:"reason_id,omitempty"`

	// NowMs is set on clock advances.
	NowMs *int64 `json:"now_ms,omitempty"`

	// ExpiresAtMs is set on lease grants.
	ExpiresAtMs *int64 `json:"expires_at_ms,omitempty"`

	// Resume is set on lease grants that require ledger resume.
	Resume bool `json:"resume,omitempty"`

	// WaitMs is set on quota Wait decisions.
	WaitMs *int64 `json:"wait_ms,omitempty"`

	// EventSeq is set on ledger Appended/DuplicateNoOp decisions.
	EventSeq *int64 `json:"event_seq,omitempty"`
}

// toCanonical converts the event to a contract object for canonical JSON
// serialization.
func (e TraceEvent) toCanonical() contract.Object {
	obj := contract.Object{
		"seq":    contract.Int(e.Seq),
		"engine": contract.String(e.Engine),
		"op":     contract.String(e.Op),
	}
	if e.Outcome != "" {
		obj["outcome"] = contract.String(e.Outcome)
	}
	if e.Action != "" {
		obj["action"] = contract.String(e.Action)
	}
	if e.ReasonID != 0 {
		obj["reason_id"] = contract.Int(e.ReasonID)
	}
	if e.NowMs != nil {
		obj["now_ms"] = contract.Int(*e.NowMs)
	}
	if e.ExpiresAtMs != nil {
		obj["expires_at_ms"] = contract.Int(*e.ExpiresAtMs)
	}
	if e.Resume {
		obj["resume"] = contract.Bool(true)
	}
	if e.WaitMs != nil {
		obj["wait_ms"] = contract.Int(*e.WaitMs)
	}
	if e.EventSeq != nil {
		obj["event_seq"] = contract.Int(*e.EventSeq)
	}
	return obj
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true when every expect clause and assertion held.
	Pass bool `json:"pass"`

	// Trace contains one event per step, in execution order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains expect/assertion failures. Empty when Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a passing result to accumulate into.
func NewResult() *Result {
	return &Result{Pass: true, Trace: []TraceEvent{}, Errors: []string{}}
}

// AddError records a validation failure and marks the result failed.
func (r *Result) AddError(msg string) {
	r.Errors = append(r.Errors, msg)
	r.Pass = false
}
