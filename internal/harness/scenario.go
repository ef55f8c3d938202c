package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Scenario defines a conformance test scenario: a sequence of engine turns
// with expected outcomes, followed by assertions on the trace and the audit
// store.
type Scenario struct {
	// Name uniquely identifies this scenario; it names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// StartMs is the clock's starting time. Defaults to zero.
	StartMs int64 `yaml:"start_ms,omitempty"`

	// TenantID scopes the scenario's ledger. Defaults to "tenant-a".
	TenantID string `yaml:"tenant_id,omitempty"`

	// ProfilesCUE optionally carries inline CUE engine profiles. When empty
	// the harness uses its built-in defaults (all engines enabled).
	ProfilesCUE string `yaml:"profiles_cue,omitempty"`

	// Steps is the turn sequence.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final trace and store.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step is one scenario step. Exactly one of AdvanceMs, Lease, Quota or
// Ledger must be set.
type Step struct {
	// AdvanceMs moves the deterministic clock forward.
	AdvanceMs int64 `yaml:"advance_ms,omitempty"`

	Lease  *LeaseStep  `yaml:"lease,omitempty"`
	Quota  *QuotaStep  `yaml:"quota,omitempty"`
	Ledger *LedgerStep `yaml:"ledger,omitempty"`

	// Expect optionally validates the step's outcome.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// LeaseStep drives one lease arbitration turn. When Token is empty, renew
// and release use the token the harness recorded at grant time; set it to
// exercise token-mismatch denials.
type LeaseStep struct {
	Op          string `yaml:"op"` // acquire | renew | release
	WorkOrderID string `yaml:"work_order_id"`
	RequesterID string `yaml:"requester_id"`
	TTLMs       int64  `yaml:"ttl_ms,omitempty"`
	Token       string `yaml:"token,omitempty"`
}

// QuotaStep drives one quota admission turn with an explicit usage snapshot.
type QuotaStep struct {
	Kind             string `yaml:"kind"` // capability | tool
	CapabilityID     string `yaml:"capability_id,omitempty"`
	ToolName         string `yaml:"tool_name,omitempty"`
	RequestsInWindow int64  `yaml:"requests_in_window"`
	WindowLimit      int64  `yaml:"window_limit"`
	WindowResetMs    int64  `yaml:"window_reset_ms,omitempty"`
	SpentBudgetUnits int64  `yaml:"spent_budget_units"`
	BudgetLimitUnits int64  `yaml:"budget_limit_units"`
	PolicyBlocked    bool   `yaml:"policy_blocked,omitempty"`
}

// LedgerStep drives one ledger append turn through the audit store.
type LedgerStep struct {
	WorkOrderID    string         `yaml:"work_order_id"`
	TenantID       string         `yaml:"tenant_id,omitempty"` // defaults to the scenario tenant
	EventType      string         `yaml:"event_type"`
	IdempotencyKey string         `yaml:"idempotency_key"`
	Payload        map[string]any `yaml:"payload"`
}

// ExpectClause specifies the expected turn outcome.
type ExpectClause struct {
	// Outcome is the wiring outcome kind (Forwarded, Refused,
	// NotInvokedDisabled, NotInvokedNoInput).
	Outcome string `yaml:"outcome"`

	// Action is the expected decision action for forwarded turns.
	Action string `yaml:"action,omitempty"`
}

// Assertion validates the trace or the audit store after the run.
type Assertion struct {
	// Type specifies the assertion type:
	// - "trace_contains": an event with the engine/action pair exists
	// - "trace_order": actions appear in this relative order
	// - "trace_count": the engine/action pair appears exactly Count times
	// - "ledger_state": the work order holds exactly Count stored events
	Type string `yaml:"type"`

	Engine      string   `yaml:"engine,omitempty"`
	Action      string   `yaml:"action,omitempty"`
	Actions     []string `yaml:"actions,omitempty"`
	Count       int      `yaml:"count,omitempty"`
	WorkOrderID string   `yaml:"work_order_id,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertLedgerState   = "ledger_state"
)

// LoadScenario reads and parses a scenario YAML file. Unknown fields are
// rejected so typos fail loudly instead of silently skipping validation.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML bytes with strict field validation.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(i, &step); err != nil {
			return err
		}
	}
	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}

func validateStep(index int, st *Step) error {
	set := 0
	if st.AdvanceMs != 0 {
		set++
	}
	if st.Lease != nil {
		set++
	}
	if st.Quota != nil {
		set++
	}
	if st.Ledger != nil {
		set++
	}
	if set != 1 {
		return fmt.Errorf("steps[%d]: exactly one of advance_ms, lease, quota, ledger is required", index)
	}
	if st.AdvanceMs < 0 {
		return fmt.Errorf("steps[%d]: advance_ms must be positive", index)
	}
	if st.AdvanceMs != 0 && st.Expect != nil {
		return fmt.Errorf("steps[%d]: advance_ms steps have no outcome to expect", index)
	}

	if l := st.Lease; l != nil {
		switch l.Op {
		case "acquire", "renew", "release":
		default:
			return fmt.Errorf("steps[%d].lease: unknown op %q", index, l.Op)
		}
		if l.WorkOrderID == "" || l.RequesterID == "" {
			return fmt.Errorf("steps[%d].lease: work_order_id and requester_id are required", index)
		}
	}
	if q := st.Quota; q != nil {
		if q.Kind != "capability" && q.Kind != "tool" {
			return fmt.Errorf("steps[%d].quota: unknown kind %q", index, q.Kind)
		}
	}
	if l := st.Ledger; l != nil {
		if l.WorkOrderID == "" || l.EventType == "" || l.IdempotencyKey == "" {
			return fmt.Errorf("steps[%d].ledger: work_order_id, event_type and idempotency_key are required", index)
		}
		if l.Payload == nil {
			return fmt.Errorf("steps[%d].ledger: payload is required (use an empty map for payload-free events)", index)
		}
	}
	if st.Expect != nil && st.Expect.Outcome == "" {
		return fmt.Errorf("steps[%d].expect: outcome is required", index)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case AssertTraceContains:
		if a.Action == "" {
			return fmt.Errorf("assertions[%d]: action is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Actions) == 0 {
			return fmt.Errorf("assertions[%d]: actions list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Action == "" {
			return fmt.Errorf("assertions[%d]: action is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertLedgerState:
		if a.WorkOrderID == "" {
			return fmt.Errorf("assertions[%d]: work_order_id is required for ledger_state", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for ledger_state", index)
		}
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
