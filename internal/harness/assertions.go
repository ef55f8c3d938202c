package harness

import (
	"context"
	"fmt"
)

// evaluateAssertion checks one assertion against the trace and the audit
// store. Returns an empty string on success, a failure message otherwise.
func (h *Harness) evaluateAssertion(ctx context.Context, result *Result, a *Assertion) string {
	switch a.Type {
	case AssertTraceContains:
		for _, ev := range result.Trace {
			if matchesTrace(ev, a.Engine, a.Action) {
				return ""
			}
		}
		return fmt.Sprintf("trace_contains: no event with engine=%q action=%q", a.Engine, a.Action)

	case AssertTraceOrder:
		next := 0
		for _, ev := range result.Trace {
			if next < len(a.Actions) && matchesTrace(ev, a.Engine, a.Actions[next]) {
				next++
			}
		}
		if next != len(a.Actions) {
			return fmt.Sprintf("trace_order: expected %v in order, matched only the first %d", a.Actions, next)
		}
		return ""

	case AssertTraceCount:
		count := 0
		for _, ev := range result.Trace {
			if matchesTrace(ev, a.Engine, a.Action) {
				count++
			}
		}
		if count != a.Count {
			return fmt.Sprintf("trace_count: action %q appeared %d times, want %d", a.Action, count, a.Count)
		}
		return ""

	case AssertLedgerState:
		events, err := h.store.ByWorkOrder(ctx, a.WorkOrderID)
		if err != nil {
			return fmt.Sprintf("ledger_state: query failed: %v", err)
		}
		if len(events) != a.Count {
			return fmt.Sprintf("ledger_state: work order %q holds %d events, want %d", a.WorkOrderID, len(events), a.Count)
		}
		return ""
	}
	return fmt.Sprintf("unknown assertion type %q", a.Type)
}

func matchesTrace(ev TraceEvent, engine, action string) bool {
	if engine != "" && ev.Engine != engine {
		return false
	}
	return ev.Action == action
}
