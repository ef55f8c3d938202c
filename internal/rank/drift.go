package rank

import "github.com/halcyonlabs/halcyon/internal/contract"

// Fixed diagnostic strings. Each detected condition appends exactly one of
// these; consumers match on the literal, so the strings never change.
const (
	DiagSelectedNotFirst    = "selected-item-not-first-in-list"
	DiagSelectedAbsent      = "selected-item-absent-from-list"
	DiagNotSortedDescending = "not-sorted-descending"
	DiagDuplicateIdentifier = "duplicate-identifier"
	DiagScopeMismatch       = "scope-mismatch"
	DiagMissingEvidence     = "missing-evidence"
)

// Status is the drift validator's verdict.
type Status string

const (
	StatusOk   Status = "Ok"
	StatusFail Status = "Fail"
)

// Assertion is the caller-asserted outcome of an earlier ranking stage:
// the selected item and the ordered list it supposedly heads.
type Assertion struct {
	Selected contract.Candidate
	Items    []contract.Candidate
}

// Report is the drift validator's output. Status is Ok iff Diagnostics is
// empty; on Fail the owning engine forces its reason code to
// validation-failed.
type Report struct {
	Status      Status
	Diagnostics []string
}

// ValidateDrift independently recomputes the scores the asserted list should
// carry and diffs the assertion against them. It never trusts caller-supplied
// ordering or scores: every check re-derives from the policy.
//
// Detected conditions, in evaluation order:
//   - selected item is not first in the asserted list
//   - selected item is absent from the asserted list
//   - adjacent pair out of descending score order
//   - duplicate identifier in the asserted list
//   - item scope differs from the request scope
//   - missing evidence on a kind that requires it
//
// Diagnostics are capped at diagBudget; detection stops once the budget is
// spent. This gives every multi-stage pipeline a built-in tamper detector
// between producer and consumer stages.
func ValidateDrift(a Assertion, p Policy, expectedScope string, diagBudget int) Report {
	var diags []string
	full := false
	add := func(d string) {
		if len(diags) >= diagBudget {
			full = true
			return
		}
		diags = append(diags, d)
	}

	if len(a.Items) > 0 && a.Items[0].ID != a.Selected.ID {
		add(DiagSelectedNotFirst)
	}

	found := false
	for _, it := range a.Items {
		if it.ID == a.Selected.ID {
			found = true
			break
		}
	}
	if !found {
		add(DiagSelectedAbsent)
	}

	for i := 0; i+1 < len(a.Items) && !full; i++ {
		if p.Score(a.Items[i]) < p.Score(a.Items[i+1]) {
			add(DiagNotSortedDescending)
		}
	}

	seen := make(map[string]bool, len(a.Items))
	for _, it := range a.Items {
		if full {
			break
		}
		if seen[it.ID] {
			add(DiagDuplicateIdentifier)
			continue
		}
		seen[it.ID] = true
	}

	for _, it := range a.Items {
		if full {
			break
		}
		if it.Scope != expectedScope {
			add(DiagScopeMismatch)
		}
	}

	for _, it := range a.Items {
		if full {
			break
		}
		if it.Kind.RequiresEvidence() && it.Evidence == "" {
			add(DiagMissingEvidence)
		}
	}

	status := StatusOk
	if len(diags) > 0 {
		status = StatusFail
	}
	return Report{Status: status, Diagnostics: diags}
}
