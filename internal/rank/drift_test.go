package rank

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/halcyonlabs/halcyon/internal/contract"
)

const driftScope = "tenant-a"

func TestValidateDrift_CleanPipelineReportsOk(t *testing.T) {
	p := plainPolicy(10)
	res, err := Rank([]contract.Candidate{
		cand("a", 90), cand("b", 70), cand("c", 50),
	}, 10, p)
	require.NoError(t, err)

	items := make([]contract.Candidate, len(res.Items))
	for i, s := range res.Items {
		items[i] = s.Candidate
	}
	report := ValidateDrift(Assertion{Selected: res.Selected, Items: items}, p, driftScope, 8)
	assert.Equal(t, StatusOk, report.Status)
	assert.Empty(t, report.Diagnostics)
}

func TestValidateDrift_SelectedNotFirst(t *testing.T) {
	report := ValidateDrift(Assertion{
		Selected: cand("b", 70),
		Items:    []contract.Candidate{cand("a", 90), cand("b", 70)},
	}, plainPolicy(10), driftScope, 8)
	assert.Equal(t, StatusFail, report.Status)
	assert.Contains(t, report.Diagnostics, DiagSelectedNotFirst)
}

func TestValidateDrift_SelectedAbsent(t *testing.T) {
	report := ValidateDrift(Assertion{
		Selected: cand("ghost", 99),
		Items:    []contract.Candidate{cand("a", 90)},
	}, plainPolicy(10), driftScope, 8)
	assert.Contains(t, report.Diagnostics, DiagSelectedNotFirst)
	assert.Contains(t, report.Diagnostics, DiagSelectedAbsent)
}

func TestValidateDrift_NotSortedDescending(t *testing.T) {
	report := ValidateDrift(Assertion{
		Selected: cand("a", 40),
		Items:    []contract.Candidate{cand("a", 40), cand("b", 90)},
	}, plainPolicy(10), driftScope, 8)
	assert.Contains(t, report.Diagnostics, DiagNotSortedDescending)
}

func TestValidateDrift_DuplicateIdentifier(t *testing.T) {
	report := ValidateDrift(Assertion{
		Selected: cand("a", 90),
		Items:    []contract.Candidate{cand("a", 90), cand("a", 90)},
	}, plainPolicy(10), driftScope, 8)
	assert.Contains(t, report.Diagnostics, DiagDuplicateIdentifier)
}

func TestValidateDrift_ScopeMismatch(t *testing.T) {
	foreign := cand("a", 90)
	foreign.Scope = "tenant-z"
	report := ValidateDrift(Assertion{
		Selected: foreign,
		Items:    []contract.Candidate{foreign},
	}, plainPolicy(10), driftScope, 8)
	assert.Contains(t, report.Diagnostics, DiagScopeMismatch)
}

func TestValidateDrift_MissingEvidence(t *testing.T) {
	fact := contract.Candidate{ID: "f1", Scope: driftScope, Kind: contract.KindFact, Confidence: 60}
	report := ValidateDrift(Assertion{
		Selected: fact,
		Items:    []contract.Candidate{fact},
	}, plainPolicy(10), driftScope, 8)
	assert.Contains(t, report.Diagnostics, DiagMissingEvidence)
}

func TestValidateDrift_DiagnosticBudgetCaps(t *testing.T) {
	// Construct a list that violates several conditions at once.
	foreign := cand("dup", 10)
	foreign.Scope = "tenant-z"
	report := ValidateDrift(Assertion{
		Selected: cand("ghost", 99),
		Items:    []contract.Candidate{foreign, cand("dup", 90), foreign},
	}, plainPolicy(10), driftScope, 2)
	assert.Equal(t, StatusFail, report.Status)
	assert.Len(t, report.Diagnostics, 2)
}
