package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/halcyonlabs/halcyon/internal/contract"
)

// snapshot builds the canonical serialization of a scenario's trace. Golden
// files hold exactly these bytes, so they can be authored and reviewed by
// hand.
func snapshot(scenarioName string, result *Result) ([]byte, error) {
	trace := make(contract.Array, len(result.Trace))
	for i, ev := range result.Trace {
		trace[i] = ev.toCanonical()
	}
	return contract.MarshalCanonical(contract.Object{
		"scenario_name": contract.String(scenarioName),
		"trace":         trace,
	})
}

// RunWithGolden executes a scenario and compares its trace against
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an already-executed result's trace against the named
// golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	traceJSON, err := snapshot(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, traceJSON)
	return nil
}
