package cli

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/halcyonlabs/halcyon/internal/harness"
)

// RunResult is the JSON shape for one scenario execution.
type RunResult struct {
	RunID    string               `json:"run_id"`
	Scenario string               `json:"scenario"`
	Pass     bool                 `json:"pass"`
	Trace    []harness.TraceEvent `json:"trace"`
	Errors   []string             `json:"errors,omitempty"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run <scenario.yaml>",
		Short: "Run a conformance scenario",
		Long: `Run a scenario file against the real engines.

Each run gets a fresh in-memory audit store and a deterministic clock, so
the same scenario produces the same trace on every invocation. Exit code 1
means the scenario's expectations or assertions failed.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenario(rootOpts, args[0], cmd)
		},
	}
}

func runScenario(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	scenario, err := harness.LoadScenario(path)
	if err != nil {
		_ = formatter.Error("E_SCENARIO", err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load scenario", err)
	}

	runID := uuid.NewString()
	formatter.VerboseLog("Run %s: scenario %q (%d steps)", runID, scenario.Name, len(scenario.Steps))

	result, err := harness.Run(scenario)
	if err != nil {
		_ = formatter.Error("E_RUN", err.Error(), nil)
		return WrapExitError(ExitCommandError, "scenario execution failed", err)
	}

	if formatter.Format == "json" {
		if err := formatter.Success(RunResult{
			RunID:    runID,
			Scenario: scenario.Name,
			Pass:     result.Pass,
			Trace:    result.Trace,
			Errors:   result.Errors,
		}); err != nil {
			return err
		}
		if !result.Pass {
			return NewExitError(ExitFailure, fmt.Sprintf("scenario %q failed", scenario.Name))
		}
		return nil
	}

	for _, ev := range result.Trace {
		line := fmt.Sprintf("  %3d %-6s %-8s %s", ev.Seq, ev.Engine, ev.Op, ev.Outcome)
		if ev.Action != "" {
			line += " " + ev.Action
		}
		if ev.ReasonID != 0 {
			line += fmt.Sprintf(" (reason %d)", ev.ReasonID)
		}
		fmt.Fprintln(formatter.Writer, line)
	}

	if !result.Pass {
		fmt.Fprintf(formatter.Writer, "✗ %s failed\n", scenario.Name)
		for _, msg := range result.Errors {
			fmt.Fprintf(formatter.Writer, "  %s\n", msg)
		}
		return NewExitError(ExitFailure, fmt.Sprintf("scenario %q failed", scenario.Name))
	}

	fmt.Fprintf(formatter.Writer, "✓ %s passed (%d steps)\n", scenario.Name, len(result.Trace))
	return nil
}
