package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/halcyonlabs/halcyon/internal/profile"
)

// ProfileSummary is the JSON shape for one validated engine profile.
type ProfileSummary struct {
	Name            string `json:"name"`
	Enabled         bool   `json:"enabled"`
	ContractVersion string `json:"contract_version"`
	MaxCandidates   int64  `json:"max_candidates"`
	MaxDiagnostics  int64  `json:"max_diagnostics"`
}

// ValidationResult holds validation results for the validate command.
type ValidationResult struct {
	Valid    bool             `json:"valid"`
	Profiles []ProfileSummary `json:"profiles,omitempty"`
	Error    string           `json:"error,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <profiles.cue>",
		Short: "Validate an engine profile file",
		Long: `Validate a CUE engine profile file without running anything.

Checks that every profile carries an enable flag, a versioned contract
identifier, and in-bounds candidate and diagnostic budgets.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	profiles, err := profile.LoadFile(path)
	if err != nil {
		var pe *profile.ParseError
		if errors.As(err, &pe) {
			_ = formatter.Error("E_PROFILE", pe.Error(), pe.Field)
			return NewExitError(ExitFailure, pe.Error())
		}
		_ = formatter.Error("E_READ", err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to load profiles", err)
	}

	formatter.VerboseLog("Compiled %d profile(s) from %s", len(profiles), path)

	if formatter.Format == "json" {
		result := ValidationResult{Valid: true}
		for _, p := range profiles {
			result.Profiles = append(result.Profiles, ProfileSummary{
				Name:            p.Name,
				Enabled:         p.Enabled,
				ContractVersion: p.ContractVersion,
				MaxCandidates:   p.MaxCandidates,
				MaxDiagnostics:  p.MaxDiagnostics,
			})
		}
		return formatter.Success(result)
	}

	fmt.Fprintf(formatter.Writer, "✓ %d profile(s) valid\n", len(profiles))
	for _, p := range profiles {
		state := "disabled"
		if p.Enabled {
			state = "enabled"
		}
		fmt.Fprintf(formatter.Writer, "  %s (%s, %s, candidates=%d, diagnostics=%d)\n",
			p.Name, p.ContractVersion, state, p.MaxCandidates, p.MaxDiagnostics)
	}
	return nil
}
