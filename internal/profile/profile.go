package profile

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"

	"github.com/halcyonlabs/halcyon/internal/wiring"
)

// BudgetCeiling is the absolute upper bound on any profile's candidate or
// diagnostic budget. Requests clamp to the profile; profiles clamp here.
const BudgetCeiling int64 = 1024

// EngineProfile is one engine's compiled configuration.
type EngineProfile struct {
	Name            string
	Enabled         bool
	ContractVersion string
	MaxCandidates   int64
	MaxDiagnostics  int64
}

// WiringConfig converts the profile to the wiring layer's per-engine config.
func (p EngineProfile) WiringConfig() wiring.Config {
	return wiring.Config{
		Enabled:         p.Enabled,
		ContractVersion: p.ContractVersion,
		MaxCandidates:   int(p.MaxCandidates),
		MaxDiagnostics:  int(p.MaxDiagnostics),
	}
}

// LoadFile compiles engine profiles from a CUE file on disk.
func LoadFile(path string) ([]EngineProfile, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profiles: %w", err)
	}
	return LoadString(string(src))
}

// LoadString compiles engine profiles from CUE source. The source must carry
// a top-level `profiles` struct keyed by engine name:
//
//	profiles: {
//		lease: {
//			enabled:          true
//			contract_version: "lease/v1"
//			max_candidates:   16
//			max_diagnostics:  8
//		}
//	}
func LoadString(src string) ([]EngineProfile, error) {
	ctx := cuecontext.New()
	v := ctx.CompileString(src)
	return CompileProfiles(v.LookupPath(cue.ParsePath("profiles")))
}

// CompileProfiles parses a CUE value into validated engine profiles.
// Uses CUE SDK's Go API directly (not CLI subprocess). Profiles are returned
// sorted by name so downstream wiring is order-independent of the source.
func CompileProfiles(v cue.Value) ([]EngineProfile, error) {
	if !v.Exists() {
		return nil, &ParseError{
			Field:   "profiles",
			Message: "profiles struct is required",
		}
	}
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	iter, err := v.Fields()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var profiles []EngineProfile
	for iter.Next() {
		p, err := compileProfile(iter.Label(), iter.Value())
		if err != nil {
			return nil, err
		}
		profiles = append(profiles, p)
	}

	if len(profiles) == 0 {
		return nil, &ParseError{
			Field:   "profiles",
			Message: "at least one engine profile is required",
			Pos:     v.Pos(),
		}
	}

	slices.SortFunc(profiles, func(a, b EngineProfile) int {
		return strings.Compare(a.Name, b.Name)
	})
	return profiles, nil
}

func compileProfile(name string, v cue.Value) (EngineProfile, error) {
	p := EngineProfile{Name: name}

	enabledVal := v.LookupPath(cue.ParsePath("enabled"))
	if !enabledVal.Exists() {
		return p, &ParseError{
			Field:   fmt.Sprintf("profiles.%s.enabled", name),
			Message: "enabled is required",
			Pos:     v.Pos(),
		}
	}
	enabled, err := enabledVal.Bool()
	if err != nil {
		return p, formatCUEError(err)
	}
	p.Enabled = enabled

	versionVal := v.LookupPath(cue.ParsePath("contract_version"))
	if !versionVal.Exists() {
		return p, &ParseError{
			Field:   fmt.Sprintf("profiles.%s.contract_version", name),
			Message: "contract_version is required",
			Pos:     v.Pos(),
		}
	}
	version, err := versionVal.String()
	if err != nil {
		return p, formatCUEError(err)
	}
	if !strings.Contains(version, "/") {
		return p, &ParseError{
			Field:   fmt.Sprintf("profiles.%s.contract_version", name),
			Message: fmt.Sprintf("must be of the form name/vN, got %q", version),
			Pos:     versionVal.Pos(),
		}
	}
	p.ContractVersion = version

	p.MaxCandidates, err = extractBudget(v, name, "max_candidates")
	if err != nil {
		return p, err
	}
	p.MaxDiagnostics, err = extractBudget(v, name, "max_diagnostics")
	if err != nil {
		return p, err
	}

	return p, nil
}

// extractBudget reads one positive integer budget. Floats are forbidden in
// budgets the same way they are forbidden in payload values.
func extractBudget(v cue.Value, name, field string) (int64, error) {
	fieldPath := fmt.Sprintf("profiles.%s.%s", name, field)

	budgetVal := v.LookupPath(cue.ParsePath(field))
	if !budgetVal.Exists() {
		return 0, &ParseError{
			Field:   fieldPath,
			Message: fmt.Sprintf("%s is required", field),
			Pos:     v.Pos(),
		}
	}
	if budgetVal.IncompleteKind() != cue.IntKind {
		return 0, &ParseError{
			Field:   fieldPath,
			Message: fmt.Sprintf("must be an integer, got %v", budgetVal.IncompleteKind()),
			Pos:     budgetVal.Pos(),
		}
	}

	budget, err := budgetVal.Int64()
	if err != nil {
		return 0, formatCUEError(err)
	}
	if budget < 1 || budget > BudgetCeiling {
		return 0, &ParseError{
			Field:   fieldPath,
			Message: fmt.Sprintf("must be in [1, %d], got %d", BudgetCeiling, budget),
			Pos:     budgetVal.Pos(),
		}
	}
	return budget, nil
}

// ParseError represents a profile error with source position.
type ParseError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *ParseError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := errors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	firstErr := errs[0]
	positions := errors.Positions(firstErr)
	if len(positions) > 0 {
		return &ParseError{
			Field:   "cue",
			Message: firstErr.Error(),
			Pos:     positions[0],
		}
	}

	return err
}
