package rank

import (
	"errors"
	"slices"
	"strings"

	"github.com/halcyonlabs/halcyon/internal/contract"
)

// Score clamp bounds. These are policy tuning values carried over from the
// platform's heuristics, not physical constants.
const (
	// BonusMin and BonusMax clamp each individual domain bonus.
	BonusMin int64 = -10
	BonusMax int64 = 15

	// ScoreMin and ScoreMax clamp the final score for percent-scale engines.
	ScoreMin int64 = 0
	ScoreMax int64 = 100

	// BasisPointMin and BasisPointMax clamp the final score for engines that
	// rank on a signed basis-point scale.
	BasisPointMin int64 = -10000
	BasisPointMax int64 = 10000
)

// ErrNoCandidates is returned when ranking leaves nothing to select.
// Engines surface it as an upstream-input-missing refusal.
var ErrNoCandidates = errors.New("no candidates survive ranking")

// Policy parameterizes the generic algorithm for one engine. The algorithm
// itself never changes; engines differ only in their bonus heuristics, their
// configured ceiling, and their score scale.
type Policy struct {
	// Bonuses computes the domain bonuses for a candidate. May be nil for
	// engines that rank on base confidence alone. Each bonus is clamped to
	// [BonusMin, BonusMax] before summing.
	Bonuses func(contract.Candidate) []int64

	// MaxItems is the engine-configured ceiling on surviving items.
	MaxItems int

	// BasisPoints selects the signed basis-point clamp instead of [0,100].
	BasisPoints bool
}

// Scored pairs a candidate with its computed score.
type Scored struct {
	Candidate contract.Candidate
	Score     int64
}

// Result is the outcome of one ranking pass. Items is ordered; Selected is
// always Items[0].Candidate.
type Result struct {
	Selected contract.Candidate
	Items    []Scored
}

// Score computes the scalar score for one candidate under the policy:
// base confidence plus the sum of clamped domain bonuses, with the total
// clamped to the policy's scale.
func (p Policy) Score(c contract.Candidate) int64 {
	score := c.Confidence
	if p.Bonuses != nil {
		for _, b := range p.Bonuses(c) {
			score += clamp(b, BonusMin, BonusMax)
		}
	}
	if p.BasisPoints {
		return clamp(score, BasisPointMin, BasisPointMax)
	}
	return clamp(score, ScoreMin, ScoreMax)
}

// Rank scores, orders, deduplicates, and truncates the candidate list, then
// picks the first survivor as the selected item.
//
// The ordering is total: descending by score, ties broken by ascending
// identifier. Duplicated identifiers keep their first (highest-ranked)
// occurrence. The list is truncated to min(budget, policy ceiling).
func Rank(candidates []contract.Candidate, budget int, p Policy) (Result, error) {
	scored := make([]Scored, 0, len(candidates))
	for _, c := range candidates {
		scored = append(scored, Scored{Candidate: c, Score: p.Score(c)})
	}

	slices.SortStableFunc(scored, func(a, b Scored) int {
		if a.Score != b.Score {
			if a.Score > b.Score {
				return -1
			}
			return 1
		}
		return strings.Compare(a.Candidate.ID, b.Candidate.ID)
	})

	seen := make(map[string]bool, len(scored))
	deduped := scored[:0]
	for _, s := range scored {
		if seen[s.Candidate.ID] {
			continue
		}
		seen[s.Candidate.ID] = true
		deduped = append(deduped, s)
	}

	limit := min(budget, p.MaxItems)
	if limit < 0 {
		limit = 0
	}
	if len(deduped) > limit {
		deduped = deduped[:limit]
	}

	if len(deduped) == 0 {
		return Result{}, ErrNoCandidates
	}
	return Result{Selected: deduped[0].Candidate, Items: deduped}, nil
}

func clamp(v, lo, hi int64) int64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
