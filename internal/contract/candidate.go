package contract

import "fmt"

// CandidateKind names the scoreable unit families engines produce.
type CandidateKind string

const (
	KindFact            CandidateKind = "fact"
	KindSignal          CandidateKind = "signal"
	KindRecommendation  CandidateKind = "recommendation"
	KindDictionaryEntry CandidateKind = "dictionary_entry"
	KindProposal        CandidateKind = "proposal"
)

// Valid reports whether the kind belongs to the closed set.
func (k CandidateKind) Valid() bool {
	switch k {
	case KindFact, KindSignal, KindRecommendation, KindDictionaryEntry, KindProposal:
		return true
	}
	return false
}

// RequiresEvidence reports whether candidates of this kind must carry an
// evidence reference. Facts and proposals assert something checkable and so
// must point at the record that backs them; the remaining kinds are advisory.
func (k CandidateKind) RequiresEvidence() bool {
	return k == KindFact || k == KindProposal
}

// Confidence bounds for candidates. Confidence is an integer score, never a
// float, so ordering is exact and reproducible.
const (
	MinConfidence int64 = 0
	MaxConfidence int64 = 100
)

// Candidate is a scoreable unit (fact, signal, recommendation, dictionary
// entry, proposal). Candidates are constructed by capability A from raw input,
// carried opaquely through the wiring layer, and re-validated - never
// recomputed - by capability B.
type Candidate struct {
	ID         string        `json:"id"`
	Scope      string        `json:"scope"`
	Kind       CandidateKind `json:"kind"`
	Confidence int64         `json:"confidence"`
	Evidence   string        `json:"evidence,omitempty"`
}

// Validate checks all field constraints on the candidate.
func (c Candidate) Validate() error {
	if err := CheckIdentifier("candidate_id", c.ID); err != nil {
		return err
	}
	if err := CheckIdentifier("scope", c.Scope); err != nil {
		return err
	}
	if !c.Kind.Valid() {
		return &FieldError{Field: "kind", Message: fmt.Sprintf("unknown candidate kind %q", c.Kind)}
	}
	if c.Confidence < MinConfidence || c.Confidence > MaxConfidence {
		return &FieldError{
			Field:   "confidence",
			Message: fmt.Sprintf("must be in [%d,%d], got %d", MinConfidence, MaxConfidence, c.Confidence),
		}
	}
	if c.Kind.RequiresEvidence() && c.Evidence == "" {
		return &FieldError{Field: "evidence", Message: fmt.Sprintf("required for kind %q", c.Kind)}
	}
	if c.Evidence != "" {
		if err := CheckIdentifier("evidence", c.Evidence); err != nil {
			return err
		}
	}
	return nil
}
