package lease

import "fmt"

// PolicyReport is the policy step's Ok record: the boolean lease-state flags
// the decision step consumes. The constructor validates internal consistency,
// so an existing report already proves its flags cohere.
type PolicyReport struct {
	Op             Op    `json:"op"`
	LeaseExists    bool  `json:"lease_exists"`
	LeaseExpired   bool  `json:"lease_expired"`
	OwnerMatch     bool  `json:"owner_match"`
	TokenMatch     bool  `json:"token_match"`
	TTLInBounds    bool  `json:"ttl_in_bounds"`
	GrantEligible  bool  `json:"grant_eligible"`
	RequestedTTLMs int64 `json:"requested_ttl_ms"`
}

func (*PolicyReport) leaseResponse() {}

// NewPolicyReport validates the flag set before it can exist.
//
// Consistency rules:
//   - a non-existent lease cannot be expired, owned, or token-matched;
//   - Acquire eligibility is: no lease, or expired lease, or requester owns it;
//   - Renew eligibility requires owner and token match on a live lease with
//     an in-bounds TTL;
//   - Release eligibility requires owner and token match in any expiry state.
func NewPolicyReport(r PolicyReport) (*PolicyReport, error) {
	if !r.Op.Valid() {
		return nil, fmt.Errorf("unknown op %q", r.Op)
	}
	if !r.LeaseExists && (r.LeaseExpired || r.OwnerMatch || r.TokenMatch) {
		return nil, fmt.Errorf("flags set on non-existent lease")
	}

	var wantEligible bool
	switch r.Op {
	case OpAcquire:
		wantEligible = !r.LeaseExists || r.LeaseExpired || r.OwnerMatch
	case OpRenew:
		wantEligible = r.LeaseExists && r.OwnerMatch && r.TokenMatch && !r.LeaseExpired && r.TTLInBounds
	case OpRelease:
		wantEligible = r.LeaseExists && r.OwnerMatch && r.TokenMatch
	}
	if r.GrantEligible != wantEligible {
		return nil, fmt.Errorf("grant_eligible=%v inconsistent with flags for op %s", r.GrantEligible, r.Op)
	}
	return &r, nil
}

// evaluatePolicy derives the flag set from the request. Pure: the only clock
// it sees is the caller-supplied NowMs.
func evaluatePolicy(req *PolicyEvaluateRequest) (*PolicyReport, error) {
	r := PolicyReport{Op: req.Op, RequestedTTLMs: req.RequestedTTLMs}

	if cur := req.Current; cur != nil {
		r.LeaseExists = true
		r.LeaseExpired = req.NowMs >= cur.ExpiresAtMs
		r.OwnerMatch = cur.OwnerID == req.RequesterID
		r.TokenMatch = cur.Token == req.RequestToken
	}

	switch req.Op {
	case OpAcquire, OpRenew:
		r.TTLInBounds = req.RequestedTTLMs >= MinTTLMs && req.RequestedTTLMs <= MaxTTLMs
	case OpRelease:
		// Release carries no TTL; the flag is vacuously true.
		r.TTLInBounds = true
	}

	switch req.Op {
	case OpAcquire:
		r.GrantEligible = !r.LeaseExists || r.LeaseExpired || r.OwnerMatch
	case OpRenew:
		r.GrantEligible = r.LeaseExists && r.OwnerMatch && r.TokenMatch && !r.LeaseExpired && r.TTLInBounds
	case OpRelease:
		r.GrantEligible = r.LeaseExists && r.OwnerMatch && r.TokenMatch
	}

	return NewPolicyReport(r)
}
