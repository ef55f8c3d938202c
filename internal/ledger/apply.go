package ledger

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/halcyonlabs/halcyon/internal/wiring"
)

// Applier drives the full append path: look up the key, run the turn, and
// persist a forwarded Appended decision through the durable collaborator.
// Single-writer: callers serialize Apply per ledger, the same way every
// engine in the kernel assumes one consistent snapshot per call.
type Applier struct {
	Engine *Engine
	Log    AppendLog
	Logger *slog.Logger
}

// ApplyResult pairs the turn outcome with whatever the log now holds for the
// proposal. Stored is set for Appended (the fresh row, seq assigned) and for
// DuplicateNoOp (the pre-existing row); nil otherwise.
type ApplyResult struct {
	Outcome wiring.Outcome[Bundle]
	Stored  *StoredEvent
}

// Apply runs one proposal end to end. Store errors surface to the caller;
// decision outcomes, including denials, do not.
func (a *Applier) Apply(ctx context.Context, cfg wiring.Config, req wiring.Request, proposed Event, ledgerTenantID string) (ApplyResult, error) {
	existing, err := a.Log.ByIdempotencyKey(ctx, proposed.TenantID, proposed.IdempotencyKey)
	if err != nil {
		return ApplyResult{}, fmt.Errorf("idempotency lookup: %w", err)
	}

	out := RunTurn(cfg, a.Engine, req, TurnInput{
		Proposed:       proposed,
		LedgerTenantID: ledgerTenantID,
		Existing:       existing,
	})
	if out.Kind != wiring.OutcomeForwarded {
		return ApplyResult{Outcome: out}, nil
	}

	logger := a.logger().With(
		slog.Int64("correlation_id", int64(req.CorrelationID)),
		slog.String("work_order_id", proposed.WorkOrderID),
		slog.String("action", string(out.Bundle.Decision.Action)),
	)

	switch out.Bundle.Decision.Action {
	case ActionAppended:
		stored, err := a.Log.Append(ctx, StoredEvent{
			Event:       proposed,
			EventID:     out.Bundle.Decision.EventID,
			PayloadHash: out.Bundle.Policy.ProposedPayloadHash,
		})
		if err != nil {
			return ApplyResult{Outcome: out}, fmt.Errorf("append %s: %w", out.Bundle.Decision.EventID, err)
		}
		logger.Debug("event appended", slog.String("event_id", stored.EventID), slog.Int64("seq", stored.Seq))
		return ApplyResult{Outcome: out, Stored: &stored}, nil
	case ActionDuplicateNoOp:
		logger.Debug("duplicate resolved", slog.String("event_id", out.Bundle.Decision.EventID))
		return ApplyResult{Outcome: out, Stored: existing}, nil
	default:
		logger.Debug("append denied")
		return ApplyResult{Outcome: out}, nil
	}
}

func (a *Applier) logger() *slog.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return slog.Default()
}
