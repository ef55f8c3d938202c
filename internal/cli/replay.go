package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/halcyonlabs/halcyon/internal/auditstore"
	"github.com/halcyonlabs/halcyon/internal/contract"
	"github.com/halcyonlabs/halcyon/internal/ledger"
	"github.com/halcyonlabs/halcyon/internal/wiring"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	WorkOrderID string
	TenantID    string
}

// ReplayEvent is the JSON shape for one replayed ledger event.
type ReplayEvent struct {
	Seq            int64  `json:"seq"`
	EventID        string `json:"event_id"`
	WorkOrderID    string `json:"work_order_id"`
	TenantID       string `json:"tenant_id"`
	EventType      string `json:"event_type"`
	IdempotencyKey string `json:"idempotency_key"`
	PayloadHash    string `json:"payload_hash"`
	Converged      bool   `json:"converged"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Events       []ReplayEvent `json:"events"`
	Total        int           `json:"total"`
	AllConverged bool          `json:"all_converged"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay <database>",
		Short: "Replay a stored ledger through the engine",
		Long: `Replay stored ledger events in their durable order and verify
idempotent convergence: re-proposing each event through the ledger engine
must resolve to a duplicate no-op carrying the stored event's identity.

A divergence means the store no longer matches what the engine would
produce from the same content. Scope the replay with --work-order or
--tenant; exactly one is required. Exit code 1 means divergence.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.WorkOrderID, "work-order", "", "replay one work order's events")
	cmd.Flags().StringVar(&opts.TenantID, "tenant", "", "replay one tenant's events")

	return cmd
}

func runReplay(opts *ReplayOptions, dbPath string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if (opts.WorkOrderID == "") == (opts.TenantID == "") {
		msg := "exactly one of --work-order or --tenant is required"
		_ = formatter.Error("E_SCOPE", msg, nil)
		return NewExitError(ExitCommandError, msg)
	}

	store, err := auditstore.Open(dbPath)
	if err != nil {
		_ = formatter.Error("E_STORE", err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open audit store", err)
	}
	defer store.Close()

	ctx := context.Background()
	var events []ledger.StoredEvent
	if opts.WorkOrderID != "" {
		events, err = store.ByWorkOrder(ctx, opts.WorkOrderID)
	} else {
		events, err = store.ByTenant(ctx, opts.TenantID)
	}
	if err != nil {
		_ = formatter.Error("E_QUERY", err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to query events", err)
	}

	formatter.VerboseLog("Replaying %d event(s) from %s", len(events), dbPath)

	result := ReplayResult{Events: []ReplayEvent{}, Total: len(events), AllConverged: true}
	eng := ledger.NewEngine(ledger.DefaultLimits)
	cfg := wiring.Config{
		Enabled:         true,
		ContractVersion: ledger.ContractVersion,
		MaxCandidates:   16,
		MaxDiagnostics:  8,
	}
	for i, ev := range events {
		converged := replayConverges(cfg, eng, contract.TurnID(i+1), ev)
		if !converged {
			result.AllConverged = false
		}
		result.Events = append(result.Events, ReplayEvent{
			Seq:            ev.Seq,
			EventID:        ev.EventID,
			WorkOrderID:    ev.WorkOrderID,
			TenantID:       ev.TenantID,
			EventType:      ev.EventType,
			IdempotencyKey: ev.IdempotencyKey,
			PayloadHash:    ev.PayloadHash,
			Converged:      converged,
		})
	}

	if formatter.Format == "json" {
		if err := formatter.Success(result); err != nil {
			return err
		}
		if !result.AllConverged {
			return NewExitError(ExitFailure, "replay diverged from the stored ledger")
		}
		return nil
	}

	if len(events) == 0 {
		fmt.Fprintln(formatter.Writer, "no events")
		return nil
	}
	for _, ev := range result.Events {
		mark := "ok"
		if !ev.Converged {
			mark = "DIVERGED"
		}
		fmt.Fprintf(formatter.Writer, "  %3d %s %s %s key=%s %s %s\n",
			ev.Seq, ev.WorkOrderID, ev.TenantID, ev.EventType, ev.IdempotencyKey, ev.EventID, mark)
	}
	if !result.AllConverged {
		fmt.Fprintln(formatter.Writer, "✗ replay diverged from the stored ledger")
		return NewExitError(ExitFailure, "replay diverged from the stored ledger")
	}
	fmt.Fprintf(formatter.Writer, "✓ %d event(s) converged\n", result.Total)
	return nil
}

// replayConverges re-proposes a stored event against its own stored row.
// Convergence means the engine resolves it as a duplicate no-op carrying the
// stored identity; anything else is drift between the store and the engine's
// content addressing. Pure: nothing is written.
func replayConverges(cfg wiring.Config, eng *ledger.Engine, turnID contract.TurnID, ev ledger.StoredEvent) bool {
	out := ledger.RunTurn(cfg, eng, wiring.Request{
		CorrelationID:  1,
		TurnID:         turnID,
		MaxCandidates:  4,
		MaxDiagnostics: 4,
	}, ledger.TurnInput{
		Proposed:       ev.Event,
		LedgerTenantID: ev.TenantID,
		Existing:       &ev,
	})
	if out.Kind != wiring.OutcomeForwarded {
		return false
	}
	decision := out.Bundle.Decision
	return decision.Action == ledger.ActionDuplicateNoOp && decision.EventID == ev.EventID
}
