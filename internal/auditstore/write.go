package auditstore

import (
	"context"
	"fmt"

	"github.com/halcyonlabs/halcyon/internal/contract"
	"github.com/halcyonlabs/halcyon/internal/ledger"
)

// Append inserts a decided event and returns it with its sequence number
// assigned. The payload is serialized to canonical JSON per RFC 8785 so a
// replay reads back byte-identical content.
//
// The engine has already ruled out duplicates; hitting the UNIQUE constraint
// here means the caller skipped the decision path and is an error, not a
// silent no-op.
func (s *Store) Append(ctx context.Context, ev ledger.StoredEvent) (ledger.StoredEvent, error) {
	if ev.EventID == "" || ev.PayloadHash == "" {
		return ledger.StoredEvent{}, fmt.Errorf("append event: missing assigned identity")
	}

	payloadJSON, err := contract.MarshalCanonical(ev.Payload)
	if err != nil {
		return ledger.StoredEvent{}, fmt.Errorf("append event: %w", err)
	}

	result, err := s.db.ExecContext(ctx, `
		INSERT INTO work_order_events
		(event_id, work_order_id, tenant_id, event_type, idempotency_key, payload, payload_hash)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		ev.EventID,
		ev.WorkOrderID,
		ev.TenantID,
		ev.EventType,
		ev.IdempotencyKey,
		string(payloadJSON),
		ev.PayloadHash,
	)
	if err != nil {
		return ledger.StoredEvent{}, fmt.Errorf("append event %s: %w", ev.EventID, err)
	}

	seq, err := result.LastInsertId()
	if err != nil {
		return ledger.StoredEvent{}, fmt.Errorf("append event %s: last insert id: %w", ev.EventID, err)
	}

	ev.Seq = seq
	return ev, nil
}
