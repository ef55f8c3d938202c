package auditstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/halcyonlabs/halcyon/internal/contract"
	"github.com/halcyonlabs/halcyon/internal/ledger"
)

const eventColumns = `seq, event_id, work_order_id, tenant_id, event_type, idempotency_key, payload, payload_hash`

// ByIdempotencyKey returns the event holding the key within a tenant, or nil
// when no event holds it.
func (s *Store) ByIdempotencyKey(ctx context.Context, tenantID, key string) (*ledger.StoredEvent, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+eventColumns+`
		FROM work_order_events
		WHERE tenant_id = ? AND idempotency_key = ?
	`, tenantID, key)

	ev, err := scanEvent(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup idempotency key: %w", err)
	}
	return &ev, nil
}

// ByEventID retrieves a single event by its content-addressed ID.
// Returns sql.ErrNoRows if not found.
func (s *Store) ByEventID(ctx context.Context, eventID string) (ledger.StoredEvent, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+eventColumns+`
		FROM work_order_events
		WHERE event_id = ?
	`, eventID)

	return scanEvent(row)
}

// ByWorkOrder returns all events for a work order with deterministic
// ordering: ORDER BY seq ASC, event_id COLLATE BINARY ASC.
//
// Returns an empty slice (not nil) if no events exist for the work order.
func (s *Store) ByWorkOrder(ctx context.Context, workOrderID string) ([]ledger.StoredEvent, error) {
	return s.queryEvents(ctx, `
		SELECT `+eventColumns+`
		FROM work_order_events
		WHERE work_order_id = ?
		ORDER BY seq ASC, event_id COLLATE BINARY ASC
	`, workOrderID)
}

// ByTenant returns all events for a tenant with deterministic ordering.
//
// Returns an empty slice (not nil) if no events exist for the tenant.
func (s *Store) ByTenant(ctx context.Context, tenantID string) ([]ledger.StoredEvent, error) {
	return s.queryEvents(ctx, `
		SELECT `+eventColumns+`
		FROM work_order_events
		WHERE tenant_id = ?
		ORDER BY seq ASC, event_id COLLATE BINARY ASC
	`, tenantID)
}

func (s *Store) queryEvents(ctx context.Context, query string, args ...any) ([]ledger.StoredEvent, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []ledger.StoredEvent
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}

	if events == nil {
		events = []ledger.StoredEvent{}
	}

	return events, nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanEvent(sc scanner) (ledger.StoredEvent, error) {
	var (
		ev          ledger.StoredEvent
		payloadJSON string
	)
	err := sc.Scan(
		&ev.Seq,
		&ev.EventID,
		&ev.WorkOrderID,
		&ev.TenantID,
		&ev.EventType,
		&ev.IdempotencyKey,
		&payloadJSON,
		&ev.PayloadHash,
	)
	if err != nil {
		return ledger.StoredEvent{}, err
	}

	var payload contract.Object
	if err := json.Unmarshal([]byte(payloadJSON), &payload); err != nil {
		return ledger.StoredEvent{}, fmt.Errorf("unmarshal payload for %s: %w", ev.EventID, err)
	}
	ev.Payload = payload

	return ev, nil
}
