package contract

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity. The version suffix enables
// future algorithm migration without colliding with existing IDs.
const (
	DomainWorkOrderEvent = "halcyon/work-order-event/v1"
	DomainPayload        = "halcyon/payload/v1"
)

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain || 0x00 || data). The null separator prevents
// domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// WorkOrderEventID computes the content-addressed ID of a work-order event.
// The ID is stable across restarts and replays given identical inputs, so a
// duplicate idempotency-key submission with identical content resolves to the
// same ID it was assigned the first time.
func WorkOrderEventID(workOrderID, tenantID, eventType, idempotencyKey string, payload Object) (string, error) {
	obj := Object{
		"work_order_id":   String(workOrderID),
		"tenant_id":       String(tenantID),
		"event_type":      String(eventType),
		"idempotency_key": String(idempotencyKey),
		"payload":         payload,
	}
	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("WorkOrderEventID: %w", err)
	}
	return hashWithDomain(DomainWorkOrderEvent, canonical), nil
}

// PayloadHash computes the content hash of a bare payload object. The ledger
// engine compares payload hashes to detect a conflicting write reusing an
// existing idempotency key.
func PayloadHash(payload Object) (string, error) {
	canonical, err := MarshalCanonical(payload)
	if err != nil {
		return "", fmt.Errorf("PayloadHash: %w", err)
	}
	return hashWithDomain(DomainPayload, canonical), nil
}
