package repository

import (
	"context"
	"database/sql"
)

// WebhookEventRepo records processed provider events.
type WebhookEventRepo struct{ db *sql.DB }

func NewWebhookEventRepo(db *sql.DB) *WebhookEventRepo { return &WebhookEventRepo{db: db} }

// Record upserts the outcome of processing one event.  A redelivered event
// overwrites the previous outcome.
func (r *WebhookEventRepo) Record(ctx context.Context, provider, eventID, eventType string, paymentID string, procErr error) error {
	var msg any
	if procErr != nil {
		msg = procErr.Error()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO webhook_events (provider, event_id, event_type, payment_id, processed_at, processing_error)
         VALUES (?, ?, ?, ?, UTC_TIMESTAMP(), ?)
         ON DUPLICATE KEY UPDATE processed_at = VALUES(processed_at), processing_error = VALUES(processing_error),
                                 payment_id = COALESCE(VALUES(payment_id), payment_id)`,
		provider, eventID, eventType, nullString(paymentID), msg)
	return err
}
