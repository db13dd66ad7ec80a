package model

import "time"

// WebhookEvent records a provider event the worker handled, so operators
// can find asynchronous processing failures without reading logs.
type WebhookEvent struct {
	ID              uint64
	Provider        string
	EventID         string
	EventType       string
	PaymentID       *string
	ProcessedAt     *time.Time
	ProcessingError string
	CreatedAt       time.Time
}
