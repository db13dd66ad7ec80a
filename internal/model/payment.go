package model

import "time"

// Payment statuses.
const (
	PaymentPending = "pending"
	PaymentPaid    = "paid"
	PaymentFailed  = "failed"
)

// Payment is created at checkout initiation and moved to paid by the
// webhook worker.  UserID is nil for guest checkouts.
type Payment struct {
	ID                 string    // payments.id
	Status             string    // payments.status
	UserID             *string   // payments.user_id (account id, nullable)
	ShowID             *string   // payments.show_id (nullable)
	AmountCents        uint32    // payments.amount_cents
	CustomerEmail      string    // payments.customer_email
	CustomerName       string    // payments.customer_name
	PaymongoPaymentID  string    // payments.paymongo_payment_id
	PaymongoCheckoutID string    // payments.paymongo_checkout_id
	CreatedAt          time.Time // payments.created_at
	UpdatedAt          time.Time // payments.updated_at
}

// PaidUpdate carries the values stamped on a payment when it is paid.
// Empty provider ids leave the stored values untouched.
type PaidUpdate struct {
	CustomerEmail      string
	CustomerName       string
	PaymongoPaymentID  string
	PaymongoCheckoutID string
}
