// Package queue defines message payloads exchanged over the message broker
// together with the publisher and consumer for the payments.paid queue.
package queue

// PaymentsPaidQueue is the durable queue carrying verified paid-checkout
// events from the webhook endpoint to the payment worker.
const PaymentsPaidQueue = "payments.paid"

// Rejected payments.paid messages are routed through PaymentsDeadLetterExchange
// into PaymentsDeadQueue, where they wait to be inspected or replayed.
const (
	PaymentsDeadLetterExchange = "payments.dlx"
	PaymentsDeadQueue          = "payments.paid.dead"
)

// PaymentPaidEvent is the part of a verified checkout_session.payment.paid
// webhook the worker needs.  The webhook handler builds it after checking
// the signature, so consumers never see unverified input.  CheckoutID is
// the checkout session id (data.attributes.data.id); PaymentID, ShowID and
// UserID come from the checkout metadata, UserID being the buyer's account
// id.
type PaymentPaidEvent struct {
	EventID           string `json:"event_id"`
	CheckoutID        string `json:"checkout_id"`
	PaymentID         string `json:"payment_id,omitempty"`
	ShowID            string `json:"show_id,omitempty"`
	UserID            string `json:"user_id,omitempty"`
	PaymongoPaymentID string `json:"paymongo_payment_id,omitempty"`
	CustomerEmail     string `json:"customer_email,omitempty"`
	CustomerName      string `json:"customer_name,omitempty"`
	ReceivedAt        string `json:"received_at"`
}
