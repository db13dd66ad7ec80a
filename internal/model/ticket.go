package model

import "time"

// TicketConfirmed is the only status the webhook worker writes.
const TicketConfirmed = "confirmed"

// Ticket is issued exactly once per paid payment.  UserID is the buyer's
// profile id, nil for guest purchases until claimed.
type Ticket struct {
	ID            string    `json:"id"`
	ShowID        string    `json:"show_id"`
	Status        string    `json:"status"`
	PaymentID     string    `json:"payment_id"`
	UserID        *string   `json:"user_id"`
	CustomerEmail string    `json:"customer_email,omitempty"`
	CustomerName  string    `json:"customer_name,omitempty"`
	AccessCode    string    `json:"access_code,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}
