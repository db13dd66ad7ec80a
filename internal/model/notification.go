package model

import "time"

// Notification types written by the core flows.
const (
	NotifyCollaborationRequest  = "collaboration_request"
	NotifyCollaborationAccepted = "collab"
	NotifyTicketSold            = "ticket_sold"
	NotifyTicketPurchased       = "ticket_purchase"
)

// Notification is an in-app message addressed to a profile.  ActorID is
// optional because some deployments predate the actor_id column.
type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	ActorID   *string   `json:"actor_id,omitempty"`
	Type      string    `json:"type"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Link      string    `json:"link"`
	Read      bool      `json:"read"`
	CreatedAt time.Time `json:"created_at"`
}
