package model

import "time"

// Collaboration request statuses.
const (
	CollabPending  = "pending"
	CollabAccepted = "accepted"
	CollabRejected = "rejected"
)

// CollaborationRequest is a row of `collaboration_requests`.  SenderID and
// ReceiverID hold either a profile id or an account id depending on when
// the row was written; new rows always use profile ids.
type CollaborationRequest struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"sender_id"`
	ReceiverID string    `json:"receiver_id"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// IsPending reports whether the request still awaits a decision.
func (r CollaborationRequest) IsPending() bool { return r.Status == CollabPending }
