package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/stagelink/internal/model"
)

// CollaborationRepo manages collaboration_requests rows.  Insert and
// Reopen return raw driver errors so callers can classify foreign-key and
// duplicate-key failures with ForeignKeyColumn and IsDuplicate.
type CollaborationRepo struct {
	db *sql.DB
}

func NewCollaborationRepo(db *sql.DB) *CollaborationRepo { return &CollaborationRepo{db: db} }

const collabColumns = "id, sender_id, receiver_id, status, created_at, updated_at"

// FindBetween returns the request between a and b in either direction, or
// nil when the pair has never exchanged one.  A pending row wins over
// decided ones; otherwise the most recently updated row is returned.
func (r *CollaborationRepo) FindBetween(ctx context.Context, a, b string) (*model.CollaborationRequest, error) {
	const q = `SELECT ` + collabColumns + ` FROM collaboration_requests
               WHERE (sender_id = ? AND receiver_id = ?) OR (sender_id = ? AND receiver_id = ?)
               ORDER BY status = 'pending' DESC, updated_at DESC LIMIT 1`
	var c model.CollaborationRequest
	err := r.db.QueryRowContext(ctx, q, a, b, b, a).Scan(
		&c.ID, &c.SenderID, &c.ReceiverID, &c.Status, &c.CreatedAt, &c.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Insert creates a pending request from sender to receiver.
func (r *CollaborationRepo) Insert(ctx context.Context, senderID, receiverID string) (model.CollaborationRequest, error) {
	now := time.Now().UTC()
	c := model.CollaborationRequest{
		ID:         uuid.NewString(),
		SenderID:   senderID,
		ReceiverID: receiverID,
		Status:     model.CollabPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO collaboration_requests (id, sender_id, receiver_id, status) VALUES (?, ?, ?, ?)`,
		c.ID, c.SenderID, c.ReceiverID, c.Status)
	if err != nil {
		return model.CollaborationRequest{}, err
	}
	return c, nil
}

// Reopen moves a decided request back to pending and bumps updated_at.
// Deployments without an updated_at column get the status change alone.
func (r *CollaborationRepo) Reopen(ctx context.Context, id string) error {
	set := []Column{
		{Name: "status", Value: model.CollabPending},
		{Name: "updated_at", Value: time.Now().UTC()},
	}
	n, err := TolerantUpdate(ctx, r.db, "collaboration_requests", set, "id = ?", []any{id}, "updated_at")
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByID returns a single request.
func (r *CollaborationRepo) GetByID(ctx context.Context, id string) (model.CollaborationRequest, error) {
	var c model.CollaborationRequest
	err := r.db.QueryRowContext(ctx,
		`SELECT `+collabColumns+` FROM collaboration_requests WHERE id = ? LIMIT 1`, id).Scan(
		&c.ID, &c.SenderID, &c.ReceiverID, &c.Status, &c.CreatedAt, &c.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return c, ErrNotFound
	}
	return c, err
}

// UpdateStatus moves a request from one status to another.  ErrConflict is
// returned when the row is no longer in status from.
func (r *CollaborationRepo) UpdateStatus(ctx context.Context, id, from, to string) error {
	set := []Column{
		{Name: "status", Value: to},
		{Name: "updated_at", Value: time.Now().UTC()},
	}
	n, err := TolerantUpdate(ctx, r.db, "collaboration_requests", set, "id = ? AND status = ?", []any{id, from}, "updated_at")
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrConflict
	}
	return nil
}

// ListIncoming returns pending requests addressed to any of receiverIDs,
// newest first.
func (r *CollaborationRepo) ListIncoming(ctx context.Context, receiverIDs []string) ([]model.CollaborationRequest, error) {
	if len(receiverIDs) == 0 {
		return nil, nil
	}
	marks := strings.TrimSuffix(strings.Repeat("?,", len(receiverIDs)), ",")
	args := make([]any, 0, len(receiverIDs)+1)
	for _, id := range receiverIDs {
		args = append(args, id)
	}
	args = append(args, model.CollabPending)
	q := `SELECT ` + collabColumns + ` FROM collaboration_requests
          WHERE receiver_id IN (` + marks + `) AND status = ?
          ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []model.CollaborationRequest
	for rows.Next() {
		var c model.CollaborationRequest
		if err := rows.Scan(&c.ID, &c.SenderID, &c.ReceiverID, &c.Status, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
