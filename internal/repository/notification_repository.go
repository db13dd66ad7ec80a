package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/iliyamo/stagelink/internal/model"
)

// NotificationRepo writes and reads in-app notifications.
type NotificationRepo struct{ db *sql.DB }

func NewNotificationRepo(db *sql.DB) *NotificationRepo { return &NotificationRepo{db: db} }

// Create inserts n.  Older schemas lack actor_id; the insert then goes
// through without it.
func (r *NotificationRepo) Create(ctx context.Context, n model.Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	cols := []Column{
		{Name: "id", Value: n.ID},
		{Name: "user_id", Value: n.UserID},
		{Name: "type", Value: n.Type},
		{Name: "title", Value: n.Title},
		{Name: "message", Value: n.Message},
		{Name: "link", Value: nullString(n.Link)},
		{Name: "read", Value: false},
	}
	if n.ActorID != nil && *n.ActorID != "" {
		cols = append(cols, Column{Name: "actor_id", Value: *n.ActorID})
	}
	return TolerantInsert(ctx, r.db, "notifications", cols, "actor_id")
}

// ListByUser returns the recipient's notifications, newest first.
func (r *NotificationRepo) ListByUser(ctx context.Context, userID string, unreadOnly bool, limit int) ([]model.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	q := "SELECT id, user_id, type, title, message, link, `read`, created_at FROM notifications WHERE user_id = ?"
	if unreadOnly {
		q += " AND `read` = 0"
	}
	q += " ORDER BY created_at DESC LIMIT ?"
	rows, err := r.db.QueryContext(ctx, q, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Notification, 0)
	for rows.Next() {
		var (
			n    model.Notification
			link sql.NullString
		)
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &link, &n.Read, &n.CreatedAt); err != nil {
			return nil, err
		}
		n.Link = link.String
		out = append(out, n)
	}
	return out, rows.Err()
}

// MarkRead flags one of userID's notifications as read.  Marking an
// already-read notification succeeds.
func (r *NotificationRepo) MarkRead(ctx context.Context, id, userID string) error {
	var exists int
	err := r.db.QueryRowContext(ctx,
		"SELECT 1 FROM notifications WHERE id = ? AND user_id = ? LIMIT 1", id, userID).Scan(&exists)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, "UPDATE notifications SET `read` = 1 WHERE id = ? AND user_id = ?", id, userID)
	return err
}
