package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/stagelink/internal/model"
)

// TicketRepo manages issued tickets.  The unique payment_id index makes
// Create the authoritative once-per-payment guard.
type TicketRepo struct{ db *sql.DB }

func NewTicketRepo(db *sql.DB) *TicketRepo { return &TicketRepo{db: db} }

const ticketColumns = "id, show_id, status, payment_id, user_id, customer_email, customer_name, access_code, created_at"

// CountByPayment returns how many tickets reference the payment.
func (r *TicketRepo) CountByPayment(ctx context.Context, paymentID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM tickets WHERE payment_id = ?", paymentID).Scan(&n)
	return n, err
}

// Create inserts t.  A second ticket for the same payment yields
// ErrDuplicate.
func (r *TicketRepo) Create(ctx context.Context, t model.Ticket) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO tickets (id, show_id, status, payment_id, user_id, customer_email, customer_name, access_code)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.ShowID, t.Status, t.PaymentID, nullPtr(t.UserID),
		nullString(t.CustomerEmail), nullString(t.CustomerName), nullString(t.AccessCode))
	if IsDuplicate(err) {
		return ErrDuplicate
	}
	return err
}

// GetByPayment returns the ticket issued for a payment.
func (r *TicketRepo) GetByPayment(ctx context.Context, paymentID string) (model.Ticket, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+ticketColumns+" FROM tickets WHERE payment_id = ? LIMIT 1", paymentID)
	t, err := scanTicket(row)
	if errors.Is(err, sql.ErrNoRows) {
		return t, ErrNotFound
	}
	return t, err
}

// ListByUser returns the profile's tickets, newest first.
func (r *TicketRepo) ListByUser(ctx context.Context, profileID string) ([]model.Ticket, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+ticketColumns+" FROM tickets WHERE user_id = ? ORDER BY created_at DESC", profileID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]model.Ticket, 0)
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// AssignOwner attaches an unowned ticket to profileID.  ErrConflict means
// the ticket already has an owner.
func (r *TicketRepo) AssignOwner(ctx context.Context, ticketID, profileID string) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE tickets SET user_id = ? WHERE id = ? AND user_id IS NULL", profileID, ticketID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrConflict
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTicket(s rowScanner) (model.Ticket, error) {
	var (
		t                   model.Ticket
		userID, email, name sql.NullString
		code                sql.NullString
	)
	if err := s.Scan(&t.ID, &t.ShowID, &t.Status, &t.PaymentID, &userID, &email, &name, &code, &t.CreatedAt); err != nil {
		return model.Ticket{}, err
	}
	t.UserID = ptrFromNull(userID)
	t.CustomerEmail = email.String
	t.CustomerName = name.String
	t.AccessCode = code.String
	return t, nil
}
