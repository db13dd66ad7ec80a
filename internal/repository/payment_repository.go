package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/stagelink/internal/model"
)

// PaymentRepo reads and updates payments.  Rows are created by the
// checkout flow; this service only moves them to paid.
type PaymentRepo struct{ db *sql.DB }

func NewPaymentRepo(db *sql.DB) *PaymentRepo { return &PaymentRepo{db: db} }

const paymentColumns = `id, status, user_id, show_id, amount_cents, customer_email, customer_name,
                        paymongo_payment_id, paymongo_checkout_id, created_at, updated_at`

// GetByID returns the payment with the given internal id.
func (r *PaymentRepo) GetByID(ctx context.Context, id string) (model.Payment, error) {
	return r.getOne(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = ? LIMIT 1`, id)
}

// GetByCheckoutID returns the payment created for a provider checkout
// session.
func (r *PaymentRepo) GetByCheckoutID(ctx context.Context, checkoutID string) (model.Payment, error) {
	return r.getOne(ctx, `SELECT `+paymentColumns+` FROM payments WHERE paymongo_checkout_id = ? LIMIT 1`, checkoutID)
}

func (r *PaymentRepo) getOne(ctx context.Context, q, arg string) (model.Payment, error) {
	var (
		p                            model.Payment
		userID, showID               sql.NullString
		email, name, pmID, checkout sql.NullString
	)
	err := r.db.QueryRowContext(ctx, q, arg).Scan(
		&p.ID, &p.Status, &userID, &showID, &p.AmountCents, &email, &name, &pmID, &checkout, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Payment{}, ErrNotFound
	}
	if err != nil {
		return model.Payment{}, err
	}
	p.UserID = ptrFromNull(userID)
	p.ShowID = ptrFromNull(showID)
	p.CustomerEmail = email.String
	p.CustomerName = name.String
	p.PaymongoPaymentID = pmID.String
	p.PaymongoCheckoutID = checkout.String
	return p, nil
}

// MarkPaid sets status paid and stamps the provider identifiers and
// customer details.  Empty values in u keep what is stored.
func (r *PaymentRepo) MarkPaid(ctx context.Context, id string, u model.PaidUpdate) error {
	const q = `UPDATE payments SET
                 status = ?,
                 customer_email = COALESCE(?, customer_email),
                 customer_name = COALESCE(?, customer_name),
                 paymongo_payment_id = COALESCE(?, paymongo_payment_id),
                 paymongo_checkout_id = COALESCE(?, paymongo_checkout_id),
                 updated_at = UTC_TIMESTAMP()
               WHERE id = ?`
	_, err := r.db.ExecContext(ctx, q,
		model.PaymentPaid,
		nullString(u.CustomerEmail),
		nullString(u.CustomerName),
		nullString(u.PaymongoPaymentID),
		nullString(u.PaymongoCheckoutID),
		id)
	return err
}
