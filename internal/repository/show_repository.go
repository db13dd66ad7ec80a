// Package repository contains data access logic for Show domain operations.
// A Show is a theater production listed by a producer.  The webhook worker
// reads the title, producer, date and venue of a show when it issues a
// ticket; the public browse routes list approved shows.
package repository

import (
	"context"      // context for controlling query lifetime
	"database/sql" // sql provides DB abstraction
	"errors"

	"github.com/iliyamo/stagelink/internal/model"
)

// ShowApproved is the status of shows visible to the public.
const ShowApproved = "approved"

// ShowRepo manages persistence for shows.
type ShowRepo struct {
	db *sql.DB
}

// NewShowRepo constructs a ShowRepo with the given DB handle.
func NewShowRepo(db *sql.DB) *ShowRepo {
	return &ShowRepo{db: db}
}

// GetByID retrieves a show by its ID.  It returns ErrNotFound if there is
// no matching row.
func (r *ShowRepo) GetByID(ctx context.Context, id string) (model.Show, error) {
	const q = `SELECT id, producer_id, title, venue, date, price_cents, status, created_at, updated_at FROM shows WHERE id = ?`
	var (
		s     model.Show
		venue sql.NullString
		date  sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, q, id).Scan(&s.ID, &s.ProducerID, &s.Title, &venue, &date, &s.PriceCents, &s.Status, &s.CreatedAt, &s.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Show{}, ErrNotFound
	}
	if err != nil {
		return model.Show{}, err
	}
	s.Venue = venue.String
	if date.Valid {
		d := date.Time
		s.Date = &d
	}
	return s, nil
}
