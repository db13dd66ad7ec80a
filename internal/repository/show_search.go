package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/stagelink/internal/model"
)

// ShowSearchQuery defines filters & pagination for searching shows.
type ShowSearchQuery struct {
	Title      string
	Venue      string
	TimeFilter string // "upcoming" (default) or "any"
	Page       int
	PageSize   int
}

// SearchUpcoming lists approved shows matching q ordered by date.  Shows
// without a date are listed last and only when TimeFilter is "any".
func (r *ShowRepo) SearchUpcoming(ctx context.Context, q ShowSearchQuery) ([]model.Show, int64, error) {
	where := []string{"s.status = ?"}
	args := []any{ShowApproved}

	switch strings.ToLower(q.TimeFilter) {
	case "any":
	default:
		where = append(where, "s.date >= UTC_TIMESTAMP()")
	}

	if q.Title != "" {
		where = append(where, "LOWER(s.title) LIKE ?")
		args = append(args, "%"+strings.ToLower(q.Title)+"%")
	}
	if q.Venue != "" {
		where = append(where, "LOWER(s.venue) LIKE ?")
		args = append(args, "%"+strings.ToLower(q.Venue)+"%")
	}
	cond := strings.Join(where, " AND ")

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM shows s WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	if q.PageSize <= 0 {
		q.PageSize = 20
	}
	if q.Page <= 0 {
		q.Page = 1
	}
	limit := q.PageSize
	offset := (q.Page - 1) * q.PageSize

	dataSQL := `SELECT s.id, s.producer_id, s.title, s.venue, s.date, s.price_cents, s.status, s.created_at, s.updated_at
		FROM shows s
		WHERE ` + cond + `
		ORDER BY s.date IS NULL, s.date ASC
		LIMIT ? OFFSET ?`
	argsData := append(append([]any{}, args...), limit, offset)

	rows, err := r.db.QueryContext(ctx, dataSQL, argsData...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	out := make([]model.Show, 0, limit)
	for rows.Next() {
		var (
			s     model.Show
			venue sql.NullString
			date  sql.NullTime
		)
		if err := rows.Scan(&s.ID, &s.ProducerID, &s.Title, &venue, &date, &s.PriceCents, &s.Status, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, 0, err
		}
		s.Venue = venue.String
		if date.Valid {
			d := date.Time
			s.Date = &d
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}
