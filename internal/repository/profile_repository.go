package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/stagelink/internal/model"
)

// ProfileRepo reads the profiles table.  Profiles are created together with
// their account by AccountRepo.Create.
type ProfileRepo struct{ db *sql.DB }

func NewProfileRepo(db *sql.DB) *ProfileRepo { return &ProfileRepo{db: db} }

const profileColumns = "id, user_id, role, group_name, niche, university, producer_role, created_at, updated_at"

// GetByID returns the profile whose own id is id.
func (r *ProfileRepo) GetByID(ctx context.Context, id string) (model.Profile, error) {
	return r.getOne(ctx, "SELECT "+profileColumns+" FROM profiles WHERE id = ? LIMIT 1", id)
}

// GetByUserID returns the profile owned by the account id.
func (r *ProfileRepo) GetByUserID(ctx context.Context, accountID string) (model.Profile, error) {
	return r.getOne(ctx, "SELECT "+profileColumns+" FROM profiles WHERE user_id = ? LIMIT 1", accountID)
}

func (r *ProfileRepo) getOne(ctx context.Context, q string, arg string) (model.Profile, error) {
	var (
		p                                    model.Profile
		group, niche, university, producerRl sql.NullString
	)
	err := r.db.QueryRowContext(ctx, q, arg).Scan(
		&p.ID, &p.UserID, &p.Role, &group, &niche, &university, &producerRl, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Profile{}, ErrNotFound
	}
	if err != nil {
		return model.Profile{}, err
	}
	p.GroupName = group.String
	p.Niche = niche.String
	p.University = university.String
	p.ProducerRole = producerRl.String
	return p, nil
}
