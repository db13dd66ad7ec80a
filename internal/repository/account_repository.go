package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/iliyamo/stagelink/internal/model"
	"github.com/iliyamo/stagelink/internal/utils"
)

// AccountRepo persists rows of the users table.
type AccountRepo struct{ DB *sql.DB }

func NewAccountRepo(db *sql.DB) *AccountRepo { return &AccountRepo{DB: db} }

var ErrEmailExists = errors.New("email already exists")

const accountColumns = "id,email,password_hash,is_active,created_at,updated_at"

// Create inserts an account together with its profile and returns both.
// Both rows are written in one transaction so a profile never exists
// without its account or the other way around.
func (r *AccountRepo) Create(ctx context.Context, email, password, role, groupName string, cost int) (model.Account, model.Profile, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	hash, err := utils.HashPassword(password, cost)
	if err != nil {
		return model.Account{}, model.Profile{}, err
	}
	acc := model.Account{ID: uuid.NewString(), Email: email, PasswordHash: hash, IsActive: true}
	prof := model.Profile{ID: uuid.NewString(), UserID: acc.ID, Role: role, GroupName: strings.TrimSpace(groupName)}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return model.Account{}, model.Profile{}, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		"INSERT INTO users (id, email, password_hash) VALUES (?,?,?)",
		acc.ID, acc.Email, acc.PasswordHash); err != nil {
		if IsDuplicate(err) {
			return model.Account{}, model.Profile{}, ErrEmailExists
		}
		return model.Account{}, model.Profile{}, err
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO profiles (id, user_id, role, group_name) VALUES (?,?,?,?)",
		prof.ID, prof.UserID, prof.Role, nullString(prof.GroupName)); err != nil {
		return model.Account{}, model.Profile{}, err
	}
	if err := tx.Commit(); err != nil {
		return model.Account{}, model.Profile{}, err
	}
	return acc, prof, nil
}

// GetByEmail fetches an account by normalized email.
func (r *AccountRepo) GetByEmail(ctx context.Context, email string) (model.Account, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var a model.Account
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+accountColumns+" FROM users WHERE email=? LIMIT 1",
		email).Scan(&a.ID, &a.Email, &a.PasswordHash, &a.IsActive, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return a, ErrNotFound
	}
	return a, err
}

// GetByID fetches an account by id.
func (r *AccountRepo) GetByID(ctx context.Context, id string) (model.Account, error) {
	var a model.Account
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+accountColumns+" FROM users WHERE id=? LIMIT 1",
		id).Scan(&a.ID, &a.Email, &a.PasswordHash, &a.IsActive, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return a, ErrNotFound
	}
	return a, err
}

// EmailByAccountID returns the email of the account, the directory lookup
// the collaboration flow uses to reach a recipient.
func (r *AccountRepo) EmailByAccountID(ctx context.Context, id string) (string, error) {
	var email string
	err := r.DB.QueryRowContext(ctx, "SELECT email FROM users WHERE id=? LIMIT 1", id).Scan(&email)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return email, err
}
