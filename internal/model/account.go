package model

import "time"

// Account is a row of the `users` table: the identity-provider side of a
// person.  Its ID is the "account id" that legacy rows may store where a
// profile id is expected.
//
// Fields:
//  ID           - UUID primary key.
//  Email        - unique, lower-cased email address.
//  PasswordHash - bcrypt hash.
//  IsActive     - disabled accounts cannot log in.
type Account struct {
	ID           string    // users.id
	Email        string    // users.email
	PasswordHash string    // users.password_hash
	IsActive     bool      // users.is_active
	CreatedAt    time.Time // users.created_at
	UpdatedAt    time.Time // users.updated_at
}

// RefreshToken models an entry in the `refresh_tokens` table.  Only the
// SHA-256 hash of the raw token is stored.
type RefreshToken struct {
	ID        uint64     // refresh_tokens.id
	UserID    string     // refresh_tokens.user_id
	TokenHash string     // refresh_tokens.token_hash
	ExpiresAt time.Time  // refresh_tokens.expires_at
	RevokedAt *time.Time // refresh_tokens.revoked_at (nullable)
	CreatedAt time.Time  // refresh_tokens.created_at
}
