package model

import "time"

// Profile roles.
const (
	RoleAudience = "audience"
	RoleProducer = "producer"
	RoleAdmin    = "admin"
)

// Theater group niches used to phrase collaboration emails.
const (
	NicheUniversity = "university"
	NicheLocal      = "local"
)

// Profile is the public face of an account.  A profile has two identity
// keys: its own ID and the owning account's UserID.  Collaboration rows
// written by older releases may reference either one.
type Profile struct {
	ID           string    // profiles.id
	UserID       string    // profiles.user_id (account id)
	Role         string    // profiles.role
	GroupName    string    // profiles.group_name (empty when NULL)
	Niche        string    // profiles.niche
	University   string    // profiles.university
	ProducerRole string    // profiles.producer_role
	CreatedAt    time.Time // profiles.created_at
	UpdatedAt    time.Time // profiles.updated_at
}

// CanProposeCollaboration reports whether the profile's role may send
// collaboration requests.
func (p Profile) CanProposeCollaboration() bool {
	return p.Role == RoleProducer || p.Role == RoleAdmin
}

// DisplayName returns the group name or fallback when it is blank.
func (p Profile) DisplayName(fallback string) string {
	if p.GroupName != "" {
		return p.GroupName
	}
	return fallback
}
