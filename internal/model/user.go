package model

import "time"

// StaffEmailDomain is appended to a staff username to build the login email
// of the matching UserIdentity.
const StaffEmailDomain = "@staff.com"

// DerivedEmail returns the synthetic identity key for a staff username.
func DerivedEmail(username string) string {
	return username + StaffEmailDomain
}

// UserIdentity represents a row of the `users` table: the principal the
// session and token subsystems operate on.  One row exists per derived
// email; Name carries the staff username and PasswordHash is a copy of the
// staff hash refreshed at every login.
//
// Fields:
//
//	ID           – primary key identifier.
//	Name         – staff username the identity was derived from.
//	Email        – username + "@staff.com", unique.
//	PasswordHash – copied from staff_tb.password, never set independently.
//	CreatedAt    – timestamp of creation.
//	UpdatedAt    – timestamp of last update.
type UserIdentity struct {
	ID           uint64    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// AccessToken models an entry in the `personal_access_tokens` table.  The
// plain token is handed to the client once; only its SHA-256 hash is
// stored.
//
// Fields:
//
//	ID         – primary key identifier, also the prefix of the plain token.
//	UserID     – owning identity.
//	Name       – label of the token (e.g. "staff-token").
//	TokenHash  – SHA-256 hex digest of the secret part.
//	LastUsedAt – last successful verification (null until used).
//	ExpiresAt  – optional expiry (null means no expiry).
//	RevokedAt  – when the token was revoked (null if still active).
//	CreatedAt  – timestamp of creation.
type AccessToken struct {
	ID         uint64     // personal_access_tokens.id
	UserID     uint64     // personal_access_tokens.user_id
	Name       string     // personal_access_tokens.name
	TokenHash  string     // personal_access_tokens.token_hash
	LastUsedAt *time.Time // personal_access_tokens.last_used_at (nullable)
	ExpiresAt  *time.Time // personal_access_tokens.expires_at (nullable)
	RevokedAt  *time.Time // personal_access_tokens.revoked_at (nullable)
	CreatedAt  time.Time  // personal_access_tokens.created_at
}

// Active reports whether the token is neither revoked nor expired at now.
func (t AccessToken) Active(now time.Time) bool {
	if t.RevokedAt != nil {
		return false
	}
	if t.ExpiresAt != nil && !now.Before(*t.ExpiresAt) {
		return false
	}
	return true
}
