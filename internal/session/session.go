// Package session implements the server-side session lifecycle: a Manager
// over a pluggable Store, plus the role-derived cookie contract.
package session

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned by a Store when no session exists for an id.
	ErrNotFound = errors.New("session not found")
	// ErrExpired is returned by Manager.Get for a session past ExpiresAt.
	ErrExpired = errors.New("session expired")
)

// Session is the server-side state bound to one authenticated identity.
type Session struct {
	ID        string    `json:"id"`
	CSRFToken string    `json:"csrf_token"`
	UserID    uint64    `json:"user_id,omitempty"`
	UserType  string    `json:"user_type,omitempty"`
	APIToken  string    `json:"api_token,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Authenticated reports whether an identity is bound to the session.
func (s *Session) Authenticated() bool {
	return s != nil && s.UserID != 0
}

// Store persists sessions by id.  Implementations must be safe for
// concurrent use.
type Store interface {
	Load(ctx context.Context, id string) (*Session, error)
	Save(ctx context.Context, s *Session, ttl time.Duration) error
	Delete(ctx context.Context, id string) error
}
