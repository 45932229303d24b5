package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/billing-staff-auth/internal/utils"
)

// Manager drives the session lifecycle over a Store.  It holds no
// per-request state; cookie naming is passed in by callers.
type Manager struct {
	store    Store
	lifetime time.Duration
	now      func() time.Time
}

func NewManager(store Store, lifetime time.Duration) *Manager {
	return &Manager{store: store, lifetime: lifetime, now: time.Now}
}

// Lifetime is the server-side lifetime applied on every Save.
func (m *Manager) Lifetime() time.Duration { return m.lifetime }

// Start returns the live session for id, or a new unsaved one when id is
// empty, unknown or expired.
func (m *Manager) Start(ctx context.Context, id string) (*Session, error) {
	if id != "" {
		s, err := m.Get(ctx, id)
		if err == nil {
			return s, nil
		}
		if !errors.Is(err, ErrNotFound) && !errors.Is(err, ErrExpired) {
			return nil, err
		}
	}
	return m.fresh()
}

// Get loads a live session.  Expired sessions are removed and reported as
// ErrExpired.
func (m *Manager) Get(ctx context.Context, id string) (*Session, error) {
	s, err := m.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.ExpiresAt.IsZero() && !m.now().Before(s.ExpiresAt) {
		_ = m.store.Delete(ctx, id)
		return nil, ErrExpired
	}
	return s, nil
}

// Save persists s and pushes its expiry one lifetime forward.
func (m *Manager) Save(ctx context.Context, s *Session) error {
	s.ExpiresAt = m.now().Add(m.lifetime)
	if err := m.store.Save(ctx, s, m.lifetime); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// Regenerate moves s to a new id, keeping its attributes, and drops the
// old record.
func (m *Manager) Regenerate(ctx context.Context, s *Session) error {
	old := s.ID
	id, err := newID()
	if err != nil {
		return err
	}
	s.ID = id
	if err := m.Save(ctx, s); err != nil {
		return err
	}
	if old != "" {
		if err := m.store.Delete(ctx, old); err != nil {
			return fmt.Errorf("delete old session: %w", err)
		}
	}
	return nil
}

// Flush clears every attribute bound to s.
func (m *Manager) Flush(s *Session) {
	s.UserID = 0
	s.UserType = ""
	s.APIToken = ""
}

// Invalidate deletes the stored record of s, flushes it and gives it a
// new id that is not persisted.
func (m *Manager) Invalidate(ctx context.Context, s *Session) error {
	if s.ID != "" {
		if err := m.store.Delete(ctx, s.ID); err != nil {
			return fmt.Errorf("invalidate session: %w", err)
		}
	}
	m.Flush(s)
	id, err := newID()
	if err != nil {
		return err
	}
	s.ID = id
	return nil
}

// RegenerateCSRF replaces the anti-forgery token of s.
func (m *Manager) RegenerateCSRF(s *Session) error {
	tok, err := utils.RandomString(40)
	if err != nil {
		return fmt.Errorf("csrf token: %w", err)
	}
	s.CSRFToken = tok
	return nil
}

func (m *Manager) fresh() (*Session, error) {
	id, err := newID()
	if err != nil {
		return nil, err
	}
	now := m.now()
	s := &Session{ID: id, CreatedAt: now, ExpiresAt: now.Add(m.lifetime)}
	if err := m.RegenerateCSRF(s); err != nil {
		return nil, err
	}
	return s, nil
}

func newID() (string, error) {
	id, err := utils.RandomHex(32)
	if err != nil {
		return "", fmt.Errorf("session id: %w", err)
	}
	return id, nil
}

// Destroy removes the stored record for id.
func (m *Manager) Destroy(ctx context.Context, id string) error {
	if err := m.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("destroy session: %w", err)
	}
	return nil
}
