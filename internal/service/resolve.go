package service

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/iliyamo/billing-staff-auth/internal/auth"
	"github.com/iliyamo/billing-staff-auth/internal/model"
	"github.com/iliyamo/billing-staff-auth/internal/repository"
	"github.com/iliyamo/billing-staff-auth/internal/session"
	"github.com/iliyamo/billing-staff-auth/internal/token"
)

// ResolveToken authenticates a plain bearer token.  Unknown, revoked or
// expired tokens, and tokens whose identity no longer maps to a staff
// member, yield ErrUnauthenticated.
func (s *AuthService) ResolveToken(ctx context.Context, plain string) (*auth.Principal, error) {
	t, err := s.Tokens.Verify(ctx, plain)
	if err != nil {
		if errors.Is(err, token.ErrInvalidToken) {
			return nil, ErrUnauthenticated
		}
		return nil, s.internal("resolve token", err)
	}
	user, err := s.Users.GetByID(ctx, t.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, s.internal("resolve token: load identity", err)
	}
	staff, err := s.Staff.GetByUsername(ctx, user.Name)
	if err != nil {
		if errors.Is(err, repository.ErrStaffNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, s.internal("resolve token: load staff", err)
	}
	return &auth.Principal{User: user, Role: staff.Role, Token: plain, Method: auth.MethodToken}, nil
}

// ResolveSession authenticates the session a role cookie points at.  The
// session's role must map back to the same cookie pair it was read from.
func (s *AuthService) ResolveSession(ctx context.Context, spec session.CookieSpec, sessionID string) (*auth.Principal, error) {
	sess, err := s.Sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, session.ErrNotFound) || errors.Is(err, session.ErrExpired) {
			return nil, ErrUnauthenticated
		}
		return nil, s.internal("resolve session", err)
	}
	role := model.Role(sess.UserType)
	if !sess.Authenticated() || session.SpecForRole(role) != spec {
		return nil, ErrUnauthenticated
	}
	// A logout from another client revokes the token cached here; the
	// session dies with it.
	if sess.APIToken != "" {
		if _, err := s.Tokens.Verify(ctx, sess.APIToken); err != nil {
			if !errors.Is(err, token.ErrInvalidToken) {
				return nil, s.internal("resolve session: verify cached token", err)
			}
			if err := s.Sessions.Destroy(ctx, sess.ID); err != nil {
				s.Log.Warn("resolve session: drop revoked session", zap.Error(err))
			}
			return nil, ErrUnauthenticated
		}
	}
	user, err := s.Users.GetByID(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUnauthenticated
		}
		return nil, s.internal("resolve session: load identity", err)
	}
	return &auth.Principal{User: user, Role: role, Session: sess, Cookie: spec, Method: auth.MethodSession}, nil
}
