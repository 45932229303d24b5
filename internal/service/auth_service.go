// Package service holds the authentication core: login, auth-check, logout
// and staff provisioning over explicit store, session and token
// collaborators.
package service

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/iliyamo/billing-staff-auth/internal/auth"
	"github.com/iliyamo/billing-staff-auth/internal/model"
	"github.com/iliyamo/billing-staff-auth/internal/queue"
	"github.com/iliyamo/billing-staff-auth/internal/repository"
	"github.com/iliyamo/billing-staff-auth/internal/session"
	"github.com/iliyamo/billing-staff-auth/internal/token"
)

// StaffStore is the credential store.
type StaffStore interface {
	GetByUsername(ctx context.Context, username string) (model.StaffRecord, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
	Create(ctx context.Context, s *model.StaffRecord) error
}

// UserStore keeps the identities sessions and tokens are bound to.
type UserStore interface {
	UpsertByEmail(ctx context.Context, email, name, passwordHash string) (model.UserIdentity, error)
	GetByID(ctx context.Context, id uint64) (model.UserIdentity, error)
}

// TokenIssuer mints, verifies and revokes bearer tokens.
type TokenIssuer interface {
	Mint(ctx context.Context, userID uint64, name string) (string, error)
	Verify(ctx context.Context, plain string) (model.AccessToken, error)
	RevokeAll(ctx context.Context, userID uint64) error
}

// Hasher hashes and verifies passwords.
type Hasher interface {
	Hash(plain string) (string, error)
	Verify(hash, plain string) bool
}

// EventPublisher receives staff.provisioned events.
type EventPublisher interface {
	PublishStaffProvisioned(ctx context.Context, ev queue.StaffProvisionedEvent) error
}

// AuthService orchestrates the authentication flows.
type AuthService struct {
	Staff    StaffStore
	Users    UserStore
	Tokens   TokenIssuer
	Sessions *session.Manager
	Hasher   Hasher
	Events   EventPublisher // nil disables publishing
	Log      *zap.Logger

	locks *keyedMutex
}

func NewAuthService(staff StaffStore, users UserStore, tokens TokenIssuer, sessions *session.Manager, hasher Hasher, events EventPublisher, log *zap.Logger) *AuthService {
	if log == nil {
		log = zap.NewNop()
	}
	return &AuthService{
		Staff:    staff,
		Users:    users,
		Tokens:   tokens,
		Sessions: sessions,
		Hasher:   hasher,
		Events:   events,
		Log:      log,
		locks:    newKeyedMutex(),
	}
}

// LoginInput carries the credentials of a login attempt.  PriorSession,
// when set, returns the session id the client already holds under a
// cookie pair; it is consulted once the role is known.
type LoginInput struct {
	Username     string
	Password     string
	PriorSession func(spec session.CookieSpec) (string, bool)
}

// LoginResult is what the HTTP layer needs to answer a login.
type LoginResult struct {
	Staff   model.StaffRecord
	User    model.UserIdentity
	Token   string
	Session *session.Session
	Cookie  session.CookieSpec
}

// Login authenticates a staff member, binds a fresh session to the
// matching identity and mints a bearer token.  Wrong username and wrong
// password fail identically.
func (s *AuthService) Login(ctx context.Context, in LoginInput, id auth.Provider) (*LoginResult, error) {
	username := strings.TrimSpace(in.Username)
	verr := &ValidationError{}
	if username == "" {
		verr.Add("username", "The username field is required.")
	}
	if in.Password == "" {
		verr.Add("password", "The password field is required.")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	staff, err := s.Staff.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrStaffNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, s.internal("login: lookup staff", err)
	}
	if !s.Hasher.Verify(staff.PasswordHash, in.Password) {
		return nil, ErrInvalidCredentials
	}
	if !staff.Role.CanLogin() {
		return nil, ErrForbidden
	}

	user, err := s.Users.UpsertByEmail(ctx, model.DerivedEmail(staff.Username), staff.Username, staff.PasswordHash)
	if err != nil {
		return nil, s.internal("login: upsert identity", err)
	}

	spec := session.SpecForRole(staff.Role)
	var prior string
	if in.PriorSession != nil {
		prior, _ = in.PriorSession(spec)
	}
	sess, err := s.Sessions.Start(ctx, prior)
	if err != nil {
		return nil, s.internal("login: start session", err)
	}
	if sess.UserID != 0 && sess.UserID != user.ID {
		s.Sessions.Flush(sess)
	}
	sess.UserID = user.ID
	sess.UserType = string(staff.Role)
	if err := s.Sessions.Regenerate(ctx, sess); err != nil {
		return nil, s.internal("login: regenerate session", err)
	}

	unlock := s.locks.Lock(user.ID)
	plain, err := s.Tokens.Mint(ctx, user.ID, token.DefaultName)
	if err == nil {
		sess.APIToken = plain
		err = s.Sessions.Save(ctx, sess)
	}
	unlock()
	if err != nil {
		_ = s.Sessions.Destroy(ctx, sess.ID)
		return nil, s.internal("login: issue token", err)
	}

	id.SetCurrent(&auth.Principal{
		User:    user,
		Role:    staff.Role,
		Session: sess,
		Cookie:  spec,
		Method:  auth.MethodSession,
	})
	return &LoginResult{Staff: staff, User: user, Token: plain, Session: sess, Cookie: spec}, nil
}

// CheckResult is the identity and token returned by CheckAuth.
type CheckResult struct {
	User  model.UserIdentity
	Token string
}

// CheckAuth returns the current identity and a usable bearer token.  A
// session without a cached token gets one minted and cached; later calls
// return the cached value.
func (s *AuthService) CheckAuth(ctx context.Context, id auth.Provider) (*CheckResult, error) {
	p, ok := id.Current()
	if !ok {
		return nil, ErrUnauthenticated
	}
	if p.Session == nil {
		return &CheckResult{User: p.User, Token: p.Token}, nil
	}
	if p.Session.APIToken != "" {
		return &CheckResult{User: p.User, Token: p.Session.APIToken}, nil
	}

	unlock := s.locks.Lock(p.User.ID)
	defer unlock()
	// A concurrent check on the same session may have minted while this
	// one waited for the lock.
	if stored, err := s.Sessions.Get(ctx, p.Session.ID); err == nil && stored.APIToken != "" {
		p.Session.APIToken = stored.APIToken
		return &CheckResult{User: p.User, Token: stored.APIToken}, nil
	}
	plain, err := s.Tokens.Mint(ctx, p.User.ID, token.DefaultName)
	if err != nil {
		return nil, s.internal("check-auth: issue token", err)
	}
	p.Session.APIToken = plain
	if err := s.Sessions.Save(ctx, p.Session); err != nil {
		return nil, s.internal("check-auth: save session", err)
	}
	return &CheckResult{User: p.User, Token: plain}, nil
}

// LogoutResult names the cookie pair the client must drop.  Cookie is
// zero when the staff record behind the identity no longer exists.
type LogoutResult struct {
	Cookie session.CookieSpec
}

// Logout revokes every token of the current identity and destroys its
// session.  The cookie pair is recomputed from the stored staff record,
// not from session attributes; a missing record leaves no cookie to clear
// but the logout still goes through.  Store failures yield
// ErrLogoutFailed with the session and principal untouched.
func (s *AuthService) Logout(ctx context.Context, id auth.Provider) (*LogoutResult, error) {
	p, ok := id.Current()
	if !ok {
		return nil, ErrUnauthenticated
	}
	var spec session.CookieSpec
	staff, err := s.Staff.GetByUsername(ctx, p.User.Name)
	switch {
	case err == nil:
		spec = session.SpecForRole(staff.Role)
	case errors.Is(err, repository.ErrStaffNotFound):
		s.Log.Warn("logout: staff record gone", zap.Uint64("user_id", p.User.ID), zap.String("username", p.User.Name))
	default:
		s.Log.Error("logout: lookup staff", zap.Uint64("user_id", p.User.ID), zap.Error(err))
		return nil, ErrLogoutFailed
	}

	unlock := s.locks.Lock(p.User.ID)
	err = s.Tokens.RevokeAll(ctx, p.User.ID)
	unlock()
	if err != nil {
		s.Log.Error("logout: revoke tokens", zap.Uint64("user_id", p.User.ID), zap.Error(err))
		return nil, ErrLogoutFailed
	}

	if sess := p.Session; sess != nil {
		// Invalidate flushes the attributes once the stored record is gone.
		if err := s.Sessions.Invalidate(ctx, sess); err != nil {
			s.Log.Error("logout: invalidate session", zap.Uint64("user_id", p.User.ID), zap.Error(err))
			return nil, ErrLogoutFailed
		}
		if err := s.Sessions.RegenerateCSRF(sess); err != nil {
			s.Log.Error("logout: regenerate csrf", zap.Uint64("user_id", p.User.ID), zap.Error(err))
			return nil, ErrLogoutFailed
		}
	}
	id.Clear()
	return &LogoutResult{Cookie: spec}, nil
}

// Profile returns the staff record behind the current identity.
func (s *AuthService) Profile(ctx context.Context, id auth.Provider) (model.StaffRecord, error) {
	p, ok := id.Current()
	if !ok {
		return model.StaffRecord{}, ErrUnauthenticated
	}
	staff, err := s.Staff.GetByUsername(ctx, p.User.Name)
	if err != nil {
		if errors.Is(err, repository.ErrStaffNotFound) {
			return model.StaffRecord{}, ErrUnauthenticated
		}
		return model.StaffRecord{}, s.internal("profile: lookup staff", err)
	}
	return staff, nil
}

func (s *AuthService) internal(op string, err error) error {
	s.Log.Error(op, zap.Error(err))
	return ErrInternal
}
