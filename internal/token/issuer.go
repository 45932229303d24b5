// Package token mints and verifies opaque bearer tokens.  A plain token
// has the form "<row id>|<40 random characters>"; only the SHA-256 digest
// of the random part is stored.
package token

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/iliyamo/billing-staff-auth/internal/model"
	"github.com/iliyamo/billing-staff-auth/internal/repository"
	"github.com/iliyamo/billing-staff-auth/internal/utils"
)

// ErrInvalidToken is returned by Verify for unknown, malformed, revoked or
// expired tokens.
var ErrInvalidToken = errors.New("invalid token")

// DefaultName labels tokens minted at login and auth-check.
const DefaultName = "staff-token"

const secretLen = 40

// Store is the persistence the issuer needs.  repository.TokenRepo
// satisfies it.
type Store interface {
	Store(ctx context.Context, t *model.AccessToken) error
	GetByID(ctx context.Context, id uint64) (model.AccessToken, error)
	GetByHash(ctx context.Context, tokenHash string) (model.AccessToken, error)
	Touch(ctx context.Context, id uint64, at time.Time) error
	RevokeAllForUser(ctx context.Context, userID uint64) error
}

// Issuer mints, verifies and revokes bearer tokens.
type Issuer struct {
	store Store
	ttl   time.Duration
	now   func() time.Time
}

// NewIssuer returns an Issuer.  A zero ttl mints tokens that live until
// revoked.
func NewIssuer(store Store, ttl time.Duration) *Issuer {
	return &Issuer{store: store, ttl: ttl, now: time.Now}
}

// Mint creates a token for userID and returns its plain form.  The plain
// form is never stored.
func (i *Issuer) Mint(ctx context.Context, userID uint64, name string) (string, error) {
	secret, err := utils.RandomString(secretLen)
	if err != nil {
		return "", fmt.Errorf("token secret: %w", err)
	}
	t := &model.AccessToken{UserID: userID, Name: name, TokenHash: utils.HashToken(secret)}
	if i.ttl > 0 {
		exp := i.now().UTC().Add(i.ttl)
		t.ExpiresAt = &exp
	}
	if err := i.store.Store(ctx, t); err != nil {
		return "", err
	}
	return strconv.FormatUint(t.ID, 10) + "|" + secret, nil
}

// Verify resolves a plain token to its active row and records the use.
func (i *Issuer) Verify(ctx context.Context, plain string) (model.AccessToken, error) {
	if plain == "" {
		return model.AccessToken{}, ErrInvalidToken
	}
	var (
		t   model.AccessToken
		err error
	)
	idPart, secret, found := strings.Cut(plain, "|")
	if found {
		id, perr := strconv.ParseUint(idPart, 10, 64)
		if perr != nil {
			return model.AccessToken{}, ErrInvalidToken
		}
		t, err = i.store.GetByID(ctx, id)
	} else {
		secret = plain
		t, err = i.store.GetByHash(ctx, utils.HashToken(secret))
	}
	if err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			return model.AccessToken{}, ErrInvalidToken
		}
		return model.AccessToken{}, err
	}
	if subtle.ConstantTimeCompare([]byte(t.TokenHash), []byte(utils.HashToken(secret))) != 1 {
		return model.AccessToken{}, ErrInvalidToken
	}
	now := i.now().UTC()
	if !t.Active(now) {
		return model.AccessToken{}, ErrInvalidToken
	}
	if err := i.store.Touch(ctx, t.ID, now); err != nil {
		return model.AccessToken{}, fmt.Errorf("touch token: %w", err)
	}
	t.LastUsedAt = &now
	return t, nil
}

// RevokeAll revokes every token of userID, not only the one a session
// caches.
func (i *Issuer) RevokeAll(ctx context.Context, userID uint64) error {
	return i.store.RevokeAllForUser(ctx, userID)
}
