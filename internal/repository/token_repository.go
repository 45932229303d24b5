package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/iliyamo/billing-staff-auth/internal/model"
)

// TokenRepo persists bearer tokens (single 'token_hash' column, SHA-256 hex).
type TokenRepo struct{ DB *sql.DB }

func NewTokenRepo(db *sql.DB) *TokenRepo { return &TokenRepo{DB: db} }

// Store inserts a token row and fills in its ID and CreatedAt.
func (r *TokenRepo) Store(ctx context.Context, t *model.AccessToken) error {
	now := time.Now().UTC()
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO personal_access_tokens (user_id, name, token_hash, expires_at, created_at) VALUES (?,?,?,?,?)",
		t.UserID, t.Name, t.TokenHash, nullTime(t.ExpiresAt), now)
	if err != nil {
		return fmt.Errorf("insert token: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("token insert id: %w", err)
	}
	t.ID = uint64(id)
	t.CreatedAt = now
	return nil
}

// GetByID fetches a token row regardless of its state.
func (r *TokenRepo) GetByID(ctx context.Context, id uint64) (model.AccessToken, error) {
	return r.getOne(ctx, "SELECT id,user_id,name,token_hash,last_used_at,expires_at,revoked_at,created_at FROM personal_access_tokens WHERE id=? LIMIT 1", id)
}

// GetByHash fetches a token row by its hash.
func (r *TokenRepo) GetByHash(ctx context.Context, tokenHash string) (model.AccessToken, error) {
	return r.getOne(ctx, "SELECT id,user_id,name,token_hash,last_used_at,expires_at,revoked_at,created_at FROM personal_access_tokens WHERE token_hash=? LIMIT 1", tokenHash)
}

// Touch records a successful use of the token.
func (r *TokenRepo) Touch(ctx context.Context, id uint64, at time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE personal_access_tokens SET last_used_at=? WHERE id=?", at.UTC(), id)
	return err
}

// RevokeAllForUser revokes all of the identity's active tokens.
func (r *TokenRepo) RevokeAllForUser(ctx context.Context, userID uint64) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE personal_access_tokens SET revoked_at=UTC_TIMESTAMP() WHERE user_id=? AND revoked_at IS NULL",
		userID)
	if err != nil {
		return fmt.Errorf("revoke tokens for user %d: %w", userID, err)
	}
	return nil
}

// CountActiveForUser returns how many unrevoked, unexpired tokens the
// identity holds.
func (r *TokenRepo) CountActiveForUser(ctx context.Context, userID uint64) (int, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM personal_access_tokens
		 WHERE user_id=? AND revoked_at IS NULL AND (expires_at IS NULL OR expires_at > UTC_TIMESTAMP())`,
		userID).Scan(&n)
	return n, err
}

func (r *TokenRepo) getOne(ctx context.Context, query string, arg any) (model.AccessToken, error) {
	var (
		t                          model.AccessToken
		lastUsed, expires, revoked sql.NullTime
	)
	err := r.DB.QueryRowContext(ctx, query, arg).
		Scan(&t.ID, &t.UserID, &t.Name, &t.TokenHash, &lastUsed, &expires, &revoked, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.AccessToken{}, ErrTokenNotFound
		}
		return model.AccessToken{}, fmt.Errorf("get token: %w", err)
	}
	t.LastUsedAt = timePtr(lastUsed)
	t.ExpiresAt = timePtr(expires)
	t.RevokedAt = timePtr(revoked)
	return t, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	v := nt.Time
	return &v
}
