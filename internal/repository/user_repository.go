package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/billing-staff-auth/internal/model"
)

// UserRepo persists UserIdentity rows in the `users` table.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// UpsertByEmail creates the identity for email or refreshes name and
// password hash of the existing row, returning the stored identity.
// LAST_INSERT_ID(id) makes LastInsertId report the existing row's id on
// the update path.
func (r *UserRepo) UpsertByEmail(ctx context.Context, email, name, passwordHash string) (model.UserIdentity, error) {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO users (email, name, password) VALUES (?,?,?)
		 ON DUPLICATE KEY UPDATE name=VALUES(name), password=VALUES(password), id=LAST_INSERT_ID(id)`,
		email, name, passwordHash)
	if err != nil {
		return model.UserIdentity{}, fmt.Errorf("upsert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.UserIdentity{}, fmt.Errorf("upsert user id: %w", err)
	}
	return r.GetByID(ctx, uint64(id))
}

// GetByID fetches an identity by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.UserIdentity, error) {
	return r.getOne(ctx, "SELECT id,name,email,password,created_at,updated_at FROM users WHERE id=? LIMIT 1", id)
}

// GetByEmail fetches an identity by its derived email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.UserIdentity, error) {
	return r.getOne(ctx, "SELECT id,name,email,password,created_at,updated_at FROM users WHERE email=? LIMIT 1", email)
}

func (r *UserRepo) getOne(ctx context.Context, query string, arg any) (model.UserIdentity, error) {
	var u model.UserIdentity
	err := r.DB.QueryRowContext(ctx, query, arg).
		Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.UserIdentity{}, ErrUserNotFound
		}
		return model.UserIdentity{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}
