package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/billing-staff-auth/internal/database"
	"github.com/iliyamo/billing-staff-auth/internal/model"
)

// StaffRepo is the credential store backed by the `staff_tb` table.
type StaffRepo struct{ DB *sql.DB }

func NewStaffRepo(db *sql.DB) *StaffRepo { return &StaffRepo{DB: db} }

const staffColumns = "id,name,username,password,role,address,contact_number,email,created_at,updated_at"

// GetByUsername fetches a staff member by exact username match.
func (r *StaffRepo) GetByUsername(ctx context.Context, username string) (model.StaffRecord, error) {
	var s model.StaffRecord
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+staffColumns+" FROM staff_tb WHERE username=? LIMIT 1",
		username).Scan(&s.ID, &s.Name, &s.Username, &s.PasswordHash, &s.Role,
		&s.Address, &s.ContactNumber, &s.Email, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return model.StaffRecord{}, ErrStaffNotFound
		}
		return model.StaffRecord{}, fmt.Errorf("get staff by username: %w", err)
	}
	return s, nil
}

// UsernameExists reports whether a staff row already uses username.
func (r *StaffRepo) UsernameExists(ctx context.Context, username string) (bool, error) {
	var n int
	err := r.DB.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM staff_tb WHERE username=?", username).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("count staff by username: %w", err)
	}
	return n > 0, nil
}

// Create inserts s and fills in its ID.  PasswordHash must already be
// hashed.  A duplicate username yields ErrUsernameExists.
func (r *StaffRepo) Create(ctx context.Context, s *model.StaffRecord) error {
	res, err := r.DB.ExecContext(ctx,
		`INSERT INTO staff_tb (name, username, password, role, address, contact_number, email)
		 VALUES (?,?,?,?,?,?,?)`,
		s.Name, s.Username, s.PasswordHash, string(s.Role), s.Address, s.ContactNumber, s.Email)
	if err != nil {
		if database.IsDuplicateKey(err) {
			return ErrUsernameExists
		}
		return fmt.Errorf("insert staff: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("staff insert id: %w", err)
	}
	s.ID = uint64(id)
	return nil
}
