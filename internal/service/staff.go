package service

import (
	"context"
	"errors"
	"net/mail"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/iliyamo/billing-staff-auth/internal/auth"
	"github.com/iliyamo/billing-staff-auth/internal/model"
	"github.com/iliyamo/billing-staff-auth/internal/queue"
	"github.com/iliyamo/billing-staff-auth/internal/repository"
)

// CreateStaffInput is the provisioning request.
type CreateStaffInput struct {
	Name          string `json:"name"`
	Username      string `json:"username"`
	Password      string `json:"password"`
	Role          string `json:"role"`
	Address       string `json:"address"`
	ContactNumber string `json:"contact_number"`
	Email         string `json:"email"`
}

const (
	maxText        = 255
	maxContact     = 20
	minPasswordLen = 8
	// bcrypt rejects longer inputs.
	maxPasswordBytes = 72
)

const msgUsernameTaken = "The username has already been taken."

// CreateStaff validates in, hashes the password and stores a new staff
// record.  It creates no session or token.  A staff.provisioned event is
// published afterwards when a publisher is configured; publish failures
// are logged only.
func (s *AuthService) CreateStaff(ctx context.Context, in CreateStaffInput, id auth.Provider) (model.StaffRecord, error) {
	in = normalize(in)
	role, verr := validateStaff(in)
	if !verr.Has("username") {
		exists, err := s.Staff.UsernameExists(ctx, in.Username)
		if err != nil {
			return model.StaffRecord{}, s.internal("create staff: username check", err)
		}
		if exists {
			verr.Add("username", msgUsernameTaken)
		}
	}
	if err := verr.OrNil(); err != nil {
		return model.StaffRecord{}, err
	}

	hash, err := s.Hasher.Hash(in.Password)
	if err != nil {
		return model.StaffRecord{}, s.internal("create staff: hash password", err)
	}
	rec := model.StaffRecord{
		Name:          in.Name,
		Username:      in.Username,
		PasswordHash:  hash,
		Role:          role,
		Address:       in.Address,
		ContactNumber: in.ContactNumber,
		Email:         in.Email,
	}
	if err := s.Staff.Create(ctx, &rec); err != nil {
		if errors.Is(err, repository.ErrUsernameExists) {
			v := &ValidationError{}
			v.Add("username", msgUsernameTaken)
			return model.StaffRecord{}, v
		}
		return model.StaffRecord{}, s.internal("create staff: insert", err)
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	s.publishProvisioned(ctx, rec, id)
	return rec, nil
}

func (s *AuthService) publishProvisioned(ctx context.Context, rec model.StaffRecord, id auth.Provider) {
	if s.Events == nil {
		return
	}
	ev := queue.StaffProvisionedEvent{
		StaffID:       rec.ID,
		Name:          rec.Name,
		Username:      rec.Username,
		Role:          string(rec.Role),
		Email:         rec.Email,
		ContactNumber: rec.ContactNumber,
		CreatedAt:     rec.CreatedAt.UTC().Format(time.RFC3339),
	}
	if p, ok := id.Current(); ok {
		ev.CreatedBy = p.User.ID
	}
	if err := s.Events.PublishStaffProvisioned(ctx, ev); err != nil {
		s.Log.Warn("publish staff.provisioned", zap.Uint64("staff_id", rec.ID), zap.Error(err))
	}
}

// normalize trims every field except the password.
func normalize(in CreateStaffInput) CreateStaffInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Username = strings.TrimSpace(in.Username)
	in.Role = strings.TrimSpace(in.Role)
	in.Address = strings.TrimSpace(in.Address)
	in.ContactNumber = strings.TrimSpace(in.ContactNumber)
	in.Email = strings.TrimSpace(in.Email)
	return in
}

// validateStaff applies every rule except username uniqueness.
func validateStaff(in CreateStaffInput) (model.Role, *ValidationError) {
	v := &ValidationError{}
	requireMax(v, "name", in.Name, maxText)
	requireMax(v, "username", in.Username, maxText)
	requireMax(v, "address", in.Address, maxText)
	requireMax(v, "contact_number", in.ContactNumber, maxContact)

	if in.Password == "" {
		v.Add("password", "The password field is required.")
	} else if utf8.RuneCountInString(in.Password) < minPasswordLen {
		v.Add("password", "The password must be at least 8 characters.")
	} else if len(in.Password) > maxPasswordBytes {
		v.Add("password", "The password may not be greater than 72 bytes.")
	}

	var role model.Role
	if in.Role == "" {
		v.Add("role", "The role field is required.")
	} else if r, ok := model.ParseRole(in.Role); ok {
		role = r
	} else {
		v.Add("role", "The selected role is invalid.")
	}

	if requireMax(v, "email", in.Email, maxText) && !validEmail(in.Email) {
		v.Add("email", "The email must be a valid email address.")
	}
	return role, v
}

// requireMax checks presence and length of a field and reports whether it
// passed both.
func requireMax(v *ValidationError, field, value string, max int) bool {
	label := strings.ReplaceAll(field, "_", " ")
	if value == "" {
		v.Add(field, "The "+label+" field is required.")
		return false
	}
	if utf8.RuneCountInString(value) > max {
		v.Add(field, "The "+label+" may not be greater than "+strconv.Itoa(max)+" characters.")
		return false
	}
	return true
}

func validEmail(s string) bool {
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return false
	}
	at := strings.LastIndexByte(s, '@')
	return at > 0 && at < len(s)-1
}
