package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/iliyamo/billing-staff-auth/internal/auth"
	"github.com/iliyamo/billing-staff-auth/internal/model"
	"github.com/iliyamo/billing-staff-auth/internal/repository"
)

func validInput() CreateStaffInput {
	return CreateStaffInput{
		Name:          "Jane Doe",
		Username:      "jdoe",
		Password:      "password123",
		Role:          "bill_handler",
		Address:       "1 Main St",
		ContactNumber: "0123456789",
		Email:         "jane@example.com",
	}
}

func TestCreateStaffSuccess(t *testing.T) {
	f := newFixture(t)
	_, h := auth.WithHolder(context.Background())
	h.SetCurrent(&auth.Principal{User: model.UserIdentity{ID: 42}, Role: model.RoleAdmin})

	rec, err := f.svc.CreateStaff(context.Background(), validInput(), h)
	if err != nil {
		t.Fatalf("CreateStaff() error = %v", err)
	}
	if rec.ID == 0 || rec.Role != model.RoleBillHandler {
		t.Errorf("CreateStaff() = %+v", rec)
	}
	stored, _ := f.staff.GetByUsername(context.Background(), "jdoe")
	if stored.PasswordHash == "password123" || !f.hasher.Verify(stored.PasswordHash, "password123") {
		t.Errorf("stored password hash = %q", stored.PasswordHash)
	}
	if f.sessions.Len() != 0 || f.tokens.minted() != 0 {
		t.Error("provisioning created a session or token")
	}
	if len(f.events.events) != 1 {
		t.Fatalf("published %d events, want 1", len(f.events.events))
	}
	ev := f.events.events[0]
	if ev.StaffID != rec.ID || ev.Role != "bill handler" || ev.CreatedBy != 42 {
		t.Errorf("event = %+v", ev)
	}
}

func TestCreateStaffValidation(t *testing.T) {
	long := strings.Repeat("x", 256)
	tests := []struct {
		name   string
		mutate func(*CreateStaffInput)
		field  string
	}{
		{"missing name", func(in *CreateStaffInput) { in.Name = "" }, "name"},
		{"long name", func(in *CreateStaffInput) { in.Name = long }, "name"},
		{"missing username", func(in *CreateStaffInput) { in.Username = "  " }, "username"},
		{"long username", func(in *CreateStaffInput) { in.Username = long }, "username"},
		{"short password", func(in *CreateStaffInput) { in.Password = "1234567" }, "password"},
		{"missing password", func(in *CreateStaffInput) { in.Password = "" }, "password"},
		{"long password", func(in *CreateStaffInput) { in.Password = strings.Repeat("a", 73) }, "password"},
		{"long multibyte password", func(in *CreateStaffInput) { in.Password = strings.Repeat("é", 37) }, "password"},
		{"unknown role", func(in *CreateStaffInput) { in.Role = "superuser" }, "role"},
		{"missing role", func(in *CreateStaffInput) { in.Role = "" }, "role"},
		{"missing address", func(in *CreateStaffInput) { in.Address = "" }, "address"},
		{"long contact", func(in *CreateStaffInput) { in.ContactNumber = strings.Repeat("1", 21) }, "contact_number"},
		{"bad email", func(in *CreateStaffInput) { in.Email = "not-an-email" }, "email"},
		{"display-name email", func(in *CreateStaffInput) { in.Email = "Jane <jane@example.com>" }, "email"},
		{"long email", func(in *CreateStaffInput) { in.Email = long + "@example.com" }, "email"},
		{"taken username", func(in *CreateStaffInput) { in.Username = "ada" }, "username"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			in := validInput()
			tt.mutate(&in)
			_, h := auth.WithHolder(context.Background())
			_, err := f.svc.CreateStaff(context.Background(), in, h)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("CreateStaff() error = %v, want ValidationError", err)
			}
			if !verr.Has(tt.field) {
				t.Errorf("fields = %v, want %q", verr.Fields, tt.field)
			}
			if f.hasher.hashCalls() != 0 {
				t.Error("password hashed despite validation failure")
			}
			if len(f.events.events) != 0 {
				t.Error("event published despite validation failure")
			}
		})
	}
}

func TestCreateStaffPasswordLengthBounds(t *testing.T) {
	for _, pw := range []string{"abcdefgh", strings.Repeat("a", 72)} {
		f := newFixture(t)
		in := validInput()
		in.Password = pw
		_, h := auth.WithHolder(context.Background())
		if _, err := f.svc.CreateStaff(context.Background(), in, h); err != nil {
			t.Fatalf("CreateStaff(%d-byte password) error = %v", len(pw), err)
		}
		stored, err := f.staff.GetByUsername(context.Background(), in.Username)
		if err != nil {
			t.Fatalf("GetByUsername() error = %v", err)
		}
		if stored.PasswordHash == pw || !f.hasher.Verify(stored.PasswordHash, pw) {
			t.Errorf("stored password hash = %q", stored.PasswordHash)
		}
	}
}

func TestCreateStaffReportsEveryField(t *testing.T) {
	f := newFixture(t)
	_, h := auth.WithHolder(context.Background())
	_, err := f.svc.CreateStaff(context.Background(), CreateStaffInput{}, h)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("CreateStaff() error = %v", err)
	}
	for _, field := range []string{"name", "username", "password", "role", "address", "contact_number", "email"} {
		if !verr.Has(field) {
			t.Errorf("missing error for %q", field)
		}
	}
}

func TestCreateStaffAcceptsEveryRole(t *testing.T) {
	for _, raw := range []string{"admin", "bill_handler", "bill handler", "meter_handler"} {
		f := newFixture(t)
		in := validInput()
		in.Role = raw
		_, h := auth.WithHolder(context.Background())
		if _, err := f.svc.CreateStaff(context.Background(), in, h); err != nil {
			t.Errorf("CreateStaff(role=%q) error = %v", raw, err)
		}
	}
}

func TestCreateStaffInsertRace(t *testing.T) {
	f := newFixture(t)
	f.staff.createErr = repository.ErrUsernameExists
	_, h := auth.WithHolder(context.Background())
	_, err := f.svc.CreateStaff(context.Background(), validInput(), h)
	var verr *ValidationError
	if !errors.As(err, &verr) || !verr.Has("username") {
		t.Errorf("CreateStaff() error = %v, want username ValidationError", err)
	}
}

func TestCreateStaffStoreFailure(t *testing.T) {
	f := newFixture(t)
	f.staff.createErr = errBoom
	_, h := auth.WithHolder(context.Background())
	if _, err := f.svc.CreateStaff(context.Background(), validInput(), h); !errors.Is(err, ErrInternal) {
		t.Errorf("CreateStaff() error = %v, want ErrInternal", err)
	}
}

func TestCreateStaffPublishFailureIgnored(t *testing.T) {
	f := newFixture(t)
	f.events.err = errBoom
	_, h := auth.WithHolder(context.Background())
	if _, err := f.svc.CreateStaff(context.Background(), validInput(), h); err != nil {
		t.Errorf("CreateStaff() error = %v, want nil", err)
	}
}

func TestValidationErrorMessage(t *testing.T) {
	v := &ValidationError{}
	if v.OrNil() != nil {
		t.Fatal("empty ValidationError is not nil")
	}
	v.Add("b", "second")
	v.Add("a", "first")
	if got := v.Error(); got != "validation failed: a: first, b: second" {
		t.Errorf("Error() = %q", got)
	}
}
