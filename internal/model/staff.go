package model

import (
	"strings"
	"time"
)

// Role is the organisational role of a staff member as stored in the
// `staff_tb.role` column.  The stored values contain spaces ("bill handler")
// because the billing front-end and the existing rows use that spelling.
type Role string

const (
	RoleAdmin        Role = "admin"
	RoleBillHandler  Role = "bill handler"
	RoleMeterHandler Role = "meter handler"
)

// ProvisionableRoles lists every role createStaff accepts.
var ProvisionableRoles = []Role{RoleAdmin, RoleBillHandler, RoleMeterHandler}

// LoginRoles is the allow-list of roles permitted to authenticate.  Meter
// handlers are provisioned for the field app but cannot sign in here.
var LoginRoles = []Role{RoleAdmin, RoleBillHandler}

// ParseRole normalises user input ("Bill_Handler", " bill handler ") into a
// Role.  ok is false when the value is not one of ProvisionableRoles.
func ParseRole(raw string) (Role, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.ReplaceAll(s, "_", " ")
	for _, r := range ProvisionableRoles {
		if s == string(r) {
			return r, true
		}
	}
	return "", false
}

// CanLogin reports whether the role is on the login allow-list.
func (r Role) CanLogin() bool {
	for _, allowed := range LoginRoles {
		if r == allowed {
			return true
		}
	}
	return false
}

// StaffRecord mirrors a row of the `staff_tb` table.
//
// Fields:
//
//	ID            – primary key identifier.
//	Name          – display name of the staff member.
//	Username      – unique login name.
//	PasswordHash  – bcrypt hash (`staff_tb.password`).
//	Role          – organisational role.
//	Address       – postal address.
//	ContactNumber – phone number, at most 20 characters.
//	Email         – contact email (not the derived login email).
//	CreatedAt     – timestamp of creation.
//	UpdatedAt     – timestamp of last update.
type StaffRecord struct {
	ID            uint64    // staff_tb.id
	Name          string    // staff_tb.name
	Username      string    // staff_tb.username
	PasswordHash  string    // staff_tb.password
	Role          Role      // staff_tb.role
	Address       string    // staff_tb.address
	ContactNumber string    // staff_tb.contact_number
	Email         string    // staff_tb.email
	CreatedAt     time.Time // staff_tb.created_at
	UpdatedAt     time.Time // staff_tb.updated_at
}
