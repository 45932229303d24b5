// Package repository defines error types that are reused across multiple
// repositories.  These sentinel values allow higher layers such as the
// auth service to distinguish "no such row" from storage failures without
// depending on database/sql or driver error types.
package repository

import "errors"

// ErrStaffNotFound is returned when no staff_tb row matches the lookup.
var ErrStaffNotFound = errors.New("staff not found")

// ErrUserNotFound is returned when no users row matches the lookup.
var ErrUserNotFound = errors.New("user not found")

// ErrTokenNotFound is returned when no personal_access_tokens row matches.
var ErrTokenNotFound = errors.New("token not found")

// ErrUsernameExists is returned when inserting a staff row whose username
// is already taken.  The auth service turns it into a field validation
// error.
var ErrUsernameExists = errors.New("username already exists")
