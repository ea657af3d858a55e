// Package domain contains the core business entities for Stockroom.
// These are pure Go structs with no external dependencies, representing
// the fundamental concepts of the inventory system.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// DefaultRole is assigned to users created without an explicit role set.
const DefaultRole = "Employee"

// User represents a registered user in the system.
// Users author product log entries and are referenced by ID from there.
type User struct {
	// ID is the opaque unique identifier for the user (generated at creation).
	ID string `json:"id"`

	// Username is the unique display name. Uniqueness is enforced case-
	// and accent-insensitively (collation strength 2).
	Username string `json:"username"`

	// UsernameFold is the folded form of Username used for uniqueness checks.
	// The database holds a unique index on this column.
	UsernameFold string `json:"-"`

	// PasswordHash is the bcrypt hash of the user's password.
	// This must never be exposed in API responses.
	PasswordHash string `json:"-"`

	// Roles is the ordered set of role tags. Never empty.
	Roles []string `json:"roles"`

	// Active indicates whether the user account is active.
	Active bool `json:"active"`

	// FirstLogin is true until the user's password is changed for the
	// first time via an update.
	FirstLogin bool `json:"firstLogin"`

	// CreatedAt is the timestamp when the user was created.
	CreatedAt time.Time `json:"createdAt"`

	// UpdatedAt is the timestamp when the user was last updated.
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewUser creates a new User with default values.
func NewUser(username, passwordHash string, roles []string) *User {
	if len(roles) == 0 {
		roles = []string{DefaultRole}
	}
	now := time.Now().UTC()
	return &User{
		ID:           uuid.NewString(),
		Username:     username,
		UsernameFold: Fold(username),
		PasswordHash: passwordHash,
		Roles:        roles,
		Active:       true,
		FirstLogin:   true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// CanAuthenticate returns true if the user is allowed to authenticate.
func (u *User) CanAuthenticate() bool {
	return u.Active
}
