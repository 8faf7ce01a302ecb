// Package user holds the account model: managers who run the team, lead-gen
// members who fetch and apply to jobs, and sales members who work leads.
package user

import (
	"regexp"
	"strings"
	"time"

	"github.com/relayops/leadtrack/pkg/errors"
	"github.com/relayops/leadtrack/pkg/types/common"
)

// Role defines what a user is allowed to do.
type Role string

const (
	RoleManager Role = "manager"
	RoleLeadGen Role = "lead_gen"
	RoleSales   Role = "sales"
)

// Valid reports whether the role is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleManager, RoleLeadGen, RoleSales:
		return true
	}
	return false
}

// Status defines the lifecycle state of an account.
type Status string

const (
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
)

var (
	emailPattern    = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	usernamePattern = regexp.MustCompile(`^[a-z0-9][a-z0-9._-]{2,63}$`)
)

// User represents a team member account.
type User struct {
	ID           common.ID `json:"id"`
	Email        string    `json:"email"`
	Username     string    `json:"username"`
	FullName     string    `json:"full_name"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	Status       Status    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// New creates an active user. Email and username are normalized to lower
// case; the password hash is set separately by the auth service.
func New(email, username, fullName string, role Role) (*User, error) {
	u := &User{
		ID:       common.NewID(),
		Email:    strings.ToLower(strings.TrimSpace(email)),
		Username: strings.ToLower(strings.TrimSpace(username)),
		FullName: strings.TrimSpace(fullName),
		Role:     role,
		Status:   StatusActive,
	}
	now := time.Time(common.NewTimestamp())
	u.CreatedAt = now
	u.UpdatedAt = now

	if err := u.Validate(); err != nil {
		return nil, err
	}
	return u, nil
}

// Validate checks the entity's field-level invariants.
func (u *User) Validate() error {
	if u.ID == "" {
		return errors.Validation("id cannot be empty")
	}
	if !emailPattern.MatchString(u.Email) {
		return errors.Validation("invalid email address")
	}
	if !usernamePattern.MatchString(u.Username) {
		return errors.Validation("username must be 3-64 chars of lower-case letters, digits, '.', '_' or '-'")
	}
	if u.FullName == "" {
		return errors.Validation("full name cannot be empty")
	}
	if len(u.FullName) > 256 {
		return errors.Validation("full name cannot be longer than 256 characters")
	}
	if !u.Role.Valid() {
		return errors.Validation("invalid role: " + string(u.Role))
	}
	switch u.Status {
	case StatusActive, StatusSuspended:
	default:
		return errors.Validation("invalid status: " + string(u.Status))
	}
	return nil
}

// CanAuthenticate reports whether the account may log in or use a token.
func (u *User) CanAuthenticate() bool {
	return u.Status == StatusActive
}

// IsManager reports whether the user holds the manager role.
func (u *User) IsManager() bool { return u.Role == RoleManager }

// IsLeadGen reports whether the user holds the lead-gen role.
func (u *User) IsLeadGen() bool { return u.Role == RoleLeadGen }

// IsSales reports whether the user holds the sales role.
func (u *User) IsSales() bool { return u.Role == RoleSales }

// Suspend blocks the account from authenticating.
func (u *User) Suspend() error {
	if u.Status == StatusSuspended {
		return errors.InvalidState("user is already suspended")
	}
	u.Status = StatusSuspended
	u.touch()
	return nil
}

// Reactivate restores a suspended account.
func (u *User) Reactivate() error {
	if u.Status == StatusActive {
		return errors.InvalidState("user is already active")
	}
	u.Status = StatusActive
	u.touch()
	return nil
}

// ChangeRole switches the user to a new role. Whether the change is allowed
// in the presence of live assignments is decided by the directory service,
// which can see the assignment tables.
func (u *User) ChangeRole(role Role) error {
	if !role.Valid() {
		return errors.Validation("invalid role: " + string(role))
	}
	if u.Role == role {
		return nil
	}
	u.Role = role
	u.touch()
	return nil
}

// Rename updates the display name.
func (u *User) Rename(fullName string) error {
	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		return errors.Validation("full name cannot be empty")
	}
	if len(fullName) > 256 {
		return errors.Validation("full name cannot be longer than 256 characters")
	}
	u.FullName = fullName
	u.touch()
	return nil
}

// SetPasswordHash stores a new bcrypt hash.
func (u *User) SetPasswordHash(hash string) error {
	if hash == "" {
		return errors.Validation("password hash cannot be empty")
	}
	u.PasswordHash = hash
	u.touch()
	return nil
}

func (u *User) touch() {
	u.UpdatedAt = time.Time(common.NewTimestamp())
}
