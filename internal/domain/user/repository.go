package user

import (
	"context"

	"github.com/relayops/leadtrack/pkg/types/common"
)

// ListFilter defines filtering options for listing users.
type ListFilter struct {
	Role   Role   // empty matches all roles
	Status Status // empty matches all statuses
	Search string // case-insensitive substring over full name, email, username
	Offset int
	Limit  int
}

// Repository defines the persistence contract for user accounts.
type Repository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id common.ID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	List(ctx context.Context, filter ListFilter) ([]*User, int64, error)
	Update(ctx context.Context, u *User) error
	Delete(ctx context.Context, id common.ID) error
}
