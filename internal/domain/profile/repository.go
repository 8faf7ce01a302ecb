package profile

import (
	"context"

	"github.com/relayops/leadtrack/pkg/types/common"
)

// ListFilter defines filtering options for listing profiles.
type ListFilter struct {
	Status Status // empty matches all statuses
	Search string // case-insensitive substring over the full name
	Offset int
	Limit  int
}

// Repository defines the persistence contract for profiles.
type Repository interface {
	Create(ctx context.Context, p *Profile) error
	GetByID(ctx context.Context, id common.ID) (*Profile, error)
	List(ctx context.Context, filter ListFilter) ([]*Profile, int64, error)
	Update(ctx context.Context, p *Profile) error
	Delete(ctx context.Context, id common.ID) error
}
