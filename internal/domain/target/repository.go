package target

import (
	"context"

	"github.com/relayops/leadtrack/pkg/types/common"
)

// ListFilter defines filtering options for listing targets.
type ListFilter struct {
	UserID    common.ID   // empty matches all users
	ProfileID common.ID   // empty matches all profiles
	ActiveOn  common.Date // zero matches any period
	Offset    int
	Limit     int
}

// Repository defines the persistence contract for targets.
type Repository interface {
	Create(ctx context.Context, t *Target) error
	GetByID(ctx context.Context, id common.ID) (*Target, error)
	List(ctx context.Context, filter ListFilter) ([]*Target, int64, error)
	Update(ctx context.Context, t *Target) error
	Delete(ctx context.Context, id common.ID) error

	// GetActiveFor returns the target covering date for the pair, or a
	// not-found error when no period contains it.
	GetActiveFor(ctx context.Context, userID, profileID common.ID, date common.Date) (*Target, error)

	// FindOverlapping returns targets for the pair whose periods share at
	// least one day with the given range, excluding excludeID (pass the
	// empty ID when creating).
	FindOverlapping(ctx context.Context, userID, profileID common.ID, period common.DateRange, excludeID common.ID) ([]*Target, error)

	// ListInRange returns every target, for any pair, whose period overlaps
	// the range. The reporting engine uses it to pick up active targets.
	ListInRange(ctx context.Context, period common.DateRange) ([]*Target, error)
}
