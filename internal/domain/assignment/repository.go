package assignment

import (
	"context"

	"github.com/relayops/leadtrack/pkg/types/common"
)

// ListFilter defines filtering options for listing assignments.
type ListFilter struct {
	UserID    common.ID // empty matches all users
	ProfileID common.ID // empty matches all profiles
	Offset    int
	Limit     int
}

// LeadGenRepository defines the persistence contract for lead-gen
// assignments. The one-to-one shape is enforced by unique constraints on
// both the user and the profile column; Create surfaces violations as
// conflict errors.
type LeadGenRepository interface {
	Create(ctx context.Context, a *LeadGenAssignment) error
	GetByID(ctx context.Context, id common.ID) (*LeadGenAssignment, error)
	GetByUser(ctx context.Context, userID common.ID) (*LeadGenAssignment, error)
	GetByProfile(ctx context.Context, profileID common.ID) (*LeadGenAssignment, error)
	List(ctx context.Context, filter ListFilter) ([]*LeadGenAssignment, int64, error)
	Delete(ctx context.Context, id common.ID) error
}

// SalesRepository defines the persistence contract for sales assignments.
// The (user, profile) pair is unique; Create surfaces violations as conflict
// errors.
type SalesRepository interface {
	Create(ctx context.Context, a *SalesAssignment) error
	GetByID(ctx context.Context, id common.ID) (*SalesAssignment, error)
	GetByPair(ctx context.Context, userID, profileID common.ID) (*SalesAssignment, error)
	List(ctx context.Context, filter ListFilter) ([]*SalesAssignment, int64, error)
	Delete(ctx context.Context, id common.ID) error
}
