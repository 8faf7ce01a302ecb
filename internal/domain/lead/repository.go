package lead

import (
	"context"

	"github.com/relayops/leadtrack/pkg/types/common"
)

// ListFilter defines filtering options for listing leads.
type ListFilter struct {
	ProfileID common.ID   // empty matches all profiles
	UserID    common.ID   // empty matches all users
	Status    Status      // empty matches all statuses
	From      common.Date // zero means open start, matched against lead date
	To        common.Date // zero means open end
	Offset    int
	Limit     int
}

// StatusCount is one pipeline stage's row count.
type StatusCount struct {
	UserID    common.ID `json:"user_id"`
	ProfileID common.ID `json:"profile_id"`
	Status    Status    `json:"status"`
	Count     int64     `json:"count"`
}

// Repository defines the persistence contract for lead entries.
type Repository interface {
	Create(ctx context.Context, l *LeadEntry) error
	GetByID(ctx context.Context, id common.ID) (*LeadEntry, error)
	List(ctx context.Context, filter ListFilter) ([]*LeadEntry, int64, error)
	Update(ctx context.Context, l *LeadEntry) error
	Delete(ctx context.Context, id common.ID) error

	// ListInRange returns every lead whose lead date falls inside the range.
	ListInRange(ctx context.Context, period common.DateRange) ([]*LeadEntry, error)

	// CountByStatus returns per-pair, per-stage counts over the range,
	// grouped in SQL. The reporting engine turns these into pipeline columns.
	CountByStatus(ctx context.Context, period common.DateRange) ([]StatusCount, error)
}
