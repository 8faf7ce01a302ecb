package progress

import (
	"context"

	"github.com/relayops/leadtrack/pkg/types/common"
)

// ListFilter defines filtering options for listing progress updates.
type ListFilter struct {
	UserID    common.ID   // empty matches all users
	ProfileID common.ID   // empty matches all profiles
	From      common.Date // zero means open start
	To        common.Date // zero means open end
	Offset    int
	Limit     int
}

// PairTotals aggregates a user-profile pair's counts over a range.
type PairTotals struct {
	UserID      common.ID `json:"user_id"`
	ProfileID   common.ID `json:"profile_id"`
	JobsFetched int       `json:"jobs_fetched"`
	JobsApplied int       `json:"jobs_applied"`
	DaysWorked  int       `json:"days_worked"`
}

// Repository defines the persistence contract for progress updates.
type Repository interface {
	Create(ctx context.Context, p *ProgressUpdate) error
	GetByID(ctx context.Context, id common.ID) (*ProgressUpdate, error)
	// GetByPairAndDate returns the unique row for (user, profile, work date),
	// or a not-found error.
	GetByPairAndDate(ctx context.Context, userID, profileID common.ID, workDate common.Date) (*ProgressUpdate, error)
	List(ctx context.Context, filter ListFilter) ([]*ProgressUpdate, int64, error)
	Update(ctx context.Context, p *ProgressUpdate) error
	Delete(ctx context.Context, id common.ID) error

	// ListInRange returns every update with a work date inside the range,
	// for any pair. The reporting engine builds its per-day grid from this.
	ListInRange(ctx context.Context, period common.DateRange) ([]*ProgressUpdate, error)

	// SummarizeRange returns per-pair totals over the range, grouped in SQL.
	SummarizeRange(ctx context.Context, period common.DateRange) ([]PairTotals, error)
}
