package activity

import (
	"context"
	"time"

	"github.com/relayops/leadtrack/pkg/types/common"
)

// ListFilter defines filtering options for listing activity records.
type ListFilter struct {
	ActorID    common.ID // empty matches all actors
	Action     string    // empty matches all actions
	EntityType string    // empty matches all entity types
	EntityID   common.ID // empty matches all entities
	From       time.Time // zero means open start
	To         time.Time // zero means open end
	Offset     int
	Limit      int
}

// Repository defines the persistence contract for the audit trail.
type Repository interface {
	Create(ctx context.Context, r *ActivityRecord) error
	List(ctx context.Context, filter ListFilter) ([]*ActivityRecord, int64, error)
	// Purge deletes records that occurred before the cutoff and returns the
	// number of rows removed.
	Purge(ctx context.Context, before time.Time) (int64, error)
}
