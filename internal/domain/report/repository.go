package report

import (
	"context"

	"github.com/relayops/leadtrack/pkg/types/common"
)

// ListFilter defines filtering options for listing artifacts.
type ListFilter struct {
	Kind   Kind           // empty matches both kinds
	Format Format         // empty matches all formats
	Status ArtifactStatus // empty matches all statuses
	Offset int
	Limit  int
}

// Repository defines the persistence contract for report artifacts.
type Repository interface {
	Create(ctx context.Context, a *Artifact) error
	GetByID(ctx context.Context, id common.ID) (*Artifact, error)
	List(ctx context.Context, filter ListFilter) ([]*Artifact, int64, error)
	Delete(ctx context.Context, id common.ID) error
}
