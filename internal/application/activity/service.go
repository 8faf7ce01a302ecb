// Package activity provides the application service for the audit trail.
// The worker records rows from consumed events, the API lists them, and the
// CLI prunes old ones.
package activity

import (
	"context"
	"time"

	domainactivity "github.com/relayops/leadtrack/internal/domain/activity"
	"github.com/relayops/leadtrack/internal/infrastructure/monitoring/logging"
	"github.com/relayops/leadtrack/pkg/errors"
	"github.com/relayops/leadtrack/pkg/types/common"
)

// Service defines the audit-trail operations.
type Service interface {
	Record(ctx context.Context, input *RecordInput) (*domainactivity.ActivityRecord, error)
	List(ctx context.Context, input *ListInput) (*ListResult, error)
	Purge(ctx context.Context, before time.Time) (int64, error)
}

// RecordInput carries one audit row, usually decoded from an activity event.
type RecordInput struct {
	ActorID    common.ID
	Action     string
	EntityType string
	EntityID   common.ID
	Detail     map[string]any
	OccurredAt time.Time
}

// ListInput filters and paginates the trail.
type ListInput struct {
	ActorID    common.ID
	Action     string
	EntityType string
	EntityID   common.ID
	From       time.Time
	To         time.Time
	Page       int
	PageSize   int
}

// ListResult is one page of the trail.
type ListResult struct {
	Records    []*domainactivity.ActivityRecord `json:"records"`
	Total      int64                            `json:"total"`
	Page       int                              `json:"page"`
	PageSize   int                              `json:"page_size"`
	TotalPages int                              `json:"total_pages"`
}

type serviceImpl struct {
	repo   domainactivity.Repository
	logger logging.Logger
}

// NewService creates the audit-trail service.
func NewService(repo domainactivity.Repository, logger logging.Logger) Service {
	return &serviceImpl{repo: repo, logger: logger}
}

func (s *serviceImpl) Record(ctx context.Context, input *RecordInput) (*domainactivity.ActivityRecord, error) {
	if input == nil {
		return nil, errors.Validation("record input must not be nil")
	}
	rec, err := domainactivity.New(input.ActorID, input.Action, input.EntityType, input.EntityID, input.Detail, input.OccurredAt)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *serviceImpl) List(ctx context.Context, input *ListInput) (*ListResult, error) {
	if input == nil {
		input = &ListInput{}
	}
	if !input.From.IsZero() && !input.To.IsZero() && input.To.Before(input.From) {
		return nil, errors.Validation("'from' must be before or equal to 'to'")
	}
	page, pageSize := normalizePage(input.Page, input.PageSize)

	records, total, err := s.repo.List(ctx, domainactivity.ListFilter{
		ActorID:    input.ActorID,
		Action:     input.Action,
		EntityType: input.EntityType,
		EntityID:   input.EntityID,
		From:       input.From,
		To:         input.To,
		Offset:     (page - 1) * pageSize,
		Limit:      pageSize,
	})
	if err != nil {
		return nil, err
	}
	return &ListResult{
		Records:    records,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages(total, pageSize),
	}, nil
}

func (s *serviceImpl) Purge(ctx context.Context, before time.Time) (int64, error) {
	if before.IsZero() {
		return 0, errors.InvalidParam("purge cutoff is required")
	}
	removed, err := s.repo.Purge(ctx, before)
	if err != nil {
		return 0, err
	}
	s.logger.Info("Activity records purged",
		logging.Int64("removed", removed),
		logging.Time("before", before))
	return removed, nil
}

func normalizePage(page, pageSize int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize
}

func totalPages(total int64, pageSize int) int {
	if pageSize <= 0 {
		return 0
	}
	return int((total + int64(pageSize) - 1) / int64(pageSize))
}
