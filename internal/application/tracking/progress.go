package tracking

import (
	"context"

	"github.com/relayops/leadtrack/internal/domain/activity"
	"github.com/relayops/leadtrack/internal/domain/progress"
	"github.com/relayops/leadtrack/internal/domain/user"
	"github.com/relayops/leadtrack/internal/infrastructure/auth"
	"github.com/relayops/leadtrack/internal/infrastructure/monitoring/logging"
	"github.com/relayops/leadtrack/pkg/errors"
	"github.com/relayops/leadtrack/pkg/types/common"
)

// RecordProgressInput carries one day's numbers. UserID may be left empty
// by lead-gen members recording their own work; managers must name one.
type RecordProgressInput struct {
	UserID      common.ID   `json:"user_id,omitempty"`
	ProfileID   common.ID   `json:"profile_id"`
	WorkDate    common.Date `json:"work_date"`
	JobsFetched int         `json:"jobs_fetched"`
	JobsApplied int         `json:"jobs_applied"`
	Notes       string      `json:"notes,omitempty"`
}

// ReviseProgressInput replaces a day's counts and notes. The work date and
// the pair are fixed.
type ReviseProgressInput struct {
	ID          common.ID `json:"id"`
	JobsFetched int       `json:"jobs_fetched"`
	JobsApplied int       `json:"jobs_applied"`
	Notes       string    `json:"notes,omitempty"`
}

// ListProgressInput filters and paginates progress updates.
type ListProgressInput struct {
	UserID    common.ID   `json:"user_id,omitempty"`
	ProfileID common.ID   `json:"profile_id,omitempty"`
	From      common.Date `json:"from,omitempty"`
	To        common.Date `json:"to,omitempty"`
	Page      int         `json:"page"`
	PageSize  int         `json:"page_size"`
}

// ProgressList is one page of progress updates.
type ProgressList struct {
	Updates    []*progress.ProgressUpdate `json:"updates"`
	Total      int64                      `json:"total"`
	Page       int                        `json:"page"`
	PageSize   int                        `json:"page_size"`
	TotalPages int                        `json:"total_pages"`
}

func (s *serviceImpl) RecordProgress(ctx context.Context, actor *auth.Claims, input *RecordProgressInput) (*progress.ProgressUpdate, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if input == nil {
		return nil, errors.Validation("record progress input must not be nil")
	}
	if input.ProfileID == "" {
		return nil, errors.Validation("profile_id is required")
	}

	userID, err := resolveSubject(actor, input.UserID, user.RoleLeadGen)
	if err != nil {
		return nil, err
	}
	if err := s.ensureLeadGenPair(ctx, userID, input.ProfileID, errors.ErrCodeProgressNotAssigned); err != nil {
		return nil, err
	}

	p, err := progress.New(userID, input.ProfileID, input.WorkDate, input.JobsFetched, input.JobsApplied, input.Notes)
	if err != nil {
		return nil, err
	}
	// One row per (user, profile, work date); the schema turns a re-record
	// into a conflict.
	if err := s.progress.Create(ctx, p); err != nil {
		return nil, err
	}

	s.publish(ctx, actor.UserID, activity.ActionProgressRecorded, "progress", p.ID, map[string]any{
		"user_id":      string(p.UserID),
		"profile_id":   string(p.ProfileID),
		"work_date":    p.WorkDate.String(),
		"jobs_fetched": p.JobsFetched,
		"jobs_applied": p.JobsApplied,
	})
	s.logger.Info("Progress recorded",
		logging.String("progress_id", string(p.ID)),
		logging.String("user_id", string(p.UserID)),
		logging.String("work_date", p.WorkDate.String()))
	return p, nil
}

func (s *serviceImpl) GetProgress(ctx context.Context, actor *auth.Claims, id common.ID) (*progress.ProgressUpdate, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if id == "" {
		return nil, errors.InvalidParam("progress id is required")
	}
	p, err := s.progress.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canTouch(actor, p.UserID) {
		return nil, auth.ErrAccessDenied
	}
	return p, nil
}

func (s *serviceImpl) ListProgress(ctx context.Context, actor *auth.Claims, input *ListProgressInput) (*ProgressList, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if input == nil {
		input = &ListProgressInput{}
	}
	page, pageSize := normalizePage(input.Page, input.PageSize)

	updates, total, err := s.progress.List(ctx, progress.ListFilter{
		UserID:    scopeToActor(actor, input.UserID),
		ProfileID: input.ProfileID,
		From:      input.From,
		To:        input.To,
		Offset:    (page - 1) * pageSize,
		Limit:     pageSize,
	})
	if err != nil {
		return nil, err
	}
	return &ProgressList{
		Updates:    updates,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages(total, pageSize),
	}, nil
}

func (s *serviceImpl) ReviseProgress(ctx context.Context, actor *auth.Claims, input *ReviseProgressInput) (*progress.ProgressUpdate, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if input == nil || input.ID == "" {
		return nil, errors.InvalidParam("progress id is required")
	}

	p, err := s.progress.GetByID(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	if !canTouch(actor, p.UserID) {
		return nil, auth.ErrAccessDenied
	}
	if err := p.Revise(input.JobsFetched, input.JobsApplied, input.Notes); err != nil {
		return nil, err
	}
	if err := s.progress.Update(ctx, p); err != nil {
		return nil, err
	}

	s.publish(ctx, actor.UserID, activity.ActionProgressRevised, "progress", p.ID, map[string]any{
		"user_id":      string(p.UserID),
		"work_date":    p.WorkDate.String(),
		"jobs_fetched": p.JobsFetched,
		"jobs_applied": p.JobsApplied,
	})
	return p, nil
}

func (s *serviceImpl) DeleteProgress(ctx context.Context, actor *auth.Claims, id common.ID) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	if id == "" {
		return errors.InvalidParam("progress id is required")
	}

	p, err := s.progress.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !canTouch(actor, p.UserID) {
		return auth.ErrAccessDenied
	}
	if err := s.progress.Delete(ctx, id); err != nil {
		return err
	}

	s.publish(ctx, actor.UserID, activity.ActionProgressDeleted, "progress", id, map[string]any{
		"user_id":   string(p.UserID),
		"work_date": p.WorkDate.String(),
	})
	return nil
}
