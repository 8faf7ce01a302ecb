package tracking

import (
	"context"

	"github.com/relayops/leadtrack/internal/domain/activity"
	"github.com/relayops/leadtrack/internal/domain/target"
	"github.com/relayops/leadtrack/internal/infrastructure/auth"
	"github.com/relayops/leadtrack/internal/infrastructure/monitoring/logging"
	"github.com/relayops/leadtrack/pkg/errors"
	"github.com/relayops/leadtrack/pkg/types/common"
)

// SetTargetInput carries a new target for a user-profile pair.
type SetTargetInput struct {
	UserID      common.ID   `json:"user_id"`
	ProfileID   common.ID   `json:"profile_id"`
	JobsToFetch int         `json:"jobs_to_fetch"`
	JobsToApply int         `json:"jobs_to_apply"`
	PeriodStart common.Date `json:"period_start"`
	PeriodEnd   common.Date `json:"period_end"`
}

// ReviseTargetInput replaces a target's counts and period in one shot.
type ReviseTargetInput struct {
	ID          common.ID   `json:"id"`
	JobsToFetch int         `json:"jobs_to_fetch"`
	JobsToApply int         `json:"jobs_to_apply"`
	PeriodStart common.Date `json:"period_start"`
	PeriodEnd   common.Date `json:"period_end"`
}

// ListTargetsInput filters and paginates targets.
type ListTargetsInput struct {
	UserID    common.ID   `json:"user_id,omitempty"`
	ProfileID common.ID   `json:"profile_id,omitempty"`
	ActiveOn  common.Date `json:"active_on,omitempty"`
	Page      int         `json:"page"`
	PageSize  int         `json:"page_size"`
}

// TargetList is one page of targets.
type TargetList struct {
	Targets    []*target.Target `json:"targets"`
	Total      int64            `json:"total"`
	Page       int              `json:"page"`
	PageSize   int              `json:"page_size"`
	TotalPages int              `json:"total_pages"`
}

func (s *serviceImpl) SetTarget(ctx context.Context, actor *auth.Claims, input *SetTargetInput) (*target.Target, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if input == nil {
		return nil, errors.Validation("set target input must not be nil")
	}
	if input.UserID == "" || input.ProfileID == "" {
		return nil, errors.Validation("user_id and profile_id are required")
	}
	period := common.DateRange{From: input.PeriodStart, To: input.PeriodEnd}
	if err := validPeriod(period); err != nil {
		return nil, err
	}

	if err := s.ensureLeadGenPair(ctx, input.UserID, input.ProfileID, errors.ErrCodeTargetNoAssignment); err != nil {
		return nil, err
	}
	if err := s.ensureNoOverlap(ctx, input.UserID, input.ProfileID, period, ""); err != nil {
		return nil, err
	}

	t, err := target.New(input.UserID, input.ProfileID, actor.UserID, input.JobsToFetch, input.JobsToApply, period)
	if err != nil {
		return nil, err
	}
	if err := s.targets.Create(ctx, t); err != nil {
		return nil, err
	}

	s.publish(ctx, actor.UserID, activity.ActionTargetSet, "target", t.ID, map[string]any{
		"user_id":       string(t.UserID),
		"profile_id":    string(t.ProfileID),
		"jobs_to_fetch": t.JobsToFetch,
		"jobs_to_apply": t.JobsToApply,
	})
	s.logger.Info("Target set",
		logging.String("target_id", string(t.ID)),
		logging.String("user_id", string(t.UserID)),
		logging.String("profile_id", string(t.ProfileID)),
		logging.String("period", t.PeriodStart.String()+".."+t.PeriodEnd.String()))
	return t, nil
}

func (s *serviceImpl) GetTarget(ctx context.Context, actor *auth.Claims, id common.ID) (*target.Target, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if id == "" {
		return nil, errors.InvalidParam("target id is required")
	}
	t, err := s.targets.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canTouch(actor, t.UserID) {
		return nil, auth.ErrAccessDenied
	}
	return t, nil
}

func (s *serviceImpl) ListTargets(ctx context.Context, actor *auth.Claims, input *ListTargetsInput) (*TargetList, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if input == nil {
		input = &ListTargetsInput{}
	}
	page, pageSize := normalizePage(input.Page, input.PageSize)

	targets, total, err := s.targets.List(ctx, target.ListFilter{
		UserID:    scopeToActor(actor, input.UserID),
		ProfileID: input.ProfileID,
		ActiveOn:  input.ActiveOn,
		Offset:    (page - 1) * pageSize,
		Limit:     pageSize,
	})
	if err != nil {
		return nil, err
	}
	return &TargetList{
		Targets:    targets,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages(total, pageSize),
	}, nil
}

func (s *serviceImpl) ReviseTarget(ctx context.Context, actor *auth.Claims, input *ReviseTargetInput) (*target.Target, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if input == nil || input.ID == "" {
		return nil, errors.InvalidParam("target id is required")
	}
	period := common.DateRange{From: input.PeriodStart, To: input.PeriodEnd}
	if err := validPeriod(period); err != nil {
		return nil, err
	}

	t, err := s.targets.GetByID(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureNoOverlap(ctx, t.UserID, t.ProfileID, period, t.ID); err != nil {
		return nil, err
	}
	if err := t.Revise(input.JobsToFetch, input.JobsToApply, period); err != nil {
		return nil, err
	}
	if err := s.targets.Update(ctx, t); err != nil {
		return nil, err
	}

	s.publish(ctx, actor.UserID, activity.ActionTargetRevised, "target", t.ID, map[string]any{
		"user_id":       string(t.UserID),
		"profile_id":    string(t.ProfileID),
		"jobs_to_fetch": t.JobsToFetch,
		"jobs_to_apply": t.JobsToApply,
	})
	return t, nil
}

func (s *serviceImpl) DeleteTarget(ctx context.Context, actor *auth.Claims, id common.ID) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	if id == "" {
		return errors.InvalidParam("target id is required")
	}

	t, err := s.targets.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.targets.Delete(ctx, id); err != nil {
		return err
	}

	s.publish(ctx, actor.UserID, activity.ActionTargetDeleted, "target", id, map[string]any{
		"user_id":    string(t.UserID),
		"profile_id": string(t.ProfileID),
	})
	s.logger.Info("Target deleted", logging.String("target_id", string(id)))
	return nil
}

// validPeriod checks a requested period before it reaches the overlap query.
func validPeriod(period common.DateRange) error {
	if period.From.IsZero() || period.To.IsZero() {
		return errors.New(errors.ErrCodeTargetPeriodInvalid, "target period is required")
	}
	if period.From.After(period.To) {
		return errors.New(errors.ErrCodeTargetPeriodInvalid, "period start must not be after period end")
	}
	return nil
}

// ensureNoOverlap rejects a period that shares a day with another target for
// the pair. Pass the empty ID when creating.
func (s *serviceImpl) ensureNoOverlap(ctx context.Context, userID, profileID common.ID, period common.DateRange, excludeID common.ID) error {
	overlapping, err := s.targets.FindOverlapping(ctx, userID, profileID, period, excludeID)
	if err != nil {
		return err
	}
	if len(overlapping) > 0 {
		other := overlapping[0]
		return errors.Newf(errors.ErrCodeTargetOverlap,
			"period overlaps target %s (%s to %s)", other.ID, other.PeriodStart, other.PeriodEnd)
	}
	return nil
}
