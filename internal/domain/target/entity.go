// Package target holds the numeric goals managers set for a user-profile
// pair: how many jobs to fetch and how many to apply to over a date range.
package target

import (
	"time"

	"github.com/relayops/leadtrack/pkg/errors"
	"github.com/relayops/leadtrack/pkg/types/common"
)

// Target is a job-fetch/apply goal for one user-profile pair over a period.
// Periods for the same pair never overlap; the tracking service checks the
// existing rows before a target is created or revised.
type Target struct {
	ID          common.ID   `json:"id"`
	UserID      common.ID   `json:"user_id"`
	ProfileID   common.ID   `json:"profile_id"`
	JobsToFetch int         `json:"jobs_to_fetch"`
	JobsToApply int         `json:"jobs_to_apply"`
	PeriodStart common.Date `json:"period_start"`
	PeriodEnd   common.Date `json:"period_end"`
	SetBy       common.ID   `json:"set_by"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// New creates a target for the given pair and period.
func New(userID, profileID, setBy common.ID, jobsToFetch, jobsToApply int, period common.DateRange) (*Target, error) {
	tg := &Target{
		ID:          common.NewID(),
		UserID:      userID,
		ProfileID:   profileID,
		JobsToFetch: jobsToFetch,
		JobsToApply: jobsToApply,
		PeriodStart: period.From,
		PeriodEnd:   period.To,
		SetBy:       setBy,
	}
	now := time.Time(common.NewTimestamp())
	tg.CreatedAt = now
	tg.UpdatedAt = now

	if err := tg.Validate(); err != nil {
		return nil, err
	}
	return tg, nil
}

// Validate checks the entity's field-level invariants.
func (t *Target) Validate() error {
	if t.ID == "" {
		return errors.Validation("id cannot be empty")
	}
	if t.UserID == "" {
		return errors.Validation("user_id cannot be empty")
	}
	if t.ProfileID == "" {
		return errors.Validation("profile_id cannot be empty")
	}
	if t.SetBy == "" {
		return errors.Validation("set_by cannot be empty")
	}
	if t.JobsToFetch < 0 || t.JobsToApply < 0 {
		return errors.New(errors.ErrCodeTargetCountsInvalid, "target counts cannot be negative")
	}
	if t.JobsToFetch == 0 && t.JobsToApply == 0 {
		return errors.New(errors.ErrCodeTargetCountsInvalid, "at least one target count must be positive")
	}
	if t.PeriodStart.IsZero() || t.PeriodEnd.IsZero() {
		return errors.New(errors.ErrCodeTargetPeriodInvalid, "target period is required")
	}
	if t.PeriodStart.After(t.PeriodEnd) {
		return errors.New(errors.ErrCodeTargetPeriodInvalid, "period start must not be after period end")
	}
	return nil
}

// Period returns the target's date range.
func (t *Target) Period() common.DateRange {
	return common.DateRange{From: t.PeriodStart, To: t.PeriodEnd}
}

// ActiveOn reports whether the target covers the given date.
func (t *Target) ActiveOn(d common.Date) bool {
	return t.Period().Contains(d)
}

// Overlaps reports whether two targets for the same pair share any day.
// Targets for different pairs never conflict.
func (t *Target) Overlaps(other *Target) bool {
	if other == nil || t.UserID != other.UserID || t.ProfileID != other.ProfileID {
		return false
	}
	return t.Period().Overlaps(other.Period())
}

// Revise replaces the counts and the period in one shot.
func (t *Target) Revise(jobsToFetch, jobsToApply int, period common.DateRange) error {
	prev := *t
	t.JobsToFetch = jobsToFetch
	t.JobsToApply = jobsToApply
	t.PeriodStart = period.From
	t.PeriodEnd = period.To

	if err := t.Validate(); err != nil {
		*t = prev
		return err
	}
	t.UpdatedAt = time.Time(common.NewTimestamp())
	return nil
}
