// Package progress holds the daily work log of lead-gen members: per day and
// per profile, how many jobs were fetched and how many applications went out.
package progress

import (
	"strings"
	"time"

	"github.com/relayops/leadtrack/pkg/errors"
	"github.com/relayops/leadtrack/pkg/types/common"
)

const maxNotesLen = 2000

// ProgressUpdate is one day's numbers for a user-profile pair. The schema
// allows exactly one row per (user, profile, work date).
type ProgressUpdate struct {
	ID          common.ID   `json:"id"`
	UserID      common.ID   `json:"user_id"`
	ProfileID   common.ID   `json:"profile_id"`
	WorkDate    common.Date `json:"work_date"`
	JobsFetched int         `json:"jobs_fetched"`
	JobsApplied int         `json:"jobs_applied"`
	Notes       string      `json:"notes,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// New creates a progress update for one work date.
func New(userID, profileID common.ID, workDate common.Date, jobsFetched, jobsApplied int, notes string) (*ProgressUpdate, error) {
	p := &ProgressUpdate{
		ID:          common.NewID(),
		UserID:      userID,
		ProfileID:   profileID,
		WorkDate:    workDate,
		JobsFetched: jobsFetched,
		JobsApplied: jobsApplied,
		Notes:       strings.TrimSpace(notes),
	}
	now := time.Time(common.NewTimestamp())
	p.CreatedAt = now
	p.UpdatedAt = now

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate checks the entity's field-level invariants.
func (p *ProgressUpdate) Validate() error {
	if p.ID == "" {
		return errors.Validation("id cannot be empty")
	}
	if p.UserID == "" {
		return errors.Validation("user_id cannot be empty")
	}
	if p.ProfileID == "" {
		return errors.Validation("profile_id cannot be empty")
	}
	if p.WorkDate.IsZero() {
		return errors.Validation("work date is required")
	}
	if p.WorkDate.After(common.Today()) {
		return errors.New(errors.ErrCodeProgressFutureDate, "work date cannot be in the future")
	}
	if p.JobsFetched < 0 || p.JobsApplied < 0 {
		return errors.Validation("progress counts cannot be negative")
	}
	if len(p.Notes) > maxNotesLen {
		return errors.Validation("notes cannot be longer than 2000 characters")
	}
	return nil
}

// Revise replaces the counts and notes. The work date and the pair are
// fixed; a wrong date means delete and re-record.
func (p *ProgressUpdate) Revise(jobsFetched, jobsApplied int, notes string) error {
	prev := *p
	p.JobsFetched = jobsFetched
	p.JobsApplied = jobsApplied
	p.Notes = strings.TrimSpace(notes)

	if err := p.Validate(); err != nil {
		*p = prev
		return err
	}
	p.UpdatedAt = time.Time(common.NewTimestamp())
	return nil
}
