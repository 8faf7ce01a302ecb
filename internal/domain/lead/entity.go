// Package lead holds the sales pipeline: job leads recorded against a
// profile and walked through a fixed status pipeline until placed or dead.
package lead

import (
	"strings"
	"time"

	"github.com/relayops/leadtrack/pkg/errors"
	"github.com/relayops/leadtrack/pkg/types/common"
)

// Status is a stage in the lead pipeline.
type Status string

const (
	StatusNew          Status = "new"
	StatusContacted    Status = "contacted"
	StatusInterviewing Status = "interviewing"
	StatusOffer        Status = "offer"
	StatusPlaced       Status = "placed"
	StatusDead         Status = "dead"
)

// validTransitions is the pipeline. Forward one step at a time; dead is
// reachable from any non-terminal stage; placed and dead are terminal.
var validTransitions = map[Status][]Status{
	StatusNew:          {StatusContacted, StatusDead},
	StatusContacted:    {StatusInterviewing, StatusDead},
	StatusInterviewing: {StatusOffer, StatusDead},
	StatusOffer:        {StatusPlaced, StatusDead},
}

// Valid reports whether the status is a known pipeline stage.
func (s Status) Valid() bool {
	switch s {
	case StatusNew, StatusContacted, StatusInterviewing, StatusOffer, StatusPlaced, StatusDead:
		return true
	}
	return false
}

// Terminal reports whether the status ends the pipeline.
func (s Status) Terminal() bool {
	return s == StatusPlaced || s == StatusDead
}

// CanTransition reports whether from → to is a legal pipeline step.
func CanTransition(from, to Status) bool {
	for _, t := range validTransitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// LeadEntry is one job lead a sales member is working for a profile.
type LeadEntry struct {
	ID           common.ID   `json:"id"`
	ProfileID    common.ID   `json:"profile_id"`
	UserID       common.ID   `json:"user_id"`
	Company      string      `json:"company"`
	Position     string      `json:"position,omitempty"`
	ContactName  string      `json:"contact_name,omitempty"`
	ContactEmail string      `json:"contact_email,omitempty"`
	ContactPhone string      `json:"contact_phone,omitempty"`
	Source       string      `json:"source,omitempty"`
	Status       Status      `json:"status"`
	Notes        string      `json:"notes,omitempty"`
	LeadDate     common.Date `json:"lead_date"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}

// New creates a lead in the "new" stage.
func New(profileID, userID common.ID, company, position string, leadDate common.Date) (*LeadEntry, error) {
	l := &LeadEntry{
		ID:        common.NewID(),
		ProfileID: profileID,
		UserID:    userID,
		Company:   strings.TrimSpace(company),
		Position:  strings.TrimSpace(position),
		Status:    StatusNew,
		LeadDate:  leadDate,
	}
	now := time.Time(common.NewTimestamp())
	l.CreatedAt = now
	l.UpdatedAt = now

	if err := l.Validate(); err != nil {
		return nil, err
	}
	return l, nil
}

// Validate checks the entity's field-level invariants.
func (l *LeadEntry) Validate() error {
	if l.ID == "" {
		return errors.Validation("id cannot be empty")
	}
	if l.ProfileID == "" {
		return errors.Validation("profile_id cannot be empty")
	}
	if l.UserID == "" {
		return errors.Validation("user_id cannot be empty")
	}
	if l.Company == "" {
		return errors.Validation("company cannot be empty")
	}
	if len(l.Company) > 256 {
		return errors.Validation("company cannot be longer than 256 characters")
	}
	if l.LeadDate.IsZero() {
		return errors.Validation("lead date is required")
	}
	if !l.Status.Valid() {
		return errors.Validation("invalid status: " + string(l.Status))
	}
	return nil
}

// TransitionTo moves the lead to the next pipeline stage.
func (l *LeadEntry) TransitionTo(to Status) error {
	if !to.Valid() {
		return errors.Validation("invalid status: " + string(to))
	}
	if l.Status.Terminal() {
		return errors.Newf(errors.ErrCodeLeadTerminalStatus,
			"lead is already %s", l.Status)
	}
	if !CanTransition(l.Status, to) {
		return errors.Newf(errors.ErrCodeLeadInvalidTransition,
			"cannot move lead from %s to %s", l.Status, to)
	}
	l.Status = to
	l.touch()
	return nil
}

// UpdateDetails replaces the editable fields. Status is untouched; use
// TransitionTo for pipeline moves.
func (l *LeadEntry) UpdateDetails(company, position, contactName, contactEmail, contactPhone, source, notes string) error {
	prev := *l
	l.Company = strings.TrimSpace(company)
	l.Position = strings.TrimSpace(position)
	l.ContactName = strings.TrimSpace(contactName)
	l.ContactEmail = strings.ToLower(strings.TrimSpace(contactEmail))
	l.ContactPhone = strings.TrimSpace(contactPhone)
	l.Source = strings.TrimSpace(source)
	l.Notes = strings.TrimSpace(notes)

	if err := l.Validate(); err != nil {
		*l = prev
		return err
	}
	l.touch()
	return nil
}

func (l *LeadEntry) touch() {
	l.UpdatedAt = time.Time(common.NewTimestamp())
}
