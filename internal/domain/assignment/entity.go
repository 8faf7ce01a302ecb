// Package assignment links team members to the profiles they work.
// Lead-gen assignments are one-to-one in both directions; sales assignments
// are many-to-many with a unique (user, profile) pair.
package assignment

import (
	"time"

	"github.com/relayops/leadtrack/pkg/errors"
	"github.com/relayops/leadtrack/pkg/types/common"
)

const maxNoteLen = 1000

// LeadGenAssignment gives a lead-gen user exclusive charge of one profile's
// job fetching and applications.
type LeadGenAssignment struct {
	ID         common.ID `json:"id"`
	UserID     common.ID `json:"user_id"`
	ProfileID  common.ID `json:"profile_id"`
	AssignedBy common.ID `json:"assigned_by"`
	Note       string    `json:"note,omitempty"`
	AssignedAt time.Time `json:"assigned_at"`
}

// NewLeadGen creates a lead-gen assignment. Role, status, and exclusivity
// checks happen in the directory service and the schema.
func NewLeadGen(userID, profileID, assignedBy common.ID, note string) (*LeadGenAssignment, error) {
	a := &LeadGenAssignment{
		ID:         common.NewID(),
		UserID:     userID,
		ProfileID:  profileID,
		AssignedBy: assignedBy,
		Note:       note,
		AssignedAt: time.Time(common.NewTimestamp()),
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return a, nil
}

// Validate checks the entity's field-level invariants.
func (a *LeadGenAssignment) Validate() error {
	return validateCommon(a.ID, a.UserID, a.ProfileID, a.AssignedBy, a.Note)
}

// SalesAssignment gives a sales user charge of working leads for a profile.
type SalesAssignment struct {
	ID         common.ID `json:"id"`
	UserID     common.ID `json:"user_id"`
	ProfileID  common.ID `json:"profile_id"`
	AssignedBy common.ID `json:"assigned_by"`
	Note       string    `json:"note,omitempty"`
	AssignedAt time.Time `json:"assigned_at"`
}

// NewSales creates a sales assignment.
func NewSales(userID, profileID, assignedBy common.ID, note string) (*SalesAssignment, error) {
	a := &SalesAssignment{
		ID:         common.NewID(),
		UserID:     userID,
		ProfileID:  profileID,
		AssignedBy: assignedBy,
		Note:       note,
		AssignedAt: time.Time(common.NewTimestamp()),
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return a, nil
}

// Validate checks the entity's field-level invariants.
func (a *SalesAssignment) Validate() error {
	return validateCommon(a.ID, a.UserID, a.ProfileID, a.AssignedBy, a.Note)
}

func validateCommon(id, userID, profileID, assignedBy common.ID, note string) error {
	if id == "" {
		return errors.Validation("id cannot be empty")
	}
	if userID == "" {
		return errors.Validation("user_id cannot be empty")
	}
	if profileID == "" {
		return errors.Validation("profile_id cannot be empty")
	}
	if assignedBy == "" {
		return errors.Validation("assigned_by cannot be empty")
	}
	if len(note) > maxNoteLen {
		return errors.Validation("note cannot be longer than 1000 characters")
	}
	return nil
}
