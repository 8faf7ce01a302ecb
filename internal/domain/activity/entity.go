// Package activity holds the audit trail. Records are written by the worker
// from domain events; the API only reads them.
package activity

import (
	"time"

	"github.com/relayops/leadtrack/pkg/errors"
	"github.com/relayops/leadtrack/pkg/types/common"
)

// Actions recorded by the platform. The set is open; consumers insert
// whatever action the event names, these constants cover the built-in ones.
const (
	ActionUserCreated       = "user.created"
	ActionUserUpdated       = "user.updated"
	ActionUserDeleted       = "user.deleted"
	ActionProfileCreated    = "profile.created"
	ActionProfileUpdated    = "profile.updated"
	ActionProfileArchived   = "profile.archived"
	ActionProfileDeleted    = "profile.deleted"
	ActionResumeUploaded    = "profile.resume_uploaded"
	ActionLeadGenAssigned   = "assignment.leadgen_created"
	ActionLeadGenUnassigned = "assignment.leadgen_removed"
	ActionSalesAssigned     = "assignment.sales_created"
	ActionSalesUnassigned   = "assignment.sales_removed"
	ActionTargetSet         = "target.set"
	ActionTargetRevised     = "target.revised"
	ActionTargetDeleted     = "target.deleted"
	ActionProgressRecorded  = "progress.recorded"
	ActionProgressRevised   = "progress.revised"
	ActionProgressDeleted   = "progress.deleted"
	ActionLeadRecorded      = "lead.recorded"
	ActionLeadUpdated       = "lead.updated"
	ActionLeadStatusChanged = "lead.status_changed"
	ActionLeadDeleted       = "lead.deleted"
	ActionReportGenerated   = "report.generated"
	ActionReportDeleted     = "report.deleted"
	ActionLogin             = "auth.login"
	ActionLogout            = "auth.logout"
)

// ActivityRecord is one audit row.
type ActivityRecord struct {
	ID         common.ID      `json:"id"`
	ActorID    common.ID      `json:"actor_id"`
	Action     string         `json:"action"`
	EntityType string         `json:"entity_type"`
	EntityID   common.ID      `json:"entity_id,omitempty"`
	Detail     map[string]any `json:"detail,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
	RecordedAt time.Time      `json:"recorded_at"`
}

// New creates an activity record. A zero occurredAt means "now".
func New(actorID common.ID, action, entityType string, entityID common.ID, detail map[string]any, occurredAt time.Time) (*ActivityRecord, error) {
	if occurredAt.IsZero() {
		occurredAt = time.Time(common.NewTimestamp())
	}
	r := &ActivityRecord{
		ID:         common.NewID(),
		ActorID:    actorID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Detail:     detail,
		OccurredAt: occurredAt.UTC(),
		RecordedAt: time.Time(common.NewTimestamp()),
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// Validate checks the record's field-level invariants.
func (r *ActivityRecord) Validate() error {
	if r.ID == "" {
		return errors.Validation("id cannot be empty")
	}
	if r.ActorID == "" {
		return errors.Validation("actor_id cannot be empty")
	}
	if r.Action == "" {
		return errors.Validation("action cannot be empty")
	}
	if r.EntityType == "" {
		return errors.Validation("entity_type cannot be empty")
	}
	if r.OccurredAt.IsZero() {
		return errors.Validation("occurred_at cannot be zero")
	}
	return nil
}
