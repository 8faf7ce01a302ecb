// Package tracking provides the application service for day-to-day work
// against assigned profiles: the targets managers set, the daily progress
// lead-gen members log, and the sales pipeline of job leads.
package tracking

import (
	"context"
	"time"

	"github.com/relayops/leadtrack/internal/domain/activity"
	"github.com/relayops/leadtrack/internal/domain/assignment"
	"github.com/relayops/leadtrack/internal/domain/lead"
	"github.com/relayops/leadtrack/internal/domain/progress"
	"github.com/relayops/leadtrack/internal/domain/target"
	"github.com/relayops/leadtrack/internal/domain/user"
	"github.com/relayops/leadtrack/internal/infrastructure/auth"
	"github.com/relayops/leadtrack/internal/infrastructure/monitoring/logging"
	"github.com/relayops/leadtrack/pkg/errors"
	"github.com/relayops/leadtrack/pkg/types/common"
)

// Service defines the tracking operations. Route middleware has already
// checked the verb-level permission; the service enforces who may touch
// which rows: managers reach everything, members reach their own.
type Service interface {
	// Targets.
	SetTarget(ctx context.Context, actor *auth.Claims, input *SetTargetInput) (*target.Target, error)
	GetTarget(ctx context.Context, actor *auth.Claims, id common.ID) (*target.Target, error)
	ListTargets(ctx context.Context, actor *auth.Claims, input *ListTargetsInput) (*TargetList, error)
	ReviseTarget(ctx context.Context, actor *auth.Claims, input *ReviseTargetInput) (*target.Target, error)
	DeleteTarget(ctx context.Context, actor *auth.Claims, id common.ID) error

	// Daily progress.
	RecordProgress(ctx context.Context, actor *auth.Claims, input *RecordProgressInput) (*progress.ProgressUpdate, error)
	GetProgress(ctx context.Context, actor *auth.Claims, id common.ID) (*progress.ProgressUpdate, error)
	ListProgress(ctx context.Context, actor *auth.Claims, input *ListProgressInput) (*ProgressList, error)
	ReviseProgress(ctx context.Context, actor *auth.Claims, input *ReviseProgressInput) (*progress.ProgressUpdate, error)
	DeleteProgress(ctx context.Context, actor *auth.Claims, id common.ID) error

	// Sales leads.
	RecordLead(ctx context.Context, actor *auth.Claims, input *RecordLeadInput) (*lead.LeadEntry, error)
	GetLead(ctx context.Context, actor *auth.Claims, id common.ID) (*lead.LeadEntry, error)
	ListLeads(ctx context.Context, actor *auth.Claims, input *ListLeadsInput) (*LeadList, error)
	UpdateLead(ctx context.Context, actor *auth.Claims, input *UpdateLeadInput) (*lead.LeadEntry, error)
	ChangeLeadStatus(ctx context.Context, actor *auth.Claims, input *ChangeLeadStatusInput) (*lead.LeadEntry, error)
	DeleteLead(ctx context.Context, actor *auth.Claims, id common.ID) error
}

// EventPublisher pushes activity records onto the event stream. Implemented
// by kafka.ActivityPublisher. Publishing is best effort.
type EventPublisher interface {
	Publish(ctx context.Context, rec *activity.ActivityRecord)
}

// Config wires the service. Events is optional; everything else is required.
type Config struct {
	Targets  target.Repository
	Progress progress.Repository
	Leads    lead.Repository
	LeadGen  assignment.LeadGenRepository
	Sales    assignment.SalesRepository

	Events EventPublisher
	Logger logging.Logger
}

type serviceImpl struct {
	targets  target.Repository
	progress progress.Repository
	leads    lead.Repository
	leadGen  assignment.LeadGenRepository
	sales    assignment.SalesRepository

	events EventPublisher
	logger logging.Logger
}

// NewService constructs the tracking service.
func NewService(cfg Config) (Service, error) {
	switch {
	case cfg.Targets == nil:
		return nil, errors.Validation("tracking service requires a target repository")
	case cfg.Progress == nil:
		return nil, errors.Validation("tracking service requires a progress repository")
	case cfg.Leads == nil:
		return nil, errors.Validation("tracking service requires a lead repository")
	case cfg.LeadGen == nil:
		return nil, errors.Validation("tracking service requires a lead-gen assignment repository")
	case cfg.Sales == nil:
		return nil, errors.Validation("tracking service requires a sales assignment repository")
	case cfg.Logger == nil:
		return nil, errors.Validation("tracking service requires a logger")
	}

	return &serviceImpl{
		targets:  cfg.Targets,
		progress: cfg.Progress,
		leads:    cfg.Leads,
		leadGen:  cfg.LeadGen,
		sales:    cfg.Sales,
		events:   cfg.Events,
		logger:   cfg.Logger,
	}, nil
}

// publish emits one activity record, best effort.
func (s *serviceImpl) publish(ctx context.Context, actorID common.ID, action, entityType string, entityID common.ID, detail map[string]any) {
	if s.events == nil {
		return
	}
	rec, err := activity.New(actorID, action, entityType, entityID, detail, time.Time{})
	if err != nil {
		s.logger.Warn("Activity event not built",
			logging.String("action", action),
			logging.Err(err))
		return
	}
	s.events.Publish(ctx, rec)
}

// ensureLeadGenPair verifies the user holds the lead-gen assignment for the
// profile. The not-assigned code differs by caller, so it is passed in.
func (s *serviceImpl) ensureLeadGenPair(ctx context.Context, userID, profileID common.ID, code errors.ErrorCode) error {
	a, err := s.leadGen.GetByUser(ctx, userID)
	if err != nil {
		if errors.IsCode(err, errors.ErrCodeAssignmentNotFound) {
			return errors.Newf(code, "user %s does not hold profile %s", userID, profileID)
		}
		return err
	}
	if a.ProfileID != profileID {
		return errors.Newf(code, "user %s does not hold profile %s", userID, profileID)
	}
	return nil
}

// ensureSalesPair verifies the user holds a sales assignment for the profile.
func (s *serviceImpl) ensureSalesPair(ctx context.Context, userID, profileID common.ID) error {
	if _, err := s.sales.GetByPair(ctx, userID, profileID); err != nil {
		if errors.IsCode(err, errors.ErrCodeAssignmentNotFound) {
			return errors.Newf(errors.ErrCodeLeadNotAssigned,
				"user %s is not assigned to profile %s", userID, profileID)
		}
		return err
	}
	return nil
}

// resolveSubject picks the user a mutation applies to. Managers name anyone
// and must name someone; members of the required role act on themselves and
// may not name anyone else.
func resolveSubject(actor *auth.Claims, requested common.ID, role user.Role) (common.ID, error) {
	if actor.Role == user.RoleManager {
		if requested == "" {
			return "", errors.Validation("user_id is required")
		}
		return requested, nil
	}
	if actor.Role != role {
		return "", auth.ErrAccessDenied
	}
	if requested != "" && requested != actor.UserID {
		return "", auth.ErrAccessDenied
	}
	return actor.UserID, nil
}

// canTouch reports whether the actor may read or modify a row owned by owner.
func canTouch(actor *auth.Claims, owner common.ID) bool {
	return actor.Role == user.RoleManager || actor.UserID == owner
}

// scopeToActor clamps a list filter's user to the actor unless the actor is
// a manager.
func scopeToActor(actor *auth.Claims, requested common.ID) common.ID {
	if actor.Role == user.RoleManager {
		return requested
	}
	return actor.UserID
}

func requireActor(actor *auth.Claims) error {
	if actor == nil || actor.UserID == "" {
		return auth.ErrNoAuthContext
	}
	return nil
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
