package directory

import (
	"context"

	"github.com/relayops/leadtrack/internal/domain/activity"
	"github.com/relayops/leadtrack/internal/domain/assignment"
	"github.com/relayops/leadtrack/internal/domain/user"
	"github.com/relayops/leadtrack/internal/infrastructure/auth"
	"github.com/relayops/leadtrack/internal/infrastructure/monitoring/logging"
	"github.com/relayops/leadtrack/pkg/errors"
	"github.com/relayops/leadtrack/pkg/types/common"
)

// AssignInput carries one assignment, lead-gen or sales.
type AssignInput struct {
	UserID    common.ID `json:"user_id"`
	ProfileID common.ID `json:"profile_id"`
	Note      string    `json:"note,omitempty"`
}

// ListAssignmentsInput filters and paginates assignments.
type ListAssignmentsInput struct {
	UserID    common.ID `json:"user_id,omitempty"`
	ProfileID common.ID `json:"profile_id,omitempty"`
	Page      int       `json:"page"`
	PageSize  int       `json:"page_size"`
}

// LeadGenList is one page of lead-gen assignments.
type LeadGenList struct {
	Assignments []*assignment.LeadGenAssignment `json:"assignments"`
	Total       int64                           `json:"total"`
	Page        int                             `json:"page"`
	PageSize    int                             `json:"page_size"`
	TotalPages  int                             `json:"total_pages"`
}

// SalesList is one page of sales assignments.
type SalesList struct {
	Assignments []*assignment.SalesAssignment `json:"assignments"`
	Total       int64                         `json:"total"`
	Page        int                           `json:"page"`
	PageSize    int                           `json:"page_size"`
	TotalPages  int                           `json:"total_pages"`
}

func (s *serviceImpl) AssignLeadGen(ctx context.Context, actor *auth.Claims, input *AssignInput) (*assignment.LeadGenAssignment, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if input == nil {
		return nil, errors.Validation("assign input must not be nil")
	}
	if err := s.checkAssignable(ctx, input, user.RoleLeadGen); err != nil {
		return nil, err
	}

	a, err := assignment.NewLeadGen(input.UserID, input.ProfileID, actor.UserID, input.Note)
	if err != nil {
		return nil, err
	}
	// Exclusivity on both columns is enforced by the schema; a lost race
	// comes back from the repository as a conflict.
	if err := s.leadGen.Create(ctx, a); err != nil {
		return nil, err
	}

	s.publish(ctx, actor.UserID, activity.ActionLeadGenAssigned, "assignment", a.ID, map[string]any{
		"user_id":    string(a.UserID),
		"profile_id": string(a.ProfileID),
	})
	s.logger.Info("Lead-gen assignment created",
		logging.String("assignment_id", string(a.ID)),
		logging.String("user_id", string(a.UserID)),
		logging.String("profile_id", string(a.ProfileID)))
	return a, nil
}

func (s *serviceImpl) UnassignLeadGen(ctx context.Context, actor *auth.Claims, id common.ID) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	if id == "" {
		return errors.InvalidParam("assignment id is required")
	}

	a, err := s.leadGen.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.leadGen.Delete(ctx, id); err != nil {
		return err
	}

	s.publish(ctx, actor.UserID, activity.ActionLeadGenUnassigned, "assignment", id, map[string]any{
		"user_id":    string(a.UserID),
		"profile_id": string(a.ProfileID),
	})
	s.logger.Info("Lead-gen assignment removed", logging.String("assignment_id", string(id)))
	return nil
}

func (s *serviceImpl) GetLeadGenByUser(ctx context.Context, userID common.ID) (*assignment.LeadGenAssignment, error) {
	if userID == "" {
		return nil, errors.InvalidParam("user id is required")
	}
	return s.leadGen.GetByUser(ctx, userID)
}

func (s *serviceImpl) GetLeadGenByProfile(ctx context.Context, profileID common.ID) (*assignment.LeadGenAssignment, error) {
	if profileID == "" {
		return nil, errors.InvalidParam("profile id is required")
	}
	return s.leadGen.GetByProfile(ctx, profileID)
}

func (s *serviceImpl) ListLeadGen(ctx context.Context, input *ListAssignmentsInput) (*LeadGenList, error) {
	if input == nil {
		input = &ListAssignmentsInput{}
	}
	page, pageSize := normalizePage(input.Page, input.PageSize)

	assignments, total, err := s.leadGen.List(ctx, assignment.ListFilter{
		UserID:    input.UserID,
		ProfileID: input.ProfileID,
		Offset:    (page - 1) * pageSize,
		Limit:     pageSize,
	})
	if err != nil {
		return nil, err
	}
	return &LeadGenList{
		Assignments: assignments,
		Total:       total,
		Page:        page,
		PageSize:    pageSize,
		TotalPages:  totalPages(total, pageSize),
	}, nil
}

func (s *serviceImpl) AssignSales(ctx context.Context, actor *auth.Claims, input *AssignInput) (*assignment.SalesAssignment, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if input == nil {
		return nil, errors.Validation("assign input must not be nil")
	}
	if err := s.checkAssignable(ctx, input, user.RoleSales); err != nil {
		return nil, err
	}

	a, err := assignment.NewSales(input.UserID, input.ProfileID, actor.UserID, input.Note)
	if err != nil {
		return nil, err
	}
	if err := s.sales.Create(ctx, a); err != nil {
		return nil, err
	}

	s.publish(ctx, actor.UserID, activity.ActionSalesAssigned, "assignment", a.ID, map[string]any{
		"user_id":    string(a.UserID),
		"profile_id": string(a.ProfileID),
	})
	s.logger.Info("Sales assignment created",
		logging.String("assignment_id", string(a.ID)),
		logging.String("user_id", string(a.UserID)),
		logging.String("profile_id", string(a.ProfileID)))
	return a, nil
}

func (s *serviceImpl) UnassignSales(ctx context.Context, actor *auth.Claims, id common.ID) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	if id == "" {
		return errors.InvalidParam("assignment id is required")
	}

	a, err := s.sales.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.sales.Delete(ctx, id); err != nil {
		return err
	}

	s.publish(ctx, actor.UserID, activity.ActionSalesUnassigned, "assignment", id, map[string]any{
		"user_id":    string(a.UserID),
		"profile_id": string(a.ProfileID),
	})
	s.logger.Info("Sales assignment removed", logging.String("assignment_id", string(id)))
	return nil
}

func (s *serviceImpl) ListSales(ctx context.Context, input *ListAssignmentsInput) (*SalesList, error) {
	if input == nil {
		input = &ListAssignmentsInput{}
	}
	page, pageSize := normalizePage(input.Page, input.PageSize)

	assignments, total, err := s.sales.List(ctx, assignment.ListFilter{
		UserID:    input.UserID,
		ProfileID: input.ProfileID,
		Offset:    (page - 1) * pageSize,
		Limit:     pageSize,
	})
	if err != nil {
		return nil, err
	}
	return &SalesList{
		Assignments: assignments,
		Total:       total,
		Page:        page,
		PageSize:    pageSize,
		TotalPages:  totalPages(total, pageSize),
	}, nil
}

// checkAssignable verifies the rules without schema backing: the assignee
// holds the matching role and is active, and the profile is active.
func (s *serviceImpl) checkAssignable(ctx context.Context, input *AssignInput, wantRole user.Role) error {
	if input.UserID == "" {
		return errors.Validation("user_id is required")
	}
	if input.ProfileID == "" {
		return errors.Validation("profile_id is required")
	}

	u, err := s.users.GetByID(ctx, input.UserID)
	if err != nil {
		return err
	}
	if u.Role != wantRole {
		return errors.Newf(errors.ErrCodeAssigneeRoleInvalid,
			"user %s is %s, assignment requires %s", u.ID, u.Role, wantRole)
	}
	if !u.CanAuthenticate() {
		return errors.InvalidState("assignee account is suspended")
	}

	p, err := s.profiles.GetByID(ctx, input.ProfileID)
	if err != nil {
		return err
	}
	if !p.IsActive() {
		return errors.Newf(errors.ErrCodeProfileArchived,
			"profile %s is archived and cannot receive assignments", p.ID)
	}
	return nil
}
