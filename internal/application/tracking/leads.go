package tracking

import (
	"context"

	"github.com/relayops/leadtrack/internal/domain/activity"
	"github.com/relayops/leadtrack/internal/domain/lead"
	"github.com/relayops/leadtrack/internal/domain/user"
	"github.com/relayops/leadtrack/internal/infrastructure/auth"
	"github.com/relayops/leadtrack/internal/infrastructure/monitoring/logging"
	"github.com/relayops/leadtrack/pkg/errors"
	"github.com/relayops/leadtrack/pkg/types/common"
)

// RecordLeadInput carries a new job lead. UserID may be left empty by sales
// members recording their own; managers must name one.
type RecordLeadInput struct {
	UserID       common.ID   `json:"user_id,omitempty"`
	ProfileID    common.ID   `json:"profile_id"`
	Company      string      `json:"company"`
	Position     string      `json:"position,omitempty"`
	ContactName  string      `json:"contact_name,omitempty"`
	ContactEmail string      `json:"contact_email,omitempty"`
	ContactPhone string      `json:"contact_phone,omitempty"`
	Source       string      `json:"source,omitempty"`
	Notes        string      `json:"notes,omitempty"`
	LeadDate     common.Date `json:"lead_date"`
}

// UpdateLeadInput replaces a lead's editable fields. Status moves through
// ChangeLeadStatus instead.
type UpdateLeadInput struct {
	ID           common.ID `json:"id"`
	Company      string    `json:"company"`
	Position     string    `json:"position,omitempty"`
	ContactName  string    `json:"contact_name,omitempty"`
	ContactEmail string    `json:"contact_email,omitempty"`
	ContactPhone string    `json:"contact_phone,omitempty"`
	Source       string    `json:"source,omitempty"`
	Notes        string    `json:"notes,omitempty"`
}

// ChangeLeadStatusInput moves a lead one pipeline step.
type ChangeLeadStatusInput struct {
	ID     common.ID   `json:"id"`
	Status lead.Status `json:"status"`
}

// ListLeadsInput filters and paginates leads.
type ListLeadsInput struct {
	UserID    common.ID   `json:"user_id,omitempty"`
	ProfileID common.ID   `json:"profile_id,omitempty"`
	Status    lead.Status `json:"status,omitempty"`
	From      common.Date `json:"from,omitempty"`
	To        common.Date `json:"to,omitempty"`
	Page      int         `json:"page"`
	PageSize  int         `json:"page_size"`
}

// LeadList is one page of leads.
type LeadList struct {
	Leads      []*lead.LeadEntry `json:"leads"`
	Total      int64             `json:"total"`
	Page       int               `json:"page"`
	PageSize   int               `json:"page_size"`
	TotalPages int               `json:"total_pages"`
}

func (s *serviceImpl) RecordLead(ctx context.Context, actor *auth.Claims, input *RecordLeadInput) (*lead.LeadEntry, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if input == nil {
		return nil, errors.Validation("record lead input must not be nil")
	}
	if input.ProfileID == "" {
		return nil, errors.Validation("profile_id is required")
	}

	userID, err := resolveSubject(actor, input.UserID, user.RoleSales)
	if err != nil {
		return nil, err
	}
	if err := s.ensureSalesPair(ctx, userID, input.ProfileID); err != nil {
		return nil, err
	}

	l, err := lead.New(input.ProfileID, userID, input.Company, input.Position, input.LeadDate)
	if err != nil {
		return nil, err
	}
	if input.ContactName != "" || input.ContactEmail != "" || input.ContactPhone != "" || input.Source != "" || input.Notes != "" {
		if err := l.UpdateDetails(input.Company, input.Position, input.ContactName, input.ContactEmail, input.ContactPhone, input.Source, input.Notes); err != nil {
			return nil, err
		}
	}
	if err := s.leads.Create(ctx, l); err != nil {
		return nil, err
	}

	s.publish(ctx, actor.UserID, activity.ActionLeadRecorded, "lead", l.ID, map[string]any{
		"user_id":    string(l.UserID),
		"profile_id": string(l.ProfileID),
		"company":    l.Company,
	})
	s.logger.Info("Lead recorded",
		logging.String("lead_id", string(l.ID)),
		logging.String("user_id", string(l.UserID)),
		logging.String("company", l.Company))
	return l, nil
}

func (s *serviceImpl) GetLead(ctx context.Context, actor *auth.Claims, id common.ID) (*lead.LeadEntry, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if id == "" {
		return nil, errors.InvalidParam("lead id is required")
	}
	l, err := s.leads.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !canTouch(actor, l.UserID) {
		return nil, auth.ErrAccessDenied
	}
	return l, nil
}

func (s *serviceImpl) ListLeads(ctx context.Context, actor *auth.Claims, input *ListLeadsInput) (*LeadList, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if input == nil {
		input = &ListLeadsInput{}
	}
	page, pageSize := normalizePage(input.Page, input.PageSize)

	leads, total, err := s.leads.List(ctx, lead.ListFilter{
		UserID:    scopeToActor(actor, input.UserID),
		ProfileID: input.ProfileID,
		Status:    input.Status,
		From:      input.From,
		To:        input.To,
		Offset:    (page - 1) * pageSize,
		Limit:     pageSize,
	})
	if err != nil {
		return nil, err
	}
	return &LeadList{
		Leads:      leads,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages(total, pageSize),
	}, nil
}

func (s *serviceImpl) UpdateLead(ctx context.Context, actor *auth.Claims, input *UpdateLeadInput) (*lead.LeadEntry, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if input == nil || input.ID == "" {
		return nil, errors.InvalidParam("lead id is required")
	}

	l, err := s.leads.GetByID(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	if !canTouch(actor, l.UserID) {
		return nil, auth.ErrAccessDenied
	}
	if err := l.UpdateDetails(input.Company, input.Position, input.ContactName, input.ContactEmail, input.ContactPhone, input.Source, input.Notes); err != nil {
		return nil, err
	}
	if err := s.leads.Update(ctx, l); err != nil {
		return nil, err
	}

	s.publish(ctx, actor.UserID, activity.ActionLeadUpdated, "lead", l.ID, map[string]any{
		"company": l.Company,
	})
	return l, nil
}

func (s *serviceImpl) ChangeLeadStatus(ctx context.Context, actor *auth.Claims, input *ChangeLeadStatusInput) (*lead.LeadEntry, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if input == nil || input.ID == "" {
		return nil, errors.InvalidParam("lead id is required")
	}

	l, err := s.leads.GetByID(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	if !canTouch(actor, l.UserID) {
		return nil, auth.ErrAccessDenied
	}

	from := l.Status
	if err := l.TransitionTo(input.Status); err != nil {
		return nil, err
	}
	if err := s.leads.Update(ctx, l); err != nil {
		return nil, err
	}

	s.publish(ctx, actor.UserID, activity.ActionLeadStatusChanged, "lead", l.ID, map[string]any{
		"from": string(from),
		"to":   string(l.Status),
	})
	s.logger.Info("Lead status changed",
		logging.String("lead_id", string(l.ID)),
		logging.String("from", string(from)),
		logging.String("to", string(l.Status)))
	return l, nil
}

func (s *serviceImpl) DeleteLead(ctx context.Context, actor *auth.Claims, id common.ID) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	if id == "" {
		return errors.InvalidParam("lead id is required")
	}

	l, err := s.leads.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !canTouch(actor, l.UserID) {
		return auth.ErrAccessDenied
	}
	if err := s.leads.Delete(ctx, id); err != nil {
		return err
	}

	s.publish(ctx, actor.UserID, activity.ActionLeadDeleted, "lead", id, map[string]any{
		"company": l.Company,
	})
	return nil
}
