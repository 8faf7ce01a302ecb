package client

import (
	"context"
	"net/url"
	"time"
)

// LeadsClient records and queries sales pipeline leads.
type LeadsClient struct {
	c *Client
}

// Lead statuses in pipeline order.
const (
	LeadNew          = "new"
	LeadContacted    = "contacted"
	LeadInterviewing = "interviewing"
	LeadOffer        = "offer"
	LeadPlaced       = "placed"
	LeadDead         = "dead"
)

// Lead is a pipeline entry tying a company to a candidate profile.
type Lead struct {
	ID           string    `json:"id"`
	ProfileID    string    `json:"profile_id"`
	UserID       string    `json:"user_id"`
	Company      string    `json:"company"`
	Position     string    `json:"position,omitempty"`
	ContactName  string    `json:"contact_name,omitempty"`
	ContactEmail string    `json:"contact_email,omitempty"`
	ContactPhone string    `json:"contact_phone,omitempty"`
	Source       string    `json:"source,omitempty"`
	Status       string    `json:"status"`
	Notes        string    `json:"notes,omitempty"`
	LeadDate     string    `json:"lead_date"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// RecordLeadRequest records a new lead. UserID may be left empty by
// sales users, whose own ID is taken from the token.
type RecordLeadRequest struct {
	UserID       string `json:"user_id,omitempty"`
	ProfileID    string `json:"profile_id"`
	Company      string `json:"company"`
	Position     string `json:"position,omitempty"`
	ContactName  string `json:"contact_name,omitempty"`
	ContactEmail string `json:"contact_email,omitempty"`
	ContactPhone string `json:"contact_phone,omitempty"`
	Source       string `json:"source,omitempty"`
	Notes        string `json:"notes,omitempty"`
	LeadDate     string `json:"lead_date"`
}

// UpdateLeadRequest rewrites the descriptive fields of a lead. Status
// changes go through ChangeStatus.
type UpdateLeadRequest struct {
	Company      string `json:"company"`
	Position     string `json:"position,omitempty"`
	ContactName  string `json:"contact_name,omitempty"`
	ContactEmail string `json:"contact_email,omitempty"`
	ContactPhone string `json:"contact_phone,omitempty"`
	Source       string `json:"source,omitempty"`
	Notes        string `json:"notes,omitempty"`
}

type changeLeadStatusRequest struct {
	Status string `json:"status"`
}

// ListLeadsOptions filters and paginates List. From and To bound the
// lead date, inclusive.
type ListLeadsOptions struct {
	UserID    string
	ProfileID string
	Status    string
	From      string
	To        string
	Page      int
	PageSize  int
}

// LeadList is one page of leads.
type LeadList struct {
	Leads      []*Lead `json:"leads"`
	Total      int64   `json:"total"`
	Page       int     `json:"page"`
	PageSize   int     `json:"page_size"`
	TotalPages int     `json:"total_pages"`
}

// Record stores a new lead in status "new".
func (l *LeadsClient) Record(ctx context.Context, req *RecordLeadRequest) (*Lead, error) {
	if req == nil {
		return nil, invalidArg("request is required")
	}
	if req.ProfileID == "" {
		return nil, invalidArg("profile ID is required")
	}
	if req.Company == "" {
		return nil, invalidArg("company is required")
	}

	var out Lead
	if err := l.c.post(ctx, "/leads", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Get fetches one lead by ID.
func (l *LeadsClient) Get(ctx context.Context, leadID string) (*Lead, error) {
	if leadID == "" {
		return nil, invalidArg("leadID is required")
	}
	var out Lead
	if err := l.c.get(ctx, "/leads/"+url.PathEscape(leadID), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// List returns a page of leads.
func (l *LeadsClient) List(ctx context.Context, opts *ListLeadsOptions) (*LeadList, error) {
	q := url.Values{}
	if opts != nil {
		setIfSet(q, "user_id", opts.UserID)
		setIfSet(q, "profile_id", opts.ProfileID)
		setIfSet(q, "status", opts.Status)
		setIfSet(q, "from", opts.From)
		setIfSet(q, "to", opts.To)
		setPagination(q, opts.Page, opts.PageSize)
	}

	var out LeadList
	if err := l.c.get(ctx, "/leads"+encodeQuery(q), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Update rewrites the descriptive fields of a lead.
func (l *LeadsClient) Update(ctx context.Context, leadID string, req *UpdateLeadRequest) (*Lead, error) {
	if leadID == "" {
		return nil, invalidArg("leadID is required")
	}
	if req == nil {
		return nil, invalidArg("request is required")
	}

	var out Lead
	if err := l.c.put(ctx, "/leads/"+url.PathEscape(leadID), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ChangeStatus moves a lead through the pipeline.
func (l *LeadsClient) ChangeStatus(ctx context.Context, leadID, status string) (*Lead, error) {
	if leadID == "" {
		return nil, invalidArg("leadID is required")
	}
	if status == "" {
		return nil, invalidArg("status is required")
	}

	var out Lead
	if err := l.c.put(ctx, "/leads/"+url.PathEscape(leadID)+"/status", &changeLeadStatusRequest{Status: status}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes a lead.
func (l *LeadsClient) Delete(ctx context.Context, leadID string) error {
	if leadID == "" {
		return invalidArg("leadID is required")
	}
	return l.c.delete(ctx, "/leads/"+url.PathEscape(leadID))
}
