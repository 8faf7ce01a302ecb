package client

import (
	"context"
	"net/url"
	"time"
)

// AssignmentsClient manages which team member works which profile.
// Lead-gen assignments are exclusive both ways: one profile per lead-gen
// user and one lead-gen user per profile. Sales assignments are
// many-to-many.
type AssignmentsClient struct {
	c *Client
}

// Assignment links a user to a profile. The same shape serves both the
// lead-gen and the sales pool.
type Assignment struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	ProfileID  string    `json:"profile_id"`
	AssignedBy string    `json:"assigned_by"`
	Note       string    `json:"note,omitempty"`
	AssignedAt time.Time `json:"assigned_at"`
}

// AssignRequest creates an assignment.
type AssignRequest struct {
	UserID    string `json:"user_id"`
	ProfileID string `json:"profile_id"`
	Note      string `json:"note,omitempty"`
}

// ListAssignmentsOptions filters and paginates assignment listings.
type ListAssignmentsOptions struct {
	UserID    string
	ProfileID string
	Page      int
	PageSize  int
}

// AssignmentList is one page of assignments.
type AssignmentList struct {
	Assignments []*Assignment `json:"assignments"`
	Total       int64         `json:"total"`
	Page        int           `json:"page"`
	PageSize    int           `json:"page_size"`
	TotalPages  int           `json:"total_pages"`
}

// AssignLeadGen gives a lead-gen user a profile to work. Fails with a
// conflict when either side already has a lead-gen assignment.
func (a *AssignmentsClient) AssignLeadGen(ctx context.Context, req *AssignRequest) (*Assignment, error) {
	return a.assign(ctx, "/assignments/leadgen", req)
}

// AssignSales adds a profile to a sales user's pool.
func (a *AssignmentsClient) AssignSales(ctx context.Context, req *AssignRequest) (*Assignment, error) {
	return a.assign(ctx, "/assignments/sales", req)
}

func (a *AssignmentsClient) assign(ctx context.Context, base string, req *AssignRequest) (*Assignment, error) {
	if req == nil {
		return nil, invalidArg("request is required")
	}
	if req.UserID == "" {
		return nil, invalidArg("user ID is required")
	}
	if req.ProfileID == "" {
		return nil, invalidArg("profile ID is required")
	}

	var out Assignment
	if err := a.c.post(ctx, base, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListLeadGen returns a page of lead-gen assignments.
func (a *AssignmentsClient) ListLeadGen(ctx context.Context, opts *ListAssignmentsOptions) (*AssignmentList, error) {
	return a.list(ctx, "/assignments/leadgen", opts)
}

// ListSales returns a page of sales assignments.
func (a *AssignmentsClient) ListSales(ctx context.Context, opts *ListAssignmentsOptions) (*AssignmentList, error) {
	return a.list(ctx, "/assignments/sales", opts)
}

func (a *AssignmentsClient) list(ctx context.Context, base string, opts *ListAssignmentsOptions) (*AssignmentList, error) {
	q := url.Values{}
	if opts != nil {
		setIfSet(q, "user_id", opts.UserID)
		setIfSet(q, "profile_id", opts.ProfileID)
		setPagination(q, opts.Page, opts.PageSize)
	}

	var out AssignmentList
	if err := a.c.get(ctx, base+encodeQuery(q), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// LeadGenByUser returns the single lead-gen assignment held by a user,
// or a not-found error when the user is unassigned.
func (a *AssignmentsClient) LeadGenByUser(ctx context.Context, userID string) (*Assignment, error) {
	if userID == "" {
		return nil, invalidArg("userID is required")
	}
	var out Assignment
	if err := a.c.get(ctx, "/assignments/leadgen/by-user/"+url.PathEscape(userID), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UnassignLeadGen removes a lead-gen assignment, freeing both sides.
func (a *AssignmentsClient) UnassignLeadGen(ctx context.Context, assignmentID string) error {
	if assignmentID == "" {
		return invalidArg("assignmentID is required")
	}
	return a.c.delete(ctx, "/assignments/leadgen/"+url.PathEscape(assignmentID))
}

// UnassignSales removes a sales assignment.
func (a *AssignmentsClient) UnassignSales(ctx context.Context, assignmentID string) error {
	if assignmentID == "" {
		return invalidArg("assignmentID is required")
	}
	return a.c.delete(ctx, "/assignments/sales/"+url.PathEscape(assignmentID))
}
