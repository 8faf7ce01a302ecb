package client

import (
	"context"
	"net/url"
	"time"
)

// TargetsClient manages job-fetch and job-apply targets. Targets are a
// manager-only surface.
type TargetsClient struct {
	c *Client
}

// Target is a per-pair goal over a date range. Dates use the
// "2006-01-02" layout.
type Target struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	ProfileID   string    `json:"profile_id"`
	JobsToFetch int       `json:"jobs_to_fetch"`
	JobsToApply int       `json:"jobs_to_apply"`
	PeriodStart string    `json:"period_start"`
	PeriodEnd   string    `json:"period_end"`
	SetBy       string    `json:"set_by"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// SetTargetRequest creates a target for a user-profile pair.
type SetTargetRequest struct {
	UserID      string `json:"user_id"`
	ProfileID   string `json:"profile_id"`
	JobsToFetch int    `json:"jobs_to_fetch"`
	JobsToApply int    `json:"jobs_to_apply"`
	PeriodStart string `json:"period_start"`
	PeriodEnd   string `json:"period_end"`
}

// ReviseTargetRequest rewrites the numbers and period of an existing
// target.
type ReviseTargetRequest struct {
	JobsToFetch int    `json:"jobs_to_fetch"`
	JobsToApply int    `json:"jobs_to_apply"`
	PeriodStart string `json:"period_start"`
	PeriodEnd   string `json:"period_end"`
}

// ListTargetsOptions filters and paginates List. ActiveOn restricts the
// listing to targets whose period covers the given date.
type ListTargetsOptions struct {
	UserID    string
	ProfileID string
	ActiveOn  string
	Page      int
	PageSize  int
}

// TargetList is one page of targets.
type TargetList struct {
	Targets    []*Target `json:"targets"`
	Total      int64     `json:"total"`
	Page       int       `json:"page"`
	PageSize   int       `json:"page_size"`
	TotalPages int       `json:"total_pages"`
}

// Set creates a target. Overlapping periods for the same pair are
// rejected with a conflict.
func (t *TargetsClient) Set(ctx context.Context, req *SetTargetRequest) (*Target, error) {
	if req == nil {
		return nil, invalidArg("request is required")
	}
	if req.UserID == "" {
		return nil, invalidArg("user ID is required")
	}
	if req.ProfileID == "" {
		return nil, invalidArg("profile ID is required")
	}
	if req.PeriodStart == "" || req.PeriodEnd == "" {
		return nil, invalidArg("period start and end are required")
	}

	var out Target
	if err := t.c.post(ctx, "/targets", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Get fetches one target by ID.
func (t *TargetsClient) Get(ctx context.Context, targetID string) (*Target, error) {
	if targetID == "" {
		return nil, invalidArg("targetID is required")
	}
	var out Target
	if err := t.c.get(ctx, "/targets/"+url.PathEscape(targetID), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// List returns a page of targets.
func (t *TargetsClient) List(ctx context.Context, opts *ListTargetsOptions) (*TargetList, error) {
	q := url.Values{}
	if opts != nil {
		setIfSet(q, "user_id", opts.UserID)
		setIfSet(q, "profile_id", opts.ProfileID)
		setIfSet(q, "active_on", opts.ActiveOn)
		setPagination(q, opts.Page, opts.PageSize)
	}

	var out TargetList
	if err := t.c.get(ctx, "/targets"+encodeQuery(q), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Revise rewrites an existing target.
func (t *TargetsClient) Revise(ctx context.Context, targetID string, req *ReviseTargetRequest) (*Target, error) {
	if targetID == "" {
		return nil, invalidArg("targetID is required")
	}
	if req == nil {
		return nil, invalidArg("request is required")
	}

	var out Target
	if err := t.c.put(ctx, "/targets/"+url.PathEscape(targetID), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes a target.
func (t *TargetsClient) Delete(ctx context.Context, targetID string) error {
	if targetID == "" {
		return invalidArg("targetID is required")
	}
	return t.c.delete(ctx, "/targets/"+url.PathEscape(targetID))
}
