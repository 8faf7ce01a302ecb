package client

import (
	"context"
	"net/url"
	"time"
)

// ProgressClient records and queries daily lead-gen progress.
type ProgressClient struct {
	c *Client
}

// ProgressUpdate is one day of recorded work for a user-profile pair.
type ProgressUpdate struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	ProfileID   string    `json:"profile_id"`
	WorkDate    string    `json:"work_date"`
	JobsFetched int       `json:"jobs_fetched"`
	JobsApplied int       `json:"jobs_applied"`
	Notes       string    `json:"notes,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// RecordProgressRequest records one day of work. UserID may be left
// empty by lead-gen users, whose own ID is taken from the token;
// managers recording on behalf of someone must set it.
type RecordProgressRequest struct {
	UserID      string `json:"user_id,omitempty"`
	ProfileID   string `json:"profile_id"`
	WorkDate    string `json:"work_date"`
	JobsFetched int    `json:"jobs_fetched"`
	JobsApplied int    `json:"jobs_applied"`
	Notes       string `json:"notes,omitempty"`
}

// ReviseProgressRequest corrects a previously recorded day.
type ReviseProgressRequest struct {
	JobsFetched int    `json:"jobs_fetched"`
	JobsApplied int    `json:"jobs_applied"`
	Notes       string `json:"notes,omitempty"`
}

// ListProgressOptions filters and paginates List. From and To bound the
// work date, inclusive.
type ListProgressOptions struct {
	UserID    string
	ProfileID string
	From      string
	To        string
	Page      int
	PageSize  int
}

// ProgressList is one page of progress updates.
type ProgressList struct {
	Updates    []*ProgressUpdate `json:"updates"`
	Total      int64             `json:"total"`
	Page       int               `json:"page"`
	PageSize   int               `json:"page_size"`
	TotalPages int               `json:"total_pages"`
}

// Record stores one day of work. Recording the same day twice for a
// pair conflicts; use Revise to correct an existing day.
func (p *ProgressClient) Record(ctx context.Context, req *RecordProgressRequest) (*ProgressUpdate, error) {
	if req == nil {
		return nil, invalidArg("request is required")
	}
	if req.ProfileID == "" {
		return nil, invalidArg("profile ID is required")
	}
	if req.WorkDate == "" {
		return nil, invalidArg("work date is required")
	}

	var out ProgressUpdate
	if err := p.c.post(ctx, "/progress", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Get fetches one progress update by ID.
func (p *ProgressClient) Get(ctx context.Context, progressID string) (*ProgressUpdate, error) {
	if progressID == "" {
		return nil, invalidArg("progressID is required")
	}
	var out ProgressUpdate
	if err := p.c.get(ctx, "/progress/"+url.PathEscape(progressID), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// List returns a page of progress updates.
func (p *ProgressClient) List(ctx context.Context, opts *ListProgressOptions) (*ProgressList, error) {
	q := url.Values{}
	if opts != nil {
		setIfSet(q, "user_id", opts.UserID)
		setIfSet(q, "profile_id", opts.ProfileID)
		setIfSet(q, "from", opts.From)
		setIfSet(q, "to", opts.To)
		setPagination(q, opts.Page, opts.PageSize)
	}

	var out ProgressList
	if err := p.c.get(ctx, "/progress"+encodeQuery(q), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Revise corrects a previously recorded day.
func (p *ProgressClient) Revise(ctx context.Context, progressID string, req *ReviseProgressRequest) (*ProgressUpdate, error) {
	if progressID == "" {
		return nil, invalidArg("progressID is required")
	}
	if req == nil {
		return nil, invalidArg("request is required")
	}

	var out ProgressUpdate
	if err := p.c.put(ctx, "/progress/"+url.PathEscape(progressID), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes a progress update.
func (p *ProgressClient) Delete(ctx context.Context, progressID string) error {
	if progressID == "" {
		return invalidArg("progressID is required")
	}
	return p.c.delete(ctx, "/progress/"+url.PathEscape(progressID))
}
