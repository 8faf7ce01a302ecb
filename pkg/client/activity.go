package client

import (
	"context"
	"net/url"
	"time"
)

// ActivityClient queries the activity log. Manager-only.
type ActivityClient struct {
	c *Client
}

// ActivityRecord is one audited action.
type ActivityRecord struct {
	ID         string         `json:"id"`
	ActorID    string         `json:"actor_id"`
	Action     string         `json:"action"`
	EntityType string         `json:"entity_type"`
	EntityID   string         `json:"entity_id,omitempty"`
	Detail     map[string]any `json:"detail,omitempty"`
	OccurredAt time.Time      `json:"occurred_at"`
	RecordedAt time.Time      `json:"recorded_at"`
}

// ListActivityOptions filters and paginates List. From and To accept an
// RFC 3339 timestamp or a "2006-01-02" date.
type ListActivityOptions struct {
	ActorID    string
	Action     string
	EntityType string
	EntityID   string
	From       string
	To         string
	Page       int
	PageSize   int
}

// ActivityList is one page of activity records, newest first.
type ActivityList struct {
	Records    []*ActivityRecord `json:"records"`
	Total      int64             `json:"total"`
	Page       int               `json:"page"`
	PageSize   int               `json:"page_size"`
	TotalPages int               `json:"total_pages"`
}

// List returns a page of activity records.
func (a *ActivityClient) List(ctx context.Context, opts *ListActivityOptions) (*ActivityList, error) {
	q := url.Values{}
	if opts != nil {
		setIfSet(q, "actor_id", opts.ActorID)
		setIfSet(q, "action", opts.Action)
		setIfSet(q, "entity_type", opts.EntityType)
		setIfSet(q, "entity_id", opts.EntityID)
		setIfSet(q, "from", opts.From)
		setIfSet(q, "to", opts.To)
		setPagination(q, opts.Page, opts.PageSize)
	}

	var out ActivityList
	if err := a.c.get(ctx, "/activity"+encodeQuery(q), &out); err != nil {
		return nil, err
	}
	return &out, nil
}
