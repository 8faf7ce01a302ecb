package client

import (
	"context"
	"net/url"
	"time"
)

// ReportsClient generates and fetches report artifacts. The whole
// surface requires a manager token.
type ReportsClient struct {
	c *Client
}

// Report kinds and formats accepted by the API.
const (
	ReportWeekly = "weekly"
	ReportDaily  = "daily"

	FormatCSV  = "csv"
	FormatDOCX = "docx"
	FormatHTML = "html"
)

// Artifact statuses returned by the API.
const (
	ArtifactCompleted = "completed"
	ArtifactFailed    = "failed"
)

// Artifact is a stored report document.
type Artifact struct {
	ID              string    `json:"id"`
	Kind            string    `json:"kind"`
	Format          string    `json:"format"`
	PeriodStart     string    `json:"period_start"`
	PeriodEnd       string    `json:"period_end"`
	FilterUserID    string    `json:"filter_user_id,omitempty"`
	FilterProfileID string    `json:"filter_profile_id,omitempty"`
	ObjectKey       string    `json:"object_key,omitempty"`
	SizeBytes       int64     `json:"size_bytes,omitempty"`
	Status          string    `json:"status"`
	FailReason      string    `json:"fail_reason,omitempty"`
	RequestedBy     string    `json:"requested_by"`
	GeneratedAt     time.Time `json:"generated_at"`
}

// GenerateReportRequest asks for a report. Date selects the week or day
// to cover and defaults to today; UserID and ProfileID narrow the
// report to one user or profile.
type GenerateReportRequest struct {
	Date      string `json:"date,omitempty"`
	Format    string `json:"format"`
	UserID    string `json:"user_id,omitempty"`
	ProfileID string `json:"profile_id,omitempty"`
}

// ListReportsOptions filters and paginates List.
type ListReportsOptions struct {
	Kind     string
	Format   string
	Status   string
	Page     int
	PageSize int
}

// ArtifactList is one page of artifacts.
type ArtifactList struct {
	Artifacts  []*Artifact `json:"artifacts"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"page_size"`
	TotalPages int         `json:"total_pages"`
}

// GenerateWeekly renders the weekly report covering the week of the
// request date. Generation is synchronous; the returned artifact is
// ready for Download.
func (r *ReportsClient) GenerateWeekly(ctx context.Context, req *GenerateReportRequest) (*Artifact, error) {
	return r.generate(ctx, "/reports/weekly", req)
}

// GenerateDaily renders the daily report for the request date.
func (r *ReportsClient) GenerateDaily(ctx context.Context, req *GenerateReportRequest) (*Artifact, error) {
	return r.generate(ctx, "/reports/daily", req)
}

func (r *ReportsClient) generate(ctx context.Context, path string, req *GenerateReportRequest) (*Artifact, error) {
	if req == nil {
		return nil, invalidArg("request is required")
	}
	if req.Format == "" {
		return nil, invalidArg("format is required")
	}

	var out Artifact
	if err := r.c.post(ctx, path, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// List returns a page of stored artifacts, newest first.
func (r *ReportsClient) List(ctx context.Context, opts *ListReportsOptions) (*ArtifactList, error) {
	q := url.Values{}
	if opts != nil {
		setIfSet(q, "kind", opts.Kind)
		setIfSet(q, "format", opts.Format)
		setIfSet(q, "status", opts.Status)
		setPagination(q, opts.Page, opts.PageSize)
	}

	var out ArtifactList
	if err := r.c.get(ctx, "/reports"+encodeQuery(q), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Get fetches one artifact row by ID.
func (r *ReportsClient) Get(ctx context.Context, reportID string) (*Artifact, error) {
	if reportID == "" {
		return nil, invalidArg("reportID is required")
	}
	var out Artifact
	if err := r.c.get(ctx, "/reports/"+url.PathEscape(reportID), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Download fetches the rendered document of a completed artifact.
func (r *ReportsClient) Download(ctx context.Context, reportID string) (*Download, error) {
	if reportID == "" {
		return nil, invalidArg("reportID is required")
	}
	return r.c.download(ctx, "/reports/"+url.PathEscape(reportID)+"/download")
}

// Delete removes an artifact row and its stored document.
func (r *ReportsClient) Delete(ctx context.Context, reportID string) error {
	if reportID == "" {
		return invalidArg("reportID is required")
	}
	return r.c.delete(ctx, "/reports/"+url.PathEscape(reportID))
}
