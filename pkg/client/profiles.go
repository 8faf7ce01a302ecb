package client

import (
	"context"
	"net/url"
	"time"
)

// ProfilesClient manages candidate profiles and their resumes.
type ProfilesClient struct {
	c *Client
}

// Profile is a candidate profile as returned by the API.
type Profile struct {
	ID                string    `json:"id"`
	FullName          string    `json:"full_name"`
	Email             string    `json:"email,omitempty"`
	Phone             string    `json:"phone,omitempty"`
	Headline          string    `json:"headline,omitempty"`
	Summary           string    `json:"summary,omitempty"`
	Skills            []string  `json:"skills,omitempty"`
	ResumeObjectKey   string    `json:"resume_object_key,omitempty"`
	ResumeContentType string    `json:"resume_content_type,omitempty"`
	ResumeSize        int64     `json:"resume_size,omitempty"`
	Status            string    `json:"status"`
	CreatedBy         string    `json:"created_by"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// Profile statuses returned by the API.
const (
	ProfileActive   = "active"
	ProfileArchived = "archived"
)

// CreateProfileRequest registers a new candidate profile.
type CreateProfileRequest struct {
	FullName string   `json:"full_name"`
	Email    string   `json:"email,omitempty"`
	Phone    string   `json:"phone,omitempty"`
	Headline string   `json:"headline,omitempty"`
	Summary  string   `json:"summary,omitempty"`
	Skills   []string `json:"skills,omitempty"`
}

// UpdateProfileRequest replaces the mutable profile fields.
type UpdateProfileRequest struct {
	FullName string   `json:"full_name"`
	Email    string   `json:"email,omitempty"`
	Phone    string   `json:"phone,omitempty"`
	Headline string   `json:"headline,omitempty"`
	Summary  string   `json:"summary,omitempty"`
	Skills   []string `json:"skills,omitempty"`
}

// ListProfilesOptions filters and paginates List.
type ListProfilesOptions struct {
	Status   string
	Search   string
	Page     int
	PageSize int
}

// ProfileList is one page of profiles.
type ProfileList struct {
	Profiles   []*Profile `json:"profiles"`
	Total      int64      `json:"total"`
	Page       int        `json:"page"`
	PageSize   int        `json:"page_size"`
	TotalPages int        `json:"total_pages"`
}

// Create registers a new candidate profile.
func (p *ProfilesClient) Create(ctx context.Context, req *CreateProfileRequest) (*Profile, error) {
	if req == nil {
		return nil, invalidArg("request is required")
	}
	if req.FullName == "" {
		return nil, invalidArg("full name is required")
	}

	var out Profile
	if err := p.c.post(ctx, "/profiles", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Get fetches one profile by ID.
func (p *ProfilesClient) Get(ctx context.Context, profileID string) (*Profile, error) {
	if profileID == "" {
		return nil, invalidArg("profileID is required")
	}
	var out Profile
	if err := p.c.get(ctx, "/profiles/"+url.PathEscape(profileID), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// List returns a page of profiles.
func (p *ProfilesClient) List(ctx context.Context, opts *ListProfilesOptions) (*ProfileList, error) {
	q := url.Values{}
	if opts != nil {
		setIfSet(q, "status", opts.Status)
		setIfSet(q, "search", opts.Search)
		setPagination(q, opts.Page, opts.PageSize)
	}

	var out ProfileList
	if err := p.c.get(ctx, "/profiles"+encodeQuery(q), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Update replaces the mutable fields of a profile.
func (p *ProfilesClient) Update(ctx context.Context, profileID string, req *UpdateProfileRequest) (*Profile, error) {
	if profileID == "" {
		return nil, invalidArg("profileID is required")
	}
	if req == nil {
		return nil, invalidArg("request is required")
	}

	var out Profile
	if err := p.c.put(ctx, "/profiles/"+url.PathEscape(profileID), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes a profile and its stored resume.
func (p *ProfilesClient) Delete(ctx context.Context, profileID string) error {
	if profileID == "" {
		return invalidArg("profileID is required")
	}
	return p.c.delete(ctx, "/profiles/"+url.PathEscape(profileID))
}

// Archive retires a profile from active work without deleting history.
func (p *ProfilesClient) Archive(ctx context.Context, profileID string) (*Profile, error) {
	if profileID == "" {
		return nil, invalidArg("profileID is required")
	}
	var out Profile
	if err := p.c.post(ctx, "/profiles/"+url.PathEscape(profileID)+"/archive", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Unarchive returns an archived profile to active status.
func (p *ProfilesClient) Unarchive(ctx context.Context, profileID string) (*Profile, error) {
	if profileID == "" {
		return nil, invalidArg("profileID is required")
	}
	var out Profile
	if err := p.c.post(ctx, "/profiles/"+url.PathEscape(profileID)+"/unarchive", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UploadResume stores a resume document for a profile, replacing any
// previous one, and returns the profile with its resume metadata set.
// contentType should be the document's media type, for example
// "application/pdf".
func (p *ProfilesClient) UploadResume(ctx context.Context, profileID, fileName, contentType string, data []byte) (*Profile, error) {
	if profileID == "" {
		return nil, invalidArg("profileID is required")
	}
	if len(data) == 0 {
		return nil, invalidArg("resume data is required")
	}

	var out Profile
	if err := p.c.upload(ctx, "/profiles/"+url.PathEscape(profileID)+"/resume", fileName, contentType, data, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DownloadResume fetches the stored resume document.
func (p *ProfilesClient) DownloadResume(ctx context.Context, profileID string) (*Download, error) {
	if profileID == "" {
		return nil, invalidArg("profileID is required")
	}
	return p.c.download(ctx, "/profiles/"+url.PathEscape(profileID)+"/resume")
}

// DeleteResume removes the stored resume document.
func (p *ProfilesClient) DeleteResume(ctx context.Context, profileID string) error {
	if profileID == "" {
		return invalidArg("profileID is required")
	}
	return p.c.delete(ctx, "/profiles/"+url.PathEscape(profileID)+"/resume")
}
