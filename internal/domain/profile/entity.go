// Package profile holds the candidate profile model: the named resume records
// that managers hand out to lead-gen and sales team members.
package profile

import (
	"regexp"
	"strings"
	"time"

	"github.com/relayops/leadtrack/pkg/errors"
	"github.com/relayops/leadtrack/pkg/types/common"
)

// Status defines the lifecycle state of a profile.
type Status string

const (
	StatusActive   Status = "active"
	StatusArchived Status = "archived"
)

var emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// Profile represents a candidate whose job search the team runs.
type Profile struct {
	ID                common.ID  `json:"id"`
	FullName          string     `json:"full_name"`
	Email             string     `json:"email,omitempty"`
	Phone             string     `json:"phone,omitempty"`
	Headline          string     `json:"headline,omitempty"`
	Summary           string     `json:"summary,omitempty"`
	Skills            []string   `json:"skills,omitempty"`
	ResumeObjectKey   string     `json:"resume_object_key,omitempty"`
	ResumeContentType string     `json:"resume_content_type,omitempty"`
	ResumeSize        int64      `json:"resume_size,omitempty"`
	Status            Status     `json:"status"`
	CreatedBy         common.ID  `json:"created_by"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// New creates an active profile.
func New(fullName, email, headline string, skills []string, createdBy common.ID) (*Profile, error) {
	p := &Profile{
		ID:        common.NewID(),
		FullName:  strings.TrimSpace(fullName),
		Email:     strings.ToLower(strings.TrimSpace(email)),
		Headline:  strings.TrimSpace(headline),
		Skills:    normalizeSkills(skills),
		Status:    StatusActive,
		CreatedBy: createdBy,
	}
	now := time.Time(common.NewTimestamp())
	p.CreatedAt = now
	p.UpdatedAt = now

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

func normalizeSkills(skills []string) []string {
	out := make([]string, 0, len(skills))
	for _, s := range skills {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Validate checks the entity's field-level invariants.
func (p *Profile) Validate() error {
	if p.ID == "" {
		return errors.Validation("id cannot be empty")
	}
	if p.FullName == "" {
		return errors.Validation("full name cannot be empty")
	}
	if len(p.FullName) > 256 {
		return errors.Validation("full name cannot be longer than 256 characters")
	}
	if p.Email != "" && !emailPattern.MatchString(p.Email) {
		return errors.Validation("invalid email address")
	}
	if len(p.Headline) > 256 {
		return errors.Validation("headline cannot be longer than 256 characters")
	}
	if p.CreatedBy == "" {
		return errors.Validation("created_by cannot be empty")
	}
	switch p.Status {
	case StatusActive, StatusArchived:
	default:
		return errors.Validation("invalid status: " + string(p.Status))
	}
	return nil
}

// IsActive reports whether the profile can receive assignments and targets.
func (p *Profile) IsActive() bool {
	return p.Status == StatusActive
}

// Archive takes the profile out of circulation. Existing assignments stay in
// place; new assignments and targets are refused while archived.
func (p *Profile) Archive() error {
	if p.Status == StatusArchived {
		return errors.InvalidState("profile is already archived")
	}
	p.Status = StatusArchived
	p.touch()
	return nil
}

// Unarchive puts the profile back into circulation.
func (p *Profile) Unarchive() error {
	if p.Status == StatusActive {
		return errors.InvalidState("profile is already active")
	}
	p.Status = StatusActive
	p.touch()
	return nil
}

// UpdateDetails replaces the editable fields in one shot.
func (p *Profile) UpdateDetails(fullName, email, phone, headline, summary string, skills []string) error {
	prev := *p
	p.FullName = strings.TrimSpace(fullName)
	p.Email = strings.ToLower(strings.TrimSpace(email))
	p.Phone = strings.TrimSpace(phone)
	p.Headline = strings.TrimSpace(headline)
	p.Summary = strings.TrimSpace(summary)
	p.Skills = normalizeSkills(skills)

	if err := p.Validate(); err != nil {
		*p = prev
		return err
	}
	p.touch()
	return nil
}

// AttachResume records the object-storage location of an uploaded resume.
func (p *Profile) AttachResume(objectKey, contentType string, size int64) error {
	if objectKey == "" {
		return errors.Validation("resume object key cannot be empty")
	}
	if size <= 0 {
		return errors.Validation("resume size must be positive")
	}
	p.ResumeObjectKey = objectKey
	p.ResumeContentType = contentType
	p.ResumeSize = size
	p.touch()
	return nil
}

// HasResume reports whether a resume file is on record.
func (p *Profile) HasResume() bool {
	return p.ResumeObjectKey != ""
}

// ClearResume forgets the stored resume reference. The object itself is
// removed by the storage layer.
func (p *Profile) ClearResume() {
	p.ResumeObjectKey = ""
	p.ResumeContentType = ""
	p.ResumeSize = 0
	p.touch()
}

func (p *Profile) touch() {
	p.UpdatedAt = time.Time(common.NewTimestamp())
}
