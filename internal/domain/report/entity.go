// Package report holds the reporting model: weekly and daily performance
// documents assembled from progress, targets, and leads, and the artifact
// rows tracking where generated files were stored.
package report

import (
	"time"

	"github.com/relayops/leadtrack/pkg/errors"
	"github.com/relayops/leadtrack/pkg/types/common"
)

// Kind distinguishes the two report shapes.
type Kind string

const (
	KindWeekly Kind = "weekly"
	KindDaily  Kind = "daily"
)

// Valid reports whether the kind is known.
func (k Kind) Valid() bool {
	return k == KindWeekly || k == KindDaily
}

// Format is a rendering format.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatDOCX Format = "docx"
	FormatHTML Format = "html"
)

// Valid reports whether the format is known.
func (f Format) Valid() bool {
	switch f {
	case FormatCSV, FormatDOCX, FormatHTML:
		return true
	}
	return false
}

// ContentType returns the MIME type artifacts of this format are served with.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv"
	case FormatDOCX:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case FormatHTML:
		return "text/html; charset=utf-8"
	default:
		return "application/octet-stream"
	}
}

// Extension returns the file extension including the dot.
func (f Format) Extension() string {
	switch f {
	case FormatCSV:
		return ".csv"
	case FormatDOCX:
		return ".docx"
	case FormatHTML:
		return ".html"
	default:
		return ""
	}
}

// ParseFormat validates a wire-format string.
func ParseFormat(s string) (Format, error) {
	f := Format(s)
	if !f.Valid() {
		return "", errors.Newf(errors.ErrCodeReportBadFormat, "unsupported report format %q", s)
	}
	return f, nil
}

// ArtifactStatus is the outcome of a generation run.
type ArtifactStatus string

const (
	ArtifactCompleted ArtifactStatus = "completed"
	ArtifactFailed    ArtifactStatus = "failed"
)

// Artifact records one generated (or failed) report document.
type Artifact struct {
	ID              common.ID      `json:"id"`
	Kind            Kind           `json:"kind"`
	Format          Format         `json:"format"`
	PeriodStart     common.Date    `json:"period_start"`
	PeriodEnd       common.Date    `json:"period_end"`
	FilterUserID    common.ID      `json:"filter_user_id,omitempty"`
	FilterProfileID common.ID      `json:"filter_profile_id,omitempty"`
	ObjectKey       string         `json:"object_key,omitempty"`
	SizeBytes       int64          `json:"size_bytes,omitempty"`
	Status          ArtifactStatus `json:"status"`
	FailReason      string         `json:"fail_reason,omitempty"`
	RequestedBy     common.ID      `json:"requested_by"`
	GeneratedAt     time.Time      `json:"generated_at"`
}

// NewArtifact starts an artifact row for a generation run. Call Complete or
// Fail before persisting it.
func NewArtifact(kind Kind, format Format, period common.DateRange, filterUserID, filterProfileID, requestedBy common.ID) (*Artifact, error) {
	a := &Artifact{
		ID:              common.NewID(),
		Kind:            kind,
		Format:          format,
		PeriodStart:     period.From,
		PeriodEnd:       period.To,
		FilterUserID:    filterUserID,
		FilterProfileID: filterProfileID,
		RequestedBy:     requestedBy,
		GeneratedAt:     time.Time(common.NewTimestamp()),
	}
	if err := a.Validate(); err != nil {
		return nil, err
	}
	return a, nil
}

// Validate checks the artifact's field-level invariants.
func (a *Artifact) Validate() error {
	if a.ID == "" {
		return errors.Validation("id cannot be empty")
	}
	if !a.Kind.Valid() {
		return errors.Validation("invalid report kind: " + string(a.Kind))
	}
	if !a.Format.Valid() {
		return errors.Newf(errors.ErrCodeReportBadFormat, "unsupported report format %q", string(a.Format))
	}
	if a.PeriodStart.IsZero() || a.PeriodEnd.IsZero() {
		return errors.New(errors.ErrCodeReportPeriodInvalid, "report period is required")
	}
	if a.PeriodStart.After(a.PeriodEnd) {
		return errors.New(errors.ErrCodeReportPeriodInvalid, "period start must not be after period end")
	}
	if a.RequestedBy == "" {
		return errors.Validation("requested_by cannot be empty")
	}
	return nil
}

// Period returns the artifact's date range.
func (a *Artifact) Period() common.DateRange {
	return common.DateRange{From: a.PeriodStart, To: a.PeriodEnd}
}

// Complete marks the run successful and records the stored object.
func (a *Artifact) Complete(objectKey string, sizeBytes int64) error {
	if objectKey == "" {
		return errors.Validation("object key cannot be empty")
	}
	if sizeBytes < 0 {
		return errors.Validation("size cannot be negative")
	}
	a.Status = ArtifactCompleted
	a.ObjectKey = objectKey
	a.SizeBytes = sizeBytes
	a.FailReason = ""
	a.GeneratedAt = time.Time(common.NewTimestamp())
	return nil
}

// Fail marks the run failed. The row is still persisted so the failure is
// visible in listings.
func (a *Artifact) Fail(reason string) {
	a.Status = ArtifactFailed
	a.FailReason = reason
	a.ObjectKey = ""
	a.SizeBytes = 0
	a.GeneratedAt = time.Time(common.NewTimestamp())
}

// Downloadable reports whether a stored document exists for this artifact.
func (a *Artifact) Downloadable() bool {
	return a.Status == ArtifactCompleted && a.ObjectKey != ""
}
