package directory

import (
	"context"
	"path"
	"strings"

	"github.com/relayops/leadtrack/internal/domain/activity"
	"github.com/relayops/leadtrack/internal/domain/profile"
	"github.com/relayops/leadtrack/internal/infrastructure/auth"
	"github.com/relayops/leadtrack/internal/infrastructure/monitoring/logging"
	"github.com/relayops/leadtrack/internal/infrastructure/storage/minio"
	"github.com/relayops/leadtrack/pkg/errors"
	"github.com/relayops/leadtrack/pkg/types/common"
)

// CreateProfileInput carries a new candidate profile.
type CreateProfileInput struct {
	FullName string   `json:"full_name"`
	Email    string   `json:"email,omitempty"`
	Phone    string   `json:"phone,omitempty"`
	Headline string   `json:"headline,omitempty"`
	Summary  string   `json:"summary,omitempty"`
	Skills   []string `json:"skills,omitempty"`
}

// UpdateProfileInput replaces the editable fields in one shot.
type UpdateProfileInput struct {
	ID       common.ID `json:"id"`
	FullName string    `json:"full_name"`
	Email    string    `json:"email,omitempty"`
	Phone    string    `json:"phone,omitempty"`
	Headline string    `json:"headline,omitempty"`
	Summary  string    `json:"summary,omitempty"`
	Skills   []string  `json:"skills,omitempty"`
}

// ListProfilesInput filters and paginates profiles.
type ListProfilesInput struct {
	Status   profile.Status `json:"status,omitempty"`
	Search   string         `json:"search,omitempty"`
	Page     int            `json:"page"`
	PageSize int            `json:"page_size"`
}

// ProfileList is one page of profiles.
type ProfileList struct {
	Profiles   []*profile.Profile `json:"profiles"`
	Total      int64              `json:"total"`
	Page       int                `json:"page"`
	PageSize   int                `json:"page_size"`
	TotalPages int                `json:"total_pages"`
}

// UploadResumeInput carries one resume file.
type UploadResumeInput struct {
	ProfileID   common.ID `json:"profile_id"`
	FileName    string    `json:"file_name,omitempty"`
	ContentType string    `json:"content_type,omitempty"`
	Data        []byte    `json:"-"`
}

// ResumeDownload is a resume streamed back out of object storage.
type ResumeDownload struct {
	FileName    string `json:"file_name"`
	ContentType string `json:"content_type"`
	Size        int64  `json:"size"`
	Data        []byte `json:"-"`
}

func (s *serviceImpl) CreateProfile(ctx context.Context, actor *auth.Claims, input *CreateProfileInput) (*profile.Profile, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if input == nil {
		return nil, errors.Validation("create profile input must not be nil")
	}

	p, err := profile.New(input.FullName, input.Email, input.Headline, input.Skills, actor.UserID)
	if err != nil {
		return nil, err
	}
	p.Phone = strings.TrimSpace(input.Phone)
	p.Summary = strings.TrimSpace(input.Summary)

	if err := s.profiles.Create(ctx, p); err != nil {
		return nil, err
	}

	s.publish(ctx, actor.UserID, activity.ActionProfileCreated, "profile", p.ID, map[string]any{
		"full_name": p.FullName,
	})
	s.logger.Info("Profile created", logging.String("profile_id", string(p.ID)))
	return p, nil
}

func (s *serviceImpl) GetProfile(ctx context.Context, id common.ID) (*profile.Profile, error) {
	if id == "" {
		return nil, errors.InvalidParam("profile id is required")
	}
	return s.profiles.GetByID(ctx, id)
}

func (s *serviceImpl) ListProfiles(ctx context.Context, input *ListProfilesInput) (*ProfileList, error) {
	if input == nil {
		input = &ListProfilesInput{}
	}
	page, pageSize := normalizePage(input.Page, input.PageSize)

	profiles, total, err := s.profiles.List(ctx, profile.ListFilter{
		Status: input.Status,
		Search: input.Search,
		Offset: (page - 1) * pageSize,
		Limit:  pageSize,
	})
	if err != nil {
		return nil, err
	}
	return &ProfileList{
		Profiles:   profiles,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages(total, pageSize),
	}, nil
}

func (s *serviceImpl) UpdateProfile(ctx context.Context, actor *auth.Claims, input *UpdateProfileInput) (*profile.Profile, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if input == nil || input.ID == "" {
		return nil, errors.InvalidParam("profile id is required")
	}

	p, err := s.profiles.GetByID(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	if err := p.UpdateDetails(input.FullName, input.Email, input.Phone, input.Headline, input.Summary, input.Skills); err != nil {
		return nil, err
	}
	if err := s.profiles.Update(ctx, p); err != nil {
		return nil, err
	}

	s.publish(ctx, actor.UserID, activity.ActionProfileUpdated, "profile", p.ID, nil)
	return p, nil
}

func (s *serviceImpl) ArchiveProfile(ctx context.Context, actor *auth.Claims, id common.ID) (*profile.Profile, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	p, err := s.profiles.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := p.Archive(); err != nil {
		return nil, err
	}
	if err := s.profiles.Update(ctx, p); err != nil {
		return nil, err
	}

	s.publish(ctx, actor.UserID, activity.ActionProfileArchived, "profile", p.ID, nil)
	s.logger.Info("Profile archived", logging.String("profile_id", string(p.ID)))
	return p, nil
}

func (s *serviceImpl) UnarchiveProfile(ctx context.Context, actor *auth.Claims, id common.ID) (*profile.Profile, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	p, err := s.profiles.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := p.Unarchive(); err != nil {
		return nil, err
	}
	if err := s.profiles.Update(ctx, p); err != nil {
		return nil, err
	}

	s.publish(ctx, actor.UserID, activity.ActionProfileUpdated, "profile", p.ID, map[string]any{
		"status": string(p.Status),
	})
	return p, nil
}

func (s *serviceImpl) DeleteProfile(ctx context.Context, actor *auth.Claims, id common.ID) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	if id == "" {
		return errors.InvalidParam("profile id is required")
	}

	p, err := s.profiles.GetByID(ctx, id)
	if err != nil {
		return err
	}
	// The schema refuses the delete while assignments reference the
	// profile; the repository maps that to a conflict.
	if err := s.profiles.Delete(ctx, id); err != nil {
		return err
	}

	if p.HasResume() {
		if err := s.storage.Delete(ctx, s.resumeBucket, p.ResumeObjectKey); err != nil {
			s.logger.Warn("Orphaned resume object not removed",
				logging.String("object_key", p.ResumeObjectKey),
				logging.Err(err))
		}
	}

	s.publish(ctx, actor.UserID, activity.ActionProfileDeleted, "profile", id, map[string]any{
		"full_name": p.FullName,
	})
	s.logger.Info("Profile deleted", logging.String("profile_id", string(id)))
	return nil
}

func (s *serviceImpl) UploadResume(ctx context.Context, actor *auth.Claims, input *UploadResumeInput) (*profile.Profile, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if input == nil || input.ProfileID == "" {
		return nil, errors.InvalidParam("profile id is required")
	}
	if len(input.Data) == 0 {
		return nil, errors.Validation("resume file is empty")
	}
	if int64(len(input.Data)) > s.maxResumeSize {
		return nil, errors.Newf(errors.ErrCodeResumeTooLarge,
			"resume of %d bytes exceeds the %d byte limit", len(input.Data), s.maxResumeSize)
	}

	p, err := s.profiles.GetByID(ctx, input.ProfileID)
	if err != nil {
		return nil, err
	}

	contentType := input.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	objectKey := resumeObjectKey(p.ID, input.FileName)

	previousKey := p.ResumeObjectKey
	if _, err := s.storage.Upload(ctx, &minio.UploadRequest{
		Bucket:      s.resumeBucket,
		ObjectKey:   objectKey,
		Data:        input.Data,
		ContentType: contentType,
		Metadata: map[string]string{
			"profile_id":  string(p.ID),
			"uploaded_by": string(actor.UserID),
			"filename":    input.FileName,
		},
	}); err != nil {
		return nil, err
	}

	if err := p.AttachResume(objectKey, contentType, int64(len(input.Data))); err != nil {
		return nil, err
	}
	if err := s.profiles.Update(ctx, p); err != nil {
		return nil, err
	}

	// A re-upload under a different extension leaves the old object behind.
	if previousKey != "" && previousKey != objectKey {
		if err := s.storage.Delete(ctx, s.resumeBucket, previousKey); err != nil {
			s.logger.Warn("Superseded resume object not removed",
				logging.String("object_key", previousKey),
				logging.Err(err))
		}
	}

	s.publish(ctx, actor.UserID, activity.ActionResumeUploaded, "profile", p.ID, map[string]any{
		"size_bytes":   len(input.Data),
		"content_type": contentType,
	})
	s.logger.Info("Resume uploaded",
		logging.String("profile_id", string(p.ID)),
		logging.Int("size_bytes", len(input.Data)))
	return p, nil
}

func (s *serviceImpl) DownloadResume(ctx context.Context, profileID common.ID) (*ResumeDownload, error) {
	if profileID == "" {
		return nil, errors.InvalidParam("profile id is required")
	}
	p, err := s.profiles.GetByID(ctx, profileID)
	if err != nil {
		return nil, err
	}
	if !p.HasResume() {
		return nil, errors.Newf(errors.ErrCodeResumeNotFound, "profile %s has no resume on record", profileID)
	}

	obj, err := s.storage.Download(ctx, s.resumeBucket, p.ResumeObjectKey)
	if err != nil {
		if errors.IsCode(err, errors.ErrCodeObjectNotFound) {
			return nil, errors.Newf(errors.ErrCodeResumeNotFound, "resume object for profile %s is missing", profileID)
		}
		return nil, err
	}

	contentType := obj.ContentType
	if contentType == "" {
		contentType = p.ResumeContentType
	}
	return &ResumeDownload{
		FileName:    path.Base(p.ResumeObjectKey),
		ContentType: contentType,
		Size:        obj.Size,
		Data:        obj.Data,
	}, nil
}

func (s *serviceImpl) DeleteResume(ctx context.Context, actor *auth.Claims, profileID common.ID) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	if profileID == "" {
		return errors.InvalidParam("profile id is required")
	}
	p, err := s.profiles.GetByID(ctx, profileID)
	if err != nil {
		return err
	}
	if !p.HasResume() {
		return errors.Newf(errors.ErrCodeResumeNotFound, "profile %s has no resume on record", profileID)
	}

	objectKey := p.ResumeObjectKey
	if err := s.storage.Delete(ctx, s.resumeBucket, objectKey); err != nil {
		return err
	}
	p.ClearResume()
	if err := s.profiles.Update(ctx, p); err != nil {
		return err
	}

	s.publish(ctx, actor.UserID, activity.ActionProfileUpdated, "profile", p.ID, map[string]any{
		"resume_removed": true,
	})
	return nil
}

// resumeObjectKey builds the storage key for a profile's resume. The key is
// stable per profile and extension, so re-uploads overwrite in place.
func resumeObjectKey(profileID common.ID, fileName string) string {
	ext := strings.ToLower(path.Ext(fileName))
	return path.Join("profiles", string(profileID), "resume"+ext)
}
