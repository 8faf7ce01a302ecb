package handlers

import (
	stderrors "errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/relayops/leadtrack/internal/application/directory"
	"github.com/relayops/leadtrack/internal/domain/profile"
	"github.com/relayops/leadtrack/internal/infrastructure/monitoring/logging"
	"github.com/relayops/leadtrack/pkg/errors"
)

// ProfileHandler handles the candidate profile endpoints, resumes included.
type ProfileHandler struct {
	directory     directory.Service
	maxUploadSize int64
	logger        logging.Logger
}

// NewProfileHandler creates a ProfileHandler. maxUploadSize bounds resume
// uploads; zero falls back to the service default.
func NewProfileHandler(svc directory.Service, maxUploadSize int64, logger logging.Logger) *ProfileHandler {
	if maxUploadSize <= 0 {
		maxUploadSize = directory.DefaultMaxResumeSize
	}
	return &ProfileHandler{directory: svc, maxUploadSize: maxUploadSize, logger: logger}
}

// Create handles POST /api/v1/profiles.
func (h *ProfileHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input directory.CreateProfileInput
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, err)
		return
	}

	p, err := h.directory.CreateProfile(r.Context(), claimsFrom(r), &input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// Get handles GET /api/v1/profiles/{profileID}.
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := urlID(r, "profileID")
	if id == "" {
		writeError(w, errors.Validation("profile id is required"))
		return
	}

	p, err := h.directory.GetProfile(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// List handles GET /api/v1/profiles.
func (h *ProfileHandler) List(w http.ResponseWriter, r *http.Request) {
	page, pageSize := parsePagination(r)
	q := r.URL.Query()
	input := &directory.ListProfilesInput{
		Status:   profile.Status(q.Get("status")),
		Search:   q.Get("search"),
		Page:     page,
		PageSize: pageSize,
	}

	list, err := h.directory.ListProfiles(r.Context(), input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// Update handles PUT /api/v1/profiles/{profileID}.
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := urlID(r, "profileID")
	if id == "" {
		writeError(w, errors.Validation("profile id is required"))
		return
	}

	var input directory.UpdateProfileInput
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, err)
		return
	}
	input.ID = id

	p, err := h.directory.UpdateProfile(r.Context(), claimsFrom(r), &input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Archive handles POST /api/v1/profiles/{profileID}/archive.
func (h *ProfileHandler) Archive(w http.ResponseWriter, r *http.Request) {
	id := urlID(r, "profileID")
	if id == "" {
		writeError(w, errors.Validation("profile id is required"))
		return
	}

	p, err := h.directory.ArchiveProfile(r.Context(), claimsFrom(r), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Unarchive handles POST /api/v1/profiles/{profileID}/unarchive.
func (h *ProfileHandler) Unarchive(w http.ResponseWriter, r *http.Request) {
	id := urlID(r, "profileID")
	if id == "" {
		writeError(w, errors.Validation("profile id is required"))
		return
	}

	p, err := h.directory.UnarchiveProfile(r.Context(), claimsFrom(r), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Delete handles DELETE /api/v1/profiles/{profileID}.
func (h *ProfileHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := urlID(r, "profileID")
	if id == "" {
		writeError(w, errors.Validation("profile id is required"))
		return
	}

	if err := h.directory.DeleteProfile(r.Context(), claimsFrom(r), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UploadResume handles POST /api/v1/profiles/{profileID}/resume. The file
// arrives either as the multipart field "file" or as the raw body with
// Content-Type set and an optional ?filename= parameter.
func (h *ProfileHandler) UploadResume(w http.ResponseWriter, r *http.Request) {
	id := urlID(r, "profileID")
	if id == "" {
		writeError(w, errors.Validation("profile id is required"))
		return
	}

	input := &directory.UploadResumeInput{ProfileID: id}
	contentType := r.Header.Get("Content-Type")

	if strings.HasPrefix(contentType, "multipart/form-data") {
		if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
			writeError(w, errors.Validation("invalid multipart body"))
			return
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			writeError(w, errors.Validation("multipart field 'file' is required"))
			return
		}
		defer file.Close()

		data, err := io.ReadAll(io.LimitReader(file, h.maxUploadSize+1))
		if err != nil {
			writeError(w, errors.Validation("failed to read uploaded file"))
			return
		}
		input.Data = data
		input.FileName = header.Filename
		input.ContentType = header.Header.Get("Content-Type")
	} else {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
		data, err := io.ReadAll(r.Body)
		if err != nil {
			var maxErr *http.MaxBytesError
			if stderrors.As(err, &maxErr) {
				writeError(w, errors.New(errors.ErrCodeResumeTooLarge, "resume file too large"))
				return
			}
			writeError(w, errors.Validation("failed to read request body"))
			return
		}
		input.Data = data
		input.FileName = r.URL.Query().Get("filename")
		input.ContentType = contentType
	}

	p, err := h.directory.UploadResume(r.Context(), claimsFrom(r), input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// DownloadResume handles GET /api/v1/profiles/{profileID}/resume, serving
// the stored file as an attachment.
func (h *ProfileHandler) DownloadResume(w http.ResponseWriter, r *http.Request) {
	id := urlID(r, "profileID")
	if id == "" {
		writeError(w, errors.Validation("profile id is required"))
		return
	}

	dl, err := h.directory.DownloadResume(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}

	contentType := dl.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+dl.FileName+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(dl.Data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(dl.Data); err != nil {
		h.logger.Warn("Resume download interrupted",
			logging.String("profile_id", string(id)),
			logging.Err(err))
	}
}

// DeleteResume handles DELETE /api/v1/profiles/{profileID}/resume.
func (h *ProfileHandler) DeleteResume(w http.ResponseWriter, r *http.Request) {
	id := urlID(r, "profileID")
	if id == "" {
		writeError(w, errors.Validation("profile id is required"))
		return
	}

	if err := h.directory.DeleteResume(r.Context(), claimsFrom(r), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
