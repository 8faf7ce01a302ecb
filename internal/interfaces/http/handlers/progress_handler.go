package handlers

import (
	"net/http"

	"github.com/relayops/leadtrack/internal/application/tracking"
	"github.com/relayops/leadtrack/internal/infrastructure/monitoring/logging"
	"github.com/relayops/leadtrack/pkg/errors"
	"github.com/relayops/leadtrack/pkg/types/common"
)

// ProgressHandler handles the daily progress endpoints for lead-gen users.
type ProgressHandler struct {
	tracking tracking.Service
	logger   logging.Logger
}

// NewProgressHandler creates a ProgressHandler.
func NewProgressHandler(svc tracking.Service, logger logging.Logger) *ProgressHandler {
	return &ProgressHandler{tracking: svc, logger: logger}
}

// Record handles POST /api/v1/progress. One update exists per work date;
// recording the same day again conflicts and Revise is the correction path.
func (h *ProgressHandler) Record(w http.ResponseWriter, r *http.Request) {
	var input tracking.RecordProgressInput
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, err)
		return
	}

	p, err := h.tracking.RecordProgress(r.Context(), claimsFrom(r), &input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// Get handles GET /api/v1/progress/{progressID}.
func (h *ProgressHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := urlID(r, "progressID")
	if id == "" {
		writeError(w, errors.Validation("progress id is required"))
		return
	}

	p, err := h.tracking.GetProgress(r.Context(), claimsFrom(r), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// List handles GET /api/v1/progress.
func (h *ProgressHandler) List(w http.ResponseWriter, r *http.Request) {
	from, err := parseDateParam(r, "from")
	if err != nil {
		writeError(w, err)
		return
	}
	to, err := parseDateParam(r, "to")
	if err != nil {
		writeError(w, err)
		return
	}

	page, pageSize := parsePagination(r)
	q := r.URL.Query()
	input := &tracking.ListProgressInput{
		UserID:    common.ID(q.Get("user_id")),
		ProfileID: common.ID(q.Get("profile_id")),
		From:      from,
		To:        to,
		Page:      page,
		PageSize:  pageSize,
	}

	list, err := h.tracking.ListProgress(r.Context(), claimsFrom(r), input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// Revise handles PUT /api/v1/progress/{progressID}.
func (h *ProgressHandler) Revise(w http.ResponseWriter, r *http.Request) {
	id := urlID(r, "progressID")
	if id == "" {
		writeError(w, errors.Validation("progress id is required"))
		return
	}

	var input tracking.ReviseProgressInput
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, err)
		return
	}
	input.ID = id

	p, err := h.tracking.ReviseProgress(r.Context(), claimsFrom(r), &input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// Delete handles DELETE /api/v1/progress/{progressID}.
func (h *ProgressHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := urlID(r, "progressID")
	if id == "" {
		writeError(w, errors.Validation("progress id is required"))
		return
	}

	if err := h.tracking.DeleteProgress(r.Context(), claimsFrom(r), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
