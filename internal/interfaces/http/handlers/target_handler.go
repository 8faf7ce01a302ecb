package handlers

import (
	"net/http"

	"github.com/relayops/leadtrack/internal/application/tracking"
	"github.com/relayops/leadtrack/internal/infrastructure/monitoring/logging"
	"github.com/relayops/leadtrack/pkg/errors"
	"github.com/relayops/leadtrack/pkg/types/common"
)

// TargetHandler handles the fetch/apply target endpoints. Managers write;
// assignees read their own through the service's row-level rules.
type TargetHandler struct {
	tracking tracking.Service
	logger   logging.Logger
}

// NewTargetHandler creates a TargetHandler.
func NewTargetHandler(svc tracking.Service, logger logging.Logger) *TargetHandler {
	return &TargetHandler{tracking: svc, logger: logger}
}

// Set handles POST /api/v1/targets.
func (h *TargetHandler) Set(w http.ResponseWriter, r *http.Request) {
	var input tracking.SetTargetInput
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, err)
		return
	}

	t, err := h.tracking.SetTarget(r.Context(), claimsFrom(r), &input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, t)
}

// Get handles GET /api/v1/targets/{targetID}.
func (h *TargetHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := urlID(r, "targetID")
	if id == "" {
		writeError(w, errors.Validation("target id is required"))
		return
	}

	t, err := h.tracking.GetTarget(r.Context(), claimsFrom(r), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// List handles GET /api/v1/targets. active_on filters to targets whose
// period covers the given day.
func (h *TargetHandler) List(w http.ResponseWriter, r *http.Request) {
	activeOn, err := parseDateParam(r, "active_on")
	if err != nil {
		writeError(w, err)
		return
	}

	page, pageSize := parsePagination(r)
	q := r.URL.Query()
	input := &tracking.ListTargetsInput{
		UserID:    common.ID(q.Get("user_id")),
		ProfileID: common.ID(q.Get("profile_id")),
		ActiveOn:  activeOn,
		Page:      page,
		PageSize:  pageSize,
	}

	list, err := h.tracking.ListTargets(r.Context(), claimsFrom(r), input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// Revise handles PUT /api/v1/targets/{targetID}.
func (h *TargetHandler) Revise(w http.ResponseWriter, r *http.Request) {
	id := urlID(r, "targetID")
	if id == "" {
		writeError(w, errors.Validation("target id is required"))
		return
	}

	var input tracking.ReviseTargetInput
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, err)
		return
	}
	input.ID = id

	t, err := h.tracking.ReviseTarget(r.Context(), claimsFrom(r), &input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, t)
}

// Delete handles DELETE /api/v1/targets/{targetID}.
func (h *TargetHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := urlID(r, "targetID")
	if id == "" {
		writeError(w, errors.Validation("target id is required"))
		return
	}

	if err := h.tracking.DeleteTarget(r.Context(), claimsFrom(r), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
