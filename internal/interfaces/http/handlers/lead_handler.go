package handlers

import (
	"net/http"

	"github.com/relayops/leadtrack/internal/application/tracking"
	"github.com/relayops/leadtrack/internal/domain/lead"
	"github.com/relayops/leadtrack/internal/infrastructure/monitoring/logging"
	"github.com/relayops/leadtrack/pkg/errors"
	"github.com/relayops/leadtrack/pkg/types/common"
)

// LeadHandler handles the pipeline lead endpoints for sales users.
type LeadHandler struct {
	tracking tracking.Service
	logger   logging.Logger
}

// NewLeadHandler creates a LeadHandler.
func NewLeadHandler(svc tracking.Service, logger logging.Logger) *LeadHandler {
	return &LeadHandler{tracking: svc, logger: logger}
}

// Record handles POST /api/v1/leads.
func (h *LeadHandler) Record(w http.ResponseWriter, r *http.Request) {
	var input tracking.RecordLeadInput
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, err)
		return
	}

	l, err := h.tracking.RecordLead(r.Context(), claimsFrom(r), &input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, l)
}

// Get handles GET /api/v1/leads/{leadID}.
func (h *LeadHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := urlID(r, "leadID")
	if id == "" {
		writeError(w, errors.Validation("lead id is required"))
		return
	}

	l, err := h.tracking.GetLead(r.Context(), claimsFrom(r), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

// List handles GET /api/v1/leads.
func (h *LeadHandler) List(w http.ResponseWriter, r *http.Request) {
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
	input := &tracking.ListLeadsInput{
		UserID:    common.ID(q.Get("user_id")),
		ProfileID: common.ID(q.Get("profile_id")),
		Status:    lead.Status(q.Get("status")),
		From:      from,
		To:        to,
		Page:      page,
		PageSize:  pageSize,
	}

	list, err := h.tracking.ListLeads(r.Context(), claimsFrom(r), input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// Update handles PUT /api/v1/leads/{leadID}. Status is not updatable here;
// it moves through ChangeStatus so transitions stay validated.
func (h *LeadHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := urlID(r, "leadID")
	if id == "" {
		writeError(w, errors.Validation("lead id is required"))
		return
	}

	var input tracking.UpdateLeadInput
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, err)
		return
	}
	input.ID = id

	l, err := h.tracking.UpdateLead(r.Context(), claimsFrom(r), &input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

// ChangeStatus handles PUT /api/v1/leads/{leadID}/status.
func (h *LeadHandler) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	id := urlID(r, "leadID")
	if id == "" {
		writeError(w, errors.Validation("lead id is required"))
		return
	}

	var input tracking.ChangeLeadStatusInput
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, err)
		return
	}
	input.ID = id

	l, err := h.tracking.ChangeLeadStatus(r.Context(), claimsFrom(r), &input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, l)
}

// Delete handles DELETE /api/v1/leads/{leadID}.
func (h *LeadHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := urlID(r, "leadID")
	if id == "" {
		writeError(w, errors.Validation("lead id is required"))
		return
	}

	if err := h.tracking.DeleteLead(r.Context(), claimsFrom(r), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
