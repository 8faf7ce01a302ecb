package handlers

import (
	"net/http"

	"github.com/relayops/leadtrack/internal/application/directory"
	"github.com/relayops/leadtrack/internal/infrastructure/monitoring/logging"
	"github.com/relayops/leadtrack/pkg/errors"
	"github.com/relayops/leadtrack/pkg/types/common"
)

// AssignmentHandler handles both assignment kinds: lead-gen pairs are
// exclusive one-to-one, sales pairs are many-to-many.
type AssignmentHandler struct {
	directory directory.Service
	logger    logging.Logger
}

// NewAssignmentHandler creates an AssignmentHandler.
func NewAssignmentHandler(svc directory.Service, logger logging.Logger) *AssignmentHandler {
	return &AssignmentHandler{directory: svc, logger: logger}
}

// AssignLeadGen handles POST /api/v1/assignments/leadgen.
func (h *AssignmentHandler) AssignLeadGen(w http.ResponseWriter, r *http.Request) {
	var input directory.AssignInput
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, err)
		return
	}

	a, err := h.directory.AssignLeadGen(r.Context(), claimsFrom(r), &input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

// ListLeadGen handles GET /api/v1/assignments/leadgen.
func (h *AssignmentHandler) ListLeadGen(w http.ResponseWriter, r *http.Request) {
	list, err := h.directory.ListLeadGen(r.Context(), assignmentListInput(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// GetLeadGenByUser handles GET /api/v1/assignments/leadgen/by-user/{userID}.
// Lead-gen users call it to find their own profile.
func (h *AssignmentHandler) GetLeadGenByUser(w http.ResponseWriter, r *http.Request) {
	id := urlID(r, "userID")
	if id == "" {
		writeError(w, errors.Validation("user id is required"))
		return
	}

	a, err := h.directory.GetLeadGenByUser(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

// UnassignLeadGen handles DELETE /api/v1/assignments/leadgen/{assignmentID}.
func (h *AssignmentHandler) UnassignLeadGen(w http.ResponseWriter, r *http.Request) {
	id := urlID(r, "assignmentID")
	if id == "" {
		writeError(w, errors.Validation("assignment id is required"))
		return
	}

	if err := h.directory.UnassignLeadGen(r.Context(), claimsFrom(r), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AssignSales handles POST /api/v1/assignments/sales.
func (h *AssignmentHandler) AssignSales(w http.ResponseWriter, r *http.Request) {
	var input directory.AssignInput
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, err)
		return
	}

	a, err := h.directory.AssignSales(r.Context(), claimsFrom(r), &input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

// ListSales handles GET /api/v1/assignments/sales.
func (h *AssignmentHandler) ListSales(w http.ResponseWriter, r *http.Request) {
	list, err := h.directory.ListSales(r.Context(), assignmentListInput(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// UnassignSales handles DELETE /api/v1/assignments/sales/{assignmentID}.
func (h *AssignmentHandler) UnassignSales(w http.ResponseWriter, r *http.Request) {
	id := urlID(r, "assignmentID")
	if id == "" {
		writeError(w, errors.Validation("assignment id is required"))
		return
	}

	if err := h.directory.UnassignSales(r.Context(), claimsFrom(r), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func assignmentListInput(r *http.Request) *directory.ListAssignmentsInput {
	page, pageSize := parsePagination(r)
	q := r.URL.Query()
	return &directory.ListAssignmentsInput{
		UserID:    common.ID(q.Get("user_id")),
		ProfileID: common.ID(q.Get("profile_id")),
		Page:      page,
		PageSize:  pageSize,
	}
}
