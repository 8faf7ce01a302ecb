package handlers

import (
	"net/http"

	"github.com/relayops/leadtrack/internal/application/directory"
	"github.com/relayops/leadtrack/internal/domain/user"
	"github.com/relayops/leadtrack/internal/infrastructure/monitoring/logging"
	"github.com/relayops/leadtrack/pkg/errors"
)

// UserHandler handles the account endpoints. The whole surface is
// manager-only except password change, which users reach for themselves.
type UserHandler struct {
	directory directory.Service
	logger    logging.Logger
}

// NewUserHandler creates a UserHandler.
func NewUserHandler(svc directory.Service, logger logging.Logger) *UserHandler {
	return &UserHandler{directory: svc, logger: logger}
}

// Create handles POST /api/v1/users.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input directory.CreateUserInput
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, err)
		return
	}

	u, err := h.directory.CreateUser(r.Context(), claimsFrom(r), &input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

// Get handles GET /api/v1/users/{userID}.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := urlID(r, "userID")
	if id == "" {
		writeError(w, errors.Validation("user id is required"))
		return
	}

	u, err := h.directory.GetUser(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// List handles GET /api/v1/users.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	page, pageSize := parsePagination(r)
	q := r.URL.Query()
	input := &directory.ListUsersInput{
		Role:     user.Role(q.Get("role")),
		Status:   user.Status(q.Get("status")),
		Search:   q.Get("search"),
		Page:     page,
		PageSize: pageSize,
	}

	list, err := h.directory.ListUsers(r.Context(), input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// Update handles PUT /api/v1/users/{userID}. The URL names the account;
// an id in the body is ignored.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := urlID(r, "userID")
	if id == "" {
		writeError(w, errors.Validation("user id is required"))
		return
	}

	var input directory.UpdateUserInput
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, err)
		return
	}
	input.ID = id

	u, err := h.directory.UpdateUser(r.Context(), claimsFrom(r), &input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// ChangePassword handles PUT /api/v1/users/{userID}/password.
func (h *UserHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	id := urlID(r, "userID")
	if id == "" {
		writeError(w, errors.Validation("user id is required"))
		return
	}

	var input directory.ChangePasswordInput
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, err)
		return
	}
	input.UserID = id

	if err := h.directory.ChangePassword(r.Context(), claimsFrom(r), &input); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Delete handles DELETE /api/v1/users/{userID}.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := urlID(r, "userID")
	if id == "" {
		writeError(w, errors.Validation("user id is required"))
		return
	}

	if err := h.directory.DeleteUser(r.Context(), claimsFrom(r), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
