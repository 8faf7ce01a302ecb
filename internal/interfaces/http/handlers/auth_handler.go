package handlers

import (
	"net/http"

	"github.com/relayops/leadtrack/internal/application/directory"
	"github.com/relayops/leadtrack/internal/infrastructure/monitoring/logging"
	"github.com/relayops/leadtrack/pkg/errors"
)

// AuthHandler handles the credential endpoints.
type AuthHandler struct {
	directory directory.Service
	logger    logging.Logger
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(svc directory.Service, logger logging.Logger) *AuthHandler {
	return &AuthHandler{directory: svc, logger: logger}
}

// refreshRequest carries the refresh token for Refresh and Logout.
type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Login handles POST /api/v1/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input directory.LoginInput
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.directory.Login(r.Context(), &input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Refresh handles POST /api/v1/auth/refresh.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.RefreshToken == "" {
		writeError(w, errors.Validation("refresh_token is required"))
		return
	}

	result, err := h.directory.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Logout handles POST /api/v1/auth/logout. Logout of an already-dead
// session succeeds, so clients can always clear local state.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.RefreshToken == "" {
		writeError(w, errors.Validation("refresh_token is required"))
		return
	}

	if err := h.directory.Logout(r.Context(), req.RefreshToken); err != nil {
		h.logger.Warn("Logout failed", logging.Err(err))
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
