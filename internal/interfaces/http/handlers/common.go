// Package handlers holds the HTTP handlers for the REST API. Each handler
// decodes the request, pulls the caller's claims out of the context, and
// hands off to an application service; permission checks happen in the
// route middleware before a request gets here.
package handlers

import (
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"strconv"

	chi "github.com/go-chi/chi/v5"

	"github.com/relayops/leadtrack/internal/infrastructure/auth"
	"github.com/relayops/leadtrack/pkg/errors"
	"github.com/relayops/leadtrack/pkg/types/common"
)

// maxJSONBodySize caps JSON request bodies. File uploads have their own
// limit from config.
const maxJSONBodySize = 1 << 20

// errorResponse is the error envelope on every non-2xx response.
type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// writeJSON writes data as a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

// writeError maps err onto its HTTP status and writes the error envelope.
// On server-side failures the code survives but the message is replaced
// with the code's default text, so internals never reach API clients.
func writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	if code == errors.CodeUnknown {
		code = errors.ErrCodeInternal
	}
	status := errors.HTTPStatusForCode(code)

	message := err.Error()
	var appErr *errors.AppError
	if stderrors.As(err, &appErr) {
		message = appErr.Message
	}
	if status >= 500 {
		message = errors.DefaultMessageForCode(code)
	}

	writeJSON(w, status, errorResponse{Code: code.String(), Message: message})
}

// decodeJSON decodes the request body into dst, rejecting unknown fields
// and oversized bodies.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBodySize))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return errors.Validation("invalid request body").WithCause(err)
	}
	if dec.More() {
		return errors.Validation("request body must contain a single JSON object")
	}
	return nil
}

// claimsFrom returns the authenticated caller, or nil when the route is
// unauthenticated. Services treat nil as "no auth context".
func claimsFrom(r *http.Request) *auth.Claims {
	claims, _ := auth.ClaimsFromContext(r.Context())
	return claims
}

// urlID returns the named chi URL parameter as an ID.
func urlID(r *http.Request, name string) common.ID {
	return common.ID(chi.URLParam(r, name))
}

// parsePagination reads page and page_size from the query string. Values
// out of range fall back to the defaults; services clamp again server-side.
func parsePagination(r *http.Request) (page, pageSize int) {
	page, pageSize = 1, 20
	if v := r.URL.Query().Get("page"); v != "" {
		if p, err := strconv.Atoi(v); err == nil && p > 0 {
			page = p
		}
	}
	if v := r.URL.Query().Get("page_size"); v != "" {
		if ps, err := strconv.Atoi(v); err == nil && ps > 0 && ps <= 100 {
			pageSize = ps
		}
	}
	return page, pageSize
}

// parseDateParam reads a query parameter as a date. A missing parameter
// returns the zero Date; a present but malformed one returns an error.
func parseDateParam(r *http.Request, name string) (common.Date, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return common.Date{}, nil
	}
	d, err := common.ParseDate(v)
	if err != nil {
		return common.Date{}, errors.Validation(name + " must be a date in YYYY-MM-DD form")
	}
	return d, nil
}
