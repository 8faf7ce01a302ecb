package handlers

import (
	"net/http"
	"time"

	"github.com/relayops/leadtrack/internal/application/activity"
	"github.com/relayops/leadtrack/internal/infrastructure/monitoring/logging"
	"github.com/relayops/leadtrack/pkg/errors"
	"github.com/relayops/leadtrack/pkg/types/common"
)

// ActivityHandler serves the audit trail.
type ActivityHandler struct {
	activity activity.Service
	logger   logging.Logger
}

// NewActivityHandler creates an ActivityHandler.
func NewActivityHandler(svc activity.Service, logger logging.Logger) *ActivityHandler {
	return &ActivityHandler{activity: svc, logger: logger}
}

// List handles GET /api/v1/activity. from and to accept RFC 3339
// timestamps or bare dates.
func (h *ActivityHandler) List(w http.ResponseWriter, r *http.Request) {
	from, err := parseTimeParam(r, "from")
	if err != nil {
		writeError(w, err)
		return
	}
	to, err := parseTimeParam(r, "to")
	if err != nil {
		writeError(w, err)
		return
	}

	page, pageSize := parsePagination(r)
	q := r.URL.Query()
	input := &activity.ListInput{
		ActorID:    common.ID(q.Get("actor_id")),
		Action:     q.Get("action"),
		EntityType: q.Get("entity_type"),
		EntityID:   common.ID(q.Get("entity_id")),
		From:       from,
		To:         to,
		Page:       page,
		PageSize:   pageSize,
	}

	result, err := h.activity.List(r.Context(), input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func parseTimeParam(r *http.Request, name string) (time.Time, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	if d, err := common.ParseDate(v); err == nil {
		return d.Time(), nil
	}
	return time.Time{}, errors.Validation(name + " must be an RFC 3339 timestamp or a YYYY-MM-DD date")
}
