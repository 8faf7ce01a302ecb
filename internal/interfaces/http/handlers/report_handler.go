package handlers

import (
	"net/http"
	"strconv"

	"github.com/relayops/leadtrack/internal/application/reporting"
	"github.com/relayops/leadtrack/internal/domain/report"
	"github.com/relayops/leadtrack/internal/infrastructure/monitoring/logging"
	"github.com/relayops/leadtrack/pkg/errors"
)

// ReportHandler handles report generation and the stored artifacts. The
// route layer restricts the whole surface to managers.
type ReportHandler struct {
	reporting reporting.Service
	logger    logging.Logger
}

// NewReportHandler creates a ReportHandler.
func NewReportHandler(svc reporting.Service, logger logging.Logger) *ReportHandler {
	return &ReportHandler{reporting: svc, logger: logger}
}

// GenerateWeekly handles POST /api/v1/reports/weekly. Generation runs
// synchronously; the response is the finished artifact row.
func (h *ReportHandler) GenerateWeekly(w http.ResponseWriter, r *http.Request) {
	var input reporting.GenerateInput
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, err)
		return
	}

	artifact, err := h.reporting.GenerateWeekly(r.Context(), claimsFrom(r), &input)
	if err != nil {
		h.logger.Error("Weekly report generation failed", logging.Err(err))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, artifact)
}

// GenerateDaily handles POST /api/v1/reports/daily.
func (h *ReportHandler) GenerateDaily(w http.ResponseWriter, r *http.Request) {
	var input reporting.GenerateInput
	if err := decodeJSON(r, &input); err != nil {
		writeError(w, err)
		return
	}

	artifact, err := h.reporting.GenerateDaily(r.Context(), claimsFrom(r), &input)
	if err != nil {
		h.logger.Error("Daily report generation failed", logging.Err(err))
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, artifact)
}

// List handles GET /api/v1/reports.
func (h *ReportHandler) List(w http.ResponseWriter, r *http.Request) {
	page, pageSize := parsePagination(r)
	q := r.URL.Query()
	input := &reporting.ListArtifactsInput{
		Kind:     report.Kind(q.Get("kind")),
		Format:   report.Format(q.Get("format")),
		Status:   report.ArtifactStatus(q.Get("status")),
		Page:     page,
		PageSize: pageSize,
	}

	list, err := h.reporting.ListArtifacts(r.Context(), claimsFrom(r), input)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// Get handles GET /api/v1/reports/{reportID}.
func (h *ReportHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := urlID(r, "reportID")
	if id == "" {
		writeError(w, errors.Validation("report id is required"))
		return
	}

	artifact, err := h.reporting.GetArtifact(r.Context(), claimsFrom(r), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, artifact)
}

// Download handles GET /api/v1/reports/{reportID}/download, serving the
// stored document as an attachment.
func (h *ReportHandler) Download(w http.ResponseWriter, r *http.Request) {
	id := urlID(r, "reportID")
	if id == "" {
		writeError(w, errors.Validation("report id is required"))
		return
	}

	dl, err := h.reporting.DownloadArtifact(r.Context(), claimsFrom(r), id)
	if err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", dl.ContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+dl.FileName+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(dl.Data)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(dl.Data); err != nil {
		h.logger.Warn("Report download interrupted",
			logging.String("report_id", string(id)),
			logging.Err(err))
	}
}

// Delete handles DELETE /api/v1/reports/{reportID}.
func (h *ReportHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := urlID(r, "reportID")
	if id == "" {
		writeError(w, errors.Validation("report id is required"))
		return
	}

	if err := h.reporting.DeleteArtifact(r.Context(), claimsFrom(r), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
