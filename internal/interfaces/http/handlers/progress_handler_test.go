package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/relayops/leadtrack/internal/application/tracking"
	"github.com/relayops/leadtrack/internal/domain/progress"
	"github.com/relayops/leadtrack/internal/infrastructure/monitoring/logging"
	"github.com/relayops/leadtrack/pkg/errors"
	"github.com/relayops/leadtrack/pkg/types/common"
)

func newTestProgressHandler() (*ProgressHandler, *mockTrackingService) {
	svc := new(mockTrackingService)
	return NewProgressHandler(svc, logging.NewNopLogger()), svc
}

func TestProgressRecord_Success(t *testing.T) {
	h, svc := newTestProgressHandler()

	created := &progress.ProgressUpdate{ID: "pr-001", UserID: "u-lg", ProfileID: "p-001", JobsFetched: 12, JobsApplied: 5}
	svc.On("RecordProgress", mock.Anything, mock.Anything, mock.MatchedBy(func(in *tracking.RecordProgressInput) bool {
		return in.ProfileID == common.ID("p-001") && in.JobsFetched == 12 && in.WorkDate.String() == "2026-03-03"
	})).Return(created, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/progress",
		strings.NewReader(`{"profile_id":"p-001","work_date":"2026-03-03","jobs_fetched":12,"jobs_applied":5,"notes":"slow board day"}`))
	req = withClaims(req, leadGenClaims())
	rec := httptest.NewRecorder()

	h.Record(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	svc.AssertExpectations(t)
}

func TestProgressRecord_FutureDate(t *testing.T) {
	h, svc := newTestProgressHandler()

	svc.On("RecordProgress", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New(errors.ErrCodeProgressFutureDate, "work date is in the future"))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/progress",
		strings.NewReader(`{"profile_id":"p-001","work_date":"2030-01-01","jobs_fetched":1,"jobs_applied":0}`))
	req = withClaims(req, leadGenClaims())
	rec := httptest.NewRecorder()

	h.Record(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, string(errors.ErrCodeProgressFutureDate), decodeErrorBody(t, rec).Code)
}

func TestProgressRecord_NotAssigned(t *testing.T) {
	h, svc := newTestProgressHandler()

	svc.On("RecordProgress", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New(errors.ErrCodeProgressNotAssigned, "profile is not assigned to user"))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/progress",
		strings.NewReader(`{"profile_id":"p-002","work_date":"2026-03-03","jobs_fetched":1,"jobs_applied":1}`))
	req = withClaims(req, leadGenClaims())
	rec := httptest.NewRecorder()

	h.Record(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestProgressList_DateRange(t *testing.T) {
	h, svc := newTestProgressHandler()

	svc.On("ListProgress", mock.Anything, mock.Anything, mock.MatchedBy(func(in *tracking.ListProgressInput) bool {
		return in.From.String() == "2026-03-02" && in.To.String() == "2026-03-08"
	})).Return(&tracking.ProgressList{Updates: []*progress.ProgressUpdate{}}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/progress?from=2026-03-02&to=2026-03-08", nil)
	req = withClaims(req, leadGenClaims())
	rec := httptest.NewRecorder()

	h.List(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	svc.AssertExpectations(t)
}

func TestProgressRevise_Success(t *testing.T) {
	h, svc := newTestProgressHandler()

	svc.On("ReviseProgress", mock.Anything, mock.Anything, mock.MatchedBy(func(in *tracking.ReviseProgressInput) bool {
		return in.ID == common.ID("pr-001") && in.JobsFetched == 15
	})).Return(&progress.ProgressUpdate{ID: "pr-001", JobsFetched: 15}, nil)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/progress/pr-001",
		strings.NewReader(`{"jobs_fetched":15,"jobs_applied":6}`))
	req = withURLParam(req, "progressID", "pr-001")
	req = withClaims(req, leadGenClaims())
	rec := httptest.NewRecorder()

	h.Revise(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	svc.AssertExpectations(t)
}

func TestProgressDelete_Success(t *testing.T) {
	h, svc := newTestProgressHandler()

	svc.On("DeleteProgress", mock.Anything, mock.Anything, common.ID("pr-001")).Return(nil)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/progress/pr-001", nil)
	req = withURLParam(req, "progressID", "pr-001")
	req = withClaims(req, managerClaims())
	rec := httptest.NewRecorder()

	h.Delete(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	svc.AssertExpectations(t)
}
