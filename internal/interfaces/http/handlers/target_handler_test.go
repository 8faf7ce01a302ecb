package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/relayops/leadtrack/internal/application/tracking"
	"github.com/relayops/leadtrack/internal/domain/target"
	"github.com/relayops/leadtrack/internal/infrastructure/monitoring/logging"
	"github.com/relayops/leadtrack/pkg/errors"
	"github.com/relayops/leadtrack/pkg/types/common"
)

func newTestTargetHandler() (*TargetHandler, *mockTrackingService) {
	svc := new(mockTrackingService)
	return NewTargetHandler(svc, logging.NewNopLogger()), svc
}

func TestTargetSet_Success(t *testing.T) {
	h, svc := newTestTargetHandler()

	created := &target.Target{ID: "t-001", UserID: "u-lg", ProfileID: "p-001", JobsToFetch: 50, JobsToApply: 20}
	svc.On("SetTarget", mock.Anything, mock.Anything, mock.MatchedBy(func(in *tracking.SetTargetInput) bool {
		return in.UserID == common.ID("u-lg") && in.JobsToFetch == 50
	})).Return(created, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/targets",
		strings.NewReader(`{"user_id":"u-lg","profile_id":"p-001","jobs_to_fetch":50,"jobs_to_apply":20,"period_start":"2026-03-02","period_end":"2026-03-08"}`))
	req = withClaims(req, managerClaims())
	rec := httptest.NewRecorder()

	h.Set(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	svc.AssertExpectations(t)
}

func TestTargetSet_OverlappingPeriod(t *testing.T) {
	h, svc := newTestTargetHandler()

	svc.On("SetTarget", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New(errors.ErrCodeTargetOverlap, "target period overlaps an existing target"))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/targets",
		strings.NewReader(`{"user_id":"u-lg","profile_id":"p-001","jobs_to_fetch":50,"jobs_to_apply":20,"period_start":"2026-03-04","period_end":"2026-03-10"}`))
	req = withClaims(req, managerClaims())
	rec := httptest.NewRecorder()

	h.Set(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, string(errors.ErrCodeTargetOverlap), decodeErrorBody(t, rec).Code)
}

func TestTargetGet_NotFound(t *testing.T) {
	h, svc := newTestTargetHandler()

	svc.On("GetTarget", mock.Anything, mock.Anything, common.ID("t-999")).
		Return(nil, errors.New(errors.ErrCodeTargetNotFound, "target not found"))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/targets/t-999", nil)
	req = withURLParam(req, "targetID", "t-999")
	req = withClaims(req, leadGenClaims())
	rec := httptest.NewRecorder()

	h.Get(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestTargetList_ActiveOnFilter(t *testing.T) {
	h, svc := newTestTargetHandler()

	svc.On("ListTargets", mock.Anything, mock.Anything, mock.MatchedBy(func(in *tracking.ListTargetsInput) bool {
		return in.ActiveOn.String() == "2026-03-04" && in.UserID == common.ID("u-lg")
	})).Return(&tracking.TargetList{Targets: []*target.Target{}}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/targets?user_id=u-lg&active_on=2026-03-04", nil)
	req = withClaims(req, leadGenClaims())
	rec := httptest.NewRecorder()

	h.List(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	svc.AssertExpectations(t)
}

func TestTargetList_BadActiveOn(t *testing.T) {
	h, _ := newTestTargetHandler()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/targets?active_on=yesterday", nil)
	req = withClaims(req, leadGenClaims())
	rec := httptest.NewRecorder()

	h.List(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestTargetRevise_URLWinsOverBody(t *testing.T) {
	h, svc := newTestTargetHandler()

	svc.On("ReviseTarget", mock.Anything, mock.Anything, mock.MatchedBy(func(in *tracking.ReviseTargetInput) bool {
		return in.ID == common.ID("t-001")
	})).Return(&target.Target{ID: "t-001"}, nil)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/targets/t-001",
		strings.NewReader(`{"id":"t-other","jobs_to_fetch":60,"jobs_to_apply":25}`))
	req = withURLParam(req, "targetID", "t-001")
	req = withClaims(req, managerClaims())
	rec := httptest.NewRecorder()

	h.Revise(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	svc.AssertExpectations(t)
}

func TestTargetDelete_Success(t *testing.T) {
	h, svc := newTestTargetHandler()

	svc.On("DeleteTarget", mock.Anything, mock.Anything, common.ID("t-001")).Return(nil)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/targets/t-001", nil)
	req = withURLParam(req, "targetID", "t-001")
	req = withClaims(req, managerClaims())
	rec := httptest.NewRecorder()

	h.Delete(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	svc.AssertExpectations(t)
}
