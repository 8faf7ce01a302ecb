package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/relayops/leadtrack/internal/application/tracking"
	"github.com/relayops/leadtrack/internal/domain/lead"
	"github.com/relayops/leadtrack/internal/domain/user"
	"github.com/relayops/leadtrack/internal/infrastructure/auth"
	"github.com/relayops/leadtrack/internal/infrastructure/monitoring/logging"
	"github.com/relayops/leadtrack/pkg/errors"
	"github.com/relayops/leadtrack/pkg/types/common"
)

func newTestLeadHandler() (*LeadHandler, *mockTrackingService) {
	svc := new(mockTrackingService)
	return NewLeadHandler(svc, logging.NewNopLogger()), svc
}

func salesClaims() *auth.Claims {
	return &auth.Claims{UserID: "u-sales", Username: "closer", Role: user.RoleSales}
}

func TestLeadRecord_Success(t *testing.T) {
	h, svc := newTestLeadHandler()

	created := &lead.LeadEntry{ID: "l-001", ProfileID: "p-001", Company: "Initech", Status: lead.StatusNew}
	svc.On("RecordLead", mock.Anything, mock.Anything, mock.MatchedBy(func(in *tracking.RecordLeadInput) bool {
		return in.ProfileID == common.ID("p-001") && in.Company == "Initech"
	})).Return(created, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/leads",
		strings.NewReader(`{"profile_id":"p-001","company":"Initech","position":"Backend Engineer","contact_email":"hr@initech.test","lead_date":"2026-03-03"}`))
	req = withClaims(req, salesClaims())
	rec := httptest.NewRecorder()

	h.Record(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), `"new"`)
	svc.AssertExpectations(t)
}

func TestLeadRecord_NotAssigned(t *testing.T) {
	h, svc := newTestLeadHandler()

	svc.On("RecordLead", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New(errors.ErrCodeLeadNotAssigned, "user does not hold this profile"))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/leads",
		strings.NewReader(`{"profile_id":"p-009","company":"Initech"}`))
	req = withClaims(req, salesClaims())
	rec := httptest.NewRecorder()

	h.Record(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestLeadList_StatusAndRange(t *testing.T) {
	h, svc := newTestLeadHandler()

	svc.On("ListLeads", mock.Anything, mock.Anything, mock.MatchedBy(func(in *tracking.ListLeadsInput) bool {
		return in.Status == lead.StatusContacted && in.From.String() == "2026-03-01"
	})).Return(&tracking.LeadList{Leads: []*lead.LeadEntry{}}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/leads?status=contacted&from=2026-03-01", nil)
	req = withClaims(req, salesClaims())
	rec := httptest.NewRecorder()

	h.List(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	svc.AssertExpectations(t)
}

func TestLeadUpdate_Success(t *testing.T) {
	h, svc := newTestLeadHandler()

	svc.On("UpdateLead", mock.Anything, mock.Anything, mock.MatchedBy(func(in *tracking.UpdateLeadInput) bool {
		return in.ID == common.ID("l-001")
	})).Return(&lead.LeadEntry{ID: "l-001", Company: "Initech GmbH"}, nil)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/leads/l-001",
		strings.NewReader(`{"company":"Initech GmbH"}`))
	req = withURLParam(req, "leadID", "l-001")
	req = withClaims(req, salesClaims())
	rec := httptest.NewRecorder()

	h.Update(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	svc.AssertExpectations(t)
}

func TestLeadChangeStatus_Success(t *testing.T) {
	h, svc := newTestLeadHandler()

	svc.On("ChangeLeadStatus", mock.Anything, mock.Anything, mock.MatchedBy(func(in *tracking.ChangeLeadStatusInput) bool {
		return in.ID == common.ID("l-001") && in.Status == lead.StatusContacted
	})).Return(&lead.LeadEntry{ID: "l-001", Status: lead.StatusContacted}, nil)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/leads/l-001/status",
		strings.NewReader(`{"status":"contacted"}`))
	req = withURLParam(req, "leadID", "l-001")
	req = withClaims(req, salesClaims())
	rec := httptest.NewRecorder()

	h.ChangeStatus(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	svc.AssertExpectations(t)
}

func TestLeadChangeStatus_InvalidTransition(t *testing.T) {
	h, svc := newTestLeadHandler()

	svc.On("ChangeLeadStatus", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New(errors.ErrCodeLeadInvalidTransition, "cannot move placed lead back to new"))

	req := httptest.NewRequest(http.MethodPut, "/api/v1/leads/l-001/status",
		strings.NewReader(`{"status":"new"}`))
	req = withURLParam(req, "leadID", "l-001")
	req = withClaims(req, salesClaims())
	rec := httptest.NewRecorder()

	h.ChangeStatus(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, string(errors.ErrCodeLeadInvalidTransition), decodeErrorBody(t, rec).Code)
}

func TestLeadDelete_Success(t *testing.T) {
	h, svc := newTestLeadHandler()

	svc.On("DeleteLead", mock.Anything, mock.Anything, common.ID("l-001")).Return(nil)

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/leads/l-001", nil)
	req = withURLParam(req, "leadID", "l-001")
	req = withClaims(req, managerClaims())
	rec := httptest.NewRecorder()

	h.Delete(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	svc.AssertExpectations(t)
}
