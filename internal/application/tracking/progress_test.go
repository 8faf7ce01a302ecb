package tracking

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/relayops/leadtrack/internal/domain/activity"
	"github.com/relayops/leadtrack/internal/domain/progress"
	"github.com/relayops/leadtrack/internal/infrastructure/auth"
	"github.com/relayops/leadtrack/pkg/errors"
	"github.com/relayops/leadtrack/pkg/types/common"
)

func testProgress(t *testing.T) *progress.ProgressUpdate {
	t.Helper()
	p, err := progress.New("lg-1", "profile-1", dateOf(t, "2025-06-03"), 12, 4, "steady day")
	require.NoError(t, err)
	return p
}

func TestRecordProgress_Manager(t *testing.T) {
	f := newFixture(t)
	leadGenHolds(t, f, "lg-1", "profile-1")

	f.progress.On("Create", mock.Anything, mock.MatchedBy(func(p *progress.ProgressUpdate) bool {
		return p.UserID == "lg-1" && p.JobsFetched == 12 && p.JobsApplied == 4
	})).Return(nil)

	p, err := f.svc.RecordProgress(context.Background(), managerClaims(), &RecordProgressInput{
		UserID:      "lg-1",
		ProfileID:   "profile-1",
		WorkDate:    dateOf(t, "2025-06-03"),
		JobsFetched: 12,
		JobsApplied: 4,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.Contains(t, f.events.actions(), activity.ActionProgressRecorded)
}

func TestRecordProgress_SelfWithoutUserID(t *testing.T) {
	f := newFixture(t)
	leadGenHolds(t, f, "lg-1", "profile-1")

	f.progress.On("Create", mock.Anything, mock.MatchedBy(func(p *progress.ProgressUpdate) bool {
		return p.UserID == "lg-1"
	})).Return(nil)

	p, err := f.svc.RecordProgress(context.Background(), leadGenClaims("lg-1"), &RecordProgressInput{
		ProfileID:   "profile-1",
		WorkDate:    dateOf(t, "2025-06-03"),
		JobsFetched: 7,
	})
	require.NoError(t, err)
	assert.Equal(t, common.ID("lg-1"), p.UserID)
}

func TestRecordProgress_MemberNamesOther(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.RecordProgress(context.Background(), leadGenClaims("lg-1"), &RecordProgressInput{
		UserID:      "lg-2",
		ProfileID:   "profile-1",
		WorkDate:    dateOf(t, "2025-06-03"),
		JobsFetched: 7,
	})
	assert.ErrorIs(t, err, auth.ErrAccessDenied)
}

func TestRecordProgress_SalesActor(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.RecordProgress(context.Background(), salesClaims("sa-1"), &RecordProgressInput{
		ProfileID:   "profile-1",
		WorkDate:    dateOf(t, "2025-06-03"),
		JobsFetched: 7,
	})
	assert.ErrorIs(t, err, auth.ErrAccessDenied)
}

func TestRecordProgress_ManagerWithoutUserID(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.RecordProgress(context.Background(), managerClaims(), &RecordProgressInput{
		ProfileID:   "profile-1",
		WorkDate:    dateOf(t, "2025-06-03"),
		JobsFetched: 7,
	})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeValidation))
}

func TestRecordProgress_NotAssigned(t *testing.T) {
	f := newFixture(t)

	f.leadGen.On("GetByUser", mock.Anything, common.ID("lg-1")).
		Return(nil, errors.New(errors.ErrCodeAssignmentNotFound, "assignment not found"))

	_, err := f.svc.RecordProgress(context.Background(), leadGenClaims("lg-1"), &RecordProgressInput{
		ProfileID:   "profile-1",
		WorkDate:    dateOf(t, "2025-06-03"),
		JobsFetched: 7,
	})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeProgressNotAssigned))
	f.progress.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRecordProgress_FutureDate(t *testing.T) {
	f := newFixture(t)
	leadGenHolds(t, f, "lg-1", "profile-1")

	_, err := f.svc.RecordProgress(context.Background(), leadGenClaims("lg-1"), &RecordProgressInput{
		ProfileID:   "profile-1",
		WorkDate:    common.Today().AddDays(1),
		JobsFetched: 7,
	})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeProgressFutureDate))
}

func TestRecordProgress_Duplicate(t *testing.T) {
	f := newFixture(t)
	leadGenHolds(t, f, "lg-1", "profile-1")

	f.progress.On("Create", mock.Anything, mock.Anything).
		Return(errors.New(errors.ErrCodeProgressDuplicate, "progress already recorded"))

	_, err := f.svc.RecordProgress(context.Background(), leadGenClaims("lg-1"), &RecordProgressInput{
		ProfileID:   "profile-1",
		WorkDate:    dateOf(t, "2025-06-03"),
		JobsFetched: 7,
	})
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeProgressDuplicate))
}

func TestGetProgress_OwnerScope(t *testing.T) {
	f := newFixture(t)
	p := testProgress(t)

	f.progress.On("GetByID", mock.Anything, p.ID).Return(p, nil)

	got, err := f.svc.GetProgress(context.Background(), leadGenClaims("lg-1"), p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)

	_, err = f.svc.GetProgress(context.Background(), leadGenClaims("lg-2"), p.ID)
	assert.ErrorIs(t, err, auth.ErrAccessDenied)
}

func TestListProgress_MemberScopedToSelf(t *testing.T) {
	f := newFixture(t)

	f.progress.On("List", mock.Anything, mock.MatchedBy(func(filter progress.ListFilter) bool {
		return filter.UserID == "lg-1" && filter.ProfileID == "profile-1"
	})).Return([]*progress.ProgressUpdate{}, int64(0), nil)

	_, err := f.svc.ListProgress(context.Background(), leadGenClaims("lg-1"), &ListProgressInput{
		UserID:    "lg-2",
		ProfileID: "profile-1",
	})
	require.NoError(t, err)
	f.progress.AssertExpectations(t)
}

func TestListProgress_ManagerUnscoped(t *testing.T) {
	f := newFixture(t)

	f.progress.On("List", mock.Anything, mock.MatchedBy(func(filter progress.ListFilter) bool {
		return filter.UserID == "lg-2"
	})).Return([]*progress.ProgressUpdate{testProgress(t)}, int64(1), nil)

	list, err := f.svc.ListProgress(context.Background(), managerClaims(), &ListProgressInput{
		UserID: "lg-2",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), list.Total)
}

func TestReviseProgress(t *testing.T) {
	f := newFixture(t)
	p := testProgress(t)

	f.progress.On("GetByID", mock.Anything, p.ID).Return(p, nil)
	f.progress.On("Update", mock.Anything, p).Return(nil)

	revised, err := f.svc.ReviseProgress(context.Background(), leadGenClaims("lg-1"), &ReviseProgressInput{
		ID:          p.ID,
		JobsFetched: 20,
		JobsApplied: 6,
		Notes:       "recount after sync",
	})
	require.NoError(t, err)
	assert.Equal(t, 20, revised.JobsFetched)
	assert.Equal(t, "recount after sync", revised.Notes)
	assert.Contains(t, f.events.actions(), activity.ActionProgressRevised)
}

func TestReviseProgress_OtherMember(t *testing.T) {
	f := newFixture(t)
	p := testProgress(t)

	f.progress.On("GetByID", mock.Anything, p.ID).Return(p, nil)

	_, err := f.svc.ReviseProgress(context.Background(), leadGenClaims("lg-2"), &ReviseProgressInput{
		ID:          p.ID,
		JobsFetched: 20,
	})
	assert.ErrorIs(t, err, auth.ErrAccessDenied)
	f.progress.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestDeleteProgress(t *testing.T) {
	f := newFixture(t)
	p := testProgress(t)

	f.progress.On("GetByID", mock.Anything, p.ID).Return(p, nil)
	f.progress.On("Delete", mock.Anything, p.ID).Return(nil)

	require.NoError(t, f.svc.DeleteProgress(context.Background(), leadGenClaims("lg-1"), p.ID))
	assert.Contains(t, f.events.actions(), activity.ActionProgressDeleted)
}
