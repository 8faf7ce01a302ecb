package handlers

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	appactivity "github.com/relayops/leadtrack/internal/application/activity"
	"github.com/relayops/leadtrack/internal/application/directory"
	"github.com/relayops/leadtrack/internal/application/reporting"
	"github.com/relayops/leadtrack/internal/application/tracking"
	"github.com/relayops/leadtrack/internal/domain/activity"
	"github.com/relayops/leadtrack/internal/domain/assignment"
	"github.com/relayops/leadtrack/internal/domain/lead"
	"github.com/relayops/leadtrack/internal/domain/profile"
	"github.com/relayops/leadtrack/internal/domain/progress"
	"github.com/relayops/leadtrack/internal/domain/report"
	"github.com/relayops/leadtrack/internal/domain/target"
	"github.com/relayops/leadtrack/internal/domain/user"
	"github.com/relayops/leadtrack/internal/infrastructure/auth"
	"github.com/relayops/leadtrack/pkg/types/common"
)

type mockDirectoryService struct {
	mock.Mock
}

func (m *mockDirectoryService) Login(ctx context.Context, input *directory.LoginInput) (*directory.LoginResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*directory.LoginResult), args.Error(1)
}

func (m *mockDirectoryService) Refresh(ctx context.Context, refreshToken string) (*directory.LoginResult, error) {
	args := m.Called(ctx, refreshToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*directory.LoginResult), args.Error(1)
}

func (m *mockDirectoryService) Logout(ctx context.Context, refreshToken string) error {
	return m.Called(ctx, refreshToken).Error(0)
}

func (m *mockDirectoryService) CreateUser(ctx context.Context, actor *auth.Claims, input *directory.CreateUserInput) (*user.User, error) {
	args := m.Called(ctx, actor, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *mockDirectoryService) GetUser(ctx context.Context, id common.ID) (*user.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *mockDirectoryService) ListUsers(ctx context.Context, input *directory.ListUsersInput) (*directory.UserList, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*directory.UserList), args.Error(1)
}

func (m *mockDirectoryService) UpdateUser(ctx context.Context, actor *auth.Claims, input *directory.UpdateUserInput) (*user.User, error) {
	args := m.Called(ctx, actor, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *mockDirectoryService) ChangePassword(ctx context.Context, actor *auth.Claims, input *directory.ChangePasswordInput) error {
	return m.Called(ctx, actor, input).Error(0)
}

func (m *mockDirectoryService) DeleteUser(ctx context.Context, actor *auth.Claims, id common.ID) error {
	return m.Called(ctx, actor, id).Error(0)
}

func (m *mockDirectoryService) CreateProfile(ctx context.Context, actor *auth.Claims, input *directory.CreateProfileInput) (*profile.Profile, error) {
	args := m.Called(ctx, actor, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*profile.Profile), args.Error(1)
}

func (m *mockDirectoryService) GetProfile(ctx context.Context, id common.ID) (*profile.Profile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*profile.Profile), args.Error(1)
}

func (m *mockDirectoryService) ListProfiles(ctx context.Context, input *directory.ListProfilesInput) (*directory.ProfileList, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*directory.ProfileList), args.Error(1)
}

func (m *mockDirectoryService) UpdateProfile(ctx context.Context, actor *auth.Claims, input *directory.UpdateProfileInput) (*profile.Profile, error) {
	args := m.Called(ctx, actor, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*profile.Profile), args.Error(1)
}

func (m *mockDirectoryService) ArchiveProfile(ctx context.Context, actor *auth.Claims, id common.ID) (*profile.Profile, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*profile.Profile), args.Error(1)
}

func (m *mockDirectoryService) UnarchiveProfile(ctx context.Context, actor *auth.Claims, id common.ID) (*profile.Profile, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*profile.Profile), args.Error(1)
}

func (m *mockDirectoryService) DeleteProfile(ctx context.Context, actor *auth.Claims, id common.ID) error {
	return m.Called(ctx, actor, id).Error(0)
}

func (m *mockDirectoryService) UploadResume(ctx context.Context, actor *auth.Claims, input *directory.UploadResumeInput) (*profile.Profile, error) {
	args := m.Called(ctx, actor, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*profile.Profile), args.Error(1)
}

func (m *mockDirectoryService) DownloadResume(ctx context.Context, profileID common.ID) (*directory.ResumeDownload, error) {
	args := m.Called(ctx, profileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*directory.ResumeDownload), args.Error(1)
}

func (m *mockDirectoryService) DeleteResume(ctx context.Context, actor *auth.Claims, profileID common.ID) error {
	return m.Called(ctx, actor, profileID).Error(0)
}

func (m *mockDirectoryService) AssignLeadGen(ctx context.Context, actor *auth.Claims, input *directory.AssignInput) (*assignment.LeadGenAssignment, error) {
	args := m.Called(ctx, actor, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*assignment.LeadGenAssignment), args.Error(1)
}

func (m *mockDirectoryService) UnassignLeadGen(ctx context.Context, actor *auth.Claims, id common.ID) error {
	return m.Called(ctx, actor, id).Error(0)
}

func (m *mockDirectoryService) GetLeadGenByUser(ctx context.Context, userID common.ID) (*assignment.LeadGenAssignment, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*assignment.LeadGenAssignment), args.Error(1)
}

func (m *mockDirectoryService) GetLeadGenByProfile(ctx context.Context, profileID common.ID) (*assignment.LeadGenAssignment, error) {
	args := m.Called(ctx, profileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*assignment.LeadGenAssignment), args.Error(1)
}

func (m *mockDirectoryService) ListLeadGen(ctx context.Context, input *directory.ListAssignmentsInput) (*directory.LeadGenList, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*directory.LeadGenList), args.Error(1)
}

func (m *mockDirectoryService) AssignSales(ctx context.Context, actor *auth.Claims, input *directory.AssignInput) (*assignment.SalesAssignment, error) {
	args := m.Called(ctx, actor, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*assignment.SalesAssignment), args.Error(1)
}

func (m *mockDirectoryService) UnassignSales(ctx context.Context, actor *auth.Claims, id common.ID) error {
	return m.Called(ctx, actor, id).Error(0)
}

func (m *mockDirectoryService) ListSales(ctx context.Context, input *directory.ListAssignmentsInput) (*directory.SalesList, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*directory.SalesList), args.Error(1)
}

type mockTrackingService struct {
	mock.Mock
}

func (m *mockTrackingService) SetTarget(ctx context.Context, actor *auth.Claims, input *tracking.SetTargetInput) (*target.Target, error) {
	args := m.Called(ctx, actor, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*target.Target), args.Error(1)
}

func (m *mockTrackingService) GetTarget(ctx context.Context, actor *auth.Claims, id common.ID) (*target.Target, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*target.Target), args.Error(1)
}

func (m *mockTrackingService) ListTargets(ctx context.Context, actor *auth.Claims, input *tracking.ListTargetsInput) (*tracking.TargetList, error) {
	args := m.Called(ctx, actor, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tracking.TargetList), args.Error(1)
}

func (m *mockTrackingService) ReviseTarget(ctx context.Context, actor *auth.Claims, input *tracking.ReviseTargetInput) (*target.Target, error) {
	args := m.Called(ctx, actor, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*target.Target), args.Error(1)
}

func (m *mockTrackingService) DeleteTarget(ctx context.Context, actor *auth.Claims, id common.ID) error {
	return m.Called(ctx, actor, id).Error(0)
}

func (m *mockTrackingService) RecordProgress(ctx context.Context, actor *auth.Claims, input *tracking.RecordProgressInput) (*progress.ProgressUpdate, error) {
	args := m.Called(ctx, actor, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*progress.ProgressUpdate), args.Error(1)
}

func (m *mockTrackingService) GetProgress(ctx context.Context, actor *auth.Claims, id common.ID) (*progress.ProgressUpdate, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*progress.ProgressUpdate), args.Error(1)
}

func (m *mockTrackingService) ListProgress(ctx context.Context, actor *auth.Claims, input *tracking.ListProgressInput) (*tracking.ProgressList, error) {
	args := m.Called(ctx, actor, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tracking.ProgressList), args.Error(1)
}

func (m *mockTrackingService) ReviseProgress(ctx context.Context, actor *auth.Claims, input *tracking.ReviseProgressInput) (*progress.ProgressUpdate, error) {
	args := m.Called(ctx, actor, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*progress.ProgressUpdate), args.Error(1)
}

func (m *mockTrackingService) DeleteProgress(ctx context.Context, actor *auth.Claims, id common.ID) error {
	return m.Called(ctx, actor, id).Error(0)
}

func (m *mockTrackingService) RecordLead(ctx context.Context, actor *auth.Claims, input *tracking.RecordLeadInput) (*lead.LeadEntry, error) {
	args := m.Called(ctx, actor, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*lead.LeadEntry), args.Error(1)
}

func (m *mockTrackingService) GetLead(ctx context.Context, actor *auth.Claims, id common.ID) (*lead.LeadEntry, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*lead.LeadEntry), args.Error(1)
}

func (m *mockTrackingService) ListLeads(ctx context.Context, actor *auth.Claims, input *tracking.ListLeadsInput) (*tracking.LeadList, error) {
	args := m.Called(ctx, actor, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*tracking.LeadList), args.Error(1)
}

func (m *mockTrackingService) UpdateLead(ctx context.Context, actor *auth.Claims, input *tracking.UpdateLeadInput) (*lead.LeadEntry, error) {
	args := m.Called(ctx, actor, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*lead.LeadEntry), args.Error(1)
}

func (m *mockTrackingService) ChangeLeadStatus(ctx context.Context, actor *auth.Claims, input *tracking.ChangeLeadStatusInput) (*lead.LeadEntry, error) {
	args := m.Called(ctx, actor, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*lead.LeadEntry), args.Error(1)
}

func (m *mockTrackingService) DeleteLead(ctx context.Context, actor *auth.Claims, id common.ID) error {
	return m.Called(ctx, actor, id).Error(0)
}

type mockReportingService struct {
	mock.Mock
}

func (m *mockReportingService) GenerateWeekly(ctx context.Context, actor *auth.Claims, input *reporting.GenerateInput) (*report.Artifact, error) {
	args := m.Called(ctx, actor, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*report.Artifact), args.Error(1)
}

func (m *mockReportingService) GenerateDaily(ctx context.Context, actor *auth.Claims, input *reporting.GenerateInput) (*report.Artifact, error) {
	args := m.Called(ctx, actor, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*report.Artifact), args.Error(1)
}

func (m *mockReportingService) ListArtifacts(ctx context.Context, actor *auth.Claims, input *reporting.ListArtifactsInput) (*reporting.ArtifactList, error) {
	args := m.Called(ctx, actor, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reporting.ArtifactList), args.Error(1)
}

func (m *mockReportingService) GetArtifact(ctx context.Context, actor *auth.Claims, id common.ID) (*report.Artifact, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*report.Artifact), args.Error(1)
}

func (m *mockReportingService) DownloadArtifact(ctx context.Context, actor *auth.Claims, id common.ID) (*reporting.Download, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reporting.Download), args.Error(1)
}

func (m *mockReportingService) DeleteArtifact(ctx context.Context, actor *auth.Claims, id common.ID) error {
	return m.Called(ctx, actor, id).Error(0)
}

type mockActivityService struct {
	mock.Mock
}

func (m *mockActivityService) Record(ctx context.Context, input *appactivity.RecordInput) (*activity.ActivityRecord, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*activity.ActivityRecord), args.Error(1)
}

func (m *mockActivityService) List(ctx context.Context, input *appactivity.ListInput) (*appactivity.ListResult, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appactivity.ListResult), args.Error(1)
}

func (m *mockActivityService) Purge(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}
