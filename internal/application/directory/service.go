// Package directory provides the application service for the people side of
// the platform: user accounts, candidate profiles with their resumes, and
// the lead-gen and sales assignments that bind the two together. It also
// owns the credential flows, since logins land on the same user records.
package directory

import (
	"context"
	"time"

	"github.com/relayops/leadtrack/internal/domain/activity"
	"github.com/relayops/leadtrack/internal/domain/assignment"
	"github.com/relayops/leadtrack/internal/domain/profile"
	"github.com/relayops/leadtrack/internal/domain/user"
	"github.com/relayops/leadtrack/internal/infrastructure/auth"
	"github.com/relayops/leadtrack/internal/infrastructure/database/redis"
	"github.com/relayops/leadtrack/internal/infrastructure/monitoring/logging"
	"github.com/relayops/leadtrack/internal/infrastructure/monitoring/prometheus"
	"github.com/relayops/leadtrack/internal/infrastructure/storage/minio"
	"github.com/relayops/leadtrack/pkg/errors"
	"github.com/relayops/leadtrack/pkg/types/common"
)

// DefaultMaxResumeSize caps resume uploads when the config does not.
const DefaultMaxResumeSize = 10 << 20

// Service defines the directory operations. Route middleware has already
// checked the verb-level permission by the time a call lands here; the
// service enforces the remaining row-level rules.
type Service interface {
	// Credential flows.
	Login(ctx context.Context, input *LoginInput) (*LoginResult, error)
	Refresh(ctx context.Context, refreshToken string) (*LoginResult, error)
	Logout(ctx context.Context, refreshToken string) error

	// User accounts.
	CreateUser(ctx context.Context, actor *auth.Claims, input *CreateUserInput) (*user.User, error)
	GetUser(ctx context.Context, id common.ID) (*user.User, error)
	ListUsers(ctx context.Context, input *ListUsersInput) (*UserList, error)
	UpdateUser(ctx context.Context, actor *auth.Claims, input *UpdateUserInput) (*user.User, error)
	ChangePassword(ctx context.Context, actor *auth.Claims, input *ChangePasswordInput) error
	DeleteUser(ctx context.Context, actor *auth.Claims, id common.ID) error

	// Candidate profiles and resumes.
	CreateProfile(ctx context.Context, actor *auth.Claims, input *CreateProfileInput) (*profile.Profile, error)
	GetProfile(ctx context.Context, id common.ID) (*profile.Profile, error)
	ListProfiles(ctx context.Context, input *ListProfilesInput) (*ProfileList, error)
	UpdateProfile(ctx context.Context, actor *auth.Claims, input *UpdateProfileInput) (*profile.Profile, error)
	ArchiveProfile(ctx context.Context, actor *auth.Claims, id common.ID) (*profile.Profile, error)
	UnarchiveProfile(ctx context.Context, actor *auth.Claims, id common.ID) (*profile.Profile, error)
	DeleteProfile(ctx context.Context, actor *auth.Claims, id common.ID) error
	UploadResume(ctx context.Context, actor *auth.Claims, input *UploadResumeInput) (*profile.Profile, error)
	DownloadResume(ctx context.Context, profileID common.ID) (*ResumeDownload, error)
	DeleteResume(ctx context.Context, actor *auth.Claims, profileID common.ID) error

	// Assignments.
	AssignLeadGen(ctx context.Context, actor *auth.Claims, input *AssignInput) (*assignment.LeadGenAssignment, error)
	UnassignLeadGen(ctx context.Context, actor *auth.Claims, id common.ID) error
	GetLeadGenByUser(ctx context.Context, userID common.ID) (*assignment.LeadGenAssignment, error)
	GetLeadGenByProfile(ctx context.Context, profileID common.ID) (*assignment.LeadGenAssignment, error)
	ListLeadGen(ctx context.Context, input *ListAssignmentsInput) (*LeadGenList, error)
	AssignSales(ctx context.Context, actor *auth.Claims, input *AssignInput) (*assignment.SalesAssignment, error)
	UnassignSales(ctx context.Context, actor *auth.Claims, id common.ID) error
	ListSales(ctx context.Context, input *ListAssignmentsInput) (*SalesList, error)
}

// TokenService issues and verifies token pairs. Implemented by
// auth.TokenService.
type TokenService interface {
	IssuePair(u *user.User) (*auth.TokenPair, *auth.Claims, error)
	VerifyRefreshToken(raw string) (*auth.Claims, error)
}

// PasswordHasher hashes and checks credentials. Implemented by
// auth.PasswordHasher.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(hash, password string) error
}

// SessionStore persists refresh sessions keyed by token ID. Implemented by
// redis.TokenStore.
type SessionStore interface {
	Save(ctx context.Context, session *redis.RefreshSession) error
	Get(ctx context.Context, tokenID common.ID) (*redis.RefreshSession, error)
	Delete(ctx context.Context, tokenID common.ID) error
	RevokeAllForUser(ctx context.Context, userID common.ID) (int64, error)
}

// EventPublisher pushes activity records onto the event stream. Implemented
// by kafka.ActivityPublisher. Publishing is best effort; the service never
// fails a request over it.
type EventPublisher interface {
	Publish(ctx context.Context, rec *activity.ActivityRecord)
}

// Config wires the service. Events and Metrics are optional; everything
// else is required.
type Config struct {
	Users     user.Repository
	Profiles  profile.Repository
	LeadGen   assignment.LeadGenRepository
	Sales     assignment.SalesRepository
	Tokens    TokenService
	Passwords PasswordHasher
	Sessions  SessionStore
	Storage   minio.ObjectStorageRepository

	ResumeBucket  string
	MaxResumeSize int64

	Events  EventPublisher
	Metrics *prometheus.AppMetrics
	Logger  logging.Logger
}

type serviceImpl struct {
	users     user.Repository
	profiles  profile.Repository
	leadGen   assignment.LeadGenRepository
	sales     assignment.SalesRepository
	tokens    TokenService
	passwords PasswordHasher
	sessions  SessionStore
	storage   minio.ObjectStorageRepository

	resumeBucket  string
	maxResumeSize int64

	events  EventPublisher
	metrics *prometheus.AppMetrics
	logger  logging.Logger
}

// NewService constructs the directory service.
func NewService(cfg Config) (Service, error) {
	switch {
	case cfg.Users == nil:
		return nil, errors.Validation("directory service requires a user repository")
	case cfg.Profiles == nil:
		return nil, errors.Validation("directory service requires a profile repository")
	case cfg.LeadGen == nil:
		return nil, errors.Validation("directory service requires a lead-gen assignment repository")
	case cfg.Sales == nil:
		return nil, errors.Validation("directory service requires a sales assignment repository")
	case cfg.Tokens == nil:
		return nil, errors.Validation("directory service requires a token service")
	case cfg.Passwords == nil:
		return nil, errors.Validation("directory service requires a password hasher")
	case cfg.Sessions == nil:
		return nil, errors.Validation("directory service requires a session store")
	case cfg.Storage == nil:
		return nil, errors.Validation("directory service requires object storage")
	case cfg.ResumeBucket == "":
		return nil, errors.Validation("directory service requires a resume bucket")
	case cfg.Logger == nil:
		return nil, errors.Validation("directory service requires a logger")
	}

	maxSize := cfg.MaxResumeSize
	if maxSize <= 0 {
		maxSize = DefaultMaxResumeSize
	}

	return &serviceImpl{
		users:         cfg.Users,
		profiles:      cfg.Profiles,
		leadGen:       cfg.LeadGen,
		sales:         cfg.Sales,
		tokens:        cfg.Tokens,
		passwords:     cfg.Passwords,
		sessions:      cfg.Sessions,
		storage:       cfg.Storage,
		resumeBucket:  cfg.ResumeBucket,
		maxResumeSize: maxSize,
		events:        cfg.Events,
		metrics:       cfg.Metrics,
		logger:        cfg.Logger,
	}, nil
}

// publish emits one activity record, best effort.
func (s *serviceImpl) publish(ctx context.Context, actorID common.ID, action, entityType string, entityID common.ID, detail map[string]any) {
	if s.events == nil {
		return
	}
	rec, err := activity.New(actorID, action, entityType, entityID, detail, time.Time{})
	if err != nil {
		s.logger.Warn("Activity event not built",
			logging.String("action", action),
			logging.Err(err))
		return
	}
	s.events.Publish(ctx, rec)
}

// revokeSessions drops every refresh session for the user. Failures are
// logged, not returned: the mutation that triggered the revocation has
// already been committed, and access tokens age out on their own.
func (s *serviceImpl) revokeSessions(ctx context.Context, userID common.ID) {
	revoked, err := s.sessions.RevokeAllForUser(ctx, userID)
	if err != nil {
		s.logger.Warn("Session revocation failed",
			logging.String("user_id", string(userID)),
			logging.Err(err))
		return
	}
	if revoked > 0 {
		s.logger.Info("Refresh sessions revoked",
			logging.String("user_id", string(userID)),
			logging.Int64("count", revoked))
	}
}

// hasLiveAssignments reports whether the user currently holds any
// assignment of the kind their role allows.
func (s *serviceImpl) hasLiveAssignments(ctx context.Context, u *user.User) (bool, error) {
	switch u.Role {
	case user.RoleLeadGen:
		_, err := s.leadGen.GetByUser(ctx, u.ID)
		if err == nil {
			return true, nil
		}
		if errors.IsCode(err, errors.ErrCodeAssignmentNotFound) {
			return false, nil
		}
		return false, err
	case user.RoleSales:
		_, total, err := s.sales.List(ctx, assignment.ListFilter{UserID: u.ID, Limit: 1})
		if err != nil {
			return false, err
		}
		return total > 0, nil
	default:
		return false, nil
	}
}

func requireActor(actor *auth.Claims) error {
	if actor == nil || actor.UserID == "" {
		return auth.ErrNoAuthContext
	}
	return nil
}

func normalizePage(page, pageSize int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize
}

func totalPages(total int64, pageSize int) int {
	if pageSize <= 0 {
		return 0
	}
	return int((total + int64(pageSize) - 1) / int64(pageSize))
}
