package directory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/relayops/leadtrack/internal/domain/activity"
	"github.com/relayops/leadtrack/internal/domain/assignment"
	"github.com/relayops/leadtrack/internal/domain/profile"
	"github.com/relayops/leadtrack/internal/domain/user"
	"github.com/relayops/leadtrack/internal/infrastructure/auth"
	"github.com/relayops/leadtrack/internal/infrastructure/database/redis"
	"github.com/relayops/leadtrack/internal/infrastructure/monitoring/logging"
	"github.com/relayops/leadtrack/internal/infrastructure/storage/minio"
	"github.com/relayops/leadtrack/pkg/types/common"
)

type mockUserRepository struct {
	mock.Mock
}

func (m *mockUserRepository) Create(ctx context.Context, u *user.User) error {
	return m.Called(ctx, u).Error(0)
}

func (m *mockUserRepository) GetByID(ctx context.Context, id common.ID) (*user.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *mockUserRepository) GetByUsername(ctx context.Context, username string) (*user.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

func (m *mockUserRepository) List(ctx context.Context, filter user.ListFilter) ([]*user.User, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*user.User), args.Get(1).(int64), args.Error(2)
}

func (m *mockUserRepository) Update(ctx context.Context, u *user.User) error {
	return m.Called(ctx, u).Error(0)
}

func (m *mockUserRepository) Delete(ctx context.Context, id common.ID) error {
	return m.Called(ctx, id).Error(0)
}

type mockProfileRepository struct {
	mock.Mock
}

func (m *mockProfileRepository) Create(ctx context.Context, p *profile.Profile) error {
	return m.Called(ctx, p).Error(0)
}

func (m *mockProfileRepository) GetByID(ctx context.Context, id common.ID) (*profile.Profile, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*profile.Profile), args.Error(1)
}

func (m *mockProfileRepository) List(ctx context.Context, filter profile.ListFilter) ([]*profile.Profile, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*profile.Profile), args.Get(1).(int64), args.Error(2)
}

func (m *mockProfileRepository) Update(ctx context.Context, p *profile.Profile) error {
	return m.Called(ctx, p).Error(0)
}

func (m *mockProfileRepository) Delete(ctx context.Context, id common.ID) error {
	return m.Called(ctx, id).Error(0)
}

type mockLeadGenRepository struct {
	mock.Mock
}

func (m *mockLeadGenRepository) Create(ctx context.Context, a *assignment.LeadGenAssignment) error {
	return m.Called(ctx, a).Error(0)
}

func (m *mockLeadGenRepository) GetByID(ctx context.Context, id common.ID) (*assignment.LeadGenAssignment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*assignment.LeadGenAssignment), args.Error(1)
}

func (m *mockLeadGenRepository) GetByUser(ctx context.Context, userID common.ID) (*assignment.LeadGenAssignment, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*assignment.LeadGenAssignment), args.Error(1)
}

func (m *mockLeadGenRepository) GetByProfile(ctx context.Context, profileID common.ID) (*assignment.LeadGenAssignment, error) {
	args := m.Called(ctx, profileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*assignment.LeadGenAssignment), args.Error(1)
}

func (m *mockLeadGenRepository) List(ctx context.Context, filter assignment.ListFilter) ([]*assignment.LeadGenAssignment, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*assignment.LeadGenAssignment), args.Get(1).(int64), args.Error(2)
}

func (m *mockLeadGenRepository) Delete(ctx context.Context, id common.ID) error {
	return m.Called(ctx, id).Error(0)
}

type mockSalesRepository struct {
	mock.Mock
}

func (m *mockSalesRepository) Create(ctx context.Context, a *assignment.SalesAssignment) error {
	return m.Called(ctx, a).Error(0)
}

func (m *mockSalesRepository) GetByID(ctx context.Context, id common.ID) (*assignment.SalesAssignment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*assignment.SalesAssignment), args.Error(1)
}

func (m *mockSalesRepository) GetByPair(ctx context.Context, userID, profileID common.ID) (*assignment.SalesAssignment, error) {
	args := m.Called(ctx, userID, profileID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*assignment.SalesAssignment), args.Error(1)
}

func (m *mockSalesRepository) List(ctx context.Context, filter assignment.ListFilter) ([]*assignment.SalesAssignment, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*assignment.SalesAssignment), args.Get(1).(int64), args.Error(2)
}

func (m *mockSalesRepository) Delete(ctx context.Context, id common.ID) error {
	return m.Called(ctx, id).Error(0)
}

type mockTokenService struct {
	mock.Mock
}

func (m *mockTokenService) IssuePair(u *user.User) (*auth.TokenPair, *auth.Claims, error) {
	args := m.Called(u)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*auth.TokenPair), args.Get(1).(*auth.Claims), args.Error(2)
}

func (m *mockTokenService) VerifyRefreshToken(raw string) (*auth.Claims, error) {
	args := m.Called(raw)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*auth.Claims), args.Error(1)
}

type mockPasswordHasher struct {
	mock.Mock
}

func (m *mockPasswordHasher) Hash(password string) (string, error) {
	args := m.Called(password)
	return args.String(0), args.Error(1)
}

func (m *mockPasswordHasher) Verify(hash, password string) error {
	return m.Called(hash, password).Error(0)
}

type mockSessionStore struct {
	mock.Mock
}

func (m *mockSessionStore) Save(ctx context.Context, session *redis.RefreshSession) error {
	return m.Called(ctx, session).Error(0)
}

func (m *mockSessionStore) Get(ctx context.Context, tokenID common.ID) (*redis.RefreshSession, error) {
	args := m.Called(ctx, tokenID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*redis.RefreshSession), args.Error(1)
}

func (m *mockSessionStore) Delete(ctx context.Context, tokenID common.ID) error {
	return m.Called(ctx, tokenID).Error(0)
}

func (m *mockSessionStore) RevokeAllForUser(ctx context.Context, userID common.ID) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}

type mockStorage struct {
	mock.Mock
}

func (m *mockStorage) Upload(ctx context.Context, req *minio.UploadRequest) (*minio.UploadResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*minio.UploadResult), args.Error(1)
}

func (m *mockStorage) Download(ctx context.Context, bucket, objectKey string) (*minio.DownloadResult, error) {
	args := m.Called(ctx, bucket, objectKey)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*minio.DownloadResult), args.Error(1)
}

func (m *mockStorage) Delete(ctx context.Context, bucket, objectKey string) error {
	return m.Called(ctx, bucket, objectKey).Error(0)
}

func (m *mockStorage) Exists(ctx context.Context, bucket, objectKey string) (bool, error) {
	args := m.Called(ctx, bucket, objectKey)
	return args.Bool(0), args.Error(1)
}

func (m *mockStorage) GetPresignedDownloadURL(ctx context.Context, bucket, objectKey string, expiry time.Duration) (string, error) {
	args := m.Called(ctx, bucket, objectKey, expiry)
	return args.String(0), args.Error(1)
}

// captureEvents collects published activity records so tests can assert on
// them without a mock expectation per call.
type captureEvents struct {
	mu      sync.Mutex
	records []*activity.ActivityRecord
}

func (c *captureEvents) Publish(_ context.Context, rec *activity.ActivityRecord) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records = append(c.records, rec)
}

func (c *captureEvents) actions() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.records))
	for _, rec := range c.records {
		out = append(out, rec.Action)
	}
	return out
}

func (c *captureEvents) last() *activity.ActivityRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.records) == 0 {
		return nil
	}
	return c.records[len(c.records)-1]
}

type fixture struct {
	users     *mockUserRepository
	profiles  *mockProfileRepository
	leadGen   *mockLeadGenRepository
	sales     *mockSalesRepository
	tokens    *mockTokenService
	passwords *mockPasswordHasher
	sessions  *mockSessionStore
	storage   *mockStorage
	events    *captureEvents
	svc       Service
}

func newFixture(t *testing.T) *fixture {
	return newFixtureTuned(t, nil)
}

func newFixtureTuned(t *testing.T, tune func(*Config)) *fixture {
	t.Helper()

	f := &fixture{
		users:     new(mockUserRepository),
		profiles:  new(mockProfileRepository),
		leadGen:   new(mockLeadGenRepository),
		sales:     new(mockSalesRepository),
		tokens:    new(mockTokenService),
		passwords: new(mockPasswordHasher),
		sessions:  new(mockSessionStore),
		storage:   new(mockStorage),
		events:    new(captureEvents),
	}
	cfg := Config{
		Users:        f.users,
		Profiles:     f.profiles,
		LeadGen:      f.leadGen,
		Sales:        f.sales,
		Tokens:       f.tokens,
		Passwords:    f.passwords,
		Sessions:     f.sessions,
		Storage:      f.storage,
		ResumeBucket: "resumes",
		Events:       f.events,
		Logger:       logging.NewNopLogger(),
	}
	if tune != nil {
		tune(&cfg)
	}

	svc, err := NewService(cfg)
	require.NoError(t, err)
	f.svc = svc
	return f
}

func managerClaims() *auth.Claims {
	return &auth.Claims{UserID: "mgr-1", Username: "boss", Role: user.RoleManager}
}

func testUser(t *testing.T, role user.Role) *user.User {
	t.Helper()
	u, err := user.New("casey@example.com", "casey", "Casey Lee", role)
	require.NoError(t, err)
	require.NoError(t, u.SetPasswordHash("$2a$10$fakehashfakehashfakehash"))
	return u
}

func testProfile(t *testing.T) *profile.Profile {
	t.Helper()
	p, err := profile.New("Dana Fox", "dana@example.com", "Backend engineer", []string{"go"}, "mgr-1")
	require.NoError(t, err)
	return p
}
