package reporting

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/relayops/leadtrack/internal/domain/activity"
	"github.com/relayops/leadtrack/internal/domain/lead"
	"github.com/relayops/leadtrack/internal/domain/profile"
	"github.com/relayops/leadtrack/internal/domain/progress"
	"github.com/relayops/leadtrack/internal/domain/report"
	"github.com/relayops/leadtrack/internal/domain/target"
	"github.com/relayops/leadtrack/internal/domain/user"
	"github.com/relayops/leadtrack/internal/infrastructure/auth"
	"github.com/relayops/leadtrack/internal/infrastructure/monitoring/logging"
	"github.com/relayops/leadtrack/internal/infrastructure/storage/minio"
	"github.com/relayops/leadtrack/pkg/types/common"
)

type mockProgressRepository struct {
	mock.Mock
}

func (m *mockProgressRepository) Create(ctx context.Context, p *progress.ProgressUpdate) error {
	return m.Called(ctx, p).Error(0)
}

func (m *mockProgressRepository) GetByID(ctx context.Context, id common.ID) (*progress.ProgressUpdate, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*progress.ProgressUpdate), args.Error(1)
}

func (m *mockProgressRepository) GetByPairAndDate(ctx context.Context, userID, profileID common.ID, workDate common.Date) (*progress.ProgressUpdate, error) {
	args := m.Called(ctx, userID, profileID, workDate)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*progress.ProgressUpdate), args.Error(1)
}

func (m *mockProgressRepository) List(ctx context.Context, filter progress.ListFilter) ([]*progress.ProgressUpdate, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*progress.ProgressUpdate), args.Get(1).(int64), args.Error(2)
}

func (m *mockProgressRepository) Update(ctx context.Context, p *progress.ProgressUpdate) error {
	return m.Called(ctx, p).Error(0)
}

func (m *mockProgressRepository) Delete(ctx context.Context, id common.ID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockProgressRepository) ListInRange(ctx context.Context, period common.DateRange) ([]*progress.ProgressUpdate, error) {
	args := m.Called(ctx, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*progress.ProgressUpdate), args.Error(1)
}

func (m *mockProgressRepository) SummarizeRange(ctx context.Context, period common.DateRange) ([]progress.PairTotals, error) {
	args := m.Called(ctx, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]progress.PairTotals), args.Error(1)
}

type mockTargetRepository struct {
	mock.Mock
}

func (m *mockTargetRepository) Create(ctx context.Context, t *target.Target) error {
	return m.Called(ctx, t).Error(0)
}

func (m *mockTargetRepository) GetByID(ctx context.Context, id common.ID) (*target.Target, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*target.Target), args.Error(1)
}

func (m *mockTargetRepository) List(ctx context.Context, filter target.ListFilter) ([]*target.Target, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*target.Target), args.Get(1).(int64), args.Error(2)
}

func (m *mockTargetRepository) Update(ctx context.Context, t *target.Target) error {
	return m.Called(ctx, t).Error(0)
}

func (m *mockTargetRepository) Delete(ctx context.Context, id common.ID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockTargetRepository) GetActiveFor(ctx context.Context, userID, profileID common.ID, date common.Date) (*target.Target, error) {
	args := m.Called(ctx, userID, profileID, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*target.Target), args.Error(1)
}

func (m *mockTargetRepository) FindOverlapping(ctx context.Context, userID, profileID common.ID, period common.DateRange, excludeID common.ID) ([]*target.Target, error) {
	args := m.Called(ctx, userID, profileID, period, excludeID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*target.Target), args.Error(1)
}

func (m *mockTargetRepository) ListInRange(ctx context.Context, period common.DateRange) ([]*target.Target, error) {
	args := m.Called(ctx, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*target.Target), args.Error(1)
}

type mockLeadRepository struct {
	mock.Mock
}

func (m *mockLeadRepository) Create(ctx context.Context, l *lead.LeadEntry) error {
	return m.Called(ctx, l).Error(0)
}

func (m *mockLeadRepository) GetByID(ctx context.Context, id common.ID) (*lead.LeadEntry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*lead.LeadEntry), args.Error(1)
}

func (m *mockLeadRepository) List(ctx context.Context, filter lead.ListFilter) ([]*lead.LeadEntry, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*lead.LeadEntry), args.Get(1).(int64), args.Error(2)
}

func (m *mockLeadRepository) Update(ctx context.Context, l *lead.LeadEntry) error {
	return m.Called(ctx, l).Error(0)
}

func (m *mockLeadRepository) Delete(ctx context.Context, id common.ID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockLeadRepository) ListInRange(ctx context.Context, period common.DateRange) ([]*lead.LeadEntry, error) {
	args := m.Called(ctx, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*lead.LeadEntry), args.Error(1)
}

func (m *mockLeadRepository) CountByStatus(ctx context.Context, period common.DateRange) ([]lead.StatusCount, error) {
	args := m.Called(ctx, period)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]lead.StatusCount), args.Error(1)
}

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

type mockArtifactRepository struct {
	mock.Mock
}

func (m *mockArtifactRepository) Create(ctx context.Context, a *report.Artifact) error {
	return m.Called(ctx, a).Error(0)
}

func (m *mockArtifactRepository) GetByID(ctx context.Context, id common.ID) (*report.Artifact, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*report.Artifact), args.Error(1)
}

func (m *mockArtifactRepository) List(ctx context.Context, filter report.ListFilter) ([]*report.Artifact, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Get(1).(int64), args.Error(2)
	}
	return args.Get(0).([]*report.Artifact), args.Get(1).(int64), args.Error(2)
}

func (m *mockArtifactRepository) Delete(ctx context.Context, id common.ID) error {
	return m.Called(ctx, id).Error(0)
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

// stubRenderer returns canned bytes so service tests control render output.
type stubRenderer struct {
	format report.Format
	out    []byte
	err    error
}

func (r *stubRenderer) Format() report.Format { return r.format }

func (r *stubRenderer) RenderWeekly(*report.WeeklyReport) ([]byte, error) { return r.out, r.err }

func (r *stubRenderer) RenderDaily(*report.DailyReport) ([]byte, error) { return r.out, r.err }

// countingLock records acquisitions and releases.
type countingLock struct {
	mu       sync.Mutex
	locked   int
	released int
	lockErr  error
}

func (l *countingLock) Lock(context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.lockErr != nil {
		return l.lockErr
	}
	l.locked++
	return nil
}

func (l *countingLock) Unlock(context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.released++
	return nil
}

type fixture struct {
	progress  *mockProgressRepository
	targets   *mockTargetRepository
	leads     *mockLeadRepository
	users     *mockUserRepository
	profiles  *mockProfileRepository
	artifacts *mockArtifactRepository
	storage   *mockStorage
	events    *captureEvents
	lock      *countingLock

	engine *Engine
	svc    Service
}

func newFixture(t *testing.T) *fixture {
	return newFixtureTuned(t, nil)
}

func newFixtureTuned(t *testing.T, tune func(*Config)) *fixture {
	t.Helper()
	f := &fixture{
		progress:  &mockProgressRepository{},
		targets:   &mockTargetRepository{},
		leads:     &mockLeadRepository{},
		users:     &mockUserRepository{},
		profiles:  &mockProfileRepository{},
		artifacts: &mockArtifactRepository{},
		storage:   &mockStorage{},
		events:    &captureEvents{},
		lock:      &countingLock{},
	}
	f.engine = NewEngine(f.progress, f.targets, f.leads, f.users, f.profiles, logging.NewNopLogger())

	html, err := NewHTMLRenderer("", false, logging.NewNopLogger())
	require.NoError(t, err)

	cfg := Config{
		Artifacts:    f.artifacts,
		Engine:       f.engine,
		Renderers:    []Renderer{NewCSVRenderer(), NewDOCXRenderer(), html},
		Storage:      f.storage,
		ReportBucket: "reports",
		NewLock:      func(string) Lock { return f.lock },
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

func dateOf(t *testing.T, s string) common.Date {
	t.Helper()
	d, err := common.ParseDate(s)
	require.NoError(t, err)
	return d
}

// namedUser returns a user with a fixed ID for name resolution stubs.
func namedUser(t *testing.T, id common.ID, fullName string) *user.User {
	t.Helper()
	u, err := user.New(string(id)+"@example.com", string(id), fullName, user.RoleLeadGen)
	require.NoError(t, err)
	require.NoError(t, u.SetPasswordHash("$2a$10$fakehashfakehashfakehash"))
	u.ID = id
	return u
}

// namedProfile returns a profile with a fixed ID for name resolution stubs.
func namedProfile(t *testing.T, id common.ID, fullName string) *profile.Profile {
	t.Helper()
	p, err := profile.New(fullName, string(id)+"@example.com", "Engineer", []string{"go"}, "mgr-1")
	require.NoError(t, err)
	p.ID = id
	return p
}

// emptyWeek stubs all range queries to return nothing.
func emptyWeek(f *fixture, period common.DateRange) {
	f.progress.On("ListInRange", mock.Anything, period).Return([]*progress.ProgressUpdate{}, nil)
	f.targets.On("ListInRange", mock.Anything, period).Return([]*target.Target{}, nil)
	f.leads.On("CountByStatus", mock.Anything, period).Return([]lead.StatusCount{}, nil)
}
