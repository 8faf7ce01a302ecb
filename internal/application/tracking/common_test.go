package tracking

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/relayops/leadtrack/internal/domain/activity"
	"github.com/relayops/leadtrack/internal/domain/assignment"
	"github.com/relayops/leadtrack/internal/domain/lead"
	"github.com/relayops/leadtrack/internal/domain/progress"
	"github.com/relayops/leadtrack/internal/domain/target"
	"github.com/relayops/leadtrack/internal/domain/user"
	"github.com/relayops/leadtrack/internal/infrastructure/auth"
	"github.com/relayops/leadtrack/internal/infrastructure/monitoring/logging"
	"github.com/relayops/leadtrack/pkg/types/common"
)

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
	targets  *mockTargetRepository
	progress *mockProgressRepository
	leads    *mockLeadRepository
	leadGen  *mockLeadGenRepository
	sales    *mockSalesRepository
	events   *captureEvents
	svc      Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		targets:  new(mockTargetRepository),
		progress: new(mockProgressRepository),
		leads:    new(mockLeadRepository),
		leadGen:  new(mockLeadGenRepository),
		sales:    new(mockSalesRepository),
		events:   new(captureEvents),
	}
	svc, err := NewService(Config{
		Targets:  f.targets,
		Progress: f.progress,
		Leads:    f.leads,
		LeadGen:  f.leadGen,
		Sales:    f.sales,
		Events:   f.events,
		Logger:   logging.NewNopLogger(),
	})
	require.NoError(t, err)
	f.svc = svc
	return f
}

func managerClaims() *auth.Claims {
	return &auth.Claims{UserID: "mgr-1", Username: "boss", Role: user.RoleManager}
}

func leadGenClaims(id common.ID) *auth.Claims {
	return &auth.Claims{UserID: id, Role: user.RoleLeadGen}
}

func salesClaims(id common.ID) *auth.Claims {
	return &auth.Claims{UserID: id, Role: user.RoleSales}
}

// leadGenHolds wires the lead-gen repo so userID holds profileID.
func leadGenHolds(t *testing.T, f *fixture, userID, profileID common.ID) {
	t.Helper()
	a, err := assignment.NewLeadGen(userID, profileID, "mgr-1", "")
	require.NoError(t, err)
	f.leadGen.On("GetByUser", mock.Anything, userID).Return(a, nil)
}

// salesHolds wires the sales repo so userID holds profileID.
func salesHolds(t *testing.T, f *fixture, userID, profileID common.ID) {
	t.Helper()
	a, err := assignment.NewSales(userID, profileID, "mgr-1", "")
	require.NoError(t, err)
	f.sales.On("GetByPair", mock.Anything, userID, profileID).Return(a, nil)
}

func dateOf(t *testing.T, s string) common.Date {
	t.Helper()
	d, err := common.ParseDate(s)
	require.NoError(t, err)
	return d
}
