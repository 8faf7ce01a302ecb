//go:build integration

// Package integration exercises the assembled stack end to end: the HTTP
// router with real application services, PostgreSQL and MinIO in containers,
// Redis in-process, driven through the Go API client. Tests require Docker
// and are gated behind the "integration" build tag.
//
// Kafka is not part of the environment; event publishing is best effort and
// the services run with a nil publisher. The worker's consume path is
// covered by the kafka package tests.
package integration

import (
	"context"
	"fmt"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/relayops/leadtrack/internal/application/activity"
	"github.com/relayops/leadtrack/internal/application/directory"
	"github.com/relayops/leadtrack/internal/application/reporting"
	"github.com/relayops/leadtrack/internal/application/tracking"
	"github.com/relayops/leadtrack/internal/config"
	"github.com/relayops/leadtrack/internal/domain/user"
	"github.com/relayops/leadtrack/internal/infrastructure/auth"
	"github.com/relayops/leadtrack/internal/infrastructure/database/postgres"
	"github.com/relayops/leadtrack/internal/infrastructure/database/postgres/repositories"
	"github.com/relayops/leadtrack/internal/infrastructure/database/redis"
	"github.com/relayops/leadtrack/internal/infrastructure/monitoring/logging"
	"github.com/relayops/leadtrack/internal/infrastructure/storage/minio"
	httpserver "github.com/relayops/leadtrack/internal/interfaces/http"
	"github.com/relayops/leadtrack/internal/interfaces/http/handlers"
	"github.com/relayops/leadtrack/pkg/client"
)

const (
	// testJWTSecret satisfies the 32 byte minimum enforced by config.
	testJWTSecret = "integration-secret-0123456789abcdefgh"

	managerEmail    = "boss@leadtrack.test"
	managerUsername = "boss"
	managerPassword = "manager-pass-1"

	setupTimeout = 3 * time.Minute
	testTimeout  = 2 * time.Minute
)

// TestEnvironment holds the shared stack for the whole test binary. The
// containers come up once; testcontainers' reaper removes them after the
// binary exits.
type TestEnvironment struct {
	Server *httptest.Server
	Conn   *postgres.Connection
	Redis  *redis.Client
	MinIO  *minio.Client
	Logger logging.Logger

	users  user.Repository
	hasher *auth.PasswordHasher
}

var (
	envOnce sync.Once
	envErr  error
	env     *TestEnvironment
)

// Env returns the shared environment, building it on first use.
func Env(t *testing.T) *TestEnvironment {
	t.Helper()
	envOnce.Do(func() {
		env, envErr = buildEnvironment()
	})
	if envErr != nil {
		t.Fatalf("integration environment: %v", envErr)
	}
	return env
}

// testContext bounds one test.
func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), testTimeout)
	t.Cleanup(cancel)
	return ctx
}

func buildEnvironment() (*TestEnvironment, error) {
	ctx, cancel := context.WithTimeout(context.Background(), setupTimeout)
	defer cancel()

	log := logging.NewNopLogger()

	dbCfg, err := startPostgres(ctx)
	if err != nil {
		return nil, fmt.Errorf("postgres container: %w", err)
	}
	if err := postgres.RunMigrations(postgres.MigrationURL(dbCfg), "file://../../migrations"); err != nil {
		return nil, fmt.Errorf("migrations: %w", err)
	}
	conn, err := postgres.NewConnection(ctx, dbCfg, log)
	if err != nil {
		return nil, fmt.Errorf("postgres pool: %w", err)
	}

	mr, err := miniredis.Run()
	if err != nil {
		return nil, fmt.Errorf("miniredis: %w", err)
	}
	redisCli, err := redis.NewClient(config.RedisConfig{Addr: mr.Addr()}, log)
	if err != nil {
		return nil, fmt.Errorf("redis client: %w", err)
	}

	minioCfg, err := startMinIO(ctx)
	if err != nil {
		return nil, fmt.Errorf("minio container: %w", err)
	}
	minioCli, err := minio.NewClient(minioCfg, log)
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}
	if err := minioCli.EnsureBuckets(ctx); err != nil {
		return nil, fmt.Errorf("minio buckets: %w", err)
	}

	tokens, err := auth.NewTokenService(auth.ServiceConfig{
		Secret:          testJWTSecret,
		Issuer:          "leadtrack-test",
		AccessTokenTTL:  15 * time.Minute,
		RefreshTokenTTL: 24 * time.Hour,
	})
	if err != nil {
		return nil, fmt.Errorf("token service: %w", err)
	}
	// bcrypt.MinCost keeps the many logins in this suite fast.
	hasher := auth.NewPasswordHasher(4, 8)
	sessions := redis.NewTokenStore(redisCli, log)

	pool := conn.Pool()
	userRepo := repositories.NewUserRepository(pool, log)
	profileRepo := repositories.NewProfileRepository(pool, log)
	leadGenRepo := repositories.NewLeadGenAssignmentRepository(pool, log)
	salesRepo := repositories.NewSalesAssignmentRepository(pool, log)
	targetRepo := repositories.NewTargetRepository(pool, log)
	progressRepo := repositories.NewProgressRepository(pool, log)
	leadRepo := repositories.NewLeadRepository(pool, log)
	reportRepo := repositories.NewReportRepository(pool, log)
	activityRepo := repositories.NewActivityRepository(pool, log)
	storage := minio.NewMinIORepository(minioCli, log)

	dirSvc, err := directory.NewService(directory.Config{
		Users:         userRepo,
		Profiles:      profileRepo,
		LeadGen:       leadGenRepo,
		Sales:         salesRepo,
		Tokens:        tokens,
		Passwords:     hasher,
		Sessions:      sessions,
		Storage:       storage,
		ResumeBucket:  minioCli.ResumeBucket(),
		MaxResumeSize: minioCli.MaxResumeSize(),
		Logger:        log,
	})
	if err != nil {
		return nil, fmt.Errorf("directory service: %w", err)
	}

	trackSvc, err := tracking.NewService(tracking.Config{
		Targets:  targetRepo,
		Progress: progressRepo,
		Leads:    leadRepo,
		LeadGen:  leadGenRepo,
		Sales:    salesRepo,
		Logger:   log,
	})
	if err != nil {
		return nil, fmt.Errorf("tracking service: %w", err)
	}

	actSvc := activity.NewService(activityRepo, log)

	htmlRenderer, err := reporting.NewHTMLRenderer("", false, log)
	if err != nil {
		return nil, fmt.Errorf("html renderer: %w", err)
	}
	reportSvc, err := reporting.NewService(reporting.Config{
		Artifacts: reportRepo,
		Engine:    reporting.NewEngine(progressRepo, targetRepo, leadRepo, userRepo, profileRepo, log),
		Renderers: []reporting.Renderer{
			reporting.NewCSVRenderer(),
			reporting.NewDOCXRenderer(),
			htmlRenderer,
		},
		Storage:      storage,
		ReportBucket: minioCli.ReportBucket(),
		NewLock: func(name string) reporting.Lock {
			return redis.NewMutex(redisCli, name)
		},
		Logger: log,
	})
	if err != nil {
		return nil, fmt.Errorf("reporting service: %w", err)
	}

	router := httpserver.NewRouter(httpserver.RouterConfig{
		Auth:        handlers.NewAuthHandler(dirSvc, log),
		Users:       handlers.NewUserHandler(dirSvc, log),
		Profiles:    handlers.NewProfileHandler(dirSvc, minioCli.MaxResumeSize(), log),
		Assignments: handlers.NewAssignmentHandler(dirSvc, log),
		Targets:     handlers.NewTargetHandler(trackSvc, log),
		Progress:    handlers.NewProgressHandler(trackSvc, log),
		Leads:       handlers.NewLeadHandler(trackSvc, log),
		Reports:     handlers.NewReportHandler(reportSvc, log),
		Activity:    handlers.NewActivityHandler(actSvc, log),
		Health:      handlers.NewHealthHandler("test", nil),

		AuthMiddleware: auth.NewMiddleware(tokens, log,
			auth.WithSkipPaths("/api/v1/auth/login", "/api/v1/auth/refresh")),
		Enforcer: auth.NewEnforcer(nil),

		Logger: log,
	})

	e := &TestEnvironment{
		Server: httptest.NewServer(router),
		Conn:   conn,
		Redis:  redisCli,
		MinIO:  minioCli,
		Logger: log,
		users:  userRepo,
		hasher: hasher,
	}
	if err := e.seedManager(ctx); err != nil {
		return nil, fmt.Errorf("seed manager: %w", err)
	}
	return e, nil
}

// seedManager writes the bootstrap manager straight through the repository,
// the same way the CLI seed command does. Every other account in the suite
// is created through the API by this manager.
func (e *TestEnvironment) seedManager(ctx context.Context) error {
	admin, err := user.New(managerEmail, managerUsername, "The Boss", user.RoleManager)
	if err != nil {
		return err
	}
	hash, err := e.hasher.Hash(managerPassword)
	if err != nil {
		return err
	}
	if err := admin.SetPasswordHash(hash); err != nil {
		return err
	}
	return e.users.Create(ctx, admin)
}

// ManagerClient returns an API client logged in as the seeded manager.
func (e *TestEnvironment) ManagerClient(t *testing.T, ctx context.Context) *client.Client {
	t.Helper()
	return e.LoginAs(t, ctx, managerEmail, managerPassword)
}

// LoginAs returns an API client holding a fresh session for the given
// credentials.
func (e *TestEnvironment) LoginAs(t *testing.T, ctx context.Context, email, password string) *client.Client {
	t.Helper()
	c, err := client.New(e.Server.URL)
	require.NoError(t, err)
	_, err = c.Auth().Login(ctx, email, password)
	require.NoError(t, err, "login as %s", email)
	return c
}

// CreateUser makes an account through the API and returns it. The password
// is the one callers later pass to LoginAs.
func (e *TestEnvironment) CreateUser(t *testing.T, ctx context.Context, mgr *client.Client, role, slug, password string) *client.User {
	t.Helper()
	u, err := mgr.Users().Create(ctx, &client.CreateUserRequest{
		Email:    slug + "@leadtrack.test",
		Username: slug,
		FullName: "Test " + slug,
		Role:     role,
		Password: password,
	})
	require.NoError(t, err, "create %s user %s", role, slug)
	return u
}

// CreateProfile registers a candidate profile through the API.
func (e *TestEnvironment) CreateProfile(t *testing.T, ctx context.Context, mgr *client.Client, fullName string) *client.Profile {
	t.Helper()
	p, err := mgr.Profiles().Create(ctx, &client.CreateProfileRequest{
		FullName: fullName,
		Email:    "candidate@example.com",
		Headline: "Backend Engineer",
		Skills:   []string{"go", "sql"},
	})
	require.NoError(t, err, "create profile %s", fullName)
	return p
}

func startPostgres(ctx context.Context) (config.DatabaseConfig, error) {
	req := testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "leadtrack_test",
		},
		WaitingFor: wait.ForListeningPort("5432/tcp").WithStartupTimeout(60 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return config.DatabaseConfig{}, err
	}
	host, err := container.Host(ctx)
	if err != nil {
		return config.DatabaseConfig{}, err
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		return config.DatabaseConfig{}, err
	}
	return config.DatabaseConfig{
		Host:     host,
		Port:     port.Int(),
		User:     "test",
		Password: "test",
		DBName:   "leadtrack_test",
		SSLMode:  "disable",
		MaxConns: 5,
	}, nil
}

func startMinIO(ctx context.Context) (config.MinIOConfig, error) {
	req := testcontainers.ContainerRequest{
		Image:        "minio/minio:latest",
		ExposedPorts: []string{"9000/tcp"},
		Cmd:          []string{"server", "/data"},
		Env: map[string]string{
			"MINIO_ROOT_USER":     "minioadmin",
			"MINIO_ROOT_PASSWORD": "minioadmin",
		},
		WaitingFor: wait.ForHTTP("/minio/health/live").
			WithPort("9000/tcp").
			WithStartupTimeout(60 * time.Second),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return config.MinIOConfig{}, err
	}
	host, err := container.Host(ctx)
	if err != nil {
		return config.MinIOConfig{}, err
	}
	port, err := container.MappedPort(ctx, "9000")
	if err != nil {
		return config.MinIOConfig{}, err
	}
	return config.MinIOConfig{
		Endpoint:     fmt.Sprintf("%s:%d", host, port.Int()),
		AccessKey:    "minioadmin",
		SecretKey:    "minioadmin",
		UseSSL:       false,
		ResumeBucket: "resumes-test",
		ReportBucket: "reports-test",
	}, nil
}
