//go:build integration

// Package repositories_test provides integration tests for the PostgreSQL
// repository implementations.  Tests require Docker and are gated behind the
// "integration" build tag.
package repositories_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/relayops/leadtrack/internal/domain/profile"
	"github.com/relayops/leadtrack/internal/domain/user"
	"github.com/relayops/leadtrack/internal/infrastructure/database/postgres/repositories"
	"github.com/relayops/leadtrack/internal/infrastructure/monitoring/logging"
)

// startPostgres launches a PostgreSQL 16 container, applies the schema and
// returns a connected pool.
func startPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

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
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(t, err)

	dsn := fmt.Sprintf("postgres://test:test@%s:%s/leadtrack_test?sslmode=disable", host, port.Port())
	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	applySchema(t, pool)
	return pool
}

// applySchema creates the full schema.  Column types and constraint names
// mirror the migrations exactly; the repositories match on the default
// constraint names when they map conflicts.
func applySchema(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	ctx := context.Background()

	ddl := `
	CREATE TABLE IF NOT EXISTS users (
		id            UUID PRIMARY KEY,
		email         TEXT NOT NULL UNIQUE,
		username      TEXT NOT NULL UNIQUE,
		full_name     TEXT NOT NULL,
		password_hash TEXT NOT NULL DEFAULT '',
		role          TEXT NOT NULL,
		status        TEXT NOT NULL DEFAULT 'active',
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS profiles (
		id                  UUID PRIMARY KEY,
		full_name           TEXT NOT NULL,
		email               TEXT NOT NULL DEFAULT '',
		phone               TEXT NOT NULL DEFAULT '',
		headline            TEXT NOT NULL DEFAULT '',
		summary             TEXT NOT NULL DEFAULT '',
		skills              TEXT[] NOT NULL DEFAULT '{}',
		resume_object_key   TEXT NOT NULL DEFAULT '',
		resume_content_type TEXT NOT NULL DEFAULT '',
		resume_size         BIGINT NOT NULL DEFAULT 0,
		status              TEXT NOT NULL DEFAULT 'active',
		created_by          UUID NOT NULL,
		created_at          TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at          TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS leadgen_assignments (
		id          UUID PRIMARY KEY,
		user_id     UUID NOT NULL UNIQUE REFERENCES users (id) ON DELETE RESTRICT,
		profile_id  UUID NOT NULL UNIQUE REFERENCES profiles (id) ON DELETE RESTRICT,
		assigned_by UUID NOT NULL,
		note        TEXT NOT NULL DEFAULT '',
		assigned_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS sales_assignments (
		id          UUID PRIMARY KEY,
		user_id     UUID NOT NULL REFERENCES users (id) ON DELETE RESTRICT,
		profile_id  UUID NOT NULL REFERENCES profiles (id) ON DELETE RESTRICT,
		assigned_by UUID NOT NULL,
		note        TEXT NOT NULL DEFAULT '',
		assigned_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (user_id, profile_id)
	);

	CREATE TABLE IF NOT EXISTS targets (
		id            UUID PRIMARY KEY,
		user_id       UUID NOT NULL REFERENCES users (id) ON DELETE CASCADE,
		profile_id    UUID NOT NULL REFERENCES profiles (id) ON DELETE CASCADE,
		jobs_to_fetch INT NOT NULL DEFAULT 0,
		jobs_to_apply INT NOT NULL DEFAULT 0,
		period_start  DATE NOT NULL,
		period_end    DATE NOT NULL,
		set_by        UUID NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CHECK (period_start <= period_end)
	);

	CREATE TABLE IF NOT EXISTS progress_updates (
		id           UUID PRIMARY KEY,
		user_id      UUID NOT NULL REFERENCES users (id) ON DELETE CASCADE,
		profile_id   UUID NOT NULL REFERENCES profiles (id) ON DELETE CASCADE,
		work_date    DATE NOT NULL,
		jobs_fetched INT NOT NULL DEFAULT 0,
		jobs_applied INT NOT NULL DEFAULT 0,
		notes        TEXT NOT NULL DEFAULT '',
		created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (user_id, profile_id, work_date)
	);

	CREATE TABLE IF NOT EXISTS lead_entries (
		id            UUID PRIMARY KEY,
		profile_id    UUID NOT NULL REFERENCES profiles (id) ON DELETE CASCADE,
		user_id       UUID NOT NULL REFERENCES users (id) ON DELETE CASCADE,
		company       TEXT NOT NULL,
		position      TEXT NOT NULL DEFAULT '',
		contact_name  TEXT NOT NULL DEFAULT '',
		contact_email TEXT NOT NULL DEFAULT '',
		contact_phone TEXT NOT NULL DEFAULT '',
		source        TEXT NOT NULL DEFAULT '',
		status        TEXT NOT NULL DEFAULT 'new',
		notes         TEXT NOT NULL DEFAULT '',
		lead_date     DATE NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS activity_records (
		id          UUID PRIMARY KEY,
		actor_id    UUID NOT NULL,
		action      TEXT NOT NULL,
		entity_type TEXT NOT NULL,
		entity_id   TEXT NOT NULL DEFAULT '',
		detail      JSONB NOT NULL DEFAULT '{}',
		occurred_at TIMESTAMPTZ NOT NULL,
		recorded_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);

	CREATE TABLE IF NOT EXISTS report_artifacts (
		id                UUID PRIMARY KEY,
		kind              TEXT NOT NULL,
		format            TEXT NOT NULL,
		period_start      DATE NOT NULL,
		period_end        DATE NOT NULL,
		filter_user_id    TEXT NOT NULL DEFAULT '',
		filter_profile_id TEXT NOT NULL DEFAULT '',
		object_key        TEXT NOT NULL DEFAULT '',
		size_bytes        BIGINT NOT NULL DEFAULT 0,
		status            TEXT NOT NULL,
		fail_reason       TEXT NOT NULL DEFAULT '',
		requested_by      UUID NOT NULL,
		generated_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	`
	_, err := pool.Exec(ctx, ddl)
	require.NoError(t, err)
}

func nopLog() logging.Logger { return logging.NewNopLogger() }

// seedUser creates and persists a user with unique email and username.
func seedUser(t *testing.T, pool *pgxpool.Pool, suffix string, role user.Role) *user.User {
	t.Helper()

	u, err := user.New(
		fmt.Sprintf("user-%s@example.com", suffix),
		fmt.Sprintf("user-%s", suffix),
		"Test User "+suffix,
		role,
	)
	require.NoError(t, err)

	repo := repositories.NewUserRepository(pool, nopLog())
	require.NoError(t, repo.Create(context.Background(), u))
	return u
}

// seedProfile creates and persists a candidate profile.
func seedProfile(t *testing.T, pool *pgxpool.Pool, suffix string) *profile.Profile {
	t.Helper()

	creator := seedUser(t, pool, "creator-"+suffix, user.RoleManager)
	p, err := profile.New(
		"Candidate "+suffix,
		fmt.Sprintf("candidate-%s@example.com", suffix),
		"Backend Engineer",
		[]string{"go", "postgres"},
		creator.ID,
	)
	require.NoError(t, err)

	repo := repositories.NewProfileRepository(pool, nopLog())
	require.NoError(t, repo.Create(context.Background(), p))
	return p
}
