// Package repositories provides the PostgreSQL implementations of all domain
// repository interfaces.  Every repository shares the pool owned by
// postgres.Connection and maps database failures onto pkg/errors codes, so
// callers never see driver errors directly.
package repositories

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// Postgres error codes of interest.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// db abstracts pgxpool.Pool and pgx.Tx so a repository can run against either.
type db interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// scanner abstracts pgx.Row and pgx.Rows for shared scan helpers.
type scanner interface {
	Scan(dest ...any) error
}

// joinAnd combines WHERE conditions.
func joinAnd(conditions []string) string {
	return strings.Join(conditions, " AND ")
}

// uniqueViolation reports whether err is a unique-constraint violation on the
// named constraint.  An empty name matches any unique violation.
func uniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgUniqueViolation {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}

// foreignKeyViolation reports whether err is a foreign-key violation on the
// named constraint.  An empty name matches any foreign-key violation.
func foreignKeyViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != pgForeignKeyViolation {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}

// isNoRows reports whether err means the query matched nothing.
func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

const (
	defaultListLimit = 20
	maxListLimit     = 200
)

// clampPage normalises offset and limit for list queries.
func clampPage(offset, limit int) (int, int) {
	if offset < 0 {
		offset = 0
	}
	switch {
	case limit <= 0:
		limit = defaultListLimit
	case limit > maxListLimit:
		limit = maxListLimit
	}
	return offset, limit
}
