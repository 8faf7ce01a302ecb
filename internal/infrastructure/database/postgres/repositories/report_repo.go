package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/relayops/leadtrack/internal/domain/report"
	"github.com/relayops/leadtrack/internal/infrastructure/monitoring/logging"
	"github.com/relayops/leadtrack/pkg/errors"
	"github.com/relayops/leadtrack/pkg/types/common"
)

const artifactColumns = `id, kind, format, period_start, period_end, filter_user_id, filter_profile_id,
	object_key, size_bytes, status, fail_reason, requested_by, generated_at`

// ReportRepository is the PostgreSQL implementation of report.Repository.
// Rows describe generated artifacts; the documents themselves live in object
// storage under ObjectKey.
type ReportRepository struct {
	db  db
	log logging.Logger
}

var _ report.Repository = (*ReportRepository)(nil)

// NewReportRepository constructs a ready-to-use ReportRepository.
func NewReportRepository(pool *pgxpool.Pool, log logging.Logger) *ReportRepository {
	return &ReportRepository{db: pool, log: log}
}

// Create inserts an artifact row.  Failed generations are recorded too, with
// status failed and an empty object key.
func (r *ReportRepository) Create(ctx context.Context, a *report.Artifact) error {
	r.log.Debug("ReportRepository.Create",
		logging.String("kind", string(a.Kind)),
		logging.String("format", string(a.Format)),
	)

	_, err := r.db.Exec(ctx, `
		INSERT INTO report_artifacts (
			id, kind, format, period_start, period_end, filter_user_id, filter_profile_id,
			object_key, size_bytes, status, fail_reason, requested_by, generated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		a.ID, a.Kind, a.Format, a.PeriodStart.Time(), a.PeriodEnd.Time(),
		string(a.FilterUserID), string(a.FilterProfileID),
		a.ObjectKey, a.SizeBytes, a.Status, a.FailReason, a.RequestedBy, a.GeneratedAt,
	)
	if err != nil {
		r.log.Error("ReportRepository.Create", logging.Err(err))
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to insert report artifact")
	}
	return nil
}

// GetByID loads an artifact by primary key.
func (r *ReportRepository) GetByID(ctx context.Context, id common.ID) (*report.Artifact, error) {
	row := r.db.QueryRow(ctx,
		fmt.Sprintf(`SELECT %s FROM report_artifacts WHERE id = $1`, artifactColumns), id)

	a, err := scanArtifact(row)
	if err != nil {
		if isNoRows(err) {
			return nil, errors.Newf(errors.ErrCodeReportNotFound, "report artifact %s not found", id)
		}
		r.log.Error("ReportRepository.GetByID", logging.Err(err))
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to query report artifact")
	}
	return a, nil
}

// List returns a page of artifacts matching the filter plus the unpaged
// total, newest first.
func (r *ReportRepository) List(ctx context.Context, filter report.ListFilter) ([]*report.Artifact, int64, error) {
	var (
		conditions []string
		args       []any
	)
	nextArg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Kind != "" {
		conditions = append(conditions, "kind = "+nextArg(filter.Kind))
	}
	if filter.Format != "" {
		conditions = append(conditions, "format = "+nextArg(filter.Format))
	}
	if filter.Status != "" {
		conditions = append(conditions, "status = "+nextArg(filter.Status))
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + joinAnd(conditions)
	}

	var total int64
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM report_artifacts "+where, args...).Scan(&total); err != nil {
		r.log.Error("ReportRepository.List: count", logging.Err(err))
		return nil, 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to count report artifacts")
	}

	offset, limit := clampPage(filter.Offset, filter.Limit)
	query := fmt.Sprintf(`SELECT %s FROM report_artifacts %s ORDER BY generated_at DESC, id ASC LIMIT %s OFFSET %s`,
		artifactColumns, where, nextArg(limit), nextArg(offset))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.log.Error("ReportRepository.List: query", logging.Err(err))
		return nil, 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to query report artifacts")
	}
	defer rows.Close()

	var artifacts []*report.Artifact
	for rows.Next() {
		a, err := scanArtifact(rows)
		if err != nil {
			return nil, 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan report artifact row")
		}
		artifacts = append(artifacts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "report artifact iteration failed")
	}
	return artifacts, total, nil
}

// Delete removes an artifact row.  Object storage cleanup happens in the
// service before this is called.
func (r *ReportRepository) Delete(ctx context.Context, id common.ID) error {
	r.log.Debug("ReportRepository.Delete", logging.String("artifact_id", string(id)))

	tag, err := r.db.Exec(ctx, `DELETE FROM report_artifacts WHERE id = $1`, id)
	if err != nil {
		r.log.Error("ReportRepository.Delete", logging.Err(err))
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to delete report artifact")
	}
	if tag.RowsAffected() == 0 {
		return errors.Newf(errors.ErrCodeReportNotFound, "report artifact %s not found", id)
	}
	return nil
}

func scanArtifact(row scanner) (*report.Artifact, error) {
	var (
		a             report.Artifact
		start, end    time.Time
		filterUser    string
		filterProfile string
	)
	err := row.Scan(
		&a.ID, &a.Kind, &a.Format, &start, &end, &filterUser, &filterProfile,
		&a.ObjectKey, &a.SizeBytes, &a.Status, &a.FailReason, &a.RequestedBy, &a.GeneratedAt,
	)
	if err != nil {
		return nil, err
	}
	a.PeriodStart = common.DateOf(start)
	a.PeriodEnd = common.DateOf(end)
	a.FilterUserID = common.ID(filterUser)
	a.FilterProfileID = common.ID(filterProfile)
	return &a, nil
}
