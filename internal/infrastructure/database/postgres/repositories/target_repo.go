package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/relayops/leadtrack/internal/domain/target"
	"github.com/relayops/leadtrack/internal/infrastructure/monitoring/logging"
	"github.com/relayops/leadtrack/pkg/errors"
	"github.com/relayops/leadtrack/pkg/types/common"
)

const targetColumns = `id, user_id, profile_id, jobs_to_fetch, jobs_to_apply,
	period_start, period_end, set_by, created_at, updated_at`

// TargetRepository is the PostgreSQL implementation of target.Repository.
// Period overlap is not a schema constraint; the service layer calls
// FindOverlapping before every create and revise.
type TargetRepository struct {
	db  db
	log logging.Logger
}

var _ target.Repository = (*TargetRepository)(nil)

// NewTargetRepository constructs a ready-to-use TargetRepository.
func NewTargetRepository(pool *pgxpool.Pool, log logging.Logger) *TargetRepository {
	return &TargetRepository{db: pool, log: log}
}

// Create inserts a new target.
func (r *TargetRepository) Create(ctx context.Context, t *target.Target) error {
	r.log.Debug("TargetRepository.Create",
		logging.String("user_id", string(t.UserID)),
		logging.String("profile_id", string(t.ProfileID)),
	)

	_, err := r.db.Exec(ctx, `
		INSERT INTO targets (
			id, user_id, profile_id, jobs_to_fetch, jobs_to_apply,
			period_start, period_end, set_by, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		t.ID, t.UserID, t.ProfileID, t.JobsToFetch, t.JobsToApply,
		t.PeriodStart.Time(), t.PeriodEnd.Time(), t.SetBy, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		switch {
		case foreignKeyViolation(err, "targets_user_id_fkey"):
			return errors.Newf(errors.ErrCodeUserNotFound, "user %s not found", t.UserID)
		case foreignKeyViolation(err, "targets_profile_id_fkey"):
			return errors.Newf(errors.ErrCodeProfileNotFound, "profile %s not found", t.ProfileID)
		}
		r.log.Error("TargetRepository.Create", logging.Err(err))
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to insert target")
	}
	return nil
}

// GetByID loads a target by primary key.
func (r *TargetRepository) GetByID(ctx context.Context, id common.ID) (*target.Target, error) {
	row := r.db.QueryRow(ctx,
		fmt.Sprintf(`SELECT %s FROM targets WHERE id = $1`, targetColumns), id)

	t, err := scanTarget(row)
	if err != nil {
		if isNoRows(err) {
			return nil, errors.Newf(errors.ErrCodeTargetNotFound, "target %s not found", id)
		}
		r.log.Error("TargetRepository.GetByID", logging.Err(err))
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to query target")
	}
	return t, nil
}

// List returns a page of targets matching the filter plus the unpaged total.
func (r *TargetRepository) List(ctx context.Context, filter target.ListFilter) ([]*target.Target, int64, error) {
	var (
		conditions []string
		args       []any
	)
	nextArg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.UserID != "" {
		conditions = append(conditions, "user_id = "+nextArg(filter.UserID))
	}
	if filter.ProfileID != "" {
		conditions = append(conditions, "profile_id = "+nextArg(filter.ProfileID))
	}
	if !filter.ActiveOn.IsZero() {
		ph := nextArg(filter.ActiveOn.Time())
		conditions = append(conditions, fmt.Sprintf("period_start <= %[1]s AND period_end >= %[1]s", ph))
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + joinAnd(conditions)
	}

	var total int64
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM targets "+where, args...).Scan(&total); err != nil {
		r.log.Error("TargetRepository.List: count", logging.Err(err))
		return nil, 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to count targets")
	}

	offset, limit := clampPage(filter.Offset, filter.Limit)
	query := fmt.Sprintf(`SELECT %s FROM targets %s ORDER BY period_start DESC, id ASC LIMIT %s OFFSET %s`,
		targetColumns, where, nextArg(limit), nextArg(offset))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.log.Error("TargetRepository.List: query", logging.Err(err))
		return nil, 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to query targets")
	}
	defer rows.Close()

	targets, err := scanTargets(rows)
	if err != nil {
		return nil, 0, err
	}
	return targets, total, nil
}

// Update persists mutations to an existing target.
func (r *TargetRepository) Update(ctx context.Context, t *target.Target) error {
	r.log.Debug("TargetRepository.Update", logging.String("target_id", string(t.ID)))

	tag, err := r.db.Exec(ctx, `
		UPDATE targets SET
			jobs_to_fetch = $2, jobs_to_apply = $3,
			period_start = $4, period_end = $5, updated_at = $6
		WHERE id = $1`,
		t.ID, t.JobsToFetch, t.JobsToApply,
		t.PeriodStart.Time(), t.PeriodEnd.Time(), t.UpdatedAt,
	)
	if err != nil {
		r.log.Error("TargetRepository.Update", logging.Err(err))
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to update target")
	}
	if tag.RowsAffected() == 0 {
		return errors.Newf(errors.ErrCodeTargetNotFound, "target %s not found", t.ID)
	}
	return nil
}

// Delete removes a target.
func (r *TargetRepository) Delete(ctx context.Context, id common.ID) error {
	r.log.Debug("TargetRepository.Delete", logging.String("target_id", string(id)))

	tag, err := r.db.Exec(ctx, `DELETE FROM targets WHERE id = $1`, id)
	if err != nil {
		r.log.Error("TargetRepository.Delete", logging.Err(err))
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to delete target")
	}
	if tag.RowsAffected() == 0 {
		return errors.Newf(errors.ErrCodeTargetNotFound, "target %s not found", id)
	}
	return nil
}

// GetActiveFor returns the target whose period contains date for the pair.
func (r *TargetRepository) GetActiveFor(ctx context.Context, userID, profileID common.ID, date common.Date) (*target.Target, error) {
	row := r.db.QueryRow(ctx, fmt.Sprintf(`
		SELECT %s FROM targets
		WHERE user_id = $1 AND profile_id = $2 AND period_start <= $3 AND period_end >= $3`,
		targetColumns),
		userID, profileID, date.Time())

	t, err := scanTarget(row)
	if err != nil {
		if isNoRows(err) {
			return nil, errors.Newf(errors.ErrCodeTargetNotFound,
				"no target covers %s for user %s and profile %s", date, userID, profileID)
		}
		r.log.Error("TargetRepository.GetActiveFor", logging.Err(err))
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to query active target")
	}
	return t, nil
}

// FindOverlapping returns the pair's targets whose periods intersect the
// range, excluding excludeID when non-empty.
func (r *TargetRepository) FindOverlapping(ctx context.Context, userID, profileID common.ID, period common.DateRange, excludeID common.ID) ([]*target.Target, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM targets
		WHERE user_id = $1 AND profile_id = $2 AND period_start <= $4 AND period_end >= $3
		  AND ($5 = '' OR id::text <> $5)
		ORDER BY period_start ASC`, targetColumns)

	rows, err := r.db.Query(ctx, query, userID, profileID, period.From.Time(), period.To.Time(), string(excludeID))
	if err != nil {
		r.log.Error("TargetRepository.FindOverlapping", logging.Err(err))
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to query overlapping targets")
	}
	defer rows.Close()

	return scanTargets(rows)
}

// ListInRange returns every target whose period intersects the range.
func (r *TargetRepository) ListInRange(ctx context.Context, period common.DateRange) ([]*target.Target, error) {
	rows, err := r.db.Query(ctx, fmt.Sprintf(`
		SELECT %s FROM targets
		WHERE period_start <= $2 AND period_end >= $1
		ORDER BY user_id ASC, profile_id ASC, period_start ASC`, targetColumns),
		period.From.Time(), period.To.Time())
	if err != nil {
		r.log.Error("TargetRepository.ListInRange", logging.Err(err))
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to query targets in range")
	}
	defer rows.Close()

	return scanTargets(rows)
}

func scanTarget(row scanner) (*target.Target, error) {
	var (
		t          target.Target
		start, end time.Time
	)
	err := row.Scan(
		&t.ID, &t.UserID, &t.ProfileID, &t.JobsToFetch, &t.JobsToApply,
		&start, &end, &t.SetBy, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.PeriodStart = common.DateOf(start)
	t.PeriodEnd = common.DateOf(end)
	return &t, nil
}

func scanTargets(rows pgx.Rows) ([]*target.Target, error) {
	var targets []*target.Target
	for rows.Next() {
		t, err := scanTarget(rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan target row")
		}
		targets = append(targets, t)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "target row iteration failed")
	}
	return targets, nil
}
