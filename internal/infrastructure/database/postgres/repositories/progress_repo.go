package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/relayops/leadtrack/internal/domain/progress"
	"github.com/relayops/leadtrack/internal/infrastructure/monitoring/logging"
	"github.com/relayops/leadtrack/pkg/errors"
	"github.com/relayops/leadtrack/pkg/types/common"
)

const progressColumns = `id, user_id, profile_id, work_date, jobs_fetched, jobs_applied, notes, created_at, updated_at`

// ProgressRepository is the PostgreSQL implementation of progress.Repository.
// The one-row-per-workday rule is a unique constraint over
// (user_id, profile_id, work_date).
type ProgressRepository struct {
	db  db
	log logging.Logger
}

var _ progress.Repository = (*ProgressRepository)(nil)

// NewProgressRepository constructs a ready-to-use ProgressRepository.
func NewProgressRepository(pool *pgxpool.Pool, log logging.Logger) *ProgressRepository {
	return &ProgressRepository{db: pool, log: log}
}

// Create inserts a progress update.  A second update for the same pair and
// work date surfaces as a conflict; callers revise the existing row instead.
func (r *ProgressRepository) Create(ctx context.Context, p *progress.ProgressUpdate) error {
	r.log.Debug("ProgressRepository.Create",
		logging.String("user_id", string(p.UserID)),
		logging.String("work_date", p.WorkDate.String()),
	)

	_, err := r.db.Exec(ctx, `
		INSERT INTO progress_updates (
			id, user_id, profile_id, work_date, jobs_fetched, jobs_applied, notes, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		p.ID, p.UserID, p.ProfileID, p.WorkDate.Time(), p.JobsFetched, p.JobsApplied, p.Notes, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		switch {
		case uniqueViolation(err, "progress_updates_user_id_profile_id_work_date_key"):
			return errors.Newf(errors.ErrCodeProgressDuplicate,
				"progress for %s already recorded on this profile", p.WorkDate)
		case foreignKeyViolation(err, "progress_updates_user_id_fkey"):
			return errors.Newf(errors.ErrCodeUserNotFound, "user %s not found", p.UserID)
		case foreignKeyViolation(err, "progress_updates_profile_id_fkey"):
			return errors.Newf(errors.ErrCodeProfileNotFound, "profile %s not found", p.ProfileID)
		}
		r.log.Error("ProgressRepository.Create", logging.Err(err))
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to insert progress update")
	}
	return nil
}

// GetByID loads a progress update by primary key.
func (r *ProgressRepository) GetByID(ctx context.Context, id common.ID) (*progress.ProgressUpdate, error) {
	row := r.db.QueryRow(ctx,
		fmt.Sprintf(`SELECT %s FROM progress_updates WHERE id = $1`, progressColumns), id)

	p, err := scanProgress(row)
	if err != nil {
		if isNoRows(err) {
			return nil, errors.Newf(errors.ErrCodeProgressNotFound, "progress update %s not found", id)
		}
		r.log.Error("ProgressRepository.GetByID", logging.Err(err))
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to query progress update")
	}
	return p, nil
}

// GetByPairAndDate loads the unique row for (user, profile, work date).
func (r *ProgressRepository) GetByPairAndDate(ctx context.Context, userID, profileID common.ID, workDate common.Date) (*progress.ProgressUpdate, error) {
	row := r.db.QueryRow(ctx, fmt.Sprintf(`
		SELECT %s FROM progress_updates
		WHERE user_id = $1 AND profile_id = $2 AND work_date = $3`, progressColumns),
		userID, profileID, workDate.Time())

	p, err := scanProgress(row)
	if err != nil {
		if isNoRows(err) {
			return nil, errors.Newf(errors.ErrCodeProgressNotFound,
				"no progress recorded on %s for user %s and profile %s", workDate, userID, profileID)
		}
		r.log.Error("ProgressRepository.GetByPairAndDate", logging.Err(err))
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to query progress update")
	}
	return p, nil
}

// List returns a page of progress updates matching the filter plus the
// unpaged total.
func (r *ProgressRepository) List(ctx context.Context, filter progress.ListFilter) ([]*progress.ProgressUpdate, int64, error) {
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
	if !filter.From.IsZero() {
		conditions = append(conditions, "work_date >= "+nextArg(filter.From.Time()))
	}
	if !filter.To.IsZero() {
		conditions = append(conditions, "work_date <= "+nextArg(filter.To.Time()))
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + joinAnd(conditions)
	}

	var total int64
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM progress_updates "+where, args...).Scan(&total); err != nil {
		r.log.Error("ProgressRepository.List: count", logging.Err(err))
		return nil, 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to count progress updates")
	}

	offset, limit := clampPage(filter.Offset, filter.Limit)
	query := fmt.Sprintf(`SELECT %s FROM progress_updates %s ORDER BY work_date DESC, id ASC LIMIT %s OFFSET %s`,
		progressColumns, where, nextArg(limit), nextArg(offset))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.log.Error("ProgressRepository.List: query", logging.Err(err))
		return nil, 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to query progress updates")
	}
	defer rows.Close()

	updates, err := scanProgressRows(rows)
	if err != nil {
		return nil, 0, err
	}
	return updates, total, nil
}

// Update persists revised counts or notes.  The identifying columns never
// change; a wrong date means delete and re-record.
func (r *ProgressRepository) Update(ctx context.Context, p *progress.ProgressUpdate) error {
	r.log.Debug("ProgressRepository.Update", logging.String("progress_id", string(p.ID)))

	tag, err := r.db.Exec(ctx, `
		UPDATE progress_updates SET
			jobs_fetched = $2, jobs_applied = $3, notes = $4, updated_at = $5
		WHERE id = $1`,
		p.ID, p.JobsFetched, p.JobsApplied, p.Notes, p.UpdatedAt,
	)
	if err != nil {
		r.log.Error("ProgressRepository.Update", logging.Err(err))
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to update progress update")
	}
	if tag.RowsAffected() == 0 {
		return errors.Newf(errors.ErrCodeProgressNotFound, "progress update %s not found", p.ID)
	}
	return nil
}

// Delete removes a progress update.
func (r *ProgressRepository) Delete(ctx context.Context, id common.ID) error {
	r.log.Debug("ProgressRepository.Delete", logging.String("progress_id", string(id)))

	tag, err := r.db.Exec(ctx, `DELETE FROM progress_updates WHERE id = $1`, id)
	if err != nil {
		r.log.Error("ProgressRepository.Delete", logging.Err(err))
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to delete progress update")
	}
	if tag.RowsAffected() == 0 {
		return errors.Newf(errors.ErrCodeProgressNotFound, "progress update %s not found", id)
	}
	return nil
}

// ListInRange returns every update with a work date inside the range.
func (r *ProgressRepository) ListInRange(ctx context.Context, period common.DateRange) ([]*progress.ProgressUpdate, error) {
	rows, err := r.db.Query(ctx, fmt.Sprintf(`
		SELECT %s FROM progress_updates
		WHERE work_date >= $1 AND work_date <= $2
		ORDER BY user_id ASC, profile_id ASC, work_date ASC`, progressColumns),
		period.From.Time(), period.To.Time())
	if err != nil {
		r.log.Error("ProgressRepository.ListInRange", logging.Err(err))
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to query progress updates in range")
	}
	defer rows.Close()

	return scanProgressRows(rows)
}

// SummarizeRange aggregates per-pair totals over the range in SQL.
func (r *ProgressRepository) SummarizeRange(ctx context.Context, period common.DateRange) ([]progress.PairTotals, error) {
	rows, err := r.db.Query(ctx, `
		SELECT user_id, profile_id,
		       COALESCE(SUM(jobs_fetched), 0),
		       COALESCE(SUM(jobs_applied), 0),
		       COUNT(*)
		FROM progress_updates
		WHERE work_date >= $1 AND work_date <= $2
		GROUP BY user_id, profile_id
		ORDER BY user_id ASC, profile_id ASC`,
		period.From.Time(), period.To.Time())
	if err != nil {
		r.log.Error("ProgressRepository.SummarizeRange", logging.Err(err))
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to summarise progress")
	}
	defer rows.Close()

	var totals []progress.PairTotals
	for rows.Next() {
		var pt progress.PairTotals
		if err := rows.Scan(&pt.UserID, &pt.ProfileID, &pt.JobsFetched, &pt.JobsApplied, &pt.DaysWorked); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan progress totals row")
		}
		totals = append(totals, pt)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "progress totals iteration failed")
	}
	return totals, nil
}

func scanProgress(row scanner) (*progress.ProgressUpdate, error) {
	var (
		p  progress.ProgressUpdate
		wd time.Time
	)
	err := row.Scan(
		&p.ID, &p.UserID, &p.ProfileID, &wd, &p.JobsFetched, &p.JobsApplied,
		&p.Notes, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.WorkDate = common.DateOf(wd)
	return &p, nil
}

func scanProgressRows(rows pgx.Rows) ([]*progress.ProgressUpdate, error) {
	var updates []*progress.ProgressUpdate
	for rows.Next() {
		p, err := scanProgress(rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan progress row")
		}
		updates = append(updates, p)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "progress row iteration failed")
	}
	return updates, nil
}
