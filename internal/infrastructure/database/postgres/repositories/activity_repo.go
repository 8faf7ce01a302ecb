package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/relayops/leadtrack/internal/domain/activity"
	"github.com/relayops/leadtrack/internal/infrastructure/monitoring/logging"
	"github.com/relayops/leadtrack/pkg/errors"
	"github.com/relayops/leadtrack/pkg/types/common"
)

const activityColumns = `id, actor_id, action, entity_type, entity_id, detail, occurred_at, recorded_at`

// ActivityRepository is the PostgreSQL implementation of activity.Repository.
// Rows are written by the worker consuming the event stream; the API only
// reads and purges them.
type ActivityRepository struct {
	db  db
	log logging.Logger
}

var _ activity.Repository = (*ActivityRepository)(nil)

// NewActivityRepository constructs a ready-to-use ActivityRepository.
func NewActivityRepository(pool *pgxpool.Pool, log logging.Logger) *ActivityRepository {
	return &ActivityRepository{db: pool, log: log}
}

// Create inserts an activity record.
func (r *ActivityRepository) Create(ctx context.Context, rec *activity.ActivityRecord) error {
	detailJSON, err := json.Marshal(rec.Detail)
	if err != nil {
		return errors.Wrap(err, errors.CodeInvalidParam, "failed to encode activity detail")
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO activity_records (id, actor_id, action, entity_type, entity_id, detail, occurred_at, recorded_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		rec.ID, rec.ActorID, rec.Action, rec.EntityType, string(rec.EntityID), detailJSON, rec.OccurredAt, rec.RecordedAt,
	)
	if err != nil {
		r.log.Error("ActivityRepository.Create", logging.Err(err))
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to insert activity record")
	}
	return nil
}

// List returns a page of activity records matching the filter plus the
// unpaged total, newest first.
func (r *ActivityRepository) List(ctx context.Context, filter activity.ListFilter) ([]*activity.ActivityRecord, int64, error) {
	var (
		conditions []string
		args       []any
	)
	nextArg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.ActorID != "" {
		conditions = append(conditions, "actor_id = "+nextArg(filter.ActorID))
	}
	if filter.Action != "" {
		conditions = append(conditions, "action = "+nextArg(filter.Action))
	}
	if filter.EntityType != "" {
		conditions = append(conditions, "entity_type = "+nextArg(filter.EntityType))
	}
	if filter.EntityID != "" {
		conditions = append(conditions, "entity_id = "+nextArg(string(filter.EntityID)))
	}
	if !filter.From.IsZero() {
		conditions = append(conditions, "occurred_at >= "+nextArg(filter.From))
	}
	if !filter.To.IsZero() {
		conditions = append(conditions, "occurred_at <= "+nextArg(filter.To))
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + joinAnd(conditions)
	}

	var total int64
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM activity_records "+where, args...).Scan(&total); err != nil {
		r.log.Error("ActivityRepository.List: count", logging.Err(err))
		return nil, 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to count activity records")
	}

	offset, limit := clampPage(filter.Offset, filter.Limit)
	query := fmt.Sprintf(`SELECT %s FROM activity_records %s ORDER BY occurred_at DESC, id ASC LIMIT %s OFFSET %s`,
		activityColumns, where, nextArg(limit), nextArg(offset))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.log.Error("ActivityRepository.List: query", logging.Err(err))
		return nil, 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to query activity records")
	}
	defer rows.Close()

	var records []*activity.ActivityRecord
	for rows.Next() {
		var (
			rec        activity.ActivityRecord
			entityID   string
			detailJSON []byte
		)
		err := rows.Scan(&rec.ID, &rec.ActorID, &rec.Action, &rec.EntityType, &entityID,
			&detailJSON, &rec.OccurredAt, &rec.RecordedAt)
		if err != nil {
			return nil, 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan activity row")
		}
		rec.EntityID = common.ID(entityID)
		if len(detailJSON) > 0 {
			_ = json.Unmarshal(detailJSON, &rec.Detail)
		}
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "activity row iteration failed")
	}
	return records, total, nil
}

// Purge deletes records that occurred before the cutoff.
func (r *ActivityRepository) Purge(ctx context.Context, before time.Time) (int64, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM activity_records WHERE occurred_at < $1`, before)
	if err != nil {
		r.log.Error("ActivityRepository.Purge", logging.Err(err))
		return 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to purge activity records")
	}

	removed := tag.RowsAffected()
	r.log.Info("purged activity records",
		logging.Time("before", before),
		logging.Int64("removed", removed),
	)
	return removed, nil
}
