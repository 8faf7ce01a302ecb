package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/relayops/leadtrack/internal/domain/lead"
	"github.com/relayops/leadtrack/internal/infrastructure/monitoring/logging"
	"github.com/relayops/leadtrack/pkg/errors"
	"github.com/relayops/leadtrack/pkg/types/common"
)

const leadColumns = `id, profile_id, user_id, company, position, contact_name, contact_email,
	contact_phone, source, status, notes, lead_date, created_at, updated_at`

// LeadRepository is the PostgreSQL implementation of lead.Repository.
// Status transition legality is enforced by the entity before Update is
// called; the repository stores whatever status the entity carries.
type LeadRepository struct {
	db  db
	log logging.Logger
}

var _ lead.Repository = (*LeadRepository)(nil)

// NewLeadRepository constructs a ready-to-use LeadRepository.
func NewLeadRepository(pool *pgxpool.Pool, log logging.Logger) *LeadRepository {
	return &LeadRepository{db: pool, log: log}
}

// Create inserts a new lead entry.
func (r *LeadRepository) Create(ctx context.Context, l *lead.LeadEntry) error {
	r.log.Debug("LeadRepository.Create",
		logging.String("profile_id", string(l.ProfileID)),
		logging.String("company", l.Company),
	)

	_, err := r.db.Exec(ctx, `
		INSERT INTO lead_entries (
			id, profile_id, user_id, company, position, contact_name, contact_email,
			contact_phone, source, status, notes, lead_date, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		l.ID, l.ProfileID, l.UserID, l.Company, l.Position, l.ContactName, l.ContactEmail,
		l.ContactPhone, l.Source, l.Status, l.Notes, l.LeadDate.Time(), l.CreatedAt, l.UpdatedAt,
	)
	if err != nil {
		switch {
		case foreignKeyViolation(err, "lead_entries_user_id_fkey"):
			return errors.Newf(errors.ErrCodeUserNotFound, "user %s not found", l.UserID)
		case foreignKeyViolation(err, "lead_entries_profile_id_fkey"):
			return errors.Newf(errors.ErrCodeProfileNotFound, "profile %s not found", l.ProfileID)
		}
		r.log.Error("LeadRepository.Create", logging.Err(err))
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to insert lead")
	}
	return nil
}

// GetByID loads a lead by primary key.
func (r *LeadRepository) GetByID(ctx context.Context, id common.ID) (*lead.LeadEntry, error) {
	row := r.db.QueryRow(ctx,
		fmt.Sprintf(`SELECT %s FROM lead_entries WHERE id = $1`, leadColumns), id)

	l, err := scanLead(row)
	if err != nil {
		if isNoRows(err) {
			return nil, errors.Newf(errors.ErrCodeLeadNotFound, "lead %s not found", id)
		}
		r.log.Error("LeadRepository.GetByID", logging.Err(err))
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to query lead")
	}
	return l, nil
}

// List returns a page of leads matching the filter plus the unpaged total.
func (r *LeadRepository) List(ctx context.Context, filter lead.ListFilter) ([]*lead.LeadEntry, int64, error) {
	var (
		conditions []string
		args       []any
	)
	nextArg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.ProfileID != "" {
		conditions = append(conditions, "profile_id = "+nextArg(filter.ProfileID))
	}
	if filter.UserID != "" {
		conditions = append(conditions, "user_id = "+nextArg(filter.UserID))
	}
	if filter.Status != "" {
		conditions = append(conditions, "status = "+nextArg(filter.Status))
	}
	if !filter.From.IsZero() {
		conditions = append(conditions, "lead_date >= "+nextArg(filter.From.Time()))
	}
	if !filter.To.IsZero() {
		conditions = append(conditions, "lead_date <= "+nextArg(filter.To.Time()))
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + joinAnd(conditions)
	}

	var total int64
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM lead_entries "+where, args...).Scan(&total); err != nil {
		r.log.Error("LeadRepository.List: count", logging.Err(err))
		return nil, 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to count leads")
	}

	offset, limit := clampPage(filter.Offset, filter.Limit)
	query := fmt.Sprintf(`SELECT %s FROM lead_entries %s ORDER BY lead_date DESC, id ASC LIMIT %s OFFSET %s`,
		leadColumns, where, nextArg(limit), nextArg(offset))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.log.Error("LeadRepository.List: query", logging.Err(err))
		return nil, 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to query leads")
	}
	defer rows.Close()

	leads, err := scanLeads(rows)
	if err != nil {
		return nil, 0, err
	}
	return leads, total, nil
}

// Update persists mutations to an existing lead.
func (r *LeadRepository) Update(ctx context.Context, l *lead.LeadEntry) error {
	r.log.Debug("LeadRepository.Update",
		logging.String("lead_id", string(l.ID)),
		logging.String("status", string(l.Status)),
	)

	tag, err := r.db.Exec(ctx, `
		UPDATE lead_entries SET
			company = $2, position = $3, contact_name = $4, contact_email = $5,
			contact_phone = $6, source = $7, status = $8, notes = $9, updated_at = $10
		WHERE id = $1`,
		l.ID, l.Company, l.Position, l.ContactName, l.ContactEmail,
		l.ContactPhone, l.Source, l.Status, l.Notes, l.UpdatedAt,
	)
	if err != nil {
		r.log.Error("LeadRepository.Update", logging.Err(err))
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to update lead")
	}
	if tag.RowsAffected() == 0 {
		return errors.Newf(errors.ErrCodeLeadNotFound, "lead %s not found", l.ID)
	}
	return nil
}

// Delete removes a lead entry.
func (r *LeadRepository) Delete(ctx context.Context, id common.ID) error {
	r.log.Debug("LeadRepository.Delete", logging.String("lead_id", string(id)))

	tag, err := r.db.Exec(ctx, `DELETE FROM lead_entries WHERE id = $1`, id)
	if err != nil {
		r.log.Error("LeadRepository.Delete", logging.Err(err))
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to delete lead")
	}
	if tag.RowsAffected() == 0 {
		return errors.Newf(errors.ErrCodeLeadNotFound, "lead %s not found", id)
	}
	return nil
}

// ListInRange returns every lead whose lead date falls inside the range.
func (r *LeadRepository) ListInRange(ctx context.Context, period common.DateRange) ([]*lead.LeadEntry, error) {
	rows, err := r.db.Query(ctx, fmt.Sprintf(`
		SELECT %s FROM lead_entries
		WHERE lead_date >= $1 AND lead_date <= $2
		ORDER BY user_id ASC, profile_id ASC, lead_date ASC`, leadColumns),
		period.From.Time(), period.To.Time())
	if err != nil {
		r.log.Error("LeadRepository.ListInRange", logging.Err(err))
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to query leads in range")
	}
	defer rows.Close()

	return scanLeads(rows)
}

// CountByStatus aggregates per-pair, per-stage lead counts over the range.
func (r *LeadRepository) CountByStatus(ctx context.Context, period common.DateRange) ([]lead.StatusCount, error) {
	rows, err := r.db.Query(ctx, `
		SELECT user_id, profile_id, status, COUNT(*)
		FROM lead_entries
		WHERE lead_date >= $1 AND lead_date <= $2
		GROUP BY user_id, profile_id, status
		ORDER BY user_id ASC, profile_id ASC, status ASC`,
		period.From.Time(), period.To.Time())
	if err != nil {
		r.log.Error("LeadRepository.CountByStatus", logging.Err(err))
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to count leads by status")
	}
	defer rows.Close()

	var counts []lead.StatusCount
	for rows.Next() {
		var sc lead.StatusCount
		if err := rows.Scan(&sc.UserID, &sc.ProfileID, &sc.Status, &sc.Count); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan lead count row")
		}
		counts = append(counts, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "lead count iteration failed")
	}
	return counts, nil
}

func scanLead(row scanner) (*lead.LeadEntry, error) {
	var (
		l  lead.LeadEntry
		ld time.Time
	)
	err := row.Scan(
		&l.ID, &l.ProfileID, &l.UserID, &l.Company, &l.Position, &l.ContactName, &l.ContactEmail,
		&l.ContactPhone, &l.Source, &l.Status, &l.Notes, &ld, &l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	l.LeadDate = common.DateOf(ld)
	return &l, nil
}

func scanLeads(rows pgx.Rows) ([]*lead.LeadEntry, error) {
	var leads []*lead.LeadEntry
	for rows.Next() {
		l, err := scanLead(rows)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan lead row")
		}
		leads = append(leads, l)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "lead row iteration failed")
	}
	return leads, nil
}
