package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/relayops/leadtrack/internal/domain/profile"
	"github.com/relayops/leadtrack/internal/infrastructure/monitoring/logging"
	"github.com/relayops/leadtrack/pkg/errors"
	"github.com/relayops/leadtrack/pkg/types/common"
)

const profileColumns = `id, full_name, email, phone, headline, summary, skills,
	resume_object_key, resume_content_type, resume_size, status, created_by, created_at, updated_at`

// ProfileRepository is the PostgreSQL implementation of profile.Repository.
type ProfileRepository struct {
	db  db
	log logging.Logger
}

var _ profile.Repository = (*ProfileRepository)(nil)

// NewProfileRepository constructs a ready-to-use ProfileRepository.
func NewProfileRepository(pool *pgxpool.Pool, log logging.Logger) *ProfileRepository {
	return &ProfileRepository{db: pool, log: log}
}

// Create inserts a new profile.
func (r *ProfileRepository) Create(ctx context.Context, p *profile.Profile) error {
	r.log.Debug("ProfileRepository.Create", logging.String("profile_id", string(p.ID)))

	_, err := r.db.Exec(ctx, `
		INSERT INTO profiles (
			id, full_name, email, phone, headline, summary, skills,
			resume_object_key, resume_content_type, resume_size,
			status, created_by, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		p.ID, p.FullName, p.Email, p.Phone, p.Headline, p.Summary, p.Skills,
		p.ResumeObjectKey, p.ResumeContentType, p.ResumeSize,
		p.Status, p.CreatedBy, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		r.log.Error("ProfileRepository.Create", logging.Err(err))
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to insert profile")
	}
	return nil
}

// GetByID loads a profile by primary key.
func (r *ProfileRepository) GetByID(ctx context.Context, id common.ID) (*profile.Profile, error) {
	row := r.db.QueryRow(ctx,
		fmt.Sprintf(`SELECT %s FROM profiles WHERE id = $1`, profileColumns), id)

	p, err := scanProfile(row)
	if err != nil {
		if isNoRows(err) {
			return nil, errors.Newf(errors.ErrCodeProfileNotFound, "profile %s not found", id)
		}
		r.log.Error("ProfileRepository.GetByID", logging.Err(err))
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to query profile")
	}
	return p, nil
}

// List returns a page of profiles matching the filter plus the unpaged total.
func (r *ProfileRepository) List(ctx context.Context, filter profile.ListFilter) ([]*profile.Profile, int64, error) {
	var (
		conditions []string
		args       []any
	)
	nextArg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Status != "" {
		conditions = append(conditions, "status = "+nextArg(filter.Status))
	}
	if filter.Search != "" {
		conditions = append(conditions, "full_name ILIKE "+nextArg("%"+filter.Search+"%"))
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + joinAnd(conditions)
	}

	var total int64
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM profiles "+where, args...).Scan(&total); err != nil {
		r.log.Error("ProfileRepository.List: count", logging.Err(err))
		return nil, 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to count profiles")
	}

	offset, limit := clampPage(filter.Offset, filter.Limit)
	query := fmt.Sprintf(`SELECT %s FROM profiles %s ORDER BY full_name ASC, id ASC LIMIT %s OFFSET %s`,
		profileColumns, where, nextArg(limit), nextArg(offset))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.log.Error("ProfileRepository.List: query", logging.Err(err))
		return nil, 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to query profiles")
	}
	defer rows.Close()

	var profiles []*profile.Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan profile row")
		}
		profiles = append(profiles, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "profile row iteration failed")
	}
	return profiles, total, nil
}

// Update persists mutations to an existing profile.
func (r *ProfileRepository) Update(ctx context.Context, p *profile.Profile) error {
	r.log.Debug("ProfileRepository.Update", logging.String("profile_id", string(p.ID)))

	tag, err := r.db.Exec(ctx, `
		UPDATE profiles SET
			full_name = $2, email = $3, phone = $4, headline = $5, summary = $6, skills = $7,
			resume_object_key = $8, resume_content_type = $9, resume_size = $10,
			status = $11, updated_at = $12
		WHERE id = $1`,
		p.ID, p.FullName, p.Email, p.Phone, p.Headline, p.Summary, p.Skills,
		p.ResumeObjectKey, p.ResumeContentType, p.ResumeSize,
		p.Status, p.UpdatedAt,
	)
	if err != nil {
		r.log.Error("ProfileRepository.Update", logging.Err(err))
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to update profile")
	}
	if tag.RowsAffected() == 0 {
		return errors.Newf(errors.ErrCodeProfileNotFound, "profile %s not found", p.ID)
	}
	return nil
}

// Delete removes a profile.  Assignment tables reference profiles with
// RESTRICT, so deleting an assigned profile fails at the database level too.
func (r *ProfileRepository) Delete(ctx context.Context, id common.ID) error {
	r.log.Debug("ProfileRepository.Delete", logging.String("profile_id", string(id)))

	tag, err := r.db.Exec(ctx, `DELETE FROM profiles WHERE id = $1`, id)
	if err != nil {
		if foreignKeyViolation(err, "") {
			return errors.Newf(errors.ErrCodeProfileHasAssignments, "profile %s still has assignments", id)
		}
		r.log.Error("ProfileRepository.Delete", logging.Err(err))
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to delete profile")
	}
	if tag.RowsAffected() == 0 {
		return errors.Newf(errors.ErrCodeProfileNotFound, "profile %s not found", id)
	}
	return nil
}

func scanProfile(row scanner) (*profile.Profile, error) {
	var p profile.Profile
	err := row.Scan(
		&p.ID, &p.FullName, &p.Email, &p.Phone, &p.Headline, &p.Summary, &p.Skills,
		&p.ResumeObjectKey, &p.ResumeContentType, &p.ResumeSize,
		&p.Status, &p.CreatedBy, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
