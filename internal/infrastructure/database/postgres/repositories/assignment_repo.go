package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/relayops/leadtrack/internal/domain/assignment"
	"github.com/relayops/leadtrack/internal/infrastructure/monitoring/logging"
	"github.com/relayops/leadtrack/pkg/errors"
	"github.com/relayops/leadtrack/pkg/types/common"
)

const assignmentColumns = `id, user_id, profile_id, assigned_by, note, assigned_at`

// LeadGenAssignmentRepository is the PostgreSQL implementation of
// assignment.LeadGenRepository.  The one-to-one shape lives in the schema:
// both user_id and profile_id carry unique constraints.
type LeadGenAssignmentRepository struct {
	db  db
	log logging.Logger
}

var _ assignment.LeadGenRepository = (*LeadGenAssignmentRepository)(nil)

// NewLeadGenAssignmentRepository constructs a ready-to-use repository.
func NewLeadGenAssignmentRepository(pool *pgxpool.Pool, log logging.Logger) *LeadGenAssignmentRepository {
	return &LeadGenAssignmentRepository{db: pool, log: log}
}

// Create inserts a lead-gen assignment, mapping each unique constraint onto
// its own conflict code so handlers can tell the caller which side is taken.
func (r *LeadGenAssignmentRepository) Create(ctx context.Context, a *assignment.LeadGenAssignment) error {
	r.log.Debug("LeadGenAssignmentRepository.Create",
		logging.String("user_id", string(a.UserID)),
		logging.String("profile_id", string(a.ProfileID)),
	)

	_, err := r.db.Exec(ctx, `
		INSERT INTO leadgen_assignments (id, user_id, profile_id, assigned_by, note, assigned_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		a.ID, a.UserID, a.ProfileID, a.AssignedBy, a.Note, a.AssignedAt,
	)
	if err != nil {
		switch {
		case uniqueViolation(err, "leadgen_assignments_user_id_key"):
			return errors.Newf(errors.ErrCodeUserAlreadyAssigned, "user %s already holds a lead-gen assignment", a.UserID)
		case uniqueViolation(err, "leadgen_assignments_profile_id_key"):
			return errors.Newf(errors.ErrCodeProfileAlreadyHeld, "profile %s is already assigned for lead generation", a.ProfileID)
		case foreignKeyViolation(err, "leadgen_assignments_user_id_fkey"):
			return errors.Newf(errors.ErrCodeUserNotFound, "user %s not found", a.UserID)
		case foreignKeyViolation(err, "leadgen_assignments_profile_id_fkey"):
			return errors.Newf(errors.ErrCodeProfileNotFound, "profile %s not found", a.ProfileID)
		}
		r.log.Error("LeadGenAssignmentRepository.Create", logging.Err(err))
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to insert lead-gen assignment")
	}
	return nil
}

// GetByID loads a lead-gen assignment by primary key.
func (r *LeadGenAssignmentRepository) GetByID(ctx context.Context, id common.ID) (*assignment.LeadGenAssignment, error) {
	return r.getBy(ctx, "id", id)
}

// GetByUser loads the assignment held by the user, if any.
func (r *LeadGenAssignmentRepository) GetByUser(ctx context.Context, userID common.ID) (*assignment.LeadGenAssignment, error) {
	return r.getBy(ctx, "user_id", userID)
}

// GetByProfile loads the assignment covering the profile, if any.
func (r *LeadGenAssignmentRepository) GetByProfile(ctx context.Context, profileID common.ID) (*assignment.LeadGenAssignment, error) {
	return r.getBy(ctx, "profile_id", profileID)
}

func (r *LeadGenAssignmentRepository) getBy(ctx context.Context, column string, value common.ID) (*assignment.LeadGenAssignment, error) {
	row := r.db.QueryRow(ctx,
		fmt.Sprintf(`SELECT %s FROM leadgen_assignments WHERE %s = $1`, assignmentColumns, column), value)

	a, err := scanLeadGenAssignment(row)
	if err != nil {
		if isNoRows(err) {
			return nil, errors.Newf(errors.ErrCodeAssignmentNotFound, "no lead-gen assignment with %s %s", column, value)
		}
		r.log.Error("LeadGenAssignmentRepository.getBy", logging.String("column", column), logging.Err(err))
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to query lead-gen assignment")
	}
	return a, nil
}

// List returns a page of lead-gen assignments plus the unpaged total.
func (r *LeadGenAssignmentRepository) List(ctx context.Context, filter assignment.ListFilter) ([]*assignment.LeadGenAssignment, int64, error) {
	where, args := assignmentWhere(filter)

	var total int64
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM leadgen_assignments "+where, args...).Scan(&total); err != nil {
		r.log.Error("LeadGenAssignmentRepository.List: count", logging.Err(err))
		return nil, 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to count lead-gen assignments")
	}

	offset, limit := clampPage(filter.Offset, filter.Limit)
	query := fmt.Sprintf(`SELECT %s FROM leadgen_assignments %s ORDER BY assigned_at DESC, id ASC LIMIT $%d OFFSET $%d`,
		assignmentColumns, where, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.log.Error("LeadGenAssignmentRepository.List: query", logging.Err(err))
		return nil, 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to query lead-gen assignments")
	}
	defer rows.Close()

	var items []*assignment.LeadGenAssignment
	for rows.Next() {
		a, err := scanLeadGenAssignment(rows)
		if err != nil {
			return nil, 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan lead-gen assignment row")
		}
		items = append(items, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "lead-gen assignment row iteration failed")
	}
	return items, total, nil
}

// Delete removes a lead-gen assignment, freeing both the user and the profile.
func (r *LeadGenAssignmentRepository) Delete(ctx context.Context, id common.ID) error {
	r.log.Debug("LeadGenAssignmentRepository.Delete", logging.String("assignment_id", string(id)))

	tag, err := r.db.Exec(ctx, `DELETE FROM leadgen_assignments WHERE id = $1`, id)
	if err != nil {
		r.log.Error("LeadGenAssignmentRepository.Delete", logging.Err(err))
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to delete lead-gen assignment")
	}
	if tag.RowsAffected() == 0 {
		return errors.Newf(errors.ErrCodeAssignmentNotFound, "lead-gen assignment %s not found", id)
	}
	return nil
}

func scanLeadGenAssignment(row scanner) (*assignment.LeadGenAssignment, error) {
	var a assignment.LeadGenAssignment
	err := row.Scan(&a.ID, &a.UserID, &a.ProfileID, &a.AssignedBy, &a.Note, &a.AssignedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// SalesAssignmentRepository is the PostgreSQL implementation of
// assignment.SalesRepository.  Uniqueness holds per (user, profile) pair.
type SalesAssignmentRepository struct {
	db  db
	log logging.Logger
}

var _ assignment.SalesRepository = (*SalesAssignmentRepository)(nil)

// NewSalesAssignmentRepository constructs a ready-to-use repository.
func NewSalesAssignmentRepository(pool *pgxpool.Pool, log logging.Logger) *SalesAssignmentRepository {
	return &SalesAssignmentRepository{db: pool, log: log}
}

// Create inserts a sales assignment.
func (r *SalesAssignmentRepository) Create(ctx context.Context, a *assignment.SalesAssignment) error {
	r.log.Debug("SalesAssignmentRepository.Create",
		logging.String("user_id", string(a.UserID)),
		logging.String("profile_id", string(a.ProfileID)),
	)

	_, err := r.db.Exec(ctx, `
		INSERT INTO sales_assignments (id, user_id, profile_id, assigned_by, note, assigned_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		a.ID, a.UserID, a.ProfileID, a.AssignedBy, a.Note, a.AssignedAt,
	)
	if err != nil {
		switch {
		case uniqueViolation(err, "sales_assignments_user_id_profile_id_key"):
			return errors.Newf(errors.ErrCodeAssignmentDuplicate, "user %s is already assigned to profile %s", a.UserID, a.ProfileID)
		case foreignKeyViolation(err, "sales_assignments_user_id_fkey"):
			return errors.Newf(errors.ErrCodeUserNotFound, "user %s not found", a.UserID)
		case foreignKeyViolation(err, "sales_assignments_profile_id_fkey"):
			return errors.Newf(errors.ErrCodeProfileNotFound, "profile %s not found", a.ProfileID)
		}
		r.log.Error("SalesAssignmentRepository.Create", logging.Err(err))
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to insert sales assignment")
	}
	return nil
}

// GetByID loads a sales assignment by primary key.
func (r *SalesAssignmentRepository) GetByID(ctx context.Context, id common.ID) (*assignment.SalesAssignment, error) {
	row := r.db.QueryRow(ctx,
		fmt.Sprintf(`SELECT %s FROM sales_assignments WHERE id = $1`, assignmentColumns), id)

	a, err := scanSalesAssignment(row)
	if err != nil {
		if isNoRows(err) {
			return nil, errors.Newf(errors.ErrCodeAssignmentNotFound, "sales assignment %s not found", id)
		}
		r.log.Error("SalesAssignmentRepository.GetByID", logging.Err(err))
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to query sales assignment")
	}
	return a, nil
}

// GetByPair loads the assignment binding the user to the profile, if any.
func (r *SalesAssignmentRepository) GetByPair(ctx context.Context, userID, profileID common.ID) (*assignment.SalesAssignment, error) {
	row := r.db.QueryRow(ctx,
		fmt.Sprintf(`SELECT %s FROM sales_assignments WHERE user_id = $1 AND profile_id = $2`, assignmentColumns),
		userID, profileID)

	a, err := scanSalesAssignment(row)
	if err != nil {
		if isNoRows(err) {
			return nil, errors.Newf(errors.ErrCodeAssignmentNotFound, "user %s is not assigned to profile %s", userID, profileID)
		}
		r.log.Error("SalesAssignmentRepository.GetByPair", logging.Err(err))
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to query sales assignment")
	}
	return a, nil
}

// List returns a page of sales assignments plus the unpaged total.
func (r *SalesAssignmentRepository) List(ctx context.Context, filter assignment.ListFilter) ([]*assignment.SalesAssignment, int64, error) {
	where, args := assignmentWhere(filter)

	var total int64
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM sales_assignments "+where, args...).Scan(&total); err != nil {
		r.log.Error("SalesAssignmentRepository.List: count", logging.Err(err))
		return nil, 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to count sales assignments")
	}

	offset, limit := clampPage(filter.Offset, filter.Limit)
	query := fmt.Sprintf(`SELECT %s FROM sales_assignments %s ORDER BY assigned_at DESC, id ASC LIMIT $%d OFFSET $%d`,
		assignmentColumns, where, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.log.Error("SalesAssignmentRepository.List: query", logging.Err(err))
		return nil, 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to query sales assignments")
	}
	defer rows.Close()

	var items []*assignment.SalesAssignment
	for rows.Next() {
		a, err := scanSalesAssignment(rows)
		if err != nil {
			return nil, 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan sales assignment row")
		}
		items = append(items, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "sales assignment row iteration failed")
	}
	return items, total, nil
}

// Delete removes a sales assignment.
func (r *SalesAssignmentRepository) Delete(ctx context.Context, id common.ID) error {
	r.log.Debug("SalesAssignmentRepository.Delete", logging.String("assignment_id", string(id)))

	tag, err := r.db.Exec(ctx, `DELETE FROM sales_assignments WHERE id = $1`, id)
	if err != nil {
		r.log.Error("SalesAssignmentRepository.Delete", logging.Err(err))
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to delete sales assignment")
	}
	if tag.RowsAffected() == 0 {
		return errors.Newf(errors.ErrCodeAssignmentNotFound, "sales assignment %s not found", id)
	}
	return nil
}

func scanSalesAssignment(row scanner) (*assignment.SalesAssignment, error) {
	var a assignment.SalesAssignment
	err := row.Scan(&a.ID, &a.UserID, &a.ProfileID, &a.AssignedBy, &a.Note, &a.AssignedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// assignmentWhere builds the shared WHERE clause for both assignment tables.
func assignmentWhere(filter assignment.ListFilter) (string, []any) {
	var (
		conditions []string
		args       []any
	)
	if filter.UserID != "" {
		args = append(args, filter.UserID)
		conditions = append(conditions, fmt.Sprintf("user_id = $%d", len(args)))
	}
	if filter.ProfileID != "" {
		args = append(args, filter.ProfileID)
		conditions = append(conditions, fmt.Sprintf("profile_id = $%d", len(args)))
	}
	if len(conditions) == 0 {
		return "", nil
	}
	return "WHERE " + joinAnd(conditions), args
}
