package repositories

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/relayops/leadtrack/internal/domain/user"
	"github.com/relayops/leadtrack/internal/infrastructure/monitoring/logging"
	"github.com/relayops/leadtrack/pkg/errors"
	"github.com/relayops/leadtrack/pkg/types/common"
)

const userColumns = `id, email, username, full_name, password_hash, role, status, created_at, updated_at`

// UserRepository is the PostgreSQL implementation of user.Repository.
type UserRepository struct {
	db  db
	log logging.Logger
}

var _ user.Repository = (*UserRepository)(nil)

// NewUserRepository constructs a ready-to-use UserRepository.
func NewUserRepository(pool *pgxpool.Pool, log logging.Logger) *UserRepository {
	return &UserRepository{db: pool, log: log}
}

// Create inserts a new user.  Email and username collisions surface as
// conflict errors with field-specific codes.
func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	r.log.Debug("UserRepository.Create", logging.String("user_id", string(u.ID)))

	_, err := r.db.Exec(ctx, `
		INSERT INTO users (id, email, username, full_name, password_hash, role, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		u.ID, u.Email, u.Username, u.FullName, u.PasswordHash, u.Role, u.Status, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		switch {
		case uniqueViolation(err, "users_email_key"):
			return errors.Newf(errors.ErrCodeEmailTaken, "email %s is already registered", u.Email)
		case uniqueViolation(err, "users_username_key"):
			return errors.Newf(errors.ErrCodeUsernameTaken, "username %s is already taken", u.Username)
		}
		r.log.Error("UserRepository.Create", logging.Err(err))
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to insert user")
	}
	return nil
}

// GetByID loads a user by primary key.
func (r *UserRepository) GetByID(ctx context.Context, id common.ID) (*user.User, error) {
	return r.getBy(ctx, "id", string(id))
}

// GetByEmail loads a user by email.  The lookup is exact; callers normalise
// case before calling.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	return r.getBy(ctx, "email", email)
}

// GetByUsername loads a user by username.
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*user.User, error) {
	return r.getBy(ctx, "username", username)
}

func (r *UserRepository) getBy(ctx context.Context, column, value string) (*user.User, error) {
	row := r.db.QueryRow(ctx,
		fmt.Sprintf(`SELECT %s FROM users WHERE %s = $1`, userColumns, column), value)

	u, err := scanUser(row)
	if err != nil {
		if isNoRows(err) {
			return nil, errors.Newf(errors.ErrCodeUserNotFound, "user with %s %q not found", column, value)
		}
		r.log.Error("UserRepository.getBy", logging.String("column", column), logging.Err(err))
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to query user")
	}
	return u, nil
}

// List returns a page of users matching the filter plus the unpaged total.
func (r *UserRepository) List(ctx context.Context, filter user.ListFilter) ([]*user.User, int64, error) {
	var (
		conditions []string
		args       []any
	)
	nextArg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Role != "" {
		conditions = append(conditions, "role = "+nextArg(filter.Role))
	}
	if filter.Status != "" {
		conditions = append(conditions, "status = "+nextArg(filter.Status))
	}
	if filter.Search != "" {
		ph := nextArg("%" + filter.Search + "%")
		conditions = append(conditions,
			fmt.Sprintf("(full_name ILIKE %[1]s OR email ILIKE %[1]s OR username ILIKE %[1]s)", ph))
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + joinAnd(conditions)
	}

	var total int64
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*) FROM users "+where, args...).Scan(&total); err != nil {
		r.log.Error("UserRepository.List: count", logging.Err(err))
		return nil, 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to count users")
	}

	offset, limit := clampPage(filter.Offset, filter.Limit)
	query := fmt.Sprintf(`SELECT %s FROM users %s ORDER BY full_name ASC, id ASC LIMIT %s OFFSET %s`,
		userColumns, where, nextArg(limit), nextArg(offset))

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		r.log.Error("UserRepository.List: query", logging.Err(err))
		return nil, 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to query users")
	}
	defer rows.Close()

	var users []*user.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to scan user row")
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "user row iteration failed")
	}
	return users, total, nil
}

// Update persists mutations to an existing user.
func (r *UserRepository) Update(ctx context.Context, u *user.User) error {
	r.log.Debug("UserRepository.Update", logging.String("user_id", string(u.ID)))

	tag, err := r.db.Exec(ctx, `
		UPDATE users SET
			email = $2, username = $3, full_name = $4, password_hash = $5,
			role = $6, status = $7, updated_at = $8
		WHERE id = $1`,
		u.ID, u.Email, u.Username, u.FullName, u.PasswordHash, u.Role, u.Status, u.UpdatedAt,
	)
	if err != nil {
		switch {
		case uniqueViolation(err, "users_email_key"):
			return errors.Newf(errors.ErrCodeEmailTaken, "email %s is already registered", u.Email)
		case uniqueViolation(err, "users_username_key"):
			return errors.Newf(errors.ErrCodeUsernameTaken, "username %s is already taken", u.Username)
		}
		r.log.Error("UserRepository.Update", logging.Err(err))
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to update user")
	}
	if tag.RowsAffected() == 0 {
		return errors.Newf(errors.ErrCodeUserNotFound, "user %s not found", u.ID)
	}
	return nil
}

// Delete removes a user.  Rows in assignment tables reference users with
// RESTRICT, so deleting an assigned user fails at the database even if the
// service-level check was skipped.
func (r *UserRepository) Delete(ctx context.Context, id common.ID) error {
	r.log.Debug("UserRepository.Delete", logging.String("user_id", string(id)))

	tag, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		if foreignKeyViolation(err, "") {
			return errors.Newf(errors.ErrCodeUserHasAssignments, "user %s still has assignments", id)
		}
		r.log.Error("UserRepository.Delete", logging.Err(err))
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to delete user")
	}
	if tag.RowsAffected() == 0 {
		return errors.Newf(errors.ErrCodeUserNotFound, "user %s not found", id)
	}
	return nil
}

func scanUser(row scanner) (*user.User, error) {
	var u user.User
	err := row.Scan(
		&u.ID, &u.Email, &u.Username, &u.FullName, &u.PasswordHash,
		&u.Role, &u.Status, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &u, nil
}
