package directory

import (
	"context"

	"github.com/relayops/leadtrack/internal/domain/activity"
	"github.com/relayops/leadtrack/internal/domain/user"
	"github.com/relayops/leadtrack/internal/infrastructure/auth"
	"github.com/relayops/leadtrack/internal/infrastructure/monitoring/logging"
	"github.com/relayops/leadtrack/pkg/errors"
	"github.com/relayops/leadtrack/pkg/types/common"
)

// CreateUserInput carries a new account. The schema enforces email and
// username uniqueness; violations surface as conflicts.
type CreateUserInput struct {
	Email    string    `json:"email"`
	Username string    `json:"username"`
	FullName string    `json:"full_name"`
	Role     user.Role `json:"role"`
	Password string    `json:"password"`
}

// UpdateUserInput updates an account. Nil fields are left untouched.
type UpdateUserInput struct {
	ID       common.ID    `json:"id"`
	FullName *string      `json:"full_name,omitempty"`
	Role     *user.Role   `json:"role,omitempty"`
	Status   *user.Status `json:"status,omitempty"`
}

// ChangePasswordInput switches a password. CurrentPassword is required when
// users change their own; managers reset others without it.
type ChangePasswordInput struct {
	UserID          common.ID `json:"user_id"`
	CurrentPassword string    `json:"current_password,omitempty"`
	NewPassword     string    `json:"new_password"`
}

// ListUsersInput filters and paginates accounts.
type ListUsersInput struct {
	Role     user.Role   `json:"role,omitempty"`
	Status   user.Status `json:"status,omitempty"`
	Search   string      `json:"search,omitempty"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
}

// UserList is one page of accounts.
type UserList struct {
	Users      []*user.User `json:"users"`
	Total      int64        `json:"total"`
	Page       int          `json:"page"`
	PageSize   int          `json:"page_size"`
	TotalPages int          `json:"total_pages"`
}

func (s *serviceImpl) CreateUser(ctx context.Context, actor *auth.Claims, input *CreateUserInput) (*user.User, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if input == nil {
		return nil, errors.Validation("create user input must not be nil")
	}

	u, err := user.New(input.Email, input.Username, input.FullName, input.Role)
	if err != nil {
		return nil, err
	}
	hash, err := s.passwords.Hash(input.Password)
	if err != nil {
		return nil, err
	}
	if err := u.SetPasswordHash(hash); err != nil {
		return nil, err
	}

	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}

	s.publish(ctx, actor.UserID, activity.ActionUserCreated, "user", u.ID, map[string]any{
		"username": u.Username,
		"role":     string(u.Role),
	})
	s.logger.Info("User created",
		logging.String("user_id", string(u.ID)),
		logging.String("role", string(u.Role)))
	return u, nil
}

func (s *serviceImpl) GetUser(ctx context.Context, id common.ID) (*user.User, error) {
	if id == "" {
		return nil, errors.InvalidParam("user id is required")
	}
	return s.users.GetByID(ctx, id)
}

func (s *serviceImpl) ListUsers(ctx context.Context, input *ListUsersInput) (*UserList, error) {
	if input == nil {
		input = &ListUsersInput{}
	}
	page, pageSize := normalizePage(input.Page, input.PageSize)

	users, total, err := s.users.List(ctx, user.ListFilter{
		Role:   input.Role,
		Status: input.Status,
		Search: input.Search,
		Offset: (page - 1) * pageSize,
		Limit:  pageSize,
	})
	if err != nil {
		return nil, err
	}
	return &UserList{
		Users:      users,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages(total, pageSize),
	}, nil
}

func (s *serviceImpl) UpdateUser(ctx context.Context, actor *auth.Claims, input *UpdateUserInput) (*user.User, error) {
	if err := requireActor(actor); err != nil {
		return nil, err
	}
	if input == nil || input.ID == "" {
		return nil, errors.InvalidParam("user id is required")
	}

	u, err := s.users.GetByID(ctx, input.ID)
	if err != nil {
		return nil, err
	}

	if input.FullName != nil {
		if err := u.Rename(*input.FullName); err != nil {
			return nil, err
		}
	}

	roleChanged := false
	if input.Role != nil && *input.Role != u.Role {
		held, err := s.hasLiveAssignments(ctx, u)
		if err != nil {
			return nil, err
		}
		if held {
			return nil, errors.Newf(errors.ErrCodeRoleChangeBlocked,
				"user %s still holds %s assignments", u.ID, u.Role)
		}
		if err := u.ChangeRole(*input.Role); err != nil {
			return nil, err
		}
		roleChanged = true
	}

	suspended := false
	if input.Status != nil && *input.Status != u.Status {
		switch *input.Status {
		case user.StatusActive:
			if err := u.Reactivate(); err != nil {
				return nil, err
			}
		case user.StatusSuspended:
			if u.ID == actor.UserID {
				return nil, errors.Validation("cannot suspend own account")
			}
			if err := u.Suspend(); err != nil {
				return nil, err
			}
			suspended = true
		default:
			return nil, errors.Validation("invalid status: " + string(*input.Status))
		}
	}

	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}

	// A changed role invalidates the role claim baked into outstanding
	// refresh sessions; a suspension ends them outright.
	if roleChanged || suspended {
		s.revokeSessions(ctx, u.ID)
	}

	s.publish(ctx, actor.UserID, activity.ActionUserUpdated, "user", u.ID, map[string]any{
		"role":   string(u.Role),
		"status": string(u.Status),
	})
	return u, nil
}

func (s *serviceImpl) ChangePassword(ctx context.Context, actor *auth.Claims, input *ChangePasswordInput) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	if input == nil || input.UserID == "" {
		return errors.InvalidParam("user id is required")
	}

	self := actor.UserID == input.UserID
	if !self && actor.Role != user.RoleManager {
		return auth.ErrAccessDenied
	}

	u, err := s.users.GetByID(ctx, input.UserID)
	if err != nil {
		return err
	}
	if self {
		if err := s.passwords.Verify(u.PasswordHash, input.CurrentPassword); err != nil {
			return err
		}
	}

	hash, err := s.passwords.Hash(input.NewPassword)
	if err != nil {
		return err
	}
	if err := u.SetPasswordHash(hash); err != nil {
		return err
	}

	if err := s.users.Update(ctx, u); err != nil {
		return err
	}

	// Old refresh tokens die with the old password.
	s.revokeSessions(ctx, u.ID)
	s.publish(ctx, actor.UserID, activity.ActionUserUpdated, "user", u.ID, map[string]any{
		"password_changed": true,
	})
	s.logger.Info("Password changed",
		logging.String("user_id", string(u.ID)),
		logging.Bool("self", self))
	return nil
}

func (s *serviceImpl) DeleteUser(ctx context.Context, actor *auth.Claims, id common.ID) error {
	if err := requireActor(actor); err != nil {
		return err
	}
	if id == "" {
		return errors.InvalidParam("user id is required")
	}
	if id == actor.UserID {
		return errors.Validation("cannot delete own account")
	}

	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		return err
	}
	// The schema refuses the delete while assignment rows reference the
	// user; the repository maps that to a conflict.
	if err := s.users.Delete(ctx, id); err != nil {
		return err
	}

	s.revokeSessions(ctx, id)
	s.publish(ctx, actor.UserID, activity.ActionUserDeleted, "user", id, map[string]any{
		"username": u.Username,
	})
	s.logger.Info("User deleted", logging.String("user_id", string(id)))
	return nil
}
