package client

import (
	"context"
	"fmt"
	"net/url"
)

// UsersClient manages team member accounts. Most operations require a
// manager token.
type UsersClient struct {
	c *Client
}

// Account statuses returned by the API.
const (
	UserActive    = "active"
	UserSuspended = "suspended"
)

// CreateUserRequest registers a new account.
type CreateUserRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
	Password string `json:"password"`
}

// UpdateUserRequest changes mutable account fields. Nil fields are left
// untouched.
type UpdateUserRequest struct {
	FullName *string `json:"full_name,omitempty"`
	Role     *string `json:"role,omitempty"`
	Status   *string `json:"status,omitempty"`
}

// ChangePasswordRequest rotates an account password. CurrentPassword is
// required when changing one's own password; managers resetting another
// account may omit it.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password,omitempty"`
	NewPassword     string `json:"new_password"`
}

// ListUsersOptions filters and paginates List.
type ListUsersOptions struct {
	Role     string
	Status   string
	Search   string
	Page     int
	PageSize int
}

// UserList is one page of accounts.
type UserList struct {
	Users      []*User `json:"users"`
	Total      int64   `json:"total"`
	Page       int     `json:"page"`
	PageSize   int     `json:"page_size"`
	TotalPages int     `json:"total_pages"`
}

// Create registers a new account.
func (u *UsersClient) Create(ctx context.Context, req *CreateUserRequest) (*User, error) {
	if req == nil {
		return nil, invalidArg("request is required")
	}
	if req.Email == "" {
		return nil, invalidArg("email is required")
	}
	if req.Password == "" {
		return nil, invalidArg("password is required")
	}

	var out User
	if err := u.c.post(ctx, "/users", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Get fetches one account by ID.
func (u *UsersClient) Get(ctx context.Context, userID string) (*User, error) {
	if userID == "" {
		return nil, invalidArg("userID is required")
	}
	var out User
	if err := u.c.get(ctx, "/users/"+url.PathEscape(userID), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// List returns a page of accounts. A nil opts lists everything with the
// server's default page size.
func (u *UsersClient) List(ctx context.Context, opts *ListUsersOptions) (*UserList, error) {
	q := url.Values{}
	if opts != nil {
		setIfSet(q, "role", opts.Role)
		setIfSet(q, "status", opts.Status)
		setIfSet(q, "search", opts.Search)
		setPagination(q, opts.Page, opts.PageSize)
	}

	var out UserList
	if err := u.c.get(ctx, "/users"+encodeQuery(q), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Update changes mutable account fields.
func (u *UsersClient) Update(ctx context.Context, userID string, req *UpdateUserRequest) (*User, error) {
	if userID == "" {
		return nil, invalidArg("userID is required")
	}
	if req == nil {
		return nil, invalidArg("request is required")
	}

	var out User
	if err := u.c.put(ctx, "/users/"+url.PathEscape(userID), req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Delete removes an account.
func (u *UsersClient) Delete(ctx context.Context, userID string) error {
	if userID == "" {
		return invalidArg("userID is required")
	}
	return u.c.delete(ctx, "/users/"+url.PathEscape(userID))
}

// ChangePassword rotates an account password.
func (u *UsersClient) ChangePassword(ctx context.Context, userID string, req *ChangePasswordRequest) error {
	if userID == "" {
		return invalidArg("userID is required")
	}
	if req == nil || req.NewPassword == "" {
		return invalidArg("new password is required")
	}
	return u.c.put(ctx, "/users/"+url.PathEscape(userID)+"/password", req, nil)
}

// setIfSet adds a query parameter when the value is non-empty.
func setIfSet(q url.Values, key, val string) {
	if val != "" {
		q.Set(key, val)
	}
}

// setPagination adds page and page_size parameters when positive.
func setPagination(q url.Values, page, pageSize int) {
	if page > 0 {
		q.Set("page", fmt.Sprintf("%d", page))
	}
	if n := clampPageSize(pageSize); n > 0 {
		q.Set("page_size", fmt.Sprintf("%d", n))
	}
}

// encodeQuery renders url.Values with a leading "?", or "" when empty.
func encodeQuery(q url.Values) string {
	if len(q) == 0 {
		return ""
	}
	return "?" + q.Encode()
}
