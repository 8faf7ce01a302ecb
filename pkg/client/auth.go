package client

import (
	"context"
	"time"
)

// AuthClient handles login, token refresh, and logout.
type AuthClient struct {
	c *Client
}

// User is an account as returned by the API.
type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	FullName  string    `json:"full_name"`
	Role      string    `json:"role"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Roles accepted by the API.
const (
	RoleManager = "manager"
	RoleLeadGen = "lead_gen"
	RoleSales   = "sales"
)

// TokenPair is an access/refresh token pair issued at login or refresh.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

// Session is the result of a successful login or refresh.
type Session struct {
	User   *User      `json:"user"`
	Tokens *TokenPair `json:"tokens"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Login authenticates with email and password. On success the returned
// access token is installed on the client.
func (a *AuthClient) Login(ctx context.Context, email, password string) (*Session, error) {
	if email == "" {
		return nil, invalidArg("email is required")
	}
	if password == "" {
		return nil, invalidArg("password is required")
	}

	var sess Session
	if err := a.c.post(ctx, "/auth/login", &loginRequest{Email: email, Password: password}, &sess); err != nil {
		return nil, err
	}
	if sess.Tokens != nil {
		a.c.SetToken(sess.Tokens.AccessToken)
	}
	return &sess, nil
}

// Refresh exchanges a refresh token for a new pair. The new access token
// is installed on the client.
func (a *AuthClient) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	if refreshToken == "" {
		return nil, invalidArg("refresh token is required")
	}

	var sess Session
	if err := a.c.post(ctx, "/auth/refresh", &refreshRequest{RefreshToken: refreshToken}, &sess); err != nil {
		return nil, err
	}
	if sess.Tokens != nil {
		a.c.SetToken(sess.Tokens.AccessToken)
	}
	return &sess, nil
}

// Logout revokes a refresh token and clears the client's access token.
func (a *AuthClient) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return invalidArg("refresh token is required")
	}
	if err := a.c.post(ctx, "/auth/logout", &refreshRequest{RefreshToken: refreshToken}, nil); err != nil {
		return err
	}
	a.c.SetToken("")
	return nil
}
