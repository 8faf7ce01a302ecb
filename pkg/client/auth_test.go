package client

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuth_Login(t *testing.T) {
	var gotBody loginRequest
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/v1/auth/login", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		json.NewEncoder(w).Encode(Session{
			User: &User{ID: "u-1", Email: "boss@example.com", Role: RoleManager},
			Tokens: &TokenPair{
				AccessToken:  "access-abc",
				RefreshToken: "refresh-xyz",
				TokenType:    "Bearer",
				ExpiresIn:    900,
			},
		})
	}))

	sess, err := c.Auth().Login(context.Background(), "boss@example.com", "secret")
	require.NoError(t, err)

	assert.Equal(t, "boss@example.com", gotBody.Email)
	assert.Equal(t, "secret", gotBody.Password)
	assert.Equal(t, "u-1", sess.User.ID)
	assert.Equal(t, "access-abc", c.Token(), "login must install the access token")
}

func TestAuth_Login_Validation(t *testing.T) {
	c, err := New("http://localhost:8080")
	require.NoError(t, err)

	_, err = c.Auth().Login(context.Background(), "", "pw")
	assert.ErrorContains(t, err, "email is required")

	_, err = c.Auth().Login(context.Background(), "a@b.c", "")
	assert.ErrorContains(t, err, "password is required")
}

func TestAuth_Login_BadCredentials(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		json.NewEncoder(w).Encode(map[string]string{"code": "AUTH_001", "message": "invalid credentials"})
	}))

	_, err := c.Auth().Login(context.Background(), "boss@example.com", "wrong")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsUnauthorized())
	assert.Empty(t, c.Token(), "failed login must not install a token")
}

func TestAuth_Refresh(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/auth/refresh", r.URL.Path)
		json.NewEncoder(w).Encode(Session{
			Tokens: &TokenPair{AccessToken: "access-2", RefreshToken: "refresh-2"},
		})
	}), WithToken("access-1"))

	sess, err := c.Auth().Refresh(context.Background(), "refresh-1")
	require.NoError(t, err)
	assert.Equal(t, "refresh-2", sess.Tokens.RefreshToken)
	assert.Equal(t, "access-2", c.Token(), "refresh must rotate the installed token")
}

func TestAuth_Logout(t *testing.T) {
	var gotBody refreshRequest
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/v1/auth/logout", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.WriteHeader(http.StatusNoContent)
	}), WithToken("access-1"))

	require.NoError(t, c.Auth().Logout(context.Background(), "refresh-1"))
	assert.Equal(t, "refresh-1", gotBody.RefreshToken)
	assert.Empty(t, c.Token(), "logout must clear the installed token")
}
