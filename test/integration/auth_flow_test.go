//go:build integration

package integration

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relayops/leadtrack/pkg/client"
)

func TestLogin_WrongPasswordRejected(t *testing.T) {
	e := Env(t)
	ctx := testContext(t)

	c, err := client.New(e.Server.URL)
	require.NoError(t, err)

	_, err = c.Auth().Login(ctx, managerEmail, "definitely-wrong")
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsUnauthorized())
	assert.Empty(t, c.Token(), "failed login must not install a token")
}

func TestLogin_IssuesWorkingSession(t *testing.T) {
	e := Env(t)
	ctx := testContext(t)

	c, err := client.New(e.Server.URL)
	require.NoError(t, err)

	sess, err := c.Auth().Login(ctx, managerEmail, managerPassword)
	require.NoError(t, err)
	require.NotNil(t, sess.User)
	require.NotNil(t, sess.Tokens)
	assert.Equal(t, client.RoleManager, sess.User.Role)
	assert.Equal(t, sess.Tokens.AccessToken, c.Token())

	// The installed token must open the protected surface.
	me, err := c.Users().Get(ctx, sess.User.ID)
	require.NoError(t, err)
	assert.Equal(t, managerEmail, me.Email)
}

func TestRefresh_RotatesSession(t *testing.T) {
	e := Env(t)
	ctx := testContext(t)

	c, err := client.New(e.Server.URL)
	require.NoError(t, err)
	first, err := c.Auth().Login(ctx, managerEmail, managerPassword)
	require.NoError(t, err)

	second, err := c.Auth().Refresh(ctx, first.Tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, first.Tokens.RefreshToken, second.Tokens.RefreshToken)
	assert.Equal(t, second.Tokens.AccessToken, c.Token())

	// The presented refresh token is spent by rotation.
	_, err = c.Auth().Refresh(ctx, first.Tokens.RefreshToken)
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsUnauthorized())

	// Its replacement still works.
	_, err = c.Auth().Refresh(ctx, second.Tokens.RefreshToken)
	require.NoError(t, err)
}

func TestLogout_RevokesRefreshToken(t *testing.T) {
	e := Env(t)
	ctx := testContext(t)

	c, err := client.New(e.Server.URL)
	require.NoError(t, err)
	sess, err := c.Auth().Login(ctx, managerEmail, managerPassword)
	require.NoError(t, err)

	require.NoError(t, c.Auth().Logout(ctx, sess.Tokens.RefreshToken))
	assert.Empty(t, c.Token(), "logout clears the installed token")

	c2, err := client.New(e.Server.URL)
	require.NoError(t, err)
	_, err = c2.Auth().Refresh(ctx, sess.Tokens.RefreshToken)
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsUnauthorized())
}

func TestSuspendedUser_CannotLogin(t *testing.T) {
	e := Env(t)
	ctx := testContext(t)
	mgr := e.ManagerClient(t, ctx)

	u := e.CreateUser(t, ctx, mgr, client.RoleLeadGen, "suspend-me", "lead-pass-1")

	// The fresh account logs in fine.
	e.LoginAs(t, ctx, u.Email, "lead-pass-1")

	status := client.UserSuspended
	_, err := mgr.Users().Update(ctx, u.ID, &client.UpdateUserRequest{Status: &status})
	require.NoError(t, err)

	c, err := client.New(e.Server.URL)
	require.NoError(t, err)
	_, err = c.Auth().Login(ctx, u.Email, "lead-pass-1")
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsForbidden(), "suspension surfaces as forbidden, not bad credentials")
}

func TestProtectedSurface_RequiresToken(t *testing.T) {
	e := Env(t)
	ctx := testContext(t)

	c, err := client.New(e.Server.URL)
	require.NoError(t, err)

	_, err = c.Profiles().List(ctx, nil)
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsUnauthorized())
}
