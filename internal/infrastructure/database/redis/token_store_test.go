package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relayops/leadtrack/internal/infrastructure/monitoring/logging"
	"github.com/relayops/leadtrack/pkg/errors"
	"github.com/relayops/leadtrack/pkg/types/common"
)

func buildSession(userID common.ID, ttl time.Duration) *RefreshSession {
	now := time.Now()
	return &RefreshSession{
		TokenID:   common.NewID(),
		UserID:    userID,
		Role:      "lead_gen",
		IssuedAt:  now,
		ExpiresAt: now.Add(ttl),
	}
}

func TestTokenStore_SaveAndGet(t *testing.T) {
	client, _ := newTestClient(t)
	store := NewTokenStore(client, logging.NewNopLogger())
	ctx := context.Background()

	session := buildSession(common.NewID(), time.Hour)
	require.NoError(t, store.Save(ctx, session))

	got, err := store.Get(ctx, session.TokenID)
	require.NoError(t, err)
	assert.Equal(t, session.TokenID, got.TokenID)
	assert.Equal(t, session.UserID, got.UserID)
	assert.Equal(t, "lead_gen", got.Role)
	assert.WithinDuration(t, session.IssuedAt, got.IssuedAt, time.Second)
	assert.WithinDuration(t, session.ExpiresAt, got.ExpiresAt, time.Second)
}

func TestTokenStore_Save_AlreadyExpired(t *testing.T) {
	client, _ := newTestClient(t)
	store := NewTokenStore(client, logging.NewNopLogger())

	session := buildSession(common.NewID(), -time.Minute)
	err := store.Save(context.Background(), session)

	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeInvalidParam))
}

func TestTokenStore_Get_Unknown(t *testing.T) {
	client, _ := newTestClient(t)
	store := NewTokenStore(client, logging.NewNopLogger())

	_, err := store.Get(context.Background(), common.NewID())

	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeSessionRevoked))
}

func TestTokenStore_Get_ExpiredSession(t *testing.T) {
	client, mr := newTestClient(t)
	store := NewTokenStore(client, logging.NewNopLogger())
	ctx := context.Background()

	session := buildSession(common.NewID(), time.Hour)
	require.NoError(t, store.Save(ctx, session))

	mr.FastForward(2 * time.Hour)

	_, err := store.Get(ctx, session.TokenID)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeSessionRevoked))
}

func TestTokenStore_Delete(t *testing.T) {
	client, _ := newTestClient(t)
	store := NewTokenStore(client, logging.NewNopLogger())
	ctx := context.Background()

	session := buildSession(common.NewID(), time.Hour)
	require.NoError(t, store.Save(ctx, session))

	require.NoError(t, store.Delete(ctx, session.TokenID))

	_, err := store.Get(ctx, session.TokenID)
	assert.True(t, errors.IsCode(err, errors.ErrCodeSessionRevoked))

	assert.NoError(t, store.Delete(ctx, session.TokenID), "deleting a revoked session is a no-op")
}

func TestTokenStore_RevokeAllForUser(t *testing.T) {
	client, _ := newTestClient(t)
	store := NewTokenStore(client, logging.NewNopLogger())
	ctx := context.Background()

	userID := common.NewID()
	otherID := common.NewID()

	for i := 0; i < 3; i++ {
		require.NoError(t, store.Save(ctx, buildSession(userID, time.Hour)))
	}
	otherSession := buildSession(otherID, time.Hour)
	require.NoError(t, store.Save(ctx, otherSession))

	revoked, err := store.RevokeAllForUser(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), revoked)

	// The other user's session is untouched.
	_, err = store.Get(ctx, otherSession.TokenID)
	assert.NoError(t, err)

	revoked, err = store.RevokeAllForUser(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), revoked)
}
