package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/relayops/leadtrack/internal/infrastructure/monitoring/logging"
	"github.com/relayops/leadtrack/pkg/errors"
	"github.com/relayops/leadtrack/pkg/types/common"
)

// RefreshSession is the server-side record of an issued refresh token.  The
// JWT itself is stateless; this record is what makes revocation possible.
type RefreshSession struct {
	TokenID   common.ID `json:"token_id"`
	UserID    common.ID `json:"user_id"`
	Role      string    `json:"role"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// TokenStore keeps refresh sessions in Redis.  Each session key carries the
// token's remaining TTL so expired sessions clean themselves up, and a
// per-user set indexes live sessions for revoke-all on suspension or role
// change.
type TokenStore struct {
	client *Client
	logger logging.Logger
}

func NewTokenStore(client *Client, log logging.Logger) *TokenStore {
	return &TokenStore{
		client: client,
		logger: log,
	}
}

func (s *TokenStore) sessionKey(tokenID common.ID) string {
	return s.client.KeyPrefix() + "session:" + string(tokenID)
}

func (s *TokenStore) userIndexKey(userID common.ID) string {
	return s.client.KeyPrefix() + "user_sessions:" + string(userID)
}

// Save stores a session under the token's remaining lifetime and adds it to
// the owner's index.  Every refresh token carries the same configured TTL,
// so bumping the index expiry on each save keeps the index alive as long as
// any live session.
func (s *TokenStore) Save(ctx context.Context, session *RefreshSession) error {
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return errors.New(errors.CodeInvalidParam, "refresh session is already expired")
	}

	payload, err := json.Marshal(session)
	if err != nil {
		return errors.Wrap(err, errors.CodeInternal, "failed to encode refresh session")
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, s.sessionKey(session.TokenID), payload, ttl)
	pipe.SAdd(ctx, s.userIndexKey(session.UserID), string(session.TokenID))
	pipe.Expire(ctx, s.userIndexKey(session.UserID), ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to store refresh session")
	}
	return nil
}

// Get loads a session by token ID.  A missing key means the token expired
// or was revoked; the caller cannot tell the difference and does not need to.
func (s *TokenStore) Get(ctx context.Context, tokenID common.ID) (*RefreshSession, error) {
	raw, err := s.client.Get(ctx, s.sessionKey(tokenID)).Result()
	if err == redis.Nil {
		return nil, errors.New(errors.ErrCodeSessionRevoked, "refresh session not found or revoked")
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to load refresh session")
	}

	var session RefreshSession
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to decode refresh session")
	}
	return &session, nil
}

// Delete revokes a single session.  Deleting a session that already expired
// or was revoked is not an error, so logout stays idempotent.
func (s *TokenStore) Delete(ctx context.Context, tokenID common.ID) error {
	session, err := s.Get(ctx, tokenID)
	if err != nil {
		if errors.IsCode(err, errors.ErrCodeSessionRevoked) {
			return nil
		}
		return err
	}

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, s.sessionKey(tokenID))
	pipe.SRem(ctx, s.userIndexKey(session.UserID), string(tokenID))
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to delete refresh session")
	}
	return nil
}

// RevokeAllForUser destroys every live session belonging to a user and
// returns how many were dropped.  The index may still list tokens that
// expired on their own; those do not count.
func (s *TokenStore) RevokeAllForUser(ctx context.Context, userID common.ID) (int64, error) {
	tokenIDs, err := s.client.SMembers(ctx, s.userIndexKey(userID)).Result()
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to list user sessions")
	}
	if len(tokenIDs) == 0 {
		return 0, nil
	}

	sessionKeys := make([]string, 0, len(tokenIDs))
	for _, id := range tokenIDs {
		sessionKeys = append(sessionKeys, s.sessionKey(common.ID(id)))
	}

	pipe := s.client.TxPipeline()
	delCmd := pipe.Del(ctx, sessionKeys...)
	pipe.Del(ctx, s.userIndexKey(userID))
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to revoke user sessions")
	}

	revoked := delCmd.Val()
	s.logger.Info("Revoked user sessions",
		logging.String("user_id", string(userID)),
		logging.Int64("count", revoked),
	)
	return revoked, nil
}
