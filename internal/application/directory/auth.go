package directory

import (
	"context"
	"strings"

	"github.com/relayops/leadtrack/internal/domain/activity"
	"github.com/relayops/leadtrack/internal/domain/user"
	"github.com/relayops/leadtrack/internal/infrastructure/auth"
	"github.com/relayops/leadtrack/internal/infrastructure/database/redis"
	"github.com/relayops/leadtrack/internal/infrastructure/monitoring/logging"
	"github.com/relayops/leadtrack/internal/infrastructure/monitoring/prometheus"
	"github.com/relayops/leadtrack/pkg/errors"
)

// LoginInput carries the credentials of a login attempt.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResult is returned by Login and Refresh.
type LoginResult struct {
	User   *user.User      `json:"user"`
	Tokens *auth.TokenPair `json:"tokens"`
}

func (s *serviceImpl) Login(ctx context.Context, input *LoginInput) (*LoginResult, error) {
	if input == nil || strings.TrimSpace(input.Email) == "" || input.Password == "" {
		return nil, errors.Validation("email and password are required")
	}

	u, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(input.Email)))
	if err != nil {
		if errors.IsCode(err, errors.ErrCodeUserNotFound) {
			prometheus.RecordAuthAttempt(s.metrics, false, "invalid_credentials")
			return nil, auth.ErrInvalidCredentials
		}
		prometheus.RecordAuthAttempt(s.metrics, false, "error")
		return nil, err
	}
	if err := s.passwords.Verify(u.PasswordHash, input.Password); err != nil {
		prometheus.RecordAuthAttempt(s.metrics, false, "invalid_credentials")
		return nil, auth.ErrInvalidCredentials
	}
	// Suspension is only revealed to a caller holding valid credentials.
	if !u.CanAuthenticate() {
		prometheus.RecordAuthAttempt(s.metrics, false, "suspended")
		return nil, errors.New(errors.ErrCodeAccountSuspended, "account is suspended")
	}

	result, err := s.issueSession(ctx, u)
	if err != nil {
		prometheus.RecordAuthAttempt(s.metrics, false, "error")
		return nil, err
	}

	prometheus.RecordAuthAttempt(s.metrics, true, "")
	s.publish(ctx, u.ID, activity.ActionLogin, "user", u.ID, nil)
	s.logger.Info("User logged in",
		logging.String("user_id", string(u.ID)),
		logging.String("role", string(u.Role)))
	return result, nil
}

func (s *serviceImpl) Refresh(ctx context.Context, refreshToken string) (*LoginResult, error) {
	if refreshToken == "" {
		return nil, errors.Unauthorized("refresh token is required")
	}
	claims, err := s.tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		return nil, err
	}
	session, err := s.sessions.Get(ctx, claims.TokenID)
	if err != nil {
		return nil, err
	}

	u, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.IsCode(err, errors.ErrCodeUserNotFound) {
			// Account deleted since the session was minted.
			if delErr := s.sessions.Delete(ctx, claims.TokenID); delErr != nil {
				s.logger.Warn("Orphaned session not removed", logging.Err(delErr))
			}
			return nil, errors.New(errors.ErrCodeSessionRevoked, "session no longer valid")
		}
		return nil, err
	}
	if !u.CanAuthenticate() {
		return nil, errors.New(errors.ErrCodeAccountSuspended, "account is suspended")
	}

	result, err := s.issueSession(ctx, u)
	if err != nil {
		return nil, err
	}
	// Rotation: the presented token is spent once its replacement exists.
	if err := s.sessions.Delete(ctx, claims.TokenID); err != nil {
		s.logger.Warn("Rotated session not removed",
			logging.String("user_id", string(u.ID)),
			logging.Err(err))
	}
	return result, nil
}

func (s *serviceImpl) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return errors.Unauthorized("refresh token is required")
	}
	claims, err := s.tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		return err
	}
	if err := s.sessions.Delete(ctx, claims.TokenID); err != nil {
		return err
	}
	s.publish(ctx, claims.UserID, activity.ActionLogout, "user", claims.UserID, nil)
	return nil
}

// issueSession mints a token pair and persists its refresh half.
func (s *serviceImpl) issueSession(ctx context.Context, u *user.User) (*LoginResult, error) {
	pair, refreshClaims, err := s.tokens.IssuePair(u)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Save(ctx, &redis.RefreshSession{
		TokenID:   refreshClaims.TokenID,
		UserID:    u.ID,
		Role:      string(u.Role),
		IssuedAt:  refreshClaims.IssuedAt,
		ExpiresAt: refreshClaims.ExpiresAt,
	}); err != nil {
		return nil, err
	}
	return &LoginResult{User: u, Tokens: pair}, nil
}
