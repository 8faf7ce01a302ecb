// Package auth issues and verifies the service's own HMAC-signed JWTs and
// enforces role-based access on top of them.  Access tokens are stateless
// and short-lived; refresh tokens are backed by a Redis session record so
// they can be revoked before expiry.
package auth

import (
	stderrors "errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/relayops/leadtrack/internal/domain/user"
	"github.com/relayops/leadtrack/pkg/errors"
	"github.com/relayops/leadtrack/pkg/types/common"
)

var (
	ErrTokenExpired      = errors.New(errors.ErrCodeTokenExpired, "token expired")
	ErrTokenMalformed    = errors.New(errors.ErrCodeTokenInvalid, "malformed token")
	ErrTokenInvalid      = errors.New(errors.ErrCodeTokenInvalid, "invalid token")
	ErrTokenKindMismatch = errors.New(errors.ErrCodeTokenInvalid, "token kind mismatch")
)

const (
	kindAccess  = "access"
	kindRefresh = "refresh"
)

// Claims is the verified content of a token.
type Claims struct {
	TokenID   common.ID
	UserID    common.ID
	Username  string
	Role      user.Role
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenPair is what a successful login or refresh hands back to the client.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
}

// ServiceConfig holds token issuing parameters.
type ServiceConfig struct {
	Secret          string
	Issuer          string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

// TokenService issues and verifies tokens.
type TokenService struct {
	config ServiceConfig
}

// jwtClaims is the wire shape of a token.
type jwtClaims struct {
	Username string `json:"name,omitempty"`
	Role     string `json:"role"`
	Kind     string `json:"kind"`
	jwt.RegisteredClaims
}

// NewTokenService validates the config and returns a service. The secret
// length floor matches the config validator; a service built from a loaded
// config never trips it.
func NewTokenService(cfg ServiceConfig) (*TokenService, error) {
	if len(cfg.Secret) < 32 {
		return nil, errors.Validation("token secret must be at least 32 bytes")
	}
	if cfg.Issuer == "" {
		cfg.Issuer = "leadtrack"
	}
	if cfg.AccessTokenTTL <= 0 {
		cfg.AccessTokenTTL = 15 * time.Minute
	}
	if cfg.RefreshTokenTTL <= cfg.AccessTokenTTL {
		cfg.RefreshTokenTTL = 30 * 24 * time.Hour
	}
	return &TokenService{config: cfg}, nil
}

// IssuePair issues an access and a refresh token for the user. The returned
// claims are the refresh token's; the caller persists them as the session
// record that makes the refresh token revocable.
func (s *TokenService) IssuePair(u *user.User) (*TokenPair, *Claims, error) {
	access, _, err := s.issue(u, kindAccess, s.config.AccessTokenTTL)
	if err != nil {
		return nil, nil, err
	}
	refresh, refreshClaims, err := s.issue(u, kindRefresh, s.config.RefreshTokenTTL)
	if err != nil {
		return nil, nil, err
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int(s.config.AccessTokenTTL.Seconds()),
	}, refreshClaims, nil
}

// VerifyAccessToken checks signature, expiry, issuer and kind.
func (s *TokenService) VerifyAccessToken(raw string) (*Claims, error) {
	return s.verify(raw, kindAccess)
}

// VerifyRefreshToken checks the token itself; whether its session still
// exists is the token store's question, not this one's.
func (s *TokenService) VerifyRefreshToken(raw string) (*Claims, error) {
	return s.verify(raw, kindRefresh)
}

func (s *TokenService) issue(u *user.User, kind string, ttl time.Duration) (string, *Claims, error) {
	now := time.Now().UTC()
	claims := &jwtClaims{
		Username: u.Username,
		Role:     string(u.Role),
		Kind:     kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   string(u.ID),
			Issuer:    s.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.config.Secret))
	if err != nil {
		return "", nil, errors.Wrap(err, errors.ErrCodeInternal, "failed to sign token")
	}
	return signed, toClaims(claims), nil
}

func (s *TokenService) verify(raw string, wantKind string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(raw, &jwtClaims{},
		func(*jwt.Token) (any, error) { return []byte(s.config.Secret), nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.config.Issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		switch {
		case stderrors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case stderrors.Is(err, jwt.ErrTokenMalformed):
			return nil, ErrTokenMalformed
		case stderrors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrTokenInvalid
		default:
			return nil, errors.Wrap(err, errors.ErrCodeTokenInvalid, "token verification failed")
		}
	}

	claims, ok := parsed.Claims.(*jwtClaims)
	if !ok || !parsed.Valid {
		return nil, ErrTokenInvalid
	}
	if claims.Kind != wantKind {
		return nil, ErrTokenKindMismatch
	}
	if !user.Role(claims.Role).Valid() {
		return nil, ErrTokenInvalid
	}
	return toClaims(claims), nil
}

func toClaims(c *jwtClaims) *Claims {
	out := &Claims{
		TokenID:  common.ID(c.ID),
		UserID:   common.ID(c.Subject),
		Username: c.Username,
		Role:     user.Role(c.Role),
	}
	if c.IssuedAt != nil {
		out.IssuedAt = c.IssuedAt.Time
	}
	if c.ExpiresAt != nil {
		out.ExpiresAt = c.ExpiresAt.Time
	}
	return out
}
