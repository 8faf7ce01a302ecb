package auth

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strings"

	"github.com/relayops/leadtrack/internal/domain/user"
	"github.com/relayops/leadtrack/internal/infrastructure/monitoring/logging"
	"github.com/relayops/leadtrack/pkg/errors"
	"github.com/relayops/leadtrack/pkg/types/common"
)

var (
	ErrMissingAuthHeader = errors.New(errors.ErrCodeUnauthorized, "missing authorization header")
	ErrInvalidAuthFormat = errors.New(errors.ErrCodeUnauthorized, "authorization header is not a bearer token")
)

type contextKey string

const (
	contextKeyClaims contextKey = "auth_claims"
	contextKeyUserID contextKey = "auth_user_id"
	contextKeyRole   contextKey = "auth_role"
)

// TokenVerifier is the slice of TokenService the middleware needs.
type TokenVerifier interface {
	VerifyAccessToken(raw string) (*Claims, error)
}

// Middleware authenticates requests with a bearer access token and injects
// the verified claims into the request context.
type Middleware struct {
	tokens       TokenVerifier
	logger       logging.Logger
	skipPaths    map[string]bool
	skipPrefixes []string
	onFailure    func(http.ResponseWriter, *http.Request, error)
}

// MiddlewareOption configures the middleware.
type MiddlewareOption func(*Middleware)

// WithSkipPaths exempts exact paths from authentication.
func WithSkipPaths(paths ...string) MiddlewareOption {
	return func(m *Middleware) {
		for _, p := range paths {
			m.skipPaths[p] = true
		}
	}
}

// WithSkipPrefixes exempts path prefixes from authentication.
func WithSkipPrefixes(prefixes ...string) MiddlewareOption {
	return func(m *Middleware) {
		m.skipPrefixes = append(m.skipPrefixes, prefixes...)
	}
}

// WithFailureHandler replaces the default JSON failure response.
func WithFailureHandler(handler func(http.ResponseWriter, *http.Request, error)) MiddlewareOption {
	return func(m *Middleware) {
		m.onFailure = handler
	}
}

// NewMiddleware builds the authentication middleware.
func NewMiddleware(tokens TokenVerifier, logger logging.Logger, opts ...MiddlewareOption) *Middleware {
	m := &Middleware{
		tokens:    tokens,
		logger:    logger,
		skipPaths: make(map[string]bool),
		onFailure: func(w http.ResponseWriter, r *http.Request, err error) {
			writeAuthError(w, err)
		},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Handler wraps next with bearer-token authentication.
func (m *Middleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.skipPaths[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}
		for _, prefix := range m.skipPrefixes {
			if strings.HasPrefix(r.URL.Path, prefix) {
				next.ServeHTTP(w, r)
				return
			}
		}

		raw, err := extractBearerToken(r)
		if err != nil {
			m.handleFailure(w, r, err)
			return
		}

		claims, err := m.tokens.VerifyAccessToken(raw)
		if err != nil {
			m.handleFailure(w, r, err)
			return
		}

		next.ServeHTTP(w, r.WithContext(ContextWithClaims(r.Context(), claims)))
	})
}

func (m *Middleware) handleFailure(w http.ResponseWriter, r *http.Request, err error) {
	m.logger.Warn("Authentication failed",
		logging.String("path", r.URL.Path),
		logging.String("remote_addr", r.RemoteAddr),
		logging.Err(err),
	)
	m.onFailure(w, r, err)
}

func extractBearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", ErrMissingAuthHeader
	}
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", ErrInvalidAuthFormat
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	if token == "" {
		return "", ErrInvalidAuthFormat
	}
	return token, nil
}

func writeAuthError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	status := errors.HTTPStatusForCode(code)

	message := "authentication required"
	var ae *errors.AppError
	if stderrors.As(err, &ae) {
		message = ae.Message
	}

	w.Header().Set("Content-Type", "application/json")
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", "Bearer")
	}
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"code":    string(code),
		"message": message,
	})
}

// ContextWithClaims returns a context carrying the verified claims. The
// user ID and role ride under their own keys so ownership checks and RBAC
// do not need the full claims struct.
func ContextWithClaims(ctx context.Context, claims *Claims) context.Context {
	ctx = context.WithValue(ctx, contextKeyClaims, claims)
	ctx = context.WithValue(ctx, contextKeyUserID, claims.UserID)
	return context.WithValue(ctx, contextKeyRole, claims.Role)
}

// ClaimsFromContext returns the verified claims, if any.
func ClaimsFromContext(ctx context.Context) (*Claims, bool) {
	claims, ok := ctx.Value(contextKeyClaims).(*Claims)
	return claims, ok
}

// UserIDFromContext returns the authenticated user's ID, if any.
func UserIDFromContext(ctx context.Context) (common.ID, bool) {
	id, ok := ctx.Value(contextKeyUserID).(common.ID)
	return id, ok
}

// RoleFromContext returns the authenticated user's role, if any.
func RoleFromContext(ctx context.Context) (user.Role, bool) {
	role, ok := ctx.Value(contextKeyRole).(user.Role)
	return role, ok
}
