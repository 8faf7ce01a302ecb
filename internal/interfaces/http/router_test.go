package http

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	trequire "github.com/stretchr/testify/require"

	"github.com/relayops/leadtrack/internal/domain/user"
	"github.com/relayops/leadtrack/internal/infrastructure/auth"
	"github.com/relayops/leadtrack/internal/infrastructure/monitoring/logging"
	"github.com/relayops/leadtrack/internal/interfaces/http/handlers"
	"github.com/relayops/leadtrack/internal/interfaces/http/middleware"
	"github.com/relayops/leadtrack/pkg/errors"
)

// stubTokenVerifier resolves fixed tokens to fixed claims.
type stubTokenVerifier struct {
	tokens map[string]*auth.Claims
}

func (s *stubTokenVerifier) VerifyAccessToken(raw string) (*auth.Claims, error) {
	if claims, ok := s.tokens[raw]; ok {
		return claims, nil
	}
	return nil, errors.New(errors.ErrCodeTokenInvalid, "token is invalid")
}

// fullRouterConfig wires every handler. Services are nil; the tests below
// only exercise routing, auth, and RBAC, none of which reach a service.
func fullRouterConfig() RouterConfig {
	logger := logging.NewNopLogger()
	return RouterConfig{
		Auth:        handlers.NewAuthHandler(nil, logger),
		Users:       handlers.NewUserHandler(nil, logger),
		Profiles:    handlers.NewProfileHandler(nil, 0, logger),
		Assignments: handlers.NewAssignmentHandler(nil, logger),
		Targets:     handlers.NewTargetHandler(nil, logger),
		Progress:    handlers.NewProgressHandler(nil, logger),
		Leads:       handlers.NewLeadHandler(nil, logger),
		Reports:     handlers.NewReportHandler(nil, logger),
		Activity:    handlers.NewActivityHandler(nil, logger),
		Health:      handlers.NewHealthHandler("test", nil),
		Logger:      logger,
	}
}

func authedRouterConfig() RouterConfig {
	cfg := fullRouterConfig()
	verifier := &stubTokenVerifier{tokens: map[string]*auth.Claims{
		"manager-token": {UserID: "u-mgr", Username: "boss", Role: user.RoleManager},
		"leadgen-token": {UserID: "u-lg", Username: "scout", Role: user.RoleLeadGen},
		"sales-token":   {UserID: "u-sales", Username: "closer", Role: user.RoleSales},
	}}
	cfg.AuthMiddleware = auth.NewMiddleware(verifier, cfg.Logger,
		auth.WithSkipPaths("/api/v1/auth/login", "/api/v1/auth/refresh"))
	cfg.Enforcer = auth.NewEnforcer(nil)
	return cfg
}

func walkRoutes(t *testing.T, h http.Handler) map[string]bool {
	t.Helper()
	routes, ok := h.(chi.Routes)
	trequire.True(t, ok)

	got := make(map[string]bool)
	err := chi.Walk(routes, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		if len(route) > 1 {
			route = strings.TrimSuffix(route, "/")
		}
		got[method+" "+route] = true
		return nil
	})
	trequire.NoError(t, err)
	return got
}

func TestNewRouter_AllRoutesRegistered(t *testing.T) {
	got := walkRoutes(t, NewRouter(fullRouterConfig()))

	want := []string{
		"GET /healthz",
		"GET /readyz",

		"POST /api/v1/auth/login",
		"POST /api/v1/auth/refresh",
		"POST /api/v1/auth/logout",

		"POST /api/v1/users",
		"GET /api/v1/users",
		"GET /api/v1/users/{userID}",
		"PUT /api/v1/users/{userID}",
		"DELETE /api/v1/users/{userID}",
		"PUT /api/v1/users/{userID}/password",

		"POST /api/v1/profiles",
		"GET /api/v1/profiles",
		"GET /api/v1/profiles/{profileID}",
		"PUT /api/v1/profiles/{profileID}",
		"DELETE /api/v1/profiles/{profileID}",
		"POST /api/v1/profiles/{profileID}/archive",
		"POST /api/v1/profiles/{profileID}/unarchive",
		"POST /api/v1/profiles/{profileID}/resume",
		"GET /api/v1/profiles/{profileID}/resume",
		"DELETE /api/v1/profiles/{profileID}/resume",

		"POST /api/v1/assignments/leadgen",
		"GET /api/v1/assignments/leadgen",
		"GET /api/v1/assignments/leadgen/by-user/{userID}",
		"DELETE /api/v1/assignments/leadgen/{assignmentID}",
		"POST /api/v1/assignments/sales",
		"GET /api/v1/assignments/sales",
		"DELETE /api/v1/assignments/sales/{assignmentID}",

		"POST /api/v1/targets",
		"GET /api/v1/targets",
		"GET /api/v1/targets/{targetID}",
		"PUT /api/v1/targets/{targetID}",
		"DELETE /api/v1/targets/{targetID}",

		"POST /api/v1/progress",
		"GET /api/v1/progress",
		"GET /api/v1/progress/{progressID}",
		"PUT /api/v1/progress/{progressID}",
		"DELETE /api/v1/progress/{progressID}",

		"POST /api/v1/leads",
		"GET /api/v1/leads",
		"GET /api/v1/leads/{leadID}",
		"PUT /api/v1/leads/{leadID}",
		"PUT /api/v1/leads/{leadID}/status",
		"DELETE /api/v1/leads/{leadID}",

		"POST /api/v1/reports/weekly",
		"POST /api/v1/reports/daily",
		"GET /api/v1/reports",
		"GET /api/v1/reports/{reportID}",
		"GET /api/v1/reports/{reportID}/download",
		"DELETE /api/v1/reports/{reportID}",

		"GET /api/v1/activity",
	}
	for _, route := range want {
		assert.True(t, got[route], "route %s should be registered", route)
	}
}

func TestNewRouter_HealthEndpointsSkipAuth(t *testing.T) {
	router := NewRouter(authedRouterConfig())

	for _, path := range []string{"/healthz", "/readyz"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, "%s must respond without a token", path)
	}
}

func TestNewRouter_APIRequiresToken(t *testing.T) {
	router := NewRouter(authedRouterConfig())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Bearer", rec.Header().Get("WWW-Authenticate"))
}

func TestNewRouter_LoginSkipsAuth(t *testing.T) {
	router := NewRouter(authedRouterConfig())

	// A malformed body proves the request reached the handler: the auth
	// middleware would have answered 401, the handler answers 400.
	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader("not json"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNewRouter_RBACBlocksLeadGenFromUserAdmin(t *testing.T) {
	router := NewRouter(authedRouterConfig())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/users", strings.NewReader("{}"))
	req.Header.Set("Authorization", "Bearer leadgen-token")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestNewRouter_RBACAdmitsManager(t *testing.T) {
	router := NewRouter(authedRouterConfig())

	// The invalid body stops the handler after RBAC passes, so the test
	// never needs a live directory service.
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users", strings.NewReader("not json"))
	req.Header.Set("Authorization", "Bearer manager-token")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestNewRouter_RBACBlocksSalesFromReports(t *testing.T) {
	router := NewRouter(authedRouterConfig())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/reports/weekly", strings.NewReader("{}"))
	req.Header.Set("Authorization", "Bearer sales-token")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestNewRouter_RateLimitApplies(t *testing.T) {
	cfg := authedRouterConfig()
	limiter := middleware.NewTokenBucketLimiter(0.001, 1, 0)
	defer limiter.Stop()
	cfg.RateLimiter = limiter
	router := NewRouter(cfg)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader("not json"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("X-RateLimit-Limit"))

	req = httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader("not json"))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestNewRouter_RateLimitSkipsProbes(t *testing.T) {
	cfg := authedRouterConfig()
	limiter := middleware.NewTokenBucketLimiter(0.001, 1, 0)
	defer limiter.Stop()
	cfg.RateLimiter = limiter
	router := NewRouter(cfg)

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code)
	}
}

func TestNewRouter_CORSPreflightShortCircuits(t *testing.T) {
	cfg := authedRouterConfig()
	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = []string{"https://app.example.com"}
	cfg.CORS = &corsCfg
	router := NewRouter(cfg)

	// Preflight carries no bearer token; CORS must answer before auth.
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/profiles", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestNewRouter_NilHandlersNoPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		router := NewRouter(RouterConfig{Logger: logging.NewNopLogger()})
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
	})
}
