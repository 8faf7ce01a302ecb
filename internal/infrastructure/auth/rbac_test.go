package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relayops/leadtrack/internal/domain/user"
)

func ctxWithRole(role user.Role) context.Context {
	return ContextWithClaims(context.Background(), &Claims{
		UserID:   "user-1",
		Username: "ada",
		Role:     role,
	})
}

func TestDefaultRolePermissionMapping(t *testing.T) {
	e := NewEnforcer(nil)

	tests := []struct {
		name       string
		role       user.Role
		permission Permission
		want       bool
	}{
		{"manager writes users", user.RoleManager, PermUserWrite, true},
		{"manager writes assignments", user.RoleManager, PermAssignmentWrite, true},
		{"manager generates reports", user.RoleManager, PermReportGenerate, true},
		{"manager reads activity", user.RoleManager, PermActivityRead, true},
		{"lead-gen records progress", user.RoleLeadGen, PermProgressWrite, true},
		{"lead-gen reads targets", user.RoleLeadGen, PermTargetRead, true},
		{"lead-gen cannot write leads", user.RoleLeadGen, PermLeadWrite, false},
		{"lead-gen cannot write users", user.RoleLeadGen, PermUserWrite, false},
		{"lead-gen cannot upload resumes", user.RoleLeadGen, PermResumeUpload, false},
		{"sales records leads", user.RoleSales, PermLeadWrite, true},
		{"sales reads profiles", user.RoleSales, PermProfileRead, true},
		{"sales cannot record progress", user.RoleSales, PermProgressWrite, false},
		{"sales cannot generate reports", user.RoleSales, PermReportGenerate, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, e.HasPermission(ctxWithRole(tt.role), tt.permission))
		})
	}
}

func TestHasPermission_NoContext(t *testing.T) {
	e := NewEnforcer(nil)
	assert.False(t, e.HasPermission(context.Background(), PermProfileRead))
}

func TestHasAnyPermission(t *testing.T) {
	e := NewEnforcer(nil)

	assert.True(t, e.HasAnyPermission(ctxWithRole(user.RoleSales), PermProgressWrite, PermLeadWrite))
	assert.False(t, e.HasAnyPermission(ctxWithRole(user.RoleLeadGen), PermLeadWrite, PermUserWrite))
	assert.False(t, e.HasAnyPermission(ctxWithRole(user.RoleManager)))
}

func TestHasRole(t *testing.T) {
	e := NewEnforcer(nil)

	assert.True(t, e.HasRole(ctxWithRole(user.RoleManager), user.RoleManager))
	assert.False(t, e.HasRole(ctxWithRole(user.RoleSales), user.RoleManager))
	assert.False(t, e.HasRole(context.Background(), user.RoleManager))
}

func TestGetPermissions(t *testing.T) {
	e := NewEnforcer(nil)

	perms := e.GetPermissions(ctxWithRole(user.RoleSales))
	assert.Len(t, perms, len(DefaultRolePermissionMapping()[user.RoleSales]))

	// The returned slice is a copy; mutating it must not poison the mapping.
	perms[0] = Permission("tampered")
	assert.NotContains(t, e.GetPermissions(ctxWithRole(user.RoleSales)), Permission("tampered"))

	assert.Nil(t, e.GetPermissions(context.Background()))
}

func TestEnforcePermission(t *testing.T) {
	e := NewEnforcer(nil)

	assert.NoError(t, e.EnforcePermission(ctxWithRole(user.RoleManager), PermUserWrite))

	err := e.EnforcePermission(context.Background(), PermUserWrite)
	assert.ErrorIs(t, err, ErrNoAuthContext)

	err = e.EnforcePermission(ctxWithRole(user.RoleSales), PermUserWrite)
	require.Error(t, err)
	assert.Contains(t, err.Error(), string(PermUserWrite))
}

func TestEnforcerCustomMapping(t *testing.T) {
	e := NewEnforcer(RolePermissionMapping{
		user.RoleSales: {PermReportRead},
	})

	assert.True(t, e.HasPermission(ctxWithRole(user.RoleSales), PermReportRead))
	assert.False(t, e.HasPermission(ctxWithRole(user.RoleManager), PermReportRead))
}

func requireMiddlewareStatus(t *testing.T, mw func(http.Handler) http.Handler, ctx context.Context, wantStatus int) {
	t.Helper()
	called := false
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/users", nil).WithContext(ctx)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, wantStatus, w.Code)
	assert.Equal(t, wantStatus == http.StatusOK, called)
	if wantStatus != http.StatusOK {
		assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	}
}

func TestRequirePermission(t *testing.T) {
	e := NewEnforcer(nil)

	requireMiddlewareStatus(t, e.RequirePermission(PermUserWrite), ctxWithRole(user.RoleManager), http.StatusOK)
	requireMiddlewareStatus(t, e.RequirePermission(PermUserWrite), ctxWithRole(user.RoleLeadGen), http.StatusForbidden)
	requireMiddlewareStatus(t, e.RequirePermission(PermUserWrite), context.Background(), http.StatusUnauthorized)
}

func TestRequireAnyPermission(t *testing.T) {
	e := NewEnforcer(nil)

	mw := e.RequireAnyPermission(PermProgressWrite, PermLeadWrite)
	requireMiddlewareStatus(t, mw, ctxWithRole(user.RoleSales), http.StatusOK)
	requireMiddlewareStatus(t, mw, ctxWithRole(user.RoleLeadGen), http.StatusOK)
	requireMiddlewareStatus(t, mw, context.Background(), http.StatusUnauthorized)

	managerOnly := e.RequireAnyPermission(PermUserWrite)
	requireMiddlewareStatus(t, managerOnly, ctxWithRole(user.RoleSales), http.StatusForbidden)
}

func TestRequireRole(t *testing.T) {
	e := NewEnforcer(nil)

	mw := e.RequireRole(user.RoleManager)
	requireMiddlewareStatus(t, mw, ctxWithRole(user.RoleManager), http.StatusOK)
	requireMiddlewareStatus(t, mw, ctxWithRole(user.RoleSales), http.StatusForbidden)
	requireMiddlewareStatus(t, mw, context.Background(), http.StatusUnauthorized)
}
