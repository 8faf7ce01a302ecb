package auth

import (
	"context"
	"net/http"

	"github.com/relayops/leadtrack/internal/domain/user"
	"github.com/relayops/leadtrack/pkg/errors"
)

// Permission is a fine-grained capability checked at the route level.
// Row-level ownership (a lead-gen member touching only their own progress)
// is the application services' job; permissions gate the verb, not the row.
type Permission string

const (
	PermUserRead  Permission = "user:read"
	PermUserWrite Permission = "user:write"

	PermProfileRead  Permission = "profile:read"
	PermProfileWrite Permission = "profile:write"
	PermResumeUpload Permission = "resume:upload"
	PermResumeRead   Permission = "resume:read"

	PermAssignmentRead  Permission = "assignment:read"
	PermAssignmentWrite Permission = "assignment:write"

	PermTargetRead  Permission = "target:read"
	PermTargetWrite Permission = "target:write"

	PermProgressRead  Permission = "progress:read"
	PermProgressWrite Permission = "progress:write"

	PermLeadRead  Permission = "lead:read"
	PermLeadWrite Permission = "lead:write"

	PermReportGenerate Permission = "report:generate"
	PermReportRead     Permission = "report:read"

	PermActivityRead Permission = "activity:read"
)

var (
	ErrNoAuthContext = errors.Unauthorized("no authentication context")
	ErrAccessDenied  = errors.Forbidden("access denied")
)

// RolePermissionMapping maps each role to its permissions.
type RolePermissionMapping map[user.Role][]Permission

// DefaultRolePermissionMapping returns the shipped mapping. Managers hold
// every permission; lead-gen members work profiles and progress; sales
// members work profiles and leads.
func DefaultRolePermissionMapping() RolePermissionMapping {
	return RolePermissionMapping{
		user.RoleManager: {
			PermUserRead, PermUserWrite,
			PermProfileRead, PermProfileWrite, PermResumeUpload, PermResumeRead,
			PermAssignmentRead, PermAssignmentWrite,
			PermTargetRead, PermTargetWrite,
			PermProgressRead, PermProgressWrite,
			PermLeadRead, PermLeadWrite,
			PermReportGenerate, PermReportRead,
			PermActivityRead,
		},
		user.RoleLeadGen: {
			PermProfileRead, PermResumeRead,
			PermAssignmentRead,
			PermTargetRead,
			PermProgressRead, PermProgressWrite,
		},
		user.RoleSales: {
			PermProfileRead, PermResumeRead,
			PermAssignmentRead,
			PermLeadRead, PermLeadWrite,
		},
	}
}

// Enforcer answers permission questions about the authenticated caller and
// builds the per-route middleware.
type Enforcer interface {
	HasPermission(ctx context.Context, permission Permission) bool
	HasAnyPermission(ctx context.Context, permissions ...Permission) bool
	HasRole(ctx context.Context, role user.Role) bool
	GetPermissions(ctx context.Context) []Permission
	EnforcePermission(ctx context.Context, permission Permission) error

	RequirePermission(permission Permission) func(http.Handler) http.Handler
	RequireAnyPermission(permissions ...Permission) func(http.Handler) http.Handler
	RequireRole(role user.Role) func(http.Handler) http.Handler
}

type enforcer struct {
	rolePermissions RolePermissionMapping
}

// NewEnforcer builds an Enforcer; a nil mapping selects the default.
func NewEnforcer(mapping RolePermissionMapping) Enforcer {
	if mapping == nil {
		mapping = DefaultRolePermissionMapping()
	}
	return &enforcer{rolePermissions: mapping}
}

func (e *enforcer) HasPermission(ctx context.Context, permission Permission) bool {
	role, ok := RoleFromContext(ctx)
	if !ok {
		return false
	}
	for _, p := range e.rolePermissions[role] {
		if p == permission {
			return true
		}
	}
	return false
}

func (e *enforcer) HasAnyPermission(ctx context.Context, permissions ...Permission) bool {
	for _, p := range permissions {
		if e.HasPermission(ctx, p) {
			return true
		}
	}
	return false
}

func (e *enforcer) HasRole(ctx context.Context, role user.Role) bool {
	current, ok := RoleFromContext(ctx)
	return ok && current == role
}

func (e *enforcer) GetPermissions(ctx context.Context) []Permission {
	role, ok := RoleFromContext(ctx)
	if !ok {
		return nil
	}
	perms := e.rolePermissions[role]
	out := make([]Permission, len(perms))
	copy(out, perms)
	return out
}

func (e *enforcer) EnforcePermission(ctx context.Context, permission Permission) error {
	if _, ok := RoleFromContext(ctx); !ok {
		return ErrNoAuthContext
	}
	if !e.HasPermission(ctx, permission) {
		return errors.Forbidden("missing permission " + string(permission))
	}
	return nil
}

func (e *enforcer) RequirePermission(permission Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if err := e.EnforcePermission(r.Context(), permission); err != nil {
				writeAuthError(w, err)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (e *enforcer) RequireAnyPermission(permissions ...Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := RoleFromContext(r.Context()); !ok {
				writeAuthError(w, ErrNoAuthContext)
				return
			}
			if !e.HasAnyPermission(r.Context(), permissions...) {
				writeAuthError(w, ErrAccessDenied)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (e *enforcer) RequireRole(role user.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := RoleFromContext(r.Context()); !ok {
				writeAuthError(w, ErrNoAuthContext)
				return
			}
			if !e.HasRole(r.Context(), role) {
				writeAuthError(w, ErrAccessDenied)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
