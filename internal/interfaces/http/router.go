package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/relayops/leadtrack/internal/infrastructure/auth"
	"github.com/relayops/leadtrack/internal/infrastructure/monitoring/logging"
	"github.com/relayops/leadtrack/internal/infrastructure/monitoring/prometheus"
	"github.com/relayops/leadtrack/internal/interfaces/http/handlers"
	"github.com/relayops/leadtrack/internal/interfaces/http/middleware"
)

// RouterConfig aggregates the handlers and middleware that make up the
// route tree. Nil handlers leave their routes unregistered, which keeps
// partial wiring (tests, stripped-down binaries) possible.
type RouterConfig struct {
	Auth        *handlers.AuthHandler
	Users       *handlers.UserHandler
	Profiles    *handlers.ProfileHandler
	Assignments *handlers.AssignmentHandler
	Targets     *handlers.TargetHandler
	Progress    *handlers.ProgressHandler
	Leads       *handlers.LeadHandler
	Reports     *handlers.ReportHandler
	Activity    *handlers.ActivityHandler
	Health      *handlers.HealthHandler

	AuthMiddleware *auth.Middleware
	Enforcer       auth.Enforcer

	Logger         logging.Logger
	Metrics        *prometheus.AppMetrics
	MetricsHandler http.Handler
	MetricsPath    string // defaults to /metrics

	RateLimiter middleware.RateLimiter
	CORS        *middleware.CORSConfig
}

// NewRouter builds the complete route tree: global middleware, the public
// probe and metrics endpoints, then the authenticated /api/v1 resources.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	if cfg.CORS != nil {
		r.Use(middleware.CORS(*cfg.CORS))
	}
	if cfg.Logger != nil {
		r.Use(middleware.RequestLogging(cfg.Logger, middleware.DefaultLoggingConfig()))
	}
	if cfg.Metrics != nil {
		r.Use(middleware.RequestMetrics(cfg.Metrics))
	}
	if cfg.RateLimiter != nil {
		r.Use(middleware.RateLimit(cfg.RateLimiter, middleware.DefaultRateLimitConfig()))
	}

	if cfg.Health != nil {
		r.Get("/healthz", cfg.Health.Liveness)
		r.Get("/readyz", cfg.Health.Readiness)
	}
	if cfg.MetricsHandler != nil {
		path := cfg.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		r.Handle(path, cfg.MetricsHandler)
	}

	r.Route("/api/v1", func(api chi.Router) {
		if cfg.AuthMiddleware != nil {
			api.Use(cfg.AuthMiddleware.Handler)
		}

		registerAuthRoutes(api, cfg.Auth)
		registerUserRoutes(api, cfg.Users, cfg.Enforcer)
		registerProfileRoutes(api, cfg.Profiles, cfg.Enforcer)
		registerAssignmentRoutes(api, cfg.Assignments, cfg.Enforcer)
		registerTargetRoutes(api, cfg.Targets, cfg.Enforcer)
		registerProgressRoutes(api, cfg.Progress, cfg.Enforcer)
		registerLeadRoutes(api, cfg.Leads, cfg.Enforcer)
		registerReportRoutes(api, cfg.Reports, cfg.Enforcer)
		registerActivityRoutes(api, cfg.Activity, cfg.Enforcer)
	})

	return r
}

// require returns the permission middleware, or a passthrough when no
// enforcer is wired (unit tests exercising bare routes).
func require(e auth.Enforcer, p auth.Permission) func(http.Handler) http.Handler {
	if e == nil {
		return passthrough
	}
	return e.RequirePermission(p)
}

func passthrough(next http.Handler) http.Handler { return next }

// registerAuthRoutes mounts /auth. Login and refresh sit on the auth
// middleware's skip list; logout runs authenticated.
func registerAuthRoutes(r chi.Router, h *handlers.AuthHandler) {
	if h == nil {
		return
	}
	r.Route("/auth", func(ar chi.Router) {
		ar.Post("/login", h.Login)
		ar.Post("/refresh", h.Refresh)
		ar.Post("/logout", h.Logout)
	})
}

// registerUserRoutes mounts /users. Password change carries no route
// permission: anyone may change their own, and the service enforces
// self-or-manager.
func registerUserRoutes(r chi.Router, h *handlers.UserHandler, e auth.Enforcer) {
	if h == nil {
		return
	}
	r.Route("/users", func(ur chi.Router) {
		ur.With(require(e, auth.PermUserWrite)).Post("/", h.Create)
		ur.With(require(e, auth.PermUserRead)).Get("/", h.List)

		ur.Route("/{userID}", func(item chi.Router) {
			item.With(require(e, auth.PermUserRead)).Get("/", h.Get)
			item.With(require(e, auth.PermUserWrite)).Put("/", h.Update)
			item.With(require(e, auth.PermUserWrite)).Delete("/", h.Delete)
			item.Put("/password", h.ChangePassword)
		})
	})
}

// registerProfileRoutes mounts /profiles and the per-profile resume
// subresource.
func registerProfileRoutes(r chi.Router, h *handlers.ProfileHandler, e auth.Enforcer) {
	if h == nil {
		return
	}
	r.Route("/profiles", func(pr chi.Router) {
		pr.With(require(e, auth.PermProfileWrite)).Post("/", h.Create)
		pr.With(require(e, auth.PermProfileRead)).Get("/", h.List)

		pr.Route("/{profileID}", func(item chi.Router) {
			item.With(require(e, auth.PermProfileRead)).Get("/", h.Get)
			item.With(require(e, auth.PermProfileWrite)).Put("/", h.Update)
			item.With(require(e, auth.PermProfileWrite)).Delete("/", h.Delete)
			item.With(require(e, auth.PermProfileWrite)).Post("/archive", h.Archive)
			item.With(require(e, auth.PermProfileWrite)).Post("/unarchive", h.Unarchive)

			item.With(require(e, auth.PermResumeUpload)).Post("/resume", h.UploadResume)
			item.With(require(e, auth.PermResumeRead)).Get("/resume", h.DownloadResume)
			item.With(require(e, auth.PermResumeUpload)).Delete("/resume", h.DeleteResume)
		})
	})
}

// registerAssignmentRoutes mounts /assignments/leadgen and
// /assignments/sales.
func registerAssignmentRoutes(r chi.Router, h *handlers.AssignmentHandler, e auth.Enforcer) {
	if h == nil {
		return
	}
	r.Route("/assignments", func(ar chi.Router) {
		ar.Route("/leadgen", func(lg chi.Router) {
			lg.With(require(e, auth.PermAssignmentWrite)).Post("/", h.AssignLeadGen)
			lg.With(require(e, auth.PermAssignmentRead)).Get("/", h.ListLeadGen)
			lg.With(require(e, auth.PermAssignmentRead)).Get("/by-user/{userID}", h.GetLeadGenByUser)
			lg.With(require(e, auth.PermAssignmentWrite)).Delete("/{assignmentID}", h.UnassignLeadGen)
		})
		ar.Route("/sales", func(sl chi.Router) {
			sl.With(require(e, auth.PermAssignmentWrite)).Post("/", h.AssignSales)
			sl.With(require(e, auth.PermAssignmentRead)).Get("/", h.ListSales)
			sl.With(require(e, auth.PermAssignmentWrite)).Delete("/{assignmentID}", h.UnassignSales)
		})
	})
}

// registerTargetRoutes mounts /targets.
func registerTargetRoutes(r chi.Router, h *handlers.TargetHandler, e auth.Enforcer) {
	if h == nil {
		return
	}
	r.Route("/targets", func(tr chi.Router) {
		tr.With(require(e, auth.PermTargetWrite)).Post("/", h.Set)
		tr.With(require(e, auth.PermTargetRead)).Get("/", h.List)

		tr.Route("/{targetID}", func(item chi.Router) {
			item.With(require(e, auth.PermTargetRead)).Get("/", h.Get)
			item.With(require(e, auth.PermTargetWrite)).Put("/", h.Revise)
			item.With(require(e, auth.PermTargetWrite)).Delete("/", h.Delete)
		})
	})
}

// registerProgressRoutes mounts /progress.
func registerProgressRoutes(r chi.Router, h *handlers.ProgressHandler, e auth.Enforcer) {
	if h == nil {
		return
	}
	r.Route("/progress", func(pr chi.Router) {
		pr.With(require(e, auth.PermProgressWrite)).Post("/", h.Record)
		pr.With(require(e, auth.PermProgressRead)).Get("/", h.List)

		pr.Route("/{progressID}", func(item chi.Router) {
			item.With(require(e, auth.PermProgressRead)).Get("/", h.Get)
			item.With(require(e, auth.PermProgressWrite)).Put("/", h.Revise)
			item.With(require(e, auth.PermProgressWrite)).Delete("/", h.Delete)
		})
	})
}

// registerLeadRoutes mounts /leads. Status changes have their own endpoint
// so transitions stay validated.
func registerLeadRoutes(r chi.Router, h *handlers.LeadHandler, e auth.Enforcer) {
	if h == nil {
		return
	}
	r.Route("/leads", func(lr chi.Router) {
		lr.With(require(e, auth.PermLeadWrite)).Post("/", h.Record)
		lr.With(require(e, auth.PermLeadRead)).Get("/", h.List)

		lr.Route("/{leadID}", func(item chi.Router) {
			item.With(require(e, auth.PermLeadRead)).Get("/", h.Get)
			item.With(require(e, auth.PermLeadWrite)).Put("/", h.Update)
			item.With(require(e, auth.PermLeadWrite)).Put("/status", h.ChangeStatus)
			item.With(require(e, auth.PermLeadWrite)).Delete("/", h.Delete)
		})
	})
}

// registerReportRoutes mounts /reports. The whole surface is manager-only
// through the report permissions.
func registerReportRoutes(r chi.Router, h *handlers.ReportHandler, e auth.Enforcer) {
	if h == nil {
		return
	}
	r.Route("/reports", func(rr chi.Router) {
		rr.With(require(e, auth.PermReportGenerate)).Post("/weekly", h.GenerateWeekly)
		rr.With(require(e, auth.PermReportGenerate)).Post("/daily", h.GenerateDaily)
		rr.With(require(e, auth.PermReportRead)).Get("/", h.List)

		rr.Route("/{reportID}", func(item chi.Router) {
			item.With(require(e, auth.PermReportRead)).Get("/", h.Get)
			item.With(require(e, auth.PermReportRead)).Get("/download", h.Download)
			item.With(require(e, auth.PermReportGenerate)).Delete("/", h.Delete)
		})
	})
}

// registerActivityRoutes mounts /activity.
func registerActivityRoutes(r chi.Router, h *handlers.ActivityHandler, e auth.Enforcer) {
	if h == nil {
		return
	}
	r.With(require(e, auth.PermActivityRead)).Get("/activity", h.List)
}
