package rest

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/frahmantamala/gatepass/internal/auditlog"
	"github.com/frahmantamala/gatepass/internal/auth"
	"github.com/frahmantamala/gatepass/internal/calendar"
	"github.com/frahmantamala/gatepass/internal/gate"
	"github.com/frahmantamala/gatepass/internal/notification"
	"github.com/frahmantamala/gatepass/internal/proxy"
	"github.com/frahmantamala/gatepass/internal/request"
	"github.com/frahmantamala/gatepass/internal/setting"
	"github.com/frahmantamala/gatepass/internal/transport/middleware"
	"github.com/frahmantamala/gatepass/internal/transport/swagger"
	"github.com/frahmantamala/gatepass/internal/user"
	"github.com/frahmantamala/gatepass/internal/workflow"
	"github.com/go-chi/chi"
)

// Handlers groups everything the router mounts. Nil optional members are skipped.
type Handlers struct {
	Auth         *auth.Handler
	User         *user.Handler
	Request      *request.Handler
	Gate         *gate.Handler
	Notification *notification.Handler
	Proxy        *proxy.Handler
	Setting      *setting.Handler
	Calendar     *calendar.Handler
	AuditLog     *auditlog.Handler

	Maintenance middleware.MaintenanceFlag
	Limiter     middleware.Limiter
	Metrics     http.Handler
	MetricsPath string
	Observer    middleware.HTTPObserver
	Redis       Pinger
	OpenAPIPath string
}

const (
	loginLimit  = 10
	loginWindow = time.Minute
)

func RegisterAllRoutes(router *chi.Mux, db *sql.DB, h Handlers, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db, h.Redis)

	router.Use(middleware.CORS)
	router.Use(middleware.RequestID)
	router.Use(middleware.RecoveryMiddleware(logger))
	if h.Observer != nil {
		router.Use(middleware.Instrument(h.Observer))
	}
	router.Use(middleware.LoggingMiddleware(logger))

	openapi := h.OpenAPIPath
	if openapi == "" {
		openapi = "./api/openapi.yml"
	}
	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, openapi)
	})
	router.Handle("/swagger/*", swagger.Handler())
	router.Get("/health", healthHandler.healthCheckHandler)
	router.Get("/ping", healthHandler.pingHandler)
	if h.Metrics != nil {
		path := h.MetricsPath
		if path == "" {
			path = "/metrics"
		}
		router.Handle(path, h.Metrics)
	}

	admin := string(workflow.RoleAdmin)
	staffRoles := []string{
		string(workflow.RoleHOD), string(workflow.RoleWarden), string(workflow.RoleGatekeeper),
		string(workflow.RoleAdmin), string(workflow.RolePrincipal), string(workflow.RoleStaff),
	}

	router.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(ar chi.Router) {
			ar.With(middleware.RateLimit(h.Limiter, loginLimit, loginWindow, logger)).Post("/login", h.Auth.Login)
			ar.Post("/refresh", h.Auth.RefreshToken)
			ar.Post("/logout", h.Auth.Logout)
		})

		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.AuthMiddleware)
			if h.Maintenance != nil {
				pr.Use(middleware.Maintenance(h.Maintenance, logger))
			}

			pr.Get("/users/me", h.User.GetCurrentUser)
			pr.Group(func(adm chi.Router) {
				adm.Use(h.Auth.RequireRoles(admin))
				adm.Post("/users", h.User.Create)
				adm.Patch("/users/{id}/status", h.User.UpdateStatus)
				adm.Patch("/users/{id}/trust-score", h.User.UpdateTrustScore)
			})

			pr.Route("/requests", func(rr chi.Router) {
				rr.Post("/", h.Request.Create)
				rr.Get("/", h.Request.List)
				rr.Get("/{id}", h.Request.Get)
				rr.Patch("/{id}/approve", h.Request.Approve)
				rr.Patch("/{id}/reject", h.Request.Reject)
				rr.Patch("/{id}/cancel", h.Request.Cancel)
				rr.Post("/{id}/attachment", h.Request.Attach)
				rr.Get("/{id}/logs", h.AuditLog.List)
			})
			pr.Post("/approvals", h.Request.ApproveByBody)
			pr.Get("/dashboard", h.Request.Dashboard)

			pr.With(h.Auth.RequireRoles(string(workflow.RoleGatekeeper))).Post("/gate/scan", h.Gate.Scan)

			pr.Get("/notifications", h.Notification.List)
			pr.Patch("/notifications/{id}/read", h.Notification.MarkRead)
			pr.Delete("/notifications/{id}", h.Notification.Delete)
			pr.Post("/push-subscriptions", h.Notification.Subscribe)

			pr.Route("/proxy-settings", func(xr chi.Router) {
				// proxies read the delegations they hold, only HODs and admins change them
				xr.With(h.Auth.RequireRoles(staffRoles...)).Get("/", h.Proxy.List)
				xr.Group(func(wr chi.Router) {
					wr.Use(h.Auth.RequireRoles(string(workflow.RoleHOD), admin))
					wr.Post("/", h.Proxy.Create)
					wr.Delete("/{id}", h.Proxy.Deactivate)
				})
			})

			pr.With(h.Auth.RequireRoles(staffRoles...)).Get("/settings", h.Setting.List)
			pr.With(h.Auth.RequireRoles(admin)).Put("/settings/{key}", h.Setting.Update)

			pr.Get("/calendar-events", h.Calendar.List)
			pr.Post("/calendar-events", h.Calendar.Create)
			pr.Delete("/calendar-events/{id}", h.Calendar.Delete)

			pr.With(h.Auth.RequireRoles(admin)).Delete("/logs", h.AuditLog.Purge)
		})
	})
}
