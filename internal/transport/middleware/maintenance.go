package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/frahmantamala/gatepass/internal"
	"github.com/frahmantamala/gatepass/internal/transport"
	"github.com/frahmantamala/gatepass/internal/workflow"
)

type MaintenanceFlag interface {
	MaintenanceMode(ctx context.Context) bool
}

// Maintenance answers 503 to everyone but admins while the flag is set. It
// must run after authentication so the role is known.
func Maintenance(flag MaintenanceFlag, logger *slog.Logger) func(http.Handler) http.Handler {
	base := transport.NewBaseHandler(logger)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if flag.MaintenanceMode(r.Context()) && workflow.Role(internal.RoleFromContext(r.Context())) != workflow.RoleAdmin {
				w.Header().Set("Retry-After", "300")
				base.HandleServiceError(w, internal.ErrMaintenance)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
