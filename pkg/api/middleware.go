package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/oficina-cloud/diagnose/pkg/kit"
)

// requestContext tags every HTTP request with a request ID plus the tenancy
// headers the workshop frontends send, and echoes the ID back so support can
// correlate a customer report with the server logs.
func requestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}

		ctx := kit.WithRequestID(r.Context(), id)
		if tenant := r.Header.Get("X-Tenant-ID"); tenant != "" {
			ctx = kit.WithTenantID(ctx, tenant)
		}
		if workshop := r.Header.Get("X-Workshop"); workshop != "" {
			ctx = kit.WithWorkshop(ctx, workshop)
		}

		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// audit logs one line per endpoint call with the identity context, whichever
// transport the call arrived on.
func audit(logger *slog.Logger, action string) kit.Middleware {
	return func(next kit.Endpoint) kit.Endpoint {
		return func(ctx context.Context, request any) (any, error) {
			resp, err := next(ctx, request)
			logger.Info("endpoint call",
				"action", action,
				"transport", kit.GetTransport(ctx),
				"request_id", kit.GetRequestID(ctx),
				"tenant", kit.GetTenantID(ctx),
				"workshop", kit.GetWorkshop(ctx),
				"ok", err == nil,
			)
			return resp, err
		}
	}
}
