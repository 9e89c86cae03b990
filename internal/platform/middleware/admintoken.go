package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"siscof/pkg/requestcontext"
)

// AdminTokenHeader authenticates operational endpoints such as the audit
// CSV export.
const AdminTokenHeader = "X-Admin-Token"

// RequireAdminToken gates a route behind a shared operator token. The
// comparison is constant time. An empty configured token disables the
// route entirely rather than leaving it open.
func RequireAdminToken(token string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if token == "" {
				logger.WarnContext(ctx, "admin endpoint disabled - no token configured",
					"request_id", requestcontext.RequestID(ctx),
				)
				http.NotFound(w, r)
				return
			}
			provided := r.Header.Get(AdminTokenHeader)
			if subtle.ConstantTimeCompare([]byte(provided), []byte(token)) != 1 {
				logger.WarnContext(ctx, "admin endpoint rejected - bad token",
					"request_id", requestcontext.RequestID(ctx),
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				_, _ = w.Write([]byte(`{"error":"forbidden"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
