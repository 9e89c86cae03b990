package httptransport

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"siscof/internal/platform/middleware"
)

// RouterConfig carries everything the router needs. Handlers stay thin and
// delegate to domain services; business logic never lives here.
type RouterConfig struct {
	Logger       *slog.Logger
	JWTValidator middleware.JWTValidator
	AdminToken   string

	Units   *UnitHandler
	Roles   *RoleHandler
	Access  *AccessHandler
	Scopes  *ScopeHandler
	Members *MemberHandler
	Audit   *AuditHandler
}

// NewRouter wires all endpoints. End-user routes require a bearer token;
// the audit routes require the operator token instead.
func NewRouter(cfg RouterConfig) http.Handler {
	root := chi.NewRouter()
	root.Use(middleware.RequestID)
	root.Use(middleware.RequestTime)

	root.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	root.Handle("/metrics", promhttp.Handler())

	root.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(cfg.JWTValidator, cfg.Logger))
		cfg.Units.Register(r)
		cfg.Roles.Register(r)
		cfg.Access.Register(r)
		cfg.Scopes.Register(r)
		cfg.Members.Register(r)
	})

	root.Group(func(r chi.Router) {
		r.Use(middleware.RequireAdminToken(cfg.AdminToken, cfg.Logger))
		cfg.Audit.Register(r)
	})

	return root
}
