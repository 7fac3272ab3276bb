package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/pearlpos/api/internal/platform/auth"
	"github.com/pearlpos/api/internal/platform/httpx"
)

// RouteRegistrar registers a set of routes against the provided router.
type RouteRegistrar func(r chi.Router)

type routerConfig struct {
	basePath    string
	middlewares []func(http.Handler) http.Handler
	sessions    auth.Verifier
	health      *HealthHandlers

	menu      RouteRegistrar
	orders    RouteRegistrar
	inventory RouteRegistrar
	reports   RouteRegistrar
	employees RouteRegistrar
	sessionsR RouteRegistrar
}

// Option customises the router configuration before construction.
type Option func(*routerConfig)

const (
	defaultAPIPrefix  = "/api/v1"
	defaultTimeout    = 60 * time.Second
	errorNotFoundCode = "route_not_found"
)

// NewRouter constructs the chi router with shared middleware and the
// register-facing and manager-facing route groups.
func NewRouter(opts ...Option) chi.Router {
	cfg := routerConfig{
		basePath: defaultAPIPrefix,
		middlewares: []func(http.Handler) http.Handler{
			middleware.RequestID,
			middleware.RealIP,
			middleware.Timeout(defaultTimeout),
		},
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	r := chi.NewRouter()

	if cfg.health == nil {
		cfg.health = NewHealthHandlers(nil)
	}

	for _, mw := range cfg.middlewares {
		if mw != nil {
			r.Use(mw)
		}
	}

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		httpx.WriteError(req.Context(), w, httpx.NewError(errorNotFoundCode, fmt.Sprintf("no route for %s", req.URL.Path), http.StatusNotFound))
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		httpx.WriteError(req.Context(), w, httpx.NewError("method_not_allowed", fmt.Sprintf("method %s not allowed on %s", req.Method, req.URL.Path), http.StatusMethodNotAllowed))
	})

	r.Get("/healthz", cfg.health.Healthz)
	r.Get("/readyz", cfg.health.Readyz)

	requireCashier := requireRole(cfg.sessions, auth.RoleCashier)
	requireManager := requireRole(cfg.sessions, auth.RoleManager)

	r.Route(cfg.basePath, func(api chi.Router) {
		mount := func(path string, registrar RouteRegistrar, name string, groupMW func(http.Handler) http.Handler) {
			api.Route(path, func(group chi.Router) {
				if groupMW != nil {
					group.Use(groupMW)
				}
				if registrar != nil {
					registrar(group)
					return
				}
				registerNotImplemented(group, name)
			})
		}

		// Sign-in is the only unauthenticated group.
		mount("/sessions", cfg.sessionsR, "sessions", nil)
		mount("/menu", cfg.menu, "menu", requireCashier)
		mount("/orders", cfg.orders, "orders", requireCashier)
		mount("/inventory", cfg.inventory, "inventory", requireCashier)
		mount("/reports", cfg.reports, "reports", requireManager)
		mount("/employees", cfg.employees, "employees", requireManager)
	})

	return r
}

func requireRole(sessions auth.Verifier, role string) func(http.Handler) http.Handler {
	if sessions == nil {
		return nil
	}
	return auth.RequireSession(sessions, role)
}

// WithMiddlewares appends additional global middleware to the router.
func WithMiddlewares(mw ...func(http.Handler) http.Handler) Option {
	return func(cfg *routerConfig) {
		cfg.middlewares = append(cfg.middlewares, mw...)
	}
}

// WithBasePath overrides the default /api/v1 prefix.
func WithBasePath(path string) Option {
	return func(cfg *routerConfig) {
		if path != "" {
			cfg.basePath = path
		}
	}
}

// WithSessionVerifier enables session enforcement on the protected groups.
// Without it every group is mounted unauthenticated, which is only suitable
// for tests.
func WithSessionVerifier(verifier auth.Verifier) Option {
	return func(cfg *routerConfig) {
		cfg.sessions = verifier
	}
}

// WithHealthHandlers overrides the default health endpoints.
func WithHealthHandlers(h *HealthHandlers) Option {
	return func(cfg *routerConfig) {
		cfg.health = h
	}
}

// WithMenuRoutes mounts the catalog endpoints.
func WithMenuRoutes(registrar RouteRegistrar) Option {
	return func(cfg *routerConfig) { cfg.menu = registrar }
}

// WithOrderRoutes mounts the register order endpoints.
func WithOrderRoutes(registrar RouteRegistrar) Option {
	return func(cfg *routerConfig) { cfg.orders = registrar }
}

// WithInventoryRoutes mounts the stock endpoints.
func WithInventoryRoutes(registrar RouteRegistrar) Option {
	return func(cfg *routerConfig) { cfg.inventory = registrar }
}

// WithReportRoutes mounts the manager report endpoints.
func WithReportRoutes(registrar RouteRegistrar) Option {
	return func(cfg *routerConfig) { cfg.reports = registrar }
}

// WithEmployeeRoutes mounts the staff management endpoints.
func WithEmployeeRoutes(registrar RouteRegistrar) Option {
	return func(cfg *routerConfig) { cfg.employees = registrar }
}

// WithSessionRoutes mounts the sign-in endpoints.
func WithSessionRoutes(registrar RouteRegistrar) Option {
	return func(cfg *routerConfig) { cfg.sessionsR = registrar }
}

func registerNotImplemented(r chi.Router, name string) {
	handler := func(w http.ResponseWriter, req *http.Request) {
		httpx.WriteError(req.Context(), w, httpx.NewError("not_implemented", fmt.Sprintf("%s endpoints not configured", name), http.StatusNotImplemented))
	}
	r.HandleFunc("/", handler)
	r.HandleFunc("/*", handler)
}
