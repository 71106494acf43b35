package routes

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/paddygate/paddygate/internal/auth"
	"github.com/paddygate/paddygate/internal/handlers"
	middlewareCustom "github.com/paddygate/paddygate/internal/middleware"
	"github.com/paddygate/paddygate/internal/models"
	pkghttp "github.com/paddygate/paddygate/pkg/http"
)

// Handlers groups everything the route table dispatches to.
type Handlers struct {
	Auth   *handlers.AuthHandler
	Mills  *handlers.MillHandler
	Prices *handlers.PriceHandler
	Admin  *handlers.AdminHandler
	Health *handlers.HealthHandler
	// Relay upgrades GET /api/socket; nil disables the endpoint.
	Relay http.HandlerFunc
}

type Options struct {
	Env                    string
	AllowedOrigins         []string
	AuthRateLimitPerMinute int
	IPConfig               *pkghttp.IPConfig
	RequestTimeout         time.Duration
}

// NewRouter builds the application router with its global middleware stack.
func NewRouter(h Handlers, tokenManager *auth.TokenManager, users auth.UserFetcher, opts Options, logger *slog.Logger) chi.Router {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 60 * time.Second
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: opts.Env}))
	router.Use(middlewareCustom.CORS(middlewareCustom.DefaultCORSConfig(opts.AllowedOrigins)))
	router.Use(middlewareCustom.SecureLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(opts.RequestTimeout))

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		pkghttp.WriteNotFound(w, "Route not found")
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		pkghttp.WriteStatus(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	if h.Health != nil {
		router.Get("/health", h.Health.Check)
	}
	router.Route("/api", func(r chi.Router) {
		RegisterRoutes(r, h, tokenManager, users, opts)
	})
	return router
}

// RegisterRoutes registers all application routes
func RegisterRoutes(router chi.Router, h Handlers, tokenManager *auth.TokenManager, users auth.UserFetcher, opts Options) {
	authenticate := auth.Authenticate(tokenManager, users)
	millerOnly := auth.RequireRole(models.RoleMiller)

	rateLimit := middlewareCustom.RateLimitByIP(middlewareCustom.RateLimitConfig{
		RequestsPerMinute: opts.AuthRateLimitPerMinute,
		IPConfig:          opts.IPConfig,
	})

	// Public routes - no authentication required
	router.Group(func(r chi.Router) {
		r.Use(rateLimit)
		r.Post("/auth/register", h.Auth.Register)
		r.Post("/auth/login", h.Auth.Login)
	})
	router.Get("/mills", h.Mills.ListMills)
	router.Get("/prices", h.Prices.ListPrices)
	router.Get("/prices/history/{millId}/{riceVariety}", h.Prices.PriceHistory)
	if h.Relay != nil {
		router.Get("/socket", h.Relay)
	}

	// Protected routes - authentication required
	router.Group(func(r chi.Router) {
		r.Use(authenticate)

		r.Get("/auth/user", h.Auth.CurrentUser)

		r.Group(func(r chi.Router) {
			r.Use(millerOnly)
			r.Get("/mills/miller", h.Mills.ListOwnMills)
			r.Post("/mills", h.Mills.CreateMill)
			r.Put("/mills/{id}", h.Mills.UpdateMill)
			r.Post("/prices", h.Prices.PostPrice)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(auth.RequireRole(models.RoleAdmin))
			r.Get("/users", h.Admin.ListUsers)
			r.Put("/users/{id}/status", h.Admin.UpdateUserStatus)
			r.Get("/mills", h.Admin.ListMills)
			r.Put("/mills/{id}/verify", h.Admin.VerifyMill)
		})
	})
}
