package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/gymwatch/gymwatch/api"
	"github.com/gymwatch/gymwatch/internal/metrics"
	"github.com/gymwatch/gymwatch/internal/middleware"
	"github.com/gymwatch/gymwatch/internal/poller"
	"github.com/gymwatch/gymwatch/internal/service"
	"github.com/gymwatch/gymwatch/internal/web"
)

// RouterConfig carries everything the router wires together.
type RouterConfig struct {
	Logger   *slog.Logger
	Schedule *service.ScheduleService
	Auth     *service.AuthService
	Poller   *poller.Poller // nil computes status per request
	Renderer *web.Renderer
	Metrics  metrics.Recorder

	DB    HealthChecker
	Cache HealthChecker

	// MetricsHandler is mounted at /metrics when set.
	MetricsHandler http.Handler

	// Limiter throttles login attempts; nil disables throttling.
	Limiter            middleware.LoginLimiter
	RateLimitPerMinute int
	RateLimitBurst     int

	Cookie        SessionCookie
	IsDevelopment bool
	CORSOrigins   []string
	MaxBodySize   int64
}

// NewRouter builds the chi router with all routes and middleware.
func NewRouter(cfg RouterConfig) http.Handler {
	logger := cfg.Logger

	h := New()
	healthHandler := NewHealthHandler(cfg.DB, cfg.Cache)
	statusHandler := NewStatusHandler(cfg.Schedule, cfg.Poller, logger)
	sessionHandler := NewSessionHandler(cfg.Schedule, statusHandler, logger)
	dangerHandler := NewDangerHandler(cfg.Schedule, statusHandler, logger)
	authHandler := NewAuthHandler(cfg.Auth, cfg.Cookie, logger)
	pageHandler := NewPageHandler(cfg.Schedule, statusHandler, cfg.Auth, cfg.Cookie, cfg.Renderer, logger)

	csrf := middleware.CSRF(middleware.CSRFConfig{Logger: logger, CookieSecure: cfg.Cookie.Secure})
	loginLimit := middleware.RateLimitLogin(middleware.RateLimitConfig{
		Logger:    logger,
		Limiter:   cfg.Limiter,
		Metrics:   cfg.Metrics,
		Enabled:   cfg.Limiter != nil,
		PerMinute: cfg.RateLimitPerMinute,
		Burst:     cfg.RateLimitBurst,
	})

	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Recoverer(logger))
	r.Use(middleware.Security(middleware.SecurityConfig{IsDevelopment: cfg.IsDevelopment}))
	if cfg.MaxBodySize > 0 {
		r.Use(middleware.MaxBodySize(cfg.MaxBodySize))
	}
	r.Use(middleware.Session(middleware.SessionConfig{
		Logger:        logger,
		Authenticator: cfg.Auth,
		CookieName:    cfg.Cookie.Name,
	}))

	// Probes and metrics
	r.Get("/healthz", healthHandler.Healthz)
	r.Get("/readyz", healthHandler.Readyz)
	if cfg.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", cfg.MetricsHandler)
	}

	r.Handle("/static/*", web.Static())

	// HTML pages
	r.Group(func(r chi.Router) {
		r.Use(csrf)

		r.Get("/", pageHandler.Status)
		r.Get(loginPath, pageHandler.Login)
		r.With(loginLimit).Post(loginPath, pageHandler.LoginSubmit)
		r.Post("/logout", pageHandler.LogoutSubmit)

		r.Route(managePath, func(r chi.Router) {
			r.Use(middleware.RequireOwnerPage(loginPath))
			r.Get("/", pageHandler.Manage)
			r.Post("/sessions", pageHandler.AddSessionSubmit)
			r.Post("/sessions/{id}/delete", pageHandler.DeleteSessionSubmit)
			r.Post("/danger", pageHandler.DangerSubmit)
		})
	})

	// JSON API
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.CORS(middleware.DefaultCORSConfig(cfg.CORSOrigins)))

		r.Get("/status", statusHandler.Get)
		r.Method(http.MethodGet, "/openapi.yaml", api.Handler())
		// Login hands back a bearer token and sets no cookie.
		r.With(loginLimit).Post("/auth/login", authHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(csrf)
			r.Post("/auth/logout", authHandler.Logout)

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireOwnerAPI)

				r.Get("/auth/me", authHandler.Me)

				r.Route("/sessions", func(r chi.Router) {
					r.Get("/", sessionHandler.List)
					r.Post("/", sessionHandler.Create)
					r.Delete("/{id}", sessionHandler.Delete)
				})

				r.Get("/danger", dangerHandler.Get)
				r.Put("/danger", dangerHandler.Put)
			})
		})
	})

	// 404 and 405 handlers
	r.NotFound(h.NotFound)
	r.MethodNotAllowed(h.MethodNotAllowed)

	return r
}
