package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/prn-tf/tradehub/internal/auth"
	"github.com/prn-tf/tradehub/internal/config"
	"github.com/prn-tf/tradehub/internal/domain"
	"github.com/prn-tf/tradehub/internal/metrics"
)

// HealthChecker reports whether a backing dependency is usable.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Router wires the REST API.
type Router struct {
	authHandler    *AuthHandler
	userHandler    *UserHandler
	tradingHandler *TradingHandler
	adminHandler   *AdminHandler
	authMiddleware func(http.Handler) http.Handler
	rateLimiter    *RateLimiter
	metrics        *metrics.Metrics
	metricsHandler http.Handler
	metricsPath    string
	health         HealthChecker
	corsOrigins    []string
	maxBodySize    int64
	logger         zerolog.Logger
}

// RouterConfig contains configuration for the router.
type RouterConfig struct {
	AuthHandler    *AuthHandler
	UserHandler    *UserHandler
	TradingHandler *TradingHandler
	AdminHandler   *AdminHandler

	// AuthMiddleware authenticates every route except registration,
	// sign-in, password reset and health.
	AuthMiddleware func(http.Handler) http.Handler

	// RateLimiter is optional.
	RateLimiter *RateLimiter

	// Metrics records request counts; MetricsHandler is mounted at
	// MetricsPath when set.
	Metrics        *metrics.Metrics
	MetricsHandler http.Handler
	MetricsPath    string

	Health      HealthChecker
	CORS        config.CORSConfig
	MaxBodySize int64
	Logger      zerolog.Logger
}

// NewRouter creates a new Router.
func NewRouter(cfg RouterConfig) *Router {
	return &Router{
		authHandler:    cfg.AuthHandler,
		userHandler:    cfg.UserHandler,
		tradingHandler: cfg.TradingHandler,
		adminHandler:   cfg.AdminHandler,
		authMiddleware: cfg.AuthMiddleware,
		rateLimiter:    cfg.RateLimiter,
		metrics:        cfg.Metrics,
		metricsHandler: cfg.MetricsHandler,
		metricsPath:    cfg.MetricsPath,
		health:         cfg.Health,
		corsOrigins:    cfg.CORS.AllowedOrigins,
		maxBodySize:    cfg.MaxBodySize,
		logger:         cfg.Logger.With().Str("component", "router").Logger(),
	}
}

// Handler returns the main HTTP handler.
func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(rt.logger))
	r.Use(middleware.Recoverer)
	r.Use(Instrument(rt.metrics))

	origins := rt.corsOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}
	// Auth travels in the Authorization header, never in cookies.
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Retry-After", "X-Request-Id"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", rt.handleHealth)
	if rt.metricsHandler != nil {
		path := rt.metricsPath
		if path == "" {
			path = "/metrics"
		}
		r.Handle(path, rt.metricsHandler)
	}

	r.Route("/api", func(r chi.Router) {
		if rt.rateLimiter != nil {
			r.Use(rt.rateLimiter.Middleware)
		}
		r.Use(limitBody(rt.maxBodySize))
		r.Use(middleware.Timeout(30 * time.Second))

		// Public
		r.Post("/auth/register", rt.authHandler.Register)
		r.Post("/auth/login", rt.authHandler.Login)
		r.Post("/auth/password-reset", rt.authHandler.RequestPasswordReset)
		r.Post("/auth/password-reset/confirm", rt.authHandler.ConfirmPasswordReset)
		r.Post("/admin/login", rt.authHandler.AdminLogin)

		// Any session
		r.Group(func(r chi.Router) {
			r.Use(rt.authMiddleware)
			r.Post("/auth/logout", rt.authHandler.Logout)
		})

		// User sessions
		r.Group(func(r chi.Router) {
			r.Use(rt.authMiddleware)
			r.Use(auth.RequireKind(domain.SessionUser))

			r.Get("/user/profile", rt.userHandler.GetProfile)
			r.Put("/user/profile", rt.userHandler.UpdateProfile)
			r.Post("/user/watchlist", rt.userHandler.AddToWatchlist)
			r.Delete("/user/watchlist/{symbol}", rt.userHandler.RemoveFromWatchlist)

			r.Get("/portfolio", rt.userHandler.GetPortfolio)
			r.Post("/portfolio/position", rt.userHandler.AddPosition)
			r.Put("/portfolio/position/{id}", rt.userHandler.UpdatePosition)

			r.Get("/orders", rt.tradingHandler.ListOrders)
			r.Post("/orders", rt.tradingHandler.CreateOrder)

			r.Get("/watchlists", rt.tradingHandler.ListWatchlists)
			r.Post("/watchlists", rt.tradingHandler.CreateWatchlist)
			r.Put("/watchlists/{id}", rt.tradingHandler.UpdateWatchlist)
			r.Delete("/watchlists/{id}", rt.tradingHandler.DeleteWatchlist)

			r.Get("/market", rt.tradingHandler.GetMarket)
		})

		// Admin sessions
		r.Group(func(r chi.Router) {
			r.Use(rt.authMiddleware)
			r.Use(auth.RequireAdmin())

			r.Get("/admin/users", rt.adminHandler.ListUsers)
			r.Delete("/admin/users/{id}", rt.adminHandler.DeleteUser)
			r.Get("/admin/stats", rt.adminHandler.Stats)
			r.Get("/admin/analytics", rt.adminHandler.Analytics)
		})
	})

	return r
}

// handleHealth handles health check requests.
func (rt *Router) handleHealth(w http.ResponseWriter, r *http.Request) {
	if rt.health != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := rt.health.Health(ctx); err != nil {
			rt.logger.Warn().Err(err).Msg("health check failed")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unhealthy"}`))
			return
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"healthy"}`))
}
