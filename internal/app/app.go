// Package app wires configuration, storage and services into one container
// shared by the server and the command line tools.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/prn-tf/tradehub/internal/auth"
	"github.com/prn-tf/tradehub/internal/backup"
	"github.com/prn-tf/tradehub/internal/cache/memory"
	"github.com/prn-tf/tradehub/internal/cache/redis"
	"github.com/prn-tf/tradehub/internal/config"
	"github.com/prn-tf/tradehub/internal/events"
	"github.com/prn-tf/tradehub/internal/handler"
	"github.com/prn-tf/tradehub/internal/lock"
	"github.com/prn-tf/tradehub/internal/metrics"
	"github.com/prn-tf/tradehub/internal/migration"
	"github.com/prn-tf/tradehub/internal/notify"
	"github.com/prn-tf/tradehub/internal/pkg/crypto"
	"github.com/prn-tf/tradehub/internal/repository"
	"github.com/prn-tf/tradehub/internal/service"
)

// App holds every long-lived dependency of a TradeHub process.
type App struct {
	Config   *config.Config
	Logger   zerolog.Logger
	Repos    *repository.Repositories
	Database repository.DatabaseHealth
	Cache    repository.Cache
	Locker   lock.Locker
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics
	Hasher   crypto.PasswordHasher
	Clock    service.Clock
	Tokens   *auth.TokenManager

	Users   *service.UserService
	Auth    *service.AuthService
	Admin   *service.AdminService
	Trading *service.TradingService
	Market  *service.MarketService

	bridge  *events.Bridge
	closers []func() error
}

// Option customizes New.
type Option func(*App)

// WithClock replaces the system clock.
func WithClock(clock service.Clock) Option {
	return func(a *App) { a.Clock = clock }
}

// WithHasher replaces the bcrypt hasher built from the auth config.
func WithHasher(h crypto.PasswordHasher) Option {
	return func(a *App) { a.Hasher = h }
}

// New opens the configured backends and builds the services. The caller
// must Close the returned App.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger, opts ...Option) (*App, error) {
	a := &App{
		Config: cfg,
		Logger: logger,
		Clock:  service.SystemClock{},
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.Hasher == nil {
		a.Hasher = crypto.NewBcryptHasher(cfg.Auth.BcryptCost)
	}

	if err := a.init(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) init(ctx context.Context) error {
	cfg := a.Config

	repos, db, err := repository.Open(ctx, cfg.Database, a.Logger, Openers())
	if err != nil {
		return err
	}
	a.Repos = repos
	a.Database = db
	a.closers = append(a.closers, db.Close)

	if err := a.initCache(ctx); err != nil {
		return err
	}

	a.Registry = prometheus.NewRegistry()
	if cfg.Metrics.Enabled {
		a.Registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		a.Metrics = metrics.New(a.Registry)
	}

	mailer, err := notify.New(cfg.Mail, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to create mailer: %w", err)
	}

	a.Users = service.NewUserService(service.UserServiceConfig{
		Users:           a.Repos.User,
		Locker:          a.Locker,
		Clock:           a.Clock,
		AnalyticsWindow: cfg.Analytics.ActiveWindow,
		Logger:          a.Logger,
	})
	a.Auth = service.NewAuthService(service.AuthServiceConfig{
		Users:    a.Users,
		UserRepo: a.Repos.User,
		Admins:   a.Repos.Admin,
		Cache:    a.Cache,
		Locker:   a.Locker,
		Hasher:   a.Hasher,
		Mailer:   mailer,
		Clock:    a.Clock,
		Metrics:  a.Metrics,
		Policy: service.AuthPolicy{
			MaxLoginAttempts: cfg.Auth.MaxLoginAttempts,
			LockoutDuration:  cfg.Auth.LockoutDuration,
			MinPasswordScore: cfg.Auth.MinPasswordScore,
			SessionTTL:       cfg.Auth.SessionTTL,
			RememberTTL:      cfg.Auth.RememberTTL,
			ResetTokenTTL:    cfg.Auth.ResetTokenTTL,
		},
		Logger: a.Logger,
	})
	a.Admin = service.NewAdminService(service.AdminServiceConfig{
		Admins:      a.Repos.Admin,
		Users:       a.Repos.User,
		Orders:      a.Repos.Order,
		UserService: a.Users,
		Locker:      a.Locker,
		Hasher:      a.Hasher,
		Clock:       a.Clock,
		Logger:      a.Logger,
	})
	a.Trading = service.NewTradingService(a.Repos.Order, a.Repos.Watchlist, a.Locker, a.Clock, a.Logger)
	a.Market = service.NewMarketService(a.Repos.MarketData, a.Clock, a.Logger)
	a.Tokens = auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer, a.Clock.Now)

	return nil
}

// initCache selects Redis when enabled and the in-process cache otherwise.
func (a *App) initCache(ctx context.Context) error {
	if a.Config.Redis.Enabled {
		client, err := redis.NewClient(ctx, a.Config.Redis, a.Logger)
		if err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		a.closers = append(a.closers, client.Close)
		a.Cache = redis.NewCache(client, a.Config.Redis.KeyPrefix)
		a.Locker = redis.NewDistributedLock(client, a.Config.Redis.KeyPrefix)
		return nil
	}

	cache := memory.NewCache(memory.WithClock(a.Clock.Now))
	a.closers = append(a.closers, func() error { cache.Stop(); return nil })
	a.Cache = cache
	a.Locker = lock.NewMemoryLocker()
	return nil
}

// Runner returns the document migration runner. Seeding follows the seed
// config.
func (a *App) Runner() *migration.Runner {
	var seeder *migration.Seeder
	if a.Config.Seed.Enabled {
		seeder = migration.NewSeeder(migration.SeederConfig{
			Users:        a.Users,
			Market:       a.Repos.MarketData,
			Settings:     a.Repos.Settings,
			Hasher:       a.Hasher,
			Clock:        a.Clock,
			DemoPassword: a.Config.Seed.DemoPassword,
			Logger:       a.Logger,
		})
	}
	return migration.NewRunner(migration.RunnerConfig{
		Store:    a.Repos.Store,
		Settings: a.Repos.Settings,
		Seeder:   seeder,
		Locker:   a.Locker,
		Clock:    a.Clock,
		Metrics:  a.Metrics,
		Logger:   a.Logger,
	})
}

// StartEvents publishes document changes to the configured broker. It is a
// no-op when events are disabled.
func (a *App) StartEvents() error {
	if !a.Config.Events.Enabled || a.bridge != nil {
		return nil
	}

	publisher, err := events.NewAMQPPublisher(a.Config.Events.URL, a.Config.Events.Exchange, a.Logger)
	if err != nil {
		return err
	}
	a.closers = append(a.closers, publisher.Close)

	a.bridge = events.NewBridge(a.Repos.Store, publisher, a.Metrics, a.Logger)
	a.bridge.Start()
	a.closers = append(a.closers, func() error { a.bridge.Stop(); return nil })
	return nil
}

// Router builds the REST API router.
func (a *App) Router() *handler.Router {
	cfg := handler.RouterConfig{
		AuthHandler:    handler.NewAuthHandler(a.Auth, a.Tokens, a.Logger),
		UserHandler:    handler.NewUserHandler(a.Users, a.Logger),
		TradingHandler: handler.NewTradingHandler(a.Trading, a.Market, a.Logger),
		AdminHandler:   handler.NewAdminHandler(a.Admin, a.Logger),
		AuthMiddleware: auth.Middleware(a.Tokens, a.Auth, a.Logger),
		Metrics:        a.Metrics,
		Health:         a.Database,
		CORS:           a.Config.CORS,
		MaxBodySize:    a.Config.Server.MaxBodySize,
		Logger:         a.Logger,
	}
	if a.Config.RateLimit.Enabled {
		cfg.RateLimiter = handler.NewRateLimiter(a.Config.RateLimit)
	}
	if a.Metrics != nil && a.Config.Metrics.Port == 0 {
		cfg.MetricsHandler = a.MetricsHandler()
		cfg.MetricsPath = a.Config.Metrics.Path
	}
	return handler.NewRouter(cfg)
}

// MetricsHandler serves the registry in the Prometheus text format.
func (a *App) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(a.Registry, promhttp.HandlerOpts{Registry: a.Registry})
}

// Exporter builds the S3 snapshot exporter from the backup config.
func (a *App) Exporter(ctx context.Context) (*backup.Exporter, error) {
	if a.Config.Backup.Bucket == "" {
		return nil, errors.New("backup bucket is not configured")
	}
	client, err := backup.NewS3Client(ctx, a.Config.Backup)
	if err != nil {
		return nil, err
	}
	return backup.NewExporter(a.Repos.Store, client, a.Config.Backup.Bucket, a.Config.Backup.Prefix, a.Logger), nil
}

// Close releases every backend in reverse order of opening.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
