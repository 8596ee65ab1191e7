package repository

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/prn-tf/tradehub/internal/config"
)

// Repositories groups the typed views of one document store.
type Repositories struct {
	Store      DocumentStore
	User       UserRepository
	Admin      AdminRepository
	Order      OrderRepository
	Watchlist  WatchlistRepository
	MarketData MarketDataRepository
	Settings   SettingsRepository
}

// NewRepositories builds every typed repository over one store.
func NewRepositories(store DocumentStore) *Repositories {
	return &Repositories{
		Store:      store,
		User:       NewUserRepository(store),
		Admin:      NewAdminRepository(store),
		Order:      NewOrderRepository(store),
		Watchlist:  NewWatchlistRepository(store),
		MarketData: NewMarketDataRepository(store),
		Settings:   NewSettingsRepository(store),
	}
}

// DatabaseHealth is the connection behind a store. It backs the /health
// endpoint and is closed on shutdown.
type DatabaseHealth interface {
	Ping(ctx context.Context) error
	Health(ctx context.Context) error
	Close() error
}

// Opener opens one document store backend from the database config.
type Opener func(ctx context.Context, cfg config.DatabaseConfig, logger zerolog.Logger) (DocumentStore, DatabaseHealth, error)

// Open picks the opener registered for cfg.Driver and builds the typed
// repositories over the store it returns. Backends live in their own
// packages, so the binaries pass in the openers they link.
func Open(ctx context.Context, cfg config.DatabaseConfig, logger zerolog.Logger, openers map[string]Opener) (*Repositories, DatabaseHealth, error) {
	open, ok := openers[cfg.Driver]
	if !ok {
		return nil, nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	store, health, err := open(ctx, cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s store: %w", cfg.Driver, err)
	}
	logger.Info().Str("driver", cfg.Driver).Msg("document store ready")
	return NewRepositories(store), health, nil
}
