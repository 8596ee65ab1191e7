package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/prn-tf/tradehub/internal/domain"
	"github.com/prn-tf/tradehub/internal/repository"
)

// MarketService reads and writes market ticks.
type MarketService struct {
	marketRepo repository.MarketDataRepository
	clock      Clock
	group      singleflight.Group
	logger     zerolog.Logger
}

// NewMarketService creates a new MarketService.
func NewMarketService(marketRepo repository.MarketDataRepository, clock Clock, logger zerolog.Logger) *MarketService {
	if clock == nil {
		clock = SystemClock{}
	}
	return &MarketService{
		marketRepo: marketRepo,
		clock:      clock,
		logger:     logger.With().Str("service", "market").Logger(),
	}
}

// GetTick returns the latest tick of a symbol. Concurrent reads of the same
// symbol share one store lookup.
func (s *MarketService) GetTick(ctx context.Context, symbol string) (*domain.MarketTick, error) {
	symbol = domain.NormalizeSymbol(symbol)
	if symbol == "" {
		return nil, domain.NewValidationError("symbol is required", "symbol")
	}

	v, err, _ := s.group.Do(symbol, func() (any, error) {
		return s.marketRepo.GetBySymbol(ctx, symbol)
	})
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, domain.ErrMarketDataNotFound
		}
		s.logger.Error().Err(err).Str("symbol", symbol).Msg("failed to get market data")
		return nil, internal(err)
	}

	tick := *v.(*domain.MarketTick)
	return &tick, nil
}

// GetTicks returns the ticks of the given symbols, skipping unknown ones.
// With no symbols every stored tick is returned.
func (s *MarketService) GetTicks(ctx context.Context, symbols []string) ([]*domain.MarketTick, error) {
	if len(symbols) == 0 {
		ticks, err := s.marketRepo.List(ctx)
		if err != nil {
			return nil, internal(err)
		}
		return ticks, nil
	}

	out := make([]*domain.MarketTick, 0, len(symbols))
	for _, sym := range symbols {
		tick, err := s.GetTick(ctx, sym)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return nil, err
		}
		out = append(out, tick)
	}
	return out, nil
}

// UpsertTick stores a tick, stamping lastUpdated.
func (s *MarketService) UpsertTick(ctx context.Context, tick *domain.MarketTick) error {
	tick.Symbol = domain.NormalizeSymbol(tick.Symbol)
	if tick.Symbol == "" {
		return domain.NewValidationError("symbol is required", "symbol")
	}
	if tick.Price < 0 {
		return domain.NewValidationError("price must not be negative", "price")
	}
	if tick.LastUpdated.IsZero() {
		tick.LastUpdated = s.clock.Now()
	}

	if err := s.marketRepo.Upsert(ctx, tick); err != nil {
		s.logger.Error().Err(err).Str("symbol", tick.Symbol).Msg("failed to upsert market data")
		return internal(err)
	}
	return nil
}
