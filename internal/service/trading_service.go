package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/prn-tf/tradehub/internal/domain"
	"github.com/prn-tf/tradehub/internal/lock"
	"github.com/prn-tf/tradehub/internal/repository"
)

// DefaultOrderLimit is the page size of ListOrders when none is given.
const DefaultOrderLimit = 50

// TradingService handles orders and named watchlists. Orders are recorded,
// never executed.
type TradingService struct {
	orderRepo     repository.OrderRepository
	watchlistRepo repository.WatchlistRepository
	locker        lock.Locker
	clock         Clock
	logger        zerolog.Logger
}

// NewTradingService creates a new TradingService.
func NewTradingService(
	orderRepo repository.OrderRepository,
	watchlistRepo repository.WatchlistRepository,
	locker lock.Locker,
	clock Clock,
	logger zerolog.Logger,
) *TradingService {
	if locker == nil {
		locker = lock.NewNoOpLocker()
	}
	if clock == nil {
		clock = SystemClock{}
	}
	return &TradingService{
		orderRepo:     orderRepo,
		watchlistRepo: watchlistRepo,
		locker:        locker,
		clock:         clock,
		logger:        logger.With().Str("service", "trading").Logger(),
	}
}

// =============================================================================
// Orders
// =============================================================================

// CreateOrderInput contains the data needed to place an order.
type CreateOrderInput struct {
	Symbol      string   `json:"symbol" validate:"required"`
	Type        string   `json:"type" validate:"required,oneof=market limit stop stop_limit"`
	Side        string   `json:"side" validate:"required,oneof=buy sell"`
	Quantity    float64  `json:"quantity" validate:"gt=0"`
	Price       *float64 `json:"price" validate:"omitempty,gt=0"`
	StopPrice   *float64 `json:"stopPrice" validate:"omitempty,gt=0"`
	TimeInForce string   `json:"timeInForce"`
	Source      string   `json:"-"`
	IPAddress   string   `json:"-"`
	UserAgent   string   `json:"-"`
}

// CreateOrder records a pending order for the user.
func (s *TradingService) CreateOrder(ctx context.Context, userID string, input CreateOrderInput) (*domain.Order, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	switch input.Type {
	case domain.OrderTypeLimit:
		if input.Price == nil {
			return nil, domain.NewValidationError("limit orders need a price", "price")
		}
	case domain.OrderTypeStop:
		if input.StopPrice == nil {
			return nil, domain.NewValidationError("stop orders need a stop price", "stopPrice")
		}
	case domain.OrderTypeStopLimit:
		if input.Price == nil || input.StopPrice == nil {
			return nil, domain.NewValidationError("stop limit orders need both prices", "price", "stopPrice")
		}
	}

	now := s.clock.Now()
	order := &domain.Order{
		ID:          uuid.NewString(),
		UserID:      userID,
		Symbol:      domain.NormalizeSymbol(input.Symbol),
		Type:        input.Type,
		Side:        input.Side,
		Quantity:    input.Quantity,
		Price:       input.Price,
		StopPrice:   input.StopPrice,
		TimeInForce: input.TimeInForce,
		Status:      domain.OrderPending,
		CreatedAt:   now,
		UpdatedAt:   now,
		Metadata: domain.OrderMetadata{
			Source:    input.Source,
			IPAddress: input.IPAddress,
			UserAgent: input.UserAgent,
		},
	}
	if order.TimeInForce == "" {
		order.TimeInForce = domain.TimeInForceDay
	}
	if order.Metadata.Source == "" {
		order.Metadata.Source = "web"
	}

	if err := s.orderRepo.Create(ctx, order); err != nil {
		s.logger.Error().Err(err).Msg("failed to create order")
		return nil, internal(err)
	}

	s.logger.Info().
		Str("order_id", order.ID).
		Str("user_id", userID).
		Str("symbol", order.Symbol).
		Str("side", order.Side).
		Msg("order created")

	return order, nil
}

// ListOrders returns the user's orders newest first, optionally filtered by status.
func (s *TradingService) ListOrders(ctx context.Context, userID, status string, limit int) ([]*domain.Order, error) {
	if limit <= 0 {
		limit = DefaultOrderLimit
	}
	orders, err := s.orderRepo.ListByUser(ctx, userID, status, repository.ListOptions{Limit: limit})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list orders")
		return nil, internal(err)
	}
	return orders, nil
}

// =============================================================================
// Watchlists
// =============================================================================

// WatchlistInput contains the editable fields of a named watchlist.
type WatchlistInput struct {
	Name        string   `json:"name" validate:"required"`
	Description string   `json:"description"`
	Symbols     []string `json:"symbols"`
	IsDefault   bool     `json:"isDefault"`
	IsPublic    bool     `json:"isPublic"`
	Color       string   `json:"color"`
}

// CreateWatchlist stores a named watchlist owned by the user.
func (s *TradingService) CreateWatchlist(ctx context.Context, userID string, input WatchlistInput) (*domain.Watchlist, error) {
	input.Name = strings.TrimSpace(input.Name)
	if err := validateInput(input); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	wl := &domain.Watchlist{
		ID:          uuid.NewString(),
		UserID:      userID,
		Name:        input.Name,
		Description: input.Description,
		Symbols:     s.watchlistItems(input.Symbols),
		IsDefault:   input.IsDefault,
		IsPublic:    input.IsPublic,
		Color:       input.Color,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if wl.Color == "" {
		wl.Color = domain.DefaultWatchlistColor
	}

	if err := s.watchlistRepo.Create(ctx, wl); err != nil {
		s.logger.Error().Err(err).Msg("failed to create watchlist")
		return nil, internal(err)
	}
	return wl, nil
}

// ListWatchlists returns the user's named watchlists.
func (s *TradingService) ListWatchlists(ctx context.Context, userID string) ([]*domain.Watchlist, error) {
	lists, err := s.watchlistRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, internal(err)
	}
	return lists, nil
}

// UpdateWatchlist merges patch into a watchlist the user owns. The owner
// and id cannot be changed.
func (s *TradingService) UpdateWatchlist(ctx context.Context, userID, id string, patch domain.Patch) (*domain.Watchlist, error) {
	for _, path := range []string{"id", "userId", "createdAt"} {
		if patch.Has(path) {
			return nil, domain.NewValidationError("immutable fields", path)
		}
	}
	// Symbols may be sent as plain tickers.
	if raw, ok := patch["symbols"].([]any); ok {
		symbols := make([]string, 0, len(raw))
		for _, v := range raw {
			if sym, ok := v.(string); ok {
				symbols = append(symbols, sym)
			}
		}
		if len(symbols) == len(raw) {
			patch["symbols"] = s.watchlistItems(symbols)
		}
	}

	var updated *domain.Watchlist
	err := lock.WithLock(ctx, s.locker, lock.Keys.Watchlist(id), func(ctx context.Context) error {
		if _, err := s.ownedWatchlist(ctx, userID, id); err != nil {
			return err
		}
		wl, err := s.watchlistRepo.Patch(ctx, id, patch.Set("updatedAt", s.clock.Now()))
		if err != nil {
			return err
		}
		updated = wl
		return nil
	})
	if err != nil {
		return nil, internal(err)
	}
	return updated, nil
}

// DeleteWatchlist deletes a watchlist the user owns.
func (s *TradingService) DeleteWatchlist(ctx context.Context, userID, id string) error {
	err := lock.WithLock(ctx, s.locker, lock.Keys.Watchlist(id), func(ctx context.Context) error {
		if _, err := s.ownedWatchlist(ctx, userID, id); err != nil {
			return err
		}
		return s.watchlistRepo.Delete(ctx, id)
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.ErrWatchlistNotFound
		}
		return internal(err)
	}
	return nil
}

// ownedWatchlist hides other users' watchlists behind ErrWatchlistNotFound.
func (s *TradingService) ownedWatchlist(ctx context.Context, userID, id string) (*domain.Watchlist, error) {
	wl, err := s.watchlistRepo.GetByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, domain.ErrWatchlistNotFound
		}
		return nil, err
	}
	if wl.UserID != userID {
		return nil, domain.ErrWatchlistNotFound
	}
	return wl, nil
}

func (s *TradingService) watchlistItems(symbols []string) []domain.WatchlistItem {
	now := s.clock.Now()
	items := make([]domain.WatchlistItem, 0, len(symbols))
	seen := make(map[string]bool, len(symbols))
	for _, sym := range symbols {
		sym = domain.NormalizeSymbol(sym)
		if sym == "" || seen[sym] {
			continue
		}
		seen[sym] = true
		items = append(items, domain.WatchlistItem{Symbol: sym, AddedAt: now})
	}
	return items
}
