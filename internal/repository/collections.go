package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/prn-tf/tradehub/internal/domain"
)

// collection binds a record type to a named collection of a DocumentStore.
type collection[T any] struct {
	store DocumentStore
	name  string
}

func (c collection[T]) get(ctx context.Context, id string) (*T, error) {
	doc, err := c.store.Get(ctx, c.name, id)
	if err != nil {
		return nil, err
	}
	return c.decode(doc)
}

func (c collection[T]) create(ctx context.Context, id string, v *T) error {
	doc, err := EncodeDocument(v)
	if err != nil {
		return fmt.Errorf("encode %s document: %w", c.name, err)
	}
	return c.store.Create(ctx, c.name, id, doc)
}

func (c collection[T]) put(ctx context.Context, id string, v *T) error {
	doc, err := EncodeDocument(v)
	if err != nil {
		return fmt.Errorf("encode %s document: %w", c.name, err)
	}
	return c.store.Put(ctx, c.name, id, doc)
}

func (c collection[T]) find(ctx context.Context, q Query) ([]*T, error) {
	docs, err := c.store.Query(ctx, c.name, q)
	if err != nil {
		return nil, err
	}
	out := make([]*T, 0, len(docs))
	for _, doc := range docs {
		v, err := c.decode(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (c collection[T]) findOne(ctx context.Context, filters ...Filter) (*T, error) {
	items, err := c.find(ctx, Query{Filters: filters, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrNotFound
	}
	return items[0], nil
}

func (c collection[T]) list(ctx context.Context, opts ListOptions, defaultOrder string) (*ListResult[T], error) {
	orderBy, desc := opts.OrderBy, opts.Descending
	if orderBy == "" {
		orderBy, desc = defaultOrder, true
	}
	items, err := c.find(ctx, Query{OrderBy: orderBy, Desc: desc, Limit: opts.Limit, Offset: opts.Offset})
	if err != nil {
		return nil, err
	}
	total, err := c.store.Count(ctx, c.name)
	if err != nil {
		return nil, err
	}
	return &ListResult[T]{Items: items, Total: int64(total), Offset: opts.Offset, Limit: opts.Limit}, nil
}

func (c collection[T]) decode(doc Document) (*T, error) {
	var v T
	if err := DecodeDocument(doc, &v); err != nil {
		return nil, fmt.Errorf("decode %s document: %w", c.name, err)
	}
	return &v, nil
}

// =============================================================================
// Users
// =============================================================================

type userRepository struct {
	users collection[domain.UserRecord]
}

// NewUserRepository creates a UserRepository over store.
func NewUserRepository(store DocumentStore) UserRepository {
	return &userRepository{users: collection[domain.UserRecord]{store: store, name: CollectionUsers}}
}

func (r *userRepository) Create(ctx context.Context, user *domain.UserRecord) error {
	return r.users.create(ctx, user.ID, user)
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.UserRecord, error) {
	return r.users.get(ctx, id)
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.UserRecord, error) {
	return r.users.findOne(ctx, Eq("email", domain.NormalizeEmail(email)))
}

func (r *userRepository) FindOne(ctx context.Context, filters ...Filter) (*domain.UserRecord, error) {
	return r.users.findOne(ctx, filters...)
}

func (r *userRepository) Update(ctx context.Context, user *domain.UserRecord) error {
	return r.users.put(ctx, user.ID, user)
}

func (r *userRepository) Delete(ctx context.Context, id string) error {
	return r.users.store.Delete(ctx, CollectionUsers, id)
}

func (r *userRepository) List(ctx context.Context, opts ListOptions) (*ListResult[domain.UserRecord], error) {
	return r.users.list(ctx, opts, "metadata.createdAt")
}

func (r *userRepository) Count(ctx context.Context) (int, error) {
	return r.users.store.Count(ctx, CollectionUsers)
}

func (r *userRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	n, err := r.users.store.Count(ctx, CollectionUsers, Eq("email", domain.NormalizeEmail(email)))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// =============================================================================
// Admins
// =============================================================================

type adminRepository struct {
	admins collection[domain.AdminRecord]
}

// NewAdminRepository creates an AdminRepository over store.
func NewAdminRepository(store DocumentStore) AdminRepository {
	return &adminRepository{admins: collection[domain.AdminRecord]{store: store, name: CollectionAdmins}}
}

func (r *adminRepository) Create(ctx context.Context, admin *domain.AdminRecord) error {
	return r.admins.create(ctx, admin.ID, admin)
}

func (r *adminRepository) GetByID(ctx context.Context, id string) (*domain.AdminRecord, error) {
	return r.admins.get(ctx, id)
}

func (r *adminRepository) GetByEmail(ctx context.Context, email string) (*domain.AdminRecord, error) {
	return r.admins.findOne(ctx, Eq("email", domain.NormalizeEmail(email)))
}

func (r *adminRepository) Update(ctx context.Context, admin *domain.AdminRecord) error {
	return r.admins.put(ctx, admin.ID, admin)
}

func (r *adminRepository) List(ctx context.Context, opts ListOptions) (*ListResult[domain.AdminRecord], error) {
	return r.admins.list(ctx, opts, "metadata.createdAt")
}

func (r *adminRepository) CountByRole(ctx context.Context, role string) (int, error) {
	return r.admins.store.Count(ctx, CollectionAdmins, Eq("auth.role", role))
}

func (r *adminRepository) Count(ctx context.Context) (int, error) {
	return r.admins.store.Count(ctx, CollectionAdmins)
}

// =============================================================================
// Orders
// =============================================================================

type orderRepository struct {
	orders collection[domain.Order]
}

// NewOrderRepository creates an OrderRepository over store.
func NewOrderRepository(store DocumentStore) OrderRepository {
	return &orderRepository{orders: collection[domain.Order]{store: store, name: CollectionOrders}}
}

func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	return r.orders.create(ctx, order.ID, order)
}

func (r *orderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	return r.orders.get(ctx, id)
}

func (r *orderRepository) ListByUser(ctx context.Context, userID, status string, opts ListOptions) ([]*domain.Order, error) {
	filters := []Filter{Eq("userId", userID)}
	if status != "" {
		filters = append(filters, Eq("status", status))
	}
	return r.orders.find(ctx, Query{
		Filters: filters,
		OrderBy: "createdAt",
		Desc:    true,
		Limit:   opts.Limit,
		Offset:  opts.Offset,
	})
}

func (r *orderRepository) CountByStatus(ctx context.Context, status string) (int, error) {
	return r.orders.store.Count(ctx, CollectionOrders, Eq("status", status))
}

func (r *orderRepository) Count(ctx context.Context) (int, error) {
	return r.orders.store.Count(ctx, CollectionOrders)
}

// =============================================================================
// Watchlists
// =============================================================================

type watchlistRepository struct {
	watchlists collection[domain.Watchlist]
}

// NewWatchlistRepository creates a WatchlistRepository over store.
func NewWatchlistRepository(store DocumentStore) WatchlistRepository {
	return &watchlistRepository{watchlists: collection[domain.Watchlist]{store: store, name: CollectionWatchlists}}
}

func (r *watchlistRepository) Create(ctx context.Context, wl *domain.Watchlist) error {
	return r.watchlists.create(ctx, wl.ID, wl)
}

func (r *watchlistRepository) GetByID(ctx context.Context, id string) (*domain.Watchlist, error) {
	return r.watchlists.get(ctx, id)
}

func (r *watchlistRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Watchlist, error) {
	return r.watchlists.find(ctx, Query{Filters: []Filter{Eq("userId", userID)}, OrderBy: "createdAt"})
}

func (r *watchlistRepository) Patch(ctx context.Context, id string, patch domain.Patch) (*domain.Watchlist, error) {
	normalized, err := patch.Normalize()
	if err != nil {
		return nil, err
	}
	doc, err := r.watchlists.store.Update(ctx, CollectionWatchlists, id, Document(normalized))
	if err != nil {
		return nil, err
	}
	return r.watchlists.decode(doc)
}

func (r *watchlistRepository) Delete(ctx context.Context, id string) error {
	return r.watchlists.store.Delete(ctx, CollectionWatchlists, id)
}

// =============================================================================
// Market Data
// =============================================================================

type marketDataRepository struct {
	ticks collection[domain.MarketTick]
}

// NewMarketDataRepository creates a MarketDataRepository over store.
// Ticks are keyed by symbol.
func NewMarketDataRepository(store DocumentStore) MarketDataRepository {
	return &marketDataRepository{ticks: collection[domain.MarketTick]{store: store, name: CollectionMarketData}}
}

func (r *marketDataRepository) Upsert(ctx context.Context, tick *domain.MarketTick) error {
	return r.ticks.put(ctx, tick.Symbol, tick)
}

func (r *marketDataRepository) GetBySymbol(ctx context.Context, symbol string) (*domain.MarketTick, error) {
	return r.ticks.get(ctx, domain.NormalizeSymbol(symbol))
}

func (r *marketDataRepository) List(ctx context.Context) ([]*domain.MarketTick, error) {
	return r.ticks.find(ctx, Query{OrderBy: "symbol"})
}

// =============================================================================
// Settings
// =============================================================================

type settingsRepository struct {
	settings collection[domain.SystemSetting]
}

// NewSettingsRepository creates a SettingsRepository over store.
func NewSettingsRepository(store DocumentStore) SettingsRepository {
	return &settingsRepository{settings: collection[domain.SystemSetting]{store: store, name: CollectionSettings}}
}

func (r *settingsRepository) Put(ctx context.Context, setting *domain.SystemSetting) error {
	return r.settings.put(ctx, setting.ID, setting)
}

func (r *settingsRepository) Get(ctx context.Context, id string) (*domain.SystemSetting, error) {
	return r.settings.get(ctx, id)
}

func (r *settingsRepository) List(ctx context.Context) ([]*domain.SystemSetting, error) {
	return r.settings.find(ctx, Query{OrderBy: "id"})
}

// IsNotFound reports whether err is a repository or domain not-found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, domain.ErrNotFound)
}
