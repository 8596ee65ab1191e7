// Package repository defines data access interfaces for TradeHub.
// Every record is a JSON document in a named collection. Backends implement
// DocumentStore only; the typed repositories in this package sit on top of
// any DocumentStore, allowing for different implementations (PostgreSQL,
// SQLite, in-memory for testing) while keeping the service layer clean.
package repository

import (
	"context"

	"github.com/prn-tf/tradehub/internal/domain"
)

// =============================================================================
// Document Store
// =============================================================================

// DocumentStore is the uniform document adapter over named collections.
type DocumentStore interface {
	// Get returns the document. Returns ErrNotFound if absent.
	Get(ctx context.Context, collection, id string) (Document, error)

	// Create stores a new document. Returns ErrDuplicate if the id or a
	// unique field is already taken.
	Create(ctx context.Context, collection, id string, doc Document) error

	// Put stores the whole document, replacing any previous version.
	// Returns ErrDuplicate on a unique field violation.
	Put(ctx context.Context, collection, id string, doc Document) error

	// Update merges partial into the stored document and returns the result.
	// Returns ErrNotFound if absent.
	Update(ctx context.Context, collection, id string, partial Document) (Document, error)

	// Delete removes the document. Returns ErrNotFound if absent.
	Delete(ctx context.Context, collection, id string) error

	// Query returns the documents matching every filter, ordered and paginated.
	Query(ctx context.Context, collection string, q Query) ([]Document, error)

	// Count returns the number of documents matching every filter.
	Count(ctx context.Context, collection string, filters ...Filter) (int, error)

	// Subscribe registers a handler for changes to a collection, or to one
	// document when id is not empty. The returned func cancels it.
	Subscribe(collection, id string, handler ChangeHandler) (cancel func())
}

// =============================================================================
// User Repository
// =============================================================================

// UserRepository defines the interface for user record access.
type UserRepository interface {
	// Create stores a new user. Returns ErrDuplicate if the email is taken.
	Create(ctx context.Context, user *domain.UserRecord) error

	// GetByID retrieves a user by ID. Returns ErrNotFound if absent.
	GetByID(ctx context.Context, id string) (*domain.UserRecord, error)

	// GetByEmail retrieves a user by case-folded email. Returns ErrNotFound if absent.
	GetByEmail(ctx context.Context, email string) (*domain.UserRecord, error)

	// FindOne returns the first user matching the filters. Returns ErrNotFound if none.
	FindOne(ctx context.Context, filters ...Filter) (*domain.UserRecord, error)

	// Update replaces the stored user with the given record.
	Update(ctx context.Context, user *domain.UserRecord) error

	// Delete deletes a user by ID.
	Delete(ctx context.Context, id string) error

	// List returns users with pagination.
	List(ctx context.Context, opts ListOptions) (*ListResult[domain.UserRecord], error)

	// Count returns the number of users.
	Count(ctx context.Context) (int, error)

	// ExistsByEmail checks if a user with the given email exists.
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

// =============================================================================
// Admin Repository
// =============================================================================

// AdminRepository defines the interface for admin record access.
type AdminRepository interface {
	Create(ctx context.Context, admin *domain.AdminRecord) error
	GetByID(ctx context.Context, id string) (*domain.AdminRecord, error)
	GetByEmail(ctx context.Context, email string) (*domain.AdminRecord, error)
	Update(ctx context.Context, admin *domain.AdminRecord) error
	List(ctx context.Context, opts ListOptions) (*ListResult[domain.AdminRecord], error)
	CountByRole(ctx context.Context, role string) (int, error)
	Count(ctx context.Context) (int, error)
}

// =============================================================================
// Trading Repositories
// =============================================================================

// OrderRepository defines the interface for order access.
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	ListByUser(ctx context.Context, userID string, status string, opts ListOptions) ([]*domain.Order, error)
	CountByStatus(ctx context.Context, status string) (int, error)
	Count(ctx context.Context) (int, error)
}

// WatchlistRepository defines the interface for named watchlist access.
type WatchlistRepository interface {
	Create(ctx context.Context, wl *domain.Watchlist) error
	GetByID(ctx context.Context, id string) (*domain.Watchlist, error)
	ListByUser(ctx context.Context, userID string) ([]*domain.Watchlist, error)
	Patch(ctx context.Context, id string, patch domain.Patch) (*domain.Watchlist, error)
	Delete(ctx context.Context, id string) error
}

// MarketDataRepository defines the interface for market tick access.
type MarketDataRepository interface {
	Upsert(ctx context.Context, tick *domain.MarketTick) error
	GetBySymbol(ctx context.Context, symbol string) (*domain.MarketTick, error)
	List(ctx context.Context) ([]*domain.MarketTick, error)
}

// SettingsRepository defines the interface for system setting access.
type SettingsRepository interface {
	Put(ctx context.Context, setting *domain.SystemSetting) error
	Get(ctx context.Context, id string) (*domain.SystemSetting, error)
	List(ctx context.Context) ([]*domain.SystemSetting, error)
}

// =============================================================================
// Common Types
// =============================================================================

// ListOptions contains common pagination options.
type ListOptions struct {
	// Offset is the number of records to skip.
	Offset int

	// Limit is the maximum number of records to return.
	Limit int

	// OrderBy specifies the sort field as a dot path.
	OrderBy string

	// Descending specifies descending order if true.
	Descending bool
}

// ListResult is a generic paginated list result.
type ListResult[T any] struct {
	// Items is the list of items.
	Items []*T

	// Total is the total number of items (without pagination).
	Total int64

	// Offset is the current offset.
	Offset int

	// Limit is the current limit.
	Limit int
}
