package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/prn-tf/tradehub/internal/domain"
	"github.com/prn-tf/tradehub/internal/lock"
	"github.com/prn-tf/tradehub/internal/pkg/crypto"
	"github.com/prn-tf/tradehub/internal/repository"
)

// DefaultAnalyticsWindow is how far back "active" and "new" users are counted.
const DefaultAnalyticsWindow = 30 * 24 * time.Hour

// UserService handles user record operations.
type UserService struct {
	userRepo repository.UserRepository
	locker   lock.Locker
	clock    Clock
	window   time.Duration
	logger   zerolog.Logger
}

// UserServiceConfig holds the dependencies of a UserService.
type UserServiceConfig struct {
	Users           repository.UserRepository
	Locker          lock.Locker
	Clock           Clock
	AnalyticsWindow time.Duration
	Logger          zerolog.Logger
}

// NewUserService creates a new UserService.
func NewUserService(cfg UserServiceConfig) *UserService {
	if cfg.Locker == nil {
		cfg.Locker = lock.NewNoOpLocker()
	}
	if cfg.Clock == nil {
		cfg.Clock = SystemClock{}
	}
	if cfg.AnalyticsWindow <= 0 {
		cfg.AnalyticsWindow = DefaultAnalyticsWindow
	}
	return &UserService{
		userRepo: cfg.Users,
		locker:   cfg.Locker,
		clock:    cfg.Clock,
		window:   cfg.AnalyticsWindow,
		logger:   cfg.Logger.With().Str("service", "user").Logger(),
	}
}

// CreateUserInput contains the data needed to create a new user.
// PasswordHash must already be hashed by the caller.
type CreateUserInput struct {
	Email             string `json:"email" validate:"required,email"`
	FirstName         string `json:"firstName" validate:"required"`
	LastName          string `json:"lastName" validate:"required"`
	PasswordHash      string `json:"password" validate:"required"`
	Phone             string `json:"phone"`
	AccountType       string `json:"accountType" validate:"omitempty,oneof=basic premium professional"`
	TradingExperience string `json:"tradingExperience" validate:"omitempty,oneof=beginner intermediate advanced"`
	Source            string `json:"source"`
	ReferredBy        string `json:"referredBy"`
}

// CreateUser creates a user record with every default filled in and returns
// its sanitized form.
func (s *UserService) CreateUser(ctx context.Context, input CreateUserInput) (*domain.UserRecord, error) {
	input.Email = strings.TrimSpace(input.Email)
	input.FirstName = strings.TrimSpace(input.FirstName)
	input.LastName = strings.TrimSpace(input.LastName)
	if err := validateInput(input); err != nil {
		return nil, err
	}

	email := domain.NormalizeEmail(input.Email)
	var created *domain.UserRecord

	err := lock.WithLock(ctx, s.locker, lock.Keys.Email(email), func(ctx context.Context) error {
		exists, err := s.userRepo.ExistsByEmail(ctx, email)
		if err != nil {
			s.logger.Error().Err(err).Msg("failed to check email existence")
			return internal(err)
		}
		if exists {
			return fmt.Errorf("%w: %s", domain.ErrDuplicateEmail, email)
		}

		rec, err := s.newRecord(email, input)
		if err != nil {
			return internal(err)
		}

		if err := s.userRepo.Create(ctx, rec); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return fmt.Errorf("%w: %s", domain.ErrDuplicateEmail, email)
			}
			s.logger.Error().Err(err).Msg("failed to create user")
			return internal(err)
		}
		created = rec
		return nil
	})
	if err != nil {
		return nil, internal(err)
	}

	s.logger.Info().
		Str("user_id", created.ID).
		Str("account_type", created.Account.Type).
		Msg("user created")

	return created.Sanitized(), nil
}

func (s *UserService) newRecord(email string, input CreateUserInput) (*domain.UserRecord, error) {
	referral, err := crypto.GenerateReferralCode()
	if err != nil {
		return nil, err
	}
	verification, err := crypto.GenerateToken(16)
	if err != nil {
		return nil, err
	}

	rec := domain.NewUserRecord(uuid.NewString(), email, s.clock.Now())
	rec.Profile.FirstName = input.FirstName
	rec.Profile.LastName = input.LastName
	rec.Profile.DisplayName = rec.FullName()
	rec.Profile.Phone = input.Phone
	rec.Auth.PasswordHash = input.PasswordHash
	rec.Auth.EmailVerificationToken = verification
	if input.AccountType != "" {
		rec.Account.Type = input.AccountType
	}
	if input.TradingExperience != "" {
		rec.Account.TradingExperience = input.TradingExperience
	}
	if input.Source != "" {
		rec.Metadata.Source = input.Source
	}
	rec.Metadata.ReferralCode = referral
	rec.Metadata.ReferredBy = input.ReferredBy
	return rec, nil
}

// GetUserByID returns the sanitized record. Absence is reported by found=false.
func (s *UserService) GetUserByID(ctx context.Context, id string) (*domain.UserRecord, bool, error) {
	rec, err := s.userRepo.GetByID(ctx, id)
	return s.found(rec, err)
}

// GetUserByEmail returns the sanitized record. Absence is reported by found=false.
func (s *UserService) GetUserByEmail(ctx context.Context, email string) (*domain.UserRecord, bool, error) {
	rec, err := s.userRepo.GetByEmail(ctx, email)
	return s.found(rec, err)
}

func (s *UserService) found(rec *domain.UserRecord, err error) (*domain.UserRecord, bool, error) {
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, false, nil
		}
		s.logger.Error().Err(err).Msg("failed to get user")
		return nil, false, internal(err)
	}
	return rec.Sanitized(), true, nil
}

// UpdateUser deep-merges patch into the record and stamps metadata.updatedAt.
func (s *UserService) UpdateUser(ctx context.Context, id string, patch domain.Patch) (*domain.UserRecord, error) {
	rec, err := mutateUser(ctx, s.userRepo, s.locker, s.clock, id, func(rec *domain.UserRecord) error {
		next, err := domain.ApplyUserPatch(rec, patch)
		if err != nil {
			return err
		}
		*rec = *next
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug().Str("user_id", id).Strs("paths", patch.Paths()).Msg("user updated")
	return rec.Sanitized(), nil
}

// DeleteUser deletes a user record.
func (s *UserService) DeleteUser(ctx context.Context, id string) error {
	err := lock.WithLock(ctx, s.locker, lock.Keys.User(id), func(ctx context.Context) error {
		return s.userRepo.Delete(ctx, id)
	})
	if err != nil {
		if repository.IsNotFound(err) {
			return domain.ErrUserNotFound
		}
		s.logger.Error().Err(err).Str("user_id", id).Msg("failed to delete user")
		return internal(err)
	}

	s.logger.Info().Str("user_id", id).Msg("user deleted")
	return nil
}

// ListUsers returns a sanitized page ordered by creation time, newest first.
func (s *UserService) ListUsers(ctx context.Context, limit, offset int) (*repository.ListResult[domain.UserRecord], error) {
	if limit < 0 || offset < 0 {
		return nil, domain.NewValidationError("limit and offset must not be negative", "limit", "offset")
	}

	res, err := s.userRepo.List(ctx, repository.ListOptions{
		Limit:      limit,
		Offset:     offset,
		OrderBy:    "metadata.createdAt",
		Descending: true,
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to list users")
		return nil, internal(err)
	}

	for i, u := range res.Items {
		res.Items[i] = u.Sanitized()
	}
	return res, nil
}

// =============================================================================
// Positions
// =============================================================================

// AddPositionInput describes a new holding.
type AddPositionInput struct {
	Symbol       string                  `json:"symbol" validate:"required"`
	Name         string                  `json:"name"`
	Type         string                  `json:"type"`
	Side         string                  `json:"side" validate:"omitempty,oneof=long short"`
	Quantity     float64                 `json:"quantity" validate:"gt=0"`
	AveragePrice float64                 `json:"averagePrice" validate:"gte=0"`
	CurrentPrice float64                 `json:"currentPrice" validate:"gte=0"`
	Metadata     domain.PositionMetadata `json:"metadata"`
}

// AddPosition appends an open position to the user's portfolio.
func (s *UserService) AddPosition(ctx context.Context, userID string, input AddPositionInput) (*domain.Position, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	pos := domain.Position{
		ID:           uuid.NewString(),
		UserID:       userID,
		Symbol:       domain.NormalizeSymbol(input.Symbol),
		Name:         input.Name,
		Type:         input.Type,
		Side:         input.Side,
		Quantity:     input.Quantity,
		AveragePrice: input.AveragePrice,
		CurrentPrice: input.CurrentPrice,
		OpenDate:     now,
		LastUpdated:  now,
		Status:       domain.PositionOpen,
		Metadata:     input.Metadata,
	}
	if pos.Side == "" {
		pos.Side = "long"
	}
	pos.Recalculate()

	_, err := s.updatePortfolio(ctx, userID, func(p *domain.Portfolio) error {
		p.Positions = append(p.Positions, pos)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info().Str("user_id", userID).Str("symbol", pos.Symbol).Msg("position added")
	return &pos, nil
}

// UpdatePosition merges patch into one position, recomputes its derived
// amounts and stamps lastUpdated.
func (s *UserService) UpdatePosition(ctx context.Context, userID, positionID string, patch domain.Patch) (*domain.Position, error) {
	normalized, err := patch.Normalize()
	if err != nil {
		return nil, domain.NewValidationError(err.Error())
	}
	for _, path := range []string{"id", "userId", "openDate"} {
		if normalized.Has(path) {
			return nil, domain.NewValidationError("immutable fields", path)
		}
	}

	var updated domain.Position
	_, err = s.updatePortfolio(ctx, userID, func(p *domain.Portfolio) error {
		i := p.FindPosition(positionID)
		if i < 0 {
			return domain.ErrPositionNotFound
		}

		doc, err := domain.ToDocument(p.Positions[i])
		if err != nil {
			return err
		}
		var pos domain.Position
		if err := domain.FromDocument(domain.MergeDocuments(doc, normalized), &pos); err != nil {
			return domain.NewValidationError(err.Error())
		}
		pos.Symbol = domain.NormalizeSymbol(pos.Symbol)
		pos.LastUpdated = s.clock.Now()
		pos.Recalculate()

		p.Positions[i] = pos
		updated = pos
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// =============================================================================
// Watchlist
// =============================================================================

// AddToWatchlist adds a symbol to the embedded watchlist. Adding a symbol
// that is already present changes nothing and returns added=false.
func (s *UserService) AddToWatchlist(ctx context.Context, userID, symbol string) (bool, error) {
	symbol = domain.NormalizeSymbol(symbol)
	if symbol == "" {
		return false, domain.NewValidationError("symbol is required", "symbol")
	}

	added := false
	_, err := s.updatePortfolio(ctx, userID, func(p *domain.Portfolio) error {
		if p.HasSymbol(symbol) {
			return errUnchanged
		}
		p.Watchlist = append(p.Watchlist, domain.WatchlistItem{
			Symbol:  symbol,
			AddedAt: s.clock.Now(),
		})
		added = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return added, nil
}

// RemoveFromWatchlist removes a symbol. Removing an absent symbol changes
// nothing and returns removed=false.
func (s *UserService) RemoveFromWatchlist(ctx context.Context, userID, symbol string) (bool, error) {
	symbol = domain.NormalizeSymbol(symbol)

	removed := false
	_, err := s.updatePortfolio(ctx, userID, func(p *domain.Portfolio) error {
		kept := make([]domain.WatchlistItem, 0, len(p.Watchlist))
		for _, item := range p.Watchlist {
			if domain.NormalizeSymbol(item.Symbol) == symbol {
				removed = true
				continue
			}
			kept = append(kept, item)
		}
		if !removed {
			return errUnchanged
		}
		p.Watchlist = kept
		return nil
	})
	if err != nil {
		return false, err
	}
	return removed, nil
}

// GetPortfolio returns the open positions and their summary.
func (s *UserService) GetPortfolio(ctx context.Context, userID string) (*PortfolioView, error) {
	rec, found, err := s.GetUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, domain.ErrUserNotFound
	}

	open := rec.Portfolio.OpenPositions()
	return &PortfolioView{
		Positions: open,
		Watchlist: rec.Portfolio.Watchlist,
		Summary:   domain.Summarize(open),
	}, nil
}

// PortfolioView is the portfolio page payload.
type PortfolioView struct {
	Positions []domain.Position       `json:"positions"`
	Watchlist []domain.WatchlistItem  `json:"watchlist"`
	Summary   domain.PortfolioSummary `json:"summary"`
}

// errUnchanged makes updatePortfolio skip the write.
var errUnchanged = errors.New("unchanged")

// updatePortfolio applies fn to a copy of the portfolio, refreshes the totals
// and persists the whole portfolio sub-object through the user patch path.
func (s *UserService) updatePortfolio(ctx context.Context, userID string, fn func(p *domain.Portfolio) error) (*domain.UserRecord, error) {
	rec, err := mutateUser(ctx, s.userRepo, s.locker, s.clock, userID, func(rec *domain.UserRecord) error {
		p := rec.Portfolio.Clone()
		if err := fn(&p); err != nil {
			return err
		}
		refreshTotals(&p)

		next, err := domain.ApplyUserPatch(rec, domain.NewPatch().Set("portfolio", p))
		if err != nil {
			return err
		}
		*rec = *next
		return nil
	})
	if errors.Is(err, errUnchanged) {
		return nil, nil
	}
	return rec, err
}

func refreshTotals(p *domain.Portfolio) {
	sum := domain.Summarize(p.OpenPositions())
	p.InvestedAmount = sum.TotalCost
	p.TotalGainLoss = sum.TotalGainLoss
	p.TotalGainLossPercentage = sum.TotalGainLossPercentage
	p.TotalValue = sum.TotalValue + p.AvailableBalance
}

// =============================================================================
// Analytics
// =============================================================================

// GetUserAnalytics aggregates every user record. It never writes.
func (s *UserService) GetUserAnalytics(ctx context.Context) (*domain.UserAnalytics, error) {
	res, err := s.userRepo.List(ctx, repository.ListOptions{})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to load users for analytics")
		return nil, internal(err)
	}

	now := s.clock.Now()
	since := now.Add(-s.window)
	a := &domain.UserAnalytics{
		TotalUsers:         len(res.Items),
		UsersByAccountType: map[string]int{},
		UsersByTier:        map[string]int{},
		Window:             s.window,
		GeneratedAt:        now,
	}

	var totalValue float64
	for _, u := range res.Items {
		if u.Metadata.LastActiveAt.After(since) {
			a.ActiveUsers++
		}
		if u.Metadata.CreatedAt.After(since) {
			a.NewUsers++
		}
		if u.Auth.IsEmailVerified {
			a.VerifiedUsers++
		}
		if u.Subscription.Plan != "" && u.Subscription.Plan != domain.PlanFree {
			a.PaidUsers++
		}
		a.UsersByAccountType[u.Account.Type]++
		a.UsersByTier[u.Account.Tier]++
		totalValue += u.Portfolio.TotalValue
	}
	if a.TotalUsers > 0 {
		a.AveragePortfolioValue = totalValue / float64(a.TotalUsers)
	}
	return a, nil
}

// =============================================================================
// Shared read-modify-write
// =============================================================================

// mutateUser loads the record under its lock, applies fn, stamps
// metadata.updatedAt and stores the whole record. The stored record is
// returned unsanitized.
func mutateUser(ctx context.Context, users repository.UserRepository, locker lock.Locker, clock Clock, id string, fn func(rec *domain.UserRecord) error) (*domain.UserRecord, error) {
	var out *domain.UserRecord

	err := lock.WithLock(ctx, locker, lock.Keys.User(id), func(ctx context.Context) error {
		rec, err := users.GetByID(ctx, id)
		if err != nil {
			if repository.IsNotFound(err) {
				return domain.ErrUserNotFound
			}
			return err
		}

		if err := fn(rec); err != nil {
			return err
		}
		rec.Metadata.UpdatedAt = clock.Now()

		if err := users.Update(ctx, rec); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return domain.ErrDuplicateEmail
			}
			return err
		}
		out = rec
		return nil
	})
	if err != nil {
		if errors.Is(err, errUnchanged) {
			return nil, err
		}
		return nil, internal(err)
	}
	return out, nil
}
