package migration

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/prn-tf/tradehub/internal/domain"
	"github.com/prn-tf/tradehub/internal/pkg/crypto"
	"github.com/prn-tf/tradehub/internal/repository"
	"github.com/prn-tf/tradehub/internal/service"
)

// DefaultDemoPassword is the password of the seeded users when none is configured.
const DefaultDemoPassword = "Demo123!"

// SeedReport counts what a seed run wrote.
type SeedReport struct {
	Users    int `json:"users"`
	Ticks    int `json:"ticks"`
	Settings int `json:"settings"`
}

// Seeder writes the sample data of a fresh installation.
type Seeder struct {
	users        *service.UserService
	market       repository.MarketDataRepository
	settings     repository.SettingsRepository
	hasher       crypto.PasswordHasher
	clock        service.Clock
	demoPassword string
	logger       zerolog.Logger
}

// SeederConfig holds the dependencies of a Seeder.
type SeederConfig struct {
	Users        *service.UserService
	Market       repository.MarketDataRepository
	Settings     repository.SettingsRepository
	Hasher       crypto.PasswordHasher
	Clock        service.Clock
	DemoPassword string
	Logger       zerolog.Logger
}

// NewSeeder creates a Seeder.
func NewSeeder(cfg SeederConfig) *Seeder {
	if cfg.Hasher == nil {
		cfg.Hasher = crypto.NewBcryptHasher(0)
	}
	if cfg.Clock == nil {
		cfg.Clock = service.SystemClock{}
	}
	if cfg.DemoPassword == "" {
		cfg.DemoPassword = DefaultDemoPassword
	}
	return &Seeder{
		users:        cfg.Users,
		market:       cfg.Market,
		settings:     cfg.Settings,
		hasher:       cfg.Hasher,
		clock:        cfg.Clock,
		demoPassword: cfg.DemoPassword,
		logger:       cfg.Logger.With().Str("component", "seeder").Logger(),
	}
}

// Seed writes sample users, market ticks and settings. It keeps going after
// a failed item and returns every failure joined.
func (s *Seeder) Seed(ctx context.Context) (SeedReport, error) {
	var report SeedReport
	var errs []error

	hash, err := s.hasher.Hash(s.demoPassword)
	if err != nil {
		return report, fmt.Errorf("hash demo password: %w", err)
	}

	for _, in := range sampleUsers() {
		in.PasswordHash = hash
		if _, err := s.users.CreateUser(ctx, in); err != nil {
			if errors.Is(err, domain.ErrDuplicateEmail) {
				continue
			}
			errs = append(errs, fmt.Errorf("seed user %s: %w", in.Email, err))
			continue
		}
		report.Users++
	}

	now := s.clock.Now()
	for _, tick := range sampleTicks() {
		tick.LastUpdated = now
		if err := s.market.Upsert(ctx, tick); err != nil {
			errs = append(errs, fmt.Errorf("seed tick %s: %w", tick.Symbol, err))
			continue
		}
		report.Ticks++
	}

	for _, setting := range sampleSettings() {
		setting.UpdatedAt = now
		if err := s.settings.Put(ctx, setting); err != nil {
			errs = append(errs, fmt.Errorf("seed setting %s: %w", setting.ID, err))
			continue
		}
		report.Settings++
	}

	s.logger.Info().
		Int("users", report.Users).
		Int("ticks", report.Ticks).
		Int("settings", report.Settings).
		Msg("sample data seeded")

	return report, errors.Join(errs...)
}

func sampleUsers() []service.CreateUserInput {
	return []service.CreateUserInput{
		{
			FirstName:         "John",
			LastName:          "Doe",
			Email:             "john.doe@example.com",
			Phone:             "+1234567890",
			AccountType:       domain.AccountTypePremium,
			TradingExperience: domain.ExperienceIntermediate,
			Source:            "seed",
		},
		{
			FirstName:         "Jane",
			LastName:          "Smith",
			Email:             "jane.smith@example.com",
			Phone:             "+1234567891",
			AccountType:       domain.AccountTypeProfessional,
			TradingExperience: domain.ExperienceAdvanced,
			Source:            "seed",
		},
		{
			FirstName:         "Demo",
			LastName:          "User",
			Email:             "demo@centraltradehub.com",
			Phone:             "+1234567892",
			AccountType:       domain.AccountTypeBasic,
			TradingExperience: domain.ExperienceBeginner,
			Source:            "seed",
		},
	}
}

func sampleTicks() []*domain.MarketTick {
	return []*domain.MarketTick{
		{
			Symbol:           "AAPL",
			Name:             "Apple Inc.",
			Type:             "stock",
			Exchange:         "NASDAQ",
			Currency:         "USD",
			Price:            175.50,
			Change:           2.30,
			ChangePercentage: 1.33,
			Volume:           45678900,
			MarketCap:        2800000000000,
			High52Week:       198.23,
			Low52Week:        124.17,
		},
		{
			Symbol:           "TSLA",
			Name:             "Tesla, Inc.",
			Type:             "stock",
			Exchange:         "NASDAQ",
			Currency:         "USD",
			Price:            245.67,
			Change:           -5.23,
			ChangePercentage: -2.09,
			Volume:           23456789,
			MarketCap:        780000000000,
			High52Week:       414.50,
			Low52Week:        101.81,
		},
		{
			Symbol:           "BTC-USD",
			Name:             "Bitcoin",
			Type:             "crypto",
			Exchange:         "Crypto",
			Currency:         "USD",
			Price:            43250.00,
			Change:           1250.00,
			ChangePercentage: 2.98,
			Volume:           12345678,
			MarketCap:        850000000000,
			High52Week:       73750.07,
			Low52Week:        15460.00,
		},
	}
}

func sampleSettings() []*domain.SystemSetting {
	return []*domain.SystemSetting{
		{
			ID:          "trading_hours_start",
			Category:    "trading",
			Key:         "market_open",
			Value:       "09:30",
			Type:        "string",
			Description: "Market opening time (EST)",
			IsPublic:    true,
			UpdatedBy:   "system",
		},
		{
			ID:          "trading_hours_end",
			Category:    "trading",
			Key:         "market_close",
			Value:       "16:00",
			Type:        "string",
			Description: "Market closing time (EST)",
			IsPublic:    true,
			UpdatedBy:   "system",
		},
		{
			ID:          "max_login_attempts",
			Category:    "security",
			Key:         "max_login_attempts",
			Value:       "5",
			Type:        "number",
			Description: "Maximum login attempts before lockout",
			UpdatedBy:   "system",
		},
	}
}
