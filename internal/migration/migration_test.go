package migration

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/prn-tf/tradehub/internal/domain"
	"github.com/prn-tf/tradehub/internal/lock"
	"github.com/prn-tf/tradehub/internal/pkg/crypto"
	"github.com/prn-tf/tradehub/internal/repository"
	memstore "github.com/prn-tf/tradehub/internal/repository/memory"
	"github.com/prn-tf/tradehub/internal/service"
)

var testNow = time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

type fixture struct {
	repos  *repository.Repositories
	clock  *service.ManualClock
	hasher crypto.PasswordHasher
	runner *Runner
}

func newFixture(t *testing.T, seed bool) *fixture {
	t.Helper()

	logger := zerolog.Nop()
	clock := service.NewManualClock(testNow)
	repos := repository.NewRepositories(memstore.NewStore(logger))
	locker := lock.NewMemoryLocker()
	hasher := crypto.NewBcryptHasher(bcrypt.MinCost)

	var seeder *Seeder
	if seed {
		users := service.NewUserService(service.UserServiceConfig{
			Users:  repos.User,
			Locker: locker,
			Clock:  clock,
			Logger: logger,
		})
		seeder = NewSeeder(SeederConfig{
			Users:    users,
			Market:   repos.MarketData,
			Settings: repos.Settings,
			Hasher:   hasher,
			Clock:    clock,
			Logger:   logger,
		})
	}

	return &fixture{
		repos:  repos,
		clock:  clock,
		hasher: hasher,
		runner: NewRunner(RunnerConfig{
			Store:    repos.Store,
			Settings: repos.Settings,
			Seeder:   seeder,
			Locker:   locker,
			Clock:    clock,
			Logger:   logger,
		}),
	}
}

func TestCompareVersions(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1.0.0", "1.0.0", 0},
		{"1.0", "1.0.0", 0},
		{"v1.2.0", "1.2", 0},
		{"0.9.9", "1.0.0", -1},
		{"1.10.0", "1.9.0", 1},
		{"2", "1.99.99", 1},
		{"", "0.0.0", 0},
		{"1.x.0", "1.0.0", 0},
		{"0.0.0", "1.0.0", -1},
	}

	for _, tt := range tests {
		t.Run(tt.a+"_vs_"+tt.b, func(t *testing.T) {
			require.Equal(t, tt.want, CompareVersions(tt.a, tt.b))
			require.Equal(t, -tt.want, CompareVersions(tt.b, tt.a))
		})
	}
}

func TestChain_UpgradeLegacyUser(t *testing.T) {
	legacy := repository.Document{
		"id":                "u-1",
		"email":             "legacy@example.com",
		"firstName":         "Lee",
		"lastName":          "Gacy",
		"profilePicture":    "https://cdn.example.com/lee.png",
		"password":          "5f4dcc3b5aa765d61d8327deb882cf99",
		"isEmailVerified":   true,
		"registeredAt":      "2022-06-01T12:00:00Z",
		"accountType":       "premium",
		"tradingExperience": "advanced",
		"portfolio": map[string]any{
			"availableBalance": 2500.0,
			"watchlist":        []any{map[string]any{"symbol": "AAPL", "addedAt": "2023-01-02T00:00:00Z"}},
		},
	}

	out, changed, err := DefaultChain().Upgrade(legacy, testNow)
	require.NoError(t, err)
	require.True(t, changed)
	require.Equal(t, 1, SchemaVersion(out))
	require.Equal(t, 0, SchemaVersion(legacy), "input must not be modified")

	var rec domain.UserRecord
	require.NoError(t, repository.DecodeDocument(out, &rec))
	require.Equal(t, "u-1", rec.ID)
	require.Equal(t, "legacy@example.com", rec.Email)
	require.Equal(t, "Lee", rec.Profile.FirstName)
	require.Equal(t, "Lee Gacy", rec.Profile.DisplayName)
	require.Equal(t, "https://cdn.example.com/lee.png", rec.Profile.Avatar)
	require.True(t, rec.Auth.IsEmailVerified)
	require.Equal(t, "5f4dcc3b5aa765d61d8327deb882cf99", rec.Auth.PasswordHash)
	require.Equal(t, domain.AccountTypePremium, rec.Account.Type)
	require.Equal(t, domain.ExperienceAdvanced, rec.Account.TradingExperience)
	require.Equal(t, time.Date(2022, 6, 1, 12, 0, 0, 0, time.UTC), rec.Metadata.CreatedAt.UTC())
	require.Equal(t, 2500.0, rec.Portfolio.AvailableBalance)
	require.Len(t, rec.Portfolio.Watchlist, 1)
	require.Equal(t, "AAPL", rec.Portfolio.Watchlist[0].Symbol)
	require.Len(t, rec.Metadata.ReferralCode, 8)
	require.NotEmpty(t, rec.Auth.EmailVerificationToken)
}

func TestChain_CurrentAndFutureVersions(t *testing.T) {
	current := repository.Document{"id": "u-1", "schemaVersion": float64(domain.CurrentUserSchemaVersion)}
	out, changed, err := DefaultChain().Upgrade(current, testNow)
	require.NoError(t, err)
	require.False(t, changed)
	require.Equal(t, current, out)

	future := repository.Document{"id": "u-2", "schemaVersion": float64(domain.CurrentUserSchemaVersion + 1)}
	_, _, err = DefaultChain().Upgrade(future, testNow)
	require.ErrorIs(t, err, domain.ErrUnsupportedSchemaVersion)
}

func TestChain_MissingStep(t *testing.T) {
	_, _, err := Chain{}.Upgrade(repository.Document{"id": "u-1"}, testNow)
	require.Error(t, err)
}

func TestRunner_SeedsEmptyStore(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	report, err := f.runner.Run(ctx)
	require.NoError(t, err)
	require.False(t, report.UpToDate)
	require.Equal(t, "0.0.0", report.FromVersion)
	require.Equal(t, TargetVersion, report.ToVersion)
	require.NotNil(t, report.Seeded)
	require.Equal(t, SeedReport{Users: 3, Ticks: 3, Settings: 3}, *report.Seeded)

	n, err := f.repos.User.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, n)

	btc, err := f.repos.MarketData.GetBySymbol(ctx, "BTC-USD")
	require.NoError(t, err)
	require.Equal(t, 43250.00, btc.Price)

	demo, err := f.repos.User.GetByEmail(ctx, "demo@centraltradehub.com")
	require.NoError(t, err)
	require.NoError(t, f.hasher.Compare(demo.Auth.PasswordHash, DefaultDemoPassword))
	require.Equal(t, domain.CurrentUserSchemaVersion, demo.SchemaVersion)

	marker, err := f.repos.Settings.Get(ctx, domain.SchemaVersionSettingID)
	require.NoError(t, err)
	require.Equal(t, TargetVersion, marker.Value)
}

func TestRunner_Idempotent(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	_, err := f.runner.Run(ctx)
	require.NoError(t, err)
	before, err := f.repos.Settings.Get(ctx, domain.SchemaVersionSettingID)
	require.NoError(t, err)

	f.clock.Advance(time.Hour)
	report, err := f.runner.Run(ctx)
	require.NoError(t, err)
	require.True(t, report.UpToDate)
	require.Nil(t, report.Seeded)
	require.Zero(t, report.Scanned)

	after, err := f.repos.Settings.Get(ctx, domain.SchemaVersionSettingID)
	require.NoError(t, err)
	require.Equal(t, before.UpdatedAt, after.UpdatedAt)

	n, err := f.repos.User.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, n)
}

func TestRunner_MigratesLegacyDocuments(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()
	store := f.repos.Store

	require.NoError(t, store.Put(ctx, repository.CollectionUsers, "u-legacy", repository.Document{
		"id":        "u-legacy",
		"email":     "old@example.com",
		"firstName": "Old",
		"lastName":  "Timer",
	}))
	require.NoError(t, store.Put(ctx, repository.CollectionUsers, "u-future", repository.Document{
		"id":            "u-future",
		"email":         "future@example.com",
		"schemaVersion": float64(99),
	}))

	report, err := f.runner.Run(ctx)
	require.NoError(t, err)
	require.Equal(t, 2, report.Scanned)
	require.Equal(t, 1, report.Migrated)
	require.Equal(t, 1, report.Failed)
	require.Nil(t, report.Seeded, "a store with users is not seeded")

	rec, err := f.repos.User.GetByID(ctx, "u-legacy")
	require.NoError(t, err)
	require.Equal(t, domain.CurrentUserSchemaVersion, rec.SchemaVersion)
	require.Equal(t, "Old Timer", rec.Profile.DisplayName)

	future, err := store.Get(ctx, repository.CollectionUsers, "u-future")
	require.NoError(t, err)
	require.Equal(t, float64(99), future["schemaVersion"])

	marker, err := f.repos.Settings.Get(ctx, domain.SchemaVersionSettingID)
	require.NoError(t, err)
	require.Equal(t, TargetVersion, marker.Value)
}

func TestRunner_SeedingDisabled(t *testing.T) {
	f := newFixture(t, false)
	ctx := context.Background()

	report, err := f.runner.Run(ctx)
	require.NoError(t, err)
	require.Nil(t, report.Seeded)

	n, err := f.repos.User.Count(ctx)
	require.NoError(t, err)
	require.Zero(t, n)

	v, err := f.runner.CurrentVersion(ctx)
	require.NoError(t, err)
	require.Equal(t, TargetVersion, v)
}

func TestReset(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	_, err := f.runner.Run(ctx)
	require.NoError(t, err)

	// 3 users, 3 ticks, 3 seeded settings and the version marker.
	deleted, err := Reset(ctx, f.repos.Store, zerolog.Nop())
	require.NoError(t, err)
	require.Equal(t, 10, deleted)

	for _, c := range repository.Collections {
		n, err := f.repos.Store.Count(ctx, c)
		require.NoError(t, err)
		require.Zero(t, n, c)
	}

	v, err := f.runner.CurrentVersion(ctx)
	require.NoError(t, err)
	require.Equal(t, "0.0.0", v)
}
