package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/prn-tf/tradehub/internal/cache/memory"
	"github.com/prn-tf/tradehub/internal/lock"
	"github.com/prn-tf/tradehub/internal/pkg/crypto"
	"github.com/prn-tf/tradehub/internal/repository"
	memstore "github.com/prn-tf/tradehub/internal/repository/memory"
)

// testStart is the initial time of every test clock.
var testStart = time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

// testEnv wires every service over in-memory backends.
type testEnv struct {
	clock   *ManualClock
	repos   *repository.Repositories
	users   *UserService
	auth    *AuthService
	admin   *AdminService
	trading *TradingService
	market  *MarketService
	mailer  *recordingMailer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := zerolog.Nop()
	clock := NewManualClock(testStart)
	repos := repository.NewRepositories(memstore.NewStore(logger))
	locker := lock.NewMemoryLocker()
	hasher := crypto.NewBcryptHasher(bcrypt.MinCost)
	mailer := &recordingMailer{}
	cache := memory.NewCache(memory.WithClock(clock.Now))
	t.Cleanup(cache.Stop)

	users := NewUserService(UserServiceConfig{
		Users:  repos.User,
		Locker: locker,
		Clock:  clock,
		Logger: logger,
	})

	return &testEnv{
		clock: clock,
		repos: repos,
		users: users,
		auth: NewAuthService(AuthServiceConfig{
			Users:    users,
			UserRepo: repos.User,
			Admins:   repos.Admin,
			Cache:    cache,
			Locker:   locker,
			Hasher:   hasher,
			Mailer:   mailer,
			Clock:    clock,
			Policy:   DefaultAuthPolicy(),
			Logger:   logger,
		}),
		admin: NewAdminService(AdminServiceConfig{
			Admins:      repos.Admin,
			Users:       repos.User,
			Orders:      repos.Order,
			UserService: users,
			Locker:      locker,
			Hasher:      hasher,
			Clock:       clock,
			Logger:      logger,
		}),
		trading: NewTradingService(repos.Order, repos.Watchlist, locker, clock, logger),
		market:  NewMarketService(repos.MarketData, clock, logger),
		mailer:  mailer,
	}
}

// register creates a user with a strong password and returns it.
func (e *testEnv) register(t *testing.T, email string) string {
	t.Helper()
	u, err := e.auth.Register(context.Background(), RegisterInput{
		Email:     email,
		Password:  testPassword,
		FirstName: "Test",
		LastName:  "User",
	})
	require.NoError(t, err)
	return u.ID
}

const testPassword = "Aa1!aaaa"

// recordingMailer keeps the last reset token it was asked to send.
type recordingMailer struct {
	mu    sync.Mutex
	to    string
	token string
	sent  int
}

func (m *recordingMailer) SendPasswordReset(_ context.Context, to, _, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.to = to
	m.token = token
	m.sent++
	return nil
}

func (m *recordingMailer) last() (string, string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.to, m.token
}
