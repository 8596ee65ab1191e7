package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/prn-tf/tradehub/internal/auth"
	"github.com/prn-tf/tradehub/internal/cache/memory"
	"github.com/prn-tf/tradehub/internal/config"
	"github.com/prn-tf/tradehub/internal/domain"
	"github.com/prn-tf/tradehub/internal/lock"
	"github.com/prn-tf/tradehub/internal/pkg/crypto"
	"github.com/prn-tf/tradehub/internal/repository"
	memstore "github.com/prn-tf/tradehub/internal/repository/memory"
	"github.com/prn-tf/tradehub/internal/service"
)

const (
	testPassword  = "Aa1!aaaa"
	adminEmail    = "root@tradehub.test"
	adminPassword = "Adm1n!Passw0rd"
)

var testStart = time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)

type resetMailer struct {
	mu    sync.Mutex
	token string
}

func (m *resetMailer) SendPasswordReset(_ context.Context, _, _, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

func (m *resetMailer) last() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

type failingHealth struct{}

func (failingHealth) Health(context.Context) error { return errors.New("down") }

type testServer struct {
	handler http.Handler
	clock   *service.ManualClock
	repos   *repository.Repositories
	market  *service.MarketService
	mailer  *resetMailer
}

func newTestServer(t *testing.T, mutate func(*RouterConfig)) *testServer {
	t.Helper()

	logger := zerolog.Nop()
	clock := service.NewManualClock(testStart)
	store := memstore.NewStore(logger)
	repos := repository.NewRepositories(store)
	locker := lock.NewMemoryLocker()
	cache := memory.NewCache(memory.WithClock(clock.Now))
	t.Cleanup(cache.Stop)
	hasher := crypto.NewBcryptHasher(bcrypt.MinCost)
	mailer := &resetMailer{}

	users := service.NewUserService(service.UserServiceConfig{
		Users:  repos.User,
		Locker: locker,
		Clock:  clock,
		Logger: logger,
	})
	authService := service.NewAuthService(service.AuthServiceConfig{
		Users:    users,
		UserRepo: repos.User,
		Admins:   repos.Admin,
		Cache:    cache,
		Locker:   locker,
		Hasher:   hasher,
		Mailer:   mailer,
		Clock:    clock,
		Policy:   service.DefaultAuthPolicy(),
		Logger:   logger,
	})
	admins := service.NewAdminService(service.AdminServiceConfig{
		Admins:      repos.Admin,
		Users:       repos.User,
		Orders:      repos.Order,
		UserService: users,
		Locker:      locker,
		Hasher:      hasher,
		Clock:       clock,
		Logger:      logger,
	})
	trading := service.NewTradingService(repos.Order, repos.Watchlist, locker, clock, logger)
	market := service.NewMarketService(repos.MarketData, clock, logger)

	_, _, err := admins.EnsureDefaultAdmin(context.Background(), adminEmail, adminPassword)
	require.NoError(t, err)

	tokens := auth.NewTokenManager("test-secret", "", clock.Now)
	cfg := RouterConfig{
		AuthHandler:    NewAuthHandler(authService, tokens, logger),
		UserHandler:    NewUserHandler(users, logger),
		TradingHandler: NewTradingHandler(trading, market, logger),
		AdminHandler:   NewAdminHandler(admins, logger),
		AuthMiddleware: auth.Middleware(tokens, authService, logger),
		Health:         store,
		MaxBodySize:    1 << 20,
		Logger:         logger,
	}
	if mutate != nil {
		mutate(&cfg)
	}

	return &testServer{
		handler: NewRouter(cfg).Handler(),
		clock:   clock,
		repos:   repos,
		market:  market,
		mailer:  mailer,
	}
}

type response struct {
	Code    int             `json:"-"`
	Header  http.Header     `json:"-"`
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *APIError       `json:"error"`
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	r := httptest.NewRequest(method, path, &buf)
	r.Header.Set("Content-Type", "application/json")
	if token != "" {
		r.Header.Set(auth.AuthorizationHeader, "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, r)

	res := response{Code: w.Code, Header: w.Header()}
	if w.Body.Len() > 0 && w.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	}
	return res
}

func (s *testServer) register(t *testing.T, email string) {
	t.Helper()
	res := s.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email":     email,
		"password":  testPassword,
		"firstName": "Test",
		"lastName":  "User",
	})
	require.Equal(t, http.StatusCreated, res.Code)
}

func (s *testServer) login(t *testing.T, email string) string {
	t.Helper()
	res := s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    email,
		"password": testPassword,
	})
	require.Equal(t, http.StatusOK, res.Code)
	var tok TokenResponse
	require.NoError(t, json.Unmarshal(res.Data, &tok))
	require.NotEmpty(t, tok.Token)
	return tok.Token
}

func (s *testServer) adminLogin(t *testing.T) string {
	t.Helper()
	res := s.do(t, http.MethodPost, "/api/admin/login", "", map[string]string{
		"email":    adminEmail,
		"password": adminPassword,
	})
	require.Equal(t, http.StatusOK, res.Code)
	var tok TokenResponse
	require.NoError(t, json.Unmarshal(res.Data, &tok))
	return tok.Token
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{name: "validation", err: domain.NewValidationError("bad", "email"), wantStatus: http.StatusBadRequest, wantCode: CodeValidation},
		{name: "weak password", err: &domain.WeakPasswordError{Score: 1, Required: 4}, wantStatus: http.StatusBadRequest, wantCode: CodeWeakPassword},
		{name: "credentials", err: domain.ErrInvalidCredentials, wantStatus: http.StatusUnauthorized, wantCode: CodeInvalidCredentials},
		{name: "access denied", err: domain.ErrAccessDenied, wantStatus: http.StatusForbidden, wantCode: CodeAccessDenied},
		{name: "inactive", err: domain.ErrUserInactive, wantStatus: http.StatusForbidden, wantCode: CodeAccessDenied},
		{name: "not found", err: domain.ErrWatchlistNotFound, wantStatus: http.StatusNotFound, wantCode: CodeNotFound},
		{name: "duplicate", err: domain.ErrDuplicateEmail, wantStatus: http.StatusConflict, wantCode: CodeDuplicate},
		{name: "locked", err: &domain.LockedOutError{RetryAfter: 90 * time.Second}, wantStatus: http.StatusLocked, wantCode: CodeLockedOut},
		{name: "busy", err: fmt.Errorf("%w: lock", service.ErrBusy), wantStatus: http.StatusServiceUnavailable, wantCode: CodeBusy},
		{name: "other", err: errors.New("disk on fire"), wantStatus: http.StatusInternalServerError, wantCode: CodeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := mapError(tt.err)
			require.Equal(t, tt.wantStatus, status)
			require.Equal(t, tt.wantCode, body.Code)
			if tt.wantCode == CodeInternal {
				require.NotContains(t, body.Message, "disk")
			}
		})
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil)
	res := s.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, res.Code)

	down := newTestServer(t, func(cfg *RouterConfig) { cfg.Health = failingHealth{} })
	res = down.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusServiceUnavailable, res.Code)
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t, nil)
	s.register(t, "jane@example.com")

	res := s.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": "JANE@example.com", "password": testPassword, "firstName": "J", "lastName": "D",
	})
	require.Equal(t, http.StatusConflict, res.Code)

	res = s.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email": "weak@example.com", "password": "password", "firstName": "W", "lastName": "K",
	})
	require.Equal(t, http.StatusBadRequest, res.Code)
	require.Equal(t, CodeWeakPassword, res.Error.Code)
	require.NotEmpty(t, res.Error.Missing)

	token := s.login(t, "jane@example.com")

	res = s.do(t, http.MethodGet, "/api/user/profile", token, nil)
	require.Equal(t, http.StatusOK, res.Code)
	var user domain.UserRecord
	require.NoError(t, json.Unmarshal(res.Data, &user))
	require.Equal(t, "jane@example.com", user.Email)
	require.Empty(t, user.Auth.PasswordHash)

	res = s.do(t, http.MethodPost, "/api/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, res.Code)

	res = s.do(t, http.MethodGet, "/api/user/profile", token, nil)
	require.Equal(t, http.StatusUnauthorized, res.Code)
	require.Equal(t, string(auth.CodeSessionExpired), res.Error.Code)
}

func TestLogin_Lockout(t *testing.T) {
	s := newTestServer(t, nil)
	s.register(t, "lock@example.com")

	bad := map[string]string{"email": "lock@example.com", "password": "Wrong1!pass"}
	for i := 0; i < 5; i++ {
		res := s.do(t, http.MethodPost, "/api/auth/login", "", bad)
		require.Equal(t, http.StatusUnauthorized, res.Code)
	}

	res := s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "lock@example.com", "password": testPassword,
	})
	require.Equal(t, http.StatusLocked, res.Code)
	require.Equal(t, "900", res.Header.Get("Retry-After"))

	s.clock.Advance(16 * time.Minute)
	s.login(t, "lock@example.com")
}

func TestPasswordReset(t *testing.T) {
	s := newTestServer(t, nil)
	s.register(t, "reset@example.com")

	res := s.do(t, http.MethodPost, "/api/auth/password-reset", "", map[string]string{"email": "nobody@example.com"})
	require.Equal(t, http.StatusAccepted, res.Code)
	require.Empty(t, s.mailer.last())

	res = s.do(t, http.MethodPost, "/api/auth/password-reset", "", map[string]string{"email": "reset@example.com"})
	require.Equal(t, http.StatusAccepted, res.Code)
	token := s.mailer.last()
	require.NotEmpty(t, token)

	res = s.do(t, http.MethodPost, "/api/auth/password-reset/confirm", "", map[string]string{
		"token": "bogus", "password": "N3w!Password",
	})
	require.Equal(t, http.StatusUnauthorized, res.Code)

	res = s.do(t, http.MethodPost, "/api/auth/password-reset/confirm", "", map[string]string{
		"token": token, "password": "N3w!Password",
	})
	require.Equal(t, http.StatusOK, res.Code)

	res = s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "reset@example.com", "password": "N3w!Password",
	})
	require.Equal(t, http.StatusOK, res.Code)
}

func TestProfileUpdate(t *testing.T) {
	s := newTestServer(t, nil)
	s.register(t, "p@example.com")
	token := s.login(t, "p@example.com")

	res := s.do(t, http.MethodPut, "/api/user/profile", token, map[string]any{
		"profile":     map[string]any{"firstName": "Pat", "address": map[string]any{"city": "Lisbon"}},
		"preferences": map[string]any{"theme": "light"},
	})
	require.Equal(t, http.StatusOK, res.Code)
	var user domain.UserRecord
	require.NoError(t, json.Unmarshal(res.Data, &user))
	require.Equal(t, "Pat", user.Profile.FirstName)
	require.Equal(t, "User", user.Profile.LastName)
	require.Equal(t, "light", user.Preferences.Theme)

	res = s.do(t, http.MethodPut, "/api/user/profile", token, map[string]any{"email": "x@example.com"})
	require.Equal(t, http.StatusBadRequest, res.Code)
	require.Equal(t, []string{"email"}, res.Error.Fields)
}

func TestWatchlistAndPortfolio(t *testing.T) {
	s := newTestServer(t, nil)
	s.register(t, "w@example.com")
	token := s.login(t, "w@example.com")

	res := s.do(t, http.MethodPost, "/api/user/watchlist", token, map[string]string{"symbol": "aapl"})
	require.Equal(t, http.StatusOK, res.Code)
	require.JSONEq(t, `{"symbol":"AAPL","added":true}`, string(res.Data))

	res = s.do(t, http.MethodPost, "/api/user/watchlist", token, map[string]string{"symbol": "AAPL"})
	require.JSONEq(t, `{"symbol":"AAPL","added":false}`, string(res.Data))

	res = s.do(t, http.MethodDelete, "/api/user/watchlist/MSFT", token, nil)
	require.Equal(t, http.StatusOK, res.Code)
	require.JSONEq(t, `{"symbol":"MSFT","removed":false}`, string(res.Data))

	res = s.do(t, http.MethodPost, "/api/portfolio/position", token, map[string]any{
		"symbol": "AAPL", "quantity": 10, "averagePrice": 100, "currentPrice": 110,
	})
	require.Equal(t, http.StatusCreated, res.Code)
	var pos domain.Position
	require.NoError(t, json.Unmarshal(res.Data, &pos))
	require.NotEmpty(t, pos.ID)

	res = s.do(t, http.MethodPut, "/api/portfolio/position/"+pos.ID, token, map[string]any{"currentPrice": 120})
	require.Equal(t, http.StatusOK, res.Code)

	res = s.do(t, http.MethodPut, "/api/portfolio/position/missing", token, map[string]any{"currentPrice": 1})
	require.Equal(t, http.StatusNotFound, res.Code)

	res = s.do(t, http.MethodGet, "/api/portfolio", token, nil)
	require.Equal(t, http.StatusOK, res.Code)
	var view struct {
		Positions []domain.Position      `json:"positions"`
		Watchlist []domain.WatchlistItem `json:"watchlist"`
	}
	require.NoError(t, json.Unmarshal(res.Data, &view))
	require.Len(t, view.Positions, 1)
	require.Len(t, view.Watchlist, 1)
}

func TestOrdersAndWatchlists(t *testing.T) {
	s := newTestServer(t, nil)
	s.register(t, "o@example.com")
	s.register(t, "other@example.com")
	token := s.login(t, "o@example.com")
	other := s.login(t, "other@example.com")

	res := s.do(t, http.MethodPost, "/api/orders", token, map[string]any{
		"symbol": "TSLA", "type": "market", "side": "buy", "quantity": 3,
	})
	require.Equal(t, http.StatusCreated, res.Code)

	res = s.do(t, http.MethodPost, "/api/orders", token, map[string]any{
		"symbol": "TSLA", "type": "teleport", "side": "buy", "quantity": 3,
	})
	require.Equal(t, http.StatusBadRequest, res.Code)

	res = s.do(t, http.MethodGet, "/api/orders", token, nil)
	require.Equal(t, http.StatusOK, res.Code)
	var orders []domain.Order
	require.NoError(t, json.Unmarshal(res.Data, &orders))
	require.Len(t, orders, 1)

	res = s.do(t, http.MethodGet, "/api/orders?limit=abc", token, nil)
	require.Equal(t, http.StatusBadRequest, res.Code)

	res = s.do(t, http.MethodPost, "/api/watchlists", token, map[string]any{
		"name": "Tech", "symbols": []string{"AAPL", "MSFT"},
	})
	require.Equal(t, http.StatusCreated, res.Code)
	var list domain.Watchlist
	require.NoError(t, json.Unmarshal(res.Data, &list))

	res = s.do(t, http.MethodPut, "/api/watchlists/"+list.ID, token, map[string]any{"name": "Big Tech"})
	require.Equal(t, http.StatusOK, res.Code)

	res = s.do(t, http.MethodPut, "/api/watchlists/"+list.ID, other, map[string]any{"name": "Mine"})
	require.Equal(t, http.StatusNotFound, res.Code)

	res = s.do(t, http.MethodDelete, "/api/watchlists/"+list.ID, other, nil)
	require.Equal(t, http.StatusNotFound, res.Code)

	res = s.do(t, http.MethodDelete, "/api/watchlists/"+list.ID, token, nil)
	require.Equal(t, http.StatusNoContent, res.Code)
}

func TestMarket(t *testing.T) {
	s := newTestServer(t, nil)
	s.register(t, "m@example.com")
	token := s.login(t, "m@example.com")

	require.NoError(t, s.market.UpsertTick(context.Background(), &domain.MarketTick{Symbol: "AAPL", Price: 175.5}))
	require.NoError(t, s.market.UpsertTick(context.Background(), &domain.MarketTick{Symbol: "MSFT", Price: 380}))

	res := s.do(t, http.MethodGet, "/api/market?symbols=AAPL,%20UNKNOWN", token, nil)
	require.Equal(t, http.StatusOK, res.Code)
	var ticks []domain.MarketTick
	require.NoError(t, json.Unmarshal(res.Data, &ticks))
	require.Len(t, ticks, 1)
	require.Equal(t, "AAPL", ticks[0].Symbol)

	res = s.do(t, http.MethodGet, "/api/market", token, nil)
	require.NoError(t, json.Unmarshal(res.Data, &ticks))
	require.Len(t, ticks, 2)
}

func TestAdminRoutes(t *testing.T) {
	s := newTestServer(t, nil)
	s.register(t, "u1@example.com")
	s.register(t, "u2@example.com")
	userToken := s.login(t, "u1@example.com")
	adminToken := s.adminLogin(t)

	res := s.do(t, http.MethodGet, "/api/admin/users", userToken, nil)
	require.Equal(t, http.StatusForbidden, res.Code)

	res = s.do(t, http.MethodGet, "/api/user/profile", adminToken, nil)
	require.Equal(t, http.StatusForbidden, res.Code)

	res = s.do(t, http.MethodGet, "/api/admin/users?limit=10", adminToken, nil)
	require.Equal(t, http.StatusOK, res.Code)
	var page Page[domain.UserRecord]
	require.NoError(t, json.Unmarshal(res.Data, &page))
	require.EqualValues(t, 2, page.Total)
	for _, u := range page.Items {
		require.Empty(t, u.Auth.PasswordHash)
	}

	res = s.do(t, http.MethodGet, "/api/admin/stats", adminToken, nil)
	require.Equal(t, http.StatusOK, res.Code)
	var stats domain.SystemStats
	require.NoError(t, json.Unmarshal(res.Data, &stats))
	require.Equal(t, 2, stats.TotalUsers)
	require.Equal(t, 1, stats.TotalAdmins)

	res = s.do(t, http.MethodGet, "/api/admin/analytics", adminToken, nil)
	require.Equal(t, http.StatusOK, res.Code)

	res = s.do(t, http.MethodDelete, "/api/admin/users/"+page.Items[0].ID, adminToken, nil)
	require.Equal(t, http.StatusNoContent, res.Code)

	res = s.do(t, http.MethodDelete, "/api/admin/users/"+page.Items[0].ID, adminToken, nil)
	require.Equal(t, http.StatusNotFound, res.Code)

	res = s.do(t, http.MethodPost, "/api/admin/login", "", map[string]string{
		"email": adminEmail, "password": "wrong",
	})
	require.Equal(t, http.StatusUnauthorized, res.Code)
}

func TestAdminPermissions(t *testing.T) {
	s := newTestServer(t, nil)
	adminToken := s.adminLogin(t)

	admins, err := s.repos.Admin.List(context.Background(), repository.ListOptions{})
	require.NoError(t, err)
	require.Len(t, admins.Items, 1)
	root := admins.Items[0]
	root.Auth.Role = domain.RoleSupport
	root.Auth.Permissions = []string{"support"}
	require.NoError(t, s.repos.Admin.Update(context.Background(), root))

	res := s.do(t, http.MethodGet, "/api/admin/users", adminToken, nil)
	require.Equal(t, http.StatusForbidden, res.Code)

	res = s.do(t, http.MethodGet, "/api/admin/analytics", adminToken, nil)
	require.Equal(t, http.StatusForbidden, res.Code)

	res = s.do(t, http.MethodGet, "/api/admin/stats", adminToken, nil)
	require.Equal(t, http.StatusOK, res.Code)
}

func TestMalformedBody(t *testing.T) {
	s := newTestServer(t, func(cfg *RouterConfig) { cfg.MaxBodySize = 64 })

	r := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewBufferString("{not json"))
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, r)
	require.Equal(t, http.StatusBadRequest, w.Code)

	big := bytes.Repeat([]byte("a"), 128)
	r = httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewBufferString(`{"email":"`+string(big)+`"}`))
	w = httptest.NewRecorder()
	s.handler.ServeHTTP(w, r)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "too large")
}

func TestRateLimiter(t *testing.T) {
	limiter := NewRateLimiter(config.RateLimitConfig{Enabled: true, Requests: 2, Window: time.Minute})
	now := testStart
	limiter.now = func() time.Time { return now }

	require.True(t, limiter.Allow("10.0.0.1"))
	require.True(t, limiter.Allow("10.0.0.1"))
	require.False(t, limiter.Allow("10.0.0.1"))
	require.True(t, limiter.Allow("10.0.0.2"))

	now = now.Add(30 * time.Second)
	require.True(t, limiter.Allow("10.0.0.1"))

	s := newTestServer(t, func(cfg *RouterConfig) {
		cfg.RateLimiter = NewRateLimiter(config.RateLimitConfig{Requests: 1, Window: time.Hour})
	})
	res := s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "a@b.c", "password": "x"})
	require.Equal(t, http.StatusUnauthorized, res.Code)
	res = s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "a@b.c", "password": "x"})
	require.Equal(t, http.StatusTooManyRequests, res.Code)
	require.Equal(t, CodeRateLimited, res.Error.Code)

	res = s.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, res.Code)
}

func TestCORS(t *testing.T) {
	s := newTestServer(t, func(cfg *RouterConfig) {
		cfg.CORS.AllowedOrigins = []string{"https://app.example.com"}
	})

	preflight := func(origin string) http.Header {
		r := httptest.NewRequest(http.MethodOptions, "/api/market", nil)
		r.Header.Set("Origin", origin)
		r.Header.Set("Access-Control-Request-Method", http.MethodGet)
		w := httptest.NewRecorder()
		s.handler.ServeHTTP(w, r)
		return w.Header()
	}

	h := preflight("https://app.example.com")
	require.Equal(t, "https://app.example.com", h.Get("Access-Control-Allow-Origin"))
	require.Empty(t, h.Get("Access-Control-Allow-Credentials"))

	h = preflight("https://elsewhere.example.org")
	require.Empty(t, h.Get("Access-Control-Allow-Origin"))
	require.Empty(t, h.Get("Access-Control-Allow-Credentials"))
}

func TestRegisterPasswordTooLong(t *testing.T) {
	s := newTestServer(t, nil)
	res := s.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email":     "long@example.com",
		"password":  "Aa1!" + strings.Repeat("a", 80),
		"firstName": "Long",
		"lastName":  "Password",
	})
	require.Equal(t, http.StatusBadRequest, res.Code)
	require.NotNil(t, res.Error)
	require.Equal(t, CodeValidation, res.Error.Code)
}
