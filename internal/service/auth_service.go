package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/prn-tf/tradehub/internal/domain"
	"github.com/prn-tf/tradehub/internal/lock"
	"github.com/prn-tf/tradehub/internal/metrics"
	"github.com/prn-tf/tradehub/internal/pkg/crypto"
	"github.com/prn-tf/tradehub/internal/repository"
)

// ipHistoryLimit is the number of sign-in addresses kept on a record.
const ipHistoryLimit = 10

// Mailer delivers account emails.
type Mailer interface {
	SendPasswordReset(ctx context.Context, to, name, token string) error
}

// AuthPolicy holds the authentication limits.
type AuthPolicy struct {
	MaxLoginAttempts int
	LockoutDuration  time.Duration
	MinPasswordScore int
	SessionTTL       time.Duration
	RememberTTL      time.Duration
	ResetTokenTTL    time.Duration
}

// DefaultAuthPolicy returns the stock limits.
func DefaultAuthPolicy() AuthPolicy {
	return AuthPolicy{
		MaxLoginAttempts: 5,
		LockoutDuration:  15 * time.Minute,
		MinPasswordScore: 4,
		SessionTTL:       12 * time.Hour,
		RememberTTL:      30 * 24 * time.Hour,
		ResetTokenTTL:    time.Hour,
	}
}

// AuthService handles registration, sign-in and sessions.
type AuthService struct {
	users         *UserService
	userRepo      repository.UserRepository
	adminRepo     repository.AdminRepository
	sessions      *SessionStore
	userAttempts  *attemptTracker
	adminAttempts *attemptTracker
	locker        lock.Locker
	hasher        crypto.PasswordHasher
	mailer        Mailer
	clock         Clock
	metrics       *metrics.Metrics
	policy        AuthPolicy
	logger        zerolog.Logger
}

// AuthServiceConfig holds the dependencies of an AuthService.
type AuthServiceConfig struct {
	Users    *UserService
	UserRepo repository.UserRepository
	Admins   repository.AdminRepository
	Cache    repository.Cache
	Locker   lock.Locker
	Hasher   crypto.PasswordHasher
	Mailer   Mailer
	Clock    Clock
	Metrics  *metrics.Metrics
	Policy   AuthPolicy
	Logger   zerolog.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(cfg AuthServiceConfig) *AuthService {
	if cfg.Locker == nil {
		cfg.Locker = lock.NewNoOpLocker()
	}
	if cfg.Clock == nil {
		cfg.Clock = SystemClock{}
	}
	if cfg.Hasher == nil {
		cfg.Hasher = crypto.NewBcryptHasher(0)
	}
	def := DefaultAuthPolicy()
	if cfg.Policy.MaxLoginAttempts <= 0 {
		cfg.Policy.MaxLoginAttempts = def.MaxLoginAttempts
	}
	if cfg.Policy.LockoutDuration <= 0 {
		cfg.Policy.LockoutDuration = def.LockoutDuration
	}
	if cfg.Policy.SessionTTL <= 0 {
		cfg.Policy.SessionTTL = def.SessionTTL
	}
	if cfg.Policy.RememberTTL <= 0 {
		cfg.Policy.RememberTTL = def.RememberTTL
	}
	if cfg.Policy.ResetTokenTTL <= 0 {
		cfg.Policy.ResetTokenTTL = def.ResetTokenTTL
	}

	return &AuthService{
		users:     cfg.Users,
		userRepo:  cfg.UserRepo,
		adminRepo: cfg.Admins,
		sessions:  NewSessionStore(cfg.Cache, cfg.Clock),
		userAttempts: &attemptTracker{
			cache:       cfg.Cache,
			key:         cacheKeys.LoginAttempts,
			maxAttempts: cfg.Policy.MaxLoginAttempts,
			lockout:     cfg.Policy.LockoutDuration,
		},
		adminAttempts: &attemptTracker{
			cache:       cfg.Cache,
			key:         cacheKeys.AdminLoginAttempts,
			maxAttempts: cfg.Policy.MaxLoginAttempts,
			lockout:     cfg.Policy.LockoutDuration,
		},
		locker:  cfg.Locker,
		hasher:  cfg.Hasher,
		mailer:  cfg.Mailer,
		clock:   cfg.Clock,
		metrics: cfg.Metrics,
		policy:  cfg.Policy,
		logger:  cfg.Logger.With().Str("service", "auth").Logger(),
	}
}

// Sessions returns the session store.
func (s *AuthService) Sessions() *SessionStore {
	return s.sessions
}

// =============================================================================
// Registration
// =============================================================================

// RegisterInput contains the data needed to register a user.
type RegisterInput struct {
	Email             string `json:"email" validate:"required,email"`
	Password          string `json:"password" validate:"required"`
	FirstName         string `json:"firstName" validate:"required"`
	LastName          string `json:"lastName" validate:"required"`
	Phone             string `json:"phone"`
	AccountType       string `json:"accountType"`
	TradingExperience string `json:"tradingExperience"`
	Source            string `json:"source"`
	ReferredBy        string `json:"referredBy"`
}

// Register creates a user. A taken email is reported before the password
// strength is checked.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*domain.UserRecord, error) {
	input.Email = strings.TrimSpace(input.Email)
	if err := validateInput(input); err != nil {
		return nil, err
	}

	exists, err := s.userRepo.ExistsByEmail(ctx, input.Email)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to check email existence")
		return nil, internal(err)
	}
	if exists {
		return nil, domain.ErrDuplicateEmail
	}

	if err := domain.CheckPassword(input.Password, s.policy.MinPasswordScore); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to hash password")
		return nil, internal(err)
	}

	user, err := s.users.CreateUser(ctx, CreateUserInput{
		Email:             input.Email,
		FirstName:         input.FirstName,
		LastName:          input.LastName,
		PasswordHash:      hash,
		Phone:             input.Phone,
		AccountType:       input.AccountType,
		TradingExperience: input.TradingExperience,
		Source:            input.Source,
		ReferredBy:        input.ReferredBy,
	})
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveRegistration()
	return user, nil
}

// =============================================================================
// Sign-in
// =============================================================================

// SignInInput contains the credentials of a sign-in.
type SignInInput struct {
	Email     string `json:"email" validate:"required"`
	Password  string `json:"password" validate:"required"`
	Remember  bool   `json:"rememberMe"`
	IPAddress string `json:"-"`
}

// SignInResult is returned by a successful user sign-in.
type SignInResult struct {
	User    *domain.UserRecord `json:"user"`
	Session *domain.Session    `json:"session"`
}

// SignIn verifies the credentials and opens a session.
func (s *AuthService) SignIn(ctx context.Context, input SignInInput) (*SignInResult, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}
	email := domain.NormalizeEmail(input.Email)
	kind := string(domain.SessionUser)
	now := s.clock.Now()

	attempts, err := s.userAttempts.load(ctx, email)
	if err != nil {
		return nil, internal(err)
	}
	if wait := s.userAttempts.retryAfter(attempts, now); wait > 0 {
		s.metrics.ObserveLogin(kind, metrics.LoginLocked)
		return nil, &domain.LockedOutError{RetryAfter: wait}
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil && !repository.IsNotFound(err) {
		s.logger.Error().Err(err).Msg("failed to load user for sign-in")
		return nil, internal(err)
	}
	if user == nil || s.hasher.Compare(user.Auth.PasswordHash, input.Password) != nil {
		return nil, s.recordUserFailure(ctx, email, user, now)
	}
	if !user.CanAuthenticate() {
		s.metrics.ObserveLogin(kind, metrics.LoginFailure)
		return nil, domain.ErrUserInactive
	}

	updated, err := mutateUser(ctx, s.userRepo, s.locker, s.clock, user.ID, func(rec *domain.UserRecord) error {
		rec.Auth.LoginAttempts = 0
		rec.Auth.LockUntil = nil
		rec.Auth.LastLogin = &now
		rec.Metadata.LastActiveAt = now
		if input.IPAddress != "" {
			rec.Auth.IPHistory = appendIP(rec.Auth.IPHistory, input.IPAddress)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if err := s.userAttempts.clear(ctx, email); err != nil {
		s.logger.Warn().Err(err).Msg("failed to clear login attempts")
	}

	sess, err := s.openSession(ctx, domain.SessionUser, updated.ID, updated.Email, input.Remember, input.IPAddress)
	if err != nil {
		return nil, err
	}

	s.metrics.ObserveLogin(kind, metrics.LoginSuccess)
	s.logger.Info().Str("user_id", updated.ID).Bool("remember", input.Remember).Msg("user signed in")

	return &SignInResult{User: updated.Sanitized(), Session: sess}, nil
}

// recordUserFailure counts a failed attempt and mirrors it onto the record
// when the email belongs to a user. It always returns ErrInvalidCredentials
// unless the bookkeeping itself fails.
func (s *AuthService) recordUserFailure(ctx context.Context, email string, user *domain.UserRecord, now time.Time) error {
	s.metrics.ObserveLogin(string(domain.SessionUser), metrics.LoginFailure)

	attempts, err := s.userAttempts.fail(ctx, email, now)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to record login attempt")
		return internal(err)
	}

	if user != nil {
		_, err := mutateUser(ctx, s.userRepo, s.locker, s.clock, user.ID, func(rec *domain.UserRecord) error {
			rec.Auth.LoginAttempts = attempts.Count
			if attempts.Count >= s.policy.MaxLoginAttempts {
				until := now.Add(s.policy.LockoutDuration)
				rec.Auth.LockUntil = &until
			}
			return nil
		})
		if err != nil {
			s.logger.Warn().Err(err).Str("user_id", user.ID).Msg("failed to store login attempts on record")
		}
	}

	if attempts.Count >= s.policy.MaxLoginAttempts {
		s.logger.Warn().Int("attempts", attempts.Count).Msg("login identity locked")
	}
	return domain.ErrInvalidCredentials
}

// SignInAdmin verifies back-office credentials and opens an admin session.
func (s *AuthService) SignInAdmin(ctx context.Context, email, password, ip string) (*domain.AdminRecord, *domain.Session, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, nil, domain.NewValidationError("missing or invalid fields", "email", "password")
	}
	email = domain.NormalizeEmail(email)
	kind := string(domain.SessionAdmin)
	now := s.clock.Now()

	attempts, err := s.adminAttempts.load(ctx, email)
	if err != nil {
		return nil, nil, internal(err)
	}
	if wait := s.adminAttempts.retryAfter(attempts, now); wait > 0 {
		s.metrics.ObserveLogin(kind, metrics.LoginLocked)
		return nil, nil, &domain.LockedOutError{RetryAfter: wait}
	}

	admin, err := s.adminRepo.GetByEmail(ctx, email)
	if err != nil && !repository.IsNotFound(err) {
		s.logger.Error().Err(err).Msg("failed to load admin for sign-in")
		return nil, nil, internal(err)
	}
	if admin == nil || s.hasher.Compare(admin.Auth.PasswordHash, password) != nil {
		s.metrics.ObserveLogin(kind, metrics.LoginFailure)
		if _, err := s.adminAttempts.fail(ctx, email, now); err != nil {
			return nil, nil, internal(err)
		}
		return nil, nil, domain.ErrInvalidCredentials
	}
	if !admin.Auth.IsActive {
		s.metrics.ObserveLogin(kind, metrics.LoginFailure)
		return nil, nil, domain.ErrAccessDenied
	}

	err = lock.WithLock(ctx, s.locker, lock.Keys.Admin(admin.ID), func(ctx context.Context) error {
		current, err := s.adminRepo.GetByID(ctx, admin.ID)
		if err != nil {
			return err
		}
		current.Auth.LastLogin = &now
		current.Metadata.LastUpdated = now
		if err := s.adminRepo.Update(ctx, current); err != nil {
			return err
		}
		admin = current
		return nil
	})
	if err != nil {
		s.logger.Error().Err(err).Str("admin_id", admin.ID).Msg("failed to update admin last login")
		return nil, nil, internal(err)
	}
	if err := s.adminAttempts.clear(ctx, email); err != nil {
		s.logger.Warn().Err(err).Msg("failed to clear admin login attempts")
	}

	sess, err := s.openSession(ctx, domain.SessionAdmin, admin.ID, admin.Email, false, ip)
	if err != nil {
		return nil, nil, err
	}

	s.metrics.ObserveLogin(kind, metrics.LoginSuccess)
	s.logger.Info().Str("admin_id", admin.ID).Msg("admin signed in")
	return admin.Sanitized(), sess, nil
}

func (s *AuthService) openSession(ctx context.Context, kind domain.SessionKind, subject, email string, remember bool, ip string) (*domain.Session, error) {
	now := s.clock.Now()
	ttl := s.policy.SessionTTL
	if remember {
		ttl = s.policy.RememberTTL
	}

	sess := &domain.Session{
		ID:        uuid.NewString(),
		Subject:   subject,
		Email:     email,
		Kind:      kind,
		Remember:  remember,
		IssuedAt:  now,
		ExpiresAt: now.Add(ttl),
		IPAddress: ip,
	}
	if err := s.sessions.Save(ctx, sess); err != nil {
		s.logger.Error().Err(err).Msg("failed to store session")
		return nil, internal(err)
	}
	s.metrics.SessionOpened()
	return sess, nil
}

func appendIP(history []string, ip string) []string {
	out := make([]string, 0, len(history)+1)
	for _, h := range history {
		if h != ip {
			out = append(out, h)
		}
	}
	out = append(out, ip)
	if len(out) > ipHistoryLimit {
		out = out[len(out)-ipHistoryLimit:]
	}
	return out
}

// =============================================================================
// Sessions
// =============================================================================

// SignOut removes the session. Signing out twice is not an error.
func (s *AuthService) SignOut(ctx context.Context, sessionID string) error {
	existed, err := s.sessions.Delete(ctx, sessionID)
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to delete session")
		return internal(err)
	}
	if existed {
		s.metrics.SessionClosed()
		s.logger.Debug().Str("session_id", sessionID).Msg("session closed")
	}
	return nil
}

// IsAuthenticated reports whether the session exists and has not expired.
func (s *AuthService) IsAuthenticated(ctx context.Context, sessionID string) bool {
	_, err := s.sessions.Get(ctx, sessionID)
	return err == nil
}

// CurrentSession returns the live session or domain.ErrSessionNotFound.
func (s *AuthService) CurrentSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			return nil, err
		}
		return nil, internal(err)
	}
	return sess, nil
}

// =============================================================================
// Password reset
// =============================================================================

// RequestPasswordReset stores a digest of a fresh reset token on the record
// and mails the token to the user.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if repository.IsNotFound(err) {
			return domain.ErrUserNotFound
		}
		return internal(err)
	}

	token, err := crypto.GenerateResetToken()
	if err != nil {
		return internal(err)
	}
	expires := s.clock.Now().Add(s.policy.ResetTokenTTL)

	_, err = mutateUser(ctx, s.userRepo, s.locker, s.clock, user.ID, func(rec *domain.UserRecord) error {
		rec.Auth.PasswordResetToken = crypto.ComputeSHA256(token)
		rec.Auth.PasswordResetExpires = &expires
		return nil
	})
	if err != nil {
		return err
	}

	if s.mailer != nil {
		if err := s.mailer.SendPasswordReset(ctx, user.Email, user.FullName(), token); err != nil {
			s.logger.Error().Err(err).Str("user_id", user.ID).Msg("failed to send password reset email")
			return internal(err)
		}
	}

	s.logger.Info().Str("user_id", user.ID).Msg("password reset requested")
	return nil
}

// ResetPassword replaces the password of the user holding a valid reset
// token. Unknown and expired tokens return ErrInvalidCredentials.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if token == "" {
		return domain.ErrInvalidCredentials
	}
	digest := crypto.ComputeSHA256(token)

	user, err := s.userRepo.FindOne(ctx, repository.Eq("auth.passwordResetToken", digest))
	if err != nil {
		if repository.IsNotFound(err) {
			return domain.ErrInvalidCredentials
		}
		return internal(err)
	}
	now := s.clock.Now()
	if user.Auth.PasswordResetExpires == nil || !now.Before(*user.Auth.PasswordResetExpires) {
		return domain.ErrInvalidCredentials
	}

	if err := domain.CheckPassword(newPassword, s.policy.MinPasswordScore); err != nil {
		return err
	}
	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return internal(err)
	}

	_, err = mutateUser(ctx, s.userRepo, s.locker, s.clock, user.ID, func(rec *domain.UserRecord) error {
		if !crypto.EqualDigest(rec.Auth.PasswordResetToken, digest) {
			return domain.ErrInvalidCredentials
		}
		rec.Auth.PasswordHash = hash
		rec.Auth.PasswordResetToken = ""
		rec.Auth.PasswordResetExpires = nil
		rec.Auth.LoginAttempts = 0
		rec.Auth.LockUntil = nil
		return nil
	})
	if err != nil {
		return err
	}
	if err := s.userAttempts.clear(ctx, user.Email); err != nil {
		s.logger.Warn().Err(err).Msg("failed to clear login attempts")
	}

	s.logger.Info().Str("user_id", user.ID).Msg("password reset")
	return nil
}
