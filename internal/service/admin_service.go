package service

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/prn-tf/tradehub/internal/domain"
	"github.com/prn-tf/tradehub/internal/lock"
	"github.com/prn-tf/tradehub/internal/pkg/crypto"
	"github.com/prn-tf/tradehub/internal/repository"
)

// generatedPasswordLength is the length of a bootstrap password created
// when none is configured.
const generatedPasswordLength = 16

// AdminService handles back-office operations.
type AdminService struct {
	adminRepo repository.AdminRepository
	userRepo  repository.UserRepository
	orderRepo repository.OrderRepository
	users     *UserService
	locker    lock.Locker
	hasher    crypto.PasswordHasher
	clock     Clock
	logger    zerolog.Logger
}

// AdminServiceConfig holds the dependencies of an AdminService.
type AdminServiceConfig struct {
	Admins      repository.AdminRepository
	Users       repository.UserRepository
	Orders      repository.OrderRepository
	UserService *UserService
	Locker      lock.Locker
	Hasher      crypto.PasswordHasher
	Clock       Clock
	Logger      zerolog.Logger
}

// NewAdminService creates a new AdminService.
func NewAdminService(cfg AdminServiceConfig) *AdminService {
	if cfg.Locker == nil {
		cfg.Locker = lock.NewNoOpLocker()
	}
	if cfg.Clock == nil {
		cfg.Clock = SystemClock{}
	}
	if cfg.Hasher == nil {
		cfg.Hasher = crypto.NewBcryptHasher(0)
	}
	return &AdminService{
		adminRepo: cfg.Admins,
		userRepo:  cfg.Users,
		orderRepo: cfg.Orders,
		users:     cfg.UserService,
		locker:    cfg.Locker,
		hasher:    cfg.Hasher,
		clock:     cfg.Clock,
		logger:    cfg.Logger.With().Str("service", "admin").Logger(),
	}
}

// CreateAdminInput contains the data needed to create an admin.
type CreateAdminInput struct {
	Email       string   `json:"email" validate:"required,email"`
	Password    string   `json:"password" validate:"required,min=8"`
	FirstName   string   `json:"firstName"`
	LastName    string   `json:"lastName"`
	Role        string   `json:"role" validate:"required,oneof=super_admin admin support"`
	Permissions []string `json:"permissions"`
	CreatedBy   string   `json:"-"`
}

// CreateAdmin stores a new active admin.
func (s *AdminService) CreateAdmin(ctx context.Context, input CreateAdminInput) (*domain.AdminRecord, error) {
	input.Email = strings.TrimSpace(input.Email)
	if err := validateInput(input); err != nil {
		return nil, err
	}
	if err := domain.CheckPasswordLength(input.Password); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, internal(err)
	}

	now := s.clock.Now()
	perms := input.Permissions
	if input.Role == domain.RoleSuperAdmin && len(perms) == 0 {
		perms = append([]string(nil), domain.SuperAdminPermissions...)
	}
	if perms == nil {
		perms = []string{}
	}
	createdBy := input.CreatedBy
	if createdBy == "" {
		createdBy = "system"
	}

	admin := &domain.AdminRecord{
		ID:    uuid.NewString(),
		Email: domain.NormalizeEmail(input.Email),
		Profile: domain.AdminProfile{
			FirstName: input.FirstName,
			LastName:  input.LastName,
		},
		Auth: domain.AdminAuth{
			PasswordHash: hash,
			Role:         input.Role,
			Permissions:  perms,
			IsActive:     true,
		},
		Metadata: domain.AdminMetadata{
			CreatedAt:   now,
			CreatedBy:   createdBy,
			LastUpdated: now,
		},
	}

	if err := s.adminRepo.Create(ctx, admin); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, domain.ErrDuplicateEmail
		}
		s.logger.Error().Err(err).Msg("failed to create admin")
		return nil, internal(err)
	}

	s.logger.Info().Str("admin_id", admin.ID).Str("role", admin.Auth.Role).Msg("admin created")
	return admin.Sanitized(), nil
}

// EnsureDefaultAdmin creates the bootstrap super admin when no super admin
// exists. When password is empty a random one is generated and returned so
// the caller can show it once.
func (s *AdminService) EnsureDefaultAdmin(ctx context.Context, email, password string) (created bool, generated string, err error) {
	if email == "" {
		email = domain.DefaultAdminEmail
	}

	err = lock.WithLock(ctx, s.locker, lock.Keys.DefaultAdmin(), func(ctx context.Context) error {
		n, err := s.adminRepo.CountByRole(ctx, domain.RoleSuperAdmin)
		if err != nil {
			return err
		}
		if n > 0 {
			return nil
		}

		if password == "" {
			password, err = crypto.GenerateToken(generatedPasswordLength / 2)
			if err != nil {
				return err
			}
			generated = password
		}

		_, err = s.CreateAdmin(ctx, CreateAdminInput{
			Email:     email,
			Password:  password,
			FirstName: "Super",
			LastName:  "Admin",
			Role:      domain.RoleSuperAdmin,
		})
		if err != nil {
			return err
		}
		created = true
		return nil
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to ensure default admin")
		return false, "", internal(err)
	}

	if created {
		s.logger.Info().Str("email", domain.NormalizeEmail(email)).Msg("default super admin created")
	}
	return created, generated, nil
}

// Authorize returns the admin behind a session if it is active and holds
// the permission. An empty permission only checks that the admin is active.
func (s *AdminService) Authorize(ctx context.Context, adminID, permission string) (*domain.AdminRecord, error) {
	admin, err := s.adminRepo.GetByID(ctx, adminID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, domain.ErrAccessDenied
		}
		return nil, internal(err)
	}
	if !admin.Auth.IsActive {
		return nil, domain.ErrAccessDenied
	}
	if permission != "" && !admin.HasPermission(permission) {
		return nil, domain.ErrAccessDenied
	}
	return admin.Sanitized(), nil
}

// Stats counts users, orders and admins concurrently.
func (s *AdminService) Stats(ctx context.Context) (*domain.SystemStats, error) {
	stats := &domain.SystemStats{GeneratedAt: s.clock.Now()}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.userRepo.Count(ctx)
		stats.TotalUsers = n
		return err
	})
	g.Go(func() error {
		n, err := s.countActiveUsers(ctx)
		stats.ActiveUsers = n
		return err
	})
	g.Go(func() error {
		n, err := s.orderRepo.Count(ctx)
		stats.TotalOrders = n
		return err
	})
	g.Go(func() error {
		n, err := s.orderRepo.CountByStatus(ctx, domain.OrderPending)
		stats.PendingOrders = n
		return err
	})
	g.Go(func() error {
		n, err := s.adminRepo.Count(ctx)
		stats.TotalAdmins = n
		return err
	})

	if err := g.Wait(); err != nil {
		s.logger.Error().Err(err).Msg("failed to compute system stats")
		return nil, internal(err)
	}
	return stats, nil
}

func (s *AdminService) countActiveUsers(ctx context.Context) (int, error) {
	res, err := s.userRepo.List(ctx, repository.ListOptions{})
	if err != nil {
		return 0, err
	}
	n := 0
	for _, u := range res.Items {
		if u.Account.Status == domain.StatusActive {
			n++
		}
	}
	return n, nil
}

// ListUsers returns a sanitized page of users.
func (s *AdminService) ListUsers(ctx context.Context, limit, offset int) (*repository.ListResult[domain.UserRecord], error) {
	return s.users.ListUsers(ctx, limit, offset)
}

// DeleteUser permanently deletes a user.
func (s *AdminService) DeleteUser(ctx context.Context, id string) error {
	return s.users.DeleteUser(ctx, id)
}

// Analytics returns the user analytics.
func (s *AdminService) Analytics(ctx context.Context) (*domain.UserAnalytics, error) {
	return s.users.GetUserAnalytics(ctx)
}

// ListAdmins returns a sanitized page of admins.
func (s *AdminService) ListAdmins(ctx context.Context, limit, offset int) (*repository.ListResult[domain.AdminRecord], error) {
	res, err := s.adminRepo.List(ctx, repository.ListOptions{Limit: limit, Offset: offset})
	if err != nil {
		return nil, internal(err)
	}
	for i, a := range res.Items {
		res.Items[i] = a.Sanitized()
	}
	return res, nil
}
