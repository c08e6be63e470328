package service

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/scan-track-service/internal/auth"
	"github.com/spec-kit/scan-track-service/internal/config"
	"github.com/spec-kit/scan-track-service/internal/domain"
	"github.com/spec-kit/scan-track-service/internal/repository"
	apperrors "github.com/spec-kit/scan-track-service/pkg/util"
)

// Actor is the authenticated caller plus their resolved department, passed as
// the mandatory first argument to every engine operation so permission checks
// are never bypassable. Department is nil for users without one.
type Actor struct {
	User       *domain.User
	Department *domain.Department
}

// AuthService coordinates credential verification and token issuance.
type AuthService struct {
	users      repository.UserRepository
	tokenMgr   *auth.TokenManager
	bcryptCost int
}

// NewAuthService builds the service.
func NewAuthService(cfg config.AuthConfig, users repository.UserRepository) *AuthService {
	return &AuthService{
		users:      users,
		tokenMgr:   auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTLMinutes),
		bcryptCost: cfg.BcryptCost,
	}
}

// Authenticate verifies a username/password pair and issues a token.
func (s *AuthService) Authenticate(ctx context.Context, username, password string) (*domain.User, string, time.Time, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid username or password")
		}
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	if err := auth.ComparePassword(user.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid username or password")
	}
	token, exp, err := s.tokenMgr.GenerateToken(user)
	if err != nil {
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	return user, token, exp, nil
}

// ChangePassword verifies the current password before updating to a new hash.
func (s *AuthService) ChangePassword(ctx context.Context, actor Actor, currentPassword, newPassword string) error {
	if actor.User == nil {
		return apperrors.NewUnauthorized("authentication required")
	}
	if newPassword == "" {
		return apperrors.NewValidationError("new password required", nil)
	}

	user, err := s.users.GetByID(ctx, actor.User.ID)
	if err != nil {
		return apperrors.MapError(err)
	}
	if err := auth.ComparePassword(user.PasswordHash, currentPassword); err != nil {
		return apperrors.NewUnauthorized("invalid credentials")
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return apperrors.MapError(err)
	}
	user.PasswordHash = hash
	if err := s.users.Update(ctx, user); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

// EnsureBootstrapAdmin creates or repairs the admin account configured via
// ADMIN_USERNAME/ADMIN_PASSWORD so the system is never left without an admin.
func (s *AuthService) EnsureBootstrapAdmin(ctx context.Context, cfg config.AuthConfig, logger *zap.Logger) error {
	password := cfg.AdminPassword
	if password == "" {
		password = "password"
		logger.Warn("ADMIN_PASSWORD not set; using default bootstrap password")
	}

	existing, err := s.users.GetByUsername(ctx, cfg.AdminUsername)
	if err == nil {
		if existing.Role != domain.RoleAdmin {
			existing.Role = domain.RoleAdmin
			if err := s.users.Update(ctx, existing); err != nil {
				return err
			}
			logger.Info("restored admin role on bootstrap account", zap.String("username", cfg.AdminUsername))
		}
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return err
	}

	hash, err := auth.HashPassword(password, s.bcryptCost)
	if err != nil {
		return err
	}
	admin := &domain.User{
		Username:     cfg.AdminUsername,
		PasswordHash: hash,
		Role:         domain.RoleAdmin,
	}
	if err := s.users.Create(ctx, admin); err != nil {
		return err
	}
	logger.Info("created bootstrap admin account", zap.String("username", cfg.AdminUsername))
	return nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}
