package service

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/scan-track-service/internal/auth"
	"github.com/spec-kit/scan-track-service/internal/authz"
	"github.com/spec-kit/scan-track-service/internal/domain"
	"github.com/spec-kit/scan-track-service/internal/repository"
	apperrors "github.com/spec-kit/scan-track-service/pkg/util"
)

// IdentityService manages user accounts and departments. All mutations are
// admin-only per the permission rules.
type IdentityService struct {
	users       repository.UserRepository
	departments repository.DepartmentRepository
	policy      authz.Policy
	bcryptCost  int
}

// IdentityDependencies bundles repositories for the identity service.
type IdentityDependencies struct {
	UserRepo       repository.UserRepository
	DepartmentRepo repository.DepartmentRepository
}

// NewIdentityService builds the service.
func NewIdentityService(deps IdentityDependencies, policy authz.Policy, bcryptCost int) *IdentityService {
	return &IdentityService{
		users:       deps.UserRepo,
		departments: deps.DepartmentRepo,
		policy:      policy,
		bcryptCost:  bcryptCost,
	}
}

// UserCreateInput describes the user creation payload.
type UserCreateInput struct {
	Username     string
	Password     string
	DepartmentID *string
	Role         domain.Role
	IsManager    bool
}

// UserUpdateInput describes the editable user fields. Nil fields are left untouched.
type UserUpdateInput struct {
	Password     *string
	DepartmentID *string
	Role         *domain.Role
	IsManager    *bool
}

// CreateUser registers a new account (admin only).
func (s *IdentityService) CreateUser(ctx context.Context, actor Actor, input UserCreateInput) (*domain.User, error) {
	if err := authz.Require(actor.User, actor.Department, authz.ActionManageUsers, s.policy); err != nil {
		return nil, err
	}

	username := strings.TrimSpace(input.Username)
	if username == "" || input.Password == "" {
		return nil, apperrors.NewValidationError("username and password required", nil)
	}
	role := input.Role
	if role == "" {
		role = domain.RoleStandard
	}

	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return nil, apperrors.NewConflict("username already taken", map[string]any{"username": username})
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	if input.DepartmentID != nil {
		if _, err := s.departments.GetByID(ctx, *input.DepartmentID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewNotFound("department", map[string]any{"department_id": *input.DepartmentID})
			}
			return nil, apperrors.MapError(err)
		}
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	user := &domain.User{
		Username:     username,
		PasswordHash: hash,
		DepartmentID: input.DepartmentID,
		Role:         role,
		IsManager:    input.IsManager,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewConflict("username already taken", map[string]any{"username": username})
		}
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// UpdateUser edits an account (admin only). The manager flag can be granted to
// a standard-department user here without changing their role.
func (s *IdentityService) UpdateUser(ctx context.Context, actor Actor, userID string, input UserUpdateInput) (*domain.User, error) {
	if err := authz.Require(actor.User, actor.Department, authz.ActionManageUsers, s.policy); err != nil {
		return nil, err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"user_id": userID})
		}
		return nil, apperrors.MapError(err)
	}

	if input.Role != nil && *input.Role != user.Role {
		// Demoting the last admin would lock everyone out, same as deleting them.
		if user.Role == domain.RoleAdmin {
			if err := s.requireAnotherAdmin(ctx, user); err != nil {
				return nil, err
			}
		}
		user.Role = *input.Role
	}
	if input.Password != nil && *input.Password != "" {
		hash, err := auth.HashPassword(*input.Password, s.bcryptCost)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		user.PasswordHash = hash
	}
	if input.DepartmentID != nil {
		if _, err := s.departments.GetByID(ctx, *input.DepartmentID); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, apperrors.NewNotFound("department", map[string]any{"department_id": *input.DepartmentID})
			}
			return nil, apperrors.MapError(err)
		}
		user.DepartmentID = input.DepartmentID
	}
	if input.IsManager != nil {
		user.IsManager = *input.IsManager
	}

	if err := s.users.Update(ctx, user); err != nil {
		return nil, apperrors.MapError(err)
	}
	return user, nil
}

// DeleteUser removes an account (admin only); deleting the last admin is rejected.
func (s *IdentityService) DeleteUser(ctx context.Context, actor Actor, userID string) error {
	if err := authz.Require(actor.User, actor.Department, authz.ActionManageUsers, s.policy); err != nil {
		return err
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("user", map[string]any{"user_id": userID})
		}
		return apperrors.MapError(err)
	}
	if user.Role == domain.RoleAdmin {
		if err := s.requireAnotherAdmin(ctx, user); err != nil {
			return err
		}
	}

	if err := s.users.Delete(ctx, userID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("user", map[string]any{"user_id": userID})
		}
		return apperrors.MapError(err)
	}
	return nil
}

// ListUsers returns all accounts (admin only).
func (s *IdentityService) ListUsers(ctx context.Context, actor Actor) ([]domain.User, error) {
	if err := authz.Require(actor.User, actor.Department, authz.ActionManageUsers, s.policy); err != nil {
		return nil, err
	}
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return users, nil
}

// CreateDepartment registers a department (admin only). There is no delete path.
func (s *IdentityService) CreateDepartment(ctx context.Context, actor Actor, name string, visibility domain.VisibilityClass) (*domain.Department, error) {
	if err := authz.Require(actor.User, actor.Department, authz.ActionManageDepartments, s.policy); err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.NewValidationError("department name required", nil)
	}
	if visibility == "" {
		visibility = domain.VisibilityOwnOrdersOnly
	}

	if _, err := s.departments.GetByName(ctx, name); err == nil {
		return nil, apperrors.NewConflict("department name already taken", map[string]any{"name": name})
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	dept := &domain.Department{Name: name, Visibility: visibility}
	if err := s.departments.Create(ctx, dept); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewConflict("department name already taken", map[string]any{"name": name})
		}
		return nil, apperrors.MapError(err)
	}
	return dept, nil
}

// ListDepartments returns all departments.
func (s *IdentityService) ListDepartments(ctx context.Context, actor Actor) ([]domain.Department, error) {
	if actor.User == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	depts, err := s.departments.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return depts, nil
}

func (s *IdentityService) requireAnotherAdmin(ctx context.Context, target *domain.User) error {
	count, err := s.users.CountAdmins(ctx)
	if err != nil {
		return apperrors.MapError(err)
	}
	if count <= 1 {
		return apperrors.NewConflict("cannot remove the last admin", map[string]any{"user_id": target.ID})
	}
	return nil
}
