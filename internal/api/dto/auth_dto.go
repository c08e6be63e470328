package dto

import (
	"time"

	"github.com/spec-kit/scan-track-service/internal/domain"
)

// LoginRequest payload for login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// ChangePasswordRequest payload for self-service password change.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// UserResponse is the API shape of a user account.
type UserResponse struct {
	ID           string      `json:"id"`
	Username     string      `json:"username"`
	DepartmentID *string     `json:"department_id,omitempty"`
	Role         domain.Role `json:"role"`
	IsManager    bool        `json:"is_manager"`
	CreatedAt    time.Time   `json:"created_at"`
}

// NewUserResponse maps a domain user.
func NewUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:           user.ID,
		Username:     user.Username,
		DepartmentID: user.DepartmentID,
		Role:         user.Role,
		IsManager:    user.IsManager,
		CreatedAt:    user.CreatedAt,
	}
}
