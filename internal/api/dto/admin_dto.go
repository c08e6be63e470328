package dto

import (
	"time"

	"github.com/spec-kit/scan-track-service/internal/domain"
)

// UserCreateRequest payload for admin user creation.
type UserCreateRequest struct {
	Username     string      `json:"username"`
	Password     string      `json:"password"`
	DepartmentID *string     `json:"department_id"`
	Role         domain.Role `json:"role"`
	IsManager    bool        `json:"is_manager"`
}

// UserUpdateRequest payload for admin user edits. Omitted fields stay unchanged.
type UserUpdateRequest struct {
	Password     *string      `json:"password"`
	DepartmentID *string      `json:"department_id"`
	Role         *domain.Role `json:"role"`
	IsManager    *bool        `json:"is_manager"`
}

// DepartmentCreateRequest payload for new departments.
type DepartmentCreateRequest struct {
	Name       string                 `json:"name"`
	Visibility domain.VisibilityClass `json:"visibility_class"`
}

// DepartmentResponse is the API shape of a department.
type DepartmentResponse struct {
	ID         string                 `json:"id"`
	Name       string                 `json:"name"`
	Visibility domain.VisibilityClass `json:"visibility_class"`
	CreatedAt  time.Time              `json:"created_at"`
}

// NewDepartmentResponse maps a domain department.
func NewDepartmentResponse(dept *domain.Department) DepartmentResponse {
	return DepartmentResponse{
		ID:         dept.ID,
		Name:       dept.Name,
		Visibility: dept.Visibility,
		CreatedAt:  dept.CreatedAt,
	}
}
