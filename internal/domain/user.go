package domain

import "time"

// Role enumerates account roles.
type Role string

const (
	RoleStandard Role = "STANDARD"
	RoleManager  Role = "MANAGER"
	RoleAdmin    Role = "ADMIN"
)

// User is the domain model for operators who scan boards and manage orders.
// Role and IsManager are orthogonal: the manager flag elevates order-management
// permissions without changing the user's role or department.
type User struct {
	ID           string
	Username     string
	PasswordHash string
	DepartmentID *string
	Role         Role
	IsManager    bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// CanManageOrders reports whether the user may create or delete orders.
func (u *User) CanManageOrders() bool {
	return u != nil && (u.Role == RoleAdmin || u.IsManager)
}
