package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/spec-kit/scan-track-service/internal/domain"
)

func userWith(role domain.Role, manager bool) *domain.User {
	return &domain.User{ID: "u1", Username: "user", Role: role, IsManager: manager}
}

func dept(name string) *domain.Department {
	return &domain.Department{ID: "d1", Name: name, Visibility: domain.VisibilityOwnOrdersOnly}
}

func TestAdminAllowsEverything(t *testing.T) {
	policy := NewPolicy(nil)
	admin := userWith(domain.RoleAdmin, false)
	actions := []Action{
		ActionViewOrders, ActionCreateOrder, ActionDeleteOrder, ActionAddBoard,
		ActionScanBoard, ActionEditScan, ActionDeleteScan, ActionAddComment,
		ActionManageUsers, ActionManageDepartments,
	}
	for _, action := range actions {
		assert.True(t, CanPerform(admin, nil, action, policy), "admin denied %s", action)
	}
}

func TestManageActionsAreAdminOnly(t *testing.T) {
	policy := NewPolicy(nil)
	manager := userWith(domain.RoleManager, true)
	standard := userWith(domain.RoleStandard, true)

	assert.False(t, CanPerform(manager, nil, ActionManageUsers, policy))
	assert.False(t, CanPerform(manager, nil, ActionManageDepartments, policy))
	assert.False(t, CanPerform(standard, nil, ActionManageUsers, policy))
}

func TestManagerFlagGrantsOrderManagement(t *testing.T) {
	policy := NewPolicy(nil)

	// The flag works regardless of role or department.
	flagged := userWith(domain.RoleStandard, true)
	assert.True(t, CanPerform(flagged, dept("Assembly"), ActionCreateOrder, policy))
	assert.True(t, CanPerform(flagged, nil, ActionDeleteOrder, policy))

	plain := userWith(domain.RoleStandard, false)
	assert.False(t, CanPerform(plain, dept("Assembly"), ActionCreateOrder, policy))
	assert.False(t, CanPerform(plain, dept("Assembly"), ActionDeleteOrder, policy))
}

func TestAnyAuthenticatedUserMayViewAddAndScan(t *testing.T) {
	policy := NewPolicy(nil)
	standard := userWith(domain.RoleStandard, false)

	assert.True(t, CanPerform(standard, dept("Assembly"), ActionViewOrders, policy))
	assert.True(t, CanPerform(standard, dept("Assembly"), ActionAddBoard, policy))
	assert.True(t, CanPerform(standard, dept("Assembly"), ActionScanBoard, policy))

	assert.False(t, CanPerform(nil, nil, ActionViewOrders, policy))
}

func TestCommentPolicyIsConfigurable(t *testing.T) {
	policy := NewPolicy([]string{"Quality", "Test"})
	standard := userWith(domain.RoleStandard, false)

	assert.True(t, CanPerform(standard, dept("Quality"), ActionAddComment, policy))
	assert.True(t, CanPerform(standard, dept("test"), ActionAddComment, policy), "matching is case-insensitive")
	assert.False(t, CanPerform(standard, dept("Assembly"), ActionAddComment, policy))
	assert.False(t, CanPerform(standard, nil, ActionAddComment, policy))

	// Manager flag does not bypass the designated-department rule.
	flagged := userWith(domain.RoleStandard, true)
	assert.False(t, CanPerform(flagged, dept("Assembly"), ActionAddComment, policy))
}

func TestScanEditingRequiresManagerOrAdmin(t *testing.T) {
	policy := NewPolicy(nil)

	assert.True(t, CanPerform(userWith(domain.RoleManager, false), nil, ActionEditScan, policy))
	assert.True(t, CanPerform(userWith(domain.RoleAdmin, false), nil, ActionDeleteScan, policy))
	// The manager flag elevates order management only, not scan editing.
	assert.False(t, CanPerform(userWith(domain.RoleStandard, true), nil, ActionEditScan, policy))
	assert.False(t, CanPerform(userWith(domain.RoleStandard, false), nil, ActionDeleteScan, policy))
}

func TestRequireReportsDenial(t *testing.T) {
	policy := NewPolicy(nil)
	err := Require(userWith(domain.RoleStandard, false), nil, ActionCreateOrder, policy)
	assert.Error(t, err)

	assert.NoError(t, Require(userWith(domain.RoleAdmin, false), nil, ActionCreateOrder, policy))
}
