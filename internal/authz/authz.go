package authz

import (
	"fmt"
	"strings"

	"github.com/spec-kit/scan-track-service/internal/domain"
	apperrors "github.com/spec-kit/scan-track-service/pkg/util"
)

// Action enumerates every permission-gated engine operation.
type Action string

const (
	ActionViewOrders        Action = "view_orders"
	ActionCreateOrder       Action = "create_order"
	ActionDeleteOrder       Action = "delete_order"
	ActionAddBoard          Action = "add_board"
	ActionScanBoard         Action = "scan_board"
	ActionEditScan          Action = "edit_scan"
	ActionDeleteScan        Action = "delete_scan"
	ActionAddComment        Action = "add_comment"
	ActionManageUsers       Action = "manage_users"
	ActionManageDepartments Action = "manage_departments"
)

// Policy carries the configurable parts of permission evaluation. Department
// names in CommentDepartments are matched case-insensitively so that business
// names never get baked into control flow.
type Policy struct {
	commentDepartments map[string]struct{}
}

// NewPolicy builds a policy from the designated comment-capable department names.
func NewPolicy(commentDepartments []string) Policy {
	set := make(map[string]struct{}, len(commentDepartments))
	for _, name := range commentDepartments {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "" {
			continue
		}
		set[name] = struct{}{}
	}
	return Policy{commentDepartments: set}
}

// AllowsCommentsFrom reports whether the named department may author comments.
func (p Policy) AllowsCommentsFrom(departmentName string) bool {
	_, ok := p.commentDepartments[strings.ToLower(strings.TrimSpace(departmentName))]
	return ok
}

// CanPerform is the pure permission decision. Rules are evaluated in
// precedence order; the first match wins and any unmatched combination is
// denied. dept is the acting user's department and may be nil.
func CanPerform(user *domain.User, dept *domain.Department, action Action, policy Policy) bool {
	if user == nil {
		return false
	}
	if user.Role == domain.RoleAdmin {
		return true
	}

	switch action {
	case ActionManageUsers, ActionManageDepartments:
		return false
	case ActionCreateOrder, ActionDeleteOrder:
		return user.IsManager
	case ActionViewOrders:
		// Always allowed; the result set is filtered by visibility class,
		// never denied outright.
		return true
	case ActionAddBoard, ActionScanBoard:
		return true
	case ActionAddComment:
		return dept != nil && policy.AllowsCommentsFrom(dept.Name)
	case ActionEditScan, ActionDeleteScan:
		return user.Role == domain.RoleManager
	}
	return false
}

// Require wraps CanPerform and reports denial as a typed error.
func Require(user *domain.User, dept *domain.Department, action Action, policy Policy) error {
	if CanPerform(user, dept, action, policy) {
		return nil
	}
	return apperrors.NewForbidden(fmt.Sprintf("not permitted to %s", action))
}
