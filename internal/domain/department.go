package domain

import "time"

// VisibilityClass controls which orders a department's users can list.
type VisibilityClass string

const (
	VisibilityOwnOrdersOnly VisibilityClass = "OWN_ORDERS_ONLY"
	VisibilityAllOrders     VisibilityClass = "ALL_ORDERS"
)

// Department represents a production department such as Assembly, Test or Quality.
type Department struct {
	ID         string
	Name       string
	Visibility VisibilityClass
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
