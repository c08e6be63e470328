package domain

import "time"

// OrderStatus enumerates lifecycle states for manufacturing orders.
type OrderStatus string

const (
	OrderStatusOpen   OrderStatus = "OPEN"
	OrderStatusClosed OrderStatus = "CLOSED"
)

// Order is the aggregate root for a manufacturing order. It owns its boards;
// deleting an order cascades to boards, scans and comments in one transaction.
type Order struct {
	ID          string
	Code        string
	Description string
	Status      OrderStatus
	CreatedBy   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
