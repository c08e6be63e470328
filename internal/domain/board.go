package domain

import "time"

// Board is an individually barcoded item within an order. BoardCode is unique
// within its owning order only; the same code may appear in other orders.
type Board struct {
	ID           string
	OrderID      string
	BoardCode    string
	Description  string
	AddedByUser  string
	DepartmentID *string
	CreatedAt    time.Time
}
