package events

import (
	"time"

	"github.com/spec-kit/scan-track-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventOrderCreated       EventType = "order_created"
	EventOrderDeleted       EventType = "order_deleted"
	EventOrderStatusChanged EventType = "order_status_changed"
	EventBoardAdded         EventType = "board_added"
	EventScanFinalized      EventType = "scan_finalized"
	EventScanEdited         EventType = "scan_edited"
	EventCommentAdded       EventType = "comment_added"
)

// Actor encapsulates actor metadata for an event.
type Actor struct {
	UserID   string `json:"user_id"`
	Username string `json:"username,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	OrderID   string      `json:"order_id,omitempty"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// OrderCreatedPayload payload.
type OrderCreatedPayload struct {
	Code        string `json:"code"`
	Description string `json:"description,omitempty"`
}

// OrderDeletedPayload payload.
type OrderDeletedPayload struct {
	Code string `json:"code"`
}

// OrderStatusChangedPayload payload.
type OrderStatusChangedPayload struct {
	OldStatus domain.OrderStatus `json:"old_status"`
	NewStatus domain.OrderStatus `json:"new_status"`
}

// BoardAddedPayload payload.
type BoardAddedPayload struct {
	BoardID      string  `json:"board_id"`
	BoardCode    string  `json:"board_code"`
	DepartmentID *string `json:"department_id,omitempty"`
}

// ScanFinalizedPayload payload.
type ScanFinalizedPayload struct {
	ScanID    string            `json:"scan_id"`
	BoardID   string            `json:"board_id"`
	BoardCode string            `json:"board_code"`
	Status    domain.ScanStatus `json:"status"`
}

// ScanEditedPayload payload.
type ScanEditedPayload struct {
	ScanID    string            `json:"scan_id"`
	OldStatus domain.ScanStatus `json:"old_status"`
	NewStatus domain.ScanStatus `json:"new_status"`
	Note      string            `json:"note,omitempty"`
}

// CommentAddedPayload payload.
type CommentAddedPayload struct {
	CommentID   string `json:"comment_id"`
	BoardID     string `json:"board_id"`
	BodyPreview string `json:"body_preview"`
}
