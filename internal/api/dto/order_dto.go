package dto

import (
	"time"

	"github.com/spec-kit/scan-track-service/internal/domain"
	"github.com/spec-kit/scan-track-service/internal/service"
)

// OrderCreateRequest payload for new orders.
type OrderCreateRequest struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// BoardCreateRequest payload for adding a board to an order.
type BoardCreateRequest struct {
	BoardCode   string `json:"board_code"`
	Description string `json:"description"`
}

// OrderResponse is the API shape of an order.
type OrderResponse struct {
	ID          string             `json:"id"`
	Code        string             `json:"code"`
	Description string             `json:"description,omitempty"`
	Status      domain.OrderStatus `json:"status"`
	CreatedBy   string             `json:"created_by"`
	CreatedAt   time.Time          `json:"created_at"`
}

// BoardResponse is the API shape of a board with its derived status.
type BoardResponse struct {
	ID            string            `json:"id"`
	OrderID       string            `json:"order_id"`
	BoardCode     string            `json:"board_code"`
	Description   string            `json:"description,omitempty"`
	DepartmentID  *string           `json:"department_id,omitempty"`
	CurrentStatus domain.ScanStatus `json:"current_status"`
	CreatedAt     time.Time         `json:"created_at"`
}

// OrderDetailResponse is an order with its boards.
type OrderDetailResponse struct {
	OrderResponse
	Boards []BoardResponse `json:"boards"`
}

// NewOrderResponse maps a domain order.
func NewOrderResponse(order *domain.Order) OrderResponse {
	return OrderResponse{
		ID:          order.ID,
		Code:        order.Code,
		Description: order.Description,
		Status:      order.Status,
		CreatedBy:   order.CreatedBy,
		CreatedAt:   order.CreatedAt,
	}
}

// NewOrderListResponse maps a slice of domain orders.
func NewOrderListResponse(orders []domain.Order) []OrderResponse {
	result := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		result = append(result, NewOrderResponse(&orders[i]))
	}
	return result
}

// NewBoardResponse maps a board without scan context; status defaults to PENDING.
func NewBoardResponse(board *domain.Board) BoardResponse {
	return BoardResponse{
		ID:            board.ID,
		OrderID:       board.OrderID,
		BoardCode:     board.BoardCode,
		Description:   board.Description,
		DepartmentID:  board.DepartmentID,
		CurrentStatus: domain.ScanStatusPending,
		CreatedAt:     board.CreatedAt,
	}
}

// NewOrderDetailResponse maps an order detail with derived board statuses.
func NewOrderDetailResponse(detail *service.OrderDetail) OrderDetailResponse {
	resp := OrderDetailResponse{
		OrderResponse: NewOrderResponse(&detail.Order),
		Boards:        make([]BoardResponse, 0, len(detail.Boards)),
	}
	for i := range detail.Boards {
		board := NewBoardResponse(&detail.Boards[i].Board)
		board.CurrentStatus = detail.Boards[i].CurrentStatus
		resp.Boards = append(resp.Boards, board)
	}
	return resp
}
