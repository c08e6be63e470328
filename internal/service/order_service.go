package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/scan-track-service/internal/authz"
	"github.com/spec-kit/scan-track-service/internal/domain"
	"github.com/spec-kit/scan-track-service/internal/events"
	"github.com/spec-kit/scan-track-service/internal/repository"
	apperrors "github.com/spec-kit/scan-track-service/pkg/util"
)

// OrderService coordinates order and board workflows.
type OrderService struct {
	orders     repository.OrderRepository
	boards     repository.BoardRepository
	scans      repository.ScanRepository
	policy     authz.Policy
	dispatcher events.Dispatcher
}

// OrderDependencies bundles repositories for the order service.
type OrderDependencies struct {
	OrderRepo  repository.OrderRepository
	BoardRepo  repository.BoardRepository
	ScanRepo   repository.ScanRepository
	Dispatcher events.Dispatcher
}

// BoardWithStatus pairs a board with its derived current status. The status
// comes from the board's terminal scan; boards without one are PENDING.
type BoardWithStatus struct {
	Board         domain.Board
	CurrentStatus domain.ScanStatus
	TerminalScan  *domain.Scan
}

// OrderDetail is an order with its boards and their derived statuses.
type OrderDetail struct {
	Order  domain.Order
	Boards []BoardWithStatus
}

// NewOrderService constructs the service.
func NewOrderService(deps OrderDependencies, policy authz.Policy) *OrderService {
	return &OrderService{
		orders:     deps.OrderRepo,
		boards:     deps.BoardRepo,
		scans:      deps.ScanRepo,
		policy:     policy,
		dispatcher: deps.Dispatcher,
	}
}

// CreateOrder registers a new order (manager flag or admin).
func (s *OrderService) CreateOrder(ctx context.Context, actor Actor, code, description string) (*domain.Order, error) {
	if err := authz.Require(actor.User, actor.Department, authz.ActionCreateOrder, s.policy); err != nil {
		return nil, err
	}

	code = strings.TrimSpace(code)
	if code == "" {
		return nil, apperrors.NewValidationError("order code required", nil)
	}

	if _, err := s.orders.GetByCode(ctx, code); err == nil {
		return nil, apperrors.NewDuplicateOrderCode(code)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	order := &domain.Order{
		Code:        code,
		Description: strings.TrimSpace(description),
		Status:      domain.OrderStatusOpen,
		CreatedBy:   actor.User.ID,
	}
	if err := s.orders.Create(ctx, order); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewDuplicateOrderCode(code)
		}
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:    events.EventOrderCreated,
		OrderID: order.ID,
		Actor:   actorInfo(actor),
		Payload: events.OrderCreatedPayload{Code: order.Code, Description: order.Description},
	})
	return order, nil
}

// SetOrderStatus closes or reopens an order (manager flag or admin).
func (s *OrderService) SetOrderStatus(ctx context.Context, actor Actor, orderID string, status domain.OrderStatus) (*domain.Order, error) {
	if err := authz.Require(actor.User, actor.Department, authz.ActionCreateOrder, s.policy); err != nil {
		return nil, err
	}
	if status != domain.OrderStatusOpen && status != domain.OrderStatusClosed {
		return nil, apperrors.NewValidationError("invalid order status", map[string]any{"status": status})
	}

	order, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status == status {
		return order, nil
	}

	oldStatus := order.Status
	order.Status = status
	if err := s.orders.Update(ctx, order); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("order", map[string]any{"order_id": orderID})
		}
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:    events.EventOrderStatusChanged,
		OrderID: order.ID,
		Actor:   actorInfo(actor),
		Payload: events.OrderStatusChangedPayload{OldStatus: oldStatus, NewStatus: status},
	})
	return order, nil
}

// DeleteOrder removes an order and cascades to all descendant boards, scans
// and comments in one transaction: either everything goes or nothing does.
func (s *OrderService) DeleteOrder(ctx context.Context, actor Actor, orderID string) error {
	if err := authz.Require(actor.User, actor.Department, authz.ActionDeleteOrder, s.policy); err != nil {
		return err
	}

	order, err := s.getOrder(ctx, orderID)
	if err != nil {
		return err
	}

	if err := s.orders.DeleteCascade(ctx, orderID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NewNotFound("order", map[string]any{"order_id": orderID})
		}
		return apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:    events.EventOrderDeleted,
		OrderID: order.ID,
		Actor:   actorInfo(actor),
		Payload: events.OrderDeletedPayload{Code: order.Code},
	})
	return nil
}

// ListOrders returns the orders visible to the actor. Users in an
// own-orders-only department see only orders their department has touched.
func (s *OrderService) ListOrders(ctx context.Context, actor Actor) ([]domain.Order, error) {
	if err := authz.Require(actor.User, actor.Department, authz.ActionViewOrders, s.policy); err != nil {
		return nil, err
	}

	if actor.User.CanManageOrders() {
		return s.listAll(ctx)
	}
	if actor.Department == nil {
		// No department, no touched orders.
		return []domain.Order{}, nil
	}
	if actor.Department.Visibility == domain.VisibilityAllOrders {
		return s.listAll(ctx)
	}

	orders, err := s.orders.ListVisibleToDepartment(ctx, actor.Department.ID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return orders, nil
}

// GetOrder fetches an order with its boards and their derived statuses.
func (s *OrderService) GetOrder(ctx context.Context, actor Actor, orderID string) (*OrderDetail, error) {
	if err := authz.Require(actor.User, actor.Department, authz.ActionViewOrders, s.policy); err != nil {
		return nil, err
	}

	order, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	boards, err := s.boards.ListByOrder(ctx, orderID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	detail := &OrderDetail{Order: *order, Boards: make([]BoardWithStatus, 0, len(boards))}
	for _, board := range boards {
		entry := BoardWithStatus{Board: board, CurrentStatus: domain.ScanStatusPending}
		terminal, err := s.scans.GetTerminalByBoard(ctx, board.ID)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.MapError(err)
		}
		if terminal != nil {
			entry.CurrentStatus = terminal.Status
			entry.TerminalScan = terminal
		}
		detail.Boards = append(detail.Boards, entry)
	}
	return detail, nil
}

// AddBoard registers a board under an open order. Board codes are unique
// within the order only.
func (s *OrderService) AddBoard(ctx context.Context, actor Actor, orderID, boardCode, description string) (*domain.Board, error) {
	if err := authz.Require(actor.User, actor.Department, authz.ActionAddBoard, s.policy); err != nil {
		return nil, err
	}

	boardCode = strings.TrimSpace(boardCode)
	if boardCode == "" {
		return nil, apperrors.NewValidationError("board code required", nil)
	}

	order, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != domain.OrderStatusOpen {
		return nil, apperrors.NewOrderClosed(order.ID)
	}

	if _, err := s.boards.GetByOrderAndCode(ctx, orderID, boardCode); err == nil {
		return nil, apperrors.NewDuplicateBoardInOrder(orderID, boardCode)
	} else if !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.MapError(err)
	}

	board := &domain.Board{
		OrderID:      orderID,
		BoardCode:    boardCode,
		Description:  strings.TrimSpace(description),
		AddedByUser:  actor.User.ID,
		DepartmentID: actor.User.DepartmentID,
	}
	if err := s.boards.Create(ctx, board); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewDuplicateBoardInOrder(orderID, boardCode)
		}
		return nil, apperrors.MapError(err)
	}

	s.publishEvent(ctx, events.Event{
		Type:    events.EventBoardAdded,
		OrderID: orderID,
		Actor:   actorInfo(actor),
		Payload: events.BoardAddedPayload{
			BoardID:      board.ID,
			BoardCode:    board.BoardCode,
			DepartmentID: board.DepartmentID,
		},
	})
	return board, nil
}

func (s *OrderService) getOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	order, err := s.orders.GetByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("order", map[string]any{"order_id": orderID})
		}
		return nil, apperrors.MapError(err)
	}
	return order, nil
}

func (s *OrderService) listAll(ctx context.Context) ([]domain.Order, error) {
	orders, err := s.orders.List(ctx)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return orders, nil
}

func (s *OrderService) publishEvent(ctx context.Context, event events.Event) {
	publishEvent(ctx, s.dispatcher, event)
}

func actorInfo(actor Actor) events.Actor {
	info := events.Actor{}
	if actor.User != nil {
		info.UserID = actor.User.ID
		info.Username = actor.User.Username
	}
	return info
}

func publishEvent(ctx context.Context, dispatcher events.Dispatcher, event events.Event) {
	if dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = dispatcher.Publish(ctx, event)
}
