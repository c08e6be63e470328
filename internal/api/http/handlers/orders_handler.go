package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/scan-track-service/internal/api/dto"
	"github.com/spec-kit/scan-track-service/internal/domain"
	"github.com/spec-kit/scan-track-service/internal/service"
	apperrors "github.com/spec-kit/scan-track-service/pkg/util"
)

// OrdersHandler manages order and board endpoints.
type OrdersHandler struct {
	service *service.OrderService
}

// NewOrdersHandler constructs handler.
func NewOrdersHandler(orderService *service.OrderService) *OrdersHandler {
	return &OrdersHandler{service: orderService}
}

// CreateOrder POST /orders.
func (h *OrdersHandler) CreateOrder(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	var req dto.OrderCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	order, err := h.service.CreateOrder(c.Context(), actor, req.Code, req.Description)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewOrderResponse(order)})
}

// ListOrders GET /orders. Visibility is filtered per the caller's department.
func (h *OrdersHandler) ListOrders(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	orders, err := h.service.ListOrders(c.Context(), actor)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewOrderListResponse(orders)})
}

// GetOrder GET /orders/:id.
func (h *OrdersHandler) GetOrder(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	detail, err := h.service.GetOrder(c.Context(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewOrderDetailResponse(detail)})
}

// CloseOrder POST /orders/:id/close.
func (h *OrdersHandler) CloseOrder(c *fiber.Ctx) error {
	return h.setStatus(c, domain.OrderStatusClosed)
}

// ReopenOrder POST /orders/:id/reopen.
func (h *OrdersHandler) ReopenOrder(c *fiber.Ctx) error {
	return h.setStatus(c, domain.OrderStatusOpen)
}

// DeleteOrder DELETE /orders/:id.
func (h *OrdersHandler) DeleteOrder(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	if err := h.service.DeleteOrder(c.Context(), actor, c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"deleted": true}})
}

// AddBoard POST /orders/:id/boards.
func (h *OrdersHandler) AddBoard(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	var req dto.BoardCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	board, err := h.service.AddBoard(c.Context(), actor, c.Params("id"), req.BoardCode, req.Description)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewBoardResponse(board)})
}

func (h *OrdersHandler) setStatus(c *fiber.Ctx, status domain.OrderStatus) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	order, err := h.service.SetOrderStatus(c.Context(), actor, c.Params("id"), status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewOrderResponse(order)})
}
