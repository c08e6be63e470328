package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/scan-track-service/internal/api/dto"
	"github.com/spec-kit/scan-track-service/internal/service"
	apperrors "github.com/spec-kit/scan-track-service/pkg/util"
)

// ScansHandler exposes the two-step scan workflow plus scan record management.
type ScansHandler struct {
	service *service.ScanService
}

// NewScansHandler constructs handler.
func NewScansHandler(scanService *service.ScanService) *ScansHandler {
	return &ScansHandler{service: scanService}
}

// ScanBoard POST /orders/:id/scans/board. First step: arms the caller's
// pending board for this order.
func (h *ScansHandler) ScanBoard(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	var req dto.ScanRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	board, err := h.service.ScanBoardCode(c.Context(), actor, c.Params("id"), req.Code)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{
		"pending_board": dto.NewBoardResponse(board),
	}})
}

// ScanStatus POST /orders/:id/scans/status. Second step: finalizes the
// caller's pending board with a pass/fail outcome.
func (h *ScansHandler) ScanStatus(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	var req dto.ScanRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	scan, err := h.service.ScanStatusCode(c.Context(), actor, c.Params("id"), req.Code)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewScanResponse(scan)})
}

// PendingBoard GET /orders/:id/scans/pending.
func (h *ScansHandler) PendingBoard(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	board, err := h.service.PendingBoard(c.Context(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	if board == nil {
		return c.JSON(fiber.Map{"data": nil})
	}
	return c.JSON(fiber.Map{"data": dto.NewBoardResponse(board)})
}

// ResetPending DELETE /orders/:id/scans/pending.
func (h *ScansHandler) ResetPending(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	if err := h.service.ResetPending(c.Context(), actor, c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"reset": true}})
}

// ListScans GET /boards/:id/scans.
func (h *ScansHandler) ListScans(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	scans, err := h.service.ListScans(c.Context(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.ScanResponse, 0, len(scans))
	for i := range scans {
		items = append(items, dto.NewScanResponse(&scans[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// EditScan PATCH /scans/:id.
func (h *ScansHandler) EditScan(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	var req dto.ScanEditRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	scan, err := h.service.EditScan(c.Context(), actor, c.Params("id"), req.Status, req.Note)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewScanResponse(scan)})
}

// DeleteScan DELETE /scans/:id.
func (h *ScansHandler) DeleteScan(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	if err := h.service.DeleteScan(c.Context(), actor, c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"deleted": true}})
}
