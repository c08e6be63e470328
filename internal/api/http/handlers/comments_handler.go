package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/scan-track-service/internal/api/dto"
	"github.com/spec-kit/scan-track-service/internal/service"
	apperrors "github.com/spec-kit/scan-track-service/pkg/util"
)

// CommentsHandler manages board comment endpoints.
type CommentsHandler struct {
	service *service.CommentService
}

// NewCommentsHandler constructs handler.
func NewCommentsHandler(commentService *service.CommentService) *CommentsHandler {
	return &CommentsHandler{service: commentService}
}

// AddComment POST /boards/:id/comments.
func (h *CommentsHandler) AddComment(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	var req dto.CommentCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	comment, err := h.service.AddComment(c.Context(), actor, c.Params("id"), req.Body)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewCommentResponse(comment)})
}

// ListComments GET /boards/:id/comments.
func (h *CommentsHandler) ListComments(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	comments, err := h.service.ListComments(c.Context(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewCommentListResponse(comments)})
}
