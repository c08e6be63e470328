package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/scan-track-service/internal/api/dto"
	"github.com/spec-kit/scan-track-service/internal/service"
	apperrors "github.com/spec-kit/scan-track-service/pkg/util"
)

// AdminHandler manages user and department administration endpoints.
type AdminHandler struct {
	service *service.IdentityService
}

// NewAdminHandler constructs handler.
func NewAdminHandler(identityService *service.IdentityService) *AdminHandler {
	return &AdminHandler{service: identityService}
}

// CreateUser POST /admin/users.
func (h *AdminHandler) CreateUser(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	var req dto.UserCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	user, err := h.service.CreateUser(c.Context(), actor, service.UserCreateInput{
		Username:     req.Username,
		Password:     req.Password,
		DepartmentID: req.DepartmentID,
		Role:         req.Role,
		IsManager:    req.IsManager,
	})
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// UpdateUser PATCH /admin/users/:id.
func (h *AdminHandler) UpdateUser(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	var req dto.UserUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	user, err := h.service.UpdateUser(c.Context(), actor, c.Params("id"), service.UserUpdateInput{
		Password:     req.Password,
		DepartmentID: req.DepartmentID,
		Role:         req.Role,
		IsManager:    req.IsManager,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// DeleteUser DELETE /admin/users/:id.
func (h *AdminHandler) DeleteUser(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	if err := h.service.DeleteUser(c.Context(), actor, c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"deleted": true}})
}

// ListUsers GET /admin/users.
func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	users, err := h.service.ListUsers(c.Context(), actor)
	if err != nil {
		return err
	}
	items := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		items = append(items, dto.NewUserResponse(&users[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// CreateDepartment POST /admin/departments.
func (h *AdminHandler) CreateDepartment(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	var req dto.DepartmentCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	dept, err := h.service.CreateDepartment(c.Context(), actor, req.Name, req.Visibility)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.NewDepartmentResponse(dept)})
}

// ListDepartments GET /departments.
func (h *AdminHandler) ListDepartments(c *fiber.Ctx) error {
	actor, err := requireActor(c)
	if err != nil {
		return err
	}
	depts, err := h.service.ListDepartments(c.Context(), actor)
	if err != nil {
		return err
	}
	items := make([]dto.DepartmentResponse, 0, len(depts))
	for i := range depts {
		items = append(items, dto.NewDepartmentResponse(&depts[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}
