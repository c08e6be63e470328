package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/scan-track-service/internal/auth"
	"github.com/spec-kit/scan-track-service/internal/service"
	apperrors "github.com/spec-kit/scan-track-service/pkg/util"
)

// requireActor resolves the authenticated principal into the actor every
// engine operation takes as its first argument.
func requireActor(c *fiber.Ctx) (service.Actor, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return service.Actor{}, apperrors.NewUnauthorized("authentication required")
	}
	return service.Actor{User: principal.User, Department: principal.Department}, nil
}
