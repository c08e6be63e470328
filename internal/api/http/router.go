package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/scan-track-service/internal/api/http/handlers"
	"github.com/spec-kit/scan-track-service/internal/auth"
	"github.com/spec-kit/scan-track-service/internal/domain"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Orders         *handlers.OrdersHandler
	Scans          *handlers.ScansHandler
	Comments       *handlers.CommentsHandler
	Admin          *handlers.AdminHandler
	AuthMiddleware *auth.AuthMiddleware
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	app.Post("/auth/login", cfg.Auth.Login)

	protected := app.Group("", cfg.AuthMiddleware.Handle, auth.RequireAuthenticated())

	protected.Post("/auth/password/change", cfg.Auth.ChangePassword)
	protected.Get("/auth/me", cfg.Auth.Me)

	orders := protected.Group("/orders")
	orders.Post("", cfg.Orders.CreateOrder)
	orders.Get("", cfg.Orders.ListOrders)
	orders.Get("/:id", cfg.Orders.GetOrder)
	orders.Post("/:id/close", cfg.Orders.CloseOrder)
	orders.Post("/:id/reopen", cfg.Orders.ReopenOrder)
	orders.Delete("/:id", cfg.Orders.DeleteOrder)
	orders.Post("/:id/boards", cfg.Orders.AddBoard)

	orders.Post("/:id/scans/board", cfg.Scans.ScanBoard)
	orders.Post("/:id/scans/status", cfg.Scans.ScanStatus)
	orders.Get("/:id/scans/pending", cfg.Scans.PendingBoard)
	orders.Delete("/:id/scans/pending", cfg.Scans.ResetPending)

	boards := protected.Group("/boards")
	boards.Get("/:id/scans", cfg.Scans.ListScans)
	boards.Post("/:id/comments", cfg.Comments.AddComment)
	boards.Get("/:id/comments", cfg.Comments.ListComments)

	scans := protected.Group("/scans")
	scans.Patch("/:id", cfg.Scans.EditScan)
	scans.Delete("/:id", cfg.Scans.DeleteScan)

	protected.Get("/departments", cfg.Admin.ListDepartments)

	admin := protected.Group("/admin", auth.RequireRole(domain.RoleAdmin))
	admin.Get("/users", cfg.Admin.ListUsers)
	admin.Post("/users", cfg.Admin.CreateUser)
	admin.Patch("/users/:id", cfg.Admin.UpdateUser)
	admin.Delete("/users/:id", cfg.Admin.DeleteUser)
	admin.Post("/departments", cfg.Admin.CreateDepartment)
}
