package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/upline-app/upline_backend/controllers"
	"github.com/upline-app/upline_backend/middleware"
)

// RegisterAdminRoutes registers the admin-only management routes.
func RegisterAdminRoutes(
	e *echo.Echo,
	referralController *controllers.ReferralController,
	catalogController *controllers.CatalogController,
	ruleController *controllers.RuleController,
	orderController *controllers.OrderController,
) {
	admin := e.Group("/api/admin")
	admin.Use(middleware.JWTMiddleware())
	admin.Use(middleware.RequireAdmin())

	admin.POST("/referral/assign-parent", referralController.AssignParent)
	admin.POST("/services", catalogController.CreateService)
	admin.POST("/rules", ruleController.SetActiveRule)
	admin.PUT("/orders/:id/cancel", orderController.CancelOrder)
}
