package routes

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/upline-app/upline_backend/controllers"
	"github.com/upline-app/upline_backend/middleware"
	"github.com/upline-app/upline_backend/websocket"
)

// SetupRoutes registers the public and member-facing routes.
func SetupRoutes(
	e *echo.Echo,
	wsHub *websocket.Hub,
	authController *controllers.AuthController,
	referralController *controllers.ReferralController,
	catalogController *controllers.CatalogController,
	orderController *controllers.OrderController,
	incomeController *controllers.IncomeController,
	ruleController *controllers.RuleController,
) {
	// Public
	auth := e.Group("/api/auth")
	auth.POST("/signup", authController.Signup)
	auth.POST("/login", authController.Login)

	e.GET("/api/services", catalogController.ListServices)
	e.GET("/api/rules/active", ruleController.GetActiveRule)

	// Authenticated
	api := e.Group("/api")
	api.Use(middleware.JWTMiddleware())

	api.GET("/referral", referralController.GetReferralData)
	api.GET("/referral/downline", referralController.GetDownline)
	api.GET("/referral/ancestors", referralController.GetAncestors)

	api.POST("/orders", orderController.CreateOrder)
	api.GET("/orders", orderController.ListMyOrders)
	api.PUT("/orders/:id/cancel", orderController.CancelOrder)
	api.POST("/purchases", orderController.CreatePurchase)

	api.GET("/incomes", incomeController.GetMyIncomes)
	api.GET("/incomes/summary", incomeController.GetMySummary)

	// WebSocket endpoint; clients may authenticate after the upgrade
	e.GET("/api/ws", func(c echo.Context) error {
		userID := primitive.NilObjectID
		if token := c.QueryParam("token"); token != "" {
			if claims, err := middleware.ParseToken(token); err == nil {
				if objID, err := primitive.ObjectIDFromHex(claims.UserID); err == nil {
					userID = objID
				}
			}
		}
		return websocket.HandleWebSocket(c, wsHub, userID)
	})

	e.Match([]string{"GET", "HEAD"}, "/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":   "healthy",
			"database": "connected",
		})
	})
}
