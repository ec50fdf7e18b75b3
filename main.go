package main

import (
	"context"
	"os"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"github.com/upline-app/upline_backend/config"
	"github.com/upline-app/upline_backend/controllers"
	"github.com/upline-app/upline_backend/middleware"
	"github.com/upline-app/upline_backend/repositories"
	"github.com/upline-app/upline_backend/routes"
	"github.com/upline-app/upline_backend/services"
	"github.com/upline-app/upline_backend/websocket"
)

const defaultMaxLevels = 10

// CustomValidator is a custom validator for Echo
type CustomValidator struct {
	validator *validator.Validate
}

// Validate validates the request body
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

func maxLevels() int {
	if raw := os.Getenv("REFERRAL_MAX_LEVELS"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultMaxLevels
}

func main() {
	// Load .env file
	err := godotenv.Load()
	if err != nil {
		logrus.Warn(".env file not found")
	}

	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	// Connect to Redis (optional; tree caching is disabled without it)
	redisClient := config.ConnectRedis()

	// Connect to database
	client := config.ConnectDB()
	db := client.Database(config.DBName())

	// Probe transaction support once; everything atomic goes through this
	// runner for the life of the process.
	runner := services.NewAtomicRunner(context.Background(), client, config.DBName(), log)

	// Repositories
	memberRepo := repositories.NewMemberRepository(db)
	catalogRepo := repositories.NewCatalogRepository(db)
	ruleRepo := repositories.NewRuleRepository(db)
	orderRepo := repositories.NewOrderRepository(db)
	purchaseRepo := repositories.NewPurchaseRepository(db)
	incomeRepo := repositories.NewIncomeRepository(db)

	// Core services
	levels := maxLevels()
	placementService := services.NewPlacementService(memberRepo, log)
	walker := services.NewAncestorWalker(memberRepo, levels)
	ruleService := services.NewRuleService(ruleRepo, runner, log)
	distributor := services.NewDistributor(catalogRepo, ruleRepo, walker, purchaseRepo, incomeRepo, log)
	orderService := services.NewOrderService(orderRepo, distributor, runner)
	reversalService := services.NewReversalService(orderRepo, purchaseRepo, incomeRepo, runner, log)
	treeService := services.NewTreeService(memberRepo, redisClient)

	// Create WebSocket hub
	wsHub := websocket.NewHub()
	go wsHub.Run()

	// Create a new Echo instance
	e := echo.New()

	customValidator := &CustomValidator{validator: validator.New()}
	e.Validator = customValidator

	rateLimiter := middleware.NewRateLimiter()

	// Middleware
	e.Use(echoMiddleware.Logger())
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORS())
	e.Use(echoMiddleware.Secure())
	e.Use(rateLimiter.RateLimit())
	e.Use(middleware.SecurityHeadersWithConfig(middleware.SecurityConfig{
		AllowedDomains: []string{"*"},
		AllowInlineJS:  false,
		AllowEval:      false,
	}))

	e.Match([]string{"GET", "HEAD"}, "/", func(c echo.Context) error {
		return c.JSON(200, map[string]string{
			"status":  "OK",
			"message": "Upline Backend is running",
			"version": "1.0",
		})
	})

	// Controllers
	authController := controllers.NewAuthController(memberRepo, placementService, runner)
	referralController := controllers.NewReferralController(memberRepo, placementService, walker, treeService)
	catalogController := controllers.NewCatalogController(catalogRepo)
	orderController := controllers.NewOrderController(orderService, reversalService, orderRepo, wsHub)
	incomeController := controllers.NewIncomeController(incomeRepo)
	ruleController := controllers.NewRuleController(ruleService)

	routes.SetupRoutes(e, wsHub, authController, referralController, catalogController, orderController, incomeController, ruleController)
	routes.RegisterAdminRoutes(e, referralController, catalogController, ruleController, orderController)

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	e.Logger.Fatal(e.Start(":" + port))
}
