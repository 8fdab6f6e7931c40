package router

import (
	"database/sql"

	"mess_portal_backend/internal/events"
	"mess_portal_backend/internal/handlers"
	"mess_portal_backend/internal/middleware"
	"mess_portal_backend/internal/repositories"
	"mess_portal_backend/internal/services"

	"github.com/gin-gonic/gin"
)

// Setup initializes the routing for the application.
func Setup(engine *gin.Engine, db *sql.DB, hub *events.Hub, publisher events.Publisher) {
	// Initialize Repositories
	authRepo := repositories.NewAuthRepository(db)
	menuRepo := repositories.NewMenuRepository(db)
	orderRepo := repositories.NewOrderRepository(db)
	billRepo := repositories.NewBillRepository(db)
	movementRepo := repositories.NewCapacityMovementRepository(db)

	txBeginner := repositories.NewTxBeginner(db)

	// Initialize Services
	authService := services.NewAuthService(authRepo, db)
	menuService := services.NewMenuService(menuRepo, orderRepo, movementRepo, db, txBeginner, publisher)
	orderService := services.NewOrderService(orderRepo, menuRepo, billRepo, movementRepo, db, txBeginner, publisher)
	fulfillmentService := services.NewFulfillmentService(orderRepo, db, publisher)
	billingService := services.NewBillingService(billRepo)
	statisticsService := services.NewStatisticsService(orderRepo)

	// Initialize Handlers
	authHandler := handlers.NewAuthHandler(authService)
	menuHandler := handlers.NewMenuHandler(menuService)
	orderHandler := handlers.NewOrderHandler(orderService)
	fulfillmentHandler := handlers.NewFulfillmentHandler(fulfillmentService)
	billHandler := handlers.NewBillHandler(billingService)
	statisticsHandler := handlers.NewStatisticsHandler(statisticsService)

	apiV1 := engine.Group("/api/v1")

	// Public authentication routes
	SetupPublicAuthRoutes(apiV1.Group("/auth"), authHandler)

	// Authenticated routes
	authenticated := apiV1.Group("")
	authenticated.Use(middleware.AuthMiddleware())
	{
		SetupAuthenticatedAuthRoutes(authenticated.Group("/auth"), authHandler)
		SetupMenuRoutes(authenticated, menuHandler)
		SetupOrderRoutes(authenticated, orderHandler)
		SetupFulfillmentRoutes(authenticated, fulfillmentHandler)
		SetupBillRoutes(authenticated, billHandler)
		SetupStatisticsRoutes(authenticated, statisticsHandler)

		// Live change feed for dashboards
		authenticated.GET("/ws", events.ServeWS(hub))
	}
}
