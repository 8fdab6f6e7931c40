package router

import (
	"mess_portal_backend/internal/handlers"
	"mess_portal_backend/internal/middleware"
	"mess_portal_backend/internal/models"

	"github.com/gin-gonic/gin"
)

// SetupPublicAuthRoutes registers the unauthenticated auth endpoints.
func SetupPublicAuthRoutes(group *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	group.POST("/register", authHandler.Register)
	group.POST("/login", authHandler.Login)
	group.POST("/refresh-token", authHandler.RefreshToken)
}

// SetupAuthenticatedAuthRoutes registers auth endpoints that require a token.
func SetupAuthenticatedAuthRoutes(group *gin.RouterGroup, authHandler *handlers.AuthHandler) {
	group.GET("/me", authHandler.GetProfile)
}

// SetupMenuRoutes registers menu endpoints. Reads are open to every
// authenticated user; mutations are admin-only.
func SetupMenuRoutes(rg *gin.RouterGroup, menuHandler *handlers.MenuHandler) {
	menus := rg.Group("/menus")
	{
		menus.GET("", menuHandler.GetMenus)
		menus.GET("/:id", menuHandler.GetMenuByID)

		admin := menus.Group("")
		admin.Use(middleware.RoleAuthMiddleware(models.RoleAdmin))
		{
			admin.POST("", menuHandler.CreateMenu)
			admin.PUT("/:id", menuHandler.UpdateMenu)
			admin.DELETE("/:id", menuHandler.DeleteMenu)
			admin.GET("/:id/capacity-movements", menuHandler.GetCapacityMovements)
		}
	}
}

// SetupOrderRoutes registers order placement and the approval state machine.
func SetupOrderRoutes(rg *gin.RouterGroup, orderHandler *handlers.OrderHandler) {
	orders := rg.Group("/orders")
	{
		orders.POST("", orderHandler.PlaceOrder)
		orders.GET("/my", orderHandler.GetMyOrders)
		orders.GET("/my/menu/:menu_id", orderHandler.GetMyOrderForMenu)
		orders.DELETE("/:id", orderHandler.WithdrawOrder)
		orders.POST("/:id/request-cancellation", orderHandler.RequestCancellation)

		admin := orders.Group("")
		admin.Use(middleware.RoleAuthMiddleware(models.RoleAdmin))
		{
			admin.GET("", orderHandler.GetOrders)
			admin.POST("/:id/approve", orderHandler.ApproveOrder)
			admin.POST("/:id/reject", orderHandler.RejectOrder)
			admin.POST("/:id/approve-cancellation", orderHandler.ApproveCancellation)
			admin.POST("/:id/reject-cancellation", orderHandler.RejectCancellation)
		}
	}
}

// SetupFulfillmentRoutes registers the counter-side verification endpoints.
func SetupFulfillmentRoutes(rg *gin.RouterGroup, fulfillmentHandler *handlers.FulfillmentHandler) {
	fulfillment := rg.Group("/fulfillment")
	fulfillment.Use(middleware.RoleAuthMiddleware(models.RoleAdmin))
	{
		fulfillment.POST("/verify-token", fulfillmentHandler.VerifyToken)
		fulfillment.POST("/orders/:id/fulfill", fulfillmentHandler.MarkFulfilled)
	}
}

// SetupBillRoutes registers billing reads.
func SetupBillRoutes(rg *gin.RouterGroup, billHandler *handlers.BillHandler) {
	bills := rg.Group("/bills")
	{
		bills.GET("/my", billHandler.GetMyBills)
		bills.GET("/my/totals", billHandler.GetMyOrderTotals)

		admin := bills.Group("")
		admin.Use(middleware.RoleAuthMiddleware(models.RoleAdmin))
		{
			admin.GET("", billHandler.GetAllBills)
		}
	}
}

// SetupStatisticsRoutes registers the admin dashboard aggregates.
func SetupStatisticsRoutes(rg *gin.RouterGroup, statisticsHandler *handlers.StatisticsHandler) {
	statistics := rg.Group("/statistics")
	statistics.Use(middleware.RoleAuthMiddleware(models.RoleAdmin))
	{
		statistics.GET("/summary", statisticsHandler.GetSummary)
	}
}
