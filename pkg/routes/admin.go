package routes

import (
	"restaurant_backend/pkg/controllers/admin"
	"restaurant_backend/pkg/controllers/menu"
	"restaurant_backend/pkg/controllers/stream"
	"restaurant_backend/pkg/middleware"
	"restaurant_backend/pkg/models"

	"github.com/gin-gonic/gin"
)

// RegisterAdminRoutes registers the management dashboard routes
func RegisterAdminRoutes(router *gin.RouterGroup, deps Dependencies) {
	h := admin.New(deps.Orders, deps.Auth, deps.Store)
	m := menu.New(deps.Store, deps.Images)
	adminOnly := middleware.AuthorizeRoles(models.RoleAdmin)

	adminGroup := router.Group("/admin")
	adminGroup.Use(
		middleware.AuthenticateToken(deps.Auth),
		middleware.AuthorizeRoles(models.RoleAdmin, models.RoleManager),
	)
	{
		// Staff Management
		adminGroup.GET("/staff", h.ListStaff)
		adminGroup.POST("/staff", adminOnly, h.CreateStaff)
		adminGroup.POST("/staff/:id/freeze", adminOnly, h.FreezeStaff)
		adminGroup.POST("/staff/:id/unfreeze", adminOnly, h.UnfreezeStaff)
		adminGroup.DELETE("/staff/:id", adminOnly, h.DeleteStaff)

		// Menu Management
		adminGroup.GET("/menu", m.ListMenu)
		adminGroup.POST("/menu", m.CreateMenuItem)
		adminGroup.PUT("/menu/:id", m.UpdateMenuItem)
		adminGroup.PUT("/menu/:id/availability", m.SetAvailability)
		adminGroup.POST("/menu/:id/image", m.UploadImage)
		adminGroup.DELETE("/menu/:id", m.DeleteMenuItem)

		// Order Management
		adminGroup.GET("/orders", h.ListOrders)
		adminGroup.GET("/orders/:id", h.GetOrder)
		adminGroup.POST("/orders/:id/cancel", h.CancelOrder)
		adminGroup.GET("/bills", h.ListBills)

		// Analytics
		adminGroup.GET("/analytics/overview", h.GetOverview)
		adminGroup.GET("/analytics/revenue-trend", h.GetRevenueTrend)
		adminGroup.GET("/analytics/top-items", h.GetTopItems)
		adminGroup.GET("/analytics/ratings", h.GetRatings)

		// Database
		adminGroup.DELETE("/database", adminOnly, h.ClearDatabase)
	}
}

// RegisterStreamRoutes registers the live snapshot feed for staff dashboards
func RegisterStreamRoutes(router *gin.RouterGroup, deps Dependencies) {
	h := stream.New(deps.Store)

	streamGroup := router.Group("/stream")
	streamGroup.Use(middleware.AuthenticateToken(deps.Auth))
	streamGroup.GET("/:collection", guardManagementCollections(), h.Subscribe)
}

// guardManagementCollections keeps staff accounts and bills to admins and managers
func guardManagementCollections() gin.HandlerFunc {
	managers := middleware.AuthorizeRoles(models.RoleAdmin, models.RoleManager)
	return func(c *gin.Context) {
		switch c.Param("collection") {
		case models.CollectionStaff, models.CollectionBills:
			managers(c)
		}
	}
}
