package routes

import (
	"net/http"

	"restaurant_backend/pkg/auth"
	"restaurant_backend/pkg/config"
	"restaurant_backend/pkg/controllers/menu"
	"restaurant_backend/pkg/middleware"
	"restaurant_backend/pkg/orders"
	"restaurant_backend/pkg/services"
	"restaurant_backend/pkg/store"

	"github.com/gin-gonic/gin"
)

// Dependencies are the services the route handlers are built from
type Dependencies struct {
	Config   *config.Config
	Store    store.Store
	Orders   *orders.Manager
	Auth     *auth.Service
	Images   menu.ImageUploader // nil when no bucket is configured
	Payments *services.PaymentGateway
}

// Setup registers the middleware chain and every API route on router
func Setup(router *gin.Engine, deps Dependencies) {
	router.Use(middleware.RecoveryMiddleware(), middleware.ErrorMiddleware())
	router.NoRoute(middleware.NotFoundHandler())

	// Root route
	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "Restaurant Backend Server is running...")
	})

	api := router.Group("/api")
	{
		RegisterAuthRoutes(api, deps)
		RegisterMenuRoutes(api, deps)
		RegisterCustomerRoutes(api, deps)
		RegisterStaffRoutes(api, deps)
		RegisterAdminRoutes(api, deps)
		RegisterStreamRoutes(api, deps)

		// Health check route
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"status":      "ok",
				"environment": deps.Config.Environment,
				"store":       deps.Config.StoreDriver,
			})
		})
	}
}
