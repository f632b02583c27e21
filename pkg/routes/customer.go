package routes

import (
	"restaurant_backend/pkg/controllers/customer"
	"restaurant_backend/pkg/controllers/menu"

	"github.com/gin-gonic/gin"
)

// RegisterMenuRoutes registers the public menu reads
func RegisterMenuRoutes(router *gin.RouterGroup, deps Dependencies) {
	h := menu.New(deps.Store, deps.Images)

	menuGroup := router.Group("/menu")
	{
		menuGroup.GET("", h.ListMenu)
		menuGroup.GET("/:id", h.GetMenuItem)
	}
}

// RegisterCustomerRoutes registers the self-service ordering routes. Customers
// are anonymous and identified by their session cookie.
func RegisterCustomerRoutes(router *gin.RouterGroup, deps Dependencies) {
	h := customer.New(deps.Orders, deps.Store)

	customerGroup := router.Group("/customer")
	{
		// Cart management
		customerGroup.GET("/cart", h.GetCart)
		customerGroup.POST("/cart", h.AddToCart)
		customerGroup.PUT("/cart/:index", h.UpdateCartItem)
		customerGroup.DELETE("/cart/:index", h.RemoveCartItem)
		customerGroup.DELETE("/cart", h.ClearCart)

		// Orders
		customerGroup.POST("/orders", h.PlaceOrder)
		customerGroup.GET("/orders", h.ListOrders)
		customerGroup.GET("/orders/:id", h.GetOrder)

		// Feedback
		customerGroup.POST("/ratings", h.RateItem)
	}
}
