package routes

import (
	"restaurant_backend/pkg/controllers/kitchen"
	"restaurant_backend/pkg/controllers/menu"
	"restaurant_backend/pkg/controllers/waiter"
	"restaurant_backend/pkg/middleware"
	"restaurant_backend/pkg/models"

	"github.com/gin-gonic/gin"
)

// RegisterStaffRoutes registers the waiter and kitchen routes
func RegisterStaffRoutes(router *gin.RouterGroup, deps Dependencies) {
	w := waiter.New(deps.Orders, deps.Payments)
	waiterGroup := router.Group("/waiter")
	waiterGroup.Use(
		middleware.AuthenticateToken(deps.Auth),
		middleware.AuthorizeRoles(models.RoleWaiter, models.RoleManager, models.RoleAdmin),
	)
	{
		// Order management
		waiterGroup.POST("/orders", w.CreateOrder)
		waiterGroup.GET("/orders", w.ListOrders)
		waiterGroup.GET("/orders/:id", w.GetOrder)
		waiterGroup.PUT("/orders/:id/confirm", w.ConfirmOrder)
		waiterGroup.POST("/orders/:id/cancel", w.CancelOrder)
		waiterGroup.POST("/orders/:id/delivery", w.ToggleDelivery)

		// Billing
		waiterGroup.GET("/orders/:id/bill", w.PreviewBill)
		waiterGroup.POST("/orders/:id/bill", w.GenerateBill)
		waiterGroup.POST("/payments/razorpay-order", w.CreatePaymentOrder)
	}

	k := kitchen.New(deps.Orders)
	m := menu.New(deps.Store, deps.Images)
	kitchenGroup := router.Group("/kitchen")
	kitchenGroup.Use(
		middleware.AuthenticateToken(deps.Auth),
		middleware.AuthorizeRoles(models.RoleKitchen, models.RoleManager, models.RoleAdmin),
	)
	{
		// Kitchen display
		kitchenGroup.GET("/tickets", k.ListTickets)
		kitchenGroup.PUT("/tickets/:orderId/status", k.SetTicketStatus)
		kitchenGroup.PUT("/orders/:orderId/items/:itemId/status", k.SetItemStatus)

		// Menu management
		kitchenGroup.POST("/menu", m.CreateMenuItem)
		kitchenGroup.PUT("/menu/:id", m.UpdateMenuItem)
		kitchenGroup.PUT("/menu/:id/availability", m.SetAvailability)
		kitchenGroup.POST("/menu/:id/image", m.UploadImage)
		kitchenGroup.DELETE("/menu/:id", m.DeleteMenuItem)
	}
}
