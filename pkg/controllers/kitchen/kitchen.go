// Package kitchen serves the kitchen display: tickets, ticket status and
// per-item progress.
package kitchen

import (
	"net/http"

	"restaurant_backend/pkg/models"
	"restaurant_backend/pkg/orders"
	"restaurant_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// Controller handles /api/kitchen routes
type Controller struct {
	orders *orders.Manager
}

// New creates a kitchen controller
func New(m *orders.Manager) *Controller {
	return &Controller{orders: m}
}

// ListTickets returns the kitchen display, optionally filtered by ?status=
func (h *Controller) ListTickets(c *gin.Context) {
	tickets, err := h.orders.KitchenTickets(c.Request.Context())
	if err != nil {
		utils.AbortWithError(c, err)
		return
	}

	if status := models.KitchenStatus(c.Query("status")); status != "" {
		filtered := make([]models.KitchenOrder, 0, len(tickets))
		for _, t := range tickets {
			if t.Status == status {
				filtered = append(filtered, t)
			}
		}
		tickets = filtered
	}
	c.JSON(http.StatusOK, gin.H{"tickets": tickets})
}

// SetTicketStatus moves a ticket between lanes. The ticket write stands even
// when the order could not follow; the response then carries a warning.
func (h *Controller) SetTicketStatus(c *gin.Context) {
	var req struct {
		Status models.KitchenStatus `json:"status" binding:"required"`
		Paused bool                 `json:"paused"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Status is required")
		return
	}

	result, err := h.orders.SetKitchenStatus(c.Request.Context(), c.Param("orderId"), req.Status, req.Paused)
	if err != nil {
		utils.AbortWithError(c, err)
		return
	}

	response := gin.H{
		"message": "Kitchen status updated",
		"ticket":  result.Ticket,
		"order":   result.Order,
	}
	if result.Warning != "" {
		response["warning"] = result.Warning
	}
	c.JSON(http.StatusOK, response)
}

// SetItemStatus records progress on a single order line
func (h *Controller) SetItemStatus(c *gin.Context) {
	var req struct {
		Status models.OrderItemStatus `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Status is required")
		return
	}

	order, err := h.orders.UpdateItemStatus(c.Request.Context(), c.Param("orderId"), c.Param("itemId"), req.Status)
	if err != nil {
		utils.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Item status updated", "order": order})
}
