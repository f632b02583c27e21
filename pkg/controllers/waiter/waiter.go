// Package waiter serves the waiter flow: taking orders, confirming drafts,
// billing, cancellation and delivery tracking.
package waiter

import (
	"log"
	"net/http"

	"restaurant_backend/pkg/middleware"
	"restaurant_backend/pkg/models"
	"restaurant_backend/pkg/orders"
	"restaurant_backend/pkg/services"
	"restaurant_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// Controller handles /api/waiter routes
type Controller struct {
	orders   *orders.Manager
	payments *services.PaymentGateway
}

// New creates a waiter controller; payments may be nil
func New(m *orders.Manager, payments *services.PaymentGateway) *Controller {
	return &Controller{orders: m, payments: payments}
}

// CreateOrder places a confirmed order (or a draft) owned by the waiter
func (h *Controller) CreateOrder(c *gin.Context) {
	var req orders.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Order type and items are required")
		return
	}
	staff, _ := middleware.CurrentStaff(c)
	req.WaiterID = staff.ID

	result, err := h.orders.CreateOrder(c.Request.Context(), orders.FlowWaiter, req)
	if err != nil {
		utils.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"message": "Order created",
		"order":   result.Order,
		"ticket":  result.Ticket,
	})
}

// ListOrders returns the waiter's own orders
func (h *Controller) ListOrders(c *gin.Context) {
	staff, _ := middleware.CurrentStaff(c)
	list, err := h.orders.WaiterOrders(c.Request.Context(), staff.ID)
	if err != nil {
		utils.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": list})
}

// GetOrder returns one order
func (h *Controller) GetOrder(c *gin.Context) {
	order, err := h.orders.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

// ConfirmOrder sends a pending order to the kitchen
func (h *Controller) ConfirmOrder(c *gin.Context) {
	result, err := h.orders.ConfirmOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.AbortWithError(c, err)
		return
	}
	response := gin.H{
		"message": "Order confirmed",
		"order":   result.Order,
		"ticket":  result.Ticket,
	}
	if result.Warning != "" {
		response["warning"] = result.Warning
	}
	c.JSON(http.StatusOK, response)
}

type billRequest struct {
	PaymentMethod      models.PaymentMethod `json:"paymentMethod" binding:"required"`
	ApplyServiceCharge bool                 `json:"applyServiceCharge"`
	Discount           float64              `json:"discount"`
	RazorpayOrderID    string               `json:"razorpayOrderId"`
	RazorpayPaymentID  string               `json:"razorpayPaymentId"`
	RazorpaySignature  string               `json:"razorpaySignature"`
}

// GenerateBill bills the order and marks it paid. Online and UPI payments
// must carry a valid Razorpay signature and a payment captured for the bill
// total when the gateway is configured.
func (h *Controller) GenerateBill(c *gin.Context) {
	var req billRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Payment method is required")
		return
	}

	staff, _ := middleware.CurrentStaff(c)
	billReq := orders.BillRequest{
		OrderID:            c.Param("id"),
		GeneratedBy:        staff.Name,
		PaymentMethod:      req.PaymentMethod,
		ApplyServiceCharge: req.ApplyServiceCharge,
		Discount:           req.Discount,
		RazorpayPaymentID:  req.RazorpayPaymentID,
	}

	if req.PaymentMethod.IsGateway() && h.payments.Enabled() {
		if !h.payments.VerifySignature(req.RazorpayOrderID, req.RazorpayPaymentID, req.RazorpaySignature) {
			utils.BadRequestResponse(c, "Payment verification failed")
			return
		}
		preview, err := h.orders.PreviewBill(c.Request.Context(), billReq)
		if err != nil {
			utils.AbortWithError(c, err)
			return
		}
		if err := h.payments.ConfirmCapture(req.RazorpayPaymentID, preview.Total); err != nil {
			log.Printf("⚠️ Payment %s rejected for order %s: %v", req.RazorpayPaymentID, billReq.OrderID, err)
			utils.BadRequestResponse(c, "Payment not captured for the bill amount")
			return
		}
	}

	bill, order, err := h.orders.GenerateBill(c.Request.Context(), billReq)
	if err != nil {
		if bill != nil {
			c.JSON(http.StatusOK, gin.H{
				"message": "Bill generated",
				"bill":    bill,
				"warning": orders.WarnBillSaved,
			})
			return
		}
		utils.AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Bill generated",
		"bill":    bill,
		"order":   order,
	})
}

// PreviewBill returns the bill that would be generated
func (h *Controller) PreviewBill(c *gin.Context) {
	bill, err := h.orders.PreviewBill(c.Request.Context(), orders.BillRequest{
		OrderID:            c.Param("id"),
		ApplyServiceCharge: c.Query("serviceCharge") == "true",
	})
	if err != nil {
		utils.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bill": bill})
}

// CreatePaymentOrder opens a Razorpay order for the order's bill total
func (h *Controller) CreatePaymentOrder(c *gin.Context) {
	var req struct {
		OrderID            string  `json:"orderId" binding:"required"`
		ApplyServiceCharge bool    `json:"applyServiceCharge"`
		Discount           float64 `json:"discount"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Order id is required")
		return
	}
	if !h.payments.Enabled() {
		utils.ErrorResponse(c, http.StatusServiceUnavailable, "Online payments are not configured")
		return
	}

	bill, err := h.orders.PreviewBill(c.Request.Context(), orders.BillRequest{
		OrderID:            req.OrderID,
		ApplyServiceCharge: req.ApplyServiceCharge,
		Discount:           req.Discount,
	})
	if err != nil {
		utils.AbortWithError(c, err)
		return
	}

	razorpayOrder, err := h.payments.CreateOrder(req.OrderID, bill.Total)
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadGateway, err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":       "Payment order created",
		"razorpayOrder": razorpayOrder,
		"keyId":         h.payments.KeyID(),
		"amount":        bill.Total,
	})
}

// CancelOrder cancels an order that is not completed yet
func (h *Controller) CancelOrder(c *gin.Context) {
	order, err := h.orders.CancelOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Order cancelled", "order": order})
}

// ToggleDelivery flips the delivery status
func (h *Controller) ToggleDelivery(c *gin.Context) {
	order, err := h.orders.ToggleDelivery(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Delivery status updated", "order": order})
}
