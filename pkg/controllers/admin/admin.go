// Package admin serves the management dashboard: staff accounts, orders,
// bills, analytics and the database reset.
package admin

import (
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"restaurant_backend/pkg/analytics"
	"restaurant_backend/pkg/apperr"
	authsvc "restaurant_backend/pkg/auth"
	"restaurant_backend/pkg/middleware"
	"restaurant_backend/pkg/models"
	"restaurant_backend/pkg/orders"
	"restaurant_backend/pkg/store"
	"restaurant_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// Controller handles /api/admin routes
type Controller struct {
	orders *orders.Manager
	auth   *authsvc.Service
	store  store.Store
	now    func() time.Time
}

// New creates an admin controller
func New(m *orders.Manager, auth *authsvc.Service, s store.Store) *Controller {
	return &Controller{orders: m, auth: auth, store: s, now: time.Now}
}

// ===STAFF===

// ListStaff returns every staff account
func (h *Controller) ListStaff(c *gin.Context) {
	staff, err := h.auth.ListStaff(c.Request.Context())
	if err != nil {
		utils.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"staff": staff})
}

// CreateStaff registers a staff account
func (h *Controller) CreateStaff(c *gin.Context) {
	var req authsvc.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Name, phone number, role and password are required")
		return
	}
	staff, err := h.auth.Register(c.Request.Context(), req)
	if err != nil {
		utils.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Staff created", "staff": staff})
}

func (h *Controller) setFrozen(c *gin.Context, frozen bool) {
	actor, _ := middleware.CurrentStaff(c)
	if actor.ID == c.Param("id") {
		utils.BadRequestResponse(c, "You cannot freeze your own account")
		return
	}
	staff, err := h.auth.SetFrozen(c.Request.Context(), c.Param("id"), frozen)
	if err != nil {
		utils.AbortWithError(c, err)
		return
	}
	message := "Staff unfrozen"
	if frozen {
		message = "Staff frozen"
	}
	c.JSON(http.StatusOK, gin.H{"message": message, "staff": staff})
}

// FreezeStaff blocks a staff account from signing in
func (h *Controller) FreezeStaff(c *gin.Context) {
	h.setFrozen(c, true)
}

// UnfreezeStaff lets a frozen account sign in again
func (h *Controller) UnfreezeStaff(c *gin.Context) {
	h.setFrozen(c, false)
}

// DeleteStaff removes a staff account
func (h *Controller) DeleteStaff(c *gin.Context) {
	actor, _ := middleware.CurrentStaff(c)
	if err := h.auth.DeleteStaff(c.Request.Context(), actor.ID, c.Param("id")); err != nil {
		utils.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Staff deleted"})
}

// ===ORDERS===

func parseInstant(c *gin.Context, key string) (time.Time, bool) {
	raw := c.Query(key)
	if raw == "" {
		return time.Time{}, true
	}
	var v interface{} = raw
	if ms, err := strconv.ParseInt(raw, 10, 64); err == nil {
		v = ms
	}
	t, err := analytics.ToInstant(v)
	if err != nil {
		utils.BadRequestResponse(c, "Invalid "+key+" date")
		return time.Time{}, false
	}
	return t, true
}

// ListOrders returns orders filtered by ?status=a,b, ?waiterId=, ?from= and ?to=
func (h *Controller) ListOrders(c *gin.Context) {
	filter := store.OrderFilter{WaiterID: c.Query("waiterId")}
	if raw := c.Query("status"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			status := models.OrderStatus(strings.TrimSpace(s))
			if !orders.ValidOrderStatus(status) {
				utils.BadRequestResponse(c, "Invalid status "+string(status))
				return
			}
			filter.Statuses = append(filter.Statuses, status)
		}
	}
	var ok bool
	if filter.Since, ok = parseInstant(c, "from"); !ok {
		return
	}
	if filter.Until, ok = parseInstant(c, "to"); !ok {
		return
	}

	list, err := h.orders.ListOrders(c.Request.Context(), filter)
	if err != nil {
		utils.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": list, "count": len(list)})
}

// GetOrder returns an order with its bills
func (h *Controller) GetOrder(c *gin.Context) {
	order, err := h.orders.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.AbortWithError(c, err)
		return
	}
	bills, err := h.orders.ListBills(c.Request.Context(), store.BillFilter{OrderID: order.ID})
	if err != nil {
		utils.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order, "bills": bills})
}

// CancelOrder cancels an order
func (h *Controller) CancelOrder(c *gin.Context) {
	order, err := h.orders.CancelOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		utils.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Order cancelled", "order": order})
}

// ListBills returns bills, optionally for one ?orderId= or ?from=
func (h *Controller) ListBills(c *gin.Context) {
	filter := store.BillFilter{OrderID: c.Query("orderId")}
	var ok bool
	if filter.Since, ok = parseInstant(c, "from"); !ok {
		return
	}
	bills, err := h.orders.ListBills(c.Request.Context(), filter)
	if err != nil {
		utils.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bills": bills, "count": len(bills)})
}

// ===ANALYTICS===

// GetOverview returns today's revenue and order counts
func (h *Controller) GetOverview(c *gin.Context) {
	overview := analytics.Summarize(h.orders.CachedOrders(), h.orders.CachedBills(), h.now())
	c.JSON(http.StatusOK, gin.H{"overview": overview})
}

// GetRevenueTrend returns revenue buckets for ?period=week|month|year|all
func (h *Controller) GetRevenueTrend(c *gin.Context) {
	period, err := analytics.ParsePeriod(c.Query("period"))
	if err != nil {
		utils.BadRequestResponse(c, err.Error())
		return
	}
	trend := analytics.RevenueTrend(h.orders.CachedOrders(), period, h.now())
	c.JSON(http.StatusOK, gin.H{"period": period, "trend": trend})
}

// GetTopItems returns the most ordered dishes, ?limit= defaults to 5
func (h *Controller) GetTopItems(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "5"))
	if err != nil || limit < 1 {
		utils.BadRequestResponse(c, "Limit must be a positive number")
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": analytics.TopItems(h.orders.CachedOrders(), limit)})
}

// GetRatings returns the average rating per dish
func (h *Controller) GetRatings(c *gin.Context) {
	ratings, err := h.store.ListRatings(c.Request.Context())
	if err != nil {
		utils.AbortWithError(c, apperr.Persistence(err, "failed to list ratings"))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"ratings": analytics.AverageRatings(ratings),
		"count":   len(ratings),
	})
}

// ===DATABASE===

// ClearDatabase deletes every order, kitchen ticket, bill and rating and resets
// the order numbering. Menu and staff are kept.
func (h *Controller) ClearDatabase(c *gin.Context) {
	var req struct {
		Confirm string `json:"confirm" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Confirm != "CLEAR" {
		utils.BadRequestResponse(c, `Send {"confirm": "CLEAR"} to clear the database`)
		return
	}

	actor, _ := middleware.CurrentStaff(c)
	if err := h.store.Clear(c.Request.Context()); err != nil {
		utils.AbortWithError(c, apperr.Persistence(err, "failed to clear database"))
		return
	}
	log.Printf("🗑️ Database cleared by %s", actor.ID)
	c.JSON(http.StatusOK, gin.H{"message": "Database cleared"})
}
