// Package customer serves the self-service ordering flow: a session cart,
// placing orders, following them and rating dishes.
package customer

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"restaurant_backend/pkg/apperr"
	"restaurant_backend/pkg/models"
	"restaurant_backend/pkg/orders"
	"restaurant_backend/pkg/store"
	"restaurant_backend/pkg/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	cartKey     = "cart"
	customerKey = "customerId"
	maxCartSize = 50
)

// Controller handles /api/customer routes
type Controller struct {
	orders *orders.Manager
	store  store.Store
	now    func() time.Time
}

// New creates a customer controller
func New(m *orders.Manager, s store.Store) *Controller {
	return &Controller{orders: m, store: s, now: time.Now}
}

// CartLine is a priced cart entry
type CartLine struct {
	orders.ItemRequest
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	LineTotal float64 `json:"lineTotal"`
	Available bool    `json:"available"`
}

func loadCart(session sessions.Session) []orders.ItemRequest {
	raw, ok := session.Get(cartKey).(string)
	if !ok || raw == "" {
		return nil
	}
	var cart []orders.ItemRequest
	if err := json.Unmarshal([]byte(raw), &cart); err != nil {
		log.Printf("⚠️ Dropping unreadable cart: %v", err)
		return nil
	}
	return cart
}

func saveCart(session sessions.Session, cart []orders.ItemRequest) error {
	if len(cart) == 0 {
		session.Delete(cartKey)
		return session.Save()
	}
	raw, err := json.Marshal(cart)
	if err != nil {
		return err
	}
	session.Set(cartKey, string(raw))
	return session.Save()
}

// customerID returns the id of this browser session, creating one on first use
func customerID(session sessions.Session) string {
	if id, ok := session.Get(customerKey).(string); ok && id != "" {
		return id
	}
	id := uuid.NewString()
	session.Set(customerKey, id)
	return id
}

func samePreferences(a, b orders.ItemRequest) bool {
	eqSugar := (a.SugarPreference == nil && b.SugarPreference == nil) ||
		(a.SugarPreference != nil && b.SugarPreference != nil && *a.SugarPreference == *b.SugarPreference)
	eqSpicy := (a.SpicyPreference == nil && b.SpicyPreference == nil) ||
		(a.SpicyPreference != nil && b.SpicyPreference != nil && *a.SpicyPreference == *b.SpicyPreference)
	return a.MenuItemID == b.MenuItemID && a.SpecialInstructions == b.SpecialInstructions && eqSugar && eqSpicy
}

func (h *Controller) priced(c *gin.Context, cart []orders.ItemRequest) ([]CartLine, float64, error) {
	lines := make([]CartLine, 0, len(cart))
	var total float64
	for _, item := range cart {
		menuItem, err := h.store.GetMenuItem(c.Request.Context(), item.MenuItemID)
		if errors.Is(err, store.ErrNotFound) {
			lines = append(lines, CartLine{ItemRequest: item})
			continue
		}
		if err != nil {
			return nil, 0, apperr.Persistence(err, "failed to load menu item %s", item.MenuItemID)
		}
		line := CartLine{
			ItemRequest: item,
			Name:        menuItem.Name,
			Price:       menuItem.Price,
			LineTotal:   menuItem.Price * float64(item.Quantity),
			Available:   menuItem.Available,
		}
		total += line.LineTotal
		lines = append(lines, line)
	}
	return lines, total, nil
}

func (h *Controller) respondCart(c *gin.Context, cart []orders.ItemRequest, message string) {
	lines, total, err := h.priced(c, cart)
	if err != nil {
		utils.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": message,
		"items":   lines,
		"total":   total,
	})
}

func cartIndex(c *gin.Context, cart []orders.ItemRequest) (int, bool) {
	i, err := strconv.Atoi(c.Param("index"))
	if err != nil || i < 0 || i >= len(cart) {
		utils.NotFoundResponse(c, "Cart item not found")
		return 0, false
	}
	return i, true
}

// GetCart returns the priced session cart
func (h *Controller) GetCart(c *gin.Context) {
	h.respondCart(c, loadCart(sessions.Default(c)), "Cart fetched successfully")
}

// AddToCart adds a menu item to the cart, merging identical lines
func (h *Controller) AddToCart(c *gin.Context) {
	var req orders.ItemRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Quantity < 1 {
		utils.BadRequestResponse(c, "Menu item and a quantity of at least 1 are required")
		return
	}

	menuItem, err := h.store.GetMenuItem(c.Request.Context(), req.MenuItemID)
	if errors.Is(err, store.ErrNotFound) {
		utils.NotFoundResponse(c, "Menu item not found")
		return
	}
	if err != nil {
		utils.AbortWithError(c, apperr.Persistence(err, "failed to load menu item"))
		return
	}
	if !menuItem.Available {
		utils.BadRequestResponse(c, menuItem.Name+" is currently unavailable")
		return
	}

	session := sessions.Default(c)
	cart := loadCart(session)
	merged := false
	for i := range cart {
		if samePreferences(cart[i], req) {
			cart[i].Quantity += req.Quantity
			merged = true
			break
		}
	}
	if !merged {
		if len(cart) >= maxCartSize {
			utils.BadRequestResponse(c, "Cart is full")
			return
		}
		cart = append(cart, req)
	}

	if err := saveCart(session, cart); err != nil {
		utils.AbortWithError(c, err)
		return
	}
	h.respondCart(c, cart, "Item added to cart")
}

// UpdateCartItem changes the quantity, preferences or instructions of a line
func (h *Controller) UpdateCartItem(c *gin.Context) {
	var req struct {
		Quantity            *int                    `json:"quantity"`
		SpecialInstructions *string                 `json:"specialInstructions"`
		SugarPreference     *models.SugarPreference `json:"sugarPreference"`
		SpicyPreference     *models.SpicyPreference `json:"spicyPreference"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Invalid cart update")
		return
	}

	session := sessions.Default(c)
	cart := loadCart(session)
	i, ok := cartIndex(c, cart)
	if !ok {
		return
	}

	if req.Quantity != nil {
		if *req.Quantity < 1 {
			utils.BadRequestResponse(c, "Quantity must be at least 1")
			return
		}
		cart[i].Quantity = *req.Quantity
	}
	if req.SpecialInstructions != nil {
		cart[i].SpecialInstructions = strings.TrimSpace(*req.SpecialInstructions)
	}
	if req.SugarPreference != nil {
		cart[i].SugarPreference = req.SugarPreference
	}
	if req.SpicyPreference != nil {
		cart[i].SpicyPreference = req.SpicyPreference
	}

	if err := saveCart(session, cart); err != nil {
		utils.AbortWithError(c, err)
		return
	}
	h.respondCart(c, cart, "Cart updated")
}

// RemoveCartItem drops one line from the cart
func (h *Controller) RemoveCartItem(c *gin.Context) {
	session := sessions.Default(c)
	cart := loadCart(session)
	i, ok := cartIndex(c, cart)
	if !ok {
		return
	}
	cart = append(cart[:i], cart[i+1:]...)

	if err := saveCart(session, cart); err != nil {
		utils.AbortWithError(c, err)
		return
	}
	h.respondCart(c, cart, "Item removed from cart")
}

// ClearCart empties the cart
func (h *Controller) ClearCart(c *gin.Context) {
	if err := saveCart(sessions.Default(c), nil); err != nil {
		utils.AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cart cleared", "items": []CartLine{}, "total": 0})
}

// PlaceOrder places a pending order from the request items, or from the cart
// when the request has none. The cart is emptied on success.
func (h *Controller) PlaceOrder(c *gin.Context) {
	var req orders.CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Order type is required")
		return
	}

	session := sessions.Default(c)
	fromCart := len(req.Items) == 0
	if fromCart {
		req.Items = loadCart(session)
	}
	req.CustomerID = customerID(session)
	req.WaiterID = ""

	result, err := h.orders.CreateOrder(c.Request.Context(), orders.FlowCustomer, req)
	if err != nil {
		utils.AbortWithError(c, err)
		return
	}

	if fromCart {
		session.Delete(cartKey)
	}
	if err := session.Save(); err != nil {
		log.Printf("⚠️ Failed to save session after order %s: %v", result.Order.ID, err)
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Order placed successfully",
		"order":   result.Order,
	})
}

// sessionOrder loads an order placed from this session
func (h *Controller) sessionOrder(c *gin.Context, id string) (*models.Order, bool) {
	order, err := h.orders.GetOrder(c.Request.Context(), id)
	if err != nil {
		utils.AbortWithError(c, err)
		return nil, false
	}
	owner, _ := sessions.Default(c).Get(customerKey).(string)
	if owner == "" || order.CustomerID != owner {
		utils.NotFoundResponse(c, "Order not found")
		return nil, false
	}
	return order, true
}

// GetOrder returns an order placed from this session
func (h *Controller) GetOrder(c *gin.Context) {
	order, ok := h.sessionOrder(c, c.Param("id"))
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

// ListOrders returns the orders placed from this session
func (h *Controller) ListOrders(c *gin.Context) {
	owner, _ := sessions.Default(c).Get(customerKey).(string)
	if owner == "" {
		c.JSON(http.StatusOK, gin.H{"orders": []models.Order{}})
		return
	}
	all, err := h.orders.ListOrders(c.Request.Context(), store.OrderFilter{})
	if err != nil {
		utils.AbortWithError(c, err)
		return
	}
	mine := make([]models.Order, 0)
	for _, o := range all {
		if o.CustomerID == owner {
			mine = append(mine, o)
		}
	}
	c.JSON(http.StatusOK, gin.H{"orders": mine})
}

// RateItem records a 1-5 star rating for a dish of one of this session's orders
func (h *Controller) RateItem(c *gin.Context) {
	var req struct {
		OrderID    string `json:"orderId" binding:"required"`
		MenuItemID string `json:"menuItemId" binding:"required"`
		Stars      int    `json:"stars" binding:"required"`
		Comment    string `json:"comment"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.BadRequestResponse(c, "Order, menu item and stars are required")
		return
	}
	if req.Stars < 1 || req.Stars > 5 {
		utils.BadRequestResponse(c, "Stars must be between 1 and 5")
		return
	}

	order, ok := h.sessionOrder(c, req.OrderID)
	if !ok {
		return
	}
	if order.Status == models.OrderStatusCancelled {
		utils.BadRequestResponse(c, "Cancelled orders cannot be rated")
		return
	}
	found := false
	for _, item := range order.Items {
		if item.MenuItem.ID == req.MenuItemID {
			found = true
			break
		}
	}
	if !found {
		utils.BadRequestResponse(c, "Item is not part of this order")
		return
	}

	rating := &models.Rating{
		ID:           uuid.NewString(),
		OrderID:      order.ID,
		MenuItemID:   req.MenuItemID,
		CustomerName: order.CustomerName,
		Stars:        req.Stars,
		Comment:      strings.TrimSpace(req.Comment),
		CreatedAt:    h.now(),
	}
	if err := h.store.CreateRating(c.Request.Context(), rating); err != nil {
		utils.AbortWithError(c, apperr.Persistence(err, "failed to save rating"))
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Thanks for your feedback", "rating": rating})
}
