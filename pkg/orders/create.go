package orders

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"restaurant_backend/pkg/apperr"
	"restaurant_backend/pkg/models"
	"restaurant_backend/pkg/store"

	"github.com/google/uuid"
)

// Flow identifies who places the order; it decides the initial status and tax rate
type Flow string

const (
	FlowCustomer Flow = "customer"
	FlowWaiter   Flow = "waiter"
)

// ItemRequest is one requested line
type ItemRequest struct {
	MenuItemID          string                  `json:"menuItemId" binding:"required"`
	Quantity            int                     `json:"quantity" binding:"required"`
	SpecialInstructions string                  `json:"specialInstructions"`
	SugarPreference     *models.SugarPreference `json:"sugarPreference"`
	SpicyPreference     *models.SpicyPreference `json:"spicyPreference"`
}

// CreateRequest carries everything needed to place an order
type CreateRequest struct {
	Type            models.OrderType      `json:"type" binding:"required"`
	CustomerID      string                `json:"customerId"`
	CustomerName    string                `json:"customerName"`
	CustomerPhone   string                `json:"customerPhone"`
	CustomerAddress string                `json:"customerAddress"`
	TableNumber     string                `json:"tableNumber"`
	Items           []ItemRequest         `json:"items"`
	PaymentMethod   *models.PaymentMethod `json:"paymentMethod"`
	EstimatedTime   *int                  `json:"estimatedTime"`
	Draft           bool                  `json:"draft"`
	WaiterID        string                `json:"-"`
}

// Validate checks the type-conditional required fields
func (r CreateRequest) Validate() error {
	if len(r.Items) == 0 {
		return apperr.Validation("order must contain at least one item")
	}
	switch r.Type {
	case models.OrderTypeDelivery:
		if strings.TrimSpace(r.CustomerName) == "" || strings.TrimSpace(r.CustomerPhone) == "" || strings.TrimSpace(r.CustomerAddress) == "" {
			return apperr.Validation("delivery orders require customer name, phone and address")
		}
	case models.OrderTypeDineIn:
		if strings.TrimSpace(r.TableNumber) == "" {
			return apperr.Validation("dine-in orders require a table number")
		}
	default:
		return apperr.Validation("invalid order type %q", r.Type)
	}
	for _, item := range r.Items {
		if item.Quantity < 1 {
			return apperr.Validation("quantity for %s must be at least 1", item.MenuItemID)
		}
	}
	if r.PaymentMethod != nil && !ValidPaymentMethod(*r.PaymentMethod) {
		return apperr.Validation("invalid payment method %q", *r.PaymentMethod)
	}
	if r.EstimatedTime != nil && *r.EstimatedTime <= 0 {
		return apperr.Validation("estimated time must be positive")
	}
	return nil
}

// CreateOrder validates req, snapshots the menu prices, and stores the order.
// Waiter orders start confirmed and get their kitchen ticket in the same write,
// unless they are drafts. Customer orders start pending.
func (m *Manager) CreateOrder(ctx context.Context, flow Flow, req CreateRequest) (*Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var rate float64
	status := models.OrderStatusPending
	switch flow {
	case FlowCustomer:
		rate = m.rates.Customer
	case FlowWaiter:
		if req.WaiterID == "" {
			return nil, apperr.Validation("waiter id is required")
		}
		rate = m.rates.Waiter
		if !req.Draft {
			status = models.OrderStatusConfirmed
		}
	default:
		return nil, apperr.Validation("unknown order flow %q", flow)
	}

	items, err := m.resolveItems(ctx, req.Items)
	if err != nil {
		return nil, err
	}

	total, tax, grandTotal := ComputeTotals(items, rate)
	order := &models.Order{
		CustomerID:    req.CustomerID,
		CustomerName:  strings.TrimSpace(req.CustomerName),
		CustomerPhone: strings.TrimSpace(req.CustomerPhone),
		Type:          req.Type,
		Items:         items,
		Status:        status,
		Total:         total,
		Tax:           tax,
		GrandTotal:    grandTotal,
		PaymentMethod: req.PaymentMethod,
		PaymentStatus: models.PaymentStatusPending,
		OrderTime:     m.now(),
		Draft:         req.Draft,
	}
	if req.Type == models.OrderTypeDelivery {
		address := strings.TrimSpace(req.CustomerAddress)
		order.CustomerAddress = &address
	} else {
		table := strings.TrimSpace(req.TableNumber)
		order.TableNumber = &table
	}
	if req.WaiterID != "" {
		waiterID := req.WaiterID
		order.WaiterID = &waiterID
	}
	estimate := EstimateMinutes(items)
	if req.EstimatedTime != nil {
		estimate = *req.EstimatedTime
	}
	order.EstimatedTime = &estimate

	n, err := m.store.NextOrderNumber(ctx)
	if err != nil {
		return nil, apperr.Persistence(err, "failed to allocate order number")
	}
	order.ID = fmt.Sprintf("ORD%03d", n)

	var ticket *models.KitchenOrder
	if status == models.OrderStatusConfirmed {
		ticket = newTicket(order)
	}

	if err := m.store.CreateOrder(ctx, order, ticket); err != nil {
		return nil, apperr.Persistence(err, "failed to save order")
	}
	m.remember(*order)

	log.Printf("🧾 Order %s created (%s, %s, %.2f)", order.ID, flow, order.Status, order.GrandTotal)
	if err := m.notifier.OrderCreated(ctx, *order); err != nil {
		log.Printf("⚠️ Order %s created notification failed: %v", order.ID, err)
	}

	return &Result{Order: order, Ticket: ticket}, nil
}

// resolveItems snapshots the requested menu items
func (m *Manager) resolveItems(ctx context.Context, reqs []ItemRequest) (models.OrderItems, error) {
	items := make(models.OrderItems, 0, len(reqs))
	for _, r := range reqs {
		menuItem, err := m.store.GetMenuItem(ctx, r.MenuItemID)
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("menu item %s not found", r.MenuItemID)
		}
		if err != nil {
			return nil, apperr.Persistence(err, "failed to load menu item %s", r.MenuItemID)
		}
		if !menuItem.Available {
			return nil, apperr.Validation("%s is not available", menuItem.Name)
		}

		item := models.OrderItem{
			ID:                  uuid.NewString(),
			MenuItem:            menuItem.Snapshot(),
			Quantity:            r.Quantity,
			SpecialInstructions: strings.TrimSpace(r.SpecialInstructions),
			Status:              models.OrderItemStatusPending,
		}
		if err := applyPreferences(&item, r); err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// applyPreferences keeps sugar preferences for beverages and spice preferences
// for main courses; others are dropped
func applyPreferences(item *models.OrderItem, r ItemRequest) error {
	if r.SugarPreference != nil {
		switch *r.SugarPreference {
		case models.SugarPreferenceSugar, models.SugarPreferenceSugarless:
		default:
			return apperr.Validation("invalid sugar preference %q", *r.SugarPreference)
		}
		if strings.EqualFold(item.MenuItem.Category, models.CategoryBeverages) {
			pref := *r.SugarPreference
			item.SugarPreference = &pref
		}
	}
	if r.SpicyPreference != nil {
		switch *r.SpicyPreference {
		case models.SpicyPreferenceSpicy, models.SpicyPreferenceNonSpicy:
		default:
			return apperr.Validation("invalid spicy preference %q", *r.SpicyPreference)
		}
		if strings.EqualFold(item.MenuItem.Category, models.CategoryMainCourse) {
			pref := *r.SpicyPreference
			item.SpicyPreference = &pref
		}
	}
	return nil
}

func newTicket(order *models.Order) *models.KitchenOrder {
	estimate := EstimateMinutes(order.Items)
	if order.EstimatedTime != nil {
		estimate = *order.EstimatedTime
	}
	items := make(models.OrderItems, len(order.Items))
	copy(items, order.Items)
	return &models.KitchenOrder{
		OrderID:       order.ID,
		OrderNumber:   order.ID,
		TableNumber:   order.TableNumber,
		CustomerName:  order.CustomerName,
		Items:         items,
		OrderTime:     order.OrderTime,
		EstimatedTime: estimate,
		Priority:      PriorityFor(order.Type),
		Status:        KitchenStatusFor(order.Status),
		Paused:        order.Paused,
	}
}

// ConfirmOrder moves a pending or draft order to confirmed and creates its
// kitchen ticket. A failed ticket write does not undo the confirmation; the
// ticket is rebuilt by ReconcileKitchen.
func (m *Manager) ConfirmOrder(ctx context.Context, id string) (*Result, error) {
	order, err := m.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.Status != models.OrderStatusPending {
		return nil, apperr.Validation("only pending orders can be confirmed, order %s is %s", id, order.Status)
	}

	order.Status = models.OrderStatusConfirmed
	order.Draft = false
	if order.EstimatedTime == nil {
		estimate := EstimateMinutes(order.Items)
		order.EstimatedTime = &estimate
	}
	err = m.write(ctx, order, store.Fields{
		"status":        models.OrderStatusConfirmed,
		"draft":         false,
		"estimatedTime": *order.EstimatedTime,
	})
	if err != nil {
		return nil, err
	}

	ticket := newTicket(order)
	if err := m.store.CreateKitchenOrder(ctx, ticket); err != nil {
		log.Printf("⚠️ Order %s confirmed but kitchen ticket write failed: %v", id, err)
		return &Result{Order: order, Warning: "order confirmed, kitchen ticket will be retried"}, nil
	}

	log.Printf("✅ Order %s confirmed", id)
	return &Result{Order: order, Ticket: ticket}, nil
}

// ReconcileKitchen recreates tickets for confirmed, preparing and ready
// orders that have none. It returns how many were created.
func (m *Manager) ReconcileKitchen(ctx context.Context) (int, error) {
	orders, err := m.store.ListOrders(ctx, store.OrderFilter{Statuses: []models.OrderStatus{
		models.OrderStatusConfirmed,
		models.OrderStatusPreparing,
		models.OrderStatusReady,
	}})
	if err != nil {
		return 0, apperr.Persistence(err, "failed to list orders")
	}
	tickets, err := m.store.ListKitchenOrders(ctx)
	if err != nil {
		return 0, apperr.Persistence(err, "failed to list kitchen orders")
	}

	have := make(map[string]bool, len(tickets))
	for _, t := range tickets {
		have[t.OrderID] = true
	}

	created := 0
	for i := range orders {
		if have[orders[i].ID] || orders[i].Draft {
			continue
		}
		if err := m.store.CreateKitchenOrder(ctx, newTicket(&orders[i])); err != nil {
			return created, apperr.Persistence(err, "failed to recreate kitchen ticket for %s", orders[i].ID)
		}
		log.Printf("🔧 Recreated kitchen ticket for %s", orders[i].ID)
		created++
	}
	return created, nil
}

// KitchenTickets returns the kitchen display, rebuilding missing tickets first
func (m *Manager) KitchenTickets(ctx context.Context) ([]models.KitchenOrder, error) {
	if _, err := m.ReconcileKitchen(ctx); err != nil {
		log.Printf("⚠️ Kitchen reconcile failed: %v", err)
	}
	tickets, err := m.store.ListKitchenOrders(ctx)
	if err != nil {
		return nil, apperr.Persistence(err, "failed to list kitchen orders")
	}
	return tickets, nil
}
