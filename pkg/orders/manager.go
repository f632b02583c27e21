// Package orders is the order lifecycle manager: order creation, the
// kitchen-driven status engine, billing, cancellation and delivery.
package orders

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"restaurant_backend/pkg/apperr"
	"restaurant_backend/pkg/config"
	"restaurant_backend/pkg/models"
	"restaurant_backend/pkg/store"
)

// WarnRetry is returned with a kitchen update whose order-side derivation
// could not be applied
const WarnRetry = "failed to update status, please retry"

// WarnBillSaved is returned when a bill was stored but the order could not be
// marked paid. Billing again would create a second bill; the order only needs
// its payment status reconciled.
const WarnBillSaved = "bill saved but the order was not marked paid, do not bill again; update the order payment status"

// Notifier receives lifecycle events. Delivery failures never fail the operation.
type Notifier interface {
	OrderCreated(ctx context.Context, order models.Order) error
	OrderReady(ctx context.Context, order models.Order) error
}

type nopNotifier struct{}

func (nopNotifier) OrderCreated(context.Context, models.Order) error { return nil }
func (nopNotifier) OrderReady(context.Context, models.Order) error   { return nil }

// Result is the outcome of an operation that may succeed with a soft warning
type Result struct {
	Order   *models.Order        `json:"order,omitempty"`
	Ticket  *models.KitchenOrder `json:"ticket,omitempty"`
	Warning string               `json:"warning,omitempty"`
}

// Option configures a Manager
type Option func(*Manager)

// WithNotifier sets the lifecycle event notifier
func WithNotifier(n Notifier) Option {
	return func(m *Manager) {
		if n != nil {
			m.notifier = n
		}
	}
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// Manager owns orders and their kitchen tickets
type Manager struct {
	store    store.Store
	rates    config.Rates
	notifier Notifier
	now      func() time.Time

	mu     sync.RWMutex
	orders map[string]models.Order
	bills  []models.Bill
	unsubs []func()
}

// NewManager creates a Manager on top of s
func NewManager(s store.Store, rates config.Rates, opts ...Option) *Manager {
	m := &Manager{
		store:    s,
		rates:    rates,
		notifier: nopNotifier{},
		now:      time.Now,
		orders:   make(map[string]models.Order),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Rates returns the configured pricing rates
func (m *Manager) Rates() config.Rates {
	return m.rates
}

// Start subscribes the order and bill caches to the store
func (m *Manager) Start(ctx context.Context) error {
	unsubOrders, err := m.store.Subscribe(ctx, models.CollectionOrders, m.onOrders)
	if err != nil {
		return fmt.Errorf("subscribe orders: %w", err)
	}
	unsubBills, err := m.store.Subscribe(ctx, models.CollectionBills, m.onBills)
	if err != nil {
		unsubOrders()
		return fmt.Errorf("subscribe bills: %w", err)
	}

	m.mu.Lock()
	m.unsubs = append(m.unsubs, unsubOrders, unsubBills)
	m.mu.Unlock()

	log.Println("✅ Order manager subscribed to orders and bills")
	return nil
}

// Stop drops the store subscriptions
func (m *Manager) Stop() {
	m.mu.Lock()
	unsubs := m.unsubs
	m.unsubs = nil
	m.mu.Unlock()

	for _, unsubscribe := range unsubs {
		unsubscribe()
	}
}

func (m *Manager) onOrders(snap store.Snapshot) {
	orders, ok := snap.Records.([]models.Order)
	if !ok {
		return
	}
	next := make(map[string]models.Order, len(orders))
	for _, o := range orders {
		next[o.ID] = o
	}
	m.mu.Lock()
	m.orders = next
	m.mu.Unlock()
}

func (m *Manager) onBills(snap store.Snapshot) {
	bills, ok := snap.Records.([]models.Bill)
	if !ok {
		return
	}
	m.mu.Lock()
	m.bills = bills
	m.mu.Unlock()
}

// CachedOrders returns the latest orders snapshot
func (m *Manager) CachedOrders() []models.Order {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Order, 0, len(m.orders))
	for _, o := range m.orders {
		out = append(out, o)
	}
	return out
}

// CachedBills returns the latest bills snapshot
func (m *Manager) CachedBills() []models.Bill {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Bill, len(m.bills))
	copy(out, m.bills)
	return out
}

func (m *Manager) cached(id string) (models.Order, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.orders[id]
	return o, ok
}

func (m *Manager) remember(o models.Order) {
	m.mu.Lock()
	m.orders[o.ID] = o
	m.mu.Unlock()
}

// resolve returns the order from the cache, falling back to the store
func (m *Manager) resolve(ctx context.Context, id string) (*models.Order, error) {
	if o, ok := m.cached(id); ok {
		return &o, nil
	}
	return m.load(ctx, id)
}

// load reads the order from the store
func (m *Manager) load(ctx context.Context, id string) (*models.Order, error) {
	o, err := m.store.GetOrder(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("order %s not found", id)
	}
	if err != nil {
		return nil, apperr.Persistence(err, "failed to load order %s", id)
	}
	return o, nil
}

// write persists fields on the order and refreshes the cached copy
func (m *Manager) write(ctx context.Context, order *models.Order, fields store.Fields) error {
	if err := m.store.UpdateOrder(ctx, order.ID, fields); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperr.NotFound("order %s not found", order.ID)
		}
		return apperr.Persistence(err, "failed to update order %s", order.ID)
	}
	m.remember(*order)
	return nil
}

// GetOrder returns one order
func (m *Manager) GetOrder(ctx context.Context, id string) (*models.Order, error) {
	return m.load(ctx, id)
}

// ListOrders returns orders matching filter, newest first
func (m *Manager) ListOrders(ctx context.Context, filter store.OrderFilter) ([]models.Order, error) {
	orders, err := m.store.ListOrders(ctx, filter)
	if err != nil {
		return nil, apperr.Persistence(err, "failed to list orders")
	}
	return orders, nil
}

// WaiterOrders returns the orders created by waiterID
func (m *Manager) WaiterOrders(ctx context.Context, waiterID string) ([]models.Order, error) {
	if waiterID == "" {
		return nil, apperr.Validation("waiter id is required")
	}
	return m.ListOrders(ctx, store.OrderFilter{WaiterID: waiterID})
}

// CancelOrder moves a non-terminal order to cancelled. Payment, delivery and
// the kitchen ticket are left as they are.
func (m *Manager) CancelOrder(ctx context.Context, id string) (*models.Order, error) {
	order, err := m.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if order.Status == models.OrderStatusCancelled || !CanTransition(order.Status, models.OrderStatusCancelled) {
		return nil, apperr.Validation("order %s is already %s", id, order.Status)
	}

	order.Status = models.OrderStatusCancelled
	if err := m.write(ctx, order, store.Fields{"status": models.OrderStatusCancelled}); err != nil {
		return nil, err
	}
	log.Printf("🚫 Order %s cancelled", id)
	return order, nil
}

// ToggleDelivery flips deliveryStatus between pending and delivered. Nothing
// else on the order changes.
func (m *Manager) ToggleDelivery(ctx context.Context, id string) (*models.Order, error) {
	order, err := m.load(ctx, id)
	if err != nil {
		return nil, err
	}

	next := models.DeliveryStatusDelivered
	if order.DeliveryStatus != nil && *order.DeliveryStatus == models.DeliveryStatusDelivered {
		next = models.DeliveryStatusPending
	}
	order.DeliveryStatus = &next

	if err := m.write(ctx, order, store.Fields{"deliveryStatus": next}); err != nil {
		return nil, err
	}
	return order, nil
}
