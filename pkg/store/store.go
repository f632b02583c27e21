// Package store is the persistence boundary: typed collections with create, read,
// partial update, delete and push-based full-snapshot subscriptions.
//
// Partial updates are last-writer-wins per field; there is no revision check.
package store

import (
	"context"
	"errors"
	"time"

	"restaurant_backend/pkg/models"
)

var (
	// ErrNotFound is returned when a record does not exist
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique field is already taken
	ErrDuplicate = errors.New("duplicate record")
)

// Fields is a partial update keyed by the record's field names (camelCase, as in JSON)
type Fields map[string]interface{}

// Snapshot is the full content of a collection after a change
type Snapshot struct {
	Collection string
	At         time.Time
	// Records holds a typed slice, e.g. []models.Order for the orders collection
	Records interface{}
}

// OrderFilter narrows ListOrders
type OrderFilter struct {
	WaiterID string
	Statuses []models.OrderStatus
	Since    time.Time
	Until    time.Time
}

// Match reports whether o passes the filter
func (f OrderFilter) Match(o models.Order) bool {
	if f.WaiterID != "" && (o.WaiterID == nil || *o.WaiterID != f.WaiterID) {
		return false
	}
	if len(f.Statuses) > 0 {
		found := false
		for _, s := range f.Statuses {
			if o.Status == s {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if !f.Since.IsZero() && o.OrderTime.Before(f.Since) {
		return false
	}
	if !f.Until.IsZero() && !o.OrderTime.Before(f.Until) {
		return false
	}
	return true
}

// BillFilter narrows ListBills
type BillFilter struct {
	OrderID string
	Since   time.Time
}

// Match reports whether b passes the filter
func (f BillFilter) Match(b models.Bill) bool {
	if f.OrderID != "" && b.OrderID != f.OrderID {
		return false
	}
	if !f.Since.IsZero() && b.GeneratedAt.Before(f.Since) {
		return false
	}
	return true
}

// MenuItems is the menuItems collection
type MenuItems interface {
	CreateMenuItem(ctx context.Context, item *models.MenuItem) error
	GetMenuItem(ctx context.Context, id string) (*models.MenuItem, error)
	ListMenuItems(ctx context.Context) ([]models.MenuItem, error)
	UpdateMenuItem(ctx context.Context, id string, fields Fields) error
	DeleteMenuItem(ctx context.Context, id string) error
}

// Orders is the orders collection
type Orders interface {
	// NextOrderNumber atomically allocates the next order sequence number
	NextOrderNumber(ctx context.Context) (int64, error)
	// CreateOrder writes the order and, when ticket is not nil, its kitchen ticket as one unit
	CreateOrder(ctx context.Context, order *models.Order, ticket *models.KitchenOrder) error
	GetOrder(ctx context.Context, id string) (*models.Order, error)
	ListOrders(ctx context.Context, filter OrderFilter) ([]models.Order, error)
	UpdateOrder(ctx context.Context, id string, fields Fields) error
}

// KitchenOrders is the kitchenOrders collection, keyed by order id
type KitchenOrders interface {
	CreateKitchenOrder(ctx context.Context, ticket *models.KitchenOrder) error
	GetKitchenOrder(ctx context.Context, orderID string) (*models.KitchenOrder, error)
	ListKitchenOrders(ctx context.Context) ([]models.KitchenOrder, error)
	UpdateKitchenOrder(ctx context.Context, orderID string, fields Fields) error
}

// Bills is the bills collection. Bills are never updated.
type Bills interface {
	CreateBill(ctx context.Context, bill *models.Bill) error
	GetBill(ctx context.Context, id string) (*models.Bill, error)
	ListBills(ctx context.Context, filter BillFilter) ([]models.Bill, error)
}

// StaffMembers is the staff collection
type StaffMembers interface {
	CreateStaff(ctx context.Context, staff *models.Staff) error
	GetStaff(ctx context.Context, id string) (*models.Staff, error)
	FindStaffByPhone(ctx context.Context, phone string) (*models.Staff, error)
	FindStaffByEmail(ctx context.Context, email string) (*models.Staff, error)
	ListStaff(ctx context.Context) ([]models.Staff, error)
	UpdateStaff(ctx context.Context, id string, fields Fields) error
	DeleteStaff(ctx context.Context, id string) error
}

// Ratings is the ratings collection
type Ratings interface {
	CreateRating(ctx context.Context, rating *models.Rating) error
	ListRatings(ctx context.Context) ([]models.Rating, error)
}

// Store is the full record store
type Store interface {
	MenuItems
	Orders
	KitchenOrders
	Bills
	StaffMembers
	Ratings

	// Subscribe registers fn for full snapshots of collection. The returned
	// function unsubscribes. fn is also called once with the current content.
	Subscribe(ctx context.Context, collection string, fn func(Snapshot)) (func(), error)

	// Clear bulk-deletes orders, kitchen tickets, bills and ratings and resets
	// the order counter. Menu and staff are kept.
	Clear(ctx context.Context) error

	Close() error
}

// IsKnownCollection reports whether name is a subscribable collection
func IsKnownCollection(name string) bool {
	for _, c := range models.Collections {
		if c == name {
			return true
		}
	}
	return false
}
