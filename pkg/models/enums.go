package models

// OrderType enum
type OrderType string

const (
	OrderTypeDineIn   OrderType = "dine-in"
	OrderTypeDelivery OrderType = "delivery"
)

// OrderStatus enum
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusPreparing OrderStatus = "preparing"
	OrderStatusReady     OrderStatus = "ready"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// IsTerminal reports whether no further lifecycle transition is allowed
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

// OrderItemStatus enum
type OrderItemStatus string

const (
	OrderItemStatusPending   OrderItemStatus = "pending"
	OrderItemStatusPreparing OrderItemStatus = "preparing"
	OrderItemStatusReady     OrderItemStatus = "ready"
	OrderItemStatusServed    OrderItemStatus = "served"
)

// KitchenStatus enum. A narrower vocabulary than OrderStatus.
type KitchenStatus string

const (
	KitchenStatusPending    KitchenStatus = "pending"
	KitchenStatusInProgress KitchenStatus = "in-progress"
	KitchenStatusReady      KitchenStatus = "ready"
)

// PaymentMethod enum
type PaymentMethod string

const (
	PaymentMethodCash   PaymentMethod = "cash"
	PaymentMethodCard   PaymentMethod = "card"
	PaymentMethodOnline PaymentMethod = "online"
	PaymentMethodUPI    PaymentMethod = "upi"
)

// IsGateway reports whether the method settles through the payment gateway
func (m PaymentMethod) IsGateway() bool {
	return m == PaymentMethodOnline || m == PaymentMethodUPI
}

// PaymentStatus enum
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusPartial  PaymentStatus = "partial"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// DeliveryStatus enum
type DeliveryStatus string

const (
	DeliveryStatusPending   DeliveryStatus = "pending"
	DeliveryStatusDelivered DeliveryStatus = "delivered"
)

// Priority enum
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
)

// Role enum
type Role string

const (
	RoleWaiter  Role = "waiter"
	RoleKitchen Role = "kitchen"
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
)

// Category names with lifecycle meaning for item preferences
const (
	CategoryBeverages  = "Beverages"
	CategoryMainCourse = "Main Course"
)

// SugarPreference enum
type SugarPreference string

const (
	SugarPreferenceSugar     SugarPreference = "sugar"
	SugarPreferenceSugarless SugarPreference = "sugarless"
)

// SpicyPreference enum
type SpicyPreference string

const (
	SpicyPreferenceSpicy    SpicyPreference = "spicy"
	SpicyPreferenceNonSpicy SpicyPreference = "non-spicy"
)

// Collection names shared by every store backend
const (
	CollectionMenuItems     = "menuItems"
	CollectionOrders        = "orders"
	CollectionStaff         = "staff"
	CollectionBills         = "bills"
	CollectionKitchenOrders = "kitchenOrders"
	CollectionRatings       = "ratings"
	CollectionCounters      = "counters"
)

// Collections lists the subscribable collections
var Collections = []string{
	CollectionMenuItems,
	CollectionOrders,
	CollectionStaff,
	CollectionBills,
	CollectionKitchenOrders,
	CollectionRatings,
}
