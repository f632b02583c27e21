package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// scanJSON decodes a JSONB column value into dest
func scanJSON(value interface{}, dest interface{}) error {
	if value == nil {
		return nil
	}
	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("unsupported JSONB value type %T", value)
	}
	return json.Unmarshal(bytes, dest)
}

// MenuItemSnapshot captures the menu item as it was when ordered
type MenuItemSnapshot struct {
	ID       string  `json:"id" firestore:"id"`
	Name     string  `json:"name" firestore:"name"`
	Price    float64 `json:"price" firestore:"price"`
	Category string  `json:"category" firestore:"category"`
	PrepTime int     `json:"prepTime" firestore:"prepTime"`
}

// Snapshot returns the order-time copy of a menu item
func (m MenuItem) Snapshot() MenuItemSnapshot {
	return MenuItemSnapshot{
		ID:       m.ID,
		Name:     m.Name,
		Price:    m.Price,
		Category: m.Category,
		PrepTime: m.PrepTime,
	}
}

// OrderItem is a line of an order; stored embedded in Order and KitchenOrder
type OrderItem struct {
	ID                  string           `json:"id" firestore:"id"`
	MenuItem            MenuItemSnapshot `json:"menuItem" firestore:"menuItem"`
	Quantity            int              `json:"quantity" firestore:"quantity"`
	SpecialInstructions string           `json:"specialInstructions,omitempty" firestore:"specialInstructions"`
	SugarPreference     *SugarPreference `json:"sugarPreference,omitempty" firestore:"sugarPreference"`
	SpicyPreference     *SpicyPreference `json:"spicyPreference,omitempty" firestore:"spicyPreference"`
	Status              OrderItemStatus  `json:"status" firestore:"status"`
}

// LineTotal returns unit price times quantity
func (i OrderItem) LineTotal() float64 {
	return i.MenuItem.Price * float64(i.Quantity)
}

// OrderItems type for JSONB item arrays in PostgreSQL
type OrderItems []OrderItem

// Scan implements the sql.Scanner interface
func (o *OrderItems) Scan(value interface{}) error {
	if value == nil {
		*o = nil
		return nil
	}
	return scanJSON(value, o)
}

// Value implements the driver.Valuer interface
func (o OrderItems) Value() (driver.Value, error) {
	if o == nil {
		return "[]", nil
	}
	b, err := json.Marshal(o)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// CustomerDetails is the customer block printed on a bill
type CustomerDetails struct {
	Name        string `json:"name" firestore:"name"`
	Phone       string `json:"phone" firestore:"phone"`
	Address     string `json:"address,omitempty" firestore:"address"`
	TableNumber string `json:"tableNumber,omitempty" firestore:"tableNumber"`
}

// Scan implements the sql.Scanner interface
func (c *CustomerDetails) Scan(value interface{}) error {
	return scanJSON(value, c)
}

// Value implements the driver.Valuer interface
func (c CustomerDetails) Value() (driver.Value, error) {
	b, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Order model
type Order struct {
	ID              string          `gorm:"primaryKey;column:id" json:"id" firestore:"id"`
	CustomerID      string          `gorm:"column:customerId" json:"customerId" firestore:"customerId"`
	CustomerName    string          `gorm:"column:customerName" json:"customerName" firestore:"customerName"`
	CustomerPhone   string          `gorm:"column:customerPhone" json:"customerPhone" firestore:"customerPhone"`
	CustomerAddress *string         `gorm:"column:customerAddress" json:"customerAddress,omitempty" firestore:"customerAddress"`
	TableNumber     *string         `gorm:"column:tableNumber" json:"tableNumber,omitempty" firestore:"tableNumber"`
	Type            OrderType       `gorm:"type:text;not null;column:type" json:"type" firestore:"type"`
	Items           OrderItems      `gorm:"type:jsonb;not null;column:items" json:"items" firestore:"items"`
	Status          OrderStatus     `gorm:"type:text;not null;column:status" json:"status" firestore:"status"`
	Total           float64         `gorm:"not null;column:total" json:"total" firestore:"total"`
	Tax             float64         `gorm:"not null;column:tax" json:"tax" firestore:"tax"`
	GrandTotal      float64         `gorm:"not null;column:grandTotal" json:"grandTotal" firestore:"grandTotal"`
	PaymentMethod   *PaymentMethod  `gorm:"type:text;column:paymentMethod" json:"paymentMethod,omitempty" firestore:"paymentMethod"`
	PaymentStatus   PaymentStatus   `gorm:"type:text;not null;column:paymentStatus" json:"paymentStatus" firestore:"paymentStatus"`
	DeliveryStatus  *DeliveryStatus `gorm:"type:text;column:deliveryStatus" json:"deliveryStatus,omitempty" firestore:"deliveryStatus"`
	OrderTime       time.Time       `gorm:"not null;column:orderTime" json:"orderTime" firestore:"orderTime"`
	CompletedTime   *time.Time      `gorm:"column:completedTime" json:"completedTime,omitempty" firestore:"completedTime"`
	WaiterID        *string         `gorm:"column:waiterId;index" json:"waiterId,omitempty" firestore:"waiterId"`
	EstimatedTime   *int            `gorm:"column:estimatedTime" json:"estimatedTime,omitempty" firestore:"estimatedTime"`
	Draft           bool            `gorm:"default:false;column:draft" json:"draft,omitempty" firestore:"draft"`
	Paused          bool            `gorm:"default:false;column:paused" json:"paused,omitempty" firestore:"paused"`
}

// TableName specifies the table name for Order model
func (Order) TableName() string {
	return "Order"
}

// KitchenOrder model - the kitchen display projection of a confirmed order
type KitchenOrder struct {
	OrderID       string        `gorm:"primaryKey;column:orderId" json:"orderId" firestore:"orderId"`
	OrderNumber   string        `gorm:"not null;column:orderNumber" json:"orderNumber" firestore:"orderNumber"`
	TableNumber   *string       `gorm:"column:tableNumber" json:"tableNumber,omitempty" firestore:"tableNumber"`
	CustomerName  string        `gorm:"column:customerName" json:"customerName" firestore:"customerName"`
	Items         OrderItems    `gorm:"type:jsonb;not null;column:items" json:"items" firestore:"items"`
	OrderTime     time.Time     `gorm:"not null;column:orderTime" json:"orderTime" firestore:"orderTime"`
	EstimatedTime int           `gorm:"not null;column:estimatedTime" json:"estimatedTime" firestore:"estimatedTime"`
	Priority      Priority      `gorm:"type:text;not null;column:priority" json:"priority" firestore:"priority"`
	Status        KitchenStatus `gorm:"type:text;not null;column:status" json:"status" firestore:"status"`
	Paused        bool          `gorm:"default:false;column:paused" json:"paused,omitempty" firestore:"paused"`
}

// TableName specifies the table name for KitchenOrder model
func (KitchenOrder) TableName() string {
	return "KitchenOrder"
}

// Bill model. Immutable once created.
type Bill struct {
	ID                string          `gorm:"primaryKey;column:id" json:"id" firestore:"id"`
	OrderID           string          `gorm:"not null;index;column:orderId" json:"orderId" firestore:"orderId"`
	Items             OrderItems      `gorm:"type:jsonb;not null;column:items" json:"items" firestore:"items"`
	Subtotal          float64         `gorm:"not null;column:subtotal" json:"subtotal" firestore:"subtotal"`
	TaxRate           float64         `gorm:"not null;column:taxRate" json:"taxRate" firestore:"taxRate"`
	TaxAmount         float64         `gorm:"not null;column:taxAmount" json:"taxAmount" firestore:"taxAmount"`
	ServiceCharge     *float64        `gorm:"column:serviceCharge" json:"serviceCharge,omitempty" firestore:"serviceCharge"`
	Discount          *float64        `gorm:"column:discount" json:"discount,omitempty" firestore:"discount"`
	Total             float64         `gorm:"not null;column:total" json:"total" firestore:"total"`
	GeneratedAt       time.Time       `gorm:"not null;column:generatedAt" json:"generatedAt" firestore:"generatedAt"`
	GeneratedBy       string          `gorm:"not null;column:generatedBy" json:"generatedBy" firestore:"generatedBy"`
	PaymentMethod     PaymentMethod   `gorm:"type:text;not null;column:paymentMethod" json:"paymentMethod" firestore:"paymentMethod"`
	CustomerDetails   CustomerDetails `gorm:"type:jsonb;column:customerDetails" json:"customerDetails" firestore:"customerDetails"`
	RazorpayPaymentID *string         `gorm:"column:razorpayPaymentId" json:"razorpayPaymentId,omitempty" firestore:"razorpayPaymentId"`
}

// TableName specifies the table name for Bill model
func (Bill) TableName() string {
	return "Bill"
}
