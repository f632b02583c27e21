package orders

import (
	"math"

	"restaurant_backend/pkg/models"
)

// ExtraPrepMinutes is added to the slowest item's prep time when no estimate is given
const ExtraPrepMinutes = 10

var happyPath = map[models.OrderStatus]int{
	models.OrderStatusPending:   0,
	models.OrderStatusConfirmed: 1,
	models.OrderStatusPreparing: 2,
	models.OrderStatusReady:     3,
	models.OrderStatusCompleted: 4,
}

// ValidOrderStatus reports whether s is part of the order vocabulary
func ValidOrderStatus(s models.OrderStatus) bool {
	_, ok := happyPath[s]
	return ok || s == models.OrderStatusCancelled
}

// ValidKitchenStatus reports whether s is part of the kitchen vocabulary
func ValidKitchenStatus(s models.KitchenStatus) bool {
	switch s {
	case models.KitchenStatusPending, models.KitchenStatusInProgress, models.KitchenStatusReady:
		return true
	}
	return false
}

// ValidItemStatus reports whether s is a per-item status
func ValidItemStatus(s models.OrderItemStatus) bool {
	switch s {
	case models.OrderItemStatusPending, models.OrderItemStatusPreparing,
		models.OrderItemStatusReady, models.OrderItemStatusServed:
		return true
	}
	return false
}

// ValidPaymentMethod reports whether m is an accepted payment method
func ValidPaymentMethod(m models.PaymentMethod) bool {
	switch m {
	case models.PaymentMethodCash, models.PaymentMethodCard,
		models.PaymentMethodOnline, models.PaymentMethodUPI:
		return true
	}
	return false
}

// CanTransition reports whether an order may move from one status to another.
// Moves go forward along pending, confirmed, preparing, ready, completed.
// Cancelled is reachable from any non-terminal status. Repeating the current
// status is always allowed. The kitchen pause is handled by DeriveOrderStatus.
func CanTransition(from, to models.OrderStatus) bool {
	if from == to {
		return true
	}
	if from.IsTerminal() {
		return false
	}
	if to == models.OrderStatusCancelled {
		return true
	}
	fromRank, okFrom := happyPath[from]
	toRank, okTo := happyPath[to]
	return okFrom && okTo && toRank > fromRank
}

// CanMoveTicket reports whether a kitchen ticket may move between lanes.
// Ready is final; in-progress may return to pending (pause).
func CanMoveTicket(from, to models.KitchenStatus) bool {
	if from == to {
		return true
	}
	switch from {
	case models.KitchenStatusPending:
		return to == models.KitchenStatusInProgress || to == models.KitchenStatusReady
	case models.KitchenStatusInProgress:
		return to == models.KitchenStatusReady || to == models.KitchenStatusPending
	}
	return false
}

// DeriveOrderStatus maps a kitchen status onto the parent order.
//
//	ready + paid      -> completed
//	ready             -> ready
//	in-progress       -> preparing, pause cleared
//	pending           -> confirmed, pause set to paused
//
// Completed and cancelled orders are returned unchanged.
func DeriveOrderStatus(order models.Order, kitchen models.KitchenStatus, paused bool) (models.OrderStatus, bool) {
	if order.Status.IsTerminal() {
		return order.Status, order.Paused
	}

	switch kitchen {
	case models.KitchenStatusReady:
		if order.PaymentStatus == models.PaymentStatusPaid {
			return models.OrderStatusCompleted, false
		}
		return models.OrderStatusReady, false
	case models.KitchenStatusInProgress:
		return models.OrderStatusPreparing, false
	case models.KitchenStatusPending:
		return models.OrderStatusConfirmed, paused
	}
	return order.Status, order.Paused
}

// KitchenStatusFor is the ticket lane matching an order status, used when a
// missing ticket is rebuilt
func KitchenStatusFor(s models.OrderStatus) models.KitchenStatus {
	switch s {
	case models.OrderStatusPreparing:
		return models.KitchenStatusInProgress
	case models.OrderStatusReady, models.OrderStatusCompleted:
		return models.KitchenStatusReady
	}
	return models.KitchenStatusPending
}

// PriorityFor returns high for dine-in, medium otherwise
func PriorityFor(t models.OrderType) models.Priority {
	if t == models.OrderTypeDineIn {
		return models.PriorityHigh
	}
	return models.PriorityMedium
}

// EstimateMinutes is the slowest item's prep time plus ExtraPrepMinutes
func EstimateMinutes(items []models.OrderItem) int {
	longest := 0
	for _, item := range items {
		if item.MenuItem.PrepTime > longest {
			longest = item.MenuItem.PrepTime
		}
	}
	return longest + ExtraPrepMinutes
}

// Subtotal sums unit price times quantity over the snapshotted prices
func Subtotal(items []models.OrderItem) float64 {
	var sum float64
	for _, item := range items {
		sum += item.LineTotal()
	}
	return round2(sum)
}

// ComputeTotals returns total, tax and grandTotal for items at rate.
// grandTotal is always total+tax.
func ComputeTotals(items []models.OrderItem, rate float64) (total, tax, grandTotal float64) {
	total = Subtotal(items)
	tax = round2(total * rate)
	grandTotal = round2(total + tax)
	return total, tax, grandTotal
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
