package orders

import (
	"context"
	"errors"
	"log"

	"restaurant_backend/pkg/apperr"
	"restaurant_backend/pkg/models"
	"restaurant_backend/pkg/store"
)

// SetKitchenStatus moves the kitchen ticket of orderID and derives the order
// status from it. The ticket write always stands: when the order cannot be
// read or written afterwards, the result carries WarnRetry instead of an error.
func (m *Manager) SetKitchenStatus(ctx context.Context, orderID string, status models.KitchenStatus, paused bool) (*Result, error) {
	if !ValidKitchenStatus(status) {
		return nil, apperr.Validation("invalid kitchen status %q", status)
	}

	ticket, err := m.store.GetKitchenOrder(ctx, orderID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("kitchen order %s not found", orderID)
	}
	if err != nil {
		return nil, apperr.Persistence(err, "failed to load kitchen order %s", orderID)
	}
	if !CanMoveTicket(ticket.Status, status) {
		return nil, apperr.Validation("kitchen order %s cannot move from %s to %s", orderID, ticket.Status, status)
	}

	ticket.Status = status
	ticket.Paused = status == models.KitchenStatusPending && paused
	err = m.store.UpdateKitchenOrder(ctx, orderID, store.Fields{
		"status": ticket.Status,
		"paused": ticket.Paused,
	})
	if err != nil {
		return nil, apperr.Persistence(err, "failed to update kitchen order %s", orderID)
	}

	result := &Result{Ticket: ticket}

	order, err := m.currentOrder(ctx, orderID)
	if err != nil {
		log.Printf("⚠️ Kitchen order %s moved to %s but order lookup failed: %v", orderID, status, err)
		result.Warning = WarnRetry
		return result, nil
	}
	result.Order = order

	nextStatus, nextPaused := DeriveOrderStatus(*order, status, ticket.Paused)
	if nextStatus == order.Status && nextPaused == order.Paused {
		return result, nil
	}

	fields := store.Fields{"status": nextStatus, "paused": nextPaused}
	updated := *order
	updated.Status = nextStatus
	updated.Paused = nextPaused
	if nextStatus == models.OrderStatusCompleted && updated.CompletedTime == nil {
		now := m.now()
		updated.CompletedTime = &now
		fields["completedTime"] = now
	}

	if err := m.write(ctx, &updated, fields); err != nil {
		log.Printf("⚠️ Kitchen order %s moved to %s but order update failed: %v", orderID, status, err)
		result.Warning = WarnRetry
		return result, nil
	}
	result.Order = &updated

	if nextStatus == models.OrderStatusReady && order.Status != models.OrderStatusReady {
		if err := m.notifier.OrderReady(ctx, updated); err != nil {
			log.Printf("⚠️ Order %s ready notification failed: %v", orderID, err)
		}
	}
	return result, nil
}

// currentOrder reads the order from the store so the derivation sees the
// latest payment status, falling back to the cache when the read fails
func (m *Manager) currentOrder(ctx context.Context, id string) (*models.Order, error) {
	order, err := m.load(ctx, id)
	if err == nil {
		return order, nil
	}
	if apperr.IsKind(err, apperr.KindPersistence) {
		if o, ok := m.cached(id); ok {
			return &o, nil
		}
	}
	return nil, err
}

// UpdateItemStatus sets one item's status on the order and on its kitchen
// ticket. It never changes the order or ticket status.
func (m *Manager) UpdateItemStatus(ctx context.Context, orderID, itemID string, status models.OrderItemStatus) (*models.Order, error) {
	if !ValidItemStatus(status) {
		return nil, apperr.Validation("invalid item status %q", status)
	}

	order, err := m.load(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !setItemStatus(order.Items, itemID, status) {
		return nil, apperr.NotFound("item %s not found on order %s", itemID, orderID)
	}
	if err := m.write(ctx, order, store.Fields{"items": order.Items}); err != nil {
		return nil, err
	}

	ticket, err := m.store.GetKitchenOrder(ctx, orderID)
	switch {
	case errors.Is(err, store.ErrNotFound):
	case err != nil:
		log.Printf("⚠️ Item %s on %s updated but kitchen ticket read failed: %v", itemID, orderID, err)
	case setItemStatus(ticket.Items, itemID, status):
		if err := m.store.UpdateKitchenOrder(ctx, orderID, store.Fields{"items": ticket.Items}); err != nil {
			log.Printf("⚠️ Item %s on %s updated but kitchen ticket write failed: %v", itemID, orderID, err)
		}
	}
	return order, nil
}

func setItemStatus(items models.OrderItems, itemID string, status models.OrderItemStatus) bool {
	for i := range items {
		if items[i].ID == itemID {
			items[i].Status = status
			return true
		}
	}
	return false
}
