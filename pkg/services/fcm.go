package services

import (
	"context"
	"fmt"
	"log"

	"restaurant_backend/pkg/models"

	"firebase.google.com/go/messaging"
)

// MessageSender is the part of the FCM client the notifier uses
type MessageSender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// OrderNotifier publishes order lifecycle events to an FCM topic. Without a
// sender it only logs.
type OrderNotifier struct {
	sender MessageSender
	topic  string
}

// NewOrderNotifier creates a notifier; sender may be nil
func NewOrderNotifier(sender MessageSender, topic string) *OrderNotifier {
	if topic == "" {
		topic = "orders"
	}
	return &OrderNotifier{sender: sender, topic: topic}
}

// OrderCreated tells the kitchen and waiters about a new order
func (n *OrderNotifier) OrderCreated(ctx context.Context, order models.Order) error {
	return n.publish(ctx, order, "order_created", "New order "+order.ID, orderSummary(order))
}

// OrderReady tells waiters an order can be served
func (n *OrderNotifier) OrderReady(ctx context.Context, order models.Order) error {
	return n.publish(ctx, order, "order_ready", "Order "+order.ID+" is ready", orderSummary(order))
}

func (n *OrderNotifier) publish(ctx context.Context, order models.Order, event, title, body string) error {
	if n.sender == nil {
		log.Printf("🔔 %s: %s (%s)", event, title, body)
		return nil
	}

	message := &messaging.Message{
		Topic: n.topic,
		Notification: &messaging.Notification{
			Title: title,
			Body:  body,
		},
		Data: map[string]string{
			"event":   event,
			"orderId": order.ID,
			"status":  string(order.Status),
			"type":    string(order.Type),
		},
	}

	if _, err := n.sender.Send(ctx, message); err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}
	return nil
}

func orderSummary(order models.Order) string {
	where := order.CustomerName
	if order.TableNumber != nil {
		where = "Table " + *order.TableNumber
	}
	count := 0
	for _, item := range order.Items {
		count += item.Quantity
	}
	return fmt.Sprintf("%s, %d item(s), %.2f", where, count, order.GrandTotal)
}
