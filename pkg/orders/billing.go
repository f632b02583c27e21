package orders

import (
	"context"
	"log"
	"strings"

	"restaurant_backend/pkg/apperr"
	"restaurant_backend/pkg/models"
	"restaurant_backend/pkg/store"

	"github.com/google/uuid"
)

// BillRequest describes one bill generation
type BillRequest struct {
	OrderID            string
	GeneratedBy        string
	PaymentMethod      models.PaymentMethod
	ApplyServiceCharge bool
	Discount           float64
	RazorpayPaymentID  string
}

// GenerateBill stores a new bill for the order at the bill tax rate, then marks
// the order paid. An order that is already ready or completed becomes
// completed; its status is read from the store, not the cache. Every call
// creates a new bill.
func (m *Manager) GenerateBill(ctx context.Context, req BillRequest) (*models.Bill, *models.Order, error) {
	if strings.TrimSpace(req.GeneratedBy) == "" {
		return nil, nil, apperr.Validation("generatedBy is required")
	}
	if !ValidPaymentMethod(req.PaymentMethod) {
		return nil, nil, apperr.Validation("invalid payment method %q", req.PaymentMethod)
	}
	if req.Discount < 0 {
		return nil, nil, apperr.Validation("discount cannot be negative")
	}

	order, err := m.currentOrder(ctx, req.OrderID)
	if apperr.IsKind(err, apperr.KindNotFound) {
		if o, ok := m.cached(req.OrderID); ok {
			order, err = &o, nil
		}
	}
	if err != nil {
		return nil, nil, err
	}
	if order.Status == models.OrderStatusCancelled {
		return nil, nil, apperr.Validation("cancelled order %s cannot be billed", order.ID)
	}

	bill := m.buildBill(order, req)
	if bill.Total < 0 {
		return nil, nil, apperr.Validation("discount exceeds the bill amount")
	}
	if err := m.store.CreateBill(ctx, bill); err != nil {
		return nil, nil, apperr.Persistence(err, "failed to save bill for order %s", order.ID)
	}
	log.Printf("💰 Bill %s generated for %s (%.2f, %s)", bill.ID, order.ID, bill.Total, bill.PaymentMethod)

	updated := *order
	method := req.PaymentMethod
	updated.PaymentStatus = models.PaymentStatusPaid
	updated.PaymentMethod = &method
	fields := store.Fields{
		"paymentStatus": models.PaymentStatusPaid,
		"paymentMethod": method,
	}
	if order.Status == models.OrderStatusReady || order.Status == models.OrderStatusCompleted {
		updated.Status = models.OrderStatusCompleted
		fields["status"] = models.OrderStatusCompleted
		if updated.CompletedTime == nil {
			now := m.now()
			updated.CompletedTime = &now
			fields["completedTime"] = now
		}
	}

	if err := m.write(ctx, &updated, fields); err != nil {
		return bill, nil, apperr.Persistence(err, "bill %s saved but order %s was not marked paid", bill.ID, order.ID)
	}
	return bill, &updated, nil
}

func (m *Manager) buildBill(order *models.Order, req BillRequest) *models.Bill {
	items := make(models.OrderItems, len(order.Items))
	copy(items, order.Items)

	subtotal := Subtotal(items)
	taxAmount := round2(subtotal * m.rates.Bill)
	total := subtotal + taxAmount

	bill := &models.Bill{
		ID:            uuid.NewString(),
		OrderID:       order.ID,
		Items:         items,
		Subtotal:      subtotal,
		TaxRate:       m.rates.Bill,
		TaxAmount:     taxAmount,
		GeneratedAt:   m.now(),
		GeneratedBy:   strings.TrimSpace(req.GeneratedBy),
		PaymentMethod: req.PaymentMethod,
		CustomerDetails: models.CustomerDetails{
			Name:  order.CustomerName,
			Phone: order.CustomerPhone,
		},
	}
	if order.CustomerAddress != nil {
		bill.CustomerDetails.Address = *order.CustomerAddress
	}
	if order.TableNumber != nil {
		bill.CustomerDetails.TableNumber = *order.TableNumber
	}
	if req.ApplyServiceCharge && m.rates.ServiceCharge > 0 {
		charge := round2(subtotal * m.rates.ServiceCharge)
		bill.ServiceCharge = &charge
		total += charge
	}
	if req.Discount > 0 {
		discount := round2(req.Discount)
		bill.Discount = &discount
		total -= discount
	}
	if req.RazorpayPaymentID != "" {
		id := req.RazorpayPaymentID
		bill.RazorpayPaymentID = &id
	}
	bill.Total = round2(total)
	return bill
}

// PreviewBill computes the bill GenerateBill would store, without saving it
func (m *Manager) PreviewBill(ctx context.Context, req BillRequest) (*models.Bill, error) {
	if req.Discount < 0 {
		return nil, apperr.Validation("discount cannot be negative")
	}
	order, err := m.resolve(ctx, req.OrderID)
	if err != nil {
		return nil, err
	}
	if order.Status == models.OrderStatusCancelled {
		return nil, apperr.Validation("cancelled order %s cannot be billed", order.ID)
	}
	bill := m.buildBill(order, req)
	if bill.Total < 0 {
		return nil, apperr.Validation("discount exceeds the bill amount")
	}
	return bill, nil
}

// ListBills returns bills matching filter, newest first
func (m *Manager) ListBills(ctx context.Context, filter store.BillFilter) ([]models.Bill, error) {
	bills, err := m.store.ListBills(ctx, filter)
	if err != nil {
		return nil, apperr.Persistence(err, "failed to list bills")
	}
	return bills, nil
}
