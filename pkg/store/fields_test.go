package store

import (
	"testing"
	"time"

	"restaurant_backend/pkg/models"
)

func TestApplyFields(t *testing.T) {
	when := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	method := models.PaymentMethodCard

	tests := []struct {
		name   string
		fields Fields
		check  func(t *testing.T, o models.Order)
	}{
		{
			name:   "typedString",
			fields: Fields{"status": models.OrderStatusReady},
			check: func(t *testing.T, o models.Order) {
				if o.Status != models.OrderStatusReady {
					t.Errorf("Status = %s", o.Status)
				}
			},
		},
		{
			name:   "plainStringToTypedString",
			fields: Fields{"status": "preparing"},
			check: func(t *testing.T, o models.Order) {
				if o.Status != models.OrderStatusPreparing {
					t.Errorf("Status = %s", o.Status)
				}
			},
		},
		{
			name:   "valueIntoPointer",
			fields: Fields{"completedTime": when, "estimatedTime": 25},
			check: func(t *testing.T, o models.Order) {
				if o.CompletedTime == nil || !o.CompletedTime.Equal(when) {
					t.Errorf("CompletedTime = %v", o.CompletedTime)
				}
				if o.EstimatedTime == nil || *o.EstimatedTime != 25 {
					t.Errorf("EstimatedTime = %v", o.EstimatedTime)
				}
			},
		},
		{
			name:   "pointerIntoPointer",
			fields: Fields{"paymentMethod": &method},
			check: func(t *testing.T, o models.Order) {
				if o.PaymentMethod == nil || *o.PaymentMethod != models.PaymentMethodCard {
					t.Errorf("PaymentMethod = %v", o.PaymentMethod)
				}
			},
		},
		{
			name:   "nilClears",
			fields: Fields{"deliveryStatus": nil},
			check: func(t *testing.T, o models.Order) {
				if o.DeliveryStatus != nil {
					t.Errorf("DeliveryStatus = %v, want nil", *o.DeliveryStatus)
				}
			},
		},
		{
			name:   "items",
			fields: Fields{"items": []models.OrderItem{{ID: "x", Quantity: 3}}},
			check: func(t *testing.T, o models.Order) {
				if len(o.Items) != 1 || o.Items[0].Quantity != 3 {
					t.Errorf("Items = %+v", o.Items)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			delivered := models.DeliveryStatusDelivered
			o := models.Order{Status: models.OrderStatusConfirmed, DeliveryStatus: &delivered}
			if err := applyFields(&o, tt.fields); err != nil {
				t.Fatalf("applyFields() error = %v", err)
			}
			tt.check(t, o)
		})
	}
}

func TestApplyFieldsErrors(t *testing.T) {
	tests := []struct {
		name   string
		dst    interface{}
		fields Fields
	}{
		{name: "notPointer", dst: models.Order{}, fields: Fields{"status": "ready"}},
		{name: "unknownField", dst: &models.Order{}, fields: Fields{"colour": "red"}},
		{name: "wrongType", dst: &models.Order{}, fields: Fields{"total": "lots"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := applyFields(tt.dst, tt.fields); err == nil {
				t.Error("applyFields() expected an error")
			}
		})
	}
}
