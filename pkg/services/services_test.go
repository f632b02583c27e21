package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"testing"

	"restaurant_backend/pkg/models"

	"firebase.google.com/go/messaging"
)

type fakeSender struct {
	sent []*messaging.Message
	err  error
}

func (f *fakeSender) Send(_ context.Context, m *messaging.Message) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.sent = append(f.sent, m)
	return "msg-1", nil
}

func TestOrderNotifier(t *testing.T) {
	table := "T4"
	order := models.Order{
		ID:          "ORD001",
		Type:        models.OrderTypeDineIn,
		Status:      models.OrderStatusReady,
		TableNumber: &table,
		GrandTotal:  27.5,
		Items:       models.OrderItems{{Quantity: 2}, {Quantity: 1}},
	}

	sender := &fakeSender{}
	n := NewOrderNotifier(sender, "")
	if err := n.OrderReady(context.Background(), order); err != nil {
		t.Fatalf("OrderReady() error = %v", err)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(sender.sent))
	}
	msg := sender.sent[0]
	if msg.Topic != "orders" || msg.Data["event"] != "order_ready" || msg.Data["orderId"] != "ORD001" {
		t.Errorf("message = %+v", msg)
	}
	if msg.Notification.Body != "Table T4, 3 item(s), 27.50" {
		t.Errorf("body = %q", msg.Notification.Body)
	}

	sender.err = errors.New("unavailable")
	if err := n.OrderCreated(context.Background(), order); err == nil {
		t.Error("expected send error to be returned")
	}

	if err := NewOrderNotifier(nil, "kitchen").OrderCreated(context.Background(), order); err != nil {
		t.Errorf("log-only notifier error = %v", err)
	}
}

func TestPaymentGatewaySignature(t *testing.T) {
	g := NewPaymentGateway("key_id", "key_secret", "")
	if !g.Enabled() {
		t.Fatal("gateway with keys should be enabled")
	}

	h := hmac.New(sha256.New, []byte("key_secret"))
	h.Write([]byte("order_123|pay_456"))
	valid := hex.EncodeToString(h.Sum(nil))

	tests := []struct {
		name      string
		orderID   string
		paymentID string
		signature string
		want      bool
	}{
		{name: "valid", orderID: "order_123", paymentID: "pay_456", signature: valid, want: true},
		{name: "otherPayment", orderID: "order_123", paymentID: "pay_789", signature: valid, want: false},
		{name: "empty", orderID: "order_123", paymentID: "pay_456", signature: "", want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := g.VerifySignature(tt.orderID, tt.paymentID, tt.signature); got != tt.want {
				t.Errorf("VerifySignature() = %v, want %v", got, tt.want)
			}
		})
	}

	disabled := NewPaymentGateway("", "", "INR")
	if disabled.Enabled() {
		t.Error("gateway without keys should be disabled")
	}
	if _, err := disabled.CreateOrder("ORD001", 10); err == nil {
		t.Error("CreateOrder() on disabled gateway should fail")
	}
	if got := ToSubunits(10.99); got != 1099 {
		t.Errorf("ToSubunits(10.99) = %d, want 1099", got)
	}
}

func TestCheckCaptured(t *testing.T) {
	tests := []struct {
		name    string
		payment map[string]interface{}
		amount  float64
		wantErr bool
	}{
		{name: "captured", payment: map[string]interface{}{"status": "captured", "amount": float64(2625)}, amount: 26.25},
		{name: "authorizedOnly", payment: map[string]interface{}{"status": "authorized", "amount": float64(2625)}, amount: 26.25, wantErr: true},
		{name: "wrongAmount", payment: map[string]interface{}{"status": "captured", "amount": float64(2000)}, amount: 26.25, wantErr: true},
		{name: "noAmount", payment: map[string]interface{}{"status": "captured"}, amount: 26.25, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := CheckCaptured(tt.payment, tt.amount); (err != nil) != tt.wantErr {
				t.Errorf("CheckCaptured() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	if err := NewPaymentGateway("", "", "INR").ConfirmCapture("pay_456", 10); err == nil {
		t.Error("ConfirmCapture() on disabled gateway should fail")
	}
	if err := NewPaymentGateway("key_id", "key_secret", "INR").ConfirmCapture("", 10); err == nil {
		t.Error("ConfirmCapture() without payment id should fail")
	}
}

func TestImageContentType(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

	if ct, err := ImageContentType(png); err != nil || ct != "image/png" {
		t.Errorf("ImageContentType(png) = %q, %v", ct, err)
	}
	if _, err := ImageContentType([]byte("plain text, not an image")); err == nil {
		t.Error("expected text upload to be rejected")
	}
	if _, err := ImageContentType(nil); err == nil {
		t.Error("expected empty upload to be rejected")
	}
}

func TestObjectName(t *testing.T) {
	url := PublicURL("menu-bucket", "menu/abc-burger.png")
	if got := ObjectName("menu-bucket", url); got != "menu/abc-burger.png" {
		t.Errorf("ObjectName() = %q", got)
	}
	if got := ObjectName("menu-bucket", "https://example.com/x.png"); got != "" {
		t.Errorf("ObjectName() for foreign URL = %q, want empty", got)
	}
}
