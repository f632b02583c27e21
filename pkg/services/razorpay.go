package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"

	"github.com/razorpay/razorpay-go"
)

// PaymentGateway creates Razorpay orders for online and UPI bills and verifies
// the checkout signature
type PaymentGateway struct {
	client    *razorpay.Client
	keyID     string
	keySecret string
	currency  string
}

// NewPaymentGateway creates a gateway; it is disabled when the keys are empty
func NewPaymentGateway(keyID, keySecret, currency string) *PaymentGateway {
	g := &PaymentGateway{keyID: keyID, keySecret: keySecret, currency: currency}
	if g.currency == "" {
		g.currency = "INR"
	}
	if keyID != "" && keySecret != "" {
		g.client = razorpay.NewClient(keyID, keySecret)
	}
	return g
}

// Enabled reports whether Razorpay keys are configured
func (g *PaymentGateway) Enabled() bool {
	return g != nil && g.client != nil
}

// KeyID is the public key handed to the checkout widget
func (g *PaymentGateway) KeyID() string {
	return g.keyID
}

// ToSubunits converts an amount to paise
func ToSubunits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// CreateOrder creates a Razorpay order for the amount due on orderID
func (g *PaymentGateway) CreateOrder(orderID string, amount float64) (map[string]interface{}, error) {
	if !g.Enabled() {
		return nil, fmt.Errorf("Razorpay client not initialized")
	}
	if amount <= 0 {
		return nil, fmt.Errorf("amount must be positive")
	}

	data := map[string]interface{}{
		"amount":   ToSubunits(amount),
		"currency": g.currency,
		"receipt":  "receipt_" + orderID,
		"notes": map[string]interface{}{
			"order_id": orderID,
		},
	}

	body, err := g.client.Order.Create(data, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create razorpay order: %w", err)
	}
	return body, nil
}

// FetchPayment fetches payment details from Razorpay
func (g *PaymentGateway) FetchPayment(paymentID string) (map[string]interface{}, error) {
	if !g.Enabled() {
		return nil, fmt.Errorf("Razorpay client not initialized")
	}
	body, err := g.client.Payment.Fetch(paymentID, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch payment details: %w", err)
	}
	return body, nil
}

// ConfirmCapture fetches paymentID and checks it was captured for amount
func (g *PaymentGateway) ConfirmCapture(paymentID string, amount float64) error {
	if paymentID == "" {
		return fmt.Errorf("razorpay payment id is required")
	}
	payment, err := g.FetchPayment(paymentID)
	if err != nil {
		return err
	}
	return CheckCaptured(payment, amount)
}

// CheckCaptured checks that a fetched Razorpay payment is captured and that
// its amount in paise matches amount
func CheckCaptured(payment map[string]interface{}, amount float64) error {
	if status, _ := payment["status"].(string); status != "captured" {
		return fmt.Errorf("payment status is %q, not captured", status)
	}
	paid, ok := payment["amount"].(float64)
	if !ok {
		return fmt.Errorf("payment has no amount")
	}
	if int64(paid) != ToSubunits(amount) {
		return fmt.Errorf("payment amount %d does not match bill amount %d", int64(paid), ToSubunits(amount))
	}
	return nil
}

// VerifySignature checks the checkout signature for a Razorpay order and payment
func (g *PaymentGateway) VerifySignature(razorpayOrderID, paymentID, signature string) bool {
	if g == nil || g.keySecret == "" || signature == "" {
		return false
	}
	h := hmac.New(sha256.New, []byte(g.keySecret))
	h.Write([]byte(razorpayOrderID + "|" + paymentID))
	expected := hex.EncodeToString(h.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
