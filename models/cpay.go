package models

import (
	"github.com/shopspring/decimal"
)

// PaymentIntentRequest asks the backend to open a gateway order. Amount is
// in minor units (paise).
type PaymentIntentRequest struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

// PaymentIntent is the gateway order the hosted widget is opened against.
type PaymentIntent struct {
	OrderID  string `json:"order_id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency,omitempty"`
	Key      string `json:"key"`
}

// PaymentCallback is the payload the widget hands back on success and that
// the backend verifies.
type PaymentCallback struct {
	OrderID   string `json:"razorpay_order_id"`
	PaymentID string `json:"razorpay_payment_id"`
	Signature string `json:"razorpay_signature"`
}

func (c PaymentCallback) Complete() bool {
	return c.OrderID != "" && c.PaymentID != "" && c.Signature != ""
}

// PaymentVerification is the verify endpoint's response.
type PaymentVerification struct {
	Success bool `json:"success"`
}

// MinorUnits converts a rupee amount to paise, rounding half up.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
}
