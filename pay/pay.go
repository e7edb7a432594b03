// Package pay hands an online payment to the hosted payment widget and
// reports back its callback.
package pay

import (
	"context"
	"errors"

	"agromart/models"

	"github.com/shopspring/decimal"
)

// ErrDismissed means the buyer closed the widget without paying.
var ErrDismissed = errors.New("payment cancelled")

// Prefill is shown in the widget's contact fields.
type Prefill struct {
	Name  string
	Email string
	Phone string
}

// Request is everything the widget needs to collect one payment.
type Request struct {
	Intent      models.PaymentIntent
	Amount      decimal.Decimal
	Merchant    string
	Description string
	Prefill     Prefill
}

// Widget opens the hosted payment UI and blocks until it reports success
// or dismissal. On success it returns the gateway's callback payload,
// which still has to be verified by the backend.
type Widget interface {
	Open(ctx context.Context, req Request) (*models.PaymentCallback, error)
}

// WidgetFunc adapts a function to Widget.
type WidgetFunc func(ctx context.Context, req Request) (*models.PaymentCallback, error)

func (f WidgetFunc) Open(ctx context.Context, req Request) (*models.PaymentCallback, error) {
	return f(ctx, req)
}
