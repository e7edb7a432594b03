package gateway

import (
	"context"
	"net/http"

	"agromart/models"
)

// CreatePaymentIntent opens a gateway order for the hosted widget.
func (c *Client) CreatePaymentIntent(ctx context.Context, req models.PaymentIntentRequest) (*models.PaymentIntent, error) {
	var out models.PaymentIntent
	err := c.do(ctx, call{
		method:   http.MethodPost,
		route:    "/payments/create-order",
		path:     "/payments/create-order",
		body:     req,
		out:      &out,
		auth:     true,
		fallback: "Payment failed",
	})
	if err != nil {
		return nil, err
	}
	if out.OrderID == "" || out.Key == "" {
		return nil, &NetworkError{Detail: "unexpected response from server"}
	}
	if out.Currency == "" {
		out.Currency = req.Currency
	}
	return &out, nil
}

// VerifyPayment hands the widget's success payload to the backend for
// signature verification.
func (c *Client) VerifyPayment(ctx context.Context, cb models.PaymentCallback) (*models.PaymentVerification, error) {
	var out models.PaymentVerification
	err := c.do(ctx, call{
		method:   http.MethodPost,
		route:    "/payments/verify",
		path:     "/payments/verify",
		body:     cb,
		out:      &out,
		auth:     true,
		fallback: "Payment verification failed",
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}
