package gateway

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"agromart/models"
)

// ListOrders returns the orders visible to the caller; the server filters
// by role (buyer: placed, farmer: received).
func (c *Client) ListOrders(ctx context.Context) ([]models.Order, error) {
	var out []models.Order
	err := c.do(ctx, call{
		method:   http.MethodGet,
		route:    "/orders",
		path:     "/orders",
		out:      &out,
		auth:     true,
		fallback: "Failed to load orders",
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []models.Order{}
	}
	return out, nil
}

// CreateOrder submits an order. No idempotency key is sent: a retry after
// an ambiguous failure can create a duplicate.
func (c *Client) CreateOrder(ctx context.Context, req models.OrderRequest) (*models.Order, error) {
	switch {
	case len(req.Items) == 0:
		return nil, &ValidationError{Field: "items", Detail: "Cart is empty"}
	case strings.TrimSpace(req.DeliveryAddress) == "":
		return nil, &ValidationError{Field: "delivery_address", Detail: "Please enter delivery address"}
	case !req.PaymentMethod.Valid():
		return nil, &ValidationError{Field: "payment_method", Detail: "Unknown payment method"}
	}
	var out models.Order
	err := c.do(ctx, call{
		method:   http.MethodPost,
		route:    "/orders",
		path:     "/orders",
		body:     req,
		out:      &out,
		auth:     true,
		fallback: "Failed to place order",
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateOrderStatus asks the server to move an order to status. The status
// travels both as the query parameter the backend reads and in the body.
func (c *Client) UpdateOrderStatus(ctx context.Context, id string, status models.OrderStatus) error {
	return c.do(ctx, call{
		method:   http.MethodPut,
		route:    "/orders/{id}/status",
		path:     "/orders/" + url.PathEscape(id) + "/status",
		query:    url.Values{"status": {string(status)}},
		body:     models.StatusUpdate{Status: status},
		out:      &models.Message{},
		auth:     true,
		fallback: "Failed to update order status",
	})
}
