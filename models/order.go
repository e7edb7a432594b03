package models

import (
	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	PaymentCOD    PaymentMethod = "cod"
	PaymentOnline PaymentMethod = "online"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentCOD || m == PaymentOnline
}

type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusConfirmed OrderStatus = "confirmed"
	StatusDelivered OrderStatus = "delivered"
	StatusCancelled OrderStatus = "cancelled"
)

func (s OrderStatus) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// Next is the single forward step a farmer may take, if any.
func (s OrderStatus) Next() (OrderStatus, bool) {
	switch s {
	case StatusPending:
		return StatusConfirmed, true
	case StatusConfirmed:
		return StatusDelivered, true
	}
	return "", false
}

// CanTransitionTo reports whether to is reachable from s in one step.
// Cancellation is allowed from any non-terminal status.
func (s OrderStatus) CanTransitionTo(to OrderStatus) bool {
	if to == StatusCancelled {
		return !s.IsTerminal()
	}
	next, ok := s.Next()
	return ok && next == to
}

func (s OrderStatus) String() string {
	return string(s)
}

// OrderItem is a line item snapshot inside an order.
type OrderItem struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    decimal.Decimal `json:"quantity"`
	Unit        string          `json:"unit"`
	Price       decimal.Decimal `json:"price"`
	Total       decimal.Decimal `json:"total"`
}

// NewOrderItem builds the single line of a buy-now checkout.
func NewOrderItem(p Product, quantity int) OrderItem {
	return NewCartItem(p, quantity).OrderItem()
}

// OrderRequest is the body of POST /api/orders.
type OrderRequest struct {
	Items           []OrderItem   `json:"items"`
	DeliveryAddress string        `json:"delivery_address"`
	PaymentMethod   PaymentMethod `json:"payment_method"`
}

// Order is the server-confirmed order record. The client never edits it.
type Order struct {
	ID              string          `json:"id"`
	BuyerID         string          `json:"buyer_id"`
	BuyerName       string          `json:"buyer_name"`
	BuyerEmail      string          `json:"buyer_email"`
	FarmerID        string          `json:"farmer_id"`
	FarmerName      string          `json:"farmer_name"`
	Items           []OrderItem     `json:"items"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	Status          OrderStatus     `json:"status"`
	DeliveryAddress string          `json:"delivery_address"`
	PaymentMethod   PaymentMethod   `json:"payment_method"`
	CreatedAt       Timestamp       `json:"created_at"`
}

// Counterpart names the other party of the order for the given viewer.
func (o Order) Counterpart(viewer Role) string {
	if viewer == RoleFarmer {
		if o.BuyerEmail != "" {
			return o.BuyerName + " <" + o.BuyerEmail + ">"
		}
		return o.BuyerName
	}
	return o.FarmerName
}

// StatusUpdate is the body of PUT /api/orders/{id}/status.
type StatusUpdate struct {
	Status OrderStatus `json:"status"`
}

// Message is the generic {"message": ...} acknowledgement.
type Message struct {
	Message string `json:"message"`
}
