package models

import (
	"github.com/shopspring/decimal"
)

// CartItem represents a single product line in the buyer's cart.
type CartItem struct {
	ProductID  string          `json:"productId"`
	Name       string          `json:"name"`
	UnitPrice  decimal.Decimal `json:"unitPrice"`
	Unit       string          `json:"unit"`
	Quantity   int             `json:"quantity"`
	ImageURL   string          `json:"imageUrl,omitempty"`
	FarmerName string          `json:"farmerName"`
}

// LineTotal is unit price times quantity.
func (i CartItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// OrderItem converts the cart line into the order-creation line item.
func (i CartItem) OrderItem() OrderItem {
	return OrderItem{
		ProductID:   i.ProductID,
		ProductName: i.Name,
		Quantity:    decimal.NewFromInt(int64(i.Quantity)),
		Unit:        i.Unit,
		Price:       i.UnitPrice,
		Total:       i.LineTotal(),
	}
}

// NewCartItem snapshots the product fields the cart needs.
func NewCartItem(p Product, quantity int) CartItem {
	return CartItem{
		ProductID:  p.ID,
		Name:       p.Name,
		UnitPrice:  p.Price,
		Unit:       p.Unit,
		Quantity:   quantity,
		ImageURL:   p.ImageURL,
		FarmerName: p.FarmerName,
	}
}
