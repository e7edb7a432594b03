package cart

import (
	"context"
	"fmt"
	"slices"

	"agromart/models"

	"github.com/shopspring/decimal"
)

// ValidateQuantity checks 1 <= qty <= the product's available quantity.
// AddToCart trusts its caller to have done this.
func ValidateQuantity(p models.Product, qty int) error {
	if qty < 1 {
		return &models.InvalidFieldError{Field: "quantity", Reason: "must be at least 1"}
	}
	if p.Quantity.LessThan(decimal.NewFromInt(int64(qty))) {
		return &models.InvalidFieldError{
			Field:  "quantity",
			Reason: fmt.Sprintf("only %s %s available", p.Quantity.String(), p.Unit),
		}
	}
	return nil
}

// AddToCart increments the line for p if it exists, or appends a new one.
// Non-positive quantities are ignored.
func (c *Cart) AddToCart(ctx context.Context, p models.Product, qty int) {
	if qty <= 0 {
		return
	}
	c.mutate(ctx, func(items []models.CartItem) []models.CartItem {
		if i := index(items, p.ID); i >= 0 {
			items[i].Quantity += qty
			return items
		}
		return append(items, models.NewCartItem(p, qty))
	})
}

// UpdateQuantity sets the quantity of a line; n <= 0 removes it.
func (c *Cart) UpdateQuantity(ctx context.Context, productID string, n int) {
	c.mutate(ctx, func(items []models.CartItem) []models.CartItem {
		i := index(items, productID)
		switch {
		case i < 0:
		case n <= 0:
			items = slices.Delete(items, i, i+1)
		default:
			items[i].Quantity = n
		}
		return items
	})
}

// RemoveFromCart drops a line. Absent ids are ignored.
func (c *Cart) RemoveFromCart(ctx context.Context, productID string) {
	c.mutate(ctx, func(items []models.CartItem) []models.CartItem {
		if i := index(items, productID); i >= 0 {
			items = slices.Delete(items, i, i+1)
		}
		return items
	})
}

func (c *Cart) ClearCart(ctx context.Context) {
	c.mutate(ctx, func([]models.CartItem) []models.CartItem { return nil })
}

func (c *Cart) mutate(ctx context.Context, fn func([]models.CartItem) []models.CartItem) {
	c.mu.Lock()
	c.items = fn(c.items)
	userID := c.userID
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.commit(ctx, userID, snap)
}

func index(items []models.CartItem, productID string) int {
	return slices.IndexFunc(items, func(it models.CartItem) bool { return it.ProductID == productID })
}
