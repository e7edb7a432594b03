// Package cart keeps the buyer's in-progress selection, persisted per user.
package cart

import (
	"context"
	"encoding/json"
	"errors"
	"slices"
	"sync"

	"agromart/db"
	"agromart/globals"
	"agromart/models"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Cart is the cart store. Lines are unique by product id and every
// quantity is positive.
type Cart struct {
	mu     sync.Mutex
	items  []models.CartItem
	userID string
	subs   map[int]func([]models.CartItem)
	next   int

	db     db.Store
	logger zerolog.Logger
}

func New(store db.Store, logger zerolog.Logger) *Cart {
	return &Cart{
		subs:   make(map[int]func([]models.CartItem)),
		db:     store,
		logger: logger,
	}
}

func key(userID string) string { return globals.CartPrefix + userID }

// Bind loads the persisted cart of userID and makes it the current cart.
// An unreadable record is dropped.
func (c *Cart) Bind(ctx context.Context, userID string) error {
	var items []models.CartItem
	raw, err := c.db.Get(ctx, key(userID))
	switch {
	case errors.Is(err, db.ErrNotFound):
	case err != nil:
		return err
	default:
		if err := json.Unmarshal(raw, &items); err != nil {
			c.logger.Warn().Err(err).Str("user", userID).Msg("discarding unreadable cart")
			items = nil
		}
	}
	items = slices.DeleteFunc(items, func(it models.CartItem) bool { return it.Quantity <= 0 || it.ProductID == "" })

	c.mu.Lock()
	c.userID = userID
	c.items = items
	snap := c.snapshotLocked()
	c.mu.Unlock()
	c.publish(snap)
	return nil
}

// Unbind empties the cart and deletes the persisted copy of the bound user.
func (c *Cart) Unbind(ctx context.Context) {
	c.mu.Lock()
	userID := c.userID
	c.userID = ""
	c.items = nil
	c.mu.Unlock()

	if userID != "" {
		if err := c.db.Delete(ctx, key(userID)); err != nil {
			c.logger.Warn().Err(err).Str("user", userID).Msg("delete cart")
		}
	}
	c.publish(nil)
}

// Items returns a copy of the cart lines in insertion order.
func (c *Cart) Items() []models.CartItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Cart) snapshotLocked() []models.CartItem {
	return slices.Clone(c.items)
}

// Total is the sum of the line totals.
func (c *Cart) Total() decimal.Decimal {
	return Total(c.Items())
}

// Total sums items.
func Total(items []models.CartItem) decimal.Decimal {
	sum := decimal.Zero
	for _, it := range items {
		sum = sum.Add(it.LineTotal())
	}
	return sum
}

// Count is the number of distinct lines, not units.
func (c *Cart) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Subscribe registers fn for every change and returns a cancel func.
func (c *Cart) Subscribe(fn func([]models.CartItem)) func() {
	c.mu.Lock()
	id := c.next
	c.next++
	c.subs[id] = fn
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

func (c *Cart) publish(items []models.CartItem) {
	c.mu.Lock()
	subs := make([]func([]models.CartItem), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.mu.Unlock()
	for _, fn := range subs {
		fn(slices.Clone(items))
	}
}

// commit persists the snapshot for the bound user and notifies
// subscribers. Anonymous carts live in memory only.
func (c *Cart) commit(ctx context.Context, userID string, items []models.CartItem) {
	if userID != "" {
		raw, err := json.Marshal(items)
		if err == nil {
			err = c.db.Put(ctx, key(userID), raw)
		}
		if err != nil {
			c.logger.Warn().Err(err).Str("user", userID).Msg("persist cart")
		}
	}
	c.publish(items)
}
