// Package checkout turns a cart or a single product into a submitted
// order, optionally through the online payment widget.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"agromart/cart"
	"agromart/gateway"
	"agromart/globals"
	"agromart/models"
	"agromart/pay"
	"agromart/utils"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

var (
	// ErrAbandoned is returned when a gateway result arrives for an
	// attempt that was abandoned meanwhile. The result is not applied.
	ErrAbandoned = errors.New("checkout abandoned")
	ErrWrongStep = errors.New("checkout step not allowed")
)

// Gateway is the part of the API the checkout calls.
type Gateway interface {
	CreateOrder(ctx context.Context, req models.OrderRequest) (*models.Order, error)
	CreatePaymentIntent(ctx context.Context, req models.PaymentIntentRequest) (*models.PaymentIntent, error)
	VerifyPayment(ctx context.Context, cb models.PaymentCallback) (*models.PaymentVerification, error)
}

// Cart is what a cart-originated checkout needs from the cart store.
type Cart interface {
	Items() []models.CartItem
	ClearCart(ctx context.Context)
}

type Options struct {
	// Surcharge is the cash on delivery fee; nil means the marketplace default.
	Surcharge *decimal.Decimal
	Currency  string
	Merchant  string
	// Buyer prefills the payment widget.
	Buyer  *models.User
	Logger zerolog.Logger
}

func (o *Options) fill() {
	if o.Surcharge == nil {
		d := globals.CODSurcharge
		o.Surcharge = &d
	}
	if o.Currency == "" {
		o.Currency = globals.DefaultCurrency
	}
	if o.Merchant == "" {
		o.Merchant = globals.MerchantName
	}
}

// Flow is one checkout attempt. It is not persisted.
type Flow struct {
	mu        sync.Mutex
	state     State
	items     []models.CartItem
	cart      Cart // nil for buy-now
	address   string
	method    models.PaymentMethod
	order     *models.Order
	abandoned bool

	gw   Gateway
	opts Options
}

// FromCart starts a checkout of every cart line. The cart is cleared once
// the order is submitted.
func FromCart(gw Gateway, c Cart, opts Options) (*Flow, error) {
	items := c.Items()
	if len(items) == 0 {
		return nil, &gateway.ValidationError{Field: "items", Detail: "Cart is empty"}
	}
	opts.fill()
	return &Flow{items: items, cart: c, gw: gw, opts: opts}, nil
}

// BuyNow starts a checkout of a single product, leaving the cart alone.
func BuyNow(gw Gateway, p models.Product, qty int, opts Options) (*Flow, error) {
	if err := cart.ValidateQuantity(p, qty); err != nil {
		return nil, gateway.Invalid(err)
	}
	opts.fill()
	return &Flow{items: []models.CartItem{models.NewCartItem(p, qty)}, gw: gw, opts: opts}, nil
}

func (f *Flow) State() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *Flow) Items() []models.CartItem {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.CartItem(nil), f.items...)
}

func (f *Flow) Address() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.address
}

func (f *Flow) Method() models.PaymentMethod {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.method
}

// Order is the submitted order, nil before Submitted.
func (f *Flow) Order() *models.Order {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.order
}

func (f *Flow) Subtotal() decimal.Decimal {
	return cart.Total(f.Items())
}

// Surcharge is the cash on delivery fee for the selected method.
func (f *Flow) Surcharge() decimal.Decimal {
	if f.Method() == models.PaymentCOD {
		return *f.opts.Surcharge
	}
	return decimal.Zero
}

// Total is the subtotal plus the surcharge, if any.
func (f *Flow) Total() decimal.Decimal {
	return f.Subtotal().Add(f.Surcharge())
}

func (f *Flow) checkLocked(op string, allowed ...State) error {
	if f.abandoned {
		return ErrAbandoned
	}
	for _, s := range allowed {
		if f.state == s {
			return nil
		}
	}
	return fmt.Errorf("%w: %s during %s", ErrWrongStep, op, f.state)
}

// SetAddress records the delivery address and moves on to payment method
// selection. It may be called again to change the address.
func (f *Flow) SetAddress(addr string) error {
	addr = strings.TrimSpace(addr)
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.checkLocked("set address", Address, PaymentMethodSelection); err != nil {
		return err
	}
	if addr == "" {
		return &gateway.ValidationError{Field: "delivery_address", Detail: "Please enter delivery address"}
	}
	f.address = addr
	f.state = PaymentMethodSelection
	return nil
}

// SelectPayment chooses cod or online.
func (f *Flow) SelectPayment(m models.PaymentMethod) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.checkLocked("select payment", PaymentMethodSelection); err != nil {
		return err
	}
	switch m {
	case models.PaymentCOD:
		f.state = CODConfirm
	case models.PaymentOnline:
		f.state = OnlineRedirect
	default:
		return &gateway.ValidationError{Field: "payment_method", Detail: "Please select a payment method"}
	}
	f.method = m
	return nil
}

// Abandon invalidates the attempt. Results of calls still in flight are
// discarded when they arrive.
func (f *Flow) Abandon() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.abandoned = true
}

func (f *Flow) orderRequest() models.OrderRequest {
	items := make([]models.OrderItem, 0, len(f.items))
	for _, it := range f.items {
		items = append(items, it.OrderItem())
	}
	return models.OrderRequest{Items: items, DeliveryAddress: f.address, PaymentMethod: f.method}
}

// ConfirmCOD submits a cash on delivery order. On failure the flow goes
// back to payment method selection.
func (f *Flow) ConfirmCOD(ctx context.Context) (*models.Order, error) {
	f.mu.Lock()
	if err := f.checkLocked("confirm order", CODConfirm); err != nil {
		f.mu.Unlock()
		return nil, err
	}
	req := f.orderRequest()
	f.mu.Unlock()

	order, err := f.gw.CreateOrder(ctx, req)

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.abandoned {
		if err == nil {
			f.opts.Logger.Warn().Str("order_id", order.ID).Msg("order created after checkout was abandoned")
		}
		return nil, ErrAbandoned
	}
	if err != nil {
		f.state = PaymentMethodSelection
		return nil, err
	}
	f.submitLocked(ctx, order)
	return order, nil
}

func (f *Flow) submitLocked(ctx context.Context, order *models.Order) {
	f.order = order
	f.state = Submitted
	if f.cart != nil {
		f.cart.ClearCart(ctx)
	}
	f.opts.Logger.Info().Str("order_id", order.ID).Str("method", string(f.method)).Msg("order placed")
}

// PayOnline collects the payment through w, has the backend verify it and
// only then submits the order. Dismissal or a failed verification leave the
// flow Interrupted with a PaymentError and no order.
func (f *Flow) PayOnline(ctx context.Context, w pay.Widget) (*models.Order, error) {
	f.mu.Lock()
	if err := f.checkLocked("pay online", OnlineRedirect); err != nil {
		f.mu.Unlock()
		return nil, err
	}
	total := cart.Total(f.items)
	req := f.orderRequest()
	f.mu.Unlock()

	intent, err := f.gw.CreatePaymentIntent(ctx, models.PaymentIntentRequest{
		Amount:   models.MinorUnits(total),
		Currency: f.opts.Currency,
		Receipt:  utils.ShortID(),
	})
	if err := f.settle(err, PaymentMethodSelection); err != nil {
		return nil, err
	}

	cb, err := w.Open(ctx, pay.Request{
		Intent:      *intent,
		Amount:      total,
		Merchant:    f.opts.Merchant,
		Description: fmt.Sprintf("%d item(s) from %s", len(req.Items), f.opts.Merchant),
		Prefill:     f.prefill(),
	})
	if err != nil {
		detail := "Payment failed"
		if errors.Is(err, pay.ErrDismissed) {
			detail = "Payment cancelled"
		}
		err = &gateway.PaymentError{Detail: detail, Err: err}
	}
	if err := f.settle(err, Interrupted); err != nil {
		return nil, err
	}

	v, err := f.gw.VerifyPayment(ctx, *cb)
	if err == nil && !v.Success {
		err = errors.New("verification rejected")
	}
	if err != nil {
		err = &gateway.PaymentError{Detail: "Payment verification failed", Err: err}
	}
	if err := f.settle(err, Interrupted); err != nil {
		return nil, err
	}

	order, err := f.gw.CreateOrder(ctx, req)
	if err != nil {
		f.opts.Logger.Error().Err(err).Str("payment_id", cb.PaymentID).Str("gateway_order", cb.OrderID).
			Msg("payment verified but order creation failed")
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.abandoned {
		return nil, ErrAbandoned
	}
	if err != nil {
		f.state = Interrupted
		return nil, err
	}
	f.submitLocked(ctx, order)
	return order, nil
}

// settle applies the outcome of an awaited step: an abandoned attempt
// yields ErrAbandoned, a failure moves the flow to onErr.
func (f *Flow) settle(err error, onErr State) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.abandoned {
		return ErrAbandoned
	}
	if err != nil {
		f.state = onErr
	}
	return err
}

func (f *Flow) prefill() pay.Prefill {
	if f.opts.Buyer == nil {
		return pay.Prefill{}
	}
	return pay.Prefill{Name: f.opts.Buyer.Name, Email: f.opts.Buyer.Email, Phone: f.opts.Buyer.Phone}
}
