// Package dashboard backs the buyer and farmer dashboards. Role checks
// here only steer the user; the backend enforces access.
package dashboard

import (
	"context"
	"errors"

	"agromart/models"
	"agromart/session"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

var (
	ErrLoginRequired = session.ErrLoginRequired
	ErrWrongRole     = errors.New("this page is not available for your account")
)

// Page is a landing destination.
type Page string

const (
	PageProducts Page = "products"
	PageBuyer    Page = "buyer-dashboard"
	PageFarmer   Page = "farmer-dashboard"
	PageAdmin    Page = "admin-dashboard"
)

// HomeFor is where a user of role lands after signing in.
func HomeFor(role models.Role) Page {
	switch role {
	case models.RoleFarmer:
		return PageFarmer
	case models.RoleBuyer:
		return PageBuyer
	case models.RoleAdmin:
		return PageAdmin
	}
	return PageProducts
}

// RequireRole returns ErrLoginRequired when nobody is signed in and
// ErrWrongRole when the user is not one of roles.
func RequireRole(snap session.Snapshot, roles ...models.Role) error {
	if !snap.LoggedIn() {
		return ErrLoginRequired
	}
	for _, r := range roles {
		if snap.User.Role == r {
			return nil
		}
	}
	return ErrWrongRole
}

type Gateway interface {
	ListOrders(ctx context.Context) ([]models.Order, error)
	FarmerProducts(ctx context.Context) ([]models.Product, error)
	CreateProduct(ctx context.Context, in models.ProductInput) (*models.Product, error)
	UpdateProduct(ctx context.Context, id string, in models.ProductInput) (*models.Product, error)
	DeleteProduct(ctx context.Context, id string) error
	UpdateOrderStatus(ctx context.Context, id string, status models.OrderStatus) error
}

// Sessions exposes the current session.
type Sessions interface {
	Current() session.Snapshot
}

type Dashboard struct {
	gw     Gateway
	sess   Sessions
	logger zerolog.Logger
}

func New(gw Gateway, sess Sessions, logger zerolog.Logger) *Dashboard {
	return &Dashboard{gw: gw, sess: sess, logger: logger}
}

// BuyerSummary is the header of the buyer dashboard.
type BuyerSummary struct {
	TotalOrders   int
	PendingOrders int
	TotalSpent    decimal.Decimal
}

// BuyerView is the buyer dashboard: placed orders, newest first as the
// server returns them.
type BuyerView struct {
	Orders  []models.Order
	Summary BuyerSummary
}

func (d *Dashboard) BuyerOrders(ctx context.Context) (*BuyerView, error) {
	if err := RequireRole(d.sess.Current(), models.RoleBuyer); err != nil {
		return nil, err
	}
	orders, err := d.gw.ListOrders(ctx)
	if err != nil {
		return nil, err
	}
	v := &BuyerView{Orders: orders, Summary: BuyerSummary{TotalOrders: len(orders), TotalSpent: decimal.Zero}}
	for _, o := range orders {
		if o.Status == models.StatusPending {
			v.Summary.PendingOrders++
		}
		if o.Status != models.StatusCancelled {
			v.Summary.TotalSpent = v.Summary.TotalSpent.Add(o.TotalAmount)
		}
	}
	return v, nil
}

// FarmerView is the farmer dashboard.
type FarmerView struct {
	Products      []models.Product
	Orders        []models.Order
	TotalProducts int
	TotalOrders   int
	PendingOrders int
}

func (d *Dashboard) FarmerOverview(ctx context.Context) (*FarmerView, error) {
	if err := RequireRole(d.sess.Current(), models.RoleFarmer); err != nil {
		return nil, err
	}
	products, err := d.gw.FarmerProducts(ctx)
	if err != nil {
		return nil, err
	}
	orders, err := d.gw.ListOrders(ctx)
	if err != nil {
		return nil, err
	}
	v := &FarmerView{
		Products:      products,
		Orders:        orders,
		TotalProducts: len(products),
		TotalOrders:   len(orders),
	}
	for _, o := range orders {
		if o.Status == models.StatusPending {
			v.PendingOrders++
		}
	}
	return v, nil
}
