package dashboard

import (
	"context"

	"agromart/gateway"
	"agromart/models"
)

func (d *Dashboard) CreateProduct(ctx context.Context, in models.ProductInput) (*models.Product, error) {
	if err := RequireRole(d.sess.Current(), models.RoleFarmer); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, gateway.Invalid(err)
	}
	p, err := d.gw.CreateProduct(ctx, in)
	if err != nil {
		return nil, err
	}
	d.logger.Info().Str("product_id", p.ID).Msg("product added")
	return p, nil
}

func (d *Dashboard) UpdateProduct(ctx context.Context, id string, in models.ProductInput) (*models.Product, error) {
	if err := RequireRole(d.sess.Current(), models.RoleFarmer); err != nil {
		return nil, err
	}
	if err := in.Validate(); err != nil {
		return nil, gateway.Invalid(err)
	}
	p, err := d.gw.UpdateProduct(ctx, id, in)
	if err != nil {
		return nil, err
	}
	d.logger.Info().Str("product_id", p.ID).Msg("product updated")
	return p, nil
}

func (d *Dashboard) DeleteProduct(ctx context.Context, id string) error {
	if err := RequireRole(d.sess.Current(), models.RoleFarmer); err != nil {
		return err
	}
	if err := d.gw.DeleteProduct(ctx, id); err != nil {
		return err
	}
	d.logger.Info().Str("product_id", id).Msg("product deleted")
	return nil
}

// Action is the one status change offered for an order.
type Action struct {
	Label  string
	Target models.OrderStatus
}

// NextAction returns the forward step for status: confirm a pending order,
// deliver a confirmed one. Terminal orders have none.
func NextAction(status models.OrderStatus) (Action, bool) {
	switch status {
	case models.StatusPending:
		return Action{Label: "Confirm Order", Target: models.StatusConfirmed}, true
	case models.StatusConfirmed:
		return Action{Label: "Mark Delivered", Target: models.StatusDelivered}, true
	}
	return Action{}, false
}

// AdvanceOrder moves o one step forward.
func (d *Dashboard) AdvanceOrder(ctx context.Context, o models.Order) (models.OrderStatus, error) {
	act, ok := NextAction(o.Status)
	if !ok {
		return o.Status, &gateway.ValidationError{Field: "status", Detail: "Order is already " + o.Status.String()}
	}
	return act.Target, d.transition(ctx, o, act.Target)
}

// CancelOrder cancels a pending or confirmed order.
func (d *Dashboard) CancelOrder(ctx context.Context, o models.Order) error {
	return d.transition(ctx, o, models.StatusCancelled)
}

func (d *Dashboard) transition(ctx context.Context, o models.Order, to models.OrderStatus) error {
	if err := RequireRole(d.sess.Current(), models.RoleFarmer); err != nil {
		return err
	}
	if !o.Status.CanTransitionTo(to) {
		return &gateway.ValidationError{
			Field:  "status",
			Detail: "Cannot change order from " + o.Status.String() + " to " + to.String(),
		}
	}
	if err := d.gw.UpdateOrderStatus(ctx, o.ID, to); err != nil {
		return err
	}
	d.logger.Info().Str("order_id", o.ID).Str("from", o.Status.String()).Str("to", to.String()).Msg("order status updated")
	return nil
}
