package views

import (
	"context"

	"agromart/checkout"
	"agromart/models"
	"agromart/utils"

	"github.com/spf13/cobra"
)

func (r *runner) checkoutCmd() *cobra.Command {
	var (
		address   string
		method    string
		productID string
		qty       int
	)
	cmd := &cobra.Command{
		Use:   "checkout",
		Short: "Place an order for the cart, or buy one product now",
		Long: `Place an order.

Without --product the whole cart is ordered and the cart is emptied once the
order is placed. With --product only that product is ordered.

Cash on delivery adds a flat delivery surcharge. Online payments open the
payment page in your browser; the order is placed once the payment is
verified.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := r.buyerApp(cmd)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			var flow *checkout.Flow
			if productID != "" {
				p, err := a.API.GetProduct(ctx, productID)
				if err != nil {
					return err
				}
				flow, err = checkout.BuyNow(a.API, *p, qty, a.CheckoutOptions())
				if err != nil {
					return err
				}
			} else if flow, err = checkout.FromCart(a.API, a.Cart, a.CheckoutOptions()); err != nil {
				return err
			}
			// an interrupted command must not apply a late result
			stop := context.AfterFunc(ctx, flow.Abandon)
			defer stop()

			if err := flow.SetAddress(address); err != nil {
				return err
			}
			if err := flow.SelectPayment(models.PaymentMethod(method)); err != nil {
				return err
			}
			printSummary(cmd, flow)

			var order *models.Order
			switch flow.State() {
			case checkout.CODConfirm:
				order, err = flow.ConfirmCOD(ctx)
			case checkout.OnlineRedirect:
				payCtx, cancel := context.WithTimeout(ctx, a.Config.Payment.Timeout)
				defer cancel()
				order, err = flow.PayOnline(payCtx, a.Widget(cmd.ErrOrStderr()))
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if order.PaymentMethod == models.PaymentOnline {
				printf(out, "%s\n", Success.Render("Payment successful & Order placed"))
			} else {
				printf(out, "%s\n", Success.Render("Order placed (COD)"))
			}
			printf(out, "Order %s is %s. Track it with: agromart orders\n", order.ID, Badge(order.Status))
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&address, "address", "a", "", "delivery address")
	f.StringVarP(&method, "method", "m", string(models.PaymentCOD), "payment method: cod or online")
	f.StringVar(&productID, "product", "", "buy this product now instead of the cart")
	f.IntVarP(&qty, "qty", "q", 1, "quantity for --product")
	return cmd
}

func printSummary(cmd *cobra.Command, flow *checkout.Flow) {
	out := cmd.OutOrStdout()
	for _, it := range flow.Items() {
		printf(out, "%-24s %3d %-5s %14s\n", utils.Truncate(it.Name, 24), it.Quantity, it.Unit, utils.FormatCurrency(it.LineTotal()))
	}
	printf(out, "%s\n", rule())
	printf(out, "Subtotal            %14s\n", utils.FormatCurrency(flow.Subtotal()))
	if s := flow.Surcharge(); s.IsPositive() {
		printf(out, "COD charges         %14s\n", utils.FormatCurrency(s))
	}
	printf(out, "Total               %14s\n", Title.Render(utils.FormatCurrency(flow.Total())))
	printf(out, "Deliver to: %s\n", flow.Address())
}
