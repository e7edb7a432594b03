package views

import (
	"io"
	"os"

	"agromart/dashboard"
	"agromart/gateway"
	"agromart/models"
	"agromart/receipt"
	"agromart/utils"

	"github.com/spf13/cobra"
)

func (r *runner) ordersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "orders",
		Short: "Buyer dashboard: your orders",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := r.App(cmd)
			if err != nil {
				return err
			}
			v, err := a.Dashboard.BuyerOrders(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			printf(out, "%s\n", Title.Render("My Orders"))
			printf(out, "Total orders: %d   Pending: %d   Spent: %s\n",
				v.Summary.TotalOrders, v.Summary.PendingOrders, utils.FormatCurrency(v.Summary.TotalSpent))
			printf(out, "%s\n", rule())
			if len(v.Orders) == 0 {
				printf(out, "No orders yet. Browse with: agromart products\n")
				return nil
			}
			for _, o := range v.Orders {
				printOrder(cmd, o, models.RoleBuyer)
			}
			return nil
		},
	}
}

func printOrder(cmd *cobra.Command, o models.Order, viewer models.Role) {
	out := cmd.OutOrStdout()
	label := "Farmer"
	if viewer == models.RoleFarmer {
		label = "Buyer"
	}
	printf(out, "%s  %s  %s\n", o.ID, Badge(o.Status), Muted.Render(utils.FormatDate(o.CreatedAt.Time)))
	printf(out, "  %s: %s   %d item(s)   %s   %s\n",
		label, o.Counterpart(viewer), len(o.Items), utils.FormatCurrency(o.TotalAmount), o.PaymentMethod)
	for _, it := range o.Items {
		printf(out, "    %s  %s %s\n", it.ProductName, it.Quantity.String(), it.Unit)
	}
	printf(out, "  Deliver to: %s\n", o.DeliveryAddress)
}

func (r *runner) receiptCmd() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "receipt <order-id>",
		Short: "Save an order receipt as PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := r.App(cmd)
			if err != nil {
				return err
			}
			if !a.Session.Current().LoggedIn() {
				return dashboard.ErrLoginRequired
			}
			orders, err := a.API.ListOrders(cmd.Context())
			if err != nil {
				return err
			}
			var found *models.Order
			for i := range orders {
				if orders[i].ID == args[0] {
					found = &orders[i]
					break
				}
			}
			if found == nil {
				return &gateway.NotFoundError{Detail: "Order not found"}
			}
			if path == "" {
				path = "receipt-" + found.ID + ".pdf"
			}
			err = writeFile(path, func(w io.Writer) error {
				return receipt.Write(w, *found, a.Config.Payment.MerchantName)
			})
			if err != nil {
				return err
			}
			printf(cmd.OutOrStdout(), "Receipt saved to %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVarP(&path, "out", "o", "", "output file (default receipt-<order-id>.pdf)")
	return cmd
}

// writeFile creates path and fills it with write. A failed write leaves no
// partial file behind.
func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	err = write(f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(path)
	}
	return err
}
