package views

import (
	"errors"
	"net/http"
	"strconv"

	"agromart/app"
	"agromart/cart"
	"agromart/dashboard"
	"agromart/gateway"
	"agromart/models"
	"agromart/utils"

	"github.com/spf13/cobra"
)

var errBuyersOnly error = &gateway.AuthError{Status: http.StatusForbidden, Detail: "Only buyers can use the cart"}

// buyerApp opens the app and insists on a signed-in buyer.
func (r *runner) buyerApp(cmd *cobra.Command) (*app.App, error) {
	a, err := r.App(cmd)
	if err != nil {
		return nil, err
	}
	switch err := dashboard.RequireRole(a.Session.Current(), models.RoleBuyer); {
	case errors.Is(err, dashboard.ErrWrongRole):
		return nil, errBuyersOnly
	case err != nil:
		return nil, err
	}
	return a, nil
}

func (r *runner) cartCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cart",
		Short: "Show the cart",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := r.buyerApp(cmd)
			if err != nil {
				return err
			}
			printCart(cmd, a.Cart.Items())
			return nil
		},
	}
	cmd.AddCommand(r.cartAddCmd(), r.cartUpdateCmd(), r.cartRemoveCmd(), r.cartClearCmd())
	return cmd
}

func printCart(cmd *cobra.Command, items []models.CartItem) {
	out := cmd.OutOrStdout()
	if len(items) == 0 {
		printf(out, "Your cart is empty.\n")
		return
	}
	for _, it := range items {
		printf(out, "%-36s  %-24s %3d %-5s x %12s = %14s\n",
			it.ProductID, utils.Truncate(it.Name, 24), it.Quantity, it.Unit,
			utils.FormatCurrency(it.UnitPrice), utils.FormatCurrency(it.LineTotal()))
	}
	printf(out, "%s\n", rule())
	printf(out, "%d item(s)  Total %s\n", len(items), Title.Render(utils.FormatCurrency(cart.Total(items))))
}

func (r *runner) cartAddCmd() *cobra.Command {
	var qty int
	cmd := &cobra.Command{
		Use:   "add <product-id>",
		Short: "Add a product to the cart",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := r.buyerApp(cmd)
			if err != nil {
				return err
			}
			p, err := a.API.GetProduct(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := cart.ValidateQuantity(*p, qty); err != nil {
				return gateway.Invalid(err)
			}
			a.Cart.AddToCart(cmd.Context(), *p, qty)
			printf(cmd.OutOrStdout(), "%s\n", Success.Render("Added to cart!"))
			return nil
		},
	}
	cmd.Flags().IntVarP(&qty, "qty", "q", 1, "quantity")
	return cmd
}

func (r *runner) cartUpdateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "update <product-id> <quantity>",
		Short: "Set a line's quantity; 0 removes it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return &gateway.ValidationError{Field: "quantity", Detail: "quantity must be a whole number"}
			}
			a, err := r.buyerApp(cmd)
			if err != nil {
				return err
			}
			a.Cart.UpdateQuantity(cmd.Context(), args[0], n)
			printCart(cmd, a.Cart.Items())
			return nil
		},
	}
}

func (r *runner) cartRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <product-id>",
		Short: "Remove a line",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := r.buyerApp(cmd)
			if err != nil {
				return err
			}
			a.Cart.RemoveFromCart(cmd.Context(), args[0])
			printCart(cmd, a.Cart.Items())
			return nil
		},
	}
}

func (r *runner) cartClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Empty the cart",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := r.buyerApp(cmd)
			if err != nil {
				return err
			}
			a.Cart.ClearCart(cmd.Context())
			printf(cmd.OutOrStdout(), "Cart cleared.\n")
			return nil
		},
	}
}
