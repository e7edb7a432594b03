package views

import (
	"strings"

	"agromart/dashboard"
	"agromart/gateway"
	"agromart/models"
	"agromart/utils"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

func (r *runner) farmerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "farmer",
		Short: "Farmer dashboard: your products and incoming orders",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := r.App(cmd)
			if err != nil {
				return err
			}
			v, err := a.Dashboard.FarmerOverview(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			printf(out, "%s\n", Title.Render("Farmer Dashboard"))
			printf(out, "Products: %d   Orders: %d   Pending: %d\n", v.TotalProducts, v.TotalOrders, v.PendingOrders)

			printf(out, "\n%s\n%s\n", Title.Render("My Products"), rule())
			if len(v.Products) == 0 {
				printf(out, "No products yet. Add one with: agromart farmer add\n")
			}
			for _, p := range v.Products {
				printf(out, "%-36s  %-24s %14s/%-5s  %s %s left\n",
					p.ID, utils.Truncate(p.Name, 24), utils.FormatCurrency(p.Price), p.Unit, p.Quantity.String(), p.Unit)
			}

			printf(out, "\n%s\n%s\n", Title.Render("Orders Received"), rule())
			if len(v.Orders) == 0 {
				printf(out, "No orders yet.\n")
			}
			for _, o := range v.Orders {
				printOrder(cmd, o, models.RoleFarmer)
				if act, ok := dashboard.NextAction(o.Status); ok {
					printf(out, "  Next: %s (agromart farmer advance %s)\n", act.Label, o.ID)
				}
			}
			return nil
		},
	}
	cmd.AddCommand(
		r.productAddCmd(), r.productEditCmd(), r.productDeleteCmd(),
		r.orderAdvanceCmd(), r.orderCancelCmd(),
	)
	return cmd
}

// productFlags binds the product form to flags.
type productFlags struct {
	name, description, category, unit, location, image string
	price, quantity                                    string
}

func (pf *productFlags) register(f *pflag.FlagSet) {
	f.StringVar(&pf.name, "name", "", "product name")
	f.StringVar(&pf.description, "description", "", "description")
	f.StringVar(&pf.category, "category", "", "one of "+strings.Join(models.Categories, ", "))
	f.StringVar(&pf.price, "price", "", "price per unit in rupees")
	f.StringVar(&pf.quantity, "quantity", "", "quantity available")
	f.StringVar(&pf.unit, "unit", "kg", "one of "+strings.Join(models.Units, ", "))
	f.StringVar(&pf.location, "location", "", "where the produce is")
	f.StringVar(&pf.image, "image", "", "image URL")
}

// apply copies the flags that were set (or all of them when all is true)
// onto in.
func (pf *productFlags) apply(f *pflag.FlagSet, in *models.ProductInput, all bool) error {
	set := func(name string) bool { return all || f.Changed(name) }
	if set("name") {
		in.Name = pf.name
	}
	if set("description") {
		in.Description = pf.description
	}
	if set("category") {
		in.Category = pf.category
	}
	if set("unit") {
		in.Unit = pf.unit
	}
	if set("location") {
		in.Location = pf.location
	}
	if set("image") {
		in.ImageURL = pf.image
	}
	if set("price") {
		d, err := decimal.NewFromString(pf.price)
		if err != nil {
			return &gateway.ValidationError{Field: "price", Detail: "price must be a number"}
		}
		in.Price = d
	}
	if set("quantity") {
		d, err := decimal.NewFromString(pf.quantity)
		if err != nil {
			return &gateway.ValidationError{Field: "quantity", Detail: "quantity must be a number"}
		}
		in.Quantity = d
	}
	return nil
}

func (r *runner) productAddCmd() *cobra.Command {
	var pf productFlags
	cmd := &cobra.Command{
		Use:   "add",
		Short: "List a new product",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := r.App(cmd)
			if err != nil {
				return err
			}
			var in models.ProductInput
			if err := pf.apply(cmd.Flags(), &in, true); err != nil {
				return err
			}
			p, err := a.Dashboard.CreateProduct(cmd.Context(), in)
			if err != nil {
				return err
			}
			printf(cmd.OutOrStdout(), "%s\n", Success.Render("Product added successfully!"))
			printProduct(cmd, p)
			return nil
		},
	}
	pf.register(cmd.Flags())
	return cmd
}

func (r *runner) productEditCmd() *cobra.Command {
	var pf productFlags
	cmd := &cobra.Command{
		Use:   "edit <product-id>",
		Short: "Change a product; only the given flags are updated",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := r.App(cmd)
			if err != nil {
				return err
			}
			current, err := a.API.GetProduct(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			in := models.FromProduct(*current)
			if err := pf.apply(cmd.Flags(), &in, false); err != nil {
				return err
			}
			p, err := a.Dashboard.UpdateProduct(cmd.Context(), args[0], in)
			if err != nil {
				return err
			}
			printf(cmd.OutOrStdout(), "%s\n", Success.Render("Product updated successfully!"))
			printProduct(cmd, p)
			return nil
		},
	}
	pf.register(cmd.Flags())
	return cmd
}

func (r *runner) productDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <product-id>",
		Short: "Remove a product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := r.App(cmd)
			if err != nil {
				return err
			}
			if err := a.Dashboard.DeleteProduct(cmd.Context(), args[0]); err != nil {
				return err
			}
			printf(cmd.OutOrStdout(), "%s\n", Success.Render("Product deleted successfully!"))
			return nil
		},
	}
}

// findOrder looks the order up among those the farmer received.
func (r *runner) findOrder(cmd *cobra.Command, id string) (*dashboard.Dashboard, *models.Order, error) {
	a, err := r.App(cmd)
	if err != nil {
		return nil, nil, err
	}
	v, err := a.Dashboard.FarmerOverview(cmd.Context())
	if err != nil {
		return nil, nil, err
	}
	for i := range v.Orders {
		if v.Orders[i].ID == id {
			return a.Dashboard, &v.Orders[i], nil
		}
	}
	return nil, nil, &gateway.NotFoundError{Detail: "Order not found"}
}

func (r *runner) orderAdvanceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "advance <order-id>",
		Short: "Confirm a pending order or deliver a confirmed one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, o, err := r.findOrder(cmd, args[0])
			if err != nil {
				return err
			}
			next, err := d.AdvanceOrder(cmd.Context(), *o)
			if err != nil {
				return err
			}
			printf(cmd.OutOrStdout(), "Order status updated! %s is now %s\n", o.ID, Badge(next))
			return nil
		},
	}
}

func (r *runner) orderCancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <order-id>",
		Short: "Cancel a pending or confirmed order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, o, err := r.findOrder(cmd, args[0])
			if err != nil {
				return err
			}
			if err := d.CancelOrder(cmd.Context(), *o); err != nil {
				return err
			}
			printf(cmd.OutOrStdout(), "Order %s is now %s\n", o.ID, Badge(models.StatusCancelled))
			return nil
		},
	}
}
