package views

import (
	"fmt"
	"strings"

	"agromart/models"
	"agromart/utils"

	"github.com/spf13/cobra"
)

func (r *runner) productsCmd() *cobra.Command {
	var filter models.ProductFilter
	cmd := &cobra.Command{
		Use:   "products",
		Short: "Browse available products",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := r.App(cmd)
			if err != nil {
				return err
			}
			products, err := a.API.ListProducts(cmd.Context(), filter)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(products) == 0 {
				printf(out, "No products found.\n")
				return nil
			}
			for _, p := range products {
				printf(out, "%-36s  %-24s %14s/%-5s  %s, %s\n",
					p.ID, utils.Truncate(p.Name, 24), utils.FormatCurrency(p.Price), p.Unit, p.FarmerName, p.Location)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&filter.Category, "category", "", "one of "+strings.Join(models.Categories, ", "))
	cmd.Flags().StringVarP(&filter.Search, "search", "s", "", "search name and description")
	cmd.AddCommand(r.productShowCmd())
	return cmd
}

func (r *runner) productShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <product-id>",
		Short: "Show one product",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := r.App(cmd)
			if err != nil {
				return err
			}
			p, err := a.API.GetProduct(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printProduct(cmd, p)
			return nil
		},
	}
}

func printProduct(cmd *cobra.Command, p *models.Product) {
	out := cmd.OutOrStdout()
	printf(out, "%s\n", Title.Render(p.Name))
	printf(out, "%s\n", p.Description)
	printf(out, "%s\n", rule())
	printf(out, "Price:     %s per %s\n", utils.FormatCurrency(p.Price), p.Unit)
	printf(out, "Available: %s %s\n", p.Quantity.String(), p.Unit)
	printf(out, "Category:  %s\n", p.Category)
	printf(out, "Farmer:    %s\n", p.FarmerName)
	printf(out, "Location:  %s\n", p.Location)
	printf(out, "%s\n", Muted.Render(fmt.Sprintf("id %s", p.ID)))
}
