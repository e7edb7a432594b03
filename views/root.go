// Package views is the command line front end: one command per page of
// the marketplace.
package views

import (
	"context"
	"errors"
	"fmt"
	"io"

	"agromart/app"
	"agromart/checkout"
	"agromart/dashboard"
	"agromart/gateway"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Opener builds the App once the command line has been parsed. v already
// carries the global flags bound over their config keys.
type Opener func(ctx context.Context, v *viper.Viper, configPath string) (*app.App, error)

type runner struct {
	open       Opener
	v          *viper.Viper
	configPath string
	app        *app.App
}

// NewRootCommand assembles the command tree.
func NewRootCommand(open Opener) *cobra.Command {
	r := &runner{open: open, v: viper.New()}
	root := &cobra.Command{
		Use:   "agromart",
		Short: "Browse and trade farm produce from the terminal",
		Long: `agromart connects farmers and buyers.

Buyers browse products, fill a cart and check out with cash on delivery
or an online payment. Farmers list produce and move incoming orders along.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	flags := root.PersistentFlags()
	flags.StringVarP(&r.configPath, "config", "c", "", "config file (default ./agromart.yaml or the user config dir)")
	flags.String("api", "", "marketplace backend URL")
	flags.String("log-level", "", "log level (debug, info, warn, error)")
	_ = r.v.BindPFlag("api.base_url", flags.Lookup("api"))
	_ = r.v.BindPFlag("log.level", flags.Lookup("log-level"))

	root.AddCommand(
		r.loginCmd(), r.registerCmd(), r.logoutCmd(), r.whoamiCmd(),
		r.productsCmd(), r.cartCmd(), r.checkoutCmd(), r.ordersCmd(),
		r.receiptCmd(), r.farmerCmd(), r.contactCmd(),
	)
	r.closeAfterRun(root)
	return root
}

// closeAfterRun wraps every command so the app is closed whether or not
// the command failed. Cobra skips post-run hooks after an error.
func (r *runner) closeAfterRun(cmd *cobra.Command) {
	if run := cmd.RunE; run != nil {
		cmd.RunE = func(cmd *cobra.Command, args []string) (err error) {
			defer func() {
				if cerr := r.close(cmd.Context()); err == nil {
					err = cerr
				}
			}()
			return run(cmd, args)
		}
	}
	for _, sub := range cmd.Commands() {
		r.closeAfterRun(sub)
	}
}

func (r *runner) close(ctx context.Context) error {
	if r.app == nil {
		return nil
	}
	err := r.app.Close(ctx)
	r.app = nil
	return err
}

// App opens the application on first use.
func (r *runner) App(cmd *cobra.Command) (*app.App, error) {
	if r.app != nil {
		return r.app, nil
	}
	a, err := r.open(cmd.Context(), r.v, r.configPath)
	if err != nil {
		return nil, err
	}
	r.app = a
	return a, nil
}

// ErrorLine is the single line shown for a failed command.
func ErrorLine(err error) string {
	var (
		ae *gateway.AuthError
		nf *gateway.NotFoundError
		ve *gateway.ValidationError
		ne *gateway.NetworkError
		pe *gateway.PaymentError
	)
	switch {
	case errors.Is(err, dashboard.ErrLoginRequired):
		return "Please log in to continue (agromart login)"
	case errors.Is(err, checkout.ErrAbandoned):
		return "Checkout was abandoned, please start again"
	case errors.As(err, &ae), errors.As(err, &nf), errors.As(err, &ve),
		errors.As(err, &ne), errors.As(err, &pe):
		return gateway.Message(err, "Something went wrong")
	}
	return err.Error()
}

func printf(w io.Writer, format string, a ...any) {
	fmt.Fprintf(w, format, a...)
}
