package views

import (
	"fmt"

	"agromart/dashboard"
	"agromart/models"

	"github.com/spf13/cobra"
)

// homeHint names the command for each landing page.
var homeHint = map[dashboard.Page]string{
	dashboard.PageBuyer:    "agromart orders",
	dashboard.PageFarmer:   "agromart farmer",
	dashboard.PageAdmin:    "agromart products",
	dashboard.PageProducts: "agromart products",
}

func (r *runner) loginCmd() *cobra.Command {
	var email, password string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := r.App(cmd)
			if err != nil {
				return err
			}
			u, err := a.Session.Login(cmd.Context(), email, password)
			if err != nil {
				return err
			}
			r.welcome(cmd, u)
			return nil
		},
	}
	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func (r *runner) welcome(cmd *cobra.Command, u *models.User) {
	out := cmd.OutOrStdout()
	printf(out, "%s\n", Success.Render(fmt.Sprintf("Welcome, %s!", u.Name)))
	printf(out, "Signed in as %s (%s). Next: %s\n", u.Email, u.Role, homeHint[dashboard.HomeFor(u.Role)])
}

func (r *runner) registerCmd() *cobra.Command {
	var p models.Profile
	var role string
	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a buyer or farmer account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := r.App(cmd)
			if err != nil {
				return err
			}
			p.Role = models.Role(role)
			u, err := a.Session.Register(cmd.Context(), p)
			if err != nil {
				return err
			}
			r.welcome(cmd, u)
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&p.Name, "name", "", "full name")
	f.StringVar(&p.Email, "email", "", "email")
	f.StringVar(&p.Password, "password", "", "password")
	f.StringVar(&role, "role", string(models.RoleBuyer), "buyer or farmer")
	f.StringVar(&p.Phone, "phone", "", "phone number")
	f.StringVar(&p.Location, "location", "", "village or city")
	return cmd
}

func (r *runner) logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and clear the cart",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := r.App(cmd)
			if err != nil {
				return err
			}
			a.Session.Logout(cmd.Context())
			printf(cmd.OutOrStdout(), "Signed out.\n")
			return nil
		},
	}
}

func (r *runner) whoamiCmd() *cobra.Command {
	var refresh bool
	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := r.App(cmd)
			if err != nil {
				return err
			}
			snap := a.Session.Current()
			if !snap.LoggedIn() {
				printf(cmd.OutOrStdout(), "Not signed in.\n")
				return nil
			}
			u := snap.User
			if refresh {
				if u, err = a.Session.Me(cmd.Context()); err != nil {
					return err
				}
			}
			out := cmd.OutOrStdout()
			printf(out, "%s <%s>\n", u.Name, u.Email)
			printf(out, "Role: %s\n", u.Role)
			if u.Location != "" {
				printf(out, "Location: %s\n", u.Location)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&refresh, "refresh", false, "re-read the account from the server")
	return cmd
}
