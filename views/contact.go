package views

import (
	"agromart/models"

	"github.com/spf13/cobra"
)

func (r *runner) contactCmd() *cobra.Command {
	var msg models.ContactMessage
	cmd := &cobra.Command{
		Use:   "contact",
		Short: "Send a message to the marketplace team",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := r.App(cmd)
			if err != nil {
				return err
			}
			if err := a.API.SubmitContact(cmd.Context(), msg); err != nil {
				return err
			}
			printf(cmd.OutOrStdout(), "%s\n", Success.Render("Message sent! We will get back to you soon."))
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&msg.Name, "name", "", "your name")
	f.StringVar(&msg.Email, "email", "", "your email")
	f.StringVar(&msg.Phone, "phone", "", "phone number")
	f.StringVar(&msg.Subject, "subject", "", "subject")
	f.StringVar(&msg.Message, "message", "", "message")
	return cmd
}
