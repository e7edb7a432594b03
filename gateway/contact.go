package gateway

import (
	"context"
	"net/http"

	"agromart/models"
)

// SubmitContact sends a message to the marketplace team.
func (c *Client) SubmitContact(ctx context.Context, msg models.ContactMessage) error {
	if err := msg.Validate(); err != nil {
		return Invalid(err)
	}
	return c.do(ctx, call{
		method:   http.MethodPost,
		route:    "/contact",
		path:     "/contact",
		body:     msg,
		fallback: "Failed to send message",
	})
}
