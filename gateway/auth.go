package gateway

import (
	"context"
	"net/http"
	"strings"

	"agromart/models"
)

// Login exchanges credentials for a bearer credential and identity.
func (c *Client) Login(ctx context.Context, email, password string) (*models.AuthResponse, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		return nil, &ValidationError{Field: "email", Detail: "Email and password are required"}
	}
	var out models.AuthResponse
	err := c.do(ctx, call{
		method:   http.MethodPost,
		route:    "/auth/login",
		path:     "/auth/login",
		body:     models.Credentials{Email: strings.TrimSpace(email), Password: password},
		out:      &out,
		authCall: true,
		fallback: "Login failed",
	})
	if err != nil {
		return nil, err
	}
	return &out, checkAuthResponse(&out)
}

// Register creates an account and logs it in.
func (c *Client) Register(ctx context.Context, p models.Profile) (*models.AuthResponse, error) {
	if err := p.Validate(); err != nil {
		return nil, Invalid(err)
	}
	p.Email = strings.TrimSpace(p.Email)
	var out models.AuthResponse
	err := c.do(ctx, call{
		method:   http.MethodPost,
		route:    "/auth/register",
		path:     "/auth/register",
		body:     p,
		out:      &out,
		authCall: true,
		fallback: "Registration failed",
	})
	if err != nil {
		return nil, err
	}
	return &out, checkAuthResponse(&out)
}

// Me re-reads the identity behind the current credential.
func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var out models.User
	err := c.do(ctx, call{
		method:   http.MethodGet,
		route:    "/auth/me",
		path:     "/auth/me",
		out:      &out,
		auth:     true,
		fallback: "Session expired, please log in again",
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// checkAuthResponse refuses half sessions: a token without a user or the
// other way round.
func checkAuthResponse(r *models.AuthResponse) error {
	if r.AccessToken == "" || r.User.ID == "" {
		return &NetworkError{Detail: "unexpected response from server"}
	}
	return nil
}
