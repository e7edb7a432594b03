package gateway

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	"agromart/models"
)

// ListProducts returns available products, optionally filtered.
func (c *Client) ListProducts(ctx context.Context, f models.ProductFilter) ([]models.Product, error) {
	q := url.Values{}
	if f.Category != "" && f.Category != "all" {
		q.Set("category", f.Category)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		q.Set("search", s)
	}
	var out []models.Product
	err := c.do(ctx, call{
		method:   http.MethodGet,
		route:    "/products",
		path:     "/products",
		query:    q,
		out:      &out,
		fallback: "Failed to load products",
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []models.Product{}
	}
	return out, nil
}

// GetProduct returns one product or a NotFoundError.
func (c *Client) GetProduct(ctx context.Context, id string) (*models.Product, error) {
	if strings.TrimSpace(id) == "" {
		return nil, &NotFoundError{Detail: "Product not found"}
	}
	var out models.Product
	err := c.do(ctx, call{
		method:   http.MethodGet,
		route:    "/products/{id}",
		path:     "/products/" + url.PathEscape(id),
		out:      &out,
		fallback: "Product not found",
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateProduct(ctx context.Context, in models.ProductInput) (*models.Product, error) {
	if err := in.Validate(); err != nil {
		return nil, Invalid(err)
	}
	var out models.Product
	err := c.do(ctx, call{
		method:   http.MethodPost,
		route:    "/products",
		path:     "/products",
		body:     in,
		out:      &out,
		auth:     true,
		fallback: "Failed to save product",
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateProduct(ctx context.Context, id string, in models.ProductInput) (*models.Product, error) {
	if err := in.Validate(); err != nil {
		return nil, Invalid(err)
	}
	var out models.Product
	err := c.do(ctx, call{
		method:   http.MethodPut,
		route:    "/products/{id}",
		path:     "/products/" + url.PathEscape(id),
		body:     in,
		out:      &out,
		auth:     true,
		fallback: "Failed to save product",
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteProduct(ctx context.Context, id string) error {
	return c.do(ctx, call{
		method:   http.MethodDelete,
		route:    "/products/{id}",
		path:     "/products/" + url.PathEscape(id),
		out:      &models.Message{},
		auth:     true,
		fallback: "Failed to delete product",
	})
}

// FarmerProducts lists the caller's own listings.
func (c *Client) FarmerProducts(ctx context.Context) ([]models.Product, error) {
	var out []models.Product
	err := c.do(ctx, call{
		method:   http.MethodGet,
		route:    "/farmer/products",
		path:     "/farmer/products",
		out:      &out,
		auth:     true,
		fallback: "Failed to load products",
	})
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []models.Product{}
	}
	return out, nil
}
