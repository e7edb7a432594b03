package models

import (
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	Categories = []string{"vegetables", "fruits", "grains", "dairy", "organic"}
	Units      = []string{"kg", "g", "liter", "piece", "dozen"}
)

// Product is a listing owned by a farmer. Quantity is the stock still
// available, in Unit.
type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	Quantity    decimal.Decimal `json:"quantity"`
	Unit        string          `json:"unit"`
	FarmerID    string          `json:"farmer_id"`
	FarmerName  string          `json:"farmer_name"`
	Location    string          `json:"location"`
	ImageURL    string          `json:"image_url,omitempty"`
	Available   bool            `json:"available"`
	CreatedAt   Timestamp       `json:"created_at"`
}

// ProductFilter narrows GET /api/products. Empty fields are not sent.
type ProductFilter struct {
	Category string
	Search   string
}

// ProductInput is the create/update payload of the farmer product form.
type ProductInput struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	Quantity    decimal.Decimal `json:"quantity"`
	Unit        string          `json:"unit"`
	Location    string          `json:"location"`
	ImageURL    string          `json:"image_url,omitempty"`
}

// FromProduct pre-fills the form for editing.
func FromProduct(p Product) ProductInput {
	return ProductInput{
		Name:        p.Name,
		Description: p.Description,
		Category:    p.Category,
		Price:       p.Price,
		Quantity:    p.Quantity,
		Unit:        p.Unit,
		Location:    p.Location,
		ImageURL:    p.ImageURL,
	}
}

func (in ProductInput) Validate() error {
	switch {
	case strings.TrimSpace(in.Name) == "":
		return FieldError("name")
	case strings.TrimSpace(in.Description) == "":
		return FieldError("description")
	case !slices.Contains(Categories, in.Category):
		return &InvalidFieldError{Field: "category", Reason: "must be one of " + strings.Join(Categories, ", ")}
	case !slices.Contains(Units, in.Unit):
		return &InvalidFieldError{Field: "unit", Reason: "must be one of " + strings.Join(Units, ", ")}
	case !in.Price.IsPositive():
		return &InvalidFieldError{Field: "price", Reason: "must be greater than zero"}
	case !in.Quantity.IsPositive():
		return &InvalidFieldError{Field: "quantity", Reason: "must be greater than zero"}
	case strings.TrimSpace(in.Location) == "":
		return FieldError("location")
	}
	return nil
}
