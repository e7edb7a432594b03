package models

import "github.com/shopspring/decimal"

func init() {
	// The marketplace API speaks JSON numbers, not quoted decimals.
	decimal.MarshalJSONWithoutQuotes = true
}
