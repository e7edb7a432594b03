package globals

import "github.com/shopspring/decimal"

// Marketplace-wide defaults. Config may override the surcharge and currency.
var (
	CODSurcharge    = decimal.NewFromInt(40)
	DefaultCurrency = "INR"
	MerchantName    = "Agriculture Market"
)

// Context keys
type ContextKey string

const RequestIDKey ContextKey = "requestId"
const AuthRequiredKey ContextKey = "authRequired"

// Storage key prefixes
const (
	SessionKey = "session"
	CartPrefix = "cart:"
)
