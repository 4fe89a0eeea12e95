package domain

import "github.com/shopspring/decimal"

// Rate of one USDT expressed in a target currency.
type Rate struct {
	Rate           decimal.Decimal `json:"rate"`
	Recommendation string          `json:"recommendation"`
	// Savings is the delta against the 7-day average for a 100 USDT conversion.
	Savings decimal.Decimal `json:"savings"`
}

// Rates keyed by currency code. Replaced wholesale on every fetch.
type Rates map[string]Rate

// Conversion result of the convert endpoint.
type Conversion struct {
	Amount    decimal.Decimal `json:"amount"`
	Converted decimal.Decimal `json:"converted"`
	Currency  string          `json:"currency"`
	Rate      decimal.Decimal `json:"rate"`
}
