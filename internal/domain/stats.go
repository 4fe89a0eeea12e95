package domain

import "github.com/shopspring/decimal"

// Stats summarises a sequence of transactions.
type Stats struct {
	Count         int             `json:"count"`
	TotalVolume   decimal.Decimal `json:"total_volume"`
	TotalFees     decimal.Decimal `json:"total_fees"`
	AverageAmount decimal.Decimal `json:"average_amount"`
}
