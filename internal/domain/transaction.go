package domain

import "github.com/shopspring/decimal"

// Status of a transaction as reported by the backend.
type Status string

const (
	StatusSuccess Status = "SUCCESS"
	StatusPending Status = "PENDING"
	StatusFailed  Status = "FAILED"
	// StatusAll is the wildcard used by filters, never a transaction status.
	StatusAll Status = "ALL"
)

// Statuses lists transaction statuses in display order.
var Statuses = []Status{StatusSuccess, StatusPending, StatusFailed}

// String returns the string representation.
func (s Status) String() string {
	return string(s)
}

// IsValid checks if the status is one a transaction can carry.
func (s Status) IsValid() bool {
	return s == StatusSuccess || s == StatusPending || s == StatusFailed
}

// Transaction is immutable once fetched; the client only ever replaces the whole list.
type Transaction struct {
	ID        string          `json:"id"`
	Sender    string          `json:"sender"`
	Recipient string          `json:"recipient"`
	Amount    decimal.Decimal `json:"amount"`
	Fee       decimal.Decimal `json:"fee"`
	Status    Status          `json:"status"`
	Timestamp string          `json:"timestamp"`
}

// Total returns amount plus fee.
func (t Transaction) Total() decimal.Decimal {
	return t.Amount.Add(t.Fee)
}

// Transfer is a validated send-money payload.
type Transfer struct {
	Sender    string          `json:"sender"`
	Recipient string          `json:"recipient"`
	Amount    decimal.Decimal `json:"amount"`
}
