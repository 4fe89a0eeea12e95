// Package domain defines core data structures used throughout the payments dashboard.
package domain

import "github.com/shopspring/decimal"

// User wallet as reported by the backend. Balances change only on the backend side.
type User struct {
	Name    string          `json:"name"`
	Address string          `json:"address"`
	Balance decimal.Decimal `json:"balance"`
	Type    string          `json:"type"`
}

// ShortAddress returns the first n characters of the address followed by an ellipsis.
func (u User) ShortAddress(n int) string {
	if len(u.Address) <= n {
		return u.Address
	}
	return u.Address[:n] + "..."
}

// Registration is a validated user registration payload.
type Registration struct {
	Name    string          `json:"name"`
	Type    string          `json:"type"`
	Balance decimal.Decimal `json:"balance"`
}

// RegistrationResult is what the backend returns for a successful registration.
type RegistrationResult struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Message string `json:"message,omitempty"`
}
