// Package view projects dashboard data into display-ready view models.
// Every function is pure: it returns a complete replacement for the previous model.
package view

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vadiminshakov/paydash/internal/domain"
	"github.com/vadiminshakov/paydash/internal/services/filter"
)

const (
	// NoTransactionsPlaceholder is shown when the filtered list is empty.
	NoTransactionsPlaceholder = "No transactions found"
	// NoVaultsPlaceholder is shown when the backend has no vaults.
	NoVaultsPlaceholder = "No vaults created yet. Create your first vault above!"

	addressPreview = 10
)

// Option is one entry of a wallet selector.
type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// UserCard shows one wallet.
type UserCard struct {
	Name    string `json:"name"`
	Balance string `json:"balance"`
	Address string `json:"address"`
	Badge   string `json:"badge"`
}

// UsersView is the users panel plus the selectors that depend on the user list.
type UsersView struct {
	Cards            []UserCard `json:"cards"`
	SenderOptions    []Option   `json:"sender_options"`
	RecipientOptions []Option   `json:"recipient_options"`
	WalletOptions    []Option   `json:"wallet_options"`
}

// Users renders user cards and the sender, recipient and wallet selectors.
func Users(users []domain.User) UsersView {
	v := UsersView{
		Cards:            make([]UserCard, 0, len(users)),
		SenderOptions:    make([]Option, 0, len(users)),
		RecipientOptions: make([]Option, 0, len(users)),
	}

	for _, u := range users {
		v.Cards = append(v.Cards, UserCard{
			Name:    u.Name,
			Balance: Money(u.Balance) + " USDT",
			Address: u.Address,
			Badge:   u.Type + " User",
		})
		v.SenderOptions = append(v.SenderOptions, Option{
			Value: u.Address,
			Label: fmt.Sprintf("%s (%s)", u.Name, Money(u.Balance)),
		})
	}
	v.RecipientOptions = WalletOptions(users)
	v.WalletOptions = WalletOptions(users)

	return v
}

// WalletOptions renders "Name (0x12345678...)" entries for recipient, creator and guardian selectors.
func WalletOptions(users []domain.User) []Option {
	opts := make([]Option, 0, len(users))
	for _, u := range users {
		opts = append(opts, Option{
			Value: u.Address,
			Label: fmt.Sprintf("%s (%s)", u.Name, u.ShortAddress(addressPreview)),
		})
	}
	return opts
}

// TransactionItem is one row of the transaction history.
type TransactionItem struct {
	ID          string `json:"id"`
	Route       string `json:"route"`
	Timestamp   string `json:"timestamp"`
	Amount      string `json:"amount"`
	Fee         string `json:"fee"`
	Status      string `json:"status"`
	StatusClass string `json:"status_class"`
	ReceiptURL  string `json:"receipt_url"`
}

// StatsView is the formatted statistics panel.
type StatsView struct {
	TotalTransactions string `json:"total_transactions"`
	TotalVolume       string `json:"total_volume"`
	AverageAmount     string `json:"average_amount"`
	TotalFees         string `json:"total_fees"`
}

// TransactionsView is the history panel. Items and Stats always come from the same snapshot.
type TransactionsView struct {
	SnapshotSeq uint64                `json:"snapshot_seq"`
	Criteria    domain.FilterCriteria `json:"criteria"`
	Items       []TransactionItem     `json:"items"`
	Empty       bool                  `json:"empty"`
	Placeholder string                `json:"placeholder,omitempty"`
	Stats       StatsView             `json:"stats"`
}

// Transactions renders a filtered view. receiptURL builds the receipt link for a transaction id.
func Transactions(fv filter.View, receiptURL func(id string) string) TransactionsView {
	v := TransactionsView{
		SnapshotSeq: fv.SnapshotSeq,
		Criteria:    fv.Criteria,
		Items:       make([]TransactionItem, 0, len(fv.Transactions)),
		Stats:       Stats(fv.Stats),
	}

	if len(fv.Transactions) == 0 {
		v.Empty = true
		v.Placeholder = NoTransactionsPlaceholder
		return v
	}

	for _, tx := range fv.Transactions {
		item := TransactionItem{
			ID:          tx.ID,
			Route:       tx.Sender + " → " + tx.Recipient,
			Timestamp:   tx.Timestamp,
			Amount:      Money(tx.Amount) + " USDT",
			Fee:         Money(tx.Fee),
			Status:      tx.Status.String(),
			StatusClass: strings.ToLower(tx.Status.String()),
		}
		if receiptURL != nil {
			item.ReceiptURL = receiptURL(tx.ID)
		}
		v.Items = append(v.Items, item)
	}

	return v
}

// Stats formats statistics for display.
func Stats(s domain.Stats) StatsView {
	return StatsView{
		TotalTransactions: fmt.Sprintf("%d", s.Count),
		TotalVolume:       Money(s.TotalVolume),
		AverageAmount:     Money(s.AverageAmount),
		TotalFees:         Money(s.TotalFees),
	}
}

// RateCard shows one currency rate.
type RateCard struct {
	Currency       string `json:"currency"`
	Rate           string `json:"rate"`
	Recommendation string `json:"recommendation"`
	Savings        string `json:"savings"`
	SavingsClass   string `json:"savings_class"`
}

// Rates renders rate cards ordered by currency code.
func Rates(rates domain.Rates) []RateCard {
	currencies := make([]string, 0, len(rates))
	for c := range rates {
		currencies = append(currencies, c)
	}
	sort.Strings(currencies)

	cards := make([]RateCard, 0, len(currencies))
	for _, c := range currencies {
		r := rates[c]
		card := RateCard{
			Currency:       c,
			Rate:           r.Rate.StringFixed(4),
			Recommendation: r.Recommendation,
			Savings:        r.Savings.StringFixed(2),
			SavingsClass:   "negative",
		}
		if !r.Savings.IsNegative() {
			card.Savings = "+" + card.Savings
			card.SavingsClass = "positive"
		}
		cards = append(cards, card)
	}

	return cards
}

// VaultCard shows one vault.
type VaultCard struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Status       string `json:"status"`
	Purpose      string `json:"purpose"`
	Progress     string `json:"progress"`
	Remaining    string `json:"remaining"`
	Total        string `json:"total"`
	Released     string `json:"released"`
	Guardians    string `json:"guardians"`
	Created      string `json:"created"`
	PendingBadge string `json:"pending_badge,omitempty"`
}

// VaultsView is the vaults grid.
type VaultsView struct {
	Cards       []VaultCard `json:"cards"`
	Empty       bool        `json:"empty"`
	Placeholder string      `json:"placeholder,omitempty"`
}

// Vaults renders vault cards. Progress is shown as the backend computed it.
func Vaults(vaults []domain.Vault) VaultsView {
	v := VaultsView{Cards: make([]VaultCard, 0, len(vaults))}
	if len(vaults) == 0 {
		v.Empty = true
		v.Placeholder = NoVaultsPlaceholder
		return v
	}

	for _, vault := range vaults {
		v.Cards = append(v.Cards, VaultCard{
			ID:           vault.ID,
			Name:         vault.Name,
			Status:       vault.Status,
			Purpose:      vault.Purpose,
			Progress:     vault.Progress.StringFixed(1) + "%",
			Remaining:    Money(vault.Remaining),
			Total:        Money(vault.Total),
			Released:     Money(vault.Released),
			Guardians:    fmt.Sprintf("%d Guardians", vault.Guardians),
			Created:      vault.Created,
			PendingBadge: PendingBadge(vault.Pending),
		})
	}

	return v
}

// PendingBadge returns "N Pending Request(s)", or an empty string when nothing is pending.
func PendingBadge(pending int) string {
	switch {
	case pending <= 0:
		return ""
	case pending == 1:
		return "1 Pending Request"
	default:
		return fmt.Sprintf("%d Pending Requests", pending)
	}
}

// ConversionView is the converter result line.
type ConversionView struct {
	Summary string `json:"summary"`
	Rate    string `json:"rate"`
}

// Conversion renders a conversion result.
func Conversion(c domain.Conversion) ConversionView {
	return ConversionView{
		Summary: fmt.Sprintf("%s USDT = %s %s", Money(c.Amount), c.Converted.StringFixed(2), c.Currency),
		Rate:    fmt.Sprintf("Rate: 1 USDT = %s %s", c.Rate.StringFixed(4), c.Currency),
	}
}

// RegistrationView confirms a new wallet.
type RegistrationView struct {
	Name           string `json:"name"`
	Type           string `json:"type"`
	Address        string `json:"address"`
	InitialBalance string `json:"initial_balance"`
}

// Registration renders the new-user panel. The backend name wins over the submitted one.
func Registration(res domain.RegistrationResult, submitted domain.Registration) RegistrationView {
	name := res.Name
	if name == "" {
		name = submitted.Name
	}

	return RegistrationView{
		Name:           name,
		Type:           submitted.Type + " User",
		Address:        res.Address,
		InitialBalance: Money(submitted.Balance) + " USDT",
	}
}

// Money formats an amount as "$12.34".
func Money(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-$" + d.Neg().StringFixed(2)
	}
	return "$" + d.StringFixed(2)
}
