package view

import (
	"bytes"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadiminshakov/paydash/internal/domain"
	"github.com/vadiminshakov/paydash/internal/services/filter"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestUsers(t *testing.T) {
	users := []domain.User{
		{Name: "Alice", Address: "0x1234567890abcdef", Balance: d("12"), Type: "Premium"},
		{Name: "Bob", Address: "0xabc", Balance: d("0.5"), Type: "Regular"},
	}

	v := Users(users)
	require.Len(t, v.Cards, 2)
	assert.Equal(t, UserCard{Name: "Alice", Balance: "$12.00 USDT", Address: "0x1234567890abcdef", Badge: "Premium User"}, v.Cards[0])

	assert.Equal(t, Option{Value: "0x1234567890abcdef", Label: "Alice ($12.00)"}, v.SenderOptions[0])
	assert.Equal(t, Option{Value: "0x1234567890abcdef", Label: "Alice (0x12345678...)"}, v.RecipientOptions[0])
	assert.Equal(t, Option{Value: "0xabc", Label: "Bob (0xabc)"}, v.RecipientOptions[1])
	assert.Equal(t, v.RecipientOptions, v.WalletOptions)
}

func TestTransactions(t *testing.T) {
	txs := []domain.Transaction{
		{ID: "T1", Sender: "A", Recipient: "B", Amount: d("10"), Fee: d("0.1"), Status: domain.StatusPending, Timestamp: "now"},
	}
	fv := filter.View{SnapshotSeq: 7, Transactions: txs, Stats: filter.Summarize(txs)}

	v := Transactions(fv, func(id string) string { return "http://x/receipt?id=" + id })
	assert.Equal(t, uint64(7), v.SnapshotSeq)
	assert.False(t, v.Empty)
	require.Len(t, v.Items, 1)
	assert.Equal(t, TransactionItem{
		ID:          "T1",
		Route:       "A → B",
		Timestamp:   "now",
		Amount:      "$10.00 USDT",
		Fee:         "$0.10",
		Status:      "PENDING",
		StatusClass: "pending",
		ReceiptURL:  "http://x/receipt?id=T1",
	}, v.Items[0])
	assert.Equal(t, StatsView{TotalTransactions: "1", TotalVolume: "$10.00", AverageAmount: "$10.00", TotalFees: "$0.10"}, v.Stats)
}

func TestTransactions_EmptyPlaceholder(t *testing.T) {
	v := Transactions(filter.View{Stats: filter.Summarize(nil)}, nil)
	assert.True(t, v.Empty)
	assert.Equal(t, NoTransactionsPlaceholder, v.Placeholder)
	assert.Empty(t, v.Items)
	assert.Equal(t, "0", v.Stats.TotalTransactions)
	assert.Equal(t, "$0.00", v.Stats.AverageAmount)
}

func TestRates(t *testing.T) {
	rates := domain.Rates{
		"GBP": {Rate: d("0.79"), Recommendation: "WAIT", Savings: d("-0.456")},
		"EUR": {Rate: d("0.92123"), Recommendation: "BUY", Savings: d("1.2")},
		"KES": {Rate: d("129"), Recommendation: "HOLD", Savings: decimal.Zero},
	}

	cards := Rates(rates)
	require.Len(t, cards, 3)
	assert.Equal(t, RateCard{Currency: "EUR", Rate: "0.9212", Recommendation: "BUY", Savings: "+1.20", SavingsClass: "positive"}, cards[0])
	assert.Equal(t, RateCard{Currency: "GBP", Rate: "0.7900", Recommendation: "WAIT", Savings: "-0.46", SavingsClass: "negative"}, cards[1])
	assert.Equal(t, "+0.00", cards[2].Savings)
	assert.Equal(t, "positive", cards[2].SavingsClass)
}

func TestVaults(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		v := Vaults(nil)
		assert.True(t, v.Empty)
		assert.Equal(t, NoVaultsPlaceholder, v.Placeholder)
	})

	t.Run("cards", func(t *testing.T) {
		v := Vaults([]domain.Vault{{
			ID: "V1", Name: "School", Purpose: "Fees", Total: d("1000"), Remaining: d("750"),
			Released: d("250"), Progress: d("25"), Guardians: 3, Pending: 2, Created: "2024-01-01", Status: "ACTIVE",
		}})
		require.Len(t, v.Cards, 1)
		c := v.Cards[0]
		assert.Equal(t, "25.0%", c.Progress)
		assert.Equal(t, "$750.00", c.Remaining)
		assert.Equal(t, "$1000.00", c.Total)
		assert.Equal(t, "3 Guardians", c.Guardians)
		assert.Equal(t, "2 Pending Requests", c.PendingBadge)
	})
}

func TestPendingBadge(t *testing.T) {
	assert.Equal(t, "", PendingBadge(0))
	assert.Equal(t, "1 Pending Request", PendingBadge(1))
	assert.Equal(t, "4 Pending Requests", PendingBadge(4))
}

func TestConversion(t *testing.T) {
	v := Conversion(domain.Conversion{Amount: d("100"), Converted: d("92.5"), Currency: "EUR", Rate: d("0.925")})
	assert.Equal(t, "$100.00 USDT = 92.50 EUR", v.Summary)
	assert.Equal(t, "Rate: 1 USDT = 0.9250 EUR", v.Rate)
}

func TestRegistration(t *testing.T) {
	submitted := domain.Registration{Name: "Carol", Type: "Business", Balance: d("50")}

	v := Registration(domain.RegistrationResult{Address: "0xC"}, submitted)
	assert.Equal(t, RegistrationView{Name: "Carol", Type: "Business User", Address: "0xC", InitialBalance: "$50.00 USDT"}, v)

	v = Registration(domain.RegistrationResult{Name: "Carol Ltd", Address: "0xC"}, submitted)
	assert.Equal(t, "Carol Ltd", v.Name)
}

func TestMoney(t *testing.T) {
	assert.Equal(t, "$0.00", Money(decimal.Zero))
	assert.Equal(t, "$1.01", Money(d("1.005")))
	assert.Equal(t, "-$3.50", Money(d("-3.5")))
}

func TestTables(t *testing.T) {
	var buf bytes.Buffer

	WriteUsersTable(&buf, Users([]domain.User{{Name: "Alice", Address: "0xA", Balance: d("1"), Type: "Regular"}}))
	assert.Contains(t, buf.String(), "Alice")

	buf.Reset()
	WriteTransactionsTable(&buf, Transactions(filter.View{Stats: filter.Summarize(nil)}, nil))
	assert.Contains(t, buf.String(), NoTransactionsPlaceholder)

	buf.Reset()
	WriteRatesTable(&buf, Rates(domain.Rates{"EUR": {Rate: d("0.9"), Recommendation: "BUY"}}))
	assert.Contains(t, buf.String(), "0.9000")

	buf.Reset()
	WriteVaultsTable(&buf, Vaults(nil))
	assert.Contains(t, buf.String(), NoVaultsPlaceholder)
}
