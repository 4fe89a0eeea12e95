// Package filter derives the displayed transaction list and its statistics
// from a store snapshot and the current filter criteria.
package filter

import (
	"strings"

	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/paydash/internal/domain"
	"github.com/vadiminshakov/paydash/internal/storage/txstore"
)

// View is a filtered list and its stats. Both always come from the same snapshot.
type View struct {
	SnapshotSeq  uint64                `json:"snapshot_seq"`
	Criteria     domain.FilterCriteria `json:"criteria"`
	Transactions []domain.Transaction  `json:"transactions"`
	Stats        domain.Stats          `json:"stats"`
	// StoreSize is the length of the unfiltered snapshot.
	StoreSize int `json:"store_size"`
	// Aggregates cover the whole snapshot the view was built from, not just the filtered list.
	Aggregates Aggregates `json:"aggregates"`
}

// Build filters snap with c and summarises the result.
func Build(snap *txstore.Snapshot, c domain.FilterCriteria) View {
	var (
		seq uint64
		txs []domain.Transaction
	)
	if snap != nil {
		seq = snap.Seq
		txs = snap.Transactions
	}

	filtered := Apply(txs, c)

	return View{
		SnapshotSeq:  seq,
		Criteria:     c.Normalize(),
		Transactions: filtered,
		Stats:        Summarize(filtered),
		StoreSize:    len(txs),
		Aggregates:   Aggregate(txs),
	}
}

// Apply returns the transactions matching every active criterion, in their original order.
// With no active criteria the input is returned as is.
func Apply(txs []domain.Transaction, c domain.FilterCriteria) []domain.Transaction {
	if !c.IsActive() {
		return txs
	}

	c = c.Normalize()
	c.Search = strings.ToLower(c.Search)

	filtered := make([]domain.Transaction, 0, len(txs))
	for _, tx := range txs {
		if match(tx, c) {
			filtered = append(filtered, tx)
		}
	}

	return filtered
}

// Match reports whether tx satisfies c.
func Match(tx domain.Transaction, c domain.FilterCriteria) bool {
	c = c.Normalize()
	c.Search = strings.ToLower(c.Search)
	return match(tx, c)
}

// match expects normalized criteria with a lower-cased search term.
func match(tx domain.Transaction, c domain.FilterCriteria) bool {
	if c.Search != "" &&
		!strings.Contains(strings.ToLower(tx.ID), c.Search) &&
		!strings.Contains(strings.ToLower(tx.Sender), c.Search) &&
		!strings.Contains(strings.ToLower(tx.Recipient), c.Search) {
		return false
	}

	if c.Status != domain.StatusAll && tx.Status != c.Status {
		return false
	}

	if !c.Amount.Contains(tx.Amount) {
		return false
	}

	// user filter is a case-sensitive substring match, not equality
	if c.User != domain.FilterAll &&
		!strings.Contains(tx.Sender, c.User) && !strings.Contains(tx.Recipient, c.User) {
		return false
	}

	return true
}

// Summarize computes count, volume, fees and average amount. Average is zero for no transactions.
func Summarize(txs []domain.Transaction) domain.Stats {
	stats := domain.Stats{
		Count:         len(txs),
		TotalVolume:   decimal.Zero,
		TotalFees:     decimal.Zero,
		AverageAmount: decimal.Zero,
	}

	for _, tx := range txs {
		stats.TotalVolume = stats.TotalVolume.Add(tx.Amount)
		stats.TotalFees = stats.TotalFees.Add(tx.Fee)
	}

	if stats.Count > 0 {
		stats.AverageAmount = stats.TotalVolume.Div(decimal.NewFromInt(int64(stats.Count)))
	}

	return stats
}
