package filter

import (
	"sort"

	"github.com/shopspring/decimal"
	"github.com/vadiminshakov/paydash/internal/domain"
)

const (
	recentWindow    = 10
	topParticipants = 5
)

// Count is one labelled value of a chart series.
type Count struct {
	Label string `json:"label"`
	Value int    `json:"value"`
}

// Aggregates feed the analytics charts.
type Aggregates struct {
	// RecentAmounts holds the amounts of the first ten transactions, oldest first.
	RecentAmounts []decimal.Decimal `json:"recent_amounts"`
	ByStatus      []Count           `json:"by_status"`
	// ByBucket partitions amounts strictly: unlike the list filter, every
	// transaction lands in exactly one bucket.
	ByBucket      []Count `json:"by_bucket"`
	ByParticipant []Count `json:"by_participant"`
}

var (
	bucketLabels = []string{"$0-50", "$50-100", "$100-500", "$500+"}
	bucketBounds = []decimal.Decimal{decimal.NewFromInt(50), decimal.NewFromInt(100), decimal.NewFromInt(500)}
)

// Aggregate computes chart series for txs.
func Aggregate(txs []domain.Transaction) Aggregates {
	agg := Aggregates{
		RecentAmounts: recentAmounts(txs),
		ByStatus:      make([]Count, len(domain.Statuses)),
		ByBucket:      make([]Count, len(bucketLabels)),
	}

	for i, st := range domain.Statuses {
		agg.ByStatus[i].Label = st.String()
	}
	for i, label := range bucketLabels {
		agg.ByBucket[i].Label = label
	}

	participants := make(map[string]int)
	for _, tx := range txs {
		for i, st := range domain.Statuses {
			if tx.Status == st {
				agg.ByStatus[i].Value++
			}
		}

		if idx := bucketIndex(tx.Amount); idx >= 0 {
			agg.ByBucket[idx].Value++
		}

		participants[tx.Sender]++
		if tx.Recipient != tx.Sender {
			participants[tx.Recipient]++
		}
	}

	agg.ByParticipant = topCounts(participants, topParticipants)

	return agg
}

func recentAmounts(txs []domain.Transaction) []decimal.Decimal {
	n := len(txs)
	if n > recentWindow {
		n = recentWindow
	}

	amounts := make([]decimal.Decimal, n)
	for i := 0; i < n; i++ {
		amounts[n-1-i] = txs[i].Amount
	}
	return amounts
}

// bucketIndex returns -1 for negative amounts.
func bucketIndex(amount decimal.Decimal) int {
	if amount.IsNegative() {
		return -1
	}
	for i, bound := range bucketBounds {
		if amount.LessThanOrEqual(bound) {
			return i
		}
	}
	return len(bucketBounds)
}

func topCounts(counts map[string]int, limit int) []Count {
	out := make([]Count, 0, len(counts))
	for label, v := range counts {
		if label == "" {
			continue
		}
		out = append(out, Count{Label: label, Value: v})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Value != out[j].Value {
			return out[i].Value > out[j].Value
		}
		return out[i].Label < out[j].Label
	})

	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
