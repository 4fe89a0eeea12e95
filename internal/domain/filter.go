package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// FilterAll is the wildcard value for the status, amount and user filters.
const FilterAll = "ALL"

// AmountRange is a bucket of transaction amounts.
type AmountRange string

const (
	AmountRangeAll      AmountRange = FilterAll
	AmountRange0To50    AmountRange = "0-50"
	AmountRange50To100  AmountRange = "50-100"
	AmountRange100To500 AmountRange = "100-500"
	AmountRange500Plus  AmountRange = "500+"
)

// AmountRanges lists the concrete buckets in display order.
var AmountRanges = []AmountRange{AmountRange0To50, AmountRange50To100, AmountRange100To500, AmountRange500Plus}

var (
	fifty       = decimal.NewFromInt(50)
	oneHundred  = decimal.NewFromInt(100)
	fiveHundred = decimal.NewFromInt(500)
)

// String returns the string representation.
func (r AmountRange) String() string {
	return string(r)
}

// IsValid checks if the range is ALL or one of the known buckets.
func (r AmountRange) IsValid() bool {
	switch r {
	case AmountRangeAll, AmountRange0To50, AmountRange50To100, AmountRange100To500, AmountRange500Plus:
		return true
	}
	return false
}

// Contains reports bucket membership. Bounds are inclusive on both sides, so 50 and 100
// belong to two adjacent buckets each.
func (r AmountRange) Contains(amount decimal.Decimal) bool {
	switch r {
	case AmountRangeAll:
		return true
	case AmountRange0To50:
		return within(amount, decimal.Zero, fifty)
	case AmountRange50To100:
		return within(amount, fifty, oneHundred)
	case AmountRange100To500:
		return within(amount, oneHundred, fiveHundred)
	case AmountRange500Plus:
		return amount.GreaterThanOrEqual(fiveHundred)
	}
	return false
}

func within(amount, low, high decimal.Decimal) bool {
	return amount.GreaterThanOrEqual(low) && amount.LessThanOrEqual(high)
}

// FilterCriteria selects which transactions are displayed. It lives only as long as the UI state.
type FilterCriteria struct {
	Search string      `json:"search"`
	Status Status      `json:"status"`
	Amount AmountRange `json:"amount"`
	User   string      `json:"user"`
}

// DefaultCriteria matches every transaction.
func DefaultCriteria() FilterCriteria {
	return FilterCriteria{
		Status: StatusAll,
		Amount: AmountRangeAll,
		User:   FilterAll,
	}
}

// Normalize fills empty selectors with ALL.
func (c FilterCriteria) Normalize() FilterCriteria {
	if c.Status == "" {
		c.Status = StatusAll
	}
	if c.Amount == "" {
		c.Amount = AmountRangeAll
	}
	if c.User == "" {
		c.User = FilterAll
	}
	return c
}

// IsActive reports whether any criterion narrows the result.
func (c FilterCriteria) IsActive() bool {
	c = c.Normalize()
	return c.Search != "" || c.Status != StatusAll || c.Amount != AmountRangeAll || c.User != FilterAll
}

// Validate rejects unknown status and amount selectors.
func (c FilterCriteria) Validate() error {
	c = c.Normalize()
	if c.Status != StatusAll && !c.Status.IsValid() {
		return &ValidationError{Message: fmt.Sprintf("unknown status filter %q", c.Status)}
	}
	if !c.Amount.IsValid() {
		return &ValidationError{Message: fmt.Sprintf("unknown amount filter %q", c.Amount)}
	}
	return nil
}

// ParseStatus parses a status selector, accepting any letter case.
func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	if st == "" || st == StatusAll {
		return StatusAll, nil
	}
	if !st.IsValid() {
		return "", fmt.Errorf("unknown status %q", s)
	}
	return st, nil
}
