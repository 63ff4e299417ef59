package orderbookv1

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// FillMode selects how the size carried by a Filled event is interpreted.
type FillMode string

const (
	// FillModeIncremental treats each fill as the amount matched by that event.
	// Fills for the same order are summed.
	FillModeIncremental FillMode = "incremental"
	// FillModeCumulative treats each fill as the total matched so far.
	// The order's filled amount becomes the largest value reported.
	FillModeCumulative FillMode = "cumulative"
)

// ParseFillMode parses a fill mode name. The empty string yields FillModeIncremental.
func ParseFillMode(s string) (FillMode, error) {
	switch FillMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", FillModeIncremental:
		return FillModeIncremental, nil
	case FillModeCumulative:
		return FillModeCumulative, nil
	}
	return "", fmt.Errorf("unknown fill mode %q", s)
}

// Apply returns the filled amount of an order of size original after a fill
// reporting size. The result never decreases and never exceeds original.
func (m FillMode) Apply(filled, size, original decimal.Decimal) decimal.Decimal {
	switch m {
	case FillModeCumulative:
		filled = decimal.Max(filled, size)
	default:
		filled = filled.Add(size)
	}
	return decimal.Min(filled, original)
}

// OrderState is the folded state of one order.
type OrderState struct {
	OrderID          string          `json:"orderId"`
	MarketID         string          `json:"marketId"`
	Side             Side            `json:"side"`
	Price            decimal.Decimal `json:"price"`
	OriginalSize     decimal.Decimal `json:"originalSize"`
	CumulativeFilled decimal.Decimal `json:"cumulativeFilled"`
	Cancelled        bool            `json:"cancelled"`
}

// Remaining is the unfilled size, zero once cancelled.
func (o OrderState) Remaining() decimal.Decimal {
	if o.Cancelled {
		return decimal.Zero
	}
	remaining := o.OriginalSize.Sub(o.CumulativeFilled)
	if remaining.IsNegative() {
		return decimal.Zero
	}
	return remaining
}

// IsMarket reports whether the order was placed without a limit price.
func (o OrderState) IsMarket() bool {
	return o.Price.IsZero()
}

// FullyFilled reports whether nothing is left to fill.
func (o OrderState) FullyFilled() bool {
	return o.CumulativeFilled.GreaterThanOrEqual(o.OriginalSize)
}

// Resting reports whether the order contributes liquidity to the book.
func (o OrderState) Resting() bool {
	return !o.IsMarket() && o.Remaining().IsPositive()
}
