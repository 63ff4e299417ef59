// Package aggregator groups resting orders into price levels and derives book metrics.
package aggregator

import (
	"sort"

	orderbookv1 "github.com/muhammadchandra19/orderbook-view/internal/domain/orderbook/v1"
	"github.com/shopspring/decimal"
)

// DefaultDepth is used when a non-positive depth is requested.
const DefaultDepth = 10

var hundred = decimal.NewFromInt(100)

// Aggregate builds a leveled view from order states.
//
// Only resting orders count: market orders, cancelled orders and orders with nothing
// left are excluded. Orders at exactly the same price share a level. Each side is
// truncated to depth levels after sorting.
func Aggregate(states map[string]orderbookv1.OrderState, depth int) orderbookv1.OrderBookView {
	if depth <= 0 {
		depth = DefaultDepth
	}

	bids := make(map[string]*orderbookv1.PriceLevel)
	asks := make(map[string]*orderbookv1.PriceLevel)

	for _, state := range states {
		if !state.Resting() {
			continue
		}

		levels := bids
		if state.Side == orderbookv1.SideSell {
			levels = asks
		}

		// String is canonical, so 1.50 and 1.5 land on the same level.
		key := state.Price.String()
		level, ok := levels[key]
		if !ok {
			level = &orderbookv1.PriceLevel{Price: state.Price, Size: decimal.Zero}
			levels[key] = level
		}
		level.Size = level.Size.Add(state.Remaining())
		level.Orders++
	}

	return orderbookv1.OrderBookView{
		Bids: sortLevels(bids, depth, true),
		Asks: sortLevels(asks, depth, false),
	}
}

func sortLevels(levels map[string]*orderbookv1.PriceLevel, depth int, descending bool) []orderbookv1.PriceLevel {
	out := make([]orderbookv1.PriceLevel, 0, len(levels))
	for _, level := range levels {
		out = append(out, *level)
	}

	sort.Slice(out, func(i, j int) bool {
		if descending {
			return out[i].Price.GreaterThan(out[j].Price)
		}
		return out[i].Price.LessThan(out[j].Price)
	})

	if len(out) > depth {
		out = out[:depth]
	}
	return out
}

// Summarize derives best prices, spread and the largest level size per side.
// Spread and SpreadPercent are zero unless both sides have a level.
func Summarize(view orderbookv1.OrderBookView) orderbookv1.Metrics {
	metrics := orderbookv1.Metrics{
		Spread:        decimal.Zero,
		SpreadPercent: decimal.Zero,
		MaxBidTotal:   maxSize(view.Bids),
		MaxAskTotal:   maxSize(view.Asks),
	}

	if len(view.Bids) > 0 {
		metrics.BestBid = decimal.NewNullDecimal(view.Bids[0].Price)
	}
	if len(view.Asks) > 0 {
		metrics.BestAsk = decimal.NewNullDecimal(view.Asks[0].Price)
	}

	if metrics.BestBid.Valid && metrics.BestAsk.Valid {
		bestBid := metrics.BestBid.Decimal
		metrics.Spread = metrics.BestAsk.Decimal.Sub(bestBid)
		if bestBid.IsPositive() {
			metrics.SpreadPercent = metrics.Spread.Div(bestBid).Mul(hundred)
		}
	}

	return metrics
}

func maxSize(levels []orderbookv1.PriceLevel) decimal.Decimal {
	largest := decimal.Zero
	for _, level := range levels {
		if level.Size.GreaterThan(largest) {
			largest = level.Size
		}
	}
	return largest
}
