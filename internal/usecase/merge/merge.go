// Package merge combines a native aggregated view with one rebuilt from events.
package merge

import (
	orderbookv1 "github.com/muhammadchandra19/orderbook-view/internal/domain/orderbook/v1"
)

// Result reports which source each side of a merged view came from.
type Result struct {
	Bids orderbookv1.Source
	Asks orderbookv1.Source
}

// Merge picks each side independently. A side of primary is used verbatim when it
// has at least one level with positive price and size, otherwise the fallback side is used.
// Primary is trusted as-is and is not checked for staleness against fallback.
func Merge(primary, fallback orderbookv1.OrderBookView) (orderbookv1.OrderBookView, Result) {
	bids, bidsSource := pick(primary.Bids, fallback.Bids)
	asks, asksSource := pick(primary.Asks, fallback.Asks)

	return orderbookv1.OrderBookView{Bids: bids, Asks: asks}, Result{Bids: bidsSource, Asks: asksSource}
}

// Usable reports whether a side has at least one level with positive price and size.
func Usable(levels []orderbookv1.PriceLevel) bool {
	for _, level := range levels {
		if level.Valid() {
			return true
		}
	}
	return false
}

func pick(primary, fallback []orderbookv1.PriceLevel) ([]orderbookv1.PriceLevel, orderbookv1.Source) {
	if Usable(primary) {
		return primary, orderbookv1.SourcePrimary
	}
	if fallback == nil {
		fallback = []orderbookv1.PriceLevel{}
	}
	return fallback, orderbookv1.SourceFallback
}
