package orderbookv1

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceLevel is the aggregated remaining size at one price.
type PriceLevel struct {
	Price  decimal.Decimal `json:"price"`
	Size   decimal.Decimal `json:"size"`
	Orders int64           `json:"orders"`
}

// Valid reports whether the level carries a positive price and size.
func (l PriceLevel) Valid() bool {
	return l.Price.IsPositive() && l.Size.IsPositive()
}

// OrderBookView is a leveled book. Bids are sorted by price descending,
// asks by price ascending.
type OrderBookView struct {
	Bids []PriceLevel `json:"bids"`
	Asks []PriceLevel `json:"asks"`
}

// EmptyView returns a view with both sides present and empty.
func EmptyView() OrderBookView {
	return OrderBookView{
		Bids: []PriceLevel{},
		Asks: []PriceLevel{},
	}
}

// Metrics are values derived from a view.
type Metrics struct {
	BestBid       decimal.NullDecimal `json:"bestBid"`
	BestAsk       decimal.NullDecimal `json:"bestAsk"`
	Spread        decimal.Decimal     `json:"spread"`
	SpreadPercent decimal.Decimal     `json:"spreadPercent"`
	MaxBidTotal   decimal.Decimal     `json:"maxBidTotal"`
	MaxAskTotal   decimal.Decimal     `json:"maxAskTotal"`
}

// Market is a tradable pair known to the market registry.
type Market struct {
	ID     string `json:"id"`
	Symbol string `json:"symbol"`
}

// Source names where one side of a published view came from.
type Source string

const (
	// SourcePrimary is the native aggregated view.
	SourcePrimary Source = "primary"
	// SourceFallback is the view rebuilt from events.
	SourceFallback Source = "fallback"
)

// Snapshot is what subscribers of a market receive on every refresh.
type Snapshot struct {
	MarketID string `json:"marketId"`
	Symbol   string `json:"symbol"`
	OrderBookView
	Metrics
	IsLoading  bool      `json:"isLoading"`
	Error      string    `json:"error"`
	BidsSource Source    `json:"bidsSource,omitempty"`
	AsksSource Source    `json:"asksSource,omitempty"`
	Position   uint64    `json:"position"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// LoadingSnapshot is the value published before the first refresh completes.
func LoadingSnapshot(symbol string) Snapshot {
	return Snapshot{
		Symbol:        symbol,
		OrderBookView: EmptyView(),
		IsLoading:     true,
	}
}
