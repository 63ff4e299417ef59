package orderbookv1

import "context"

// EventSource reads the append-only order event log.
//
//go:generate mockgen -source=interface.go -destination=mock/interface_mock.go -package=mock
type EventSource interface {
	// LatestPosition returns the newest block (or sequence) the source can serve.
	LatestPosition(ctx context.Context) (uint64, error)
	// QueryEvents returns the events of one kind inside filter, in ascending sequence order.
	QueryEvents(ctx context.Context, kind EventKind, filter EventFilter) ([]RawEvent, error)
}

// AggregatedViewSource returns a leveled book computed by the source itself.
type AggregatedViewSource interface {
	GetAggregatedView(ctx context.Context, marketID string, depth int) (OrderBookView, error)
}

// MarketRegistry lists the markets known to the exchange.
type MarketRegistry interface {
	GetAllMarkets(ctx context.Context) ([]Market, error)
}

// OrderMarketLookup maps order ids to the market they were placed on.
type OrderMarketLookup interface {
	// OrderMarkets returns the market of each known order. Unknown ids are absent.
	OrderMarkets(ctx context.Context, orderIDs []string) (map[string]string, error)
}
