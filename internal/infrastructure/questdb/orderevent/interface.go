package orderevent

import (
	"context"

	orderbookv1 "github.com/muhammadchandra19/orderbook-view/internal/domain/orderbook/v1"
)

// Writer stores ingested events and markets.
//
//go:generate mockgen -source=interface.go -destination=mock/interface_mock.go -package=mock
type Writer interface {
	StoreEvent(ctx context.Context, event orderbookv1.RawEvent) error
	StoreMarket(ctx context.Context, market orderbookv1.Market) error
}
