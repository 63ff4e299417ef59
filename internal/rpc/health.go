package rpc

import (
	"context"

	orderbookv1 "github.com/muhammadchandra19/orderbook-view/internal/domain/orderbook/v1"
)

// ServiceName is the gRPC health service of the process. Each market is
// reported as ServiceName + "/" + symbol.
const ServiceName = "orderbook"

// ServingSetter records a service's serving status.
type ServingSetter interface {
	SetServing(serviceName string, serving bool)
}

// MarketHealth reports a market as serving while its last refresh succeeded.
type MarketHealth struct {
	setter ServingSetter
}

// NewMarketHealth creates a MarketHealth publisher.
func NewMarketHealth(setter ServingSetter) *MarketHealth {
	return &MarketHealth{setter: setter}
}

// Publish implements session.Publisher.
func (m *MarketHealth) Publish(_ context.Context, snapshot orderbookv1.Snapshot) error {
	if snapshot.IsLoading {
		return nil
	}
	m.setter.SetServing(ServiceName+"/"+snapshot.Symbol, snapshot.Error == "")
	return nil
}
