package bootstrap

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	orderbookv1 "github.com/muhammadchandra19/orderbook-view/internal/domain/orderbook/v1"
	"github.com/muhammadchandra19/orderbook-view/internal/infrastructure/evm"
	"github.com/muhammadchandra19/orderbook-view/internal/infrastructure/questdb/orderevent"
	"github.com/muhammadchandra19/orderbook-view/internal/infrastructure/redis/eventcache"
	"github.com/muhammadchandra19/orderbook-view/pkg/config"
)

// Sources are the readers every session shares.
type Sources struct {
	Events  orderbookv1.EventSource
	Primary orderbookv1.AggregatedViewSource
	Markets orderbookv1.MarketRegistry
	// Orders joins market-less events to their order's market, nil unless QuestDB is connected.
	Orders orderbookv1.OrderMarketLookup

	// Store is the QuestDB repository, nil unless QuestDB is connected.
	Store *orderevent.Repository
}

// backend is what a configured source name resolves to.
type backend interface {
	orderbookv1.EventSource
	orderbookv1.AggregatedViewSource
	orderbookv1.MarketRegistry
}

func (b *Bootstrap) registerSources() error {
	backends := make(map[string]backend)

	if b.EVM != nil {
		source, err := evm.NewLogSource(b.EVM, evm.Options{
			Contract: common.HexToAddress(b.Config.EVM.Contract),
			Decimals: evm.Decimals{
				Price: b.Config.EVM.PriceDecimals,
				Size:  b.Config.EVM.SizeDecimals,
			},
			MaxBlockRange: b.Config.EVM.MaxBlockRange,
		}, b.Logger)
		if err != nil {
			return err
		}
		backends[config.SourceEVM] = source
	}

	if b.QuestDB != nil {
		fillMode, err := orderbookv1.ParseFillMode(b.Config.OrderBook.FillMode)
		if err != nil {
			return err
		}
		b.Sources.Store = orderevent.NewRepository(b.QuestDB, b.Logger, orderevent.WithFillMode(fillMode))
		backends[config.SourceQuestDB] = b.Sources.Store
	}

	sources, err := selectSources(b.Config.OrderBook, backends)
	if err != nil {
		return err
	}
	if b.Sources.Store != nil {
		sources.Store = b.Sources.Store
		sources.Orders = b.Sources.Store
	}

	if b.Redis != nil && b.Config.OrderBook.EventCacheTTL > 0 {
		sources.Events = eventcache.New(sources.Events, b.Redis, b.Config.OrderBook.EventCacheTTL, b.Logger)
	}

	b.Sources = sources
	return nil
}

// selectSources picks the backend named for each role. Primary and Markets may
// be "none".
func selectSources(cfg config.OrderBookConfig, backends map[string]backend) (Sources, error) {
	pick := func(name, role string) (backend, error) {
		if name == config.SourceNone {
			return nil, nil
		}
		source, ok := backends[name]
		if !ok {
			return nil, fmt.Errorf("%s source %q is not connected", role, name)
		}
		return source, nil
	}

	var sources Sources

	events, err := pick(cfg.EventSource, "event")
	if err != nil {
		return Sources{}, err
	}
	if events == nil {
		return Sources{}, fmt.Errorf("event source is required")
	}
	sources.Events = events

	primary, err := pick(cfg.PrimarySource, "primary")
	if err != nil {
		return Sources{}, err
	}
	if primary != nil {
		sources.Primary = primary
	}

	markets, err := pick(cfg.RegistrySource, "registry")
	if err != nil {
		return Sources{}, err
	}
	if markets != nil {
		sources.Markets = markets
	}

	return sources, nil
}
