// Package evm reads the order book contract of an EVM chain.
package evm

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	orderbookv1 "github.com/muhammadchandra19/orderbook-view/internal/domain/orderbook/v1"
	"github.com/muhammadchandra19/orderbook-view/pkg/errors"
	"github.com/muhammadchandra19/orderbook-view/pkg/logger"
)

// Backend is the part of an Ethereum JSON-RPC client used by this package.
// *ethclient.Client satisfies it.
//
//go:generate mockgen -source=source.go -destination=mock/backend_mock.go -package=mock
type Backend interface {
	BlockNumber(ctx context.Context) (uint64, error)
	FilterLogs(ctx context.Context, q ethereum.FilterQuery) ([]types.Log, error)
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	SubscribeFilterLogs(ctx context.Context, q ethereum.FilterQuery, ch chan<- types.Log) (ethereum.Subscription, error)
}

// Options configures a LogSource.
type Options struct {
	Contract common.Address
	Decimals Decimals
	// MaxBlockRange caps the block span of a single FilterLogs call. Zero means unbounded.
	MaxBlockRange uint64
}

// LogSource serves order events, the contract's aggregated book and the market
// list from one contract.
type LogSource struct {
	backend Backend
	abi     abi.ABI
	opts    Options
	logger  *logger.Logger
}

// NewLogSource creates a LogSource.
func NewLogSource(backend Backend, opts Options, log *logger.Logger) (*LogSource, error) {
	contractABI, err := ParseABI()
	if err != nil {
		return nil, errors.TracerFromError(err)
	}

	return &LogSource{
		backend: backend,
		abi:     contractABI,
		opts:    opts,
		logger:  log,
	}, nil
}

// LatestPosition returns the current block number.
func (s *LogSource) LatestPosition(ctx context.Context) (uint64, error) {
	head, err := s.backend.BlockNumber(ctx)
	if err != nil {
		return 0, errors.TracerFromError(err)
	}
	return head, nil
}

// QueryEvents reads the logs of kind between filter.FromBlock and filter.ToBlock,
// split into ranges of at most MaxBlockRange blocks. Logs that cannot be decoded
// or were removed by a reorg are skipped.
func (s *LogSource) QueryEvents(ctx context.Context, kind orderbookv1.EventKind, filter orderbookv1.EventFilter) ([]orderbookv1.RawEvent, error) {
	topic, ok := eventTopic(s.abi, kind)
	if !ok {
		return nil, errors.NewErrorDetails(fmt.Sprintf("unknown event kind %q", kind), string(errors.EventSourceError), "kind")
	}

	topics := [][]common.Hash{{topic}}
	// Cancellations do not carry the market, the reducer joins them by order id.
	if kind != orderbookv1.EventCancelled && filter.MarketID != "" {
		topics = append(topics, nil, []common.Hash{common.HexToHash(filter.MarketID)})
	}

	var events []orderbookv1.RawEvent
	for from := filter.FromBlock; from <= filter.ToBlock; {
		to := filter.ToBlock
		if s.opts.MaxBlockRange > 0 && to-from+1 > s.opts.MaxBlockRange {
			to = from + s.opts.MaxBlockRange - 1
		}

		logs, err := s.backend.FilterLogs(ctx, ethereum.FilterQuery{
			FromBlock: new(big.Int).SetUint64(from),
			ToBlock:   new(big.Int).SetUint64(to),
			Addresses: []common.Address{s.opts.Contract},
			Topics:    topics,
		})
		if err != nil {
			return nil, errors.TracerFromError(err)
		}

		for _, log := range logs {
			if log.Removed {
				continue
			}
			event, err := decodeLog(s.abi, s.opts.Decimals, kind, log)
			if err != nil {
				s.logger.DebugContext(ctx, "skipping undecodable log",
					logger.NewField("kind", string(kind)),
					logger.NewField("tx_hash", log.TxHash.Hex()),
					logger.NewField("error", err.Error()),
				)
				continue
			}
			events = append(events, event)
		}

		if to == filter.ToBlock {
			break
		}
		from = to + 1
	}

	return events, nil
}

type orderBookOutput struct {
	BidPrices []*big.Int
	BidSizes  []*big.Int
	AskPrices []*big.Int
	AskSizes  []*big.Int
}

// GetAggregatedView calls the contract's getOrderBook view.
func (s *LogSource) GetAggregatedView(ctx context.Context, marketID string, depth int) (orderbookv1.OrderBookView, error) {
	input, err := s.abi.Pack(methodGetOrderBook, common.HexToHash(marketID), big.NewInt(int64(depth)))
	if err != nil {
		return orderbookv1.OrderBookView{}, errors.NewTracer(string(errors.AggregatedViewError)).Wrap(err)
	}

	var out orderBookOutput
	if err := s.call(ctx, methodGetOrderBook, input, &out); err != nil {
		return orderbookv1.OrderBookView{}, errors.NewTracer(string(errors.AggregatedViewError)).Wrap(err)
	}

	return orderbookv1.OrderBookView{
		Bids: s.levels(out.BidPrices, out.BidSizes),
		Asks: s.levels(out.AskPrices, out.AskSizes),
	}, nil
}

type marketsOutput struct {
	Ids     [][32]byte
	Symbols []string
}

// GetAllMarkets calls the contract's getAllMarkets view.
func (s *LogSource) GetAllMarkets(ctx context.Context) ([]orderbookv1.Market, error) {
	input, err := s.abi.Pack(methodGetAllMarkets)
	if err != nil {
		return nil, errors.NewTracer(string(errors.MarketRegistryError)).Wrap(err)
	}

	var out marketsOutput
	if err := s.call(ctx, methodGetAllMarkets, input, &out); err != nil {
		return nil, errors.NewTracer(string(errors.MarketRegistryError)).Wrap(err)
	}
	if len(out.Ids) != len(out.Symbols) {
		return nil, errors.NewErrorDetails("market ids and symbols differ in length", string(errors.MarketRegistryError), "getAllMarkets")
	}

	markets := make([]orderbookv1.Market, 0, len(out.Ids))
	for i, id := range out.Ids {
		markets = append(markets, orderbookv1.Market{
			ID:     common.Hash(id).Hex(),
			Symbol: out.Symbols[i],
		})
	}
	return markets, nil
}

func (s *LogSource) call(ctx context.Context, method string, input []byte, out interface{}) error {
	contract := s.opts.Contract
	data, err := s.backend.CallContract(ctx, ethereum.CallMsg{To: &contract, Data: input}, nil)
	if err != nil {
		return err
	}
	return s.abi.UnpackIntoInterface(out, method, data)
}

// levels pairs prices with sizes. Extra entries on either side are ignored.
func (s *LogSource) levels(prices, sizes []*big.Int) []orderbookv1.PriceLevel {
	n := len(prices)
	if len(sizes) < n {
		n = len(sizes)
	}

	levels := make([]orderbookv1.PriceLevel, 0, n)
	for i := 0; i < n; i++ {
		levels = append(levels, orderbookv1.PriceLevel{
			Price: s.opts.Decimals.price(prices[i]),
			Size:  s.opts.Decimals.size(sizes[i]),
		})
	}
	return levels
}
