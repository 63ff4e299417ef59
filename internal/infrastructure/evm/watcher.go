package evm

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	orderbookv1 "github.com/muhammadchandra19/orderbook-view/internal/domain/orderbook/v1"
	"github.com/muhammadchandra19/orderbook-view/pkg/errors"
	"github.com/muhammadchandra19/orderbook-view/pkg/logger"
)

// LogWatcher fires a refresh whenever the contract emits an order event for one
// market, including logs removed by a reorg. Cancellations carry no market, so
// every cancellation fires.
type LogWatcher struct {
	backend  Backend
	contract common.Address
	marketID func() string
	logger   *logger.Logger
	backoff  time.Duration

	placed    common.Hash
	filled    common.Hash
	cancelled common.Hash
}

// NewLogWatcher creates a LogWatcher. marketID is read on every log so it can
// follow a session whose market is resolved late; an empty id matches all markets.
func NewLogWatcher(backend Backend, contract common.Address, marketID func() string, log *logger.Logger) (*LogWatcher, error) {
	contractABI, err := ParseABI()
	if err != nil {
		return nil, errors.TracerFromError(err)
	}

	return &LogWatcher{
		backend:   backend,
		contract:  contract,
		marketID:  marketID,
		logger:    log,
		backoff:   time.Second,
		placed:    topicOf(contractABI, orderbookv1.EventPlaced),
		filled:    topicOf(contractABI, orderbookv1.EventFilled),
		cancelled: topicOf(contractABI, orderbookv1.EventCancelled),
	}, nil
}

func topicOf(contractABI abi.ABI, kind orderbookv1.EventKind) common.Hash {
	topic, _ := eventTopic(contractABI, kind)
	return topic
}

// Run subscribes to the contract logs until ctx is done, resubscribing after
// failures. fire runs on its own goroutine; logs matched while it is busy
// collapse into one pending call so the subscription is always drained.
func (w *LogWatcher) Run(ctx context.Context, fire func(reason string)) {
	query := ethereum.FilterQuery{
		Addresses: []common.Address{w.contract},
		Topics:    [][]common.Hash{{w.placed, w.filled, w.cancelled}},
	}

	pending := make(chan struct{}, 1)
	fired := make(chan struct{})
	go func() {
		defer close(fired)
		for {
			select {
			case <-ctx.Done():
				return
			case <-pending:
				fire("log")
			}
		}
	}()
	defer func() { <-fired }()

	for {
		err := w.watch(ctx, query, pending)
		if ctx.Err() != nil {
			return
		}
		w.logger.Warn("log subscription ended, resubscribing",
			logger.NewField("error", errText(err)),
			logger.NewField("backoff", w.backoff.String()),
		)

		select {
		case <-ctx.Done():
			return
		case <-time.After(w.backoff):
		}
	}
}

func (w *LogWatcher) watch(ctx context.Context, query ethereum.FilterQuery, pending chan<- struct{}) error {
	logs := make(chan types.Log, 64)
	sub, err := w.backend.SubscribeFilterLogs(ctx, query, logs)
	if err != nil {
		return err
	}
	defer sub.Unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-sub.Err():
			return err
		case log := <-logs:
			if !w.matches(log) {
				continue
			}
			select {
			case pending <- struct{}{}:
			default:
			}
		}
	}
}

func (w *LogWatcher) matches(log types.Log) bool {
	if len(log.Topics) == 0 {
		return false
	}

	switch log.Topics[0] {
	case w.cancelled:
		return true
	case w.placed, w.filled:
		market := w.marketID()
		return market == "" || (len(log.Topics) > 2 && log.Topics[2] == common.HexToHash(market))
	}
	return false
}

func errText(err error) string {
	if err == nil {
		return "subscription closed"
	}
	return err.Error()
}
