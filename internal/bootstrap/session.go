package bootstrap

import (
	"github.com/ethereum/go-ethereum/common"

	"github.com/muhammadchandra19/orderbook-view/internal/app/session"
	orderbookv1 "github.com/muhammadchandra19/orderbook-view/internal/domain/orderbook/v1"
	"github.com/muhammadchandra19/orderbook-view/internal/infrastructure/evm"
	"github.com/muhammadchandra19/orderbook-view/internal/infrastructure/redis/publisher"
	"github.com/muhammadchandra19/orderbook-view/internal/rpc"
	"github.com/muhammadchandra19/orderbook-view/pkg/config"
)

// NewSession builds the session for one symbol. It is the manager's factory.
func (b *Bootstrap) NewSession(symbol string) (*session.Session, error) {
	cfg, err := sessionConfig(b.Config.OrderBook, symbol)
	if err != nil {
		return nil, err
	}

	deps := session.Dependencies{
		Events:  b.Sources.Events,
		Primary: b.Sources.Primary,
		Markets: b.Sources.Markets,
		Orders:  b.Sources.Orders,
	}

	// s is assigned before Start, which is the first time the watcher reads it.
	var s *session.Session
	triggers := []session.Trigger{session.NewIntervalTrigger(cfg.PollInterval)}
	if b.EVMWatch != nil {
		watcher, err := evm.NewLogWatcher(b.EVMWatch, common.HexToAddress(b.Config.EVM.Contract),
			func() string { return s.MarketID() }, b.Logger)
		if err != nil {
			return nil, err
		}
		triggers = append(triggers, watcher)
	}

	opts := []session.Option{
		session.WithTriggers(triggers...),
		session.WithRecorder(b.Metrics),
		session.WithPublisher(b.Metrics),
		session.WithPublisher(rpc.NewMarketHealth(b.Health)),
	}
	if b.Redis != nil {
		opts = append(opts, session.WithPublisher(publisher.New(b.Redis)))
	}

	s = session.New(cfg, deps, b.Logger, opts...)
	return s, nil
}

func sessionConfig(cfg config.OrderBookConfig, symbol string) (session.Config, error) {
	fillMode, err := orderbookv1.ParseFillMode(cfg.FillMode)
	if err != nil {
		return session.Config{}, err
	}

	return session.Config{
		Symbol:         symbol,
		Depth:          cfg.Depth,
		PollInterval:   cfg.PollInterval,
		RefreshTimeout: cfg.RefreshTimeout,
		FillMode:       fillMode,
		StartBlock:     cfg.StartBlock,
		Lookback:       cfg.LookbackBlocks,
	}, nil
}
