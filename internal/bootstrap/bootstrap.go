// Package bootstrap wires configuration into running components.
package bootstrap

import (
	"context"

	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/muhammadchandra19/orderbook-view/internal/app/session"
	"github.com/muhammadchandra19/orderbook-view/internal/consumer"
	"github.com/muhammadchandra19/orderbook-view/internal/infrastructure/metrics"
	"github.com/muhammadchandra19/orderbook-view/pkg/config"
	"github.com/muhammadchandra19/orderbook-view/pkg/errors"
	"github.com/muhammadchandra19/orderbook-view/pkg/grpclib/health"
	"github.com/muhammadchandra19/orderbook-view/pkg/httplib/healthcheck"
	"github.com/muhammadchandra19/orderbook-view/pkg/logger"
	"github.com/muhammadchandra19/orderbook-view/pkg/questdb"
	"github.com/muhammadchandra19/orderbook-view/pkg/redis"
)

// Bootstrap holds the process-wide components.
type Bootstrap struct {
	Config *config.Config
	Logger *logger.Logger

	QuestDB  *questdb.Client
	Redis    redis.Client
	EVM      *ethclient.Client
	EVMWatch *ethclient.Client

	Sources  Sources
	Registry *prometheus.Registry
	Metrics  *metrics.Metrics
	Health   *health.Server
	Manager  *session.Manager
	Consumer *consumer.OrderEventConsumer
}

// New connects every configured dependency and builds the session manager.
// Sessions stop when ctx is done.
func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*Bootstrap, error) {
	b := &Bootstrap{
		Config:   cfg,
		Logger:   log,
		Registry: prometheus.NewRegistry(),
		Health:   health.NewServer(),
	}
	b.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	b.Metrics = metrics.New(b.Registry)

	if err := b.registerInfrastructure(ctx); err != nil {
		b.Close(context.Background())
		return nil, err
	}
	if err := b.registerSources(); err != nil {
		b.Close(context.Background())
		return nil, err
	}

	b.Manager = session.NewManager(ctx, b.NewSession, log)
	b.registerConsumer()
	b.Health.InitService(cfg.App.Name)

	return b, nil
}

func (b *Bootstrap) registerInfrastructure(ctx context.Context) error {
	cfg := b.Config

	if cfg.UsesQuestDB() {
		client, err := questdb.NewClient(ctx, cfg.QuestDB)
		if err != nil {
			return errors.TracerFromError(err)
		}
		b.QuestDB = client
		b.Logger.Info("questdb connected", logger.NewField("host", cfg.QuestDB.Host))
	}

	if cfg.Redis.Enabled {
		client := redis.NewClient(b.Logger, &cfg.Redis)
		if err := client.Connect(ctx); err != nil {
			return err
		}
		b.Redis = client
	}

	if cfg.UsesEVM() {
		client, err := ethclient.DialContext(ctx, cfg.EVM.RPCURL)
		if err != nil {
			return errors.TracerFromError(err)
		}
		b.EVM = client
		b.Logger.Info("evm rpc connected", logger.NewField("contract", cfg.EVM.Contract))
	}

	if cfg.EVM.WSURL != "" {
		client, err := ethclient.DialContext(ctx, cfg.EVM.WSURL)
		if err != nil {
			return errors.TracerFromError(err)
		}
		b.EVMWatch = client
	}

	return nil
}

// HealthChecks probes the connected stores.
func (b *Bootstrap) HealthChecks() []healthcheck.Check {
	var checks []healthcheck.Check
	if b.QuestDB != nil {
		checks = append(checks, healthcheck.Check{Name: "questdb", Fn: b.QuestDB.Ping})
	}
	if b.Redis != nil {
		checks = append(checks, healthcheck.Check{Name: "redis", Fn: b.Redis.Ping})
	}
	if b.EVM != nil {
		checks = append(checks, healthcheck.Check{Name: "evm", Fn: func(ctx context.Context) error {
			_, err := b.EVM.BlockNumber(ctx)
			return err
		}})
	}
	return checks
}

// Close stops the sessions and releases every connection.
func (b *Bootstrap) Close(ctx context.Context) {
	b.Health.Shutdown()

	if b.Manager != nil {
		if err := b.Manager.Close(ctx); err != nil {
			b.Logger.Error(errors.TracerFromError(err), logger.NewField("action", "close_sessions"))
		}
	}
	if b.Consumer != nil {
		if err := b.Consumer.Stop(); err != nil {
			b.Logger.Error(errors.TracerFromError(err), logger.NewField("action", "close_consumer"))
		}
	}
	if b.EVMWatch != nil {
		b.EVMWatch.Close()
	}
	if b.EVM != nil {
		b.EVM.Close()
	}
	if b.Redis != nil {
		if err := b.Redis.Disconnect(ctx); err != nil {
			b.Logger.Error(err, logger.NewField("action", "close_redis"))
		}
	}
	if b.QuestDB != nil {
		b.QuestDB.Close()
	}
}
