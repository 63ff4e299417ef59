// Package config loads the service configuration from the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	orderbookv1 "github.com/muhammadchandra19/orderbook-view/internal/domain/orderbook/v1"
	"github.com/muhammadchandra19/orderbook-view/pkg/errors"
	"github.com/muhammadchandra19/orderbook-view/pkg/questdb"
	"github.com/muhammadchandra19/orderbook-view/pkg/redis"
)

// Event source names.
const (
	SourceEVM     = "evm"
	SourceQuestDB = "questdb"
	SourceNone    = "none"
)

// Config represents the application configuration.
type Config struct {
	App        AppConfig        `envPrefix:"APP_"`
	OrderBook  OrderBookConfig  `envPrefix:"ORDERBOOK_"`
	EVM        EVMConfig        `envPrefix:"EVM_"`
	QuestDB    questdb.Config   `envPrefix:"QUESTDB_"`
	OrderKafka OrderKafkaConfig `envPrefix:"ORDER_KAFKA_"`
	Redis      redis.Config     `envPrefix:"REDIS_"`
}

// AppConfig represents the application configuration.
type AppConfig struct {
	Name            string        `env:"NAME" envDefault:"orderbook-service"`
	Environment     string        `env:"ENVIRONMENT" envDefault:"development"`
	Port            int           `env:"PORT" envDefault:"8080"`
	GRPCPort        int           `env:"GRPC_PORT" envDefault:"8880"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"30s"`
	// SnapshotWait bounds how long a one-shot request waits for a loading market.
	SnapshotWait    time.Duration `env:"SNAPSHOT_WAIT" envDefault:"2s"`
}

// OrderBookConfig holds the refresh settings shared by every market session.
type OrderBookConfig struct {
	// Symbols are started at boot and kept alive for the life of the process.
	Symbols        []string      `env:"SYMBOLS" envSeparator:","`
	Depth          int           `env:"DEPTH" envDefault:"10"`
	PollInterval   time.Duration `env:"POLL_INTERVAL" envDefault:"5s"`
	RefreshTimeout time.Duration `env:"REFRESH_TIMEOUT" envDefault:"10s"`
	FillMode       string        `env:"FILL_MODE" envDefault:"incremental"`
	StartBlock     uint64        `env:"START_BLOCK" envDefault:"0"`
	LookbackBlocks uint64        `env:"LOOKBACK_BLOCKS" envDefault:"0"`

	// EventSource serves the event log, PrimarySource the aggregated view and
	// RegistrySource the market list.
	EventSource    string `env:"EVENT_SOURCE" envDefault:"evm"`
	PrimarySource  string `env:"PRIMARY_SOURCE" envDefault:"evm"`
	RegistrySource string `env:"REGISTRY_SOURCE" envDefault:"evm"`

	// EventCacheTTL bounds how long event queries are shared through Redis.
	EventCacheTTL time.Duration `env:"EVENT_CACHE_TTL" envDefault:"2s"`
}

// EVMConfig represents the chain connection.
type EVMConfig struct {
	RPCURL        string `env:"RPC_URL" envDefault:"http://localhost:8545"`
	WSURL         string `env:"WS_URL"`
	Contract      string `env:"CONTRACT"`
	PriceDecimals int32  `env:"PRICE_DECIMALS" envDefault:"18"`
	SizeDecimals  int32  `env:"SIZE_DECIMALS" envDefault:"18"`
	MaxBlockRange uint64 `env:"MAX_BLOCK_RANGE" envDefault:"2000"`
}

// OrderKafkaConfig represents the Kafka configuration.
type OrderKafkaConfig struct {
	Enabled       bool          `env:"ENABLED" envDefault:"false"`
	Brokers       []string      `env:"BROKERS" envSeparator:"," envDefault:"localhost:9092"`
	Topic         string        `env:"TOPIC" envDefault:"order-events"`
	ConsumerGroup string        `env:"CONSUMER_GROUP" envDefault:"orderbook-service"`
	MaxRetries    int           `env:"MAX_RETRIES" envDefault:"3"`
	RetryBackoff  time.Duration `env:"RETRY_BACKOFF" envDefault:"1s"`
}

// Load loads the configuration from the environment.
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks values that env tags cannot express.
func (c *Config) Validate() error {
	errs := errors.NewBaseError()
	invalid := func(message, field string) {
		errs.AddErrorDetails(errors.NewErrorDetails(message, string(errors.InvalidConfigError), field))
	}

	ob := c.OrderBook
	if ob.PollInterval <= 0 {
		invalid("poll interval must be positive", "ORDERBOOK_POLL_INTERVAL")
	}
	if ob.Depth <= 0 {
		invalid("depth must be positive", "ORDERBOOK_DEPTH")
	}
	if ob.RefreshTimeout <= 0 {
		invalid("refresh timeout must be positive", "ORDERBOOK_REFRESH_TIMEOUT")
	}
	if _, err := orderbookv1.ParseFillMode(ob.FillMode); err != nil {
		invalid(err.Error(), "ORDERBOOK_FILL_MODE")
	}

	checkSource := func(value, field string, allowNone bool) {
		switch value {
		case SourceEVM, SourceQuestDB:
		case SourceNone:
			if !allowNone {
				invalid("source must be evm or questdb", field)
			}
		default:
			invalid(fmt.Sprintf("unknown source %q", value), field)
		}
	}
	checkSource(ob.EventSource, "ORDERBOOK_EVENT_SOURCE", false)
	checkSource(ob.PrimarySource, "ORDERBOOK_PRIMARY_SOURCE", true)
	checkSource(ob.RegistrySource, "ORDERBOOK_REGISTRY_SOURCE", true)

	if c.UsesEVM() {
		if !common.IsHexAddress(c.EVM.Contract) {
			invalid("contract must be a hex address", "EVM_CONTRACT")
		}
		if c.EVM.RPCURL == "" {
			invalid("rpc url is required", "EVM_RPC_URL")
		}
		if c.EVM.PriceDecimals < 0 || c.EVM.SizeDecimals < 0 {
			invalid("decimals must not be negative", "EVM_PRICE_DECIMALS")
		}
	}

	if c.OrderKafka.Enabled {
		if len(c.OrderKafka.Brokers) == 0 || strings.TrimSpace(c.OrderKafka.Topic) == "" {
			invalid("brokers and topic are required", "ORDER_KAFKA_BROKERS")
		}
	}

	if errs.HasDetails() {
		return errs
	}
	return nil
}

// UsesEVM reports whether any source reads the chain.
func (c *Config) UsesEVM() bool {
	ob := c.OrderBook
	return ob.EventSource == SourceEVM || ob.PrimarySource == SourceEVM || ob.RegistrySource == SourceEVM
}

// UsesQuestDB reports whether QuestDB is needed, as a source or as the ingestion sink.
func (c *Config) UsesQuestDB() bool {
	ob := c.OrderBook
	return c.OrderKafka.Enabled || ob.EventSource == SourceQuestDB || ob.PrimarySource == SourceQuestDB || ob.RegistrySource == SourceQuestDB
}
