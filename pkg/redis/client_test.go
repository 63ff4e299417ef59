package redis

import (
	"context"
	"testing"

	"github.com/muhammadchandra19/orderbook-view/pkg/errors"
	"github.com/muhammadchandra19/orderbook-view/pkg/logger"
	"github.com/stretchr/testify/assert"
)

func TestClient_ConnectValidation(t *testing.T) {
	testCases := []struct {
		name   string
		config func() *Config
		field  string
	}{
		{
			name:   "nil config",
			config: func() *Config { return nil },
			field:  "connect",
		},
		{
			name: "empty addrs",
			config: func() *Config {
				cfg := DefaultConfig()
				cfg.Addrs = nil
				return cfg
			},
			field: "addrs",
		},
		{
			name: "unknown mode",
			config: func() *Config {
				cfg := DefaultConfig()
				cfg.Mode = "sentinel"
				return cfg
			},
			field: "mode",
		},
		{
			name: "zero pool",
			config: func() *Config {
				cfg := DefaultConfig()
				cfg.PoolSize = 0
				return cfg
			},
			field: "pool_size",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			c := NewClient(logger.NewNop(), tc.config())
			err := c.Connect(context.Background())

			var details *errors.ErrorDetails
			assert.ErrorAs(t, err, &details)
			assert.Equal(t, string(errors.RedisConfigError), details.Code)
			assert.Equal(t, tc.field, details.Field)
		})
	}
}

func TestClient_Key(t *testing.T) {
	c := NewClient(logger.NewNop(), DefaultConfig())
	assert.Equal(t, "orderbook:snapshot:ETH-USDC", c.Key("snapshot", "ETH-USDC"))

	c = NewClient(logger.NewNop(), nil)
	assert.Equal(t, "a:b", c.Key("a", "b"))
}

func TestClient_DisconnectWithoutConnect(t *testing.T) {
	c := NewClient(logger.NewNop(), DefaultConfig())
	assert.NoError(t, c.Disconnect(context.Background()))
}
