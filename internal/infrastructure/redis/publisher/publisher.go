// Package publisher fans published snapshots out through Redis.
package publisher

import (
	"context"
	"encoding/json"
	"strings"

	orderbookv1 "github.com/muhammadchandra19/orderbook-view/internal/domain/orderbook/v1"
	"github.com/muhammadchandra19/orderbook-view/pkg/errors"
	"github.com/muhammadchandra19/orderbook-view/pkg/redis"
)

// Publisher stores the latest snapshot of each market under a key and publishes
// it on a per-market channel.
type Publisher struct {
	client redis.Client
}

// New creates a Publisher.
func New(client redis.Client) *Publisher {
	return &Publisher{client: client}
}

// SnapshotKey is the key holding the latest snapshot of symbol.
func (p *Publisher) SnapshotKey(symbol string) string {
	return p.client.Key("snapshot", strings.ToUpper(symbol))
}

// Channel is the pub/sub channel of symbol.
func (p *Publisher) Channel(symbol string) string {
	return p.client.Key("updates", strings.ToUpper(symbol))
}

// Publish implements session.Publisher.
func (p *Publisher) Publish(ctx context.Context, snapshot orderbookv1.Snapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return errors.TracerFromError(err)
	}

	if err := p.client.Set(ctx, p.SnapshotKey(snapshot.Symbol), data, 0); err != nil {
		return err
	}
	if _, err := p.client.Publish(ctx, p.Channel(snapshot.Symbol), data); err != nil {
		return err
	}
	return nil
}
