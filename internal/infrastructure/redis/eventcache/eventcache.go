// Package eventcache shares event log queries between sessions and processes
// through Redis.
package eventcache

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	orderbookv1 "github.com/muhammadchandra19/orderbook-view/internal/domain/orderbook/v1"
	"github.com/muhammadchandra19/orderbook-view/pkg/logger"
	"github.com/muhammadchandra19/orderbook-view/pkg/redis"
)

// Source wraps an EventSource and memoizes QueryEvents results. The cache key
// includes the whole filter, so an entry only serves refreshes that scan the same
// window. The TTL bounds how long a reorged block can be served.
type Source struct {
	next   orderbookv1.EventSource
	client redis.Client
	ttl    time.Duration
	logger *logger.Logger
}

var _ orderbookv1.EventSource = (*Source)(nil)

// New creates a Source. A non-positive ttl disables caching.
func New(next orderbookv1.EventSource, client redis.Client, ttl time.Duration, log *logger.Logger) *Source {
	return &Source{
		next:   next,
		client: client,
		ttl:    ttl,
		logger: log,
	}
}

// LatestPosition is never cached.
func (s *Source) LatestPosition(ctx context.Context) (uint64, error) {
	return s.next.LatestPosition(ctx)
}

// QueryEvents serves the query from Redis when possible. Redis failures fall
// through to the wrapped source.
func (s *Source) QueryEvents(ctx context.Context, kind orderbookv1.EventKind, filter orderbookv1.EventFilter) ([]orderbookv1.RawEvent, error) {
	if s.ttl <= 0 {
		return s.next.QueryEvents(ctx, kind, filter)
	}

	key := s.key(kind, filter)
	cached, err := s.client.Get(ctx, key)
	switch {
	case err != nil:
		s.logger.WarnContext(ctx, "event cache read failed", logger.NewField("key", key), logger.NewField("error", err.Error()))
	case cached != "":
		var events []orderbookv1.RawEvent
		if err := json.Unmarshal([]byte(cached), &events); err == nil {
			return events, nil
		}
		s.logger.WarnContext(ctx, "event cache entry unreadable", logger.NewField("key", key))
	}

	events, err := s.next.QueryEvents(ctx, kind, filter)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(events)
	if err != nil {
		return events, nil
	}
	if err := s.client.Set(ctx, key, data, s.ttl); err != nil {
		s.logger.WarnContext(ctx, "event cache write failed", logger.NewField("key", key), logger.NewField("error", err.Error()))
	}

	return events, nil
}

func (s *Source) key(kind orderbookv1.EventKind, filter orderbookv1.EventFilter) string {
	market := filter.MarketID
	if kind == orderbookv1.EventCancelled {
		market = "*"
	}
	return s.client.Key("events", string(kind), market,
		strconv.FormatUint(filter.FromBlock, 10),
		strconv.FormatUint(filter.ToBlock, 10),
	)
}
