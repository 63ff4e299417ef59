// Package consumer ingests order events from Kafka.
package consumer

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	orderbookv1 "github.com/muhammadchandra19/orderbook-view/internal/domain/orderbook/v1"
	"github.com/muhammadchandra19/orderbook-view/internal/infrastructure/questdb/orderevent"
	"github.com/muhammadchandra19/orderbook-view/pkg/config"
	"github.com/muhammadchandra19/orderbook-view/pkg/errors"
	"github.com/muhammadchandra19/orderbook-view/pkg/logger"
	"github.com/muhammadchandra19/orderbook-view/pkg/questdb"
	"github.com/segmentio/kafka-go"
)

// Reader is the part of *kafka.Reader used by the consumer.
//
//go:generate mockgen -source=order_event_consumer.go -destination=mock/order_event_consumer_mock.go -package=mock
type Reader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Notifier is told which market changed after an event is stored.
// An empty market means the market is unknown.
type Notifier interface {
	Notify(market string)
}

// NewKafkaReader creates the reader for the order event topic.
func NewKafkaReader(cfg config.OrderKafkaConfig) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:     cfg.Brokers,
		Topic:       cfg.Topic,
		GroupID:     cfg.ConsumerGroup,
		MinBytes:    1,
		MaxBytes:    10e6,
		StartOffset: kafka.LastOffset,
	})
}

// OrderEventConsumer stores order events in QuestDB and notifies the sessions of
// the affected market.
type OrderEventConsumer struct {
	reader   Reader
	writer   orderevent.Writer
	dbTx     questdb.TX
	notifier Notifier
	logger   *logger.Logger

	maxRetries   int
	retryBackoff time.Duration

	mu          sync.Mutex
	seenMarkets map[string]struct{}
}

// maxRetryBackoff caps the delay between attempts to store one event.
const maxRetryBackoff = 30 * time.Second

// NewOrderEventConsumer creates a new OrderEventConsumer.
func NewOrderEventConsumer(
	cfg config.OrderKafkaConfig,
	reader Reader,
	writer orderevent.Writer,
	dbTx questdb.TX,
	notifier Notifier,
	log *logger.Logger,
) *OrderEventConsumer {
	backoff := cfg.RetryBackoff
	if backoff <= 0 {
		backoff = time.Second
	}

	return &OrderEventConsumer{
		reader:       reader,
		writer:       writer,
		dbTx:         dbTx,
		notifier:     notifier,
		logger:       log,
		maxRetries:   cfg.MaxRetries,
		retryBackoff: backoff,
		seenMarkets:  make(map[string]struct{}),
	}
}

// Start consumes messages until ctx is done.
func (c *OrderEventConsumer) Start(ctx context.Context) error {
	c.logger.InfoContext(ctx, "starting order event consumer", logger.NewField("action", "order_event_consumer_start"))

	for {
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.InfoContext(ctx, "context done", logger.NewField("action", "order_event_consumer_stop"))
				return nil
			}
			c.logger.ErrorContext(ctx, err, logger.NewField("action", "fetch_message"))
			if !c.sleep(ctx, c.retryBackoff) {
				return nil
			}
			continue
		}

		if err := c.handleMessage(ctx, msg); err != nil {
			c.logger.InfoContext(ctx, "context done before order event was stored, leaving it uncommitted",
				logger.NewField("action", "order_event_consumer_stop"),
				logger.NewField("offset", msg.Offset),
			)
			return nil
		}

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			c.logger.ErrorContext(ctx, err, logger.NewField("action", "commit_message"))
		}
	}
}

// Stop closes the reader.
func (c *OrderEventConsumer) Stop() error {
	c.logger.Info("stopping order event consumer", logger.NewField("action", "order_event_consumer_stop"))
	return c.reader.Close()
}

// handleMessage stores one message. Messages that cannot be decoded are logged
// and skipped. Store failures are retried with growing backoff until the event is
// stored, so the log never has gaps; the only error returned is ctx's.
func (c *OrderEventConsumer) handleMessage(ctx context.Context, msg kafka.Message) error {
	var payload orderbookv1.OrderEventMessage
	if err := json.Unmarshal(msg.Value, &payload); err != nil {
		c.logger.WarnContext(ctx, "skipping undecodable order event",
			logger.NewField("action", "unmarshal_order_event"),
			logger.NewField("offset", msg.Offset),
			logger.NewField("error", err.Error()),
		)
		return nil
	}

	event, err := payload.ToRawEvent()
	if err != nil {
		c.logger.WarnContext(ctx, "skipping malformed order event",
			logger.NewField("action", "decode_order_event"),
			logger.NewField("offset", msg.Offset),
			logger.NewField("error", err.Error()),
		)
		return nil
	}

	backoff := c.retryBackoff
	for attempt := 1; ; attempt++ {
		err = c.handleEvent(ctx, payload, event)
		if err == nil {
			break
		}

		fields := []logger.Field{
			logger.NewField("action", "handle_order_event"),
			logger.NewField("attempt", attempt),
			logger.NewField("order_id", event.OrderID),
			logger.NewField("offset", msg.Offset),
		}
		// Early attempts are expected to recover; past maxRetries the partition is stuck.
		if attempt <= c.maxRetries {
			c.logger.WarnContext(ctx, "storing order event failed, retrying",
				append(fields, logger.NewField("error", err.Error()))...)
		} else {
			c.logger.ErrorContext(ctx, err, fields...)
		}

		if !c.sleep(ctx, backoff) {
			return ctx.Err()
		}
		backoff = min(backoff*2, maxRetryBackoff)
	}

	market := event.MarketID
	if market == "" {
		market = payload.Symbol
	}
	c.notifier.Notify(market)
	return nil
}

func (c *OrderEventConsumer) handleEvent(ctx context.Context, payload orderbookv1.OrderEventMessage, event orderbookv1.RawEvent) error {
	txCtx, err := c.dbTx.Begin(ctx)
	if err != nil {
		return err
	}

	defer c.dbTx.Rollback(txCtx)

	market, announced := payload.Market()
	if announced && !c.seen(market.ID) {
		if err := c.writer.StoreMarket(txCtx, market); err != nil {
			return err
		}
	}

	if err := c.writer.StoreEvent(txCtx, event); err != nil {
		if errors.ErrorCodeEquals(err, string(errors.EventDecodeError)) {
			c.logger.WarnContext(ctx, "order event rejected by store", logger.NewField("error", err.Error()))
			return nil
		}
		return err
	}

	if err := c.dbTx.Commit(txCtx); err != nil {
		return err
	}

	if announced {
		c.markSeen(market.ID)
	}
	return nil
}

func (c *OrderEventConsumer) seen(marketID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.seenMarkets[marketID]
	return ok
}

func (c *OrderEventConsumer) markSeen(marketID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seenMarkets[marketID] = struct{}{}
}

func (c *OrderEventConsumer) sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
