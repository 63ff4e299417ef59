// Package orderevent is the QuestDB-backed order event store. It serves the
// event log, an aggregated book over the folded orders table and the market list.
package orderevent

import (
	"context"
	"fmt"
	"strings"
	"time"

	orderbookv1 "github.com/muhammadchandra19/orderbook-view/internal/domain/orderbook/v1"
	"github.com/muhammadchandra19/orderbook-view/internal/usecase/aggregator"
	"github.com/muhammadchandra19/orderbook-view/pkg/errors"
	"github.com/muhammadchandra19/orderbook-view/pkg/logger"
	"github.com/muhammadchandra19/orderbook-view/pkg/questdb"
)

const (
	latestPositionQuery = `SELECT coalesce(max(block), 0) FROM order_events`

	eventsQuery = `SELECT order_id, market_id, side, size, price, filled_size, block, log_index, tx_hash
			  FROM order_events
			  WHERE kind = $1 AND block >= $2 AND block <= $3`

	existsQuery = `SELECT count() FROM order_events
			  WHERE block = $1 AND log_index = $2 AND kind = $3 AND order_id = $4`

	insertEventQuery = `INSERT INTO order_events (ts, block, log_index, kind, order_id, market_id, side, size, price, filled_size, tx_hash)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	orderExistsQuery = `SELECT count() FROM orders WHERE order_id = $1`

	insertOrderQuery = `INSERT INTO orders (ts, order_id, market_id, side, price, quantity, filled, status)
			  VALUES ($1, $2, $3, $4, $5, $6, '0', 'active')`

	activeOrderQuery = `SELECT quantity, filled FROM orders WHERE order_id = $1 AND status = 'active'`

	fillOrderQuery = `UPDATE orders SET filled = $1, status = $2 WHERE order_id = $3 AND status = 'active'`

	cancelOrderQuery = `UPDATE orders SET status = 'cancelled' WHERE order_id = $1 AND status = 'active'`

	activeOrdersQuery = `SELECT order_id, side, price, quantity, filled
			  FROM orders
			  WHERE market_id = $1 AND status = 'active'`

	orderMarketsQuery = `SELECT order_id, market_id FROM orders WHERE order_id IN (%s)`

	marketsQuery = `SELECT DISTINCT market_id, symbol FROM markets ORDER BY symbol`

	insertMarketQuery = `INSERT INTO markets (ts, market_id, symbol) VALUES ($1, $2, $3)`
)

// Repository reads and writes the order event tables.
//
// The orders table is a running fold of the ingested log kept with the same rules
// as the reducer: the first placement of an order wins, fills follow the fill
// mode and amounts are exact decimal strings.
type Repository struct {
	client   questdb.QuestDBClient
	logger   *logger.Logger
	fillMode orderbookv1.FillMode
	now      func() time.Time
}

var (
	_ orderbookv1.EventSource          = (*Repository)(nil)
	_ orderbookv1.AggregatedViewSource = (*Repository)(nil)
	_ orderbookv1.MarketRegistry       = (*Repository)(nil)
	_ orderbookv1.OrderMarketLookup    = (*Repository)(nil)
	_ Writer                           = (*Repository)(nil)
)

// Option configures a Repository.
type Option func(*Repository)

// WithFillMode sets how stored fills update the orders table. The default is incremental.
func WithFillMode(mode orderbookv1.FillMode) Option {
	return func(r *Repository) {
		if mode != "" {
			r.fillMode = mode
		}
	}
}

// NewRepository creates a new repository.
func NewRepository(client questdb.QuestDBClient, log *logger.Logger, opts ...Option) *Repository {
	r := &Repository{
		client:   client,
		logger:   log,
		fillMode: orderbookv1.FillModeIncremental,
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// LatestPosition returns the highest ingested block.
func (r *Repository) LatestPosition(ctx context.Context) (uint64, error) {
	rows, err := r.client.Query(ctx, latestPositionQuery)
	if err != nil {
		return 0, errors.TracerFromError(fmt.Errorf("failed to query latest block: %w", err))
	}
	defer rows.Close()

	var head int64
	if rows.Next() {
		if err := rows.Scan(&head); err != nil {
			return 0, errors.TracerFromError(fmt.Errorf("failed to scan latest block: %w", err))
		}
	}
	if err := rows.Err(); err != nil {
		return 0, errors.TracerFromError(err)
	}
	if head < 0 {
		head = 0
	}

	return uint64(head), nil
}

// QueryEvents returns the ingested events of kind inside filter. Cancellations are
// not filtered by market.
func (r *Repository) QueryEvents(ctx context.Context, kind orderbookv1.EventKind, filter orderbookv1.EventFilter) ([]orderbookv1.RawEvent, error) {
	query := eventsQuery
	args := []interface{}{string(kind), int64(filter.FromBlock), int64(filter.ToBlock)}

	if filter.MarketID != "" && kind != orderbookv1.EventCancelled {
		query += " AND market_id = $4"
		args = append(args, filter.MarketID)
	}
	query += " ORDER BY block, log_index"

	rows, err := r.client.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.TracerFromError(fmt.Errorf("failed to query %s events: %w", kind, err))
	}
	defer rows.Close()

	var events []orderbookv1.RawEvent
	for rows.Next() {
		var row Row
		err := rows.Scan(&row.OrderID, &row.MarketID, &row.Side, &row.Size, &row.Price,
			&row.FilledSize, &row.Block, &row.LogIndex, &row.TxHash)
		if err != nil {
			return nil, errors.TracerFromError(fmt.Errorf("failed to scan %s event: %w", kind, err))
		}
		events = append(events, row.ToEvent(kind))
	}
	if err := rows.Err(); err != nil {
		return nil, errors.TracerFromError(err)
	}

	return events, nil
}

// GetAggregatedView returns the active orders of marketID grouped by price.
// Levels are built by the same aggregation as the rebuilt book.
func (r *Repository) GetAggregatedView(ctx context.Context, marketID string, depth int) (orderbookv1.OrderBookView, error) {
	rows, err := r.client.Query(ctx, activeOrdersQuery, marketID)
	if err != nil {
		return orderbookv1.OrderBookView{}, errors.NewTracer(string(errors.AggregatedViewError)).Wrap(fmt.Errorf("failed to query active orders: %w", err))
	}
	defer rows.Close()

	states := make(map[string]orderbookv1.OrderState)
	for rows.Next() {
		var orderID, side, price, quantity, filled string
		if err := rows.Scan(&orderID, &side, &price, &quantity, &filled); err != nil {
			return orderbookv1.OrderBookView{}, errors.NewTracer(string(errors.AggregatedViewError)).Wrap(fmt.Errorf("failed to scan active order: %w", err))
		}
		states[orderID] = orderbookv1.OrderState{
			OrderID:          orderID,
			MarketID:         marketID,
			Side:             orderbookv1.Side(side),
			Price:            parseAmount(price),
			OriginalSize:     parseAmount(quantity),
			CumulativeFilled: parseAmount(filled),
		}
	}
	if err := rows.Err(); err != nil {
		return orderbookv1.OrderBookView{}, errors.NewTracer(string(errors.AggregatedViewError)).Wrap(err)
	}

	return aggregator.Aggregate(states, depth), nil
}

// OrderMarkets returns the market each known order was placed on.
func (r *Repository) OrderMarkets(ctx context.Context, orderIDs []string) (map[string]string, error) {
	markets := make(map[string]string, len(orderIDs))
	if len(orderIDs) == 0 {
		return markets, nil
	}

	placeholders := make([]string, len(orderIDs))
	args := make([]interface{}, len(orderIDs))
	for i, id := range orderIDs {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}

	rows, err := r.client.Query(ctx, fmt.Sprintf(orderMarketsQuery, strings.Join(placeholders, ", ")), args...)
	if err != nil {
		return nil, errors.TracerFromError(fmt.Errorf("failed to query order markets: %w", err))
	}
	defer rows.Close()

	for rows.Next() {
		var orderID, marketID string
		if err := rows.Scan(&orderID, &marketID); err != nil {
			return nil, errors.TracerFromError(fmt.Errorf("failed to scan order market: %w", err))
		}
		if marketID != "" {
			markets[orderID] = marketID
		}
	}
	if err := rows.Err(); err != nil {
		return nil, errors.TracerFromError(err)
	}

	return markets, nil
}

// GetAllMarkets lists the registered markets.
func (r *Repository) GetAllMarkets(ctx context.Context) ([]orderbookv1.Market, error) {
	rows, err := r.client.Query(ctx, marketsQuery)
	if err != nil {
		return nil, errors.NewTracer(string(errors.MarketRegistryError)).Wrap(err)
	}
	defer rows.Close()

	var markets []orderbookv1.Market
	for rows.Next() {
		var market orderbookv1.Market
		if err := rows.Scan(&market.ID, &market.Symbol); err != nil {
			return nil, errors.NewTracer(string(errors.MarketRegistryError)).Wrap(err)
		}
		markets = append(markets, market)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewTracer(string(errors.MarketRegistryError)).Wrap(err)
	}

	return markets, nil
}

// StoreEvent appends event to the log and applies it to the orders table.
// An event already stored at the same position is ignored, so redelivery is safe.
func (r *Repository) StoreEvent(ctx context.Context, event orderbookv1.RawEvent) error {
	if err := event.Validate(); err != nil {
		return err
	}
	if event.Kind == orderbookv1.EventPlaced && event.MarketID == "" {
		return errors.NewErrorDetails("placed event without market", string(errors.EventDecodeError), "marketId")
	}

	exists, err := r.exists(ctx, event)
	if err != nil {
		return errors.TracerFromError(fmt.Errorf("failed to check order event: %w", err))
	}
	if exists {
		r.logger.DebugContext(ctx, "order event already stored",
			logger.NewField("order_id", event.OrderID),
			logger.NewField("sequence", event.Sequence.String()),
		)
		return nil
	}

	now := r.now()
	var row Row
	row.FromEvent(event, now)

	err = r.client.Exec(ctx, insertEventQuery,
		row.Timestamp, row.Block, row.LogIndex, row.Kind, row.OrderID, row.MarketID,
		row.Side, row.Size, row.Price, row.FilledSize, row.TxHash)
	if err != nil {
		return errors.TracerFromError(fmt.Errorf("failed to store order event: %w", err))
	}

	switch event.Kind {
	case orderbookv1.EventPlaced:
		err = r.placeOrder(ctx, event, now)
	case orderbookv1.EventFilled:
		err = r.fillOrder(ctx, event)
	case orderbookv1.EventCancelled:
		err = r.client.Exec(ctx, cancelOrderQuery, event.OrderID)
	}
	if err != nil {
		return errors.TracerFromError(fmt.Errorf("failed to apply %s event to orders: %w", event.Kind, err))
	}

	return nil
}

// placeOrder inserts the order unless an earlier placement already created it.
func (r *Repository) placeOrder(ctx context.Context, event orderbookv1.RawEvent, now time.Time) error {
	count, err := r.count(ctx, orderExistsQuery, event.OrderID)
	if err != nil {
		return err
	}
	if count > 0 {
		r.logger.DebugContext(ctx, "order already placed, keeping the first placement",
			logger.NewField("order_id", event.OrderID),
			logger.NewField("sequence", event.Sequence.String()),
		)
		return nil
	}

	return r.client.Exec(ctx, insertOrderQuery,
		now, event.OrderID, event.MarketID, string(event.Side),
		event.Price.String(), event.Size.String())
}

// fillOrder applies a fill to an active order. Fills for unknown or closed orders are ignored.
func (r *Repository) fillOrder(ctx context.Context, event orderbookv1.RawEvent) error {
	rows, err := r.client.Query(ctx, activeOrderQuery, event.OrderID)
	if err != nil {
		return err
	}
	defer rows.Close()

	var quantity, filled string
	found := rows.Next()
	if found {
		if err := rows.Scan(&quantity, &filled); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}
	if !found {
		return nil
	}

	original := parseAmount(quantity)
	next := r.fillMode.Apply(parseAmount(filled), event.FilledSize, original)
	status := StatusActive
	if next.GreaterThanOrEqual(original) {
		status = StatusFilled
	}

	return r.client.Exec(ctx, fillOrderQuery, next.String(), status, event.OrderID)
}

func (r *Repository) exists(ctx context.Context, event orderbookv1.RawEvent) (bool, error) {
	count, err := r.count(ctx, existsQuery,
		int64(event.Sequence.Block), int64(event.Sequence.Index), string(event.Kind), event.OrderID)
	return count > 0, err
}

func (r *Repository) count(ctx context.Context, query string, args ...interface{}) (int64, error) {
	rows, err := r.client.Query(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	var count int64
	if rows.Next() {
		if err := rows.Scan(&count); err != nil {
			return 0, err
		}
	}
	return count, rows.Err()
}

// StoreMarket registers a market.
func (r *Repository) StoreMarket(ctx context.Context, market orderbookv1.Market) error {
	if market.ID == "" || market.Symbol == "" {
		return errors.NewErrorDetails("market id and symbol are required", string(errors.GeneralBadRequestError), "market")
	}

	if err := r.client.Exec(ctx, insertMarketQuery, r.now(), market.ID, market.Symbol); err != nil {
		return errors.NewTracer(string(errors.MarketRegistryError)).Wrap(fmt.Errorf("failed to store market: %w", err))
	}
	return nil
}
