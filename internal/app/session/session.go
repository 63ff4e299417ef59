// Package session keeps a live order book view for one market.
package session

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	orderbookv1 "github.com/muhammadchandra19/orderbook-view/internal/domain/orderbook/v1"
	"github.com/muhammadchandra19/orderbook-view/internal/usecase/aggregator"
	"github.com/muhammadchandra19/orderbook-view/internal/usecase/merge"
	"github.com/muhammadchandra19/orderbook-view/internal/usecase/reducer"
	"github.com/muhammadchandra19/orderbook-view/pkg/errors"
	"github.com/muhammadchandra19/orderbook-view/pkg/logger"
	"github.com/muhammadchandra19/orderbook-view/pkg/util"
)

// Config holds the per-market refresh settings.
type Config struct {
	// Symbol is resolved to a market id through the registry unless MarketID is set.
	Symbol   string
	MarketID string

	Depth          int
	PollInterval   time.Duration
	RefreshTimeout time.Duration
	FillMode       orderbookv1.FillMode

	// StartBlock is the first position scanned. Lookback, when positive, limits the
	// scan to the most recent Lookback positions.
	StartBlock uint64
	Lookback   uint64
}

// Dependencies are the sources a session reads from. Primary, Markets and Orders
// are optional. Orders joins events that carry no market to the market of their order.
type Dependencies struct {
	Events  orderbookv1.EventSource
	Primary orderbookv1.AggregatedViewSource
	Markets orderbookv1.MarketRegistry
	Orders  orderbookv1.OrderMarketLookup
}

// Option configures a Session.
type Option func(*Session)

// WithTriggers replaces the default interval trigger. Calling it with no
// triggers leaves the session refreshing on Notify only.
func WithTriggers(triggers ...Trigger) Option {
	return func(s *Session) {
		s.triggers = append([]Trigger{}, triggers...)
	}
}

// WithPublisher adds a side output for published snapshots.
func WithPublisher(publisher Publisher) Option {
	return func(s *Session) {
		s.publishers = append(s.publishers, publisher)
	}
}

// WithRecorder sets the refresh observer.
func WithRecorder(recorder Recorder) Option {
	return func(s *Session) {
		s.recorder = recorder
	}
}

// Session owns the current snapshot of one market and refreshes it.
//
// At most one refresh runs at a time. A refresh requested while another is
// running is dropped. Snapshots produced after Stop are discarded.
type Session struct {
	cfg        Config
	deps       Dependencies
	reducer    *reducer.Reducer
	logger     *logger.Logger
	recorder   Recorder
	publishers []Publisher
	triggers   []Trigger
	push       *PushTrigger

	refreshing atomic.Bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu          sync.RWMutex
	started     bool
	closed      bool
	marketID    string
	snapshot    orderbookv1.Snapshot
	subscribers map[int]chan orderbookv1.Snapshot
	nextSubID   int
}

// New creates an idle session. Call Start to begin refreshing.
func New(cfg Config, deps Dependencies, log *logger.Logger, opts ...Option) *Session {
	if cfg.Depth <= 0 {
		cfg.Depth = aggregator.DefaultDepth
	}
	if cfg.RefreshTimeout <= 0 {
		cfg.RefreshTimeout = 10 * time.Second
	}

	s := &Session{
		cfg:         cfg,
		deps:        deps,
		reducer:     reducer.New(reducer.WithFillMode(cfg.FillMode)),
		logger:      log.WithFields(logger.NewField("market", cfg.Symbol)),
		recorder:    nopRecorder{},
		push:        NewPushTrigger("push"),
		marketID:    cfg.MarketID,
		snapshot:    orderbookv1.LoadingSnapshot(cfg.Symbol),
		subscribers: make(map[int]chan orderbookv1.Snapshot),
	}
	s.snapshot.MarketID = cfg.MarketID
	s.ctx, s.cancel = context.WithCancel(context.Background())

	for _, opt := range opts {
		opt(s)
	}
	if s.triggers == nil {
		s.triggers = []Trigger{NewIntervalTrigger(cfg.PollInterval)}
	}

	return s
}

// Start runs an initial refresh and the triggers. The session stops when ctx is
// done or Stop is called.
func (s *Session) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return errors.NewErrorDetails("session is stopped", string(errors.SessionClosedError), "start")
	}
	if s.started {
		s.mu.Unlock()
		return nil
	}
	triggers := append([]Trigger{s.push}, s.triggers...)
	// Added under the lock so a concurrent Stop never waits on an empty group.
	s.wg.Add(len(triggers) + 1)
	s.started = true
	s.mu.Unlock()

	context.AfterFunc(ctx, s.cancel)

	for _, trigger := range triggers {
		go func(trigger Trigger) {
			defer s.wg.Done()
			trigger.Run(s.ctx, func(reason string) {
				s.Refresh(reason)
			})
		}(trigger)
	}

	go func() {
		defer s.wg.Done()
		s.Refresh("mount")
	}()

	s.logger.Info("session started",
		logger.NewField("depth", s.cfg.Depth),
		logger.NewField("interval", s.cfg.PollInterval.String()),
		logger.NewField("fill_mode", s.reducer.FillMode()),
	)
	return nil
}

// Stop cancels the triggers, waits for them to return and closes all subscriptions.
func (s *Session) Stop(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	for id, ch := range s.subscribers {
		close(ch)
		delete(s.subscribers, id)
	}
	s.mu.Unlock()

	s.cancel()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("session stopped")
		return nil
	case <-ctx.Done():
		s.logger.Warn("session stop timeout exceeded")
		return ctx.Err()
	}
}

// Symbol returns the configured market symbol.
func (s *Session) Symbol() string {
	return s.cfg.Symbol
}

// MarketID returns the resolved market id, empty until resolution succeeds.
func (s *Session) MarketID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.marketID
}

// Snapshot returns the latest published snapshot.
func (s *Session) Snapshot() orderbookv1.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// Subscribe returns a channel that always holds the most recent snapshot not yet
// received. The current snapshot is delivered first. The channel is closed by the
// returned cancel func or by Stop.
func (s *Session) Subscribe() (<-chan orderbookv1.Snapshot, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan orderbookv1.Snapshot, 1)
	if s.closed {
		close(ch)
		return ch, func() {}
	}

	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = ch
	ch <- s.snapshot

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if sub, ok := s.subscribers[id]; ok {
				close(sub)
				delete(s.subscribers, id)
			}
		})
	}
}

// Notify requests a refresh from a push source without blocking.
func (s *Session) Notify() {
	s.push.Notify()
}

// Refresh runs one refresh pass unless one is already running or the session is
// stopped. It reports whether a pass ran.
func (s *Session) Refresh(reason string) bool {
	if s.isClosed() {
		return false
	}
	if !s.refreshing.CompareAndSwap(false, true) {
		s.recorder.TriggerDropped(s.cfg.Symbol, reason)
		s.logger.Debug("refresh already in flight, dropping trigger", logger.NewField("reason", reason))
		return false
	}
	defer s.refreshing.Store(false)

	ctx, cancel := context.WithTimeout(s.ctx, s.cfg.RefreshTimeout)
	defer cancel()
	ctx = util.WithMarket(util.WithRequestID(ctx, ""), s.cfg.Symbol)

	start := time.Now()
	snapshot, err := s.build(ctx)
	if s.ctx.Err() != nil {
		s.logger.Debug("session cancelled during refresh, discarding result")
		return true
	}
	s.recorder.ObserveRefresh(s.cfg.Symbol, time.Since(start), err)

	if err != nil {
		s.logger.ErrorContext(ctx, err, logger.NewField("reason", reason))
		snapshot = s.failedSnapshot(err)
	} else {
		s.logger.DebugContext(ctx, "refresh finished",
			logger.NewField("reason", reason),
			logger.NewField("bids", len(snapshot.Bids)),
			logger.NewField("asks", len(snapshot.Asks)),
			logger.NewField("position", snapshot.Position),
		)
	}

	s.publish(ctx, snapshot)
	return true
}

func (s *Session) build(ctx context.Context) (orderbookv1.Snapshot, error) {
	marketID, err := s.resolveMarket(ctx)
	if err != nil {
		return orderbookv1.Snapshot{}, err
	}

	head, err := s.deps.Events.LatestPosition(ctx)
	if err != nil {
		return orderbookv1.Snapshot{}, errors.NewTracer(string(errors.EventSourceError)).Wrap(err)
	}

	events, err := s.queryEvents(ctx, marketID, head)
	if err != nil {
		return orderbookv1.Snapshot{}, err
	}

	states, stats := s.reducerFor(ctx, events).Reduce(events, marketID)
	s.recorder.EventsReduced(s.cfg.Symbol, stats)
	if stats.Skipped() > 0 {
		s.logger.DebugContext(ctx, "events skipped during reduce",
			logger.NewField("malformed", stats.Malformed),
			logger.NewField("foreign", stats.Foreign),
			logger.NewField("unknown", stats.Unknown),
			logger.NewField("duplicates", stats.Duplicates),
		)
	}

	fallback := aggregator.Aggregate(states, s.cfg.Depth)
	primary := s.primaryView(ctx, marketID)
	view, sources := merge.Merge(primary, fallback)

	return orderbookv1.Snapshot{
		MarketID:      marketID,
		Symbol:        s.cfg.Symbol,
		OrderBookView: view,
		Metrics:       aggregator.Summarize(view),
		BidsSource:    sources.Bids,
		AsksSource:    sources.Asks,
		Position:      head,
		UpdatedAt:     time.Now().UTC(),
	}, nil
}

// reducerFor returns the session reducer, joined to the order lookup when some
// events do not carry a market. A failed lookup leaves those events to the
// reducer's own join.
func (s *Session) reducerFor(ctx context.Context, events []orderbookv1.RawEvent) *reducer.Reducer {
	if s.deps.Orders == nil {
		return s.reducer
	}

	seen := make(map[string]struct{})
	var orderIDs []string
	for _, event := range events {
		if event.MarketID != "" || event.OrderID == "" {
			continue
		}
		if _, ok := seen[event.OrderID]; ok {
			continue
		}
		seen[event.OrderID] = struct{}{}
		orderIDs = append(orderIDs, event.OrderID)
	}
	if len(orderIDs) == 0 {
		return s.reducer
	}

	markets, err := s.deps.Orders.OrderMarkets(ctx, orderIDs)
	if err != nil {
		s.logger.WarnContext(ctx, "order market lookup failed",
			logger.NewField("orders", len(orderIDs)),
			logger.NewField("error", err.Error()),
		)
		return s.reducer
	}

	return reducer.New(
		reducer.WithFillMode(s.reducer.FillMode()),
		reducer.WithMarketResolver(func(orderID string) (string, bool) {
			marketID, ok := markets[orderID]
			return marketID, ok
		}),
	)
}

// queryEvents reads the three event kinds concurrently over the scan window.
func (s *Session) queryEvents(ctx context.Context, marketID string, head uint64) ([]orderbookv1.RawEvent, error) {
	from := s.cfg.StartBlock
	if s.cfg.Lookback > 0 && head > s.cfg.Lookback && head-s.cfg.Lookback > from {
		from = head - s.cfg.Lookback
	}
	if from > head {
		return nil, nil
	}
	filter := orderbookv1.EventFilter{MarketID: marketID, FromBlock: from, ToBlock: head}

	results := make([][]orderbookv1.RawEvent, len(orderbookv1.EventKinds))
	errs := make([]error, len(orderbookv1.EventKinds))

	var wg sync.WaitGroup
	for i, kind := range orderbookv1.EventKinds {
		wg.Add(1)
		go func(i int, kind orderbookv1.EventKind) {
			defer wg.Done()
			results[i], errs[i] = s.deps.Events.QueryEvents(ctx, kind, filter)
		}(i, kind)
	}
	wg.Wait()

	var events []orderbookv1.RawEvent
	for i := range results {
		if errs[i] != nil {
			return nil, errors.NewTracer(string(errors.EventSourceError)).Wrap(errs[i])
		}
		events = append(events, results[i]...)
	}
	return events, nil
}

// primaryView returns the native aggregated view, or an empty one when it is
// not configured or cannot be read.
func (s *Session) primaryView(ctx context.Context, marketID string) orderbookv1.OrderBookView {
	if s.deps.Primary == nil {
		return orderbookv1.EmptyView()
	}

	view, err := s.deps.Primary.GetAggregatedView(ctx, marketID, s.cfg.Depth)
	if err != nil {
		s.logger.WarnContext(ctx, "aggregated view unavailable, using rebuilt book",
			logger.NewField("error", err.Error()),
		)
		return orderbookv1.EmptyView()
	}

	view.Bids = truncate(view.Bids, s.cfg.Depth)
	view.Asks = truncate(view.Asks, s.cfg.Depth)
	return view
}

func (s *Session) resolveMarket(ctx context.Context) (string, error) {
	s.mu.RLock()
	marketID := s.marketID
	s.mu.RUnlock()
	if marketID != "" {
		return marketID, nil
	}

	if s.deps.Markets == nil {
		return "", errors.NewErrorDetails("no market registry to resolve "+s.cfg.Symbol, string(errors.MarketNotFoundError), "symbol")
	}

	markets, err := s.deps.Markets.GetAllMarkets(ctx)
	if err != nil {
		return "", errors.NewTracer(string(errors.MarketRegistryError)).Wrap(err)
	}

	for _, market := range markets {
		if strings.EqualFold(market.Symbol, s.cfg.Symbol) {
			s.mu.Lock()
			s.marketID = market.ID
			s.mu.Unlock()
			s.logger.InfoContext(ctx, "market resolved", logger.NewField("market_id", market.ID))
			return market.ID, nil
		}
	}

	return "", errors.NewErrorDetails("market not found: "+s.cfg.Symbol, string(errors.MarketNotFoundError), "symbol")
}

func (s *Session) failedSnapshot(err error) orderbookv1.Snapshot {
	view := orderbookv1.EmptyView()
	return orderbookv1.Snapshot{
		MarketID:      s.MarketID(),
		Symbol:        s.cfg.Symbol,
		OrderBookView: view,
		Metrics:       aggregator.Summarize(view),
		Error:         err.Error(),
		UpdatedAt:     time.Now().UTC(),
	}
}

// publish replaces the current snapshot and fans it out, unless the session was stopped.
func (s *Session) publish(ctx context.Context, snapshot orderbookv1.Snapshot) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		s.logger.Debug("session stopped, discarding refresh result")
		return
	}
	s.snapshot = snapshot
	for _, ch := range s.subscribers {
		offer(ch, snapshot)
	}
	s.mu.Unlock()

	for _, publisher := range s.publishers {
		if err := publisher.Publish(ctx, snapshot); err != nil {
			s.logger.WarnContext(ctx, "snapshot publisher failed", logger.NewField("error", err.Error()))
		}
	}
}

func (s *Session) isClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

// offer replaces any unread value in ch with snapshot.
func offer(ch chan orderbookv1.Snapshot, snapshot orderbookv1.Snapshot) {
	select {
	case ch <- snapshot:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- snapshot:
	default:
	}
}

func truncate(levels []orderbookv1.PriceLevel, depth int) []orderbookv1.PriceLevel {
	if len(levels) > depth {
		return levels[:depth]
	}
	return levels
}
