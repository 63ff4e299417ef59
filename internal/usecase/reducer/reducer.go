// Package reducer folds an order event log into per-order state.
package reducer

import (
	"sort"

	orderbookv1 "github.com/muhammadchandra19/orderbook-view/internal/domain/orderbook/v1"
	"github.com/shopspring/decimal"
)

// MarketResolver maps an order id to the market it was placed on.
// It is consulted for any event that does not carry a market. A Placed event
// it cannot resolve is counted as malformed.
type MarketResolver func(orderID string) (marketID string, ok bool)

// Stats counts what happened to each event during a reduction.
type Stats struct {
	Applied    int
	Malformed  int
	Foreign    int
	Unknown    int
	Duplicates int
}

// Skipped is the number of events that did not change any order.
func (s Stats) Skipped() int {
	return s.Malformed + s.Foreign + s.Unknown + s.Duplicates
}

// Reducer rebuilds order state from events. It holds no state between calls.
type Reducer struct {
	fillMode orderbookv1.FillMode
	resolver MarketResolver
}

// Option configures a Reducer.
type Option func(*Reducer)

// WithFillMode sets how Filled sizes are interpreted. The default is incremental.
func WithFillMode(mode orderbookv1.FillMode) Option {
	return func(r *Reducer) {
		if mode != "" {
			r.fillMode = mode
		}
	}
}

// WithMarketResolver sets the order-to-market join used for events without a market.
func WithMarketResolver(resolver MarketResolver) Option {
	return func(r *Reducer) {
		r.resolver = resolver
	}
}

// New creates a Reducer.
func New(opts ...Option) *Reducer {
	r := &Reducer{
		fillMode: orderbookv1.FillModeIncremental,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// FillMode returns the configured fill interpretation.
func (r *Reducer) FillMode() orderbookv1.FillMode {
	return r.fillMode
}

// Reduce folds events into the state of every order placed on marketID.
//
// Events are applied in sequence order regardless of input order. Events that
// fail validation, belong to another market, reference an unknown order or
// re-place a known order are skipped and counted in Stats. A Placed event without
// a market is joined through the resolver. The input is not modified.
func (r *Reducer) Reduce(events []orderbookv1.RawEvent, marketID string) (map[string]orderbookv1.OrderState, Stats) {
	ordered := make([]orderbookv1.RawEvent, len(events))
	copy(ordered, events)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Sequence.Less(ordered[j].Sequence)
	})

	states := make(map[string]orderbookv1.OrderState)
	// Orders seen on other markets, so their fills are counted as foreign not unknown.
	foreign := make(map[string]struct{})
	var stats Stats

	for _, event := range ordered {
		if err := event.Validate(); err != nil {
			stats.Malformed++
			continue
		}

		if event.Kind == orderbookv1.EventPlaced {
			if event.MarketID == "" {
				resolved, ok := r.resolve(event.OrderID)
				if !ok {
					stats.Malformed++
					continue
				}
				event.MarketID = resolved
			}
			if event.MarketID != marketID {
				foreign[event.OrderID] = struct{}{}
				stats.Foreign++
				continue
			}
			if _, exists := states[event.OrderID]; exists {
				stats.Duplicates++
				continue
			}
			states[event.OrderID] = orderbookv1.OrderState{
				OrderID:          event.OrderID,
				MarketID:         event.MarketID,
				Side:             event.Side,
				Price:            event.Price,
				OriginalSize:     event.Size,
				CumulativeFilled: decimal.Zero,
			}
			stats.Applied++
			continue
		}

		if !r.belongsTo(event, marketID, foreign) {
			stats.Foreign++
			continue
		}

		order, ok := states[event.OrderID]
		if !ok {
			stats.Unknown++
			continue
		}

		switch event.Kind {
		case orderbookv1.EventFilled:
			order.CumulativeFilled = r.fillMode.Apply(order.CumulativeFilled, event.FilledSize, order.OriginalSize)
		case orderbookv1.EventCancelled:
			if order.FullyFilled() {
				stats.Applied++
				continue
			}
			order.Cancelled = true
		}

		states[event.OrderID] = order
		stats.Applied++
	}

	return states, stats
}

// belongsTo decides whether a Filled or Cancelled event targets marketID.
func (r *Reducer) belongsTo(event orderbookv1.RawEvent, marketID string, foreign map[string]struct{}) bool {
	if event.MarketID != "" {
		return event.MarketID == marketID
	}
	if resolved, ok := r.resolve(event.OrderID); ok {
		return resolved == marketID
	}
	_, isForeign := foreign[event.OrderID]
	return !isForeign
}

func (r *Reducer) resolve(orderID string) (string, bool) {
	if r.resolver == nil {
		return "", false
	}
	marketID, ok := r.resolver(orderID)
	return marketID, ok && marketID != ""
}

