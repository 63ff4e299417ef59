// Package metrics exports session activity to Prometheus.
package metrics

import (
	"context"
	"net/http"
	"time"

	orderbookv1 "github.com/muhammadchandra19/orderbook-view/internal/domain/orderbook/v1"
	"github.com/muhammadchandra19/orderbook-view/internal/usecase/reducer"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "orderbook"

// Metrics implements session.Recorder and session.Publisher.
type Metrics struct {
	gatherer prometheus.Gatherer

	refreshes       *prometheus.CounterVec
	refreshDuration *prometheus.HistogramVec
	droppedTriggers *prometheus.CounterVec
	skippedEvents   *prometheus.CounterVec
	appliedEvents   *prometheus.CounterVec

	bestPrice   *prometheus.GaugeVec
	spread      *prometheus.GaugeVec
	levels      *prometheus.GaugeVec
	sideSources *prometheus.GaugeVec
	position    *prometheus.GaugeVec
}

// New creates the collectors and registers them with registry.
func New(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		gatherer: registry,
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refreshes_total",
			Help:      "Refresh passes by market and result.",
		}, []string{"market", "result"}),
		refreshDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "refresh_duration_seconds",
			Help:      "Duration of refresh passes.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}, []string{"market"}),
		droppedTriggers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dropped_triggers_total",
			Help:      "Refresh triggers dropped because a refresh was in flight.",
		}, []string{"market", "reason"}),
		skippedEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "skipped_events_total",
			Help:      "Events ignored while rebuilding the book.",
		}, []string{"market", "cause"}),
		appliedEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "applied_events_total",
			Help:      "Events applied while rebuilding the book.",
		}, []string{"market"}),
		bestPrice: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "best_price",
			Help:      "Best bid and ask of the last published snapshot.",
		}, []string{"market", "side"}),
		spread: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "spread",
			Help:      "Spread of the last published snapshot.",
		}, []string{"market"}),
		levels: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "levels",
			Help:      "Number of price levels in the last published snapshot.",
		}, []string{"market", "side"}),
		sideSources: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "primary_side",
			Help:      "1 when the side of the last snapshot came from the primary view.",
		}, []string{"market", "side"}),
		position: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "position",
			Help:      "Log position of the last published snapshot.",
		}, []string{"market"}),
	}

	registry.MustRegister(
		m.refreshes, m.refreshDuration, m.droppedTriggers, m.skippedEvents, m.appliedEvents,
		m.bestPrice, m.spread, m.levels, m.sideSources, m.position,
	)
	return m
}

// Handler serves the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// ObserveRefresh records one refresh pass.
func (m *Metrics) ObserveRefresh(symbol string, duration time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.refreshes.WithLabelValues(symbol, result).Inc()
	m.refreshDuration.WithLabelValues(symbol).Observe(duration.Seconds())
}

// TriggerDropped records a trigger that arrived during a refresh.
func (m *Metrics) TriggerDropped(symbol, reason string) {
	m.droppedTriggers.WithLabelValues(symbol, reason).Inc()
}

// EventsReduced records reducer statistics.
func (m *Metrics) EventsReduced(symbol string, stats reducer.Stats) {
	m.appliedEvents.WithLabelValues(symbol).Add(float64(stats.Applied))
	m.skippedEvents.WithLabelValues(symbol, "malformed").Add(float64(stats.Malformed))
	m.skippedEvents.WithLabelValues(symbol, "foreign").Add(float64(stats.Foreign))
	m.skippedEvents.WithLabelValues(symbol, "unknown").Add(float64(stats.Unknown))
	m.skippedEvents.WithLabelValues(symbol, "duplicate").Add(float64(stats.Duplicates))
}

// Publish updates the book gauges from a snapshot. Failed snapshots only reset
// the level counts.
func (m *Metrics) Publish(_ context.Context, snapshot orderbookv1.Snapshot) error {
	market := snapshot.Symbol

	m.levels.WithLabelValues(market, "bid").Set(float64(len(snapshot.Bids)))
	m.levels.WithLabelValues(market, "ask").Set(float64(len(snapshot.Asks)))
	if snapshot.Error != "" {
		return nil
	}

	if snapshot.BestBid.Valid {
		m.bestPrice.WithLabelValues(market, "bid").Set(snapshot.BestBid.Decimal.InexactFloat64())
	} else {
		m.bestPrice.DeleteLabelValues(market, "bid")
	}
	if snapshot.BestAsk.Valid {
		m.bestPrice.WithLabelValues(market, "ask").Set(snapshot.BestAsk.Decimal.InexactFloat64())
	} else {
		m.bestPrice.DeleteLabelValues(market, "ask")
	}

	m.spread.WithLabelValues(market).Set(snapshot.Spread.InexactFloat64())
	m.sideSources.WithLabelValues(market, "bid").Set(boolGauge(snapshot.BidsSource == orderbookv1.SourcePrimary))
	m.sideSources.WithLabelValues(market, "ask").Set(boolGauge(snapshot.AsksSource == orderbookv1.SourcePrimary))
	m.position.WithLabelValues(market).Set(float64(snapshot.Position))
	return nil
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
