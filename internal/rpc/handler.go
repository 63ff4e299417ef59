// Package rpc serves market snapshots over HTTP and WebSocket.
package rpc

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"sort"
	"time"

	orderbookv1 "github.com/muhammadchandra19/orderbook-view/internal/domain/orderbook/v1"
	"github.com/muhammadchandra19/orderbook-view/pkg/errors"
	"github.com/muhammadchandra19/orderbook-view/pkg/httplib/healthcheck"
	"github.com/muhammadchandra19/orderbook-view/pkg/logger"
	"github.com/muhammadchandra19/orderbook-view/pkg/util"
)

const requestIDHeader = "X-Request-ID"

// Handler routes the public endpoints.
type Handler struct {
	sessions     Sessions
	logger       *logger.Logger
	snapshotWait time.Duration
	metrics      http.Handler
	health       healthcheck.HealthCheck
	mux          *http.ServeMux
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithSnapshotWait sets how long GET /v1/orderbook waits for a loading market.
func WithSnapshotWait(wait time.Duration) HandlerOption {
	return func(h *Handler) {
		h.snapshotWait = wait
	}
}

// WithMetrics mounts metrics on /metrics.
func WithMetrics(metrics http.Handler) HandlerOption {
	return func(h *Handler) {
		h.metrics = metrics
	}
}

// WithHealthChecks runs checks on GET /health.
func WithHealthChecks(checks ...healthcheck.Check) HandlerOption {
	return func(h *Handler) {
		h.health.Checks = append(h.health.Checks, checks...)
	}
}

// NewHandler creates the HTTP handler.
func NewHandler(sessions Sessions, log *logger.Logger, opts ...HandlerOption) *Handler {
	h := &Handler{
		sessions: sessions,
		logger:   log,
		health:   healthcheck.HealthCheck{Timeout: 2 * time.Second},
		mux:      http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(h)
	}

	h.mux.HandleFunc("GET /v1/orderbook", h.getOrderBook)
	h.mux.Handle("GET /v1/orderbook/stream", NewStreamHandler(sessions, log))
	h.mux.HandleFunc("GET /v1/markets", h.listMarkets)
	if h.metrics != nil {
		h.mux.Handle("GET /metrics", h.metrics)
	}

	return h
}

// ServeHTTP implements http.Handler.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.health.Handler(withRequestContext(h.mux)).ServeHTTP(w, r)
}

func withRequestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := util.WithRequestID(r.Context(), r.Header.Get(requestIDHeader))
		if ip, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
			ctx = util.WithClientIP(ctx, ip)
		}
		w.Header().Set(requestIDHeader, util.GetRequestID(ctx))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *Handler) getOrderBook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	symbol := r.URL.Query().Get("symbol")

	feed, release, err := h.sessions.Acquire(symbol)
	if err != nil {
		writeError(ctx, w, h.logger, err)
		return
	}
	defer release()

	snapshot := h.awaitSnapshot(ctx, feed)
	writeJSON(w, http.StatusOK, snapshot)
}

// awaitSnapshot returns the first settled snapshot, or the latest one once the
// wait elapses.
func (h *Handler) awaitSnapshot(ctx context.Context, feed Feed) orderbookv1.Snapshot {
	snapshot := feed.Snapshot()
	if !snapshot.IsLoading || h.snapshotWait <= 0 {
		return snapshot
	}

	updates, cancel := feed.Subscribe()
	defer cancel()

	timer := time.NewTimer(h.snapshotWait)
	defer timer.Stop()

	for {
		select {
		case next, ok := <-updates:
			if !ok {
				return snapshot
			}
			snapshot = next
			if !snapshot.IsLoading {
				return snapshot
			}
		case <-timer.C:
			return snapshot
		case <-ctx.Done():
			return snapshot
		}
	}
}

type marketsResponse struct {
	Markets []string `json:"markets"`
}

func (h *Handler) listMarkets(w http.ResponseWriter, _ *http.Request) {
	symbols := h.sessions.Symbols()
	sort.Strings(symbols)
	writeJSON(w, http.StatusOK, marketsResponse{Markets: symbols})
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

func writeError(ctx context.Context, w http.ResponseWriter, log *logger.Logger, err error) {
	status := http.StatusInternalServerError
	resp := errorResponse{Code: string(errors.GeneralInternalServerError), Message: err.Error()}

	if details, ok := errors.DetailsFromError(err); ok {
		resp = errorResponse{Code: details.Code, Message: details.Message, Field: details.Field}
		switch errors.ErrorCode(details.Code) {
		case errors.GeneralBadRequestError:
			status = http.StatusBadRequest
		case errors.GeneralNotFoundError, errors.MarketNotFoundError:
			status = http.StatusNotFound
		case errors.SessionClosedError:
			status = http.StatusServiceUnavailable
		}
	}

	if status == http.StatusInternalServerError {
		log.ErrorContext(ctx, err)
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
