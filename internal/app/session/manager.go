package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/muhammadchandra19/orderbook-view/pkg/errors"
	"github.com/muhammadchandra19/orderbook-view/pkg/logger"
)

// Factory builds an unstarted session for a symbol.
type Factory func(symbol string) (*Session, error)

type entry struct {
	session *Session
	refs    int
}

// Manager shares one session per market between all of its consumers.
// A session is started on first Acquire and stopped when the last holder releases it.
type Manager struct {
	ctx         context.Context
	factory     Factory
	logger      *logger.Logger
	stopTimeout time.Duration

	mu       sync.Mutex
	closed   bool
	sessions map[string]*entry
}

// NewManager creates a Manager. Sessions it starts stop when ctx is done.
func NewManager(ctx context.Context, factory Factory, log *logger.Logger) *Manager {
	return &Manager{
		ctx:         ctx,
		factory:     factory,
		logger:      log,
		stopTimeout: 5 * time.Second,
		sessions:    make(map[string]*entry),
	}
}

func normalize(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// Acquire returns the session for symbol, creating and starting it if needed.
// The returned release func must be called once the caller is done with it.
func (m *Manager) Acquire(symbol string) (*Session, func(), error) {
	key := normalize(symbol)
	if key == "" {
		return nil, nil, errors.NewErrorDetails("symbol is required", string(errors.GeneralBadRequestError), "symbol")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, nil, errors.NewErrorDetails("session manager is closed", string(errors.SessionClosedError), "acquire")
	}

	e, ok := m.sessions[key]
	if !ok {
		s, err := m.factory(key)
		if err != nil {
			return nil, nil, err
		}
		if err := s.Start(m.ctx); err != nil {
			return nil, nil, err
		}
		e = &entry{session: s}
		m.sessions[key] = e
		m.logger.Info("market session created", logger.NewField("market", key))
	}
	e.refs++

	var once sync.Once
	return e.session, func() {
		once.Do(func() { m.release(key, e) })
	}, nil
}

func (m *Manager) release(key string, e *entry) {
	m.mu.Lock()
	e.refs--
	if e.refs > 0 || m.sessions[key] != e {
		m.mu.Unlock()
		return
	}
	delete(m.sessions, key)
	m.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), m.stopTimeout)
	defer cancel()
	if err := e.session.Stop(ctx); err != nil {
		m.logger.Error(errors.TracerFromError(err), logger.NewField("market", key))
	}
	m.logger.Info("market session released", logger.NewField("market", key))
}

// Notify asks sessions for market to refresh. market may be a market id or a
// symbol. Sessions whose market id is still unresolved are notified as well, and
// an empty market notifies every session.
func (m *Manager) Notify(market string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for key, e := range m.sessions {
		id := e.session.MarketID()
		if market == "" || id == "" || strings.EqualFold(id, market) || key == normalize(market) {
			e.session.Notify()
		}
	}
}

// Symbols lists the markets with a live session.
func (m *Manager) Symbols() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]string, 0, len(m.sessions))
	for key := range m.sessions {
		out = append(out, key)
	}
	return out
}

// Close stops every session regardless of holders. Later Acquire calls fail.
func (m *Manager) Close(ctx context.Context) error {
	m.mu.Lock()
	m.closed = true
	sessions := m.sessions
	m.sessions = make(map[string]*entry)
	m.mu.Unlock()

	var firstErr error
	for key, e := range sessions {
		if err := e.session.Stop(ctx); err != nil && firstErr == nil {
			firstErr = err
			m.logger.Error(errors.TracerFromError(err), logger.NewField("market", key))
		}
	}
	return firstErr
}
