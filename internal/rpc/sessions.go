package rpc

import (
	"github.com/muhammadchandra19/orderbook-view/internal/app/session"
	orderbookv1 "github.com/muhammadchandra19/orderbook-view/internal/domain/orderbook/v1"
)

// Feed is the read side of a market session.
//
//go:generate mockgen -source=sessions.go -destination=mock/sessions_mock.go -package=mock
type Feed interface {
	Snapshot() orderbookv1.Snapshot
	Subscribe() (<-chan orderbookv1.Snapshot, func())
}

// Sessions hands out market feeds by symbol.
type Sessions interface {
	Acquire(symbol string) (Feed, func(), error)
	Symbols() []string
}

type managerSessions struct {
	manager *session.Manager
}

// FromManager exposes a session manager as Sessions.
func FromManager(manager *session.Manager) Sessions {
	return managerSessions{manager: manager}
}

func (m managerSessions) Acquire(symbol string) (Feed, func(), error) {
	s, release, err := m.manager.Acquire(symbol)
	if err != nil {
		return nil, nil, err
	}
	return s, release, nil
}

func (m managerSessions) Symbols() []string {
	return m.manager.Symbols()
}
