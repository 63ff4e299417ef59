package tui

import (
	"context"
	"net/url"

	"github.com/gorilla/websocket"

	orderbookv1 "github.com/muhammadchandra19/orderbook-view/internal/domain/orderbook/v1"
)

// Stream yields snapshots of one market.
type Stream interface {
	Next() (orderbookv1.Snapshot, error)
	Close() error
}

type wsStream struct {
	conn *websocket.Conn
}

// Dial opens the snapshot stream of symbol on the service at baseURL
// (for example ws://localhost:8080).
func Dial(ctx context.Context, baseURL, symbol string) (Stream, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	u.Path = "/v1/orderbook/stream"
	u.RawQuery = url.Values{"symbol": {symbol}}.Encode()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, err
	}
	return &wsStream{conn: conn}, nil
}

func (s *wsStream) Next() (orderbookv1.Snapshot, error) {
	var snapshot orderbookv1.Snapshot
	err := s.conn.ReadJSON(&snapshot)
	return snapshot, err
}

func (s *wsStream) Close() error {
	return s.conn.Close()
}
