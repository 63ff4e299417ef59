package session

import (
	"context"
	"time"

	orderbookv1 "github.com/muhammadchandra19/orderbook-view/internal/domain/orderbook/v1"
	"github.com/muhammadchandra19/orderbook-view/internal/usecase/reducer"
)

// Publisher receives every snapshot a session publishes, after local subscribers.
//
//go:generate mockgen -source=observer.go -destination=mock/observer_mock.go -package=mock
type Publisher interface {
	Publish(ctx context.Context, snapshot orderbookv1.Snapshot) error
}

// Recorder observes refresh activity.
type Recorder interface {
	ObserveRefresh(symbol string, duration time.Duration, err error)
	TriggerDropped(symbol, reason string)
	EventsReduced(symbol string, stats reducer.Stats)
}

type nopRecorder struct{}

func (nopRecorder) ObserveRefresh(string, time.Duration, error) {}
func (nopRecorder) TriggerDropped(string, string)               {}
func (nopRecorder) EventsReduced(string, reducer.Stats)         {}
