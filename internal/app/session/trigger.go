package session

import (
	"context"
	"time"
)

// Trigger decides when a session refreshes. Run blocks until ctx is done and
// calls fire whenever a refresh is wanted. fire never blocks on a running refresh:
// requests that arrive while one is in flight are dropped.
type Trigger interface {
	Run(ctx context.Context, fire func(reason string))
}

// IntervalTrigger fires on a fixed interval.
type IntervalTrigger struct {
	Interval time.Duration
}

// NewIntervalTrigger creates an IntervalTrigger.
func NewIntervalTrigger(interval time.Duration) *IntervalTrigger {
	return &IntervalTrigger{Interval: interval}
}

// Run implements Trigger.
func (t *IntervalTrigger) Run(ctx context.Context, fire func(reason string)) {
	if t.Interval <= 0 {
		<-ctx.Done()
		return
	}

	ticker := time.NewTicker(t.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			fire("tick")
		}
	}
}

// PushTrigger fires when Notify is called. Notifications that arrive while the
// previous one has not been picked up yet are coalesced.
type PushTrigger struct {
	reason string
	ch     chan struct{}
}

// NewPushTrigger creates a PushTrigger whose refreshes are labelled with reason.
func NewPushTrigger(reason string) *PushTrigger {
	return &PushTrigger{
		reason: reason,
		ch:     make(chan struct{}, 1),
	}
}

// Notify requests a refresh without blocking.
func (t *PushTrigger) Notify() {
	select {
	case t.ch <- struct{}{}:
	default:
	}
}

// Run implements Trigger.
func (t *PushTrigger) Run(ctx context.Context, fire func(reason string)) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.ch:
			fire(t.reason)
		}
	}
}
