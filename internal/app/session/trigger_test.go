package session

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIntervalTrigger_Run(t *testing.T) {
	testCases := []struct {
		name     string
		interval time.Duration
		assertFn func(t *testing.T, fired *atomic.Int32)
	}{
		{
			name:     "fires on every tick",
			interval: 5 * time.Millisecond,
			assertFn: func(t *testing.T, fired *atomic.Int32) {
				assert.Eventually(t, func() bool { return fired.Load() >= 3 }, time.Second, time.Millisecond)
			},
		},
		{
			name:     "non-positive interval never fires",
			interval: 0,
			assertFn: func(t *testing.T, fired *atomic.Int32) {
				time.Sleep(20 * time.Millisecond)
				assert.Zero(t, fired.Load())
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			var fired atomic.Int32
			done := make(chan struct{})

			go func() {
				defer close(done)
				NewIntervalTrigger(tc.interval).Run(ctx, func(reason string) {
					assert.Equal(t, "tick", reason)
					fired.Add(1)
				})
			}()

			tc.assertFn(t, &fired)
			cancel()

			select {
			case <-done:
			case <-time.After(time.Second):
				t.Fatal("trigger did not return after cancel")
			}
		})
	}
}

func TestPushTrigger_CoalescesNotifications(t *testing.T) {
	trigger := NewPushTrigger("kafka")

	trigger.Notify()
	trigger.Notify()
	trigger.Notify()

	ctx, cancel := context.WithCancel(context.Background())
	var fired atomic.Int32
	done := make(chan struct{})

	go func() {
		defer close(done)
		trigger.Run(ctx, func(reason string) {
			assert.Equal(t, "kafka", reason)
			fired.Add(1)
		})
	}()

	assert.Eventually(t, func() bool { return fired.Load() == 1 }, time.Second, time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, int32(1), fired.Load())

	trigger.Notify()
	assert.Eventually(t, func() bool { return fired.Load() == 2 }, time.Second, time.Millisecond)

	cancel()
	<-done
}
